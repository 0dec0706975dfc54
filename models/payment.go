package models

import (
	"time"
)

const (
	PaymentSourceTable  = "table"
	PaymentSourceUnpaid = "unpaid"
)

// Payment records one settlement: a table bill or an unpaid ledger entry.
type Payment struct {
	ID             uint          `json:"id" gorm:"primaryKey"`
	OrderID        uint          `json:"order_id" gorm:"index;not null"`
	TableID        *uint         `json:"table_id,omitempty" gorm:"index"`
	Method         PaymentMethod `json:"payment_method" gorm:"type:varchar(20);not null"`
	Source         string        `json:"source" gorm:"type:varchar(20);not null"`
	Amount         float64       `json:"amount" gorm:"type:decimal(12,2);not null"`
	AmountPaid     float64       `json:"amount_paid" gorm:"type:decimal(12,2);not null"`
	Change         float64       `json:"change" gorm:"type:decimal(12,2);not null;default:0"`
	DiscountAmount float64       `json:"discount_amount" gorm:"type:decimal(12,2);not null;default:0"`
	Notes          string        `json:"notes" gorm:"type:text"`
	CreatedAt      time.Time     `json:"created_at"`
}
