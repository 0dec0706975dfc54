package models

import "time"

// UnpaidEntry ties an order to a named customer debt outside table occupancy.
// OrderWasPaid marks entries created for orders that were already paid, kept
// for manual reconciliation.
type UnpaidEntry struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	OrderID       uint      `gorm:"uniqueIndex;not null" json:"order_id"`
	Order         *Order    `gorm:"foreignKey:OrderID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"order,omitempty"`
	CustomerName  string    `gorm:"type:varchar(255);not null;index" json:"customer_name"`
	CustomerPhone string    `gorm:"type:varchar(30)" json:"customer_phone,omitempty"`
	TableNumber   string    `gorm:"type:varchar(50)" json:"table_number,omitempty"`
	Notes         string    `gorm:"type:text" json:"notes,omitempty"`
	OrderWasPaid  bool      `gorm:"not null;default:false" json:"order_was_paid"`
	CreatedAt     time.Time `gorm:"not null" json:"created_at"`
}
