package models

import (
	"time"
)

type (
	OrderType     string
	OrderKind     string
	OrderStatus   string
	PaymentStatus string
	PaymentMethod string
	DiscountType  string
)

const (
	OrderTypeDineIn   OrderType = "dine_in"
	OrderTypeTakeaway OrderType = "takeaway"
	OrderTypeDelivery OrderType = "delivery"
)

const (
	OrderKindRegular  OrderKind = "regular"
	OrderKindCombined OrderKind = "combined"
)

const (
	OrderActive    OrderStatus = "active"
	OrderCompleted OrderStatus = "completed"
	OrderCancelled OrderStatus = "cancelled"
	OrderRefunded  OrderStatus = "refunded"
)

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
	PaymentRefunded  PaymentStatus = "refunded"
)

const (
	PaymentCash          PaymentMethod = "cash"
	PaymentCard          PaymentMethod = "card"
	PaymentMobile        PaymentMethod = "mobile"
	PaymentLoyaltyPoints PaymentMethod = "loyalty_points"
)

const (
	DiscountNone       DiscountType = ""
	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed"
)

func (t OrderType) Valid() bool {
	switch t {
	case OrderTypeDineIn, OrderTypeTakeaway, OrderTypeDelivery:
		return true
	}
	return false
}

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderActive, OrderCompleted, OrderCancelled, OrderRefunded:
		return true
	}
	return false
}

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentPending, PaymentCompleted, PaymentFailed, PaymentRefunded:
		return true
	}
	return false
}

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCash, PaymentCard, PaymentMobile, PaymentLoyaltyPoints:
		return true
	}
	return false
}

// Order is a transaction record. A combined order (Kind == OrderKindCombined)
// is the single payable bill of a table; its constituents are the regular
// orders whose CombinedIntoID points at it.
type Order struct {
	ID              uint          `gorm:"primaryKey" json:"id"`
	OrderNumber     string        `gorm:"type:varchar(40);uniqueIndex;not null" json:"order_number"`
	CustomerID      *uint         `gorm:"index" json:"customer_id,omitempty"`
	TableID         *uint         `gorm:"index" json:"table_id,omitempty"`
	OrderType       OrderType     `gorm:"type:varchar(20);not null;default:'dine_in'" json:"order_type"`
	Kind            OrderKind     `gorm:"column:order_kind;type:varchar(20);not null;default:'regular'" json:"order_kind"`
	CombinedTableID *uint         `json:"combined_table_id,omitempty"`
	CombinedIntoID  *uint         `gorm:"index" json:"combined_into_id,omitempty"`
	TotalAmount     float64       `gorm:"type:decimal(12,2);not null;default:0" json:"total_amount"`
	DiscountType    DiscountType  `gorm:"type:varchar(20)" json:"discount_type,omitempty"`
	DiscountValue   float64       `gorm:"type:decimal(12,2);not null;default:0" json:"discount_value"`
	DiscountAmount  float64       `gorm:"type:decimal(12,2);not null;default:0" json:"discount_amount"`
	TaxAmount       float64       `gorm:"type:decimal(12,2);not null;default:0" json:"tax_amount"`
	FinalAmount     float64       `gorm:"type:decimal(12,2);not null;default:0" json:"final_amount"`
	PaymentMethod   PaymentMethod `gorm:"type:varchar(20);not null;default:'cash'" json:"payment_method"`
	PaymentStatus   PaymentStatus `gorm:"type:varchar(20);not null;default:'pending';index" json:"payment_status"`
	Status          OrderStatus   `gorm:"column:order_status;type:varchar(20);not null;default:'active';index" json:"order_status"`
	PaymentID       *uint         `gorm:"index" json:"payment_id,omitempty"`
	Notes           string        `gorm:"type:text" json:"notes"`
	CreatedAt       time.Time     `gorm:"not null;index" json:"created_at"`
	UpdatedAt       time.Time     `gorm:"not null" json:"updated_at"`
	Items           []OrderItem   `gorm:"foreignKey:OrderID" json:"items,omitempty"`
	Constituents    []Order       `gorm:"foreignKey:CombinedIntoID;constraint:OnDelete:SET NULL" json:"constituents,omitempty"`
}

func (o *Order) IsCombined() bool {
	return o.Kind == OrderKindCombined
}

// Outstanding reports whether the order still owes money at the table.
func (o *Order) Outstanding() bool {
	return (o.Status == OrderActive || o.Status == OrderCompleted) && o.PaymentStatus != PaymentCompleted
}

// StockReleased reports whether the order's items no longer hold stock.
func (o *Order) StockReleased() bool {
	return o.Status == OrderCancelled || o.Status == OrderRefunded
}

// OrderStatusHistory is the audit trail of status changes.
type OrderStatusHistory struct {
	ID         uint        `gorm:"primaryKey" json:"id"`
	OrderID    uint        `gorm:"index;not null" json:"order_id"`
	FromStatus OrderStatus `gorm:"type:varchar(20)" json:"from_status"`
	ToStatus   OrderStatus `gorm:"type:varchar(20);not null" json:"to_status"`
	ChangedBy  uint        `json:"changed_by"`
	Note       string      `gorm:"type:text" json:"note"`
	CreatedAt  time.Time   `json:"created_at"`
}
