package models

import "time"

type TableStatus string

const (
	TableAvailable   TableStatus = "available"
	TableOccupied    TableStatus = "occupied"
	TableReserved    TableStatus = "reserved"
	TableMaintenance TableStatus = "maintenance"
)

func (s TableStatus) Valid() bool {
	switch s {
	case TableAvailable, TableOccupied, TableReserved, TableMaintenance:
		return true
	}
	return false
}

// Table is a seating unit. CurrentOrderID only points at the latest order for
// lookup; the table never owns its orders.
type Table struct {
	ID             uint        `gorm:"primaryKey" json:"id"`
	TableNumber    string      `gorm:"type:varchar(50);uniqueIndex;not null" json:"table_number"`
	Capacity       int         `gorm:"not null;default:2" json:"capacity"`
	Location       string      `gorm:"type:varchar(100)" json:"location"`
	Status         TableStatus `gorm:"type:varchar(20);not null;default:'available'" json:"status"`
	CurrentOrderID *uint       `json:"current_order_id"`
	CreatedAt      time.Time   `gorm:"not null" json:"created_at"`
	UpdatedAt      time.Time   `gorm:"not null" json:"updated_at"`
}
