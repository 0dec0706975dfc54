package repository

import (
	"context"
	"time"

	"github.com/yeremiapane/cafe-pos/models"
	"gorm.io/gorm"
)

type SalesTotals struct {
	TotalOrders int64
	TotalSales  float64
}

type MethodTotal struct {
	PaymentMethod models.PaymentMethod `json:"payment_method"`
	Orders        int64                `json:"orders"`
	Total         float64              `json:"total"`
}

type ProductSales struct {
	ProductID   uint    `json:"product_id"`
	ProductName string  `json:"product_name"`
	Quantity    int64   `json:"quantity"`
	Revenue     float64 `json:"revenue"`
}

// settled selects completed orders that carry their own payment: combined
// bills and regular orders that were not folded into one.
func (s *Store) settled(ctx context.Context, from, to time.Time) *gorm.DB {
	return s.conn(ctx).Model(&models.Order{}).
		Where("order_status = ?", models.OrderCompleted).
		Where("created_at >= ? AND created_at < ?", from, to).
		Where("order_kind = ? OR combined_into_id IS NULL", models.OrderKindCombined)
}

func (s *Store) SalesTotals(ctx context.Context, from, to time.Time) (SalesTotals, error) {
	var out SalesTotals
	err := s.settled(ctx, from, to).
		Select("COUNT(*) AS total_orders, COALESCE(SUM(final_amount), 0) AS total_sales").
		Scan(&out).Error
	return out, err
}

func (s *Store) SalesByPaymentMethod(ctx context.Context, from, to time.Time) ([]MethodTotal, error) {
	var out []MethodTotal
	err := s.settled(ctx, from, to).
		Select("payment_method, COUNT(*) AS orders, COALESCE(SUM(final_amount), 0) AS total").
		Group("payment_method").
		Order("payment_method ASC").
		Scan(&out).Error
	return out, err
}

// SalesByProduct aggregates item lines of completed regular orders.
func (s *Store) SalesByProduct(ctx context.Context, from, to time.Time) ([]ProductSales, error) {
	var out []ProductSales
	err := s.conn(ctx).Table("order_items AS oi").
		Joins("JOIN orders AS o ON o.id = oi.order_id").
		Where("o.order_status = ? AND o.order_kind = ?", models.OrderCompleted, models.OrderKindRegular).
		Where("o.created_at >= ? AND o.created_at < ?", from, to).
		Select("oi.product_id AS product_id, MAX(oi.product_name) AS product_name, " +
			"SUM(oi.quantity) AS quantity, SUM(oi.total_price) AS revenue").
		Group("oi.product_id").
		Order("revenue DESC, oi.product_id ASC").
		Scan(&out).Error
	return out, err
}
