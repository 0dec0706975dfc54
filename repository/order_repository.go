package repository

import (
	"context"

	"github.com/yeremiapane/cafe-pos/models"
	"gorm.io/gorm"
)

// OrderFilter narrows ListOrders. Zero fields are ignored.
type OrderFilter struct {
	Status        models.OrderStatus
	PaymentStatus models.PaymentStatus
	Kind          models.OrderKind
	TableID       *uint
	Limit         int
}

// CreateOrder inserts the order together with its items.
func (s *Store) CreateOrder(ctx context.Context, order *models.Order) error {
	return s.conn(ctx).Create(order).Error
}

func (s *Store) GetOrder(ctx context.Context, id uint) (*models.Order, error) {
	var order models.Order
	if err := s.conn(ctx).Preload("Items").First(&order, id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// GetOrderDetail also loads the constituents of a combined bill.
func (s *Store) GetOrderDetail(ctx context.Context, id uint) (*models.Order, error) {
	var order models.Order
	err := s.conn(ctx).
		Preload("Items").
		Preload("Constituents", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Preload("Constituents.Items").
		First(&order, id).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (s *Store) ListOrders(ctx context.Context, f OrderFilter) ([]models.Order, error) {
	q := s.conn(ctx).Preload("Items").Order("created_at DESC, id DESC")
	if f.Status != "" {
		q = q.Where("order_status = ?", f.Status)
	}
	if f.PaymentStatus != "" {
		q = q.Where("payment_status = ?", f.PaymentStatus)
	}
	if f.Kind != "" {
		q = q.Where("order_kind = ?", f.Kind)
	}
	if f.TableID != nil {
		q = q.Where("table_id = ?", *f.TableID)
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	var orders []models.Order
	err := q.Find(&orders).Error
	return orders, err
}

func (s *Store) UpdateOrder(ctx context.Context, id uint, fields map[string]interface{}) error {
	return s.updateByID(ctx, &models.Order{}, id, fields)
}

func (s *Store) UpdateOrders(ctx context.Context, ids []uint, fields map[string]interface{}) error {
	if len(ids) == 0 {
		return nil
	}
	return s.conn(ctx).Model(&models.Order{}).Where("id IN ?", ids).Updates(fields).Error
}

// notInLedger excludes orders moved to the unpaid ledger.
const notInLedger = "id NOT IN (SELECT order_id FROM unpaid_entries)"

// OutstandingTableOrders returns the regular orders on a table that can still
// be claimed by a combined bill.
func (s *Store) OutstandingTableOrders(ctx context.Context, tableID uint) ([]models.Order, error) {
	var orders []models.Order
	err := s.conn(ctx).
		Where("table_id = ? AND order_kind = ?", tableID, models.OrderKindRegular).
		Where("order_status IN ?", []models.OrderStatus{models.OrderActive, models.OrderCompleted}).
		Where("payment_status <> ?", models.PaymentCompleted).
		Where("combined_into_id IS NULL").
		Where(notInLedger).
		Order("id ASC").
		Find(&orders).Error
	return orders, err
}

// OpenCombinedBill returns the table's unpaid combined order, or nil.
func (s *Store) OpenCombinedBill(ctx context.Context, tableID uint) (*models.Order, error) {
	var bills []models.Order
	err := s.conn(ctx).
		Where("combined_table_id = ? AND order_kind = ?", tableID, models.OrderKindCombined).
		Where("order_status = ? AND payment_status <> ?", models.OrderActive, models.PaymentCompleted).
		Where(notInLedger).
		Order("id DESC").
		Limit(1).
		Find(&bills).Error
	if err != nil || len(bills) == 0 {
		return nil, err
	}
	return &bills[0], nil
}

// ClaimOrders attaches the given orders to a combined bill. Orders already
// claimed by another bill are skipped; the caller compares the returned count.
func (s *Store) ClaimOrders(ctx context.Context, billID uint, ids []uint) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := s.conn(ctx).Model(&models.Order{}).
		Where("id IN ? AND combined_into_id IS NULL AND payment_status <> ?", ids, models.PaymentCompleted).
		Update("combined_into_id", billID)
	return res.RowsAffected, res.Error
}

// ReleaseConstituents detaches every order from the bill.
func (s *Store) ReleaseConstituents(ctx context.Context, billID uint) error {
	return s.conn(ctx).Model(&models.Order{}).
		Where("combined_into_id = ?", billID).
		Update("combined_into_id", nil).Error
}

func (s *Store) Constituents(ctx context.Context, billID uint) ([]models.Order, error) {
	var orders []models.Order
	err := s.conn(ctx).Preload("Items").
		Where("combined_into_id = ?", billID).
		Order("id ASC").
		Find(&orders).Error
	return orders, err
}

// CountOutstandingOnTable counts what the table still owes: open bills plus
// unclaimed regular orders, excluding orders moved to the unpaid ledger.
func (s *Store) CountOutstandingOnTable(ctx context.Context, tableID uint) (int64, error) {
	var n int64
	err := s.conn(ctx).Model(&models.Order{}).
		Where("table_id = ?", tableID).
		Where("order_status IN ?", []models.OrderStatus{models.OrderActive, models.OrderCompleted}).
		Where("payment_status <> ?", models.PaymentCompleted).
		Where("combined_into_id IS NULL").
		Where(notInLedger).
		Count(&n).Error
	return n, err
}

// DeleteOrder removes the order row and everything it owns.
func (s *Store) DeleteOrder(ctx context.Context, id uint) error {
	db := s.conn(ctx)
	if err := db.Where("order_id = ?", id).Delete(&models.OrderItem{}).Error; err != nil {
		return err
	}
	if err := db.Where("order_id = ?", id).Delete(&models.OrderStatusHistory{}).Error; err != nil {
		return err
	}
	if err := db.Where("order_id = ?", id).Delete(&models.UnpaidEntry{}).Error; err != nil {
		return err
	}
	var paymentIDs []uint
	if err := db.Model(&models.Payment{}).Where("order_id = ?", id).Pluck("id", &paymentIDs).Error; err != nil {
		return err
	}
	if len(paymentIDs) > 0 {
		// constituents of a paid bill point at the bill's payment
		if err := db.Model(&models.Order{}).Where("payment_id IN ?", paymentIDs).
			Update("payment_id", nil).Error; err != nil {
			return err
		}
		if err := db.Where("id IN ?", paymentIDs).Delete(&models.Payment{}).Error; err != nil {
			return err
		}
	}
	res := db.Delete(&models.Order{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (s *Store) AddStatusHistory(ctx context.Context, h *models.OrderStatusHistory) error {
	return s.conn(ctx).Create(h).Error
}

func (s *Store) ListStatusHistory(ctx context.Context, orderID uint) ([]models.OrderStatusHistory, error) {
	var history []models.OrderStatusHistory
	err := s.conn(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC, id ASC").
		Find(&history).Error
	return history, err
}

// KitchenQueue returns active regular orders with their items, oldest first.
func (s *Store) KitchenQueue(ctx context.Context) ([]models.Order, error) {
	var orders []models.Order
	err := s.conn(ctx).
		Preload("Items").
		Where("order_kind = ? AND order_status = ?", models.OrderKindRegular, models.OrderActive).
		Order("created_at ASC, id ASC").
		Find(&orders).Error
	return orders, err
}
