package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/cafe-pos/models"
	"github.com/yeremiapane/cafe-pos/repository"
	"github.com/yeremiapane/cafe-pos/utils"
	"gorm.io/gorm"
)

// Options tune the engine. The zero value means no tax and advisory stock.
type Options struct {
	// TaxRate is a percentage applied after discount.
	TaxRate float64
	// StrictStock rejects orders that would take a product below zero.
	StrictStock bool
}

// Outbox table names relayed by the change monitor.
const (
	TopicOrders  = "orders"
	TopicTables  = "tables"
	TopicPayment = "payments"
	TopicUnpaid  = "unpaid_entries"
)

func newOrderNumber(now time.Time) string {
	id := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	return fmt.Sprintf("ORD-%s-%s", now.Format("20060102"), id[:8])
}

func recordHistory(ctx context.Context, tx *repository.Store, orderID uint, from, to models.OrderStatus, by uint, note string) error {
	return tx.AddStatusHistory(ctx, &models.OrderStatusHistory{
		OrderID:    orderID,
		FromStatus: from,
		ToStatus:   to,
		ChangedBy:  by,
		Note:       note,
	})
}

// restoreStock gives every item of the order back to its product.
func restoreStock(ctx context.Context, tx *repository.Store, order *models.Order) error {
	for _, item := range order.Items {
		if err := tx.AdjustStock(ctx, item.ProductID, item.Quantity); err != nil {
			return dbError(fmt.Sprintf("restore stock of product %d", item.ProductID), err)
		}
	}
	return nil
}

// releaseTableIfIdle makes an occupied table available once nothing on it is
// outstanding.
func releaseTableIfIdle(ctx context.Context, tx *repository.Store, tableID *uint) error {
	if tableID == nil {
		return nil
	}
	table, err := tx.GetTableForUpdate(ctx, *tableID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return dbError("load table", err)
	}
	if table.Status != models.TableOccupied {
		return nil
	}
	n, err := tx.CountOutstandingOnTable(ctx, table.ID)
	if err != nil {
		return dbError("count outstanding orders", err)
	}
	if n > 0 {
		return nil
	}
	if err := tx.SetTableOccupancy(ctx, table.ID, models.TableAvailable, nil); err != nil {
		return dbError("release table", err)
	}
	utils.InfoLogger.WithField("table_id", table.ID).Info("Table released, no outstanding orders")
	return tx.RecordChange(ctx, TopicTables, table.ID, models.ActionUpdate)
}

// tableOf returns the table an order bills against.
func tableOf(order *models.Order) *uint {
	if order.IsCombined() && order.CombinedTableID != nil {
		return order.CombinedTableID
	}
	return order.TableID
}

// openBillOf returns the unpaid combined bill that claimed order, or nil.
func openBillOf(ctx context.Context, tx *repository.Store, order *models.Order) (*models.Order, error) {
	if order.CombinedIntoID == nil {
		return nil, nil
	}
	bill, err := tx.GetOrder(ctx, *order.CombinedIntoID)
	if err != nil {
		return nil, dbError("load combined bill", err)
	}
	if bill.Status != models.OrderActive || bill.PaymentStatus == models.PaymentCompleted {
		return nil, nil
	}
	return bill, nil
}

func orderLog(order *models.Order) *logrus.Entry {
	return utils.InfoLogger.WithFields(logrus.Fields{
		"order_id":     order.ID,
		"order_number": order.OrderNumber,
	})
}
