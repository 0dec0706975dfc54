package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/cafe-pos/models"
	"github.com/yeremiapane/cafe-pos/repository"
	"github.com/yeremiapane/cafe-pos/utils"
	"gorm.io/gorm"
)

type AddUnpaidInput struct {
	OrderIDs      []uint `json:"order_ids"`
	OrderID       uint   `json:"order_id"`
	CustomerName  string `json:"customer_name"`
	CustomerPhone string `json:"customer_phone"`
	TableNumber   string `json:"table_number"`
	Notes         string `json:"notes"`
}

type MarkPaidInput struct {
	PaymentMethod models.PaymentMethod `json:"payment_method"`
	Notes         string               `json:"notes"`
	ProcessedBy   uint                 `json:"-"`
}

// MarkPaidResult reports a resolved ledger entry. Payment is nil when the
// order had already been paid before the entry was resolved.
type MarkPaidResult struct {
	Order       *models.Order   `json:"order"`
	Payment     *models.Payment `json:"payment,omitempty"`
	AlreadyPaid bool            `json:"already_paid"`
}

type CustomerDebt struct {
	CustomerName string  `json:"customer_name"`
	Count        int     `json:"count"`
	Subtotal     float64 `json:"subtotal"`
}

type UnpaidStats struct {
	TotalEntries     int            `json:"total_entries"`
	TotalAmount      float64        `json:"total_amount"`
	UniqueCustomers  int            `json:"unique_customers"`
	DualStateEntries int            `json:"dual_state_entries"`
	ByCustomer       []CustomerDebt `json:"by_customer"`
}

type UnpaidService struct {
	store *repository.Store
}

func NewUnpaidService(store *repository.Store) *UnpaidService {
	return &UnpaidService{store: store}
}

func (in *AddUnpaidInput) ids() []uint {
	seen := make(map[uint]bool)
	var ids []uint
	for _, id := range append([]uint{in.OrderID}, in.OrderIDs...) {
		if id == 0 || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return ids
}

// AddToUnpaid moves one or more orders to the customer's debt in a single
// transaction. The orders keep their status.
func (s *UnpaidService) AddToUnpaid(ctx context.Context, in AddUnpaidInput) ([]models.UnpaidEntry, error) {
	in.CustomerName = strings.TrimSpace(in.CustomerName)
	if in.CustomerName == "" {
		return nil, validation("customer_name is required")
	}
	ids := in.ids()
	if len(ids) == 0 {
		return nil, validation("order_id is required")
	}

	entries := make([]models.UnpaidEntry, 0, len(ids))
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		for _, id := range ids {
			entry, err := s.addOne(ctx, tx, id, in)
			if err != nil {
				return err
			}
			entries = append(entries, *entry)
		}
		return nil
	})
	if err != nil {
		return nil, dbError("add to unpaid", err)
	}
	return entries, nil
}

func (s *UnpaidService) addOne(ctx context.Context, tx *repository.Store, orderID uint, in AddUnpaidInput) (*models.UnpaidEntry, error) {
	order, err := tx.GetOrder(ctx, orderID)
	if err != nil {
		return nil, dbError(fmt.Sprintf("order %d", orderID), err)
	}
	if order.StockReleased() {
		return nil, validation("order %s is %s and cannot be moved to unpaid", order.OrderNumber, order.Status)
	}
	existing, err := tx.UnpaidEntryByOrder(ctx, order.ID)
	if err != nil {
		return nil, dbError("load unpaid entry", err)
	}
	if existing != nil {
		return nil, conflict("order %s is already in the unpaid list", order.OrderNumber)
	}
	bill, err := openBillOf(ctx, tx, order)
	if err != nil {
		return nil, err
	}
	if bill != nil {
		return nil, conflict("order %s is part of open combined bill %s", order.OrderNumber, bill.OrderNumber)
	}

	entry := &models.UnpaidEntry{
		OrderID:       order.ID,
		CustomerName:  in.CustomerName,
		CustomerPhone: strings.TrimSpace(in.CustomerPhone),
		TableNumber:   strings.TrimSpace(in.TableNumber),
		Notes:         in.Notes,
		OrderWasPaid:  order.PaymentStatus == models.PaymentCompleted,
	}
	if entry.TableNumber == "" {
		if tableID := tableOf(order); tableID != nil {
			table, err := tx.GetTable(ctx, *tableID)
			if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, dbError("load table", err)
			}
			if table != nil {
				entry.TableNumber = table.TableNumber
			}
		}
	}
	if err := tx.CreateUnpaidEntry(ctx, entry); err != nil {
		return nil, dbError("create unpaid entry", err)
	}

	log := utils.InfoLogger.WithFields(logrus.Fields{
		"order_id": order.ID,
		"customer": entry.CustomerName,
	})
	if entry.OrderWasPaid {
		log.Warn("Paid order moved to unpaid list, needs reconciliation")
	} else {
		log.Info("Order moved to unpaid list")
	}

	if err := releaseTableIfIdle(ctx, tx, tableOf(order)); err != nil {
		return nil, err
	}
	if err := tx.RecordChange(ctx, TopicUnpaid, entry.ID, models.ActionInsert); err != nil {
		return nil, dbError("record change", err)
	}
	return entry, nil
}

// MarkUnpaidAsPaid resolves a ledger entry by paying its order. The entry is
// removed, so a repeated call reports not found.
func (s *UnpaidService) MarkUnpaidAsPaid(ctx context.Context, entryID uint, in MarkPaidInput) (*MarkPaidResult, error) {
	if in.PaymentMethod == "" {
		in.PaymentMethod = models.PaymentCash
	}
	if !in.PaymentMethod.Valid() {
		return nil, validation("unknown payment method %q", in.PaymentMethod)
	}

	result := &MarkPaidResult{}
	var orderID uint
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		entry, err := tx.GetUnpaidEntry(ctx, entryID)
		if err != nil {
			return dbError(fmt.Sprintf("unpaid entry %d", entryID), err)
		}
		if entry.Order == nil {
			return notFound("order %d of unpaid entry %d not found", entry.OrderID, entryID)
		}
		order := entry.Order
		orderID = order.ID
		if err := tx.DeleteUnpaidEntry(ctx, entry.ID); err != nil {
			return dbError("delete unpaid entry", err)
		}
		if err := tx.RecordChange(ctx, TopicUnpaid, entry.ID, models.ActionDelete); err != nil {
			return dbError("record change", err)
		}

		if order.PaymentStatus == models.PaymentCompleted {
			result.AlreadyPaid = true
			return nil
		}

		payment := &models.Payment{
			OrderID:        order.ID,
			TableID:        tableOf(order),
			Method:         in.PaymentMethod,
			Source:         models.PaymentSourceUnpaid,
			Amount:         order.FinalAmount,
			AmountPaid:     order.FinalAmount,
			DiscountAmount: order.DiscountAmount,
			Notes:          in.Notes,
		}
		if err := tx.CreatePayment(ctx, payment); err != nil {
			return dbError("record payment", err)
		}
		result.Payment = payment

		paid := map[string]interface{}{
			"order_status":   models.OrderCompleted,
			"payment_status": models.PaymentCompleted,
			"payment_method": in.PaymentMethod,
			"payment_id":     payment.ID,
		}
		if err := tx.UpdateOrder(ctx, order.ID, paid); err != nil {
			return dbError("complete order", err)
		}
		note := fmt.Sprintf("unpaid entry settled for %s", entry.CustomerName)
		if err := recordHistory(ctx, tx, order.ID, order.Status, models.OrderCompleted, in.ProcessedBy, note); err != nil {
			return dbError("record history", err)
		}

		if order.IsCombined() {
			constituents, err := tx.Constituents(ctx, order.ID)
			if err != nil {
				return dbError("load constituents", err)
			}
			var ids []uint
			for _, c := range constituents {
				if !c.Outstanding() {
					continue
				}
				ids = append(ids, c.ID)
				if err := recordHistory(ctx, tx, c.ID, c.Status, models.OrderCompleted, in.ProcessedBy, note); err != nil {
					return dbError("record history", err)
				}
			}
			if err := tx.UpdateOrders(ctx, ids, paid); err != nil {
				return dbError("complete constituents", err)
			}
		}

		if err := tx.RecordChange(ctx, TopicOrders, order.ID, models.ActionUpdate); err != nil {
			return dbError("record change", err)
		}
		return tx.RecordChange(ctx, TopicPayment, payment.ID, models.ActionInsert)
	})
	if err != nil {
		return nil, dbError("mark unpaid as paid", err)
	}

	order, err := s.store.GetOrder(ctx, orderID)
	if err != nil {
		return nil, dbError("load order", err)
	}
	result.Order = order
	orderLog(order).WithField("already_paid", result.AlreadyPaid).Info("Unpaid entry settled")
	return result, nil
}

// RemoveFromUnpaid drops the ledger entry and leaves its order untouched.
func (s *UnpaidService) RemoveFromUnpaid(ctx context.Context, entryID uint) error {
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		if err := tx.DeleteUnpaidEntry(ctx, entryID); err != nil {
			return dbError(fmt.Sprintf("unpaid entry %d", entryID), err)
		}
		return tx.RecordChange(ctx, TopicUnpaid, entryID, models.ActionDelete)
	})
	return dbError("remove from unpaid", err)
}

func (s *UnpaidService) ListUnpaid(ctx context.Context) ([]models.UnpaidEntry, error) {
	entries, err := s.store.ListUnpaidEntries(ctx)
	if err != nil {
		return nil, dbError("list unpaid", err)
	}
	return entries, nil
}

// ComputeStats aggregates the ledger. An entry counts as dual state when its
// order is already paid.
func (s *UnpaidService) ComputeStats(ctx context.Context) (*UnpaidStats, error) {
	entries, err := s.store.ListUnpaidEntries(ctx)
	if err != nil {
		return nil, dbError("list unpaid", err)
	}

	stats := &UnpaidStats{ByCustomer: []CustomerDebt{}}
	total := decimal.Zero
	perCustomer := make(map[string]*CustomerDebt)
	subtotals := make(map[string]decimal.Decimal)
	for _, e := range entries {
		stats.TotalEntries++
		amount := decimal.Zero
		if e.Order != nil {
			amount = money(e.Order.FinalAmount)
			if e.Order.PaymentStatus == models.PaymentCompleted {
				stats.DualStateEntries++
			}
		} else if e.OrderWasPaid {
			stats.DualStateEntries++
		}
		total = total.Add(amount)

		debt, ok := perCustomer[e.CustomerName]
		if !ok {
			debt = &CustomerDebt{CustomerName: e.CustomerName}
			perCustomer[e.CustomerName] = debt
		}
		debt.Count++
		subtotals[e.CustomerName] = subtotals[e.CustomerName].Add(amount)
	}

	for name, debt := range perCustomer {
		debt.Subtotal = toFloat(subtotals[name])
		stats.ByCustomer = append(stats.ByCustomer, *debt)
	}
	sort.Slice(stats.ByCustomer, func(i, j int) bool {
		return stats.ByCustomer[i].CustomerName < stats.ByCustomer[j].CustomerName
	})
	stats.TotalAmount = toFloat(total)
	stats.UniqueCustomers = len(perCustomer)
	return stats, nil
}
