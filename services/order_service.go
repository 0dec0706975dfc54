package services

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/cafe-pos/models"
	"github.com/yeremiapane/cafe-pos/repository"
	"github.com/yeremiapane/cafe-pos/statemachine"
	"github.com/yeremiapane/cafe-pos/utils"
)

type OrderItemInput struct {
	ProductID uint   `json:"product_id"`
	Quantity  int    `json:"quantity"`
	Notes     string `json:"notes"`
}

// CreateOrderInput is a submitted cart.
type CreateOrderInput struct {
	CustomerID    *uint                `json:"customer_id"`
	TableID       *uint                `json:"table_id"`
	OrderType     models.OrderType     `json:"order_type"`
	PaymentMethod models.PaymentMethod `json:"payment_method"`
	Discount      *DiscountInput       `json:"discount"`
	Items         []OrderItemInput     `json:"items"`
	Notes         string               `json:"notes"`
	CreatedBy     uint                 `json:"-"`
}

type StatusUpdateInput struct {
	Status        models.OrderStatus   `json:"status"`
	PaymentStatus models.PaymentStatus `json:"payment_status"`
	Note          string               `json:"note"`
	ChangedBy     uint                 `json:"-"`
}

type OrderService struct {
	store *repository.Store
	opts  Options
}

func NewOrderService(store *repository.Store, opts Options) *OrderService {
	return &OrderService{store: store, opts: opts}
}

func (in *CreateOrderInput) normalize() error {
	if len(in.Items) == 0 {
		return validation("order must contain at least one item")
	}
	for i, item := range in.Items {
		if item.ProductID == 0 {
			return validation("item %d: product_id is required", i+1)
		}
		if item.Quantity <= 0 {
			return validation("item %d: quantity must be greater than zero", i+1)
		}
	}
	if in.PaymentMethod == "" {
		in.PaymentMethod = models.PaymentCash
	}
	if !in.PaymentMethod.Valid() {
		return validation("unknown payment method %q", in.PaymentMethod)
	}
	if in.OrderType == "" {
		in.OrderType = models.OrderTypeTakeaway
		if in.TableID != nil {
			in.OrderType = models.OrderTypeDineIn
		}
	}
	if !in.OrderType.Valid() {
		return validation("unknown order type %q", in.OrderType)
	}
	return in.Discount.validate()
}

// CreateOrder prices the cart from current catalog prices and persists the
// order, its items, the stock decrement and the table occupancy together.
func (s *OrderService) CreateOrder(ctx context.Context, in CreateOrderInput) (*models.Order, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}

	var orderID uint
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		ids := make([]uint, 0, len(in.Items))
		for _, item := range in.Items {
			ids = append(ids, item.ProductID)
		}
		products, err := tx.GetProducts(ctx, ids)
		if err != nil {
			return dbError("load products", err)
		}

		subtotal := decimal.Zero
		items := make([]models.OrderItem, 0, len(in.Items))
		for _, line := range in.Items {
			p, ok := products[line.ProductID]
			if !ok {
				return notFound("product %d not found", line.ProductID)
			}
			if !p.IsActive {
				return validation("product %q is not available", p.Name)
			}
			unit := money(p.Price)
			lineTotal := unit.Mul(decimal.NewFromInt(int64(line.Quantity)))
			subtotal = subtotal.Add(lineTotal)
			items = append(items, models.OrderItem{
				ProductID:   p.ID,
				ProductName: p.Name,
				Quantity:    line.Quantity,
				UnitPrice:   toFloat(unit),
				TotalPrice:  toFloat(lineTotal),
				Notes:       line.Notes,
			})
		}

		var table *models.Table
		if in.TableID != nil {
			table, err = tx.GetTableForUpdate(ctx, *in.TableID)
			if err != nil {
				return dbError(fmt.Sprintf("table %d", *in.TableID), err)
			}
			if table.Status == models.TableMaintenance {
				return validation("table %s is under maintenance", table.TableNumber)
			}
		}

		discountType, discountValue := models.DiscountNone, 0.0
		if in.Discount.explicit() {
			discountType, discountValue = in.Discount.Type, in.Discount.Value
		} else if in.CustomerID != nil {
			pct, err := tx.MembershipDiscountPercent(ctx, *in.CustomerID)
			if err != nil {
				return dbError("load membership", err)
			}
			if pct > 0 {
				discountType, discountValue = models.DiscountPercentage, pct
			}
		}
		totals := computeTotals(subtotal, discountType, discountValue, s.opts.TaxRate)

		order := &models.Order{
			OrderNumber:    newOrderNumber(time.Now()),
			CustomerID:     in.CustomerID,
			TableID:        in.TableID,
			OrderType:      in.OrderType,
			Kind:           models.OrderKindRegular,
			TotalAmount:    toFloat(totals.Subtotal),
			DiscountType:   discountType,
			DiscountValue:  discountValue,
			DiscountAmount: toFloat(totals.Discount),
			TaxAmount:      toFloat(totals.Tax),
			FinalAmount:    toFloat(totals.Final),
			PaymentMethod:  in.PaymentMethod,
			PaymentStatus:  models.PaymentPending,
			Status:         models.OrderActive,
			Notes:          in.Notes,
			Items:          items,
		}
		if err := tx.CreateOrder(ctx, order); err != nil {
			return dbError("create order", err)
		}
		orderID = order.ID

		for _, item := range items {
			if err := s.takeStock(ctx, tx, products[item.ProductID], item.Quantity); err != nil {
				return err
			}
		}

		if err := recordHistory(ctx, tx, order.ID, "", models.OrderActive, in.CreatedBy, "order created"); err != nil {
			return dbError("record history", err)
		}
		if table != nil {
			if err := tx.SetTableOccupancy(ctx, table.ID, models.TableOccupied, &order.ID); err != nil {
				return dbError("occupy table", err)
			}
			if err := tx.RecordChange(ctx, TopicTables, table.ID, models.ActionUpdate); err != nil {
				return dbError("record change", err)
			}
		}
		return tx.RecordChange(ctx, TopicOrders, order.ID, models.ActionInsert)
	})
	if err != nil {
		return nil, dbError("create order", err)
	}

	order, err := s.store.GetOrder(ctx, orderID)
	if err != nil {
		return nil, dbError("load order", err)
	}
	orderLog(order).WithFields(logrus.Fields{
		"final_amount": order.FinalAmount,
		"items":        len(order.Items),
	}).Info("Order created")
	return order, nil
}

func (s *OrderService) takeStock(ctx context.Context, tx *repository.Store, p *models.Product, qty int) error {
	if s.opts.StrictStock {
		ok, err := tx.DecrementStockIfAvailable(ctx, p.ID, qty)
		if err != nil {
			return dbError("decrement stock", err)
		}
		if !ok {
			return validation("insufficient stock for %q", p.Name)
		}
		return nil
	}
	if err := tx.AdjustStock(ctx, p.ID, -qty); err != nil {
		return dbError("decrement stock", err)
	}
	p.Stock -= qty
	if p.Stock < 0 {
		utils.InfoLogger.WithFields(logrus.Fields{
			"product_id": p.ID,
			"stock":      p.Stock,
		}).Warn("Stock below zero")
	}
	return nil
}

// UpdateOrderStatus applies one state machine transition with its stock,
// payment, ledger and table side effects.
func (s *OrderService) UpdateOrderStatus(ctx context.Context, orderID uint, in StatusUpdateInput) (*models.Order, error) {
	if !in.Status.Valid() {
		return nil, validation("unknown order status %q", in.Status)
	}
	if in.PaymentStatus != "" && !in.PaymentStatus.Valid() {
		return nil, validation("unknown payment status %q", in.PaymentStatus)
	}

	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		order, err := tx.GetOrder(ctx, orderID)
		if err != nil {
			return dbError(fmt.Sprintf("order %d", orderID), err)
		}
		bill, err := openBillOf(ctx, tx, order)
		if err != nil {
			return err
		}
		if bill != nil {
			return conflict("order %s is part of open combined bill %s; change the bill instead",
				order.OrderNumber, bill.OrderNumber)
		}
		t, err := statemachine.Lookup(order.Status, in.Status)
		if err != nil {
			return newError(ErrInvalidTransition, "%v", err)
		}

		payment := in.PaymentStatus
		if payment == "" {
			payment = t.PaymentStatus
		}
		fields := map[string]interface{}{"order_status": t.To}
		if payment != "" {
			fields["payment_status"] = payment
		}
		if err := tx.UpdateOrder(ctx, order.ID, fields); err != nil {
			return dbError("update order", err)
		}
		if t.RestoresStock {
			if err := restoreStock(ctx, tx, order); err != nil {
				return err
			}
		}
		if err := recordHistory(ctx, tx, order.ID, t.From, t.To, in.ChangedBy, in.Note); err != nil {
			return dbError("record history", err)
		}
		if order.IsCombined() {
			if err := s.fanOutBill(ctx, tx, order, t, payment, in.ChangedBy); err != nil {
				return err
			}
		}
		if t.To == models.OrderCancelled || t.To == models.OrderRefunded {
			if _, err := tx.DeleteUnpaidEntriesForOrder(ctx, order.ID); err != nil {
				return dbError("remove unpaid entry", err)
			}
		}
		if err := releaseTableIfIdle(ctx, tx, tableOf(order)); err != nil {
			return err
		}
		return tx.RecordChange(ctx, TopicOrders, order.ID, models.ActionUpdate)
	})
	if err != nil {
		return nil, dbError("update order status", err)
	}

	order, err := s.store.GetOrder(ctx, orderID)
	if err != nil {
		return nil, dbError("load order", err)
	}
	orderLog(order).WithField("status", order.Status).Info("Order status updated")
	return order, nil
}

// fanOutBill carries a combined bill's transition to its constituents.
// Cancelling frees them, completing settles the outstanding ones and
// refunding refunds the completed ones.
func (s *OrderService) fanOutBill(ctx context.Context, tx *repository.Store, bill *models.Order, t statemachine.Transition, payment models.PaymentStatus, by uint) error {
	if t.To == models.OrderCancelled {
		if err := tx.ReleaseConstituents(ctx, bill.ID); err != nil {
			return dbError("release constituents", err)
		}
		return nil
	}

	constituents, err := tx.Constituents(ctx, bill.ID)
	if err != nil {
		return dbError("load constituents", err)
	}
	note := fmt.Sprintf("via combined bill %s", bill.OrderNumber)
	for i := range constituents {
		c := &constituents[i]
		switch {
		case t.To == models.OrderCompleted && c.Outstanding():
		case t.To == models.OrderRefunded && c.Status == models.OrderCompleted:
		default:
			continue
		}
		from := c.Status
		fields := map[string]interface{}{"order_status": t.To}
		if payment != "" {
			fields["payment_status"] = payment
		}
		if err := tx.UpdateOrder(ctx, c.ID, fields); err != nil {
			return dbError("update constituent", err)
		}
		if t.RestoresStock {
			if err := restoreStock(ctx, tx, c); err != nil {
				return err
			}
		}
		if err := recordHistory(ctx, tx, c.ID, from, t.To, by, note); err != nil {
			return dbError("record history", err)
		}
		if err := tx.RecordChange(ctx, TopicOrders, c.ID, models.ActionUpdate); err != nil {
			return dbError("record change", err)
		}
	}
	return nil
}

// DeleteOrderHistory removes an order for good. Stock is given back only when
// asked and only if a cancel or refund has not already done so.
func (s *OrderService) DeleteOrderHistory(ctx context.Context, orderID uint, restore bool) error {
	var number string
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		order, err := tx.GetOrder(ctx, orderID)
		if err != nil {
			return dbError(fmt.Sprintf("order %d", orderID), err)
		}
		number = order.OrderNumber
		bill, err := openBillOf(ctx, tx, order)
		if err != nil {
			return err
		}
		if bill != nil {
			return conflict("order %s is part of open combined bill %s", order.OrderNumber, bill.OrderNumber)
		}

		if restore && !order.StockReleased() {
			if err := restoreStock(ctx, tx, order); err != nil {
				return err
			}
		}
		if order.IsCombined() {
			if err := tx.ReleaseConstituents(ctx, order.ID); err != nil {
				return dbError("release constituents", err)
			}
		}
		if err := tx.ClearCurrentOrder(ctx, order.ID); err != nil {
			return dbError("clear table pointer", err)
		}
		if err := tx.DeleteOrder(ctx, order.ID); err != nil {
			return dbError("delete order", err)
		}
		if err := releaseTableIfIdle(ctx, tx, tableOf(order)); err != nil {
			return err
		}
		return tx.RecordChange(ctx, TopicOrders, order.ID, models.ActionDelete)
	})
	if err != nil {
		return dbError("delete order history", err)
	}
	utils.InfoLogger.WithFields(logrus.Fields{
		"order_id":      orderID,
		"order_number":  number,
		"restore_stock": restore,
	}).Info("Order history deleted")
	return nil
}

func (s *OrderService) GetOrder(ctx context.Context, orderID uint) (*models.Order, error) {
	order, err := s.store.GetOrderDetail(ctx, orderID)
	if err != nil {
		return nil, dbError(fmt.Sprintf("order %d", orderID), err)
	}
	return order, nil
}

func (s *OrderService) ListOrders(ctx context.Context, f repository.OrderFilter) ([]models.Order, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, validation("unknown order status %q", f.Status)
	}
	if f.PaymentStatus != "" && !f.PaymentStatus.Valid() {
		return nil, validation("unknown payment status %q", f.PaymentStatus)
	}
	orders, err := s.store.ListOrders(ctx, f)
	if err != nil {
		return nil, dbError("list orders", err)
	}
	return orders, nil
}

// OrderHistory returns the status audit trail of an order.
func (s *OrderService) OrderHistory(ctx context.Context, orderID uint) ([]models.OrderStatusHistory, error) {
	if _, err := s.store.GetOrder(ctx, orderID); err != nil {
		return nil, dbError(fmt.Sprintf("order %d", orderID), err)
	}
	history, err := s.store.ListStatusHistory(ctx, orderID)
	if err != nil {
		return nil, dbError("load history", err)
	}
	return history, nil
}

// OrderPayments lists the payments that settled an order. A constituent of a
// combined bill reports the bill's payment.
func (s *OrderService) OrderPayments(ctx context.Context, orderID uint) ([]models.Payment, error) {
	order, err := s.store.GetOrder(ctx, orderID)
	if err != nil {
		return nil, dbError(fmt.Sprintf("order %d", orderID), err)
	}
	payments, err := s.store.ListPayments(ctx, orderID)
	if err != nil {
		return nil, dbError("list payments", err)
	}
	if order.PaymentID != nil {
		for _, p := range payments {
			if p.ID == *order.PaymentID {
				return payments, nil
			}
		}
		payment, err := s.store.GetPayment(ctx, *order.PaymentID)
		if err != nil {
			return nil, dbError(fmt.Sprintf("payment %d", *order.PaymentID), err)
		}
		payments = append(payments, *payment)
	}
	if payments == nil {
		payments = []models.Payment{}
	}
	return payments, nil
}
