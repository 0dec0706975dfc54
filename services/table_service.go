package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/cafe-pos/models"
	"github.com/yeremiapane/cafe-pos/repository"
	"github.com/yeremiapane/cafe-pos/utils"
)

type TablePaymentInput struct {
	PaymentMethod  models.PaymentMethod `json:"payment_method"`
	AmountPaid     float64              `json:"amount_paid"`
	DiscountAmount *float64             `json:"discount_amount"`
	Notes          string               `json:"notes"`
	ProcessedBy    uint                 `json:"-"`
}

// PaymentResult confirms a settled table bill.
type PaymentResult struct {
	Bill        *models.Order   `json:"bill"`
	Payment     *models.Payment `json:"payment"`
	TableNumber string          `json:"table_number"`
	OrdersPaid  int             `json:"orders_paid"`
	Change      float64         `json:"change"`
}

type TableUpdateInput struct {
	Capacity *int                `json:"capacity"`
	Location *string             `json:"location"`
	Status   *models.TableStatus `json:"status"`
}

type TableService struct {
	store *repository.Store
	opts  Options
}

func NewTableService(store *repository.Store, opts Options) *TableService {
	return &TableService{store: store, opts: opts}
}

// CombineTableOrders gathers the table's outstanding orders into its single
// open combined bill.
func (s *TableService) CombineTableOrders(ctx context.Context, tableID uint, discount *DiscountInput, by uint) (*models.Order, error) {
	if err := discount.validate(); err != nil {
		return nil, err
	}
	var billID uint
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		table, err := tx.GetTableForUpdate(ctx, tableID)
		if err != nil {
			return dbError(fmt.Sprintf("table %d", tableID), err)
		}
		bill, err := s.combine(ctx, tx, table, discount, by)
		if err != nil {
			return err
		}
		billID = bill.ID
		return nil
	})
	if err != nil {
		return nil, dbError("combine table orders", err)
	}

	bill, err := s.store.GetOrderDetail(ctx, billID)
	if err != nil {
		return nil, dbError("load combined bill", err)
	}
	orderLog(bill).WithFields(logrus.Fields{
		"table_id":     tableID,
		"constituents": len(bill.Constituents),
		"final_amount": bill.FinalAmount,
	}).Info("Table orders combined")
	return bill, nil
}

// combine folds unclaimed outstanding orders into the table's open bill,
// creating the bill if needed, and reprices it. A nil discount keeps the
// discount already stored on the bill.
func (s *TableService) combine(ctx context.Context, tx *repository.Store, table *models.Table, discount *DiscountInput, by uint) (*models.Order, error) {
	eligible, err := tx.OutstandingTableOrders(ctx, table.ID)
	if err != nil {
		return nil, dbError("load table orders", err)
	}
	bill, err := tx.OpenCombinedBill(ctx, table.ID)
	if err != nil {
		return nil, dbError("load combined bill", err)
	}
	if len(eligible) == 0 && bill == nil {
		return nil, notFound("table %s has no outstanding orders", table.TableNumber)
	}

	if bill == nil {
		bill = &models.Order{
			OrderNumber:     newOrderNumber(time.Now()),
			TableID:         &table.ID,
			CombinedTableID: &table.ID,
			OrderType:       models.OrderTypeDineIn,
			Kind:            models.OrderKindCombined,
			PaymentMethod:   models.PaymentCash,
			PaymentStatus:   models.PaymentPending,
			Status:          models.OrderActive,
			Notes:           fmt.Sprintf("Combined bill for table %s", table.TableNumber),
		}
		if err := tx.CreateOrder(ctx, bill); err != nil {
			return nil, dbError("create combined bill", err)
		}
		if err := recordHistory(ctx, tx, bill.ID, "", models.OrderActive, by, "combined bill opened"); err != nil {
			return nil, dbError("record history", err)
		}
		if err := tx.RecordChange(ctx, TopicOrders, bill.ID, models.ActionInsert); err != nil {
			return nil, dbError("record change", err)
		}
	}

	if err := claimOrders(ctx, tx, bill.ID, eligible, table); err != nil {
		return nil, err
	}

	constituents, err := tx.Constituents(ctx, bill.ID)
	if err != nil {
		return nil, dbError("load constituents", err)
	}
	total := decimal.Zero
	for _, c := range constituents {
		total = total.Add(money(c.FinalAmount))
	}
	typ, value := bill.DiscountType, bill.DiscountValue
	if discount.explicit() {
		typ, value = discount.Type, discount.Value
	}
	// constituents are already taxed
	totals := computeTotals(total, typ, value, 0)
	fields := map[string]interface{}{
		"total_amount":    toFloat(totals.Subtotal),
		"discount_type":   typ,
		"discount_value":  value,
		"discount_amount": toFloat(totals.Discount),
		"tax_amount":      0,
		"final_amount":    toFloat(totals.Final),
	}
	if err := tx.UpdateOrder(ctx, bill.ID, fields); err != nil {
		return nil, dbError("update combined bill", err)
	}
	if err := tx.SetTableOccupancy(ctx, table.ID, table.Status, &bill.ID); err != nil {
		return nil, dbError("update table", err)
	}
	if err := tx.RecordChange(ctx, TopicOrders, bill.ID, models.ActionUpdate); err != nil {
		return nil, dbError("record change", err)
	}

	bill.TotalAmount = toFloat(totals.Subtotal)
	bill.DiscountType = typ
	bill.DiscountValue = value
	bill.DiscountAmount = toFloat(totals.Discount)
	bill.TaxAmount = 0
	bill.FinalAmount = toFloat(totals.Final)
	bill.Constituents = constituents
	return bill, nil
}

// claimOrders attaches every eligible order to the bill, or none of them
// once the transaction rolls back.
func claimOrders(ctx context.Context, tx *repository.Store, billID uint, eligible []models.Order, table *models.Table) error {
	if len(eligible) == 0 {
		return nil
	}
	ids := make([]uint, len(eligible))
	for i, o := range eligible {
		ids[i] = o.ID
	}
	claimed, err := tx.ClaimOrders(ctx, billID, ids)
	if err != nil {
		return dbError("claim orders", err)
	}
	if claimed != int64(len(ids)) {
		return conflict("orders on table %s were settled concurrently, retry", table.TableNumber)
	}
	return nil
}

// ProcessTablePayment settles everything outstanding on the table in one
// payment and frees the table.
func (s *TableService) ProcessTablePayment(ctx context.Context, tableID uint, in TablePaymentInput) (*PaymentResult, error) {
	if in.PaymentMethod == "" {
		in.PaymentMethod = models.PaymentCash
	}
	if !in.PaymentMethod.Valid() {
		return nil, validation("unknown payment method %q", in.PaymentMethod)
	}
	if in.AmountPaid < 0 {
		return nil, validation("amount paid must not be negative")
	}
	var discount *DiscountInput
	if in.DiscountAmount != nil {
		if *in.DiscountAmount < 0 {
			return nil, validation("discount amount must not be negative")
		}
		discount = &DiscountInput{Type: models.DiscountFixed, Value: *in.DiscountAmount}
	}

	result := &PaymentResult{}
	var billID uint
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		table, err := tx.GetTableForUpdate(ctx, tableID)
		if err != nil {
			return dbError(fmt.Sprintf("table %d", tableID), err)
		}
		bill, err := s.combine(ctx, tx, table, discount, in.ProcessedBy)
		if err != nil {
			return err
		}
		billID = bill.ID

		charged, change, err := settle(in.PaymentMethod, money(bill.FinalAmount), money(in.AmountPaid))
		if err != nil {
			return err
		}

		payment := &models.Payment{
			OrderID:        bill.ID,
			TableID:        &table.ID,
			Method:         in.PaymentMethod,
			Source:         models.PaymentSourceTable,
			Amount:         bill.FinalAmount,
			AmountPaid:     toFloat(charged),
			Change:         toFloat(change),
			DiscountAmount: bill.DiscountAmount,
			Notes:          in.Notes,
		}
		if err := tx.CreatePayment(ctx, payment); err != nil {
			return dbError("record payment", err)
		}

		if err := tx.UpdateOrder(ctx, bill.ID, map[string]interface{}{
			"order_status":   models.OrderCompleted,
			"payment_status": models.PaymentCompleted,
			"payment_method": in.PaymentMethod,
			"payment_id":     payment.ID,
		}); err != nil {
			return dbError("complete combined bill", err)
		}
		if err := recordHistory(ctx, tx, bill.ID, bill.Status, models.OrderCompleted, in.ProcessedBy, "table payment"); err != nil {
			return dbError("record history", err)
		}

		ids := make([]uint, len(bill.Constituents))
		for i, c := range bill.Constituents {
			ids[i] = c.ID
		}
		if err := tx.UpdateOrders(ctx, ids, map[string]interface{}{
			"order_status":   models.OrderCompleted,
			"payment_status": models.PaymentCompleted,
			"payment_method": in.PaymentMethod,
			"payment_id":     payment.ID,
		}); err != nil {
			return dbError("complete orders", err)
		}
		note := fmt.Sprintf("paid via combined bill %s", bill.OrderNumber)
		for _, c := range bill.Constituents {
			if err := recordHistory(ctx, tx, c.ID, c.Status, models.OrderCompleted, in.ProcessedBy, note); err != nil {
				return dbError("record history", err)
			}
			if err := tx.RecordChange(ctx, TopicOrders, c.ID, models.ActionUpdate); err != nil {
				return dbError("record change", err)
			}
		}

		if err := tx.SetTableOccupancy(ctx, table.ID, models.TableAvailable, nil); err != nil {
			return dbError("release table", err)
		}
		if err := tx.RecordChange(ctx, TopicTables, table.ID, models.ActionUpdate); err != nil {
			return dbError("record change", err)
		}
		if err := tx.RecordChange(ctx, TopicPayment, payment.ID, models.ActionInsert); err != nil {
			return dbError("record change", err)
		}

		result.Payment = payment
		result.TableNumber = table.TableNumber
		result.OrdersPaid = len(ids)
		result.Change = toFloat(change)
		return nil
	})
	if err != nil {
		return nil, dbError("process table payment", err)
	}

	bill, err := s.store.GetOrderDetail(ctx, billID)
	if err != nil {
		return nil, dbError("load combined bill", err)
	}
	result.Bill = bill
	utils.InfoLogger.WithFields(logrus.Fields{
		"table_id":    tableID,
		"bill":        bill.OrderNumber,
		"method":      in.PaymentMethod,
		"amount":      utils.FormatAmount(bill.FinalAmount),
		"change":      utils.FormatAmount(result.Change),
		"orders_paid": result.OrdersPaid,
	}).Info("Table payment processed")
	return result, nil
}

// ResetTable frees the table without touching any order. Resetting an
// available table changes nothing.
func (s *TableService) ResetTable(ctx context.Context, tableID uint) (*models.Table, error) {
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		table, err := tx.GetTableForUpdate(ctx, tableID)
		if err != nil {
			return dbError(fmt.Sprintf("table %d", tableID), err)
		}
		if table.Status == models.TableAvailable && table.CurrentOrderID == nil {
			return nil
		}
		if err := tx.SetTableOccupancy(ctx, table.ID, models.TableAvailable, nil); err != nil {
			return dbError("reset table", err)
		}
		return tx.RecordChange(ctx, TopicTables, table.ID, models.ActionUpdate)
	})
	if err != nil {
		return nil, dbError("reset table", err)
	}
	return s.GetTable(ctx, tableID)
}

func (s *TableService) CreateTable(ctx context.Context, table *models.Table) error {
	table.TableNumber = strings.TrimSpace(table.TableNumber)
	if table.TableNumber == "" {
		return validation("table_number is required")
	}
	if table.Capacity <= 0 {
		return validation("capacity must be greater than zero")
	}
	if table.Status == "" {
		table.Status = models.TableAvailable
	}
	if !table.Status.Valid() {
		return validation("unknown table status %q", table.Status)
	}
	table.CurrentOrderID = nil
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		if err := tx.CreateTable(ctx, table); err != nil {
			return dbError(fmt.Sprintf("table %s", table.TableNumber), err)
		}
		return tx.RecordChange(ctx, TopicTables, table.ID, models.ActionInsert)
	})
	return dbError("create table", err)
}

func (s *TableService) GetTable(ctx context.Context, tableID uint) (*models.Table, error) {
	table, err := s.store.GetTable(ctx, tableID)
	if err != nil {
		return nil, dbError(fmt.Sprintf("table %d", tableID), err)
	}
	return table, nil
}

func (s *TableService) ListTables(ctx context.Context, status models.TableStatus) ([]models.Table, error) {
	if status != "" && !status.Valid() {
		return nil, validation("unknown table status %q", status)
	}
	tables, err := s.store.ListTables(ctx, status)
	if err != nil {
		return nil, dbError("list tables", err)
	}
	return tables, nil
}

func (s *TableService) UpdateTable(ctx context.Context, tableID uint, in TableUpdateInput) (*models.Table, error) {
	fields := map[string]interface{}{}
	if in.Capacity != nil {
		if *in.Capacity <= 0 {
			return nil, validation("capacity must be greater than zero")
		}
		fields["capacity"] = *in.Capacity
	}
	if in.Location != nil {
		fields["location"] = *in.Location
	}
	if in.Status != nil {
		if !in.Status.Valid() {
			return nil, validation("unknown table status %q", *in.Status)
		}
		fields["status"] = *in.Status
	}
	if len(fields) == 0 {
		return nil, validation("nothing to update")
	}
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		if err := tx.UpdateTable(ctx, tableID, fields); err != nil {
			return dbError(fmt.Sprintf("table %d", tableID), err)
		}
		return tx.RecordChange(ctx, TopicTables, tableID, models.ActionUpdate)
	})
	if err != nil {
		return nil, dbError("update table", err)
	}
	return s.GetTable(ctx, tableID)
}

// Occupancy counts tables per status; statuses with no tables report 0.
func (s *TableService) Occupancy(ctx context.Context) (map[models.TableStatus]int64, error) {
	counts, err := s.store.CountTablesByStatus(ctx)
	if err != nil {
		return nil, dbError("count tables", err)
	}
	for _, st := range []models.TableStatus{models.TableAvailable, models.TableOccupied, models.TableReserved, models.TableMaintenance} {
		if _, ok := counts[st]; !ok {
			counts[st] = 0
		}
	}
	return counts, nil
}
