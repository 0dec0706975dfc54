package services

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/cafe-pos/models"
	"github.com/yeremiapane/cafe-pos/repository"
)

// twoOrders seats orders with final amounts 100 and 250 on a fresh table.
func twoOrders(t *testing.T, f *fixture, number string) (*models.Table, *models.Order, *models.Order) {
	t.Helper()
	table := f.table(t, number)
	p100 := f.product(t, "Set A "+number, 100, 50)
	p250 := f.product(t, "Set B "+number, 125, 50)
	a := f.order(t, &table.ID, p100, 1)
	b := f.order(t, &table.ID, p250, 2)
	require.Equal(t, 100.0, a.FinalAmount)
	require.Equal(t, 250.0, b.FinalAmount)
	return table, a, b
}

func TestCombineTableOrdersAppliesDiscount(t *testing.T) {
	f := newFixture(t, Options{})
	table, a, b := twoOrders(t, f, "T01")

	bill, err := f.tables.CombineTableOrders(f.ctx, table.ID,
		&DiscountInput{Type: models.DiscountPercentage, Value: 10}, 1)
	require.NoError(t, err)

	assert.True(t, bill.IsCombined())
	require.NotNil(t, bill.CombinedTableID)
	assert.Equal(t, table.ID, *bill.CombinedTableID)
	assert.Equal(t, 350.0, bill.TotalAmount)
	assert.Equal(t, 35.0, bill.DiscountAmount)
	assert.Equal(t, 315.0, bill.FinalAmount)
	require.Len(t, bill.Constituents, 2)
	assert.Equal(t, a.ID, bill.Constituents[0].ID)
	assert.Equal(t, b.ID, bill.Constituents[1].ID)

	// constituents stay in place until payment
	assert.Equal(t, models.OrderActive, f.reload(t, a.ID).Status)
	assert.Equal(t, models.PaymentPending, f.reload(t, b.ID).PaymentStatus)
}

func TestCombineTableOrdersKeepsOneOpenBill(t *testing.T) {
	f := newFixture(t, Options{})
	table, _, _ := twoOrders(t, f, "T02")
	first, err := f.tables.CombineTableOrders(f.ctx, table.ID, &DiscountInput{Type: models.DiscountFixed, Value: 50}, 0)
	require.NoError(t, err)

	extra := f.product(t, "Cookie", 20, 10)
	f.order(t, &table.ID, extra, 1)

	second, err := f.tables.CombineTableOrders(f.ctx, table.ID, nil, 0)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, second.Constituents, 3)
	assert.Equal(t, 370.0, second.TotalAmount)
	assert.Equal(t, 50.0, second.DiscountAmount)
	assert.Equal(t, 320.0, second.FinalAmount)

	bills, err := f.orders.ListOrders(f.ctx, repository.OrderFilter{Kind: models.OrderKindCombined})
	require.NoError(t, err)
	assert.Len(t, bills, 1)
}

func TestCombineTableOrdersErrors(t *testing.T) {
	f := newFixture(t, Options{})
	empty := f.table(t, "T03")

	_, err := f.tables.CombineTableOrders(f.ctx, empty.ID, nil, 0)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.tables.CombineTableOrders(f.ctx, 999, nil, 0)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.tables.CombineTableOrders(f.ctx, empty.ID, &DiscountInput{Type: models.DiscountFixed, Value: -3}, 0)
	assert.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, int64(0), f.countOrders(t))
}

func TestProcessTablePaymentSettlesTable(t *testing.T) {
	f := newFixture(t, Options{})
	table := f.table(t, "T01")
	p200 := f.product(t, "Platter", 200, 10)
	p150 := f.product(t, "Pasta", 150, 10)
	a := f.order(t, &table.ID, p200, 1)
	b := f.order(t, &table.ID, p150, 1)

	bill, err := f.tables.CombineTableOrders(f.ctx, table.ID, nil, 0)
	require.NoError(t, err)
	require.Equal(t, 350.0, bill.FinalAmount)

	res, err := f.tables.ProcessTablePayment(f.ctx, table.ID, TablePaymentInput{
		PaymentMethod: models.PaymentCash,
		AmountPaid:    350,
	})
	require.NoError(t, err)
	assert.Equal(t, 0.0, res.Change)
	assert.Equal(t, 2, res.OrdersPaid)
	assert.Equal(t, "T01", res.TableNumber)
	assert.Equal(t, bill.ID, res.Bill.ID)
	assert.Equal(t, models.PaymentSourceTable, res.Payment.Source)

	for _, id := range []uint{a.ID, b.ID, bill.ID} {
		o := f.reload(t, id)
		assert.Equal(t, models.OrderCompleted, o.Status)
		assert.Equal(t, models.PaymentCompleted, o.PaymentStatus)
		require.NotNil(t, o.PaymentID)
		assert.Equal(t, res.Payment.ID, *o.PaymentID)
	}
	tbl := f.tableState(t, table.ID)
	assert.Equal(t, models.TableAvailable, tbl.Status)
	assert.Nil(t, tbl.CurrentOrderID)
}

func TestProcessTablePaymentSettlesOnceUnderRace(t *testing.T) {
	f := newFileFixture(t, Options{})
	table, a, b := twoOrders(t, f, "T16")

	const callers = 2
	var wg sync.WaitGroup
	results := make([]*PaymentResult, callers)
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				results[i], errs[i] = f.tables.ProcessTablePayment(f.ctx, table.ID, TablePaymentInput{AmountPaid: 350})
				return
			}
			_, errs[i] = f.tables.CombineTableOrders(f.ctx, table.ID, nil, 0)
		}(i)
	}
	wg.Wait()

	// the combine may run first and the payment then settles its bill, or
	// the payment wins and the combine finds nothing left
	require.NoError(t, errs[0])
	require.NotNil(t, results[0])
	if errs[1] != nil {
		assert.True(t, errors.Is(errs[1], ErrNotFound) || errors.Is(errs[1], ErrConflict), "unexpected error: %v", errs[1])
	}

	var payments, bills int64
	require.NoError(t, f.store.DB().Model(&models.Payment{}).Count(&payments).Error)
	require.NoError(t, f.store.DB().Model(&models.Order{}).
		Where("order_kind = ?", models.OrderKindCombined).Count(&bills).Error)
	assert.EqualValues(t, 1, payments)
	assert.EqualValues(t, 1, bills)
	assert.Equal(t, models.OrderCompleted, f.reload(t, results[0].Bill.ID).Status)
	assert.Equal(t, models.PaymentCompleted, f.reload(t, a.ID).PaymentStatus)
	assert.Equal(t, models.PaymentCompleted, f.reload(t, b.ID).PaymentStatus)
}

func TestConcurrentTablePaymentsChargeOnce(t *testing.T) {
	f := newFileFixture(t, Options{})
	table, _, _ := twoOrders(t, f, "T17")

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.tables.ProcessTablePayment(f.ctx, table.ID, TablePaymentInput{AmountPaid: 350})
		}(i)
	}
	wg.Wait()

	var failed error
	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		failed = err
	}
	assert.Equal(t, 1, succeeded)
	require.Error(t, failed)
	assert.True(t, errors.Is(failed, ErrNotFound) || errors.Is(failed, ErrConflict), "unexpected error: %v", failed)

	var payments int64
	require.NoError(t, f.store.DB().Model(&models.Payment{}).Count(&payments).Error)
	assert.EqualValues(t, 1, payments)
	assert.Equal(t, models.TableAvailable, f.tableState(t, table.ID).Status)
}

func TestClaimOrdersRejectsPartialClaim(t *testing.T) {
	f := newFixture(t, Options{})
	table, a, b := twoOrders(t, f, "T18")
	other, err := f.tables.CombineTableOrders(f.ctx, table.ID, nil, 0)
	require.NoError(t, err)
	require.NoError(t, f.store.UpdateOrder(f.ctx, b.ID, map[string]interface{}{"combined_into_id": nil}))

	// a is already held, so only b moves and the claim comes up short
	err = f.store.Transaction(f.ctx, func(tx *repository.Store) error {
		return claimOrders(f.ctx, tx, other.ID, []models.Order{*a, *b}, table)
	})
	assert.ErrorIs(t, err, ErrConflict)
	assert.Equal(t, other.ID, *f.reload(t, a.ID).CombinedIntoID)
	assert.Nil(t, f.reload(t, b.ID).CombinedIntoID)
}

func TestProcessTablePaymentCombinesOnTheFly(t *testing.T) {
	f := newFixture(t, Options{})
	table, _, _ := twoOrders(t, f, "T04")

	res, err := f.tables.ProcessTablePayment(f.ctx, table.ID, TablePaymentInput{AmountPaid: 400})
	require.NoError(t, err)
	assert.Equal(t, 350.0, res.Bill.FinalAmount)
	assert.Equal(t, 50.0, res.Change)
	assert.Equal(t, models.PaymentCash, res.Payment.Method)
}

func TestProcessTablePaymentChangeAfterDiscount(t *testing.T) {
	f := newFixture(t, Options{})
	table, _, _ := twoOrders(t, f, "T05")
	_, err := f.tables.CombineTableOrders(f.ctx, table.ID, &DiscountInput{Type: models.DiscountPercentage, Value: 10}, 0)
	require.NoError(t, err)

	res, err := f.tables.ProcessTablePayment(f.ctx, table.ID, TablePaymentInput{
		PaymentMethod: models.PaymentCash,
		AmountPaid:    400,
	})
	require.NoError(t, err)
	assert.Equal(t, 315.0, res.Bill.FinalAmount)
	assert.Equal(t, 85.0, res.Change)
	assert.Equal(t, 400.0, res.Payment.AmountPaid)
}

func TestProcessTablePaymentDiscountOverride(t *testing.T) {
	f := newFixture(t, Options{})
	table, _, _ := twoOrders(t, f, "T06")
	_, err := f.tables.CombineTableOrders(f.ctx, table.ID, &DiscountInput{Type: models.DiscountPercentage, Value: 10}, 0)
	require.NoError(t, err)

	discount := 100.0
	res, err := f.tables.ProcessTablePayment(f.ctx, table.ID, TablePaymentInput{
		PaymentMethod:  models.PaymentCard,
		DiscountAmount: &discount,
	})
	require.NoError(t, err)
	assert.Equal(t, 250.0, res.Bill.FinalAmount)
	assert.Equal(t, models.DiscountFixed, res.Bill.DiscountType)
	assert.Equal(t, 250.0, res.Payment.AmountPaid)
	assert.Equal(t, 0.0, res.Change)
}

func TestProcessTablePaymentRejectsShortPayment(t *testing.T) {
	f := newFixture(t, Options{})
	table, a, _ := twoOrders(t, f, "T07")

	_, err := f.tables.ProcessTablePayment(f.ctx, table.ID, TablePaymentInput{
		PaymentMethod: models.PaymentCash,
		AmountPaid:    300,
	})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.tables.ProcessTablePayment(f.ctx, table.ID, TablePaymentInput{
		PaymentMethod: models.PaymentCard,
		AmountPaid:    10,
	})
	assert.ErrorIs(t, err, ErrValidation)

	// rolled back: no bill, nothing claimed, table still occupied
	assert.Equal(t, int64(2), f.countOrders(t))
	assert.Nil(t, f.reload(t, a.ID).CombinedIntoID)
	assert.Equal(t, models.TableOccupied, f.tableState(t, table.ID).Status)
}

func TestProcessTablePaymentNothingOutstanding(t *testing.T) {
	f := newFixture(t, Options{})
	table := f.table(t, "T08")
	_, err := f.tables.ProcessTablePayment(f.ctx, table.ID, TablePaymentInput{AmountPaid: 10})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPaidTableStartsFreshBill(t *testing.T) {
	f := newFixture(t, Options{})
	table, _, _ := twoOrders(t, f, "T09")
	first, err := f.tables.ProcessTablePayment(f.ctx, table.ID, TablePaymentInput{AmountPaid: 350})
	require.NoError(t, err)

	tea := f.product(t, "Tea", 10, 10)
	f.order(t, &table.ID, tea, 1)
	second, err := f.tables.CombineTableOrders(f.ctx, table.ID, nil, 0)
	require.NoError(t, err)
	assert.NotEqual(t, first.Bill.ID, second.ID)
	assert.Equal(t, 10.0, second.FinalAmount)
}

func TestCancelCombinedBillReleasesConstituents(t *testing.T) {
	f := newFixture(t, Options{})
	table, a, b := twoOrders(t, f, "T10")
	bill, err := f.tables.CombineTableOrders(f.ctx, table.ID, nil, 0)
	require.NoError(t, err)

	_, err = f.orders.UpdateOrderStatus(f.ctx, bill.ID, StatusUpdateInput{Status: models.OrderCancelled})
	require.NoError(t, err)

	for _, id := range []uint{a.ID, b.ID} {
		o := f.reload(t, id)
		assert.Nil(t, o.CombinedIntoID)
		assert.Equal(t, models.OrderActive, o.Status)
	}
	rebilled, err := f.tables.CombineTableOrders(f.ctx, table.ID, nil, 0)
	require.NoError(t, err)
	assert.NotEqual(t, bill.ID, rebilled.ID)
	assert.Len(t, rebilled.Constituents, 2)
}

func TestRefundCombinedBillRefundsConstituents(t *testing.T) {
	f := newFixture(t, Options{})
	table, a, _ := twoOrders(t, f, "T11")
	res, err := f.tables.ProcessTablePayment(f.ctx, table.ID, TablePaymentInput{AmountPaid: 350})
	require.NoError(t, err)
	item := f.reload(t, a.ID).Items[0]
	before := f.stock(t, item.ProductID)

	_, err = f.orders.UpdateOrderStatus(f.ctx, res.Bill.ID, StatusUpdateInput{Status: models.OrderRefunded})
	require.NoError(t, err)

	o := f.reload(t, a.ID)
	assert.Equal(t, models.OrderRefunded, o.Status)
	assert.Equal(t, models.PaymentRefunded, o.PaymentStatus)
	assert.Equal(t, before+item.Quantity, f.stock(t, item.ProductID))
}

func TestRefundOneConstituentOfPaidBill(t *testing.T) {
	f := newFixture(t, Options{})
	table, a, b := twoOrders(t, f, "T15")
	res, err := f.tables.ProcessTablePayment(f.ctx, table.ID, TablePaymentInput{AmountPaid: 350})
	require.NoError(t, err)
	item := f.reload(t, a.ID).Items[0]
	before := f.stock(t, item.ProductID)

	_, err = f.orders.UpdateOrderStatus(f.ctx, a.ID, StatusUpdateInput{Status: models.OrderRefunded, Note: "cold coffee"})
	require.NoError(t, err)

	o := f.reload(t, a.ID)
	assert.Equal(t, models.OrderRefunded, o.Status)
	assert.Equal(t, models.PaymentRefunded, o.PaymentStatus)
	assert.Equal(t, before+item.Quantity, f.stock(t, item.ProductID))
	assert.Equal(t, models.OrderCompleted, f.reload(t, b.ID).Status)
	assert.Equal(t, models.OrderCompleted, f.reload(t, res.Bill.ID).Status)

	// refunding the bill afterwards leaves the already refunded order alone
	_, err = f.orders.UpdateOrderStatus(f.ctx, res.Bill.ID, StatusUpdateInput{Status: models.OrderRefunded})
	require.NoError(t, err)
	assert.Equal(t, before+item.Quantity, f.stock(t, item.ProductID))
	assert.Equal(t, models.OrderRefunded, f.reload(t, b.ID).Status)
}

func TestResetTableIsIdempotent(t *testing.T) {
	f := newFixture(t, Options{})
	table, a, _ := twoOrders(t, f, "T12")

	once, err := f.tables.ResetTable(f.ctx, table.ID)
	require.NoError(t, err)
	twice, err := f.tables.ResetTable(f.ctx, table.ID)
	require.NoError(t, err)

	assert.Equal(t, models.TableAvailable, once.Status)
	assert.Nil(t, once.CurrentOrderID)
	assert.Equal(t, once.Status, twice.Status)
	assert.Equal(t, once.CurrentOrderID, twice.CurrentOrderID)
	assert.Equal(t, once.UpdatedAt, twice.UpdatedAt)

	// orders untouched
	assert.Equal(t, models.OrderActive, f.reload(t, a.ID).Status)

	_, err = f.tables.ResetTable(f.ctx, 999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTableCRUD(t *testing.T) {
	f := newFixture(t, Options{})
	table := f.table(t, "P1")

	err := f.tables.CreateTable(f.ctx, &models.Table{TableNumber: "P1", Capacity: 2})
	assert.ErrorIs(t, err, ErrConflict)
	assert.ErrorIs(t, f.tables.CreateTable(f.ctx, &models.Table{TableNumber: " ", Capacity: 2}), ErrValidation)
	assert.ErrorIs(t, f.tables.CreateTable(f.ctx, &models.Table{TableNumber: "P2"}), ErrValidation)

	capacity, status := 6, models.TableReserved
	updated, err := f.tables.UpdateTable(f.ctx, table.ID, TableUpdateInput{Capacity: &capacity, Status: &status})
	require.NoError(t, err)
	assert.Equal(t, 6, updated.Capacity)
	assert.Equal(t, models.TableReserved, updated.Status)

	bad := models.TableStatus("flooded")
	_, err = f.tables.UpdateTable(f.ctx, table.ID, TableUpdateInput{Status: &bad})
	assert.ErrorIs(t, err, ErrValidation)

	reserved, err := f.tables.ListTables(f.ctx, models.TableReserved)
	require.NoError(t, err)
	assert.Len(t, reserved, 1)
}
