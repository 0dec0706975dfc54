package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/cafe-pos/models"
)

func TestSalesReportCountsCombinedBillOnce(t *testing.T) {
	f := newFixture(t, Options{})
	table, _, _ := twoOrders(t, f, "T01")
	_, err := f.tables.ProcessTablePayment(f.ctx, table.ID, TablePaymentInput{
		PaymentMethod: models.PaymentCard,
	})
	require.NoError(t, err)

	latte := f.product(t, "Latte", 25, 10)
	walkIn := f.order(t, nil, latte, 2)
	_, err = f.orders.UpdateOrderStatus(f.ctx, walkIn.ID, StatusUpdateInput{Status: models.OrderCompleted})
	require.NoError(t, err)
	f.order(t, nil, latte, 1) // still active, not counted

	from := time.Now().Add(-time.Hour)
	to := time.Now().Add(time.Hour)
	report, err := f.reports.SalesReport(f.ctx, from, to)
	require.NoError(t, err)

	assert.Equal(t, int64(2), report.TotalOrders)
	assert.Equal(t, 400.0, report.TotalSales)
	assert.Equal(t, 200.0, report.AverageOrder)

	methods := map[models.PaymentMethod]float64{}
	for _, m := range report.ByPaymentMethod {
		methods[m.PaymentMethod] = m.Total
	}
	assert.Equal(t, map[models.PaymentMethod]float64{
		models.PaymentCard: 350,
		models.PaymentCash: 50,
	}, methods)

	require.Len(t, report.ByProduct, 3)
	assert.Equal(t, "Set B T01", report.ByProduct[0].ProductName)
	assert.Equal(t, int64(2), report.ByProduct[0].Quantity)
	assert.Equal(t, 250.0, report.ByProduct[0].Revenue)
	assert.Equal(t, "Set A T01", report.ByProduct[1].ProductName)
	assert.Equal(t, "Latte", report.ByProduct[2].ProductName)
	assert.Equal(t, 50.0, report.ByProduct[2].Revenue)
}

func TestSalesReportEmptyRange(t *testing.T) {
	f := newFixture(t, Options{})
	now := time.Now()

	report, err := f.reports.SalesReport(f.ctx, now.Add(-time.Hour), now)
	require.NoError(t, err)
	assert.Equal(t, int64(0), report.TotalOrders)
	assert.Equal(t, 0.0, report.TotalSales)
	assert.Empty(t, report.ByProduct)

	_, err = f.reports.SalesReport(f.ctx, now, now)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestKitchenDisplay(t *testing.T) {
	f := newFixture(t, Options{})
	latte := f.product(t, "Latte", 25, 10)
	table := f.table(t, "K1")
	first := f.order(t, &table.ID, latte, 1)
	second := f.order(t, nil, latte, 2)
	done := f.order(t, nil, latte, 1)
	_, err := f.orders.UpdateOrderStatus(f.ctx, done.ID, StatusUpdateInput{Status: models.OrderCompleted})
	require.NoError(t, err)
	_, err = f.tables.CombineTableOrders(f.ctx, table.ID, nil, 0)
	require.NoError(t, err)

	tickets, err := f.reports.KitchenDisplay(f.ctx)
	require.NoError(t, err)
	require.Len(t, tickets, 2)
	assert.Equal(t, first.ID, tickets[0].OrderID)
	assert.Equal(t, second.ID, tickets[1].OrderID)
	assert.Len(t, tickets[1].Items, 1)
	assert.Equal(t, 2, tickets[1].Items[0].Quantity)
}
