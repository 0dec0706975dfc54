package services

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/cafe-pos/models"
	"github.com/yeremiapane/cafe-pos/repository"
	"github.com/yeremiapane/cafe-pos/utils"
)

type fixture struct {
	ctx     context.Context
	store   *repository.Store
	orders  *OrderService
	tables  *TableService
	unpaid  *UnpaidService
	reports *ReportService
}

func newFixture(t *testing.T, opts Options) *fixture {
	t.Helper()
	store, err := repository.OpenInMemory(t.Name())
	require.NoError(t, err)
	return fixtureOn(t, store, opts)
}

// newFileFixture runs over a SQLite file with a real connection pool, for
// tests that race transactions against each other.
func newFileFixture(t *testing.T, opts Options) *fixture {
	t.Helper()
	store, err := repository.OpenFile(filepath.Join(t.TempDir(), "pos.db"))
	require.NoError(t, err)
	return fixtureOn(t, store, opts)
}

func fixtureOn(t *testing.T, store *repository.Store, opts Options) *fixture {
	t.Helper()
	utils.SilenceLoggers()
	t.Cleanup(func() { store.Close() })
	return &fixture{
		ctx:     context.Background(),
		store:   store,
		orders:  NewOrderService(store, opts),
		tables:  NewTableService(store, opts),
		unpaid:  NewUnpaidService(store),
		reports: NewReportService(store),
	}
}

func (f *fixture) product(t *testing.T, name string, price float64, stock int) *models.Product {
	t.Helper()
	p := &models.Product{Name: name, Price: price, Stock: stock, IsActive: true}
	require.NoError(t, f.store.CreateProduct(f.ctx, p))
	return p
}

func (f *fixture) table(t *testing.T, number string) *models.Table {
	t.Helper()
	table := &models.Table{TableNumber: number, Capacity: 4}
	require.NoError(t, f.tables.CreateTable(f.ctx, table))
	return table
}

// order places a single-line order.
func (f *fixture) order(t *testing.T, tableID *uint, p *models.Product, qty int) *models.Order {
	t.Helper()
	order, err := f.orders.CreateOrder(f.ctx, CreateOrderInput{
		TableID: tableID,
		Items:   []OrderItemInput{{ProductID: p.ID, Quantity: qty}},
	})
	require.NoError(t, err)
	return order
}

func (f *fixture) stock(t *testing.T, id uint) int {
	t.Helper()
	p, err := f.store.GetProduct(f.ctx, id)
	require.NoError(t, err)
	return p.Stock
}

func (f *fixture) reload(t *testing.T, id uint) *models.Order {
	t.Helper()
	o, err := f.store.GetOrder(f.ctx, id)
	require.NoError(t, err)
	return o
}

func (f *fixture) tableState(t *testing.T, id uint) *models.Table {
	t.Helper()
	table, err := f.store.GetTable(f.ctx, id)
	require.NoError(t, err)
	return table
}

func (f *fixture) countOrders(t *testing.T) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.store.DB().Model(&models.Order{}).Count(&n).Error)
	return n
}
