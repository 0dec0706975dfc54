package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/cafe-pos/config"
	"github.com/yeremiapane/cafe-pos/models"
	"github.com/yeremiapane/cafe-pos/repository"
	"github.com/yeremiapane/cafe-pos/router"
	"github.com/yeremiapane/cafe-pos/services"
	"github.com/yeremiapane/cafe-pos/utils"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	utils.SilenceLoggers()
	utils.InitJWT("integration-secret", time.Hour)
	os.Exit(m.Run())
}

type envelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// recorder collects what the change monitor relays.
type recorder struct {
	orders   []uint
	tables   []uint
	payments []uint
}

func (r *recorder) OrderUpdated(o models.Order)               { r.orders = append(r.orders, o.ID) }
func (r *recorder) OrderDeleted(id uint)                      { r.orders = append(r.orders, id) }
func (r *recorder) TableUpdated(t models.Table, created bool) { r.tables = append(r.tables, t.ID) }
func (r *recorder) PaymentRecorded(p models.Payment)          { r.payments = append(r.payments, p.ID) }
func (r *recorder) UnpaidChanged(id uint, action string)      {}

// TestEndToEndIntegration walks a dine-in table from the first order to the
// day's sales report:
// 1. login as the seeded admin
// 2. create a product and a table
// 3. two rounds of orders at the table
// 4. combine with a discount, then pay cash
// 5. the change monitor relays the settlement
// 6. the sales report counts the bill once
func TestEndToEndIntegration(t *testing.T) {
	store, err := repository.OpenInMemory(t.Name())
	require.NoError(t, err)
	defer store.Close()

	cfg := &config.Config{CORSOrigin: "*", RateLimit: 1000, TaxRate: 10, StockPolicy: config.StockPolicyStrict}
	opts := services.Options{TaxRate: cfg.TaxRate, StrictStock: true}
	users := services.NewUserService(store)
	require.NoError(t, users.EnsureAdmin(context.Background(), "admin@cafe.local", "admin123"))

	r := router.SetupRouter(router.Services{
		Orders:  services.NewOrderService(store, opts),
		Tables:  services.NewTableService(store, opts),
		Unpaid:  services.NewUnpaidService(store),
		Reports: services.NewReportService(store),
		Catalog: services.NewCatalogService(store),
		Users:   users,
	}, cfg)

	call := func(method, path, token string, body interface{}) (int, envelope) {
		t.Helper()
		var buf bytes.Buffer
		if body != nil {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
		req := httptest.NewRequest(method, path, &buf)
		req.Header.Set("Content-Type", "application/json")
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		var env envelope
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
		return w.Code, env
	}
	decode := func(env envelope, out interface{}) {
		t.Helper()
		require.NoError(t, json.Unmarshal(env.Data, out))
	}

	// 1. login
	code, env := call(http.MethodPost, "/login", "", gin.H{"email": "admin@cafe.local", "password": "admin123"})
	require.Equal(t, http.StatusOK, code, env.Message)
	var login struct {
		Token    string `json:"token"`
		UserRole string `json:"user_role"`
	}
	decode(env, &login)
	assert.Equal(t, "admin", login.UserRole)
	token := login.Token

	// 2. catalog and table
	code, env = call(http.MethodPost, "/products", token, gin.H{"name": "Flat White", "price": 20000, "stock": 5})
	require.Equal(t, http.StatusCreated, code, env.Message)
	var product models.Product
	decode(env, &product)

	code, env = call(http.MethodPost, "/tables", token, gin.H{"table_number": "7"})
	require.Equal(t, http.StatusCreated, code, env.Message)
	var table models.Table
	decode(env, &table)

	// 3. two rounds: 2 x 20000 and 1 x 20000, each taxed 10%
	for _, qty := range []int{2, 1} {
		code, env = call(http.MethodPost, "/orders", token, gin.H{
			"table_id": table.ID,
			"items":    []gin.H{{"product_id": product.ID, "quantity": qty}},
		})
		require.Equal(t, http.StatusCreated, code, env.Message)
	}

	// strict stock: only 2 left
	code, _ = call(http.MethodPost, "/orders", token, gin.H{
		"table_id": table.ID,
		"items":    []gin.H{{"product_id": product.ID, "quantity": 3}},
	})
	assert.Equal(t, http.StatusBadRequest, code)

	// 4. combine with 10% off, then pay
	code, env = call(http.MethodPost, "/orders/table/"+itoa(table.ID)+"/combined", token,
		gin.H{"discount": gin.H{"type": "percentage", "value": 10}})
	require.Equal(t, http.StatusOK, code, env.Message)
	var bill models.Order
	decode(env, &bill)
	assert.Equal(t, 66000.0, bill.TotalAmount)
	assert.Equal(t, 6600.0, bill.DiscountAmount)
	assert.Equal(t, 59400.0, bill.FinalAmount)

	code, env = call(http.MethodPost, "/orders/table/"+itoa(table.ID)+"/payment", token,
		gin.H{"payment_method": "cash", "amount_paid": 60000})
	require.Equal(t, http.StatusOK, code, env.Message)
	var paid services.PaymentResult
	decode(env, &paid)
	assert.Equal(t, 600.0, paid.Change)
	assert.Equal(t, 2, paid.OrdersPaid)

	// 5. relay
	rec := &recorder{}
	monitor := services.NewChangeMonitor(store, rec)
	n, err := monitor.Poll(context.Background())
	require.NoError(t, err)
	assert.Greater(t, n, 0)
	assert.Contains(t, rec.payments, paid.Payment.ID)
	assert.Contains(t, rec.tables, table.ID)

	// 6. report
	code, env = call(http.MethodGet, "/reports/sales?from=2000-01-01&to=2100-01-01", token, nil)
	require.Equal(t, http.StatusOK, code, env.Message)
	var report services.SalesReport
	decode(env, &report)
	assert.Equal(t, int64(1), report.TotalOrders)
	assert.Equal(t, 59400.0, report.TotalSales)
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
