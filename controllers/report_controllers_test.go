package controllers_test

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/cafe-pos/services"
)

func TestSalesReportCountsCombinedBillOnce(t *testing.T) {
	a := newAPI(t)
	latte := a.product("Latte", 10000, 20)
	tableID := a.table("R1")
	a.order(tableID, latte, 1)
	a.order(tableID, latte, 2)
	a.must(http.StatusOK, http.MethodPost, path("/orders/table/%d/payment", tableID),
		gin.H{"payment_method": "cash", "amount_paid": 30000}, nil)

	var report services.SalesReport
	a.must(http.StatusOK, http.MethodGet, "/reports/sales?from=2000-01-01&to=2100-01-01", nil, &report)
	assert.Equal(t, int64(1), report.TotalOrders)
	assert.Equal(t, 30000.0, report.TotalSales)
	require.Len(t, report.ByPaymentMethod, 1)
	assert.Equal(t, 30000.0, report.ByPaymentMethod[0].Total)
	require.Len(t, report.ByProduct, 1)
	assert.Equal(t, int64(3), report.ByProduct[0].Quantity)
}

func TestSalesReportRejectsBadRange(t *testing.T) {
	a := newAPI(t)

	code, _ := a.do(http.MethodGet, "/reports/sales?from=2024-02-01&to=2024-01-01", nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, res := a.do(http.MethodGet, "/reports/sales?from=yesterday", nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "invalid from date", res.Message)
}

func TestKitchenDisplayForChef(t *testing.T) {
	a := newAPI(t)
	_, err := a.users.Register(contextBG(), services.RegisterInput{
		Name: "Cook", Email: "chef@test.local", Password: "chefpass", Role: services.RoleChef,
	})
	require.NoError(t, err)
	chef := a.login("chef@test.local", "chefpass")

	latte := a.product("Latte", 10000, 20)
	a.order(0, latte, 1)

	code, res := a.request(http.MethodGet, "/kitchen/display", chef, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(res.Data), "Latte")

	code, _ = a.request(http.MethodGet, "/reports/sales", chef, nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = a.request(http.MethodPost, "/orders", chef, gin.H{"items": []gin.H{{"product_id": latte, "quantity": 1}}})
	assert.Equal(t, http.StatusForbidden, code)
}
