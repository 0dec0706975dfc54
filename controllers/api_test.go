package controllers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/cafe-pos/config"
	"github.com/yeremiapane/cafe-pos/repository"
	"github.com/yeremiapane/cafe-pos/router"
	"github.com/yeremiapane/cafe-pos/services"
	"github.com/yeremiapane/cafe-pos/utils"
)

const (
	adminEmail = "admin@test.local"
	adminPass  = "secret123"
)

type response struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type api struct {
	t      *testing.T
	engine *gin.Engine
	users  *services.UserService
	token  string
}

func newAPI(t *testing.T) *api {
	t.Helper()
	gin.SetMode(gin.TestMode)
	utils.SilenceLoggers()
	utils.InitJWT("test-secret", time.Hour)

	store, err := repository.OpenInMemory(t.Name())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	users := services.NewUserService(store)
	require.NoError(t, users.EnsureAdmin(context.Background(), adminEmail, adminPass))

	cfg := &config.Config{CORSOrigin: "*", RateLimit: 1000, StockPolicy: config.StockPolicyAdvisory}
	opts := services.Options{}
	engine := router.SetupRouter(router.Services{
		Orders:  services.NewOrderService(store, opts),
		Tables:  services.NewTableService(store, opts),
		Unpaid:  services.NewUnpaidService(store),
		Reports: services.NewReportService(store),
		Catalog: services.NewCatalogService(store),
		Users:   users,
	}, cfg)

	a := &api{t: t, engine: engine, users: users}
	a.token = a.login(adminEmail, adminPass)
	return a
}

func (a *api) login(email, password string) string {
	a.t.Helper()
	code, res := a.request(http.MethodPost, "/login", "", gin.H{"email": email, "password": password})
	require.Equal(a.t, http.StatusOK, code, res.Message)
	var data struct {
		Token string `json:"token"`
	}
	require.NoError(a.t, json.Unmarshal(res.Data, &data))
	return data.Token
}

func (a *api) request(method, path, token string, body interface{}) (int, response) {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.engine.ServeHTTP(w, req)

	var res response
	require.NoError(a.t, json.Unmarshal(w.Body.Bytes(), &res), w.Body.String())
	return w.Code, res
}

// do sends as admin.
func (a *api) do(method, path string, body interface{}) (int, response) {
	a.t.Helper()
	return a.request(method, path, a.token, body)
}

// must sends as admin, asserts the status and decodes data into out.
func (a *api) must(code int, method, path string, body, out interface{}) {
	a.t.Helper()
	got, res := a.do(method, path, body)
	require.Equal(a.t, code, got, res.Message)
	if out != nil {
		require.NoError(a.t, json.Unmarshal(res.Data, out))
	}
}

type idOnly struct {
	ID uint `json:"id"`
}

func (a *api) product(name string, price float64, stock int) uint {
	a.t.Helper()
	var p idOnly
	a.must(http.StatusCreated, http.MethodPost, "/products", gin.H{"name": name, "price": price, "stock": stock}, &p)
	return p.ID
}

func (a *api) table(number string) uint {
	a.t.Helper()
	var tbl idOnly
	a.must(http.StatusCreated, http.MethodPost, "/tables", gin.H{"table_number": number, "capacity": 4}, &tbl)
	return tbl.ID
}

func (a *api) order(tableID uint, productID uint, qty int) uint {
	a.t.Helper()
	body := gin.H{"items": []gin.H{{"product_id": productID, "quantity": qty}}}
	if tableID != 0 {
		body["table_id"] = tableID
	}
	var o idOnly
	a.must(http.StatusCreated, http.MethodPost, "/orders", body, &o)
	return o.ID
}

func path(format string, args ...interface{}) string {
	return fmt.Sprintf(format, args...)
}

func contextBG() context.Context {
	return context.Background()
}
