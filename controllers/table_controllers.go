package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/cafe-pos/models"
	"github.com/yeremiapane/cafe-pos/services"
	"github.com/yeremiapane/cafe-pos/utils"
)

type TableController struct {
	Tables *services.TableService
}

func NewTableController(tables *services.TableService) *TableController {
	return &TableController{Tables: tables}
}

// CreateTable -> POST /tables
func (tc *TableController) CreateTable(c *gin.Context) {
	var req struct {
		TableNumber string             `json:"table_number" binding:"required"`
		Capacity    int                `json:"capacity"`
		Location    string             `json:"location"`
		Status      models.TableStatus `json:"status"`
	}
	if !bindJSON(c, &req) {
		return
	}
	if req.Capacity == 0 {
		req.Capacity = 2
	}
	table := &models.Table{
		TableNumber: req.TableNumber,
		Capacity:    req.Capacity,
		Location:    req.Location,
		Status:      req.Status,
	}
	if err := tc.Tables.CreateTable(c.Request.Context(), table); err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Table created successfully", table)
}

// GetAllTables -> GET /tables?status=
func (tc *TableController) GetAllTables(c *gin.Context) {
	tables, err := tc.Tables.ListTables(c.Request.Context(), models.TableStatus(c.Query("status")))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of tables", tables)
}

// Occupancy -> GET /tables/summary
func (tc *TableController) Occupancy(c *gin.Context) {
	counts, err := tc.Tables.Occupancy(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Table occupancy", counts)
}

// GetTableByID -> GET /tables/:id
func (tc *TableController) GetTableByID(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	table, err := tc.Tables.GetTable(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Table detail", table)
}

// UpdateTable -> PUT /tables/:id
func (tc *TableController) UpdateTable(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var in services.TableUpdateInput
	if !bindJSON(c, &in) {
		return
	}
	table, err := tc.Tables.UpdateTable(c.Request.Context(), id, in)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Table updated", table)
}

// CombineOrders -> POST /orders/table/:id/combined
// Body (optional): {"discount": {"type": "percentage", "value": 10}}
func (tc *TableController) CombineOrders(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req struct {
		Discount *services.DiscountInput `json:"discount"`
	}
	if c.Request.ContentLength > 0 && !bindJSON(c, &req) {
		return
	}

	bill, err := tc.Tables.CombineTableOrders(c.Request.Context(), id, req.Discount, currentUser(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Table orders combined", bill)
}

// ProcessPayment -> POST /orders/table/:id/payment
func (tc *TableController) ProcessPayment(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var in services.TablePaymentInput
	if !bindJSON(c, &in) {
		return
	}
	in.ProcessedBy = currentUser(c)

	res, err := tc.Tables.ProcessTablePayment(c.Request.Context(), id, in)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK,
		"Payment received for table "+res.TableNumber+", change "+utils.FormatAmount(res.Change), res)
}

// ResetTable -> PATCH /orders/table/:id/reset
func (tc *TableController) ResetTable(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	table, err := tc.Tables.ResetTable(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Table reset", table)
}
