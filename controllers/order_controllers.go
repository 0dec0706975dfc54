package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/cafe-pos/models"
	"github.com/yeremiapane/cafe-pos/repository"
	"github.com/yeremiapane/cafe-pos/services"
	"github.com/yeremiapane/cafe-pos/utils"
)

type OrderController struct {
	Orders *services.OrderService
}

func NewOrderController(orders *services.OrderService) *OrderController {
	return &OrderController{Orders: orders}
}

// CreateOrder -> POST /orders
func (oc *OrderController) CreateOrder(c *gin.Context) {
	var in services.CreateOrderInput
	if !bindJSON(c, &in) {
		return
	}
	in.CreatedBy = currentUser(c)

	order, err := oc.Orders.CreateOrder(c.Request.Context(), in)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Order created", order)
}

// GetAllOrders -> GET /orders?status=&payment_status=&table_id=&limit=
func (oc *OrderController) GetAllOrders(c *gin.Context) {
	filter := repository.OrderFilter{
		Status:        models.OrderStatus(c.Query("status")),
		PaymentStatus: models.PaymentStatus(c.Query("payment_status")),
		Kind:          models.OrderKind(c.Query("kind")),
	}
	if v := c.Query("table_id"); v != "" {
		id, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			utils.RespondError(c, http.StatusBadRequest, errors.New("invalid table_id"))
			return
		}
		tableID := uint(id)
		filter.TableID = &tableID
	}
	if v := c.Query("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 0 {
			utils.RespondError(c, http.StatusBadRequest, errors.New("invalid limit"))
			return
		}
		filter.Limit = limit
	}

	orders, err := oc.Orders.ListOrders(c.Request.Context(), filter)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of orders", orders)
}

// GetOrderByID -> GET /orders/:id
func (oc *OrderController) GetOrderByID(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	order, err := oc.Orders.GetOrder(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Order detail", order)
}

// UpdateOrderStatus -> PATCH /orders/:id/status
func (oc *OrderController) UpdateOrderStatus(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var in services.StatusUpdateInput
	if !bindJSON(c, &in) {
		return
	}
	in.ChangedBy = currentUser(c)

	order, err := oc.Orders.UpdateOrderStatus(c.Request.Context(), id, in)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Order status updated to "+string(order.Status), order)
}

// GetOrderHistory -> GET /orders/:id/history
func (oc *OrderController) GetOrderHistory(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	history, err := oc.Orders.OrderHistory(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Order status history", history)
}

// GetOrderPayments -> GET /orders/:id/payments
func (oc *OrderController) GetOrderPayments(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	payments, err := oc.Orders.OrderPayments(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Order payments", payments)
}

// DeleteOrderHistory -> DELETE /orders/:id/history
// Body: {"confirm": "DELETE", "restore_stock": true}
func (oc *OrderController) DeleteOrderHistory(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req struct {
		Confirm      string `json:"confirm"`
		RestoreStock bool   `json:"restore_stock"`
	}
	if !bindJSON(c, &req) {
		return
	}
	if req.Confirm != "DELETE" {
		utils.RespondError(c, http.StatusBadRequest, errors.New(`confirmation required: send "confirm": "DELETE"`))
		return
	}

	if err := oc.Orders.DeleteOrderHistory(c.Request.Context(), id, req.RestoreStock); err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Order history deleted", gin.H{
		"order_id":      id,
		"restore_stock": req.RestoreStock,
	})
}
