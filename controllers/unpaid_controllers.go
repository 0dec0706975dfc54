package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/cafe-pos/services"
	"github.com/yeremiapane/cafe-pos/utils"
)

type UnpaidController struct {
	Unpaid *services.UnpaidService
}

func NewUnpaidController(unpaid *services.UnpaidService) *UnpaidController {
	return &UnpaidController{Unpaid: unpaid}
}

// AddToUnpaid -> POST /orders/unpaid/add
// Accepts a single "order_id" or a batch in "order_ids".
func (uc *UnpaidController) AddToUnpaid(c *gin.Context) {
	var in services.AddUnpaidInput
	if !bindJSON(c, &in) {
		return
	}
	entries, err := uc.Unpaid.AddToUnpaid(c.Request.Context(), in)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	message := "Order moved to unpaid list"
	for _, e := range entries {
		if e.OrderWasPaid {
			message = "Order moved to unpaid list; it was already paid and needs reconciliation"
			break
		}
	}
	utils.RespondJSON(c, http.StatusCreated, message, entries)
}

// ListUnpaid -> GET /orders/unpaid
func (uc *UnpaidController) ListUnpaid(c *gin.Context) {
	entries, err := uc.Unpaid.ListUnpaid(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Unpaid orders", entries)
}

// MarkAsPaid -> POST /orders/unpaid/:id/mark-paid
func (uc *UnpaidController) MarkAsPaid(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var in services.MarkPaidInput
	if c.Request.ContentLength > 0 && !bindJSON(c, &in) {
		return
	}
	in.ProcessedBy = currentUser(c)

	res, err := uc.Unpaid.MarkUnpaidAsPaid(c.Request.Context(), id, in)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Unpaid order marked as paid", res)
}

// RemoveFromUnpaid -> DELETE /orders/unpaid/:id
func (uc *UnpaidController) RemoveFromUnpaid(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := uc.Unpaid.RemoveFromUnpaid(c.Request.Context(), id); err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Removed from unpaid list", gin.H{"id": id})
}

// Stats -> GET /orders/unpaid/stats
func (uc *UnpaidController) Stats(c *gin.Context) {
	stats, err := uc.Unpaid.ComputeStats(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Unpaid statistics", stats)
}
