package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/cafe-pos/services"
	"github.com/yeremiapane/cafe-pos/utils"
)

// GetAllCustomers -> GET /customers
func (cc *CatalogController) GetAllCustomers(c *gin.Context) {
	customers, err := cc.Catalog.ListCustomers(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of customers", customers)
}

// GetCustomerByID -> GET /customers/:id
func (cc *CatalogController) GetCustomerByID(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	customer, err := cc.Catalog.GetCustomer(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Customer detail", gin.H{
		"customer":         customer,
		"discount_percent": customer.DiscountPercent(),
	})
}

// CreateCustomer -> POST /customers
func (cc *CatalogController) CreateCustomer(c *gin.Context) {
	var in services.CustomerInput
	if !bindJSON(c, &in) {
		return
	}
	customer, err := cc.Catalog.CreateCustomer(c.Request.Context(), in)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Customer created", customer)
}

// UpdateCustomer -> PUT /customers/:id
func (cc *CatalogController) UpdateCustomer(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var in services.CustomerInput
	if !bindJSON(c, &in) {
		return
	}
	customer, err := cc.Catalog.UpdateCustomer(c.Request.Context(), id, in)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Customer updated", customer)
}
