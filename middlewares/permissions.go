package middlewares

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/cafe-pos/utils"
)

// Permission is one capability a role can hold.
type Permission uint

const (
	PermOrdersCreate Permission = iota
	PermOrdersUpdate
	PermOrdersDeleteHistory
	PermTablesSettle
	PermUnpaidManage
	PermCatalogRead
	PermCatalogWrite
	PermKitchenView
	PermReportsView
	PermUsersManage

	permCount
)

var permissionNames = [permCount]string{
	PermOrdersCreate:        "orders.create",
	PermOrdersUpdate:        "orders.update",
	PermOrdersDeleteHistory: "orders.delete_history",
	PermTablesSettle:        "tables.settle",
	PermUnpaidManage:        "unpaid.manage",
	PermCatalogRead:         "catalog.read",
	PermCatalogWrite:        "catalog.write",
	PermKitchenView:         "kitchen.view",
	PermReportsView:         "reports.view",
	PermUsersManage:         "users.manage",
}

func (p Permission) String() string {
	if p >= permCount {
		return fmt.Sprintf("permission(%d)", uint(p))
	}
	return permissionNames[p]
}

// Capabilities is a set of permissions.
type Capabilities uint64

func NewCapabilities(perms ...Permission) Capabilities {
	var c Capabilities
	for _, p := range perms {
		c |= 1 << p
	}
	return c
}

func (c Capabilities) Has(p Permission) bool {
	return p < permCount && c&(1<<p) != 0
}

// AllCapabilities holds every permission.
var AllCapabilities = Capabilities(1<<permCount - 1)

var roleCapabilities = map[string]Capabilities{
	"admin": AllCapabilities,
	"staff": NewCapabilities(
		PermOrdersCreate,
		PermOrdersUpdate,
		PermTablesSettle,
		PermUnpaidManage,
		PermCatalogRead,
		PermKitchenView,
	),
	"chef": NewCapabilities(PermKitchenView, PermCatalogRead),
}

// CapabilitiesOf returns the set granted to role; unknown roles get none.
func CapabilitiesOf(role string) Capabilities {
	return roleCapabilities[role]
}

// RequirePermission aborts unless the authenticated role holds p.
func RequirePermission(p Permission) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString(CtxRole)
		if role == "" {
			utils.RespondError(c, http.StatusUnauthorized, fmt.Errorf("unauthorized"))
			c.Abort()
			return
		}
		if !CapabilitiesOf(role).Has(p) {
			utils.RespondError(c, http.StatusForbidden, fmt.Errorf("%s permission required", p))
			c.Abort()
			return
		}
		c.Next()
	}
}

// displayPermission is what a client needs to watch a display channel.
var displayPermission = map[string]Permission{
	"chef":  PermKitchenView,
	"staff": PermOrdersUpdate,
	"admin": PermUsersManage,
}

// RoleCheck guards /ws/:role: the caller must be allowed to watch the
// requested display.
func RoleCheck() gin.HandlerFunc {
	return func(c *gin.Context) {
		perm, ok := displayPermission[c.Param("role")]
		if !ok {
			utils.RespondError(c, http.StatusNotFound, fmt.Errorf("unknown display %q", c.Param("role")))
			c.Abort()
			return
		}
		RequirePermission(perm)(c)
	}
}
