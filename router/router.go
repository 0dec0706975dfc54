package router

import (
	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/cafe-pos/config"
	"github.com/yeremiapane/cafe-pos/controllers"
	"github.com/yeremiapane/cafe-pos/middlewares"
	"github.com/yeremiapane/cafe-pos/services"
)

// Services is everything the HTTP layer talks to.
type Services struct {
	Orders  *services.OrderService
	Tables  *services.TableService
	Unpaid  *services.UnpaidService
	Reports *services.ReportService
	Catalog *services.CatalogService
	Users   *services.UserService
}

func SetupRouter(svc Services, cfg *config.Config) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.Use(middlewares.CORSMiddlewares(cfg.CORSOrigin))
	r.Use(middlewares.LoggerMiddleware())
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.NewRateLimiter(cfg.RateLimit).RateLimit())

	userCtrl := controllers.NewUserController(svc.Users)
	orderCtrl := controllers.NewOrderController(svc.Orders)
	tableCtrl := controllers.NewTableController(svc.Tables)
	unpaidCtrl := controllers.NewUnpaidController(svc.Unpaid)
	reportCtrl := controllers.NewReportController(svc.Reports)
	catalogCtrl := controllers.NewCatalogController(svc.Catalog)

	// ----------------------------------------------------------------
	//                      PUBLIC ROUTES
	// ----------------------------------------------------------------
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})

	public := r.Group("/")
	public.Use(middlewares.NewStrictRateLimiter())
	{
		public.POST("/login", userCtrl.Login)
	}

	// live displays; the token travels in the query string
	wsGroup := r.Group("/ws")
	wsGroup.Use(middlewares.WebSocketAuthMiddleware(), middlewares.RoleCheck())
	{
		wsGroup.GET("/:role", controllers.KDSHandler)
	}

	// ----------------------------------------------------------------
	//                      AUTHENTICATED ROUTES
	// ----------------------------------------------------------------
	auth := r.Group("/")
	auth.Use(middlewares.AuthMiddleware())

	auth.POST("/logout", userCtrl.Logout)

	// ORDERS
	orders := auth.Group("/orders")
	{
		orders.POST("", middlewares.RequirePermission(middlewares.PermOrdersCreate), orderCtrl.CreateOrder)
		orders.GET("", middlewares.RequirePermission(middlewares.PermOrdersUpdate), orderCtrl.GetAllOrders)
		orders.GET("/:id", middlewares.RequirePermission(middlewares.PermOrdersUpdate), orderCtrl.GetOrderByID)
		orders.PATCH("/:id/status", middlewares.RequirePermission(middlewares.PermOrdersUpdate), orderCtrl.UpdateOrderStatus)
		orders.GET("/:id/history", middlewares.RequirePermission(middlewares.PermOrdersUpdate), orderCtrl.GetOrderHistory)
		orders.GET("/:id/payments", middlewares.RequirePermission(middlewares.PermOrdersUpdate), orderCtrl.GetOrderPayments)
		orders.DELETE("/:id/history",
			middlewares.RequirePermission(middlewares.PermOrdersDeleteHistory),
			middlewares.AuditLogger("order.delete_history"),
			orderCtrl.DeleteOrderHistory,
		)
	}

	// TABLE SETTLEMENT
	settle := orders.Group("/table")
	settle.Use(
		middlewares.RequirePermission(middlewares.PermTablesSettle),
		middlewares.SettlementRateLimiter(),
		middlewares.NoStore(),
	)
	{
		settle.POST("/:id/combined", middlewares.AuditLogger("table.combine"), tableCtrl.CombineOrders)
		settle.POST("/:id/payment", middlewares.AuditLogger("table.payment"), tableCtrl.ProcessPayment)
		settle.PATCH("/:id/reset", middlewares.AuditLogger("table.reset"), tableCtrl.ResetTable)
	}

	// UNPAID LEDGER
	unpaid := orders.Group("/unpaid")
	unpaid.Use(middlewares.RequirePermission(middlewares.PermUnpaidManage))
	{
		unpaid.GET("", unpaidCtrl.ListUnpaid)
		unpaid.GET("/stats", unpaidCtrl.Stats)
		unpaid.POST("/add", middlewares.AuditLogger("unpaid.add"), unpaidCtrl.AddToUnpaid)
		unpaid.POST("/:id/mark-paid",
			middlewares.SettlementRateLimiter(),
			middlewares.NoStore(),
			middlewares.AuditLogger("unpaid.mark_paid"),
			unpaidCtrl.MarkAsPaid,
		)
		unpaid.DELETE("/:id", middlewares.AuditLogger("unpaid.remove"), unpaidCtrl.RemoveFromUnpaid)
	}

	// TABLES
	canRead := middlewares.RequirePermission(middlewares.PermCatalogRead)
	canWrite := middlewares.RequirePermission(middlewares.PermCatalogWrite)

	auth.GET("/tables", middlewares.RequirePermission(middlewares.PermTablesSettle), tableCtrl.GetAllTables)
	auth.GET("/tables/summary", middlewares.RequirePermission(middlewares.PermTablesSettle), tableCtrl.Occupancy)
	auth.GET("/tables/:id", middlewares.RequirePermission(middlewares.PermTablesSettle), tableCtrl.GetTableByID)
	auth.POST("/tables", canWrite, tableCtrl.CreateTable)
	auth.PUT("/tables/:id", canWrite, tableCtrl.UpdateTable)

	// PRODUCTS & CATEGORIES
	auth.GET("/products", canRead, catalogCtrl.GetAllProducts)
	auth.GET("/products/:id", canRead, catalogCtrl.GetProductByID)
	auth.POST("/products", canWrite, catalogCtrl.CreateProduct)
	auth.PUT("/products/:id", canWrite, catalogCtrl.UpdateProduct)

	auth.GET("/categories", canRead, catalogCtrl.GetAllCategories)
	auth.POST("/categories", canWrite, catalogCtrl.CreateCategory)
	auth.DELETE("/categories/:id", canWrite, catalogCtrl.DeleteCategory)

	// CUSTOMERS
	auth.GET("/customers", canRead, catalogCtrl.GetAllCustomers)
	auth.GET("/customers/:id", canRead, catalogCtrl.GetCustomerByID)
	auth.POST("/customers", middlewares.RequirePermission(middlewares.PermOrdersCreate), catalogCtrl.CreateCustomer)
	auth.PUT("/customers/:id", canWrite, catalogCtrl.UpdateCustomer)

	// KITCHEN & REPORTS
	auth.GET("/kitchen/display", middlewares.RequirePermission(middlewares.PermKitchenView), reportCtrl.KitchenDisplay)
	auth.GET("/reports/sales", middlewares.RequirePermission(middlewares.PermReportsView), reportCtrl.SalesReport)

	// USERS (admin)
	auth.GET("/users", middlewares.RequirePermission(middlewares.PermUsersManage), userCtrl.GetAllUsers)
	auth.POST("/users", middlewares.RequirePermission(middlewares.PermUsersManage), userCtrl.Register)

	return r
}
