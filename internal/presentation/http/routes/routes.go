package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sangkips/tablepos-api/internal/config"
	domainRepo "github.com/sangkips/tablepos-api/internal/domain/repository"
	"github.com/sangkips/tablepos-api/internal/presentation/http/handler"
	"github.com/sangkips/tablepos-api/internal/presentation/http/middleware"
	"github.com/sangkips/tablepos-api/pkg/metrics"
	"github.com/sangkips/tablepos-api/pkg/utils"
)

// Handlers holds all the HTTP handlers used for route registration.
type Handlers struct {
	Order     *handler.OrderHandler
	KOT       *handler.KOTHandler
	Inventory *handler.InventoryHandler
	Billing   *handler.BillingHandler
}

// Deps holds shared dependencies needed by the routes.
type Deps struct {
	JWTManager      *utils.JWTManager
	Cfg             *config.Config
	TenantRepo      domainRepo.TenantRepository
	IdempotencyRepo domainRepo.IdempotencyRepository
	RateLimiter     *middleware.TenantRateLimiter
	Metrics         *metrics.Metrics
	// Gatherer serves /metrics when set
	Gatherer prometheus.Gatherer
}

// Setup creates the Gin router and registers all routes.
func Setup(h *Handlers, deps *Deps) *gin.Engine {
	handler.RegisterValidation()

	router := gin.New()

	// Global middleware
	router.Use(gin.Recovery())
	router.Use(middleware.LoggerMiddleware())
	router.Use(middleware.MetricsMiddleware(deps.Metrics))
	router.Use(middleware.CORSMiddleware(&deps.Cfg.CORS))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": deps.Cfg.App.Name,
		})
	})
	if deps.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	v1 := router.Group("/api/v1")
	v1.Use(middleware.AuthMiddleware(deps.JWTManager))
	if deps.RateLimiter != nil {
		v1.Use(deps.RateLimiter.Middleware())
	}
	v1.Use(middleware.TenantMiddleware(deps.TenantRepo))

	idempotent := middleware.Idempotency(middleware.IdempotencyConfig{
		Repo: deps.IdempotencyRepo,
	})

	registerOrderRoutes(v1, h, idempotent)
	registerKOTRoutes(v1, h)
	registerInventoryRoutes(v1, h)
	registerBillingRoutes(v1, h, idempotent)

	return router
}

func registerOrderRoutes(v1 *gin.RouterGroup, h *Handlers, idempotent gin.HandlerFunc) {
	orders := v1.Group("/orders")
	{
		orders.POST("", idempotent, h.Order.Create)
		orders.GET("", h.Order.List)
		orders.GET("/stats", h.Order.Stats)
		orders.GET("/table/:tableId", h.Order.ListByTable)
		orders.GET("/:id", h.Order.Get)
		orders.PUT("/:id/status", h.Order.UpdateStatus)
		orders.POST("/:id/items", h.Order.AddItem)
		orders.DELETE("/:id/items/:itemId", h.Order.RemoveItem)
		orders.PUT("/:id/items/:itemId/status", h.Order.UpdateItemStatus)
		orders.POST("/:id/void", h.Order.Void)
	}
}

func registerKOTRoutes(v1 *gin.RouterGroup, h *Handlers) {
	kots := v1.Group("/kots")
	{
		kots.GET("/branch/:branchId", h.KOT.ListByBranch)
		kots.GET("/branch/:branchId/unprinted", h.KOT.ListUnprinted)
		kots.POST("/print", h.KOT.PrintMany)
		kots.GET("/:id", h.KOT.Get)
		kots.POST("/:id/print", h.KOT.Print)
		kots.DELETE("/:id", h.KOT.Delete)
	}
}

func registerInventoryRoutes(v1 *gin.RouterGroup, h *Handlers) {
	inventory := v1.Group("/inventory")
	{
		inventory.GET("", h.Inventory.List)
		inventory.POST("", h.Inventory.Create)
		inventory.GET("/low-stock", h.Inventory.LowStock)
		inventory.GET("/summary", h.Inventory.Summary)
		inventory.GET("/movements", h.Inventory.ListMovements)
		inventory.POST("/movements", h.Inventory.RecordMovement)
		inventory.GET("/:id", h.Inventory.Get)
		inventory.PUT("/:id", h.Inventory.Update)
		inventory.DELETE("/:id", h.Inventory.Delete)
	}
}

func registerBillingRoutes(v1 *gin.RouterGroup, h *Handlers, idempotent gin.HandlerFunc) {
	billing := v1.Group("/billing")
	{
		billing.GET("/summary", h.Billing.Summary)
		billing.GET("/analytics", h.Billing.Analytics)
		billing.GET("/invoices", h.Billing.ListInvoices)
		billing.POST("/invoices", h.Billing.CreateInvoice)
		billing.GET("/invoices/:id", h.Billing.GetInvoice)
		billing.PUT("/invoices/:id/status", h.Billing.UpdateInvoiceStatus)
		billing.POST("/invoices/:id/payments", idempotent, h.Billing.ProcessPayment)
		billing.GET("/invoices/:id/payments", h.Billing.ListPayments)
	}
}
