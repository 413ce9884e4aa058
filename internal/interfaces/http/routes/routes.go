// internal/interfaces/http/routes/routes.go
package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/your-org/forms-backend/internal/interfaces/http/handlers"
	"github.com/your-org/forms-backend/internal/interfaces/http/middleware"
	"github.com/your-org/forms-backend/internal/pkg/auth"
)

// Handlers groups the API handlers mounted under /api/v1
type Handlers struct {
	Numbers  *handlers.NumberHandler
	Challans *handlers.ChallanHandler
	Stock    *handlers.StockHandler
	Checks   *handlers.CheckHandler
}

// SetupNumberRoutes sets up document number allocation
func SetupNumberRoutes(rg *gin.RouterGroup, h *handlers.NumberHandler) {
	rg.POST("/numbers", h.AllocateNumber)
}

// SetupChallanRoutes sets up delivery challan routes
func SetupChallanRoutes(rg *gin.RouterGroup, h *handlers.ChallanHandler) {
	challans := rg.Group("/challans")
	{
		challans.POST("", h.CreateChallan)
		challans.GET("/:id", h.GetChallan)
		challans.POST("/:id/complete", h.CompleteChallan)
		challans.POST("/:id/cancel", h.CancelChallan)
	}
}

// SetupStockRoutes sets up stock queries and admin adjustments
func SetupStockRoutes(rg *gin.RouterGroup, h *handlers.StockHandler) {
	stock := rg.Group("/stock")
	{
		stock.GET("", h.GetStock)
		stock.GET("/low", h.GetLowStock)
		stock.GET("/movements", h.GetMovements)
	}

	admin := rg.Group("/admin/stock")
	admin.Use(middleware.AdminMiddleware())
	{
		admin.POST("/credit", h.CreditStock)
		admin.POST("/debit", h.DebitStock)
		admin.PUT("/reorder-level", h.SetReorderLevel)
	}
}

// SetupCheckRoutes sets up quality and supervisor check routes
func SetupCheckRoutes(rg *gin.RouterGroup, h *handlers.CheckHandler) {
	quality := rg.Group("/quality-checks")
	{
		quality.POST("", h.CreateQualityCheck)
		quality.GET("/:id", h.GetQualityCheck)
		quality.PUT("/:id/items", h.UpdateQualityItems)
	}

	supervisor := rg.Group("/supervisor-checks")
	{
		supervisor.POST("", h.CreateSupervisorCheck)
		supervisor.GET("/:id", h.GetSupervisorCheck)
		supervisor.PUT("/:id", h.UpdateSupervisorCheck)
	}
}

// SetupRoutes sets up all API routes. Every route requires a bearer token.
func SetupRoutes(rg *gin.RouterGroup, h Handlers, jwtManager *auth.JWTManager) {
	rg.Use(middleware.AuthMiddleware(jwtManager))

	SetupNumberRoutes(rg, h.Numbers)
	SetupChallanRoutes(rg, h.Challans)
	SetupStockRoutes(rg, h.Stock)
	SetupCheckRoutes(rg, h.Checks)
}
