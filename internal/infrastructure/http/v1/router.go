package v1

import (
	"github.com/gin-gonic/gin"

	"rasoi/internal/domain/alerts"
	"rasoi/internal/domain/bom"
	"rasoi/internal/domain/catalogs/ingredient"
	"rasoi/internal/domain/catalogs/prepareditem"
	"rasoi/internal/domain/catalogs/product"
	"rasoi/internal/domain/consumption"
	"rasoi/internal/domain/costing"
	"rasoi/internal/domain/registers/ledger"
	"rasoi/internal/infrastructure/http/v1/handlers"
	"rasoi/internal/infrastructure/http/v1/middleware"
	"rasoi/internal/infrastructure/storage/postgres"
	"rasoi/pkg/logger"
)

// RouterConfig holds the wired services the API serves.
type RouterConfig struct {
	// Pool is the database connection pool (for health checks).
	Pool *postgres.Pool

	// Logger for request logging.
	Logger *logger.Logger

	Ingredients   *ingredient.Service
	PreparedItems *prepareditem.Service
	Products      *product.Service
	Stock         *ledger.Service
	Costing       *costing.Engine
	BOM           *bom.Service
	Consumption   *consumption.Service
	Alerts        *alerts.Service
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	// Health endpoints
	healthHandler := handlers.NewHealthHandler(cfg.Pool)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
		health.GET("/info", healthHandler.Info)
	}

	// API v1
	api := router.Group("/api/v1")
	{
		registerCatalogRoutes(api, cfg)
		registerStockRoutes(api, cfg)
		registerOrderRoutes(api, cfg)
	}

	return router
}

// registerCatalogRoutes registers catalog endpoints.
func registerCatalogRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	catalogs := rg.Group("/catalog")
	baseHandler := handlers.NewBaseHandler()

	// --- INGREDIENTS ---
	{
		handler := handlers.NewIngredientHandler(baseHandler, cfg.Ingredients)
		group := catalogs.Group("/ingredients")
		RegisterCatalogRoutes(group, handler)
		group.POST("/:id/price", handler.UpdatePrice)
		group.POST("/:id/active", handler.SetActive)
	}

	// --- PREPARED ITEMS ---
	{
		handler := handlers.NewPreparedItemHandler(baseHandler, cfg.PreparedItems, cfg.BOM)
		group := catalogs.Group("/prepared-items")
		RegisterCatalogRoutes(group, handler)
		group.GET("/:id/recipe", handler.GetRecipe)
		group.PUT("/:id/recipe", handler.UpdateRecipe)
		group.GET("/:id/availability", handler.GetAvailability)
	}

	// --- PRODUCTS ---
	{
		handler := handlers.NewProductHandler(baseHandler, cfg.Products, cfg.BOM)
		group := catalogs.Group("/products")
		RegisterCatalogRoutes(group, handler)
		group.GET("/:id/composition", handler.GetComposition)
		group.PUT("/:id/composition", handler.UpdateComposition)
		group.GET("/:id/availability", handler.GetAvailability)
	}
}

// registerStockRoutes registers stock ledger and costing endpoints.
func registerStockRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	baseHandler := handlers.NewBaseHandler()

	stockHandler := handlers.NewStockHandler(baseHandler, cfg.Stock, cfg.Ingredients)
	stock := rg.Group("/stock")
	{
		stock.POST("/entries", stockHandler.AppendEntry)
		stock.GET("/:ingredientId", stockHandler.GetStock)
		stock.GET("/:ingredientId/value", stockHandler.GetValue)
		stock.GET("/:ingredientId/history", stockHandler.GetHistory)
		stock.GET("/:ingredientId/turnover", stockHandler.GetTurnover)
		stock.GET("/:ingredientId/at", stockHandler.GetStockAtDate)
		stock.POST("/:ingredientId/recalculate", stockHandler.Recalculate)
	}

	costingHandler := handlers.NewCostingHandler(baseHandler, cfg.Costing)
	rg.GET("/costing/quote", costingHandler.Quote)

	alertsHandler := handlers.NewAlertsHandler(baseHandler, cfg.Alerts)
	rg.GET("/alerts", alertsHandler.Scan)
}

// registerOrderRoutes registers consumption endpoints.
func registerOrderRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	baseHandler := handlers.NewBaseHandler()
	handler := handlers.NewConsumptionHandler(baseHandler, cfg.Consumption)

	rg.POST("/orders/consume", handler.Consume)
	rg.POST("/kitchen/batches", handler.PrepareBatch)
}
