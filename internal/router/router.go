package router

import (
	"stockpos/internal/config"
	"stockpos/internal/handler"
	"stockpos/internal/infra"
	"stockpos/internal/middleware"
	"stockpos/internal/repository"
	"stockpos/internal/service"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Services is the service layer the HTTP routes are built on.
type Services struct {
	Sales     service.SaleService
	RFID      service.RFIDService
	Products  service.ProductService
	Inventory service.InventoryService
	Purchases service.PurchaseService
}

// NewServices wires repositories into services.
// Dependency graph: Service ← Repository ← DB/Redis
func NewServices(db *gorm.DB, rdb *redis.Client, notifier service.Notifier, metrics *infra.Metrics, devices service.DeviceVerifier) *Services {
	// ── Repositories ─────────────────────────────────────────────────────────
	productRepo := repository.NewProductRepository(db)
	saleRepo := repository.NewSaleRepository(db)
	tagRepo := repository.NewRFIDTagRepository(db)
	purchaseRepo := repository.NewPurchaseRepository(db)
	movementRepo := repository.NewStockMovementRepository(db)

	// ── Services ─────────────────────────────────────────────────────────────
	var recorder service.SaleRecorder
	if metrics != nil {
		recorder = metrics
	}
	inventorySvc := service.NewInventoryService(productRepo, movementRepo)
	saleSvc := service.NewSaleService(saleRepo, productRepo, inventorySvc, notifier, recorder)

	return &Services{
		Sales:     saleSvc,
		RFID:      service.NewRFIDService(tagRepo, productRepo, devices, saleSvc),
		Products:  service.NewProductService(productRepo, rdb),
		Inventory: inventorySvc,
		Purchases: service.NewPurchaseService(purchaseRepo, productRepo, inventorySvc),
	}
}

// New returns a configured Gin engine. db and rdb back /health and rdb the
// dead-letter admin routes; rdb, metrics and limiter may be nil.
func New(cfg *config.Config, svcs *Services, db *gorm.DB, rdb *redis.Client, metrics *infra.Metrics, limiter *middleware.IPRateLimiter) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS(cfg.AllowedOrigins))
	r.Use(middleware.ErrorHandler())
	if metrics != nil {
		r.Use(middleware.Metrics(metrics))
	}
	if limiter != nil {
		r.Use(limiter.Middleware())
	}

	// ── Handlers ─────────────────────────────────────────────────────────────
	salesH := handler.NewSalesHandler(svcs.Sales)
	rfidH := handler.NewRFIDHandler(svcs.RFID)
	productsH := handler.NewProductsHandler(svcs.Products, svcs.Inventory)
	purchasesH := handler.NewPurchasesHandler(svcs.Purchases)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb))
	if metrics != nil {
		r.GET("/metrics", gin.WrapH(metrics.Handler()))
	}

	// Price check — no auth, no side effects
	r.GET("/v1/price/:id", productsH.Quote)

	// RFID readers authenticate with device credentials, not staff tokens
	r.POST("/v1/rfid/scan", rfidH.Scan)

	// Protected routes
	staff := middleware.RequireRole(middleware.RoleCashier, middleware.RoleManager, middleware.RoleAdmin)
	managers := middleware.RequireRole(middleware.RoleManager, middleware.RoleAdmin)
	admins := middleware.RequireRole(middleware.RoleAdmin)

	v1 := r.Group("/v1", middleware.JWTAuth(cfg.JWTSecret))
	{
		sales := v1.Group("/sales")
		{
			sales.POST("", staff, salesH.CreateSale)
			sales.GET("", staff, salesH.ListSales)
			sales.GET("/:id", staff, salesH.GetSale)
			sales.GET("/:id/savings", staff, salesH.GetSavings)
			sales.POST("/:id", managers, salesH.RefundSale)
		}

		products := v1.Group("/products")
		{
			products.GET("", staff, productsH.List)
			products.GET("/:id", staff, productsH.Get)
			products.PATCH("/:id/stock", managers, productsH.AdjustStock)
			products.POST("", admins, productsH.Create)
			products.PUT("/:id", admins, productsH.Update)
			products.DELETE("/:id", admins, productsH.Archive)
		}

		inv := v1.Group("/inventory", managers)
		{
			inv.GET("/low-stock", productsH.LowStock)
			inv.GET("/movements", productsH.Movements)
		}

		tags := v1.Group("/rfid/tags", managers)
		{
			tags.POST("", rfidH.CreateTag)
			tags.GET("", rfidH.ListTags)
			tags.PATCH("/:tagCode", rfidH.UpdateTagStatus)
		}

		purchases := v1.Group("/purchases", managers)
		{
			purchases.POST("", purchasesH.Create)
			purchases.GET("", purchasesH.List)
			purchases.GET("/:id", purchasesH.Get)
			purchases.POST("/:id/receive", purchasesH.Receive)
		}

		// Dead-lettered jobs live in Redis; without it there is nothing to show.
		if rdb != nil {
			jobsH := handler.NewJobsHandler(rdb)
			jobs := v1.Group("/admin/jobs", admins)
			{
				jobs.GET("/dlq", jobsH.DeadLetters)
				jobs.POST("/dlq/replay", jobsH.Replay)
			}
		}
	}

	// Swagger UI — only enabled outside production
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
