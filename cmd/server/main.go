package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	invapp "github.com/retailcore/backend/internal/application/inventory"
	salesapp "github.com/retailcore/backend/internal/application/sales"
	transferapp "github.com/retailcore/backend/internal/application/transfer"
	"github.com/retailcore/backend/internal/domain/shared"
	"github.com/retailcore/backend/internal/infrastructure/cache"
	"github.com/retailcore/backend/internal/infrastructure/config"
	"github.com/retailcore/backend/internal/infrastructure/event"
	"github.com/retailcore/backend/internal/infrastructure/logger"
	"github.com/retailcore/backend/internal/infrastructure/notification"
	"github.com/retailcore/backend/internal/infrastructure/persistence"
	"github.com/retailcore/backend/internal/interfaces/http/handler"
	"github.com/retailcore/backend/internal/interfaces/http/middleware"
	"github.com/retailcore/backend/internal/interfaces/http/router"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting RetailCore Backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Initialize database connection
	db, err := persistence.NewDatabase(&cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Initialize repositories
	inventoryRepo := persistence.NewGormBranchInventoryRepository(db.DB)
	transferRepo := persistence.NewGormStockTransferRepository(db.DB)
	saleRepo := persistence.NewGormSaleRepository(db.DB)
	branchRepo := persistence.NewGormBranchRepository(db.DB)
	productRepo := persistence.NewGormProductRepository(db.DB)
	txScope := persistence.NewGormTransactionScope(db.DB)

	// Initialize application services
	adjustmentService := invapp.NewAdjustmentService(inventoryRepo, txScope)
	adjustmentService.SetMaxRetries(cfg.Inventory.ConflictRetries)

	transferService := transferapp.NewTransferService(transferRepo, branchRepo, productRepo, adjustmentService)

	saleService := salesapp.NewSaleService(saleRepo, txScope, adjustmentService)
	saleService.SetMaxRetries(cfg.Inventory.ConflictRetries)

	// Idempotency store for transfer requests: Redis when configured,
	// otherwise the in-process store (single-instance deployments only)
	idempotencyStore := newIdempotencyStore(cfg, log)
	defer func() {
		if err := idempotencyStore.Close(); err != nil {
			log.Error("Error closing idempotency store", zap.Error(err))
		}
	}()
	transferService.SetIdempotencyStore(idempotencyStore, shared.IdempotencyConfig{
		TTL:     cfg.Inventory.IdempotencyTTL,
		Enabled: true,
	})

	// Initialize event bus and subscribe notification handlers
	eventBus := event.NewInMemoryEventBus(log)
	if err := eventBus.Start(context.Background()); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		_ = eventBus.Stop(context.Background())
	}()

	if cfg.Event.NotificationsEnabled {
		notifier := notification.NewLogNotifier(log)
		eventBus.Subscribe(notification.NewTransferLifecycleHandler(log, notifier))
		eventBus.Subscribe(notification.NewLowStockAlertHandler(log, notifier))
		log.Info("Notification handlers subscribed")
	}

	adjustmentService.SetEventPublisher(eventBus)
	transferService.SetEventPublisher(eventBus)
	saleService.SetEventPublisher(eventBus)

	// Initialize HTTP handlers
	inventoryHandler := handler.NewInventoryHandler(adjustmentService)
	transferHandler := handler.NewTransferHandler(transferService)
	saleHandler := handler.NewSaleHandler(saleService)

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup validation
	middleware.SetupValidator()

	engine := gin.New()
	engine.Use(middleware.RequestID())
	engine.Use(middleware.Recovery(log))
	engine.Use(middleware.RequestLogger(log))

	// Health check endpoint (outside API versioning)
	engine.GET("/health", healthHandler(db))

	r := router.NewRouter(engine, router.WithAPIVersion("v1"))

	branchRoutes := router.NewDomainGroup("branches", "/branches")
	branchRoutes.GET("/:branch_id/inventory", inventoryHandler.ListByBranch)
	branchRoutes.GET("/:branch_id/inventory/:product_id", inventoryHandler.GetStock)
	branchRoutes.POST("/:branch_id/inventory/reduce", inventoryHandler.ReduceStock)
	branchRoutes.POST("/:branch_id/inventory/restore", inventoryHandler.RestoreStock)
	branchRoutes.POST("/:branch_id/inventory/:product_id/increase", inventoryHandler.IncreaseStock)
	branchRoutes.PUT("/:branch_id/inventory/:product_id/min-stock", inventoryHandler.SetMinStock)
	branchRoutes.GET("/:branch_id/sales", saleHandler.ListByBranch)
	r.Register(branchRoutes)

	inventoryRoutes := router.NewDomainGroup("inventory", "/inventory")
	inventoryRoutes.GET("/low-stock", inventoryHandler.ListLowStock)
	r.Register(inventoryRoutes)

	transferRoutes := router.NewDomainGroup("transfers", "/transfers")
	transferRoutes.POST("", transferHandler.Request)
	transferRoutes.GET("", transferHandler.ListByStatus)
	transferRoutes.GET("/:id", transferHandler.GetByID)
	transferRoutes.POST("/:id/approve", transferHandler.Approve)
	transferRoutes.POST("/:id/reject", transferHandler.Reject)
	transferRoutes.POST("/:id/complete", transferHandler.Complete)
	transferRoutes.POST("/:id/cancel", transferHandler.Cancel)
	r.Register(transferRoutes)

	saleRoutes := router.NewDomainGroup("sales", "/sales")
	saleRoutes.POST("", saleHandler.Create)
	saleRoutes.GET("/:id", saleHandler.GetByID)
	saleRoutes.POST("/:id/cancel", saleHandler.Cancel)
	saleRoutes.PUT("/:id/items", saleHandler.UpdateItems)
	saleRoutes.DELETE("/:id", saleHandler.Delete)
	r.Register(saleRoutes)

	r.Setup()

	// Create HTTP server with config
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// newIdempotencyStore picks the idempotency backend from configuration
func newIdempotencyStore(cfg *config.Config, log *zap.Logger) shared.IdempotencyStore {
	if cfg.Redis.Enabled {
		store, err := cache.NewRedisIdempotencyStore(cache.RedisConfig{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			log.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		log.Info("Redis idempotency store connected",
			zap.String("host", cfg.Redis.Host),
			zap.Int("port", cfg.Redis.Port),
		)
		return store
	}
	log.Info("Using in-memory idempotency store")
	return cache.NewInMemoryIdempotencyStore()
}

// healthHandler reports service liveness and database reachability
func healthHandler(db *persistence.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"database": "unreachable",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":   "healthy",
			"database": "connected",
		})
	}
}
