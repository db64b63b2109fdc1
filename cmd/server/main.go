package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	applending "github.com/bnpl/backend/internal/application/lending"
	"github.com/bnpl/backend/internal/domain/shared"
	"github.com/bnpl/backend/internal/infrastructure/cache"
	"github.com/bnpl/backend/internal/infrastructure/config"
	"github.com/bnpl/backend/internal/infrastructure/event"
	"github.com/bnpl/backend/internal/infrastructure/logger"
	"github.com/bnpl/backend/internal/infrastructure/persistence"
	"github.com/bnpl/backend/internal/interfaces/http/handler"
	"github.com/bnpl/backend/internal/interfaces/http/middleware"
	"github.com/bnpl/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
		Service:    cfg.App.Name,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting BNPL Ledger Backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Create GORM logger backed by zap
	gormLogLevel := logger.MapGormLogLevel(cfg.Log.Level)
	gormLog := logger.NewGormLogger(log, gormLogLevel)

	// Initialize database connection with custom logger
	db, err := persistence.NewDatabaseWithCustomLogger(&cfg.Database, gormLog)
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
	loanRepo := persistence.NewGormLoanRepository(db.DB)
	providerRepo := persistence.NewGormProviderRepository(db.DB)

	// Idempotency store backs both receipt tracking and event deduplication.
	// Redis is used when enabled so receipt uniqueness survives restarts.
	var idempotencyStore shared.IdempotencyStore
	if cfg.Redis.Enabled {
		redisStore, err := cache.NewRedisIdempotencyStore(cache.RedisConfig{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			log.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		idempotencyStore = redisStore
		log.Info("Redis idempotency store initialized",
			zap.String("host", cfg.Redis.Host),
			zap.Int("port", cfg.Redis.Port),
		)
	} else {
		idempotencyStore = cache.NewInMemoryIdempotencyStore()
		log.Info("In-memory idempotency store initialized")
	}
	defer func() {
		if err := idempotencyStore.Close(); err != nil {
			log.Error("Error closing idempotency store", zap.Error(err))
		}
	}()

	// Initialize event bus and handlers
	eventBus := event.NewInMemoryEventBus(log)

	lifecycleHandler := applending.NewLoanLifecycleHandler(log)
	eventBus.Subscribe(event.NewIdempotentHandler(lifecycleHandler, idempotencyStore, log))

	log.Info("Event handlers registered",
		zap.Strings("loan_lifecycle_events", lifecycleHandler.EventTypes()),
	)

	if err := eventBus.Start(context.Background()); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}

	// Per-loan critical section guard for payment allocation
	locker := applending.NewLoanLocker(cfg.Ledger.LockWaitTimeout)

	// Application services
	ledgerService := applending.NewLedgerService(
		loanRepo,
		providerRepo,
		locker,
		idempotencyStore,
		cfg.Ledger.ReceiptTTL,
		eventBus,
		log,
	)
	providerService := applending.NewProviderService(providerRepo, log)

	// HTTP handlers
	lendingHandler := handler.NewLendingHandler(ledgerService)
	providerHandler := handler.NewProviderHandler(providerService)
	systemHandler := handler.NewSystemHandler()

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup validation
	middleware.SetupValidator()

	// Initialize router with custom middleware
	engine := gin.New()

	// Configure trusted proxies
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Apply middleware stack in order:
	// 1. RequestID - Generate/propagate request ID
	// 2. Recovery - Catch panics
	// 3. Logger - Log requests
	// 4. Security - Add security headers
	// 5. CORS - Handle cross-origin requests
	// 6. BodyLimit - Limit request body size
	// 7. Tenant - Resolve tenant context
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())

	// Configure CORS from config
	corsConfig := middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	engine.Use(middleware.CORSWithConfig(corsConfig))

	// Body size limit
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	// Tenant resolution; system and health endpoints stay tenant-free
	tenantConfig := middleware.DefaultTenantConfig()
	tenantConfig.Logger = log
	tenantConfig.SkipPaths = append(tenantConfig.SkipPaths,
		"/api/v1/system",
		"/api/v1/ping",
	)
	engine.Use(middleware.TenantMiddlewareWithConfig(tenantConfig))

	// Health check endpoints
	engine.GET("/health", healthHandler(db, log))
	engine.GET("/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	// Initialize domain routes
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))

	lendingRoutes := router.NewDomainGroup("lending", "/lending")
	// Purchases (loans)
	lendingRoutes.POST("/purchases", lendingHandler.CreatePurchase)
	lendingRoutes.GET("/purchases", lendingHandler.ListPurchases)
	lendingRoutes.GET("/purchases/:id", lendingHandler.GetPurchase)
	lendingRoutes.POST("/purchases/:id/payments", lendingHandler.MakePayment)
	lendingRoutes.POST("/purchases/:id/cancel", lendingHandler.CancelPurchase)
	lendingRoutes.POST("/purchases/:id/default", lendingHandler.MarkDefaulted)
	// BNPL service providers
	lendingRoutes.POST("/providers", providerHandler.CreateProvider)
	lendingRoutes.GET("/providers", providerHandler.ListProviders)
	lendingRoutes.GET("/providers/:id", providerHandler.GetProvider)
	lendingRoutes.PUT("/providers/:id", providerHandler.UpdateProvider)
	lendingRoutes.DELETE("/providers/:id", providerHandler.DeleteProvider)

	systemRoutes := router.NewDomainGroup("system", "/system")
	systemRoutes.GET("/info", systemHandler.GetSystemInfo)
	systemRoutes.GET("/ping", systemHandler.Ping)

	r.Register(lendingRoutes).
		Register(systemRoutes)

	// Setup routes
	r.Setup()

	// Also keep a simple ping at root API level for basic health checks
	engine.GET("/api/v1/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

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

	if err := eventBus.Stop(ctx); err != nil {
		log.Error("Error stopping event bus", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// healthHandler returns a handler for health check endpoints
func healthHandler(db *persistence.Database, _ *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		reqLog := logger.GetGinLogger(c)
		if err := db.Ping(); err != nil {
			reqLog.Warn("Health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"time":     time.Now().Format(time.RFC3339),
				"database": "error",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":   "healthy",
			"time":     time.Now().Format(time.RFC3339),
			"database": "ok",
		})
	}
}
