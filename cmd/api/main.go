package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/ComprasSanchez/pedidos-sucursales/config"
	"github.com/ComprasSanchez/pedidos-sucursales/internal/adapter/cofarsur"
	adapterfactory "github.com/ComprasSanchez/pedidos-sucursales/internal/adapter/factory"
	"github.com/ComprasSanchez/pedidos-sucursales/internal/adapter/guard"
	"github.com/ComprasSanchez/pedidos-sucursales/internal/adapter/kellerhof"
	"github.com/ComprasSanchez/pedidos-sucursales/internal/adapter/monroe"
	"github.com/ComprasSanchez/pedidos-sucursales/internal/adapter/quantio"
	"github.com/ComprasSanchez/pedidos-sucursales/internal/adapter/suizo"
	"github.com/ComprasSanchez/pedidos-sucursales/internal/domain"
	apihandler "github.com/ComprasSanchez/pedidos-sucursales/internal/handler/api"
	"github.com/ComprasSanchez/pedidos-sucursales/internal/repository/postgres"
	redisrepo "github.com/ComprasSanchez/pedidos-sucursales/internal/repository/redis"
	"github.com/ComprasSanchez/pedidos-sucursales/internal/usecase"
	"github.com/ComprasSanchez/pedidos-sucursales/internal/worker"
	"github.com/ComprasSanchez/pedidos-sucursales/pkg/auth"
	"github.com/ComprasSanchez/pedidos-sucursales/pkg/httpclient"
	"github.com/ComprasSanchez/pedidos-sucursales/pkg/logger"
	"github.com/ComprasSanchez/pedidos-sucursales/pkg/observability"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Configuration validation failed: %v", err)
	}

	// Initialize logger
	logger.Init(cfg.App.Environment)
	defer logger.Close()

	// Print configuration in development mode
	if cfg.App.IsDevelopment() {
		cfg.Print()
	}

	// Users and supplier credentials live in the application database; the
	// product catalog is a separate read-only database.
	db := openDB("application", cfg.Database)
	defer db.Close()
	catalogDB := openDB("catalog", cfg.Catalog)
	defer catalogDB.Close()

	// Initialize Redis connection
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.GetRedisAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	})

	// Test Redis connection
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		logger.Fatal("Failed to connect to Redis", logger.ErrorField(err))
	}
	defer rdb.Close()

	logger.Info("Database and Redis connections established")

	// Initialize repositories
	userRepo := postgres.NewUserRepository(db)
	credentialRepo := postgres.NewCredentialRepository(db)
	catalogRepo := redisrepo.NewCatalogCache(rdb, postgres.NewCatalogRepository(catalogDB), redisrepo.ProductCacheTTL)
	basketRepo := redisrepo.NewBasketRepository(rdb)
	comparisonStore := redisrepo.NewComparisonRepository(rdb, cfg.Comparison.TableTTL)
	orderRepo := postgres.NewOrderRepository(db)
	dispatchGuard := redisrepo.NewDispatchGuard(rdb)

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	// Monroe tokens are shared through Redis when several instances run;
	// otherwise they stay in memory and a sweeper evicts expired entries.
	var monroeTokens domain.TokenCache
	if cfg.Comparison.SharedTokenCache {
		monroeTokens = redisrepo.NewTokenCache(rdb, domain.SupplierMonroe)
	} else {
		memoryTokens := monroe.NewMemoryTokenCache()
		monroeTokens = memoryTokens
		go worker.NewTokenSweeper(memoryTokens, worker.TokenSweeperConfig{}).Start(workerCtx)
	}

	// Initialize supplier adapters
	suppliers := cfg.Suppliers
	adapterFactory := adapterfactory.NewSupplierAdapterFactory()
	adapterFactory.RegisterAdapter(domain.SupplierQuantio, guard.Wrap(quantio.NewAdapter(
		suppliers.Quantio, httpclient.New(suppliers.Quantio.EndpointConfig, nil), credentialRepo, catalogRepo,
	)))
	adapterFactory.RegisterAdapter(domain.SupplierMonroe, guard.Wrap(monroe.NewAdapter(
		suppliers.Monroe, httpclient.New(suppliers.Monroe.EndpointConfig, nil), credentialRepo, monroeTokens,
	)))
	adapterFactory.RegisterAdapter(domain.SupplierCofarsur, guard.Wrap(cofarsur.NewAdapter(
		suppliers.Cofarsur, httpclient.New(suppliers.Cofarsur.EndpointConfig, nil), credentialRepo,
	)))
	adapterFactory.RegisterAdapter(domain.SupplierSuizo, guard.Wrap(suizo.NewAdapter(
		suppliers.Suizo, httpclient.New(suppliers.Suizo.EndpointConfig, nil), credentialRepo,
	)))
	adapterFactory.RegisterAdapter(domain.SupplierKellerhof, guard.Wrap(kellerhof.NewAdapter()))

	// Initialize use cases
	basketUC := usecase.NewBasketUsecase(basketRepo, catalogRepo)
	comparisonUC := usecase.NewComparisonUsecase(adapterFactory, credentialRepo, cfg.Comparison.LineConcurrency, cfg.Comparison.Deadline)
	dispatchUC := usecase.NewDispatchUsecase(adapterFactory, dispatchGuard, orderRepo)

	// Initialize auth service
	authService := auth.NewJWTAuthService(cfg.Auth)

	// Initialize handlers
	authHandler := apihandler.NewAuthHandler(userRepo, authService)
	basketHandler := apihandler.NewBasketHandler(basketUC)
	comparisonHandler := apihandler.NewComparisonHandler(basketUC, comparisonUC, dispatchUC, comparisonStore)
	orderHandler := apihandler.NewOrderHandler(dispatchUC)

	// Set Gin mode
	if cfg.App.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	// Initialize metrics handler
	metricsHandler := observability.NewMetricsHandler()
	metricsHandler.AddReadinessCheck("postgres", db.PingContext)
	metricsHandler.AddReadinessCheck("catalog", catalogDB.PingContext)
	metricsHandler.AddReadinessCheck("redis", func(ctx context.Context) error {
		return rdb.Ping(ctx).Err()
	})

	// Create Gin router
	router := gin.New()

	// Add middleware
	router.Use(observability.ObservabilityMiddleware())
	router.Use(bodyLimitMiddleware(cfg.API.MaxRequestSize))

	// Setup API routes
	apihandler.SetupRoutes(router, authHandler, basketHandler, comparisonHandler, orderHandler, authService)

	// Setup metrics and health endpoints
	router.GET("/metrics", metricsHandler.MetricsEndpoint())
	router.GET("/health", metricsHandler.HealthEndpoint())
	router.GET("/ready", metricsHandler.ReadinessEndpoint())
	router.GET("/live", metricsHandler.LivenessEndpoint())

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.API.TimeoutSeconds) * time.Second,
		WriteTimeout: cfg.ServerWriteTimeout(),
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Starting server",
			logger.String("port", cfg.App.Port),
			logger.String("environment", cfg.App.Environment),
		)

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", logger.ErrorField(err))
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	workerCancel()

	logger.Info("Shutting down server...")

	// Create a deadline for shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Attempt graceful shutdown
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", logger.ErrorField(err))
	}

	logger.Info("Server exited")
}

func openDB(name string, cfg config.DatabaseConfig) *sqlx.DB {
	db, err := sqlx.Connect("postgres", cfg.GetDSN())
	if err != nil {
		logger.Fatal("Failed to connect to database",
			logger.String("database", name),
			logger.ErrorField(err),
		)
	}
	db.SetMaxIdleConns(cfg.MaxIdle)
	db.SetMaxOpenConns(cfg.MaxOpen)
	db.SetConnMaxLifetime(cfg.MaxLife)
	return db
}

// bodyLimitMiddleware caps the request body size
func bodyLimitMiddleware(limit int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limit > 0 && c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		}
		c.Next()
	}
}
