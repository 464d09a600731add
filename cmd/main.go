package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"biodata-platform/internal/config"
	"biodata-platform/internal/logger"
	"biodata-platform/internal/queue"
	"biodata-platform/internal/scheduler"
	"biodata-platform/internal/searchindex"
	"biodata-platform/internal/telemetry"
	"biodata-platform/middleware"
	"biodata-platform/routes"
	"biodata-platform/services"
	"biodata-platform/utils"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	logger.InitLogger(cfg)

	shutdownTracer, err := telemetry.InitTracer(cfg.ServiceName, cfg.OTLPEndpoint, cfg.GinMode)
	if err != nil {
		logger.Warn("Tracing unavailable", "error", err)
		shutdownTracer = func() {}
	}
	defer shutdownTracer()

	metrics, err := telemetry.InitMetrics()
	if err != nil {
		log.Fatal("Failed to initialize metrics:", err)
	}

	// Connect to MongoDB
	mongoClient, err := config.ConnectMongoDB(cfg)
	if err != nil {
		log.Fatal("Failed to connect to MongoDB:", err)
	}
	defer func() {
		ctx, cancel := utils.WithTimeout(context.Background())
		defer cancel()
		mongoClient.Disconnect(ctx)
	}()
	db := mongoClient.Database(cfg.DBName)

	// Redis backs rate limiting, the stats cache and the task queue. Without it
	// those degrade: limits and cache are skipped and resync stays synchronous.
	var rdb *redis.Client
	if cfg.RedisURL != "" {
		rdb, err = config.NewRedisClient(cfg)
		if err != nil {
			logger.Warn("Redis unavailable, continuing without it", "error", err)
			rdb = nil
		} else {
			defer rdb.Close()
		}
	}

	// Search index
	bleveClient, err := searchindex.NewBleveClient(cfg.SearchIndexDir)
	if err != nil {
		log.Fatal("Failed to open search index:", err)
	}
	indexClient := searchindex.NewBreakerClient(bleveClient,
		searchindex.WithStateChange(func(name string, _, to gobreaker.State) {
			metrics.RecordCircuitBreakerState(name, to.String())
		}),
	)
	defer indexClient.Close()

	indexer := services.NewIndexer(indexClient, cfg.SearchCollection, cfg.ImportBatchesPerSecond)
	ensureCtx, cancelEnsure := context.WithTimeout(context.Background(), 30*time.Second)
	if created, err := indexer.EnsureCollection(ensureCtx); err != nil {
		logger.Error("Search collection check failed", "collection", indexer.Collection(), "error", err)
	} else if created {
		logger.Info("Search collection created; run a resync to populate it", "collection", indexer.Collection())
	}
	cancelEnsure()

	// Stores and services
	biodataStore := services.NewMongoBiodataStore(db)
	userStore := services.NewMongoUserStore(db)

	biodataService := services.NewBiodataService(
		biodataStore,
		indexer,
		time.Duration(cfg.IndexSyncTimeoutSeconds)*time.Second,
		services.LogSyncObserver(),
		services.MetricsSyncObserver(metrics),
	)
	userService := services.NewUserService(userStore, biodataStore)
	searchService := services.NewSearchService(indexer, userService, metrics, time.Duration(cfg.SearchTimeoutSeconds)*time.Second)

	var statsCache services.StatsCache
	if rdb != nil {
		statsCache = services.NewRedisStatsCache(rdb)
	}
	statsService := services.NewStatsService(biodataStore, statsCache, time.Duration(cfg.StatsCacheTTLSeconds)*time.Second)
	seedService := services.NewSeedService(biodataStore, biodataService, statsService, services.NewBiodataGenerator(nil, nil))
	exportService := services.NewExportService(biodataStore)

	// Background resync
	var taskClient *queue.Client
	var taskServer *queue.Server
	if cfg.AsyncResyncEnabled && rdb != nil {
		redisOpts, err := config.RedisOptions(cfg)
		if err != nil {
			log.Fatal("Invalid Redis configuration:", err)
		}
		connOpt := queue.RedisOpt(redisOpts)
		taskClient = queue.NewClient(connOpt)
		defer taskClient.Close()

		taskServer = queue.NewServer(connOpt, queue.NewTaskProcessor(biodataService), 1)
		if err := taskServer.Start(); err != nil {
			log.Fatal("Failed to start task server:", err)
		}
	} else if cfg.AsyncResyncEnabled {
		logger.Warn("Async resync requested but Redis is unavailable; only synchronous resync is served")
	}

	sched := scheduler.NewScheduler()
	resyncJob := func(ctx context.Context) error {
		if taskClient != nil {
			_, err := taskClient.EnqueueResync(ctx, "scheduler")
			if errors.Is(err, queue.ErrResyncPending) {
				return nil
			}
			return err
		}
		_, err := biodataService.Resync(ctx)
		return err
	}
	every := time.Duration(cfg.ResyncIntervalMinutes) * time.Minute
	if ok, err := sched.SchedulePeriodic("search-resync", cfg.ResyncCron, every, resyncJob); err != nil {
		log.Fatal("Invalid resync schedule:", err)
	} else if ok {
		logger.Info("Periodic resync scheduled", "cron", cfg.ResyncCron, "interval", every)
	}
	sched.Start()

	// Initialize Gin router
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.CORSMiddlewareWithOrigins(cfg.CORSOrigins))
	router.Use(middleware.TracingMiddleware(cfg.ServiceName))
	router.Use(middleware.EnrichTrace())
	router.Use(middleware.MetricsMiddleware(metrics))
	router.Use(middleware.RequestLogger())

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		status := gin.H{
			"status":        "healthy",
			"timestamp":     time.Now(),
			"search_index":  indexClient.State().String(),
			"redis_enabled": rdb != nil,
		}
		ctx, cancel := utils.WithShortTimeout(c.Request.Context())
		defer cancel()
		if err := mongoClient.Ping(ctx, nil); err != nil {
			status["status"] = "degraded"
			status["mongo_error"] = err.Error()
			c.JSON(http.StatusServiceUnavailable, status)
			return
		}
		c.JSON(http.StatusOK, status)
	})

	// Initialize middleware
	authMiddleware := middleware.NewAuthMiddleware(cfg)

	// Setup routes
	routes.SetupBiodataRoutes(router, biodataService, authMiddleware)
	routes.SetupSearchRoutes(router, cfg, rdb, searchService, statsService, authMiddleware)
	routes.SetupUserRoutes(router, userService, authMiddleware)
	routes.SetupAdminRoutes(router, routes.AdminServices{
		Biodata: biodataService,
		Indexer: indexer,
		Seed:    seedService,
		Export:  exportService,
		Queue:   taskClient,
	}, authMiddleware)

	// Create HTTP server
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Server starting", "port", cfg.Port, "mode", cfg.GinMode)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	sched.Stop()
	if taskServer != nil {
		taskServer.Shutdown()
	}

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	logger.Info("Server exited")
}
