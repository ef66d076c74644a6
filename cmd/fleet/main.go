package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/richxcame/fleet/internal/documents"
	"github.com/richxcame/fleet/internal/vehicle"
	"github.com/richxcame/fleet/pkg/cache"
	"github.com/richxcame/fleet/pkg/common"
	"github.com/richxcame/fleet/pkg/config"
	"github.com/richxcame/fleet/pkg/database"
	"github.com/richxcame/fleet/pkg/errors"
	"github.com/richxcame/fleet/pkg/eventbus"
	"github.com/richxcame/fleet/pkg/logger"
	"github.com/richxcame/fleet/pkg/middleware"
	"github.com/richxcame/fleet/pkg/ratelimit"
	redisclient "github.com/richxcame/fleet/pkg/redis"
	"github.com/richxcame/fleet/pkg/resilience"
	"github.com/richxcame/fleet/pkg/storage"
	"github.com/richxcame/fleet/pkg/tracing"
	"github.com/richxcame/fleet/pkg/validation"
)

const (
	serviceName = "fleet-service"
	version     = "1.0.0"
)

func main() {
	cfg, err := config.Load(serviceName)
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}

	if err := logger.Init(logger.Config{
		Environment: cfg.Server.Environment,
		Level:       cfg.Server.LogLevel,
		ServiceName: serviceName,
	}); err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer func() { _ = logger.Sync() }()

	rootCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger.Info("Starting fleet service",
		zap.String("service", serviceName),
		zap.String("version", version),
		zap.String("environment", cfg.Server.Environment),
	)

	// Initialize Sentry for error tracking
	sentryConfig := errors.DefaultSentryConfig(cfg.Server.Environment, serviceName)
	if sentryConfig.Release == "" {
		sentryConfig.Release = version
	}
	if err := errors.InitSentry(sentryConfig); err != nil {
		if stderrors.Is(err, errors.ErrSentryDisabled) {
			logger.Info("Sentry DSN not set, error tracking disabled")
		} else {
			logger.Warn("Failed to initialize Sentry, continuing without error tracking", zap.Error(err))
		}
	} else {
		defer errors.Flush(2 * time.Second)
		logger.Info("Sentry error tracking initialized successfully")
	}

	// Initialize OpenTelemetry tracer
	shutdownTracer, err := tracing.InitTracer(rootCtx, tracing.Config{
		ServiceName:    serviceName,
		ServiceVersion: cfg.Tracing.ServiceVersion,
		Environment:    cfg.Server.Environment,
		OTLPEndpoint:   cfg.Tracing.OTLPEndpoint,
		SampleRate:     cfg.Tracing.SampleRate,
		Enabled:        cfg.Tracing.Enabled,
	}, logger.Get())
	if err != nil {
		logger.Warn("Failed to initialize tracer, continuing without tracing", zap.Error(err))
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdownTracer(shutdownCtx); err != nil {
				logger.Warn("Failed to shutdown tracer", zap.Error(err))
			}
		}()
	}

	// Schema
	schemaVersion, err := database.Migrate(cfg.Database.MigrationURL(), database.Up)
	if err != nil {
		logger.Fatal("Failed to apply migrations", zap.Error(err))
	}
	logger.Info("Database schema up to date", zap.Uint("version", schemaVersion))

	db, err := database.NewPostgresPool(rootCtx, &cfg.Database, serviceName)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer database.Close(db)
	logger.Info("Connected to database")

	// Object storage behind a circuit breaker
	objectStore, err := storage.New(rootCtx, cfg.Storage)
	if err != nil {
		logger.Fatal("Failed to initialize object storage", zap.Error(err))
	}
	var store storage.Storage = objectStore
	if cfg.Resilience.CircuitBreaker.Enabled {
		breaker := resilience.NewCircuitBreaker(resilience.SettingsFromConfig("object-storage", cfg.Resilience.CircuitBreaker))
		store = storage.NewGuarded(objectStore, breaker)
		logger.Info("Circuit breaker configured for object storage", zap.String("breaker", breaker.Name()))
	}
	logger.Info("Object storage ready",
		zap.String("driver", cfg.Storage.Driver),
		zap.String("bucket", cfg.Storage.Bucket),
	)

	healthChecks := map[string]common.HealthCheckFunc{
		"database": db.Ping,
		"storage":  objectStore.Ping,
	}

	routes := vehicle.RouteMiddleware{
		Bounded: []gin.HandlerFunc{middleware.RequestTimeout(time.Duration(cfg.Server.RequestTimeout) * time.Second)},
	}

	opts := []vehicle.Option{
		vehicle.WithUploadRules(validation.UploadRules{
			MaxFileSize:         cfg.Uploads.MaxFileSizeBytes(),
			MaxFilesPerCategory: cfg.Uploads.MaxFilesPerCategory,
			AllowedContentTypes: cfg.Uploads.AllowedContentTypes,
		}),
	}

	if cfg.Redis.Enabled {
		redisClient, err := redisclient.NewRedisClient(&cfg.Redis)
		if err != nil {
			logger.Fatal("Failed to connect to redis", zap.Error(err))
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("Failed to close redis client", zap.Error(err))
			}
		}()

		opts = append(opts,
			vehicle.WithCache(cache.NewManager(redisClient), cfg.Redis.CacheTTL()),
			vehicle.WithProgressTracker(vehicle.NewRedisProgressTracker(redisClient, cfg.Uploads.ProgressTTL())),
		)
		healthChecks["redis"] = redisClient.Ping
		logger.Info("Redis cache and upload progress enabled")

		if cfg.RateLimit.Enabled {
			limiter := ratelimit.NewLimiter(redisClient, cfg.RateLimit)
			routes.Submit = append(routes.Submit, middleware.RateLimit(limiter, "vehicle-form"))
			logger.Info("Form submission rate limit enabled",
				zap.Int("limit", cfg.RateLimit.Limit),
				zap.Duration("window", cfg.RateLimit.Window()),
			)
		}
	}

	if cfg.NATS.Enabled {
		busCfg := eventbus.DefaultConfig()
		busCfg.URL = cfg.NATS.URL
		busCfg.Name = serviceName
		busCfg.StreamName = cfg.NATS.StreamName
		bus, err := eventbus.New(busCfg)
		if err != nil {
			logger.Fatal("Failed to connect to NATS", zap.Error(err))
		}
		defer bus.Close()

		opts = append(opts, vehicle.WithEvents(bus))
		healthChecks["nats"] = func(context.Context) error {
			if !bus.Connected() {
				return fmt.Errorf("nats disconnected")
			}
			return nil
		}
		logger.Info("Event publishing enabled", zap.String("stream", cfg.NATS.StreamName))
	}

	repo := vehicle.NewRepository(db)
	service := vehicle.NewService(repo, documents.NewReconciler(store), store, opts...)
	handler := vehicle.NewHandler(service)

	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(middleware.Recovery())
	router.Use(middleware.SentryMiddleware())
	router.Use(middleware.CorrelationID())
	router.Use(middleware.RequestLogger(serviceName))
	router.Use(middleware.CORS(cfg.Server.CORSOrigins))
	router.Use(middleware.Metrics(serviceName))
	if cfg.Tracing.Enabled {
		router.Use(middleware.TracingMiddleware(serviceName))
	}
	router.Use(middleware.ErrorHandler())

	// Health check endpoints
	router.GET("/healthz", common.LivenessProbe(serviceName, version))
	router.GET("/health/live", common.LivenessProbe(serviceName, version))
	router.GET("/health/ready", common.ReadinessProbe(serviceName, version, healthChecks))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	handler.RegisterRoutes(router.Group("/api/v1"), routes)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info("Server starting", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancelShutdown := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelShutdown()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server stopped")
}
