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

	"github.com/JideOgun/Pro-Dj-sub004/backend-booking/internal/di"
	"github.com/JideOgun/Pro-Dj-sub004/backend-booking/internal/metrics"
	"github.com/JideOgun/Pro-Dj-sub004/backend-booking/internal/service"
	"github.com/JideOgun/Pro-Dj-sub004/backend-booking/internal/worker"
	"github.com/JideOgun/Pro-Dj-sub004/backend-booking/migrations"
	"github.com/JideOgun/Pro-Dj-sub004/pkg/config"
	"github.com/JideOgun/Pro-Dj-sub004/pkg/database"
	"github.com/JideOgun/Pro-Dj-sub004/pkg/kafka"
	"github.com/JideOgun/Pro-Dj-sub004/pkg/logger"
	"github.com/JideOgun/Pro-Dj-sub004/pkg/middleware"
	pkgredis "github.com/JideOgun/Pro-Dj-sub004/pkg/redis"
	"github.com/JideOgun/Pro-Dj-sub004/pkg/telemetry"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	if err := logger.Init(&logger.Config{
		Level:       cfg.LogLevel(),
		ServiceName: di.ServiceName,
		Development: cfg.IsDevelopment(),
	}); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	appLog := logger.Get()
	appLog.Info("Starting Booking Service...", zap.String("version", cfg.App.Version))

	ctx := context.Background()

	// Initialize tracing and metrics
	if _, err := telemetry.Init(ctx, &telemetry.Config{
		Enabled:        cfg.OTel.Enabled,
		ServiceName:    cfg.OTel.ServiceName,
		ServiceVersion: cfg.App.Version,
		Environment:    cfg.App.Environment,
		CollectorAddr:  cfg.OTel.CollectorAddr,
		SampleRatio:    cfg.OTel.SampleRatio,
	}); err != nil {
		appLog.Warn("Telemetry disabled", zap.Error(err))
	}
	if err := metrics.Init(); err != nil {
		appLog.Warn("Failed to register metrics", zap.Error(err))
	}

	// Initialize database connection
	db, err := database.NewPostgres(ctx, &database.PostgresConfig{
		DSN:             cfg.Database.DSN(),
		MaxConns:        int32(cfg.Database.MaxConns),
		MinConns:        int32(cfg.Database.MinConns),
		MaxConnLifetime: cfg.Database.ConnMaxLifetime,
		MaxConnIdleTime: cfg.Database.ConnMaxIdleTime,
		ConnectTimeout:  5 * time.Second,
		MaxRetries:      3,
		RetryInterval:   time.Second,
		EnableTracing:   cfg.OTel.Enabled,
	})
	if err != nil {
		appLog.Fatal("Database connection failed", zap.Error(err))
	}
	defer db.Close()
	appLog.Info("Database connected", zap.Int("max_conns", cfg.Database.MaxConns))

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(ctx, cfg.Database.DSN(), migrations.FS, migrations.Dir); err != nil {
			appLog.Fatal("Database migration failed", zap.Error(err))
		}
		appLog.Info("Database migrations applied")
	}

	// Redis backs the sweep lock, idempotency and distributed rate limiting.
	// The service still runs without it.
	var redisClient *pkgredis.Client
	redisClient, err = pkgredis.NewClient(ctx, &pkgredis.Config{
		Host:          cfg.Redis.Host,
		Port:          cfg.Redis.Port,
		Password:      cfg.Redis.Password,
		DB:            cfg.Redis.DB,
		PoolSize:      cfg.Redis.PoolSize,
		MinIdleConns:  cfg.Redis.MinIdleConns,
		DialTimeout:   cfg.Redis.DialTimeout,
		ReadTimeout:   cfg.Redis.ReadTimeout,
		WriteTimeout:  cfg.Redis.WriteTimeout,
		MaxRetries:    3,
		RetryInterval: 500 * time.Millisecond,
	})
	if err != nil {
		appLog.Warn("Redis unavailable, sweep lock and idempotency disabled", zap.Error(err))
		redisClient = nil
	} else {
		defer redisClient.Close()
		appLog.Info("Redis connected")
	}

	// Initialize Kafka event publisher
	var eventPublisher service.EventPublisher
	eventPublisher, err = service.NewKafkaEventPublisher(ctx, &service.EventPublisherConfig{
		Brokers:     cfg.Kafka.Brokers,
		Topic:       cfg.Kafka.BookingEventsTopic,
		ServiceName: di.ServiceName,
		ClientID:    cfg.Kafka.ClientID,
	})
	if err != nil {
		appLog.Warn("Kafka connection failed, using no-op publisher", zap.Error(err))
		eventPublisher = service.NewNoOpEventPublisher()
	} else {
		appLog.Info("Kafka event publisher connected")
	}
	defer eventPublisher.Close()

	// Build dependency injection container
	container := di.NewContainer(&di.ContainerConfig{
		DB:                 db,
		Redis:              redisClient,
		EventPublisher:     eventPublisher,
		BookingEventsTopic: cfg.Kafka.BookingEventsTopic,
		PendingTimeout:     cfg.Booking.PendingTimeout,
		SweepBatchSize:     cfg.Booking.SweepBatchSize,
		SweepLockTTL:       cfg.Booking.SweepLockTTL,
		RecoveryDJLimit:    cfg.Booking.RecoveryDJLimit,
		Email: service.EmailConfig{
			APIKey:      cfg.Email.MailerSendAPIKey,
			FromEmail:   cfg.Email.FromEmail,
			FromName:    cfg.Email.FromName,
			SendTimeout: cfg.Email.SendTimeout,
		},
		StripeSecret: cfg.Stripe.WebhookSecret,
	})

	// Setup Gin
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(
		gin.Recovery(),
		middleware.RequestID(),
		middleware.AccessLog(appLog, "/health", "/ready"),
		telemetry.TracingMiddleware(di.ServiceName),
	)

	// Health check endpoints
	router.GET("/health", container.HealthHandler.Health)
	router.GET("/ready", container.HealthHandler.Ready)
	router.GET("/metrics", container.HealthHandler.Metrics)

	// External triggers authenticate with their own secrets
	router.POST("/cron/process-timeouts", middleware.CronSecret(cfg.Cron.SecretToken), container.TimeoutHandler.CronProcessTimeouts)
	router.POST("/webhooks/stripe", container.WebhookHandler.HandleStripeWebhook)

	var rateLimiter *middleware.RateLimiter
	if cfg.RateLimit.Enabled {
		rlCfg := middleware.DefaultRateLimitConfig()
		rlCfg.RequestsPerSecond = cfg.RateLimit.RequestsPerSecond
		rlCfg.BurstSize = cfg.RateLimit.BurstSize
		rlCfg.UseRedis = cfg.RateLimit.UseRedis && redisClient != nil
		rlCfg.RedisClient = redisClient
		rateLimiter = middleware.NewRateLimiter(rlCfg)
	}

	// API routes
	v1 := router.Group("/api/v1")
	v1.Use(middleware.JWTAuth(middleware.AuthConfig{Secret: cfg.JWT.Secret, Issuer: cfg.JWT.Issuer}))
	if rateLimiter != nil {
		v1.Use(rateLimiter.Middleware())
	}
	if redisClient != nil {
		v1.Use(middleware.Idempotency(middleware.DefaultIdempotencyConfig(redisClient.Client())))
	}
	{
		bookings := v1.Group("/bookings")

		// Admin-only operations
		admin := bookings.Group("", middleware.AdminOnly())
		admin.GET("/timeout", container.TimeoutHandler.ListExpired)
		admin.POST("/timeout", container.TimeoutHandler.ProcessTimeouts)
		admin.PATCH("/:id/mark-paid", container.BookingHandler.MarkPaid)

		// Ownership is checked by the lifecycle service
		bookings.GET("/:id", container.BookingHandler.GetBooking)
		bookings.PATCH("/:id/decline", container.BookingHandler.DeclineBooking)
		bookings.PATCH("/:id/status", container.BookingHandler.UpdateStatus)
	}

	// Start background workers
	workerCtx, stopWorkers := context.WithCancel(ctx)
	defer stopWorkers()

	var timeoutWorker *worker.TimeoutWorker
	if cfg.Booking.SweepEnabled {
		timeoutWorker = worker.NewTimeoutWorker(container.LifecycleService, &worker.TimeoutWorkerConfig{
			Interval: cfg.Booking.SweepInterval,
		})
		if err := timeoutWorker.Start(workerCtx); err != nil {
			appLog.Error("Failed to start timeout worker", zap.Error(err))
		}
	}

	var outboxWorker *worker.OutboxWorker
	if cfg.Booking.OutboxEnabled {
		outboxCfg := worker.DefaultOutboxWorkerConfig()
		if cfg.Booking.OutboxRetention > 0 {
			outboxCfg.CleanupRetentionDays = cfg.Booking.OutboxRetention
		}
		outboxWorker = worker.NewOutboxWorker(container.OutboxRepo, eventPublisher, outboxCfg)
		if err := outboxWorker.Start(workerCtx); err != nil {
			appLog.Error("Failed to start outbox worker", zap.Error(err))
		}
	}

	var paymentConsumer *worker.PaymentEventConsumer
	if cfg.Kafka.ConsumerEnabled {
		consumer, err := kafka.NewConsumer(ctx, &kafka.ConsumerConfig{
			Brokers:          cfg.Kafka.Brokers,
			GroupID:          cfg.Kafka.ConsumerGroup,
			Topics:           []string{cfg.Kafka.PaymentEventsTopic},
			ClientID:         cfg.Kafka.ClientID + "-payments",
			SessionTimeout:   30 * time.Second,
			RebalanceTimeout: 60 * time.Second,
		})
		if err != nil {
			appLog.Warn("Payment event consumer disabled", zap.Error(err))
		} else {
			paymentConsumer = worker.NewPaymentEventConsumer(consumer, container.LifecycleService)
			paymentConsumer.Start(workerCtx)
		}
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           router,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
		ReadHeaderTimeout: 2 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	go func() {
		appLog.Info("Booking Service listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLog.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLog.Info("Shutting down server...")

	shutdownTimeout := cfg.Server.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = 30 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLog.Error("Server forced to shutdown", zap.Error(err))
	}

	stopWorkers()
	if timeoutWorker != nil {
		timeoutWorker.Stop()
	}
	if outboxWorker != nil {
		outboxWorker.Stop()
	}
	if paymentConsumer != nil {
		paymentConsumer.Stop()
	}
	if rateLimiter != nil {
		rateLimiter.Stop()
	}
	if err := telemetry.Shutdown(shutdownCtx); err != nil {
		appLog.Warn("Telemetry shutdown failed", zap.Error(err))
	}

	appLog.Info("Server exited gracefully")
}
