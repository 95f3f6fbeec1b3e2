package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/JideOgun/Pro-Dj-sub004/backend-booking/internal/di"
	"github.com/JideOgun/Pro-Dj-sub004/backend-booking/internal/metrics"
	"github.com/JideOgun/Pro-Dj-sub004/backend-booking/internal/service"
	"github.com/JideOgun/Pro-Dj-sub004/pkg/config"
	"github.com/JideOgun/Pro-Dj-sub004/pkg/database"
	"github.com/JideOgun/Pro-Dj-sub004/pkg/logger"
	pkgredis "github.com/JideOgun/Pro-Dj-sub004/pkg/redis"
	"go.uber.org/zap"
)

func main() {
	dryRun := flag.Bool("dry-run", false, "list expired PENDING bookings without changing them")
	timeout := flag.Duration("timeout", 5*time.Minute, "maximum run time")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	if err := logger.Init(&logger.Config{
		Level:       cfg.LogLevel(),
		ServiceName: "timeout-sweep",
		Development: cfg.IsDevelopment(),
	}); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	appLog := logger.Get()
	_ = metrics.Init()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	// Stop early on SIGTERM; the sweep leaves unprocessed bookings for the next run
	sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(sigCtx, &database.PostgresConfig{
		DSN:           cfg.Database.DSN(),
		MaxConns:      4,
		MinConns:      1,
		MaxRetries:    3,
		RetryInterval: 2 * time.Second,
	})
	if err != nil {
		appLog.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	redisClient, err := pkgredis.NewClient(sigCtx, &pkgredis.Config{
		Host:          cfg.Redis.Host,
		Port:          cfg.Redis.Port,
		Password:      cfg.Redis.Password,
		DB:            cfg.Redis.DB,
		PoolSize:      2,
		MaxRetries:    1,
		RetryInterval: time.Second,
	})
	if err != nil {
		appLog.Warn("Redis unavailable, sweeping without the lock", zap.Error(err))
		redisClient = nil
	} else {
		defer redisClient.Close()
	}

	var publisher service.EventPublisher
	publisher, err = service.NewKafkaEventPublisher(sigCtx, &service.EventPublisherConfig{
		Brokers:     cfg.Kafka.Brokers,
		Topic:       cfg.Kafka.BookingEventsTopic,
		ServiceName: "timeout-sweep",
		ClientID:    cfg.Kafka.ClientID + "-sweep",
	})
	if err != nil {
		appLog.Warn("Kafka unavailable, recovery events are not published", zap.Error(err))
		publisher = service.NewNoOpEventPublisher()
	}
	defer publisher.Close()

	container := di.NewContainer(&di.ContainerConfig{
		DB:                 db,
		Redis:              redisClient,
		EventPublisher:     publisher,
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
	})

	if *dryRun {
		expired, err := container.LifecycleService.ListExpiredPendingBookings(sigCtx)
		if err != nil {
			appLog.Fatal("Failed to list expired bookings", zap.Error(err))
		}
		for _, b := range expired.Bookings {
			appLog.Info("Expired booking",
				zap.String("booking_id", b.ID),
				zap.Time("created_at", b.CreatedAt),
			)
		}
		appLog.Info("Dry run complete", zap.Int("count", expired.Count), zap.Time("cutoff", expired.Cutoff))
		return
	}

	result, err := container.LifecycleService.ProcessExpiredPendingBookings(sigCtx, service.TriggerCLI)
	if err != nil {
		appLog.Fatal("Timeout sweep failed", zap.Error(err))
	}

	appLog.Info("Timeout sweep finished",
		zap.Int("processed", result.Processed),
		zap.Int("failed", result.Failed),
		zap.Int("skipped", result.Skipped),
		zap.Bool("lock_held", result.LockHeld),
		zap.Duration("duration", result.Duration),
	)
	if result.Failed > 0 {
		logger.Sync()
		os.Exit(1)
	}
}
