package di

import (
	"time"

	"github.com/JideOgun/Pro-Dj-sub004/backend-booking/internal/handler"
	"github.com/JideOgun/Pro-Dj-sub004/backend-booking/internal/repository"
	"github.com/JideOgun/Pro-Dj-sub004/backend-booking/internal/service"
	"github.com/JideOgun/Pro-Dj-sub004/pkg/database"
	"github.com/JideOgun/Pro-Dj-sub004/pkg/logger"
	"github.com/JideOgun/Pro-Dj-sub004/pkg/redis"
)

// ServiceName identifies the booking service in logs, traces and probes
const ServiceName = "booking-service"

// Container holds all dependencies for the booking service
type Container struct {
	// Infrastructure
	DB    *database.PostgresDB
	Redis *redis.Client

	// Repositories
	BookingRepo      repository.BookingRepository
	StatusWriter     repository.StatusWriter
	UserRepo         *repository.PostgresUserRepository
	NotificationRepo repository.NotificationRepository
	OutboxRepo       repository.OutboxRepository
	SweepLock        repository.SweepLock

	// Publishers
	EventPublisher service.EventPublisher

	// Services
	Recovery         service.RejectionRecovery
	EmailSender      service.EmailSender
	LifecycleService service.LifecycleService

	// Handlers
	HealthHandler  *handler.HealthHandler
	BookingHandler *handler.BookingHandler
	TimeoutHandler *handler.TimeoutHandler
	WebhookHandler *handler.WebhookHandler
}

// ContainerConfig contains configuration for building the container
type ContainerConfig struct {
	DB *database.PostgresDB
	// Redis is optional; without it the sweep runs unlocked
	Redis          *redis.Client
	EventPublisher service.EventPublisher

	BookingEventsTopic string
	PendingTimeout     time.Duration
	SweepBatchSize     int
	SweepLockTTL       time.Duration
	RecoveryDJLimit    int
	Email              service.EmailConfig
	StripeSecret       string
}

// NewContainer creates a new dependency injection container
func NewContainer(cfg *ContainerConfig) *Container {
	c := &Container{
		DB:             cfg.DB,
		Redis:          cfg.Redis,
		EventPublisher: cfg.EventPublisher,
	}
	if c.EventPublisher == nil {
		c.EventPublisher = service.NewNoOpEventPublisher()
	}

	// Initialize repositories
	pool := c.DB.Pool()
	c.BookingRepo = repository.NewPostgresBookingRepository(pool)
	c.UserRepo = repository.NewPostgresUserRepository(pool)
	c.NotificationRepo = repository.NewPostgresNotificationRepository(pool)
	c.OutboxRepo = repository.NewPostgresOutboxRepository(pool)
	c.StatusWriter = repository.NewPostgresStatusWriter(pool, c.OutboxRepo, c.NotificationRepo, cfg.BookingEventsTopic)
	if c.Redis != nil {
		c.SweepLock = repository.NewRedisSweepLock(c.Redis, repository.DefaultSweepLockKey, cfg.SweepLockTTL)
	}

	// Initialize services
	c.Recovery = service.NewRejectionRecovery(c.UserRepo, c.NotificationRepo, c.EventPublisher, cfg.RecoveryDJLimit)
	c.EmailSender = service.NewEmailSender(cfg.Email, logger.Get())
	c.LifecycleService = service.NewLifecycleService(service.LifecycleDeps{
		Bookings: c.BookingRepo,
		Writer:   c.StatusWriter,
		Users:    c.UserRepo,
		DJs:      c.UserRepo,
		Lock:     c.SweepLock,
		Recovery: c.Recovery,
		Email:    c.EmailSender,
	}, &service.LifecycleConfig{
		PendingTimeout: cfg.PendingTimeout,
		SweepBatchSize: cfg.SweepBatchSize,
	})

	// Initialize handlers
	checks := map[string]handler.HealthChecker{"postgres": c.DB, "redis": nil}
	if c.Redis != nil {
		checks["redis"] = c.Redis
	}
	c.HealthHandler = handler.NewHealthHandler(ServiceName, checks, c.DB, c.OutboxRepo)
	c.BookingHandler = handler.NewBookingHandler(c.LifecycleService)
	c.TimeoutHandler = handler.NewTimeoutHandler(c.LifecycleService)
	c.WebhookHandler = handler.NewWebhookHandler(c.LifecycleService, cfg.StripeSecret)

	return c
}
