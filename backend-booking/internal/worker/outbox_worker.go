package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/JideOgun/Pro-Dj-sub004/backend-booking/internal/domain"
	"github.com/JideOgun/Pro-Dj-sub004/pkg/logger"
	"go.uber.org/zap"
)

// OutboxStore is the part of the outbox repository the relay needs
type OutboxStore interface {
	RelayPending(ctx context.Context, limit int, retryFailed bool, publish func(context.Context, *domain.OutboxMessage) error) (published, failed int, err error)
	DeletePublished(ctx context.Context, olderThan time.Duration) (int64, error)
}

// OutboxPublisher sends one outbox message to the broker
type OutboxPublisher interface {
	PublishOutbox(ctx context.Context, msg *domain.OutboxMessage) error
}

// OutboxWorkerConfig contains configuration for the outbox worker
type OutboxWorkerConfig struct {
	// PollInterval is the interval between polling for pending messages
	PollInterval time.Duration
	// BatchSize is the number of messages to fetch in each poll
	BatchSize int
	// RetryInterval is the interval between retrying failed messages
	RetryInterval time.Duration
	// CleanupInterval is the interval between cleanup of old published messages
	CleanupInterval time.Duration
	// CleanupRetentionDays is the number of days to retain published messages
	CleanupRetentionDays int
}

// DefaultOutboxWorkerConfig returns default configuration
func DefaultOutboxWorkerConfig() *OutboxWorkerConfig {
	return &OutboxWorkerConfig{
		PollInterval:         time.Second,
		BatchSize:            100,
		RetryInterval:        30 * time.Second,
		CleanupInterval:      time.Hour,
		CleanupRetentionDays: 7,
	}
}

// OutboxWorker relays committed booking events from the outbox table to Kafka
type OutboxWorker struct {
	store     OutboxStore
	publisher OutboxPublisher
	config    *OutboxWorkerConfig
	log       *logger.Logger
	stopCh    chan struct{}
	wg        sync.WaitGroup
	mu        sync.Mutex
	running   bool

	totalPublished int64
	totalFailed    int64
}

// NewOutboxWorker creates a new outbox worker
func NewOutboxWorker(store OutboxStore, publisher OutboxPublisher, config *OutboxWorkerConfig) *OutboxWorker {
	if config == nil {
		config = DefaultOutboxWorkerConfig()
	}

	return &OutboxWorker{
		store:     store,
		publisher: publisher,
		config:    config,
		log:       logger.Get(),
		stopCh:    make(chan struct{}),
	}
}

// Start starts the relay, retry and cleanup loops
func (w *OutboxWorker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return fmt.Errorf("outbox worker already running")
	}
	w.running = true
	w.mu.Unlock()

	w.log.Info("Starting outbox worker")

	w.wg.Add(3)
	go w.every(ctx, w.config.PollInterval, func(ctx context.Context) { w.relay(ctx, false) })
	go w.every(ctx, w.config.RetryInterval, func(ctx context.Context) { w.relay(ctx, true) })
	go w.every(ctx, w.config.CleanupInterval, w.cleanup)

	return nil
}

// Stop stops the outbox worker
func (w *OutboxWorker) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	w.mu.Unlock()

	w.log.Info("Stopping outbox worker")
	close(w.stopCh)
	w.wg.Wait()
	w.log.Info("Outbox worker stopped")
}

func (w *OutboxWorker) every(ctx context.Context, interval time.Duration, fn func(context.Context)) {
	defer w.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case <-ticker.C:
			fn(ctx)
		}
	}
}

// relay publishes one batch. With retryFailed it picks up failed rows that
// still have retries left.
func (w *OutboxWorker) relay(ctx context.Context, retryFailed bool) {
	published, failed, err := w.store.RelayPending(ctx, w.config.BatchSize, retryFailed, w.publisher.PublishOutbox)
	if err != nil {
		w.log.Error("Outbox relay failed", zap.Bool("retry", retryFailed), zap.Error(err))
		return
	}

	w.mu.Lock()
	w.totalPublished += int64(published)
	w.totalFailed += int64(failed)
	w.mu.Unlock()

	if failed > 0 {
		w.log.Warn("Outbox messages failed to publish",
			zap.Int("published", published),
			zap.Int("failed", failed),
			zap.Bool("retry", retryFailed),
		)
	} else if retryFailed && published > 0 {
		w.log.Info("Retried outbox messages", zap.Int("published", published))
	}
}

func (w *OutboxWorker) cleanup(ctx context.Context) {
	retention := time.Duration(w.config.CleanupRetentionDays) * 24 * time.Hour
	deleted, err := w.store.DeletePublished(ctx, retention)
	if err != nil {
		w.log.Error("Failed to cleanup old outbox messages", zap.Error(err))
		return
	}
	if deleted > 0 {
		w.log.Info("Cleaned up old published outbox messages", zap.Int64("deleted", deleted))
	}
}

// GetStats returns worker statistics
func (w *OutboxWorker) GetStats() *OutboxWorkerStats {
	w.mu.Lock()
	defer w.mu.Unlock()

	return &OutboxWorkerStats{
		IsRunning:      w.running,
		TotalPublished: w.totalPublished,
		TotalFailed:    w.totalFailed,
	}
}

// OutboxWorkerStats contains worker statistics
type OutboxWorkerStats struct {
	IsRunning      bool  `json:"is_running"`
	TotalPublished int64 `json:"total_published"`
	TotalFailed    int64 `json:"total_failed"`
}
