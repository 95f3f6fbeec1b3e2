package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/JideOgun/Pro-Dj-sub004/backend-booking/internal/dto"
	"github.com/JideOgun/Pro-Dj-sub004/backend-booking/internal/service"
	"github.com/JideOgun/Pro-Dj-sub004/pkg/logger"
	"go.uber.org/zap"
)

// TimeoutSweeper runs one pass of the pending-booking timeout sweep
type TimeoutSweeper interface {
	ProcessExpiredPendingBookings(ctx context.Context, trigger string) (*dto.SweepResult, error)
}

// TimeoutWorkerConfig contains configuration for the timeout worker
type TimeoutWorkerConfig struct {
	// Interval is the time between sweeps
	Interval time.Duration
}

// DefaultTimeoutWorkerConfig returns default configuration
func DefaultTimeoutWorkerConfig() *TimeoutWorkerConfig {
	return &TimeoutWorkerConfig{
		Interval: 15 * time.Minute,
	}
}

// TimeoutWorker runs the timeout sweep on a ticker. Replicas coordinate
// through the sweep lock, so every instance may run one.
type TimeoutWorker struct {
	sweeper TimeoutSweeper
	config  *TimeoutWorkerConfig
	log     *logger.Logger
	stopCh  chan struct{}
	wg      sync.WaitGroup
	mu      sync.Mutex
	running bool

	// Stats
	runs           int64
	totalProcessed int64
	totalFailed    int64
	lastRunTime    time.Time
	lastResult     *dto.SweepResult
}

// NewTimeoutWorker creates a new timeout worker
func NewTimeoutWorker(sweeper TimeoutSweeper, config *TimeoutWorkerConfig) *TimeoutWorker {
	if config == nil || config.Interval <= 0 {
		config = DefaultTimeoutWorkerConfig()
	}

	return &TimeoutWorker{
		sweeper: sweeper,
		config:  config,
		log:     logger.Get(),
		stopCh:  make(chan struct{}),
	}
}

// Start starts the timeout worker
func (w *TimeoutWorker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return fmt.Errorf("timeout worker already running")
	}
	w.running = true
	w.mu.Unlock()

	w.log.Info("Starting timeout worker", zap.Duration("interval", w.config.Interval))

	w.wg.Add(1)
	go w.loop(ctx)

	return nil
}

// Stop stops the timeout worker and waits for an in-flight sweep
func (w *TimeoutWorker) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	w.mu.Unlock()

	w.log.Info("Stopping timeout worker")
	close(w.stopCh)
	w.wg.Wait()
	w.log.Info("Timeout worker stopped")
}

func (w *TimeoutWorker) loop(ctx context.Context) {
	defer w.wg.Done()

	ticker := time.NewTicker(w.config.Interval)
	defer ticker.Stop()

	// Run immediately on start
	w.runOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.runOnce(ctx)
		}
	}
}

func (w *TimeoutWorker) runOnce(ctx context.Context) {
	result, err := w.sweeper.ProcessExpiredPendingBookings(ctx, service.TriggerWorker)

	w.mu.Lock()
	defer w.mu.Unlock()

	w.runs++
	w.lastRunTime = time.Now()
	if err != nil {
		w.log.Error("Timeout sweep failed", zap.Error(err))
		return
	}

	w.lastResult = result
	w.totalProcessed += int64(result.Processed)
	w.totalFailed += int64(result.Failed)
}

// GetStats returns worker statistics
func (w *TimeoutWorker) GetStats() *TimeoutWorkerStats {
	w.mu.Lock()
	defer w.mu.Unlock()

	stats := &TimeoutWorkerStats{
		IsRunning:      w.running,
		Runs:           w.runs,
		TotalProcessed: w.totalProcessed,
		TotalFailed:    w.totalFailed,
		LastRunTime:    w.lastRunTime,
	}
	if w.lastResult != nil {
		stats.LastProcessed = w.lastResult.Processed
		stats.LastLockHeld = w.lastResult.LockHeld
	}
	return stats
}

// TimeoutWorkerStats contains worker statistics
type TimeoutWorkerStats struct {
	IsRunning      bool      `json:"is_running"`
	Runs           int64     `json:"runs"`
	TotalProcessed int64     `json:"total_processed"`
	TotalFailed    int64     `json:"total_failed"`
	LastRunTime    time.Time `json:"last_run_time"`
	LastProcessed  int       `json:"last_processed"`
	LastLockHeld   bool      `json:"last_lock_held"`
}
