package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/JideOgun/Pro-Dj-sub004/backend-booking/internal/domain"
	"github.com/JideOgun/Pro-Dj-sub004/backend-booking/internal/dto"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
)

// HealthChecker is a dependency probed by /ready
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// PoolStatser exposes connection pool statistics
type PoolStatser interface {
	Stats() *pgxpool.Stat
}

// OutboxCounter reports outbox backlog
type OutboxCounter interface {
	CountByStatus(ctx context.Context) (map[domain.OutboxStatus]int, error)
}

// HealthHandler handles health check endpoints
type HealthHandler struct {
	service string
	checks  map[string]HealthChecker
	pool    PoolStatser
	outbox  OutboxCounter
}

// NewHealthHandler creates a new HealthHandler. Nil checkers are reported
// as not configured.
func NewHealthHandler(service string, checks map[string]HealthChecker, pool PoolStatser, outbox OutboxCounter) *HealthHandler {
	return &HealthHandler{
		service: service,
		checks:  checks,
		pool:    pool,
		outbox:  outbox,
	}
}

// Health returns a simple health check (liveness probe)
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, dto.HealthResponse{
		Status:    "healthy",
		Service:   h.service,
		Timestamp: time.Now().UTC(),
	})
}

// Ready returns a readiness check (readiness probe)
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	checks := make(map[string]string, len(h.checks))
	allHealthy := true

	for name, checker := range h.checks {
		if checker == nil {
			checks[name] = "not configured"
			continue
		}
		if err := checker.HealthCheck(ctx); err != nil {
			checks[name] = "unhealthy: " + err.Error()
			allHealthy = false
			continue
		}
		checks[name] = "healthy"
	}

	resp := dto.HealthResponse{
		Service:   h.service,
		Timestamp: time.Now().UTC(),
		Checks:    checks,
	}

	if allHealthy {
		resp.Status = "ready"
		c.JSON(http.StatusOK, resp)
		return
	}
	resp.Status = "not ready"
	c.JSON(http.StatusServiceUnavailable, resp)
}

// Metrics returns pool statistics and outbox backlog
func (h *HealthHandler) Metrics(c *gin.Context) {
	out := gin.H{"service": h.service}

	if h.pool != nil {
		if s := h.pool.Stats(); s != nil {
			out["db_pool"] = gin.H{
				"total_conns":         s.TotalConns(),
				"idle_conns":          s.IdleConns(),
				"acquired_conns":      s.AcquiredConns(),
				"max_conns":           s.MaxConns(),
				"acquire_count":       s.AcquireCount(),
				"empty_acquire_count": s.EmptyAcquireCount(),
			}
		}
	}

	if h.outbox != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if counts, err := h.outbox.CountByStatus(ctx); err == nil {
			out["outbox"] = counts
		}
	}

	c.JSON(http.StatusOK, out)
}
