package handler

import (
	"github.com/JideOgun/Pro-Dj-sub004/backend-booking/internal/dto"
	"github.com/JideOgun/Pro-Dj-sub004/backend-booking/internal/service"
	"github.com/JideOgun/Pro-Dj-sub004/pkg/response"
	"github.com/JideOgun/Pro-Dj-sub004/pkg/telemetry"
	"github.com/gin-gonic/gin"
)

// TimeoutHandler exposes the timeout sweep to admins and the cron trigger
type TimeoutHandler struct {
	lifecycle service.LifecycleService
}

// NewTimeoutHandler creates a new timeout handler
func NewTimeoutHandler(lifecycle service.LifecycleService) *TimeoutHandler {
	return &TimeoutHandler{lifecycle: lifecycle}
}

// ProcessTimeouts handles POST /bookings/timeout
func (h *TimeoutHandler) ProcessTimeouts(c *gin.Context) {
	h.sweep(c, service.TriggerAdmin)
}

// CronProcessTimeouts handles POST /cron/process-timeouts
func (h *TimeoutHandler) CronProcessTimeouts(c *gin.Context) {
	h.sweep(c, service.TriggerCron)
}

// ListExpired handles GET /bookings/timeout
func (h *TimeoutHandler) ListExpired(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.timeout.list")
	defer span.End()

	result, err := h.lifecycle.ListExpiredPendingBookings(ctx)
	if err != nil {
		telemetry.RecordError(span, err)
		handleError(c, err)
		return
	}

	response.Success(c, result)
}

func (h *TimeoutHandler) sweep(c *gin.Context, trigger string) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.timeout.sweep")
	defer span.End()

	result, err := h.lifecycle.ProcessExpiredPendingBookings(ctx, trigger)
	if err != nil {
		telemetry.RecordError(span, err)
		handleError(c, err)
		return
	}

	response.Success(c, dto.NewSweepResponse(result))
}
