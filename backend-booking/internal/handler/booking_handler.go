package handler

import (
	"github.com/JideOgun/Pro-Dj-sub004/backend-booking/internal/domain"
	"github.com/JideOgun/Pro-Dj-sub004/backend-booking/internal/dto"
	"github.com/JideOgun/Pro-Dj-sub004/backend-booking/internal/service"
	"github.com/JideOgun/Pro-Dj-sub004/pkg/response"
	"github.com/JideOgun/Pro-Dj-sub004/pkg/telemetry"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// BookingHandler handles booking lifecycle HTTP requests
type BookingHandler struct {
	lifecycle service.LifecycleService
}

// NewBookingHandler creates a new booking handler
func NewBookingHandler(lifecycle service.LifecycleService) *BookingHandler {
	return &BookingHandler{lifecycle: lifecycle}
}

// GetBooking handles GET /bookings/:id
func (h *BookingHandler) GetBooking(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.booking.get")
	defer span.End()

	booking, err := h.lifecycle.GetBooking(ctx, actorFromContext(c), c.Param("id"))
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		handleError(c, err)
		return
	}

	response.Success(c, dto.FromDomain(booking))
}

// DeclineBooking handles PATCH /bookings/:id/decline
func (h *BookingHandler) DeclineBooking(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.booking.decline")
	defer span.End()

	var req dto.DeclineBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		span.SetStatus(codes.Error, "invalid request")
		response.BadRequest(c, "Invalid request body")
		return
	}

	bookingID := c.Param("id")
	span.SetAttributes(attribute.String("booking_id", bookingID))

	booking, err := h.lifecycle.DeclineBooking(ctx, actorFromContext(c), bookingID, req.Reason)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		handleError(c, err)
		return
	}

	span.SetStatus(codes.Ok, "")
	response.Success(c, dto.FromDomain(booking))
}

// MarkPaid handles PATCH /bookings/:id/mark-paid
func (h *BookingHandler) MarkPaid(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.booking.mark_paid")
	defer span.End()

	bookingID := c.Param("id")
	span.SetAttributes(attribute.String("booking_id", bookingID))

	booking, err := h.lifecycle.MarkPaid(ctx, actorFromContext(c), bookingID)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		handleError(c, err)
		return
	}

	span.SetStatus(codes.Ok, "")
	response.Success(c, dto.FromDomain(booking))
}

// UpdateStatus handles PATCH /bookings/:id/status. With "force" it is an
// admin override.
func (h *BookingHandler) UpdateStatus(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.booking.update_status")
	defer span.End()

	var req dto.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		span.SetStatus(codes.Error, "invalid request")
		response.BadRequest(c, "status is required")
		return
	}

	bookingID := c.Param("id")
	span.SetAttributes(
		attribute.String("booking_id", bookingID),
		attribute.String("status", req.Status),
		attribute.Bool("force", req.Force),
		attribute.String("dj_profile_id", req.DjProfileID),
	)

	actor := actorFromContext(c)

	var (
		booking *domain.Booking
		err     error
	)
	switch {
	case req.Force:
		booking, err = h.lifecycle.ForceStatus(ctx, actor, bookingID, req.Status, req.Reason)
	case req.DjProfileID != "":
		var to domain.BookingStatus
		if to, err = domain.ParseBookingStatus(req.Status); err == nil && to != domain.BookingStatusAccepted {
			err = domain.ErrDjOnlyOnAccept
		}
		if err == nil {
			booking, err = h.lifecycle.AcceptBooking(ctx, actor, bookingID, req.DjProfileID, req.Reason)
		}
	default:
		booking, err = h.lifecycle.TransitionStatus(ctx, actor, bookingID, req.Status, req.Reason)
	}
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		handleError(c, err)
		return
	}

	span.SetStatus(codes.Ok, "")
	response.Success(c, dto.FromDomain(booking))
}
