package dto

import (
	"time"

	"github.com/JideOgun/Pro-Dj-sub004/backend-booking/internal/domain"
)

// DeclineBookingRequest is the body of PATCH /bookings/:id/decline
type DeclineBookingRequest struct {
	Reason string `json:"reason"`
}

// UpdateStatusRequest is the body of PATCH /bookings/:id/status.
// Force requests an admin override outside the regular transition table.
// DjProfileID names the DJ an admin assigns when accepting an unassigned
// booking.
type UpdateStatusRequest struct {
	Status      string `json:"status" binding:"required"`
	Reason      string `json:"reason"`
	Force       bool   `json:"force"`
	DjProfileID string `json:"dj_profile_id"`
}

// BookingResponse represents a booking in API responses
type BookingResponse struct {
	ID                string     `json:"id"`
	ClientUserID      string     `json:"client_user_id"`
	DjID              string     `json:"dj_id,omitempty"`
	EventType         string     `json:"event_type"`
	EventDate         time.Time  `json:"event_date"`
	Status            string     `json:"status"`
	StatusReason      string     `json:"status_reason,omitempty"`
	IsPaid            bool       `json:"is_paid"`
	PaidAt            *time.Time `json:"paid_at,omitempty"`
	CheckoutSessionID string     `json:"checkout_session_id,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// FromDomain converts a domain booking to its API shape
func FromDomain(b *domain.Booking) *BookingResponse {
	if b == nil {
		return nil
	}
	return &BookingResponse{
		ID:                b.ID,
		ClientUserID:      b.ClientUserID,
		DjID:              b.DjID,
		EventType:         b.EventType,
		EventDate:         b.EventDate,
		Status:            b.Status.String(),
		StatusReason:      b.StatusReason,
		IsPaid:            b.IsPaid,
		PaidAt:            b.PaidAt,
		CheckoutSessionID: b.CheckoutSessionID,
		CreatedAt:         b.CreatedAt,
		UpdatedAt:         b.UpdatedAt,
	}
}

// FromDomainList converts a slice of bookings
func FromDomainList(bookings []*domain.Booking) []*BookingResponse {
	out := make([]*BookingResponse, 0, len(bookings))
	for _, b := range bookings {
		out = append(out, FromDomain(b))
	}
	return out
}

// SweepResult summarises one timeout sweep run
type SweepResult struct {
	Processed int           `json:"processed"`
	Failed    int           `json:"failed"`
	Skipped   int           `json:"skipped"`
	Errors    []string      `json:"errors,omitempty"`
	Cutoff    time.Time     `json:"cutoff"`
	Duration  time.Duration `json:"-"`
	// LockHeld is set when another runner held the sweep lock
	LockHeld bool `json:"lock_held,omitempty"`
}

// SweepResponse is returned by the manual and cron sweep endpoints
type SweepResponse struct {
	Message    string    `json:"message"`
	Processed  int       `json:"processed"`
	Failed     int       `json:"failed"`
	Skipped    int       `json:"skipped"`
	Errors     []string  `json:"errors,omitempty"`
	Cutoff     time.Time `json:"cutoff"`
	DurationMs int64     `json:"duration_ms"`
}

// NewSweepResponse builds the API shape of a sweep result
func NewSweepResponse(r *SweepResult) *SweepResponse {
	msg := "Timeout sweep completed"
	if r.LockHeld {
		msg = "Timeout sweep already running elsewhere; skipped"
	}
	return &SweepResponse{
		Message:    msg,
		Processed:  r.Processed,
		Failed:     r.Failed,
		Skipped:    r.Skipped,
		Errors:     r.Errors,
		Cutoff:     r.Cutoff,
		DurationMs: r.Duration.Milliseconds(),
	}
}

// ExpiredBookingsResponse lists PENDING bookings past the deadline
type ExpiredBookingsResponse struct {
	Count    int                `json:"count"`
	Cutoff   time.Time          `json:"cutoff"`
	Bookings []*BookingResponse `json:"bookings"`
}

// HealthResponse is returned by /health and /ready
type HealthResponse struct {
	Status    string            `json:"status"`
	Service   string            `json:"service"`
	Timestamp time.Time         `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
}
