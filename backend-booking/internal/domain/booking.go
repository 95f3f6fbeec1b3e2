package domain

import (
	"strings"
	"time"
)

// BookingStatus represents the status of a booking
type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "PENDING"
	BookingStatusAccepted  BookingStatus = "ACCEPTED"
	BookingStatusConfirmed BookingStatus = "CONFIRMED"
	BookingStatusDeclined  BookingStatus = "DECLINED"
	BookingStatusCancelled BookingStatus = "CANCELLED"
)

// transitions lists the legal next states of each status. Terminal states
// have no entry.
var transitions = map[BookingStatus][]BookingStatus{
	BookingStatusPending:  {BookingStatusAccepted, BookingStatusDeclined, BookingStatusCancelled},
	BookingStatusAccepted: {BookingStatusConfirmed, BookingStatusCancelled},
}

// ParseBookingStatus accepts any case and surrounding whitespace
func ParseBookingStatus(s string) (BookingStatus, error) {
	status := BookingStatus(strings.ToUpper(strings.TrimSpace(s)))
	if !status.IsValid() {
		return "", ErrInvalidBookingStatus
	}
	return status, nil
}

// IsValid checks if the status is one of the five known values
func (s BookingStatus) IsValid() bool {
	switch s {
	case BookingStatusPending, BookingStatusAccepted, BookingStatusConfirmed,
		BookingStatusDeclined, BookingStatusCancelled:
		return true
	}
	return false
}

// IsTerminal reports whether no further transition is possible
func (s BookingStatus) IsTerminal() bool {
	return s.IsValid() && len(transitions[s]) == 0
}

// CanTransitionTo reports whether s -> next is a legal edge
func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
	for _, t := range transitions[s] {
		if t == next {
			return true
		}
	}
	return false
}

func (s BookingStatus) String() string {
	return string(s)
}

// Booking represents a DJ booking request
type Booking struct {
	ID                string        `json:"id"`
	ClientUserID      string        `json:"client_user_id"`
	DjID              string        `json:"dj_id,omitempty"`
	EventType         string        `json:"event_type"`
	EventDate         time.Time     `json:"event_date"`
	Status            BookingStatus `json:"status"`
	StatusReason      string        `json:"status_reason,omitempty"`
	IsPaid            bool          `json:"is_paid"`
	PaidAt            *time.Time    `json:"paid_at,omitempty"`
	CheckoutSessionID string        `json:"checkout_session_id,omitempty"`
	CreatedAt         time.Time     `json:"created_at"`
	UpdatedAt         time.Time     `json:"updated_at"`

	// DjUserID is the user owning the assigned DJ profile, loaded by join
	DjUserID string `json:"-"`
}

// HasDJ reports whether a DJ profile is assigned
func (b *Booking) HasDJ() bool {
	return b.DjID != ""
}

// IsAssignedDJ reports whether userID owns the assigned DJ profile
func (b *Booking) IsAssignedDJ(userID string) bool {
	return userID != "" && b.DjUserID != "" && b.DjUserID == userID
}

// BelongsToClient checks if the booking was requested by userID
func (b *Booking) BelongsToClient(userID string) bool {
	return userID != "" && b.ClientUserID == userID
}

// IsPaidConfirmed reports the settled state MarkPaid produces
func (b *Booking) IsPaidConfirmed() bool {
	return b.Status == BookingStatusConfirmed && b.IsPaid && b.PaidAt != nil
}

// IsExpiredAt reports whether a PENDING booking was created before cutoff
func (b *Booking) IsExpiredAt(cutoff time.Time) bool {
	return b.Status == BookingStatusPending && b.CreatedAt.Before(cutoff)
}

// CheckPaidInvariant verifies is_paid <=> paid_at set, and paid => CONFIRMED
func (b *Booking) CheckPaidInvariant() error {
	if b.IsPaid != (b.PaidAt != nil) {
		return ErrPaidInvariant
	}
	if b.IsPaid && b.Status != BookingStatusConfirmed {
		return ErrPaidInvariant
	}
	return nil
}
