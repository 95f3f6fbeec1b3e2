package domain

import (
	"time"

	"github.com/google/uuid"
)

// StatusChange is one row of booking_status_history
type StatusChange struct {
	ID         string        `json:"id"`
	BookingID  string        `json:"booking_id"`
	FromStatus BookingStatus `json:"from_status"`
	ToStatus   BookingStatus `json:"to_status"`
	// ActorID is empty for the system sweep
	ActorID   string    `json:"actor_id,omitempty"`
	Reason    string    `json:"reason"`
	Forced    bool      `json:"forced"`
	CreatedAt time.Time `json:"created_at"`
}

// NewStatusChange records from -> to by actor
func NewStatusChange(bookingID string, from, to BookingStatus, actor Actor, reason string, forced bool) *StatusChange {
	return &StatusChange{
		ID:         uuid.New().String(),
		BookingID:  bookingID,
		FromStatus: from,
		ToStatus:   to,
		ActorID:    actor.UserID,
		Reason:     reason,
		Forced:     forced,
		CreatedAt:  time.Now(),
	}
}
