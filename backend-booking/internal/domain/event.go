package domain

import "time"

// BookingEventType is the Kafka event_type of a lifecycle event
type BookingEventType string

const (
	BookingEventAccepted          BookingEventType = "booking.accepted"
	BookingEventConfirmed         BookingEventType = "booking.confirmed"
	BookingEventDeclined          BookingEventType = "booking.declined"
	BookingEventCancelled         BookingEventType = "booking.cancelled"
	BookingEventExpired           BookingEventType = "booking.expired"
	BookingEventPaid              BookingEventType = "booking.paid"
	BookingEventStatusOverridden  BookingEventType = "booking.status_overridden"
	BookingEventRecoveryRequested BookingEventType = "booking.recovery_requested"
)

// EventTypeForStatus maps a regular transition target to its event type
func EventTypeForStatus(s BookingStatus) BookingEventType {
	switch s {
	case BookingStatusAccepted:
		return BookingEventAccepted
	case BookingStatusConfirmed:
		return BookingEventConfirmed
	case BookingStatusDeclined:
		return BookingEventDeclined
	default:
		return BookingEventCancelled
	}
}

// BookingEvent is the payload published for every applied transition
type BookingEvent struct {
	EventID      string           `json:"event_id"`
	EventType    BookingEventType `json:"event_type"`
	OccurredAt   time.Time        `json:"occurred_at"`
	BookingID    string           `json:"booking_id"`
	ClientUserID string           `json:"client_user_id"`
	DjID         string           `json:"dj_id,omitempty"`
	FromStatus   BookingStatus    `json:"from_status,omitempty"`
	ToStatus     BookingStatus    `json:"to_status"`
	ActorID      string           `json:"actor_id,omitempty"`
	Reason       string           `json:"reason,omitempty"`
	Forced       bool             `json:"forced,omitempty"`
	IsPaid       bool             `json:"is_paid"`
	EventDate    time.Time        `json:"event_date"`
}

// NewBookingEvent builds the event for a change already applied to booking
func NewBookingEvent(eventType BookingEventType, booking *Booking, change *StatusChange, eventID string) *BookingEvent {
	e := &BookingEvent{
		EventID:      eventID,
		EventType:    eventType,
		OccurredAt:   time.Now().UTC(),
		BookingID:    booking.ID,
		ClientUserID: booking.ClientUserID,
		DjID:         booking.DjID,
		ToStatus:     booking.Status,
		IsPaid:       booking.IsPaid,
		EventDate:    booking.EventDate,
	}
	if change != nil {
		e.FromStatus = change.FromStatus
		e.ActorID = change.ActorID
		e.Reason = change.Reason
		e.Forced = change.Forced
	}
	return e
}

// Key is the Kafka partition key; all events of a booking stay ordered
func (e *BookingEvent) Key() string {
	return e.BookingID
}

// RecoveryRequestedEvent asks downstream matching to re-open a slot
type RecoveryRequestedEvent struct {
	EventID          string           `json:"event_id"`
	EventType        BookingEventType `json:"event_type"`
	OccurredAt       time.Time        `json:"occurred_at"`
	BookingID        string           `json:"booking_id"`
	ClientUserID     string           `json:"client_user_id"`
	PreviousDjID     string           `json:"previous_dj_id,omitempty"`
	EventKind        string           `json:"event_kind"`
	EventDate        time.Time        `json:"event_date"`
	Reason           string           `json:"reason"`
	AlternativeDjIDs []string         `json:"alternative_dj_ids"`
}

// PaymentEvent is consumed from the payment-events topic
type PaymentEvent struct {
	EventType         string    `json:"event_type"`
	BookingID         string    `json:"booking_id"`
	PaymentID         string    `json:"payment_id,omitempty"`
	CheckoutSessionID string    `json:"checkout_session_id,omitempty"`
	Amount            int64     `json:"amount,omitempty"`
	Currency          string    `json:"currency,omitempty"`
	Timestamp         time.Time `json:"timestamp"`
}

// PaymentEventSucceeded is the only payment event type acted upon
const PaymentEventSucceeded = "payment.succeeded"
