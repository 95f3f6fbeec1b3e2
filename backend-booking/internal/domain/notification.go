package domain

import (
	"time"

	"github.com/google/uuid"
)

// NotificationType classifies in-app notifications
type NotificationType string

const (
	NotificationBookingAccepted  NotificationType = "BOOKING_ACCEPTED"
	NotificationBookingConfirmed NotificationType = "BOOKING_CONFIRMED"
	NotificationBookingDeclined  NotificationType = "BOOKING_DECLINED"
	NotificationBookingCancelled NotificationType = "BOOKING_CANCELLED"
	NotificationBookingExpired   NotificationType = "BOOKING_EXPIRED"
	NotificationStatusOverridden NotificationType = "BOOKING_STATUS_OVERRIDDEN"
	NotificationPaymentReceived  NotificationType = "PAYMENT_RECEIVED"
	NotificationAlternativeDJs   NotificationType = "ALTERNATIVE_DJS_AVAILABLE"
)

// Notification is written by the lifecycle manager and read by the UI
type Notification struct {
	ID        string           `json:"id"`
	UserID    string           `json:"user_id"`
	Type      NotificationType `json:"type"`
	Title     string           `json:"title"`
	Message   string           `json:"message"`
	BookingID string           `json:"booking_id,omitempty"`
	IsRead    bool             `json:"is_read"`
	CreatedAt time.Time        `json:"created_at"`
}

// NewNotification creates an unread notification about a booking
func NewNotification(userID string, typ NotificationType, title, message, bookingID string) *Notification {
	return &Notification{
		ID:        uuid.New().String(),
		UserID:    userID,
		Type:      typ,
		Title:     title,
		Message:   message,
		BookingID: bookingID,
		CreatedAt: time.Now(),
	}
}
