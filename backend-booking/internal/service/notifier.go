package service

import (
	"fmt"
	"strings"

	"github.com/JideOgun/Pro-Dj-sub004/backend-booking/internal/domain"
)

// transitionKind distinguishes why a booking changed status
type transitionKind int

const (
	kindRegular transitionKind = iota
	kindDecline
	kindExpiry
	kindPayment
	kindOverride
)

// buildNotifications returns the in-app notifications for a transition.
// The client is always notified; the assigned DJ is notified on declines,
// cancellations and overrides.
func buildNotifications(b *domain.Booking, to domain.BookingStatus, reason string, kind transitionKind) []*domain.Notification {
	typ, title, clientMsg := notificationText(b, to, reason, kind)

	out := []*domain.Notification{
		domain.NewNotification(b.ClientUserID, typ, title, clientMsg, b.ID),
	}

	notifyDJ := kind == kindDecline || kind == kindOverride ||
		(kind == kindRegular && (to == domain.BookingStatusDeclined || to == domain.BookingStatusCancelled))
	if notifyDJ && b.DjUserID != "" {
		out = append(out, domain.NewNotification(b.DjUserID, typ, title, djMessage(b, to, reason, kind), b.ID))
	}
	return out
}

func notificationText(b *domain.Booking, to domain.BookingStatus, reason string, kind transitionKind) (domain.NotificationType, string, string) {
	event := fmt.Sprintf("%s on %s", b.EventType, b.EventDate.Format("Jan 2, 2006"))

	switch kind {
	case kindExpiry:
		return domain.NotificationBookingExpired, "Booking request expired",
			withReason(fmt.Sprintf("Your booking request for %s was cancelled", event), reason)
	case kindDecline:
		return domain.NotificationBookingDeclined, "Booking declined",
			withReason(fmt.Sprintf("Your booking for %s was declined", event), reason)
	case kindPayment:
		return domain.NotificationPaymentReceived, "Payment received",
			fmt.Sprintf("We received your payment. Your booking for %s is confirmed.", event)
	case kindOverride:
		return domain.NotificationStatusOverridden, "Booking status updated",
			withReason(fmt.Sprintf("An administrator set your booking for %s to %s", event, statusLabel(to)), reason)
	}

	switch to {
	case domain.BookingStatusAccepted:
		return domain.NotificationBookingAccepted, "Booking accepted",
			withReason(fmt.Sprintf("Your booking for %s was accepted", event), reason)
	case domain.BookingStatusConfirmed:
		return domain.NotificationBookingConfirmed, "Booking confirmed",
			withReason(fmt.Sprintf("Your booking for %s is confirmed", event), reason)
	case domain.BookingStatusDeclined:
		return domain.NotificationBookingDeclined, "Booking declined",
			withReason(fmt.Sprintf("Your booking for %s was declined", event), reason)
	default:
		return domain.NotificationBookingCancelled, "Booking cancelled",
			withReason(fmt.Sprintf("Your booking for %s was cancelled", event), reason)
	}
}

func djMessage(b *domain.Booking, to domain.BookingStatus, reason string, kind transitionKind) string {
	event := fmt.Sprintf("%s on %s", b.EventType, b.EventDate.Format("Jan 2, 2006"))
	if kind == kindOverride {
		return withReason(fmt.Sprintf("An administrator set the booking for %s to %s", event, statusLabel(to)), reason)
	}
	return withReason(fmt.Sprintf("The booking for %s is now %s", event, statusLabel(to)), reason)
}

func withReason(msg, reason string) string {
	if reason == "" {
		return msg + "."
	}
	return fmt.Sprintf("%s. Reason: %s", msg, reason)
}

func statusLabel(s domain.BookingStatus) string {
	return strings.ToLower(s.String())
}
