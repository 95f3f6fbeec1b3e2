package service

import (
	"context"
	"fmt"
	"time"

	"github.com/JideOgun/Pro-Dj-sub004/backend-booking/internal/domain"
	"github.com/JideOgun/Pro-Dj-sub004/backend-booking/internal/repository"
	"github.com/JideOgun/Pro-Dj-sub004/pkg/telemetry"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

// RejectionRecovery runs follow-up actions after a booking is declined or expires
type RejectionRecovery interface {
	Recover(ctx context.Context, booking *domain.Booking, reason string) error
}

// rejectionRecovery suggests alternative DJs to the client and asks
// downstream matching to re-open the slot
type rejectionRecovery struct {
	djRepo        repository.DjProfileRepository
	notifications repository.NotificationRepository
	publisher     EventPublisher
	djLimit       int
}

// NewRejectionRecovery creates the default RejectionRecovery
func NewRejectionRecovery(
	djRepo repository.DjProfileRepository,
	notifications repository.NotificationRepository,
	publisher EventPublisher,
	djLimit int,
) RejectionRecovery {
	if djLimit <= 0 {
		djLimit = 5
	}
	if publisher == nil {
		publisher = NewNoOpEventPublisher()
	}
	return &rejectionRecovery{
		djRepo:        djRepo,
		notifications: notifications,
		publisher:     publisher,
		djLimit:       djLimit,
	}
}

// Recover implements RejectionRecovery
func (r *rejectionRecovery) Recover(ctx context.Context, booking *domain.Booking, reason string) error {
	ctx, span := telemetry.StartSpan(ctx, "service.recovery.recover")
	defer span.End()

	span.SetAttributes(attribute.String("booking_id", booking.ID))

	alternatives, err := r.djRepo.ListAvailable(ctx, booking.DjID, r.djLimit)
	if err != nil {
		telemetry.RecordError(span, err)
		return fmt.Errorf("failed to list available DJs: %w", err)
	}

	ids := make([]string, 0, len(alternatives))
	for _, dj := range alternatives {
		ids = append(ids, dj.ID)
	}
	span.SetAttributes(attribute.Int("alternatives", len(ids)))

	n := domain.NewNotification(
		booking.ClientUserID,
		domain.NotificationAlternativeDJs,
		"Other DJs are available",
		recoveryMessage(reason, len(ids)),
		booking.ID,
	)
	if err := r.notifications.Create(ctx, n); err != nil {
		telemetry.RecordError(span, err)
		return fmt.Errorf("failed to notify client: %w", err)
	}

	event := &domain.RecoveryRequestedEvent{
		EventID:          uuid.New().String(),
		EventType:        domain.BookingEventRecoveryRequested,
		OccurredAt:       time.Now().UTC(),
		BookingID:        booking.ID,
		ClientUserID:     booking.ClientUserID,
		PreviousDjID:     booking.DjID,
		EventKind:        booking.EventType,
		EventDate:        booking.EventDate,
		Reason:           reason,
		AlternativeDjIDs: ids,
	}
	if err := r.publisher.PublishRecoveryRequested(ctx, event); err != nil {
		telemetry.RecordError(span, err)
		return fmt.Errorf("failed to publish recovery request: %w", err)
	}

	return nil
}

func recoveryMessage(reason string, available int) string {
	switch available {
	case 0:
		return fmt.Sprintf("Your booking was cancelled: %s. We will let you know when other DJs become available.", reason)
	case 1:
		return fmt.Sprintf("Your booking was cancelled: %s. 1 other DJ is available for your event.", reason)
	default:
		return fmt.Sprintf("Your booking was cancelled: %s. %d other DJs are available for your event.", reason, available)
	}
}
