package repository

import (
	"context"
	"time"

	"github.com/JideOgun/Pro-Dj-sub004/backend-booking/internal/domain"
	"github.com/jackc/pgx/v5"
)

// BookingRepository reads bookings. All writes go through StatusWriter.
type BookingRepository interface {
	// GetByID returns ErrBookingNotFound when absent
	GetByID(ctx context.Context, id string) (*domain.Booking, error)

	// GetByCheckoutSession resolves a booking from a payment checkout session
	GetByCheckoutSession(ctx context.Context, sessionID string) (*domain.Booking, error)

	// ListExpiredPending returns PENDING bookings created before cutoff, oldest first
	ListExpiredPending(ctx context.Context, cutoff time.Time, limit int) ([]*domain.Booking, error)

	// CountExpiredPending counts PENDING bookings created before cutoff
	CountExpiredPending(ctx context.Context, cutoff time.Time) (int, error)
}

// StatusUpdate is everything a single applied transition writes
type StatusUpdate struct {
	BookingID string
	// Expected is the status the caller read; the write only applies if it is unchanged
	Expected domain.BookingStatus
	Change   *domain.StatusChange
	// SetPaid sets is_paid and paid_at together with the status
	SetPaid bool
	// AssignDj binds the booking to this profile. The write then also
	// requires the booking to be unassigned.
	AssignDj      *domain.DjProfile
	EventType     domain.BookingEventType
	Notifications []*domain.Notification
}

// StatusWriter applies a status transition atomically
type StatusWriter interface {
	// ApplyStatusChange updates the booking with a compare-and-set on
	// Expected, then inserts the history row, notifications and outbox event
	// in the same transaction. It returns ErrBookingNotFound when the
	// booking is absent and ErrStatusChanged when the status moved or, with
	// AssignDj set, a DJ was assigned meanwhile. An empty reason keeps the
	// booking's previous status_reason.
	ApplyStatusChange(ctx context.Context, u *StatusUpdate) (*domain.Booking, error)
}

// DjProfileRepository reads DJ profiles
type DjProfileRepository interface {
	// ListAvailable returns accepting and approved DJs, excluding excludeID
	ListAvailable(ctx context.Context, excludeID string, limit int) ([]*domain.DjProfile, error)

	// GetDjProfile returns ErrDjProfileNotFound when absent
	GetDjProfile(ctx context.Context, id string) (*domain.DjProfile, error)

	// GetDjProfileByUserID returns the profile owned by userID
	GetDjProfileByUserID(ctx context.Context, userID string) (*domain.DjProfile, error)
}

// UserRepository reads users
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
}

// NotificationRepository persists notifications
type NotificationRepository interface {
	Create(ctx context.Context, n *domain.Notification) error
	CreateTx(ctx context.Context, tx pgx.Tx, n *domain.Notification) error
}

// OutboxRepository stores and relays outbox messages
type OutboxRepository interface {
	CreateTx(ctx context.Context, tx pgx.Tx, msg *domain.OutboxMessage) error

	// RelayPending locks up to limit pending messages, or failed ones with
	// retries left when retryFailed is set, calls publish for each and
	// records the outcome in the same transaction.
	RelayPending(ctx context.Context, limit int, retryFailed bool, publish func(context.Context, *domain.OutboxMessage) error) (published, failed int, err error)

	// DeletePublished removes published messages older than olderThan
	DeletePublished(ctx context.Context, olderThan time.Duration) (int64, error)

	// CountByStatus returns message counts keyed by status
	CountByStatus(ctx context.Context) (map[domain.OutboxStatus]int, error)
}

// SweepLock serialises timeout sweeps across replicas
type SweepLock interface {
	// TryAcquire returns acquired=false when another runner holds the lock
	TryAcquire(ctx context.Context) (release func(), acquired bool, err error)
}
