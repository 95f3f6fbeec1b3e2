package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/JideOgun/Pro-Dj-sub004/backend-booking/internal/domain"
	"github.com/JideOgun/Pro-Dj-sub004/pkg/telemetry"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// PostgresStatusWriter applies status transitions together with their
// history, notifications and outbox event in one transaction
type PostgresStatusWriter struct {
	pool          *pgxpool.Pool
	outbox        OutboxRepository
	notifications NotificationRepository
	topic         string
}

// NewPostgresStatusWriter creates a new PostgresStatusWriter. topic is the
// Kafka topic outbox events are addressed to.
func NewPostgresStatusWriter(pool *pgxpool.Pool, outbox OutboxRepository, notifications NotificationRepository, topic string) *PostgresStatusWriter {
	return &PostgresStatusWriter{
		pool:          pool,
		outbox:        outbox,
		notifications: notifications,
		topic:         topic,
	}
}

// ApplyStatusChange implements StatusWriter
func (w *PostgresStatusWriter) ApplyStatusChange(ctx context.Context, u *StatusUpdate) (*domain.Booking, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.booking.apply_status_change")
	defer span.End()

	if u == nil || u.Change == nil {
		return nil, fmt.Errorf("status update requires a change")
	}

	span.SetAttributes(
		attribute.String("booking_id", u.BookingID),
		attribute.String("from", u.Expected.String()),
		attribute.String("to", u.Change.ToStatus.String()),
		attribute.Bool("forced", u.Change.Forced),
	)

	tx, err := w.pool.Begin(ctx)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	booking, err := w.updateStatus(ctx, tx, u)
	if err != nil {
		if !errors.Is(err, domain.ErrStatusChanged) && !errors.Is(err, domain.ErrBookingNotFound) {
			telemetry.RecordError(span, err)
		} else {
			span.SetStatus(codes.Error, err.Error())
		}
		return nil, err
	}

	if err := insertHistory(ctx, tx, u.Change); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	for _, n := range u.Notifications {
		if n == nil || n.UserID == "" {
			continue
		}
		if err := w.notifications.CreateTx(ctx, tx, n); err != nil {
			telemetry.RecordError(span, err)
			return nil, err
		}
	}

	if u.EventType != "" {
		event := domain.NewBookingEvent(u.EventType, booking, u.Change, u.Change.ID)
		msg, err := domain.BookingOutboxEvent(w.topic, event)
		if err != nil {
			telemetry.RecordError(span, err)
			return nil, fmt.Errorf("failed to build outbox event: %w", err)
		}
		if err := w.outbox.CreateTx(ctx, tx, msg); err != nil {
			telemetry.RecordError(span, err)
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	span.SetStatus(codes.Ok, "")
	return booking, nil
}

// updateStatus performs the compare-and-set. Zero rows means the booking
// is missing, its status moved since the caller read it, or it got a DJ
// while AssignDj was set.
func (w *PostgresStatusWriter) updateStatus(ctx context.Context, tx pgx.Tx, u *StatusUpdate) (*domain.Booking, error) {
	query := `
		WITH b AS (
			UPDATE bookings SET
				status = $3,
				status_reason = COALESCE($4, status_reason),
				is_paid = CASE WHEN $5::boolean THEN true ELSE is_paid END,
				paid_at = CASE WHEN $5::boolean THEN COALESCE(paid_at, now()) ELSE paid_at END,
				dj_id = COALESCE($6::uuid, dj_id),
				updated_at = now()
			WHERE id = $1 AND status = $2
			  AND ($6::uuid IS NULL OR dj_id IS NULL)
			RETURNING *
		)
		SELECT ` + bookingColumns + `
		FROM b
		LEFT JOIN dj_profiles dp ON dp.id = b.dj_id`

	booking, err := scanBooking(tx.QueryRow(ctx, query,
		u.BookingID,
		u.Expected.String(),
		u.Change.ToStatus.String(),
		nullString(u.Change.Reason),
		u.SetPaid,
		nullString(assignDjID(u)),
	))
	if err == nil {
		return booking, nil
	}
	if !errors.Is(err, domain.ErrBookingNotFound) {
		return nil, fmt.Errorf("failed to update booking status: %w", err)
	}

	var exists bool
	if err := tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM bookings WHERE id = $1)`, u.BookingID).Scan(&exists); err != nil {
		return nil, fmt.Errorf("failed to check booking: %w", err)
	}
	if !exists {
		return nil, domain.ErrBookingNotFound
	}
	return nil, domain.ErrStatusChanged
}

func assignDjID(u *StatusUpdate) string {
	if u.AssignDj == nil {
		return ""
	}
	return u.AssignDj.ID
}

func insertHistory(ctx context.Context, tx pgx.Tx, c *domain.StatusChange) error {
	query := `
		INSERT INTO booking_status_history (
			id, booking_id, from_status, to_status, actor_id, reason, forced, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := tx.Exec(ctx, query,
		c.ID,
		c.BookingID,
		c.FromStatus.String(),
		c.ToStatus.String(),
		nullString(c.ActorID),
		c.Reason,
		c.Forced,
		c.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert status history: %w", err)
	}
	return nil
}

var _ StatusWriter = (*PostgresStatusWriter)(nil)
