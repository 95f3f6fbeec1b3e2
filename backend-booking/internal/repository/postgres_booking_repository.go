package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/JideOgun/Pro-Dj-sub004/backend-booking/internal/domain"
	"github.com/JideOgun/Pro-Dj-sub004/pkg/telemetry"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// bookingColumns selects a booking joined with its DJ's user id. Callers
// alias bookings as b and dj_profiles as dp.
const bookingColumns = `
	b.id::text, b.client_user_id::text, b.dj_id::text, dp.user_id::text,
	b.event_type, b.event_date, b.status, b.status_reason,
	b.is_paid, b.paid_at, b.checkout_session_id,
	b.created_at, b.updated_at`

// PostgresBookingRepository implements BookingRepository using pgxpool
type PostgresBookingRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresBookingRepository creates a new PostgresBookingRepository
func NewPostgresBookingRepository(pool *pgxpool.Pool) *PostgresBookingRepository {
	return &PostgresBookingRepository{pool: pool}
}

// GetByID retrieves a booking by ID
func (r *PostgresBookingRepository) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.booking.get_by_id")
	defer span.End()

	span.SetAttributes(attribute.String("booking_id", id))

	query := `SELECT ` + bookingColumns + `
		FROM bookings b
		LEFT JOIN dj_profiles dp ON dp.id = b.dj_id
		WHERE b.id = $1`

	booking, err := scanBooking(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, domain.ErrBookingNotFound) {
			span.SetStatus(codes.Error, "not found")
			return nil, err
		}
		telemetry.RecordError(span, err)
		return nil, err
	}

	span.SetStatus(codes.Ok, "")
	return booking, nil
}

// GetByCheckoutSession retrieves a booking by its checkout session id
func (r *PostgresBookingRepository) GetByCheckoutSession(ctx context.Context, sessionID string) (*domain.Booking, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.booking.get_by_checkout_session")
	defer span.End()

	query := `SELECT ` + bookingColumns + `
		FROM bookings b
		LEFT JOIN dj_profiles dp ON dp.id = b.dj_id
		WHERE b.checkout_session_id = $1`

	booking, err := scanBooking(r.pool.QueryRow(ctx, query, sessionID))
	if err != nil {
		if !errors.Is(err, domain.ErrBookingNotFound) {
			telemetry.RecordError(span, err)
		}
		return nil, err
	}

	span.SetAttributes(attribute.String("booking_id", booking.ID))
	return booking, nil
}

// ListExpiredPending returns PENDING bookings created before cutoff
func (r *PostgresBookingRepository) ListExpiredPending(ctx context.Context, cutoff time.Time, limit int) ([]*domain.Booking, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.booking.list_expired_pending")
	defer span.End()

	if limit <= 0 {
		limit = 100
	}
	span.SetAttributes(attribute.Int("limit", limit), attribute.String("cutoff", cutoff.Format(time.RFC3339)))

	query := `SELECT ` + bookingColumns + `
		FROM bookings b
		LEFT JOIN dj_profiles dp ON dp.id = b.dj_id
		WHERE b.status = $1 AND b.created_at < $2
		ORDER BY b.created_at ASC
		LIMIT $3`

	rows, err := r.pool.Query(ctx, query, domain.BookingStatusPending.String(), cutoff, limit)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to list expired bookings: %w", err)
	}
	defer rows.Close()

	var bookings []*domain.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			telemetry.RecordError(span, err)
			return nil, err
		}
		bookings = append(bookings, b)
	}
	if err := rows.Err(); err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("error iterating bookings: %w", err)
	}

	span.SetAttributes(attribute.Int("count", len(bookings)))
	return bookings, nil
}

// CountExpiredPending counts PENDING bookings created before cutoff
func (r *PostgresBookingRepository) CountExpiredPending(ctx context.Context, cutoff time.Time) (int, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.booking.count_expired_pending")
	defer span.End()

	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM bookings WHERE status = $1 AND created_at < $2`,
		domain.BookingStatusPending.String(), cutoff,
	).Scan(&count)
	if err != nil {
		telemetry.RecordError(span, err)
		return 0, fmt.Errorf("failed to count expired bookings: %w", err)
	}

	span.SetAttributes(attribute.Int("count", count))
	return count, nil
}

// scanBooking scans bookingColumns from a row
func scanBooking(row pgx.Row) (*domain.Booking, error) {
	booking := &domain.Booking{}
	var (
		status       string
		djID         *string
		djUserID     *string
		statusReason *string
		sessionID    *string
	)

	err := row.Scan(
		&booking.ID,
		&booking.ClientUserID,
		&djID,
		&djUserID,
		&booking.EventType,
		&booking.EventDate,
		&status,
		&statusReason,
		&booking.IsPaid,
		&booking.PaidAt,
		&sessionID,
		&booking.CreatedAt,
		&booking.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrBookingNotFound
		}
		return nil, fmt.Errorf("failed to scan booking: %w", err)
	}

	booking.Status = domain.BookingStatus(status)
	booking.DjID = deref(djID)
	booking.DjUserID = deref(djUserID)
	booking.StatusReason = deref(statusReason)
	booking.CheckoutSessionID = deref(sessionID)
	return booking, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// nullString converts empty strings to SQL NULL
func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

var _ BookingRepository = (*PostgresBookingRepository)(nil)
