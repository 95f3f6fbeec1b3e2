package repository

import (
	"context"
	"fmt"

	"github.com/JideOgun/Pro-Dj-sub004/backend-booking/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const insertNotification = `
	INSERT INTO notifications (id, user_id, type, title, message, booking_id, is_read, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

// PostgresNotificationRepository implements NotificationRepository
type PostgresNotificationRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresNotificationRepository creates a new PostgresNotificationRepository
func NewPostgresNotificationRepository(pool *pgxpool.Pool) *PostgresNotificationRepository {
	return &PostgresNotificationRepository{pool: pool}
}

// Create inserts a notification outside any transaction
func (r *PostgresNotificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	if _, err := r.pool.Exec(ctx, insertNotification, notificationArgs(n)...); err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

// CreateTx inserts a notification within a transaction
func (r *PostgresNotificationRepository) CreateTx(ctx context.Context, tx pgx.Tx, n *domain.Notification) error {
	if _, err := tx.Exec(ctx, insertNotification, notificationArgs(n)...); err != nil {
		return fmt.Errorf("failed to create notification in transaction: %w", err)
	}
	return nil
}

func notificationArgs(n *domain.Notification) []interface{} {
	return []interface{}{
		n.ID,
		n.UserID,
		string(n.Type),
		n.Title,
		n.Message,
		nullString(n.BookingID),
		n.IsRead,
		n.CreatedAt,
	}
}

var _ NotificationRepository = (*PostgresNotificationRepository)(nil)
