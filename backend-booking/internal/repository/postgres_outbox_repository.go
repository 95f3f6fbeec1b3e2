package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/JideOgun/Pro-Dj-sub004/backend-booking/internal/domain"
	"github.com/JideOgun/Pro-Dj-sub004/pkg/telemetry"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
)

const outboxColumns = `
	id::text, aggregate_type, aggregate_id, event_type,
	payload, topic, partition_key, status,
	retry_count, max_retries, last_error,
	created_at, processed_at, published_at`

// PostgresOutboxRepository implements OutboxRepository using PostgreSQL
type PostgresOutboxRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresOutboxRepository creates a new PostgresOutboxRepository
func NewPostgresOutboxRepository(pool *pgxpool.Pool) *PostgresOutboxRepository {
	return &PostgresOutboxRepository{pool: pool}
}

// CreateTx inserts an outbox message within the caller's transaction
func (r *PostgresOutboxRepository) CreateTx(ctx context.Context, tx pgx.Tx, msg *domain.OutboxMessage) error {
	if msg.ID == "" {
		msg.ID = uuid.New().String()
	}
	if msg.Status == "" {
		msg.Status = domain.OutboxStatusPending
	}

	query := `
		INSERT INTO outbox (
			id, aggregate_type, aggregate_id, event_type,
			payload, topic, partition_key, status,
			retry_count, max_retries, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11
		)`

	_, err := tx.Exec(ctx, query,
		msg.ID,
		msg.AggregateType,
		msg.AggregateID,
		msg.EventType,
		msg.Payload,
		msg.Topic,
		msg.PartitionKey,
		msg.Status.String(),
		msg.RetryCount,
		msg.MaxRetries,
		msg.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create outbox message in transaction: %w", err)
	}
	return nil
}

// RelayPending implements OutboxRepository. Rows stay locked with
// FOR UPDATE SKIP LOCKED until the outcome is written, so concurrent
// relays never publish the same message.
func (r *PostgresOutboxRepository) RelayPending(
	ctx context.Context,
	limit int,
	retryFailed bool,
	publish func(context.Context, *domain.OutboxMessage) error,
) (int, int, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.outbox.relay_pending")
	defer span.End()

	if limit <= 0 {
		limit = 100
	}

	where := `status = 'pending'`
	if retryFailed {
		where = `status = 'failed' AND retry_count < max_retries`
	}
	query := `SELECT ` + outboxColumns + `
		FROM outbox
		WHERE ` + where + `
		ORDER BY created_at ASC
		LIMIT $1
		FOR UPDATE SKIP LOCKED`

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		telemetry.RecordError(span, err)
		return 0, 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	rows, err := tx.Query(ctx, query, limit)
	if err != nil {
		telemetry.RecordError(span, err)
		return 0, 0, fmt.Errorf("failed to get outbox messages: %w", err)
	}
	messages, err := scanOutboxMessages(rows)
	rows.Close()
	if err != nil {
		telemetry.RecordError(span, err)
		return 0, 0, err
	}

	var published, failed int
	for _, msg := range messages {
		now := time.Now()
		if perr := publish(ctx, msg); perr != nil {
			failed++
			_, err = tx.Exec(ctx, `
				UPDATE outbox SET
					status = 'failed',
					last_error = $2,
					retry_count = retry_count + 1,
					processed_at = $3
				WHERE id = $1`, msg.ID, perr.Error(), now)
		} else {
			published++
			_, err = tx.Exec(ctx, `
				UPDATE outbox SET
					status = 'published',
					processed_at = $2,
					published_at = $2
				WHERE id = $1`, msg.ID, now)
		}
		if err != nil {
			telemetry.RecordError(span, err)
			return 0, 0, fmt.Errorf("failed to record outbox outcome: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		telemetry.RecordError(span, err)
		return 0, 0, fmt.Errorf("failed to commit outbox relay: %w", err)
	}

	span.SetAttributes(
		attribute.Int("published", published),
		attribute.Int("failed", failed),
		attribute.Bool("retry_failed", retryFailed),
	)
	return published, failed, nil
}

// DeletePublished deletes old published messages for cleanup
func (r *PostgresOutboxRepository) DeletePublished(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := time.Now().Add(-olderThan)
	result, err := r.pool.Exec(ctx,
		`DELETE FROM outbox WHERE status = 'published' AND published_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete published messages: %w", err)
	}
	return result.RowsAffected(), nil
}

// CountByStatus returns message counts keyed by status
func (r *PostgresOutboxRepository) CountByStatus(ctx context.Context) (map[domain.OutboxStatus]int, error) {
	rows, err := r.pool.Query(ctx, `SELECT status, COUNT(*) FROM outbox GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("failed to count outbox messages: %w", err)
	}
	defer rows.Close()

	counts := make(map[domain.OutboxStatus]int)
	for rows.Next() {
		var (
			status string
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("failed to scan outbox count: %w", err)
		}
		counts[domain.OutboxStatus(status)] = n
	}
	return counts, rows.Err()
}

// scanOutboxMessages scans rows into OutboxMessage slice
func scanOutboxMessages(rows pgx.Rows) ([]*domain.OutboxMessage, error) {
	var messages []*domain.OutboxMessage

	for rows.Next() {
		msg := &domain.OutboxMessage{}
		var (
			status    string
			lastError *string
		)

		err := rows.Scan(
			&msg.ID,
			&msg.AggregateType,
			&msg.AggregateID,
			&msg.EventType,
			&msg.Payload,
			&msg.Topic,
			&msg.PartitionKey,
			&status,
			&msg.RetryCount,
			&msg.MaxRetries,
			&lastError,
			&msg.CreatedAt,
			&msg.ProcessedAt,
			&msg.PublishedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan outbox message: %w", err)
		}

		msg.Status = domain.OutboxStatus(status)
		msg.LastError = deref(lastError)
		messages = append(messages, msg)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating outbox messages: %w", err)
	}
	return messages, nil
}

var _ OutboxRepository = (*PostgresOutboxRepository)(nil)
