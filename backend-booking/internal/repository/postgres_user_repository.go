package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/JideOgun/Pro-Dj-sub004/backend-booking/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresUserRepository implements UserRepository and DjProfileRepository
type PostgresUserRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresUserRepository creates a new PostgresUserRepository
func NewPostgresUserRepository(pool *pgxpool.Pool) *PostgresUserRepository {
	return &PostgresUserRepository{pool: pool}
}

// GetByID retrieves a user by ID
func (r *PostgresUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	user := &domain.User{}
	var role string

	err := r.pool.QueryRow(ctx,
		`SELECT id::text, email, name, role FROM users WHERE id = $1`, id,
	).Scan(&user.ID, &user.Email, &user.Name, &role)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	user.Role = domain.ParseRole(role)
	return user, nil
}

// ListAvailable returns DJs accepting bookings and approved by an admin,
// newest first. excludeID may be empty.
func (r *PostgresUserRepository) ListAvailable(ctx context.Context, excludeID string, limit int) ([]*domain.DjProfile, error) {
	if limit <= 0 {
		limit = 5
	}

	query := `
		SELECT id::text, user_id::text, stage_name, is_accepting_bookings, is_approved_by_admin
		FROM dj_profiles
		WHERE is_accepting_bookings AND is_approved_by_admin
		  AND ($1::uuid IS NULL OR id <> $1::uuid)
		ORDER BY created_at DESC
		LIMIT $2`

	rows, err := r.pool.Query(ctx, query, nullString(excludeID), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list available DJs: %w", err)
	}
	defer rows.Close()

	var profiles []*domain.DjProfile
	for rows.Next() {
		p := &domain.DjProfile{}
		if err := rows.Scan(&p.ID, &p.UserID, &p.StageName, &p.IsAcceptingBookings, &p.IsApprovedByAdmin); err != nil {
			return nil, fmt.Errorf("failed to scan dj profile: %w", err)
		}
		profiles = append(profiles, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating dj profiles: %w", err)
	}
	return profiles, nil
}

// GetDjProfile retrieves a DJ profile by ID
func (r *PostgresUserRepository) GetDjProfile(ctx context.Context, id string) (*domain.DjProfile, error) {
	return r.getDjProfile(ctx, `WHERE id = $1`, id)
}

// GetDjProfileByUserID retrieves the DJ profile owned by a user
func (r *PostgresUserRepository) GetDjProfileByUserID(ctx context.Context, userID string) (*domain.DjProfile, error) {
	return r.getDjProfile(ctx, `WHERE user_id = $1`, userID)
}

func (r *PostgresUserRepository) getDjProfile(ctx context.Context, where string, arg string) (*domain.DjProfile, error) {
	query := `
		SELECT id::text, user_id::text, stage_name, is_accepting_bookings, is_approved_by_admin
		FROM dj_profiles ` + where

	p := &domain.DjProfile{}
	err := r.pool.QueryRow(ctx, query, arg).
		Scan(&p.ID, &p.UserID, &p.StageName, &p.IsAcceptingBookings, &p.IsApprovedByAdmin)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrDjProfileNotFound
		}
		return nil, fmt.Errorf("failed to get dj profile: %w", err)
	}
	return p, nil
}

var (
	_ UserRepository      = (*PostgresUserRepository)(nil)
	_ DjProfileRepository = (*PostgresUserRepository)(nil)
)
