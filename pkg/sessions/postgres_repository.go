package sessions

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository handles database operations for sessions. Values live in
// a jsonb column; SetValue is a single UPDATE so concurrent requests within
// one session cannot interleave a read-modify-write.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository creates a new postgres-backed session repository
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create creates a new session
func (r *PostgresRepository) Create(ctx context.Context, expiresAt time.Time) (*Session, error) {
	query := `
		INSERT INTO sessions (expires_at)
		VALUES ($1)
		RETURNING id, user_id, data, created_at, expires_at, revoked_at
	`
	return r.scan(r.db.QueryRow(ctx, query, expiresAt))
}

// Get gets a live session by ID
func (r *PostgresRepository) Get(ctx context.Context, id uuid.UUID) (*Session, error) {
	query := `
		SELECT id, user_id, data, created_at, expires_at, revoked_at
		FROM sessions
		WHERE id = $1
		AND revoked_at IS NULL
		AND expires_at > NOW() AT TIME ZONE 'UTC'
	`
	return r.scan(r.db.QueryRow(ctx, query, id))
}

// SetUser binds a user to the session
func (r *PostgresRepository) SetUser(ctx context.Context, id uuid.UUID, userID int64) error {
	query := `
		UPDATE sessions
		SET user_id = $2
		WHERE id = $1
		AND revoked_at IS NULL
	`

	tag, err := r.db.Exec(ctx, query, id, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// SetValue sets a key-value entry on the session
func (r *PostgresRepository) SetValue(ctx context.Context, id uuid.UUID, key, value string) error {
	query := `
		UPDATE sessions
		SET data = data || jsonb_build_object($2::text, $3::text)
		WHERE id = $1
		AND revoked_at IS NULL
	`

	tag, err := r.db.Exec(ctx, query, id, key, value)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// GetValue gets a key-value entry from the session
func (r *PostgresRepository) GetValue(ctx context.Context, id uuid.UUID, key string) (string, error) {
	query := `
		SELECT data ->> $2
		FROM sessions
		WHERE id = $1
		AND revoked_at IS NULL
	`

	var value *string
	err := r.db.QueryRow(ctx, query, id, key).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrSessionNotFound
		}
		return "", err
	}
	if value == nil {
		return "", ErrValueNotFound
	}
	return *value, nil
}

// Revoke revokes a session
func (r *PostgresRepository) Revoke(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE sessions
		SET revoked_at = NOW() AT TIME ZONE 'UTC'
		WHERE id = $1
		AND revoked_at IS NULL
	`

	_, err := r.db.Exec(ctx, query, id)
	return err
}

// DeleteExpired removes expired sessions
func (r *PostgresRepository) DeleteExpired(ctx context.Context) error {
	query := `
		DELETE FROM sessions
		WHERE expires_at < NOW() AT TIME ZONE 'UTC'
	`

	_, err := r.db.Exec(ctx, query)
	return err
}

func (r *PostgresRepository) scan(row pgx.Row) (*Session, error) {
	var s Session
	err := row.Scan(
		&s.ID,
		&s.UserID,
		&s.Values,
		&s.CreatedAt,
		&s.ExpiresAt,
		&s.RevokedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return &s, nil
}
