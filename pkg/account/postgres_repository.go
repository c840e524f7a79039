package account

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository handles database operations for users
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository creates a new postgres-backed user repository
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const userColumns = `id, username, email, display_name, password_hash, is_verified, created_at, deleted_at`

func scanUser(row pgx.Row) (*User, error) {
	var u User
	err := row.Scan(
		&u.ID,
		&u.Username,
		&u.Email,
		&u.DisplayName,
		&u.PasswordHash,
		&u.IsVerified,
		&u.CreatedAt,
		&u.DeletedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

// Create creates a new user
func (r *PostgresRepository) Create(ctx context.Context, params CreateUserParams) (*User, error) {
	query := `
		INSERT INTO users (username, email, display_name, password_hash)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + userColumns

	user, err := scanUser(r.db.QueryRow(ctx, query,
		params.Username, params.Email, params.DisplayName, params.PasswordHash))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			switch pgErr.ConstraintName {
			case "users_username_key":
				return nil, ErrUsernameTaken
			case "users_email_key":
				return nil, ErrEmailTaken
			}
			return nil, ErrUsernameTaken
		}
		return nil, err
	}
	return user, nil
}

// GetByID gets a live user by ID
func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE id = $1
		AND deleted_at IS NULL
	`
	return scanUser(r.db.QueryRow(ctx, query, id))
}

// GetByIDIncludingDeleted gets a user by ID, bypassing the live-only exclusion
func (r *PostgresRepository) GetByIDIncludingDeleted(ctx context.Context, id int64) (*User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE id = $1
	`
	return scanUser(r.db.QueryRow(ctx, query, id))
}

// GetByUsername gets a live user by normalized username
func (r *PostgresRepository) GetByUsername(ctx context.Context, username string) (*User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE username = $1
		AND deleted_at IS NULL
	`
	return scanUser(r.db.QueryRow(ctx, query, username))
}

// GetByEmail gets a live user by email
func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE email = $1
		AND deleted_at IS NULL
	`
	return scanUser(r.db.QueryRow(ctx, query, email))
}

// UsernameExists checks whether a username exists, including deleted accounts
func (r *PostgresRepository) UsernameExists(ctx context.Context, username string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM users WHERE username = $1
		)
	`

	var exists bool
	err := r.db.QueryRow(ctx, query, username).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

// SetVerified marks the user as verified
func (r *PostgresRepository) SetVerified(ctx context.Context, id int64) error {
	query := `
		UPDATE users
		SET is_verified = TRUE
		WHERE id = $1
	`

	_, err := r.db.Exec(ctx, query, id)
	return err
}

// MarkDeleted sets the logical deletion marker
func (r *PostgresRepository) MarkDeleted(ctx context.Context, id int64) error {
	query := `
		UPDATE users
		SET deleted_at = NOW() AT TIME ZONE 'UTC'
		WHERE id = $1
		AND deleted_at IS NULL
	`

	_, err := r.db.Exec(ctx, query, id)
	return err
}

// ClearDeleted clears the logical deletion marker
func (r *PostgresRepository) ClearDeleted(ctx context.Context, id int64) error {
	query := `
		UPDATE users
		SET deleted_at = NULL
		WHERE id = $1
	`

	_, err := r.db.Exec(ctx, query, id)
	return err
}

// UpdatePasswordHash replaces the stored password hash
func (r *PostgresRepository) UpdatePasswordHash(ctx context.Context, id int64, passwordHash string) error {
	query := `
		UPDATE users
		SET password_hash = $2
		WHERE id = $1
	`

	_, err := r.db.Exec(ctx, query, id, passwordHash)
	return err
}
