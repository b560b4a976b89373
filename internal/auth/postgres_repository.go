package auth

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const uniqueViolation pq.ErrorCode = "23505"

// PostgresRepository implements Repository using PostgreSQL. The unique index on
// users.email is what keeps concurrent first logins from creating two rows.
type PostgresRepository struct {
	db *sqlx.DB
}

// NewPostgresRepository creates a new PostgresRepository.
func NewPostgresRepository(db *sqlx.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const userColumns = `id, email, name, picture, google_id, refresh_token, created_at, updated_at`

// FindUserByEmail looks up a user by email address.
func (r *PostgresRepository) FindUserByEmail(ctx context.Context, email string) (*User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	var row userRow
	if err := r.db.GetContext(ctx, &row, query, email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return row.toUser(), nil
}

// FindUserByID looks up a user by primary key.
func (r *PostgresRepository) FindUserByID(ctx context.Context, id uuid.UUID) (*User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	var row userRow
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return row.toUser(), nil
}

// CreateUser inserts a new user. A unique violation on email maps to ErrDuplicateEmail.
func (r *PostgresRepository) CreateUser(ctx context.Context, user User) (User, error) {
	const query = `
		INSERT INTO users (id, email, name, picture, google_id, refresh_token, created_at, updated_at)
		VALUES (:id, :email, :name, :picture, :google_id, :refresh_token, :created_at, :updated_at)
	`

	if _, err := r.db.NamedExecContext(ctx, query, newUserRow(user)); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return User{}, ErrDuplicateEmail
		}
		return User{}, err
	}
	return user, nil
}

// UpdateUserLogin refreshes name and picture, and the refresh token when one is given.
func (r *PostgresRepository) UpdateUserLogin(ctx context.Context, id uuid.UUID, name, picture string, refreshToken *string) (User, error) {
	const query = `
		UPDATE users
		SET name = $2, picture = $3, refresh_token = COALESCE($4, refresh_token), updated_at = $5
		WHERE id = $1
		RETURNING ` + userColumns

	var row userRow
	if err := r.db.GetContext(ctx, &row, query, id, name, picture, refreshToken, time.Now().UTC()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrUserNotFound
		}
		return User{}, err
	}
	return *row.toUser(), nil
}

// ClearRefreshToken nulls the stored refresh token.
func (r *PostgresRepository) ClearRefreshToken(ctx context.Context, id uuid.UUID) error {
	const query = `UPDATE users SET refresh_token = NULL, updated_at = $2 WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id, time.Now().UTC())
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrUserNotFound
	}
	return nil
}

// userRow is a database row representation of User.
type userRow struct {
	ID           uuid.UUID      `db:"id"`
	Email        string         `db:"email"`
	Name         string         `db:"name"`
	Picture      string         `db:"picture"`
	GoogleID     string         `db:"google_id"`
	RefreshToken sql.NullString `db:"refresh_token"`
	CreatedAt    time.Time      `db:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at"`
}

func newUserRow(u User) userRow {
	row := userRow{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Picture:   u.Picture,
		GoogleID:  u.GoogleID,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
	if u.RefreshToken != nil {
		row.RefreshToken = sql.NullString{String: *u.RefreshToken, Valid: true}
	}
	return row
}

func (r *userRow) toUser() *User {
	user := &User{
		ID:        r.ID,
		Email:     r.Email,
		Name:      r.Name,
		Picture:   r.Picture,
		GoogleID:  r.GoogleID,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
	if r.RefreshToken.Valid {
		user.RefreshToken = stringPtr(r.RefreshToken.String)
	}
	return user
}
