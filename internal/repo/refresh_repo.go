package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/deligo/server/internal/model"
)

// RefreshRepo manages the per-account refresh-token set.
type RefreshRepo interface {
	Create(ctx context.Context, userID uuid.UUID, tokenHash string, expiresAt time.Time) error
	// FindUserByTokenHash matches the hash AND non-expiry in one query so an
	// entry cannot expire between a match check and an expiry check.
	FindUserByTokenHash(ctx context.Context, tokenHash string) (model.User, error)
	// Rotate removes the old entry and inserts the replacement in one
	// transaction; at no point are both or neither valid.
	Rotate(ctx context.Context, oldHash, newHash string, newExpiresAt time.Time) error
	// DeleteByTokenHash removes a matching entry; reports whether one existed.
	DeleteByTokenHash(ctx context.Context, tokenHash string) (bool, error)
	DeleteAllForUser(ctx context.Context, userID uuid.UUID) error
	DeleteExpired(ctx context.Context) (int64, error)
}

type refreshRepo struct {
	db *sql.DB
}

// NewRefreshRepo creates a new RefreshRepo instance
func NewRefreshRepo(db *sql.DB) RefreshRepo {
	return &refreshRepo{db: db}
}

func (r *refreshRepo) Create(ctx context.Context, userID uuid.UUID, tokenHash string, expiresAt time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO refresh_tokens (user_id, token_hash, expires_at)
		VALUES ($1, $2, $3)
	`, userID, tokenHash, expiresAt)
	if err != nil {
		return fmt.Errorf("insert refresh token: %w", err)
	}
	return nil
}

func (r *refreshRepo) FindUserByTokenHash(ctx context.Context, tokenHash string) (model.User, error) {
	var u model.User
	var idStr string
	err := r.db.QueryRowContext(ctx, `
		SELECT u.id, u.firstname, u.lastname, u.email, u.age, u.gender, u.address,
		       u.role, u.avatar_url, u.last_login, u.created_at, u.updated_at
		FROM refresh_tokens rt
		JOIN users u ON u.id = rt.user_id
		WHERE rt.token_hash = $1 AND rt.expires_at > now()
	`, tokenHash).Scan(
		&idStr, &u.Firstname, &u.Lastname, &u.Email, &u.Age, &u.Gender,
		&u.Address, &u.Role, &u.AvatarURL, &u.LastLogin, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, ErrNotFound
		}
		return model.User{}, fmt.Errorf("find refresh token: %w", err)
	}
	if u.ID, err = uuid.Parse(idStr); err != nil {
		return model.User{}, fmt.Errorf("parse user ID: %w", err)
	}
	return u, nil
}

func (r *refreshRepo) Rotate(ctx context.Context, oldHash, newHash string, newExpiresAt time.Time) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var userID uuid.UUID
	err = tx.QueryRowContext(ctx, `
		DELETE FROM refresh_tokens
		WHERE token_hash = $1 AND expires_at > now()
		RETURNING user_id
	`, oldHash).Scan(&userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("delete old refresh token: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO refresh_tokens (user_id, token_hash, expires_at)
		VALUES ($1, $2, $3)
	`, userID, newHash, newExpiresAt); err != nil {
		return fmt.Errorf("insert new refresh token: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit rotation: %w", err)
	}
	return nil
}

func (r *refreshRepo) DeleteByTokenHash(ctx context.Context, tokenHash string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM refresh_tokens WHERE token_hash = $1
	`, tokenHash)
	if err != nil {
		return false, fmt.Errorf("delete refresh token: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (r *refreshRepo) DeleteAllForUser(ctx context.Context, userID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM refresh_tokens WHERE user_id = $1
	`, userID)
	if err != nil {
		return fmt.Errorf("delete refresh tokens for user: %w", err)
	}
	return nil
}

// DeleteExpired is housekeeping only; FindUserByTokenHash enforces expiry
// on its own, so correctness never depends on the sweep cadence.
func (r *refreshRepo) DeleteExpired(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM refresh_tokens WHERE expires_at <= now()
	`)
	if err != nil {
		return 0, fmt.Errorf("delete expired refresh tokens: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}
