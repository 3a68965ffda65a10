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

// PendingRepo manages registration staging records.
type PendingRepo interface {
	// Replace deletes any existing pending registration for the email and
	// inserts the new one in a single transaction.
	Replace(ctx context.Context, p model.PendingRegistration) (model.PendingRegistration, error)
	// GetFresh returns the pending registration for the email, ignoring
	// (and purging) rows older than maxAge. The staging TTL is a backstop
	// independent of the OTP's own expiry.
	GetFresh(ctx context.Context, email string, maxAge time.Duration) (model.PendingRegistration, error)
	UpdateOTP(ctx context.Context, id uuid.UUID, otpHash string, expiresAt time.Time) error
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteStale(ctx context.Context, maxAge time.Duration) (int64, error)
}

type pendingRepo struct {
	db *sql.DB
}

// NewPendingRepo creates a new PendingRepo instance
func NewPendingRepo(db *sql.DB) PendingRepo {
	return &pendingRepo{db: db}
}

const pendingColumns = `id, firstname, lastname, email, age, gender, address, password_hash, otp_hash, otp_expires_at, created_at`

func (r *pendingRepo) Replace(ctx context.Context, p model.PendingRegistration) (model.PendingRegistration, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return model.PendingRegistration{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM pending_registrations WHERE lower(email) = lower($1)
	`, p.Email); err != nil {
		return model.PendingRegistration{}, fmt.Errorf("delete existing pending registration: %w", err)
	}

	var idStr string
	err = tx.QueryRowContext(ctx, `
		INSERT INTO pending_registrations (firstname, lastname, email, age, gender, address, password_hash, otp_hash, otp_expires_at)
		VALUES ($1, $2, lower($3), $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at
	`, p.Firstname, p.Lastname, p.Email, p.Age, p.Gender, p.Address, p.PasswordHash, p.OTPHash, p.OTPExpiresAt).
		Scan(&idStr, &p.CreatedAt)
	if err != nil {
		return model.PendingRegistration{}, fmt.Errorf("insert pending registration: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return model.PendingRegistration{}, fmt.Errorf("commit: %w", err)
	}

	if p.ID, err = uuid.Parse(idStr); err != nil {
		return model.PendingRegistration{}, fmt.Errorf("parse pending ID: %w", err)
	}
	return p, nil
}

func (r *pendingRepo) GetFresh(ctx context.Context, email string, maxAge time.Duration) (model.PendingRegistration, error) {
	var p model.PendingRegistration
	var idStr string
	err := r.db.QueryRowContext(ctx, `
		SELECT `+pendingColumns+`
		FROM pending_registrations
		WHERE lower(email) = lower($1) AND created_at > now() - $2::interval
	`, email, fmt.Sprintf("%d seconds", int(maxAge.Seconds()))).Scan(
		&idStr, &p.Firstname, &p.Lastname, &p.Email, &p.Age, &p.Gender,
		&p.Address, &p.PasswordHash, &p.OTPHash, &p.OTPExpiresAt, &p.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Purge a stale row if that is what hid the match.
			_, _ = r.db.ExecContext(ctx, `
				DELETE FROM pending_registrations
				WHERE lower(email) = lower($1) AND created_at <= now() - $2::interval
			`, email, fmt.Sprintf("%d seconds", int(maxAge.Seconds())))
			return model.PendingRegistration{}, ErrNotFound
		}
		return model.PendingRegistration{}, fmt.Errorf("query pending registration: %w", err)
	}
	if p.ID, err = uuid.Parse(idStr); err != nil {
		return model.PendingRegistration{}, fmt.Errorf("parse pending ID: %w", err)
	}
	return p, nil
}

func (r *pendingRepo) UpdateOTP(ctx context.Context, id uuid.UUID, otpHash string, expiresAt time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE pending_registrations SET otp_hash = $2, otp_expires_at = $3 WHERE id = $1
	`, id, otpHash, expiresAt)
	if err != nil {
		return fmt.Errorf("update pending otp: %w", err)
	}
	return requireRow(res)
}

func (r *pendingRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM pending_registrations WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete pending registration: %w", err)
	}
	return requireRow(res)
}

// DeleteStale removes abandoned signups past the staging TTL.
func (r *pendingRepo) DeleteStale(ctx context.Context, maxAge time.Duration) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM pending_registrations WHERE created_at <= now() - $1::interval
	`, fmt.Sprintf("%d seconds", int(maxAge.Seconds())))
	if err != nil {
		return 0, fmt.Errorf("delete stale pending registrations: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}
