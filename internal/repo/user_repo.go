package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/deligo/server/internal/model"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when an insert violates a uniqueness constraint.
var ErrDuplicate = errors.New("duplicate")

// UserRepo defines the interface for account repository operations
type UserRepo interface {
	Create(ctx context.Context, u model.User) (model.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (model.User, error)
	GetByEmail(ctx context.Context, email string) (model.User, error)
	// GetByEmailWithCredentials includes the normally-hidden password hash
	// and reset challenge columns.
	GetByEmailWithCredentials(ctx context.Context, email string) (model.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	ListByRole(ctx context.Context, role string) ([]model.User, error)
	UpdateLastLogin(ctx context.Context, id uuid.UUID) error
	SetResetChallenge(ctx context.Context, id uuid.UUID, otpHash string, expiresAt time.Time) error
	ClearResetChallenge(ctx context.Context, id uuid.UUID) error
	// UpdatePasswordAndClearChallenge commits both changes in one statement
	// so a reset can never land without consuming its challenge.
	UpdatePasswordAndClearChallenge(ctx context.Context, id uuid.UUID, passwordHash string) error
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type userRepo struct {
	db *sql.DB
}

// NewUserRepo creates a new UserRepo instance
func NewUserRepo(db *sql.DB) UserRepo {
	return &userRepo{db: db}
}

const userColumns = `id, firstname, lastname, email, age, gender, address, role, avatar_url, last_login, created_at, updated_at`

func scanUser(row *sql.Row) (model.User, error) {
	var u model.User
	var idStr string
	err := row.Scan(
		&idStr, &u.Firstname, &u.Lastname, &u.Email, &u.Age, &u.Gender,
		&u.Address, &u.Role, &u.AvatarURL, &u.LastLogin, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, ErrNotFound
		}
		return model.User{}, fmt.Errorf("failed to query user: %w", err)
	}
	u.ID, err = uuid.Parse(idStr)
	if err != nil {
		return model.User{}, fmt.Errorf("failed to parse user ID: %w", err)
	}
	return u, nil
}

// Create inserts a new account row. The unique email index makes concurrent
// registration completions race safely; the loser gets ErrDuplicate.
func (r *userRepo) Create(ctx context.Context, u model.User) (model.User, error) {
	if u.Role == "" {
		u.Role = model.RoleUser
	}
	var idStr string
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO users (firstname, lastname, email, age, gender, address, password_hash, role, avatar_url)
		VALUES ($1, $2, lower($3), $4, $5, $6, $7, $8, $9)
		RETURNING id
	`, u.Firstname, u.Lastname, u.Email, u.Age, u.Gender, u.Address, u.PasswordHash, u.Role, u.AvatarURL).Scan(&idStr)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return model.User{}, ErrDuplicate
		}
		return model.User{}, fmt.Errorf("insert user: %w", err)
	}
	id, err := uuid.Parse(idStr)
	if err != nil {
		return model.User{}, fmt.Errorf("parse user ID: %w", err)
	}
	return r.GetByID(ctx, id)
}

// GetByID retrieves a user by ID
func (r *userRepo) GetByID(ctx context.Context, id uuid.UUID) (model.User, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+userColumns+` FROM users WHERE id = $1
	`, id)
	return scanUser(row)
}

// GetByEmail retrieves a user by case-normalized email
func (r *userRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1)
	`, email)
	return scanUser(row)
}

func (r *userRepo) GetByEmailWithCredentials(ctx context.Context, email string) (model.User, error) {
	var u model.User
	var idStr string
	err := r.db.QueryRowContext(ctx, `
		SELECT `+userColumns+`, password_hash, reset_otp_hash, reset_otp_expires_at
		FROM users WHERE lower(email) = lower($1)
	`, email).Scan(
		&idStr, &u.Firstname, &u.Lastname, &u.Email, &u.Age, &u.Gender,
		&u.Address, &u.Role, &u.AvatarURL, &u.LastLogin, &u.CreatedAt, &u.UpdatedAt,
		&u.PasswordHash, &u.ResetOTPHash, &u.ResetOTPExpires,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, ErrNotFound
		}
		return model.User{}, fmt.Errorf("failed to query user: %w", err)
	}
	u.ID, err = uuid.Parse(idStr)
	if err != nil {
		return model.User{}, fmt.Errorf("failed to parse user ID: %w", err)
	}
	return u, nil
}

func (r *userRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM users WHERE lower(email) = lower($1))
	`, email).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check email exists: %w", err)
	}
	return exists, nil
}

func (r *userRepo) ListByRole(ctx context.Context, role string) ([]model.User, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+userColumns+` FROM users WHERE role = $1 ORDER BY created_at
	`, role)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		var u model.User
		var idStr string
		if err := rows.Scan(
			&idStr, &u.Firstname, &u.Lastname, &u.Email, &u.Age, &u.Gender,
			&u.Address, &u.Role, &u.AvatarURL, &u.LastLogin, &u.CreatedAt, &u.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		if u.ID, err = uuid.Parse(idStr); err != nil {
			return nil, fmt.Errorf("parse user ID: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// UpdateLastLogin is best-effort; callers log and ignore failures.
func (r *userRepo) UpdateLastLogin(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE users SET last_login = now(), updated_at = now() WHERE id = $1
	`, id)
	if err != nil {
		return fmt.Errorf("update last login: %w", err)
	}
	return nil
}

func (r *userRepo) SetResetChallenge(ctx context.Context, id uuid.UUID, otpHash string, expiresAt time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users SET reset_otp_hash = $2, reset_otp_expires_at = $3, updated_at = now() WHERE id = $1
	`, id, otpHash, expiresAt)
	if err != nil {
		return fmt.Errorf("set reset challenge: %w", err)
	}
	return requireRow(res)
}

func (r *userRepo) ClearResetChallenge(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users SET reset_otp_hash = NULL, reset_otp_expires_at = NULL, updated_at = now() WHERE id = $1
	`, id)
	if err != nil {
		return fmt.Errorf("clear reset challenge: %w", err)
	}
	return requireRow(res)
}

func (r *userRepo) UpdatePasswordAndClearChallenge(ctx context.Context, id uuid.UUID, passwordHash string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET password_hash = $2, reset_otp_hash = NULL, reset_otp_expires_at = NULL, updated_at = now()
		WHERE id = $1
	`, id, passwordHash)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return requireRow(res)
}

func (r *userRepo) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users SET password_hash = $2, updated_at = now() WHERE id = $1
	`, id, passwordHash)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return requireRow(res)
}

// Delete removes the account. Dependent rows (refresh tokens, api keys,
// settings, activities) go with it via ON DELETE CASCADE.
func (r *userRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return requireRow(res)
}

func requireRow(res sql.Result) error {
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// NormalizeEmail lower-cases and trims an email for comparisons outside SQL.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
