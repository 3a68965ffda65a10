package repo

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/deligo/server/internal/model"
)

// ActivityRepo records best-effort login audit rows.
type ActivityRepo interface {
	RecordLogin(ctx context.Context, a model.LoginActivity) error
	ListAll(ctx context.Context) ([]model.LoginActivity, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]model.LoginActivity, error)
}

type activityRepo struct {
	db *sql.DB
}

// NewActivityRepo creates a new ActivityRepo instance
func NewActivityRepo(db *sql.DB) ActivityRepo {
	return &activityRepo{db: db}
}

func (r *activityRepo) RecordLogin(ctx context.Context, a model.LoginActivity) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO login_activities (user_id, ip_address, user_agent, device_type)
		VALUES ($1, $2, $3, $4)
	`, a.UserID, a.IPAddress, a.UserAgent, a.DeviceType)
	if err != nil {
		return fmt.Errorf("record login activity: %w", err)
	}
	return nil
}

func (r *activityRepo) list(ctx context.Context, query string, args ...any) ([]model.LoginActivity, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list login activities: %w", err)
	}
	defer rows.Close()

	var out []model.LoginActivity
	for rows.Next() {
		var a model.LoginActivity
		var idStr, userIDStr string
		if err := rows.Scan(&idStr, &userIDStr, &a.IPAddress, &a.UserAgent, &a.DeviceType, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan login activity: %w", err)
		}
		a.ID, _ = uuid.Parse(idStr)
		a.UserID, _ = uuid.Parse(userIDStr)
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *activityRepo) ListAll(ctx context.Context) ([]model.LoginActivity, error) {
	return r.list(ctx, `
		SELECT id, user_id, ip_address, user_agent, device_type, created_at
		FROM login_activities ORDER BY created_at DESC
	`)
}

func (r *activityRepo) ListForUser(ctx context.Context, userID uuid.UUID) ([]model.LoginActivity, error) {
	return r.list(ctx, `
		SELECT id, user_id, ip_address, user_agent, device_type, created_at
		FROM login_activities WHERE user_id = $1 ORDER BY created_at DESC
	`, userID)
}
