package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/deligo/server/internal/model"
)

// SettingsRepo stores per-user preferences.
type SettingsRepo interface {
	Get(ctx context.Context, userID uuid.UUID) (model.Settings, error)
	UpsertSOSMail(ctx context.Context, userID uuid.UUID, sosMail string) (model.Settings, error)
	DeleteForUser(ctx context.Context, userID uuid.UUID) error
}

type settingsRepo struct {
	db *sql.DB
}

// NewSettingsRepo creates a new SettingsRepo instance
func NewSettingsRepo(db *sql.DB) SettingsRepo {
	return &settingsRepo{db: db}
}

func (r *settingsRepo) Get(ctx context.Context, userID uuid.UUID) (model.Settings, error) {
	var s model.Settings
	var userIDStr string
	err := r.db.QueryRowContext(ctx, `
		SELECT user_id, sos_mail, created_at FROM settings WHERE user_id = $1
	`, userID).Scan(&userIDStr, &s.SOSMail, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Settings{}, ErrNotFound
		}
		return model.Settings{}, fmt.Errorf("query settings: %w", err)
	}
	s.UserID, _ = uuid.Parse(userIDStr)
	return s, nil
}

func (r *settingsRepo) UpsertSOSMail(ctx context.Context, userID uuid.UUID, sosMail string) (model.Settings, error) {
	var s model.Settings
	var userIDStr string
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO settings (user_id, sos_mail)
		VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE SET sos_mail = EXCLUDED.sos_mail
		RETURNING user_id, sos_mail, created_at
	`, userID, sosMail).Scan(&userIDStr, &s.SOSMail, &s.CreatedAt)
	if err != nil {
		return model.Settings{}, fmt.Errorf("upsert settings: %w", err)
	}
	s.UserID, _ = uuid.Parse(userIDStr)
	return s, nil
}

func (r *settingsRepo) DeleteForUser(ctx context.Context, userID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM settings WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("delete settings: %w", err)
	}
	return nil
}
