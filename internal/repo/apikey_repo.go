package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/deligo/server/internal/model"
)

// APIKeyRepo manages long-lived API-key credentials.
type APIKeyRepo interface {
	Create(ctx context.Context, userID uuid.UUID, keyHash, name string, permissions []string) (model.APIKey, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]model.APIKey, error)
	// FindByHash returns the key and marks it used.
	FindByHash(ctx context.Context, keyHash string) (model.APIKey, error)
	Delete(ctx context.Context, userID, keyID uuid.UUID) error
}

type apiKeyRepo struct {
	db *sql.DB
}

// NewAPIKeyRepo creates a new APIKeyRepo instance
func NewAPIKeyRepo(db *sql.DB) APIKeyRepo {
	return &apiKeyRepo{db: db}
}

func (r *apiKeyRepo) Create(ctx context.Context, userID uuid.UUID, keyHash, name string, permissions []string) (model.APIKey, error) {
	if len(permissions) == 0 {
		permissions = []string{"read"}
	}
	k := model.APIKey{UserID: userID, KeyHash: keyHash, Name: name, Permissions: permissions}
	var idStr string
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO api_keys (user_id, key_hash, name, permissions)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`, userID, keyHash, name, pq.Array(permissions)).Scan(&idStr, &k.CreatedAt)
	if err != nil {
		return model.APIKey{}, fmt.Errorf("insert api key: %w", err)
	}
	if k.ID, err = uuid.Parse(idStr); err != nil {
		return model.APIKey{}, fmt.Errorf("parse api key ID: %w", err)
	}
	return k, nil
}

func (r *apiKeyRepo) ListForUser(ctx context.Context, userID uuid.UUID) ([]model.APIKey, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, name, permissions, created_at, last_used_at
		FROM api_keys WHERE user_id = $1 ORDER BY created_at
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list api keys: %w", err)
	}
	defer rows.Close()

	var keys []model.APIKey
	for rows.Next() {
		var k model.APIKey
		var idStr, userIDStr string
		if err := rows.Scan(&idStr, &userIDStr, &k.Name, pq.Array(&k.Permissions), &k.CreatedAt, &k.LastUsedAt); err != nil {
			return nil, fmt.Errorf("scan api key: %w", err)
		}
		k.ID, _ = uuid.Parse(idStr)
		k.UserID, _ = uuid.Parse(userIDStr)
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

func (r *apiKeyRepo) FindByHash(ctx context.Context, keyHash string) (model.APIKey, error) {
	var k model.APIKey
	var idStr, userIDStr string
	err := r.db.QueryRowContext(ctx, `
		UPDATE api_keys SET last_used_at = now()
		WHERE key_hash = $1
		RETURNING id, user_id, name, permissions, created_at, last_used_at
	`, keyHash).Scan(&idStr, &userIDStr, &k.Name, pq.Array(&k.Permissions), &k.CreatedAt, &k.LastUsedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.APIKey{}, ErrNotFound
		}
		return model.APIKey{}, fmt.Errorf("find api key: %w", err)
	}
	k.ID, _ = uuid.Parse(idStr)
	k.UserID, _ = uuid.Parse(userIDStr)
	return k, nil
}

func (r *apiKeyRepo) Delete(ctx context.Context, userID, keyID uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM api_keys WHERE id = $1 AND user_id = $2
	`, keyID, userID)
	if err != nil {
		return fmt.Errorf("delete api key: %w", err)
	}
	return requireRow(res)
}
