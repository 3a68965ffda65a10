package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/deligo/server/internal/apperr"
	"github.com/deligo/server/internal/model"
	"github.com/deligo/server/internal/repo"
)

// CreateAPIKey mints a long-lived API key for the account. The plaintext
// key is returned exactly once; only its hash is stored.
func (s *AuthService) CreateAPIKey(ctx context.Context, userID uuid.UUID, name string, permissions []string) (string, model.APIKey, error) {
	if name == "" {
		return "", model.APIKey{}, apperr.BadRequest("API key name is required")
	}
	key, hash, err := GenerateAPIKey()
	if err != nil {
		return "", model.APIKey{}, err
	}
	record, err := s.apiKeys.Create(ctx, userID, hash, name, permissions)
	if err != nil {
		return "", model.APIKey{}, fmt.Errorf("create api key: %w", err)
	}
	return key, record, nil
}

// ListAPIKeys returns the account's keys (hashes excluded from the model's
// serialized view).
func (s *AuthService) ListAPIKeys(ctx context.Context, userID uuid.UUID) ([]model.APIKey, error) {
	keys, err := s.apiKeys.ListForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list api keys: %w", err)
	}
	return keys, nil
}

// RevokeAPIKey deletes one of the account's keys.
func (s *AuthService) RevokeAPIKey(ctx context.Context, userID, keyID uuid.UUID) error {
	if err := s.apiKeys.Delete(ctx, userID, keyID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return apperr.NotFound("API key not found")
		}
		return fmt.Errorf("revoke api key: %w", err)
	}
	return nil
}

// VerifyAPIKey resolves a plaintext key to its owning account and records
// the use. The permission must be in the key's grant list.
func (s *AuthService) VerifyAPIKey(ctx context.Context, key, permission string) (model.User, error) {
	record, err := s.apiKeys.FindByHash(ctx, HashToken(key))
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return model.User{}, apperr.Unauthorized("Invalid API key")
		}
		return model.User{}, fmt.Errorf("lookup api key: %w", err)
	}
	allowed := false
	for _, p := range record.Permissions {
		if p == permission {
			allowed = true
			break
		}
	}
	if !allowed {
		return model.User{}, apperr.Forbidden("API key does not grant this permission")
	}
	user, err := s.users.GetByID(ctx, record.UserID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return model.User{}, apperr.Unauthorized("Invalid API key")
		}
		return model.User{}, fmt.Errorf("lookup api key owner: %w", err)
	}
	return user, nil
}
