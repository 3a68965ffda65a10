package auth

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/deligo/server/internal/apperr"
	"github.com/deligo/server/internal/model"
	"github.com/deligo/server/internal/repo"
)

// Notifier delivers one-time codes to users. Implemented by
// notify.Dispatcher; injected explicitly, never a package global.
type Notifier interface {
	SendOTP(ctx context.Context, destination, code, name string) error
	SendPasswordReset(ctx context.Context, email, code, name string) error
}

// AuthService orchestrates the credential lifecycle: registration,
// login/logout, token refresh, password reset and API keys.
type AuthService struct {
	users    repo.UserRepo
	pending  repo.PendingRepo
	refresh  repo.RefreshRepo
	apiKeys  repo.APIKeyRepo
	settings repo.SettingsRepo
	activity repo.ActivityRepo
	jwt      *JWTService
	notifier Notifier

	otpTTL     time.Duration
	refreshTTL time.Duration
	pendingTTL time.Duration
}

// NewAuthService creates a new auth service
func NewAuthService(
	users repo.UserRepo,
	pending repo.PendingRepo,
	refresh repo.RefreshRepo,
	apiKeys repo.APIKeyRepo,
	settings repo.SettingsRepo,
	activity repo.ActivityRepo,
	jwt *JWTService,
	notifier Notifier,
	otpTTL, refreshTTL, pendingTTL time.Duration,
) *AuthService {
	if otpTTL <= 0 {
		otpTTL = 10 * time.Minute
	}
	if refreshTTL <= 0 {
		refreshTTL = 7 * 24 * time.Hour
	}
	if pendingTTL <= 0 {
		pendingTTL = time.Hour
	}
	return &AuthService{
		users:      users,
		pending:    pending,
		refresh:    refresh,
		apiKeys:    apiKeys,
		settings:   settings,
		activity:   activity,
		jwt:        jwt,
		notifier:   notifier,
		otpTTL:     otpTTL,
		refreshTTL: refreshTTL,
		pendingTTL: pendingTTL,
	}
}

// AuthResult is the outcome of any flow that establishes a session.
type AuthResult struct {
	User         model.User
	AccessToken  string
	RefreshToken string
}

// issueTokens signs an access token and persists a new refresh token entry.
func (s *AuthService) issueTokens(ctx context.Context, user model.User) (string, string, error) {
	accessToken, err := s.jwt.SignAccessToken(&user)
	if err != nil {
		return "", "", err
	}
	refreshToken, hash, err := GenerateRefreshToken()
	if err != nil {
		return "", "", err
	}
	if err := s.refresh.Create(ctx, user.ID, hash, time.Now().Add(s.refreshTTL)); err != nil {
		return "", "", err
	}
	return accessToken, refreshToken, nil
}

// Login verifies credentials and establishes a session. A missing account
// and a wrong password produce the identical failure so the endpoint cannot
// be used to enumerate emails.
func (s *AuthService) Login(ctx context.Context, email, password string, activity model.LoginActivity) (AuthResult, error) {
	if email == "" || password == "" {
		return AuthResult{}, apperr.BadRequest("Please provide email and password")
	}

	user, err := s.users.GetByEmailWithCredentials(ctx, repo.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return AuthResult{}, apperr.BadRequest("Invalid credentials")
		}
		return AuthResult{}, fmt.Errorf("lookup user: %w", err)
	}
	if !CheckPassword(password, user.PasswordHash) {
		return AuthResult{}, apperr.BadRequest("Invalid credentials")
	}
	user.PasswordHash = ""

	// Last-login and the audit row are best-effort; a failure here must not
	// fail the login.
	if err := s.users.UpdateLastLogin(ctx, user.ID); err != nil {
		log.Printf("update last login for %s: %v", user.ID, err)
	}
	activity.UserID = user.ID
	if err := s.activity.RecordLogin(ctx, activity); err != nil {
		log.Printf("record login activity for %s: %v", user.ID, err)
	}

	accessToken, refreshToken, err := s.issueTokens(ctx, user)
	if err != nil {
		return AuthResult{}, fmt.Errorf("issue tokens: %w", err)
	}
	return AuthResult{User: user, AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

// Logout removes the matching refresh token entry. It succeeds whether or
// not the token matched anything: logout is not an existence oracle.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	if _, err := s.refresh.DeleteByTokenHash(ctx, HashToken(refreshToken)); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}

// Refresh verifies and rotates a refresh token, returning a new pair. The
// old token is invalid the moment the new one exists.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (string, string, error) {
	if refreshToken == "" {
		return "", "", apperr.BadRequest("Refresh token is required")
	}

	oldHash := HashToken(refreshToken)
	user, err := s.refresh.FindUserByTokenHash(ctx, oldHash)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return "", "", apperr.Unauthorized("Invalid or expired refresh token")
		}
		return "", "", fmt.Errorf("verify refresh token: %w", err)
	}

	newToken, newHash, err := GenerateRefreshToken()
	if err != nil {
		return "", "", err
	}
	if err := s.refresh.Rotate(ctx, oldHash, newHash, time.Now().Add(s.refreshTTL)); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			// A concurrent refresh or logout consumed the token first.
			return "", "", apperr.Unauthorized("Invalid or expired refresh token")
		}
		return "", "", fmt.Errorf("rotate refresh token: %w", err)
	}

	accessToken, err := s.jwt.SignAccessToken(&user)
	if err != nil {
		return "", "", fmt.Errorf("sign access token: %w", err)
	}
	return accessToken, newToken, nil
}

// CurrentUser loads the account behind verified claims. A valid signature
// for a since-deleted account is rejected here.
func (s *AuthService) CurrentUser(ctx context.Context, userID uuid.UUID) (model.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return model.User{}, apperr.Unauthorized("User not found or session expired")
		}
		return model.User{}, fmt.Errorf("lookup user: %w", err)
	}
	return user, nil
}

// RemoveAccount deletes the account: refresh tokens first, then the
// settings row, then the user record itself.
func (s *AuthService) RemoveAccount(ctx context.Context, userID uuid.UUID) error {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return apperr.NotFound("User not found")
		}
		return fmt.Errorf("lookup user: %w", err)
	}
	if err := s.refresh.DeleteAllForUser(ctx, userID); err != nil {
		return fmt.Errorf("remove account: %w", err)
	}
	if err := s.settings.DeleteForUser(ctx, userID); err != nil {
		return fmt.Errorf("remove account: %w", err)
	}
	if err := s.users.Delete(ctx, userID); err != nil {
		return fmt.Errorf("remove account: %w", err)
	}
	return nil
}

// ChangePassword verifies the current password before setting a new one.
func (s *AuthService) ChangePassword(ctx context.Context, userID uuid.UUID, current, next string) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return apperr.NotFound("User not found")
		}
		return fmt.Errorf("lookup user: %w", err)
	}
	withCreds, err := s.users.GetByEmailWithCredentials(ctx, user.Email)
	if err != nil {
		return fmt.Errorf("lookup credentials: %w", err)
	}
	if !CheckPassword(current, withCreds.PasswordHash) {
		return apperr.BadRequest("Current password is incorrect")
	}
	hash, err := HashPassword(next)
	if err != nil {
		return apperr.BadRequest(err.Error())
	}
	if err := s.users.UpdatePassword(ctx, userID, hash); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}

// PruneExpired sweeps expired refresh tokens and stale pending
// registrations. Housekeeping only; every verification path enforces expiry
// independently.
func (s *AuthService) PruneExpired(ctx context.Context) {
	if n, err := s.refresh.DeleteExpired(ctx); err != nil {
		log.Printf("prune refresh tokens: %v", err)
	} else if n > 0 {
		log.Printf("pruned %d expired refresh tokens", n)
	}
	if n, err := s.pending.DeleteStale(ctx, s.pendingTTL); err != nil {
		log.Printf("prune pending registrations: %v", err)
	} else if n > 0 {
		log.Printf("pruned %d stale pending registrations", n)
	}
}
