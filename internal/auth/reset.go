package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/deligo/server/internal/apperr"
	"github.com/deligo/server/internal/repo"
)

// RequestPasswordReset issues a reset challenge for the account,
// overwriting any prior one: there is only ever one live challenge.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	if email == "" {
		return apperr.BadRequest("Email is required")
	}

	user, err := s.users.GetByEmail(ctx, repo.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return apperr.NotFound("User not found with that email")
		}
		return fmt.Errorf("lookup user: %w", err)
	}

	code, err := GenerateOTP(DefaultOTPLength)
	if err != nil {
		return err
	}
	if err := s.users.SetResetChallenge(ctx, user.ID, HashOTP(code), time.Now().Add(s.otpTTL)); err != nil {
		return fmt.Errorf("store reset challenge: %w", err)
	}

	if err := s.notifier.SendPasswordReset(ctx, user.Email, code, user.Firstname); err != nil {
		return fmt.Errorf("dispatch reset otp: %w", err)
	}
	return nil
}

// ResendPasswordResetOTP always issues a fresh challenge; no prior one is
// required.
func (s *AuthService) ResendPasswordResetOTP(ctx context.Context, email string) error {
	return s.RequestPasswordReset(ctx, email)
}

// ConfirmPasswordReset verifies the challenge and sets the new password.
// An expired challenge is cleared before failing so it can never be
// replayed; a wrong code leaves the challenge intact for retries. On
// success the password change and the challenge clear land together.
func (s *AuthService) ConfirmPasswordReset(ctx context.Context, email, candidateOTP, newPassword string) error {
	if email == "" || candidateOTP == "" || newPassword == "" {
		return apperr.BadRequest("Email, OTP, and new password are required")
	}

	user, err := s.users.GetByEmailWithCredentials(ctx, repo.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return apperr.NotFound("User not found")
		}
		return fmt.Errorf("lookup user: %w", err)
	}

	if user.ResetOTPHash == nil || user.ResetOTPExpires == nil {
		return apperr.BadRequest("No password reset request found")
	}

	if time.Now().After(*user.ResetOTPExpires) {
		if err := s.users.ClearResetChallenge(ctx, user.ID); err != nil {
			return fmt.Errorf("clear expired reset challenge: %w", err)
		}
		return apperr.BadRequest("OTP has expired. Please request a new one.")
	}

	if !VerifyOTP(candidateOTP, *user.ResetOTPHash) {
		return apperr.BadRequest("Invalid OTP")
	}

	hash, err := HashPassword(newPassword)
	if err != nil {
		return apperr.BadRequest(err.Error())
	}
	if err := s.users.UpdatePasswordAndClearChallenge(ctx, user.ID, hash); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	// Existing refresh tokens stay valid after a reset; revoking them here
	// is a policy decision the product has not made.
	return nil
}
