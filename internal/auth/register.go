package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/deligo/server/internal/apperr"
	"github.com/deligo/server/internal/model"
	"github.com/deligo/server/internal/notify"
	"github.com/deligo/server/internal/repo"
)

// RegisterInput is the profile submitted at the start of registration.
type RegisterInput struct {
	Firstname string
	Lastname  string
	Age       int
	Gender    string
	Address   string
	Email     string
	Password  string
}

func (in RegisterInput) validate() error {
	if in.Firstname == "" || in.Lastname == "" || in.Age == 0 || in.Gender == "" || in.Address == "" || in.Email == "" || in.Password == "" {
		return apperr.BadRequest("All fields are required")
	}
	return nil
}

// StartRegistration stages an unverified signup and dispatches its OTP.
// An existing account with the email is a conflict; an existing pending
// registration is replaced outright.
func (s *AuthService) StartRegistration(ctx context.Context, in RegisterInput) error {
	if err := in.validate(); err != nil {
		return err
	}
	in.Email = repo.NormalizeEmail(in.Email)
	// Classify the destination before any persistence side effect.
	if notify.DetectChannel(in.Email) == notify.ChannelUnknown {
		return apperr.BadRequest("Invalid email address or phone number")
	}

	exists, err := s.users.ExistsByEmail(ctx, in.Email)
	if err != nil {
		return fmt.Errorf("check existing user: %w", err)
	}
	if exists {
		return apperr.BadRequest("User already exists with that email")
	}

	code, err := GenerateOTP(DefaultOTPLength)
	if err != nil {
		return err
	}
	// The password is hashed at staging time; the pending record never
	// holds it in plaintext.
	passwordHash, err := HashPassword(in.Password)
	if err != nil {
		return apperr.BadRequest(err.Error())
	}

	if _, err := s.pending.Replace(ctx, model.PendingRegistration{
		Firstname:    in.Firstname,
		Lastname:     in.Lastname,
		Email:        in.Email,
		Age:          in.Age,
		Gender:       in.Gender,
		Address:      in.Address,
		PasswordHash: passwordHash,
		OTPHash:      HashOTP(code),
		OTPExpiresAt: time.Now().Add(s.otpTTL),
	}); err != nil {
		return fmt.Errorf("stage registration: %w", err)
	}

	if err := s.notifier.SendOTP(ctx, in.Email, code, in.Firstname); err != nil {
		return fmt.Errorf("dispatch registration otp: %w", err)
	}
	return nil
}

// ResendRegistrationOTP regenerates the code for an in-flight signup and
// re-dispatches it through the same channel-detection logic.
func (s *AuthService) ResendRegistrationOTP(ctx context.Context, email string) error {
	if email == "" {
		return apperr.BadRequest("Email is required")
	}
	email = repo.NormalizeEmail(email)

	pending, err := s.pending.GetFresh(ctx, email, s.pendingTTL)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return apperr.NotFound("Registration request not found or expired")
		}
		return fmt.Errorf("lookup pending registration: %w", err)
	}

	code, err := GenerateOTP(DefaultOTPLength)
	if err != nil {
		return err
	}
	if err := s.pending.UpdateOTP(ctx, pending.ID, HashOTP(code), time.Now().Add(s.otpTTL)); err != nil {
		return fmt.Errorf("refresh pending otp: %w", err)
	}

	if err := s.notifier.SendOTP(ctx, pending.Email, code, pending.Firstname); err != nil {
		return fmt.Errorf("dispatch registration otp: %w", err)
	}
	return nil
}

// CompleteRegistration promotes a pending signup to an account when the
// candidate OTP verifies. Expired codes are terminal: the staging record is
// deleted and the user must register again. A wrong code keeps the record
// so retries remain possible until expiry.
func (s *AuthService) CompleteRegistration(ctx context.Context, email, candidateOTP string) (AuthResult, error) {
	if email == "" || candidateOTP == "" {
		return AuthResult{}, apperr.BadRequest("Email and OTP are required")
	}
	email = repo.NormalizeEmail(email)

	pending, err := s.pending.GetFresh(ctx, email, s.pendingTTL)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return AuthResult{}, apperr.NotFound("Registration request not found or expired")
		}
		return AuthResult{}, fmt.Errorf("lookup pending registration: %w", err)
	}

	if time.Now().After(pending.OTPExpiresAt) {
		if err := s.pending.Delete(ctx, pending.ID); err != nil && !errors.Is(err, repo.ErrNotFound) {
			return AuthResult{}, fmt.Errorf("delete expired pending registration: %w", err)
		}
		return AuthResult{}, apperr.BadRequest("OTP has expired. Please register again.")
	}

	if !VerifyOTP(candidateOTP, pending.OTPHash) {
		return AuthResult{}, apperr.BadRequest("Invalid OTP")
	}

	user, err := s.users.Create(ctx, model.User{
		Firstname:    pending.Firstname,
		Lastname:     pending.Lastname,
		Email:        pending.Email,
		Age:          pending.Age,
		Gender:       pending.Gender,
		Address:      pending.Address,
		PasswordHash: pending.PasswordHash,
		Role:         model.RoleUser,
	})
	if err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			// A concurrent completion won the race.
			return AuthResult{}, apperr.BadRequest("User already exists with that email")
		}
		return AuthResult{}, fmt.Errorf("create user: %w", err)
	}

	if err := s.pending.Delete(ctx, pending.ID); err != nil && !errors.Is(err, repo.ErrNotFound) {
		return AuthResult{}, fmt.Errorf("delete pending registration: %w", err)
	}

	accessToken, refreshToken, err := s.issueTokens(ctx, user)
	if err != nil {
		return AuthResult{}, fmt.Errorf("issue tokens: %w", err)
	}
	return AuthResult{User: user, AccessToken: accessToken, RefreshToken: refreshToken}, nil
}
