package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"github.com/deligo/server/internal/auth"
	"github.com/deligo/server/internal/middleware"
	"github.com/deligo/server/internal/model"
)

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	authService *auth.AuthService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *auth.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// registerRequest is the request body for POST /api/auth/register
type registerRequest struct {
	Firstname string `json:"firstname"`
	Lastname  string `json:"lastname"`
	Age       int    `json:"age"`
	Gender    string `json:"gender"`
	Address   string `json:"address"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

// HandleRegister handles POST /api/auth/register
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "Invalid request body")
		return
	}

	req.Email = strings.TrimSpace(req.Email)

	err := h.authService.StartRegistration(r.Context(), auth.RegisterInput{
		Firstname: strings.TrimSpace(req.Firstname),
		Lastname:  strings.TrimSpace(req.Lastname),
		Age:       req.Age,
		Gender:    req.Gender,
		Address:   strings.TrimSpace(req.Address),
		Email:     req.Email,
		Password:  req.Password,
	})
	if err != nil {
		log.Printf("Registration for %s failed: %v", maskEmail(req.Email), err)
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Registration initiated. Please verify your email with the OTP sent.",
		"email":   req.Email,
	})
}

// verifyOTPRequest is the request body for POST /api/auth/verify-otp-and-register
type verifyOTPRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

// HandleVerifyOTPAndRegister handles POST /api/auth/verify-otp-and-register
func (h *AuthHandler) HandleVerifyOTPAndRegister(w http.ResponseWriter, r *http.Request) {
	var req verifyOTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "Invalid request body")
		return
	}

	req.Email = strings.TrimSpace(req.Email)
	req.OTP = strings.TrimSpace(req.OTP)
	if req.Email == "" || req.OTP == "" {
		badRequest(w, "Email and OTP are required")
		return
	}

	result, err := h.authService.CompleteRegistration(r.Context(), req.Email, req.OTP)
	if err != nil {
		log.Printf("OTP verification for %s failed: %v", maskEmail(req.Email), err)
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"success":      true,
		"message":      "Registration completed successfully",
		"accessToken":  result.AccessToken,
		"refreshToken": result.RefreshToken,
		"user":         newUserResponse(result.User),
	})
}

// resendOTPRequest is the request body for the two OTP resend endpoints.
type resendOTPRequest struct {
	Email string `json:"email"`
}

// HandleResendOTPForRegister handles POST /api/auth/resend-otp-for-register
func (h *AuthHandler) HandleResendOTPForRegister(w http.ResponseWriter, r *http.Request) {
	var req resendOTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "Invalid request body")
		return
	}

	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" {
		badRequest(w, "Email is required")
		return
	}

	if err := h.authService.ResendRegistrationOTP(r.Context(), req.Email); err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "OTP resent successfully",
		"email":   req.Email,
	})
}

// loginRequest is the request body for POST /api/auth/login
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// HandleLogin handles POST /api/auth/login
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "Invalid request body")
		return
	}

	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" {
		badRequest(w, "Please provide email and password")
		return
	}

	ip, userAgent, deviceType := requestMeta(r)
	result, err := h.authService.Login(r.Context(), req.Email, req.Password, model.LoginActivity{
		IPAddress:  ip,
		UserAgent:  userAgent,
		DeviceType: deviceType,
	})
	if err != nil {
		log.Printf("Login for %s failed: %v", maskEmail(req.Email), err)
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"success":      true,
		"message":      "Login successful",
		"accessToken":  result.AccessToken,
		"refreshToken": result.RefreshToken,
		"user":         newUserResponse(result.User),
	})
}

// refreshRequest is the request body for POST /api/auth/refresh-token
type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// HandleRefreshToken handles POST /api/auth/refresh-token
func (h *AuthHandler) HandleRefreshToken(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "Invalid request body")
		return
	}

	req.RefreshToken = strings.TrimSpace(req.RefreshToken)
	if req.RefreshToken == "" {
		badRequest(w, "Refresh token is required")
		return
	}

	accessToken, refreshToken, err := h.authService.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"success":      true,
		"accessToken":  accessToken,
		"refreshToken": refreshToken,
	})
}

// HandleLogout handles POST /api/auth/logout. Logout is idempotent: an
// empty or unknown token still logs out successfully.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if r.Body != nil {
		// A missing or malformed body is treated as an empty token.
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	if err := h.authService.Logout(r.Context(), strings.TrimSpace(req.RefreshToken)); err != nil {
		respondError(w, err)
		return
	}

	respondMessage(w, http.StatusOK, "Logged out successfully")
}

// HandleValidate handles GET /api/auth/validate. Returns the account behind
// the presented access token, proving the session is still live.
func (h *AuthHandler) HandleValidate(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok || user == nil {
		respondJSON(w, http.StatusUnauthorized, map[string]any{
			"success": false,
			"message": "User not found or session expired",
		})
		return
	}

	out := map[string]any{
		"success": true,
		"user":    newUserResponse(*user),
	}
	// API-key requests carry no token claims, so no expiry to report.
	if claims, ok := middleware.GetClaims(r.Context()); ok && claims.ExpiresAt != nil {
		out["expiresAt"] = claims.ExpiresAt.Time
	}
	respondJSON(w, http.StatusOK, out)
}

// HandleRemoveAccount handles POST /api/auth/remove-account
func (h *AuthHandler) HandleRemoveAccount(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok || user == nil {
		respondJSON(w, http.StatusUnauthorized, map[string]any{
			"success": false,
			"message": "User not found or session expired",
		})
		return
	}

	if err := h.authService.RemoveAccount(r.Context(), user.ID); err != nil {
		respondError(w, err)
		return
	}

	respondMessage(w, http.StatusOK, "Account removed successfully")
}

// HandleRequestPasswordReset handles POST /api/auth/request-password-reset
func (h *AuthHandler) HandleRequestPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req resendOTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "Invalid request body")
		return
	}

	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" {
		badRequest(w, "Email is required")
		return
	}

	if err := h.authService.RequestPasswordReset(r.Context(), req.Email); err != nil {
		log.Printf("Password reset request for %s failed: %v", maskEmail(req.Email), err)
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Password reset OTP sent to your email",
		"email":   req.Email,
	})
}

// verifyPasswordResetRequest is the request body for POST /api/auth/verify-password-reset-otp
type verifyPasswordResetRequest struct {
	Email       string `json:"email"`
	OTP         string `json:"otp"`
	NewPassword string `json:"newPassword"`
}

// HandleVerifyPasswordResetOTP handles POST /api/auth/verify-password-reset-otp
func (h *AuthHandler) HandleVerifyPasswordResetOTP(w http.ResponseWriter, r *http.Request) {
	var req verifyPasswordResetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "Invalid request body")
		return
	}

	req.Email = strings.TrimSpace(req.Email)
	req.OTP = strings.TrimSpace(req.OTP)
	if req.Email == "" || req.OTP == "" || req.NewPassword == "" {
		badRequest(w, "Email, OTP, and new password are required")
		return
	}

	if err := h.authService.ConfirmPasswordReset(r.Context(), req.Email, req.OTP, req.NewPassword); err != nil {
		respondError(w, err)
		return
	}

	respondMessage(w, http.StatusOK, "Password reset successfully")
}

// HandleResendPasswordResetOTP handles POST /api/auth/resend-password-reset-otp
func (h *AuthHandler) HandleResendPasswordResetOTP(w http.ResponseWriter, r *http.Request) {
	var req resendOTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "Invalid request body")
		return
	}

	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" {
		badRequest(w, "Email is required")
		return
	}

	if err := h.authService.ResendPasswordResetOTP(r.Context(), req.Email); err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Password reset OTP resent successfully",
		"email":   req.Email,
	})
}
