package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/deligo/server/internal/auth"
	"github.com/deligo/server/internal/middleware"
	"github.com/deligo/server/internal/model"
	"github.com/deligo/server/internal/repo"
)

// SettingsHandler handles per-user preference endpoints.
type SettingsHandler struct {
	settingsRepo repo.SettingsRepo
	authService  *auth.AuthService
}

// NewSettingsHandler creates a new settings handler
func NewSettingsHandler(settingsRepo repo.SettingsRepo, authService *auth.AuthService) *SettingsHandler {
	return &SettingsHandler{settingsRepo: settingsRepo, authService: authService}
}

type settingsResponse struct {
	UserID    string    `json:"userId"`
	SOSMail   string    `json:"sosMail"`
	CreatedAt time.Time `json:"createdAt"`
}

func newSettingsResponse(s model.Settings) settingsResponse {
	return settingsResponse{
		UserID:    s.UserID.String(),
		SOSMail:   s.SOSMail,
		CreatedAt: s.CreatedAt,
	}
}

// HandleGetSettings handles GET /api/settings/get-settings. An account
// without a settings row gets an empty object, not a 404.
func (h *SettingsHandler) HandleGetSettings(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())

	settings, err := h.settingsRepo.Get(r.Context(), user.ID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			respondJSON(w, http.StatusOK, map[string]any{
				"success": true,
				"message": "No settings found",
				"data":    map[string]any{},
			})
			return
		}
		respondError(w, err)
		return
	}

	respondData(w, http.StatusOK, newSettingsResponse(settings))
}

// changeSOSEmailRequest is the request body for POST /api/settings/change-sos-email
type changeSOSEmailRequest struct {
	SOSMail string `json:"sosMail"`
}

// HandleChangeSOSEmail handles POST /api/settings/change-sos-email
func (h *SettingsHandler) HandleChangeSOSEmail(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())

	var req changeSOSEmailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "Invalid request body")
		return
	}

	req.SOSMail = strings.TrimSpace(req.SOSMail)
	if req.SOSMail == "" {
		badRequest(w, "SOS email is required")
		return
	}

	settings, err := h.settingsRepo.UpsertSOSMail(r.Context(), user.ID, req.SOSMail)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "SOS Email updated successfully",
		"data":    newSettingsResponse(settings),
	})
}

// changePasswordRequest is the request body for POST /api/settings/change-password
type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// HandleChangePassword handles POST /api/settings/change-password
func (h *SettingsHandler) HandleChangePassword(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())

	var req changePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "Invalid request body")
		return
	}

	if req.CurrentPassword == "" || req.NewPassword == "" {
		badRequest(w, "Current and new password are required")
		return
	}

	if err := h.authService.ChangePassword(r.Context(), user.ID, req.CurrentPassword, req.NewPassword); err != nil {
		respondError(w, err)
		return
	}

	respondMessage(w, http.StatusOK, "Password changed successfully")
}
