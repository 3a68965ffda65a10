package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/deligo/server/internal/middleware"
	"github.com/deligo/server/internal/model"
)

// apiKeyResponse is the API-key object in responses. The plaintext key
// appears only in the creation response.
type apiKeyResponse struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Permissions []string   `json:"permissions"`
	CreatedAt   time.Time  `json:"createdAt"`
	LastUsedAt  *time.Time `json:"lastUsedAt,omitempty"`
}

func newAPIKeyResponse(k model.APIKey) apiKeyResponse {
	return apiKeyResponse{
		ID:          k.ID.String(),
		Name:        k.Name,
		Permissions: k.Permissions,
		CreatedAt:   k.CreatedAt,
		LastUsedAt:  k.LastUsedAt,
	}
}

// createAPIKeyRequest is the request body for POST /api/auth/api-keys
type createAPIKeyRequest struct {
	Name        string   `json:"name"`
	Permissions []string `json:"permissions"`
}

// HandleCreateAPIKey handles POST /api/auth/api-keys
func (h *AuthHandler) HandleCreateAPIKey(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())

	var req createAPIKeyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "Invalid request body")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		badRequest(w, "API key name is required")
		return
	}

	plaintext, key, err := h.authService.CreateAPIKey(r.Context(), user.ID, req.Name, req.Permissions)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"message": "API key created. Store it now; it will not be shown again.",
		"key":     plaintext,
		"apiKey":  newAPIKeyResponse(key),
	})
}

// HandleListAPIKeys handles GET /api/auth/api-keys
func (h *AuthHandler) HandleListAPIKeys(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())

	keys, err := h.authService.ListAPIKeys(r.Context(), user.ID)
	if err != nil {
		respondError(w, err)
		return
	}

	out := make([]apiKeyResponse, 0, len(keys))
	for _, k := range keys {
		out = append(out, newAPIKeyResponse(k))
	}
	respondData(w, http.StatusOK, out)
}

// HandleRevokeAPIKey handles DELETE /api/auth/api-keys/{keyId}
func (h *AuthHandler) HandleRevokeAPIKey(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())

	keyID, err := uuid.Parse(chi.URLParam(r, "keyId"))
	if err != nil {
		badRequest(w, "Invalid API key ID")
		return
	}

	if err := h.authService.RevokeAPIKey(r.Context(), user.ID, keyID); err != nil {
		respondError(w, err)
		return
	}

	respondMessage(w, http.StatusOK, "API key revoked successfully")
}
