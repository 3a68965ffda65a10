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
	"github.com/deligo/server/internal/sos"
)

// SOSHandler handles SOS dispatch and administration endpoints.
type SOSHandler struct {
	sosService *sos.Service
}

// NewSOSHandler creates a new SOS handler
func NewSOSHandler(sosService *sos.Service) *SOSHandler {
	return &SOSHandler{sosService: sosService}
}

// sosResponse is the SOS request object in API responses.
type sosResponse struct {
	ID              string     `json:"id"`
	UserID          string     `json:"userId"`
	UserName        string     `json:"userName"`
	UserEmail       string     `json:"userEmail"`
	Latitude        float64    `json:"latitude"`
	Longitude       float64    `json:"longitude"`
	Address         string     `json:"address"`
	RecipientEmail  string     `json:"recipientEmail"`
	Status          string     `json:"status"`
	Notes           string     `json:"notes,omitempty"`
	DeviceType      *string    `json:"deviceType,omitempty"`
	ResponseTime    *time.Time `json:"responseTime,omitempty"`
	ResolvedBy      *string    `json:"resolvedBy,omitempty"`
	ResolutionNotes *string    `json:"resolutionNotes,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

func newSOSResponse(s model.SOSRequest) sosResponse {
	out := sosResponse{
		ID:              s.ID.String(),
		UserID:          s.UserID.String(),
		UserName:        s.UserName,
		UserEmail:       s.UserEmail,
		Latitude:        s.Latitude,
		Longitude:       s.Longitude,
		Address:         s.Address,
		RecipientEmail:  s.RecipientEmail,
		Status:          s.Status,
		Notes:           s.Notes,
		DeviceType:      s.DeviceType,
		ResponseTime:    s.ResponseTime,
		ResolutionNotes: s.ResolutionNotes,
		CreatedAt:       s.CreatedAt,
		UpdatedAt:       s.UpdatedAt,
	}
	if s.ResolvedBy != nil {
		id := s.ResolvedBy.String()
		out.ResolvedBy = &id
	}
	return out
}

func newSOSResponses(reqs []model.SOSRequest) []sosResponse {
	out := make([]sosResponse, 0, len(reqs))
	for _, s := range reqs {
		out = append(out, newSOSResponse(s))
	}
	return out
}

// sendSOSRequest is the request body for POST /api/sos/send-sos
type sendSOSRequest struct {
	Lat   *float64 `json:"lat"`
	Lng   *float64 `json:"lng"`
	Email string   `json:"email"`
	Notes string   `json:"notes"`
}

// HandleSendSOS handles POST /api/sos/send-sos
func (h *SOSHandler) HandleSendSOS(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())

	var req sendSOSRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "Invalid request body")
		return
	}

	req.Email = strings.TrimSpace(req.Email)
	if req.Lat == nil || req.Lng == nil || req.Email == "" {
		badRequest(w, "Latitude and longitude are required")
		return
	}

	ip, userAgent, deviceType := requestMeta(r)
	created, err := h.sosService.Send(r.Context(), sos.SendInput{
		UserID:         user.ID,
		Latitude:       *req.Lat,
		Longitude:      *req.Lng,
		RecipientEmail: req.Email,
		Notes:          strings.TrimSpace(req.Notes),
		UserAgent:      userAgent,
		IPAddress:      ip,
		DeviceType:     deviceType,
	})
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "SOS sent successfully",
		"data":    newSOSResponse(created),
	})
}

// HandleMySOS handles GET /api/sos/my
func (h *SOSHandler) HandleMySOS(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())

	reqs, err := h.sosService.ListForUser(r.Context(), user.ID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondData(w, http.StatusOK, newSOSResponses(reqs))
}

// HandleGetSOS handles GET /api/sos/{sosId} (owner or admin).
func (h *SOSHandler) HandleGetSOS(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "sosId"))
	if err != nil {
		badRequest(w, "Invalid SOS request ID")
		return
	}

	req, err := h.sosService.Get(r.Context(), id, user.ID, user.Role)
	if err != nil {
		respondError(w, err)
		return
	}
	respondData(w, http.StatusOK, newSOSResponse(req))
}

// HandleListAllSOS handles GET /api/sos/admin/all
func (h *SOSHandler) HandleListAllSOS(w http.ResponseWriter, r *http.Request) {
	reqs, err := h.sosService.ListAll(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respondData(w, http.StatusOK, newSOSResponses(reqs))
}

// HandleSOSStatistics handles GET /api/sos/admin/statistics
func (h *SOSHandler) HandleSOSStatistics(w http.ResponseWriter, r *http.Request) {
	stats, err := h.sosService.Statistics(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respondData(w, http.StatusOK, map[string]int{
		"total":     stats.Total,
		"sent":      stats.Sent,
		"received":  stats.Received,
		"resolved":  stats.Resolved,
		"cancelled": stats.Cancelled,
	})
}

// updateSOSStatusRequest is the request body for PUT /api/sos/admin/{sosId}/status
type updateSOSStatusRequest struct {
	Status string `json:"status"`
	Notes  string `json:"notes"`
}

// HandleUpdateSOSStatus handles PUT /api/sos/admin/{sosId}/status
func (h *SOSHandler) HandleUpdateSOSStatus(w http.ResponseWriter, r *http.Request) {
	admin, _ := middleware.GetUser(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "sosId"))
	if err != nil {
		badRequest(w, "Invalid SOS request ID")
		return
	}

	var req updateSOSStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "Invalid request body")
		return
	}

	updated, err := h.sosService.UpdateStatus(r.Context(), id, strings.TrimSpace(req.Status), admin.ID, strings.TrimSpace(req.Notes))
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "SOS status updated successfully",
		"data":    newSOSResponse(updated),
	})
}
