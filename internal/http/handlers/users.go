package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/deligo/server/internal/auth"
	"github.com/deligo/server/internal/middleware"
	"github.com/deligo/server/internal/model"
	"github.com/deligo/server/internal/repo"
	"github.com/deligo/server/internal/sos"
	"github.com/deligo/server/internal/storage"
)

// maxAvatarSize caps the multipart form memory for avatar uploads.
const maxAvatarSize = 10 << 20

// UsersHandler handles admin account management and activity history.
type UsersHandler struct {
	users       repo.UserRepo
	activities  repo.ActivityRepo
	sosService  *sos.Service
	authService *auth.AuthService
	avatars     storage.Uploader
}

// NewUsersHandler creates a new users handler. avatars may be nil when no
// object storage is configured; the add endpoints then reject uploads.
func NewUsersHandler(
	users repo.UserRepo,
	activities repo.ActivityRepo,
	sosService *sos.Service,
	authService *auth.AuthService,
	avatars storage.Uploader,
) *UsersHandler {
	return &UsersHandler{
		users:       users,
		activities:  activities,
		sosService:  sosService,
		authService: authService,
		avatars:     avatars,
	}
}

// HandleListUsers handles GET /api/users
func (h *UsersHandler) HandleListUsers(w http.ResponseWriter, r *http.Request) {
	h.listByRole(w, r, model.RoleUser, "users")
}

// HandleListDrivers handles GET /api/users/drivers
func (h *UsersHandler) HandleListDrivers(w http.ResponseWriter, r *http.Request) {
	h.listByRole(w, r, model.RoleDriver, "drivers")
}

func (h *UsersHandler) listByRole(w http.ResponseWriter, r *http.Request, role, field string) {
	accounts, err := h.users.ListByRole(r.Context(), role)
	if err != nil {
		respondError(w, err)
		return
	}

	out := make([]userResponse, 0, len(accounts))
	for _, u := range accounts {
		out = append(out, newUserResponse(u))
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		field:     out,
	})
}

// HandleAddUser handles POST /api/users (multipart, avatar upload).
func (h *UsersHandler) HandleAddUser(w http.ResponseWriter, r *http.Request) {
	h.addAccount(w, r, model.RoleUser, "users")
}

// HandleAddDriver handles POST /api/users/drivers (multipart, avatar upload).
func (h *UsersHandler) HandleAddDriver(w http.ResponseWriter, r *http.Request) {
	h.addAccount(w, r, model.RoleDriver, "drivers")
}

func (h *UsersHandler) addAccount(w http.ResponseWriter, r *http.Request, role, field string) {
	if err := r.ParseMultipartForm(maxAvatarSize); err != nil {
		badRequest(w, "Invalid multipart form")
		return
	}

	file, header, err := r.FormFile("avatar")
	if err != nil {
		badRequest(w, "No file uploaded")
		return
	}
	defer file.Close()

	firstname := strings.TrimSpace(r.FormValue("firstName"))
	lastname := strings.TrimSpace(r.FormValue("lastName"))
	email := strings.TrimSpace(r.FormValue("email"))
	password := r.FormValue("password")
	gender := r.FormValue("gender")
	address := strings.TrimSpace(r.FormValue("address"))
	age, _ := strconv.Atoi(r.FormValue("age"))

	if firstname == "" || lastname == "" || email == "" || password == "" || gender == "" || address == "" {
		badRequest(w, "All fields are required")
		return
	}

	if h.avatars == nil {
		respondError(w, errors.New("avatar storage is not configured"))
		return
	}

	avatarURL, err := h.avatars.Upload(r.Context(), header.Filename, header.Header.Get("Content-Type"), file)
	if err != nil {
		log.Printf("Avatar upload failed: %v", err)
		respondError(w, err)
		return
	}

	passwordHash, err := auth.HashPassword(password)
	if err != nil {
		respondError(w, err)
		return
	}

	_, err = h.users.Create(r.Context(), model.User{
		Firstname:    firstname,
		Lastname:     lastname,
		Email:        email,
		Age:          age,
		Gender:       gender,
		Address:      address,
		PasswordHash: passwordHash,
		Role:         role,
		AvatarURL:    &avatarURL,
	})
	if err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			badRequest(w, "User already exists with that email")
			return
		}
		respondError(w, err)
		return
	}

	h.listByRole(w, r, role, field)
}

// HandleDeleteUser handles DELETE /api/users/{userId}. Removal cascades
// through refresh tokens and settings like a self-service account removal.
func (h *UsersHandler) HandleDeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "userId"))
	if err != nil {
		badRequest(w, "Invalid user ID")
		return
	}

	if err := h.authService.RemoveAccount(r.Context(), id); err != nil {
		respondError(w, err)
		return
	}
	respondMessage(w, http.StatusOK, "Account removed successfully")
}

type activityResponse struct {
	ID         string    `json:"id"`
	UserID     string    `json:"userId"`
	IPAddress  *string   `json:"ipAddress,omitempty"`
	UserAgent  *string   `json:"userAgent,omitempty"`
	DeviceType *string   `json:"deviceType,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

func newActivityResponses(activities []model.LoginActivity) []activityResponse {
	out := make([]activityResponse, 0, len(activities))
	for _, a := range activities {
		out = append(out, activityResponse{
			ID:         a.ID.String(),
			UserID:     a.UserID.String(),
			IPAddress:  a.IPAddress,
			UserAgent:  a.UserAgent,
			DeviceType: a.DeviceType,
			CreatedAt:  a.CreatedAt,
		})
	}
	return out
}

// HandleAllLoginActivities handles GET /api/users/login-activities
func (h *UsersHandler) HandleAllLoginActivities(w http.ResponseWriter, r *http.Request) {
	activities, err := h.activities.ListAll(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respondData(w, http.StatusOK, newActivityResponses(activities))
}

// HandleMyLoginActivities handles GET /api/users/my/login-activities
func (h *UsersHandler) HandleMyLoginActivities(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())

	activities, err := h.activities.ListForUser(r.Context(), user.ID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondData(w, http.StatusOK, newActivityResponses(activities))
}

// HandleAllSOSActivities handles GET /api/users/sos-activities
func (h *UsersHandler) HandleAllSOSActivities(w http.ResponseWriter, r *http.Request) {
	reqs, err := h.sosService.ListAll(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respondData(w, http.StatusOK, newSOSResponses(reqs))
}

// HandleMySOSActivities handles GET /api/users/my/sos-activities
func (h *UsersHandler) HandleMySOSActivities(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())

	reqs, err := h.sosService.ListForUser(r.Context(), user.ID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondData(w, http.StatusOK, newSOSResponses(reqs))
}
