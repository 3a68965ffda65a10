package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/deligo/server/internal/apperr"
	"github.com/deligo/server/internal/model"
)

// respondJSON writes v as the JSON response body.
func respondJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

// respondError maps a service error onto the {success:false, message} body.
// Errors without a mapped status are logged and masked as a 500.
func respondError(w http.ResponseWriter, err error) {
	if appErr, ok := apperr.From(err); ok {
		respondJSON(w, appErr.Status, map[string]any{
			"success": false,
			"message": appErr.Message,
		})
		return
	}

	log.Printf("Internal error: %v", err)
	respondJSON(w, http.StatusInternalServerError, map[string]any{
		"success": false,
		"message": "Internal server error",
	})
}

// respondMessage writes a bare {success:true, message} body.
func respondMessage(w http.ResponseWriter, statusCode int, message string) {
	respondJSON(w, statusCode, map[string]any{
		"success": true,
		"message": message,
	})
}

// respondData writes a {success:true, data} body.
func respondData(w http.ResponseWriter, statusCode int, data any) {
	respondJSON(w, statusCode, map[string]any{
		"success": true,
		"data":    data,
	})
}

// badRequest is shorthand for a client error with a fixed message.
func badRequest(w http.ResponseWriter, message string) {
	respondError(w, apperr.BadRequest(message))
}

// userResponse is the sanitized account object in API responses. It never
// carries the password hash or reset-challenge fields.
type userResponse struct {
	ID        string     `json:"id"`
	Firstname string     `json:"firstname"`
	Lastname  string     `json:"lastname"`
	Email     string     `json:"email"`
	Age       int        `json:"age"`
	Gender    string     `json:"gender,omitempty"`
	Address   string     `json:"address"`
	Role      string     `json:"role"`
	Avatar    *string    `json:"avatar,omitempty"`
	LastLogin *time.Time `json:"lastLogin,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
}

func newUserResponse(u model.User) userResponse {
	return userResponse{
		ID:        u.ID.String(),
		Firstname: u.Firstname,
		Lastname:  u.Lastname,
		Email:     u.Email,
		Age:       u.Age,
		Gender:    u.Gender,
		Address:   u.Address,
		Role:      u.Role,
		Avatar:    u.AvatarURL,
		LastLogin: u.LastLogin,
		CreatedAt: u.CreatedAt,
	}
}

// getClientIP extracts the client IP from the request
func getClientIP(r *http.Request) string {
	forwarded := r.Header.Get("X-Forwarded-For")
	if forwarded != "" {
		// Take first IP if multiple
		ips := strings.Split(forwarded, ",")
		return strings.TrimSpace(ips[0])
	}

	return r.RemoteAddr
}

// detectDeviceType classifies a User-Agent into mobile, tablet, desktop or
// unknown. Tablets are checked first since tablet UAs often also say Mobile.
func detectDeviceType(userAgent string) string {
	if userAgent == "" {
		return "unknown"
	}
	ua := strings.ToLower(userAgent)
	switch {
	case strings.Contains(ua, "ipad") || strings.Contains(ua, "tablet"):
		return "tablet"
	case strings.Contains(ua, "mobile") || strings.Contains(ua, "android") || strings.Contains(ua, "iphone"):
		return "mobile"
	case strings.Contains(ua, "mozilla") || strings.Contains(ua, "windows") || strings.Contains(ua, "macintosh") || strings.Contains(ua, "linux"):
		return "desktop"
	}
	return "unknown"
}

// requestMeta captures the best-effort client fingerprint attached to login
// activity and SOS rows.
func requestMeta(r *http.Request) (ip, userAgent, deviceType *string) {
	if v := getClientIP(r); v != "" {
		ip = &v
	}
	if v := r.UserAgent(); v != "" {
		userAgent = &v
		dt := detectDeviceType(v)
		deviceType = &dt
	}
	return ip, userAgent, deviceType
}

// maskEmail masks an email address for logging (e.g. jo****@example.com).
func maskEmail(email string) string {
	at := strings.IndexByte(email, '@')
	if at <= 0 {
		return "****"
	}
	local := email[:at]
	if len(local) <= 2 {
		return "**" + email[at:]
	}
	return local[:2] + strings.Repeat("*", len(local)-2) + email[at:]
}
