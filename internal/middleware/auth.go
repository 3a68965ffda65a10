package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/deligo/server/internal/auth"
	"github.com/deligo/server/internal/model"
)

type contextKey string

const (
	userKey   contextKey = "user"
	claimsKey contextKey = "claims"
)

// Authenticate validates the request credential and attaches the account to
// the context. A Bearer access token is the primary credential; an X-API-Key
// header is accepted as a read-only alternative for GET requests.
func Authenticate(jwtService *auth.JWTService, authService *auth.AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if apiKey := r.Header.Get("X-API-Key"); apiKey != "" && r.Header.Get("Authorization") == "" {
				if r.Method != http.MethodGet {
					unauthorized(w, "API keys grant read-only access")
					return
				}
				user, err := authService.VerifyAPIKey(r.Context(), apiKey, "read")
				if err != nil {
					unauthorized(w, "Invalid API key")
					return
				}
				ctx := context.WithValue(r.Context(), userKey, &user)
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				unauthorized(w, "Access token is required")
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || parts[0] != "Bearer" {
				unauthorized(w, "Access token is required")
				return
			}

			tokenString := strings.TrimSpace(parts[1])
			if tokenString == "" {
				unauthorized(w, "Access token is required")
				return
			}

			claims, err := jwtService.VerifyAccessToken(tokenString)
			if err != nil {
				unauthorized(w, "Invalid or expired token")
				return
			}

			user, err := authService.CurrentUser(r.Context(), claims.UserID)
			if err != nil {
				unauthorized(w, "User not found or session expired")
				return
			}

			ctx := context.WithValue(r.Context(), userKey, &user)
			ctx = context.WithValue(ctx, claimsKey, claims)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole rejects authenticated requests whose account role is not one
// of the allowed roles.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := GetUser(r.Context())
			if !ok || user == nil {
				unauthorized(w, "Access token is required")
				return
			}
			for _, role := range roles {
				if user.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusForbidden)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"success": false,
				"message": "Not authorized to access this resource",
			})
		})
	}
}

// GetUser returns the account attached to the request context (set by Authenticate)
func GetUser(ctx context.Context) (*model.User, bool) {
	u, ok := ctx.Value(userKey).(*model.User)
	return u, ok
}

// GetClaims returns the verified token claims, when the credential was a JWT.
func GetClaims(ctx context.Context) (*auth.Claims, bool) {
	c, ok := ctx.Value(claimsKey).(*auth.Claims)
	return c, ok
}

// unauthorized sends a JSON error response
func unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"success": false,
		"message": message,
	})
}
