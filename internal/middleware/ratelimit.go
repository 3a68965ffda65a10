package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"
)

// maxKeyBodySize bounds how much of a request body EmailKey will buffer.
const maxKeyBodySize = 1 << 16

// RateLimiter is a simple in-memory sliding-window limiter. It guards the
// OTP request and resend endpoints so one client cannot flood a mailbox or
// phone number with codes.
type RateLimiter struct {
	mu      sync.Mutex
	seen    map[string][]time.Time
	window  time.Duration
	maxReqs int
}

// NewRateLimiter creates a new rate limiter allowing maxReqs per window.
func NewRateLimiter(window time.Duration, maxReqs int) *RateLimiter {
	rl := &RateLimiter{
		seen:    make(map[string][]time.Time),
		window:  window,
		maxReqs: maxReqs,
	}

	// Cleanup goroutine to remove idle keys
	go rl.cleanup()

	return rl
}

// Allow records a request for key and reports whether it is within the limit.
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	cutoff := now.Add(-rl.window)

	recent := rl.seen[key][:0]
	for _, t := range rl.seen[key] {
		if t.After(cutoff) {
			recent = append(recent, t)
		}
	}

	if len(recent) >= rl.maxReqs {
		rl.seen[key] = recent
		return false
	}

	rl.seen[key] = append(recent, now)
	return true
}

// cleanup periodically drops keys with no recent requests.
func (rl *RateLimiter) cleanup() {
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	for range ticker.C {
		rl.mu.Lock()
		cutoff := time.Now().Add(-rl.window * 2)

		for key, reqs := range rl.seen {
			idle := true
			for _, t := range reqs {
				if t.After(cutoff) {
					idle = false
					break
				}
			}
			if idle {
				delete(rl.seen, key)
			}
		}
		rl.mu.Unlock()
	}
}

// RateLimit creates a middleware limiting requests per keyFunc-derived key.
func RateLimit(limiter *RateLimiter, keyFunc func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow(keyFunc(r)) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				_ = json.NewEncoder(w).Encode(map[string]any{
					"success": false,
					"message": "Too many requests. Please try again later.",
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// IPKey derives a rate-limit key from the client IP.
func IPKey(r *http.Request) string {
	forwarded := r.Header.Get("X-Forwarded-For")
	if forwarded != "" {
		// Take first IP if multiple
		ips := strings.Split(forwarded, ",")
		return "ip:" + strings.TrimSpace(ips[0])
	}

	return "ip:" + r.RemoteAddr
}

// EmailKey derives a rate-limit key from the destination email in the JSON
// request body, so the per-destination limit holds across source IPs. The
// body is restored for the handler. Requests without an email fall back to
// the client IP key.
func EmailKey(r *http.Request) string {
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxKeyBodySize))
	if err != nil {
		return IPKey(r)
	}
	r.Body = io.NopCloser(io.MultiReader(bytes.NewReader(raw), r.Body))

	var body struct {
		Email string `json:"email"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return IPKey(r)
	}
	email := strings.ToLower(strings.TrimSpace(body.Email))
	if email == "" {
		return IPKey(r)
	}
	return "email:" + email
}
