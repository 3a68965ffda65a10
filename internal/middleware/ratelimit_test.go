package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestRateLimiter_allowsUpToLimit(t *testing.T) {
	rl := NewRateLimiter(time.Minute, 3)
	for i := 0; i < 3; i++ {
		if !rl.Allow("k") {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if rl.Allow("k") {
		t.Error("request over the limit should be denied")
	}
}

func TestRateLimiter_keysAreIndependent(t *testing.T) {
	rl := NewRateLimiter(time.Minute, 1)
	if !rl.Allow("a") {
		t.Fatal("first request for a should pass")
	}
	if !rl.Allow("b") {
		t.Error("a separate key should have its own allowance")
	}
	if rl.Allow("a") {
		t.Error("second request for a should be denied")
	}
}

func TestRateLimiter_windowSlides(t *testing.T) {
	rl := NewRateLimiter(10*time.Millisecond, 1)
	if !rl.Allow("k") {
		t.Fatal("first request should pass")
	}
	if rl.Allow("k") {
		t.Fatal("second request inside the window should be denied")
	}
	time.Sleep(20 * time.Millisecond)
	if !rl.Allow("k") {
		t.Error("request after the window elapsed should pass")
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	rl := NewRateLimiter(time.Minute, 1)
	handler := RateLimit(rl, IPKey)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.RemoteAddr = "10.0.0.1:1234"

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("first request: got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second request: got %d, want 429", rec.Code)
	}
}

func TestIPKey(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "10.0.0.1:1234"
	if got := IPKey(r); got != "ip:10.0.0.1:1234" {
		t.Errorf("IPKey = %q", got)
	}

	r.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	if got := IPKey(r); got != "ip:203.0.113.9" {
		t.Errorf("IPKey with X-Forwarded-For = %q", got)
	}
}

func TestEmailKey(t *testing.T) {
	newReq := func(body string) *http.Request {
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
		r.RemoteAddr = "10.0.0.1:1234"
		return r
	}

	if got := EmailKey(newReq(`{"email":" User@Example.COM "}`)); got != "email:user@example.com" {
		t.Errorf("EmailKey = %q, want case- and whitespace-normalized email key", got)
	}

	// Requests without a usable email fall back to the IP key.
	for _, body := range []string{``, `not json`, `{"email":""}`, `{"other":"x"}`} {
		if got := EmailKey(newReq(body)); got != "ip:10.0.0.1:1234" {
			t.Errorf("EmailKey(%q) = %q, want IP fallback", body, got)
		}
	}

	// The body must still be readable by the handler afterwards.
	r := newReq(`{"email":"user@example.com"}`)
	_ = EmailKey(r)
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		t.Fatalf("read body after EmailKey: %v", err)
	}
	if string(raw) != `{"email":"user@example.com"}` {
		t.Errorf("body after EmailKey = %q", raw)
	}
}

func TestEmailKeyLimitsAcrossIPs(t *testing.T) {
	rl := NewRateLimiter(time.Minute, 1)
	handler := RateLimit(rl, EmailKey)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	send := func(remoteAddr string) int {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":"victim@example.com"}`))
		req.RemoteAddr = remoteAddr
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	if got := send("10.0.0.1:1"); got != http.StatusOK {
		t.Fatalf("first request: got %d", got)
	}
	if got := send("10.0.0.2:1"); got != http.StatusTooManyRequests {
		t.Fatalf("same destination from another IP: got %d, want 429", got)
	}
}
