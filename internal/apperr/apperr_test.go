package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestConstructors(t *testing.T) {
	cases := []struct {
		err    *Error
		status int
	}{
		{BadRequest("bad"), http.StatusBadRequest},
		{Unauthorized("no"), http.StatusUnauthorized},
		{Forbidden("denied"), http.StatusForbidden},
		{NotFound("missing"), http.StatusNotFound},
		{TooManyRequests("slow down"), http.StatusTooManyRequests},
	}
	for _, tc := range cases {
		if tc.err.Status != tc.status {
			t.Errorf("%q: status %d, want %d", tc.err.Message, tc.err.Status, tc.status)
		}
		if tc.err.Error() != tc.err.Message {
			t.Errorf("Error() should return the message, got %q", tc.err.Error())
		}
	}
}

func TestFrom_direct(t *testing.T) {
	e, ok := From(NotFound("missing"))
	if !ok {
		t.Fatal("From should find a direct *Error")
	}
	if e.Status != http.StatusNotFound {
		t.Errorf("status %d", e.Status)
	}
}

func TestFrom_wrapped(t *testing.T) {
	wrapped := fmt.Errorf("complete registration: %w", BadRequest("Invalid OTP"))
	e, ok := From(wrapped)
	if !ok {
		t.Fatal("From should unwrap through fmt.Errorf %w")
	}
	if e.Message != "Invalid OTP" {
		t.Errorf("message %q", e.Message)
	}
}

func TestFrom_plainError(t *testing.T) {
	if _, ok := From(errors.New("boom")); ok {
		t.Error("plain errors should not map to an *Error")
	}
}
