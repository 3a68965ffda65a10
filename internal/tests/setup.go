package tests

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/pressly/goose/v3"
)

// Candidate migration directories, depending on the test working directory.
var migrationDirs = []string{
	"internal/db/migrations",       // CWD = repo root
	"../../internal/db/migrations", // CWD = internal/tests (go test ./...)
}

// ResolveMigrationDir returns the first existing migration directory, or an
// empty string when none exists.
func ResolveMigrationDir() string {
	for _, dir := range migrationDirs {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			abs, _ := filepath.Abs(dir)
			return abs
		}
	}
	return ""
}

// RunMigrations runs goose Up using the resolved migration directory.
func RunMigrations(db *sql.DB) error {
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}
	dir := ResolveMigrationDir()
	if dir == "" {
		return fmt.Errorf("migrations directory not found (tried %q); run tests from the repo root", migrationDirs)
	}
	if err := goose.Up(db, dir); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}
	return nil
}

// TruncateAll truncates every application table for a clean test state.
func TruncateAll(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `TRUNCATE TABLE
		quiz_results, quiz_questions, education_modules, education_categories,
		login_activities, sos_requests, settings, api_keys, refresh_tokens,
		pending_registrations, users
		RESTART IDENTITY CASCADE`)
	if err != nil {
		return fmt.Errorf("truncate tables: %w", err)
	}
	return nil
}

// captureNotifier records dispatched codes so tests can complete OTP flows
// without a real email or SMS provider.
type captureNotifier struct {
	mu sync.Mutex
	// last code per destination, separately for registration and reset.
	otp   map[string]string
	reset map[string]string
}

func newCaptureNotifier() *captureNotifier {
	return &captureNotifier{
		otp:   make(map[string]string),
		reset: make(map[string]string),
	}
}

func (n *captureNotifier) SendOTP(_ context.Context, destination, code, _ string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.otp[destination] = code
	return nil
}

func (n *captureNotifier) SendPasswordReset(_ context.Context, email, code, _ string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.reset[email] = code
	return nil
}

func (n *captureNotifier) LastOTP(destination string) string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.otp[destination]
}

func (n *captureNotifier) LastReset(email string) string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.reset[email]
}

// captureMailer records SOS alerts.
type captureMailer struct {
	mu    sync.Mutex
	count int
	last  struct{ Recipient, Address, UserName, UserEmail string }
}

func (m *captureMailer) SendSOS(_ context.Context, recipient, address, userName, userEmail string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.count++
	m.last.Recipient, m.last.Address = recipient, address
	m.last.UserName, m.last.UserEmail = userName, userEmail
	return nil
}

func (m *captureMailer) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.count
}

func (m *captureMailer) Last() (recipient, address, userName, userEmail string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.last.Recipient, m.last.Address, m.last.UserName, m.last.UserEmail
}

// memUploader stores nothing and hands back a fake public URL per upload.
type memUploader struct {
	mu    sync.Mutex
	names []string
}

func (u *memUploader) Upload(_ context.Context, filename, _ string, body io.Reader) (string, error) {
	if _, err := io.Copy(io.Discard, body); err != nil {
		return "", err
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	u.names = append(u.names, filename)
	return "https://cdn.test.invalid/avatars/" + filename, nil
}

func (u *memUploader) Uploaded() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return len(u.names)
}

// stubGeocoder returns a fixed address for any coordinates.
type stubGeocoder struct {
	address string
}

func (g stubGeocoder) ReverseGeocode(_ context.Context, _, _ float64) (string, error) {
	return g.address, nil
}
