package tests

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deligo/server/internal/auth"
	"github.com/deligo/server/internal/config"
	"github.com/deligo/server/internal/db"
	"github.com/deligo/server/internal/education"
	httpapi "github.com/deligo/server/internal/http"
	"github.com/deligo/server/internal/http/handlers"
	"github.com/deligo/server/internal/repo"
	"github.com/deligo/server/internal/sos"
)

func TestMain(m *testing.M) {
	// Set env if unset. Do NOT set DATABASE_URL; integration tests skip if missing.
	if os.Getenv("JWT_SECRET") == "" {
		os.Setenv("JWT_SECRET", "test-jwt-secret-at-least-32-characters-long")
	}

	os.Exit(m.Run())
}

// testServer holds the server, DB and capture fakes for integration tests.
type testServer struct {
	Server   *httptest.Server
	DB       *sql.DB
	Notifier *captureNotifier
	Mailer   *captureMailer
	Avatars  *memUploader
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	cfg, err := config.Load()
	require.NoError(t, err, "config load must succeed for integration test")

	ctx := context.Background()
	database, err := db.Open(ctx, cfg.DatabaseURL)
	require.NoError(t, err, "database open must succeed; check DATABASE_URL and that test DB exists")
	t.Cleanup(func() { database.Close() })

	require.NoError(t, RunMigrations(database), "migrations must run successfully")

	userRepo := repo.NewUserRepo(database)
	pendingRepo := repo.NewPendingRepo(database)
	refreshRepo := repo.NewRefreshRepo(database)
	apiKeyRepo := repo.NewAPIKeyRepo(database)
	settingsRepo := repo.NewSettingsRepo(database)
	activityRepo := repo.NewActivityRepo(database)
	sosRepo := repo.NewSOSRepo(database)
	educationRepo := repo.NewEducationRepo(database)

	notifier := newCaptureNotifier()
	mailer := &captureMailer{}
	avatars := &memUploader{}

	jwtService := auth.NewJWTService(cfg.JWTSecret, cfg.AccessTokenTTL)
	authService := auth.NewAuthService(
		userRepo, pendingRepo, refreshRepo, apiKeyRepo, settingsRepo, activityRepo,
		jwtService, notifier,
		cfg.OTPTTL, cfg.RefreshTokenTTL, cfg.PendingTTL,
	)
	sosService := sos.NewService(sosRepo, userRepo, stubGeocoder{address: "1 Test Lane, Springfield"}, mailer)
	eduService := education.NewService(educationRepo)

	router := httpapi.NewRouter(httpapi.RouterDeps{
		DB:          database,
		JWTService:  jwtService,
		AuthService: authService,
		Auth:        handlers.NewAuthHandler(authService),
		SOS:         handlers.NewSOSHandler(sosService),
		Education:   handlers.NewEducationHandler(eduService),
		Settings:    handlers.NewSettingsHandler(settingsRepo, authService),
		Users:       handlers.NewUsersHandler(userRepo, activityRepo, sosService, authService, avatars),
	})
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	return &testServer{Server: server, DB: database, Notifier: notifier, Mailer: mailer, Avatars: avatars}
}

func (s *testServer) Truncate(t *testing.T) {
	t.Helper()
	require.NoError(t, TruncateAll(context.Background(), s.DB), "truncate tables")
}

// apiResponse is the generic JSON envelope every endpoint returns.
type apiResponse struct {
	Success      bool            `json:"success"`
	Message      string          `json:"message"`
	AccessToken  string          `json:"accessToken"`
	RefreshToken string          `json:"refreshToken"`
	Email        string          `json:"email"`
	ExpiresAt    *time.Time      `json:"expiresAt"`
	User         json.RawMessage `json:"user"`
	Data         json.RawMessage `json:"data"`
}

func doJSON(t *testing.T, client *http.Client, method, url, token string, body any) (int, apiResponse) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var out apiResponse
	require.NoError(t, json.Unmarshal(raw, &out), "body: %s", raw)
	return resp.StatusCode, out
}

// registerAndVerify walks the full registration flow and returns the tokens.
func registerAndVerify(t *testing.T, ts *testServer, email, password string) apiResponse {
	t.Helper()
	client := ts.Server.Client()
	base := ts.Server.URL

	status, res := doJSON(t, client, http.MethodPost, base+"/api/auth/register", "", map[string]any{
		"firstname": "Ada", "lastname": "Lovelace", "age": 30,
		"gender": "female", "address": "1 Analytical Way",
		"email": email, "password": password,
	})
	require.Equal(t, http.StatusOK, status, "register: %s", res.Message)

	code := ts.Notifier.LastOTP(email)
	require.NotEmpty(t, code, "registration OTP must have been dispatched")

	status, res = doJSON(t, client, http.MethodPost, base+"/api/auth/verify-otp-and-register", "", map[string]string{
		"email": email, "otp": code,
	})
	require.Equal(t, http.StatusOK, status, "verify: %s", res.Message)
	require.NotEmpty(t, res.AccessToken)
	require.NotEmpty(t, res.RefreshToken)
	return res
}

// makeAdmin promotes an account; role checks read the account row live.
func makeAdmin(t *testing.T, ts *testServer, email string) {
	t.Helper()
	_, err := ts.DB.Exec("UPDATE users SET role = 'admin' WHERE email = lower($1)", email)
	require.NoError(t, err)
}

func TestRegistrationIntegration(t *testing.T) {
	if os.Getenv("DATABASE_URL") == "" {
		t.Skip("DATABASE_URL not set; skipping integration test")
	}

	ts := newTestServer(t)
	base := ts.Server.URL
	client := ts.Server.Client()

	t.Run("HealthCheck", func(t *testing.T) {
		resp, err := client.Get(base + "/health")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode, "GET /health must return 200")
	})

	t.Run("Roundtrip", func(t *testing.T) {
		ts.Truncate(t)
		res := registerAndVerify(t, ts, "ada@example.com", "s3cret-pass")
		assert.Equal(t, "Registration completed successfully", res.Message)

		var user struct {
			Email string `json:"email"`
			Role  string `json:"role"`
		}
		require.NoError(t, json.Unmarshal(res.User, &user))
		assert.Equal(t, "ada@example.com", user.Email)
		assert.Equal(t, "user", user.Role)

		// The session is immediately usable, and validate reports when the
		// token runs out.
		status, validateRes := doJSON(t, client, http.MethodGet, base+"/api/auth/validate", res.AccessToken, nil)
		assert.Equal(t, http.StatusOK, status)
		assert.True(t, validateRes.Success)
		require.NotNil(t, validateRes.ExpiresAt)
		assert.True(t, validateRes.ExpiresAt.After(time.Now()), "token expiry must be in the future")
	})

	t.Run("MixedCaseEmailIsNormalized", func(t *testing.T) {
		ts.Truncate(t)
		status, res := doJSON(t, client, http.MethodPost, base+"/api/auth/register", "", map[string]any{
			"firstname": "Ada", "lastname": "Lovelace", "age": 30,
			"gender": "female", "address": "1 Analytical Way",
			"email": "CaseFold@Example.COM", "password": "s3cret-pass",
		})
		require.Equal(t, http.StatusOK, status, "register: %s", res.Message)

		// The OTP is dispatched to the folded address.
		code := ts.Notifier.LastOTP("casefold@example.com")
		require.NotEmpty(t, code)

		status, res = doJSON(t, client, http.MethodPost, base+"/api/auth/verify-otp-and-register", "", map[string]string{
			"email": "casefold@example.com", "otp": code,
		})
		require.Equal(t, http.StatusOK, status, "verify: %s", res.Message)

		// Any casing signs in to the same account.
		status, _ = doJSON(t, client, http.MethodPost, base+"/api/auth/login", "", map[string]string{
			"email": "CASEFOLD@EXAMPLE.COM", "password": "s3cret-pass",
		})
		assert.Equal(t, http.StatusOK, status)
	})

	t.Run("DuplicateEmail", func(t *testing.T) {
		ts.Truncate(t)
		registerAndVerify(t, ts, "dup@example.com", "s3cret-pass")

		status, res := doJSON(t, client, http.MethodPost, base+"/api/auth/register", "", map[string]any{
			"firstname": "Eve", "lastname": "Clone", "age": 25,
			"gender": "female", "address": "2 Copy St",
			"email": "dup@example.com", "password": "s3cret-pass",
		})
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, "User already exists with that email", res.Message)
	})

	t.Run("WrongOTPKeepsPending", func(t *testing.T) {
		ts.Truncate(t)
		status, _ := doJSON(t, client, http.MethodPost, base+"/api/auth/register", "", map[string]any{
			"firstname": "Ada", "lastname": "Lovelace", "age": 30,
			"gender": "female", "address": "1 Analytical Way",
			"email": "retry@example.com", "password": "s3cret-pass",
		})
		require.Equal(t, http.StatusOK, status)

		status, res := doJSON(t, client, http.MethodPost, base+"/api/auth/verify-otp-and-register", "", map[string]string{
			"email": "retry@example.com", "otp": "00000",
		})
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, "Invalid OTP", res.Message)

		// The staged registration survives a wrong guess; the real code works.
		code := ts.Notifier.LastOTP("retry@example.com")
		status, res = doJSON(t, client, http.MethodPost, base+"/api/auth/verify-otp-and-register", "", map[string]string{
			"email": "retry@example.com", "otp": code,
		})
		assert.Equal(t, http.StatusOK, status, "retry with correct OTP: %s", res.Message)
	})

	t.Run("ExpiredOTPIsTerminal", func(t *testing.T) {
		ts.Truncate(t)
		status, _ := doJSON(t, client, http.MethodPost, base+"/api/auth/register", "", map[string]any{
			"firstname": "Ada", "lastname": "Lovelace", "age": 30,
			"gender": "female", "address": "1 Analytical Way",
			"email": "late@example.com", "password": "s3cret-pass",
		})
		require.Equal(t, http.StatusOK, status)

		_, err := ts.DB.Exec("UPDATE pending_registrations SET otp_expires_at = now() - interval '1 minute' WHERE email = 'late@example.com'")
		require.NoError(t, err)

		code := ts.Notifier.LastOTP("late@example.com")
		status, res := doJSON(t, client, http.MethodPost, base+"/api/auth/verify-otp-and-register", "", map[string]string{
			"email": "late@example.com", "otp": code,
		})
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, "OTP has expired. Please register again.", res.Message)

		// The staged registration is gone; a second attempt is a 404.
		status, res = doJSON(t, client, http.MethodPost, base+"/api/auth/verify-otp-and-register", "", map[string]string{
			"email": "late@example.com", "otp": code,
		})
		assert.Equal(t, http.StatusNotFound, status)
		assert.Equal(t, "Registration request not found or expired", res.Message)
	})

	t.Run("ResendReplacesCode", func(t *testing.T) {
		ts.Truncate(t)
		status, _ := doJSON(t, client, http.MethodPost, base+"/api/auth/register", "", map[string]any{
			"firstname": "Ada", "lastname": "Lovelace", "age": 30,
			"gender": "female", "address": "1 Analytical Way",
			"email": "resend@example.com", "password": "s3cret-pass",
		})
		require.Equal(t, http.StatusOK, status)
		first := ts.Notifier.LastOTP("resend@example.com")

		status, res := doJSON(t, client, http.MethodPost, base+"/api/auth/resend-otp-for-register", "", map[string]string{
			"email": "resend@example.com",
		})
		require.Equal(t, http.StatusOK, status, "resend: %s", res.Message)
		second := ts.Notifier.LastOTP("resend@example.com")
		require.NotEmpty(t, second)

		// Latest code wins. (They may rarely collide; only assert the
		// replacement verifies.)
		status, res = doJSON(t, client, http.MethodPost, base+"/api/auth/verify-otp-and-register", "", map[string]string{
			"email": "resend@example.com", "otp": second,
		})
		assert.Equal(t, http.StatusOK, status, "verify with resent OTP: %s (first %q second %q)", res.Message, first, second)
	})
}

func TestSessionIntegration(t *testing.T) {
	if os.Getenv("DATABASE_URL") == "" {
		t.Skip("DATABASE_URL not set; skipping integration test")
	}

	ts := newTestServer(t)
	base := ts.Server.URL
	client := ts.Server.Client()

	t.Run("LoginAndAntiEnumeration", func(t *testing.T) {
		ts.Truncate(t)
		registerAndVerify(t, ts, "login@example.com", "s3cret-pass")

		status, res := doJSON(t, client, http.MethodPost, base+"/api/auth/login", "", map[string]string{
			"email": "login@example.com", "password": "s3cret-pass",
		})
		assert.Equal(t, http.StatusOK, status)
		assert.Equal(t, "Login successful", res.Message)
		assert.NotEmpty(t, res.AccessToken)
		assert.NotEmpty(t, res.RefreshToken)

		// Unknown account and wrong password are indistinguishable.
		status, res = doJSON(t, client, http.MethodPost, base+"/api/auth/login", "", map[string]string{
			"email": "ghost@example.com", "password": "whatever1",
		})
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, "Invalid credentials", res.Message)

		status, res = doJSON(t, client, http.MethodPost, base+"/api/auth/login", "", map[string]string{
			"email": "login@example.com", "password": "wrong-pass",
		})
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, "Invalid credentials", res.Message)
	})

	t.Run("RefreshRotationInvalidatesOld", func(t *testing.T) {
		ts.Truncate(t)
		session := registerAndVerify(t, ts, "rotate@example.com", "s3cret-pass")

		status, res := doJSON(t, client, http.MethodPost, base+"/api/auth/refresh-token", "", map[string]string{
			"refreshToken": session.RefreshToken,
		})
		require.Equal(t, http.StatusOK, status, "refresh: %s", res.Message)
		require.NotEmpty(t, res.RefreshToken)
		assert.NotEqual(t, session.RefreshToken, res.RefreshToken, "rotation must issue a new token")

		// The consumed token is dead.
		status, res2 := doJSON(t, client, http.MethodPost, base+"/api/auth/refresh-token", "", map[string]string{
			"refreshToken": session.RefreshToken,
		})
		assert.Equal(t, http.StatusUnauthorized, status, "old token after rotation: %s", res2.Message)

		// The replacement still works.
		status, _ = doJSON(t, client, http.MethodPost, base+"/api/auth/refresh-token", "", map[string]string{
			"refreshToken": res.RefreshToken,
		})
		assert.Equal(t, http.StatusOK, status)
	})

	t.Run("LogoutIsIdempotent", func(t *testing.T) {
		ts.Truncate(t)
		session := registerAndVerify(t, ts, "logout@example.com", "s3cret-pass")

		for i := 0; i < 2; i++ {
			status, res := doJSON(t, client, http.MethodPost, base+"/api/auth/logout", "", map[string]string{
				"refreshToken": session.RefreshToken,
			})
			assert.Equal(t, http.StatusOK, status, "logout attempt %d", i+1)
			assert.Equal(t, "Logged out successfully", res.Message)
		}

		// Empty token is a trivial success too.
		status, _ := doJSON(t, client, http.MethodPost, base+"/api/auth/logout", "", map[string]string{})
		assert.Equal(t, http.StatusOK, status)

		// The revoked token no longer refreshes.
		status, _ = doJSON(t, client, http.MethodPost, base+"/api/auth/refresh-token", "", map[string]string{
			"refreshToken": session.RefreshToken,
		})
		assert.Equal(t, http.StatusUnauthorized, status)
	})
}

func TestCredentialExpiryIntegration(t *testing.T) {
	if os.Getenv("DATABASE_URL") == "" {
		t.Skip("DATABASE_URL not set; skipping integration test")
	}

	ts := newTestServer(t)
	base := ts.Server.URL
	client := ts.Server.Client()

	t.Run("StalePendingRegistrationIsPurged", func(t *testing.T) {
		ts.Truncate(t)
		status, _ := doJSON(t, client, http.MethodPost, base+"/api/auth/register", "", map[string]any{
			"firstname": "Ada", "lastname": "Lovelace", "age": 30,
			"gender": "female", "address": "1 Analytical Way",
			"email": "stale@example.com", "password": "s3cret-pass",
		})
		require.Equal(t, http.StatusOK, status)

		// Abandon the signup past the staging TTL. The OTP itself may still
		// be unexpired; the staging age alone must hide the record.
		_, err := ts.DB.Exec("UPDATE pending_registrations SET created_at = now() - interval '2 hours' WHERE email = 'stale@example.com'")
		require.NoError(t, err)

		status, res := doJSON(t, client, http.MethodPost, base+"/api/auth/resend-otp-for-register", "", map[string]string{
			"email": "stale@example.com",
		})
		assert.Equal(t, http.StatusNotFound, status)
		assert.Equal(t, "Registration request not found or expired", res.Message)

		// The lookup also purged the stale row.
		var count int
		require.NoError(t, ts.DB.QueryRow("SELECT count(*) FROM pending_registrations WHERE email = 'stale@example.com'").Scan(&count))
		assert.Zero(t, count, "stale staging row must be deleted, not just hidden")

		code := ts.Notifier.LastOTP("stale@example.com")
		status, res = doJSON(t, client, http.MethodPost, base+"/api/auth/verify-otp-and-register", "", map[string]string{
			"email": "stale@example.com", "otp": code,
		})
		assert.Equal(t, http.StatusNotFound, status)
		assert.Equal(t, "Registration request not found or expired", res.Message)
	})

	t.Run("ExpiredRefreshTokenRejected", func(t *testing.T) {
		ts.Truncate(t)
		session := registerAndVerify(t, ts, "lapsed@example.com", "s3cret-pass")

		_, err := ts.DB.Exec("UPDATE refresh_tokens SET expires_at = now() - interval '1 minute'")
		require.NoError(t, err)

		status, res := doJSON(t, client, http.MethodPost, base+"/api/auth/refresh-token", "", map[string]string{
			"refreshToken": session.RefreshToken,
		})
		assert.Equal(t, http.StatusUnauthorized, status)
		assert.Equal(t, "Invalid or expired refresh token", res.Message)

		// The access token is still inside its own lifetime; only the
		// refresh credential lapsed.
		status, _ = doJSON(t, client, http.MethodGet, base+"/api/auth/validate", session.AccessToken, nil)
		assert.Equal(t, http.StatusOK, status)
	})
}

func TestPasswordResetIntegration(t *testing.T) {
	if os.Getenv("DATABASE_URL") == "" {
		t.Skip("DATABASE_URL not set; skipping integration test")
	}

	ts := newTestServer(t)
	base := ts.Server.URL
	client := ts.Server.Client()

	t.Run("FullFlow", func(t *testing.T) {
		ts.Truncate(t)
		registerAndVerify(t, ts, "reset@example.com", "old-password")

		// Confirm before requesting: no challenge exists.
		status, res := doJSON(t, client, http.MethodPost, base+"/api/auth/verify-password-reset-otp", "", map[string]string{
			"email": "reset@example.com", "otp": "12345", "newPassword": "new-password",
		})
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, "No password reset request found", res.Message)

		status, res = doJSON(t, client, http.MethodPost, base+"/api/auth/request-password-reset", "", map[string]string{
			"email": "reset@example.com",
		})
		require.Equal(t, http.StatusOK, status, "request reset: %s", res.Message)

		code := ts.Notifier.LastReset("reset@example.com")
		require.NotEmpty(t, code)

		// A wrong code is rejected and the challenge survives.
		status, res = doJSON(t, client, http.MethodPost, base+"/api/auth/verify-password-reset-otp", "", map[string]string{
			"email": "reset@example.com", "otp": "00000", "newPassword": "new-password",
		})
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, "Invalid OTP", res.Message)

		status, res = doJSON(t, client, http.MethodPost, base+"/api/auth/verify-password-reset-otp", "", map[string]string{
			"email": "reset@example.com", "otp": code, "newPassword": "new-password",
		})
		require.Equal(t, http.StatusOK, status, "confirm reset: %s", res.Message)

		// Old password is dead, new one works.
		status, _ = doJSON(t, client, http.MethodPost, base+"/api/auth/login", "", map[string]string{
			"email": "reset@example.com", "password": "old-password",
		})
		assert.Equal(t, http.StatusBadRequest, status)
		status, _ = doJSON(t, client, http.MethodPost, base+"/api/auth/login", "", map[string]string{
			"email": "reset@example.com", "password": "new-password",
		})
		assert.Equal(t, http.StatusOK, status)
	})

	t.Run("UnknownAccount", func(t *testing.T) {
		ts.Truncate(t)
		status, res := doJSON(t, client, http.MethodPost, base+"/api/auth/request-password-reset", "", map[string]string{
			"email": "nobody@example.com",
		})
		assert.Equal(t, http.StatusNotFound, status)
		assert.Equal(t, "User not found with that email", res.Message)
	})
}

func TestAccountLifecycleIntegration(t *testing.T) {
	if os.Getenv("DATABASE_URL") == "" {
		t.Skip("DATABASE_URL not set; skipping integration test")
	}

	ts := newTestServer(t)
	base := ts.Server.URL
	client := ts.Server.Client()

	t.Run("RemoveAccount", func(t *testing.T) {
		ts.Truncate(t)
		session := registerAndVerify(t, ts, "gone@example.com", "s3cret-pass")

		status, res := doJSON(t, client, http.MethodPost, base+"/api/auth/remove-account", session.AccessToken, nil)
		require.Equal(t, http.StatusOK, status, "remove account: %s", res.Message)

		// The session is gone with the account.
		status, _ = doJSON(t, client, http.MethodGet, base+"/api/auth/validate", session.AccessToken, nil)
		assert.Equal(t, http.StatusUnauthorized, status)
		status, _ = doJSON(t, client, http.MethodPost, base+"/api/auth/refresh-token", "", map[string]string{
			"refreshToken": session.RefreshToken,
		})
		assert.Equal(t, http.StatusUnauthorized, status)

		var count int
		require.NoError(t, ts.DB.QueryRow("SELECT count(*) FROM users").Scan(&count))
		assert.Zero(t, count)
	})

	t.Run("ProtectedRoutesRequireToken", func(t *testing.T) {
		status, _ := doJSON(t, client, http.MethodGet, base+"/api/auth/validate", "", nil)
		assert.Equal(t, http.StatusUnauthorized, status)

		status, _ = doJSON(t, client, http.MethodGet, base+"/api/sos/my", "garbage-token", nil)
		assert.Equal(t, http.StatusUnauthorized, status)
	})
}

func TestAPIKeysIntegration(t *testing.T) {
	if os.Getenv("DATABASE_URL") == "" {
		t.Skip("DATABASE_URL not set; skipping integration test")
	}

	ts := newTestServer(t)
	base := ts.Server.URL
	client := ts.Server.Client()

	ts.Truncate(t)
	session := registerAndVerify(t, ts, "keys@example.com", "s3cret-pass")

	var plaintext string
	t.Run("CreateAndList", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodPost, base+"/api/auth/api-keys",
			bytes.NewReader([]byte(`{"name":"ci","permissions":["read"]}`)))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+session.AccessToken)
		resp, err := client.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusCreated, resp.StatusCode)

		var body struct {
			Key    string `json:"key"`
			APIKey struct {
				ID string `json:"id"`
			} `json:"apiKey"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		require.NotEmpty(t, body.Key)
		assert.Equal(t, "ak_", body.Key[:3])
		plaintext = body.Key

		status, listRes := doJSON(t, client, http.MethodGet, base+"/api/auth/api-keys", session.AccessToken, nil)
		assert.Equal(t, http.StatusOK, status)
		var keys []struct {
			Name string `json:"name"`
		}
		require.NoError(t, json.Unmarshal(listRes.Data, &keys))
		require.Len(t, keys, 1)
		assert.Equal(t, "ci", keys[0].Name)
	})

	t.Run("KeyAuthenticatesReads", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodGet, base+"/api/sos/my", nil)
		req.Header.Set("X-API-Key", plaintext)
		resp, err := client.Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode, "read with API key must pass")

		// Writes are refused.
		writeReq, _ := http.NewRequest(http.MethodPost, base+"/api/sos/send-sos",
			bytes.NewReader([]byte(fmt.Sprintf(`{"lat":1,"lng":2,"email":%q}`, "x@example.com"))))
		writeReq.Header.Set("Content-Type", "application/json")
		writeReq.Header.Set("X-API-Key", plaintext)
		writeResp, err := client.Do(writeReq)
		require.NoError(t, err)
		writeResp.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, writeResp.StatusCode)
	})

	t.Run("UnknownKeyRejected", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodGet, base+"/api/sos/my", nil)
		req.Header.Set("X-API-Key", "ak_0000000000000000000000000000000000000000000000ff")
		resp, err := client.Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})
}
