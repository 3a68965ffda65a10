package http

import (
	"database/sql"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/deligo/server/internal/auth"
	"github.com/deligo/server/internal/http/handlers"
	"github.com/deligo/server/internal/middleware"
	"github.com/deligo/server/internal/model"
)

// RouterDeps bundles the constructed handlers and services the router wires
// together.
type RouterDeps struct {
	DB          *sql.DB
	JWTService  *auth.JWTService
	AuthService *auth.AuthService

	Auth      *handlers.AuthHandler
	SOS       *handlers.SOSHandler
	Education *handlers.EducationHandler
	Settings  *handlers.SettingsHandler
	Users     *handlers.UsersHandler
}

// NewRouter creates a new HTTP router with all routes configured
func NewRouter(deps RouterDeps) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)

	r.Get("/health", handlers.NewHealthHandler(deps.DB).ServeHTTP)

	authenticated := middleware.Authenticate(deps.JWTService, deps.AuthService)
	adminOnly := middleware.RequireRole(model.RoleAdmin)

	// OTP dispatch endpoints get two sliding-window limits: per client IP,
	// and per destination email so a flood spread across IPs still cannot
	// drain codes onto one mailbox.
	ipLimiter := middleware.NewRateLimiter(10*time.Minute, 10)
	emailLimiter := middleware.NewRateLimiter(10*time.Minute, 5)
	rateLimited := chi.Chain(
		middleware.RateLimit(ipLimiter, middleware.IPKey),
		middleware.RateLimit(emailLimiter, middleware.EmailKey),
	).Handler

	r.Route("/api/auth", func(r chi.Router) {
		r.With(rateLimited).Post("/register", deps.Auth.HandleRegister)
		r.Post("/verify-otp-and-register", deps.Auth.HandleVerifyOTPAndRegister)
		r.With(rateLimited).Post("/resend-otp-for-register", deps.Auth.HandleResendOTPForRegister)
		r.Post("/login", deps.Auth.HandleLogin)
		r.Post("/refresh-token", deps.Auth.HandleRefreshToken)
		r.Post("/logout", deps.Auth.HandleLogout)
		r.With(rateLimited).Post("/request-password-reset", deps.Auth.HandleRequestPasswordReset)
		r.Post("/verify-password-reset-otp", deps.Auth.HandleVerifyPasswordResetOTP)
		r.With(rateLimited).Post("/resend-password-reset-otp", deps.Auth.HandleResendPasswordResetOTP)

		r.Group(func(r chi.Router) {
			r.Use(authenticated)
			r.Get("/validate", deps.Auth.HandleValidate)
			r.Post("/remove-account", deps.Auth.HandleRemoveAccount)

			r.Route("/api-keys", func(r chi.Router) {
				r.Post("/", deps.Auth.HandleCreateAPIKey)
				r.Get("/", deps.Auth.HandleListAPIKeys)
				r.Delete("/{keyId}", deps.Auth.HandleRevokeAPIKey)
			})
		})
	})

	r.Route("/api/sos", func(r chi.Router) {
		r.Use(authenticated)

		r.Post("/send-sos", deps.SOS.HandleSendSOS)
		r.Get("/my", deps.SOS.HandleMySOS)

		r.Route("/admin", func(r chi.Router) {
			r.Use(adminOnly)
			r.Get("/all", deps.SOS.HandleListAllSOS)
			r.Get("/statistics", deps.SOS.HandleSOSStatistics)
			r.Get("/{sosId}", deps.SOS.HandleGetSOS)
			r.Put("/{sosId}/status", deps.SOS.HandleUpdateSOSStatus)
		})

		r.Get("/{sosId}", deps.SOS.HandleGetSOS)
	})

	r.Route("/api/education", func(r chi.Router) {
		r.Use(authenticated)

		r.Get("/", deps.Education.HandleListCategories)
		r.Post("/results", deps.Education.HandleSubmitResult)
		r.Get("/results", deps.Education.HandleListResults)

		r.With(adminOnly).Post("/", deps.Education.HandleAddCategory)
		r.Get("/{educationId}", deps.Education.HandleGetCategory)
		r.With(adminOnly).Put("/{educationId}", deps.Education.HandleUpdateCategory)
		r.With(adminOnly).Delete("/{educationId}", deps.Education.HandleDeleteCategory)

		r.With(adminOnly).Post("/{educationId}/modules", deps.Education.HandleAddModule)
		r.With(adminOnly).Put("/{educationId}/modules/{moduleId}", deps.Education.HandleUpdateModule)
		r.With(adminOnly).Delete("/{educationId}/modules/{moduleId}", deps.Education.HandleDeleteModule)

		r.With(adminOnly).Post("/{educationId}/quizzes", deps.Education.HandleAddQuiz)
		r.With(adminOnly).Put("/{educationId}/quizzes/{quizId}", deps.Education.HandleUpdateQuiz)
		r.With(adminOnly).Delete("/{educationId}/quizzes/{quizId}", deps.Education.HandleDeleteQuiz)
	})

	r.Route("/api/settings", func(r chi.Router) {
		r.Use(authenticated)
		r.Get("/get-settings", deps.Settings.HandleGetSettings)
		r.Post("/change-sos-email", deps.Settings.HandleChangeSOSEmail)
		r.Post("/change-password", deps.Settings.HandleChangePassword)
	})

	r.Route("/api/users", func(r chi.Router) {
		r.Use(authenticated)

		r.Get("/my/sos-activities", deps.Users.HandleMySOSActivities)
		r.Get("/my/login-activities", deps.Users.HandleMyLoginActivities)

		r.Group(func(r chi.Router) {
			r.Use(adminOnly)
			r.Get("/", deps.Users.HandleListUsers)
			r.Post("/", deps.Users.HandleAddUser)
			r.Get("/drivers", deps.Users.HandleListDrivers)
			r.Post("/drivers", deps.Users.HandleAddDriver)
			r.Get("/sos-activities", deps.Users.HandleAllSOSActivities)
			r.Get("/login-activities", deps.Users.HandleAllLoginActivities)
			r.Delete("/{userId}", deps.Users.HandleDeleteUser)
		})
	})

	return r
}
