package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"

	"github.com/deligo/server/internal/auth"
	"github.com/deligo/server/internal/config"
	"github.com/deligo/server/internal/db"
	"github.com/deligo/server/internal/education"
	"github.com/deligo/server/internal/geo"
	httpapi "github.com/deligo/server/internal/http"
	"github.com/deligo/server/internal/http/handlers"
	"github.com/deligo/server/internal/notify"
	"github.com/deligo/server/internal/repo"
	"github.com/deligo/server/internal/sos"
	"github.com/deligo/server/internal/storage"
)

func main() {
	// Load .env from CWD so it works from the repo root (env vars override)
	_ = godotenv.Load(".env")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Create context for startup operations
	ctx := context.Background()

	// Open database connection
	database, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer database.Close()

	// Run migrations
	if err := runMigrations(database); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Initialize repositories
	userRepo := repo.NewUserRepo(database)
	pendingRepo := repo.NewPendingRepo(database)
	refreshRepo := repo.NewRefreshRepo(database)
	apiKeyRepo := repo.NewAPIKeyRepo(database)
	settingsRepo := repo.NewSettingsRepo(database)
	activityRepo := repo.NewActivityRepo(database)
	sosRepo := repo.NewSOSRepo(database)
	educationRepo := repo.NewEducationRepo(database)

	// Notification channels
	dispatcher := notify.NewDispatcher(emailSender(cfg), smsSender(cfg))

	// Initialize services
	jwtService := auth.NewJWTService(cfg.JWTSecret, cfg.AccessTokenTTL)
	authService := auth.NewAuthService(
		userRepo, pendingRepo, refreshRepo, apiKeyRepo, settingsRepo, activityRepo,
		jwtService, dispatcher,
		cfg.OTPTTL, cfg.RefreshTokenTTL, cfg.PendingTTL,
	)
	geocoder := &geo.GoogleGeocoder{APIKey: cfg.GeocodingAPIKey}
	sosService := sos.NewService(sosRepo, userRepo, geocoder, dispatcher)
	eduService := education.NewService(educationRepo)

	// Avatar storage is optional; admin add-user endpoints require it.
	var avatars storage.Uploader
	if cfg.S3Bucket != "" {
		store, err := storage.NewS3Store(ctx, storage.S3Options{
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			PublicURL: cfg.S3PublicURL,
		})
		if err != nil {
			log.Fatalf("Failed to initialize avatar storage: %v", err)
		}
		avatars = store
	}

	// Create router
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

	// Background sweeper for expired refresh tokens and stale pending
	// registrations. Correctness never depends on its cadence.
	sweepCtx, stopSweeper := context.WithCancel(ctx)
	defer stopSweeper()
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-sweepCtx.Done():
				return
			case <-ticker.C:
				authService.PruneExpired(sweepCtx)
			}
		}
	}()

	// Create HTTP server with timeouts
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Server starting on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}

// emailSender picks the configured email provider.
func emailSender(cfg *config.Config) notify.EmailSender {
	switch cfg.EmailProvider {
	case "smtp":
		return &notify.SMTPSender{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.EmailFrom,
		}
	case "mailgun":
		return &notify.MailgunSender{
			Domain: cfg.MailgunDomain,
			APIKey: cfg.MailgunAPIKey,
			From:   cfg.EmailFrom,
		}
	default:
		log.Println("EMAIL_PROVIDER not configured; emails are written to the log")
		return notify.LogSender{}
	}
}

// smsSender returns the Vonage SMS channel, or nil when it is not configured.
func smsSender(cfg *config.Config) notify.SMSSender {
	if cfg.VonageAPIKey == "" {
		return nil
	}
	return &notify.VonageSender{
		APIKey:    cfg.VonageAPIKey,
		APISecret: cfg.VonageAPISecret,
		From:      cfg.VonageFrom,
	}
}

// runMigrations runs database migrations using goose
func runMigrations(database *sql.DB) error {
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	migrationDir := "internal/db/migrations"
	if info, err := os.Stat(migrationDir); err != nil || !info.IsDir() {
		return fmt.Errorf("migrations directory not found (run from the repo root)")
	}

	absDir, _ := filepath.Abs(migrationDir)
	log.Printf("Running migrations from %s", absDir)

	if err := goose.Up(database, migrationDir); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}
