package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds the application configuration
type Config struct {
	DatabaseURL string
	Port        string
	JWTSecret   string

	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	OTPTTL          time.Duration
	PendingTTL      time.Duration

	// Email dispatch. Provider is "smtp", "mailgun" or "log" (dev default:
	// codes are written to the server log instead of being sent).
	EmailProvider  string
	EmailFrom      string
	SMTPHost       string
	SMTPPort       string
	SMTPUsername   string
	SMTPPassword   string
	MailgunDomain  string
	MailgunAPIKey  string

	// SMS dispatch (Vonage). Empty key disables the SMS channel.
	VonageAPIKey    string
	VonageAPISecret string
	VonageFrom      string

	GeocodingAPIKey string

	// Object storage for avatar uploads (S3-compatible).
	S3Bucket    string
	S3Region    string
	S3Endpoint  string
	S3AccessKey string
	S3SecretKey string
	S3PublicURL string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Port:            "8080", // default port
		AccessTokenTTL:  24 * time.Hour,
		RefreshTokenTTL: 7 * 24 * time.Hour,
		OTPTTL:          10 * time.Minute,
		PendingTTL:      time.Hour,
		EmailProvider:   "log",
		EmailFrom:       `"Deligo Team" <no-reply@deligo.app>`,
		VonageFrom:      "SOS support",
	}

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is required")
	}
	cfg.DatabaseURL = databaseURL

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET environment variable is required")
	}
	cfg.JWTSecret = jwtSecret

	if port := os.Getenv("PORT"); port != "" {
		cfg.Port = port
	}

	if v := os.Getenv("ACCESS_TOKEN_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid ACCESS_TOKEN_TTL: %w", err)
		}
		cfg.AccessTokenTTL = d
	}
	if v := os.Getenv("REFRESH_TOKEN_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid REFRESH_TOKEN_TTL: %w", err)
		}
		cfg.RefreshTokenTTL = d
	}
	if v := os.Getenv("OTP_TTL_MINUTES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("invalid OTP_TTL_MINUTES: %q", v)
		}
		cfg.OTPTTL = time.Duration(n) * time.Minute
	}

	if v := os.Getenv("EMAIL_PROVIDER"); v != "" {
		switch v {
		case "smtp", "mailgun", "log":
			cfg.EmailProvider = v
		default:
			return nil, fmt.Errorf("unknown EMAIL_PROVIDER %q (want smtp, mailgun or log)", v)
		}
	}
	if v := os.Getenv("EMAIL_FROM"); v != "" {
		cfg.EmailFrom = v
	}
	cfg.SMTPHost = os.Getenv("SMTP_HOST")
	cfg.SMTPPort = os.Getenv("SMTP_PORT")
	cfg.SMTPUsername = os.Getenv("SMTP_USERNAME")
	cfg.SMTPPassword = os.Getenv("SMTP_PASSWORD")
	if cfg.EmailProvider == "smtp" && (cfg.SMTPHost == "" || cfg.SMTPPort == "") {
		return nil, fmt.Errorf("SMTP_HOST and SMTP_PORT are required when EMAIL_PROVIDER=smtp")
	}
	cfg.MailgunDomain = os.Getenv("MAILGUN_DOMAIN")
	cfg.MailgunAPIKey = os.Getenv("MAILGUN_API_KEY")
	if cfg.EmailProvider == "mailgun" && (cfg.MailgunDomain == "" || cfg.MailgunAPIKey == "") {
		return nil, fmt.Errorf("MAILGUN_DOMAIN and MAILGUN_API_KEY are required when EMAIL_PROVIDER=mailgun")
	}

	cfg.VonageAPIKey = os.Getenv("VONAGE_API_KEY")
	cfg.VonageAPISecret = os.Getenv("VONAGE_API_SECRET")
	if v := os.Getenv("VONAGE_FROM"); v != "" {
		cfg.VonageFrom = v
	}

	cfg.GeocodingAPIKey = os.Getenv("GOOGLE_MAPS_API_KEY")

	cfg.S3Bucket = os.Getenv("S3_BUCKET")
	cfg.S3Region = os.Getenv("S3_REGION")
	cfg.S3Endpoint = os.Getenv("S3_ENDPOINT")
	cfg.S3AccessKey = os.Getenv("S3_ACCESS_KEY")
	cfg.S3SecretKey = os.Getenv("S3_SECRET_KEY")
	cfg.S3PublicURL = os.Getenv("S3_PUBLIC_URL")

	return cfg, nil
}
