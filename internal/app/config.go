package app

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/sundialhq/sundial/pkg/jwtx"
)

// minSecretLength is enforced for JWT secrets when ENV=prod.
const minSecretLength = 32

type Config struct {
	Env       string // Environment (dev, staging, prod) (default: dev)
	LogLevel  string // Log level (debug, info, warn, error) (default: info)
	LogFormat string // Log format (json, text) (default: json)
	Port      int    // HTTP server port (default: 8080)

	DatabaseDriver string // sqlite or postgres (default: sqlite)
	DatabaseFile   string // Path to SQLite database file (default: ./sundial.db)
	DatabaseURL    string // Postgres connection URL (required for postgres driver)

	ClientOrigin  string // Frontend origin for CORS and invite links (default: http://localhost:5173)
	AuthTransport string // cookie or bearer (default: cookie)
	CookieSecure  bool   // Secure + SameSite=None cookies (default: true when ENV=prod)

	JWTAccessSecret  string        // Required in prod; dev fallback provided
	JWTRefreshSecret string        // Required in prod; dev fallback provided
	AccessTokenTTL   time.Duration // Access token lifetime (default: 15m)
	RefreshTokenTTL  time.Duration // Refresh token lifetime (default: 7 days)
	InviteTokenTTL   time.Duration // Invitation lifetime (default: 72h)

	PepperFile string // Path to password pepper file (default: ./pepper)

	SMTPHost string
	SMTPPort int
	SMTPUser string
	SMTPPass string
	SMTPFrom string

	OpenAIAPIKey string // Optional: enables the external AI provider

	HousekeepingInterval time.Duration // Expired-row sweep interval (default: 1h)
	ShutdownGracePeriod  time.Duration // Graceful shutdown timeout (default: 10s)
}

func LoadConfig() Config {
	cfg := Config{
		Env:       getEnvOrDefault("ENV", "dev"),
		LogLevel:  getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat: getEnvOrDefault("LOG_FORMAT", "json"),
		Port:      getEnvIntOrDefault("PORT", 8080),

		DatabaseDriver: getEnvOrDefault("DATABASE_DRIVER", "sqlite"),
		DatabaseFile:   getEnvOrDefault("DATABASE_FILE", "sundial.db"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),

		ClientOrigin:  getEnvOrDefault("CLIENT_ORIGIN", "http://localhost:5173"),
		AuthTransport: getEnvOrDefault("AUTH_TRANSPORT", "cookie"),

		JWTAccessSecret:  getEnvOrDefault("JWT_ACCESS_SECRET", "dev-access-secret-change-me"),
		JWTRefreshSecret: getEnvOrDefault("JWT_REFRESH_SECRET", "dev-refresh-secret-change-me"),
		AccessTokenTTL:   getEnvDurationOrDefault("ACCESS_TOKEN_TTL", jwtx.DefaultAccessTokenTTL),
		InviteTokenTTL:   time.Duration(getEnvIntOrDefault("INVITE_TOKEN_TTL_HOURS", 72)) * time.Hour,

		PepperFile: getEnvOrDefault("PEPPER_FILE", "pepper"),

		SMTPHost: os.Getenv("SMTP_HOST"),
		SMTPPort: getEnvIntOrDefault("SMTP_PORT", 0),
		SMTPUser: os.Getenv("SMTP_USER"),
		SMTPPass: os.Getenv("SMTP_PASS"),
		SMTPFrom: getEnvOrDefault("SMTP_FROM", "no-reply@sundial.local"),

		OpenAIAPIKey: os.Getenv("OPENAI_API_KEY"),

		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", 1*time.Hour),
		ShutdownGracePeriod:  getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
	}

	cfg.RefreshTokenTTL = time.Duration(getEnvIntOrDefault("REFRESH_TOKEN_TTL_DAYS", 7)) * 24 * time.Hour

	// Cookies default Secure in prod; local dev runs over plain http.
	cfg.CookieSecure = getEnvBoolOrDefault("COOKIE_SECURE", cfg.Env == "prod")

	return cfg
}

// Validate rejects configurations that would run but misbehave, in
// particular weak secrets outside dev.
func (cfg Config) Validate() error {
	switch cfg.AuthTransport {
	case "cookie", "bearer":
	default:
		return fmt.Errorf("AUTH_TRANSPORT must be cookie or bearer, got %q", cfg.AuthTransport)
	}

	switch cfg.DatabaseDriver {
	case "sqlite":
	case "postgres":
		if cfg.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for the postgres driver")
		}
	default:
		return fmt.Errorf("DATABASE_DRIVER must be sqlite or postgres, got %q", cfg.DatabaseDriver)
	}

	if cfg.Env == "prod" {
		if len(cfg.JWTAccessSecret) < minSecretLength {
			return fmt.Errorf("JWT_ACCESS_SECRET must be at least %d characters in prod", minSecretLength)
		}
		if len(cfg.JWTRefreshSecret) < minSecretLength {
			return fmt.Errorf("JWT_REFRESH_SECRET must be at least %d characters in prod", minSecretLength)
		}
		if cfg.JWTAccessSecret == cfg.JWTRefreshSecret {
			return fmt.Errorf("JWT_ACCESS_SECRET and JWT_REFRESH_SECRET must differ")
		}
	}

	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if boolValue, err := strconv.ParseBool(value); err == nil {
		return boolValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	return defaultValue
}
