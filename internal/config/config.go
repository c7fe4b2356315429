package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Auth     AuthConfig
}

type ServerConfig struct {
	Port            string
	Env             string // dev or prod
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	TrustedOrigins  []string // CORS allowed origins for cookie auth
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// TokenBackend selects the token format used for access and refresh tokens.
type TokenBackend string

const (
	BackendJWT    TokenBackend = "jwt"
	BackendPaseto TokenBackend = "paseto"
)

// RefreshTokenSource selects where the presented refresh token is read from
// on inbound requests.
type RefreshTokenSource string

const (
	RefreshFromCookie RefreshTokenSource = "cookie"
	RefreshFromBody   RefreshTokenSource = "body"
)

type AuthConfig struct {
	TokenBackend       TokenBackend
	RefreshTokenSource RefreshTokenSource

	AccessTokenSecret  string
	RefreshTokenSecret string

	// Expirations are configured in milliseconds and are required. A value
	// that is missing or does not parse is a startup error; there is no
	// fallback expiration.
	AccessTokenExpirationMs  int64
	RefreshTokenExpirationMs int64
}

// AccessTokenDuration returns the access token lifetime as a time.Duration.
func (c *AuthConfig) AccessTokenDuration() time.Duration {
	return time.Duration(c.AccessTokenExpirationMs) * time.Millisecond
}

// RefreshTokenDuration returns the refresh token lifetime as a time.Duration.
func (c *AuthConfig) RefreshTokenDuration() time.Duration {
	return time.Duration(c.RefreshTokenExpirationMs) * time.Millisecond
}

// Load reads configuration from environment variables. Secrets and token
// expirations have no defaults: a missing or malformed value fails startup.
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	auth, err := loadAuthConfig()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnv("SERVER_PORT", "8080"),
			Env:             getEnv("APP_ENV", "dev"),
			ReadTimeout:     getDurationEnv("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:    getDurationEnv("SERVER_WRITE_TIMEOUT", 10*time.Second),
			ShutdownTimeout: getDurationEnv("SERVER_SHUTDOWN_TIMEOUT", 15*time.Second),
			TrustedOrigins:  getSliceEnv("TRUSTED_ORIGINS", []string{"http://localhost:3000"}),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "tasktracker"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Auth: *auth,
	}

	return cfg, nil
}

func loadAuthConfig() (*AuthConfig, error) {
	backend := TokenBackend(getEnv("TOKEN_BACKEND", string(BackendJWT)))
	switch backend {
	case BackendJWT, BackendPaseto:
	default:
		return nil, fmt.Errorf("unknown TOKEN_BACKEND %q", backend)
	}

	source := RefreshTokenSource(getEnv("REFRESH_TOKEN_SOURCE", string(RefreshFromCookie)))
	switch source {
	case RefreshFromCookie, RefreshFromBody:
	default:
		return nil, fmt.Errorf("unknown REFRESH_TOKEN_SOURCE %q", source)
	}

	accessSecret, err := requireEnv("ACCESS_TOKEN_SECRET")
	if err != nil {
		return nil, err
	}
	refreshSecret, err := requireEnv("REFRESH_TOKEN_SECRET")
	if err != nil {
		return nil, err
	}
	accessMs, err := requireMillisEnv("ACCESS_TOKEN_EXPIRATION_MS")
	if err != nil {
		return nil, err
	}
	refreshMs, err := requireMillisEnv("REFRESH_TOKEN_EXPIRATION_MS")
	if err != nil {
		return nil, err
	}

	// PASETO v4.local requires exactly 32-byte symmetric keys
	if backend == BackendPaseto {
		if len(accessSecret) != 32 {
			return nil, fmt.Errorf("ACCESS_TOKEN_SECRET must be exactly 32 bytes for the paseto backend, got %d", len(accessSecret))
		}
		if len(refreshSecret) != 32 {
			return nil, fmt.Errorf("REFRESH_TOKEN_SECRET must be exactly 32 bytes for the paseto backend, got %d", len(refreshSecret))
		}
	}

	return &AuthConfig{
		TokenBackend:             backend,
		RefreshTokenSource:       source,
		AccessTokenSecret:        accessSecret,
		RefreshTokenSecret:       refreshSecret,
		AccessTokenExpirationMs:  accessMs,
		RefreshTokenExpirationMs: refreshMs,
	}, nil
}

func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

// IsDevelopment returns true if the environment is set to dev
func (c *ServerConfig) IsDevelopment() bool {
	return c.Env == "dev"
}

func requireEnv(key string) (string, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return "", fmt.Errorf("required environment variable %s is not set", key)
	}
	return value, nil
}

func requireMillisEnv(key string) (int64, error) {
	raw, err := requireEnv(key)
	if err != nil {
		return 0, err
	}

	ms, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer millisecond value: %w", key, err)
	}
	if ms <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %d", key, ms)
	}

	return ms, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	seconds, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}

	return time.Duration(seconds) * time.Second
}

func getSliceEnv(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}

	if len(result) == 0 {
		return defaultValue
	}

	return result
}
