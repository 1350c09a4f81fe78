package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config aggregates runtime configuration for the Network Brain API.
type Config struct {
	Environment string
	HTTPPort    int
	LogLevel    string

	DataStore   string
	DatabaseURL string

	// BaseURL is the externally visible origin used to build absolute
	// redirect links (dashboard, login error pages).
	BaseURL string

	// SessionSecret signs session JWTs. Load fails when it is unset; the
	// service never falls back to a built-in secret.
	SessionSecret string

	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURI  string

	// AdminEmails is the identity allowlist. Empty means nobody can log in.
	AdminEmails []string

	AllowedOrigins   []string
	ExtensionOrigins []string

	// OversightBCC is always appended to outbound mail.
	OversightBCC string

	CalendarMaxResults int
}

// Load reads configuration from environment variables with sensible defaults for local development.
func Load() (Config, error) {
	databaseURL, err := getEnvOrFile("DATABASE_URL", "/run/secrets/networkbrain_database_url")
	if err != nil {
		return Config{}, err
	}

	sessionSecret, err := getEnvOrFile("SESSION_SECRET", "/run/secrets/networkbrain_session_secret")
	if err != nil {
		return Config{}, err
	}
	if strings.TrimSpace(sessionSecret) == "" {
		return Config{}, fmt.Errorf("config: SESSION_SECRET is required")
	}

	googleClientSecret, err := getEnvOrFile("GOOGLE_CLIENT_SECRET", "/run/secrets/networkbrain_google_client_secret")
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		Environment:        getEnv("APP_ENV", "development"),
		LogLevel:           strings.ToLower(getEnv("LOG_LEVEL", "info")),
		DataStore:          strings.ToLower(getEnv("DATA_STORE", "memory")),
		DatabaseURL:        databaseURL,
		BaseURL:            strings.TrimSuffix(getEnv("BASE_URL", "http://localhost:8080"), "/"),
		SessionSecret:      strings.TrimSpace(sessionSecret),
		GoogleClientID:     strings.TrimSpace(os.Getenv("GOOGLE_CLIENT_ID")),
		GoogleClientSecret: strings.TrimSpace(googleClientSecret),
		AdminEmails:        parseCSV(os.Getenv("ADMIN_EMAILS")),
		AllowedOrigins:     parseCSV(getEnv("ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:8080")),
		ExtensionOrigins:   parseCSV(os.Getenv("EXTENSION_ORIGINS")),
		OversightBCC:       getEnv("OVERSIGHT_BCC", "intros@somethingnew.nz"),
	}

	cfg.GoogleRedirectURI = getEnv("GOOGLE_REDIRECT_URI", cfg.BaseURL+"/api/auth/google/callback")

	portValue := getEnv("PORT", getEnv("HTTP_PORT", "8080"))
	port, err := strconv.Atoi(portValue)
	if err != nil {
		return Config{}, fmt.Errorf("invalid port %q: %w", portValue, err)
	}
	cfg.HTTPPort = port

	maxResultsValue := getEnv("CALENDAR_MAX_RESULTS", "250")
	maxResults, err := strconv.Atoi(maxResultsValue)
	if err != nil || maxResults <= 0 {
		return Config{}, fmt.Errorf("invalid CALENDAR_MAX_RESULTS %q", maxResultsValue)
	}
	cfg.CalendarMaxResults = maxResults

	// The Google client may be absent entirely (auth endpoints then report a
	// configuration error), but a half-configured pair is always a mistake.
	if (cfg.GoogleClientID == "") != (cfg.GoogleClientSecret == "") {
		return Config{}, fmt.Errorf("config: GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET must be set together")
	}

	if cfg.DataStore == "postgres" && cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("DATA_STORE is postgres but DATABASE_URL is not set")
	}

	return cfg, nil
}

// HTTPAddress returns the address the HTTP server should bind to.
func (c Config) HTTPAddress() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

// UseInMemoryStore returns true if the in-memory repositories should be used.
func (c Config) UseInMemoryStore() bool {
	return c.DataStore == "memory"
}

// GoogleConfigured reports whether a complete OAuth client is available.
func (c Config) GoogleConfigured() bool {
	return c.GoogleClientID != "" && c.GoogleClientSecret != "" && c.GoogleRedirectURI != ""
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func parseCSV(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func getEnvOrFile(key, defaultPath string) (string, error) {
	if value := os.Getenv(key); value != "" {
		return value, nil
	}

	fileKey := key + "_FILE"
	if path := os.Getenv(fileKey); path != "" {
		return readSecret(path, fileKey)
	}

	if defaultPath != "" {
		return readSecret(defaultPath, key)
	}

	return "", nil
}

func readSecret(path, name string) (string, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("config: reading %s (%s): %w", name, path, err)
	}

	value := strings.TrimSpace(string(contents))
	if value == "" {
		return "", fmt.Errorf("config: %s (%s) is empty", name, path)
	}
	return value, nil
}
