package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

const (
	defaultClientURL   = "http://localhost:3000"
	minJWTSecretLength = 32
)

// Config aggregates runtime configuration for the auth service. It is built once at
// startup and passed by value to every component that needs it.
type Config struct {
	Environment        string
	HTTPPort           int
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string
	JWTSecret          string
	JWTAlgorithm       string
	ClientURL          string
	ProviderTimeout    time.Duration
	DataStore          string
	DatabaseURL        string
	LogLevel           string
	LogFormat          string
	AllowedOrigins     []string
}

// rawEnv holds env values before secrets are resolved and the result is validated.
type rawEnv struct {
	Environment       string        `env:"APP_ENV"             envDefault:"development"`
	AuthPort          string        `env:"AUTH_PORT"`
	Port              string        `env:"PORT"                envDefault:"4000"`
	GoogleClientID    string        `env:"GOOGLE_CLIENT_ID"`
	GoogleRedirectURL string        `env:"GOOGLE_REDIRECT_URL"`
	JWTAlgorithm      string        `env:"JWT_ALGORITHM"       envDefault:"HS256"`
	ClientURL         string        `env:"CLIENT_URL"`
	ProviderTimeout   time.Duration `env:"PROVIDER_TIMEOUT"    envDefault:"10s"`
	DataStore         string        `env:"DATA_STORE"          envDefault:"memory"`
	LogLevel          string        `env:"LOG_LEVEL"           envDefault:"info"`
	LogFormat         string        `env:"LOG_FORMAT"          envDefault:"text"`
	AllowedOrigins    []string      `env:"ALLOWED_ORIGINS"     envSeparator:","`
}

// Load reads configuration from environment variables. Any missing required value is
// returned as an error; callers treat it as fatal.
func Load() (Config, error) {
	var raw rawEnv
	if err := env.Parse(&raw); err != nil {
		return Config{}, fmt.Errorf("config: parse env: %w", err)
	}

	clientSecret, err := getEnvOrFile("GOOGLE_CLIENT_SECRET", "/run/secrets/multas_google_client_secret")
	if err != nil {
		return Config{}, err
	}
	jwtSecret, err := getEnvOrFile("JWT_SECRET", "/run/secrets/multas_jwt_secret")
	if err != nil {
		return Config{}, err
	}
	databaseURL, err := getEnvOrFile("DATABASE_URL", "/run/secrets/multas_database_url")
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		Environment:        strings.ToLower(strings.TrimSpace(raw.Environment)),
		GoogleClientID:     strings.TrimSpace(raw.GoogleClientID),
		GoogleClientSecret: strings.TrimSpace(clientSecret),
		JWTSecret:          strings.TrimSpace(jwtSecret),
		JWTAlgorithm:       strings.ToUpper(strings.TrimSpace(raw.JWTAlgorithm)),
		ClientURL:          strings.TrimSuffix(strings.TrimSpace(raw.ClientURL), "/"),
		ProviderTimeout:    raw.ProviderTimeout,
		DataStore:          strings.ToLower(strings.TrimSpace(raw.DataStore)),
		DatabaseURL:        strings.TrimSpace(databaseURL),
		LogLevel:           strings.ToLower(raw.LogLevel),
		LogFormat:          strings.ToLower(raw.LogFormat),
		AllowedOrigins:     trimCSV(raw.AllowedOrigins),
	}

	portValue := strings.TrimSpace(raw.AuthPort)
	if portValue == "" {
		portValue = strings.TrimSpace(raw.Port)
	}
	port, err := strconv.Atoi(portValue)
	if err != nil || port <= 0 || port > 65535 {
		return Config{}, fmt.Errorf("config: invalid port %q", portValue)
	}
	cfg.HTTPPort = port

	if cfg.GoogleClientID == "" {
		return Config{}, errors.New("config: GOOGLE_CLIENT_ID is required")
	}
	if cfg.GoogleClientSecret == "" {
		return Config{}, errors.New("config: GOOGLE_CLIENT_SECRET is required")
	}
	if cfg.JWTSecret == "" {
		return Config{}, errors.New("config: JWT_SECRET is required")
	}
	if !cfg.IsDevelopment() && len(cfg.JWTSecret) < minJWTSecretLength {
		return Config{}, fmt.Errorf("config: JWT_SECRET must be at least %d bytes outside development", minJWTSecretLength)
	}

	switch cfg.JWTAlgorithm {
	case "HS256", "HS384", "HS512":
	default:
		return Config{}, fmt.Errorf("config: unsupported JWT_ALGORITHM %q", raw.JWTAlgorithm)
	}

	if cfg.ClientURL == "" {
		if !cfg.IsDevelopment() {
			return Config{}, errors.New("config: CLIENT_URL is required")
		}
		cfg.ClientURL = defaultClientURL
	}
	if parsed, err := url.Parse(cfg.ClientURL); err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return Config{}, fmt.Errorf("config: CLIENT_URL %q must be an absolute URL", cfg.ClientURL)
	}

	cfg.GoogleRedirectURL = strings.TrimSpace(raw.GoogleRedirectURL)
	if cfg.GoogleRedirectURL == "" {
		cfg.GoogleRedirectURL = fmt.Sprintf("http://localhost:%d/auth/google/callback", cfg.HTTPPort)
	}

	if cfg.ProviderTimeout <= 0 {
		return Config{}, errors.New("config: PROVIDER_TIMEOUT must be positive")
	}

	switch cfg.DataStore {
	case "memory":
	case "postgres":
		if cfg.DatabaseURL == "" {
			return Config{}, errors.New("config: DATA_STORE is postgres but DATABASE_URL is not set")
		}
	default:
		return Config{}, fmt.Errorf("config: unsupported DATA_STORE %q", raw.DataStore)
	}

	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = []string{cfg.ClientURL}
	}
	if !cfg.IsDevelopment() {
		for _, origin := range cfg.AllowedOrigins {
			if origin == "*" {
				return Config{}, errors.New("config: ALLOWED_ORIGINS cannot contain wildcard outside development")
			}
		}
	}

	return cfg, nil
}

// HTTPAddress returns the address the HTTP server should bind to.
func (c Config) HTTPAddress() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

// IsDevelopment reports whether development defaults are in effect.
func (c Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// UseInMemoryStore returns true if the in-memory user directory should be used.
func (c Config) UseInMemoryStore() bool {
	return c.DataStore == "memory"
}

func trimCSV(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		trimmed := strings.TrimSpace(v)
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
