package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"whiskyrec/internal/validation"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	// Environment
	Env string // "development", "production", etc.

	// Server
	ServerAddr string
	BaseURL    string

	// Catalog
	CatalogSource          string        // file path or http(s) URL of the distillery CSV
	CatalogRefreshInterval time.Duration // 0 disables periodic refresh

	// Recommendation backend
	BackendURL           string
	BackendRecommendPath string
	BackendFeedbackPath  string
	BackendTimeout       time.Duration

	// Storage (both optional)
	DatabaseURL string
	RedisURL    string

	// Session
	SessionSecret string // Used for signing cookies (min 32 chars)

	// CORS
	CORSOrigins string // Comma-separated allowed origins

	// Rate limiting, requests per minute per IP
	RateLimit int

	// OIDC (optional, attributes feedback to a signed-in user)
	OIDCIssuer       string
	OIDCClientID     string
	OIDCClientSecret string
	OIDCRedirectURL  string

	// SMTP for operator alerts (optional)
	SMTPEnabled   bool
	SMTPHost      string
	SMTPPort      int
	SMTPUsername  string
	SMTPPassword  string
	SMTPFrom      string
	SMTPFromName  string
	SMTPTLS       string        // "none", "tls" or "starttls"
	AlertEmails   string        // Comma-separated recipients
	AlertCooldown time.Duration // Minimum gap between two alerts of one kind

	// Logging
	LogFormat string // "text" or "json"
	LogLevel  string // "debug", "info", "warn", "error"

	// Site Branding
	SiteTitle   string // env: SITE_TITLE, default: "Whisky Finder"
	SiteTagline string // env: SITE_TAGLINE
	SiteFooter  string // env: SITE_FOOTER

	// Page copy from the optional YAML file
	Page PageConfig
}

// Load reads configuration from environment variables with sensible defaults.
func Load() *Config {
	return &Config{
		Env:                    getEnv("ENV", "development"),
		ServerAddr:             getEnv("SERVER_ADDR", ":3000"),
		BaseURL:                getEnv("BASE_URL", "http://localhost:3000"),
		CatalogSource:          getEnv("CATALOG_SOURCE", "distillery_data.csv"),
		CatalogRefreshInterval: getDuration("CATALOG_REFRESH_INTERVAL", 0),
		BackendURL:             getEnv("BACKEND_URL", "http://localhost:8000"),
		BackendRecommendPath:   getEnv("BACKEND_RECOMMEND_PATH", "/recommend"),
		BackendFeedbackPath:    getEnv("BACKEND_FEEDBACK_PATH", "/submitFeedback"),
		BackendTimeout:         getDuration("BACKEND_TIMEOUT", 10*time.Second),
		DatabaseURL:            getEnv("DATABASE_URL", ""),
		RedisURL:               getEnv("REDIS_URL", ""),
		SessionSecret:          getEnv("SESSION_SECRET", "change-me-in-production-min-32-chars"),
		CORSOrigins:            getEnv("CORS_ORIGINS", ""),
		RateLimit:              getInt("RATE_LIMIT", 100),
		OIDCIssuer:             getEnv("OIDC_ISSUER", ""),
		OIDCClientID:           getEnv("OIDC_CLIENT_ID", ""),
		OIDCClientSecret:       getEnv("OIDC_CLIENT_SECRET", ""),
		OIDCRedirectURL:        getEnv("OIDC_REDIRECT_URL", "http://localhost:3000/auth/callback"),
		SMTPEnabled:            getEnv("SMTP_ENABLED", "false") == "true",
		SMTPHost:               getEnv("SMTP_HOST", ""),
		SMTPPort:               getInt("SMTP_PORT", 587),
		SMTPUsername:           getEnv("SMTP_USERNAME", ""),
		SMTPPassword:           getEnv("SMTP_PASSWORD", ""),
		SMTPFrom:               getEnv("SMTP_FROM", ""),
		SMTPFromName:           getEnv("SMTP_FROM_NAME", "Whisky Finder"),
		SMTPTLS:                getEnv("SMTP_TLS", "starttls"),
		AlertEmails:            getEnv("ALERT_EMAILS", ""),
		AlertCooldown:          getDuration("ALERT_COOLDOWN", 15*time.Minute),
		LogFormat:              getEnv("LOG_FORMAT", "text"),
		LogLevel:               getEnv("LOG_LEVEL", "info"),

		SiteTitle:   getEnv("SITE_TITLE", "Whisky Finder"),
		SiteTagline: getEnv("SITE_TAGLINE", "Pick three whiskies you like and we'll suggest the next one"),
		SiteFooter:  getEnv("SITE_FOOTER", "Whisky Finder"),

		Page: DefaultPageConfig(),
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return d
}

func getInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return n
}

// Validate checks settings that would otherwise fail at first use.
func (c *Config) Validate() error {
	var errs []error
	if ok, msg := validation.ValidateURL(c.BackendURL); !ok {
		errs = append(errs, fmt.Errorf("BACKEND_URL: %s", msg))
	}
	if c.CatalogSource == "" {
		errs = append(errs, errors.New("CATALOG_SOURCE is required"))
	} else if strings.Contains(c.CatalogSource, "://") {
		if ok, msg := validation.ValidateURL(c.CatalogSource); !ok {
			errs = append(errs, fmt.Errorf("CATALOG_SOURCE: %s", msg))
		}
	}
	if c.BackendTimeout <= 0 {
		errs = append(errs, errors.New("BACKEND_TIMEOUT must be positive"))
	}
	if !c.IsDev() && len(c.SessionSecret) < 32 {
		errs = append(errs, errors.New("SESSION_SECRET must be at least 32 characters"))
	}
	return errors.Join(errs...)
}

// IsDev returns true if the environment is set to development.
func (c *Config) IsDev() bool {
	return c.Env == "development" || c.Env == "dev"
}

// IsAuthEnabled returns true if OIDC login is configured.
func (c *Config) IsAuthEnabled() bool {
	return c.OIDCIssuer != ""
}

// IsEmailEnabled returns true if SMTP is configured.
func (c *Config) IsEmailEnabled() bool {
	return c.SMTPEnabled && c.SMTPHost != "" && c.SMTPFrom != ""
}

// AlertRecipients returns the trimmed, non-empty ALERT_EMAILS entries.
func (c *Config) AlertRecipients() []string {
	var out []string
	for _, addr := range strings.Split(c.AlertEmails, ",") {
		if addr = strings.TrimSpace(addr); addr != "" {
			out = append(out, addr)
		}
	}
	return out
}

// IsPersistenceEnabled returns true if feedback is stored in Postgres.
func (c *Config) IsPersistenceEnabled() bool {
	return c.DatabaseURL != ""
}
