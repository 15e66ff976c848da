// Package config defines the global configuration structure for the
// shopnotify service. Configuration is loaded once at process initialization
// and is immutable thereafter, following 12-Factor principles: OS environment
// first, then a local dotenv file. Any missing required value or invalid
// format fails startup immediately.
package config

import (
	"time"

	"shopnotify/internal/types"
)

// SecretString is an alias for types.SecretString, the redacted secret type
// used throughout configuration to prevent accidental logging of sensitive
// values.
type SecretString = types.SecretString

// Config is the top-level configuration struct. It is populated once during
// process initialization and never modified. Sub-components receive only the
// specific config subsets they require.
type Config struct {
	Environment string `envconfig:"APP_ENV" default:"local" validate:"required,oneof=local dev staging prod"`
	Service     string `envconfig:"SERVICE_NAME" default:"shopnotify"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	Server   ServerConfig
	Database DatabaseConfig
	Email    EmailConfig
	Tracking TrackingConfig
	Sweep    SweepConfig
	Security SecurityConfig
}

// ServerConfig holds HTTP server and public URL configuration.
type ServerConfig struct {
	Port string `envconfig:"PORT" default:"8080"`
	// PublicBaseURL is the externally reachable base of this service; every
	// tracking link and the open pixel are built on it (no trailing slash).
	PublicBaseURL string `envconfig:"PUBLIC_BASE_URL" validate:"required,url"`
	// StorefrontURL is the customer-facing shop, used for product deep links
	// and as the safe fallback destination for click redirects.
	StorefrontURL string `envconfig:"STOREFRONT_URL" validate:"required,url"`
}

// DatabaseConfig holds database connection and pool tuning parameters.
type DatabaseConfig struct {
	URL SecretString `envconfig:"DATABASE_URL" validate:"required"`

	MaxConns          int           `envconfig:"DB_MAX_CONNS" default:"10"`
	MinConns          int           `envconfig:"DB_MIN_CONNS" default:"2"`
	MaxConnLifetime   time.Duration `envconfig:"DB_MAX_CONN_LIFETIME" default:"30m"`
	HealthCheckPeriod time.Duration `envconfig:"DB_HEALTH_CHECK_PERIOD" default:"1m"`
}

// EmailConfig holds the sender identity and transport API settings.
type EmailConfig struct {
	// Sender is validated against the strict "email" or
	// "Display Name <email>" pattern before any send is attempted.
	Sender  string `envconfig:"EMAIL_SENDER" validate:"required"`
	ReplyTo string `envconfig:"EMAIL_REPLY_TO"`

	TransportURL     string        `envconfig:"EMAIL_TRANSPORT_URL" validate:"required,url"`
	TransportAPIKey  SecretString  `envconfig:"EMAIL_TRANSPORT_API_KEY" validate:"required"`
	TransportTimeout time.Duration `envconfig:"EMAIL_TRANSPORT_TIMEOUT" default:"10s"`
}

// TrackingConfig holds settings for the link rewriter and capture endpoints.
type TrackingConfig struct {
	// SigningKey keys the HMAC on click and pixel URLs so the redirector
	// cannot be abused as an open redirect.
	SigningKey SecretString `envconfig:"TRACKING_SIGNING_KEY" validate:"required"`
}

// SweepConfig controls the reaper for ledger rows stuck in "sending" after a
// process crash between creation and reconciliation.
type SweepConfig struct {
	Enabled        bool          `envconfig:"SWEEP_ENABLED" default:"true"`
	Schedule       string        `envconfig:"SWEEP_SCHEDULE" default:"*/5 * * * *"`
	StaleThreshold time.Duration `envconfig:"SWEEP_STALE_THRESHOLD" default:"15m"`
}

// SecurityConfig holds CORS settings for the HTTP surface. Tracking
// endpoints are always permissive regardless of this list.
type SecurityConfig struct {
	CorsAllowedOrigins []string `envconfig:"CORS_ALLOWED_ORIGINS" default:"*"`
}
