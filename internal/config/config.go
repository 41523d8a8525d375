// Package config loads the service settings from the environment.
// A .env file in the working directory is read first when present.
package config

import (
	"fmt"
	"strings"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/kelseyhightower/envconfig"
)

const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"

	EnvDevelopment = "development"
)

// Config holds every setting of the service.
type Config struct {
	AppEnv string `envconfig:"APP_ENV" default:"development"`
	Port   string `envconfig:"PORT" default:"8080"`

	// --- Database ---
	DBDriver       string `envconfig:"DB_DRIVER" default:"postgres"`
	DBHost         string `envconfig:"DB_HOST" default:"localhost"`
	DBPort         int    `envconfig:"DB_PORT" default:"5432"`
	DBUser         string `envconfig:"DB_USER" default:"postgres"`
	DBPassword     string `envconfig:"DB_PASSWORD"`
	DBName         string `envconfig:"DB_NAME" default:"qaforum"`
	DBSSLMode      string `envconfig:"DB_SSLMODE" default:"disable"`
	DBMaxOpenConns int    `envconfig:"DB_MAX_OPEN_CONNS" default:"100"`
	DBMaxIdleConns int    `envconfig:"DB_MAX_IDLE_CONNS" default:"10"`

	// --- Auth ---
	JWTSecret     string        `envconfig:"JWT_SECRET"`
	TokenLifetime time.Duration `envconfig:"TOKEN_LIFETIME" default:"72h"`
	// CodeLifetime bounds activation and password reset codes.
	CodeLifetime time.Duration `envconfig:"CODE_LIFETIME" default:"24h"`

	// --- Logging ---
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"text"`

	// --- Notifications ---
	SMTPHost         string        `envconfig:"SMTP_HOST"`
	SMTPPort         int           `envconfig:"SMTP_PORT" default:"587"`
	SMTPUsername     string        `envconfig:"SMTP_USERNAME"`
	SMTPPassword     string        `envconfig:"SMTP_PASSWORD"`
	MailFrom         string        `envconfig:"MAIL_FROM" default:"no-reply@qaforum.local"`
	TwilioAccountSID string        `envconfig:"TWILIO_ACCOUNT_SID"`
	TwilioAuthToken  string        `envconfig:"TWILIO_AUTH_TOKEN"`
	TwilioFromNumber string        `envconfig:"TWILIO_FROM_NUMBER"`
	NotifyDelay      time.Duration `envconfig:"NOTIFY_DELAY" default:"1s"`
	NotifyWorkers    int           `envconfig:"NOTIFY_WORKERS" default:"2"`
	NotifyQueueSize  int           `envconfig:"NOTIFY_QUEUE_SIZE" default:"256"`

	// --- Jobs ---
	// ReconcileSchedule is a cron spec; empty disables the job.
	ReconcileSchedule string `envconfig:"RECONCILE_SCHEDULE" default:"@every 1h"`
	// ReconcileGrace is how long drift must persist before it is repaired.
	ReconcileGrace time.Duration `envconfig:"RECONCILE_GRACE" default:"5s"`

	// --- HTTP ---
	RateLimitRPS   float64  `envconfig:"RATE_LIMIT_RPS" default:"5"`
	RateLimitBurst int      `envconfig:"RATE_LIMIT_BURST" default:"10"`
	CORSOrigins    []string `envconfig:"CORS_ORIGINS" default:"*"`
}

// DatabaseDSN returns the key/value connection string for PostgreSQL.
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%d sslmode=%s TimeZone=UTC",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort, c.DBSSLMode,
	)
}

func (c *Config) IsDevelopment() bool {
	return c.AppEnv == EnvDevelopment
}

func (c *Config) SMTPEnabled() bool {
	return c.SMTPHost != ""
}

func (c *Config) TwilioEnabled() bool {
	return c.TwilioAccountSID != "" && c.TwilioAuthToken != "" && c.TwilioFromNumber != ""
}

func (c *Config) Validate() error {
	switch c.DBDriver {
	case DriverPostgres, DriverMemory:
	default:
		return fmt.Errorf("DB_DRIVER must be %q or %q, got %q", DriverPostgres, DriverMemory, c.DBDriver)
	}
	if c.DBMaxOpenConns <= 0 || c.DBMaxIdleConns < 0 || c.DBMaxIdleConns > c.DBMaxOpenConns {
		return fmt.Errorf("invalid DB_MAX_IDLE_CONNS/DB_MAX_OPEN_CONNS")
	}
	if c.JWTSecret == "" && !c.IsDevelopment() {
		return fmt.Errorf("JWT_SECRET is required outside development")
	}
	if c.TokenLifetime <= 0 || c.CodeLifetime <= 0 {
		return fmt.Errorf("TOKEN_LIFETIME and CODE_LIFETIME must be > 0")
	}
	if c.NotifyWorkers <= 0 || c.NotifyQueueSize <= 0 {
		return fmt.Errorf("NOTIFY_WORKERS and NOTIFY_QUEUE_SIZE must be > 0")
	}
	if c.NotifyDelay < 0 || c.ReconcileGrace < 0 {
		return fmt.Errorf("NOTIFY_DELAY and RECONCILE_GRACE must be >= 0")
	}
	if c.RateLimitRPS <= 0 || c.RateLimitBurst <= 0 {
		return fmt.Errorf("RATE_LIMIT_RPS and RATE_LIMIT_BURST must be > 0")
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("LOG_FORMAT must be text or json, got %q", c.LogFormat)
	}
	return nil
}

// Load reads the environment into a Config and validates it.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if cfg.JWTSecret == "" && cfg.IsDevelopment() {
		cfg.JWTSecret = "development-secret"
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
