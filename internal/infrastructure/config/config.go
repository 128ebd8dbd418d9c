// Package config loads the service configuration from config.toml and
// NOTARIA_* environment variables.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/notaria/backend/internal/domain/shared"
	"github.com/spf13/viper"
)

const envPrefix = "NOTARIA"

// Notification drivers
const (
	NotificationDriverLog     = "log"
	NotificationDriverWebhook = "webhook"
)

type Config struct {
	App          AppConfig          `mapstructure:"app"`
	Database     DatabaseConfig     `mapstructure:"database"`
	Redis        RedisConfig        `mapstructure:"redis"`
	Log          LogConfig          `mapstructure:"log"`
	HTTP         HTTPConfig         `mapstructure:"http"`
	Ledger       LedgerConfig       `mapstructure:"ledger"`
	Notification NotificationConfig `mapstructure:"notification"`
	Idempotency  IdempotencyConfig  `mapstructure:"idempotency"`
	Telemetry    TelemetryConfig    `mapstructure:"telemetry"`
}

type AppConfig struct {
	Name     string `mapstructure:"name"`
	Env      string `mapstructure:"env"`
	Port     string `mapstructure:"port"`
	Timezone string `mapstructure:"timezone"` // IANA name of the office calendar
}

type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	// LockTimeout bounds how long a mutation waits for a document row lock
	LockTimeout   time.Duration `mapstructure:"lock_timeout"`
	SlowThreshold time.Duration `mapstructure:"slow_threshold"`
}

// RedisConfig backs the event idempotency store. Disabled means in-memory.
type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

type HTTPConfig struct {
	ReadTimeout      time.Duration `mapstructure:"read_timeout"`
	WriteTimeout     time.Duration `mapstructure:"write_timeout"`
	IdleTimeout      time.Duration `mapstructure:"idle_timeout"`
	MaxHeaderBytes   int           `mapstructure:"max_header_bytes"`
	MaxBodySize      int64         `mapstructure:"max_body_size"` // certificate uploads included
	CORSAllowOrigins []string      `mapstructure:"cors_allow_origins"`
	CORSAllowMethods []string      `mapstructure:"cors_allow_methods"`
	CORSAllowHeaders []string      `mapstructure:"cors_allow_headers"`
	TrustedProxies   []string      `mapstructure:"trusted_proxies"`

	// verification code attempts allowed per document and client within the window
	DeliverAttemptLimit  int           `mapstructure:"deliver_attempt_limit"`
	DeliverAttemptWindow time.Duration `mapstructure:"deliver_attempt_window"`
}

type LedgerConfig struct {
	ConflictRetries int `mapstructure:"conflict_retries"`
}

type NotificationConfig struct {
	Driver     string        `mapstructure:"driver"`
	WebhookURL string        `mapstructure:"webhook_url"`
	Timeout    time.Duration `mapstructure:"timeout"`
	QueueSize  int           `mapstructure:"queue_size"`
	Workers    int           `mapstructure:"workers"`
}

type IdempotencyConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
}

type TelemetryConfig struct {
	Enabled           bool          `mapstructure:"enabled"`
	CollectorEndpoint string        `mapstructure:"collector_endpoint"`
	SamplingRatio     float64       `mapstructure:"sampling_ratio"`
	ServiceName       string        `mapstructure:"service_name"`
	Insecure          bool          `mapstructure:"insecure"`
	MetricsEnabled    bool          `mapstructure:"metrics_enabled"`
	MetricsInterval   time.Duration `mapstructure:"metrics_interval"`
}

// defaults lists every key, so each one can be overridden from the
// environment even when config.toml does not mention it.
var defaults = map[string]any{
	"app.name":     "notaria-backend",
	"app.env":      "development",
	"app.port":     "8080",
	"app.timezone": shared.DefaultTimezone,

	"database.host":               "localhost",
	"database.port":               5432,
	"database.user":               "postgres",
	"database.password":           "",
	"database.dbname":             "notaria",
	"database.sslmode":            "disable",
	"database.max_open_conns":     25,
	"database.max_idle_conns":     5,
	"database.conn_max_lifetime":  time.Hour,
	"database.conn_max_idle_time": 30 * time.Minute,
	"database.lock_timeout":       5 * time.Second,
	"database.slow_threshold":     200 * time.Millisecond,

	"redis.enabled":  false,
	"redis.host":     "localhost",
	"redis.port":     6379,
	"redis.password": "",
	"redis.db":       0,

	"log.level":  "info",
	"log.format": "console",
	"log.output": "stdout",

	"http.read_timeout":           15 * time.Second,
	"http.write_timeout":          15 * time.Second,
	"http.idle_timeout":           time.Minute,
	"http.max_header_bytes":       1 << 20,
	"http.max_body_size":          2 << 20,
	"http.cors_allow_origins":     []string{},
	"http.cors_allow_methods":     []string{"GET", "POST", "OPTIONS"},
	"http.cors_allow_headers":     []string{"Content-Type", "X-Request-ID", "X-User-ID", "X-User-Name", "X-User-Role"},
	"http.trusted_proxies":        []string{},
	"http.deliver_attempt_limit":  5,
	"http.deliver_attempt_window": 15 * time.Minute,

	"ledger.conflict_retries": 2,

	"notification.driver":      NotificationDriverLog,
	"notification.webhook_url": "",
	"notification.timeout":     10 * time.Second,
	"notification.queue_size":  256,
	"notification.workers":     2,

	"idempotency.ttl": shared.DefaultIdempotencyTTL,

	"telemetry.enabled":            false,
	"telemetry.collector_endpoint": "localhost:4317",
	"telemetry.sampling_ratio":     1.0,
	"telemetry.service_name":       "notaria-backend",
	"telemetry.insecure":           false,
	"telemetry.metrics_enabled":    false,
	"telemetry.metrics_interval":   time.Minute,
}

// Load reads ./config.toml (or /app/config.toml) when present. NOTARIA_*
// variables override the file, e.g. NOTARIA_DATABASE_PASSWORD, and the file
// overrides the built-in defaults.
func Load() (*Config, error) {
	v := newViper()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	return decode(v)
}

// LoadFile is Load with an explicit file, which must exist.
func LoadFile(path string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	return decode(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	db := c.Database
	switch {
	case db.MaxOpenConns <= 0:
		return errors.New("database.max_open_conns must be positive")
	case db.MaxIdleConns < 0:
		return errors.New("database.max_idle_conns cannot be negative")
	case db.MaxIdleConns > db.MaxOpenConns:
		return fmt.Errorf("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)",
			db.MaxIdleConns, db.MaxOpenConns)
	case c.HTTP.DeliverAttemptLimit < 1:
		return fmt.Errorf("http.deliver_attempt_limit must be at least 1, got %d", c.HTTP.DeliverAttemptLimit)
	case c.HTTP.DeliverAttemptWindow <= 0:
		return fmt.Errorf("http.deliver_attempt_window must be positive, got %s", c.HTTP.DeliverAttemptWindow)
	case c.Ledger.ConflictRetries < 0:
		return errors.New("ledger.conflict_retries cannot be negative")
	case c.Telemetry.SamplingRatio < 0 || c.Telemetry.SamplingRatio > 1:
		return fmt.Errorf("telemetry.sampling_ratio must be between 0 and 1, got %g", c.Telemetry.SamplingRatio)
	}

	if _, err := c.App.Calendar(); err != nil {
		return fmt.Errorf("app.timezone: %w", err)
	}
	if err := c.Notification.validate(); err != nil {
		return err
	}
	if c.App.IsProduction() {
		return c.validateProduction()
	}
	return nil
}

func (n NotificationConfig) validate() error {
	switch n.Driver {
	case NotificationDriverLog:
	case NotificationDriverWebhook:
		if n.WebhookURL == "" {
			return errors.New("notification.webhook_url is required for the webhook driver")
		}
		if _, err := url.ParseRequestURI(n.WebhookURL); err != nil {
			return fmt.Errorf("notification.webhook_url is invalid: %w", err)
		}
	default:
		return fmt.Errorf("notification.driver must be %q or %q, got %q",
			NotificationDriverLog, NotificationDriverWebhook, n.Driver)
	}
	if n.Workers < 0 || n.QueueSize < 0 {
		return errors.New("notification.workers and notification.queue_size cannot be negative")
	}
	return nil
}

func (c *Config) validateProduction() error {
	if c.Database.Password == "" {
		return errors.New("database.password is required in production")
	}
	if c.Database.SSLMode == "disable" {
		return errors.New("database.sslmode cannot be 'disable' in production")
	}
	if slices.Contains(c.HTTP.CORSAllowOrigins, "*") {
		return errors.New("http.cors_allow_origins cannot be '*' in production")
	}
	return nil
}

func (a AppConfig) IsProduction() bool {
	return a.Env == "production"
}

// Calendar builds the office calendar policy for the configured timezone
func (a AppConfig) Calendar() (shared.CalendarPolicy, error) {
	return shared.NewCalendarPolicy(a.Timezone)
}

// DSN renders a postgres URL with the credentials escaped
func (d DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:     d.DBName,
		RawQuery: url.Values{"sslmode": {d.SSLMode}}.Encode(),
	}
	return u.String()
}

func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}
