// Package config loads the application configuration from a YAML file with
// REMFIX_* environment overrides, and exposes it through a process global.
package config

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/spf13/viper"
)

// Config is the full application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Telephony TelephonyConfig `mapstructure:"telephony"`
	Telegram  TelegramConfig  `mapstructure:"telegram"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Runner    RunnerConfig    `mapstructure:"runner"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	PublicURL       string        `mapstructure:"public_url"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DatabaseConfig configures the SQL store.
type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"` // postgres, mysql, sqlite3
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// AuthConfig configures sessions and field-agent API tokens.
type AuthConfig struct {
	SessionMaxAge  time.Duration `mapstructure:"session_max_age"`
	SessionIdleAge time.Duration `mapstructure:"session_idle_age"`
	SecureCookies  bool          `mapstructure:"secure_cookies"`
	JWTSecret      string        `mapstructure:"jwt_secret"`
}

// TelephonyConfig holds provider secrets. Verification fails closed when a
// secret is empty unless AllowUnverified is set.
type TelephonyConfig struct {
	ZadarmaKey      string `mapstructure:"zadarma_key"`
	ZadarmaSecret   string `mapstructure:"zadarma_secret"`
	OnlinePBXKey    string `mapstructure:"onlinepbx_key"`
	TwilioAuthToken string `mapstructure:"twilio_auth_token"`
	AllowUnverified bool   `mapstructure:"allow_unverified"`
}

// TelegramConfig configures the notification bot.
type TelegramConfig struct {
	BotToken      string `mapstructure:"bot_token"`
	WebhookSecret string `mapstructure:"webhook_secret"`
}

// RateLimitConfig configures the login rate limiter.
type RateLimitConfig struct {
	LoginPerHour int    `mapstructure:"login_per_hour"`
	RedisAddr    string `mapstructure:"redis_addr"` // empty = in-memory buckets
}

// RunnerConfig configures background jobs.
type RunnerConfig struct {
	SessionCleanupInterval time.Duration `mapstructure:"session_cleanup_interval"`
	CallSweepInterval      time.Duration `mapstructure:"call_sweep_interval"`
}

var (
	mu      sync.RWMutex
	current *Config
)

// Get returns the process configuration, or nil before Load.
func Get() *Config {
	mu.RLock()
	defer mu.RUnlock()
	return current
}

// Set replaces the process configuration. Used by Load and by tests.
func Set(cfg *Config) {
	mu.Lock()
	defer mu.Unlock()
	current = cfg
}

// Load reads configuration from the given file (optional) and the
// environment, validates it, and installs it as the process config.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("REMFIX")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnvKeys(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	Set(&cfg)
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("database.driver", "sqlite3")
	v.SetDefault("database.dsn", "remfix.db")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", time.Hour)
	v.SetDefault("auth.session_max_age", 8*time.Hour)
	v.SetDefault("auth.session_idle_age", 2*time.Hour)
	v.SetDefault("rate_limit.login_per_hour", 30)
	v.SetDefault("runner.session_cleanup_interval", 5*time.Minute)
	v.SetDefault("runner.call_sweep_interval", 15*time.Minute)
}

// bindEnvKeys registers every config key with viper. AutomaticEnv only picks
// up environment variables for keys viper already knows about, and keys
// without defaults (the secrets) would otherwise be invisible to Unmarshal.
func bindEnvKeys(v *viper.Viper) {
	keys := []string{
		"server.addr",
		"server.public_url",
		"server.shutdown_timeout",
		"database.driver",
		"database.dsn",
		"database.max_open_conns",
		"database.max_idle_conns",
		"database.conn_max_lifetime",
		"auth.session_max_age",
		"auth.session_idle_age",
		"auth.secure_cookies",
		"auth.jwt_secret",
		"telephony.zadarma_key",
		"telephony.zadarma_secret",
		"telephony.onlinepbx_key",
		"telephony.twilio_auth_token",
		"telephony.allow_unverified",
		"telegram.bot_token",
		"telegram.webhook_secret",
		"rate_limit.login_per_hour",
		"rate_limit.redis_addr",
		"runner.session_cleanup_interval",
		"runner.call_sweep_interval",
	}
	for _, key := range keys {
		// BindEnv errors only on an empty key name.
		_ = v.BindEnv(key)
	}
}

// Validate checks configuration invariants that would otherwise surface as
// confusing runtime failures.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "postgres", "mysql", "sqlite3":
	default:
		return fmt.Errorf("database.driver %q is not supported", c.Database.Driver)
	}
	if c.Database.DSN == "" {
		return fmt.Errorf("database.dsn is required")
	}
	if c.Auth.SessionMaxAge <= 0 {
		return fmt.Errorf("auth.session_max_age must be positive")
	}
	if c.Auth.SessionIdleAge < 0 {
		return fmt.Errorf("auth.session_idle_age must not be negative")
	}
	return nil
}
