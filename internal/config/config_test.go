package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Server.Addr != ":8080" {
		t.Errorf("server.addr = %q, want :8080", cfg.Server.Addr)
	}
	if cfg.Database.Driver != "sqlite3" {
		t.Errorf("database.driver = %q, want sqlite3", cfg.Database.Driver)
	}
	if cfg.Auth.SessionMaxAge != 8*time.Hour {
		t.Errorf("auth.session_max_age = %v, want 8h", cfg.Auth.SessionMaxAge)
	}
	if cfg.Telephony.AllowUnverified {
		t.Error("telephony.allow_unverified must default to false")
	}
	if Get() != cfg {
		t.Error("Load must install the config as the process global")
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "remfix.yaml")
	content := []byte(`
server:
  addr: ":9090"
database:
  driver: postgres
  dsn: "postgres://remfix@localhost/remfix?sslmode=disable"
telephony:
  zadarma_secret: "s3cret"
`)
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Server.Addr != ":9090" {
		t.Errorf("server.addr = %q, want :9090", cfg.Server.Addr)
	}
	if cfg.Database.Driver != "postgres" {
		t.Errorf("database.driver = %q, want postgres", cfg.Database.Driver)
	}
	if cfg.Telephony.ZadarmaSecret != "s3cret" {
		t.Errorf("zadarma_secret not loaded")
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("REMFIX_SERVER_ADDR", ":7070")
	t.Setenv("REMFIX_TELEPHONY_ZADARMA_SECRET", "env-secret")
	t.Setenv("REMFIX_AUTH_JWT_SECRET", "env-jwt")
	t.Setenv("REMFIX_TELEGRAM_BOT_TOKEN", "123:abc")
	t.Setenv("REMFIX_TELEPHONY_ALLOW_UNVERIFIED", "true")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Server.Addr != ":7070" {
		t.Errorf("server.addr = %q, want :7070", cfg.Server.Addr)
	}
	// keys without defaults must still see their environment values
	if cfg.Telephony.ZadarmaSecret != "env-secret" {
		t.Errorf("telephony.zadarma_secret = %q, want env-secret", cfg.Telephony.ZadarmaSecret)
	}
	if cfg.Auth.JWTSecret != "env-jwt" {
		t.Errorf("auth.jwt_secret = %q, want env-jwt", cfg.Auth.JWTSecret)
	}
	if cfg.Telegram.BotToken != "123:abc" {
		t.Errorf("telegram.bot_token = %q, want 123:abc", cfg.Telegram.BotToken)
	}
	if !cfg.Telephony.AllowUnverified {
		t.Error("telephony.allow_unverified env override not applied")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"bad driver", func(c *Config) { c.Database.Driver = "oracle" }, true},
		{"empty dsn", func(c *Config) { c.Database.DSN = "" }, true},
		{"zero session age", func(c *Config) { c.Auth.SessionMaxAge = 0 }, true},
		{"negative idle", func(c *Config) { c.Auth.SessionIdleAge = -time.Minute }, true},
		{"zero idle ok", func(c *Config) { c.Auth.SessionIdleAge = 0 }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Config{
				Database: DatabaseConfig{Driver: "sqlite3", DSN: "file.db"},
				Auth:     AuthConfig{SessionMaxAge: time.Hour, SessionIdleAge: time.Hour},
			}
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
