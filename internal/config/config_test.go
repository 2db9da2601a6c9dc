package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func validConfig() Config {
	return Config{
		Server: ServerConfig{
			Host: "127.0.0.1",
			Port: 8080,
			Mode: "debug",
		},
		Mongo: MongoConfig{
			URI:      "mongodb://localhost:27017",
			Database: "tourbase",
		},
		Auth: AuthConfig{
			JWTSecret:   strings.Repeat("s", 32),
			TokenExpiry: "2160h",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

func TestValidate_Valid(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if cfg.Auth.CookieName != "jwt" {
		t.Errorf("CookieName = %q; want the default", cfg.Auth.CookieName)
	}
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantMsg string
	}{
		{"bad_mode", func(c *Config) { c.Server.Mode = "production" }, "server.mode"},
		{"port_zero", func(c *Config) { c.Server.Port = 0 }, "server.port"},
		{"port_too_high", func(c *Config) { c.Server.Port = 70000 }, "server.port"},
		{"missing_host", func(c *Config) { c.Server.Host = "  " }, "server.host"},
		{"missing_mongo_uri", func(c *Config) { c.Mongo.URI = "" }, "mongo.uri"},
		{"bad_mongo_scheme", func(c *Config) { c.Mongo.URI = "postgres://localhost" }, "mongo.uri"},
		{"missing_database", func(c *Config) { c.Mongo.Database = "" }, "mongo.database"},
		{"bad_timeout", func(c *Config) { c.Server.Timeout = "five seconds" }, "server.timeout"},
		{"negative_cookie_expiry", func(c *Config) { c.Auth.CookieExpiry = "-1h" }, "auth.cookie_expiry"},
		{"rate_limit_no_rps", func(c *Config) {
			c.Server.RateLimit = RateLimitConfig{Enabled: true, Burst: 10}
		}, "rate_limit.rps"},
		{"rate_limit_no_burst", func(c *Config) {
			c.Server.RateLimit = RateLimitConfig{Enabled: true, RPS: 5}
		}, "rate_limit.burst"},
		{"missing_secret", func(c *Config) { c.Auth.JWTSecret = "" }, "jwt_secret"},
		{"short_secret", func(c *Config) { c.Auth.JWTSecret = "short" }, "jwt_secret"},
		{"missing_token_expiry", func(c *Config) { c.Auth.TokenExpiry = "" }, "token_expiry"},
		{"bad_token_expiry", func(c *Config) { c.Auth.TokenExpiry = "ninety days" }, "token_expiry"},
		{"email_bad_provider", func(c *Config) {
			c.Email = EmailConfig{Enabled: true, Provider: "carrier-pigeon", From: "a@b.c"}
		}, "email.provider"},
		{"email_missing_from", func(c *Config) {
			c.Email = EmailConfig{Enabled: true, Provider: "smtp", SMTP: SMTPConfig{Host: "localhost"}}
		}, "email.from"},
		{"email_smtp_missing_host", func(c *Config) {
			c.Email = EmailConfig{Enabled: true, Provider: "smtp", From: "a@b.c"}
		}, "email.smtp.host"},
		{"email_sendgrid_missing_key", func(c *Config) {
			c.Email = EmailConfig{Enabled: true, Provider: "sendgrid", From: "a@b.c"}
		}, "sendgrid.api_key"},
		{"payment_missing_key", func(c *Config) {
			c.Payment = PaymentConfig{Enabled: true}
		}, "stripe_secret_key"},
		{"bad_log_level", func(c *Config) { c.Log.Level = "verbose" }, "log.level"},
		{"bad_log_format", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected a validation error")
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error = %q; want it to mention %q", err.Error(), tt.wantMsg)
			}
		})
	}
}

func TestValidate_ReleaseSecretClasses(t *testing.T) {
	cfg := validConfig()
	cfg.Server.Mode = "release"
	cfg.Auth.JWTSecret = strings.Repeat("a", 32)

	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "character classes") {
		t.Errorf("error = %v; want the character-class requirement", err)
	}

	cfg = validConfig()
	cfg.Server.Mode = "release"
	cfg.Auth.JWTSecret = "Xy7" + strings.Repeat("q", 29)
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestValidate_PaymentCurrencyDefault(t *testing.T) {
	cfg := validConfig()
	cfg.Payment = PaymentConfig{Enabled: true, StripeSecretKey: "sk_test_xyz"}

	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if cfg.Payment.Currency != "usd" {
		t.Errorf("Currency = %q; want the usd default", cfg.Payment.Currency)
	}
}

func TestCountSecretClasses(t *testing.T) {
	tests := []struct {
		secret string
		want   int
	}{
		{"", 0},
		{"abc", 1},
		{"abcABC", 2},
		{"abcABC123", 3},
		{"abcABC123!@#", 4},
		{"!!!", 1},
	}

	for _, tt := range tests {
		if got := CountSecretClasses(tt.secret); got != tt.want {
			t.Errorf("CountSecretClasses(%q) = %d; want %d", tt.secret, got, tt.want)
		}
	}
}

func TestTokenExpiryDuration(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if got := cfg.TokenExpiryDuration(); got != 2160*time.Hour {
		t.Errorf("TokenExpiryDuration = %v; want 2160h", got)
	}
}

func TestCookieExpiryDuration(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	// Unset cookie expiry falls back to the token expiry.
	if got := cfg.CookieExpiryDuration(); got != cfg.TokenExpiryDuration() {
		t.Errorf("CookieExpiryDuration = %v; want token expiry fallback", got)
	}

	cfg.Auth.CookieExpiry = "24h"
	if got := cfg.CookieExpiryDuration(); got != 24*time.Hour {
		t.Errorf("CookieExpiryDuration = %v; want 24h", got)
	}
}

const testYAML = `
server:
  host: 127.0.0.1
  port: 8080
  mode: debug
mongo:
  uri: mongodb://localhost:27017
  database: tourbase
auth:
  jwt_secret: ssssssssssssssssssssssssssssssss
  token_expiry: 2160h
log:
  level: info
  format: text
`

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config file: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	cfg, err := Load(writeConfigFile(t, testYAML))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Port = %d", cfg.Server.Port)
	}
	if cfg.Mongo.Database != "tourbase" {
		t.Errorf("Database = %q", cfg.Mongo.Database)
	}
}

func TestLoad_EnvOverlay(t *testing.T) {
	t.Setenv("APP__SERVER__PORT", "9090")
	t.Setenv("APP__AUTH__JWT_SECRET", strings.Repeat("e", 40))

	cfg, err := Load(writeConfigFile(t, testYAML))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("Port = %d; want the env override", cfg.Server.Port)
	}
	if cfg.Auth.JWTSecret != strings.Repeat("e", 40) {
		t.Errorf("JWTSecret not overridden by APP__AUTH__JWT_SECRET")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected an error for a missing config file")
	}
}

func TestLoad_InvalidConfigRejected(t *testing.T) {
	bad := strings.Replace(testYAML, "mode: debug", "mode: staging", 1)
	if _, err := Load(writeConfigFile(t, bad)); err == nil {
		t.Error("expected a validation error")
	}
}
