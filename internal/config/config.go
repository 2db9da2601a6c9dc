package config

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/gin-gonic/gin"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config is the top-level application configuration.
type Config struct {
	Server  ServerConfig  `koanf:"server"`
	Mongo   MongoConfig   `koanf:"mongo"`
	Log     LogConfig     `koanf:"log"`
	Auth    AuthConfig    `koanf:"auth"`
	Email   EmailConfig   `koanf:"email"`
	Payment PaymentConfig `koanf:"payment"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host      string          `koanf:"host"`
	Port      int             `koanf:"port"`
	Mode      string          `koanf:"mode"`
	BaseURL   string          `koanf:"base_url"`
	Timeout   string          `koanf:"timeout"`
	CORS      CORSConfig      `koanf:"cors"`
	RateLimit RateLimitConfig `koanf:"rate_limit"`
}

// CORSConfig holds CORS middleware settings.
type CORSConfig struct {
	AllowOrigins     []string `koanf:"allow_origins"`
	AllowMethods     []string `koanf:"allow_methods"`
	AllowHeaders     []string `koanf:"allow_headers"`
	AllowCredentials bool     `koanf:"allow_credentials"`
	MaxAge           string   `koanf:"max_age"`
}

// RateLimitConfig holds rate limiting settings.
type RateLimitConfig struct {
	Enabled bool    `koanf:"enabled"`
	RPS     float64 `koanf:"rps"`
	Burst   int     `koanf:"burst"`
}

// MongoConfig holds document database connection settings.
type MongoConfig struct {
	URI              string `koanf:"uri"`
	Database         string `koanf:"database"`
	ConnectTimeout   string `koanf:"connect_timeout"`
	OperationTimeout string `koanf:"operation_timeout"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level           string `koanf:"level"`
	Format          string `koanf:"format"`
	Color           *bool  `koanf:"color"`
	FilePath        string `koanf:"file_path"`
	MaxSizeMB       int    `koanf:"max_size_mb"`
	RetentionDays   int    `koanf:"retention_days"`
	MaxBackups      int    `koanf:"max_backups"`
	CompressRotated *bool  `koanf:"compress_rotated"`
}

// AuthConfig holds authentication settings.
type AuthConfig struct {
	JWTSecret    string `koanf:"jwt_secret"`
	TokenExpiry  string `koanf:"token_expiry"`
	CookieName   string `koanf:"cookie_name"`
	CookieExpiry string `koanf:"cookie_expiry"`
}

// EmailConfig holds mail delivery settings. When disabled, mail sends are
// logged and skipped, which keeps development environments credential-free.
type EmailConfig struct {
	Enabled  bool           `koanf:"enabled"`
	Provider string         `koanf:"provider"`
	From     string         `koanf:"from"`
	SMTP     SMTPConfig     `koanf:"smtp"`
	SendGrid SendGridConfig `koanf:"sendgrid"`
}

// SMTPConfig holds SMTP transport settings.
type SMTPConfig struct {
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	Username string `koanf:"username"`
	Password string `koanf:"password"`
}

// SendGridConfig holds SendGrid API settings.
type SendGridConfig struct {
	APIKey  string `koanf:"api_key"`
	BaseURL string `koanf:"base_url"`
}

// PaymentConfig holds checkout-session settings. When disabled, the
// checkout endpoint fails with a server fault rather than panicking on a
// missing key.
type PaymentConfig struct {
	Enabled         bool   `koanf:"enabled"`
	StripeSecretKey string `koanf:"stripe_secret_key"`
	Currency        string `koanf:"currency"`
}

// Load reads configuration from a YAML file and overlays environment variables.
// Environment variables use the prefix "APP__" and double-underscore as the
// hierarchy separator. Single underscores are preserved as part of the key name.
// For example, APP__SERVER__PORT=9090 overrides server.port and
// APP__AUTH__JWT_SECRET overrides auth.jwt_secret.
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	// Load YAML config file.
	if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
	}

	// Overlay environment variables with prefix APP__.
	// APP__SERVER__PORT -> server.port
	// APP__MONGO__URI   -> mongo.uri
	if err := k.Load(env.Provider("APP__", ".", func(s string) string {
		key := strings.TrimPrefix(s, "APP__")
		key = strings.ToLower(key)
		key = strings.ReplaceAll(key, "__", ".")
		return key
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks cross-field constraints and supported values.
func (c *Config) Validate() error {
	// Validate server.mode.
	mode := strings.TrimSpace(c.Server.Mode)
	switch mode {
	case gin.DebugMode, gin.ReleaseMode, gin.TestMode:
		c.Server.Mode = mode
	default:
		return fmt.Errorf("invalid server.mode %q: must be one of %q, %q, %q", c.Server.Mode, gin.DebugMode, gin.ReleaseMode, gin.TestMode)
	}

	// Validate server.port range.
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port %d: must be between 1 and 65535", c.Server.Port)
	}

	// Validate server.host.
	host := strings.TrimSpace(c.Server.Host)
	if host == "" {
		return fmt.Errorf("server.host is required")
	}
	c.Server.Host = host

	// Validate mongo connection settings.
	uri := strings.TrimSpace(c.Mongo.URI)
	if uri == "" {
		return fmt.Errorf("mongo.uri is required")
	}
	if !strings.HasPrefix(uri, "mongodb://") && !strings.HasPrefix(uri, "mongodb+srv://") {
		return fmt.Errorf("invalid mongo.uri %q: must start with mongodb:// or mongodb+srv://", c.Mongo.URI)
	}
	c.Mongo.URI = uri

	database := strings.TrimSpace(c.Mongo.Database)
	if database == "" {
		return fmt.Errorf("mongo.database is required")
	}
	c.Mongo.Database = database

	// Normalize optional duration fields: whitespace-only means unset.
	c.Server.Timeout = strings.TrimSpace(c.Server.Timeout)
	c.Server.CORS.MaxAge = strings.TrimSpace(c.Server.CORS.MaxAge)
	c.Mongo.ConnectTimeout = strings.TrimSpace(c.Mongo.ConnectTimeout)
	c.Mongo.OperationTimeout = strings.TrimSpace(c.Mongo.OperationTimeout)
	c.Auth.CookieExpiry = strings.TrimSpace(c.Auth.CookieExpiry)

	durations := []struct {
		name  string
		value string
	}{
		{"server.timeout", c.Server.Timeout},
		{"server.cors.max_age", c.Server.CORS.MaxAge},
		{"mongo.connect_timeout", c.Mongo.ConnectTimeout},
		{"mongo.operation_timeout", c.Mongo.OperationTimeout},
		{"auth.cookie_expiry", c.Auth.CookieExpiry},
	}
	for _, d := range durations {
		if d.value == "" {
			continue
		}
		parsed, err := time.ParseDuration(d.value)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", d.name, d.value, err)
		}
		if parsed <= 0 {
			return fmt.Errorf("invalid %s %q: must be greater than 0", d.name, d.value)
		}
	}

	// Validate server.rate_limit (when enabled, rps and burst must be positive).
	if c.Server.RateLimit.Enabled {
		if c.Server.RateLimit.RPS <= 0 {
			return fmt.Errorf("invalid server.rate_limit.rps %v: must be positive when rate limiting is enabled", c.Server.RateLimit.RPS)
		}
		if c.Server.RateLimit.Burst <= 0 {
			return fmt.Errorf("invalid server.rate_limit.burst %d: must be positive when rate limiting is enabled", c.Server.RateLimit.Burst)
		}
	}

	// Validate auth settings. Authentication is always on; there is no
	// toggle to run this application without it.
	jwtSecret := strings.TrimSpace(c.Auth.JWTSecret)
	if jwtSecret == "" {
		return fmt.Errorf("auth.jwt_secret is required")
	}
	if len(jwtSecret) < 32 {
		return fmt.Errorf("invalid auth.jwt_secret: must be at least 32 characters")
	}
	if c.Server.Mode == gin.ReleaseMode && CountSecretClasses(jwtSecret) < 3 {
		return fmt.Errorf("auth.jwt_secret must include at least 3 character classes (lowercase, uppercase, digit, symbol) in release mode")
	}
	c.Auth.JWTSecret = jwtSecret

	tokenExpiry := strings.TrimSpace(c.Auth.TokenExpiry)
	if tokenExpiry == "" {
		return fmt.Errorf("auth.token_expiry is required")
	}
	td, err := time.ParseDuration(tokenExpiry)
	if err != nil {
		return fmt.Errorf("invalid auth.token_expiry %q: %w", c.Auth.TokenExpiry, err)
	}
	if td <= 0 {
		return fmt.Errorf("invalid auth.token_expiry %q: must be greater than 0", c.Auth.TokenExpiry)
	}
	c.Auth.TokenExpiry = tokenExpiry

	if strings.TrimSpace(c.Auth.CookieName) == "" {
		c.Auth.CookieName = "jwt"
	} else {
		c.Auth.CookieName = strings.TrimSpace(c.Auth.CookieName)
	}

	// Validate email settings.
	if c.Email.Enabled {
		provider := strings.ToLower(strings.TrimSpace(c.Email.Provider))
		switch provider {
		case "smtp", "sendgrid":
			c.Email.Provider = provider
		default:
			return fmt.Errorf("invalid email.provider %q: must be one of %q, %q", c.Email.Provider, "smtp", "sendgrid")
		}
		if strings.TrimSpace(c.Email.From) == "" {
			return fmt.Errorf("email.from is required when email is enabled")
		}
		if provider == "smtp" && strings.TrimSpace(c.Email.SMTP.Host) == "" {
			return fmt.Errorf("email.smtp.host is required when provider is smtp")
		}
		if provider == "sendgrid" && strings.TrimSpace(c.Email.SendGrid.APIKey) == "" {
			return fmt.Errorf("email.sendgrid.api_key is required when provider is sendgrid")
		}
	}

	// Validate payment settings.
	if c.Payment.Enabled {
		if strings.TrimSpace(c.Payment.StripeSecretKey) == "" {
			return fmt.Errorf("payment.stripe_secret_key is required when payment is enabled")
		}
		if strings.TrimSpace(c.Payment.Currency) == "" {
			c.Payment.Currency = "usd"
		}
	}

	// Validate log.level.
	level := strings.ToLower(strings.TrimSpace(c.Log.Level))
	switch level {
	case "debug", "info", "warn", "error":
		c.Log.Level = level
	default:
		return fmt.Errorf("invalid log.level %q: must be one of %q, %q, %q, %q", c.Log.Level, "debug", "info", "warn", "error")
	}

	// Validate log.format.
	format := strings.ToLower(strings.TrimSpace(c.Log.Format))
	switch format {
	case "text", "json":
		c.Log.Format = format
	default:
		return fmt.Errorf("invalid log.format %q: must be one of %q, %q", c.Log.Format, "text", "json")
	}

	return nil
}

// TokenExpiryDuration returns the parsed token expiry. Validate must have
// succeeded first.
func (c *Config) TokenExpiryDuration() time.Duration {
	d, _ := time.ParseDuration(c.Auth.TokenExpiry)
	return d
}

// CookieExpiryDuration returns the parsed cookie expiry, defaulting to the
// token expiry when unset. Validate must have succeeded first.
func (c *Config) CookieExpiryDuration() time.Duration {
	if c.Auth.CookieExpiry == "" {
		return c.TokenExpiryDuration()
	}
	d, _ := time.ParseDuration(c.Auth.CookieExpiry)
	return d
}

// CountSecretClasses counts how many character classes (lowercase, uppercase,
// digit, symbol) are present in the given secret string.
func CountSecretClasses(secret string) int {
	hasLower := false
	hasUpper := false
	hasDigit := false
	hasSymbol := false

	for _, r := range secret {
		switch {
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsDigit(r):
			hasDigit = true
		default:
			hasSymbol = true
		}
	}

	classes := 0
	if hasLower {
		classes++
	}
	if hasUpper {
		classes++
	}
	if hasDigit {
		classes++
	}
	if hasSymbol {
		classes++
	}

	return classes
}
