// Package config loads the server configuration from a YAML file, an
// optional .env file and environment variables, in that order of precedence
// from lowest to highest.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is built once at startup and injected where needed.
type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Auth     AuthConfig     `yaml:"auth"`
	Database DatabaseConfig `yaml:"database"`
	Log      LogConfig      `yaml:"log"`
}

type HTTPConfig struct {
	Addr string `yaml:"addr"`
	// CORSOrigins is a comma separated list, "*" allows any origin.
	CORSOrigins string `yaml:"cors_origins"`
}

type AuthConfig struct {
	SigningKey     string `yaml:"signing_key"`
	Issuer         string `yaml:"issuer"`
	ContextKey     string `yaml:"context_key"`
	AuthScheme     string `yaml:"auth_scheme"`
	PasswordScheme string `yaml:"password_scheme"`
}

type DatabaseConfig struct {
	Driver   string `yaml:"driver"`
	DSN      string `yaml:"dsn"`
	SeedFile string `yaml:"seed_file"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	// AuditPath receives login activity as JSON lines. Empty disables it.
	AuditPath string `yaml:"audit_path"`
}

// MinSigningKeyLength mirrors the token service requirement
const MinSigningKeyLength = 32

// Default returns a configuration with every optional value filled in. The
// signing key and issuer have no defaults.
func Default() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Addr:        ":8000",
			CORSOrigins: "*",
		},
		Auth: AuthConfig{
			ContextKey:     "user",
			AuthScheme:     "Bearer",
			PasswordScheme: "plaintext",
		},
		Database: DatabaseConfig{
			Driver: "sqlite",
			DSN:    "file:auth.db?cache=shared",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load reads path (optional), then envFiles (default ".env", missing files
// are skipped), then the process environment, and validates the result.
func Load(path string, envFiles ...string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	if err := loadEnvFiles(envFiles...); err != nil {
		return nil, err
	}

	cfg.applyEnv(os.LookupEnv)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(b, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	return nil
}

func loadEnvFiles(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}

	for _, f := range files {
		// godotenv never overrides variables already set
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load env file %s: %w", f, err)
		}
	}

	return nil
}

type lookupFunc func(string) (string, bool)

func (c *Config) applyEnv(lookup lookupFunc) {
	set := func(dst *string, keys ...string) {
		for _, k := range keys {
			if v, ok := lookup(k); ok && strings.TrimSpace(v) != "" {
				*dst = strings.TrimSpace(v)
				return
			}
		}
	}

	set(&c.Auth.SigningKey, "AUTH_SIGNING_KEY", "MY_SECRET_KEY")
	set(&c.Auth.Issuer, "AUTH_ISSUER", "SERVER")
	set(&c.Auth.PasswordScheme, "AUTH_PASSWORD_SCHEME")
	set(&c.HTTP.Addr, "HTTP_ADDR")
	set(&c.HTTP.CORSOrigins, "CORS_ORIGINS")
	set(&c.Database.Driver, "DB_DRIVER")
	set(&c.Database.DSN, "DB_DSN")
	set(&c.Database.SeedFile, "DB_SEED_FILE")
	set(&c.Log.Level, "LOG_LEVEL")
	set(&c.Log.Format, "LOG_FORMAT")
	set(&c.Log.AuditPath, "LOG_AUDIT_PATH")
}

// Validate will run validation rules
func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.HTTP),
		validation.Field(&c.Auth),
		validation.Field(&c.Database),
		validation.Field(&c.Log),
	)
}

func (h HTTPConfig) Validate() error {
	return validation.ValidateStruct(&h,
		validation.Field(&h.Addr, validation.Required),
	)
}

func (a AuthConfig) Validate() error {
	return validation.ValidateStruct(&a,
		validation.Field(&a.SigningKey,
			validation.Required.Error("signing key is required (AUTH_SIGNING_KEY)"),
			validation.Length(MinSigningKeyLength, 0),
		),
		validation.Field(&a.Issuer, validation.Required.Error("issuer is required (AUTH_ISSUER)")),
		validation.Field(&a.ContextKey, validation.Required),
		validation.Field(&a.AuthScheme, validation.Required),
		validation.Field(&a.PasswordScheme, validation.In("plaintext", "bcrypt")),
	)
}

func (d DatabaseConfig) Validate() error {
	return validation.ValidateStruct(&d,
		validation.Field(&d.Driver, validation.Required, validation.In("sqlite", "postgres")),
		validation.Field(&d.DSN, validation.Required),
	)
}

func (l LogConfig) Validate() error {
	return validation.ValidateStruct(&l,
		validation.Field(&l.Level, validation.In("debug", "info", "warn", "error")),
		validation.Field(&l.Format, validation.In("json", "text")),
	)
}

// GetSigningKey returns the HS256 key
func (c *Config) GetSigningKey() string {
	return c.Auth.SigningKey
}

// GetIssuer returns the server identity used as iss
func (c *Config) GetIssuer() string {
	return c.Auth.Issuer
}

// GetContextKey returns the Locals key holding the principal
func (c *Config) GetContextKey() string {
	return c.Auth.ContextKey
}

// GetAuthScheme returns the Authorization header scheme
func (c *Config) GetAuthScheme() string {
	return c.Auth.AuthScheme
}

// GetPasswordScheme returns how stored secrets are compared
func (c *Config) GetPasswordScheme() string {
	return c.Auth.PasswordScheme
}

// AllowedOrigins returns the CORS origins as fiber expects them
func (c *Config) AllowedOrigins() string {
	parts := strings.Split(c.HTTP.CORSOrigins, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return "*"
	}
	return strings.Join(out, ",")
}
