package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// ConfigFile is the optional YAML file read from the working directory.
const ConfigFile = "config.yaml"

// Config holds all configuration for ekaya-campus.
// Configuration can come from YAML file (config.yaml) or environment variables.
// Environment variables always override YAML values for fields that support both.
// Secrets (API keys, store key, session secret) must only come from environment variables.
type Config struct {
	// Server configuration
	BindAddr string `yaml:"bind_addr" env:"BIND_ADDR" env-default:"127.0.0.1"`
	Port     string `yaml:"port" env:"PORT" env-default:"3460"`
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	LogLevel string `yaml:"log_level" env:"LOG_LEVEL" env-default:"info"`
	Version  string `yaml:"-"` // Set at load time, not from config

	// Content service (generative-AI search backend)
	Content ContentConfig `yaml:"content"`

	// Repository store (hosted PostgreSQL)
	Store StoreConfig `yaml:"store"`

	// Explorer session cookies
	Session SessionConfig `yaml:"session"`

	// MCPEnabled exposes the catalog as MCP tools on /mcp.
	MCPEnabled bool `yaml:"mcp_enabled" env:"MCP_ENABLED" env-default:"true"`
}

// ContentConfig configures the generative-AI content service.
type ContentConfig struct {
	// Provider is one of "gemini", "openai" or "anthropic".
	Provider string `yaml:"provider" env:"CONTENT_PROVIDER" env-default:"gemini"`
	// APIKey is read from GEMINI_API_KEY; API_KEY is accepted as a fallback (see Load).
	APIKey string `yaml:"-" env:"GEMINI_API_KEY"`
	// BaseURL overrides the endpoint for OpenAI-compatible providers.
	BaseURL string `yaml:"base_url" env:"CONTENT_BASE_URL" env-default:""`
	// Model is the primary model for search, details and program lookups.
	Model string `yaml:"model" env:"CONTENT_MODEL" env-default:"gemini-2.5-flash"`
	// FallbackModel is tried once when the primary model fails for a reason other than rate limiting.
	FallbackModel string `yaml:"fallback_model" env:"CONTENT_FALLBACK_MODEL" env-default:"gemini-2.0-flash"`
	// LocationModel is a lighter model used for maps lookups.
	LocationModel string        `yaml:"location_model" env:"CONTENT_LOCATION_MODEL" env-default:"gemini-2.5-flash-lite"`
	Timeout       time.Duration `yaml:"timeout" env:"CONTENT_TIMEOUT" env-default:"60s"`
}

// HasCredential returns true if an API key is configured.
func (c *ContentConfig) HasCredential() bool {
	return strings.TrimSpace(c.APIKey) != ""
}

// StoreConfig configures the hosted PostgreSQL repository store.
type StoreConfig struct {
	// URL is a postgres:// connection URL without the password, e.g.
	// postgres://postgres@db.example.supabase.co:5432/postgres?sslmode=require
	URL string `yaml:"url" env:"STORE_URL" env-default:""`
	// Key is the store access key (database password).
	Key            string        `yaml:"-" env:"STORE_KEY"`
	MaxConnections int32         `yaml:"max_connections" env:"STORE_MAX_CONNECTIONS" env-default:"5"`
	ConnectTimeout time.Duration `yaml:"connect_timeout" env:"STORE_CONNECT_TIMEOUT" env-default:"10s"`
	// MigrateOnStart applies pending migrations when the server starts.
	MigrateOnStart bool `yaml:"migrate_on_start" env:"STORE_MIGRATE_ON_START" env-default:"true"`
}

// IsConfigured returns true iff both the store URL and key are present.
func (c *StoreConfig) IsConfigured() bool {
	return strings.TrimSpace(c.URL) != "" && strings.TrimSpace(c.Key) != ""
}

// ConnectionURL returns the store URL with the key applied as the password.
func (c *StoreConfig) ConnectionURL() (string, error) {
	if !c.IsConfigured() {
		return "", errors.New("store is not configured")
	}
	u, err := url.Parse(c.URL)
	if err != nil {
		return "", fmt.Errorf("invalid store url: %w", err)
	}
	if u.Scheme != "postgres" && u.Scheme != "postgresql" {
		return "", fmt.Errorf("invalid store url scheme %q: expected postgres", u.Scheme)
	}
	username := "postgres"
	if u.User != nil && u.User.Username() != "" {
		username = u.User.Username()
	}
	u.User = url.UserPassword(username, c.Key)
	u.Host = ResolveHostForDocker(u.Host)
	return u.String(), nil
}

// SessionConfig configures explorer session cookies.
type SessionConfig struct {
	// Secret signs session cookies. A random secret is generated when empty,
	// which invalidates sessions on restart.
	Secret string        `yaml:"-" env:"SESSION_SECRET"`
	MaxAge time.Duration `yaml:"max_age" env:"SESSION_MAX_AGE" env-default:"12h"`
	// IdleTimeout evicts in-memory explorer state that has not been touched.
	IdleTimeout time.Duration `yaml:"idle_timeout" env:"SESSION_IDLE_TIMEOUT" env-default:"30m"`
	Secure      bool          `yaml:"secure" env:"SESSION_SECURE" env-default:"false"`
}

// Load reads .env (if present), then config.yaml (if present) with environment
// variable overrides. The version parameter is injected at build time.
func Load(version string) (*Config, error) {
	// Missing .env is normal outside local development.
	_ = godotenv.Load()

	cfg := &Config{
		Version: version,
	}

	if _, err := os.Stat(ConfigFile); err == nil {
		if err := cleanenv.ReadConfig(ConfigFile, cfg); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", ConfigFile, err)
		}
	} else {
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("failed to read environment: %w", err)
		}
	}

	if cfg.Content.APIKey == "" {
		cfg.Content.APIKey = os.Getenv("API_KEY")
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// validate checks fields that cleanenv cannot express as tags.
func (c *Config) validate() error {
	switch strings.ToLower(c.Content.Provider) {
	case "gemini", "openai", "anthropic":
	default:
		return fmt.Errorf("unsupported content provider %q", c.Content.Provider)
	}
	if c.Content.Model == "" {
		return errors.New("content model is required")
	}
	if c.Store.URL != "" {
		if _, err := url.Parse(c.Store.URL); err != nil {
			return fmt.Errorf("invalid store url: %w", err)
		}
	}
	return nil
}

// ListenAddr returns the bind address and port joined for http.Server.
func (c *Config) ListenAddr() string {
	return c.BindAddr + ":" + c.Port
}

// IsLocal returns true when running in the local development environment.
func (c *Config) IsLocal() bool {
	return c.Env == "local"
}
