// Package config loads the service configuration from config.toml, an
// optional environment overlay, and VERIDID_* environment variables.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/JaimeStill/veridid/internal/ocr"
	"github.com/JaimeStill/veridid/internal/sessions"
	"github.com/JaimeStill/veridid/pkg/database"
	"github.com/JaimeStill/veridid/pkg/storage"
)

const (
	BaseConfigFile       = "config.toml"
	OverlayConfigPattern = "config.%s.toml"

	EnvVeridid                = "VERIDID_ENV"
	EnvVerididShutdownTimeout = "VERIDID_SHUTDOWN_TIMEOUT"
	EnvVerididVersion         = "VERIDID_VERSION"
	EnvVerididLogLevel        = "VERIDID_LOG_LEVEL"
)

var databaseEnv = &database.Env{
	DSN:             "VERIDID_DB_DSN",
	Host:            "VERIDID_DB_HOST",
	Port:            "VERIDID_DB_PORT",
	Name:            "VERIDID_DB_NAME",
	User:            "VERIDID_DB_USER",
	Password:        "VERIDID_DB_PASSWORD",
	SSLMode:         "VERIDID_DB_SSL_MODE",
	MaxOpenConns:    "VERIDID_DB_MAX_OPEN_CONNS",
	MaxIdleConns:    "VERIDID_DB_MAX_IDLE_CONNS",
	ConnMaxLifetime: "VERIDID_DB_CONN_MAX_LIFETIME",
	ConnTimeout:     "VERIDID_DB_CONN_TIMEOUT",
}

var storageEnv = &storage.Env{
	Backend:          "VERIDID_STORAGE_BACKEND",
	ContainerName:    "VERIDID_STORAGE_CONTAINER_NAME",
	ConnectionString: "VERIDID_STORAGE_CONNECTION_STRING",
	AccountURL:       "VERIDID_STORAGE_ACCOUNT_URL",
}

var ocrEnv = &ocr.Env{
	Provider:   "VERIDID_OCR_PROVIDER",
	BaseURL:    "VERIDID_OCR_BASE_URL",
	Token:      "VERIDID_OCR_TOKEN",
	Model:      "VERIDID_OCR_MODEL",
	APIVersion: "VERIDID_OCR_API_VERSION",
	Timeout:    "VERIDID_OCR_TIMEOUT",
	MaxTokens:  "VERIDID_OCR_MAX_TOKENS",
}

// Config is the root configuration for the veridid service.
type Config struct {
	Server          ServerConfig     `toml:"server"`
	Database        database.Config  `toml:"database"`
	Storage         storage.Config   `toml:"storage"`
	API             APIConfig        `toml:"api"`
	OCR             ocr.Config       `toml:"ocr"`
	Capture         CaptureConfig    `toml:"capture"`
	Extraction      ExtractionConfig `toml:"extraction"`
	Sessions        SessionsConfig   `toml:"sessions"`
	ShutdownTimeout string           `toml:"shutdown_timeout"`
	LogLevel        string           `toml:"log_level"`
	Version         string           `toml:"version"`
}

// Env returns the VERIDID_ENV value, defaulting to "local".
func (c *Config) Env() string {
	if env := os.Getenv(EnvVeridid); env != "" {
		return env
	}
	return "local"
}

// ShutdownTimeoutDuration returns ShutdownTimeout as a time.Duration.
func (c *Config) ShutdownTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.ShutdownTimeout)
	return d
}

// Load reads the base config (if present), applies any environment overlay,
// and finalizes all values. If no config.toml exists, defaults and environment
// variables provide all configuration.
func Load() (*Config, error) {
	cfg := &Config{}

	if _, err := os.Stat(BaseConfigFile); err == nil {
		loaded, err := load(BaseConfigFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if path := overlayPath(); path != "" {
		overlay, err := load(path)
		if err != nil {
			return nil, fmt.Errorf("load overlay %s: %w", path, err)
		}
		cfg.Merge(overlay)
	}

	if err := cfg.finalize(); err != nil {
		return nil, fmt.Errorf("finalize config: %w", err)
	}

	return cfg, nil
}

// Merge overwrites non-zero fields from overlay across all sub-configs.
func (c *Config) Merge(overlay *Config) {
	mergeString(&c.ShutdownTimeout, overlay.ShutdownTimeout)
	mergeString(&c.LogLevel, overlay.LogLevel)
	mergeString(&c.Version, overlay.Version)

	c.Server.Merge(&overlay.Server)
	c.Database.Merge(&overlay.Database)
	c.Storage.Merge(&overlay.Storage)
	c.API.Merge(&overlay.API)
	c.OCR.Merge(&overlay.OCR)
	c.Capture.Merge(&overlay.Capture)
	c.Extraction.Merge(&overlay.Extraction)
	c.Sessions.Merge(&overlay.Sessions)
}

// SessionOptions assembles the session registry options from every section
// that shapes a session.
func (c *Config) SessionOptions() sessions.Options {
	return c.Sessions.Options(&c.Capture, c.API.MaxUploadSizeBytes(), c.ShutdownTimeoutDuration())
}

func (c *Config) finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if err := c.validate(); err != nil {
		return err
	}

	sections := []struct {
		name     string
		finalize func() error
	}{
		{"server", c.Server.Finalize},
		{"database", func() error { return c.Database.Finalize(databaseEnv) }},
		{"storage", func() error { return c.Storage.Finalize(storageEnv) }},
		{"api", c.API.Finalize},
		{"ocr", func() error { return c.OCR.Finalize(ocrEnv) }},
		{"capture", c.Capture.Finalize},
		{"extraction", c.Extraction.Finalize},
		{"sessions", c.Sessions.Finalize},
	}

	for _, s := range sections {
		if err := s.finalize(); err != nil {
			return fmt.Errorf("%s: %w", s.name, err)
		}
	}
	return nil
}

func (c *Config) loadDefaults() {
	if c.ShutdownTimeout == "" {
		c.ShutdownTimeout = "30s"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Version == "" {
		c.Version = "0.1.0"
	}
}

func (c *Config) loadEnv() {
	envString(EnvVerididShutdownTimeout, &c.ShutdownTimeout)
	envString(EnvVerididLogLevel, &c.LogLevel)
	envString(EnvVerididVersion, &c.Version)
}

func (c *Config) validate() error {
	if _, err := time.ParseDuration(c.ShutdownTimeout); err != nil {
		return fmt.Errorf("invalid shutdown_timeout: %w", err)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log_level: %q", c.LogLevel)
	}
	return nil
}

func load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return &cfg, nil
}

func overlayPath() string {
	if env := os.Getenv(EnvVeridid); env != "" {
		path := fmt.Sprintf(OverlayConfigPattern, env)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
