package config

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"

	"github.com/JaimeStill/veridid/pkg/middleware"
	"github.com/JaimeStill/veridid/pkg/openapi"
	"github.com/JaimeStill/veridid/pkg/pagination"
)

const (
	EnvAPIBasePath      = "VERIDID_API_BASE_PATH"
	EnvAPIMaxUploadSize = "VERIDID_API_MAX_UPLOAD_SIZE"
)

var corsEnv = &middleware.CORSEnv{
	Enabled:          "VERIDID_CORS_ENABLED",
	Origins:          "VERIDID_CORS_ORIGINS",
	AllowedMethods:   "VERIDID_CORS_ALLOWED_METHODS",
	AllowedHeaders:   "VERIDID_CORS_ALLOWED_HEADERS",
	AllowCredentials: "VERIDID_CORS_ALLOW_CREDENTIALS",
	MaxAge:           "VERIDID_CORS_MAX_AGE",
}

var openAPIEnv = &openapi.ConfigEnv{
	Title:       "VERIDID_OPENAPI_TITLE",
	Description: "VERIDID_OPENAPI_DESCRIPTION",
}

var paginationEnv = &pagination.ConfigEnv{
	DefaultPageSize: "VERIDID_PAGINATION_DEFAULT_PAGE_SIZE",
	MaxPageSize:     "VERIDID_PAGINATION_MAX_PAGE_SIZE",
}

// APIConfig holds API routing, upload limits, CORS, pagination, and OpenAPI
// document settings.
type APIConfig struct {
	BasePath      string                `toml:"base_path"`
	MaxUploadSize string                `toml:"max_upload_size"`
	CORS          middleware.CORSConfig `toml:"cors"`
	Pagination    pagination.Config     `toml:"pagination"`
	OpenAPI       openapi.Config        `toml:"openapi"`
}

// MaxUploadSizeBytes returns MaxUploadSize in bytes. Accepts SI and IEC
// suffixes ("10MB", "8 MiB").
func (c *APIConfig) MaxUploadSizeBytes() int64 {
	size, err := humanize.ParseBytes(c.MaxUploadSize)
	if err != nil {
		return 10 << 20
	}
	return int64(size)
}

// Finalize applies defaults, environment variable overrides, and validation
// for the API config and its nested configs.
func (c *APIConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if err := c.validate(); err != nil {
		return err
	}
	if err := c.CORS.Finalize(corsEnv); err != nil {
		return fmt.Errorf("cors: %w", err)
	}
	if err := c.Pagination.Finalize(paginationEnv); err != nil {
		return fmt.Errorf("pagination: %w", err)
	}
	if err := c.OpenAPI.Finalize(openAPIEnv); err != nil {
		return fmt.Errorf("openapi: %w", err)
	}
	return nil
}

// Merge overwrites non-zero fields from overlay across nested configs.
func (c *APIConfig) Merge(overlay *APIConfig) {
	if overlay.BasePath != "" {
		c.BasePath = overlay.BasePath
	}
	if overlay.MaxUploadSize != "" {
		c.MaxUploadSize = overlay.MaxUploadSize
	}

	c.CORS.Merge(&overlay.CORS)
	c.Pagination.Merge(&overlay.Pagination)
	c.OpenAPI.Merge(&overlay.OpenAPI)
}

func (c *APIConfig) loadDefaults() {
	if c.BasePath == "" {
		c.BasePath = "/api"
	}
	if c.MaxUploadSize == "" {
		c.MaxUploadSize = "10MB"
	}
}

func (c *APIConfig) loadEnv() {
	if v := os.Getenv(EnvAPIBasePath); v != "" {
		c.BasePath = v
	}
	if v := os.Getenv(EnvAPIMaxUploadSize); v != "" {
		c.MaxUploadSize = v
	}
}

func (c *APIConfig) validate() error {
	size, err := humanize.ParseBytes(c.MaxUploadSize)
	if err != nil {
		return fmt.Errorf("invalid max_upload_size: %w", err)
	}
	if size == 0 {
		return fmt.Errorf("max_upload_size must be positive")
	}
	return nil
}
