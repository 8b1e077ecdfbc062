package ocr

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Supported providers. An empty provider disables OCR.
const (
	ProviderOpenAI = "openai"
	ProviderAzure  = "azure"
	ProviderOllama = "ollama"
)

// Config holds vision model connection parameters.
type Config struct {
	Provider   string `toml:"provider"`
	BaseURL    string `toml:"base_url"`
	Token      string `toml:"token"`
	Model      string `toml:"model"`
	APIVersion string `toml:"api_version"`
	Timeout    string `toml:"timeout"`
	MaxTokens  int    `toml:"max_tokens"`
	Detail     string `toml:"detail"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	Provider   string
	BaseURL    string
	Token      string
	Model      string
	APIVersion string
	Timeout    string
	MaxTokens  string
}

// Enabled reports whether a provider is configured.
func (c *Config) Enabled() bool {
	return c.Provider != ""
}

// TimeoutDuration returns Timeout as a time.Duration.
func (c *Config) TimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.Timeout)
	return d
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *Config) Finalize(env *Env) error {
	if env != nil {
		c.loadEnv(env)
	}
	c.loadDefaults()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *Config) Merge(overlay *Config) {
	if overlay.Provider != "" {
		c.Provider = overlay.Provider
	}
	if overlay.BaseURL != "" {
		c.BaseURL = overlay.BaseURL
	}
	if overlay.Token != "" {
		c.Token = overlay.Token
	}
	if overlay.Model != "" {
		c.Model = overlay.Model
	}
	if overlay.APIVersion != "" {
		c.APIVersion = overlay.APIVersion
	}
	if overlay.Timeout != "" {
		c.Timeout = overlay.Timeout
	}
	if overlay.MaxTokens != 0 {
		c.MaxTokens = overlay.MaxTokens
	}
	if overlay.Detail != "" {
		c.Detail = overlay.Detail
	}
}

func (c *Config) loadDefaults() {
	if c.Timeout == "" {
		c.Timeout = "60s"
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = 1024
	}
	if c.Detail == "" {
		c.Detail = "high"
	}
	switch c.Provider {
	case ProviderOpenAI:
		if c.Model == "" {
			c.Model = "gpt-4o"
		}
	case ProviderOllama:
		if c.BaseURL == "" {
			c.BaseURL = "http://localhost:11434/v1"
		}
		if c.Model == "" {
			c.Model = "llama3.2-vision"
		}
	case ProviderAzure:
		if c.APIVersion == "" {
			c.APIVersion = "2024-10-21"
		}
	}
}

func (c *Config) loadEnv(env *Env) {
	if env.Provider != "" {
		if v := os.Getenv(env.Provider); v != "" {
			c.Provider = v
		}
	}
	if env.BaseURL != "" {
		if v := os.Getenv(env.BaseURL); v != "" {
			c.BaseURL = v
		}
	}
	if env.Token != "" {
		if v := os.Getenv(env.Token); v != "" {
			c.Token = v
		}
	}
	if env.Model != "" {
		if v := os.Getenv(env.Model); v != "" {
			c.Model = v
		}
	}
	if env.APIVersion != "" {
		if v := os.Getenv(env.APIVersion); v != "" {
			c.APIVersion = v
		}
	}
	if env.Timeout != "" {
		if v := os.Getenv(env.Timeout); v != "" {
			c.Timeout = v
		}
	}
	if env.MaxTokens != "" {
		if v := os.Getenv(env.MaxTokens); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				c.MaxTokens = n
			}
		}
	}
}

func (c *Config) validate() error {
	if _, err := time.ParseDuration(c.Timeout); err != nil {
		return fmt.Errorf("invalid timeout: %w", err)
	}

	switch c.Provider {
	case "":
		return nil
	case ProviderOpenAI, ProviderOllama:
	case ProviderAzure:
		if c.BaseURL == "" {
			return fmt.Errorf("base_url required for azure provider")
		}
	default:
		return fmt.Errorf("unknown provider %q", c.Provider)
	}

	if c.Model == "" {
		return fmt.Errorf("model required")
	}
	if c.Provider != ProviderOllama && c.Token == "" {
		return fmt.Errorf("token required for %s provider", c.Provider)
	}
	return nil
}
