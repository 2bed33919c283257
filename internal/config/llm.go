package config

import (
	"os"
	"time"

	"github.com/rezonia/quote-vat/internal/llm"
	"github.com/rezonia/quote-vat/internal/model"
)

const (
	EnvLLMAPIKey  = "LLM_API_KEY"
	EnvLLMBaseURL = "LLM_BASE_URL"
	EnvLLMModel   = "LLM_MODEL"
	EnvLLMTimeout = "LLM_TIMEOUT"
)

// LLMConfig holds the field extractor endpoint
type LLMConfig struct {
	APIKey  string `toml:"api_key"`
	BaseURL string `toml:"base_url"`
	Model   string `toml:"model"`
	Timeout string `toml:"timeout"`
}

// Enabled reports whether an API key is configured
func (c *LLMConfig) Enabled() bool {
	return c.APIKey != ""
}

// TimeoutDuration returns Timeout as a time.Duration
func (c *LLMConfig) TimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.Timeout)
	return d
}

// Finalize applies defaults, environment variable overrides, and validation
func (c *LLMConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay
func (c *LLMConfig) Merge(overlay *LLMConfig) {
	if overlay.APIKey != "" {
		c.APIKey = overlay.APIKey
	}
	if overlay.BaseURL != "" {
		c.BaseURL = overlay.BaseURL
	}
	if overlay.Model != "" {
		c.Model = overlay.Model
	}
	if overlay.Timeout != "" {
		c.Timeout = overlay.Timeout
	}
}

func (c *LLMConfig) loadDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = llm.DefaultBaseURL
	}
	if c.Model == "" {
		c.Model = llm.DefaultModel
	}
	if c.Timeout == "" {
		c.Timeout = llm.DefaultTimeout.String()
	}
}

func (c *LLMConfig) loadEnv() {
	if v := os.Getenv(EnvLLMAPIKey); v != "" {
		c.APIKey = v
	}
	if v := os.Getenv(EnvLLMBaseURL); v != "" {
		c.BaseURL = v
	}
	if v := os.Getenv(EnvLLMModel); v != "" {
		c.Model = v
	}
	if v := os.Getenv(EnvLLMTimeout); v != "" {
		c.Timeout = v
	}
}

func (c *LLMConfig) validate() error {
	if d, err := time.ParseDuration(c.Timeout); err != nil || d <= 0 {
		return model.NewValidationError("llm.timeout", c.Timeout, "duration", "must be a positive duration")
	}
	return nil
}
