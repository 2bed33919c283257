// Package config loads quote-vat settings from a TOML file, the
// environment and a .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"

	"github.com/rezonia/quote-vat/internal/logging"
	"github.com/rezonia/quote-vat/internal/model"
)

const (
	DefaultConfigFile    = "quote-vat.toml"
	OverlayConfigPattern = "quote-vat.%s.toml"
	DefaultEnvFile       = ".env"

	EnvQuoteVATEnv = "QUOTE_VAT_ENV"
	EnvLogLevel    = "QUOTE_VAT_LOG_LEVEL"
	EnvLogFormat   = "QUOTE_VAT_LOG_FORMAT"
	EnvWorkers     = "QUOTE_VAT_WORKERS"
)

// Config is the root configuration
type Config struct {
	LogLevel   string           `toml:"log_level"`
	LogFormat  string           `toml:"log_format"`
	LLM        LLMConfig        `toml:"llm"`
	Server     ServerConfig     `toml:"server"`
	Classifier ClassifierConfig `toml:"classifier"`
}

// ClassifierConfig controls batch processing
type ClassifierConfig struct {
	Workers int `toml:"workers"`
}

// LoadDotEnv loads variables from env files without overriding ones
// already set. Missing files are ignored.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{DefaultEnvFile}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// Load reads path (or quote-vat.toml when path is empty and the file
// exists), applies an environment overlay, then defaults and environment
// variables. An explicit path that does not exist is an error.
func Load(path string) (*Config, error) {
	if err := LoadDotEnv(); err != nil {
		return nil, err
	}

	explicit := path != ""
	if !explicit {
		path = DefaultConfigFile
	}

	cfg := &Config{}
	if _, err := os.Stat(path); err == nil {
		loaded, err := load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	} else if explicit {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}

	if overlay := overlayPath(path); overlay != "" {
		o, err := load(overlay)
		if err != nil {
			return nil, fmt.Errorf("load overlay %s: %w", overlay, err)
		}
		cfg.Merge(o)
	}

	if err := cfg.Finalize(); err != nil {
		return nil, fmt.Errorf("finalize config: %w", err)
	}
	return cfg, nil
}

// Default returns a finalized config built only from defaults and the environment
func Default() (*Config, error) {
	cfg := &Config{}
	if err := cfg.Finalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Merge overwrites non-zero fields from overlay
func (c *Config) Merge(overlay *Config) {
	if overlay.LogLevel != "" {
		c.LogLevel = overlay.LogLevel
	}
	if overlay.LogFormat != "" {
		c.LogFormat = overlay.LogFormat
	}
	if overlay.Classifier.Workers != 0 {
		c.Classifier.Workers = overlay.Classifier.Workers
	}
	c.LLM.Merge(&overlay.LLM)
	c.Server.Merge(&overlay.Server)
}

// Finalize applies defaults, environment overrides and validation
func (c *Config) Finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if err := c.Validate(); err != nil {
		return err
	}
	if err := c.LLM.Finalize(); err != nil {
		return fmt.Errorf("llm: %w", err)
	}
	if err := c.Server.Finalize(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	return nil
}

// Validate checks the top-level fields
func (c *Config) Validate() error {
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return model.NewValidationError("log_level", c.LogLevel, "level", err.Error())
	}
	if c.LogFormat != logging.FormatText && c.LogFormat != logging.FormatJSON {
		return model.NewValidationError("log_format", c.LogFormat, "enum", "must be text or json")
	}
	if c.Classifier.Workers < 1 {
		return model.NewValidationError("classifier.workers", c.Classifier.Workers, "min", "must be at least 1")
	}
	return nil
}

func (c *Config) loadDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.LogFormat == "" {
		c.LogFormat = logging.FormatText
	}
	if c.Classifier.Workers == 0 {
		c.Classifier.Workers = 4
	}
}

func (c *Config) loadEnv() {
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv(EnvLogFormat); v != "" {
		c.LogFormat = v
	}
	if v := os.Getenv(EnvWorkers); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Classifier.Workers = n
		}
	}
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

func overlayPath(base string) string {
	env := os.Getenv(EnvQuoteVATEnv)
	if env == "" {
		return ""
	}
	path := filepath.Join(filepath.Dir(base), fmt.Sprintf(OverlayConfigPattern, env))
	if _, err := os.Stat(path); err == nil {
		return path
	}
	return ""
}
