package config

import (
	"os"
	"strconv"
	"time"

	"github.com/rezonia/quote-vat/internal/model"
)

const (
	EnvServerAddress         = "QUOTE_VAT_SERVER_ADDRESS"
	EnvServerReadTimeout     = "QUOTE_VAT_SERVER_READ_TIMEOUT"
	EnvServerWriteTimeout    = "QUOTE_VAT_SERVER_WRITE_TIMEOUT"
	EnvServerShutdownTimeout = "QUOTE_VAT_SERVER_SHUTDOWN_TIMEOUT"
	EnvServerDebug           = "QUOTE_VAT_SERVER_DEBUG"
	EnvMaxUploadSize         = "QUOTE_VAT_MAX_UPLOAD_SIZE"
	EnvRateLimit             = "QUOTE_VAT_RATE_LIMIT"
	EnvCacheTTL              = "QUOTE_VAT_CACHE_TTL"

	// DefaultMaxUploadSize is 20 MB
	DefaultMaxUploadSize int64 = 20 << 20
)

// ServerConfig holds HTTP server parameters
type ServerConfig struct {
	Address         string  `toml:"address"`
	ReadTimeout     string  `toml:"read_timeout"`
	WriteTimeout    string  `toml:"write_timeout"`
	ShutdownTimeout string  `toml:"shutdown_timeout"`
	Debug           bool    `toml:"debug"`
	MaxUploadSize   int64   `toml:"max_upload_size"`
	RateLimit       float64 `toml:"rate_limit"`
	RateBurst       int     `toml:"rate_burst"`
	CacheTTL        string  `toml:"cache_ttl"`
}

// ReadTimeoutDuration returns ReadTimeout as a time.Duration
func (c *ServerConfig) ReadTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.ReadTimeout)
	return d
}

// WriteTimeoutDuration returns WriteTimeout as a time.Duration
func (c *ServerConfig) WriteTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.WriteTimeout)
	return d
}

// ShutdownTimeoutDuration returns ShutdownTimeout as a time.Duration
func (c *ServerConfig) ShutdownTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.ShutdownTimeout)
	return d
}

// CacheTTLDuration returns CacheTTL as a time.Duration
func (c *ServerConfig) CacheTTLDuration() time.Duration {
	d, _ := time.ParseDuration(c.CacheTTL)
	return d
}

// Finalize applies defaults, environment variable overrides, and validation
func (c *ServerConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay
func (c *ServerConfig) Merge(overlay *ServerConfig) {
	if overlay.Address != "" {
		c.Address = overlay.Address
	}
	if overlay.ReadTimeout != "" {
		c.ReadTimeout = overlay.ReadTimeout
	}
	if overlay.WriteTimeout != "" {
		c.WriteTimeout = overlay.WriteTimeout
	}
	if overlay.ShutdownTimeout != "" {
		c.ShutdownTimeout = overlay.ShutdownTimeout
	}
	if overlay.Debug {
		c.Debug = true
	}
	if overlay.MaxUploadSize != 0 {
		c.MaxUploadSize = overlay.MaxUploadSize
	}
	if overlay.RateLimit != 0 {
		c.RateLimit = overlay.RateLimit
	}
	if overlay.RateBurst != 0 {
		c.RateBurst = overlay.RateBurst
	}
	if overlay.CacheTTL != "" {
		c.CacheTTL = overlay.CacheTTL
	}
}

func (c *ServerConfig) loadDefaults() {
	if c.Address == "" {
		c.Address = ":8080"
	}
	if c.ReadTimeout == "" {
		c.ReadTimeout = "30s"
	}
	if c.WriteTimeout == "" {
		c.WriteTimeout = "5m"
	}
	if c.ShutdownTimeout == "" {
		c.ShutdownTimeout = "30s"
	}
	if c.MaxUploadSize == 0 {
		c.MaxUploadSize = DefaultMaxUploadSize
	}
	if c.RateLimit == 0 {
		c.RateLimit = 10
	}
	if c.RateBurst == 0 {
		c.RateBurst = 30
	}
	if c.CacheTTL == "" {
		c.CacheTTL = "15m"
	}
}

func (c *ServerConfig) loadEnv() {
	if v := os.Getenv(EnvServerAddress); v != "" {
		c.Address = v
	}
	if v := os.Getenv(EnvServerReadTimeout); v != "" {
		c.ReadTimeout = v
	}
	if v := os.Getenv(EnvServerWriteTimeout); v != "" {
		c.WriteTimeout = v
	}
	if v := os.Getenv(EnvServerShutdownTimeout); v != "" {
		c.ShutdownTimeout = v
	}
	if v := os.Getenv(EnvServerDebug); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Debug = b
		}
	}
	if v := os.Getenv(EnvMaxUploadSize); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.MaxUploadSize = n
		}
	}
	if v := os.Getenv(EnvRateLimit); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.RateLimit = f
		}
	}
	if v := os.Getenv(EnvCacheTTL); v != "" {
		c.CacheTTL = v
	}
}

func (c *ServerConfig) validate() error {
	durations := []struct{ field, value string }{
		{"server.read_timeout", c.ReadTimeout},
		{"server.write_timeout", c.WriteTimeout},
		{"server.shutdown_timeout", c.ShutdownTimeout},
		{"server.cache_ttl", c.CacheTTL},
	}
	for _, d := range durations {
		if _, err := time.ParseDuration(d.value); err != nil {
			return model.NewValidationError(d.field, d.value, "duration", err.Error())
		}
	}
	if c.MaxUploadSize <= 0 {
		return model.NewValidationError("server.max_upload_size", c.MaxUploadSize, "min", "must be positive")
	}
	if c.RateLimit < 0 {
		return model.NewValidationError("server.rate_limit", c.RateLimit, "min", "must not be negative")
	}
	return nil
}
