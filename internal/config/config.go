// Package config loads server configuration from GSOAP_* environment
// variables.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/vizee/gsoap/soap"
)

const Prefix = "GSOAP"

type Config struct {
	HTTPAddr    string `envconfig:"HTTP_ADDR" default:":8080"`
	MaxBodySize int64  `envconfig:"MAX_BODY_SIZE" default:"4194304"`

	// NATS transport is disabled when NATSURL is empty.
	NATSURL           string `envconfig:"NATS_URL"`
	NATSName          string `envconfig:"NATS_NAME" default:"gsoap"`
	NATSSubjectPrefix string `envconfig:"NATS_SUBJECT_PREFIX" default:"gsoap"`

	SOAPVersion    string `envconfig:"SOAP_VERSION" default:"1.1"`
	AllowedMethods string `envconfig:"ALLOWED_METHODS"`

	RateLimitRPS   float64 `envconfig:"RATE_LIMIT_RPS"`
	RateLimitBurst int     `envconfig:"RATE_LIMIT_BURST" default:"10"`

	SessionIdleTimeout time.Duration `envconfig:"SESSION_IDLE_TIMEOUT" default:"30m"`

	DeployFile  string `envconfig:"DEPLOY_FILE"`
	MetricsPath string `envconfig:"METRICS_PATH" default:"/metrics"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`
}

func Load() (*Config, error) {
	var c Config
	if err := envconfig.Process(Prefix, &c); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &c, nil
}

func (c *Config) Validate() error {
	if c.HTTPAddr == "" && c.NATSURL == "" {
		return fmt.Errorf("config: one of %s_HTTP_ADDR or %s_NATS_URL is required", Prefix, Prefix)
	}
	if _, err := c.Version(); err != nil {
		return fmt.Errorf("config: %s_SOAP_VERSION: %w", Prefix, err)
	}
	if c.MaxBodySize <= 0 {
		return fmt.Errorf("config: %s_MAX_BODY_SIZE must be positive", Prefix)
	}
	if c.RateLimitRPS < 0 {
		return fmt.Errorf("config: %s_RATE_LIMIT_RPS must not be negative", Prefix)
	}
	if c.RateLimitRPS > 0 && c.RateLimitBurst <= 0 {
		return fmt.Errorf("config: %s_RATE_LIMIT_BURST must be positive", Prefix)
	}
	if c.SessionIdleTimeout <= 0 {
		return fmt.Errorf("config: %s_SESSION_IDLE_TIMEOUT must be positive", Prefix)
	}
	return nil
}

func (c *Config) Version() (soap.Version, error) {
	return soap.ParseVersion(c.SOAPVersion)
}

// Methods splits AllowedMethods on commas and spaces.
func (c *Config) Methods() []string {
	return strings.FieldsFunc(c.AllowedMethods, func(r rune) bool {
		return r == ',' || r == ' '
	})
}
