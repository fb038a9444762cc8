package config

import (
	"os"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/vizee/gsoap/soap"
)

// unsetAll clears the prefixed and bare names envconfig consults.
func unsetAll(t *testing.T) {
	for _, key := range []string{
		"HTTP_ADDR", "MAX_BODY_SIZE", "NATS_URL", "NATS_NAME", "NATS_SUBJECT_PREFIX",
		"SOAP_VERSION", "ALLOWED_METHODS", "RATE_LIMIT_RPS", "RATE_LIMIT_BURST",
		"SESSION_IDLE_TIMEOUT", "DEPLOY_FILE", "METRICS_PATH", "LOG_LEVEL",
	} {
		for _, name := range []string{key, Prefix + "_" + key} {
			t.Setenv(name, "")
			os.Unsetenv(name)
		}
	}
}

func TestLoad_defaults(t *testing.T) {
	unsetAll(t)
	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	want := &Config{
		HTTPAddr:           ":8080",
		MaxBodySize:        4 << 20,
		NATSName:           "gsoap",
		NATSSubjectPrefix:  "gsoap",
		SOAPVersion:        "1.1",
		RateLimitBurst:     10,
		SessionIdleTimeout: 30 * time.Minute,
		MetricsPath:        "/metrics",
		LogLevel:           "info",
	}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("defaults (-want +got):\n%s", diff)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}

func TestLoad_env(t *testing.T) {
	unsetAll(t)
	t.Setenv("GSOAP_NATS_URL", "nats://127.0.0.1:4333")
	t.Setenv("GSOAP_SOAP_VERSION", "1.2")
	t.Setenv("GSOAP_ALLOWED_METHODS", "Echo, Add get*")
	t.Setenv("GSOAP_RATE_LIMIT_RPS", "2.5")
	t.Setenv("GSOAP_SESSION_IDLE_TIMEOUT", "90s")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.NATSURL != "nats://127.0.0.1:4333" || cfg.RateLimitRPS != 2.5 || cfg.SessionIdleTimeout != 90*time.Second {
		t.Errorf("cfg = %+v", cfg)
	}
	if v, err := cfg.Version(); err != nil || v != soap.SOAP12 {
		t.Errorf("Version() = %v, %v", v, err)
	}
	if diff := cmp.Diff([]string{"Echo", "Add", "get*"}, cfg.Methods()); diff != "" {
		t.Errorf("Methods() (-want +got):\n%s", diff)
	}
}

func TestLoad_invalid(t *testing.T) {
	t.Setenv("GSOAP_MAX_BODY_SIZE", "lots")
	if _, err := Load(); err == nil {
		t.Error("expected error")
	}
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			HTTPAddr:           ":8080",
			MaxBodySize:        1024,
			SOAPVersion:        "1.1",
			RateLimitBurst:     1,
			SessionIdleTimeout: time.Minute,
		}
	}
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"no_listener", func(c *Config) { c.HTTPAddr = "" }},
		{"version", func(c *Config) { c.SOAPVersion = "2.0" }},
		{"body_size", func(c *Config) { c.MaxBodySize = 0 }},
		{"negative_rps", func(c *Config) { c.RateLimitRPS = -1 }},
		{"burst", func(c *Config) { c.RateLimitRPS, c.RateLimitBurst = 1, 0 }},
		{"idle", func(c *Config) { c.SessionIdleTimeout = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base()
			tt.mutate(c)
			if err := c.Validate(); err == nil {
				t.Error("expected error")
			}
		})
	}
	if err := base().Validate(); err != nil {
		t.Errorf("base Validate() = %v", err)
	}
}
