package config

import (
	"flag"
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"SIMULATED_LATENCY", "FRACTURE_RATE", "MAX_UPLOAD_SIZE_MB"} {
		t.Setenv(key, "")
	}
	t.Setenv("PORT", "8080")
	t.Setenv("ENV", "development")

	cfg, err := load(flag.NewFlagSet("test", flag.ContinueOnError), nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.SimulatedLatency != 1500*time.Millisecond {
		t.Errorf("latency = %v", cfg.SimulatedLatency)
	}
	if cfg.FractureRate != 0.6 {
		t.Errorf("fracture rate = %v", cfg.FractureRate)
	}
	if cfg.MaxUploadBytes() != 10<<20 {
		t.Errorf("max upload = %d", cfg.MaxUploadBytes())
	}
	if !cfg.IsDevelopment() || cfg.IsProduction() {
		t.Errorf("env = %q", cfg.Env)
	}
}

func TestLoadEnvAndFlags(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("SIMULATED_LATENCY", "250ms")
	t.Setenv("FRACTURE_RATE", "0.25")
	t.Setenv("SESSION_TTL", "30m")

	cfg, err := load(flag.NewFlagSet("test", flag.ContinueOnError), []string{"-port", "9100", "-env", "production"})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "9100" {
		t.Errorf("flag should override env, port = %q", cfg.Port)
	}
	if cfg.SimulatedLatency != 250*time.Millisecond || cfg.FractureRate != 0.25 {
		t.Errorf("env not applied: %+v", cfg)
	}
	if cfg.SessionTTL != 30*time.Minute {
		t.Errorf("session ttl = %v", cfg.SessionTTL)
	}
	if !cfg.IsProduction() {
		t.Errorf("env = %q", cfg.Env)
	}
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Port:               "8080",
			SimulatedLatency:   time.Second,
			FractureRate:       0.6,
			MaxUploadSizeMB:    10,
			RateLimitPerMinute: 10,
			SessionTTL:         time.Hour,
			JanitorInterval:    time.Minute,
		}
	}

	cases := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"no port", func(c *Config) { c.Port = "" }, "PORT"},
		{"negative latency", func(c *Config) { c.SimulatedLatency = -time.Second }, "SIMULATED_LATENCY"},
		{"rate above one", func(c *Config) { c.FractureRate = 1.5 }, "FRACTURE_RATE"},
		{"zero upload", func(c *Config) { c.MaxUploadSizeMB = 0 }, "MAX_UPLOAD_SIZE_MB"},
		{"zero rate limit", func(c *Config) { c.RateLimitPerMinute = 0 }, "RATE_LIMIT_PER_MINUTE"},
		{"zero ttl", func(c *Config) { c.SessionTTL = 0 }, "SESSION_TTL"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := valid()
			tc.mutate(&c)
			err := c.Validate()
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tc.wantErr, err)
			}
		})
	}
}
