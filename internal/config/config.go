package config

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port string
	Env  string // development, production

	// Analysis
	SimulatedLatency time.Duration
	FractureRate     float64
	RandomSeed       uint64 // 0 means unseeded

	// Limits
	MaxUploadSizeMB    int
	RateLimitPerMinute int

	// Sessions
	SessionTTL      time.Duration
	JanitorInterval time.Duration
	SecureCookies   bool
}

// Load reads configuration from flags with environment fallbacks. A .env
// file in the working directory is loaded first when present.
func Load() (*Config, error) {
	return load(flag.CommandLine, os.Args[1:])
}

func load(fs *flag.FlagSet, args []string) (*Config, error) {
	// Load .env file if it exists (don't error if missing)
	_ = godotenv.Load()

	cfg := &Config{}

	fs.StringVar(&cfg.Port, "port", getEnv("PORT", "8080"), "Server port")
	fs.StringVar(&cfg.Env, "env", getEnv("ENV", "development"), "Environment (development, production)")
	fs.DurationVar(&cfg.SimulatedLatency, "latency", getEnvDuration("SIMULATED_LATENCY", 1500*time.Millisecond), "Simulated analysis latency")
	fs.Float64Var(&cfg.FractureRate, "fracture-rate", getEnvFloat("FRACTURE_RATE", 0.6), "Probability that an analysis detects a fracture")
	fs.Uint64Var(&cfg.RandomSeed, "seed", uint64(getEnvInt("RANDOM_SEED", 0)), "Seed for the report generator (0 = random)")

	cfg.MaxUploadSizeMB = getEnvInt("MAX_UPLOAD_SIZE_MB", 10)
	cfg.RateLimitPerMinute = getEnvInt("RATE_LIMIT_PER_MINUTE", 30)
	cfg.SessionTTL = getEnvDuration("SESSION_TTL", 4*time.Hour)
	cfg.JanitorInterval = getEnvDuration("SESSION_JANITOR_INTERVAL", 5*time.Minute)
	cfg.SecureCookies = getEnv("SECURE_COOKIES", "false") == "true"

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT is required")
	}
	if c.SimulatedLatency < 0 {
		return fmt.Errorf("SIMULATED_LATENCY must not be negative")
	}
	if c.FractureRate < 0 || c.FractureRate > 1 {
		return fmt.Errorf("FRACTURE_RATE must be between 0 and 1")
	}
	if c.MaxUploadSizeMB < 1 {
		return fmt.Errorf("MAX_UPLOAD_SIZE_MB must be at least 1")
	}
	if c.RateLimitPerMinute < 1 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE must be at least 1")
	}
	if c.SessionTTL <= 0 || c.JanitorInterval <= 0 {
		return fmt.Errorf("SESSION_TTL and SESSION_JANITOR_INTERVAL must be positive")
	}
	return nil
}

// MaxUploadBytes is the per-image upload limit.
func (c *Config) MaxUploadBytes() int64 {
	return int64(c.MaxUploadSizeMB) << 20
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return fallback
}
