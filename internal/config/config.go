// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

const (
	LockBackendMemory = "memory"
	LockBackendRedis  = "redis"
)

type DatabaseConfig struct {
	Driver   string `yaml:"driver"`
	Filename string `yaml:"filename"`
}

type BookingConfig struct {
	HoldTTL            time.Duration `yaml:"hold_ttl"`
	HoldRetention      time.Duration `yaml:"hold_retention"`
	HoldSweepCron      string        `yaml:"hold_sweep_cron"`
	DefaultSlotMinutes int           `yaml:"default_slot_minutes"`
	CodeAttempts       int           `yaml:"code_attempts"`
	PhoneRegion        string        `yaml:"phone_region"`
}

type SettlementConfig struct {
	TaxRateBPS           int64  `yaml:"tax_rate_bps"`
	DefaultCommissionBPS int64  `yaml:"default_commission_bps"`
	Cron                 string `yaml:"cron"`
}

type LocksConfig struct {
	Backend  string        `yaml:"backend"`
	RedisURL string        `yaml:"-"` // Loaded from environment
	TTL      time.Duration `yaml:"ttl"`
	Retry    time.Duration `yaml:"retry"`
}

type CacheConfig struct {
	TTL        time.Duration `yaml:"ttl"`
	MaxEntries int           `yaml:"max_entries"`
}

type RateLimitConfig struct {
	Window               time.Duration `yaml:"window"`
	HoldsPerSession      int           `yaml:"holds_per_session"`
	HoldsPerIP           int           `yaml:"holds_per_ip"`
	TrustForwardedHeader bool          `yaml:"trust_forwarded_header"`
}

type EmailConfig struct {
	Enabled         bool   `yaml:"enabled"`
	Region          string `yaml:"region"`
	Sender          string `yaml:"sender"`
	AccessKeyID     string `yaml:"-"` // Loaded from environment
	SecretAccessKey string `yaml:"-"` // Loaded from environment
}

// AdminKey is a named bcrypt hash of an admin API key.
type AdminKey struct {
	Name string `yaml:"name"`
	Hash string `yaml:"hash"`
}

type Config struct {
	App struct {
		Name            string        `yaml:"name"`
		Environment     string        `yaml:"environment"`
		Port            int           `yaml:"port"`
		BaseURL         string        `yaml:"base_url"`
		Timezone        string        `yaml:"timezone"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"app"`

	Database   DatabaseConfig   `yaml:"database"`
	Booking    BookingConfig    `yaml:"booking"`
	Settlement SettlementConfig `yaml:"settlement"`
	Locks      LocksConfig      `yaml:"locks"`
	Cache      CacheConfig      `yaml:"availability_cache"`
	RateLimit  RateLimitConfig  `yaml:"rate_limit"`
	Email      EmailConfig      `yaml:"email"`

	Admin struct {
		Keys []AdminKey `yaml:"keys"`
	} `yaml:"admin"`

	Features struct {
		EnableScheduler bool `yaml:"enable_scheduler"`
		EnableDebug     bool `yaml:"enable_debug"`
	} `yaml:"features"`
}

// Load loads both .env and yaml configuration
func Load(configPath string) (*Config, error) {
	// Load .env file if it exists
	envPath := filepath.Join(filepath.Dir(configPath), ".env")
	if err := godotenv.Load(envPath); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes YAML configuration, applies defaults, pulls secrets from the
// environment and validates the result.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	cfg.applyDefaults()

	// Load sensitive values from environment
	cfg.Locks.RedisURL = os.Getenv("REDIS_URL")
	cfg.Email.AccessKeyID = os.Getenv("AWS_ACCESS_KEY_ID")
	cfg.Email.SecretAccessKey = os.Getenv("AWS_SECRET_ACCESS_KEY")
	if raw := strings.TrimSpace(os.Getenv("ADMIN_API_KEY_HASH")); raw != "" {
		cfg.Admin.Keys = append(cfg.Admin.Keys, AdminKey{Name: "env", Hash: raw})
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.App.Environment == "" {
		c.App.Environment = "development"
	}
	if c.App.Timezone == "" {
		c.App.Timezone = "America/Santiago"
	}
	if c.App.ShutdownTimeout == 0 {
		c.App.ShutdownTimeout = 30 * time.Second
	}
	if c.Booking.HoldTTL == 0 {
		c.Booking.HoldTTL = 10 * time.Minute
	}
	if c.Booking.HoldRetention == 0 {
		c.Booking.HoldRetention = 24 * time.Hour
	}
	if c.Booking.HoldSweepCron == "" {
		c.Booking.HoldSweepCron = "* * * * *"
	}
	if c.Booking.DefaultSlotMinutes == 0 {
		c.Booking.DefaultSlotMinutes = 60
	}
	if c.Booking.CodeAttempts == 0 {
		c.Booking.CodeAttempts = 5
	}
	if c.Booking.PhoneRegion == "" {
		c.Booking.PhoneRegion = "CL"
	}
	if c.Settlement.TaxRateBPS == 0 {
		c.Settlement.TaxRateBPS = 1900
	}
	if c.Settlement.DefaultCommissionBPS == 0 {
		c.Settlement.DefaultCommissionBPS = 350
	}
	if c.Settlement.Cron == "" {
		c.Settlement.Cron = "59 23 * * *"
	}
	if c.Locks.Backend == "" {
		c.Locks.Backend = LockBackendMemory
	}
	if c.Locks.TTL == 0 {
		c.Locks.TTL = 15 * time.Second
	}
	if c.Locks.Retry == 0 {
		c.Locks.Retry = 25 * time.Millisecond
	}
	if c.Cache.TTL == 0 {
		c.Cache.TTL = 30 * time.Second
	}
	if c.Cache.MaxEntries == 0 {
		c.Cache.MaxEntries = 1000
	}
	if c.RateLimit.Window == 0 {
		c.RateLimit.Window = time.Hour
	}
	if c.RateLimit.HoldsPerSession == 0 {
		c.RateLimit.HoldsPerSession = 10
	}
	if c.RateLimit.HoldsPerIP == 0 {
		c.RateLimit.HoldsPerIP = 60
	}
}

func (c *Config) Validate() error {
	if c.App.Name == "" {
		return fmt.Errorf("app name is required")
	}
	if c.App.Port == 0 {
		return fmt.Errorf("app port is required")
	}
	if _, err := time.LoadLocation(c.App.Timezone); err != nil {
		return fmt.Errorf("invalid app timezone %q: %w", c.App.Timezone, err)
	}
	if c.Database.Driver == "" {
		return fmt.Errorf("database driver is required")
	}

	switch c.Database.Driver {
	case "sqlite":
		if c.Database.Filename == "" {
			return fmt.Errorf("database filename is required for sqlite")
		}
	default:
		return fmt.Errorf("unsupported database driver: %s", c.Database.Driver)
	}

	if c.Booking.HoldTTL < time.Minute {
		return fmt.Errorf("booking hold_ttl must be at least 1m")
	}
	if c.Booking.DefaultSlotMinutes < 15 {
		return fmt.Errorf("booking default_slot_minutes must be at least 15")
	}
	if c.Booking.CodeAttempts < 1 {
		return fmt.Errorf("booking code_attempts must be positive")
	}
	if c.Settlement.TaxRateBPS < 0 || c.Settlement.TaxRateBPS > 10000 {
		return fmt.Errorf("settlement tax_rate_bps must be between 0 and 10000")
	}
	if c.Settlement.DefaultCommissionBPS < 0 || c.Settlement.DefaultCommissionBPS > 10000 {
		return fmt.Errorf("settlement default_commission_bps must be between 0 and 10000")
	}

	for name, expr := range map[string]string{
		"booking.hold_sweep_cron": c.Booking.HoldSweepCron,
		"settlement.cron":         c.Settlement.Cron,
	} {
		if _, err := cron.ParseStandard(expr); err != nil {
			return fmt.Errorf("invalid cron expression for %s: %w", name, err)
		}
	}

	switch c.Locks.Backend {
	case LockBackendMemory:
	case LockBackendRedis:
		if c.Locks.RedisURL == "" {
			return fmt.Errorf("REDIS_URL is required for the redis lock backend")
		}
	default:
		return fmt.Errorf("unsupported lock backend: %s", c.Locks.Backend)
	}

	if c.Email.Enabled {
		if c.Email.Region == "" || c.Email.Sender == "" {
			return fmt.Errorf("email region and sender are required when email is enabled")
		}
		if c.Email.AccessKeyID == "" || c.Email.SecretAccessKey == "" {
			return fmt.Errorf("AWS credentials are required when email is enabled")
		}
	}

	for _, key := range c.Admin.Keys {
		if strings.TrimSpace(key.Hash) == "" {
			return fmt.Errorf("admin key %q has no hash", key.Name)
		}
	}

	return nil
}

// Location returns the canonical timezone used to interpret calendar dates.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.App.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
