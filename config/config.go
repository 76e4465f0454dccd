package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

const (
	DriverMongo  = "mongo"
	DriverMemory = "memory"
)

type Config struct {
	Server struct {
		Port           int      `yaml:"port" validate:"required,min=1,max=65535"`
		AllowedOrigins []string `yaml:"allowedOrigins"`
	} `yaml:"server"`

	Database struct {
		Driver string `yaml:"driver" validate:"oneof=mongo memory"`
		URI    string `yaml:"uri" validate:"required_if=Driver mongo"`
	} `yaml:"database"`

	Redis struct {
		Enabled      bool   `yaml:"enabled"`
		Addr         string `yaml:"addr" validate:"required_if=Enabled true"`
		Password     string `yaml:"password"`
		DB           int    `yaml:"db" validate:"min=0"`
		StreamKey    string `yaml:"streamKey"`
		StreamMaxLen int64  `yaml:"streamMaxLen" validate:"min=0"`
	} `yaml:"redis"`

	JWT struct {
		Secret        string `yaml:"secret" validate:"required,min=16"`
		ExpiryMinutes int    `yaml:"expiryMinutes" validate:"min=0"`
	} `yaml:"jwt"`

	Enrollment struct {
		MaxAttempts int `yaml:"maxAttempts" validate:"min=0,max=100"`
	} `yaml:"enrollment"`

	Ratings struct {
		MaxAttempts int `yaml:"maxAttempts" validate:"min=0,max=100"`
		RateLimit   struct {
			Max           int `yaml:"max" validate:"min=0"`
			WindowSeconds int `yaml:"windowSeconds" validate:"min=0"`
		} `yaml:"rateLimit"`
	} `yaml:"ratings"`

	RBAC struct {
		PersistPolicies bool `yaml:"persistPolicies"`
	} `yaml:"rbac"`

	Logging struct {
		Level string `yaml:"level" validate:"omitempty,oneof=debug info warn error"`
		File  string `yaml:"file"`
	} `yaml:"logging"`
}

var validate = validator.New()

// LoadConfig reads the configuration file, applies defaults and validates it
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal yaml: %w", err)
	}
	cfg.applyDefaults()

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the configuration struct
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	if cfg.RBAC.PersistPolicies && cfg.Database.Driver != DriverMongo {
		return fmt.Errorf("config validation failed: rbac.persistPolicies needs the mongo driver")
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 1313
	}
	if len(c.Server.AllowedOrigins) == 0 {
		c.Server.AllowedOrigins = []string{"http://localhost:5173"}
	}
	if c.Database.Driver == "" {
		c.Database.Driver = DriverMongo
	}
	if c.JWT.ExpiryMinutes == 0 {
		c.JWT.ExpiryMinutes = 24 * 60
	}
	if c.Enrollment.MaxAttempts == 0 {
		c.Enrollment.MaxAttempts = 10
	}
	if c.Ratings.MaxAttempts == 0 {
		c.Ratings.MaxAttempts = 10
	}
	if c.Ratings.RateLimit.WindowSeconds == 0 {
		c.Ratings.RateLimit.WindowSeconds = 60
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}

// RateLimitWindow is the rating rate limit window
func (c *Config) RateLimitWindow() time.Duration {
	return time.Duration(c.Ratings.RateLimit.WindowSeconds) * time.Second
}

// TokenExpiry is the lifetime of issued tokens
func (c *Config) TokenExpiry() time.Duration {
	return time.Duration(c.JWT.ExpiryMinutes) * time.Minute
}
