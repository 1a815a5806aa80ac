package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the process configuration loaded from YAML.
type Config struct {
	Database struct {
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		Name     string `yaml:"database"`
	} `yaml:"database"`

	RabbitMQ struct {
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
	} `yaml:"rabbitmq"`

	Restaurant struct {
		Tables          int     `yaml:"tables"`            // dine-in tables available
		Lanes           int     `yaml:"lanes"`             // drive-thru lanes
		TaxRate         float64 `yaml:"tax_rate"`          // e.g. 0.08
		NotifyTimeoutMS int     `yaml:"notify_timeout_ms"` // per-subscriber delivery budget
	} `yaml:"restaurant"`
}

// LoadFromFile loads config from a YAML file, applies defaults, and
// validates required fields.
func LoadFromFile(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}

	var cfg Config
	dec := yaml.NewDecoder(strings.NewReader(string(raw)))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyDefaults(&cfg)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// applyDefaults sets safe defaults for optional fields.
func applyDefaults(cfg *Config) {
	// Database
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}

	// RabbitMQ
	if cfg.RabbitMQ.Host == "" {
		cfg.RabbitMQ.Host = "localhost"
	}
	if cfg.RabbitMQ.Port == 0 {
		cfg.RabbitMQ.Port = 5672
	}

	// Restaurant floor
	if cfg.Restaurant.Tables == 0 {
		cfg.Restaurant.Tables = 20
	}
	if cfg.Restaurant.Lanes == 0 {
		cfg.Restaurant.Lanes = 2
	}
	if cfg.Restaurant.TaxRate == 0 {
		cfg.Restaurant.TaxRate = 0.08
	}
	if cfg.Restaurant.NotifyTimeoutMS == 0 {
		cfg.Restaurant.NotifyTimeoutMS = 2000
	}
}

// validate checks required fields and basic ranges.
func (c *Config) validate() error {
	var problems []string

	// DB
	if c.Database.Port <= 0 || c.Database.Port > 65535 {
		problems = append(problems, "database.port must be in 1..65535")
	}
	if c.Database.User == "" {
		problems = append(problems, "database.user is required")
	}
	if c.Database.Password == "" {
		problems = append(problems, "database.password is required")
	}
	if c.Database.Name == "" {
		problems = append(problems, "database.database (name) is required")
	}

	// RabbitMQ
	if c.RabbitMQ.Port <= 0 || c.RabbitMQ.Port > 65535 {
		problems = append(problems, "rabbitmq.port must be in 1..65535")
	}
	if c.RabbitMQ.User == "" {
		problems = append(problems, "rabbitmq.user is required")
	}
	if c.RabbitMQ.Password == "" {
		problems = append(problems, "rabbitmq.password is required")
	}

	// Restaurant floor
	if c.Restaurant.Tables < 1 {
		problems = append(problems, "restaurant.tables must be >= 1")
	}
	if c.Restaurant.Lanes < 1 {
		problems = append(problems, "restaurant.lanes must be >= 1")
	}
	if c.Restaurant.TaxRate < 0 || c.Restaurant.TaxRate >= 1 {
		problems = append(problems, "restaurant.tax_rate must be in [0, 1)")
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}
