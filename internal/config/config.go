package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Config defines booking service configuration.
type Config struct {
	HTTP struct {
		Port string `yaml:"port" env:"BOOKING_HTTP_PORT"`
	} `yaml:"http"`
	Database struct {
		DSN string `yaml:"dsn" env:"BOOKING_POSTGRES_DSN"`
	} `yaml:"database"`
	Redis struct {
		Addr     string `yaml:"addr" env:"BOOKING_REDIS_ADDR"`
		Password string `yaml:"password" env:"BOOKING_REDIS_PASSWORD"`
		DB       int    `yaml:"db" env:"BOOKING_REDIS_DB"`
	} `yaml:"redis"`
	Auth struct {
		JWTSecret string `yaml:"jwtSecret" env:"BOOKING_JWT_SECRET"`
	} `yaml:"auth"`
	Rules struct {
		BookingWindowDays  int `yaml:"bookingWindowDays" env:"BOOKING_WINDOW_DAYS"`
		CutoffHours        int `yaml:"cutoffHours" env:"BOOKING_CUTOFF_HOURS"`
		NoShowGraceMinutes int `yaml:"noShowGraceMinutes" env:"BOOKING_NOSHOW_GRACE_MINUTES"`
	} `yaml:"rules"`
	Sweep struct {
		Enabled         bool `yaml:"enabled" env:"BOOKING_SWEEP_ENABLED"`
		IntervalMinutes int  `yaml:"intervalMinutes" env:"BOOKING_SWEEP_INTERVAL_MINUTES"`
	} `yaml:"sweep"`
}

// Load reads configuration and applies defaults.
func Load() (*Config, error) {
	cfg := &Config{}
	cfg.HTTP.Port = "8084"
	cfg.Redis.Addr = "localhost:6379"
	cfg.Rules.BookingWindowDays = 7
	cfg.Rules.CutoffHours = 12
	cfg.Rules.NoShowGraceMinutes = 30
	cfg.Sweep.IntervalMinutes = 5

	if err := load(cfg); err != nil {
		return nil, err
	}

	if strings.TrimSpace(cfg.Database.DSN) == "" {
		return nil, errors.New("config: database dsn required")
	}
	if strings.TrimSpace(cfg.Redis.Addr) == "" {
		return nil, errors.New("config: redis addr required")
	}
	if strings.TrimSpace(cfg.Auth.JWTSecret) == "" {
		return nil, errors.New("config: jwt secret required")
	}
	if cfg.Rules.BookingWindowDays <= 0 || cfg.Rules.CutoffHours < 0 {
		return nil, errors.New("config: invalid booking rules")
	}
	return cfg, nil
}

// HTTPAddress returns :port style.
func (c *Config) HTTPAddress() string {
	port := strings.TrimSpace(c.HTTP.Port)
	if port == "" {
		port = "8084"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return fmt.Sprintf(":%s", port)
}

// BookingWindow returns how far ahead a booking may be placed.
func (c *Config) BookingWindow() time.Duration {
	return time.Duration(c.Rules.BookingWindowDays) * 24 * time.Hour
}

// ModificationCutoff returns the owner modification cutoff before start.
func (c *Config) ModificationCutoff() time.Duration {
	return time.Duration(c.Rules.CutoffHours) * time.Hour
}

// NoShowGrace returns how long past start a booking may sit before the
// sweeper marks it NoShow.
func (c *Config) NoShowGrace() time.Duration {
	return time.Duration(c.Rules.NoShowGraceMinutes) * time.Minute
}

// SweepInterval returns the sweeper tick period.
func (c *Config) SweepInterval() time.Duration {
	if c.Sweep.IntervalMinutes <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(c.Sweep.IntervalMinutes) * time.Minute
}
