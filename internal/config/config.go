// Package config loads the bot's configuration: the reusable core sections
// plus the learning-specific ones, from YAML with environment overrides.
package config

import (
	"fmt"
	"os"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	coreconfig "github.com/m3rciful/lingobot/core/config"
	coredatabase "github.com/m3rciful/lingobot/core/database"
)

// GuardConfig tunes the per-user update protections.
type GuardConfig struct {
	DedupTTLSeconds int `yaml:"dedup_ttl_seconds" envconfig:"GUARD_DEDUP_TTL_SECONDS"`
}

// RemindersConfig controls the due-review reminder job. Reminders fire only
// inside the [StartHour, EndHour) local-time window so users are not pinged
// at night.
type RemindersConfig struct {
	Enabled         bool `yaml:"enabled" envconfig:"REMINDERS_ENABLED"`
	IntervalMinutes int  `yaml:"interval_minutes" envconfig:"REMINDERS_INTERVAL_MINUTES"`
	StartHour       int  `yaml:"start_hour" envconfig:"REMINDERS_START_HOUR"`
	EndHour         int  `yaml:"end_hour" envconfig:"REMINDERS_END_HOUR"`
}

// Config is the application configuration.
type Config struct {
	Core      coreconfig.Config   `yaml:",inline"`
	Database  coredatabase.Config `yaml:"database"`
	Guard     GuardConfig         `yaml:"guard"`
	Reminders RemindersConfig     `yaml:"reminders"`
}

// Load reads the YAML file, applies environment overrides, validates the core
// sections, and fills defaults.
func Load(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse YAML config: %w", err)
	}
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("process env: %w", err)
	}

	if err := coreconfig.Normalize(&cfg.Core); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Core.RateLimit.IntervalMS == 0 {
		c.Core.RateLimit.IntervalMS = 300
	}
	if c.Guard.DedupTTLSeconds <= 0 {
		c.Guard.DedupTTLSeconds = 60
	}
	if c.Reminders.IntervalMinutes <= 0 {
		c.Reminders.IntervalMinutes = 60
	}
	if c.Reminders.EndHour <= c.Reminders.StartHour {
		c.Reminders.StartHour = 10
		c.Reminders.EndHour = 21
	}
	if c.Database.MaxConnections <= 0 {
		c.Database.MaxConnections = 4
	}
}

// CoreConfig exposes the embedded core configuration for the shared runner.
func (c *Config) CoreConfig() *coreconfig.Config {
	return &c.Core
}
