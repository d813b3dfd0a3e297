// Package config provides configuration management for the trade journal bot.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	yaml "gopkg.in/yaml.v3"
)

const (
	// defaultSummaryTime is the wall-clock time the daily summary runs
	// when schedule.summary_time is unset (4:00 PM, the original alert time).
	defaultSummaryTime = "16:00"
	// defaultTimezone interprets summary_time when schedule.timezone is unset
	defaultTimezone = "America/New_York"
	// defaultWriteRetries bounds re-fetch/recompute attempts on revision conflicts
	defaultWriteRetries = 3
)

// Config represents the complete application configuration.
type Config struct {
	Environment EnvironmentConfig `yaml:"environment"`
	Server      ServerConfig      `yaml:"server"`
	Storage     StorageConfig     `yaml:"storage"`
	Schedule    ScheduleConfig    `yaml:"schedule"`
	Analysis    AnalysisConfig    `yaml:"analysis"`
	Notify      NotifyConfig      `yaml:"notify"`
	Bot         BotConfig         `yaml:"bot"`
}

// EnvironmentConfig defines the environment settings.
type EnvironmentConfig struct {
	LogLevel string `yaml:"log_level"` // debug | info | warn | error
}

// ServerConfig defines the HTTP command surface settings.
type ServerConfig struct {
	Port      int    `yaml:"port"`
	AuthToken string `yaml:"auth_token"` // optional bearer token
}

// StorageConfig defines the trade store backend.
type StorageConfig struct {
	Driver string `yaml:"driver"` // json | sqlite
	Path   string `yaml:"path"`
}

// ScheduleConfig defines when the daily summary is produced.
type ScheduleConfig struct {
	SummaryTime string `yaml:"summary_time"` // "HH:MM"
	Timezone    string `yaml:"timezone"`     // e.g., "America/New_York"
}

// AnalysisConfig defines the optional LLM sell commentary.
type AnalysisConfig struct {
	Enabled bool   `yaml:"enabled"`
	Model   string `yaml:"model"`
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"`
}

// NotifyConfig defines where rendered alerts and summaries are published.
type NotifyConfig struct {
	WebhookURL string `yaml:"webhook_url"`
}

// BotConfig defines command-service behavior.
type BotConfig struct {
	// SummaryUsers restricts the daily summary to the listed user ids.
	// Empty means every user found in the store.
	SummaryUsers []string `yaml:"summary_users"`
	// WriteRetries bounds read-modify-write retries on revision conflicts.
	WriteRetries int `yaml:"write_retries"`
}

// Load reads and parses the configuration file from the specified path.
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = "config.yaml"
	}

	data, err := os.ReadFile(configPath) // #nosec G304 -- configPath is a user-provided config file path
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Expand environment variables
	expanded := os.ExpandEnv(string(data))

	var config Config
	dec := yaml.NewDecoder(strings.NewReader(expanded))
	dec.KnownFields(true)
	if err := dec.Decode(&config); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}

func (c *Config) applyDefaults() {
	if c.Environment.LogLevel == "" {
		c.Environment.LogLevel = "info"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = "json"
	}
	if c.Storage.Path == "" {
		c.Storage.Path = "data/trades.json"
	}
	if c.Schedule.SummaryTime == "" {
		c.Schedule.SummaryTime = defaultSummaryTime
	}
	if c.Schedule.Timezone == "" {
		c.Schedule.Timezone = defaultTimezone
	}
	if c.Bot.WriteRetries <= 0 {
		c.Bot.WriteRetries = defaultWriteRetries
	}
}

// Validate checks that all configuration values are valid and consistent.
func (c *Config) Validate() error {
	switch c.Environment.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("environment.log_level must be one of debug, info, warn, error")
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be in (0, 65535]")
	}

	if c.Storage.Driver != "json" && c.Storage.Driver != "sqlite" {
		return fmt.Errorf("storage.driver must be 'json' or 'sqlite'")
	}
	if c.Storage.Path == "" {
		return fmt.Errorf("storage.path is required")
	}

	if _, _, err := c.SummaryClock(); err != nil {
		return err
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("schedule.timezone: %w", err)
	}

	if c.Analysis.Enabled && c.Analysis.APIKey == "" {
		return fmt.Errorf("analysis.api_key is required when analysis.enabled")
	}

	return nil
}

// SummaryClock parses schedule.summary_time into hour and minute.
func (c *Config) SummaryClock() (hour, minute int, err error) {
	parts := strings.SplitN(c.Schedule.SummaryTime, ":", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("schedule.summary_time must be \"HH:MM\", got %q", c.Schedule.SummaryTime)
	}
	hour, err = strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("schedule.summary_time hour out of range in %q", c.Schedule.SummaryTime)
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("schedule.summary_time minute out of range in %q", c.Schedule.SummaryTime)
	}
	return hour, minute, nil
}

// Location resolves schedule.timezone.
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Schedule.Timezone)
}
