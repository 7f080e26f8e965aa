package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sprinkler-go/sprinkler-go/pkg/actuator"
	"github.com/sprinkler-go/sprinkler-go/pkg/controller"
	"github.com/sprinkler-go/sprinkler-go/pkg/discovery"
	"github.com/sprinkler-go/sprinkler-go/pkg/schedule"
	"github.com/sprinkler-go/sprinkler-go/pkg/zone"
)

// Config holds the daemon configuration.
type Config struct {
	ConfigFile string `yaml:"-"`

	Zones          int           `yaml:"zones"`
	Logic          string        `yaml:"logic"`
	InterZoneDelay time.Duration `yaml:"toggle_delay"`
	Adjustment     int           `yaml:"adjustment"`
	TickInterval   time.Duration `yaml:"tick_interval"`
	Timezone       string        `yaml:"timezone"`

	StateFile   string `yaml:"state_file"`
	EventLog    string `yaml:"event_log"`
	HistoryDB   string `yaml:"history_db"`
	HistoryDays int    `yaml:"history_days"`

	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	Instance string `yaml:"instance"`
	NoMDNS   bool   `yaml:"no_mdns"`

	LogLevel    string `yaml:"log_level"`
	Interactive bool   `yaml:"interactive"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() Config {
	return Config{
		Zones:          controller.DefaultZoneCount,
		Logic:          actuator.LogicNormal.String(),
		InterZoneDelay: schedule.DefaultInterZoneDelay,
		Adjustment:     schedule.DefaultAdjustment,
		TickInterval:   controller.DefaultTickInterval,
		StateFile:      "sprinkler-state.json",
		EventLog:       "sprinkler-events.cbor",
		HistoryDB:      "sprinkler-history.db",
		HistoryDays:    90,
		Port:           discovery.DefaultPort,
		Name:           "sprinkler",
		LogLevel:       "info",
	}
}

// LoadConfigFile overlays the YAML file at path onto cfg.
func LoadConfigFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	return nil
}

// Validate checks the configuration ranges.
func (c *Config) Validate() error {
	if c.Zones < 1 || c.Zones > zone.MaxZones {
		return fmt.Errorf("zones must be 1-%d, got %d", zone.MaxZones, c.Zones)
	}
	if _, err := actuator.ParseLogic(c.Logic); err != nil {
		return err
	}
	if c.InterZoneDelay <= 0 {
		return fmt.Errorf("toggle delay must be positive, got %v", c.InterZoneDelay)
	}
	if c.Adjustment < controller.MinAdjustment || c.Adjustment > controller.MaxAdjustment {
		return fmt.Errorf("adjustment must be %d-%d, got %d",
			controller.MinAdjustment, controller.MaxAdjustment, c.Adjustment)
	}
	if c.TickInterval <= 0 {
		return fmt.Errorf("tick interval must be positive, got %v", c.TickInterval)
	}
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("port must be 0-65535, got %d", c.Port)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// Location returns the configured time zone, local time when unset.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// InstanceName returns the mDNS instance name.
func (c *Config) InstanceName() string {
	if c.Instance != "" {
		return c.Instance
	}
	host, err := os.Hostname()
	if err != nil || host == "" {
		return c.Name
	}
	return c.Name + "-" + strings.Split(host, ".")[0]
}

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("invalid log level %q", s)
	}
}
