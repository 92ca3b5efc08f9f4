// Package config loads and watches the Deckhand service configuration.
// Configuration is a single YAML file; a watcher can hot-reload it the
// same way policy files are reloaded elsewhere in the stack.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/deckhand-io/deckhand/pkg/telemetry"
)

// StoreConfig selects and tunes the record persistence backend.
type StoreConfig struct {
	// Backend is "memory" (document store only) or "sqlite" (durable
	// archive).
	Backend string `yaml:"backend" validate:"omitempty,oneof=memory sqlite"`

	// Path is the SQLite database file path. Required when Backend is
	// "sqlite".
	Path string `yaml:"path" validate:"required_if=Backend sqlite"`
}

// DedupeConfig tunes the deduplication engine.
type DedupeConfig struct {
	// StrictServerMatch requires IP agreement when both server records
	// carry an IP, instead of matching on either IP or name.
	StrictServerMatch bool `yaml:"strict_server_match"`
}

// ProvisioningConfig tunes the provisioning state machines.
type ProvisioningConfig struct {
	// PollInterval is the delay between status polls while monitoring.
	PollInterval time.Duration `yaml:"poll_interval" validate:"omitempty,min=100ms"`

	// SessionTTL is how long an idle terminal session is kept before the
	// manager prunes it.
	SessionTTL time.Duration `yaml:"session_ttl"`
}

// DockConfig declares one provider account connected at startup.
type DockConfig struct {
	// ID is the dock identifier; generated when empty.
	ID string `yaml:"id"`

	// OrgID is the owning organization.
	OrgID string `yaml:"org_id" validate:"required"`

	// Provider is the vendor name; it must match a registered driver.
	Provider string `yaml:"provider" validate:"required"`

	// Label is the operator-facing display name.
	Label string `yaml:"label"`

	// Enabled controls whether the dock participates in sync and listing.
	Enabled bool `yaml:"enabled"`
}

// Config is the top-level service configuration.
type Config struct {
	// Telemetry configures logging, metrics, and the event bus.
	Telemetry telemetry.Config `yaml:"telemetry"`

	// Store configures record persistence.
	Store StoreConfig `yaml:"store"`

	// Dedupe configures the deduplication engine.
	Dedupe DedupeConfig `yaml:"dedupe"`

	// Provisioning configures the provisioning machines.
	Provisioning ProvisioningConfig `yaml:"provisioning"`

	// Docks are the provider accounts connected at startup.
	Docks []DockConfig `yaml:"docks" validate:"dive"`
}

// Default returns the configuration used when no file is supplied.
func Default() *Config {
	return &Config{
		Telemetry: *telemetry.DefaultConfig(),
		Store:     StoreConfig{Backend: "memory"},
		Provisioning: ProvisioningConfig{
			PollInterval: 2 * time.Second,
			SessionTTL:   time.Hour,
		},
	}
}

// Load reads and validates a YAML configuration file. Missing sections
// fall back to defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse parses and validates YAML configuration bytes.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for structural problems.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if err := c.Telemetry.Validate(); err != nil {
		return fmt.Errorf("invalid telemetry config: %w", err)
	}
	if c.Provisioning.PollInterval <= 0 {
		c.Provisioning.PollInterval = 2 * time.Second
	}
	if c.Provisioning.SessionTTL <= 0 {
		c.Provisioning.SessionTTL = time.Hour
	}
	return nil
}
