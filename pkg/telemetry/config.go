package telemetry

import "fmt"

// Config holds the telemetry configuration for all components.
type Config struct {
	// ServiceName identifies this service in logs and metrics.
	ServiceName string `json:"service_name" yaml:"service_name"`

	// Environment is the deployment environment (dev, staging, prod).
	Environment string `json:"environment" yaml:"environment"`

	// Logging configures the structured logger.
	Logging LoggingConfig `json:"logging" yaml:"logging"`

	// Metrics configures the Prometheus metrics endpoint.
	Metrics MetricsConfig `json:"metrics" yaml:"metrics"`

	// Events configures the event publisher.
	Events EventsConfig `json:"events" yaml:"events"`
}

// LoggingConfig configures the zerolog-backed logger.
type LoggingConfig struct {
	// Level is the minimum log level (trace, debug, info, warn, error).
	Level string `json:"level" yaml:"level"`

	// Format is "json" or "console".
	Format string `json:"format" yaml:"format"`

	// Output is "stdout", "stderr", or a file path.
	Output string `json:"output" yaml:"output"`

	// EnableCaller adds the calling file and line to each entry.
	EnableCaller bool `json:"enable_caller" yaml:"enable_caller"`
}

// MetricsConfig configures the Prometheus metrics endpoint.
type MetricsConfig struct {
	// Enabled turns metric collection on.
	Enabled bool `json:"enabled" yaml:"enabled"`

	// Namespace prefixes all metric names.
	Namespace string `json:"namespace" yaml:"namespace"`

	// ListenAddr is the address for the metrics HTTP server
	// (e.g. ":9090").
	ListenAddr string `json:"listen_addr" yaml:"listen_addr"`

	// Path is the HTTP path for the metrics handler.
	Path string `json:"path" yaml:"path"`
}

// EventsConfig configures the event publisher.
type EventsConfig struct {
	// BufferSize is the per-subscriber channel buffer.
	BufferSize int `json:"buffer_size" yaml:"buffer_size"`
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		ServiceName: "deckhand",
		Environment: "dev",
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stderr",
		},
		Metrics: MetricsConfig{
			Enabled:    true,
			Namespace:  "deckhand",
			ListenAddr: ":9090",
			Path:       "/metrics",
		},
		Events: EventsConfig{
			BufferSize: 64,
		},
	}
}

// Validate checks the configuration for obvious mistakes.
func (c *Config) Validate() error {
	if c.ServiceName == "" {
		return fmt.Errorf("service_name is required")
	}
	switch c.Logging.Level {
	case "", "trace", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid logging level: %s", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "", "json", "console":
	default:
		return fmt.Errorf("invalid logging format: %s", c.Logging.Format)
	}
	if c.Metrics.Enabled && c.Metrics.ListenAddr == "" {
		return fmt.Errorf("metrics listen_addr is required when metrics are enabled")
	}
	if c.Events.BufferSize < 0 {
		return fmt.Errorf("events buffer_size must be non-negative")
	}
	return nil
}
