// Package config provides configuration loading for drpcheck.
//
// Configuration is loaded from a YAML file, then overridden by
// environment variables, with hardcoded defaults underneath.
package config

import (
	"fmt"
	"time"
)

// Config holds the complete drpcheck configuration.
type Config struct {
	// RulesDir points at the directory of per-program rule overrides.
	// Empty means built-in rules only.
	RulesDir string `koanf:"rules_dir"`

	// Program is the default DRP program applied when an estimate does
	// not name one.
	Program string `koanf:"program"`

	Pipeline      PipelineConfig      `koanf:"pipeline"`
	Recommend     RecommendConfig     `koanf:"recommend"`
	Logging       LoggingConfig       `koanf:"logging"`
	Observability ObservabilityConfig `koanf:"observability"`
	Metrics       MetricsConfig       `koanf:"metrics"`
}

// PipelineConfig holds batch evaluation settings.
type PipelineConfig struct {
	// Workers bounds concurrent estimate evaluations in a batch.
	Workers int `koanf:"workers"`

	// EstimateTimeout bounds one estimate's full evaluation.
	EstimateTimeout Duration `koanf:"estimate_timeout"`

	// ShutdownTimeout bounds graceful drain on stop.
	ShutdownTimeout Duration `koanf:"shutdown_timeout"`
}

// RecommendConfig holds pattern source settings.
type RecommendConfig struct {
	SourceTimeout Duration `koanf:"source_timeout"`
	SourceRPS     float64  `koanf:"source_rps"`
	SourceBurst   int      `koanf:"source_burst"`
}

// LoggingConfig holds the logging settings surfaced in the main config
// file; the logging package expands them into its full configuration.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	OTEL   bool   `koanf:"otel"`
}

// ObservabilityConfig holds OpenTelemetry settings.
type ObservabilityConfig struct {
	Enabled     bool   `koanf:"enabled"`
	Endpoint    string `koanf:"endpoint"`
	Protocol    string `koanf:"protocol"`
	ServiceName string `koanf:"service_name"`
	Insecure    bool   `koanf:"insecure"`
}

// MetricsConfig holds the Prometheus exposition settings.
type MetricsConfig struct {
	Enabled bool   `koanf:"enabled"`
	Addr    string `koanf:"addr"`
}

// NewDefaultConfig returns the built-in defaults.
func NewDefaultConfig() *Config {
	return &Config{
		Program: "geico_arx",
		Pipeline: PipelineConfig{
			Workers:         8,
			EstimateTimeout: Duration(30 * time.Second),
			ShutdownTimeout: Duration(10 * time.Second),
		},
		Recommend: RecommendConfig{
			SourceTimeout: Duration(2 * time.Second),
			SourceRPS:     50,
			SourceBurst:   10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Observability: ObservabilityConfig{
			Enabled:     false,
			Endpoint:    "localhost:4317",
			Protocol:    "grpc",
			ServiceName: "drpcheck",
			Insecure:    true,
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Addr:    ":9090",
		},
	}
}

// applyDefaults fills zero values with defaults after unmarshal.
func applyDefaults(cfg *Config) {
	def := NewDefaultConfig()
	if cfg.Program == "" {
		cfg.Program = def.Program
	}
	if cfg.Pipeline.Workers == 0 {
		cfg.Pipeline.Workers = def.Pipeline.Workers
	}
	if cfg.Pipeline.EstimateTimeout == 0 {
		cfg.Pipeline.EstimateTimeout = def.Pipeline.EstimateTimeout
	}
	if cfg.Pipeline.ShutdownTimeout == 0 {
		cfg.Pipeline.ShutdownTimeout = def.Pipeline.ShutdownTimeout
	}
	if cfg.Recommend.SourceTimeout == 0 {
		cfg.Recommend.SourceTimeout = def.Recommend.SourceTimeout
	}
	if cfg.Recommend.SourceRPS == 0 {
		cfg.Recommend.SourceRPS = def.Recommend.SourceRPS
	}
	if cfg.Recommend.SourceBurst == 0 {
		cfg.Recommend.SourceBurst = def.Recommend.SourceBurst
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = def.Logging.Level
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = def.Logging.Format
	}
	if cfg.Observability.Endpoint == "" {
		cfg.Observability.Endpoint = def.Observability.Endpoint
	}
	if cfg.Observability.Protocol == "" {
		cfg.Observability.Protocol = def.Observability.Protocol
	}
	if cfg.Observability.ServiceName == "" {
		cfg.Observability.ServiceName = def.Observability.ServiceName
	}
	if cfg.Metrics.Addr == "" {
		cfg.Metrics.Addr = def.Metrics.Addr
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.Program == "" {
		return fmt.Errorf("program is required")
	}
	if c.Pipeline.Workers < 1 {
		return fmt.Errorf("pipeline.workers must be >= 1, got %d", c.Pipeline.Workers)
	}
	if c.Pipeline.EstimateTimeout.Duration() <= 0 {
		return fmt.Errorf("pipeline.estimate_timeout must be positive")
	}
	if c.Recommend.SourceTimeout.Duration() <= 0 {
		return fmt.Errorf("recommend.source_timeout must be positive")
	}
	if c.Recommend.SourceRPS <= 0 {
		return fmt.Errorf("recommend.source_rps must be positive")
	}
	if c.Logging.Format != "json" && c.Logging.Format != "console" {
		return fmt.Errorf("logging.format must be 'json' or 'console', got %q", c.Logging.Format)
	}
	return nil
}
