// Package config provides configuration loading for ctxlab.
//
// Configuration is loaded from an optional YAML file at the repository root
// (.ctxlab.yaml by default), then overridden by CTXLAB_-prefixed environment
// variables. Every value has a working default so a bare checkout needs no
// config file at all.
package config

import (
	"fmt"
)

// Config holds the complete ctxlab configuration.
type Config struct {
	Paths     PathsConfig     `koanf:"paths"`
	Snapshot  SnapshotConfig  `koanf:"snapshot"`
	Restore   RestoreConfig   `koanf:"restore"`
	Baseline  BaselineConfig  `koanf:"baseline"`
	Scrub     ScrubConfig     `koanf:"scrub"`
	Logging   LoggingConfig   `koanf:"logging"`
	Telemetry TelemetryConfig `koanf:"telemetry"`
}

// PathsConfig holds workspace-relative directory locations.
type PathsConfig struct {
	// MemoryDir is scanned for *.sqlite context databases.
	MemoryDir string `koanf:"memory_dir"`
	// ExamplesDir is searched for snapshot environment inputs.
	ExamplesDir string `koanf:"examples_dir"`
	// OutBase is the parent of default timestamped run directories.
	OutBase string `koanf:"out_base"`
}

// SnapshotConfig holds snapshot step configuration.
type SnapshotConfig struct {
	// Command is the snapshot executable path, relative to the repo root.
	Command string `koanf:"command"`
	// EnvPrefix selects environment input files in the examples directory.
	EnvPrefix string `koanf:"env_prefix"`
}

// RestoreConfig holds context-restore scan limits.
type RestoreConfig struct {
	RowsPerTable int `koanf:"rows_per_table"`
	MaxMatches   int `koanf:"max_matches"`
}

// BaselineConfig holds the baseline gate commands and smoke conditions.
type BaselineConfig struct {
	ValidateCommand []string `koanf:"validate_command"`
	TestCommand     []string `koanf:"test_command"`
	SmokeCommand    []string `koanf:"smoke_command"`
	// CIConfig is the CI workflow file whose presence enables smoke.
	CIConfig string `koanf:"ci_config"`
	// SmokeScript is the package.json scripts key that enables smoke.
	SmokeScript string `koanf:"smoke_script"`
}

// ScrubConfig controls secret redaction of persisted gate logs.
type ScrubConfig struct {
	Enabled bool `koanf:"enabled"`
}

// LoggingConfig holds the log level and format as strings; the logging
// package parses them into its own config.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// TelemetryConfig holds OTEL export settings. Disabled by default; a lab
// runner cannot assume a collector is listening.
type TelemetryConfig struct {
	Enabled  bool   `koanf:"enabled"`
	Endpoint string `koanf:"endpoint"`
	// Protocol is "grpc" or "http/protobuf".
	Protocol string `koanf:"protocol"`
	Insecure bool   `koanf:"insecure"`
}

// applyDefaults fills in zero values after file/env loading.
func applyDefaults(cfg *Config) {
	if cfg.Paths.MemoryDir == "" {
		cfg.Paths.MemoryDir = "memory"
	}
	if cfg.Paths.ExamplesDir == "" {
		cfg.Paths.ExamplesDir = "examples"
	}
	if cfg.Paths.OutBase == "" {
		cfg.Paths.OutBase = "lab/init_runs"
	}

	if cfg.Snapshot.Command == "" {
		cfg.Snapshot.Command = "skills/env-snapshot/bin/snapshot"
	}
	if cfg.Snapshot.EnvPrefix == "" {
		cfg.Snapshot.EnvPrefix = "env_"
	}

	if cfg.Restore.RowsPerTable == 0 {
		cfg.Restore.RowsPerTable = 25
	}
	if cfg.Restore.MaxMatches == 0 {
		cfg.Restore.MaxMatches = 50
	}

	if len(cfg.Baseline.ValidateCommand) == 0 {
		cfg.Baseline.ValidateCommand = []string{"npm", "run", "validate"}
	}
	if len(cfg.Baseline.TestCommand) == 0 {
		cfg.Baseline.TestCommand = []string{"npm", "test"}
	}
	if len(cfg.Baseline.SmokeCommand) == 0 {
		cfg.Baseline.SmokeCommand = []string{"npm", "run", "smoke"}
	}
	if cfg.Baseline.CIConfig == "" {
		cfg.Baseline.CIConfig = ".github/workflows/ci.yml"
	}
	if cfg.Baseline.SmokeScript == "" {
		cfg.Baseline.SmokeScript = "smoke"
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "console"
	}

	if cfg.Telemetry.Endpoint == "" {
		cfg.Telemetry.Endpoint = "localhost:4317"
	}
	if cfg.Telemetry.Protocol == "" {
		cfg.Telemetry.Protocol = "grpc"
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Restore.RowsPerTable < 1 {
		return fmt.Errorf("restore.rows_per_table must be positive, got %d", c.Restore.RowsPerTable)
	}
	if c.Restore.MaxMatches < 1 {
		return fmt.Errorf("restore.max_matches must be positive, got %d", c.Restore.MaxMatches)
	}

	for name, command := range map[string][]string{
		"baseline.validate_command": c.Baseline.ValidateCommand,
		"baseline.test_command":     c.Baseline.TestCommand,
		"baseline.smoke_command":    c.Baseline.SmokeCommand,
	} {
		if len(command) == 0 || command[0] == "" {
			return fmt.Errorf("%s cannot be empty", name)
		}
	}

	switch c.Logging.Level {
	case "trace", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be one of trace|debug|info|warn|error, got %q", c.Logging.Level)
	}
	if c.Logging.Format != "console" && c.Logging.Format != "json" {
		return fmt.Errorf("logging.format must be 'console' or 'json', got %q", c.Logging.Format)
	}

	if c.Telemetry.Enabled {
		if c.Telemetry.Endpoint == "" {
			return fmt.Errorf("telemetry.endpoint is required when telemetry is enabled")
		}
		if c.Telemetry.Protocol != "grpc" && c.Telemetry.Protocol != "http/protobuf" {
			return fmt.Errorf("telemetry.protocol must be 'grpc' or 'http/protobuf', got %q", c.Telemetry.Protocol)
		}
	}

	return nil
}
