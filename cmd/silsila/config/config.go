// Copyright (C) 2025 Silsila Project (maintainers@silsila.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package config loads the silsila CLI configuration from
// ~/.silsila/silsila.yaml, creating a default file on first run.
package config

import "path/filepath"

// SilsilaConfig is the on-disk configuration shape.
type SilsilaConfig struct {
	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
	Logging LoggingConfig `yaml:"logging"`
	Tracing TracingConfig `yaml:"tracing"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Port the API listens on.
	Port int `yaml:"port"`

	// GinMode is "debug", "release", or "test".
	GinMode string `yaml:"gin_mode"`

	// EnableMetrics exposes Prometheus metrics on /metrics.
	EnableMetrics bool `yaml:"enable_metrics"`
}

// StorageConfig holds BadgerDB settings.
type StorageConfig struct {
	// DataDir is the BadgerDB directory. Supports ~ expansion via the
	// logging package conventions. Empty means in-memory.
	DataDir string `yaml:"data_dir"`
}

// LoggingConfig holds log settings.
type LoggingConfig struct {
	// Level is debug, info, warn, or error.
	Level string `yaml:"level"`

	// Dir enables JSON file logging when non-empty.
	Dir string `yaml:"dir"`

	// JSON switches stderr output to JSON.
	JSON bool `yaml:"json"`
}

// TracingConfig holds OpenTelemetry settings.
type TracingConfig struct {
	// OTLPEndpoint is the collector gRPC endpoint. Empty disables
	// tracing.
	OTLPEndpoint string `yaml:"otlp_endpoint"`
}

// DefaultConfig returns the configuration written on first run.
func DefaultConfig() SilsilaConfig {
	return SilsilaConfig{
		Server: ServerConfig{
			Port:          12310,
			GinMode:       "release",
			EnableMetrics: true,
		},
		Storage: StorageConfig{
			DataDir: filepath.Join("~", ".silsila", "data"),
		},
		Logging: LoggingConfig{
			Level: "info",
			Dir:   filepath.Join("~", ".silsila", "logs"),
		},
		Tracing: TracingConfig{},
	}
}
