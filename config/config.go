// Package config provides configuration loading and management for Semforge.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"gopkg.in/yaml.v3"
)

// Config represents the complete Semforge configuration
type Config struct {
	Artifacts ArtifactsConfig `yaml:"artifacts"`
	Templates TemplatesConfig `yaml:"templates"`
	Migration MigrationConfig `yaml:"migration"`
	Log       LogConfig       `yaml:"log"`
}

// ArtifactsConfig configures where the planning artifacts live
type ArtifactsConfig struct {
	// Dir is the directory holding the planning artifact files
	Dir string `yaml:"dir"`
}

// TemplatesConfig configures the mothership template source
type TemplatesConfig struct {
	// Root is the template root directory (empty = must be passed by flag)
	Root string `yaml:"root"`
}

// MigrationConfig configures the migration approval gate
type MigrationConfig struct {
	// Approvers are the names whose sign-off a migration preview requires
	Approvers []string `yaml:"approvers"`
}

// LogConfig configures CLI logging
type LogConfig struct {
	// Level is the slog level (debug, info, warn, error)
	Level string `yaml:"level"`
}

var logLevels = []string{"debug", "info", "warn", "error"}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Artifacts: ArtifactsConfig{
			Dir: "artifacts",
		},
		Templates: TemplatesConfig{
			Root: "", // Passed by flag
		},
		Migration: MigrationConfig{
			Approvers: nil, // No required sign-off
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if c.Artifacts.Dir == "" {
		return fmt.Errorf("artifacts.dir is required")
	}
	if !slices.Contains(logLevels, c.Log.Level) {
		return fmt.Errorf("log.level must be one of debug, info, warn, error (got %q)", c.Log.Level)
	}
	return nil
}

// LoadFromFile loads configuration from a YAML file
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveToFile saves configuration to a YAML file
func (c *Config) SaveToFile(path string) error {
	// Ensure parent directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Merge merges another config into this one (other takes precedence for non-zero values)
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	if other.Artifacts.Dir != "" {
		c.Artifacts.Dir = other.Artifacts.Dir
	}

	if other.Templates.Root != "" {
		c.Templates.Root = other.Templates.Root
	}

	if len(other.Migration.Approvers) > 0 {
		c.Migration.Approvers = other.Migration.Approvers
	}

	if other.Log.Level != "" {
		c.Log.Level = other.Log.Level
	}
}
