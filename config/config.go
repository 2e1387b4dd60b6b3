// Package config contains runtime configuration for the browser session
// and shell.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Default configuration constants. See [Config] for field descriptions.
const (
	DefaultColor = true

	// DefaultLogLevel is the info level (see internal/util log levels).
	DefaultLogLevel = 2

	// DefaultOpenCommand launches a file with the desktop's default handler
	// when no per-type program is configured.
	DefaultOpenCommand = "xdg-open"
)

// Config contains runtime configuration values for the browser.
type Config struct {
	Color    bool // Whether prompt and listing output is colored (Default true)
	LogLevel int  // Log verbosity, 0 (trace) to 4 (error) (Default 2, info)

	// FileTypes maps file extensions to type tags, merged over the built-in
	// classification table. Ex. ".rst" -> "text"
	FileTypes map[string]string

	// ContainerTypes maps file extensions to container format keys.
	// Ex. ".7z" -> "7z"
	ContainerTypes map[string]string

	// Programs maps type tags to the external program used to open them.
	// An empty or missing entry falls back to DefaultOpenCommand.
	Programs map[string]string
}

// ConfigOverride uses pointer fields to distinguish between unset and zero
// values when loading partial configuration. See [Config] for field
// descriptions.
type ConfigOverride struct {
	Color          *bool             `yaml:"color,omitempty" json:"color,omitempty"`
	LogLevel       *int              `yaml:"log_level,omitempty" json:"log_level,omitempty"`
	FileTypes      map[string]string `yaml:"file_types,omitempty" json:"file_types,omitempty"`
	ContainerTypes map[string]string `yaml:"container_types,omitempty" json:"container_types,omitempty"`
	Programs       map[string]string `yaml:"programs,omitempty" json:"programs,omitempty"`
}

// NewDefaultConfig creates a new Config with all default values.
func NewDefaultConfig() *Config {
	return &Config{
		Color:          DefaultColor,
		LogLevel:       DefaultLogLevel,
		FileTypes:      map[string]string{},
		ContainerTypes: map[string]string{},
		Programs:       map[string]string{},
	}
}

// NewConfig creates a Config from defaults with the override applied.
// A nil override yields the defaults.
func NewConfig(override *ConfigOverride) *Config {
	cfg := NewDefaultConfig()
	if override != nil {
		cfg.Merge(override)
	}
	return cfg
}

// Merge applies non-nil values from override onto this Config. Map fields
// merge key-by-key so partial overrides preserve existing entries.
func (c *Config) Merge(override *ConfigOverride) {
	if override.Color != nil {
		c.Color = *override.Color
	}
	if override.LogLevel != nil {
		c.LogLevel = *override.LogLevel
	}
	for ext, typ := range override.FileTypes {
		c.FileTypes[ext] = typ
	}
	for ext, format := range override.ContainerTypes {
		c.ContainerTypes[ext] = format
	}
	for typ, prog := range override.Programs {
		c.Programs[typ] = prog
	}
}

// LoadConfigOverrideFile loads configuration overrides from a file without
// merging. Supports both YAML (.yaml, .yml) and JSON (.json) formats.
func LoadConfigOverrideFile(path string) (*ConfigOverride, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var override ConfigOverride

	// Determine format by file extension
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &override); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config file: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, &override); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config file: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown config file extension: %s", path)
	}

	return &override, nil
}

// NewConfigFromFile creates a new Config by merging file overrides with
// defaults.
func NewConfigFromFile(path string) (*Config, error) {
	override, err := LoadConfigOverrideFile(path)
	if err != nil {
		return nil, err
	}
	return NewConfig(override), nil
}
