package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// IrscnTomlConfig represents the structure of .irscn.toml
type IrscnTomlConfig struct {
	Output       IrscnTomlOutputConfig      `toml:"output"`
	Interceptors []string                   `toml:"interceptors"`
	Traversal    TraversalConfig            `toml:"traversal"`
	Complexity   ComplexityConfig           `toml:"complexity"`
	Input        IrscnTomlInputConfig       `toml:"input"`
	Performance  IrscnTomlPerformanceConfig `toml:"performance"`
}

type IrscnTomlOutputConfig struct {
	Format     string `toml:"format"`
	Directory  string `toml:"directory"`
	ShowBlocks *bool  `toml:"show_blocks"` // pointer to detect unset
	ShowTraps  *bool  `toml:"show_traps"`  // pointer to detect unset
}

type IrscnTomlInputConfig struct {
	IncludePatterns []string `toml:"include_patterns"`
	ExcludePatterns []string `toml:"exclude_patterns"`
	Recursive       *bool    `toml:"recursive"` // pointer to detect unset
}

type IrscnTomlPerformanceConfig struct {
	MaxConcurrency *int `toml:"max_concurrency"` // 0 is meaningful
	TimeoutSeconds *int `toml:"timeout_seconds"`
}

// TomlConfigLoader handles TOML-only configuration loading
type TomlConfigLoader struct{}

// NewTomlConfigLoader creates a new TOML configuration loader
func NewTomlConfigLoader() *TomlConfigLoader {
	return &TomlConfigLoader{}
}

// LoadFile reads a TOML config file and merges it over the defaults
func (l *TomlConfigLoader) LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	return l.Load(data)
}

// Load parses TOML config data and merges it over the defaults
func (l *TomlConfigLoader) Load(data []byte) (*Config, error) {
	var tomlConfig IrscnTomlConfig
	if err := toml.Unmarshal(data, &tomlConfig); err != nil {
		return nil, fmt.Errorf("failed to parse TOML config: %w", err)
	}

	config := DefaultConfig()
	l.merge(config, &tomlConfig)
	return config, nil
}

// merge copies set values from the TOML document into defaults
func (l *TomlConfigLoader) merge(defaults *Config, t *IrscnTomlConfig) {
	// Output config
	if t.Output.Format != "" {
		defaults.Output.Format = t.Output.Format
	}
	if t.Output.Directory != "" {
		defaults.Output.Directory = t.Output.Directory
	}
	if t.Output.ShowBlocks != nil {
		defaults.Output.ShowBlocks = *t.Output.ShowBlocks
	}
	if t.Output.ShowTraps != nil {
		defaults.Output.ShowTraps = *t.Output.ShowTraps
	}

	if t.Interceptors != nil {
		defaults.Interceptors = t.Interceptors
	}

	if t.Traversal.Direction != "" {
		defaults.Traversal.Direction = t.Traversal.Direction
	}

	if t.Complexity.LowThreshold > 0 {
		defaults.Complexity.LowThreshold = t.Complexity.LowThreshold
	}
	if t.Complexity.MediumThreshold > 0 {
		defaults.Complexity.MediumThreshold = t.Complexity.MediumThreshold
	}

	// Input config
	if len(t.Input.IncludePatterns) > 0 {
		defaults.Input.IncludePatterns = t.Input.IncludePatterns
	}
	if len(t.Input.ExcludePatterns) > 0 {
		defaults.Input.ExcludePatterns = t.Input.ExcludePatterns
	}
	if t.Input.Recursive != nil {
		defaults.Input.Recursive = *t.Input.Recursive
	}

	if t.Performance.MaxConcurrency != nil {
		defaults.Performance.MaxConcurrency = *t.Performance.MaxConcurrency
	}
	if t.Performance.TimeoutSeconds != nil {
		defaults.Performance.TimeoutSeconds = *t.Performance.TimeoutSeconds
	}
}
