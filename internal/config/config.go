package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Default complexity thresholds based on McCabe complexity standards
const (
	// DefaultLowComplexityThreshold defines the upper bound for low complexity bodies
	DefaultLowComplexityThreshold = 9

	// DefaultMediumComplexityThreshold defines the upper bound for medium complexity bodies
	DefaultMediumComplexityThreshold = 19
)

// Default output and traversal settings
const (
	DefaultOutputFormat = "text"
	DefaultDirection    = "reverse-post-order-forward"
)

// Default performance settings
const (
	// DefaultMaxConcurrency bounds the bodies processed at once; 0 means no limit
	DefaultMaxConcurrency = 0

	// DefaultTimeoutSeconds bounds a whole run
	DefaultTimeoutSeconds = 300
)

// Interceptor names accepted in the interceptors list
const (
	InterceptorNopEliminator   = "nop-eliminator"
	InterceptorUnreachableCode = "unreachable-code-eliminator"
	InterceptorSSA             = "ssa"
)

// Config represents the main configuration structure
type Config struct {
	// Output holds output formatting configuration
	Output OutputConfig `mapstructure:"output" yaml:"output"`

	// Interceptors is the ordered list of body transformations to apply
	Interceptors []string `mapstructure:"interceptors" yaml:"interceptors"`

	// Traversal holds block ordering configuration
	Traversal TraversalConfig `mapstructure:"traversal" yaml:"traversal"`

	// Complexity holds complexity analysis configuration
	Complexity ComplexityConfig `mapstructure:"complexity" yaml:"complexity"`

	// Input holds manifest discovery configuration
	Input InputConfig `mapstructure:"input" yaml:"input"`

	// Performance holds concurrency configuration
	Performance PerformanceConfig `mapstructure:"performance" yaml:"performance"`
}

// OutputConfig holds configuration for output formatting
type OutputConfig struct {
	// Format specifies the output format: text, json, yaml, msgpack
	Format string `mapstructure:"format" yaml:"format"`

	// Directory is where report files are written; empty writes to stdout
	Directory string `mapstructure:"directory" yaml:"directory"`

	// ShowBlocks adds block markers to printed bodies
	ShowBlocks bool `mapstructure:"show_blocks" yaml:"show_blocks"`

	// ShowTraps controls whether catch lines are printed
	ShowTraps bool `mapstructure:"show_traps" yaml:"show_traps"`
}

// TraversalConfig holds block ordering configuration
type TraversalConfig struct {
	// Direction is post-order-backward or reverse-post-order-forward
	Direction string `mapstructure:"direction" yaml:"direction" toml:"direction"`
}

// ComplexityConfig holds configuration for cyclomatic complexity analysis
type ComplexityConfig struct {
	// LowThreshold is the upper bound for low complexity (inclusive)
	LowThreshold int `mapstructure:"low_threshold" yaml:"low_threshold" toml:"low_threshold"`

	// MediumThreshold is the upper bound for medium complexity (inclusive)
	// Values above this are considered high complexity
	MediumThreshold int `mapstructure:"medium_threshold" yaml:"medium_threshold" toml:"medium_threshold"`
}

// InputConfig holds manifest discovery configuration
type InputConfig struct {
	// IncludePatterns specifies doublestar patterns of manifests to include
	IncludePatterns []string `mapstructure:"include_patterns" yaml:"include_patterns"`

	// ExcludePatterns specifies doublestar patterns to exclude
	ExcludePatterns []string `mapstructure:"exclude_patterns" yaml:"exclude_patterns"`

	// Recursive controls whether directories are walked recursively
	Recursive bool `mapstructure:"recursive" yaml:"recursive"`
}

// PerformanceConfig holds concurrency configuration
type PerformanceConfig struct {
	MaxConcurrency int `mapstructure:"max_concurrency" yaml:"max_concurrency"`
	TimeoutSeconds int `mapstructure:"timeout_seconds" yaml:"timeout_seconds"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Output: OutputConfig{
			Format:     DefaultOutputFormat,
			ShowBlocks: false,
			ShowTraps:  true,
		},
		Interceptors: []string{},
		Traversal: TraversalConfig{
			Direction: DefaultDirection,
		},
		Complexity: ComplexityConfig{
			LowThreshold:    DefaultLowComplexityThreshold,
			MediumThreshold: DefaultMediumComplexityThreshold,
		},
		Input: InputConfig{
			IncludePatterns: []string{"**/*.yaml", "**/*.yml", "**/*.toml", "**/*.json"},
			ExcludePatterns: []string{"**/irscn.yaml", "**/irscn.yml", "**/irscn.toml"},
			Recursive:       true,
		},
		Performance: PerformanceConfig{
			MaxConcurrency: DefaultMaxConcurrency,
			TimeoutSeconds: DefaultTimeoutSeconds,
		},
	}
}

// LoadConfig loads configuration from file or returns default config
func LoadConfig(configPath string) (*Config, error) {
	config := DefaultConfig()

	// If no config path specified, try to find default config files
	if configPath == "" {
		configPath = findDefaultConfig()
	}

	// If still no config found, return default
	if configPath == "" {
		return config, nil
	}

	if strings.EqualFold(filepath.Ext(configPath), ".toml") {
		loaded, err := NewTomlConfigLoader().LoadFile(configPath)
		if err != nil {
			return nil, err
		}
		if err := loaded.Validate(); err != nil {
			return nil, fmt.Errorf("invalid configuration: %w", err)
		}
		return loaded, nil
	}

	v := viper.New()
	v.SetConfigFile(configPath)

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
	}

	// Unmarshal into config struct
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Validate configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// findDefaultConfig looks for default configuration files in common locations
func findDefaultConfig() string {
	candidates := []string{
		".irscn.yaml",
		".irscn.yml",
		"irscn.yaml",
		".irscn.toml",
	}

	// Check current directory first
	for _, candidate := range candidates {
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}

	// Check home directory
	if home, err := os.UserHomeDir(); err == nil {
		for _, candidate := range candidates {
			path := filepath.Join(home, candidate)
			if _, err := os.Stat(path); err == nil {
				return path
			}
		}
	}

	return ""
}

// Validate validates the configuration values
func (c *Config) Validate() error {
	validFormats := map[string]bool{
		"text":    true,
		"json":    true,
		"yaml":    true,
		"msgpack": true,
	}
	if !validFormats[c.Output.Format] {
		return fmt.Errorf("invalid output.format '%s', must be one of: text, json, yaml, msgpack", c.Output.Format)
	}

	validInterceptors := map[string]bool{
		InterceptorNopEliminator:   true,
		InterceptorUnreachableCode: true,
		InterceptorSSA:             true,
	}
	for _, name := range c.Interceptors {
		if !validInterceptors[name] {
			return fmt.Errorf("unknown interceptor '%s', must be one of: %s, %s, %s",
				name, InterceptorNopEliminator, InterceptorUnreachableCode, InterceptorSSA)
		}
	}

	switch c.Traversal.Direction {
	case "post-order-backward", "reverse-post-order-forward", "backward", "forward":
	default:
		return fmt.Errorf("invalid traversal.direction '%s'", c.Traversal.Direction)
	}

	if c.Complexity.LowThreshold < 1 {
		return fmt.Errorf("complexity.low_threshold must be >= 1, got %d", c.Complexity.LowThreshold)
	}
	if c.Complexity.MediumThreshold <= c.Complexity.LowThreshold {
		return fmt.Errorf("complexity.medium_threshold (%d) must be > low_threshold (%d)",
			c.Complexity.MediumThreshold, c.Complexity.LowThreshold)
	}

	if len(c.Input.IncludePatterns) == 0 {
		return fmt.Errorf("input.include_patterns cannot be empty")
	}

	if c.Performance.MaxConcurrency < 0 {
		return fmt.Errorf("performance.max_concurrency must be >= 0, got %d", c.Performance.MaxConcurrency)
	}
	if c.Performance.TimeoutSeconds < 0 {
		return fmt.Errorf("performance.timeout_seconds must be >= 0, got %d", c.Performance.TimeoutSeconds)
	}

	return nil
}

// AssessRiskLevel determines risk level based on complexity and thresholds
func (c *ComplexityConfig) AssessRiskLevel(complexity int) string {
	if complexity <= c.LowThreshold {
		return "low"
	} else if complexity <= c.MediumThreshold {
		return "medium"
	}
	return "high"
}

// SaveConfig saves configuration to a YAML file
func SaveConfig(config *Config, path string) error {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	// Set all config values in viper
	v.Set("output", config.Output)
	v.Set("interceptors", config.Interceptors)
	v.Set("traversal", config.Traversal)
	v.Set("complexity", config.Complexity)
	v.Set("input", config.Input)
	v.Set("performance", config.Performance)

	return v.WriteConfig()
}
