package service

import (
	"os"
	"time"

	"github.com/ludo-technologies/irscn/domain"
	"github.com/ludo-technologies/irscn/internal/config"
)

// ConfigurationLoaderImpl implements the ConfigurationLoader interface
type ConfigurationLoaderImpl struct{}

// NewConfigurationLoader creates a new configuration loader service
func NewConfigurationLoader() *ConfigurationLoaderImpl {
	return &ConfigurationLoaderImpl{}
}

// LoadConfig loads configuration from the specified path
func (c *ConfigurationLoaderImpl) LoadConfig(path string) (*domain.InspectRequest, error) {
	cfg, err := config.LoadConfig(path)
	if err != nil {
		return nil, domain.NewConfigError("failed to load configuration file", err)
	}
	return RequestFromConfig(cfg), nil
}

// LoadDefaultConfig loads a discovered configuration file, falling back to
// the built-in defaults when there is none or it cannot be loaded
func (c *ConfigurationLoaderImpl) LoadDefaultConfig() *domain.InspectRequest {
	if cfg, err := config.LoadConfig(""); err == nil {
		return RequestFromConfig(cfg)
	}
	return RequestFromConfig(config.DefaultConfig())
}

// MergeConfig lays the request over the configuration. Paths, writers,
// the mode and the timeout always come from override; other settings only
// when their flag is listed in override.ExplicitFlags.
func (c *ConfigurationLoaderImpl) MergeConfig(base *domain.InspectRequest, override *domain.InspectRequest) *domain.InspectRequest {
	if base == nil {
		return override
	}
	if override == nil {
		return base
	}

	ft := config.NewFlagTrackerWithFlags(override.ExplicitFlags)
	merged := *base

	if len(override.Paths) > 0 {
		merged.Paths = override.Paths
	}
	if override.OutputWriter != nil {
		merged.OutputWriter = override.OutputWriter
	}
	if override.ProgressWriter != nil {
		merged.ProgressWriter = override.ProgressWriter
	}
	if override.ConfigPath != "" {
		merged.ConfigPath = override.ConfigPath
	}
	if override.Mode != "" {
		merged.Mode = override.Mode
	}
	if override.Timeout > 0 {
		merged.Timeout = override.Timeout
	}
	merged.ExplicitFlags = override.ExplicitFlags

	merged.OutputFormat = domain.OutputFormat(ft.MergeString(string(base.OutputFormat), string(override.OutputFormat), config.FlagFormat))
	merged.OutputPath = ft.MergeString(base.OutputPath, override.OutputPath, config.FlagOutput)
	merged.ShowBlocks = ft.MergeBool(base.ShowBlocks, override.ShowBlocks, config.FlagShowBlocks)
	merged.ShowTraps = ft.MergeBool(base.ShowTraps, override.ShowTraps, config.FlagShowTraps)
	merged.Direction = ft.MergeString(base.Direction, override.Direction, config.FlagDirection)
	merged.MaxConcurrency = ft.MergeInt(base.MaxConcurrency, override.MaxConcurrency, config.FlagMaxConcurrency)
	merged.IncludePatterns = ft.MergeStringSlice(base.IncludePatterns, override.IncludePatterns, config.FlagInclude)
	merged.ExcludePatterns = ft.MergeStringSlice(base.ExcludePatterns, override.ExcludePatterns, config.FlagExclude)

	// An explicit empty interceptor list disables the configured chain
	if ft.WasSet(config.FlagInterceptors) {
		merged.Interceptors = override.Interceptors
	}

	return &merged
}

// RequestFromConfig converts internal config to a domain request writing
// to stdout
func RequestFromConfig(cfg *config.Config) *domain.InspectRequest {
	format, err := domain.ParseOutputFormat(cfg.Output.Format)
	if err != nil {
		format = domain.OutputFormatText
	}

	var outputPath string
	if cfg.Output.Directory != "" {
		outputPath = ReportPath(cfg.Output.Directory, format)
	}

	return &domain.InspectRequest{
		OutputFormat:    format,
		OutputPath:      outputPath,
		OutputDirectory: cfg.Output.Directory,
		OutputWriter:    os.Stdout,
		ShowBlocks:      cfg.Output.ShowBlocks,
		ShowTraps:       cfg.Output.ShowTraps,
		Interceptors:    append([]string(nil), cfg.Interceptors...),
		Direction:       cfg.Traversal.Direction,
		Mode:            domain.ModePrint,
		LowThreshold:    cfg.Complexity.LowThreshold,
		MediumThreshold: cfg.Complexity.MediumThreshold,
		Recursive:       cfg.Input.Recursive,
		IncludePatterns: cfg.Input.IncludePatterns,
		ExcludePatterns: cfg.Input.ExcludePatterns,
		MaxConcurrency:  cfg.Performance.MaxConcurrency,
		Timeout:         time.Duration(cfg.Performance.TimeoutSeconds) * time.Second,
	}
}
