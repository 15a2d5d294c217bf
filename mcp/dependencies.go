package mcp

import (
	"context"

	"github.com/ludo-technologies/irscn/app"
	"github.com/ludo-technologies/irscn/domain"
	"github.com/ludo-technologies/irscn/internal/config"
	"github.com/ludo-technologies/irscn/service"
)

// Dependencies aggregates the shared services required by MCP handlers.
type Dependencies struct {
	fileReader domain.FileReader
	config     *config.Config
	configPath string
}

// NewDependencies constructs the dependency set with sane defaults.
func NewDependencies(cfg *config.Config, configPath string) *Dependencies {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	return &Dependencies{
		fileReader: service.NewFileReader(),
		config:     cfg,
		configPath: configPath,
	}
}

// Config exposes the loaded configuration snapshot.
func (d *Dependencies) Config() *config.Config {
	if d.config == nil {
		return config.DefaultConfig()
	}
	return d.config
}

// ConfigPath returns the configured config file path (may be empty to trigger discovery).
func (d *Dependencies) ConfigPath() string {
	return d.configPath
}

// FileReader returns the reader used to discover manifests.
func (d *Dependencies) FileReader() domain.FileReader {
	return d.fileReader
}

// Prefetch decodes the manifests in parallel so each tool call reads every
// file once.
func (d *Dependencies) Prefetch(ctx context.Context, files []string) *service.BodyCache {
	return service.PopulateBodyCache(ctx, files, d.Config().Performance.MaxConcurrency)
}

// BuildInspectUseCase assembles a fresh InspectUseCase whose body service
// reads manifests from cache. Reports are written to the request's writer.
func (d *Dependencies) BuildInspectUseCase(cache *service.BodyCache) (*app.InspectUseCase, error) {
	bodyService := service.NewBodyService()
	if cache != nil {
		bodyService.SetBodyCache(cache)
	}

	return app.NewInspectUseCaseBuilder().
		WithService(bodyService).
		WithFileReader(d.fileReader).
		WithFormatter(service.NewOutputFormatter()).
		WithConfigLoader(service.NewConfigurationLoader()).
		WithOutputWriter(service.NewFileOutputWriter(nil)).
		Build()
}
