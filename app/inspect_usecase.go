package app

import (
	"context"
	"fmt"
	"io"

	"github.com/ludo-technologies/irscn/domain"
	"github.com/ludo-technologies/irscn/internal/config"
	svc "github.com/ludo-technologies/irscn/service"
)

// InspectUseCase orchestrates loading, transforming and reporting bodies
type InspectUseCase struct {
	service      domain.BodyService
	fileReader   domain.FileReader
	formatter    domain.OutputFormatter
	configLoader domain.ConfigurationLoader
	output       domain.ReportWriter
}

// NewInspectUseCase creates a new inspect use case writing reports through
// a FileOutputWriter
func NewInspectUseCase(
	service domain.BodyService,
	fileReader domain.FileReader,
	formatter domain.OutputFormatter,
	configLoader domain.ConfigurationLoader,
) *InspectUseCase {
	return &InspectUseCase{
		service:      service,
		fileReader:   fileReader,
		formatter:    formatter,
		configLoader: configLoader,
		output:       svc.NewFileOutputWriter(nil),
	}
}

// Execute runs the whole workflow and returns the response that was
// written, so callers can derive an exit status from it
func (uc *InspectUseCase) Execute(ctx context.Context, req domain.InspectRequest) (*domain.InspectResponse, error) {
	finalReq, files, err := uc.prepare(req)
	if err != nil {
		return nil, err
	}

	response, err := uc.service.Process(ctx, files, finalReq)
	if err != nil {
		return nil, err
	}

	// Delegate output handling to ReportWriter
	var out io.Writer
	if finalReq.OutputPath == "" {
		out = finalReq.OutputWriter
	}
	if err := uc.output.Write(out, finalReq.OutputPath, finalReq.OutputFormat, func(w io.Writer) error {
		return uc.formatter.Write(response, finalReq.OutputFormat, w)
	}); err != nil {
		return nil, domain.NewOutputError("failed to write output", err)
	}

	return response, nil
}

// prepare validates the request, lays it over the configuration and
// resolves the manifests to process
func (uc *InspectUseCase) prepare(req domain.InspectRequest) (domain.InspectRequest, []string, error) {
	if err := uc.validateRequest(req); err != nil {
		return req, nil, domain.NewInvalidInputError("invalid request", err)
	}

	finalReq, err := uc.loadAndMergeConfig(req)
	if err != nil {
		return req, nil, domain.NewConfigError("failed to load configuration", err)
	}

	format, err := domain.ParseOutputFormat(string(finalReq.OutputFormat))
	if err != nil {
		return req, nil, err
	}
	finalReq.OutputFormat = format
	if finalReq.OutputDirectory != "" && !finalReq.ExplicitFlags[config.FlagOutput] {
		// the report name follows the final format
		finalReq.OutputPath = svc.ReportPath(finalReq.OutputDirectory, format)
	}

	files, err := ResolveFilePaths(
		uc.fileReader,
		finalReq.Paths,
		finalReq.Recursive,
		finalReq.IncludePatterns,
		finalReq.ExcludePatterns,
	)
	if err != nil {
		return req, nil, domain.NewFileNotFoundError("failed to collect files", err)
	}

	if len(files) == 0 {
		return req, nil, domain.NewInvalidInputError("no manifests found in the specified paths", nil)
	}

	finalReq.Paths = files
	return finalReq, files, nil
}

// validateRequest validates the request before configuration is applied
func (uc *InspectUseCase) validateRequest(req domain.InspectRequest) error {
	if len(req.Paths) == 0 {
		return fmt.Errorf("no input paths specified")
	}

	if req.OutputWriter == nil && req.OutputPath == "" {
		return fmt.Errorf("output writer or output path is required")
	}

	if req.Mode != "" && !req.Mode.IsValid() {
		return fmt.Errorf("unsupported mode: %s", req.Mode)
	}

	if req.MaxConcurrency < 0 {
		return fmt.Errorf("max concurrency cannot be negative")
	}

	return nil
}

// loadAndMergeConfig loads configuration from file and merges with request
func (uc *InspectUseCase) loadAndMergeConfig(req domain.InspectRequest) (domain.InspectRequest, error) {
	if uc.configLoader == nil {
		return req, nil
	}

	var configReq *domain.InspectRequest
	var err error

	if req.ConfigPath != "" {
		configReq, err = uc.configLoader.LoadConfig(req.ConfigPath)
		if err != nil {
			return req, fmt.Errorf("failed to load config from %s: %w", req.ConfigPath, err)
		}
	} else {
		configReq = uc.configLoader.LoadDefaultConfig()
	}

	if configReq != nil {
		// explicitly set flags take precedence
		merged := uc.configLoader.MergeConfig(configReq, &req)
		return *merged, nil
	}

	return req, nil
}

// InspectUseCaseBuilder provides a builder pattern for creating InspectUseCase
type InspectUseCaseBuilder struct {
	service      domain.BodyService
	fileReader   domain.FileReader
	formatter    domain.OutputFormatter
	configLoader domain.ConfigurationLoader
	output       domain.ReportWriter
}

// NewInspectUseCaseBuilder creates a new builder
func NewInspectUseCaseBuilder() *InspectUseCaseBuilder {
	return &InspectUseCaseBuilder{}
}

// WithService sets the body service
func (b *InspectUseCaseBuilder) WithService(service domain.BodyService) *InspectUseCaseBuilder {
	b.service = service
	return b
}

// WithFileReader sets the file reader
func (b *InspectUseCaseBuilder) WithFileReader(fileReader domain.FileReader) *InspectUseCaseBuilder {
	b.fileReader = fileReader
	return b
}

// WithFormatter sets the output formatter
func (b *InspectUseCaseBuilder) WithFormatter(formatter domain.OutputFormatter) *InspectUseCaseBuilder {
	b.formatter = formatter
	return b
}

// WithConfigLoader sets the configuration loader. Without one the request
// is used as given.
func (b *InspectUseCaseBuilder) WithConfigLoader(configLoader domain.ConfigurationLoader) *InspectUseCaseBuilder {
	b.configLoader = configLoader
	return b
}

// WithOutputWriter sets the report writer
func (b *InspectUseCaseBuilder) WithOutputWriter(output domain.ReportWriter) *InspectUseCaseBuilder {
	b.output = output
	return b
}

// Build creates the InspectUseCase with the configured dependencies
func (b *InspectUseCaseBuilder) Build() (*InspectUseCase, error) {
	if b.service == nil {
		return nil, fmt.Errorf("body service is required")
	}
	if b.fileReader == nil {
		return nil, fmt.Errorf("file reader is required")
	}
	if b.formatter == nil {
		return nil, fmt.Errorf("output formatter is required")
	}

	uc := NewInspectUseCase(b.service, b.fileReader, b.formatter, b.configLoader)
	if b.output != nil {
		uc.output = b.output
	}
	return uc, nil
}
