package app

import (
	"bytes"
	"context"
	"errors"
	"io"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ludo-technologies/irscn/domain"
)

type mockBodyService struct {
	mock.Mock
}

func (m *mockBodyService) Process(ctx context.Context, files []string, req domain.InspectRequest) (*domain.InspectResponse, error) {
	args := m.Called(ctx, files, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.InspectResponse), args.Error(1)
}

func (m *mockBodyService) ProcessFile(ctx context.Context, file string, req domain.InspectRequest) (*domain.BodyReport, error) {
	args := m.Called(ctx, file, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BodyReport), args.Error(1)
}

type mockOutputFormatter struct {
	mock.Mock
}

func (m *mockOutputFormatter) Format(response *domain.InspectResponse, format domain.OutputFormat) (string, error) {
	args := m.Called(response, format)
	return args.String(0), args.Error(1)
}

func (m *mockOutputFormatter) Write(response *domain.InspectResponse, format domain.OutputFormat, writer io.Writer) error {
	args := m.Called(response, format, writer)
	if args.Error(0) == nil {
		_, _ = io.WriteString(writer, "report")
	}
	return args.Error(0)
}

type mockConfigurationLoader struct {
	mock.Mock
}

func (m *mockConfigurationLoader) LoadConfig(path string) (*domain.InspectRequest, error) {
	args := m.Called(path)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.InspectRequest), args.Error(1)
}

func (m *mockConfigurationLoader) LoadDefaultConfig() *domain.InspectRequest {
	args := m.Called()
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(*domain.InspectRequest)
}

func (m *mockConfigurationLoader) MergeConfig(base *domain.InspectRequest, override *domain.InspectRequest) *domain.InspectRequest {
	args := m.Called(base, override)
	return args.Get(0).(*domain.InspectRequest)
}

type mockReportWriter struct {
	mock.Mock
	buf bytes.Buffer
}

func (m *mockReportWriter) Write(writer io.Writer, outputPath string, format domain.OutputFormat, writeFunc func(io.Writer) error) error {
	args := m.Called(writer, outputPath, format)
	if err := args.Error(0); err != nil {
		return err
	}
	return writeFunc(&m.buf)
}

func setupInspectUseCase(t *testing.T) (*InspectUseCase, *mockBodyService, *MockFileReader, *mockOutputFormatter, *mockConfigurationLoader) {
	t.Helper()
	service := &mockBodyService{}
	fileReader := &MockFileReader{}
	formatter := &mockOutputFormatter{}
	configLoader := &mockConfigurationLoader{}

	uc, err := NewInspectUseCaseBuilder().
		WithService(service).
		WithFileReader(fileReader).
		WithFormatter(formatter).
		WithConfigLoader(configLoader).
		Build()
	require.NoError(t, err)
	return uc, service, fileReader, formatter, configLoader
}

func TestInspectUseCase_Execute(t *testing.T) {
	uc, service, fileReader, formatter, configLoader := setupInspectUseCase(t)

	var out bytes.Buffer
	req := domain.InspectRequest{
		Paths:        []string{"bodies"},
		OutputWriter: &out,
		Mode:         domain.ModeCheck,
	}
	config := &domain.InspectRequest{
		OutputFormat:    domain.OutputFormatText,
		Recursive:       true,
		IncludePatterns: []string{"**/*.yaml"},
		Interceptors:    []string{"ssa"},
	}
	merged := *config
	merged.Paths = req.Paths
	merged.OutputWriter = &out
	merged.Mode = domain.ModeCheck

	files := []string{"bodies/a.yaml", "bodies/b.yaml"}
	response := &domain.InspectResponse{Summary: domain.InspectSummary{FilesProcessed: 2}}

	configLoader.On("LoadDefaultConfig").Return(config)
	configLoader.On("MergeConfig", config, mock.AnythingOfType("*domain.InspectRequest")).Return(&merged)
	fileReader.On("IsManifestFile", "bodies").Return(false)
	fileReader.On("CollectBodyFiles", []string{"bodies"}, true, []string{"**/*.yaml"}, []string(nil)).Return(files, nil)
	service.On("Process", mock.Anything, files, mock.MatchedBy(func(r domain.InspectRequest) bool {
		return r.Mode == domain.ModeCheck && len(r.Interceptors) == 1 && len(r.Paths) == 2
	})).Return(response, nil)
	formatter.On("Write", response, domain.OutputFormatText, &out).Return(nil)

	got, err := uc.Execute(context.Background(), req)
	require.NoError(t, err)
	assert.Same(t, response, got)
	assert.Equal(t, "report", out.String())

	service.AssertExpectations(t)
	fileReader.AssertExpectations(t)
	formatter.AssertExpectations(t)
	configLoader.AssertExpectations(t)
}

func TestInspectUseCase_ExecuteToFile(t *testing.T) {
	service := &mockBodyService{}
	fileReader := &MockFileReader{}
	formatter := &mockOutputFormatter{}
	writer := &mockReportWriter{}

	uc, err := NewInspectUseCaseBuilder().
		WithService(service).
		WithFileReader(fileReader).
		WithFormatter(formatter).
		WithOutputWriter(writer).
		Build()
	require.NoError(t, err)

	req := domain.InspectRequest{
		Paths:        []string{"loop.yaml"},
		OutputPath:   "out/report.json",
		OutputFormat: domain.OutputFormatJSON,
	}
	response := &domain.InspectResponse{}

	fileReader.On("IsManifestFile", "loop.yaml").Return(true)
	fileReader.On("FileExists", "loop.yaml").Return(true, nil)
	service.On("Process", mock.Anything, []string{"loop.yaml"}, mock.Anything).Return(response, nil)
	writer.On("Write", nil, "out/report.json", domain.OutputFormatJSON).Return(nil)
	formatter.On("Write", response, domain.OutputFormatJSON, &writer.buf).Return(nil)

	_, err = uc.Execute(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "report", writer.buf.String())
	writer.AssertExpectations(t)
	fileReader.AssertNotCalled(t, "CollectBodyFiles")
}

func TestInspectUseCase_ExecuteToOutputDirectory(t *testing.T) {
	service := &mockBodyService{}
	fileReader := &MockFileReader{}
	formatter := &mockOutputFormatter{}
	writer := &mockReportWriter{}

	uc, err := NewInspectUseCaseBuilder().
		WithService(service).
		WithFileReader(fileReader).
		WithFormatter(formatter).
		WithOutputWriter(writer).
		Build()
	require.NoError(t, err)

	req := domain.InspectRequest{
		Paths:           []string{"loop.yaml"},
		OutputDirectory: "out",
		OutputPath:      "out/irscn_20260101_000000.txt",
		OutputFormat:    domain.OutputFormatYAML,
		OutputWriter:    &bytes.Buffer{},
	}
	response := &domain.InspectResponse{}

	fileReader.On("IsManifestFile", "loop.yaml").Return(true)
	fileReader.On("FileExists", "loop.yaml").Return(true, nil)
	service.On("Process", mock.Anything, []string{"loop.yaml"}, mock.Anything).Return(response, nil)
	writer.On("Write", nil, mock.MatchedBy(func(path string) bool {
		return regexp.MustCompile(`^out/irscn_\d{8}_\d{6}\.yaml$`).MatchString(path)
	}), domain.OutputFormatYAML).Return(nil)
	formatter.On("Write", response, domain.OutputFormatYAML, &writer.buf).Return(nil)

	_, err = uc.Execute(context.Background(), req)
	require.NoError(t, err)
	writer.AssertExpectations(t)
}

func TestInspectUseCase_ExecuteErrors(t *testing.T) {
	t.Run("no paths", func(t *testing.T) {
		uc, _, _, _, _ := setupInspectUseCase(t)
		_, err := uc.Execute(context.Background(), domain.InspectRequest{OutputWriter: &bytes.Buffer{}})
		require.Error(t, err)
		assert.Equal(t, domain.ErrCodeInvalidInput, domain.ErrorCode(err))
		assert.Contains(t, err.Error(), "no input paths specified")
	})

	t.Run("no output", func(t *testing.T) {
		uc, _, _, _, _ := setupInspectUseCase(t)
		_, err := uc.Execute(context.Background(), domain.InspectRequest{Paths: []string{"a.yaml"}})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "output writer or output path is required")
	})

	t.Run("bad mode", func(t *testing.T) {
		uc, _, _, _, _ := setupInspectUseCase(t)
		_, err := uc.Execute(context.Background(), domain.InspectRequest{Paths: []string{"a.yaml"}, OutputWriter: &bytes.Buffer{}, Mode: "graph"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unsupported mode: graph")
	})

	t.Run("config file", func(t *testing.T) {
		uc, _, _, _, configLoader := setupInspectUseCase(t)
		configLoader.On("LoadConfig", "missing.yaml").Return(nil, errors.New("no such file"))
		_, err := uc.Execute(context.Background(), domain.InspectRequest{
			Paths:        []string{"a.yaml"},
			OutputWriter: &bytes.Buffer{},
			ConfigPath:   "missing.yaml",
		})
		require.Error(t, err)
		assert.Equal(t, domain.ErrCodeConfigError, domain.ErrorCode(err))
		assert.Contains(t, err.Error(), "failed to load config from missing.yaml")
	})

	t.Run("no manifests", func(t *testing.T) {
		uc, _, fileReader, _, configLoader := setupInspectUseCase(t)
		configLoader.On("LoadDefaultConfig").Return(nil)
		fileReader.On("IsManifestFile", "empty").Return(false)
		fileReader.On("CollectBodyFiles", []string{"empty"}, false, []string(nil), []string(nil)).Return([]string{}, nil)

		_, err := uc.Execute(context.Background(), domain.InspectRequest{Paths: []string{"empty"}, OutputWriter: &bytes.Buffer{}})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no manifests found")
	})

	t.Run("unsupported format", func(t *testing.T) {
		uc, _, _, _, configLoader := setupInspectUseCase(t)
		configLoader.On("LoadDefaultConfig").Return(nil)
		_, err := uc.Execute(context.Background(), domain.InspectRequest{
			Paths:        []string{"a.yaml"},
			OutputWriter: &bytes.Buffer{},
			OutputFormat: "html",
		})
		require.Error(t, err)
		assert.Equal(t, domain.ErrCodeUnsupportedFormat, domain.ErrorCode(err))
	})

	t.Run("service failure", func(t *testing.T) {
		uc, service, fileReader, _, configLoader := setupInspectUseCase(t)
		configLoader.On("LoadDefaultConfig").Return(nil)
		fileReader.On("IsManifestFile", "a.yaml").Return(true)
		fileReader.On("FileExists", "a.yaml").Return(true, nil)
		service.On("Process", mock.Anything, []string{"a.yaml"}, mock.Anything).
			Return(nil, domain.NewProcessingError("body processing failed", context.DeadlineExceeded))

		_, err := uc.Execute(context.Background(), domain.InspectRequest{Paths: []string{"a.yaml"}, OutputWriter: &bytes.Buffer{}})
		require.Error(t, err)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})

	t.Run("write failure", func(t *testing.T) {
		uc, service, fileReader, formatter, configLoader := setupInspectUseCase(t)
		var out bytes.Buffer
		response := &domain.InspectResponse{}
		configLoader.On("LoadDefaultConfig").Return(nil)
		fileReader.On("IsManifestFile", "a.yaml").Return(true)
		fileReader.On("FileExists", "a.yaml").Return(true, nil)
		service.On("Process", mock.Anything, []string{"a.yaml"}, mock.Anything).Return(response, nil)
		formatter.On("Write", response, domain.OutputFormatText, &out).Return(errors.New("broken pipe"))

		_, err := uc.Execute(context.Background(), domain.InspectRequest{Paths: []string{"a.yaml"}, OutputWriter: &out})
		require.Error(t, err)
		assert.Equal(t, domain.ErrCodeOutputError, domain.ErrorCode(err))
		assert.Contains(t, err.Error(), "broken pipe")
	})
}

func TestInspectUseCaseBuilder(t *testing.T) {
	_, err := NewInspectUseCaseBuilder().Build()
	assert.EqualError(t, err, "body service is required")

	_, err = NewInspectUseCaseBuilder().WithService(&mockBodyService{}).Build()
	assert.EqualError(t, err, "file reader is required")

	_, err = NewInspectUseCaseBuilder().WithService(&mockBodyService{}).WithFileReader(&MockFileReader{}).Build()
	assert.EqualError(t, err, "output formatter is required")
}
