package domain

import (
	"context"
	"io"
	"strings"
	"time"
)

// OutputFormat represents the supported output formats
type OutputFormat string

const (
	OutputFormatText    OutputFormat = "text"
	OutputFormatJSON    OutputFormat = "json"
	OutputFormatYAML    OutputFormat = "yaml"
	OutputFormatMsgpack OutputFormat = "msgpack"
)

// ParseOutputFormat validates a format name
func ParseOutputFormat(name string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(strings.TrimSpace(name))); f {
	case OutputFormatText, OutputFormatJSON, OutputFormatYAML, OutputFormatMsgpack:
		return f, nil
	case "":
		return OutputFormatText, nil
	}
	return "", NewUnsupportedFormatError(name)
}

// Mode selects what a report shows for each body
type Mode string

const (
	// ModePrint renders the whole body
	ModePrint Mode = "print"
	// ModeTraps renders the catch lines only
	ModeTraps Mode = "traps"
	// ModeOrder lists blocks in traversal order with their predecessors
	ModeOrder Mode = "order"
	// ModeCheck reports graph invariant violations
	ModeCheck Mode = "check"
)

// IsValid reports whether m is a known mode
func (m Mode) IsValid() bool {
	switch m {
	case ModePrint, ModeTraps, ModeOrder, ModeCheck:
		return true
	}
	return false
}

// InspectRequest represents a request to load, transform and report bodies
type InspectRequest struct {
	// Manifest files or directories to inspect
	Paths []string

	// Configuration. ExplicitFlags names the command line flags the user
	// set; only those override values from the configuration file.
	ConfigPath    string
	ExplicitFlags map[string]bool

	// Output configuration
	OutputFormat OutputFormat
	OutputPath   string // Path to save output file; empty writes to OutputWriter
	// OutputDirectory receives timestamped reports when no output path
	// was given explicitly
	OutputDirectory string
	OutputWriter    io.Writer
	ShowBlocks      bool
	ShowTraps       bool

	// Interceptors applied to every body, in order
	Interceptors []string

	// Direction is the block order used by order mode
	Direction string

	// Mode selects the report contents
	Mode Mode

	// Complexity risk thresholds
	LowThreshold    int
	MediumThreshold int

	// Discovery options
	Recursive       bool
	IncludePatterns []string
	ExcludePatterns []string

	// Performance options
	MaxConcurrency int
	Timeout        time.Duration

	// ProgressWriter receives progress bars when interactive
	ProgressWriter io.Writer
}

// BlockOrderEntry is one block of an order report
type BlockOrderEntry struct {
	Block        int    `json:"block" yaml:"block" msgpack:"block"`
	Head         string `json:"head" yaml:"head" msgpack:"head"`
	Predecessors []int  `json:"predecessors" yaml:"predecessors" msgpack:"predecessors"`
}

// HandlerEdge is an exceptional successor of a block
type HandlerEdge struct {
	Exception string `json:"exception" yaml:"exception" msgpack:"exception"`
	Handler   int    `json:"handler" yaml:"handler" msgpack:"handler"`
}

// BlockInfo is the structure of one block, in layout order. Unset branch
// slots are reported as -1.
type BlockInfo struct {
	ID           int           `json:"id" yaml:"id" msgpack:"id"`
	Stmts        []string      `json:"stmts" yaml:"stmts" msgpack:"stmts"`
	Successors   []int         `json:"successors" yaml:"successors" msgpack:"successors"`
	Predecessors []int         `json:"predecessors" yaml:"predecessors" msgpack:"predecessors"`
	Handlers     []HandlerEdge `json:"handlers,omitempty" yaml:"handlers,omitempty" msgpack:"handlers,omitempty"`
}

// BodyMetrics summarizes the shape of a body after interceptors ran
type BodyMetrics struct {
	Blocks            int    `json:"blocks" yaml:"blocks" msgpack:"blocks"`
	Stmts             int    `json:"stmts" yaml:"stmts" msgpack:"stmts"`
	Locals            int    `json:"locals" yaml:"locals" msgpack:"locals"`
	Traps             int    `json:"traps" yaml:"traps" msgpack:"traps"`
	Phis              int    `json:"phis" yaml:"phis" msgpack:"phis"`
	Complexity        int    `json:"complexity" yaml:"complexity" msgpack:"complexity"`
	RiskLevel         string `json:"risk_level" yaml:"risk_level" msgpack:"risk_level"`
	ReachableBlocks   int    `json:"reachable_blocks" yaml:"reachable_blocks" msgpack:"reachable_blocks"`
	UnreachableBlocks int    `json:"unreachable_blocks" yaml:"unreachable_blocks" msgpack:"unreachable_blocks"`
	UnreachableStmts  int    `json:"unreachable_stmts" yaml:"unreachable_stmts" msgpack:"unreachable_stmts"`
}

// BodyReport is the result for one manifest
type BodyReport struct {
	File      string      `json:"file" yaml:"file" msgpack:"file"`
	Signature string      `json:"signature,omitempty" yaml:"signature,omitempty" msgpack:"signature,omitempty"`
	Metrics   BodyMetrics `json:"metrics" yaml:"metrics" msgpack:"metrics"`

	// Text is the printed body in print mode
	Text string `json:"text,omitempty" yaml:"text,omitempty" msgpack:"text,omitempty"`

	// Blocks is the block structure in print mode
	Blocks []BlockInfo `json:"blocks,omitempty" yaml:"blocks,omitempty" msgpack:"blocks,omitempty"`

	// Traps holds the catch lines in traps mode
	Traps []string `json:"traps,omitempty" yaml:"traps,omitempty" msgpack:"traps,omitempty"`

	// Order holds the sorted blocks in order mode
	Order []BlockOrderEntry `json:"order,omitempty" yaml:"order,omitempty" msgpack:"order,omitempty"`

	// Violations holds graph invariant violations in check mode
	Violations []string `json:"violations,omitempty" yaml:"violations,omitempty" msgpack:"violations,omitempty"`

	// Error is set when the body could not be loaded or transformed
	Error string `json:"error,omitempty" yaml:"error,omitempty" msgpack:"error,omitempty"`
}

// Failed reports whether the body could not be processed
func (r *BodyReport) Failed() bool {
	return r.Error != ""
}

// InspectSummary represents aggregate statistics
type InspectSummary struct {
	FilesProcessed    int     `json:"files_processed" yaml:"files_processed" msgpack:"files_processed"`
	FailedFiles       int     `json:"failed_files" yaml:"failed_files" msgpack:"failed_files"`
	TotalBlocks       int     `json:"total_blocks" yaml:"total_blocks" msgpack:"total_blocks"`
	TotalStmts        int     `json:"total_stmts" yaml:"total_stmts" msgpack:"total_stmts"`
	TotalPhis         int     `json:"total_phis" yaml:"total_phis" msgpack:"total_phis"`
	TotalViolations   int     `json:"total_violations" yaml:"total_violations" msgpack:"total_violations"`
	AverageComplexity float64 `json:"average_complexity" yaml:"average_complexity" msgpack:"average_complexity"`
	MaxComplexity     int     `json:"max_complexity" yaml:"max_complexity" msgpack:"max_complexity"`
	HighRiskBodies    int     `json:"high_risk_bodies" yaml:"high_risk_bodies" msgpack:"high_risk_bodies"`
}

// InspectResponse represents the complete result of an inspection
type InspectResponse struct {
	Bodies  []BodyReport   `json:"bodies" yaml:"bodies" msgpack:"bodies"`
	Summary InspectSummary `json:"summary" yaml:"summary" msgpack:"summary"`

	// Settings the bodies were processed with
	Mode         Mode     `json:"mode" yaml:"mode" msgpack:"mode"`
	Interceptors []string `json:"interceptors" yaml:"interceptors" msgpack:"interceptors"`
	Direction    string   `json:"direction,omitempty" yaml:"direction,omitempty" msgpack:"direction,omitempty"`

	// Metadata
	GeneratedAt string `json:"generated_at" yaml:"generated_at" msgpack:"generated_at"`
	Version     string `json:"version" yaml:"version" msgpack:"version"`
}

// HasFindings reports whether any body failed or, in check mode, violated
// a graph invariant
func (r *InspectResponse) HasFindings() bool {
	return r.Summary.FailedFiles > 0 || r.Summary.TotalViolations > 0
}

// BodyService defines the core logic of loading and inspecting bodies
type BodyService interface {
	// Process inspects every manifest in files
	Process(ctx context.Context, files []string, req InspectRequest) (*InspectResponse, error)

	// ProcessFile inspects a single manifest
	ProcessFile(ctx context.Context, file string, req InspectRequest) (*BodyReport, error)
}

// FileReader defines the interface for collecting and reading manifests
type FileReader interface {
	// CollectBodyFiles finds manifests in the given paths
	CollectBodyFiles(paths []string, recursive bool, includePatterns, excludePatterns []string) ([]string, error)

	// ReadFile reads the content of a file
	ReadFile(path string) ([]byte, error)

	// IsManifestFile checks whether a file has a manifest extension
	IsManifestFile(path string) bool

	// FileExists checks if a file exists and returns an error if not
	FileExists(path string) (bool, error)
}

// OutputFormatter defines the interface for formatting inspection results
type OutputFormatter interface {
	// Format formats the response according to the specified format
	Format(response *InspectResponse, format OutputFormat) (string, error)

	// Write writes the formatted output to the writer
	Write(response *InspectResponse, format OutputFormat, writer io.Writer) error
}

// ConfigurationLoader defines the interface for loading configuration
type ConfigurationLoader interface {
	// LoadConfig loads configuration from the specified path
	LoadConfig(path string) (*InspectRequest, error)

	// LoadDefaultConfig loads the discovered or built-in configuration
	LoadDefaultConfig() *InspectRequest

	// MergeConfig merges explicitly set request values over base
	MergeConfig(base *InspectRequest, override *InspectRequest) *InspectRequest
}
