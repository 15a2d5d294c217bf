package mcp

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ludo-technologies/irscn/app"
	"github.com/ludo-technologies/irscn/domain"
	"github.com/ludo-technologies/irscn/internal/config"
	"github.com/ludo-technologies/irscn/internal/interceptor"
)

// HandlerSet exposes MCP tool handlers with shared dependencies.
type HandlerSet struct {
	deps *Dependencies
}

// NewHandlerSet constructs a handler set.
func NewHandlerSet(deps *Dependencies) *HandlerSet {
	if deps == nil {
		deps = NewDependencies(nil, "")
	}
	return &HandlerSet{deps: deps}
}

// HandlePrintBody handles the print_body tool
func (h *HandlerSet) HandlePrintBody(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return h.inspect(ctx, request, domain.ModePrint, false)
}

// HandleFormSSA handles the form_ssa tool
func (h *HandlerSet) HandleFormSSA(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return h.inspect(ctx, request, domain.ModePrint, true)
}

// HandleBuildTraps handles the build_traps tool
func (h *HandlerSet) HandleBuildTraps(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return h.inspect(ctx, request, domain.ModeTraps, false)
}

// HandleBlockOrder handles the block_order tool
func (h *HandlerSet) HandleBlockOrder(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return h.inspect(ctx, request, domain.ModeOrder, false)
}

// HandleCheckBody handles the check_body tool
func (h *HandlerSet) HandleCheckBody(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return h.inspect(ctx, request, domain.ModeCheck, false)
}

// inspect runs one mode over the manifests at the path argument and
// returns the JSON report. Arguments override the configuration the same
// way explicit command line flags do.
func (h *HandlerSet) inspect(ctx context.Context, request mcp.CallToolRequest, mode domain.Mode, forceSSA bool) (*mcp.CallToolResult, error) {
	// Parse arguments with type assertion
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return mcp.NewToolResultError("invalid arguments format"), nil
	}

	path, ok := args["path"].(string)
	if !ok || path == "" {
		return mcp.NewToolResultError("path parameter is required and must be a string"), nil
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return mcp.NewToolResultError(fmt.Sprintf("path does not exist: %s", path)), nil
	}

	req, err := h.buildRequest(args, mode, forceSSA)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	cfg := h.deps.Config()
	files, err := app.ResolveFilePaths(
		h.deps.FileReader(),
		[]string{path},
		cfg.Input.Recursive,
		cfg.Input.IncludePatterns,
		cfg.Input.ExcludePatterns,
	)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to collect manifests: %v", err)), nil
	}
	if len(files) == 0 {
		return mcp.NewToolResultError(fmt.Sprintf("no manifests found in %s", path)), nil
	}
	req.Paths = files

	uc, err := h.deps.BuildInspectUseCase(h.deps.Prefetch(ctx, files))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to create use case: %v", err)), nil
	}

	var buf bytes.Buffer
	req.OutputWriter = &buf
	if _, err := uc.Execute(ctx, req); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("inspection failed: %v", err)), nil
	}

	return mcp.NewToolResultText(buf.String()), nil
}

// buildRequest maps tool arguments onto a request. Only arguments that are
// present are marked explicit.
func (h *HandlerSet) buildRequest(args map[string]interface{}, mode domain.Mode, forceSSA bool) (domain.InspectRequest, error) {
	explicit := map[string]bool{config.FlagFormat: true, config.FlagOutput: true}
	req := domain.InspectRequest{
		ConfigPath:    h.deps.ConfigPath(),
		ExplicitFlags: explicit,
		OutputFormat:  domain.OutputFormatJSON,
		Mode:          mode,
	}

	if raw, ok := args["interceptors"]; ok {
		names, err := stringList(raw)
		if err != nil {
			return req, fmt.Errorf("interceptors: %w", err)
		}
		req.Interceptors = names
		explicit[config.FlagInterceptors] = true
	}
	if forceSSA {
		req.Interceptors = appendSSA(req.Interceptors)
		explicit[config.FlagInterceptors] = true
	}

	if v, ok := args["show_blocks"].(bool); ok {
		req.ShowBlocks = v
		explicit[config.FlagShowBlocks] = true
	}
	if v, ok := args["show_traps"].(bool); ok {
		req.ShowTraps = v
		explicit[config.FlagShowTraps] = true
	}
	if v, ok := args["direction"].(string); ok && v != "" {
		req.Direction = v
		explicit[config.FlagDirection] = true
	}
	return req, nil
}

func stringList(raw interface{}) ([]string, error) {
	items, ok := raw.([]interface{})
	if !ok {
		return nil, fmt.Errorf("must be an array of strings")
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		s, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("must be an array of strings")
		}
		out = append(out, s)
	}
	return out, nil
}

func appendSSA(names []string) []string {
	for _, n := range names {
		if n == interceptor.SSAName {
			return names
		}
	}
	return append(append([]string{}, names...), interceptor.SSAName)
}
