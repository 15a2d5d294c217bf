package mcp_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ludo-technologies/irscn/domain"
	"github.com/ludo-technologies/irscn/mcp"
	"github.com/ludo-technologies/irscn/service"
)

const loopManifest = `class: Test
method: "int test()"
locals: {l0: Test, l1: int, l2: int, l3: int}
stmts:
  - "l0 := @this: Test"
  - "l1 = 1"
  - "l2 = 2"
  - "l3 = 0"
  - "label1:"
  - "if l3 < 100 goto label2"
  - "return l2"
  - "label2:"
  - "if l2 < 20 goto label3"
  - "l2 = l3"
  - "l3 = l3 + 2"
  - "goto label4"
  - "label3:"
  - "l2 = l1"
  - "l3 = l3 + 1"
  - "goto label4"
  - "label4:"
  - "goto label1"
`

const trapManifest = `{
  "class": "Test",
  "method": "int g()",
  "locals": {"l1": "int"},
  "stmts": ["l1 = 0", "begin:", "l1 = 1", "end:", "return l1", "handler:", "$e := @caughtexception", "l1 = 2", "goto end"],
  "traps": [{"exception": "java.lang.Exception", "from": "begin", "to": "end", "with": "handler"}]
}`

type handlerFunc func(*mcp.HandlerSet, context.Context, mcplib.CallToolRequest) (*mcplib.CallToolResult, error)

func setupConfig(t *testing.T) string {
	t.Helper()
	configFile := filepath.Join(t.TempDir(), ".irscn.yaml")
	require.NoError(t, os.WriteFile(configFile, []byte("output:\n  show_traps: true\n"), 0o644))
	return configFile
}

func writeManifest(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func callTool(t *testing.T, fn handlerFunc, arguments interface{}) *mcplib.CallToolResult {
	t.Helper()
	deps := mcp.NewTestDependencies(service.NewFileReader(), nil, setupConfig(t))
	h := mcp.NewHandlerSet(deps)

	req := mcplib.CallToolRequest{}
	req.Params.Arguments = arguments

	res, err := fn(h, context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, res)
	require.NotEmpty(t, res.Content)
	return res
}

func decodeResponse(t *testing.T, res *mcplib.CallToolResult) domain.InspectResponse {
	t.Helper()
	require.False(t, res.IsError, mcplib.GetTextFromContent(res.Content[0]))
	var resp domain.InspectResponse
	require.NoError(t, json.Unmarshal([]byte(mcplib.GetTextFromContent(res.Content[0])), &resp))
	return resp
}

func TestHandlePrintBody(t *testing.T) {
	loop := writeManifest(t, "loop.yaml", loopManifest)

	res := callTool(t, (*mcp.HandlerSet).HandlePrintBody, map[string]interface{}{
		"path":        loop,
		"show_blocks": true,
	})
	resp := decodeResponse(t, res)

	assert.Equal(t, domain.ModePrint, resp.Mode)
	require.Len(t, resp.Bodies, 1)
	report := resp.Bodies[0]
	assert.Equal(t, "<Test: int test()>", report.Signature)
	assert.Equal(t, 7, report.Metrics.Blocks)
	assert.Equal(t, 3, report.Metrics.Complexity)
	assert.Contains(t, report.Text, "if l3 < 100 goto label2;")
	assert.Len(t, report.Blocks, 7)
}

func TestHandleFormSSA(t *testing.T) {
	loop := writeManifest(t, "loop.yaml", loopManifest)

	t.Run("adds ssa to the chain", func(t *testing.T) {
		resp := decodeResponse(t, callTool(t, (*mcp.HandlerSet).HandleFormSSA, map[string]interface{}{"path": loop}))
		assert.Equal(t, []string{"ssa"}, resp.Interceptors)
		assert.Equal(t, 4, resp.Summary.TotalPhis)
		require.Len(t, resp.Bodies, 1)
		assert.Contains(t, resp.Bodies[0].Text, "l2#4 = phi(l2#2, l2#10);")
	})

	t.Run("keeps earlier interceptors", func(t *testing.T) {
		resp := decodeResponse(t, callTool(t, (*mcp.HandlerSet).HandleFormSSA, map[string]interface{}{
			"path":         loop,
			"interceptors": []interface{}{"unreachable-code-eliminator"},
		}))
		assert.Equal(t, []string{"unreachable-code-eliminator", "ssa"}, resp.Interceptors)
	})
}

func TestHandleBuildTraps(t *testing.T) {
	trap := writeManifest(t, "trap.json", trapManifest)

	resp := decodeResponse(t, callTool(t, (*mcp.HandlerSet).HandleBuildTraps, map[string]interface{}{"path": trap}))

	assert.Equal(t, domain.ModeTraps, resp.Mode)
	require.Len(t, resp.Bodies, 1)
	assert.Equal(t, []string{"catch java.lang.Exception from label1 to label2 with label3;"}, resp.Bodies[0].Traps)
}

func TestHandleBlockOrder(t *testing.T) {
	loop := writeManifest(t, "loop.yaml", loopManifest)

	forward := decodeResponse(t, callTool(t, (*mcp.HandlerSet).HandleBlockOrder, map[string]interface{}{"path": loop}))
	require.Len(t, forward.Bodies, 1)
	require.Len(t, forward.Bodies[0].Order, 7)
	assert.Equal(t, "l0 := @this: Test", forward.Bodies[0].Order[0].Head)

	backward := decodeResponse(t, callTool(t, (*mcp.HandlerSet).HandleBlockOrder, map[string]interface{}{
		"path":      loop,
		"direction": "post-order-backward",
	}))
	assert.Equal(t, "post-order-backward", backward.Direction)
	require.Len(t, backward.Bodies, 1)
	assert.NotEqual(t, forward.Bodies[0].Order, backward.Bodies[0].Order)
}

func TestHandleCheckBody(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "loop.yaml"), []byte(loopManifest), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "trap.json"), []byte(trapManifest), 0o644))

	resp := decodeResponse(t, callTool(t, (*mcp.HandlerSet).HandleCheckBody, map[string]interface{}{
		"path":         dir,
		"interceptors": []interface{}{"ssa"},
	}))

	assert.Equal(t, domain.ModeCheck, resp.Mode)
	assert.Equal(t, 2, resp.Summary.FilesProcessed)
	assert.Zero(t, resp.Summary.TotalViolations)
	assert.False(t, resp.HasFindings())
}

func TestHandlerErrors(t *testing.T) {
	loop := writeManifest(t, "loop.yaml", loopManifest)
	empty := t.TempDir()

	tests := []struct {
		name      string
		fn        handlerFunc
		arguments interface{}
		want      string
	}{
		{
			name:      "arguments not an object",
			fn:        (*mcp.HandlerSet).HandlePrintBody,
			arguments: "invalid",
			want:      "invalid arguments format",
		},
		{
			name:      "missing path",
			fn:        (*mcp.HandlerSet).HandleFormSSA,
			arguments: map[string]interface{}{},
			want:      "path parameter is required and must be a string",
		},
		{
			name:      "path is not a string",
			fn:        (*mcp.HandlerSet).HandleBuildTraps,
			arguments: map[string]interface{}{"path": 42},
			want:      "path parameter is required and must be a string",
		},
		{
			name:      "path does not exist",
			fn:        (*mcp.HandlerSet).HandleCheckBody,
			arguments: map[string]interface{}{"path": filepath.Join(empty, "missing.yaml")},
			want:      "path does not exist",
		},
		{
			name:      "no manifests",
			fn:        (*mcp.HandlerSet).HandlePrintBody,
			arguments: map[string]interface{}{"path": empty},
			want:      "no manifests found",
		},
		{
			name:      "interceptors not a list",
			fn:        (*mcp.HandlerSet).HandlePrintBody,
			arguments: map[string]interface{}{"path": loop, "interceptors": "ssa"},
			want:      "interceptors: must be an array of strings",
		},
		{
			name:      "unknown interceptor",
			fn:        (*mcp.HandlerSet).HandlePrintBody,
			arguments: map[string]interface{}{"path": loop, "interceptors": []interface{}{"bogus"}},
			want:      "inspection failed",
		},
		{
			name:      "unknown direction",
			fn:        (*mcp.HandlerSet).HandleBlockOrder,
			arguments: map[string]interface{}{"path": loop, "direction": "sideways"},
			want:      "inspection failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := callTool(t, tt.fn, tt.arguments)
			assert.True(t, res.IsError)
			assert.Contains(t, mcplib.GetTextFromContent(res.Content[0]), tt.want)
		})
	}
}

func TestRegisterTools(t *testing.T) {
	s := server.NewMCPServer("irscn", "test", server.WithToolCapabilities(true))
	assert.NotPanics(t, func() {
		mcp.RegisterTools(s, nil)
	})
}
