package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/ludo-technologies/irscn/internal/interceptor"
)

// RegisterTools registers all irscn MCP tools with the server
func RegisterTools(s *server.MCPServer, h *HandlerSet) {
	if h == nil {
		h = NewHandlerSet(nil)
	}
	interceptors := interceptor.Names()

	// Tool 1: print_body - Jimple rendering after interceptors
	s.AddTool(mcp.NewTool("print_body",
		mcp.WithDescription("Load body manifests, apply interceptors and print each body in Jimple form with its block structure"),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Path to a manifest (.yaml, .yml, .toml, .json) or a directory of manifests")),
		mcp.WithArray("interceptors",
			mcp.WithStringEnumItems(interceptors),
			mcp.Description("Interceptors to apply in order. Default: the configured list")),
		mcp.WithBoolean("show_blocks",
			mcp.Description("Mark block boundaries in the printed body (default: false)")),
		mcp.WithBoolean("show_traps",
			mcp.Description("Print catch clauses (default: true)")),
	), h.HandlePrintBody)

	// Tool 2: form_ssa - SSA formation
	s.AddTool(mcp.NewTool("form_ssa",
		mcp.WithDescription("Convert bodies to SSA form with phi statements and versioned locals"),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Path to a manifest or a directory of manifests")),
		mcp.WithArray("interceptors",
			mcp.WithStringEnumItems(interceptors),
			mcp.Description("Interceptors to run before ssa, in order")),
	), h.HandleFormSSA)

	// Tool 3: build_traps - Trap reconstruction
	s.AddTool(mcp.NewTool("build_traps",
		mcp.WithDescription("Rebuild the exception traps of each body from its exceptional block edges"),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Path to a manifest or a directory of manifests")),
		mcp.WithArray("interceptors",
			mcp.WithStringEnumItems(interceptors),
			mcp.Description("Interceptors to apply before rebuilding traps")),
	), h.HandleBuildTraps)

	// Tool 4: block_order - Block traversal order
	s.AddTool(mcp.NewTool("block_order",
		mcp.WithDescription("List blocks in reverse post order (forward) or post order (backward) with their direction predecessors"),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Path to a manifest or a directory of manifests")),
		mcp.WithString("direction",
			mcp.Enum("reverse-post-order-forward", "post-order-backward", "forward", "backward"),
			mcp.Description("Traversal direction (default: reverse-post-order-forward)")),
	), h.HandleBlockOrder)

	// Tool 5: check_body - Graph invariant validation
	s.AddTool(mcp.NewTool("check_body",
		mcp.WithDescription("Validate block graph invariants after applying interceptors"),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Path to a manifest or a directory of manifests")),
		mcp.WithArray("interceptors",
			mcp.WithStringEnumItems(interceptors),
			mcp.Description("Interceptors to apply before validating")),
	), h.HandleCheckBody)
}
