package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/ludo-technologies/irscn/internal/config"
	"github.com/ludo-technologies/irscn/internal/version"
	"github.com/ludo-technologies/irscn/mcp"
)

const serverName = "irscn"

func main() {
	configPath := flag.String("config", "", "Configuration file path (default: discover .irscn.yaml)")
	flag.Parse()

	// MCP uses stdout for JSON-RPC
	log.SetOutput(os.Stderr)
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	server := mcpserver.NewMCPServer(
		serverName,
		version.Short(),
		mcpserver.WithToolCapabilities(true),
		mcpserver.WithLogging(),
	)

	mcp.RegisterTools(server, mcp.NewHandlerSet(mcp.NewDependencies(cfg, *configPath)))

	log.Printf("Starting %s MCP server %s\n", serverName, version.Short())
	log.Println("Registered tools:")
	log.Println("  - print_body: Print bodies after interceptors")
	log.Println("  - form_ssa: Convert bodies to SSA form")
	log.Println("  - build_traps: Rebuild exception traps")
	log.Println("  - block_order: List blocks in traversal order")
	log.Println("  - check_body: Validate block graph invariants")
	log.Println("")
	log.Println("Server ready - waiting for MCP client connection...")

	if err := mcpserver.ServeStdio(server); err != nil {
		fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
		os.Exit(1)
	}
}
