package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/ludo-technologies/irscn/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "irscn",
	Short: "Inspect and transform method bodies in a Jimple-like IR",
	Long: `irscn loads method bodies from YAML, TOML or JSON manifests, builds
their block-based control flow graph and runs body interceptors over them.

Features:
  • Jimple-style printing with labels and catch clauses
  • Exception trap reconstruction from the block graph
  • Forward and backward block orderings
  • Nop and unreachable code elimination
  • SSA formation with phi insertion and pruning
  • Graph invariant checks for CI`,
	Version:      version.Short(),
	SilenceUsage: true,
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Log frontend and interceptor details to stderr")

	rootCmd.AddCommand(NewPrintCmd())
	rootCmd.AddCommand(NewSSACmd())
	rootCmd.AddCommand(NewTrapsCmd())
	rootCmd.AddCommand(NewOrderCmd())
	rootCmd.AddCommand(NewCheckCmd())
	rootCmd.AddCommand(NewInitCmd())
	rootCmd.AddCommand(NewVersionCmd())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
