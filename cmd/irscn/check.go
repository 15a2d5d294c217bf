package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/ludo-technologies/irscn/domain"
)

// CheckCommand validates graph invariants for CI use
type CheckCommand struct {
	*InspectCommand
	quiet bool
}

// NewCheckCommand creates a new check command
func NewCheckCommand() *CheckCommand {
	return &CheckCommand{InspectCommand: NewInspectCommand(domain.ModeCheck)}
}

// CreateCobraCommand creates the cobra command for checking bodies
func (c *CheckCommand) CreateCobraCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check [paths...]",
		Short: "Validate block graph invariants",
		Long: `Apply the interceptor chain to every manifest and validate the
resulting block graph: edge symmetry, branch slot counts, handler edges and
the statement index.

Exit codes:
  • 0: every body loaded and passed
  • 1: a body failed to load or transform, or violated an invariant

Examples:
  # Check that SSA keeps every graph valid
  irscn check -i ssa bodies/

  # CI friendly: output only on failure
  irscn check --quiet .`,
		Args: cobra.ArbitraryArgs,
		RunE: c.runCheck,
	}
	c.addCommonFlags(cmd)
	cmd.Flags().BoolVarP(&c.quiet, "quiet", "q", false, "Suppress output unless problems are found")
	return cmd
}

func (c *CheckCommand) runCheck(cmd *cobra.Command, args []string) error {
	if c.quiet && !cmd.Flags().Changed("output") {
		// the report is still produced to count findings
		cmd.SetOut(io.Discard)
	}

	resp, err := c.execute(cmd, args)
	if err != nil {
		return err
	}

	s := resp.Summary
	if resp.HasFindings() {
		fmt.Fprintf(cmd.ErrOrStderr(), "✗ %d violation(s), %d failed manifest(s) in %d file(s)\n",
			s.TotalViolations, s.FailedFiles, s.FilesProcessed)
		return fmt.Errorf("found %d problem(s)", s.TotalViolations+s.FailedFiles)
	}

	if !c.quiet {
		fmt.Fprintf(cmd.ErrOrStderr(), "✓ %d body graph(s) valid\n", s.FilesProcessed)
	}
	return nil
}

// NewCheckCmd creates and returns the check cobra command
func NewCheckCmd() *cobra.Command {
	return NewCheckCommand().CreateCobraCommand()
}
