package main

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ludo-technologies/irscn/app"
	"github.com/ludo-technologies/irscn/domain"
	"github.com/ludo-technologies/irscn/internal/config"
	"github.com/ludo-technologies/irscn/internal/interceptor"
	"github.com/ludo-technologies/irscn/service"
)

// InspectCommand runs bodies through the interceptor chain and reports
// them in one mode. print, ssa, traps, order and check are all instances.
type InspectCommand struct {
	mode     domain.Mode
	forceSSA bool

	configFile     string
	format         string
	output         string
	interceptors   []string
	direction      string
	showBlocks     bool
	showTraps      bool
	maxConcurrency int
	include        []string
	exclude        []string
}

// NewInspectCommand creates an inspect command for mode
func NewInspectCommand(mode domain.Mode) *InspectCommand {
	return &InspectCommand{
		mode:      mode,
		format:    config.DefaultOutputFormat,
		direction: config.DefaultDirection,
		showTraps: true,
	}
}

// addCommonFlags registers the flags every mode accepts
func (c *InspectCommand) addCommonFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&c.configFile, "config", "c", "", "Configuration file path")
	cmd.Flags().StringVar(&c.format, config.FlagFormat, config.DefaultOutputFormat, "Output format: text, json, yaml, msgpack")
	cmd.Flags().StringVarP(&c.output, config.FlagOutput, "o", "", "Write the report to this file instead of stdout")
	cmd.Flags().StringSliceVarP(&c.interceptors, config.FlagInterceptors, "i", nil,
		fmt.Sprintf("Comma-separated interceptors to apply in order: %s", interceptorList()))
	cmd.Flags().IntVar(&c.maxConcurrency, config.FlagMaxConcurrency, config.DefaultMaxConcurrency, "Maximum bodies processed at once (0 = no limit)")
	cmd.Flags().StringSliceVar(&c.include, config.FlagInclude, nil, "Doublestar patterns of manifests to include")
	cmd.Flags().StringSliceVar(&c.exclude, config.FlagExclude, nil, "Doublestar patterns of manifests to exclude")
}

// addPrintFlags registers the flags of the printing modes
func (c *InspectCommand) addPrintFlags(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&c.showBlocks, config.FlagShowBlocks, false, "Mark block boundaries in printed bodies")
	cmd.Flags().BoolVar(&c.showTraps, config.FlagShowTraps, true, "Print catch clauses")
}

func interceptorList() string {
	return strings.Join(interceptor.Names(), ", ")
}

// buildRequest turns flags and arguments into a request. Paths default to
// the current directory.
func (c *InspectCommand) buildRequest(cmd *cobra.Command, args []string) domain.InspectRequest {
	if len(args) == 0 {
		args = []string{"."}
	}

	req := domain.InspectRequest{
		Paths:           args,
		ConfigPath:      c.configFile,
		ExplicitFlags:   GetExplicitFlags(cmd),
		OutputFormat:    domain.OutputFormat(c.format),
		OutputPath:      c.output,
		OutputWriter:    cmd.OutOrStdout(),
		ShowBlocks:      c.showBlocks,
		ShowTraps:       c.showTraps,
		Interceptors:    c.interceptors,
		Direction:       c.direction,
		Mode:            c.mode,
		MaxConcurrency:  c.maxConcurrency,
		IncludePatterns: c.include,
		ExcludePatterns: c.exclude,
		ProgressWriter:  cmd.ErrOrStderr(),
	}

	// ssa replaces the configured chain with the flag's list ending in ssa
	if c.forceSSA {
		req.Interceptors = withSSA(c.interceptors)
		req.ExplicitFlags[config.FlagInterceptors] = true
	}
	return req
}

func withSSA(names []string) []string {
	out := append([]string{}, names...)
	for _, n := range out {
		if n == interceptor.SSAName {
			return out
		}
	}
	return append(out, interceptor.SSAName)
}

// newUseCase wires the services. With --verbose the frontend and the
// interceptors log to stderr.
func newUseCase(cmd *cobra.Command) (*app.InspectUseCase, error) {
	bodyService := service.NewBodyService()
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		bodyService.SetLogger(log.New(cmd.ErrOrStderr(), "", 0))
	}
	bodyService.SetProgressManager(service.NewProgressManager())

	return app.NewInspectUseCaseBuilder().
		WithService(bodyService).
		WithFileReader(service.NewFileReader()).
		WithFormatter(service.NewOutputFormatter()).
		WithConfigLoader(service.NewConfigurationLoader()).
		WithOutputWriter(service.NewFileOutputWriter(cmd.ErrOrStderr())).
		Build()
}

// execute runs the use case and explains a failure on stderr
func (c *InspectCommand) execute(cmd *cobra.Command, args []string) (*domain.InspectResponse, error) {
	uc, err := newUseCase(cmd)
	if err != nil {
		return nil, err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	resp, err := uc.Execute(ctx, c.buildRequest(cmd, args))
	if err != nil {
		printErrorHelp(cmd, err)
		return nil, err
	}
	return resp, nil
}

func (c *InspectCommand) runInspect(cmd *cobra.Command, args []string) error {
	_, err := c.execute(cmd, args)
	return err
}

// printErrorHelp prints the error category and recovery suggestions
func printErrorHelp(cmd *cobra.Command, err error) {
	categorizer := service.NewErrorCategorizer()
	categorized := categorizer.Categorize(err)
	if categorized == nil {
		return
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "%s: %s\n", categorized.Category, categorized.Message)
	for _, s := range categorizer.GetRecoverySuggestions(categorized.Category) {
		fmt.Fprintf(cmd.ErrOrStderr(), "  • %s\n", s)
	}
}

// NewPrintCmd creates the print command
func NewPrintCmd() *cobra.Command {
	c := NewInspectCommand(domain.ModePrint)
	cmd := &cobra.Command{
		Use:   "print [paths...]",
		Short: "Print bodies after applying interceptors",
		Long: `Load each manifest, apply the interceptor chain and print the body in
Jimple form: local declarations, labelled statements and catch clauses.

Examples:
  # Print every manifest under bodies/
  irscn print bodies/

  # Remove dead code first and mark block boundaries
  irscn print -i unreachable-code-eliminator --show-blocks loop.yaml

  # Block structure as JSON
  irscn print --format json loop.yaml`,
		Args: cobra.ArbitraryArgs,
		RunE: c.runInspect,
	}
	c.addCommonFlags(cmd)
	c.addPrintFlags(cmd)
	return cmd
}

// NewSSACmd creates the ssa command
func NewSSACmd() *cobra.Command {
	c := NewInspectCommand(domain.ModePrint)
	c.forceSSA = true
	cmd := &cobra.Command{
		Use:   "ssa [paths...]",
		Short: "Print bodies in SSA form",
		Long: `Print bodies after SSA formation. The interceptors given with
--interceptors run first and ssa is appended when missing; the configured
interceptor list is not used.

Examples:
  irscn ssa loop.yaml
  irscn ssa -i nop-eliminator,unreachable-code-eliminator bodies/`,
		Args: cobra.ArbitraryArgs,
		RunE: c.runInspect,
	}
	c.addCommonFlags(cmd)
	c.addPrintFlags(cmd)
	return cmd
}

// NewTrapsCmd creates the traps command
func NewTrapsCmd() *cobra.Command {
	c := NewInspectCommand(domain.ModeTraps)
	cmd := &cobra.Command{
		Use:   "traps [paths...]",
		Short: "Rebuild exception traps from the block graph",
		Long: `Print the catch clauses recovered from each body's exceptional block
edges, in layout order with adjacent ranges merged.`,
		Args: cobra.ArbitraryArgs,
		RunE: c.runInspect,
	}
	c.addCommonFlags(cmd)
	return cmd
}

// NewOrderCmd creates the order command
func NewOrderCmd() *cobra.Command {
	c := NewInspectCommand(domain.ModeOrder)
	cmd := &cobra.Command{
		Use:   "order [paths...]",
		Short: "List blocks in a traversal order",
		Long: `List each body's blocks with their predecessors for the chosen
direction: reverse-post-order-forward (forward) or post-order-backward
(backward). Backward orders report successors as predecessors.

Examples:
  irscn order loop.yaml
  irscn order --direction backward --format yaml loop.yaml`,
		Args: cobra.ArbitraryArgs,
		RunE: c.runInspect,
	}
	c.addCommonFlags(cmd)
	cmd.Flags().StringVar(&c.direction, config.FlagDirection, config.DefaultDirection,
		"Traversal direction: reverse-post-order-forward, post-order-backward, forward, backward")
	return cmd
}
