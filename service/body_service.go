package service

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/ludo-technologies/irscn/domain"
	"github.com/ludo-technologies/irscn/internal/analyzer"
	"github.com/ludo-technologies/irscn/internal/body"
	"github.com/ludo-technologies/irscn/internal/config"
	"github.com/ludo-technologies/irscn/internal/frontend"
	"github.com/ludo-technologies/irscn/internal/graph"
	"github.com/ludo-technologies/irscn/internal/interceptor"
	"github.com/ludo-technologies/irscn/internal/printer"
	"github.com/ludo-technologies/irscn/internal/version"
)

// BodyServiceImpl implements the BodyService interface
type BodyServiceImpl struct {
	executor domain.ParallelExecutor
	progress domain.ProgressManager
	cache    *BodyCache
	logger   *log.Logger
}

// NewBodyService creates a body service running bodies on a parallel
// executor without progress output
func NewBodyService() *BodyServiceImpl {
	return &BodyServiceImpl{
		executor: NewParallelExecutor(),
	}
}

// SetLogger enables debug output from the frontend and the interceptors
func (s *BodyServiceImpl) SetLogger(logger *log.Logger) {
	s.logger = logger
}

// SetProgressManager enables progress tracking
func (s *BodyServiceImpl) SetProgressManager(progress domain.ProgressManager) {
	s.progress = progress
}

// SetExecutor replaces the parallel executor
func (s *BodyServiceImpl) SetExecutor(executor domain.ParallelExecutor) {
	s.executor = executor
}

// SetBodyCache makes the service decode manifests through cache
func (s *BodyServiceImpl) SetBodyCache(cache *BodyCache) {
	s.cache = cache
}

// Process inspects every manifest in files. A manifest that fails to load
// or transform yields a report carrying the error; only invalid settings,
// cancellation and timeouts fail the whole run.
func (s *BodyServiceImpl) Process(ctx context.Context, files []string, req domain.InspectRequest) (*domain.InspectResponse, error) {
	req = withDefaults(req)
	names, err := checkSettings(req)
	if err != nil {
		return nil, err
	}
	req.Interceptors = names

	reports := make([]domain.BodyReport, len(files))
	var mu sync.Mutex
	processed := 0

	if s.progress != nil {
		if req.ProgressWriter != nil {
			s.progress.SetWriter(req.ProgressWriter)
		}
		s.progress.Initialize(len(files))
		s.progress.Start()
	}

	tasks := make([]domain.ExecutableTask, len(files))
	for i, file := range files {
		idx, path := i, file
		tasks[i] = NewSimpleTask(path, true, func(ctx context.Context) (interface{}, error) {
			report, err := s.ProcessFile(ctx, path, req)
			if err != nil {
				return nil, err
			}
			reports[idx] = *report

			mu.Lock()
			processed++
			if s.progress != nil {
				s.progress.Update(processed, len(files))
			}
			mu.Unlock()
			return report, nil
		})
	}

	s.executor.SetMaxConcurrency(req.MaxConcurrency)
	if req.Timeout > 0 {
		s.executor.SetTimeout(req.Timeout)
	}
	err = s.executor.Execute(ctx, tasks)
	if s.progress != nil {
		s.progress.Complete(err == nil)
	}
	if err != nil {
		return nil, domain.NewProcessingError("body processing failed", err)
	}

	response := &domain.InspectResponse{
		Bodies:       reports,
		Summary:      summarize(reports, req),
		Mode:         req.Mode,
		Interceptors: append([]string{}, req.Interceptors...),
		GeneratedAt:  time.Now().Format(time.RFC3339),
		Version:      version.Version,
	}
	if req.Mode == domain.ModeOrder {
		response.Direction = req.Direction
	}
	return response, nil
}

// ProcessFile loads one manifest, applies the interceptors and fills the
// report for the request's mode
func (s *BodyServiceImpl) ProcessFile(ctx context.Context, file string, req domain.InspectRequest) (*domain.BodyReport, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("processing %s cancelled: %w", file, err)
	}
	req = withDefaults(req)
	report := &domain.BodyReport{File: file}

	b, err := s.loadBody(file)
	if err != nil {
		report.Error = err.Error()
		return report, nil
	}
	report.Signature = b.Signature()

	chain, err := interceptor.NewChain(req.Interceptors, s.logger)
	if err != nil {
		return nil, domain.NewConfigError("invalid interceptor list", err)
	}
	if err := chain.Apply(b); err != nil {
		report.Error = domain.NewInterceptorError(b.Signature(), err).Error()
		return report, nil
	}

	if err := s.fill(report, b, req); err != nil {
		report.Error = domain.NewGraphError(b.Signature(), err).Error()
	}
	return report, nil
}

// loadBody decodes the manifest, from the cache when one is set, and
// builds a fresh body
func (s *BodyServiceImpl) loadBody(file string) (*body.Body, error) {
	var m *frontend.Manifest
	var err error
	if cached, ok := s.lookup(file); ok {
		m, err = cached.Manifest, cached.LoadErr
	} else {
		m, err = frontend.LoadFile(file)
	}
	if err != nil {
		return nil, domain.NewParseError(file, err)
	}

	builder := frontend.NewBuilder()
	builder.SetLogger(s.logger)
	b, err := builder.Build(m)
	if err != nil {
		return nil, domain.NewParseError(file, err)
	}
	return b, nil
}

func (s *BodyServiceImpl) lookup(file string) (*CachedManifest, bool) {
	if s.cache == nil {
		return nil, false
	}
	return s.cache.Get(file)
}

// fill computes the metrics every mode reports and the mode's own section
func (s *BodyServiceImpl) fill(report *domain.BodyReport, b *body.Body, req domain.InspectRequest) error {
	g := b.Graph
	traps, err := g.BuildTraps()
	if err != nil {
		return err
	}

	complexityConfig := config.ComplexityConfig{
		LowThreshold:    req.LowThreshold,
		MediumThreshold: req.MediumThreshold,
	}
	cx := analyzer.CalculateComplexityWithConfig(b, &complexityConfig)
	reach := analyzer.AnalyzeReachability(g)

	report.Metrics = domain.BodyMetrics{
		Blocks:            g.BlockCount(),
		Stmts:             g.StmtCount(),
		Locals:            b.LocalCount(),
		Traps:             len(traps),
		Phis:              countPhis(g),
		Complexity:        cx.Complexity,
		RiskLevel:         cx.RiskLevel,
		ReachableBlocks:   reach.ReachableCount,
		UnreachableBlocks: reach.UnreachableCount,
		UnreachableStmts:  reach.UnreachableStmtCount(),
	}

	switch req.Mode {
	case domain.ModePrint:
		text, err := printer.String(b, printer.Options{ShowBlocks: req.ShowBlocks, HideTraps: !req.ShowTraps})
		if err != nil {
			return err
		}
		report.Text = text
		report.Blocks = BodySnapshot(b)

	case domain.ModeTraps:
		lines, err := printer.Traps(b)
		if err != nil {
			return err
		}
		report.Traps = lines

	case domain.ModeOrder:
		d, err := graph.ParseDirection(req.Direction)
		if err != nil {
			return err
		}
		for _, blk := range g.SortedBlocks(d) {
			report.Order = append(report.Order, domain.BlockOrderEntry{
				Block:        int(blk.ID),
				Head:         blk.Head().String(),
				Predecessors: blockIDs(g.DirectionPredecessors(d, blk.ID)),
			})
		}

	case domain.ModeCheck:
		for _, verr := range graph.Validate(g) {
			report.Violations = append(report.Violations, verr.Error())
		}
	}
	return nil
}

func countPhis(g *graph.StmtGraph) int {
	n := 0
	for _, st := range g.Stmts() {
		if st.IsPhi() {
			n++
		}
	}
	return n
}

// withDefaults fills settings a request may leave empty
func withDefaults(req domain.InspectRequest) domain.InspectRequest {
	if req.Mode == "" {
		req.Mode = domain.ModePrint
	}
	if req.Direction == "" {
		req.Direction = config.DefaultDirection
	}
	if req.LowThreshold <= 0 {
		req.LowThreshold = config.DefaultLowComplexityThreshold
	}
	if req.MediumThreshold <= req.LowThreshold {
		req.MediumThreshold = config.DefaultMediumComplexityThreshold
		if req.MediumThreshold <= req.LowThreshold {
			req.MediumThreshold = req.LowThreshold + 1
		}
	}
	return req
}

// checkSettings rejects settings that would fail every body the same way
// and returns the resolved interceptor names
func checkSettings(req domain.InspectRequest) ([]string, error) {
	if !req.Mode.IsValid() {
		return nil, domain.NewInvalidInputError(fmt.Sprintf("unknown mode %q", req.Mode), nil)
	}
	chain, err := interceptor.NewChain(req.Interceptors, nil)
	if err != nil {
		return nil, domain.NewConfigError("invalid interceptor list", err)
	}
	if _, err := graph.ParseDirection(req.Direction); err != nil {
		return nil, domain.NewConfigError("invalid traversal direction", err)
	}
	return chain.Names(), nil
}

func summarize(reports []domain.BodyReport, req domain.InspectRequest) domain.InspectSummary {
	var sum domain.InspectSummary
	var cx []*analyzer.ComplexityResult
	for i := range reports {
		r := &reports[i]
		sum.FilesProcessed++
		if r.Failed() {
			sum.FailedFiles++
			continue
		}
		sum.TotalBlocks += r.Metrics.Blocks
		sum.TotalStmts += r.Metrics.Stmts
		sum.TotalPhis += r.Metrics.Phis
		sum.TotalViolations += len(r.Violations)
		cx = append(cx, &analyzer.ComplexityResult{Complexity: r.Metrics.Complexity, RiskLevel: r.Metrics.RiskLevel})
	}
	agg := analyzer.CalculateAggregateComplexity(cx)
	sum.AverageComplexity = agg.AverageComplexity
	sum.MaxComplexity = agg.MaxComplexity
	sum.HighRiskBodies = agg.HighRiskCount
	return sum
}
