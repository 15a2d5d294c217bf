package interceptor

import (
	"errors"
	"log"

	"github.com/ludo-technologies/irscn/internal/analyzer"
	"github.com/ludo-technologies/irscn/internal/body"
	"github.com/ludo-technologies/irscn/internal/graph"
	"github.com/ludo-technologies/irscn/internal/ir"
)

// Registry names of the eliminators
const (
	NopEliminatorName             = "nop-eliminator"
	UnreachableCodeEliminatorName = "unreachable-code-eliminator"
)

// NopEliminator removes nop statements, moving edges that target a nop
// onto the statement after it. A nop that ends a path with incoming edges
// has nowhere to send them and stays.
type NopEliminator struct {
	logger *log.Logger
}

// NewNopEliminator creates a nop eliminator
func NewNopEliminator() *NopEliminator {
	return &NopEliminator{}
}

// Name implements body.Interceptor
func (e *NopEliminator) Name() string {
	return NopEliminatorName
}

// SetLogger enables debug output
func (e *NopEliminator) SetLogger(logger *log.Logger) {
	e.logger = logger
}

// Intercept implements body.Interceptor
func (e *NopEliminator) Intercept(b *body.Body) error {
	var nops []*ir.Stmt
	for _, s := range b.Graph.Stmts() {
		if s.Kind == ir.StmtNop {
			nops = append(nops, s)
		}
	}

	removed, kept := 0, 0
	for _, s := range nops {
		err := b.Graph.RedirectAndRemoveStmt(s)
		switch {
		case err == nil:
			removed++
		case errors.Is(err, graph.ErrDanglingReference):
			kept++
		default:
			return err
		}
	}
	logf(e.logger, "NopEliminator: ", "%s: removed %d nops, kept %d", b.Signature(), removed, kept)
	return nil
}

// UnreachableCodeEliminator drops every block that normal and exceptional
// edges cannot reach from the starting statement. Locals only the dropped
// blocks mentioned are removed from the body.
type UnreachableCodeEliminator struct {
	logger *log.Logger
}

// NewUnreachableCodeEliminator creates an unreachable code eliminator
func NewUnreachableCodeEliminator() *UnreachableCodeEliminator {
	return &UnreachableCodeEliminator{}
}

// Name implements body.Interceptor
func (e *UnreachableCodeEliminator) Name() string {
	return UnreachableCodeEliminatorName
}

// SetLogger enables debug output
func (e *UnreachableCodeEliminator) SetLogger(logger *log.Logger) {
	e.logger = logger
}

// Intercept implements body.Interceptor. A graph without a starting
// statement is left alone.
func (e *UnreachableCodeEliminator) Intercept(b *body.Body) error {
	g := b.Graph
	if g.StartingStmt() == nil {
		return nil
	}
	result := analyzer.AnalyzeReachability(g)
	if !result.HasUnreachableCode() {
		return nil
	}

	stmts := result.UnreachableStmtCount()
	dead := make(map[ir.Local]bool)
	for _, blk := range result.UnreachableBlocks {
		mentionedBy(blk.Stmts(), dead)
	}
	if err := g.RemoveBlocks(result.UnreachableIDs()); err != nil {
		return err
	}

	live := make(map[ir.Local]bool)
	mentionedBy(g.Stmts(), live)
	before := b.LocalCount()
	b.RetainLocals(func(l ir.Local) bool { return live[l] || !dead[l] })

	logf(e.logger, "UnreachableCodeEliminator: ", "%s: removed %d blocks, %d statements, %d locals",
		b.Signature(), result.UnreachableCount, stmts, before-b.LocalCount())
	return nil
}

func mentionedBy(stmts []*ir.Stmt, into map[ir.Local]bool) {
	for _, s := range stmts {
		if def, ok := s.Def(); ok {
			into[def] = true
		}
		for _, u := range s.Uses() {
			into[u] = true
		}
	}
}

func logf(logger *log.Logger, prefix, format string, args ...interface{}) {
	if logger != nil {
		logger.Printf(prefix+format, args...)
	}
}
