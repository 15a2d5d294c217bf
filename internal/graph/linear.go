package graph

import (
	"log"

	"github.com/ludo-technologies/irscn/internal/ir"
)

// ExceptionRegion is a frontend's description of a protected range
type ExceptionRegion struct {
	Type  ir.Type
	Begin *ir.Stmt
	// End is the first statement no longer protected; nil protects to the
	// end of the body
	End     *ir.Stmt
	Handler *ir.Stmt
}

// LinearBody is a method body as frontends produce it: statements in
// order, explicit branch targets and exception regions.
type LinearBody struct {
	Stmts []*ir.Stmt

	// Targets lists the explicit jump targets of each branching statement:
	// the taken branch of an if, the target of a goto, the case targets of
	// a switch followed by its default
	Targets map[*ir.Stmt][]*ir.Stmt

	// Regions are applied in order; for a statement covered by several
	// regions of the same type the first one wins
	Regions []ExceptionRegion

	Logger *log.Logger
}

// FromLinear builds a statement graph from a linear body. Blocks are added
// in statement order, so layout order is the body order, and every block of
// a protected range receives the range's exceptional edge.
func FromLinear(body LinearBody) (*StmtGraph, error) {
	const op = "FromLinear"
	g := New()
	n := len(body.Stmts)
	if n == 0 {
		return g, nil
	}

	index := make(map[*ir.Stmt]int, n)
	for i, s := range body.Stmts {
		if s == nil {
			return nil, newError(op, ErrDanglingStatement, nil).withDetail("nil statement at %d", i)
		}
		if _, dup := index[s]; dup {
			return nil, newError(op, ErrInvalidInsertion, s).withDetail("statement listed twice")
		}
		index[s] = i
	}

	if err := validateTargets(op, body, index); err != nil {
		return nil, err
	}
	protection, err := protectionOf(op, body, index)
	if err != nil {
		return nil, err
	}

	leader := make([]bool, n)
	leader[0] = true
	for _, targets := range body.Targets {
		for _, t := range targets {
			leader[index[t]] = true
		}
	}
	for _, r := range body.Regions {
		leader[index[r.Handler]] = true
	}
	for i := 1; i < n; i++ {
		if body.Stmts[i-1].EndsBlock() || !sameEdges(protection[i-1], protection[i]) {
			leader[i] = true
		}
	}

	type run struct{ begin, end int }
	var runs []run
	for i := 0; i < n; i++ {
		if leader[i] {
			runs = append(runs, run{begin: i, end: i + 1})
		} else {
			runs[len(runs)-1].end = i + 1
		}
	}

	for _, r := range runs {
		if _, err := g.AddBlock(body.Stmts[r.begin:r.end], nil); err != nil {
			return nil, err
		}
	}
	if err := g.SetStartingStmt(body.Stmts[0]); err != nil {
		return nil, err
	}

	for _, r := range runs {
		tail := body.Stmts[r.end-1]
		if tail.FallsThrough() {
			if r.end < n {
				if err := g.AddBranchEdge(tail, 0, body.Stmts[r.end]); err != nil {
					return nil, err
				}
			} else {
				logf(body.Logger, "statement %q falls through past the end of the body", tail.String())
			}
		}
		targets := body.Targets[tail]
		switch tail.Kind {
		case ir.StmtIf:
			if err := g.AddBranchEdge(tail, ir.IfTrueBranch, targets[0]); err != nil {
				return nil, err
			}
		case ir.StmtGoto:
			if err := g.AddBranchEdge(tail, ir.GotoBranch, targets[0]); err != nil {
				return nil, err
			}
		case ir.StmtSwitch:
			for i, t := range targets {
				if err := g.AddBranchEdge(tail, i, t); err != nil {
					return nil, err
				}
			}
		}
		for _, e := range protection[r.begin] {
			if err := g.AddExceptionalEdge(body.Stmts[r.begin], e.Type, e.Handler); err != nil {
				return nil, err
			}
		}
	}

	logf(body.Logger, "built %d blocks from %d statements and %d regions", g.BlockCount(), n, len(body.Regions))
	return g, nil
}

func validateTargets(op string, body LinearBody, index map[*ir.Stmt]int) error {
	for _, s := range body.Stmts {
		targets := body.Targets[s]
		want := 0
		switch s.Kind {
		case ir.StmtIf, ir.StmtGoto:
			want = 1
		case ir.StmtSwitch:
			want = len(s.Cases) + 1
		}
		if len(targets) != want {
			return newError(op, ErrInvalidBranch, s).withDetail("expected %d targets, got %d", want, len(targets))
		}
		for _, t := range targets {
			if _, ok := index[t]; !ok {
				return newError(op, ErrDanglingStatement, t).withDetail("branch target of %q not in body", s.String())
			}
		}
	}
	for s := range body.Targets {
		if _, ok := index[s]; !ok {
			return newError(op, ErrDanglingStatement, s).withDetail("branch source not in body")
		}
	}
	return nil
}

// protectionOf computes the exceptional edges covering each statement
func protectionOf(op string, body LinearBody, index map[*ir.Stmt]int) ([][]ExceptionalEdge, error) {
	n := len(body.Stmts)
	protection := make([][]ExceptionalEdge, n)
	for _, r := range body.Regions {
		begin, ok := index[r.Begin]
		if !ok {
			return nil, newError(op, ErrDanglingStatement, r.Begin).withType(r.Type).withDetail("region begin not in body")
		}
		if _, ok := index[r.Handler]; !ok {
			return nil, newError(op, ErrDanglingStatement, r.Handler).withType(r.Type).withDetail("handler not in body")
		}
		end := n
		if r.End != nil {
			if end, ok = index[r.End]; !ok {
				return nil, newError(op, ErrDanglingStatement, r.End).withType(r.Type).withDetail("region end not in body")
			}
		}
		if begin >= end {
			return nil, newError(op, ErrInvalidInsertion, r.Begin).withType(r.Type).withDetail("empty region")
		}
		for i := begin; i < end; i++ {
			covered := false
			for _, e := range protection[i] {
				if e.Type == r.Type {
					covered = true
					break
				}
			}
			if !covered {
				protection[i] = append(protection[i], ExceptionalEdge{Type: r.Type, Handler: r.Handler})
			}
		}
	}
	return protection, nil
}

func sameEdges(a, b []ExceptionalEdge) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func logf(logger *log.Logger, format string, args ...interface{}) {
	if logger != nil {
		logger.Printf("StmtGraph: "+format, args...)
	}
}
