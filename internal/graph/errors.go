package graph

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ludo-technologies/irscn/internal/ir"
)

// Sentinel errors. Every error returned by this package wraps one of them
// in a *GraphError, so errors.Is works on the result.
var (
	// ErrDanglingStatement means an edge names a statement the graph does not own
	ErrDanglingStatement = errors.New("dangling statement")

	// ErrDanglingReference means a statement is still targeted by a branch
	// or an exceptional edge
	ErrDanglingReference = errors.New("dangling reference")

	// ErrInconsistentTrapState means a protected region closed without being opened
	ErrInconsistentTrapState = errors.New("inconsistent trap state")

	// ErrIncompleteTraversal means traps were requested before every block was visited
	ErrIncompleteTraversal = errors.New("incomplete traversal")

	// ErrInvalidBranch means a branch index or fall-through edge does not
	// fit the statement
	ErrInvalidBranch = errors.New("invalid branch")

	// ErrInvalidInsertion means a statement sequence cannot be spliced at
	// the requested point
	ErrInvalidInsertion = errors.New("invalid insertion")
)

// GraphError carries the context of a failed graph operation
type GraphError struct {
	Op    string
	Err   error
	Stmt  *ir.Stmt
	Block BlockID
	Type  ir.Type

	// Detail is an optional free-form explanation
	Detail string
}

// Error implements the error interface
func (e *GraphError) Error() string {
	var ctx []string
	if e.Stmt != nil {
		ctx = append(ctx, fmt.Sprintf("stmt %q", e.Stmt.String()))
	}
	if e.Block != NoBlock {
		ctx = append(ctx, "block "+e.Block.String())
	}
	if e.Type != "" {
		ctx = append(ctx, "type "+string(e.Type))
	}
	if e.Detail != "" {
		ctx = append(ctx, e.Detail)
	}

	msg := fmt.Sprintf("%s: %v", e.Op, e.Err)
	if len(ctx) > 0 {
		msg += " (" + strings.Join(ctx, ", ") + ")"
	}
	return msg
}

// Unwrap returns the sentinel error
func (e *GraphError) Unwrap() error {
	return e.Err
}

func newError(op string, err error, stmt *ir.Stmt) *GraphError {
	return &GraphError{Op: op, Err: err, Stmt: stmt, Block: NoBlock}
}

func (e *GraphError) withBlock(id BlockID) *GraphError {
	e.Block = id
	return e
}

func (e *GraphError) withType(t ir.Type) *GraphError {
	e.Type = t
	return e
}

func (e *GraphError) withDetail(format string, args ...interface{}) *GraphError {
	e.Detail = fmt.Sprintf(format, args...)
	return e
}
