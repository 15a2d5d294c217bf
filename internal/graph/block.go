package graph

import (
	"fmt"

	"github.com/ludo-technologies/irscn/internal/ir"
)

// BlockID addresses a block in the graph's arena
type BlockID int

// NoBlock marks an unset successor slot
const NoBlock BlockID = -1

// String returns the block's display name
func (id BlockID) String() string {
	if id == NoBlock {
		return "none"
	}
	return fmt.Sprintf("bb%d", int(id))
}

// EdgeKind represents the kind of control flow edge between blocks
type EdgeKind int

const (
	// EdgeNormal represents fall-through or branch flow
	EdgeNormal EdgeKind = iota
	// EdgeExceptional represents flow into a trap handler
	EdgeExceptional
)

// String returns the string representation of the EdgeKind
func (k EdgeKind) String() string {
	switch k {
	case EdgeNormal:
		return "normal"
	case EdgeExceptional:
		return "exceptional"
	default:
		return "unknown"
	}
}

// Edge is a block-level edge. Type is set for exceptional edges only.
type Edge struct {
	From BlockID
	To   BlockID
	Kind EdgeKind
	Type ir.Type
}

// ExceptionalSuccessor maps an exception type to its handler block
type ExceptionalSuccessor struct {
	Type    ir.Type
	Handler BlockID
}

// Block is an ordered, non-empty run of statements with no internal
// branches. Blocks are owned by a StmtGraph; mutate them through the graph.
type Block struct {
	ID BlockID

	stmts []*ir.Stmt

	// succs is index-aligned with the tail's branch slots
	succs []BlockID

	// preds holds one entry per incoming normal edge
	preds []BlockID

	// exc keeps insertion order, one entry per exception type
	exc []ExceptionalSuccessor
}

// Head returns the first statement
func (b *Block) Head() *ir.Stmt {
	return b.stmts[0]
}

// Tail returns the last statement
func (b *Block) Tail() *ir.Stmt {
	return b.stmts[len(b.stmts)-1]
}

// Len returns the number of statements in the block
func (b *Block) Len() int {
	return len(b.stmts)
}

// Stmts returns a copy of the block's statements
func (b *Block) Stmts() []*ir.Stmt {
	return append([]*ir.Stmt(nil), b.stmts...)
}

// Successors returns the normal successor slots, NoBlock where unset
func (b *Block) Successors() []BlockID {
	return append([]BlockID(nil), b.succs...)
}

// Predecessors returns the normal predecessors in the order edges were added
func (b *Block) Predecessors() []BlockID {
	return append([]BlockID(nil), b.preds...)
}

// ExceptionalSuccessors returns the exception map in insertion order
func (b *Block) ExceptionalSuccessors() []ExceptionalSuccessor {
	return append([]ExceptionalSuccessor(nil), b.exc...)
}

// HandlerFor returns the handler block for an exception type
func (b *Block) HandlerFor(t ir.Type) (BlockID, bool) {
	for _, e := range b.exc {
		if e.Type == t {
			return e.Handler, true
		}
	}
	return NoBlock, false
}

// String returns a short description of the block
func (b *Block) String() string {
	return fmt.Sprintf("%s[%d stmts, head %q]", b.ID, len(b.stmts), b.Head().String())
}

func (b *Block) indexOf(s *ir.Stmt) int {
	for i, st := range b.stmts {
		if st == s {
			return i
		}
	}
	return -1
}

func (b *Block) setHandler(t ir.Type, handler BlockID) {
	for i := range b.exc {
		if b.exc[i].Type == t {
			b.exc[i].Handler = handler
			return
		}
	}
	b.exc = append(b.exc, ExceptionalSuccessor{Type: t, Handler: handler})
}

func (b *Block) removeHandler(t ir.Type) bool {
	for i := range b.exc {
		if b.exc[i].Type == t {
			b.exc = append(b.exc[:i], b.exc[i+1:]...)
			return true
		}
	}
	return false
}

func (b *Block) removePred(id BlockID) {
	for i, p := range b.preds {
		if p == id {
			b.preds = append(b.preds[:i], b.preds[i+1:]...)
			return
		}
	}
}

// sameProtection compares two exception maps ignoring order
func sameProtection(a, b []ExceptionalSuccessor) bool {
	if len(a) != len(b) {
		return false
	}
	for _, x := range a {
		found := false
		for _, y := range b {
			if x == y {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
