package body

import (
	"fmt"
	"sort"

	"github.com/ludo-technologies/irscn/internal/graph"
	"github.com/ludo-technologies/irscn/internal/ir"
)

// Body is one method body: its owner and signature, its local variables
// and its statement graph.
type Body struct {
	Class  string
	Method string

	Graph *graph.StmtGraph

	locals []ir.Local
	index  map[ir.Local]int
}

// New creates a body around an existing graph
func New(class, method string, g *graph.StmtGraph) *Body {
	if g == nil {
		g = graph.New()
	}
	return &Body{
		Class:  class,
		Method: method,
		Graph:  g,
		index:  make(map[ir.Local]int),
	}
}

// Signature returns "<Class: method>"
func (b *Body) Signature() string {
	return fmt.Sprintf("<%s: %s>", b.Class, b.Method)
}

// AddLocal declares a local. Declaring the same local twice is a no-op.
func (b *Body) AddLocal(l ir.Local) {
	if _, ok := b.index[l]; ok {
		return
	}
	b.index[l] = len(b.locals)
	b.locals = append(b.locals, l)
}

// HasLocal reports whether the local is declared
func (b *Body) HasLocal(l ir.Local) bool {
	_, ok := b.index[l]
	return ok
}

// Locals returns the declared locals in declaration order
func (b *Body) Locals() []ir.Local {
	return append([]ir.Local(nil), b.locals...)
}

// LocalCount returns the number of declared locals
func (b *Body) LocalCount() int {
	return len(b.locals)
}

// RetainLocals drops every local for which keep returns false
func (b *Body) RetainLocals(keep func(ir.Local) bool) {
	kept := b.locals[:0]
	for _, l := range b.locals {
		if keep(l) {
			kept = append(kept, l)
		}
	}
	b.locals = kept
	b.index = make(map[ir.Local]int, len(kept))
	for i, l := range kept {
		b.index[l] = i
	}
}

// LocalsByType groups the declared locals by type. Types are sorted and
// so are the local names within each type.
func (b *Body) LocalsByType() ([]ir.Type, map[ir.Type][]ir.Local) {
	groups := make(map[ir.Type][]ir.Local)
	for _, l := range b.locals {
		groups[l.Type] = append(groups[l.Type], l)
	}
	types := make([]ir.Type, 0, len(groups))
	for t, ls := range groups {
		types = append(types, t)
		sort.Slice(ls, func(i, j int) bool { return ls[i].String() < ls[j].String() })
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types, groups
}

// DeclareUsedLocals declares every local defined or used by a statement
// in the graph that is not declared yet, in layout order
func (b *Body) DeclareUsedLocals() {
	for _, s := range b.Graph.Stmts() {
		if def, ok := s.Def(); ok {
			b.AddLocal(def)
		}
		for _, u := range s.Uses() {
			b.AddLocal(u)
		}
	}
}
