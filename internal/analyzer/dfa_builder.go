package analyzer

import (
	"github.com/ludo-technologies/irscn/internal/body"
	"github.com/ludo-technologies/irscn/internal/graph"
	"github.com/ludo-technologies/irscn/internal/ir"
)

// defSet is a set of definitions
type defSet map[*VarReference]bool

func (s defSet) union(o defSet) bool {
	changed := false
	for d := range o {
		if !s[d] {
			s[d] = true
			changed = true
		}
	}
	return changed
}

// DFABuilder computes reaching definitions over a body's block graph and
// links every use to the definitions that reach it.
//
// A normal edge carries the definitions live at the end of its source
// block. An exceptional edge carries those live at the start of the
// protected block plus every definition inside it, since the exception may
// be raised after any statement.
type DFABuilder struct {
	g    *graph.StmtGraph
	info *DefUseInfo

	blockDefs map[graph.BlockID][]*VarReference
	in        map[graph.BlockID]defSet
	out       map[graph.BlockID]defSet
	defined   map[ir.Local]bool
}

// NewDFABuilder creates a new DFA builder
func NewDFABuilder() *DFABuilder {
	return &DFABuilder{}
}

// BuildDefUse is shorthand for NewDFABuilder().Build(b)
func BuildDefUse(b *body.Body) *DefUseInfo {
	return NewDFABuilder().Build(b)
}

// Build creates def-use information for the body
func (b *DFABuilder) Build(bd *body.Body) *DefUseInfo {
	b.g = bd.Graph
	b.info = newDefUseInfo()
	b.blockDefs = make(map[graph.BlockID][]*VarReference)
	b.in = make(map[graph.BlockID]defSet)
	b.out = make(map[graph.BlockID]defSet)
	b.defined = make(map[ir.Local]bool)

	b.collectDefinitions()
	b.solve()
	b.linkUses()
	return b.info
}

func (b *DFABuilder) collectDefinitions() {
	for _, blk := range b.g.Blocks() {
		for pos, st := range blk.Stmts() {
			// Touch use chains first so Order follows statement order
			for _, u := range st.Uses() {
				b.info.chain(u)
			}
			def, ok := st.Def()
			if !ok {
				continue
			}
			ref := &VarReference{Local: def, Kind: defKind(st), Block: blk.ID, Stmt: st, Position: pos}
			c := b.info.chain(def)
			c.Defs = append(c.Defs, ref)
			b.blockDefs[blk.ID] = append(b.blockDefs[blk.ID], ref)
			b.defined[def] = true
		}
	}
}

// transfer computes the definitions live at the end of a block
func (b *DFABuilder) transfer(id graph.BlockID, in defSet) defSet {
	out := make(defSet, len(in))
	killed := make(map[ir.Local]bool)
	for _, d := range b.blockDefs[id] {
		killed[d.Local] = true
	}
	for d := range in {
		if !killed[d.Local] {
			out[d] = true
		}
	}
	last := make(map[ir.Local]*VarReference)
	for _, d := range b.blockDefs[id] {
		last[d.Local] = d
	}
	for _, d := range last {
		out[d] = true
	}
	return out
}

func (b *DFABuilder) solve() {
	order := graph.ComputeDominance(b.g).Order()
	for _, id := range order {
		b.in[id] = make(defSet)
		b.out[id] = b.transfer(id, b.in[id])
	}

	for changed := true; changed; {
		changed = false
		for _, id := range order {
			in := make(defSet)
			for _, e := range b.g.IncomingEdges(id) {
				if _, ok := b.out[e.From]; !ok {
					continue // unreachable source
				}
				switch e.Kind {
				case graph.EdgeNormal:
					in.union(b.out[e.From])
				case graph.EdgeExceptional:
					in.union(b.in[e.From])
					for _, d := range b.blockDefs[e.From] {
						in[d] = true
					}
				}
			}
			if b.in[id].union(in) {
				b.out[id] = b.transfer(id, b.in[id])
				changed = true
			}
		}
	}
}

func (b *DFABuilder) linkUses() {
	for _, blk := range b.g.Blocks() {
		reaching := make(map[ir.Local][]*VarReference)
		for d := range b.in[blk.ID] {
			reaching[d.Local] = append(reaching[d.Local], d)
		}

		defIdx := 0
		defs := b.blockDefs[blk.ID]
		for pos, st := range blk.Stmts() {
			kind := useKind(st)
			for _, u := range st.Uses() {
				ref := &VarReference{Local: u, Kind: kind, Block: blk.ID, Stmt: st, Position: pos}
				c := b.info.chain(u)
				c.Uses = append(c.Uses, ref)

				sources := reaching[u]
				for _, d := range sortedRefs(sources) {
					c.Pairs = append(c.Pairs, &DefUsePair{Def: d, Use: ref})
				}
				if len(sources) == 0 {
					b.info.UnreachedUses = append(b.info.UnreachedUses, ref)
				}
				if !b.defined[u] {
					b.info.UndefinedUses = append(b.info.UndefinedUses, ref)
				}
			}
			if defIdx < len(defs) && defs[defIdx].Stmt == st {
				d := defs[defIdx]
				reaching[d.Local] = []*VarReference{d}
				defIdx++
			}
		}
	}
}

// sortedRefs orders definitions by block then position so pair order is
// deterministic
func sortedRefs(refs []*VarReference) []*VarReference {
	out := append([]*VarReference(nil), refs...)
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && refLess(out[j], out[j-1]); j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}

func refLess(a, b *VarReference) bool {
	if a.Block != b.Block {
		return a.Block < b.Block
	}
	return a.Position < b.Position
}
