package graph

import (
	"fmt"
)

// Validate checks the structural invariants of the graph and returns every
// violation found; an empty result means the graph is well formed.
func Validate(g *StmtGraph) []error {
	var errs []error
	report := func(format string, args ...interface{}) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	if g.start == nil {
		if len(g.stmtToBlock) > 0 {
			report("graph has %d statements but no starting statement", len(g.stmtToBlock))
		}
	} else if !g.Contains(g.start) {
		report("starting statement %q is not in the graph", g.start.String())
	} else if b, _ := g.BlockOf(g.start); b.Head() != g.start {
		report("starting statement %q does not head its block %s", g.start.String(), b.ID)
	}

	live := make(map[BlockID]bool, len(g.layout))
	for _, id := range g.layout {
		if g.Block(id) == nil {
			report("layout refers to removed block %s", id)
			continue
		}
		if live[id] {
			report("block %s appears twice in the layout", id)
		}
		live[id] = true
	}

	counted := 0
	for _, id := range g.layout {
		b := g.Block(id)
		if b == nil {
			continue
		}
		if len(b.stmts) == 0 {
			report("block %s has no statements", id)
			continue
		}
		counted += len(b.stmts)
		for i, s := range b.stmts {
			if owner, ok := g.stmtToBlock[s]; !ok {
				report("statement %q of block %s is not indexed", s.String(), id)
			} else if owner != id {
				report("statement %q of block %s is indexed under %s", s.String(), id, owner)
			}
			if i < len(b.stmts)-1 && s.EndsBlock() {
				report("statement %q ends block %s before its tail", s.String(), id)
			}
		}

		if len(b.succs) != b.Tail().SuccessorCount() {
			report("block %s has %d successor slots, tail %q needs %d",
				id, len(b.succs), b.Tail().String(), b.Tail().SuccessorCount())
		}
		for i, succ := range b.succs {
			if succ == NoBlock {
				report("block %s leaves branch slot %d unset", id, i)
				continue
			}
			if !live[succ] {
				report("block %s branches to missing block %s", id, succ)
				continue
			}
			if count(g.blocks[succ].preds, id) != count(b.succs, succ) {
				report("edge %s -> %s is not mirrored in the predecessor list", id, succ)
			}
		}
		for _, p := range b.preds {
			if !live[p] {
				report("block %s lists missing predecessor %s", id, p)
				continue
			}
			if count(g.blocks[p].succs, id) == 0 {
				report("block %s lists %s as predecessor without an edge", id, p)
			}
		}
		for _, e := range b.exc {
			if !live[e.Handler] {
				report("block %s maps %s to missing handler %s", id, e.Type, e.Handler)
			}
		}
	}

	if counted != len(g.stmtToBlock) {
		report("statement index holds %d entries, blocks hold %d statements", len(g.stmtToBlock), counted)
	}
	return errs
}

func count(ids []BlockID, id BlockID) int {
	n := 0
	for _, x := range ids {
		if x == id {
			n++
		}
	}
	return n
}
