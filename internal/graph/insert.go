package graph

import (
	"github.com/ludo-technologies/irscn/internal/ir"
)

// InsertBefore splices stmts immediately before target. Edges that entered
// target now enter the first inserted statement.
//
// edges is the protection of the inserted statements:
//   - equal to the protection of target's block: the statements join that
//     block, whether target is its head or not
//   - different, target a block head: the statements form a new block
//     linked before target's block
//   - different, target mid-block: the block is split and the statements
//     form their own block between the two halves
func (g *StmtGraph) InsertBefore(target *ir.Stmt, stmts []*ir.Stmt, edges []ExceptionalEdge) error {
	const op = "InsertBefore"
	if err := g.checkInsertable(op, target, stmts, edges); err != nil {
		return err
	}
	protection := g.resolveProtection(edges)
	tb, pos, _ := g.locate(target)

	switch {
	case sameProtection(tb.exc, protection):
		g.spliceInto(tb, pos, stmts)
	case pos == 0:
		nb := g.newBlock(append([]*ir.Stmt(nil), stmts...))
		g.linkBefore(tb.ID, nb.ID)
		g.redirectIncoming(tb, nb)
		nb.exc = protection
		g.link(nb, 0, tb.ID)
	default:
		g.split(tb, pos)
		nb := g.newBlock(append([]*ir.Stmt(nil), stmts...))
		nb.exc = protection
		g.linkAfter(tb.ID, nb.ID)
		g.interpose(tb, 0, nb)
	}

	if g.start == target {
		g.start = stmts[0]
	}
	return nil
}

// InsertAfter splices stmts immediately after target, which must fall
// through. The protection policy mirrors InsertBefore.
func (g *StmtGraph) InsertAfter(target *ir.Stmt, stmts []*ir.Stmt, edges []ExceptionalEdge) error {
	const op = "InsertAfter"
	if err := g.checkInsertable(op, target, stmts, edges); err != nil {
		return err
	}
	if target.EndsBlock() {
		return newError(op, ErrInvalidInsertion, target).withDetail("target does not fall through")
	}
	protection := g.resolveProtection(edges)
	tb, pos, _ := g.locate(target)

	switch {
	case sameProtection(tb.exc, protection):
		g.spliceInto(tb, pos+1, stmts)
	case pos == tb.Len()-1:
		nb := g.newBlock(append([]*ir.Stmt(nil), stmts...))
		nb.exc = protection
		g.linkAfter(tb.ID, nb.ID)
		g.interpose(tb, 0, nb)
	default:
		g.split(tb, pos+1)
		nb := g.newBlock(append([]*ir.Stmt(nil), stmts...))
		nb.exc = protection
		g.linkAfter(tb.ID, nb.ID)
		g.interpose(tb, 0, nb)
	}
	return nil
}

func (g *StmtGraph) checkInsertable(op string, target *ir.Stmt, stmts []*ir.Stmt, edges []ExceptionalEdge) error {
	if target == nil || !g.Contains(target) {
		return newError(op, ErrDanglingStatement, target).withDetail("target not in graph")
	}
	if len(stmts) == 0 {
		return newError(op, ErrInvalidInsertion, target).withDetail("nothing to insert")
	}
	seen := make(map[*ir.Stmt]bool, len(stmts))
	for _, s := range stmts {
		if s == nil {
			return newError(op, ErrInvalidInsertion, target).withDetail("nil statement")
		}
		if g.Contains(s) || seen[s] {
			return newError(op, ErrInvalidInsertion, s).withDetail("statement already in graph")
		}
		if s.EndsBlock() {
			return newError(op, ErrInvalidInsertion, s).withDetail("inserted statements must fall through")
		}
		seen[s] = true
	}
	for _, e := range edges {
		if e.Handler == nil {
			return newError(op, ErrDanglingStatement, target).withType(e.Type).withDetail("nil handler")
		}
		if seen[e.Handler] {
			return newError(op, ErrInvalidInsertion, e.Handler).withType(e.Type).
				withDetail("handler is part of the inserted sequence")
		}
	}
	return nil
}

// resolveProtection turns handler statements into handler blocks,
// installing or splitting as needed
func (g *StmtGraph) resolveProtection(edges []ExceptionalEdge) []ExceptionalSuccessor {
	var out []ExceptionalSuccessor
	for _, e := range edges {
		hb := g.ensureHead(e.Handler, nil)
		replaced := false
		for i := range out {
			if out[i].Type == e.Type {
				out[i].Handler = hb.ID
				replaced = true
			}
		}
		if !replaced {
			out = append(out, ExceptionalSuccessor{Type: e.Type, Handler: hb.ID})
		}
	}
	return out
}

func (g *StmtGraph) spliceInto(b *Block, at int, stmts []*ir.Stmt) {
	merged := make([]*ir.Stmt, 0, len(b.stmts)+len(stmts))
	merged = append(merged, b.stmts[:at]...)
	merged = append(merged, stmts...)
	merged = append(merged, b.stmts[at:]...)
	b.stmts = merged
	for _, s := range stmts {
		g.stmtToBlock[s] = b.ID
	}
}

// redirectIncoming moves every normal and exceptional edge entering old
// onto nb, keeping predecessor order
func (g *StmtGraph) redirectIncoming(old, nb *Block) {
	for _, p := range old.Predecessors() {
		pb := g.blocks[p]
		for i, s := range pb.succs {
			if s == old.ID {
				g.link(pb, i, nb.ID)
				break
			}
		}
	}
	for _, id := range g.layout {
		b := g.blocks[id]
		for i := range b.exc {
			if b.exc[i].Handler == old.ID {
				b.exc[i].Handler = nb.ID
			}
		}
	}
}

// interpose places mid on slot idx of from, in front of the block the slot
// pointed at. The downstream predecessor entry is replaced in place.
func (g *StmtGraph) interpose(from *Block, idx int, mid *Block) {
	old := from.succs[idx]
	from.succs[idx] = mid.ID
	mid.preds = append(mid.preds, from.ID)
	mid.succs[0] = old
	if old == NoBlock {
		return
	}
	preds := g.blocks[old].preds
	for i, p := range preds {
		if p == from.ID {
			preds[i] = mid.ID
			return
		}
	}
}
