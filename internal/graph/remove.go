package graph

import (
	"github.com/ludo-technologies/irscn/internal/ir"
)

// RemoveStmt removes s from the graph. It fails with ErrDanglingReference
// while a branch or an exceptional edge still targets s; callers redirect
// such edges first. Fall-through flow around s is reconnected.
func (g *StmtGraph) RemoveStmt(s *ir.Stmt) error {
	return g.removeStmt("RemoveStmt", s, false)
}

// RedirectAndRemoveStmt removes s after moving every edge that targets it
// onto the statement control reaches after s.
func (g *StmtGraph) RedirectAndRemoveStmt(s *ir.Stmt) error {
	return g.removeStmt("RedirectAndRemoveStmt", s, true)
}

func (g *StmtGraph) removeStmt(op string, s *ir.Stmt, redirect bool) error {
	b, pos, ok := g.locate(s)
	if !ok {
		return newError(op, ErrDanglingStatement, s)
	}
	if pos == 0 && !redirect {
		if err := g.checkUnreferenced(op, b); err != nil {
			return err
		}
	}

	if b.Len() > 1 {
		g.removeFromBlock(b, pos)
		if g.start == s {
			g.start = b.Head()
		}
		return nil
	}

	next := g.flowSuccessor(b)
	if next == b.ID {
		next = NoBlock
	}
	excPreds := g.ExceptionalPredecessors(b.ID)
	if next == NoBlock && (len(b.preds) > 0 || len(excPreds) > 0) {
		var refs []BlockID
		refs = append(refs, b.preds...)
		refs = append(refs, excPreds...)
		if !(len(refs) == 1 && refs[0] == b.ID) {
			return newError(op, ErrDanglingReference, s).withBlock(b.ID).
				withDetail("no successor to take over %d incoming edges", len(refs))
		}
	}

	for _, p := range b.Predecessors() {
		if p == b.ID {
			continue
		}
		pb := g.blocks[p]
		for i, id := range pb.succs {
			if id == b.ID {
				g.link(pb, i, next)
				break
			}
		}
	}
	for _, p := range excPreds {
		pb := g.blocks[p]
		for i := range pb.exc {
			if pb.exc[i].Handler == b.ID {
				pb.exc[i].Handler = next
			}
		}
	}

	g.unlinkAll(b)
	b.exc = nil
	delete(g.stmtToBlock, s)
	g.blocks[b.ID] = nil
	g.unlinkLayout(b.ID)

	if g.start == s {
		g.start = nil
		if next != NoBlock {
			g.start = g.blocks[next].Head()
		}
	}
	return nil
}

// RemoveBlocks drops a set of blocks with all their statements. It fails
// with ErrDanglingReference when a block outside the set still has an edge
// into it. The starting block cannot be removed.
func (g *StmtGraph) RemoveBlocks(ids []BlockID) error {
	const op = "RemoveBlocks"
	doomed := make(map[BlockID]bool, len(ids))
	for _, id := range ids {
		b := g.Block(id)
		if b == nil {
			return newError(op, ErrDanglingStatement, nil).withBlock(id).withDetail("no such block")
		}
		if g.start != nil && g.stmtToBlock[g.start] == id {
			return newError(op, ErrDanglingReference, g.start).withBlock(id).withDetail("starting block")
		}
		doomed[id] = true
	}
	for _, id := range g.layout {
		if doomed[id] {
			continue
		}
		b := g.blocks[id]
		for _, s := range b.succs {
			if doomed[s] {
				return newError(op, ErrDanglingReference, g.blocks[s].Head()).withBlock(s).
					withDetail("branched to by block %s", id)
			}
		}
		for _, e := range b.exc {
			if doomed[e.Handler] {
				return newError(op, ErrDanglingReference, g.blocks[e.Handler].Head()).withBlock(e.Handler).
					withType(e.Type).withDetail("handler of block %s", id)
			}
		}
	}

	for id := range doomed {
		b := g.blocks[id]
		for i, s := range b.succs {
			if s != NoBlock && !doomed[s] {
				g.link(b, i, NoBlock)
			}
		}
	}
	for id := range doomed {
		for _, s := range g.blocks[id].stmts {
			delete(g.stmtToBlock, s)
		}
		g.blocks[id] = nil
		g.unlinkLayout(id)
	}
	return nil
}

// ReplaceStmt swaps old for repl in place, keeping every edge. A block
// tail can only be replaced by a statement with the same successor count.
func (g *StmtGraph) ReplaceStmt(old, repl *ir.Stmt) error {
	const op = "ReplaceStmt"
	b, pos, ok := g.locate(old)
	if !ok {
		return newError(op, ErrDanglingStatement, old)
	}
	if repl == nil {
		return newError(op, ErrDanglingStatement, old).withDetail("nil replacement")
	}
	if g.Contains(repl) {
		return newError(op, ErrInvalidInsertion, repl).withDetail("replacement already in graph")
	}
	if pos < b.Len()-1 && repl.EndsBlock() {
		return newError(op, ErrInvalidBranch, repl).withBlock(b.ID).
			withDetail("only a block tail may branch or terminate")
	}
	if pos == b.Len()-1 && repl.SuccessorCount() != old.SuccessorCount() {
		return newError(op, ErrInvalidBranch, repl).withBlock(b.ID).
			withDetail("successor count %d differs from %d", repl.SuccessorCount(), old.SuccessorCount())
	}

	b.stmts[pos] = repl
	delete(g.stmtToBlock, old)
	g.stmtToBlock[repl] = b.ID
	if g.start == old {
		g.start = repl
	}
	return nil
}

// checkUnreferenced fails when a branch slot or handler entry targets b.
// Fall-through edges do not count as references.
func (g *StmtGraph) checkUnreferenced(op string, b *Block) error {
	for _, p := range b.preds {
		pb := g.blocks[p]
		for i, id := range pb.succs {
			if id != b.ID {
				continue
			}
			if i == 0 && pb.Tail().FallsThrough() {
				continue
			}
			return newError(op, ErrDanglingReference, b.Head()).withBlock(b.ID).
				withDetail("branched to by %q", pb.Tail().String())
		}
	}
	for _, p := range g.ExceptionalPredecessors(b.ID) {
		for _, e := range g.blocks[p].exc {
			if e.Handler == b.ID {
				return newError(op, ErrDanglingReference, b.Head()).withBlock(b.ID).withType(e.Type).
					withDetail("handler of block %s", p)
			}
		}
	}
	return nil
}

// removeFromBlock drops the statement at pos from a block that keeps at
// least one statement
func (g *StmtGraph) removeFromBlock(b *Block, pos int) {
	s := b.stmts[pos]
	wasTail := pos == b.Len()-1
	var next BlockID
	if wasTail {
		next = g.flowSuccessor(b)
	}

	b.stmts = append(b.stmts[:pos], b.stmts[pos+1:]...)
	delete(g.stmtToBlock, s)

	if wasTail {
		g.unlinkAll(b)
		b.succs = newSlots(b.Tail())
		if next != NoBlock && len(b.succs) > 0 {
			g.link(b, 0, next)
		}
	}
}

// flowSuccessor is the block control reaches from b once its tail is gone:
// the false branch of an if, the target of a goto, the default of a switch
func (g *StmtGraph) flowSuccessor(b *Block) BlockID {
	tail := b.Tail()
	if len(b.succs) == 0 {
		return NoBlock
	}
	switch tail.Kind {
	case ir.StmtIf:
		return b.succs[ir.IfFalseBranch]
	case ir.StmtSwitch:
		return b.succs[len(b.succs)-1]
	default:
		return b.succs[0]
	}
}
