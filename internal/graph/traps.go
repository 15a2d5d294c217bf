package graph

import (
	"fmt"
	"sort"

	"github.com/ludo-technologies/irscn/internal/ir"
)

// Trap is a linear exception region: statements from Begin up to, but not
// including, End are protected and route exceptions of Type to Handler.
type Trap struct {
	Type    ir.Type
	Begin   *ir.Stmt
	End     *ir.Stmt
	Handler *ir.Stmt
}

// String renders the trap with statement text instead of labels
func (t Trap) String() string {
	return fmt.Sprintf("catch %s from %q to %q with %q", t.Type, t.Begin, t.End, t.Handler)
}

// BlockIterator walks the graph's blocks in layout order
type BlockIterator struct {
	g   *StmtGraph
	pos int
}

// Iterator returns a layout-order iterator over the graph's blocks
func (g *StmtGraph) Iterator() *BlockIterator {
	return &BlockIterator{g: g}
}

// HasNext reports whether blocks remain
func (it *BlockIterator) HasNext() bool {
	return it.pos < len(it.g.layout)
}

// Next returns the next block, nil when exhausted
func (it *BlockIterator) Next() *Block {
	if !it.HasNext() {
		return nil
	}
	b := it.g.blocks[it.g.layout[it.pos]]
	it.pos++
	return b
}

type openRegion struct {
	begin *ir.Stmt
	seq   int
}

type collectedTrap struct {
	trap Trap
	seq  int
}

// TrapAggregator reconstructs traps from per-block exception maps in a
// single pass over the layout order.
type TrapAggregator struct {
	g        *StmtGraph
	it       *BlockIterator
	prev     *Block
	active   map[ir.Type]openRegion
	traps    []collectedTrap
	seq      int
	terminal *ir.Stmt
	finished bool
}

// NewTrapAggregator creates an aggregator positioned before the first block
func NewTrapAggregator(g *StmtGraph) *TrapAggregator {
	return &TrapAggregator{
		g:      g,
		it:     g.Iterator(),
		active: make(map[ir.Type]openRegion),
	}
}

// HasNext reports whether blocks remain to be visited
func (a *TrapAggregator) HasNext() bool {
	return a.it.HasNext()
}

// Next visits the next block, closing regions its predecessor in layout
// had open and opening the ones it starts.
func (a *TrapAggregator) Next() (*Block, error) {
	b := a.it.Next()
	if b == nil {
		return nil, nil
	}

	if a.prev != nil {
		for _, e := range a.prev.exc {
			if h, ok := b.HandlerFor(e.Type); ok && h == e.Handler {
				continue
			}
			if err := a.close(e, b.Head(), b.ID); err != nil {
				return nil, err
			}
		}
	}

	for _, e := range b.exc {
		if a.prev != nil {
			if h, ok := a.prev.HandlerFor(e.Type); ok && h == e.Handler {
				continue
			}
		}
		a.active[e.Type] = openRegion{begin: b.Head(), seq: a.seq}
		a.seq++
	}

	a.prev = b
	return b, nil
}

func (a *TrapAggregator) close(e ExceptionalSuccessor, end *ir.Stmt, at BlockID) error {
	region, ok := a.active[e.Type]
	if !ok {
		return newError("TrapAggregator", ErrInconsistentTrapState, end).withBlock(at).withType(e.Type).
			withDetail("region closes but was never opened")
	}
	delete(a.active, e.Type)
	handler := a.g.Block(e.Handler)
	if handler == nil {
		return newError("TrapAggregator", ErrInconsistentTrapState, end).withBlock(at).withType(e.Type).
			withDetail("handler block %s does not exist", e.Handler)
	}
	a.traps = append(a.traps, collectedTrap{
		trap: Trap{Type: e.Type, Begin: region.begin, End: end, Handler: handler.Head()},
		seq:  region.seq,
	})
	return nil
}

// finish closes regions still open at the end of the stream against a
// synthesized nop marker
func (a *TrapAggregator) finish() error {
	if a.finished {
		return nil
	}
	a.finished = true
	if len(a.active) == 0 {
		return nil
	}

	a.terminal = ir.NewNop()
	open := make([]ExceptionalSuccessor, 0, len(a.active))
	for _, e := range a.prev.exc {
		if _, ok := a.active[e.Type]; ok {
			open = append(open, e)
		}
	}
	sort.SliceStable(open, func(i, j int) bool {
		return a.active[open[i].Type].seq < a.active[open[j].Type].seq
	})
	for _, e := range open {
		if err := a.close(e, a.terminal, a.prev.ID); err != nil {
			return err
		}
	}
	if len(a.active) > 0 {
		return newError("TrapAggregator", ErrInconsistentTrapState, nil).withBlock(a.prev.ID).
			withDetail("%d regions open without a handler in the last block", len(a.active))
	}
	return nil
}

// Traps returns the collected traps in the order their regions opened.
// It fails with ErrIncompleteTraversal until every block has been visited.
func (a *TrapAggregator) Traps() ([]Trap, error) {
	if a.it.HasNext() {
		return nil, newError("TrapAggregator", ErrIncompleteTraversal, nil).
			withDetail("%d of %d blocks visited", a.it.pos, len(a.g.layout))
	}
	if err := a.finish(); err != nil {
		return nil, err
	}

	sorted := append([]collectedTrap(nil), a.traps...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].seq < sorted[j].seq })
	out := make([]Trap, len(sorted))
	for i, c := range sorted {
		out[i] = c.trap
	}
	return out, nil
}

// TerminalStmt returns the nop synthesized to end regions that were still
// open after the last block, nil when every region closed normally
func (a *TrapAggregator) TerminalStmt() *ir.Stmt {
	return a.terminal
}

// BuildTraps derives the trap list of the graph. The graph is not modified.
func (g *StmtGraph) BuildTraps() ([]Trap, error) {
	traps, _, err := g.BuildTrapsWithTerminal()
	return traps, err
}

// BuildTrapsWithTerminal derives the trap list and also returns the
// synthesized terminal statement, if one was needed
func (g *StmtGraph) BuildTrapsWithTerminal() ([]Trap, *ir.Stmt, error) {
	agg := NewTrapAggregator(g)
	for agg.HasNext() {
		if _, err := agg.Next(); err != nil {
			return nil, nil, err
		}
	}
	traps, err := agg.Traps()
	if err != nil {
		return nil, nil, err
	}
	return traps, agg.TerminalStmt(), nil
}
