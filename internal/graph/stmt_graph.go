package graph

import (
	"github.com/ludo-technologies/irscn/internal/ir"
)

// ExceptionalEdge routes an exception type to a handler statement. A list
// of them is the statement-level view of a block's exception map.
type ExceptionalEdge struct {
	Type    ir.Type
	Handler *ir.Stmt
}

// StmtGraph owns the statements of one body and their block decomposition.
//
// Blocks live in an arena addressed by BlockID; edges are stored as id
// lists on both endpoints and the statement to block lookup is kept by the
// graph, so statements never point at each other. The graph has a single
// writer and no internal locking.
type StmtGraph struct {
	blocks      []*Block // nil slots are removed blocks
	layout      []BlockID
	stmtToBlock map[*ir.Stmt]BlockID
	start       *ir.Stmt
}

// New creates an empty statement graph
func New() *StmtGraph {
	return &StmtGraph{
		stmtToBlock: make(map[*ir.Stmt]BlockID),
	}
}

// StartingStmt returns the entry statement, nil for an empty graph
func (g *StmtGraph) StartingStmt() *ir.Stmt {
	return g.start
}

// StartingBlock returns the block holding the entry statement
func (g *StmtGraph) StartingBlock() *Block {
	if g.start == nil {
		return nil
	}
	b, _ := g.BlockOf(g.start)
	return b
}

// Contains reports whether the graph owns the statement
func (g *StmtGraph) Contains(s *ir.Stmt) bool {
	_, ok := g.stmtToBlock[s]
	return ok
}

// BlockOf returns the block containing the statement
func (g *StmtGraph) BlockOf(s *ir.Stmt) (*Block, bool) {
	id, ok := g.stmtToBlock[s]
	if !ok {
		return nil, false
	}
	return g.blocks[id], true
}

// Block returns the block with the given id, nil if it does not exist
func (g *StmtGraph) Block(id BlockID) *Block {
	if id < 0 || int(id) >= len(g.blocks) {
		return nil
	}
	return g.blocks[id]
}

// Blocks returns the live blocks in layout order
func (g *StmtGraph) Blocks() []*Block {
	out := make([]*Block, 0, len(g.layout))
	for _, id := range g.layout {
		out = append(out, g.blocks[id])
	}
	return out
}

// BlockCount returns the number of live blocks
func (g *StmtGraph) BlockCount() int {
	return len(g.layout)
}

// Stmts returns every statement in layout order
func (g *StmtGraph) Stmts() []*ir.Stmt {
	out := make([]*ir.Stmt, 0, len(g.stmtToBlock))
	for _, id := range g.layout {
		out = append(out, g.blocks[id].stmts...)
	}
	return out
}

// StmtCount returns the number of statements owned by the graph
func (g *StmtGraph) StmtCount() int {
	return len(g.stmtToBlock)
}

// Successors returns the set normal successor slots of a block
func (g *StmtGraph) Successors(id BlockID) []BlockID {
	b := g.Block(id)
	if b == nil {
		return nil
	}
	out := make([]BlockID, 0, len(b.succs))
	for _, s := range b.succs {
		if s != NoBlock {
			out = append(out, s)
		}
	}
	return out
}

// Predecessors returns the normal predecessors of a block
func (g *StmtGraph) Predecessors(id BlockID) []BlockID {
	b := g.Block(id)
	if b == nil {
		return nil
	}
	return b.Predecessors()
}

// ExceptionalSuccessors returns the exception map of a block
func (g *StmtGraph) ExceptionalSuccessors(id BlockID) []ExceptionalSuccessor {
	b := g.Block(id)
	if b == nil {
		return nil
	}
	return b.ExceptionalSuccessors()
}

// ExceptionalPredecessors returns, in layout order, the blocks whose
// exception map routes to the given handler block
func (g *StmtGraph) ExceptionalPredecessors(id BlockID) []BlockID {
	var out []BlockID
	for _, bid := range g.layout {
		for _, e := range g.blocks[bid].exc {
			if e.Handler == id {
				out = append(out, bid)
				break
			}
		}
	}
	return out
}

// IncomingEdges returns the normal incoming edges in stored order followed
// by one exceptional edge per protected predecessor in layout order
func (g *StmtGraph) IncomingEdges(id BlockID) []Edge {
	b := g.Block(id)
	if b == nil {
		return nil
	}
	edges := make([]Edge, 0, len(b.preds))
	for _, p := range b.preds {
		edges = append(edges, Edge{From: p, To: id, Kind: EdgeNormal})
	}
	for _, bid := range g.layout {
		for _, e := range g.blocks[bid].exc {
			if e.Handler == id {
				edges = append(edges, Edge{From: bid, To: id, Kind: EdgeExceptional, Type: e.Type})
				break
			}
		}
	}
	return edges
}

// OutgoingEdges returns the normal successor edges followed by the
// exceptional ones
func (g *StmtGraph) OutgoingEdges(id BlockID) []Edge {
	b := g.Block(id)
	if b == nil {
		return nil
	}
	edges := make([]Edge, 0, len(b.succs)+len(b.exc))
	for _, s := range b.succs {
		if s != NoBlock {
			edges = append(edges, Edge{From: id, To: s, Kind: EdgeNormal})
		}
	}
	for _, e := range b.exc {
		edges = append(edges, Edge{From: id, To: e.Handler, Kind: EdgeExceptional, Type: e.Type})
	}
	return edges
}

// BranchTargets returns the target statement of every branch slot of s,
// nil entries where a slot is unset. Non-branching statements return nil.
func (g *StmtGraph) BranchTargets(s *ir.Stmt) []*ir.Stmt {
	b, pos, ok := g.locate(s)
	if !ok || !s.Branches() || pos != b.Len()-1 {
		return nil
	}
	targets := make([]*ir.Stmt, len(b.succs))
	for i, id := range b.succs {
		if id != NoBlock {
			targets[i] = g.blocks[id].Head()
		}
	}
	return targets
}

// StmtSuccessors returns the statements control can flow to normally
func (g *StmtGraph) StmtSuccessors(s *ir.Stmt) []*ir.Stmt {
	b, pos, ok := g.locate(s)
	if !ok {
		return nil
	}
	if pos < b.Len()-1 {
		return []*ir.Stmt{b.stmts[pos+1]}
	}
	var out []*ir.Stmt
	for _, id := range b.succs {
		if id != NoBlock {
			out = append(out, g.blocks[id].Head())
		}
	}
	return out
}

// ExceptionalEdgesOf returns the exception map protecting s, expressed
// with handler statements
func (g *StmtGraph) ExceptionalEdgesOf(s *ir.Stmt) []ExceptionalEdge {
	b, ok := g.BlockOf(s)
	if !ok {
		return nil
	}
	edges := make([]ExceptionalEdge, 0, len(b.exc))
	for _, e := range b.exc {
		edges = append(edges, ExceptionalEdge{Type: e.Type, Handler: g.blocks[e.Handler].Head()})
	}
	return edges
}

// SetStartingStmt makes s the entry statement, installing it as a new
// first block when the graph does not own it yet
func (g *StmtGraph) SetStartingStmt(s *ir.Stmt) error {
	if s == nil {
		return newError("SetStartingStmt", ErrDanglingStatement, nil).withDetail("nil statement")
	}
	if b, pos, ok := g.locate(s); ok {
		if pos != 0 {
			g.split(b, pos)
		}
	} else {
		nb := g.newBlock([]*ir.Stmt{s})
		g.linkFirst(nb.ID)
	}
	g.start = s
	return nil
}

// AddBlock installs a straight-line run of new statements as one block at
// the end of the layout. Only the last statement may branch or terminate.
func (g *StmtGraph) AddBlock(stmts []*ir.Stmt, edges []ExceptionalEdge) (*Block, error) {
	const op = "AddBlock"
	if len(stmts) == 0 {
		return nil, newError(op, ErrInvalidInsertion, nil).withDetail("empty block")
	}
	seen := make(map[*ir.Stmt]bool, len(stmts))
	for i, s := range stmts {
		if s == nil {
			return nil, newError(op, ErrDanglingStatement, nil).withDetail("nil statement at %d", i)
		}
		if g.Contains(s) || seen[s] {
			return nil, newError(op, ErrInvalidInsertion, s).withDetail("statement already in graph")
		}
		if i < len(stmts)-1 && s.EndsBlock() {
			return nil, newError(op, ErrInvalidBranch, s).withDetail("only the last statement may end a block")
		}
		seen[s] = true
	}

	b := g.newBlock(append([]*ir.Stmt(nil), stmts...))
	g.linkLast(b.ID)
	for _, e := range edges {
		if err := g.AddExceptionalEdge(b.Head(), e.Type, e.Handler); err != nil {
			return nil, err
		}
	}
	return g.blocks[g.stmtToBlock[stmts[0]]], nil
}

// AddEdge adds the fall-through edge from -> to (branch index 0)
func (g *StmtGraph) AddEdge(from, to *ir.Stmt) error {
	return g.AddBranchEdge(from, 0, to)
}

// AddBranchEdge sets branch slot idx of from to to.
//
// from must be owned by the graph, except on an empty graph where it is
// installed as the starting statement. A to the graph does not own yet is
// installed: appended to from's block when from is a fall-through tail
// without a successor, otherwise as a new block. A to in the middle of a
// block splits that block.
func (g *StmtGraph) AddBranchEdge(from *ir.Stmt, idx int, to *ir.Stmt) error {
	const op = "AddEdge"
	if from == nil || to == nil {
		return newError(op, ErrDanglingStatement, from).withDetail("nil endpoint")
	}

	fb, pos, ok := g.locate(from)
	if !ok {
		if g.start != nil || len(g.stmtToBlock) > 0 {
			return newError(op, ErrDanglingStatement, from).withDetail("source not in graph")
		}
		if err := g.SetStartingStmt(from); err != nil {
			return err
		}
		fb, pos, _ = g.locate(from)
	}

	if idx < 0 || idx >= from.SuccessorCount() {
		return newError(op, ErrInvalidBranch, from).withBlock(fb.ID).
			withDetail("branch index %d out of range [0,%d)", idx, from.SuccessorCount())
	}
	if pos < fb.Len()-1 {
		if fb.stmts[pos+1] == to {
			return nil
		}
		return newError(op, ErrInvalidBranch, from).withBlock(fb.ID).
			withDetail("already falls through to %q", fb.stmts[pos+1].String())
	}

	if !from.Branches() && fb.succs[0] == NoBlock && !g.Contains(to) {
		fb.stmts = append(fb.stmts, to)
		g.stmtToBlock[to] = fb.ID
		fb.succs = newSlots(to)
		return nil
	}

	var after *Block
	if from.FallsThrough() && idx == 0 {
		after = fb
	}
	tb := g.ensureHead(to, after)
	// a split of from's own block moves from into the trailing half
	fb = g.blocks[g.stmtToBlock[from]]
	g.link(fb, idx, tb.ID)
	return nil
}

// AddExceptionalEdge routes exceptions of type t raised in from's block to
// handler. The entry applies to the whole block containing from and
// replaces an existing entry for the same type.
func (g *StmtGraph) AddExceptionalEdge(from *ir.Stmt, t ir.Type, handler *ir.Stmt) error {
	const op = "AddExceptionalEdge"
	if from == nil || handler == nil {
		return newError(op, ErrDanglingStatement, from).withType(t).withDetail("nil endpoint")
	}
	if !g.Contains(from) {
		return newError(op, ErrDanglingStatement, from).withType(t)
	}
	hb := g.ensureHead(handler, nil)
	fb := g.blocks[g.stmtToBlock[from]]
	fb.setHandler(t, hb.ID)
	return nil
}

// RemoveExceptionalEdge drops the entry for t from from's block
func (g *StmtGraph) RemoveExceptionalEdge(from *ir.Stmt, t ir.Type) error {
	b, ok := g.BlockOf(from)
	if !ok {
		return newError("RemoveExceptionalEdge", ErrDanglingStatement, from).withType(t)
	}
	b.removeHandler(t)
	return nil
}

func (g *StmtGraph) locate(s *ir.Stmt) (*Block, int, bool) {
	id, ok := g.stmtToBlock[s]
	if !ok {
		return nil, -1, false
	}
	b := g.blocks[id]
	return b, b.indexOf(s), true
}

func newSlots(tail *ir.Stmt) []BlockID {
	slots := make([]BlockID, tail.SuccessorCount())
	for i := range slots {
		slots[i] = NoBlock
	}
	return slots
}

// newBlock allocates a block in the arena; the caller links it into the layout
func (g *StmtGraph) newBlock(stmts []*ir.Stmt) *Block {
	b := &Block{
		ID:    BlockID(len(g.blocks)),
		stmts: stmts,
		succs: newSlots(stmts[len(stmts)-1]),
	}
	g.blocks = append(g.blocks, b)
	for _, s := range stmts {
		g.stmtToBlock[s] = b.ID
	}
	return b
}

// ensureHead returns the block headed by s, splitting or installing as
// needed. A newly installed block goes right after `after`, or last.
func (g *StmtGraph) ensureHead(s *ir.Stmt, after *Block) *Block {
	if b, pos, ok := g.locate(s); ok {
		if pos == 0 {
			return b
		}
		return g.split(b, pos)
	}
	nb := g.newBlock([]*ir.Stmt{s})
	if after != nil {
		g.linkAfter(after.ID, nb.ID)
	} else {
		g.linkLast(nb.ID)
	}
	return nb
}

// split moves b.stmts[pos:] into a new block linked right after b. The new
// block takes over b's successors and copies its exception map.
func (g *StmtGraph) split(b *Block, pos int) *Block {
	trailing := append([]*ir.Stmt(nil), b.stmts[pos:]...)
	b.stmts = b.stmts[:pos:pos]

	nb := &Block{
		ID:    BlockID(len(g.blocks)),
		stmts: trailing,
		succs: b.succs,
		exc:   append([]ExceptionalSuccessor(nil), b.exc...),
	}
	g.blocks = append(g.blocks, nb)
	for _, s := range trailing {
		g.stmtToBlock[s] = nb.ID
	}
	for _, succ := range nb.succs {
		if succ == NoBlock {
			continue
		}
		preds := g.blocks[succ].preds
		for i, p := range preds {
			if p == b.ID {
				preds[i] = nb.ID
				break
			}
		}
	}

	b.succs = []BlockID{NoBlock}
	g.link(b, 0, nb.ID)
	g.linkAfter(b.ID, nb.ID)
	return nb
}

// link points slot idx of from at to, maintaining the predecessor lists
func (g *StmtGraph) link(from *Block, idx int, to BlockID) {
	if old := from.succs[idx]; old != NoBlock {
		g.blocks[old].removePred(from.ID)
	}
	from.succs[idx] = to
	if to != NoBlock {
		g.blocks[to].preds = append(g.blocks[to].preds, from.ID)
	}
}

func (g *StmtGraph) unlinkAll(b *Block) {
	for i := range b.succs {
		g.link(b, i, NoBlock)
	}
}

func (g *StmtGraph) layoutIndex(id BlockID) int {
	for i, l := range g.layout {
		if l == id {
			return i
		}
	}
	return -1
}

func (g *StmtGraph) linkLast(id BlockID) {
	g.layout = append(g.layout, id)
}

func (g *StmtGraph) linkFirst(id BlockID) {
	g.insertLayout(0, id)
}

func (g *StmtGraph) linkAfter(ref, id BlockID) {
	g.unlinkLayout(id)
	g.insertLayout(g.layoutIndex(ref)+1, id)
}

func (g *StmtGraph) linkBefore(ref, id BlockID) {
	g.unlinkLayout(id)
	g.insertLayout(g.layoutIndex(ref), id)
}

func (g *StmtGraph) insertLayout(at int, id BlockID) {
	g.layout = append(g.layout, NoBlock)
	copy(g.layout[at+1:], g.layout[at:])
	g.layout[at] = id
}

func (g *StmtGraph) unlinkLayout(id BlockID) {
	if i := g.layoutIndex(id); i >= 0 {
		g.layout = append(g.layout[:i], g.layout[i+1:]...)
	}
}
