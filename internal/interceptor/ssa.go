package interceptor

import (
	"log"

	"github.com/ludo-technologies/irscn/internal/body"
	"github.com/ludo-technologies/irscn/internal/graph"
	"github.com/ludo-technologies/irscn/internal/ir"
)

// SSAName is the registry name of the SSA former
const SSAName = "ssa"

// SSAFormer rewrites a body into static single assignment form.
//
// Phis are placed on iterated dominance frontiers computed over normal and
// exceptional edges; a handler additionally receives a phi for every local
// defined in a block it protects. An incoming path on which a local has no
// definition yet contributes the unversioned local as the phi operand.
// Handler phis follow a leading caught-exception identity. Renaming walks the dominator tree in
// preorder with one version counter for the whole body. Phis left with
// fewer than two distinct operands are removed again and their uses
// rewritten. Blocks unreachable from the start are not touched.
type SSAFormer struct {
	logger *log.Logger
}

// NewSSAFormer creates an SSA former
func NewSSAFormer() *SSAFormer {
	return &SSAFormer{}
}

// Name implements body.Interceptor
func (f *SSAFormer) Name() string {
	return SSAName
}

// SetLogger enables debug output
func (f *SSAFormer) SetLogger(logger *log.Logger) {
	f.logger = logger
}

// Intercept implements body.Interceptor. A body already in SSA form is
// first brought back to plain form, so running the former twice yields the
// same body as running it once.
func (f *SSAFormer) Intercept(b *body.Body) error {
	g := b.Graph
	if g.StartingStmt() == nil {
		return nil
	}

	dom := graph.ComputeDominance(g)
	removed, err := strip(b, dom)
	if err != nil {
		return err
	}
	if removed {
		dom = graph.ComputeDominance(g)
	}

	s := newSSAState(b, dom)
	s.collectDefs()
	s.placePhis()
	if err := s.insertPhis(); err != nil {
		return err
	}
	s.rename(dom.Root())
	s.fillOperands()
	pruned, err := s.prune()
	if err != nil {
		return err
	}

	f.logf("%s: %d variables, %d phis kept, %d pruned, %d versions",
		b.Signature(), len(s.vars), len(s.sites)-pruned, pruned, s.counter-pruned)
	return nil
}

func (f *SSAFormer) logf(format string, args ...interface{}) {
	if f.logger != nil {
		f.logger.Printf("SSAFormer: "+format, args...)
	}
}

// strip removes phi statements and local versions from the reachable
// blocks. It reports whether any statement was removed.
func strip(b *body.Body, dom *graph.Dominance) (bool, error) {
	g := b.Graph
	var phis []*ir.Stmt
	versioned := false
	for _, id := range dom.Order() {
		for _, st := range g.Block(id).Stmts() {
			if st.IsPhi() {
				phis = append(phis, st)
				continue
			}
			if def, ok := st.Def(); ok && def.Versioned {
				st.SetDef(def.Base())
				versioned = true
			}
			for _, u := range st.Uses() {
				if u.Versioned {
					versioned = true
					break
				}
			}
			st.ReplaceUses(ir.Local.Base)
		}
	}
	for _, p := range phis {
		if err := g.RedirectAndRemoveStmt(p); err != nil {
			return false, err
		}
	}
	if versioned || len(phis) > 0 {
		b.RetainLocals(func(l ir.Local) bool { return !l.Versioned })
	}
	return len(phis) > 0, nil
}

type phiSite struct {
	stmt   *ir.Stmt
	base   ir.Local
	block  graph.BlockID
	pruned bool
}

// versionMap maps a base local to the version visible at some point
type versionMap map[ir.Local]ir.Local

type ssaState struct {
	body *body.Body
	g    *graph.StmtGraph
	dom  *graph.Dominance

	// vars holds base locals in the order of their first definition in
	// layout order
	vars      []ir.Local
	defBlocks map[ir.Local][]graph.BlockID
	phiVars   map[graph.BlockID][]ir.Local

	sites  []*phiSite
	byStmt map[*ir.Stmt]*phiSite

	stacks  map[ir.Local][]ir.Local
	counter int

	entry map[graph.BlockID]versionMap
	exit  map[graph.BlockID]versionMap
	defs  map[graph.BlockID]map[ir.Local][]ir.Local
}

func newSSAState(b *body.Body, dom *graph.Dominance) *ssaState {
	return &ssaState{
		body:      b,
		g:         b.Graph,
		dom:       dom,
		defBlocks: make(map[ir.Local][]graph.BlockID),
		phiVars:   make(map[graph.BlockID][]ir.Local),
		byStmt:    make(map[*ir.Stmt]*phiSite),
		stacks:    make(map[ir.Local][]ir.Local),
		entry:     make(map[graph.BlockID]versionMap),
		exit:      make(map[graph.BlockID]versionMap),
		defs:      make(map[graph.BlockID]map[ir.Local][]ir.Local),
	}
}

func (s *ssaState) collectDefs() {
	for _, blk := range s.g.Blocks() {
		if !s.dom.Reachable(blk.ID) {
			continue
		}
		for _, st := range blk.Stmts() {
			def, ok := st.Def()
			if !ok {
				continue
			}
			def = def.Base()
			blocks, seen := s.defBlocks[def]
			if !seen {
				s.vars = append(s.vars, def)
			}
			if len(blocks) == 0 || blocks[len(blocks)-1] != blk.ID {
				s.defBlocks[def] = append(blocks, blk.ID)
			}
		}
	}
}

// joinTargets are the blocks where a definition in id meets other values:
// its dominance frontier and the handlers protecting it
func (s *ssaState) joinTargets(id graph.BlockID) []graph.BlockID {
	targets := s.dom.Frontier(id)
	for _, e := range s.g.ExceptionalSuccessors(id) {
		targets = append(targets, e.Handler)
	}
	return targets
}

func (s *ssaState) placePhis() {
	for _, v := range s.vars {
		hasPhi := make(map[graph.BlockID]bool)
		queued := make(map[graph.BlockID]bool)
		work := append([]graph.BlockID(nil), s.defBlocks[v]...)
		for _, id := range work {
			queued[id] = true
		}
		for len(work) > 0 {
			x := work[len(work)-1]
			work = work[:len(work)-1]
			for _, y := range s.joinTargets(x) {
				if hasPhi[y] || !s.dom.Reachable(y) {
					continue
				}
				hasPhi[y] = true
				s.phiVars[y] = append(s.phiVars[y], v)
				if !queued[y] {
					queued[y] = true
					work = append(work, y)
				}
			}
		}
	}
}

func (s *ssaState) insertPhis() error {
	for _, blk := range s.g.Blocks() {
		vars := s.phiVars[blk.ID]
		if len(vars) == 0 {
			continue
		}
		head := blk.Head()
		stmts := make([]*ir.Stmt, len(vars))
		for i, v := range vars {
			stmts[i] = ir.NewPhi(v)
			site := &phiSite{stmt: stmts[i], base: v, block: blk.ID}
			s.sites = append(s.sites, site)
			s.byStmt[stmts[i]] = site
		}
		insert := s.g.InsertBefore
		if head.IsCaughtException() {
			insert = s.g.InsertAfter
		}
		if err := insert(head, stmts, s.g.ExceptionalEdgesOf(head)); err != nil {
			return err
		}
	}
	return nil
}

func (s *ssaState) newVersion(base ir.Local) ir.Local {
	v := base.WithVersion(s.counter)
	s.counter++
	s.body.AddLocal(v)
	s.stacks[base] = append(s.stacks[base], v)
	return v
}

func (s *ssaState) top(base ir.Local) (ir.Local, bool) {
	stack := s.stacks[base]
	if len(stack) == 0 {
		return ir.Local{}, false
	}
	return stack[len(stack)-1], true
}

func (s *ssaState) snapshot() versionMap {
	m := make(versionMap, len(s.vars))
	for _, v := range s.vars {
		if top, ok := s.top(v); ok {
			m[v] = top
		}
	}
	return m
}

func (s *ssaState) rename(id graph.BlockID) {
	blk := s.g.Block(id)
	var pushed []ir.Local
	defs := make(map[ir.Local][]ir.Local)
	var entry versionMap

	for i, st := range blk.Stmts() {
		if site, ok := s.byStmt[st]; ok {
			st.SetDef(s.newVersion(site.base))
			pushed = append(pushed, site.base)
			continue
		}
		if i == 0 && st.IsCaughtException() {
			// bound on entry to the handler, so part of its entry state
			def, _ := st.Def()
			st.SetDef(s.newVersion(def.Base()))
			pushed = append(pushed, def.Base())
			continue
		}
		if entry == nil {
			entry = s.snapshot()
		}
		st.ReplaceUses(func(l ir.Local) ir.Local {
			if top, ok := s.top(l.Base()); ok {
				return top
			}
			return l
		})
		if def, ok := st.Def(); ok {
			base := def.Base()
			v := s.newVersion(base)
			st.SetDef(v)
			pushed = append(pushed, base)
			defs[base] = append(defs[base], v)
		}
	}
	if entry == nil {
		entry = s.snapshot()
	}
	s.entry[id] = entry
	s.exit[id] = s.snapshot()
	s.defs[id] = defs

	for _, child := range s.dom.Children(id) {
		s.rename(child)
	}

	for _, base := range pushed {
		stack := s.stacks[base]
		s.stacks[base] = stack[:len(stack)-1]
	}
}

// fillOperands gives every phi one operand per reachable incoming normal
// edge, followed by the entry and interior versions of each protected
// predecessor. A path without a definition yields the unversioned local.
func (s *ssaState) fillOperands() {
	for _, site := range s.sites {
		var ops []ir.Local
		reaching := func(m versionMap) ir.Local {
			if v, ok := m[site.base]; ok {
				return v
			}
			return site.base
		}
		for _, e := range s.g.IncomingEdges(site.block) {
			if !s.dom.Reachable(e.From) {
				continue
			}
			switch e.Kind {
			case graph.EdgeNormal:
				ops = append(ops, reaching(s.exit[e.From]))
			case graph.EdgeExceptional:
				ops = append(ops, reaching(s.entry[e.From]))
				ops = append(ops, s.defs[e.From][site.base]...)
			}
		}
		site.stmt.Right = ir.Phi(ops...)
	}
}

// prune removes phis with fewer than two distinct operands, repeating
// until no phi qualifies, and returns how many were removed
func (s *ssaState) prune() (int, error) {
	subst := make(map[ir.Local]ir.Local)
	resolve := func(l ir.Local) ir.Local {
		for {
			r, ok := subst[l]
			if !ok {
				return l
			}
			l = r
		}
	}

	pruned := 0
	for changed := true; changed; {
		changed = false
		for _, site := range s.sites {
			if site.pruned {
				continue
			}
			def := site.stmt.Left
			var distinct []ir.Local
			for _, op := range site.stmt.Right.Operands {
				l := resolve(op.Local)
				if l == def || containsLocal(distinct, l) {
					continue
				}
				distinct = append(distinct, l)
			}
			if len(distinct) >= 2 {
				continue
			}
			site.pruned = true
			pruned++
			changed = true
			if len(distinct) == 1 {
				subst[def] = distinct[0]
			} else {
				subst[def] = def.Base()
			}
		}
	}
	if pruned == 0 {
		return 0, nil
	}

	for _, id := range s.dom.Order() {
		for _, st := range s.g.Block(id).Stmts() {
			st.ReplaceUses(resolve)
		}
	}
	for _, site := range s.sites {
		if !site.pruned {
			continue
		}
		if err := s.g.RedirectAndRemoveStmt(site.stmt); err != nil {
			return 0, err
		}
	}
	s.body.RetainLocals(func(l ir.Local) bool {
		_, gone := subst[l]
		return !gone
	})
	return pruned, nil
}

func containsLocal(ls []ir.Local, l ir.Local) bool {
	for _, x := range ls {
		if x == l {
			return true
		}
	}
	return false
}
