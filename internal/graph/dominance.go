package graph

// Dominance holds the dominator tree and dominance frontiers of the blocks
// reachable from the starting block. Exceptional edges count as edges from
// the protected block to its handler.
type Dominance struct {
	order    []BlockID
	rpoIndex map[BlockID]int
	idom     map[BlockID]BlockID
	frontier map[BlockID][]BlockID
	children map[BlockID][]BlockID
}

// ComputeDominance computes immediate dominators with the iterative
// Cooper-Harvey-Kennedy scheme over reverse post-order, then the frontiers.
func ComputeDominance(g *StmtGraph) *Dominance {
	d := &Dominance{
		order:    g.SortedBlockIDs(ReversePostOrderForward),
		rpoIndex: make(map[BlockID]int),
		idom:     make(map[BlockID]BlockID),
		frontier: make(map[BlockID][]BlockID),
		children: make(map[BlockID][]BlockID),
	}
	if len(d.order) == 0 {
		return d
	}
	for i, id := range d.order {
		d.rpoIndex[id] = i
	}

	preds := make(map[BlockID][]BlockID, len(d.order))
	for _, id := range d.order {
		for _, e := range g.IncomingEdges(id) {
			if _, ok := d.rpoIndex[e.From]; ok {
				preds[id] = append(preds[id], e.From)
			}
		}
	}

	root := d.order[0]
	d.idom[root] = root
	for changed := true; changed; {
		changed = false
		for _, b := range d.order[1:] {
			newIdom := NoBlock
			for _, p := range preds[b] {
				if _, ok := d.idom[p]; !ok {
					continue
				}
				if newIdom == NoBlock {
					newIdom = p
				} else {
					newIdom = d.intersect(p, newIdom)
				}
			}
			if newIdom == NoBlock {
				continue
			}
			if cur, ok := d.idom[b]; !ok || cur != newIdom {
				d.idom[b] = newIdom
				changed = true
			}
		}
	}

	for _, b := range d.order[1:] {
		d.children[d.idom[b]] = append(d.children[d.idom[b]], b)
	}

	for _, b := range d.order {
		ps := dedupe(preds[b])
		// the root also has the implicit entry edge
		if len(ps) < 2 && !(b == root && len(ps) > 0) {
			continue
		}
		for _, p := range ps {
			if b == root {
				// root is in the frontier of every block on the chain up
				// to and including itself
				for runner := p; ; runner = d.idom[runner] {
					d.addFrontier(runner, b)
					if runner == root {
						break
					}
				}
				continue
			}
			for runner := p; runner != d.idom[b]; runner = d.idom[runner] {
				d.addFrontier(runner, b)
			}
		}
	}
	return d
}

func (d *Dominance) intersect(a, b BlockID) BlockID {
	for a != b {
		for d.rpoIndex[a] > d.rpoIndex[b] {
			a = d.idom[a]
		}
		for d.rpoIndex[b] > d.rpoIndex[a] {
			b = d.idom[b]
		}
	}
	return a
}

func (d *Dominance) addFrontier(of, b BlockID) {
	for _, x := range d.frontier[of] {
		if x == b {
			return
		}
	}
	d.frontier[of] = append(d.frontier[of], b)
}

// Order returns the reachable blocks in reverse post-order
func (d *Dominance) Order() []BlockID {
	return append([]BlockID(nil), d.order...)
}

// Root returns the starting block, NoBlock for an empty graph
func (d *Dominance) Root() BlockID {
	if len(d.order) == 0 {
		return NoBlock
	}
	return d.order[0]
}

// Reachable reports whether the block is reachable from the start
func (d *Dominance) Reachable(id BlockID) bool {
	_, ok := d.rpoIndex[id]
	return ok
}

// RPOIndex returns the reverse post-order position of a reachable block
func (d *Dominance) RPOIndex(id BlockID) (int, bool) {
	i, ok := d.rpoIndex[id]
	return i, ok
}

// Idom returns the immediate dominator, NoBlock for the root and for
// unreachable blocks
func (d *Dominance) Idom(id BlockID) BlockID {
	p, ok := d.idom[id]
	if !ok || id == d.Root() {
		return NoBlock
	}
	return p
}

// Dominates reports whether a dominates b. Every block dominates itself.
func (d *Dominance) Dominates(a, b BlockID) bool {
	if !d.Reachable(a) || !d.Reachable(b) {
		return false
	}
	for {
		if a == b {
			return true
		}
		if b == d.Root() {
			return false
		}
		b = d.idom[b]
	}
}

// Frontier returns the dominance frontier of a block
func (d *Dominance) Frontier(id BlockID) []BlockID {
	return append([]BlockID(nil), d.frontier[id]...)
}

// Children returns the dominator tree children ordered by reverse post-order
func (d *Dominance) Children(id BlockID) []BlockID {
	return append([]BlockID(nil), d.children[id]...)
}
