package graph

import (
	"fmt"
)

// Direction selects the block ordering and predecessor relation a
// dataflow analysis runs over
type Direction int

const (
	// PostOrderBackward treats normal successors as predecessors.
	// Exceptional edges are not part of its predecessor relation.
	PostOrderBackward Direction = iota
	// ReversePostOrderForward uses normal predecessors
	ReversePostOrderForward
)

// String returns the string representation of the Direction
func (d Direction) String() string {
	switch d {
	case PostOrderBackward:
		return "post-order-backward"
	case ReversePostOrderForward:
		return "reverse-post-order-forward"
	default:
		return "unknown"
	}
}

// ParseDirection converts a direction name as printed by String
func ParseDirection(name string) (Direction, error) {
	switch name {
	case "post-order-backward", "backward":
		return PostOrderBackward, nil
	case "reverse-post-order-forward", "forward":
		return ReversePostOrderForward, nil
	default:
		return 0, fmt.Errorf("unknown traversal direction %q", name)
	}
}

type directionStrategy struct {
	predecessors func(g *StmtGraph, id BlockID) []BlockID
	sorted       func(g *StmtGraph) []BlockID
}

var strategies = map[Direction]directionStrategy{
	PostOrderBackward: {
		predecessors: func(g *StmtGraph, id BlockID) []BlockID {
			return dedupe(g.Successors(id))
		},
		sorted: postOrder,
	},
	ReversePostOrderForward: {
		predecessors: func(g *StmtGraph, id BlockID) []BlockID {
			return dedupe(g.Predecessors(id))
		},
		sorted: func(g *StmtGraph) []BlockID {
			order := postOrder(g)
			for i, j := 0, len(order)-1; i < j; i, j = i+1, j-1 {
				order[i], order[j] = order[j], order[i]
			}
			return order
		},
	},
}

// Valid reports whether d is one of the declared directions
func (d Direction) Valid() bool {
	_, ok := strategies[d]
	return ok
}

// strategyFor panics on an undeclared direction. Directions from user
// input go through ParseDirection first.
func strategyFor(d Direction) directionStrategy {
	s, ok := strategies[d]
	if !ok {
		panic(fmt.Sprintf("graph: invalid traversal direction %d", int(d)))
	}
	return s
}

// SortedBlocks returns every block reachable from the starting block, each
// exactly once, in the order of the given direction
func (g *StmtGraph) SortedBlocks(d Direction) []*Block {
	ids := strategyFor(d).sorted(g)
	out := make([]*Block, len(ids))
	for i, id := range ids {
		out[i] = g.blocks[id]
	}
	return out
}

// SortedBlockIDs is SortedBlocks returning ids
func (g *StmtGraph) SortedBlockIDs(d Direction) []BlockID {
	return strategyFor(d).sorted(g)
}

// DirectionPredecessors returns the blocks an analysis in direction d
// treats as predecessors of id
func (g *StmtGraph) DirectionPredecessors(d Direction, id BlockID) []BlockID {
	return strategyFor(d).predecessors(g, id)
}

// postOrder runs an iterative depth-first search from the starting block.
// Children are the normal successor slots in order followed by the
// exceptional successors.
func postOrder(g *StmtGraph) []BlockID {
	start := g.StartingBlock()
	if start == nil {
		return nil
	}

	type frame struct {
		id       BlockID
		children []BlockID
		next     int
	}

	visited := make(map[BlockID]bool, len(g.layout))
	order := make([]BlockID, 0, len(g.layout))
	stack := []frame{{id: start.ID, children: g.dfsChildren(start.ID)}}
	visited[start.ID] = true

	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		if top.next < len(top.children) {
			child := top.children[top.next]
			top.next++
			if !visited[child] {
				visited[child] = true
				stack = append(stack, frame{id: child, children: g.dfsChildren(child)})
			}
			continue
		}
		order = append(order, top.id)
		stack = stack[:len(stack)-1]
	}
	return order
}

func (g *StmtGraph) dfsChildren(id BlockID) []BlockID {
	b := g.blocks[id]
	children := make([]BlockID, 0, len(b.succs)+len(b.exc))
	for _, s := range b.succs {
		if s != NoBlock {
			children = append(children, s)
		}
	}
	for _, e := range b.exc {
		children = append(children, e.Handler)
	}
	return children
}

func dedupe(ids []BlockID) []BlockID {
	seen := make(map[BlockID]bool, len(ids))
	out := make([]BlockID, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
