package analyzer

import (
	"sort"
	"time"

	"github.com/ludo-technologies/irscn/internal/graph"
)

// ReachabilityResult contains the results of reachability analysis
type ReachabilityResult struct {
	// ReachableBlocks contains blocks that can be reached from the start
	ReachableBlocks map[graph.BlockID]*graph.Block

	// UnreachableBlocks contains blocks that cannot be reached from the start
	UnreachableBlocks map[graph.BlockID]*graph.Block

	// TotalBlocks is the total number of blocks analyzed
	TotalBlocks int

	// ReachableCount is the number of reachable blocks
	ReachableCount int

	// UnreachableCount is the number of unreachable blocks
	UnreachableCount int

	// AnalysisTime is the time taken to perform the analysis
	AnalysisTime time.Duration
}

// ReachabilityAnalyzer performs reachability analysis on statement graphs
type ReachabilityAnalyzer struct {
	g *graph.StmtGraph
}

// NewReachabilityAnalyzer creates a new reachability analyzer for the given graph
func NewReachabilityAnalyzer(g *graph.StmtGraph) *ReachabilityAnalyzer {
	return &ReachabilityAnalyzer{g: g}
}

// AnalyzeReachability is shorthand for NewReachabilityAnalyzer(g).AnalyzeReachability()
func AnalyzeReachability(g *graph.StmtGraph) *ReachabilityResult {
	return NewReachabilityAnalyzer(g).AnalyzeReachability()
}

// AnalyzeReachability follows normal and exceptional edges from the
// starting block. Without a starting statement every block is unreachable.
func (ra *ReachabilityAnalyzer) AnalyzeReachability() *ReachabilityResult {
	startTime := time.Now()

	result := &ReachabilityResult{
		ReachableBlocks:   make(map[graph.BlockID]*graph.Block),
		UnreachableBlocks: make(map[graph.BlockID]*graph.Block),
	}
	if ra.g == nil {
		result.AnalysisTime = time.Since(startTime)
		return result
	}

	blocks := ra.g.Blocks()
	result.TotalBlocks = len(blocks)

	if start := ra.g.StartingBlock(); start != nil {
		ra.traverseFrom(start.ID, result.ReachableBlocks)
	}

	for _, b := range blocks {
		if _, ok := result.ReachableBlocks[b.ID]; !ok {
			result.UnreachableBlocks[b.ID] = b
		}
	}

	result.ReachableCount = len(result.ReachableBlocks)
	result.UnreachableCount = len(result.UnreachableBlocks)
	result.AnalysisTime = time.Since(startTime)
	return result
}

// traverseFrom marks every block reachable from id, iteratively so long
// straight-line bodies cannot exhaust the stack
func (ra *ReachabilityAnalyzer) traverseFrom(id graph.BlockID, reachable map[graph.BlockID]*graph.Block) {
	stack := []graph.BlockID{id}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if _, seen := reachable[cur]; seen {
			continue
		}
		reachable[cur] = ra.g.Block(cur)

		for _, s := range ra.g.Successors(cur) {
			if s != graph.NoBlock {
				stack = append(stack, s)
			}
		}
		for _, e := range ra.g.ExceptionalSuccessors(cur) {
			stack = append(stack, e.Handler)
		}
	}
}

// GetReachabilityRatio returns the ratio of reachable blocks to total blocks
func (result *ReachabilityResult) GetReachabilityRatio() float64 {
	if result.TotalBlocks == 0 {
		return 1.0
	}
	return float64(result.ReachableCount) / float64(result.TotalBlocks)
}

// HasUnreachableCode returns true if any block is unreachable. Blocks are
// never empty, so every unreachable block holds dead statements.
func (result *ReachabilityResult) HasUnreachableCode() bool {
	return result.UnreachableCount > 0
}

// UnreachableIDs returns the unreachable block ids in ascending order
func (result *ReachabilityResult) UnreachableIDs() []graph.BlockID {
	ids := make([]graph.BlockID, 0, len(result.UnreachableBlocks))
	for id := range result.UnreachableBlocks {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// UnreachableStmtCount counts statements in unreachable blocks
func (result *ReachabilityResult) UnreachableStmtCount() int {
	n := 0
	for _, b := range result.UnreachableBlocks {
		n += b.Len()
	}
	return n
}
