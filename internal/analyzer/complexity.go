package analyzer

import (
	"fmt"

	"github.com/ludo-technologies/irscn/internal/body"
	"github.com/ludo-technologies/irscn/internal/config"
	"github.com/ludo-technologies/irscn/internal/graph"
	"github.com/ludo-technologies/irscn/internal/ir"
)

// ComplexityResult holds cyclomatic complexity metrics for a body
type ComplexityResult struct {
	// McCabe cyclomatic complexity
	Complexity int `json:"complexity" yaml:"complexity" msgpack:"complexity"`

	// Raw graph metrics. Edges counts normal and exceptional edges.
	Edges int `json:"edges" yaml:"edges" msgpack:"edges"`
	Nodes int `json:"nodes" yaml:"nodes" msgpack:"nodes"`

	// Body signature
	Signature string `json:"signature" yaml:"signature" msgpack:"signature"`

	// Decision points breakdown
	IfStatements      int `json:"if_statements" yaml:"if_statements" msgpack:"if_statements"`
	LoopBackEdges     int `json:"loop_back_edges" yaml:"loop_back_edges" msgpack:"loop_back_edges"`
	ExceptionHandlers int `json:"exception_handlers" yaml:"exception_handlers" msgpack:"exception_handlers"`
	SwitchCases       int `json:"switch_cases" yaml:"switch_cases" msgpack:"switch_cases"`

	// Risk assessment based on complexity thresholds
	RiskLevel string `json:"risk_level" yaml:"risk_level" msgpack:"risk_level"` // "low", "medium", "high"
}

// GetDetailedMetrics returns the raw counts keyed by name
func (cr *ComplexityResult) GetDetailedMetrics() map[string]int {
	return map[string]int{
		"nodes":              cr.Nodes,
		"edges":              cr.Edges,
		"if_statements":      cr.IfStatements,
		"loop_back_edges":    cr.LoopBackEdges,
		"exception_handlers": cr.ExceptionHandlers,
		"switch_cases":       cr.SwitchCases,
	}
}

// String returns a human-readable representation of the complexity result
func (cr *ComplexityResult) String() string {
	return fmt.Sprintf("Body: %s, Complexity: %d, Risk: %s",
		cr.Signature, cr.Complexity, cr.RiskLevel)
}

// CalculateComplexity computes McCabe cyclomatic complexity using default thresholds
func CalculateComplexity(b *body.Body) *ComplexityResult {
	defaultConfig := config.DefaultConfig()
	return CalculateComplexityWithConfig(b, &defaultConfig.Complexity)
}

// CalculateComplexityWithConfig computes E - N + 2 over the blocks
// reachable from the start, with every returning or throwing block joined
// to one virtual exit. Edges and Nodes report the real graph only. Dead
// blocks are left to reachability analysis. A body without a starting
// statement reports 1.
func CalculateComplexityWithConfig(b *body.Body, complexityConfig *config.ComplexityConfig) *ComplexityResult {
	result := &ComplexityResult{Complexity: 1}
	if b == nil || b.Graph == nil {
		result.RiskLevel = complexityConfig.AssessRiskLevel(result.Complexity)
		return result
	}
	result.Signature = b.Signature()

	g := b.Graph
	dom := graph.ComputeDominance(g)
	handlers := make(map[graph.BlockID]bool)
	exits := 0
	for _, id := range dom.Order() {
		blk := g.Block(id)
		result.Nodes++
		if len(blk.Successors()) == 0 {
			exits++
		}
		for _, s := range blk.Successors() {
			if s != graph.NoBlock {
				result.Edges++
				if dom.Dominates(s, id) {
					result.LoopBackEdges++
				}
			}
		}
		for _, e := range blk.ExceptionalSuccessors() {
			result.Edges++
			handlers[e.Handler] = true
		}

		switch tail := blk.Tail(); tail.Kind {
		case ir.StmtIf:
			result.IfStatements++
		case ir.StmtSwitch:
			result.SwitchCases += len(tail.Cases)
		}
	}
	result.ExceptionHandlers = len(handlers)

	if result.Nodes > 0 {
		edges, nodes := result.Edges, result.Nodes
		if exits > 0 {
			edges += exits
			nodes++
		}
		result.Complexity = edges - nodes + 2
	}
	result.RiskLevel = complexityConfig.AssessRiskLevel(result.Complexity)
	return result
}

// AggregateComplexity holds aggregate metrics over many bodies
type AggregateComplexity struct {
	TotalBodies       int     `json:"total_bodies" yaml:"total_bodies" msgpack:"total_bodies"`
	AverageComplexity float64 `json:"average_complexity" yaml:"average_complexity" msgpack:"average_complexity"`
	MaxComplexity     int     `json:"max_complexity" yaml:"max_complexity" msgpack:"max_complexity"`
	MinComplexity     int     `json:"min_complexity" yaml:"min_complexity" msgpack:"min_complexity"`
	HighRiskCount     int     `json:"high_risk_count" yaml:"high_risk_count" msgpack:"high_risk_count"`
	MediumRiskCount   int     `json:"medium_risk_count" yaml:"medium_risk_count" msgpack:"medium_risk_count"`
	LowRiskCount      int     `json:"low_risk_count" yaml:"low_risk_count" msgpack:"low_risk_count"`
}

// CalculateAggregateComplexity computes aggregate complexity metrics
func CalculateAggregateComplexity(results []*ComplexityResult) *AggregateComplexity {
	if len(results) == 0 {
		return &AggregateComplexity{}
	}

	agg := &AggregateComplexity{
		TotalBodies:   len(results),
		MinComplexity: results[0].Complexity,
		MaxComplexity: results[0].Complexity,
	}

	totalComplexity := 0
	for _, result := range results {
		totalComplexity += result.Complexity

		if result.Complexity > agg.MaxComplexity {
			agg.MaxComplexity = result.Complexity
		}
		if result.Complexity < agg.MinComplexity {
			agg.MinComplexity = result.Complexity
		}

		switch result.RiskLevel {
		case "high":
			agg.HighRiskCount++
		case "medium":
			agg.MediumRiskCount++
		case "low":
			agg.LowRiskCount++
		}
	}

	agg.AverageComplexity = float64(totalComplexity) / float64(len(results))
	return agg
}
