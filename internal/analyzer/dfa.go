package analyzer

import (
	"github.com/ludo-technologies/irscn/internal/graph"
	"github.com/ludo-technologies/irscn/internal/ir"
)

// DefUseKind classifies how a local is referenced
type DefUseKind int

const (
	// Definition kinds
	DefKindAssign   DefUseKind = iota // x = ...
	DefKindIdentity                   // x := @this, @parameterN, @caughtexception
	DefKindPhi                        // x = phi(...)

	// Use kinds
	UseKindRead    // ... = x
	UseKindPhi     // phi operand
	UseKindInvoke  // call base or argument
	UseKindControl // if condition, switch key, return or throw operand
)

// String returns the string representation of DefUseKind
func (k DefUseKind) String() string {
	switch k {
	case DefKindAssign:
		return "assign"
	case DefKindIdentity:
		return "identity"
	case DefKindPhi:
		return "phi"
	case UseKindRead:
		return "read"
	case UseKindPhi:
		return "phi_operand"
	case UseKindInvoke:
		return "invoke_arg"
	case UseKindControl:
		return "control"
	default:
		return "unknown"
	}
}

// IsDef returns true if this kind represents a definition
func (k DefUseKind) IsDef() bool {
	return k <= DefKindPhi
}

// VarReference is a single definition or use of a local
type VarReference struct {
	Local    ir.Local
	Kind     DefUseKind
	Block    graph.BlockID
	Stmt     *ir.Stmt
	Position int // index within the block
}

// DefUsePair links a definition to a use it reaches
type DefUsePair struct {
	Def *VarReference
	Use *VarReference
}

// IsCrossBlock returns true if the def and use are in different blocks
func (p *DefUsePair) IsCrossBlock() bool {
	return p.Def.Block != p.Use.Block
}

// DefUseChain holds all def-use relationships of one local
type DefUseChain struct {
	Local ir.Local
	Defs  []*VarReference
	Uses  []*VarReference
	Pairs []*DefUsePair
}

// DefUseInfo holds the def-use information of a body. Chains are keyed by
// the exact local, so each SSA version has its own chain.
type DefUseInfo struct {
	Chains map[ir.Local]*DefUseChain

	// Order lists chain keys in first-reference layout order
	Order []ir.Local

	// UndefinedUses are uses of locals that no statement of the body defines
	UndefinedUses []*VarReference

	// UnreachedUses are uses no definition reaches along any path,
	// including the undefined ones
	UnreachedUses []*VarReference
}

func newDefUseInfo() *DefUseInfo {
	return &DefUseInfo{Chains: make(map[ir.Local]*DefUseChain)}
}

// chain returns the chain for l, creating it if needed
func (info *DefUseInfo) chain(l ir.Local) *DefUseChain {
	if c, ok := info.Chains[l]; ok {
		return c
	}
	c := &DefUseChain{Local: l}
	info.Chains[l] = c
	info.Order = append(info.Order, l)
	return c
}

// TotalDefs returns the total number of definitions
func (info *DefUseInfo) TotalDefs() int {
	total := 0
	for _, c := range info.Chains {
		total += len(c.Defs)
	}
	return total
}

// TotalUses returns the total number of uses
func (info *DefUseInfo) TotalUses() int {
	total := 0
	for _, c := range info.Chains {
		total += len(c.Uses)
	}
	return total
}

// TotalPairs returns the total number of def-use pairs
func (info *DefUseInfo) TotalPairs() int {
	total := 0
	for _, c := range info.Chains {
		total += len(c.Pairs)
	}
	return total
}

// defKind classifies the definition made by st
func defKind(st *ir.Stmt) DefUseKind {
	switch {
	case st.Kind == ir.StmtIdentity:
		return DefKindIdentity
	case st.IsPhi():
		return DefKindPhi
	default:
		return DefKindAssign
	}
}

// useKind classifies the uses made by st
func useKind(st *ir.Stmt) DefUseKind {
	switch {
	case st.IsPhi():
		return UseKindPhi
	case st.Right.Kind == ir.ValueInvoke:
		return UseKindInvoke
	case st.Kind == ir.StmtAssign:
		return UseKindRead
	default:
		return UseKindControl
	}
}
