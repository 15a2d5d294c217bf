package analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ludo-technologies/irscn/internal/graph"
	"github.com/ludo-technologies/irscn/internal/ir"
)

func localNames(ls []ir.Local) []string {
	out := make([]string, len(ls))
	for i, l := range ls {
		out[i] = l.String()
	}
	return out
}

func TestBuildDefUseGuarded(t *testing.T) {
	fx := buildGuarded(t)
	s := fx.stmts
	info := BuildDefUse(fx.body)

	assert.Equal(t, []string{"l0", "l1", "l2", "$e", "l4", "l3"}, localNames(info.Order))
	assert.Equal(t, 6, info.TotalDefs())
	assert.Equal(t, 5, info.TotalUses())
	assert.Equal(t, 5, info.TotalPairs())

	t.Run("join sees both arms", func(t *testing.T) {
		chain := info.Chains[local("l2")]
		require.NotNil(t, chain)
		require.Len(t, chain.Pairs, 2)
		assert.Same(t, s[3], chain.Pairs[0].Def.Stmt)
		assert.Same(t, s[5], chain.Pairs[1].Def.Stmt)
		for _, p := range chain.Pairs {
			assert.Same(t, s[6], p.Use.Stmt)
			assert.Equal(t, UseKindControl, p.Use.Kind)
			assert.True(t, p.IsCrossBlock())
		}
	})

	t.Run("handler sees protected entry", func(t *testing.T) {
		chain := info.Chains[local("l1")]
		require.Len(t, chain.Pairs, 2)
		assert.Same(t, s[2], chain.Pairs[0].Use.Stmt)
		assert.False(t, chain.Pairs[0].IsCrossBlock())
		assert.Same(t, s[8], chain.Pairs[1].Use.Stmt)
		assert.Equal(t, graph.BlockID(4), chain.Pairs[1].Use.Block)
	})

	t.Run("definition kinds", func(t *testing.T) {
		assert.Equal(t, DefKindIdentity, info.Chains[ir.NewLocal("l0", "Test")].Defs[0].Kind)
		assert.Equal(t, DefKindAssign, info.Chains[local("l1")].Defs[0].Kind)
		assert.Equal(t, DefKindIdentity, info.Chains[ir.NewLocal("$e", ir.UnknownType)].Defs[0].Kind)
	})

	t.Run("dead block still links locally", func(t *testing.T) {
		chain := info.Chains[local("l3")]
		require.Len(t, chain.Pairs, 1)
		assert.Same(t, s[9], chain.Pairs[0].Def.Stmt)
	})

	t.Run("undefined uses", func(t *testing.T) {
		require.Len(t, info.UndefinedUses, 1)
		assert.Equal(t, "l4", info.UndefinedUses[0].Local.String())
		assert.Equal(t, UseKindRead, info.UndefinedUses[0].Kind)
		require.Len(t, info.UnreachedUses, 1)
		assert.Same(t, info.UndefinedUses[0], info.UnreachedUses[0])
	})
}

func TestBuildDefUseLoop(t *testing.T) {
	s, b := buildCounter(t)
	info := BuildDefUse(b)

	chain := info.Chains[local("l1")]
	require.NotNil(t, chain)
	assert.Len(t, chain.Defs, 2)
	assert.Len(t, chain.Uses, 3)

	// Every use is reached by the initial and the incremented definition
	byUse := make(map[*ir.Stmt][]*ir.Stmt)
	for _, p := range chain.Pairs {
		byUse[p.Use.Stmt] = append(byUse[p.Use.Stmt], p.Def.Stmt)
	}
	for _, u := range []*ir.Stmt{s[1], s[2], s[4]} {
		assert.Equal(t, []*ir.Stmt{s[0], s[2]}, byUse[u], "use %q", u.String())
	}
	assert.Empty(t, info.UndefinedUses)
	assert.Empty(t, info.UnreachedUses)
}

func TestBuildDefUsePhi(t *testing.T) {
	a := local("a")
	phi := ir.NewPhi(a.WithVersion(2), a.WithVersion(0), a.WithVersion(1))
	s := []*ir.Stmt{
		ir.NewAssign(a.WithVersion(0), ir.IntConst(0)),
		ir.NewIf(ir.Binary(ir.OpEq, ir.LocalValue(a.WithVersion(0)), ir.IntConst(0))),
		ir.NewAssign(a.WithVersion(1), ir.IntConst(1)),
		phi,
		ir.NewReturn(ir.LocalValue(a.WithVersion(2))),
	}
	g, err := graph.FromLinear(graph.LinearBody{
		Stmts:   s,
		Targets: map[*ir.Stmt][]*ir.Stmt{s[1]: {phi}},
	})
	require.NoError(t, err)

	info := NewDFABuilder().Build(bodyOf(g))
	assert.Equal(t, DefKindPhi, info.Chains[a.WithVersion(2)].Defs[0].Kind)
	uses := info.Chains[a.WithVersion(1)].Uses
	require.Len(t, uses, 1)
	assert.Equal(t, UseKindPhi, uses[0].Kind)
	assert.Len(t, info.Chains[a.WithVersion(0)].Pairs, 2)
	assert.Empty(t, info.UnreachedUses)
}
