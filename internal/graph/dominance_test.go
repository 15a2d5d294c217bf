package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ludo-technologies/irscn/internal/ir"
)

func TestComputeDominanceLoop(t *testing.T) {
	g, b := buildLoop(t)
	d := ComputeDominance(g)

	entry := headOf(t, g, b.this)
	header := headOf(t, g, b.cond)
	exit := headOf(t, g, b.ret)
	inner := headOf(t, g, b.cond2)
	thenB := headOf(t, g, b.thenA)
	elseB := headOf(t, g, b.elseA)
	latch := headOf(t, g, b.backJmp)

	assert.Equal(t, entry, d.Root())
	assert.Equal(t, []BlockID{entry, header, inner, thenB, elseB, latch, exit}, d.Order())

	idoms := map[BlockID]BlockID{
		entry:  NoBlock,
		header: entry,
		exit:   header,
		inner:  header,
		thenB:  inner,
		elseB:  inner,
		latch:  inner,
	}
	for id, want := range idoms {
		assert.Equal(t, want, d.Idom(id), "idom of %s", id)
	}

	assert.Equal(t, []BlockID{latch}, d.Frontier(thenB))
	assert.Equal(t, []BlockID{latch}, d.Frontier(elseB))
	assert.Equal(t, []BlockID{header}, d.Frontier(latch))
	assert.Equal(t, []BlockID{header}, d.Frontier(inner))
	assert.Equal(t, []BlockID{header}, d.Frontier(header))
	assert.Empty(t, d.Frontier(entry))
	assert.Empty(t, d.Frontier(exit))

	assert.Equal(t, []BlockID{inner, exit}, d.Children(header))
	assert.Equal(t, []BlockID{thenB, elseB, latch}, d.Children(inner))

	assert.True(t, d.Dominates(header, latch))
	assert.True(t, d.Dominates(latch, latch))
	assert.False(t, d.Dominates(thenB, latch))
}

func TestComputeDominanceExceptionalEdges(t *testing.T) {
	g, b := buildTrapBlockCheck(t)
	d := ComputeDominance(g)

	protected := headOf(t, g, b.initL2)
	fallthroughB := headOf(t, g, b.incL1)
	handler := headOf(t, g, b.handler)
	target := headOf(t, g, b.incL2)
	join := headOf(t, g, b.gotoL5)

	assert.Equal(t, protected, d.Idom(handler))
	assert.Equal(t, protected, d.Idom(join))
	assert.Contains(t, d.Frontier(fallthroughB), handler)
	assert.Contains(t, d.Frontier(target), handler)
	assert.Contains(t, d.Frontier(fallthroughB), join)
	assert.NotContains(t, d.Frontier(protected), handler)
}

func TestComputeDominanceUnreachableAndRootLoop(t *testing.T) {
	head := ir.NewNop()
	back := ir.NewGoto()
	dead := ir.NewReturnVoid()

	g := New()
	_, err := g.AddBlock([]*ir.Stmt{head, back}, nil)
	require.NoError(t, err)
	_, err = g.AddBlock([]*ir.Stmt{dead}, nil)
	require.NoError(t, err)
	require.NoError(t, g.SetStartingStmt(head))
	require.NoError(t, g.AddBranchEdge(back, ir.GotoBranch, head))

	d := ComputeDominance(g)
	root := headOf(t, g, head)
	deadID := headOf(t, g, dead)

	assert.Equal(t, []BlockID{root}, d.Frontier(root))
	assert.False(t, d.Reachable(deadID))
	assert.Equal(t, NoBlock, d.Idom(deadID))
	assert.False(t, d.Dominates(root, deadID))
	_, ok := d.RPOIndex(deadID)
	assert.False(t, ok)

	empty := ComputeDominance(New())
	assert.Equal(t, NoBlock, empty.Root())
	assert.Empty(t, empty.Order())
}
