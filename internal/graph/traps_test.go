package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ludo-technologies/irscn/internal/ir"
)

func TestBuildTrapsTrapBlockCheck(t *testing.T) {
	g, b := buildTrapBlockCheck(t)
	require.Equal(t, 7, g.BlockCount())

	traps, terminal, err := g.BuildTrapsWithTerminal()
	require.NoError(t, err)
	assert.Nil(t, terminal)
	assert.Equal(t, []Trap{
		{Type: exceptionType, Begin: b.initL2, End: b.handler, Handler: b.handler},
		{Type: exceptionType, Begin: b.incL2, End: b.gotoL5, Handler: b.handler},
	}, traps)
}

func TestBuildTrapsRoundTrip(t *testing.T) {
	g, b := buildTrapBlockCheck(t)
	traps, err := g.BuildTraps()
	require.NoError(t, err)

	t.Run("linear rebuild", func(t *testing.T) {
		body := b.linear()
		body.Regions = nil
		for _, tr := range traps {
			body.Regions = append(body.Regions, ExceptionRegion{
				Type: tr.Type, Begin: tr.Begin, End: tr.End, Handler: tr.Handler,
			})
		}
		rebuilt, err := FromLinear(body)
		require.NoError(t, err)

		again, err := rebuilt.BuildTraps()
		require.NoError(t, err)
		assert.Equal(t, traps, again)
		assert.Equal(t, g.Stmts(), rebuilt.Stmts())
	})

	t.Run("dense exceptional edges", func(t *testing.T) {
		dense := New()
		for _, blk := range g.Blocks() {
			_, err := dense.AddBlock(blk.Stmts(), nil)
			require.NoError(t, err)
		}
		require.NoError(t, dense.SetStartingStmt(b.this))
		for _, blk := range g.Blocks() {
			for _, s := range blk.Stmts() {
				for _, e := range g.ExceptionalEdgesOf(s) {
					require.NoError(t, dense.AddExceptionalEdge(s, e.Type, e.Handler))
				}
			}
		}

		again, err := dense.BuildTraps()
		require.NoError(t, err)
		assert.Equal(t, traps, again)
	})

	t.Run("graph untouched", func(t *testing.T) {
		before := g.Stmts()
		_, err := g.BuildTraps()
		require.NoError(t, err)
		assert.Equal(t, before, g.Stmts())
		assert.Equal(t, 7, g.BlockCount())
	})
}

func TestBuildTrapsDanglingRegion(t *testing.T) {
	first := ir.NewAssign(local("l1"), ir.IntConst(0))
	skip := ir.NewGoto()
	handler := ir.NewIdentity(local("$e"), ir.CaughtExceptionRef())
	handlerRet := ir.NewReturnVoid()
	protected := ir.NewAssign(local("l1"), ir.IntConst(1))
	last := ir.NewReturn(use("l1"))

	g, err := FromLinear(LinearBody{
		Stmts:   []*ir.Stmt{first, skip, handler, handlerRet, protected, last},
		Targets: map[*ir.Stmt][]*ir.Stmt{skip: {protected}},
		Regions: []ExceptionRegion{
			{Type: exceptionType, Begin: protected, Handler: handler},
			{Type: "java.lang.Error", Begin: protected, Handler: handler},
		},
	})
	require.NoError(t, err)

	traps, terminal, err := g.BuildTrapsWithTerminal()
	require.NoError(t, err)
	require.NotNil(t, terminal)
	assert.Equal(t, ir.StmtNop, terminal.Kind)
	assert.False(t, g.Contains(terminal))

	assert.Equal(t, []Trap{
		{Type: exceptionType, Begin: protected, End: terminal, Handler: handler},
		{Type: "java.lang.Error", Begin: protected, End: terminal, Handler: handler},
	}, traps)
}

func TestTrapAggregatorIncompleteTraversal(t *testing.T) {
	g, _ := buildTrapBlockCheck(t)
	agg := NewTrapAggregator(g)

	_, err := agg.Next()
	require.NoError(t, err)
	require.True(t, agg.HasNext())

	_, err = agg.Traps()
	assert.ErrorIs(t, err, ErrIncompleteTraversal)
}

func TestTrapAggregatorInconsistentState(t *testing.T) {
	g, b := buildTrapBlockCheck(t)
	agg := NewTrapAggregator(g)

	first, err := agg.Next()
	require.NoError(t, err)
	require.Same(t, b.this, first.Head())

	// the map changes behind the aggregator's back: the block now claims a
	// region that was never opened
	first.exc = append(first.exc, ExceptionalSuccessor{Type: "java.lang.Error", Handler: headOf(t, g, b.handler)})

	_, err = agg.Next()
	assert.ErrorIs(t, err, ErrInconsistentTrapState)

	var ge *GraphError
	require.ErrorAs(t, err, &ge)
	assert.Equal(t, ir.Type("java.lang.Error"), ge.Type)
}

func TestTrapAggregatorEmptyGraph(t *testing.T) {
	agg := NewTrapAggregator(New())
	assert.False(t, agg.HasNext())
	blk, err := agg.Next()
	assert.NoError(t, err)
	assert.Nil(t, blk)

	traps, err := agg.Traps()
	assert.NoError(t, err)
	assert.Empty(t, traps)
	assert.Nil(t, agg.TerminalStmt())
}

func TestTrapString(t *testing.T) {
	tr := Trap{
		Type:    exceptionType,
		Begin:   ir.NewNop(),
		End:     ir.NewReturnVoid(),
		Handler: ir.NewIdentity(local("$e"), ir.CaughtExceptionRef()),
	}
	assert.Equal(t, `catch java.lang.Exception from "nop" to "return" with "$e := @caughtexception"`, tr.String())
}
