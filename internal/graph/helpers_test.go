package graph

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ludo-technologies/irscn/internal/ir"
)

const exceptionType ir.Type = "java.lang.Exception"

func local(name string) ir.Local {
	return ir.NewLocal(name, ir.IntType)
}

func use(name string) ir.Value {
	return ir.LocalValue(local(name))
}

// trapBlockBody holds the statements of the TrapBlockCheck fixture by role
type trapBlockBody struct {
	this, initL1, initL2, cond, incL1, gotoL4 *ir.Stmt
	handler, storeL2, alloc, init, throw      *ir.Stmt
	incL2, gotoL5, ret                        *ir.Stmt
}

func (b *trapBlockBody) linear() LinearBody {
	return LinearBody{
		Stmts: []*ir.Stmt{
			b.this, b.initL1,
			b.initL2, b.cond,
			b.incL1, b.gotoL4,
			b.handler, b.storeL2, b.alloc, b.init, b.throw,
			b.incL2,
			b.gotoL5,
			b.ret,
		},
		Targets: map[*ir.Stmt][]*ir.Stmt{
			b.cond:   {b.incL2},
			b.gotoL4: {b.gotoL5},
			b.gotoL5: {b.ret},
		},
		Regions: []ExceptionRegion{
			{Type: exceptionType, Begin: b.initL2, End: b.handler, Handler: b.handler},
			{Type: exceptionType, Begin: b.incL2, End: b.gotoL5, Handler: b.handler},
		},
	}
}

func newTrapBlockBody() *trapBlockBody {
	stack4 := ir.NewLocal("$stack4", ir.UnknownType)
	return &trapBlockBody{
		this:    ir.NewIdentity(ir.NewLocal("this", "TrapBlockCheck"), ir.ThisRef("TrapBlockCheck")),
		initL1:  ir.NewAssign(local("l1"), ir.IntConst(0)),
		initL2:  ir.NewAssign(local("l2"), ir.IntConst(0)),
		cond:    ir.NewIf(ir.Binary(ir.OpNe, use("l1"), use("l2"))),
		incL1:   ir.NewAssign(local("l1"), ir.Binary(ir.OpAdd, use("l1"), ir.IntConst(1))),
		gotoL4:  ir.NewGoto(),
		handler: ir.NewIdentity(ir.NewLocal("$stack3", ir.UnknownType), ir.CaughtExceptionRef()),
		storeL2: ir.NewAssign(local("l2"), ir.LocalValue(ir.NewLocal("$stack3", ir.UnknownType))),
		alloc:   ir.NewAssign(stack4, ir.NewExpr("java.lang.RuntimeException")),
		init: ir.NewInvokeStmt(ir.InvokeExpr(ir.SpecialInvoke,
			"java.lang.RuntimeException: void <init>(java.lang.String)",
			ir.LocalValue(stack4), ir.StringConst("error rises!"))),
		throw:  ir.NewThrow(ir.LocalValue(stack4)),
		incL2:  ir.NewAssign(local("l2"), ir.Binary(ir.OpAdd, use("l2"), ir.IntConst(1))),
		gotoL5: ir.NewGoto(),
		ret:    ir.NewReturnVoid(),
	}
}

func buildTrapBlockCheck(t *testing.T) (*StmtGraph, *trapBlockBody) {
	t.Helper()
	b := newTrapBlockBody()
	g, err := FromLinear(b.linear())
	require.NoError(t, err)
	return g, b
}

// loopBody holds the statements of a counting loop with a diamond inside
type loopBody struct {
	this, a1, a2, a3, cond, ret     *ir.Stmt
	cond2, thenA, thenB, thenGoto   *ir.Stmt
	elseA, elseB, elseGoto, backJmp *ir.Stmt
}

// buildLoop constructs the loop with dense AddEdge calls, the way a
// bytecode frontend would
func buildLoop(t *testing.T) (*StmtGraph, *loopBody) {
	t.Helper()
	b := &loopBody{
		this:     ir.NewIdentity(ir.NewLocal("l0", "Test"), ir.ThisRef("Test")),
		a1:       ir.NewAssign(local("l1"), ir.IntConst(1)),
		a2:       ir.NewAssign(local("l2"), ir.IntConst(2)),
		a3:       ir.NewAssign(local("l3"), ir.IntConst(0)),
		cond:     ir.NewIf(ir.Binary(ir.OpLt, use("l3"), ir.IntConst(100))),
		ret:      ir.NewReturn(use("l2")),
		cond2:    ir.NewIf(ir.Binary(ir.OpLt, use("l2"), ir.IntConst(20))),
		thenA:    ir.NewAssign(local("l2"), use("l1")),
		thenB:    ir.NewAssign(local("l3"), ir.Binary(ir.OpAdd, use("l3"), ir.IntConst(1))),
		thenGoto: ir.NewGoto(),
		elseA:    ir.NewAssign(local("l2"), use("l3")),
		elseB:    ir.NewAssign(local("l3"), ir.Binary(ir.OpAdd, use("l3"), ir.IntConst(2))),
		elseGoto: ir.NewGoto(),
		backJmp:  ir.NewGoto(),
	}

	g := New()
	require.NoError(t, g.SetStartingStmt(b.this))
	require.NoError(t, g.AddEdge(b.this, b.a1))
	require.NoError(t, g.AddEdge(b.a1, b.a2))
	require.NoError(t, g.AddEdge(b.a2, b.a3))
	require.NoError(t, g.AddEdge(b.a3, b.cond))
	require.NoError(t, g.AddBranchEdge(b.cond, ir.IfTrueBranch, b.cond2))
	require.NoError(t, g.AddBranchEdge(b.cond, ir.IfFalseBranch, b.ret))
	require.NoError(t, g.AddBranchEdge(b.cond2, ir.IfTrueBranch, b.thenA))
	require.NoError(t, g.AddEdge(b.thenA, b.thenB))
	require.NoError(t, g.AddEdge(b.thenB, b.thenGoto))
	require.NoError(t, g.AddBranchEdge(b.cond2, ir.IfFalseBranch, b.elseA))
	require.NoError(t, g.AddEdge(b.elseA, b.elseB))
	require.NoError(t, g.AddEdge(b.elseB, b.elseGoto))
	require.NoError(t, g.AddEdge(b.thenGoto, b.backJmp))
	require.NoError(t, g.AddEdge(b.elseGoto, b.backJmp))
	require.NoError(t, g.AddEdge(b.backJmp, b.cond))
	return g, b
}

func headOf(t *testing.T, g *StmtGraph, s *ir.Stmt) BlockID {
	t.Helper()
	b, ok := g.BlockOf(s)
	require.True(t, ok, "statement %q not in graph", s.String())
	require.Same(t, s, b.Head(), "statement %q does not head its block", s.String())
	return b.ID
}
