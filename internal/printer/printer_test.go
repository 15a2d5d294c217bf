package printer

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ludo-technologies/irscn/internal/body"
	"github.com/ludo-technologies/irscn/internal/graph"
	"github.com/ludo-technologies/irscn/internal/ir"
)

const exceptionType ir.Type = "java.lang.Exception"

func local(name string) ir.Local {
	return ir.NewLocal(name, ir.IntType)
}

func use(name string) ir.Value {
	return ir.LocalValue(local(name))
}

func trapBlockCheck(t *testing.T) *body.Body {
	t.Helper()
	stack3 := ir.NewLocal("$stack3", ir.UnknownType)
	stack4 := ir.NewLocal("$stack4", ir.UnknownType)

	this := ir.NewIdentity(ir.NewLocal("this", "TrapBlockCheck"), ir.ThisRef("TrapBlockCheck"))
	initL1 := ir.NewAssign(local("l1"), ir.IntConst(0))
	initL2 := ir.NewAssign(local("l2"), ir.IntConst(0))
	cond := ir.NewIf(ir.Binary(ir.OpNe, use("l1"), use("l2")))
	incL1 := ir.NewAssign(local("l1"), ir.Binary(ir.OpAdd, use("l1"), ir.IntConst(1)))
	gotoL4 := ir.NewGoto()
	handler := ir.NewIdentity(stack3, ir.CaughtExceptionRef())
	storeL2 := ir.NewAssign(local("l2"), ir.LocalValue(stack3))
	alloc := ir.NewAssign(stack4, ir.NewExpr("java.lang.RuntimeException"))
	init := ir.NewInvokeStmt(ir.InvokeExpr(ir.SpecialInvoke,
		"java.lang.RuntimeException: void <init>(java.lang.String)",
		ir.LocalValue(stack4), ir.StringConst("error rises!")))
	throw := ir.NewThrow(ir.LocalValue(stack4))
	incL2 := ir.NewAssign(local("l2"), ir.Binary(ir.OpAdd, use("l2"), ir.IntConst(1)))
	gotoL5 := ir.NewGoto()
	ret := ir.NewReturnVoid()

	g, err := graph.FromLinear(graph.LinearBody{
		Stmts: []*ir.Stmt{
			this, initL1, initL2, cond, incL1, gotoL4,
			handler, storeL2, alloc, init, throw,
			incL2, gotoL5, ret,
		},
		Targets: map[*ir.Stmt][]*ir.Stmt{
			cond:   {incL2},
			gotoL4: {gotoL5},
			gotoL5: {ret},
		},
		Regions: []graph.ExceptionRegion{
			{Type: exceptionType, Begin: initL2, End: handler, Handler: handler},
			{Type: exceptionType, Begin: incL2, End: gotoL5, Handler: handler},
		},
	})
	require.NoError(t, err)

	b := body.New("TrapBlockCheck", "void test()", g)
	b.DeclareUsedLocals()
	return b
}

func TestPrintTrapBlockCheck(t *testing.T) {
	b := trapBlockCheck(t)

	expected := "{\n" +
		"    TrapBlockCheck this;\n" +
		"    int l1, l2;\n" +
		"    unknown $stack3, $stack4;\n" +
		"\n" +
		"\n" +
		"    this := @this: TrapBlockCheck;\n" +
		"    l1 = 0;\n" +
		"\n" +
		"  label1:\n" +
		"    l2 = 0;\n" +
		"\n" +
		"    if l1 != l2 goto label3;\n" +
		"    l1 = l1 + 1;\n" +
		"\n" +
		"    goto label4;\n" +
		"\n" +
		"  label2:\n" +
		"    $stack3 := @caughtexception;\n" +
		"    l2 = $stack3;\n" +
		"    $stack4 = new java.lang.RuntimeException;\n" +
		"    specialinvoke $stack4.<java.lang.RuntimeException: void <init>(java.lang.String)>(\"error rises!\");\n" +
		"\n" +
		"    throw $stack4;\n" +
		"\n" +
		"  label3:\n" +
		"    l2 = l2 + 1;\n" +
		"\n" +
		"  label4:\n" +
		"    goto label5;\n" +
		"\n" +
		"  label5:\n" +
		"    return;\n" +
		"\n" +
		" catch java.lang.Exception from label1 to label2 with label2;\n" +
		" catch java.lang.Exception from label3 to label4 with label2;\n" +
		"}\n"

	got, err := String(b, Options{})
	require.NoError(t, err)
	assert.Equal(t, expected, got)

	var buf bytes.Buffer
	require.NoError(t, Print(&buf, b, Options{}))
	assert.Equal(t, expected, buf.String())

	t.Run("hide traps", func(t *testing.T) {
		got, err := String(b, Options{HideTraps: true})
		require.NoError(t, err)
		assert.NotContains(t, got, "catch")
		assert.Contains(t, got, "  label1:\n", "trap boundaries keep their labels")
	})

	t.Run("trap lines", func(t *testing.T) {
		lines, err := Traps(b)
		require.NoError(t, err)
		assert.Equal(t, []string{
			"catch java.lang.Exception from label1 to label2 with label2;",
			"catch java.lang.Exception from label3 to label4 with label2;",
		}, lines)
	})
}

func TestPrintTerminalNopAndBlocks(t *testing.T) {
	first := ir.NewAssign(local("l1"), ir.IntConst(0))
	skip := ir.NewGoto()
	handler := ir.NewIdentity(local("$e"), ir.CaughtExceptionRef())
	handlerRet := ir.NewReturnVoid()
	protected := ir.NewAssign(local("l1"), ir.IntConst(1))
	last := ir.NewReturn(use("l1"))

	g, err := graph.FromLinear(graph.LinearBody{
		Stmts:   []*ir.Stmt{first, skip, handler, handlerRet, protected, last},
		Targets: map[*ir.Stmt][]*ir.Stmt{skip: {protected}},
		Regions: []graph.ExceptionRegion{
			{Type: exceptionType, Begin: protected, Handler: handler},
			{Type: "java.lang.Error", Begin: protected, Handler: handler},
		},
	})
	require.NoError(t, err)
	b := body.New("Test", "int f()", g)
	b.DeclareUsedLocals()

	expected := "{\n" +
		"    int $e, l1;\n" +
		"\n" +
		"\n" +
		"    // bb0\n" +
		"    l1 = 0;\n" +
		"\n" +
		"    goto label2;\n" +
		"    // bb1\n" +
		"\n" +
		"  label1:\n" +
		"    $e := @caughtexception;\n" +
		"\n" +
		"    return;\n" +
		"    // bb2\n" +
		"\n" +
		"  label2:\n" +
		"    l1 = 1;\n" +
		"\n" +
		"    return l1;\n" +
		"\n" +
		"  label3:\n" +
		"    nop;\n" +
		"\n" +
		" catch java.lang.Exception from label2 to label3 with label1;\n" +
		" catch java.lang.Error from label2 to label3 with label1;\n" +
		"}\n"

	got, err := String(b, Options{ShowBlocks: true})
	require.NoError(t, err)
	assert.Equal(t, expected, got)
	assert.Equal(t, 6, g.StmtCount(), "the terminal nop is not added to the graph")
}

func TestPrintSynthesizesFallThroughJump(t *testing.T) {
	ret := ir.NewReturn(use("l1"))
	assign := ir.NewAssign(local("l1"), ir.IntConst(7))

	g := graph.New()
	_, err := g.AddBlock([]*ir.Stmt{ret}, nil)
	require.NoError(t, err)
	_, err = g.AddBlock([]*ir.Stmt{assign}, nil)
	require.NoError(t, err)
	require.NoError(t, g.SetStartingStmt(assign))
	require.NoError(t, g.AddEdge(assign, ret))

	b := body.New("Test", "int f()", g)
	b.AddLocal(local("l1"))

	expected := "{\n" +
		"    int l1;\n" +
		"\n" +
		"\n" +
		"  label1:\n" +
		"    return l1;\n" +
		"    l1 = 7;\n" +
		"\n" +
		"    goto label1;\n" +
		"}\n"

	got, err := String(b, Options{})
	require.NoError(t, err)
	assert.Equal(t, expected, got)
}

func TestPrintSwitch(t *testing.T) {
	sw := ir.NewSwitch(use("l1"), 1, 2)
	r1 := ir.NewReturn(ir.IntConst(1))
	r2 := ir.NewReturn(ir.IntConst(2))
	rd := ir.NewReturn(ir.IntConst(0))
	g, err := graph.FromLinear(graph.LinearBody{
		Stmts:   []*ir.Stmt{sw, r1, r2, rd},
		Targets: map[*ir.Stmt][]*ir.Stmt{sw: {r1, r2, rd}},
	})
	require.NoError(t, err)
	b := body.New("Test", "int f(int)", g)
	b.DeclareUsedLocals()

	expected := "{\n" +
		"    int l1;\n" +
		"\n" +
		"\n" +
		"    switch(l1) 1:label1 2:label2 default:label3;\n" +
		"\n" +
		"  label1:\n" +
		"    return 1;\n" +
		"\n" +
		"  label2:\n" +
		"    return 2;\n" +
		"\n" +
		"  label3:\n" +
		"    return 0;\n" +
		"}\n"

	got, err := String(b, Options{})
	require.NoError(t, err)
	assert.Equal(t, expected, got)
}

func TestPrintEmptyBody(t *testing.T) {
	got, err := String(body.New("Test", "void f()", nil), Options{})
	require.NoError(t, err)
	assert.Equal(t, "{\n}\n", got)
}
