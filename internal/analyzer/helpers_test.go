package analyzer

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ludo-technologies/irscn/internal/body"
	"github.com/ludo-technologies/irscn/internal/graph"
	"github.com/ludo-technologies/irscn/internal/ir"
)

func local(name string) ir.Local {
	return ir.NewLocal(name, ir.IntType)
}

func use(name string) ir.Value {
	return ir.LocalValue(local(name))
}

// guardedBody is a diamond whose then-arm is protected, followed by the
// handler and a dead tail:
//
//	bb0: l0 := @this; l1 = 0; if l1 < 10 goto bb2
//	bb1: l2 = 1; goto bb3            (protected, handler bb4)
//	bb2: l2 = 2
//	bb3: return l2
//	bb4: $e := @caughtexception; return l1
//	bb5: l3 = l4; return l3          (unreachable)
type guardedBody struct {
	stmts []*ir.Stmt
	body  *body.Body
}

func buildGuarded(t *testing.T) *guardedBody {
	t.Helper()
	s := []*ir.Stmt{
		ir.NewIdentity(ir.NewLocal("l0", "Test"), ir.ThisRef("Test")),
		ir.NewAssign(local("l1"), ir.IntConst(0)),
		ir.NewIf(ir.Binary(ir.OpLt, use("l1"), ir.IntConst(10))),
		ir.NewAssign(local("l2"), ir.IntConst(1)),
		ir.NewGoto(),
		ir.NewAssign(local("l2"), ir.IntConst(2)),
		ir.NewReturn(use("l2")),
		ir.NewIdentity(ir.NewLocal("$e", ir.UnknownType), ir.CaughtExceptionRef()),
		ir.NewReturn(use("l1")),
		ir.NewAssign(local("l3"), use("l4")),
		ir.NewReturn(use("l3")),
	}
	g, err := graph.FromLinear(graph.LinearBody{
		Stmts: s,
		Targets: map[*ir.Stmt][]*ir.Stmt{
			s[2]: {s[5]},
			s[4]: {s[6]},
		},
		Regions: []graph.ExceptionRegion{
			{Type: "java.lang.Exception", Begin: s[3], End: s[5], Handler: s[7]},
		},
	})
	require.NoError(t, err)
	require.Equal(t, 6, g.BlockCount())
	return &guardedBody{stmts: s, body: body.New("Test", "int guarded()", g)}
}

// buildCounter is a single counting loop:
//
//	bb0: l1 = 0
//	bb1: if l1 >= 10 goto bb3
//	bb2: l1 = l1 + 1; goto bb1
//	bb3: return l1
func buildCounter(t *testing.T) ([]*ir.Stmt, *body.Body) {
	t.Helper()
	s := []*ir.Stmt{
		ir.NewAssign(local("l1"), ir.IntConst(0)),
		ir.NewIf(ir.Binary(ir.OpGe, use("l1"), ir.IntConst(10))),
		ir.NewAssign(local("l1"), ir.Binary(ir.OpAdd, use("l1"), ir.IntConst(1))),
		ir.NewGoto(),
		ir.NewReturn(use("l1")),
	}
	g, err := graph.FromLinear(graph.LinearBody{
		Stmts: s,
		Targets: map[*ir.Stmt][]*ir.Stmt{
			s[1]: {s[4]},
			s[3]: {s[1]},
		},
	})
	require.NoError(t, err)
	require.Equal(t, 4, g.BlockCount())
	return s, body.New("Test", "int count()", g)
}

func bodyOf(g *graph.StmtGraph) *body.Body {
	return body.New("Test", "int f()", g)
}
