package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStmtString(t *testing.T) {
	l1 := NewLocal("l1", IntType)
	l2 := NewLocal("l2", IntType)
	stack4 := NewLocal("$stack4", UnknownType)
	this := NewLocal("this", "TrapBlockCheck")

	tests := []struct {
		name     string
		stmt     *Stmt
		expected string
	}{
		{"nop", NewNop(), "nop"},
		{"this identity", NewIdentity(this, ThisRef("TrapBlockCheck")), "this := @this: TrapBlockCheck"},
		{"parameter identity", NewIdentity(l1, ParamRef(0, IntType)), "l1 := @parameter0: int"},
		{"caught exception", NewIdentity(stack4, CaughtExceptionRef()), "$stack4 := @caughtexception"},
		{"assign constant", NewAssign(l2, IntConst(0)), "l2 = 0"},
		{"assign binary", NewAssign(l1, Binary(OpAdd, LocalValue(l1), IntConst(1))), "l1 = l1 + 1"},
		{"if", NewIf(Binary(OpNe, LocalValue(l1), LocalValue(l2))), "if l1 != l2"},
		{"goto", NewGoto(), "goto"},
		{"switch", NewSwitch(LocalValue(l1), 1, 2), "switch(l1)"},
		{"return value", NewReturn(LocalValue(l2)), "return l2"},
		{"return void", NewReturnVoid(), "return"},
		{"throw", NewThrow(LocalValue(stack4)), "throw $stack4"},
		{"new", NewAssign(stack4, NewExpr("java.lang.RuntimeException")), "$stack4 = new java.lang.RuntimeException"},
		{
			"special invoke",
			NewInvokeStmt(InvokeExpr(SpecialInvoke, "java.lang.RuntimeException: void <init>(java.lang.String)",
				LocalValue(stack4), StringConst("error rises!"))),
			`specialinvoke $stack4.<java.lang.RuntimeException: void <init>(java.lang.String)>("error rises!")`,
		},
		{
			"static invoke",
			NewInvokeStmt(InvokeExpr(StaticInvoke, "Util: void log(int)", Value{}, LocalValue(l1))),
			"staticinvoke <Util: void log(int)>(l1)",
		},
		{"phi", NewPhi(l2.WithVersion(4), l2.WithVersion(2), l2.WithVersion(10)), "l2#4 = phi(l2#2, l2#10)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.stmt.String())
		})
	}
}

func TestStmtControlFlowShape(t *testing.T) {
	l1 := NewLocal("l1", IntType)

	tests := []struct {
		name         string
		stmt         *Stmt
		successors   int
		fallsThrough bool
		branches     bool
	}{
		{"assign", NewAssign(l1, IntConst(1)), 1, true, false},
		{"if", NewIf(Binary(OpLt, LocalValue(l1), IntConst(3))), 2, true, true},
		{"goto", NewGoto(), 1, false, true},
		{"switch", NewSwitch(LocalValue(l1), 1, 2, 3), 4, false, true},
		{"return", NewReturnVoid(), 0, false, false},
		{"throw", NewThrow(LocalValue(l1)), 0, false, false},
		{"nop", NewNop(), 1, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.successors, tt.stmt.SuccessorCount())
			assert.Equal(t, tt.fallsThrough, tt.stmt.FallsThrough())
			assert.Equal(t, tt.branches, tt.stmt.Branches())
			assert.Equal(t, tt.branches || !tt.fallsThrough, tt.stmt.EndsBlock())
		})
	}
}

func TestStmtDefsAndUses(t *testing.T) {
	l1 := NewLocal("l1", IntType)
	l2 := NewLocal("l2", IntType)
	l3 := NewLocal("l3", IntType)

	assign := NewAssign(l3, Binary(OpAdd, LocalValue(l1), LocalValue(l2)))
	def, ok := assign.Def()
	require.True(t, ok)
	assert.Equal(t, l3, def)
	assert.Equal(t, []Local{l1, l2}, assign.Uses())

	ret := NewReturn(LocalValue(l3))
	_, ok = ret.Def()
	assert.False(t, ok)
	assert.Equal(t, []Local{l3}, ret.Uses())

	invoke := NewInvokeStmt(InvokeExpr(VirtualInvoke, "A: void m(int,int)", LocalValue(l1), LocalValue(l2), IntConst(4)))
	assert.Equal(t, []Local{l1, l2}, invoke.Uses())

	identity := NewIdentity(l1, ThisRef("A"))
	assert.Empty(t, identity.Uses())
}

func TestStmtReplaceUses(t *testing.T) {
	l1 := NewLocal("l1", IntType)
	l3 := NewLocal("l3", IntType)

	stmt := NewAssign(l3, Binary(OpAdd, LocalValue(l3), LocalValue(l1)))
	original := stmt.Right

	stmt.ReplaceUses(func(l Local) Local { return l.WithVersion(7) })
	stmt.SetDef(l3.WithVersion(9))

	assert.Equal(t, "l3#9 = l3#7 + l1#7", stmt.String())
	// operands are copied, the old value is untouched
	assert.Equal(t, "l3 + l1", original.String())
}

func TestEquivalent(t *testing.T) {
	l1 := NewLocal("l1", IntType)
	a := NewAssign(l1, IntConst(1))
	b := NewAssign(l1, IntConst(1))
	b.Line = 42

	assert.True(t, Equivalent(a, b))
	assert.False(t, a == b)
	assert.False(t, Equivalent(a, NewAssign(l1, IntConst(2))))
	assert.False(t, Equivalent(a, nil))
	assert.True(t, Equivalent(nil, nil))
}

func TestIsPhi(t *testing.T) {
	l := NewLocal("x", IntType)
	assert.True(t, NewPhi(l, l.WithVersion(1), l.WithVersion(2)).IsPhi())
	assert.False(t, NewAssign(l, IntConst(1)).IsPhi())
}

func TestIsCaughtException(t *testing.T) {
	e := NewLocal("$e", UnknownType)
	assert.True(t, NewIdentity(e, CaughtExceptionRef()).IsCaughtException())
	assert.False(t, NewIdentity(e, ThisRef(UnknownType)).IsCaughtException())
	assert.False(t, NewAssign(e, IntConst(0)).IsCaughtException())
}
