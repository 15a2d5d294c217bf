package ir

import (
	"reflect"
	"strconv"
)

// StmtKind represents the kind of a statement
type StmtKind int

const (
	// StmtNop does nothing
	StmtNop StmtKind = iota
	// StmtIdentity binds this, a parameter or the caught exception to a local
	StmtIdentity
	// StmtAssign writes a value to a local
	StmtAssign
	// StmtIf branches on a condition: IfFalseBranch falls through
	StmtIf
	// StmtGoto jumps unconditionally
	StmtGoto
	// StmtSwitch jumps by key: one branch per case, then default
	StmtSwitch
	// StmtReturn leaves the body, with or without a value
	StmtReturn
	// StmtThrow raises the exception in its operand
	StmtThrow
	// StmtInvoke calls a method for its effect
	StmtInvoke
)

// String returns the string representation of the StmtKind
func (k StmtKind) String() string {
	switch k {
	case StmtNop:
		return "nop"
	case StmtIdentity:
		return "identity"
	case StmtAssign:
		return "assign"
	case StmtIf:
		return "if"
	case StmtGoto:
		return "goto"
	case StmtSwitch:
		return "switch"
	case StmtReturn:
		return "return"
	case StmtThrow:
		return "throw"
	case StmtInvoke:
		return "invoke"
	default:
		return "unknown"
	}
}

// Branch indices. Branch targets live in the graph, addressed by these
// indices; statements never point at their successors.
const (
	IfFalseBranch = 0
	IfTrueBranch  = 1
	GotoBranch    = 0
)

// Stmt is one IR instruction. Statements compare by identity inside a
// graph; use Equivalent for structural comparison.
type Stmt struct {
	Kind StmtKind

	// Left is the local written by identity and assign statements
	Left Local

	// Right is the single operand slot: the assigned value, the if
	// condition, the switch key, the returned or thrown value, or the
	// invoke expression of an invoke statement
	Right Value

	// Cases holds the switch keys in branch order; default comes last
	Cases []int64

	// Line is the source line, 0 when unknown
	Line int
}

// NewNop creates a no-op marker
func NewNop() *Stmt {
	return &Stmt{Kind: StmtNop}
}

// NewIdentity binds a local to an identity reference (@this, @parameterN,
// @caughtexception)
func NewIdentity(l Local, ref Value) *Stmt {
	return &Stmt{Kind: StmtIdentity, Left: l, Right: ref}
}

// NewAssign creates l = v
func NewAssign(l Local, v Value) *Stmt {
	return &Stmt{Kind: StmtAssign, Left: l, Right: v}
}

// NewPhi creates l = phi(operands...)
func NewPhi(l Local, operands ...Local) *Stmt {
	return NewAssign(l, Phi(operands...))
}

// NewIf creates a conditional branch
func NewIf(cond Value) *Stmt {
	return &Stmt{Kind: StmtIf, Right: cond}
}

// NewGoto creates an unconditional jump
func NewGoto() *Stmt {
	return &Stmt{Kind: StmtGoto}
}

// NewSwitch creates a lookup switch over key
func NewSwitch(key Value, cases ...int64) *Stmt {
	return &Stmt{Kind: StmtSwitch, Right: key, Cases: cases}
}

// NewReturn creates return v
func NewReturn(v Value) *Stmt {
	return &Stmt{Kind: StmtReturn, Right: v}
}

// NewReturnVoid creates a bare return
func NewReturnVoid() *Stmt {
	return &Stmt{Kind: StmtReturn}
}

// NewThrow creates throw v
func NewThrow(v Value) *Stmt {
	return &Stmt{Kind: StmtThrow, Right: v}
}

// NewInvokeStmt wraps an invoke expression as a statement
func NewInvokeStmt(invoke Value) *Stmt {
	return &Stmt{Kind: StmtInvoke, Right: invoke}
}

// Def returns the local written by the statement, if any
func (s *Stmt) Def() (Local, bool) {
	switch s.Kind {
	case StmtIdentity, StmtAssign:
		return s.Left, true
	}
	return Local{}, false
}

// SetDef replaces the written local. It is a no-op for statements that
// write nothing.
func (s *Stmt) SetDef(l Local) {
	if _, ok := s.Def(); ok {
		s.Left = l
	}
}

// Uses returns the locals read by the statement in operand order
func (s *Stmt) Uses() []Local {
	return s.Right.Locals()
}

// ReplaceUses rewrites every read local through f
func (s *Stmt) ReplaceUses(f func(Local) Local) {
	s.Right = s.Right.MapLocals(f)
}

// IsPhi reports whether the statement is an assignment from a phi
func (s *Stmt) IsPhi() bool {
	return s.Kind == StmtAssign && s.Right.Kind == ValuePhi
}

// IsCaughtException reports whether the statement is a
// "x := @caughtexception" identity, which must stay first in a handler
func (s *Stmt) IsCaughtException() bool {
	return s.Kind == StmtIdentity && s.Right.Kind == ValueCaughtException
}

// SuccessorCount returns the number of explicit successor slots
func (s *Stmt) SuccessorCount() int {
	switch s.Kind {
	case StmtIf:
		return 2
	case StmtSwitch:
		return len(s.Cases) + 1
	case StmtReturn, StmtThrow:
		return 0
	default:
		return 1
	}
}

// FallsThrough reports whether control can continue to the next statement
func (s *Stmt) FallsThrough() bool {
	switch s.Kind {
	case StmtGoto, StmtSwitch, StmtReturn, StmtThrow:
		return false
	}
	return true
}

// Branches reports whether the statement names explicit branch targets
func (s *Stmt) Branches() bool {
	switch s.Kind {
	case StmtIf, StmtGoto, StmtSwitch:
		return true
	}
	return false
}

// EndsBlock reports whether a block must end after this statement
func (s *Stmt) EndsBlock() bool {
	return s.Branches() || !s.FallsThrough()
}

// String renders the statement without branch targets; printers append
// labels for the targets.
func (s *Stmt) String() string {
	switch s.Kind {
	case StmtNop:
		return "nop"
	case StmtIdentity:
		return s.Left.String() + " := " + s.Right.String()
	case StmtAssign:
		return s.Left.String() + " = " + s.Right.String()
	case StmtIf:
		return "if " + s.Right.String()
	case StmtGoto:
		return "goto"
	case StmtSwitch:
		return "switch(" + s.Right.String() + ")"
	case StmtReturn:
		if s.Right.IsPresent() {
			return "return " + s.Right.String()
		}
		return "return"
	case StmtThrow:
		return "throw " + s.Right.String()
	case StmtInvoke:
		return s.Right.String()
	default:
		return "<invalid stmt " + strconv.Itoa(int(s.Kind)) + ">"
	}
}

// Equivalent compares two statements by structure, ignoring line info
func Equivalent(a, b *Stmt) bool {
	if a == nil || b == nil {
		return a == b
	}
	x, y := *a, *b
	x.Line, y.Line = 0, 0
	return reflect.DeepEqual(x, y)
}
