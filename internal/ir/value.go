package ir

import (
	"strconv"
	"strings"
)

// ValueKind represents the kind of an operand value
type ValueKind int

const (
	// ValueNone marks an absent operand (e.g. the value of a void return)
	ValueNone ValueKind = iota
	ValueLocal
	ValueIntConst
	ValueStringConst
	ValueNull
	ValueBinary
	ValueNew
	ValueInvoke
	ValueThisRef
	ValueParamRef
	ValueCaughtException
	ValuePhi
)

// String returns the string representation of the ValueKind
func (k ValueKind) String() string {
	switch k {
	case ValueNone:
		return "none"
	case ValueLocal:
		return "local"
	case ValueIntConst:
		return "int"
	case ValueStringConst:
		return "string"
	case ValueNull:
		return "null"
	case ValueBinary:
		return "binary"
	case ValueNew:
		return "new"
	case ValueInvoke:
		return "invoke"
	case ValueThisRef:
		return "this"
	case ValueParamRef:
		return "parameter"
	case ValueCaughtException:
		return "caughtexception"
	case ValuePhi:
		return "phi"
	default:
		return "unknown"
	}
}

// BinOp is the operator of a binary expression, written as it prints
type BinOp string

// Binary operators
const (
	OpAdd BinOp = "+"
	OpSub BinOp = "-"
	OpMul BinOp = "*"
	OpDiv BinOp = "/"
	OpRem BinOp = "%"
	OpAnd BinOp = "&"
	OpOr  BinOp = "|"
	OpXor BinOp = "^"
	OpShl BinOp = "<<"
	OpShr BinOp = ">>"
	OpEq  BinOp = "=="
	OpNe  BinOp = "!="
	OpLt  BinOp = "<"
	OpLe  BinOp = "<="
	OpGt  BinOp = ">"
	OpGe  BinOp = ">="
)

// IsCondition reports whether the operator is a comparison usable in an if
func (op BinOp) IsCondition() bool {
	switch op {
	case OpEq, OpNe, OpLt, OpLe, OpGt, OpGe:
		return true
	}
	return false
}

// InvokeKind distinguishes the dispatch flavour of a call
type InvokeKind string

// Invoke kinds
const (
	SpecialInvoke   InvokeKind = "specialinvoke"
	VirtualInvoke   InvokeKind = "virtualinvoke"
	InterfaceInvoke InvokeKind = "interfaceinvoke"
	StaticInvoke    InvokeKind = "staticinvoke"
)

// Value is an operand: a tagged variant selected by Kind.
//
// Payload by kind:
//   - ValueLocal: Local
//   - ValueIntConst: Int
//   - ValueStringConst: Str
//   - ValueBinary: Op, Operands[0] and Operands[1]
//   - ValueNew: Type
//   - ValueInvoke: Invoke, Method, Operands (base first unless static)
//   - ValueThisRef: Type
//   - ValueParamRef: Int (index), Type
//   - ValuePhi: Operands (locals, one per incoming edge)
type Value struct {
	Kind     ValueKind
	Local    Local
	Int      int64
	Str      string
	Op       BinOp
	Type     Type
	Invoke   InvokeKind
	Method   string
	Operands []Value
}

// LocalValue wraps a local as an operand
func LocalValue(l Local) Value {
	return Value{Kind: ValueLocal, Local: l}
}

// IntConst creates an integer constant
func IntConst(n int64) Value {
	return Value{Kind: ValueIntConst, Int: n}
}

// StringConst creates a string constant
func StringConst(s string) Value {
	return Value{Kind: ValueStringConst, Str: s}
}

// NullConst creates the null constant
func NullConst() Value {
	return Value{Kind: ValueNull}
}

// Binary creates a binary expression
func Binary(op BinOp, left, right Value) Value {
	return Value{Kind: ValueBinary, Op: op, Operands: []Value{left, right}}
}

// NewExpr creates an allocation of the given type
func NewExpr(t Type) Value {
	return Value{Kind: ValueNew, Type: t}
}

// InvokeExpr creates a call. base is ignored for static invokes.
func InvokeExpr(kind InvokeKind, method string, base Value, args ...Value) Value {
	operands := make([]Value, 0, len(args)+1)
	if kind != StaticInvoke {
		operands = append(operands, base)
	}
	operands = append(operands, args...)
	return Value{Kind: ValueInvoke, Invoke: kind, Method: method, Operands: operands}
}

// ThisRef creates the @this identity reference
func ThisRef(t Type) Value {
	return Value{Kind: ValueThisRef, Type: t}
}

// ParamRef creates the @parameterN identity reference
func ParamRef(index int, t Type) Value {
	return Value{Kind: ValueParamRef, Int: int64(index), Type: t}
}

// CaughtExceptionRef creates the @caughtexception identity reference
func CaughtExceptionRef() Value {
	return Value{Kind: ValueCaughtException}
}

// Phi creates a phi expression over the given locals
func Phi(operands ...Local) Value {
	values := make([]Value, len(operands))
	for i, op := range operands {
		values[i] = LocalValue(op)
	}
	return Value{Kind: ValuePhi, Operands: values}
}

// IsPresent reports whether the value is not ValueNone
func (v Value) IsPresent() bool {
	return v.Kind != ValueNone
}

// Locals returns the locals read by the value in operand order
func (v Value) Locals() []Local {
	var out []Local
	v.collectLocals(&out)
	return out
}

func (v Value) collectLocals(out *[]Local) {
	switch v.Kind {
	case ValueLocal:
		*out = append(*out, v.Local)
	case ValueBinary, ValueInvoke, ValuePhi:
		for _, op := range v.Operands {
			op.collectLocals(out)
		}
	}
}

// MapLocals returns a copy of the value with every local replaced by f
func (v Value) MapLocals(f func(Local) Local) Value {
	switch v.Kind {
	case ValueLocal:
		v.Local = f(v.Local)
	case ValueBinary, ValueInvoke, ValuePhi:
		ops := make([]Value, len(v.Operands))
		for i, op := range v.Operands {
			ops[i] = op.MapLocals(f)
		}
		v.Operands = ops
	}
	return v
}

// String renders the value in Jimple syntax
func (v Value) String() string {
	switch v.Kind {
	case ValueNone:
		return ""
	case ValueLocal:
		return v.Local.String()
	case ValueIntConst:
		return strconv.FormatInt(v.Int, 10)
	case ValueStringConst:
		return strconv.Quote(v.Str)
	case ValueNull:
		return "null"
	case ValueBinary:
		return v.Operands[0].String() + " " + string(v.Op) + " " + v.Operands[1].String()
	case ValueNew:
		return "new " + v.Type.String()
	case ValueInvoke:
		return v.invokeString()
	case ValueThisRef:
		return "@this: " + v.Type.String()
	case ValueParamRef:
		return "@parameter" + strconv.FormatInt(v.Int, 10) + ": " + v.Type.String()
	case ValueCaughtException:
		return "@caughtexception"
	case ValuePhi:
		return "phi(" + joinValues(v.Operands) + ")"
	default:
		return "<invalid>"
	}
}

func (v Value) invokeString() string {
	var sb strings.Builder
	sb.WriteString(string(v.Invoke))
	sb.WriteByte(' ')
	args := v.Operands
	if v.Invoke != StaticInvoke && len(args) > 0 {
		sb.WriteString(args[0].String())
		sb.WriteByte('.')
		args = args[1:]
	}
	sb.WriteByte('<')
	sb.WriteString(v.Method)
	sb.WriteString(">(")
	sb.WriteString(joinValues(args))
	sb.WriteByte(')')
	return sb.String()
}

func joinValues(values []Value) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = v.String()
	}
	return strings.Join(parts, ", ")
}
