package frontend

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ludo-technologies/irscn/internal/ir"
)

var invokeKinds = map[string]ir.InvokeKind{
	string(ir.SpecialInvoke):   ir.SpecialInvoke,
	string(ir.VirtualInvoke):   ir.VirtualInvoke,
	string(ir.InterfaceInvoke): ir.InterfaceInvoke,
	string(ir.StaticInvoke):    ir.StaticInvoke,
}

// two-character operators first so that "<=" never lexes as "<"
var binOps = []ir.BinOp{
	ir.OpShl, ir.OpShr, ir.OpLe, ir.OpGe, ir.OpEq, ir.OpNe,
	ir.OpLt, ir.OpGt, ir.OpAdd, ir.OpSub, ir.OpMul, ir.OpDiv,
	ir.OpRem, ir.OpAnd, ir.OpOr, ir.OpXor,
}

// parsedStmt is a statement plus the labels of its explicit targets, in
// branch order
type parsedStmt struct {
	stmt    *ir.Stmt
	targets []string
}

// stmtParser reads one statement line. Locals are typed through types;
// names seen for the first time without a declaration are recorded as
// unknown so every occurrence resolves to the same local.
type stmtParser struct {
	src   string
	pos   int
	types map[string]ir.Type
}

func newStmtParser(src string, types map[string]ir.Type) *stmtParser {
	return &stmtParser{src: src, types: types}
}

func (p *stmtParser) parse() (parsedStmt, error) {
	start := p.pos
	word := p.localWord()
	var (
		ps  parsedStmt
		err error
	)
	switch word {
	case "":
		return ps, p.errorf("expected a statement")
	case "nop":
		ps.stmt = ir.NewNop()
	case "return":
		ps.stmt, err = p.parseReturn()
	case "throw":
		var v ir.Value
		if v, err = p.imm(); err == nil {
			ps.stmt = ir.NewThrow(v)
		}
	case "goto":
		var label string
		if label, err = p.label(); err == nil {
			ps = parsedStmt{stmt: ir.NewGoto(), targets: []string{label}}
		}
	case "if":
		ps, err = p.parseIf()
	case "switch":
		ps, err = p.parseSwitch()
	default:
		if kind, ok := invokeKinds[word]; ok {
			var v ir.Value
			if v, err = p.invoke(kind); err == nil {
				ps.stmt = ir.NewInvokeStmt(v)
			}
			break
		}
		p.pos = start
		ps.stmt, err = p.parseDefinition()
	}
	if err != nil {
		return parsedStmt{}, err
	}
	if !p.done() {
		return parsedStmt{}, p.errorf("unexpected %q", p.src[p.pos:])
	}
	return ps, nil
}

func (p *stmtParser) parseReturn() (*ir.Stmt, error) {
	if p.done() {
		return ir.NewReturnVoid(), nil
	}
	v, err := p.imm()
	if err != nil {
		return nil, err
	}
	return ir.NewReturn(v), nil
}

func (p *stmtParser) parseIf() (parsedStmt, error) {
	cond, err := p.expr()
	if err != nil {
		return parsedStmt{}, err
	}
	if cond.Kind != ir.ValueBinary || !cond.Op.IsCondition() {
		return parsedStmt{}, p.errorf("if needs a comparison, got %q", cond.String())
	}
	if !p.keyword("goto") {
		return parsedStmt{}, p.errorf("expected goto")
	}
	label, err := p.label()
	if err != nil {
		return parsedStmt{}, err
	}
	return parsedStmt{stmt: ir.NewIf(cond), targets: []string{label}}, nil
}

// switch(key) 1:labelA 2:labelB default:labelC
func (p *stmtParser) parseSwitch() (parsedStmt, error) {
	if err := p.expect("("); err != nil {
		return parsedStmt{}, err
	}
	key, err := p.imm()
	if err != nil {
		return parsedStmt{}, err
	}
	if err := p.expect(")"); err != nil {
		return parsedStmt{}, err
	}

	var (
		cases   []int64
		targets []string
	)
	for {
		if p.keyword("default") {
			if err := p.expect(":"); err != nil {
				return parsedStmt{}, err
			}
			label, err := p.label()
			if err != nil {
				return parsedStmt{}, err
			}
			targets = append(targets, label)
			break
		}
		c, err := p.number()
		if err != nil {
			return parsedStmt{}, p.errorf("expected a case key or default")
		}
		if err := p.expect(":"); err != nil {
			return parsedStmt{}, err
		}
		label, err := p.label()
		if err != nil {
			return parsedStmt{}, err
		}
		cases = append(cases, c)
		targets = append(targets, label)
	}
	return parsedStmt{stmt: ir.NewSwitch(key, cases...), targets: targets}, nil
}

// parseDefinition reads "x := ref" or "x = expr"
func (p *stmtParser) parseDefinition() (*ir.Stmt, error) {
	name := p.localWord()
	if name == "" {
		return nil, p.errorf("expected a statement")
	}
	if p.accept(":=") {
		ref, err := p.identityRef()
		if err != nil {
			return nil, err
		}
		if ref.Type != "" {
			if base, _, _, err := ir.ParseLocalName(name); err == nil {
				if _, known := p.types[base]; !known {
					p.types[base] = ref.Type
				}
			}
		}
		l, err := p.local(name)
		if err != nil {
			return nil, err
		}
		return ir.NewIdentity(l, ref), nil
	}

	l, err := p.local(name)
	if err != nil {
		return nil, err
	}
	if err := p.expect("="); err != nil {
		return nil, err
	}
	v, err := p.rvalue()
	if err != nil {
		return nil, err
	}
	return ir.NewAssign(l, v), nil
}

func (p *stmtParser) identityRef() (ir.Value, error) {
	if err := p.expect("@"); err != nil {
		return ir.Value{}, err
	}
	word := p.localWord()
	switch {
	case word == "caughtexception":
		return ir.CaughtExceptionRef(), nil
	case word == "this":
		t, err := p.refType()
		if err != nil {
			return ir.Value{}, err
		}
		return ir.ThisRef(t), nil
	case strings.HasPrefix(word, "parameter"):
		idx, err := strconv.Atoi(strings.TrimPrefix(word, "parameter"))
		if err != nil || idx < 0 {
			return ir.Value{}, p.errorf("invalid parameter reference @%s", word)
		}
		t, err := p.refType()
		if err != nil {
			return ir.Value{}, err
		}
		return ir.ParamRef(idx, t), nil
	}
	return ir.Value{}, p.errorf("unknown identity reference @%s", word)
}

func (p *stmtParser) refType() (ir.Type, error) {
	if err := p.expect(":"); err != nil {
		return "", err
	}
	t := p.typeWord()
	if t == "" {
		return "", p.errorf("expected a type")
	}
	return ir.Type(t), nil
}

func (p *stmtParser) rvalue() (ir.Value, error) {
	start := p.pos
	switch word := p.localWord(); word {
	case "new":
		t := p.typeWord()
		if t == "" {
			return ir.Value{}, p.errorf("expected a type after new")
		}
		return ir.NewExpr(ir.Type(t)), nil
	case "phi":
		return p.phi()
	default:
		if kind, ok := invokeKinds[word]; ok {
			return p.invoke(kind)
		}
	}
	p.pos = start
	return p.expr()
}

// expr reads an immediate optionally followed by an operator and a second
// immediate
func (p *stmtParser) expr() (ir.Value, error) {
	left, err := p.imm()
	if err != nil {
		return ir.Value{}, err
	}
	op, ok := p.binOp()
	if !ok {
		return left, nil
	}
	right, err := p.imm()
	if err != nil {
		return ir.Value{}, err
	}
	return ir.Binary(op, left, right), nil
}

func (p *stmtParser) binOp() (ir.BinOp, bool) {
	p.skipSpace()
	rest := p.src[p.pos:]
	for _, op := range binOps {
		if strings.HasPrefix(rest, string(op)) {
			p.pos += len(op)
			return op, true
		}
	}
	return "", false
}

func (p *stmtParser) phi() (ir.Value, error) {
	if err := p.expect("("); err != nil {
		return ir.Value{}, err
	}
	var ops []ir.Local
	if !p.accept(")") {
		for {
			name := p.localWord()
			l, err := p.local(name)
			if err != nil {
				return ir.Value{}, err
			}
			ops = append(ops, l)
			if p.accept(",") {
				continue
			}
			if err := p.expect(")"); err != nil {
				return ir.Value{}, err
			}
			break
		}
	}
	return ir.Phi(ops...), nil
}

// invoke reads [base.]<signature>(args) after the invoke keyword
func (p *stmtParser) invoke(kind ir.InvokeKind) (ir.Value, error) {
	var base ir.Value
	if kind != ir.StaticInvoke {
		l, err := p.local(p.localWord())
		if err != nil {
			return ir.Value{}, err
		}
		base = ir.LocalValue(l)
		if err := p.expect("."); err != nil {
			return ir.Value{}, err
		}
	}
	sig, err := p.signature()
	if err != nil {
		return ir.Value{}, err
	}
	if err := p.expect("("); err != nil {
		return ir.Value{}, err
	}
	var args []ir.Value
	if !p.accept(")") {
		for {
			arg, err := p.imm()
			if err != nil {
				return ir.Value{}, err
			}
			args = append(args, arg)
			if p.accept(",") {
				continue
			}
			if err := p.expect(")"); err != nil {
				return ir.Value{}, err
			}
			break
		}
	}
	return ir.InvokeExpr(kind, sig, base, args...), nil
}

// signature reads <...> with nested angle brackets, as in
// <java.lang.Object: void <init>()>
func (p *stmtParser) signature() (string, error) {
	if err := p.expect("<"); err != nil {
		return "", err
	}
	start, depth := p.pos, 1
	for ; p.pos < len(p.src); p.pos++ {
		switch p.src[p.pos] {
		case '<':
			depth++
		case '>':
			depth--
			if depth == 0 {
				sig := p.src[start:p.pos]
				p.pos++
				return sig, nil
			}
		}
	}
	return "", p.errorf("unterminated method signature")
}

func (p *stmtParser) imm() (ir.Value, error) {
	switch c := p.peek(); {
	case c == '"':
		return p.stringLiteral()
	case c == '-' || isDigit(c):
		n, err := p.number()
		if err != nil {
			return ir.Value{}, err
		}
		return ir.IntConst(n), nil
	}
	word := p.localWord()
	if word == "" {
		return ir.Value{}, p.errorf("expected an operand")
	}
	if word == "null" {
		return ir.NullConst(), nil
	}
	l, err := p.local(word)
	if err != nil {
		return ir.Value{}, err
	}
	return ir.LocalValue(l), nil
}

func (p *stmtParser) number() (int64, error) {
	p.skipSpace()
	start := p.pos
	if p.pos < len(p.src) && p.src[p.pos] == '-' {
		p.pos++
	}
	for p.pos < len(p.src) && isDigit(p.src[p.pos]) {
		p.pos++
	}
	n, err := strconv.ParseInt(p.src[start:p.pos], 10, 64)
	if err != nil {
		p.pos = start
		return 0, p.errorf("invalid integer %q", p.src[start:])
	}
	return n, nil
}

func (p *stmtParser) stringLiteral() (ir.Value, error) {
	start := p.pos
	for i := p.pos + 1; i < len(p.src); i++ {
		switch p.src[i] {
		case '\\':
			i++
		case '"':
			s, err := strconv.Unquote(p.src[start : i+1])
			if err != nil {
				return ir.Value{}, p.errorf("invalid string literal: %v", err)
			}
			p.pos = i + 1
			return ir.StringConst(s), nil
		}
	}
	return ir.Value{}, p.errorf("unterminated string literal")
}

func (p *stmtParser) local(word string) (ir.Local, error) {
	name, version, versioned, err := ir.ParseLocalName(word)
	if err != nil {
		return ir.Local{}, p.errorf("%v", err)
	}
	if !validName(name) {
		return ir.Local{}, p.errorf("invalid local name %q", word)
	}
	t, ok := p.types[name]
	if !ok {
		t = ir.UnknownType
		p.types[name] = t
	}
	l := ir.NewLocal(name, t)
	if versioned {
		l = l.WithVersion(version)
	}
	return l, nil
}

func (p *stmtParser) label() (string, error) {
	label := p.localWord()
	if !validName(label) {
		return "", p.errorf("expected a label")
	}
	return label, nil
}

func (p *stmtParser) keyword(kw string) bool {
	start := p.pos
	if p.localWord() == kw {
		return true
	}
	p.pos = start
	return false
}

func (p *stmtParser) localWord() string {
	return p.scanWhile(isLocalChar)
}

func (p *stmtParser) typeWord() string {
	return p.scanWhile(func(c byte) bool {
		return isLocalChar(c) || c == '.' || c == '[' || c == ']'
	})
}

func (p *stmtParser) scanWhile(ok func(byte) bool) string {
	p.skipSpace()
	start := p.pos
	for p.pos < len(p.src) && ok(p.src[p.pos]) {
		p.pos++
	}
	return p.src[start:p.pos]
}

func (p *stmtParser) accept(tok string) bool {
	p.skipSpace()
	if strings.HasPrefix(p.src[p.pos:], tok) {
		p.pos += len(tok)
		return true
	}
	return false
}

func (p *stmtParser) expect(tok string) error {
	if !p.accept(tok) {
		return p.errorf("expected %q", tok)
	}
	return nil
}

func (p *stmtParser) peek() byte {
	p.skipSpace()
	if p.pos >= len(p.src) {
		return 0
	}
	return p.src[p.pos]
}

func (p *stmtParser) done() bool {
	p.skipSpace()
	return p.pos >= len(p.src)
}

func (p *stmtParser) skipSpace() {
	for p.pos < len(p.src) && (p.src[p.pos] == ' ' || p.src[p.pos] == '\t') {
		p.pos++
	}
}

func (p *stmtParser) errorf(format string, args ...interface{}) error {
	return fmt.Errorf("column %d: %s", p.pos+1, fmt.Sprintf(format, args...))
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isLocalChar(c byte) bool {
	return c == '_' || c == '$' || c == '#' || isDigit(c) ||
		(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// validName accepts identifiers that do not start with a digit
func validName(s string) bool {
	if s == "" || isDigit(s[0]) || strings.ContainsRune(s, '#') {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !isLocalChar(s[i]) {
			return false
		}
	}
	return true
}
