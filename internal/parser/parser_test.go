package parser

import (
	"strings"
	"testing"

	"github.com/lavanderhoney/kaledioscope/internal/ast"
	"github.com/lavanderhoney/kaledioscope/internal/lexer"
)

func newParser(src string) *Parser {
	lex := lexer.New(strings.NewReader(src))
	p := New(lex, ast.NewPrecedenceTable())
	p.Next()
	return p
}

func TestParseNumber(t *testing.T) {
	p := newParser("42")
	e, err := p.ParseExpr()
	if err != nil {
		t.Fatal(err)
	}
	n, ok := e.(*ast.Number)
	if !ok || n.Value != 42 {
		t.Fatalf("got %#v", e)
	}
}

func TestParsePrecedence(t *testing.T) {
	// 1 + 2 * 3 - 4 must associate as (1 + (2 * 3)) - 4.
	p := newParser("1 + 2 * 3 - 4")
	e, err := p.ParseExpr()
	if err != nil {
		t.Fatal(err)
	}
	outer, ok := e.(*ast.Binary)
	if !ok || outer.Op != '-' {
		t.Fatalf("outermost op: got %#v", e)
	}
	inner, ok := outer.LHS.(*ast.Binary)
	if !ok || inner.Op != '+' {
		t.Fatalf("lhs op: got %#v", outer.LHS)
	}
	mul, ok := inner.RHS.(*ast.Binary)
	if !ok || mul.Op != '*' {
		t.Fatalf("rhs of +: got %#v", inner.RHS)
	}
}

func TestParseCall(t *testing.T) {
	p := newParser("add(3, 4)")
	e, err := p.ParseExpr()
	if err != nil {
		t.Fatal(err)
	}
	call, ok := e.(*ast.Call)
	if !ok || call.Callee != "add" || len(call.Args) != 2 {
		t.Fatalf("got %#v", e)
	}
}

func TestParseIf(t *testing.T) {
	p := newParser("if a then 1 else 2")
	e, err := p.ParseExpr()
	if err != nil {
		t.Fatal(err)
	}
	ifExpr, ok := e.(*ast.If)
	if !ok {
		t.Fatalf("got %#v", e)
	}
	if _, ok := ifExpr.Cond.(*ast.Variable); !ok {
		t.Errorf("cond: got %#v", ifExpr.Cond)
	}
}

func TestParseForDefaultStep(t *testing.T) {
	p := newParser("for i = 1, i in 0")
	e, err := p.ParseExpr()
	if err != nil {
		t.Fatal(err)
	}
	forExpr, ok := e.(*ast.For)
	if !ok || forExpr.Var != "i" || forExpr.Step != nil {
		t.Fatalf("got %#v", e)
	}
}

func TestParseForExplicitStep(t *testing.T) {
	p := newParser("for i = 1, i, 2 in 0")
	e, err := p.ParseExpr()
	if err != nil {
		t.Fatal(err)
	}
	forExpr := e.(*ast.For)
	if forExpr.Step == nil {
		t.Fatal("expected explicit step")
	}
}

func TestParseVarJuxtaposedBindings(t *testing.T) {
	p := newParser("var a = 1 b = 2 in a + b")
	e, err := p.ParseExpr()
	if err != nil {
		t.Fatal(err)
	}
	v, ok := e.(*ast.Var)
	if !ok || len(v.Bindings) != 2 {
		t.Fatalf("got %#v", e)
	}
	if v.Bindings[0].Name != "a" || v.Bindings[1].Name != "b" {
		t.Fatalf("got %#v", v.Bindings)
	}
}

func TestParseVarDefaultInit(t *testing.T) {
	p := newParser("var a in a")
	e, err := p.ParseExpr()
	if err != nil {
		t.Fatal(err)
	}
	v := e.(*ast.Var)
	if v.Bindings[0].Init != nil {
		t.Fatalf("expected nil init, got %#v", v.Bindings[0].Init)
	}
}

func TestParseUnaryOperator(t *testing.T) {
	p := newParser("-x")
	e, err := p.ParseExpr()
	if err != nil {
		t.Fatal(err)
	}
	u, ok := e.(*ast.Unary)
	if !ok || u.Op != '-' {
		t.Fatalf("got %#v", e)
	}
}

func TestParseBinaryOperatorPrototype(t *testing.T) {
	p := newParser("binary| 5 (a b) a")
	proto, err := p.ParsePrototype()
	if err != nil {
		t.Fatal(err)
	}
	if proto.Name != "binary|" || proto.Kind != ast.BinaryOp || proto.Precedence != 5 {
		t.Fatalf("got %#v", proto)
	}
	if len(proto.Params) != 2 {
		t.Fatalf("params: got %#v", proto.Params)
	}
}

func TestParseBinaryOperatorDefaultPrecedence(t *testing.T) {
	p := newParser("binary| (a b) a")
	proto, err := p.ParsePrototype()
	if err != nil {
		t.Fatal(err)
	}
	if proto.Precedence != 30 {
		t.Fatalf("got precedence %d, want default 30", proto.Precedence)
	}
}

func TestParseBinaryOperatorPrecedenceOutOfRange(t *testing.T) {
	p := newParser("binary| 101 (a b) a")
	if _, err := p.ParsePrototype(); err == nil {
		t.Fatal("expected an error for out-of-range precedence")
	}
}

func TestParseUnaryOperatorArityMismatch(t *testing.T) {
	p := newParser("unary! (a b) a")
	if _, err := p.ParsePrototype(); err == nil {
		t.Fatal("expected an arity error")
	}
}

func TestParseTopLevelExprIsAnonymous(t *testing.T) {
	p := newParser("4 + 5")
	fn, proto, err := p.ParseTop()
	if err != nil {
		t.Fatal(err)
	}
	if proto != nil || fn == nil || fn.Proto.Name != anonExprName {
		t.Fatalf("got fn=%#v proto=%#v", fn, proto)
	}
}

func TestParseDefinitionRegistersPrecedenceSeparately(t *testing.T) {
	// Parsing a binary-operator prototype does not itself mutate the
	// precedence table — that is the lowerer's job when it lowers the
	// definition (see internal/ir), so the parser alone must not see
	// '@' as a binary operator yet.
	prec := ast.NewPrecedenceTable()
	lex := lexer.New(strings.NewReader("def binary@ 5 (a b) a x @ y"))
	p := New(lex, prec)
	p.Next()
	if _, err := p.ParseDefinition(); err != nil {
		t.Fatal(err)
	}
	e, err := p.ParseExpr()
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := e.(*ast.Variable); !ok {
		t.Fatalf("expected parsing to stop at the unregistered '@', got %#v", e)
	}
}

func TestSyntaxErrorOnUnexpectedToken(t *testing.T) {
	p := newParser(")")
	if _, err := p.ParseExpr(); err == nil {
		t.Fatal("expected a syntax error")
	}
}
