// Package parser implements the Pratt/precedence-climbing parser over
// internal/lexer's token stream, producing internal/ast nodes.
package parser

import (
	"github.com/lavanderhoney/kaledioscope/internal/ast"
	"github.com/lavanderhoney/kaledioscope/internal/lexer"
	"github.com/lavanderhoney/kaledioscope/internal/token"
)

// anonExprName is the synthetic prototype name a bare top-level
// expression is wrapped in.
const anonExprName = "__anon_expr"

// Parser consumes tokens from a Lexer and produces ast nodes. It owns
// no pipeline-wide state beyond the operator precedence table, which
// the driver passes in so it survives across the many Parser calls
// made against one continuous input stream.
type Parser struct {
	lex  *lexer.Lexer
	prec *ast.PrecedenceTable
}

// New creates a Parser. The caller must call Next once before parsing
// to prime the first token, matching the lexer's own priming contract.
func New(lex *lexer.Lexer, prec *ast.PrecedenceTable) *Parser {
	return &Parser{lex: lex, prec: prec}
}

// Next advances the lexer and returns the new current token.
func (p *Parser) Next() token.Token {
	return p.lex.Advance()
}

func (p *Parser) cur() token.Token {
	return p.lex.Current()
}

func (p *Parser) curIsChar(ch rune) bool {
	t := p.cur()
	return t.Kind == token.CHAR && t.Char == ch
}

func (p *Parser) expectChar(ch rune) error {
	if !p.curIsChar(ch) {
		return errf(p.cur().Pos, "expected '%c'", ch)
	}
	p.Next()
	return nil
}

// ParseTop parses exactly one top-level construct: a def, an extern,
// or a bare expression wrapped in the anonymous prototype. It does
// not consume ';' or EOF — the driver's dispatcher inspects those
// before calling in.
func (p *Parser) ParseTop() (*ast.Function, *ast.Prototype, error) {
	switch p.cur().Kind {
	case token.DEF:
		fn, err := p.ParseDefinition()
		return fn, nil, err
	case token.EXTERN:
		proto, err := p.ParseExtern()
		return nil, proto, err
	default:
		fn, err := p.ParseTopLevelExpr()
		return fn, nil, err
	}
}

// ParseDefinition ::= 'def' prototype expression
func (p *Parser) ParseDefinition() (*ast.Function, error) {
	p.Next() // consume 'def'
	proto, err := p.ParsePrototype()
	if err != nil {
		return nil, err
	}
	body, err := p.ParseExpr()
	if err != nil {
		return nil, err
	}
	return &ast.Function{Proto: proto, Body: body}, nil
}

// ParseExtern ::= 'extern' prototype
func (p *Parser) ParseExtern() (*ast.Prototype, error) {
	p.Next() // consume 'extern'
	return p.ParsePrototype()
}

// ParseTopLevelExpr ::= expression, wrapped in the anonymous prototype.
func (p *Parser) ParseTopLevelExpr() (*ast.Function, error) {
	body, err := p.ParseExpr()
	if err != nil {
		return nil, err
	}
	return &ast.Function{
		Proto: &ast.Prototype{Name: anonExprName, Kind: ast.Regular},
		Body:  body,
	}, nil
}

// ParsePrototype ::= id '(' id* ')'
//
//	| 'binary' OP number? '(' id id ')'
//	| 'unary'  OP         '(' id ')'
func (p *Parser) ParsePrototype() (*ast.Prototype, error) {
	switch p.cur().Kind {
	case token.BINARY:
		return p.parseOperatorPrototype(ast.BinaryOp)
	case token.UNARY:
		return p.parseOperatorPrototype(ast.UnaryOp)
	case token.IDENTIFIER:
		name := p.cur().Text
		p.Next()
		params, err := p.parseParamList()
		if err != nil {
			return nil, err
		}
		return &ast.Prototype{Name: name, Params: params, Kind: ast.Regular}, nil
	default:
		return nil, errf(p.cur().Pos, "expected function name in prototype")
	}
}

func (p *Parser) parseOperatorPrototype(kind ast.ProtoKind) (*ast.Prototype, error) {
	prefix := "unary"
	if kind == ast.BinaryOp {
		prefix = "binary"
	}
	p.Next() // consume 'binary'/'unary'

	if p.cur().Kind != token.CHAR {
		return nil, errf(p.cur().Pos, "expected operator glyph after '%s'", prefix)
	}
	glyph := p.cur().Char
	p.Next()

	precedence := 30
	if kind == ast.BinaryOp && p.cur().Kind == token.NUMBER {
		n := int(p.cur().Num)
		if n < 1 || n > 100 {
			return nil, errf(p.cur().Pos, "invalid precedence: must be between 1 and 100")
		}
		precedence = n
		p.Next()
	}

	params, err := p.parseParamList()
	if err != nil {
		return nil, err
	}

	wantArity := 1
	if kind == ast.BinaryOp {
		wantArity = 2
	}
	if len(params) != wantArity {
		return nil, errf(p.cur().Pos, "invalid number of operands for operator")
	}

	return &ast.Prototype{
		Name:       prefix + string(glyph),
		Params:     params,
		Kind:       kind,
		Precedence: precedence,
	}, nil
}

func (p *Parser) parseParamList() ([]string, error) {
	if err := p.expectChar('('); err != nil {
		return nil, err
	}
	var params []string
	for p.cur().Kind == token.IDENTIFIER {
		params = append(params, p.cur().Text)
		p.Next()
	}
	if err := p.expectChar(')'); err != nil {
		return nil, err
	}
	return params, nil
}

// ParseExpr ::= unary binop-rhs
func (p *Parser) ParseExpr() (ast.Expr, error) {
	lhs, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	return p.parseBinOpRHS(0, lhs)
}

// parseUnary ::= primary | OP unary
// OP is any non-paren, non-comma CHAR token.
func (p *Parser) parseUnary() (ast.Expr, error) {
	t := p.cur()
	if t.Kind != token.CHAR || t.Char == '(' || t.Char == ',' {
		return p.parsePrimary()
	}
	op := t.Char
	p.Next()
	operand, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	return &ast.Unary{Op: op, Operand: operand}, nil
}

// parseBinOpRHS implements precedence climbing: lhs has already been
// parsed; consume operators at or above minPrec, recursing with
// minPrec+1 for a strictly higher-precedence operator that follows
// (right-associative promotion), looping otherwise (left-associative).
func (p *Parser) parseBinOpRHS(minPrec int, lhs ast.Expr) (ast.Expr, error) {
	for {
		t := p.cur()
		if t.Kind != token.CHAR {
			return lhs, nil
		}
		tokPrec := p.prec.Get(t.Char)
		if tokPrec < minPrec || tokPrec <= 0 {
			return lhs, nil
		}

		op := t.Char
		p.Next()

		rhs, err := p.parseUnary()
		if err != nil {
			return nil, err
		}

		next := p.cur()
		if next.Kind == token.CHAR {
			nextPrec := p.prec.Get(next.Char)
			if tokPrec < nextPrec {
				rhs, err = p.parseBinOpRHS(tokPrec+1, rhs)
				if err != nil {
					return nil, err
				}
			}
		}

		lhs = &ast.Binary{Op: op, LHS: lhs, RHS: rhs}
	}
}

// parsePrimary ::= number | identifier | call | '(' expr ')' | if | for | var
func (p *Parser) parsePrimary() (ast.Expr, error) {
	t := p.cur()
	switch {
	case t.Kind == token.NUMBER:
		p.Next()
		return &ast.Number{Value: t.Num}, nil
	case t.Kind == token.IDENTIFIER:
		return p.parseIdentifierExpr()
	case t.Kind == token.IF:
		return p.parseIfExpr()
	case t.Kind == token.FOR:
		return p.parseForExpr()
	case t.Kind == token.VAR:
		return p.parseVarExpr()
	case t.Kind == token.CHAR && t.Char == '(':
		return p.parseParenExpr()
	default:
		return nil, errf(t.Pos, "unknown token when expecting an expression")
	}
}

// parseIdentifierExpr ::= id | id '(' expr-list? ')'
func (p *Parser) parseIdentifierExpr() (ast.Expr, error) {
	name := p.cur().Text
	p.Next()

	if !p.curIsChar('(') {
		return &ast.Variable{Name: name}, nil
	}
	p.Next()

	var args []ast.Expr
	if !p.curIsChar(')') {
		for {
			arg, err := p.ParseExpr()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)

			if p.curIsChar(')') {
				break
			}
			if err := p.expectChar(','); err != nil {
				return nil, errf(p.cur().Pos, "expected ')' or ',' in argument list")
			}
		}
	}
	p.Next() // consume ')'

	return &ast.Call{Callee: name, Args: args}, nil
}

// parseParenExpr ::= '(' expression ')'
func (p *Parser) parseParenExpr() (ast.Expr, error) {
	p.Next() // consume '('
	e, err := p.ParseExpr()
	if err != nil {
		return nil, err
	}
	if err := p.expectChar(')'); err != nil {
		return nil, err
	}
	return e, nil
}

// parseIfExpr ::= 'if' expr 'then' expr 'else' expr
func (p *Parser) parseIfExpr() (ast.Expr, error) {
	p.Next() // consume 'if'

	cond, err := p.ParseExpr()
	if err != nil {
		return nil, err
	}
	if p.cur().Kind != token.THEN {
		return nil, errf(p.cur().Pos, "expected 'then'")
	}
	p.Next()

	then, err := p.ParseExpr()
	if err != nil {
		return nil, err
	}
	if p.cur().Kind != token.ELSE {
		return nil, errf(p.cur().Pos, "expected 'else'")
	}
	p.Next()

	el, err := p.ParseExpr()
	if err != nil {
		return nil, err
	}

	return &ast.If{Cond: cond, Then: then, Else: el}, nil
}

// parseForExpr ::= 'for' id '=' expr ',' expr (',' expr)? 'in' expr
func (p *Parser) parseForExpr() (ast.Expr, error) {
	p.Next() // consume 'for'

	if p.cur().Kind != token.IDENTIFIER {
		return nil, errf(p.cur().Pos, "expected identifier after 'for'")
	}
	name := p.cur().Text
	p.Next()

	if err := p.expectChar('='); err != nil {
		return nil, err
	}
	start, err := p.ParseExpr()
	if err != nil {
		return nil, err
	}
	if err := p.expectChar(','); err != nil {
		return nil, err
	}
	end, err := p.ParseExpr()
	if err != nil {
		return nil, err
	}

	var step ast.Expr
	if p.curIsChar(',') {
		p.Next()
		step, err = p.ParseExpr()
		if err != nil {
			return nil, err
		}
	}

	if p.cur().Kind != token.IN {
		return nil, errf(p.cur().Pos, "expected 'in' after 'for'")
	}
	p.Next()

	body, err := p.ParseExpr()
	if err != nil {
		return nil, err
	}

	return &ast.For{Var: name, Start: start, End: end, Step: step, Body: body}, nil
}

// parseVarExpr ::= 'var' (id ('=' expr)?)+ 'in' expr
//
// Bindings are juxtaposed, not comma-separated (see SPEC_FULL.md §5's
// resolution of the source grammar's var-binding ambiguity).
func (p *Parser) parseVarExpr() (ast.Expr, error) {
	p.Next() // consume 'var'

	var bindings []ast.VarBinding
	for {
		if p.cur().Kind != token.IDENTIFIER {
			return nil, errf(p.cur().Pos, "expected identifier list after 'var'")
		}
		name := p.cur().Text
		p.Next()

		var init ast.Expr
		if p.curIsChar('=') {
			p.Next()
			e, err := p.ParseExpr()
			if err != nil {
				return nil, err
			}
			init = e
		}
		bindings = append(bindings, ast.VarBinding{Name: name, Init: init})

		if p.cur().Kind != token.IDENTIFIER {
			break
		}
	}

	if p.cur().Kind != token.IN {
		return nil, errf(p.cur().Pos, "expected 'in' after 'var'")
	}
	p.Next()

	body, err := p.ParseExpr()
	if err != nil {
		return nil, err
	}

	return &ast.Var{Bindings: bindings, Body: body}, nil
}
