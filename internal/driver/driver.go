// Package driver implements the top-level dispatcher: it classifies
// the lexer's current token, routes to def/extern/expression handling,
// and prints the diagnostics spec.md §6/§7 define. It owns the one
// long-lived module/registry/precedence-table triple a session threads
// through every top-level construct.
package driver

import (
	"fmt"
	"io"

	"github.com/lavanderhoney/kaledioscope/internal/ast"
	"github.com/lavanderhoney/kaledioscope/internal/ir"
	"github.com/lavanderhoney/kaledioscope/internal/jit"
	"github.com/lavanderhoney/kaledioscope/internal/lexer"
	"github.com/lavanderhoney/kaledioscope/internal/parser"
	"github.com/lavanderhoney/kaledioscope/internal/token"
)

// anonExprName mirrors parser.anonExprName; the driver needs it to
// recognise which functions to JIT-run-and-discard rather than keep.
const anonExprName = "__anon_expr"

// Driver owns one continuous pipeline session: the lexer reading from
// one input stream, the parser over it, and the registry/precedence
// table/current module triple that survives across every top-level
// construct (spec.md §9's "global mutable pipeline state", made
// explicit as fields here instead of package-level globals).
type Driver struct {
	lex    *lexer.Lexer
	parser *parser.Parser
	prec   *ast.PrecedenceTable

	registry *ir.Registry
	lowerer  *ir.Lowerer
	engine   *jit.Engine

	out io.Writer

	moduleSeq int
}

// New creates a Driver reading source from r, diagnostics going to
// out, compiling into engine.
func New(r io.Reader, engine *jit.Engine, out io.Writer) *Driver {
	prec := ast.NewPrecedenceTable()
	registry := ir.NewRegistry()
	mod := ir.NewModule("kaledioscope_0")
	lowerer := ir.NewLowerer(mod, registry, prec)

	lex := lexer.New(r)
	lex.Advance() // prime the first token per the lexer's own contract

	return &Driver{
		lex:      lex,
		parser:   parser.New(lex, prec),
		prec:     prec,
		registry: registry,
		lowerer:  lowerer,
		engine:   engine,
		out:      out,
	}
}

// Module returns the current, not-yet-transferred-to-the-JIT module —
// the one cmd/kaledioscope dumps on a clean EOF exit.
func (d *Driver) Module() *ir.Module {
	return d.lowerer.Module()
}

// Step performs exactly one top-level dispatch iteration per
// spec.md §2's grammar (`top := def-def | extern-decl | top-expr |
// ';'`), acting on whatever token is already current (either primed
// by New, or left current by the previous Step). It returns
// done=true once EOF is reached — the caller should stop calling Step.
func (d *Driver) Step() (done bool) {
	switch d.lex.Current().Kind {
	case token.EOF:
		return true
	case token.CHAR:
		if d.lex.Current().Char == ';' {
			d.lex.Advance()
			return false
		}
		fallthrough
	default:
		d.handleTop()
		return false
	}
}

func (d *Driver) handleTop() {
	fn, proto, err := d.parser.ParseTop()
	if err != nil {
		d.logError(err)
		d.lex.Advance() // panic-mode recovery: skip the offending token
		return
	}

	switch {
	case proto != nil:
		d.handleExtern(proto)
	case fn != nil && fn.Proto.Name == anonExprName:
		d.handleTopLevelExpr(fn)
	case fn != nil:
		d.handleDefinition(fn)
	}
}

func (d *Driver) handleDefinition(fn *ast.Function) {
	v, err := d.lowerer.LowerFunction(fn)
	if err != nil {
		d.logError(err)
		return
	}
	fmt.Fprintln(d.out, "Read function definition:")
	fmt.Fprintln(d.out, v.String())

	d.transferModule()
}

func (d *Driver) handleExtern(proto *ast.Prototype) {
	v, err := d.lowerer.LowerExtern(proto)
	if err != nil {
		d.logError(err)
		return
	}
	fmt.Fprint(d.out, "Read extern: ")
	fmt.Fprintln(d.out, v.String())
}

func (d *Driver) handleTopLevelExpr(fn *ast.Function) {
	v, err := d.lowerer.LowerFunction(fn)
	if err != nil {
		d.logError(err)
		return
	}
	fmt.Fprintln(d.out, "Read top-level expression:")
	fmt.Fprintln(d.out, v.String())

	mod := d.lowerer.Module()
	tracker, err := d.engine.AddModule(mod)
	if err != nil {
		d.logError(err)
		d.resetModule()
		return
	}

	if _, err := d.engine.LookUp(anonExprName); err != nil {
		d.logError(err)
		tracker.Remove()
		d.resetModule()
		return
	}

	result := d.engine.RunFloatFunction(v)
	tracker.Remove()
	fmt.Fprintf(d.out, "Evaluated to %f\n", result)

	d.resetModule()
}

// transferModule hands the current module over unconditionally — used
// for def, which stays resident in the JIT rather than being removed
// after one invocation.
func (d *Driver) transferModule() {
	mod := d.lowerer.Module()
	if _, err := d.engine.AddModule(mod); err != nil {
		d.logError(err)
	}
	d.resetModule()
}

// resetModule replaces the current module with an empty one, per
// spec.md §2's "modules are created empty on pipeline start and after
// every successful top-level handling."
func (d *Driver) resetModule() {
	d.moduleSeq++
	mod := ir.NewModule(fmt.Sprintf("kaledioscope_%d", d.moduleSeq))
	d.lowerer.SetModule(mod)
}

func (d *Driver) logError(err error) {
	fmt.Fprintf(d.out, "LogError: %s\n", err)
}
