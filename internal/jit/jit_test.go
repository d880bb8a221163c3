package jit

import (
	"testing"

	"github.com/lavanderhoney/kaledioscope/internal/ast"
	"github.com/lavanderhoney/kaledioscope/internal/ir"
)

func lowerConstFunction(t *testing.T, mod *ir.Module, name string, value float64) {
	t.Helper()
	registry := ir.NewRegistry()
	l := ir.NewLowerer(mod, registry, ast.NewPrecedenceTable())
	fn := &ast.Function{
		Proto: &ast.Prototype{Name: name, Kind: ast.Regular},
		Body:  &ast.Number{Value: value},
	}
	if _, err := l.LowerFunction(fn); err != nil {
		t.Fatal(err)
	}
}

func TestAddModuleThenRun(t *testing.T) {
	engine, err := New()
	if err != nil {
		t.Fatal(err)
	}
	defer engine.Dispose()

	mod := ir.NewModule("t1")
	lowerConstFunction(t, mod, "__anon_expr", 41)

	tracker, err := engine.AddModule(mod)
	if err != nil {
		t.Fatal(err)
	}

	fn := mod.Module.NamedFunction("__anon_expr")
	if got := engine.RunFloatFunction(fn); got != 41 {
		t.Errorf("got %v, want 41", got)
	}

	tracker.Remove()
}

func TestAddModuleTwiceIntoSameEngine(t *testing.T) {
	engine, err := New()
	if err != nil {
		t.Fatal(err)
	}
	defer engine.Dispose()

	mod1 := ir.NewModule("t1")
	lowerConstFunction(t, mod1, "one", 1)
	t1, err := engine.AddModule(mod1)
	if err != nil {
		t.Fatal(err)
	}
	defer t1.Remove()

	mod2 := ir.NewModule("t2")
	lowerConstFunction(t, mod2, "two", 2)
	t2, err := engine.AddModule(mod2)
	if err != nil {
		t.Fatal(err)
	}
	defer t2.Remove()

	if got := engine.RunFloatFunction(mod2.Module.NamedFunction("two")); got != 2 {
		t.Errorf("got %v, want 2", got)
	}
}

func TestRemoveIsIdempotent(t *testing.T) {
	engine, err := New()
	if err != nil {
		t.Fatal(err)
	}
	defer engine.Dispose()

	mod := ir.NewModule("t1")
	lowerConstFunction(t, mod, "one", 1)
	tracker, err := engine.AddModule(mod)
	if err != nil {
		t.Fatal(err)
	}

	tracker.Remove()
	tracker.Remove() // must not panic
}

func TestLookUpUnknownSymbol(t *testing.T) {
	engine, err := New()
	if err != nil {
		t.Fatal(err)
	}
	defer engine.Dispose()

	mod := ir.NewModule("t1")
	lowerConstFunction(t, mod, "one", 1)
	if _, err := engine.AddModule(mod); err != nil {
		t.Fatal(err)
	}

	if _, err := engine.LookUp("nope"); err == nil {
		t.Fatal("expected an error for an unknown symbol")
	}
}

func TestLookUpFailsAfterRemove(t *testing.T) {
	engine, err := New()
	if err != nil {
		t.Fatal(err)
	}
	defer engine.Dispose()

	mod := ir.NewModule("t1")
	lowerConstFunction(t, mod, "__anon_expr", 9)
	tracker, err := engine.AddModule(mod)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := engine.LookUp("__anon_expr"); err != nil {
		t.Fatalf("expected __anon_expr to resolve while its module is live: %v", err)
	}

	tracker.Remove()

	if _, err := engine.LookUp("__anon_expr"); err == nil {
		t.Fatal("expected looking up __anon_expr to fail once its module is removed")
	}
}
