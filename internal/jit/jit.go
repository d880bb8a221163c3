// Package jit wraps an LLVM execution engine as the JIT execution
// manager of spec.md §4.4: add a finished module, resolve symbols by
// name, tear a module back out again without disturbing the rest of
// the running engine.
package jit

import (
	"fmt"

	"github.com/lavanderhoney/kaledioscope/internal/ir"
	"tinygo.org/x/go-llvm"
)

// Engine owns the one LLVM execution engine a session runs. It is
// seeded from the first Module it's given; every later AddModule call
// adds another module's code into the same running engine.
type Engine struct {
	ee     llvm.ExecutionEngine
	seeded bool
}

// New initializes the native target and its asm printer, which the
// execution engine AddModule creates depends on. Call this before
// constructing any Module, since AddModule below requires a live
// target machine.
func New() (*Engine, error) {
	if err := llvm.InitializeNativeTarget(); err != nil {
		return nil, fmt.Errorf("jit: initialize native target: %w", err)
	}
	if err := llvm.InitializeNativeAsmPrinter(); err != nil {
		return nil, fmt.Errorf("jit: initialize native asm printer: %w", err)
	}
	return &Engine{}, nil
}

// ResourceTracker scopes the lifetime of exactly one module added to
// an Engine. See SPEC_FULL.md §5 for why this wraps legacy MCJIT
// AddModule/RemoveModule rather than an ORC v2 resource tracker.
type ResourceTracker struct {
	engine *Engine
	mod    *ir.Module
	live   bool
}

// AddModule hands mod's LLVM module over to the engine and returns a
// tracker scoped to it. The Engine takes ownership of mod's underlying
// llvm.Module from this point on; the caller must not call mod.Dispose
// after a successful AddModule — call Remove on the returned tracker
// once the module is no longer needed, and it disposes mod instead. A
// module whose tracker is never removed (e.g. a def that stays
// resident in the engine for the rest of the session) stays undisposed
// until the process exits.
func (e *Engine) AddModule(mod *ir.Module) (*ResourceTracker, error) {
	if !e.seeded {
		ee, err := llvm.NewExecutionEngine(mod.Module)
		if err != nil {
			return nil, fmt.Errorf("jit: create execution engine: %w", err)
		}
		e.ee = ee
		e.seeded = true
	} else {
		e.ee.AddModule(mod.Module)
	}
	return &ResourceTracker{engine: e, mod: mod, live: true}, nil
}

// Remove unloads exactly the module this tracker was returned for,
// making any symbols it alone defined unresolvable again, then
// disposes the context/builder/pass-manager it owned — RemoveModule
// hands the llvm.Module back to the caller without freeing it, so the
// tracker is the one place left to do so. Calling Remove twice, or on
// a tracker whose module was never added, is a no-op.
func (t *ResourceTracker) Remove() {
	if !t.live {
		return
	}
	t.engine.ee.RemoveModule(t.mod.Module)
	t.mod.Dispose()
	t.live = false
}

// LookUp resolves name to its native code address in the engine's
// combined address space — the §4.4 "look-up" operation. It searches
// every module currently added to the engine, not any one in
// particular, so it correctly fails once the module defining name has
// been removed via its ResourceTracker, even though the llvm.Module
// value itself may by then be disposed.
func (e *Engine) LookUp(name string) (uintptr, error) {
	ok, fn := e.ee.FindFunction(name)
	if !ok {
		return 0, fmt.Errorf("jit: no such symbol: %s", name)
	}
	addr := e.ee.PointerToGlobal(fn)
	if addr == nil {
		return 0, fmt.Errorf("jit: %s has no mapped address", name)
	}
	return uintptr(addr), nil
}

// RunFloatFunction invokes fn — the zero-argument function value every
// anonymous top-level expression compiles down to — through the
// engine's interpreter/JIT call path, the same way the teacher's REPL
// invokes its own anonymous functions directly off the codegen'd Value
// rather than a re-resolved symbol name.
func (e *Engine) RunFloatFunction(fn llvm.Value) float64 {
	result := e.ee.RunFunction(fn, nil)
	return result.Float(llvm.DoubleType())
}

// Dispose tears the execution engine, and whatever module it still
// owns, down. Call once, at process exit.
func (e *Engine) Dispose() {
	if e.seeded {
		e.ee.Dispose()
	}
}
