package ir

import "tinygo.org/x/go-llvm"

// Module owns the per-top-level-construct LLVM context, module,
// builder, and function-pass pipeline. A fresh Module replaces the
// current one after every successful top-level handling (see
// internal/driver); the Registry and the precedence table outlive any
// one Module and are threaded through Lowerer instead.
type Module struct {
	Context llvm.Context
	Module  llvm.Module
	Builder llvm.Builder

	fpm llvm.PassManager
}

// NewModule creates an empty module plus the function-pass pipeline
// spec.md §4.3 names: promote-memory-to-register, instruction
// combining, reassociation, global value numbering, and control-flow
// simplification, run once per emitted function.
func NewModule(name string) *Module {
	ctx := llvm.NewContext()
	mod := ctx.NewModule(name)
	builder := ctx.NewBuilder()

	fpm := llvm.NewFunctionPassManagerForModule(mod)
	fpm.AddPromoteMemoryToRegisterPass()
	fpm.AddInstructionCombiningPass()
	fpm.AddReassociatePass()
	fpm.AddGVNPass()
	fpm.AddCFGSimplificationPass()
	fpm.InitializeFunc()

	return &Module{Context: ctx, Module: mod, Builder: builder, fpm: fpm}
}

// Dispose releases the context, module, builder, and pass manager
// together. Once a Module has been added to internal/jit's Engine,
// only its ResourceTracker.Remove disposes it; a Module still owned by
// the engine must not be disposed directly.
func (m *Module) Dispose() {
	m.fpm.Dispose()
	m.Builder.Dispose()
	m.Module.Dispose()
	m.Context.Dispose()
}
