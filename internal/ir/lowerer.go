// Package ir lowers internal/ast expressions into LLVM IR, per
// spec.md §4.3: SSA-form values and control flow for everything
// side-effect-free, stack slots plus the promote-to-register pass
// (see Module) for mutable locals.
package ir

import (
	"github.com/lavanderhoney/kaledioscope/internal/ast"
	"tinygo.org/x/go-llvm"
)

// binding remembers a shadowed name's slot so a for/var scope can
// restore it on every exit path.
type binding struct {
	name string
	prev llvm.Value
	had  bool
}

// Lowerer lowers ast nodes into IR over the current Module. It owns
// the per-function symbol table (name -> stack-slot pointer),
// cleared at the start of every function emission; Registry and
// Precedence persist across the many Modules one REPL session
// creates via SetModule.
type Lowerer struct {
	mod        *Module
	registry   *Registry
	precedence *ast.PrecedenceTable
	named      map[string]llvm.Value
}

// NewLowerer creates a Lowerer over mod, sharing registry and
// precedence with its caller. The driver creates one Lowerer per
// session and installs each later Module with SetModule.
func NewLowerer(mod *Module, registry *Registry, precedence *ast.PrecedenceTable) *Lowerer {
	return &Lowerer{mod: mod, registry: registry, precedence: precedence, named: make(map[string]llvm.Value)}
}

// SetModule installs a fresh Module, called by the driver after every
// successful top-level handling.
func (l *Lowerer) SetModule(mod *Module) {
	l.mod = mod
}

// Module returns the Lowerer's current Module.
func (l *Lowerer) Module() *Module {
	return l.mod
}

// getFunction resolves name to a function value: one already present
// in the current module, or — failing that — one re-materialised from
// the prototype registry into the current module. This is the single
// point that reconciles current-module lookup with the per-module
// re-declaration the module-reset design forces (spec.md §4.4).
func (l *Lowerer) getFunction(name string) (llvm.Value, error) {
	if f := l.mod.Module.NamedFunction(name); !f.IsNil() {
		return f, nil
	}
	if proto, ok := l.registry.Get(name); ok {
		return l.declarePrototype(proto)
	}
	return llvm.Value{}, errf("unknown function referenced: %s", name)
}

// declarePrototype emits proto's declaration into the current module.
func (l *Lowerer) declarePrototype(proto *ast.Prototype) (llvm.Value, error) {
	params := make([]llvm.Type, len(proto.Params))
	for i := range params {
		params[i] = llvm.DoubleType()
	}
	ft := llvm.FunctionType(llvm.DoubleType(), params, false)

	fn := llvm.AddFunction(l.mod.Module, proto.Name, ft)

	if fn.Name() != proto.Name {
		// A function by this name already existed with a conflicting
		// signature; LLVM renamed ours, so fall back to the existing
		// definition rather than keep the orphaned rename around.
		fn.EraseFromParentAsFunction()
		fn = l.mod.Module.NamedFunction(proto.Name)
	}

	if fn.ParamsCount() != len(proto.Params) {
		return llvm.Value{}, errf("redefinition of function %s with a different number of arguments", proto.Name)
	}

	for i, param := range fn.Params() {
		param.SetName(proto.Params[i])
	}
	return fn, nil
}

// LowerExtern declares proto in the current module and registers it,
// without emitting a body.
func (l *Lowerer) LowerExtern(proto *ast.Prototype) (llvm.Value, error) {
	fn, err := l.declarePrototype(proto)
	if err != nil {
		return llvm.Value{}, err
	}
	l.registry.Set(proto)
	return fn, nil
}

// LowerFunction implements the function emission sequence of
// spec.md §4.3: resolve/materialise the declaration, reject
// redefinition, record a binary operator's precedence, emit the entry
// block and parameter stack slots, lower the body, verify, and run
// the function-pass pipeline. On any failure the partially emitted
// function is erased from the module.
func (l *Lowerer) LowerFunction(fn *ast.Function) (llvm.Value, error) {
	proto := fn.Proto
	l.registry.Set(proto)

	function, err := l.getFunction(proto.Name)
	if err != nil {
		return llvm.Value{}, err
	}
	if function.BasicBlocksCount() != 0 {
		return llvm.Value{}, errf("redefinition of function %s", proto.Name)
	}

	if proto.Kind == ast.BinaryOp {
		l.precedence.Define(proto.OperatorGlyph(), proto.Precedence)
	}

	entry := llvm.AddBasicBlock(function, "entry")
	l.mod.Builder.SetInsertPointAtEnd(entry)

	l.named = make(map[string]llvm.Value)
	for i, param := range function.Params() {
		name := proto.Params[i]
		slot := l.mod.Builder.CreateAlloca(llvm.DoubleType(), name)
		l.mod.Builder.CreateStore(param, slot)
		l.named[name] = slot
	}

	retVal, err := l.lowerExpr(fn.Body)
	if err != nil {
		function.EraseFromParentAsFunction()
		return llvm.Value{}, err
	}
	l.mod.Builder.CreateRet(retVal)

	llvm.VerifyFunction(function, llvm.PrintMessageAction)
	l.mod.fpm.RunFunc(function)

	return function, nil
}

func (l *Lowerer) lowerExpr(e ast.Expr) (llvm.Value, error) {
	switch n := e.(type) {
	case *ast.Number:
		return llvm.ConstFloat(llvm.DoubleType(), n.Value), nil
	case *ast.Variable:
		return l.lowerVariable(n)
	case *ast.Unary:
		return l.lowerUnary(n)
	case *ast.Binary:
		return l.lowerBinary(n)
	case *ast.Call:
		return l.lowerCall(n)
	case *ast.If:
		return l.lowerIf(n)
	case *ast.For:
		return l.lowerFor(n)
	case *ast.Var:
		return l.lowerVar(n)
	default:
		return llvm.Value{}, errf("unhandled expression node %T", e)
	}
}

func (l *Lowerer) lowerVariable(n *ast.Variable) (llvm.Value, error) {
	slot, ok := l.named[n.Name]
	if !ok {
		return llvm.Value{}, errf("unknown variable name: %s", n.Name)
	}
	return l.mod.Builder.CreateLoad(llvm.DoubleType(), slot, n.Name), nil
}

func (l *Lowerer) lowerUnary(n *ast.Unary) (llvm.Value, error) {
	operand, err := l.lowerExpr(n.Operand)
	if err != nil {
		return llvm.Value{}, err
	}
	fn, err := l.getFunction("unary" + string(n.Op))
	if err != nil {
		return llvm.Value{}, errf("unknown unary operator: %c", n.Op)
	}
	return l.mod.Builder.CreateCall(fn, []llvm.Value{operand}, "unop"), nil
}

func (l *Lowerer) lowerBinary(n *ast.Binary) (llvm.Value, error) {
	if n.Op == '=' {
		return l.lowerAssign(n)
	}

	lv, err := l.lowerExpr(n.LHS)
	if err != nil {
		return llvm.Value{}, err
	}
	rv, err := l.lowerExpr(n.RHS)
	if err != nil {
		return llvm.Value{}, err
	}

	switch n.Op {
	case '+':
		return l.mod.Builder.CreateFAdd(lv, rv, "addtmp"), nil
	case '-':
		return l.mod.Builder.CreateFSub(lv, rv, "subtmp"), nil
	case '*':
		return l.mod.Builder.CreateFMul(lv, rv, "multmp"), nil
	case '/':
		return l.mod.Builder.CreateFDiv(lv, rv, "divtmp"), nil
	case '<':
		cmp := l.mod.Builder.CreateFCmp(llvm.FloatULT, lv, rv, "cmptmp")
		return l.mod.Builder.CreateUIToFP(cmp, llvm.DoubleType(), "booltmp"), nil
	case '>':
		// Resolved per spec.md §9's open question: lower symmetrically
		// to '<' by swapping the operands into the same comparison.
		cmp := l.mod.Builder.CreateFCmp(llvm.FloatULT, rv, lv, "cmptmp")
		return l.mod.Builder.CreateUIToFP(cmp, llvm.DoubleType(), "booltmp"), nil
	default:
		fn, ferr := l.getFunction("binary" + string(n.Op))
		if ferr != nil {
			return llvm.Value{}, errf("unknown binary operator: %c", n.Op)
		}
		return l.mod.Builder.CreateCall(fn, []llvm.Value{lv, rv}, "binop"), nil
	}
}

func (l *Lowerer) lowerAssign(n *ast.Binary) (llvm.Value, error) {
	lhs, ok := n.LHS.(*ast.Variable)
	if !ok {
		return llvm.Value{}, errf("destination of '=' must be a variable")
	}
	rv, err := l.lowerExpr(n.RHS)
	if err != nil {
		return llvm.Value{}, err
	}
	slot, ok := l.named[lhs.Name]
	if !ok {
		return llvm.Value{}, errf("unknown variable name: %s", lhs.Name)
	}
	l.mod.Builder.CreateStore(rv, slot)
	return rv, nil
}

func (l *Lowerer) lowerCall(n *ast.Call) (llvm.Value, error) {
	fn, err := l.getFunction(n.Callee)
	if err != nil {
		return llvm.Value{}, errf("unknown function referenced: %s", n.Callee)
	}
	if fn.ParamsCount() != len(n.Args) {
		return llvm.Value{}, errf("incorrect number of arguments passed to %s: want %d, got %d", n.Callee, fn.ParamsCount(), len(n.Args))
	}
	args := make([]llvm.Value, len(n.Args))
	for i, a := range n.Args {
		v, err := l.lowerExpr(a)
		if err != nil {
			return llvm.Value{}, err
		}
		args[i] = v
	}
	return l.mod.Builder.CreateCall(fn, args, "calltmp"), nil
}

func (l *Lowerer) lowerIf(n *ast.If) (llvm.Value, error) {
	condV, err := l.lowerExpr(n.Cond)
	if err != nil {
		return llvm.Value{}, err
	}
	condV = l.mod.Builder.CreateFCmp(llvm.FloatONE, condV, llvm.ConstFloat(llvm.DoubleType(), 0), "ifcond")

	fn := l.mod.Builder.GetInsertBlock().Parent()
	thenBB := llvm.AddBasicBlock(fn, "then")
	elseBB := llvm.AddBasicBlock(fn, "else")
	mergeBB := llvm.AddBasicBlock(fn, "merge")

	l.mod.Builder.CreateCondBr(condV, thenBB, elseBB)

	l.mod.Builder.SetInsertPointAtEnd(thenBB)
	thenV, err := l.lowerExpr(n.Then)
	if err != nil {
		return llvm.Value{}, err
	}
	l.mod.Builder.CreateBr(mergeBB)
	thenEnd := l.mod.Builder.GetInsertBlock() // lowering Then may itself have emitted control flow

	l.mod.Builder.SetInsertPointAtEnd(elseBB)
	elseV, err := l.lowerExpr(n.Else)
	if err != nil {
		return llvm.Value{}, err
	}
	l.mod.Builder.CreateBr(mergeBB)
	elseEnd := l.mod.Builder.GetInsertBlock()

	l.mod.Builder.SetInsertPointAtEnd(mergeBB)
	phi := l.mod.Builder.CreatePHI(llvm.DoubleType(), "iftmp")
	phi.AddIncoming([]llvm.Value{thenV, elseV}, []llvm.BasicBlock{thenEnd, elseEnd})
	return phi, nil
}

func (l *Lowerer) lowerFor(n *ast.For) (llvm.Value, error) {
	startV, err := l.lowerExpr(n.Start)
	if err != nil {
		return llvm.Value{}, err
	}

	fn := l.mod.Builder.GetInsertBlock().Parent()
	slot := l.allocaInEntry(fn, n.Var)
	l.mod.Builder.CreateStore(startV, slot)

	loopBB := llvm.AddBasicBlock(fn, "loop")
	l.mod.Builder.CreateBr(loopBB)
	l.mod.Builder.SetInsertPointAtEnd(loopBB)

	b := l.shadow(n.Var, slot)
	defer l.unshadow(b)

	if _, err := l.lowerExpr(n.Body); err != nil {
		return llvm.Value{}, err
	}

	var stepV llvm.Value
	if n.Step != nil {
		stepV, err = l.lowerExpr(n.Step)
		if err != nil {
			return llvm.Value{}, err
		}
	} else {
		stepV = llvm.ConstFloat(llvm.DoubleType(), 1.0)
	}

	cur := l.mod.Builder.CreateLoad(llvm.DoubleType(), slot, n.Var)
	next := l.mod.Builder.CreateFAdd(cur, stepV, "nextvar")
	l.mod.Builder.CreateStore(next, slot)

	endV, err := l.lowerExpr(n.End)
	if err != nil {
		return llvm.Value{}, err
	}
	endCond := l.mod.Builder.CreateFCmp(llvm.FloatONE, endV, llvm.ConstFloat(llvm.DoubleType(), 0), "loopcond")

	afterBB := llvm.AddBasicBlock(fn, "afterloop")
	l.mod.Builder.CreateCondBr(endCond, loopBB, afterBB)
	l.mod.Builder.SetInsertPointAtEnd(afterBB)

	return llvm.ConstFloat(llvm.DoubleType(), 0), nil
}

func (l *Lowerer) lowerVar(n *ast.Var) (llvm.Value, error) {
	fn := l.mod.Builder.GetInsertBlock().Parent()

	var shadows []binding
	defer func() {
		for i := len(shadows) - 1; i >= 0; i-- {
			l.unshadow(shadows[i])
		}
	}()

	for _, bnd := range n.Bindings {
		var initV llvm.Value
		if bnd.Init != nil {
			v, err := l.lowerExpr(bnd.Init)
			if err != nil {
				return llvm.Value{}, err
			}
			initV = v
		} else {
			initV = llvm.ConstFloat(llvm.DoubleType(), 0.0)
		}

		slot := l.allocaInEntry(fn, bnd.Name)
		l.mod.Builder.CreateStore(initV, slot)
		shadows = append(shadows, l.shadow(bnd.Name, slot))
	}

	return l.lowerExpr(n.Body)
}

// allocaInEntry inserts a stack-slot allocation at the start of fn's
// entry block, then restores the builder's insert point, so that
// every alloca in a function lands in the entry block regardless of
// where in the control-flow graph the binding that needs it occurs —
// a precondition of the promote-to-register pass.
func (l *Lowerer) allocaInEntry(fn llvm.Value, name string) llvm.Value {
	entry := fn.EntryBasicBlock()
	saved := l.mod.Builder.GetInsertBlock()

	if first := entry.FirstInstruction(); !first.IsNil() {
		l.mod.Builder.SetInsertPoint(entry, first)
	} else {
		l.mod.Builder.SetInsertPointAtEnd(entry)
	}
	slot := l.mod.Builder.CreateAlloca(llvm.DoubleType(), name)

	l.mod.Builder.SetInsertPointAtEnd(saved)
	return slot
}

// shadow installs slot under name, saving whatever was bound there so
// the caller can restore it with unshadow on every exit path.
func (l *Lowerer) shadow(name string, slot llvm.Value) binding {
	prev, had := l.named[name]
	l.named[name] = slot
	return binding{name: name, prev: prev, had: had}
}

func (l *Lowerer) unshadow(b binding) {
	if b.had {
		l.named[b.name] = b.prev
	} else {
		delete(l.named, b.name)
	}
}
