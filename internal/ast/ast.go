// Package ast defines the expression tree the parser produces and the
// lowerer consumes. Every child is exclusively owned by its parent:
// there is no sharing and no cycles.
package ast

// Expr is the tagged-variant interface every expression node
// satisfies. It carries no behaviour of its own — lowering dispatches
// on the concrete type in internal/ir rather than through a per-node
// method, since lowering needs module-wide context no single node has.
type Expr interface {
	exprNode()
}

// Number is a 64-bit float literal.
type Number struct {
	Value float64
}

// Variable references a named local or parameter.
type Variable struct {
	Name string
}

// Unary applies a user-defined prefix operator to its operand.
type Unary struct {
	Op      rune
	Operand Expr
}

// Binary applies an operator — built-in or user-defined — to two
// operands. When Op is '=', LHS must be a *Variable; the parser does
// not enforce this, lowering does (see internal/ir).
type Binary struct {
	Op       rune
	LHS, RHS Expr
}

// Call invokes a named function with an ordered argument list.
type Call struct {
	Callee string
	Args   []Expr
}

// If is a three-armed conditional; Then and Else are both mandatory.
type If struct {
	Cond, Then, Else Expr
}

// For is a counted loop. Step is nil when the source omitted it, in
// which case lowering uses the constant 1.0.
type For struct {
	Var        string
	Start, End Expr
	Step       Expr // nil means default step of 1.0
	Body       Expr
}

// VarBinding is one (name, optional initializer) pair in a Var
// expression. Init is nil when the source omitted it, in which case
// lowering uses the constant 0.0.
type VarBinding struct {
	Name string
	Init Expr // nil means default initializer of 0.0
}

// Var introduces one or more local bindings in scope for Body.
type Var struct {
	Bindings []VarBinding
	Body     Expr
}

func (*Number) exprNode()   {}
func (*Variable) exprNode() {}
func (*Unary) exprNode()    {}
func (*Binary) exprNode()   {}
func (*Call) exprNode()     {}
func (*If) exprNode()       {}
func (*For) exprNode()      {}
func (*Var) exprNode()      {}
