package ast

// PrecedenceTable is the mapping from a single-character operator
// glyph to its precedence, shared by the parser (to decide how far a
// binop-rhs extends) and the lowerer (to record a new entry when it
// lowers a `def binary <op> <prec> (...)`; the entry is recorded
// before the body is lowered and stays even if the body then fails).
// A glyph absent from the table has precedence 0, which the parser
// treats as "not a binary operator" since every built-in seed
// precedence is >= 2.
type PrecedenceTable struct {
	prec map[rune]int
}

// NewPrecedenceTable returns a table seeded with the built-in
// operators.
func NewPrecedenceTable() *PrecedenceTable {
	return &PrecedenceTable{prec: map[rune]int{
		'=': 2,
		'<': 10,
		'>': 10,
		'+': 20,
		'-': 20,
		'*': 40,
		'/': 40,
	}}
}

// Get returns op's precedence, or 0 if it is not a declared operator.
func (t *PrecedenceTable) Get(op rune) int {
	return t.prec[op]
}

// Define registers op at precedence prec, overwriting any prior
// definition.
func (t *PrecedenceTable) Define(op rune, prec int) {
	t.prec[op] = prec
}
