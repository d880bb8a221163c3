package token

import "fmt"

// Position identifies a 1-based line and column, recorded by the lexer
// on every token it produces.
type Position struct {
	Line   int
	Column int
}

// String renders the position as "line:column".
func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}
