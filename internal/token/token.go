// Package token defines the lexical tokens produced by internal/lexer.
package token

import "strconv"

// Kind tags the variant a Token carries.
type Kind int

const (
	EOF Kind = iota

	// keywords
	DEF
	EXTERN
	IF
	THEN
	ELSE
	FOR
	IN
	BINARY
	UNARY
	VAR

	IDENTIFIER
	NUMBER
	CHAR // a single ASCII character not otherwise classified: punctuation and operator glyphs
)

var keywords = map[string]Kind{
	"def":    DEF,
	"extern": EXTERN,
	"if":     IF,
	"then":   THEN,
	"else":   ELSE,
	"for":    FOR,
	"in":     IN,
	"binary": BINARY,
	"unary":  UNARY,
	"var":    VAR,
}

// Lookup classifies an identifier-shaped run of text against the
// keyword table, returning (IDENTIFIER, false) if it is not a keyword.
func Lookup(text string) (Kind, bool) {
	kind, ok := keywords[text]
	if !ok {
		return IDENTIFIER, false
	}
	return kind, true
}

// Token is the tagged variant the lexer produces. Only the fields
// relevant to Kind are meaningful: Text for IDENTIFIER, Num for
// NUMBER, Char for CHAR.
type Token struct {
	Kind Kind
	Pos  Position
	Text string
	Num  float64
	Char rune
}

// String renders the token for diagnostics.
func (t Token) String() string {
	switch t.Kind {
	case EOF:
		return "<eof>"
	case IDENTIFIER:
		return t.Text
	case NUMBER:
		return strconv.FormatFloat(t.Num, 'f', -1, 64)
	case CHAR:
		return string(t.Char)
	default:
		for text, kind := range keywords {
			if kind == t.Kind {
				return text
			}
		}
		return "<unknown>"
	}
}
