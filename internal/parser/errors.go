package parser

import (
	"fmt"

	"github.com/lavanderhoney/kaledioscope/internal/token"
)

// SyntaxError is returned by every Parse* method on a failure path.
// The driver logs it via its one LogError formatter and recovers by
// advancing one token (see internal/driver).
type SyntaxError struct {
	Pos     token.Position
	Message string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s: %s", e.Pos, e.Message)
}

// Unwrap returns nil: SyntaxError does not wrap another error.
func (e *SyntaxError) Unwrap() error {
	return nil
}

func errf(pos token.Position, format string, args ...any) *SyntaxError {
	return &SyntaxError{Pos: pos, Message: fmt.Sprintf(format, args...)}
}
