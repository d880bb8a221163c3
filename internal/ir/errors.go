package ir

import "fmt"

// Error is returned by every lowering operation on a failure path.
// The driver formats it through the same LogError helper the parser's
// SyntaxError goes through.
type Error struct {
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func errf(format string, args ...any) *Error {
	return &Error{Message: fmt.Sprintf(format, args...)}
}
