// Package repl wires github.com/chzyer/readline into the character
// stream internal/driver's Driver reads from, the way
// launix-de-memcp/scm/prompt.go wires it into that project's reader:
// one readline.Instance, one prompt string, one history file, and a
// small adapter turning line-at-a-time input into the io.Reader the
// rest of the pipeline expects.
package repl

import (
	"io"

	"github.com/chzyer/readline"
)

const (
	prompt      = "ready> "
	historyFile = "/tmp/.kaledioscope-history.tmp"
)

// lineReader is the one readline.Instance method lineSource needs,
// pulled out as an interface so it can be exercised in tests without
// a real controlling terminal.
type lineReader interface {
	Readline() (string, error)
}

// lineSource adapts readline's line-at-a-time Readline into an
// io.Reader, refilling its buffer with one more line (plus the
// newline readline itself stripped) whenever it runs dry. This is the
// one character-stream producer internal/lexer ever sees in
// interactive mode.
type lineSource struct {
	rl  lineReader
	buf string
}

func newLineSource(rl lineReader) *lineSource {
	return &lineSource{rl: rl}
}

func (s *lineSource) Read(p []byte) (int, error) {
	for s.buf == "" {
		line, err := s.rl.Readline()
		switch err {
		case nil:
			s.buf = line + "\n"
		case readline.ErrInterrupt:
			// Ctrl-C on an otherwise idle prompt ends the session, the
			// same as EOF; there is no partial top-level construct to
			// keep buffered across it.
			return 0, io.EOF
		case io.EOF:
			return 0, io.EOF
		default:
			return 0, err
		}
	}
	n := copy(p, s.buf)
	s.buf = s.buf[n:]
	return n, nil
}

// Source opens a readline-backed io.Reader over the controlling
// terminal, with history persisted to historyFile across sessions.
// The caller must Close the returned instance (via the second return
// value) when the session ends.
func Source() (io.Reader, io.Closer, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:            prompt,
		HistoryFile:       historyFile,
		InterruptPrompt:   "^C",
		EOFPrompt:         "^D",
		HistorySearchFold: true,
	})
	if err != nil {
		return nil, nil, err
	}
	return newLineSource(rl), rl, nil
}
