// Command kaledioscope is an interactive JIT compiler for a small
// numeric expression language: read a definition, an extern
// declaration, or a bare expression; compile it; for a bare
// expression, run it immediately and print the result.
package main

import (
	"fmt"
	"os"

	"github.com/lavanderhoney/kaledioscope/internal/driver"
	"github.com/lavanderhoney/kaledioscope/internal/jit"
	"github.com/lavanderhoney/kaledioscope/internal/repl"

	// Linked for its cgo-exported putchard/printd symbols, which
	// JIT-compiled `extern`s resolve against the process's own symbol
	// table rather than anything internal/jit registers explicitly.
	_ "github.com/lavanderhoney/kaledioscope/internal/runtime"
)

func main() {
	engine, err := jit.New()
	if err != nil {
		fmt.Fprintln(os.Stderr, "kaledioscope:", err)
		os.Exit(1)
	}
	defer engine.Dispose()

	src, closer, err := repl.Source()
	if err != nil {
		fmt.Fprintln(os.Stderr, "kaledioscope:", err)
		os.Exit(1)
	}
	defer closer.Close()

	d := driver.New(src, engine, os.Stderr)
	for !d.Step() {
	}

	// Mirrors the upstream tutorial's final whole-module dump at EOF
	// (SPEC_FULL.md §5); by this point it is the current module, which
	// holds only what was declared since the last hand-off to the JIT
	// (for example trailing externs, which do not hand their module off).
	fmt.Fprintln(os.Stderr, d.Module().Module.String())
}
