// Package runtime supplies the two host-exported native helpers that
// JIT-compiled code can call via `extern`. Both are exported through
// cgo so the process's own symbol table — which the JIT's symbol
// generator falls back to for any name it cannot resolve from an
// added module — can resolve them by name, the same trick the
// upstream tutorial relies on by compiling its C helpers into the
// same executable as the JIT.
package runtime

/*
#include <stdio.h>
*/
import "C"

import (
	"fmt"
	"os"
)

// Names lists the host symbols this package exports. internal/jit does
// not register them itself; JIT-compiled code finds them through the
// process's own symbol table.
var Names = []string{"putchard", "printd"}

//export putchard
func putchard(x C.double) C.double {
	fmt.Fprintf(os.Stderr, "%c", byte(x))
	return 0
}

//export printd
func printd(x C.double) C.double {
	fmt.Fprintf(os.Stderr, "%f\n", float64(x))
	return 0
}
