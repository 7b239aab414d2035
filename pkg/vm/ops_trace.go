package vm

import (
	"fmt"
	"os"
)

// execTrace implements the Trace instruction (spec §6): write the textual
// form of the stack's top value, tagged with its source line, to standard
// output. It peeks rather than pops — the value stays on the stack — and a
// write failure is best-effort: original_source/src/vm.rs ignores the
// writeln! result outright, but a silent drop makes --debug sessions
// confusing, so a failure is logged to stderr when debug is on and
// otherwise ignored, never escalated to a halting error (SPEC_FULL.md
// supplemented decision).
func (vm *VM) execTrace() {
	v := vm.peek()
	line := vm.currentLine()
	text := vm.heap.DisplayString(v)

	if _, err := fmt.Fprintf(vm.out, "[%d] %s\n", line, text); err != nil && vm.debug {
		fmt.Fprintf(os.Stderr, "wisp: trace write failed: %v\n", err)
	}
}
