package vm

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
)

// dumpBeforeDispatch prints the next instruction, the evaluation stack and
// the live heap count ahead of executing it, gated behind Config.Debug.
// Grounded on the teacher's debug-trace dumps (pkg/vm's disassembly-on-
// demand helpers); colorized with fatih/color the way the rest of the
// pack's CLIs (e.g. wudi-hey) color their terminal output.
func (vm *VM) dumpBeforeDispatch() {
	instrColor := color.New(color.FgCyan)
	stackColor := color.New(color.FgYellow)
	heapColor := color.New(color.FgMagenta)

	chk := vm.currentChunk()
	ip := vm.active.PC
	op, ok := chk.FetchOp(ip)
	if !ok {
		fmt.Fprintln(os.Stderr, instrColor.Sprintf("  ip=%04d <end of chunk>", ip))
		return
	}

	instrColor.Fprintf(os.Stderr, "  ip=%04d %s\n", ip, op)

	parts := make([]string, len(vm.stack))
	for i, v := range vm.stack {
		parts[i] = vm.heap.DisplayString(v)
	}
	stackColor.Fprintf(os.Stderr, "    stack: [%s]\n", strings.Join(parts, ", "))
	heapColor.Fprintf(os.Stderr, "    heap: %d live objects\n", vm.heap.Len())
}
