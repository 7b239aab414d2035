package vm

import (
	"wisp/pkg/value"
	"wisp/pkg/vmerrors"
)

// execCall implements the Call protocol (spec §4.7): the callee sits argc
// slots below the top of stack, underneath its arguments. It must be a
// closure HeapRef; its function's declared arity must match argc exactly —
// unlike original_source/src/vm.rs, which trusts its compiler and never
// checks, this VM has no compiler in front of it and checks at the
// boundary (SPEC_FULL.md supplemented decision). On success the current
// frame is pushed and a new one is installed over the callee's slot.
func (vm *VM) execCall(argc int) vmerrors.VMError {
	calleePos := len(vm.stack) - 1 - argc
	callee := vm.getStack(calleePos)
	if !callee.IsHeapRef() {
		return vmerrors.NotCallable(vm.currentLine(), "value is not callable")
	}

	closureObj, ok := vm.heap.get(callee.HeapID()).(*ClosureObject)
	if !ok {
		return vmerrors.NotCallable(vm.currentLine(), "value is not callable")
	}

	fn := vm.heap.Function(closureObj.FunctionID)
	if fn.Arity != argc {
		return vmerrors.Arity(vm.currentLine(), "%s expects %d argument(s), got %d", fnDisplayName(fn), fn.Arity, argc)
	}

	vm.frames = append(vm.frames, vm.active)
	vm.active = CallFrame{ClosureID: callee.HeapID(), PC: 0, StackBase: calleePos}
	return nil
}

// execReturn implements the Return protocol (spec §4.7): close upvalues
// over the returning frame's locals, discard its stack region, and either
// resume the caller with the return value pushed back, or — when there is
// no caller left — halt with that value (the outermost Return, spec
// §4.12).
func (vm *VM) execReturn() (value.Value, bool) {
	retVal := vm.pop()
	vm.closeUpvalues()

	if len(vm.frames) == 0 {
		return retVal, true
	}

	vm.stack = vm.stack[:vm.active.StackBase]
	vm.active = vm.frames[len(vm.frames)-1]
	vm.frames = vm.frames[:len(vm.frames)-1]
	vm.push(retVal)
	return value.Value{}, false
}

func fnDisplayName(fn *FunctionObject) string {
	if fn.Name == "" {
		return "<anonymous fn>"
	}
	return fn.Name
}
