package vm

import (
	"wisp/pkg/chunk"
	"wisp/pkg/value"
)

// captureUpvalue implements one descriptor of the Closure-creation protocol
// (spec §4.5 step 2): a local capture allocates a fresh Open upvalue over
// the enclosing frame's stack slot and records it in the VM's open-upvalue
// list; a non-local capture just reuses the enclosing closure's own
// upvalue id at that index.
func (vm *VM) captureUpvalue(desc chunk.UpvalueDescriptor) uint32 {
	if desc.IsLocal {
		absoluteSlot := vm.active.StackBase + int(desc.Index)
		id := vm.heap.AllocOpenUpvalue(absoluteSlot)
		vm.openUpvalues = append(vm.openUpvalues, id)
		return id
	}
	enclosing := vm.heap.Closure(vm.active.ClosureID)
	return enclosing.Upvalues[desc.Index]
}

// makeClosure runs the full Closure-creation protocol (spec §4.5) for an
// OpClosure instruction: materialize the function constant, resolve each
// upvalue descriptor, allocate the ClosureObject, and store it as a
// HeapRef in the destination local slot of the current frame.
func (vm *VM) makeClosure(destSlot int, fnConstID uint16, descs []chunk.UpvalueDescriptor) {
	fnValue := vm.currentChunk().GetConstant(fnConstID)
	// Function constants are pre-registered on the heap by whatever built the
	// chunk (see vmasm.Function), so the constant pool already holds a
	// HeapRef rather than an inline payload.
	functionID := fnValue.HeapID()

	upvalues := make([]uint32, len(descs))
	for i, desc := range descs {
		upvalues[i] = vm.captureUpvalue(desc)
	}

	closureID := vm.heap.AllocClosure(&ClosureObject{FunctionID: functionID, Upvalues: upvalues})
	vm.setStack(vm.active.StackBase+destSlot, value.HeapRef(closureID))
}

// closeUpvalues runs the upvalue-closing protocol (spec §4.6) for the
// active frame, just before it is popped on Return. For every slot the
// returning function's nested closures capture, box the slot's current
// value once and re-point every still-Open upvalue aliasing that slot at
// the shared box — so aliases of the same local share one BoxedValue, per
// spec's "multiple upvalues aliasing the same slot must share one boxed
// cell".
func (vm *VM) closeUpvalues() {
	fn := vm.heap.Function(vm.heap.Closure(vm.active.ClosureID).FunctionID)
	if len(fn.CapturedSlots) == 0 {
		return
	}

	for _, slot := range fn.CapturedSlots {
		absoluteSlot := vm.active.StackBase + slot
		var boxedID uint32
		boxed := false

		remaining := vm.openUpvalues[:0]
		for _, uvID := range vm.openUpvalues {
			uv := vm.heap.Upvalue(uvID)
			if uv.IsOpen() && uv.StackSlot() == absoluteSlot {
				if !boxed {
					boxedID = vm.heap.AllocBoxedValue(vm.getStack(absoluteSlot))
					boxed = true
				}
				uv.close(boxedID)
				continue // closed entries drop out of the open-upvalue list
			}
			remaining = append(remaining, uvID)
		}
		vm.openUpvalues = remaining
	}
}
