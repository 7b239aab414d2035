package vmasm

import (
	"wisp/pkg/chunk"
	"wisp/pkg/value"
	"wisp/pkg/vm"
)

// Function registers a function object on h and returns the Value to place
// in a constant pool slot for it via Builder.Const. pkg/vm's Closure-
// creation protocol expects a function constant to already be a HeapRef
// (chunks are built by an external compiler that registers its functions
// on the heap up front), so assembling one here means doing the same.
func Function(h *vm.Heap, c *chunk.Chunk, name string, arity int, capturedSlots []int) value.Value {
	id := h.AllocFunction(&vm.FunctionObject{
		Chunk:         c,
		Arity:         arity,
		Name:          name,
		CapturedSlots: capturedSlots,
	})
	return value.HeapRef(id)
}

// EntryClosure wraps a top-level chunk (no parameters, no captured
// upvalues) in a FunctionObject and a ClosureObject, returning the closure
// id vm.New expects as its root call frame (spec §2: "a top-level Closure
// wraps the loaded chunk").
func EntryClosure(h *vm.Heap, c *chunk.Chunk) uint32 {
	fnID := h.AllocFunction(&vm.FunctionObject{Chunk: c, Arity: 0})
	return h.AllocClosure(&vm.ClosureObject{FunctionID: fnID})
}
