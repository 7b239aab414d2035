package vm

import (
	"wisp/pkg/value"
)

// entry pairs a heap object with the mark bit the GC flips during its mark
// phase (spec §4.3: "Each object carries a mark bit reset before each GC").
type entry struct {
	obj    HeapObject
	marked bool
}

// Heap is the allocator and registry of heap objects (spec §4.3, component
// C3): a stable-id -> object map. Allocation is monotonic; ids are only
// ever reused if nothing could still reference them, which in practice
// means never — the GC frees slots, not ids, so a freed id simply stops
// appearing in the map rather than getting handed to a new object.
//
// Values never hold a pointer into this map (spec §9): a Value's HeapRef
// carries only the id, and every access goes through get or the typed
// Function/Closure/Upvalue/Boxed accessors, so moving
// or discarding entries never invalidates a Value that still names them.
type Heap struct {
	objects map[uint32]*entry
	nextID  uint32
}

// NewHeap returns an empty heap.
func NewHeap() *Heap {
	return &Heap{objects: make(map[uint32]*entry)}
}

func (h *Heap) alloc(obj HeapObject) uint32 {
	id := h.nextID
	h.nextID++
	h.objects[id] = &entry{obj: obj}
	return id
}

// AllocFunction registers a FunctionObject and returns its id.
func (h *Heap) AllocFunction(fn *FunctionObject) uint32 { return h.alloc(fn) }

// AllocClosure registers a ClosureObject and returns its id.
func (h *Heap) AllocClosure(c *ClosureObject) uint32 { return h.alloc(c) }

// AllocOpenUpvalue registers a fresh Open UpvalueObject aliasing stackSlot.
func (h *Heap) AllocOpenUpvalue(stackSlot int) uint32 {
	return h.alloc(newOpenUpvalue(stackSlot))
}

// AllocBoxedValue registers a BoxedValue initialized to v — the heap cell a
// closed upvalue comes to own (spec §4.6).
func (h *Heap) AllocBoxedValue(v value.Value) uint32 {
	return h.alloc(&BoxedValue{V: v})
}

// get returns the object at id, or nil if id is absent (freed or never
// allocated). Callers that know id must be live use the typed Function/
// Closure/Upvalue/Boxed accessors below, which panic via InternalInvariant
// territory instead — a nil here this deep is always a VM bug.
func (h *Heap) get(id uint32) HeapObject {
	e, ok := h.objects[id]
	if !ok {
		return nil
	}
	return e.obj
}

// Function, Closure, Upvalue and Boxed resolve an id to its concrete type.
// Each panics on a missing id or a kind mismatch; the VM wraps that into an
// InternalInvariant error in Run rather than letting it
// escape as a bare Go panic.
func (h *Heap) Function(id uint32) *FunctionObject {
	fn, ok := h.get(id).(*FunctionObject)
	if !ok {
		panic("heap: id does not name a live FunctionObject")
	}
	return fn
}

func (h *Heap) Closure(id uint32) *ClosureObject {
	c, ok := h.get(id).(*ClosureObject)
	if !ok {
		panic("heap: id does not name a live ClosureObject")
	}
	return c
}

func (h *Heap) Upvalue(id uint32) *UpvalueObject {
	u, ok := h.get(id).(*UpvalueObject)
	if !ok {
		panic("heap: id does not name a live UpvalueObject")
	}
	return u
}

func (h *Heap) Boxed(id uint32) *BoxedValue {
	b, ok := h.get(id).(*BoxedValue)
	if !ok {
		panic("heap: id does not name a live BoxedValue")
	}
	return b
}

// SetBoxed overwrites the value stored in a BoxedValue cell (spec §4.3
// "set_boxed").
func (h *Heap) SetBoxed(id uint32, v value.Value) {
	h.Boxed(id).V = v
}

// Len reports the number of live objects, the quantity the GC threshold
// (spec §4.11) is measured against.
func (h *Heap) Len() int { return len(h.objects) }

// resetMarks clears every object's mark bit ahead of a new GC pass.
func (h *Heap) resetMarks() {
	for _, e := range h.objects {
		e.marked = false
	}
}

// mark flips the mark bit for id if present and reports whether this call
// is what marked it (false if it was already marked, so the caller's
// worklist doesn't re-walk an object's children twice).
func (h *Heap) mark(id uint32) bool {
	e, ok := h.objects[id]
	if !ok || e.marked {
		return false
	}
	e.marked = true
	return true
}

// sweepUnmarked deletes every entry whose mark bit is still clear after the
// mark phase (spec §4.3 "sweep_unmarked").
func (h *Heap) sweepUnmarked() {
	for id, e := range h.objects {
		if !e.marked {
			delete(h.objects, id)
		}
	}
}

// DisplayString resolves a Value's to_string form (spec §4.1), dispatching
// to the heap for HeapRef values since value.Value itself cannot see the
// heap. Everything else is handed straight to value.Value.ToDisplayString.
func (h *Heap) DisplayString(v value.Value) string {
	if !v.IsHeapRef() {
		return v.ToDisplayString()
	}
	obj := h.get(v.HeapID())
	if obj == nil {
		return "<freed>"
	}
	return obj.debugString(h)
}
