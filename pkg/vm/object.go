package vm

import (
	"fmt"

	"wisp/pkg/chunk"
	"wisp/pkg/value"
)

// ObjectKind tags the variant of HeapObject stored in a Heap entry.
type ObjectKind uint8

const (
	ObjFunction ObjectKind = iota
	ObjClosure
	ObjUpvalue
	ObjBoxedValue
)

func (k ObjectKind) String() string {
	switch k {
	case ObjFunction:
		return "Function"
	case ObjClosure:
		return "Closure"
	case ObjUpvalue:
		return "UpValue"
	case ObjBoxedValue:
		return "BoxedValue"
	default:
		return "Unknown"
	}
}

// HeapObject is implemented by every value the Heap can own. refs reports
// the ids of other heap objects this one points to directly, which is all
// the GC's mark phase (spec §4.11) needs to walk the graph; it never
// inspects struct fields by reflection.
//
// Strings are not a HeapObject kind here: spec §3/§4.3 allows either inline
// or boxed string storage, and this VM keeps strings inline in Value (see
// pkg/value), so there is no ObjString — see DESIGN.md.
type HeapObject interface {
	Kind() ObjectKind
	refs() []uint32
	debugString(h *Heap) string
}

// FunctionObject is the immutable code object backing a closure (spec
// §3 "Function object"): chunk, arity, and the local slot indices any
// nested closure captures as a "local" upvalue (spec §4.5/§4.6).
type FunctionObject struct {
	Chunk         *chunk.Chunk
	Arity         int
	Name          string
	CapturedSlots []int
}

func (f *FunctionObject) Kind() ObjectKind { return ObjFunction }

func (f *FunctionObject) refs() []uint32 {
	var out []uint32
	for _, c := range f.Chunk.Constants {
		if c.IsHeapRef() {
			out = append(out, c.HeapID())
		}
	}
	return out
}

func (f *FunctionObject) debugString(h *Heap) string {
	if f.Name == "" {
		return "<fn anonymous>"
	}
	return fmt.Sprintf("<fn %s>", f.Name)
}

// ClosureObject pairs a FunctionObject with the upvalues captured at its
// creation site (spec §3 "Closure"). The upvalue vector is fixed-length,
// set once in the Closure-creation protocol (spec §4.5).
type ClosureObject struct {
	FunctionID uint32
	Upvalues   []uint32 // ids of UpvalueObject heap entries
}

func (c *ClosureObject) Kind() ObjectKind { return ObjClosure }

func (c *ClosureObject) refs() []uint32 {
	out := make([]uint32, 0, len(c.Upvalues)+1)
	out = append(out, c.FunctionID)
	out = append(out, c.Upvalues...)
	return out
}

func (c *ClosureObject) debugString(h *Heap) string {
	if fn, ok := h.get(c.FunctionID).(*FunctionObject); ok {
		return fn.debugString(h)
	}
	return "<closure>"
}

// upvalueLocation distinguishes the two states an UpvalueObject can be in
// (spec §3 "UpValue cell"): Open points into the evaluation stack, Closed
// owns a BoxedValue heap cell. A cell starts Open and transitions to Closed
// at most once (spec §4.6).
type upvalueLocation struct {
	open      bool
	stackSlot int    // valid when open
	boxedID   uint32 // valid when !open
}

// UpvalueObject is the indirection cell representing one captured variable.
type UpvalueObject struct {
	loc upvalueLocation
}

func newOpenUpvalue(stackSlot int) *UpvalueObject {
	return &UpvalueObject{loc: upvalueLocation{open: true, stackSlot: stackSlot}}
}

func (u *UpvalueObject) Kind() ObjectKind { return ObjUpvalue }

func (u *UpvalueObject) IsOpen() bool    { return u.loc.open }
func (u *UpvalueObject) StackSlot() int  { return u.loc.stackSlot }
func (u *UpvalueObject) BoxedID() uint32 { return u.loc.boxedID }

// close transitions the upvalue from Open to Closed (spec §4.4/§4.6). It
// must be invoked at most once per cell; the upvalue-closing protocol
// guarantees that by only ever calling it on cells still found to be Open.
func (u *UpvalueObject) close(boxedID uint32) {
	u.loc = upvalueLocation{open: false, boxedID: boxedID}
}

func (u *UpvalueObject) refs() []uint32 {
	if u.loc.open {
		return nil
	}
	return []uint32{u.loc.boxedID}
}

func (u *UpvalueObject) debugString(h *Heap) string {
	if u.loc.open {
		return fmt.Sprintf("<upvalue open@%d>", u.loc.stackSlot)
	}
	return "<upvalue closed>"
}

// BoxedValue is a heap cell holding a single mutable Value — the backing
// store a closed UpvalueObject delegates to, and the unit multiple upvalues
// aliasing the same local share (spec §4.6).
type BoxedValue struct {
	V value.Value
}

func (b *BoxedValue) Kind() ObjectKind { return ObjBoxedValue }

func (b *BoxedValue) refs() []uint32 {
	if b.V.IsHeapRef() {
		return []uint32{b.V.HeapID()}
	}
	return nil
}

func (b *BoxedValue) debugString(h *Heap) string {
	return fmt.Sprintf("box(%s)", h.DisplayString(b.V))
}
