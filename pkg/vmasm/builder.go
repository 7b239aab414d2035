// Package vmasm is a small fluent chunk assembler: not a compiler, just
// enough to hand-write the bytecode an external compiler would otherwise
// emit. Grounded on original_source/src/vm.rs's test fixtures, which build
// chunks the same way — a sequence of chk.add_const/chk.add_instr calls —
// translated here into a chainable Builder so call sites read like a small
// assembly listing.
package vmasm

import (
	"wisp/pkg/chunk"
	"wisp/pkg/value"
)

// Builder accumulates instructions into a chunk.Chunk at a tracked source
// line (set via Line, defaulting to 1).
type Builder struct {
	chunk *chunk.Chunk
	line  int
}

// New starts a fresh, empty chunk.
func New() *Builder {
	return &Builder{chunk: chunk.New(), line: 1}
}

// Line sets the source line subsequent instructions are tagged with.
func (b *Builder) Line(n int) *Builder {
	b.line = n
	return b
}

// Chunk returns the chunk built so far. Safe to call mid-build: callers
// that need a function's own chunk while still wiring a Closure constant
// pool entry (e.g. recursive functions) can call this before the last
// instruction is emitted.
func (b *Builder) Chunk() *chunk.Chunk {
	return b.chunk
}

// Const registers v in the constant pool without emitting PushConstant,
// returning its id — used when the constant is a function object destined
// for an OpClosure rather than a value to push directly.
func (b *Builder) Const(v value.Value) uint16 {
	return b.chunk.AddConstant(v)
}

// --- stack pushes ---

func (b *Builder) PushConstant(v value.Value) *Builder {
	id := b.chunk.AddConstant(v)
	return b.PushConstID(id)
}

func (b *Builder) PushConstID(id uint16) *Builder {
	b.chunk.WriteOpU16(chunk.OpPushConstant, id, b.line)
	return b
}

func (b *Builder) True() *Builder  { b.chunk.WriteOp(chunk.OpPushTrue, b.line); return b }
func (b *Builder) False() *Builder { b.chunk.WriteOp(chunk.OpPushFalse, b.line); return b }
func (b *Builder) Null() *Builder  { b.chunk.WriteOp(chunk.OpPushNull, b.line); return b }
func (b *Builder) Pop() *Builder   { b.chunk.WriteOp(chunk.OpPop, b.line); return b }

// --- arithmetic / logic ---

func (b *Builder) Negate() *Builder   { b.chunk.WriteOp(chunk.OpNegate, b.line); return b }
func (b *Builder) ToNumber() *Builder { b.chunk.WriteOp(chunk.OpToNumber, b.line); return b }
func (b *Builder) Not() *Builder      { b.chunk.WriteOp(chunk.OpNot, b.line); return b }
func (b *Builder) Add() *Builder      { b.chunk.WriteOp(chunk.OpAdd, b.line); return b }
func (b *Builder) Subtract() *Builder { b.chunk.WriteOp(chunk.OpSubtract, b.line); return b }
func (b *Builder) Multiply() *Builder { b.chunk.WriteOp(chunk.OpMultiply, b.line); return b }
func (b *Builder) Divide() *Builder   { b.chunk.WriteOp(chunk.OpDivide, b.line); return b }

// --- comparison ---

func (b *Builder) Equal() *Builder        { b.chunk.WriteOp(chunk.OpEqual, b.line); return b }
func (b *Builder) NotEqual() *Builder     { b.chunk.WriteOp(chunk.OpNotEqual, b.line); return b }
func (b *Builder) Greater() *Builder      { b.chunk.WriteOp(chunk.OpGreater, b.line); return b }
func (b *Builder) Less() *Builder         { b.chunk.WriteOp(chunk.OpLess, b.line); return b }
func (b *Builder) GreaterEqual() *Builder { b.chunk.WriteOp(chunk.OpGreaterEqual, b.line); return b }
func (b *Builder) LessEqual() *Builder    { b.chunk.WriteOp(chunk.OpLessEqual, b.line); return b }

// --- locals / upvalues ---

func (b *Builder) GetLocal(slot uint16) *Builder {
	b.chunk.WriteOpU16(chunk.OpGetLocal, slot, b.line)
	return b
}
func (b *Builder) SetLocal(slot uint16) *Builder {
	b.chunk.WriteOpU16(chunk.OpSetLocal, slot, b.line)
	return b
}
func (b *Builder) Declare(slot uint16) *Builder {
	b.chunk.WriteOpU16(chunk.OpDeclare, slot, b.line)
	return b
}
func (b *Builder) Reserve(count uint16) *Builder {
	b.chunk.WriteOpU16(chunk.OpReserve, count, b.line)
	return b
}
func (b *Builder) GetUpvalue(idx uint16) *Builder {
	b.chunk.WriteOpU16(chunk.OpGetUpvalue, idx, b.line)
	return b
}
func (b *Builder) SetUpvalue(idx uint16) *Builder {
	b.chunk.WriteOpU16(chunk.OpSetUpvalue, idx, b.line)
	return b
}

// --- control flow ---
//
// The four forward-jump emitters return the offset of the jump's opcode
// byte; pass it to Patch once the target is known to back-fill the delta
// (mirrors how a real compiler patches forward branches after emitting the
// jumped-over code). JumpBack is backward-only and takes the target label
// directly since the target is always already known when it is emitted.

func (b *Builder) Jump() int            { return b.chunk.WriteOpU16(chunk.OpJump, 0, b.line) }
func (b *Builder) JumpIfTruthy() int    { return b.chunk.WriteOpU16(chunk.OpJumpIfTruthy, 0, b.line) }
func (b *Builder) JumpIfFalsy() int     { return b.chunk.WriteOpU16(chunk.OpJumpIfFalsy, 0, b.line) }
func (b *Builder) PopAndJumpFalsy() int { return b.chunk.WriteOpU16(chunk.OpPopAndJumpFalsy, 0, b.line) }

// Label returns the offset of the next instruction to be emitted, for use
// as a JumpBack target.
func (b *Builder) Label() int { return len(b.chunk.Code) }

// Patch back-fills a forward jump emitted at pos so it lands on the next
// instruction to be emitted.
func (b *Builder) Patch(pos int) *Builder {
	target := len(b.chunk.Code)
	delta := uint16(target - (pos + 3))
	b.chunk.PatchU16(pos+1, delta)
	return b
}

// JumpBack emits a backward jump to target (an offset returned by Label).
func (b *Builder) JumpBack(target int) *Builder {
	pos := b.chunk.WriteOpU16(chunk.OpJumpBack, 0, b.line)
	ipAfter := pos + 3
	b.chunk.PatchU16(pos+1, uint16(ipAfter-target))
	return b
}

// --- calls / closures / diagnostics ---

func (b *Builder) Call(argc byte) *Builder {
	b.chunk.WriteOp(chunk.OpCall, b.line)
	b.chunk.WriteU8(argc, b.line)
	return b
}

func (b *Builder) Return() *Builder { b.chunk.WriteOp(chunk.OpReturn, b.line); return b }
func (b *Builder) Trace() *Builder  { b.chunk.WriteOp(chunk.OpTrace, b.line); return b }

// Closure emits OpClosure capturing descs against the function constant
// already registered at fnConstID (see Const), storing the result in
// destSlot.
func (b *Builder) Closure(destSlot, fnConstID uint16, descs []chunk.UpvalueDescriptor) *Builder {
	b.chunk.WriteOpU16(chunk.OpClosure, destSlot, b.line)
	b.chunk.WriteU16(fnConstID, b.line)
	b.chunk.WriteU8(byte(len(descs)), b.line)
	for _, d := range descs {
		isLocal := byte(0)
		if d.IsLocal {
			isLocal = 1
		}
		b.chunk.WriteU8(isLocal, b.line)
		b.chunk.WriteU16(d.Index, b.line)
	}
	return b
}

// Local builds an UpvalueDescriptor capturing the enclosing frame's slot
// index directly.
func Local(slot uint16) chunk.UpvalueDescriptor {
	return chunk.UpvalueDescriptor{IsLocal: true, Index: slot}
}

// Outer builds an UpvalueDescriptor reusing the enclosing closure's own
// upvalue at index.
func Outer(index uint16) chunk.UpvalueDescriptor {
	return chunk.UpvalueDescriptor{IsLocal: false, Index: index}
}
