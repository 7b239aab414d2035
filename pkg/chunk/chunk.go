// Package chunk implements the compiled-unit representation consumed by the
// interpreter: an instruction stream, a constant pool, and a line map.
//
// A Chunk is produced by a compiler external to this module (spec §1) and is
// immutable once handed to the VM. The layout mirrors the teacher's
// Code []byte / Constants []Value / Lines []int triple: one line number is
// recorded per byte of Code, so GetLine can be looked up from any offset
// that starts an instruction.
package chunk

import (
	"encoding/binary"
	"fmt"

	"wisp/pkg/value"
)

// UpvalueDescriptor records one captured variable for an OpClosure
// instruction (spec §4.5): IsLocal selects whether Index names a slot in the
// enclosing frame (captured fresh) or an index into the enclosing closure's
// own upvalue vector (reused as-is).
type UpvalueDescriptor struct {
	IsLocal bool
	Index   uint16
}

// Chunk is an ordered instruction stream plus the constant pool and line map
// it references. Read-only once built.
type Chunk struct {
	Code      []byte
	Constants []value.Value
	Lines     []int
}

// New returns an empty Chunk ready for Write* calls.
func New() *Chunk {
	return &Chunk{}
}

// AddConstant appends v to the constant pool and returns its u16 id.
// Panics if the pool would overflow a u16 index — a compiler bug, not a
// runtime condition the VM needs to recover from.
func (c *Chunk) AddConstant(v value.Value) uint16 {
	if len(c.Constants) >= 1<<16 {
		panic("chunk: constant pool exceeds 65536 entries")
	}
	c.Constants = append(c.Constants, v)
	return uint16(len(c.Constants) - 1)
}

// GetConstant fetches the constant at id. Panics on an out-of-range id,
// which indicates a corrupted chunk (surfaced by the VM as InternalInvariant).
func (c *Chunk) GetConstant(id uint16) value.Value {
	return c.Constants[id]
}

func (c *Chunk) writeByte(b byte, line int) {
	c.Code = append(c.Code, b)
	c.Lines = append(c.Lines, line)
}

// WriteOp appends a bare opcode (no operands) at the given source line.
func (c *Chunk) WriteOp(op OpCode, line int) int {
	pos := len(c.Code)
	c.writeByte(byte(op), line)
	return pos
}

// WriteU8 appends a single-byte operand.
func (c *Chunk) WriteU8(b byte, line int) {
	c.writeByte(b, line)
}

// WriteU16 appends a big-endian two-byte operand.
func (c *Chunk) WriteU16(v uint16, line int) {
	var buf [2]byte
	binary.BigEndian.PutUint16(buf[:], v)
	c.writeByte(buf[0], line)
	c.writeByte(buf[1], line)
}

// WriteOpU16 is a convenience for the very common "opcode + u16 operand"
// shape (PushConstant, GetLocal, jumps, ...).
func (c *Chunk) WriteOpU16(op OpCode, operand uint16, line int) int {
	pos := c.WriteOp(op, line)
	c.WriteU16(operand, line)
	return pos
}

// PatchU16 overwrites the u16 operand whose first byte is at offset (one
// past the opcode position WriteOpU16 returns) with a freshly computed
// value. Used to back-patch jump deltas once the jump target is known;
// pkg/vmasm's Builder calls it for forward jumps and JumpBack.
func (c *Chunk) PatchU16(offset int, v uint16) {
	var buf [2]byte
	binary.BigEndian.PutUint16(buf[:], v)
	c.Code[offset] = buf[0]
	c.Code[offset+1] = buf[1]
}

// FetchOp returns the opcode at ip and whether ip was in range.
func (c *Chunk) FetchOp(ip int) (OpCode, bool) {
	if ip < 0 || ip >= len(c.Code) {
		return 0, false
	}
	return OpCode(c.Code[ip]), true
}

// ReadU8 reads the single-byte operand starting at ip.
func (c *Chunk) ReadU8(ip int) byte {
	return c.Code[ip]
}

// ReadU16 reads the big-endian two-byte operand starting at ip.
func (c *Chunk) ReadU16(ip int) uint16 {
	return binary.BigEndian.Uint16(c.Code[ip : ip+2])
}

// GetLine maps an instruction-stream offset to its source line, used only
// for diagnostics (Trace, error reporting). Returns 0 for an out-of-range
// offset rather than panicking — diagnostics must never be the thing that
// crashes a crash report.
func (c *Chunk) GetLine(offset int) int {
	if offset < 0 || offset >= len(c.Lines) {
		return 0
	}
	return c.Lines[offset]
}

// Disassemble renders the chunk as a human-readable instruction listing,
// for tests that assert on compiled shape. The --debug dump does not use
// it; it prints only the opcode about to run.
func (c *Chunk) Disassemble(name string) string {
	out := fmt.Sprintf("== %s ==\n", name)
	ip := 0
	for ip < len(c.Code) {
		out += c.disassembleInstr(&ip)
	}
	return out
}

func (c *Chunk) disassembleInstr(ip *int) string {
	start := *ip
	op := OpCode(c.Code[*ip])
	line := c.Lines[*ip]
	*ip++

	switch op {
	case OpPushConstant:
		id := c.ReadU16(*ip)
		*ip += 2
		return fmt.Sprintf("%04d [line %d] %-18s %4d '%s'\n", start, line, op, id, c.Constants[id])
	case OpGetLocal, OpSetLocal, OpDeclare, OpReserve, OpGetUpvalue, OpSetUpvalue,
		OpJump, OpJumpIfTruthy, OpJumpIfFalsy, OpPopAndJumpFalsy, OpJumpBack:
		operand := c.ReadU16(*ip)
		*ip += 2
		return fmt.Sprintf("%04d [line %d] %-18s %4d\n", start, line, op, operand)
	case OpCall:
		argc := c.Code[*ip]
		*ip++
		return fmt.Sprintf("%04d [line %d] %-18s %4d\n", start, line, op, argc)
	case OpClosure:
		destSlot := c.ReadU16(*ip)
		*ip += 2
		fnConst := c.ReadU16(*ip)
		*ip += 2
		n := c.Code[*ip]
		*ip++
		descs, next := DecodeUpvalues(c, *ip, n)
		*ip = next
		desc := ""
		for _, d := range descs {
			desc += fmt.Sprintf(" (local=%v idx=%d)", d.IsLocal, d.Index)
		}
		return fmt.Sprintf("%04d [line %d] %-18s slot=%d fn=%d%s\n", start, line, op, destSlot, fnConst, desc)
	default:
		return fmt.Sprintf("%04d [line %d] %-18s\n", start, line, op)
	}
}

// DecodeUpvalues reads n upvalue descriptors starting at ip, returning the
// advanced ip. Shared by the interpreter's OpClosure handler and the
// disassembler so the wire shape only needs to be described once.
func DecodeUpvalues(c *Chunk, ip int, n byte) ([]UpvalueDescriptor, int) {
	descs := make([]UpvalueDescriptor, n)
	for i := byte(0); i < n; i++ {
		isLocal := c.Code[ip] != 0
		ip++
		idx := c.ReadU16(ip)
		ip += 2
		descs[i] = UpvalueDescriptor{IsLocal: isLocal, Index: idx}
	}
	return descs, ip
}
