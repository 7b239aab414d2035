package chunk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wisp/pkg/value"
)

func TestAddConstantRoundTrip(t *testing.T) {
	c := New()
	id := c.AddConstant(value.Number(42))
	assert.Equal(t, value.Number(42), c.GetConstant(id))
}

func TestWriteAndFetchOp(t *testing.T) {
	c := New()
	pos := c.WriteOpU16(OpGetLocal, 7, 3)

	op, ok := c.FetchOp(pos)
	require.True(t, ok)
	assert.Equal(t, OpGetLocal, op)
	assert.Equal(t, uint16(7), c.ReadU16(pos+1))
	assert.Equal(t, 3, c.GetLine(pos))

	_, ok = c.FetchOp(len(c.Code))
	assert.False(t, ok)
}

func TestPatchU16(t *testing.T) {
	c := New()
	pos := c.WriteOpU16(OpJump, 0, 1)
	c.PatchU16(pos+1, 99)
	assert.Equal(t, uint16(99), c.ReadU16(pos+1))
}

func TestGetLineOutOfRangeReturnsZero(t *testing.T) {
	c := New()
	assert.Equal(t, 0, c.GetLine(-1))
	assert.Equal(t, 0, c.GetLine(1000))
}

func TestDecodeUpvalues(t *testing.T) {
	c := New()
	c.WriteU8(1, 1) // isLocal = true
	c.WriteU16(5, 1)
	c.WriteU8(0, 1) // isLocal = false
	c.WriteU16(2, 1)

	descs, ip := DecodeUpvalues(c, 0, 2)
	require.Len(t, descs, 2)
	assert.Equal(t, UpvalueDescriptor{IsLocal: true, Index: 5}, descs[0])
	assert.Equal(t, UpvalueDescriptor{IsLocal: false, Index: 2}, descs[1])
	assert.Equal(t, len(c.Code), ip)
}

func TestDisassembleDoesNotPanic(t *testing.T) {
	c := New()
	id := c.AddConstant(value.Number(1))
	c.WriteOpU16(OpPushConstant, id, 1)
	c.WriteOp(OpReturn, 1)

	out := c.Disassemble("test")
	assert.Contains(t, out, "PushConstant")
	assert.Contains(t, out, "Return")
}
