package vm

// CallFrame is the currently-executing closure, its program counter and its
// stack base (spec §3 "CallFrame", component C6). The active frame is kept
// outside the call-stack slice for fast access, mirroring the teacher's
// `frame` field + `callstack []frame` split.
type CallFrame struct {
	ClosureID uint32
	PC        int
	StackBase int
}
