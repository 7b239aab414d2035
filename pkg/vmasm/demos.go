package vmasm

import (
	"wisp/pkg/chunk"
	"wisp/pkg/value"
	"wisp/pkg/vm"
)

// Demo is one hand-assembled program exercising a particular corner of the
// interpreter — the seed scenarios a real compiler's test suite would
// generate, assembled by hand here since this module has no compiler.
type Demo struct {
	Name        string
	Description string
	Build       func() (*vm.Heap, uint32) // returns (heap, entry closure id)
}

// Demos lists every hand-assembled seed scenario, addressable by name from
// the CLI's --demo flag.
var Demos = []Demo{
	{"arithmetic", "5 - 5/2.5 + 1*2, traced, expected 5", demoArithmetic},
	{"trace", "a single Trace at line 7, expected '[7] 5'", demoTrace},
	{"closure", "a closure capturing a local that outlives its frame (open -> closed)", demoClosure},
	{"shared-upvalue", "two closures aliasing one captured local, writer then reader", demoSharedUpvalue},
	{"short-circuit", "PopAndJumpFalsy skips a divide-by-zero that would otherwise halt the program", demoShortCircuit},
	{"gc-churn", "a counted loop that allocates one throwaway closure per iteration", demoGCChurn},
}

// Get looks up a demo by name.
func Get(name string) (Demo, bool) {
	for _, d := range Demos {
		if d.Name == name {
			return d, true
		}
	}
	return Demo{}, false
}

func demoArithmetic() (*vm.Heap, uint32) {
	h := vm.NewHeap()
	b := New().Line(1)
	b.PushConstant(value.Number(5))
	b.PushConstant(value.Number(5))
	b.PushConstant(value.Number(2.5))
	b.Divide()
	b.Subtract()
	b.PushConstant(value.Number(1))
	b.PushConstant(value.Number(2))
	b.Multiply()
	b.Add()
	b.Trace()
	b.Pop()
	b.Null()
	b.Return()
	return h, EntryClosure(h, b.Chunk())
}

func demoTrace() (*vm.Heap, uint32) {
	h := vm.NewHeap()
	b := New().Line(7)
	b.PushConstant(value.Number(5))
	b.Trace()
	b.Pop()
	b.Null()
	b.Return()
	return h, EntryClosure(h, b.Chunk())
}

// demoClosure builds:
//
//	outer() { var v = 42; return fn inner() { return v } }
//	print outer()()
//
// so that by the time inner is actually invoked, outer's frame (and the
// local slot 1 that backs the upvalue) is long gone — the upvalue can only
// still work if it was closed (boxed) on outer's Return.
func demoClosure() (*vm.Heap, uint32) {
	h := vm.NewHeap()

	inner := New().Line(10)
	inner.GetUpvalue(0)
	inner.Return()
	innerFn := Function(h, inner.Chunk(), "inner", 0, nil)

	outer := New().Line(9)
	outer.Reserve(2) // slot 1: v, slot 2: the inner closure (slot 0 is outer itself)
	outer.PushConstant(value.Number(42))
	outer.Declare(1)
	innerConstID := outer.Const(innerFn)
	outer.Closure(2, innerConstID, []chunk.UpvalueDescriptor{Local(1)})
	outer.GetLocal(2)
	outer.Return()
	outerFn := Function(h, outer.Chunk(), "outer", 0, []int{1})

	top := New().Line(1)
	top.Reserve(1) // slot 0: outer closure
	outerConstID := top.Const(outerFn)
	top.Closure(0, outerConstID, nil)
	top.GetLocal(0)
	top.Call(0) // outer() -> inner closure
	top.Call(0) // inner() -> 42, read through the now-closed upvalue
	top.Trace()
	top.Pop()
	top.Null()
	top.Return()

	return h, EntryClosure(h, top.Chunk())
}

// demoSharedUpvalue builds:
//
//	outer() {
//	  var v = 0
//	  writer = fn() { v = 99 }
//	  reader = fn() { return v }
//	  writer()
//	  return reader()
//	}
//	print outer()
//
// writer and reader each get their own UpvalueObject over the same local
// slot; writer's write must be visible to reader's read, proving the two
// objects alias one stack cell rather than each owning a private copy.
func demoSharedUpvalue() (*vm.Heap, uint32) {
	h := vm.NewHeap()

	writer := New().Line(20)
	writer.PushConstant(value.Number(99))
	writer.SetUpvalue(0)
	writer.Return()
	writerFn := Function(h, writer.Chunk(), "writer", 0, nil)

	reader := New().Line(21)
	reader.GetUpvalue(0)
	reader.Return()
	readerFn := Function(h, reader.Chunk(), "reader", 0, nil)

	outer := New().Line(15)
	outer.Reserve(3) // slot 1: v, slot 2: writer, slot 3: reader
	outer.PushConstant(value.Number(0))
	outer.Declare(1)
	writerConstID := outer.Const(writerFn)
	outer.Closure(2, writerConstID, []chunk.UpvalueDescriptor{Local(1)})
	readerConstID := outer.Const(readerFn)
	outer.Closure(3, readerConstID, []chunk.UpvalueDescriptor{Local(1)})
	outer.GetLocal(2)
	outer.Call(0)
	outer.Pop()
	outer.GetLocal(3)
	outer.Call(0)
	outer.Return()
	outerFn := Function(h, outer.Chunk(), "outer", 0, []int{1})

	top := New().Line(1)
	top.Reserve(1)
	outerConstID := top.Const(outerFn)
	top.Closure(0, outerConstID, nil)
	top.GetLocal(0)
	top.Call(0)
	top.Trace()
	top.Pop()
	top.Null()
	top.Return()

	return h, EntryClosure(h, top.Chunk())
}

func demoShortCircuit() (*vm.Heap, uint32) {
	h := vm.NewHeap()
	b := New().Line(1)
	b.False()
	skip := b.PopAndJumpFalsy()
	// Unreachable: would halt the program with DivideByZero if ever executed.
	b.PushConstant(value.Number(1))
	b.PushConstant(value.Number(0))
	b.Divide()
	b.Trace()
	b.Pop()
	b.Patch(skip)
	b.PushConstant(value.String("short-circuited"))
	b.Trace()
	b.Pop()
	b.Null()
	b.Return()
	return h, EntryClosure(h, b.Chunk())
}

// demoGCChurn loops, allocating one throwaway closure per iteration into
// the same local slot: only the latest survives as a root, so the rest are
// garbage the collector must reclaim rather than let the heap grow
// unbounded across iterations.
func demoGCChurn() (*vm.Heap, uint32) {
	const iterations = 20000
	h := vm.NewHeap()

	garbage := New().Line(30)
	garbage.Null()
	garbage.Return()
	garbageFn := Function(h, garbage.Chunk(), "", 0, nil)

	top := New().Line(1)
	top.Reserve(2) // slot 0: counter, slot 1: throwaway closure
	top.PushConstant(value.Number(0))
	top.Declare(0)
	garbageConstID := top.Const(garbageFn)

	loop := top.Label()
	top.GetLocal(0)
	top.PushConstant(value.Number(iterations))
	top.Less()
	exit := top.PopAndJumpFalsy()

	top.Closure(1, garbageConstID, nil)
	top.GetLocal(0)
	top.PushConstant(value.Number(1))
	top.Add()
	top.Declare(0)
	top.JumpBack(loop)

	top.Patch(exit)
	top.GetLocal(0)
	top.Trace()
	top.Pop()
	top.Null()
	top.Return()

	return h, EntryClosure(h, top.Chunk())
}
