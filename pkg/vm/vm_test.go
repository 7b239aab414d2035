package vm_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wisp/pkg/value"
	"wisp/pkg/vm"
	"wisp/pkg/vmasm"
	"wisp/pkg/vmerrors"
)

func runDemo(t *testing.T, name string) (string, vm.Result, vmerrors.VMError) {
	t.Helper()
	demo, ok := vmasm.Get(name)
	require.True(t, ok, "demo %q must exist", name)

	heap, entry := demo.Build()
	var out bytes.Buffer
	machine := vm.New(heap, entry, vm.Config{Output: &out})
	result, err := machine.Run()
	return out.String(), result, err
}

func TestArithmeticSeedScenario(t *testing.T) {
	// 5 - 5/2.5 + 1*2 == 5
	out, result, err := runDemo(t, "arithmetic")
	require.Nil(t, err)
	assert.Equal(t, vm.HaltedOK, result.Status)
	assert.Equal(t, "[1] 5\n", out)
}

func TestTraceSeedScenario(t *testing.T) {
	out, _, err := runDemo(t, "trace")
	require.Nil(t, err)
	assert.Equal(t, "[7] 5\n", out)
}

func TestClosureCaptureOutlivesItsFrame(t *testing.T) {
	out, _, err := runDemo(t, "closure")
	require.Nil(t, err)
	assert.Equal(t, "[1] 42\n", out)
}

func TestSharedUpvalueBetweenWriterAndReader(t *testing.T) {
	out, _, err := runDemo(t, "shared-upvalue")
	require.Nil(t, err)
	assert.Equal(t, "[1] 99\n", out)
}

func TestShortCircuitSkipsUnreachableDivideByZero(t *testing.T) {
	out, _, err := runDemo(t, "short-circuit")
	require.Nil(t, err)
	assert.Equal(t, "[1] short-circuited\n", out)
	assert.False(t, strings.Contains(out, "division"))
}

func TestGCChurnKeepsHeapBounded(t *testing.T) {
	demo, ok := vmasm.Get("gc-churn")
	require.True(t, ok)

	heap, entry := demo.Build()
	var out bytes.Buffer
	machine := vm.New(heap, entry, vm.Config{
		Output: &out,
		GC:     vm.NewGCWithThreshold(16, 1.5),
	})

	result, err := machine.Run()
	require.Nil(t, err)
	assert.Equal(t, vm.HaltedOK, result.Status)
	assert.Equal(t, "[1] 20000\n", out.String())
	assert.Less(t, heap.Len(), 1000, "collector should have reclaimed the discarded closures")
}

func TestDivideByZeroHalts(t *testing.T) {
	b := vmasm.New().Line(4)
	b.PushConstant(value.Number(1))
	b.PushConstant(value.Number(0))
	b.Divide()
	b.Return()

	heap := vm.NewHeap()
	entry := vmasm.EntryClosure(heap, b.Chunk())
	machine := vm.New(heap, entry, vm.Config{})

	_, err := machine.Run()
	require.NotNil(t, err)
	assert.Equal(t, vmerrors.KindDivideByZero, err.Kind())
	assert.Equal(t, 4, err.Line())
}

func TestCallingNonClosureIsNotCallable(t *testing.T) {
	b := vmasm.New().Line(1)
	b.PushConstant(value.Number(1))
	b.Call(0)
	b.Return()

	heap := vm.NewHeap()
	entry := vmasm.EntryClosure(heap, b.Chunk())
	machine := vm.New(heap, entry, vm.Config{})

	_, err := machine.Run()
	require.NotNil(t, err)
	assert.Equal(t, vmerrors.KindNotCallable, err.Kind())
}
