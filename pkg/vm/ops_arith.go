package vm

import (
	"wisp/pkg/chunk"
	"wisp/pkg/value"
	"wisp/pkg/vmerrors"
)

// execAdd implements spec §4.9's Add row: operands are popped right-then-
// left (the top of stack is the right operand). Two numbers add
// numerically; if either side is a string, the other side is coerced with
// to_string and concatenated onto whichever side the string was on (spec
// §9 supplemented detail, following original_source/src/vm.rs's
// `(Value::String(s1), v) | (v, Value::String(s1)) => s1 + v.to_string()`).
func (vm *VM) execAdd() vmerrors.VMError {
	right := vm.pop()
	left := vm.pop()

	if left.IsNumber() && right.IsNumber() {
		vm.push(value.Number(left.AsNumber() + right.AsNumber()))
		return nil
	}
	if left.IsString() {
		vm.push(value.String(left.AsString() + vm.heap.DisplayString(right)))
		return nil
	}
	if right.IsString() {
		vm.push(value.String(vm.heap.DisplayString(left) + right.AsString()))
		return nil
	}
	return vmerrors.TypeCoercion(vm.currentLine(), "'+' requires two numbers or a string operand, got %s and %s", left.Kind(), right.Kind())
}

// execNumericBinary implements Subtract/Multiply/Divide: both operands
// must be numbers (spec §4.9), divide-by-zero is its own error kind.
func (vm *VM) execNumericBinary(op chunk.OpCode) vmerrors.VMError {
	right := vm.pop()
	left := vm.pop()

	if !left.IsNumber() || !right.IsNumber() {
		return vmerrors.TypeMismatch(vm.currentLine(), "'%s' requires two numbers, got %s and %s", op, left.Kind(), right.Kind())
	}
	a, b := left.AsNumber(), right.AsNumber()

	switch op {
	case chunk.OpSubtract:
		vm.push(value.Number(a - b))
	case chunk.OpMultiply:
		vm.push(value.Number(a * b))
	case chunk.OpDivide:
		if b == 0 {
			return vmerrors.DivideByZero(vm.currentLine())
		}
		vm.push(value.Number(a / b))
	}
	return nil
}

// execComparison implements Greater/Less/GreaterEqual/LessEqual (spec
// §4.9): operands must both be numbers or both be strings.
// GreaterEqual(a,b) == equal(a,b) || greater(a,b); LessEqual(a,b) ==
// equal(a,b) || greater(b,a) — spelled out exactly per spec rather than
// via a separate "less-or-equal" comparator, so the semantics stay
// traceable to the spec row they came from.
func (vm *VM) execComparison(op chunk.OpCode) vmerrors.VMError {
	right := vm.pop()
	left := vm.pop()

	switch op {
	case chunk.OpGreater:
		gt, err := left.IsGreaterThan(right)
		if err != nil {
			return vm.typeMismatchFrom(err)
		}
		vm.push(value.Bool(gt))
	case chunk.OpLess:
		gt, err := right.IsGreaterThan(left)
		if err != nil {
			return vm.typeMismatchFrom(err)
		}
		vm.push(value.Bool(gt))
	case chunk.OpGreaterEqual:
		gt, err := left.IsGreaterThan(right)
		if err != nil {
			return vm.typeMismatchFrom(err)
		}
		vm.push(value.Bool(left.IsEqualTo(right) || gt))
	case chunk.OpLessEqual:
		gt, err := right.IsGreaterThan(left)
		if err != nil {
			return vm.typeMismatchFrom(err)
		}
		vm.push(value.Bool(left.IsEqualTo(right) || gt))
	}
	return nil
}

func (vm *VM) coercionError(cause error) vmerrors.VMError {
	return vmerrors.TypeCoercion(vm.currentLine(), "%s", cause)
}

func (vm *VM) typeMismatchFrom(cause error) vmerrors.VMError {
	return vmerrors.TypeMismatch(vm.currentLine(), "%s", cause)
}
