// Package value implements the VM's tagged-union runtime value (spec §3) and
// its associated operations: coercion, truthiness, equality and ordering
// (spec §4.1).
//
// The design keeps the teacher's tagged-struct-with-a-union-field shape
// (see the retrieved pkg/value.Value: a Type tag plus an "as" union) but
// replaces its raw `interface{}`/pointer payload with a plain uint32 heap
// id. Spec §9 is explicit that "implementers must not embed raw memory
// addresses into Heap objects" — Values never hold a Go pointer to a heap
// object, only the id the VM's heap registry resolves.
package value

import (
	"math"
	"strconv"

	"github.com/pkg/errors"
)

// Kind identifies which variant of Value is populated.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindHeapRef
	// KindUninitialized marks a Reserve'd slot that program code must never
	// legally observe (spec §3).
	KindUninitialized
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindHeapRef:
		return "heap-ref"
	case KindUninitialized:
		return "uninitialized"
	default:
		return "unknown"
	}
}

// Value is the VM's tagged union. Copied by value everywhere (stack slots,
// constant pool entries, register reads) exactly like the teacher's Value
// struct; only the HeapRef case carries a reference outside the struct
// itself.
type Value struct {
	kind   Kind
	b      bool
	n      float64
	s      string
	heapID uint32
}

func Null() Value              { return Value{kind: KindNull} }
func Uninitialized() Value     { return Value{kind: KindUninitialized} }
func Bool(b bool) Value        { return Value{kind: KindBool, b: b} }
func Number(n float64) Value   { return Value{kind: KindNumber, n: n} }
func String(s string) Value    { return Value{kind: KindString, s: s} }
func HeapRef(id uint32) Value  { return Value{kind: KindHeapRef, heapID: id} }

func (v Value) Kind() Kind        { return v.kind }
func (v Value) IsNull() bool      { return v.kind == KindNull }
func (v Value) IsBool() bool      { return v.kind == KindBool }
func (v Value) IsNumber() bool    { return v.kind == KindNumber }
func (v Value) IsString() bool    { return v.kind == KindString }
func (v Value) IsHeapRef() bool   { return v.kind == KindHeapRef }
func (v Value) IsUninitialized() bool { return v.kind == KindUninitialized }

// AsBool, AsNumber, AsString and HeapID assume the caller already checked
// Kind(); like the teacher's AsX accessors they panic on mismatch rather
// than silently returning a zero value, since a kind mismatch here is
// always an interpreter bug (InternalInvariant territory), never a user
// error.
func (v Value) AsBool() bool {
	if v.kind != KindBool {
		panic("value: AsBool on non-bool Value")
	}
	return v.b
}

func (v Value) AsNumber() float64 {
	if v.kind != KindNumber {
		panic("value: AsNumber on non-number Value")
	}
	return v.n
}

func (v Value) AsString() string {
	if v.kind != KindString {
		panic("value: AsString on non-string Value")
	}
	return v.s
}

func (v Value) HeapID() uint32 {
	if v.kind != KindHeapRef {
		panic("value: HeapID on non-heap-ref Value")
	}
	return v.heapID
}

// IsTruthy implements spec §3: false, Null and Uninitialized are falsy;
// everything else (including 0 and "") is truthy.
func (v Value) IsTruthy() bool {
	switch v.kind {
	case KindNull, KindUninitialized:
		return false
	case KindBool:
		return v.b
	default:
		return true
	}
}

// ToNumber implements spec §4.1's to_number coercion.
func (v Value) ToNumber() (float64, error) {
	switch v.kind {
	case KindNumber:
		return v.n, nil
	case KindBool:
		if v.b {
			return 1, nil
		}
		return 0, nil
	case KindNull:
		return 0, nil
	case KindString:
		n, err := strconv.ParseFloat(v.s, 64)
		if err != nil {
			return 0, errors.Wrapf(ErrTypeCoercion, "cannot coerce string %q to a number", v.s)
		}
		return n, nil
	default:
		return 0, errors.Wrapf(ErrTypeCoercion, "cannot coerce %s to a number", v.kind)
	}
}

// ToDisplayString implements spec §4.1's to_string coercion. Heap-backed
// values (functions/closures) are not resolvable from this package — the
// VM's Heap.DisplayString formats those itself and uses ToDisplayString
// only for the other kinds; ToDisplayString panics if asked to stringify
// one directly, which only happens if a caller skips that step.
func (v Value) ToDisplayString() string {
	switch v.kind {
	case KindNull:
		return "null"
	case KindUninitialized:
		return "uninitialized"
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindNumber:
		return formatNumber(v.n)
	case KindString:
		return v.s
	default:
		panic("value: ToDisplayString on heap-ref Value without resolving it first")
	}
}

func formatNumber(n float64) string {
	if math.IsNaN(n) {
		return "NaN"
	}
	if math.IsInf(n, 1) {
		return "Infinity"
	}
	if math.IsInf(n, -1) {
		return "-Infinity"
	}
	return strconv.FormatFloat(n, 'f', -1, 64)
}

// IsEqualTo implements spec §4.1: same-tag structural equality, cross-tag
// always false, NaN != NaN (inherited IEEE-754 semantics — no special
// casing needed since Go's == on float64 already behaves that way).
// Heap-ref equality is identity (same id) — the heap never aliases two
// ids to one live object.
func (v Value) IsEqualTo(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindNull, KindUninitialized:
		return true
	case KindBool:
		return v.b == other.b
	case KindNumber:
		return v.n == other.n
	case KindString:
		return v.s == other.s
	case KindHeapRef:
		return v.heapID == other.heapID
	default:
		return false
	}
}

// IsGreaterThan implements spec §4.1: numbers compare by >, strings
// lexicographically, anything else is a TypeMismatch.
func (v Value) IsGreaterThan(other Value) (bool, error) {
	if v.kind == KindNumber && other.kind == KindNumber {
		return v.n > other.n, nil
	}
	if v.kind == KindString && other.kind == KindString {
		return v.s > other.s, nil
	}
	return false, errors.Wrapf(ErrTypeMismatch, "cannot compare %s and %s", v.kind, other.kind)
}

// Sentinel coercion/comparison errors. The VM wraps these into its own
// vmerrors.VMError (with a source line attached) at the dispatch site; tests
// and callers outside the VM can still errors.Is against these directly.
var (
	ErrTypeCoercion = errors.New("type coercion failed")
	ErrTypeMismatch = errors.New("type mismatch")
)
