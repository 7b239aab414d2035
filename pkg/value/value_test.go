package value

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsTruthy(t *testing.T) {
	cases := []struct {
		name string
		v    Value
		want bool
	}{
		{"null", Null(), false},
		{"uninitialized", Uninitialized(), false},
		{"false", Bool(false), false},
		{"true", Bool(true), true},
		{"zero", Number(0), true},
		{"empty string", String(""), true},
		{"heap ref", HeapRef(0), true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, c.v.IsTruthy())
		})
	}
}

func TestToNumber(t *testing.T) {
	n, err := Number(3.5).ToNumber()
	require.NoError(t, err)
	assert.Equal(t, 3.5, n)

	n, err = Bool(true).ToNumber()
	require.NoError(t, err)
	assert.Equal(t, float64(1), n)

	n, err = Bool(false).ToNumber()
	require.NoError(t, err)
	assert.Equal(t, float64(0), n)

	n, err = Null().ToNumber()
	require.NoError(t, err)
	assert.Equal(t, float64(0), n)

	n, err = String("42.5").ToNumber()
	require.NoError(t, err)
	assert.Equal(t, 42.5, n)

	_, err = String("not a number").ToNumber()
	assert.ErrorIs(t, err, ErrTypeCoercion)
}

func TestToDisplayString(t *testing.T) {
	assert.Equal(t, "null", Null().ToDisplayString())
	assert.Equal(t, "uninitialized", Uninitialized().ToDisplayString())
	assert.Equal(t, "true", Bool(true).ToDisplayString())
	assert.Equal(t, "3.5", Number(3.5).ToDisplayString())
	assert.Equal(t, "NaN", Number(math.NaN()).ToDisplayString())
	assert.Equal(t, "Infinity", Number(math.Inf(1)).ToDisplayString())
	assert.Equal(t, "-Infinity", Number(math.Inf(-1)).ToDisplayString())
	assert.Equal(t, "hi", String("hi").ToDisplayString())

	assert.Panics(t, func() { HeapRef(0).ToDisplayString() })
}

func TestIsEqualTo(t *testing.T) {
	assert.True(t, Number(1).IsEqualTo(Number(1)))
	assert.False(t, Number(1).IsEqualTo(Number(2)))
	assert.False(t, Number(1).IsEqualTo(String("1")))
	assert.True(t, Null().IsEqualTo(Null()))
	assert.True(t, Uninitialized().IsEqualTo(Uninitialized()))
	assert.False(t, Number(math.NaN()).IsEqualTo(Number(math.NaN())))
	assert.True(t, HeapRef(3).IsEqualTo(HeapRef(3)))
	assert.False(t, HeapRef(3).IsEqualTo(HeapRef(4)))
}

func TestIsGreaterThan(t *testing.T) {
	gt, err := Number(2).IsGreaterThan(Number(1))
	require.NoError(t, err)
	assert.True(t, gt)

	gt, err = String("b").IsGreaterThan(String("a"))
	require.NoError(t, err)
	assert.True(t, gt)

	_, err = Number(1).IsGreaterThan(String("a"))
	assert.ErrorIs(t, err, ErrTypeMismatch)
}

func TestAccessorPanicsOnKindMismatch(t *testing.T) {
	assert.Panics(t, func() { Null().AsNumber() })
	assert.Panics(t, func() { Number(1).AsString() })
	assert.Panics(t, func() { String("x").AsBool() })
	assert.Panics(t, func() { Bool(true).HeapID() })
}
