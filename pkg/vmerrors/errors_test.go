package vmerrors

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestKindsCarryLineAndMessage(t *testing.T) {
	err := TypeMismatch(12, "expected %s got %s", "number", "string")
	assert.Equal(t, KindTypeMismatch, err.Kind())
	assert.Equal(t, 12, err.Line())
	assert.Equal(t, "expected number got string", err.Message())
	assert.Contains(t, err.Error(), "TypeMismatch")
}

func TestDivideByZero(t *testing.T) {
	err := DivideByZero(5)
	assert.Equal(t, KindDivideByZero, err.Kind())
	assert.Contains(t, err.Error(), "division by zero")
}

func TestInternalInvariantCarriesStackTrace(t *testing.T) {
	err := InternalInvariant(1, "corrupted frame")
	assert.Equal(t, KindInternalInvariant, err.Kind())
	assert.Contains(t, err.Error(), "internal invariant violated")

	tracer, ok := err.(interface{ StackTrace() errors.StackTrace })
	assert.True(t, ok)
	assert.NotEmpty(t, tracer.StackTrace())
}
