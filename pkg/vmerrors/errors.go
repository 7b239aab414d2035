// Package vmerrors defines the interpreter's error kinds (spec §7) in the
// same shape as the teacher's pkg/errors: a single interface implemented by
// one concrete type per kind, each carrying just enough position info to
// report a source line.
package vmerrors

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind names one of the six runtime error families from spec §7.
type Kind string

const (
	KindTypeMismatch      Kind = "TypeMismatch"
	KindTypeCoercion      Kind = "TypeCoercion"
	KindDivideByZero      Kind = "DivideByZero"
	KindNotCallable       Kind = "NotCallable"
	KindArity             Kind = "Arity"
	KindInternalInvariant Kind = "InternalInvariant"
)

// VMError is the interface implemented by every error the interpreter can
// halt with. Mirrors the teacher's PaseratiError: embeds error, exposes the
// kind and the source line separately from the formatted message.
type VMError interface {
	error
	Kind() Kind
	Line() int
	Message() string
}

type vmError struct {
	kind Kind
	line int
	msg  string
}

func (e *vmError) Kind() Kind      { return e.kind }
func (e *vmError) Line() int       { return e.line }
func (e *vmError) Message() string { return e.msg }

func (e *vmError) Error() string {
	if e.kind == KindInternalInvariant {
		return fmt.Sprintf("internal invariant violated at line %d: %s", e.line, e.msg)
	}
	return fmt.Sprintf("%s at line %d: %s", e.kind, e.line, e.msg)
}

func newf(kind Kind, line int, format string, args ...interface{}) *vmError {
	return &vmError{kind: kind, line: line, msg: fmt.Sprintf(format, args...)}
}

func TypeMismatch(line int, format string, args ...interface{}) VMError {
	return newf(KindTypeMismatch, line, format, args...)
}

func TypeCoercion(line int, format string, args ...interface{}) VMError {
	return newf(KindTypeCoercion, line, format, args...)
}

func DivideByZero(line int) VMError {
	return newf(KindDivideByZero, line, "division by zero")
}

func NotCallable(line int, format string, args ...interface{}) VMError {
	return newf(KindNotCallable, line, format, args...)
}

func Arity(line int, format string, args ...interface{}) VMError {
	return newf(KindArity, line, format, args...)
}

// InternalInvariant reports a bug in the interpreter or the chunk it was
// fed — stack underflow, a missing constant, a corrupted frame. Unlike the
// other five kinds, it wraps with github.com/pkg/errors so the returned
// error carries a Go stack trace alongside the VM's own diagnostic message;
// those are two different "stacks" and a bug report wants both.
func InternalInvariant(line int, format string, args ...interface{}) VMError {
	base := newf(KindInternalInvariant, line, format, args...)
	return &wrappedInternal{vmError: base, wrapped: errors.WithStack(base)}
}

type wrappedInternal struct {
	*vmError
	wrapped error
}

func (e *wrappedInternal) Error() string { return e.wrapped.Error() }
func (e *wrappedInternal) Unwrap() error { return e.wrapped }

// StackTrace exposes the github.com/pkg/errors-captured trace for callers
// that want to print it. The wispvm CLI does not print it; it reports only
// the error message.
func (e *wrappedInternal) StackTrace() errors.StackTrace {
	type tracer interface{ StackTrace() errors.StackTrace }
	if t, ok := e.wrapped.(tracer); ok {
		return t.StackTrace()
	}
	return nil
}
