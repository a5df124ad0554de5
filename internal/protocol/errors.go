// Package protocol holds the pieces shared by every device family:
// the error taxonomy, checksum/BCD/ringbuffer arithmetic, and the two
// wire framings (additive-checksum and XOR/length-prefixed).
package protocol

import (
	"errors"
	"fmt"
)

// Kind classifies an Error the way the original C core distinguishes
// retryable transport failures from structural data failures.
type Kind int

const (
	KindInvalidArgs Kind = iota
	KindNoMemory
	KindIO
	KindTimeout
	KindProtocol
	KindDataFormat
	KindUnsupported
)

func (k Kind) String() string {
	switch k {
	case KindInvalidArgs:
		return "invalid-args"
	case KindNoMemory:
		return "no-memory"
	case KindIO:
		return "io"
	case KindTimeout:
		return "timeout"
	case KindProtocol:
		return "protocol"
	case KindDataFormat:
		return "data-format"
	case KindUnsupported:
		return "unsupported"
	default:
		return "unknown"
	}
}

// Error is the error type every package in this module returns.
// Op names the failing operation; Err, when set, is the wrapped cause.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// Is lets errors.Is(err, protocol.New(protocol.KindTimeout, "")) style
// checks work by comparing Kind, not identity, which is what callers
// actually want.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// New builds an *Error with no wrapped cause.
func New(kind Kind, op string) *Error {
	return &Error{Kind: kind, Op: op}
}

// Wrap builds an *Error wrapping err under op/kind.
func Wrap(kind Kind, op string, err error) *Error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf reports the Kind carried by err, if err (or something it
// wraps) is a *Error, and reports ok=false otherwise.
func KindOf(err error) (Kind, bool) {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind, true
	}
	return 0, false
}

// Retryable reports whether the transfer layer should retry an
// operation that failed with err: timeouts and protocol errors are,
// I/O errors and everything else are not.
func Retryable(err error) bool {
	k, ok := KindOf(err)
	if !ok {
		return false
	}
	return k == KindTimeout || k == KindProtocol
}
