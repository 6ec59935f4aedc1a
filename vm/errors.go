package vm

import (
	"errors"
	"fmt"
	"strings"
)

// Build errors are fatal to the Program being built.
var (
	ErrUnexpectedToken      = errors.New("unexpected token")
	ErrInsufficientOperands = errors.New("insufficient operands")
	ErrMalformedBlock       = errors.New("malformed block")
	ErrDuplicateLabel       = errors.New("duplicate label")
)

// Run and generation errors.
var (
	ErrMissingEntry      = errors.New("missing entry block: label 0 is not defined")
	ErrAddressOutOfRange = errors.New("memory address out of range")
	ErrJumpLimit         = errors.New("jump limit exceeded")
	ErrUnknownOpcode     = errors.New("unknown opcode")
)

// BuildError describes why a block was rejected. Line and Column are
// 1-based and zero when the block was not built from source text.
type BuildError struct {
	Err    error  // one of the Err* build sentinels
	Line   int    // source line of the block
	Column int    // column of the offending token
	Label  int32  // label of the block being built
	Symbol string // offending symbol or word, if any
	Depth  int    // stack depth at the point of failure
}

func (e *BuildError) Error() string {
	var b strings.Builder
	if e.Line > 0 {
		fmt.Fprintf(&b, "%d", e.Line)
		if e.Column > 0 {
			fmt.Fprintf(&b, ":%d", e.Column)
		}
		b.WriteString(": ")
	}
	switch {
	case errors.Is(e.Err, ErrInsufficientOperands):
		fmt.Fprintf(&b, "too few arguments to %s at label %d (stack depth %d)", e.Symbol, e.Label, e.Depth)
	case errors.Is(e.Err, ErrUnexpectedToken):
		fmt.Fprintf(&b, "unexpected token '%s' in expression at label %d", e.Symbol, e.Label)
	case errors.Is(e.Err, ErrMalformedBlock):
		fmt.Fprintf(&b, "malformed expression at label %d (leaves %d values, want 1)", e.Label, e.Depth)
	case errors.Is(e.Err, ErrDuplicateLabel):
		fmt.Fprintf(&b, "label %d is already defined", e.Label)
	default:
		fmt.Fprintf(&b, "%v at label %d", e.Err, e.Label)
	}
	return b.String()
}

// Unwrap exposes the sentinel for errors.Is.
func (e *BuildError) Unwrap() error {
	return e.Err
}

// AddressError reports a load or save outside the memory region.
type AddressError struct {
	Op      Opcode
	Address int32
	Label   int32
}

func (e *AddressError) Error() string {
	return fmt.Sprintf("%s at label %d: address %d outside [0, %d)", e.Op.Symbol(), e.Label, e.Address, MemorySize)
}

// Unwrap exposes ErrAddressOutOfRange for errors.Is.
func (e *AddressError) Unwrap() error {
	return ErrAddressOutOfRange
}
