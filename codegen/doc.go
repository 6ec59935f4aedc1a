// Package codegen translates a Hugo program into imperative source.
//
// Each block becomes one arm of a switch inside an endless loop; the value a
// block leaves on the stack becomes the next switch subject, and a subject
// that matches no arm leaves the loop. Two targets are supported: C, which is
// handed to a native compiler, and Go, rendered with jennifer.
//
// Both targets trace execution in the same format as the interpreter when
// verbose execution is compiled in, and cost nothing when it is not.
package codegen

import (
	"fmt"
	"math"
	"strconv"

	"github.com/chazu/hugo/vm"
)

// Options controls code generation.
type Options struct {
	// Verbose compiles execution tracing in unconditionally. For C the
	// trace can also be enabled later with -DVERBOSE_EXECUTION.
	Verbose bool

	// Source names the input in the generated header comment.
	Source string
}

// checkProgram rejects programs no backend can dispatch.
func checkProgram(p *vm.Program) error {
	if _, err := p.Entry(); err != nil {
		return err
	}
	for _, b := range p.Blocks() {
		for _, in := range b.Code {
			if !in.Op.Valid() {
				return fmt.Errorf("%w: %v at label %d", vm.ErrUnknownOpcode, in.Op, b.Label)
			}
		}
	}
	return nil
}

// cInt renders v as a C int literal. The most negative value has no literal
// form in C.
func cInt(v int32) string {
	if v == math.MinInt32 {
		return "(-2147483647 - 1)"
	}
	return strconv.FormatInt(int64(v), 10)
}
