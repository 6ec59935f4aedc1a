// Package vm implements the Hugo execution model.
//
// This package contains:
//   - the closed instruction set and its arity table
//   - the Program value and the stack-depth analysis that builds it
//   - the per-run Machine (operand stack and flat memory)
//   - the reference interpreter
//
// Every other backend (generated C, generated Go, structured IR) consumes
// the same immutable Program and must agree with the interpreter.
package vm
