package vm

import (
	"fmt"
	"strconv"
)

// ---------------------------------------------------------------------------
// Opcode definitions
// ---------------------------------------------------------------------------

// Opcode identifies one of the eight Hugo instructions.
type Opcode byte

const (
	OpPush  Opcode = iota // push a compile-time integer
	OpRead                // push next input byte, -1 at end of input
	OpWrite               // write top of stack as a character
	OpSave                // pop address, pop value, store value at address
	OpLoad                // pop address, push value stored there
	OpAdd                 // pop y, pop x, push x + y
	OpSub                 // pop y, pop x, push x - y
	OpEqual               // pop y, pop x, push 1 if x == y else 0

	opCount
)

// ---------------------------------------------------------------------------
// Opcode metadata
// ---------------------------------------------------------------------------

// OpcodeInfo holds the fixed metadata of an opcode.
type OpcodeInfo struct {
	Name   string // human-readable name
	Symbol string // source symbol, empty for literals
	Pop    int    // values consumed
	Push   int    // values produced
}

// opcodeTable maps opcodes to their metadata. Arity is a property of the
// opcode, never of the operand.
var opcodeTable = [opCount]OpcodeInfo{
	OpPush:  {"PUSH", "", 0, 1},
	OpRead:  {"READ", ",", 0, 1},
	OpWrite: {"WRITE", ".", 1, 0},
	OpSave:  {"SAVE", "$", 2, 0},
	OpLoad:  {"LOAD", "&", 1, 1},
	OpAdd:   {"ADD", "+", 2, 1},
	OpSub:   {"SUB", "-", 2, 1},
	OpEqual: {"EQUAL", "=", 2, 1},
}

// symbolTable is the reverse lookup used by the tokenizer.
var symbolTable = map[string]Opcode{}

func init() {
	for op := Opcode(0); op < opCount; op++ {
		if sym := opcodeTable[op].Symbol; sym != "" {
			symbolTable[sym] = op
		}
	}
}

// Valid reports whether op is one of the defined opcodes.
func (op Opcode) Valid() bool {
	return op < opCount
}

// Info returns the metadata for an opcode.
func (op Opcode) Info() OpcodeInfo {
	if op.Valid() {
		return opcodeTable[op]
	}
	return OpcodeInfo{Name: fmt.Sprintf("UNKNOWN_%02X", byte(op))}
}

// Symbol returns the source symbol of an operator opcode.
func (op Opcode) Symbol() string {
	return op.Info().Symbol
}

// Pop returns how many values the opcode consumes.
func (op Opcode) Pop() int {
	return op.Info().Pop
}

// Push returns how many values the opcode produces.
func (op Opcode) Push() int {
	return op.Info().Push
}

// String implements the Stringer interface.
func (op Opcode) String() string {
	return op.Info().Name
}

// LookupSymbol maps an operator symbol to its opcode.
func LookupSymbol(sym string) (Opcode, bool) {
	op, ok := symbolTable[sym]
	return op, ok
}

// AllOpcodes returns every defined opcode in declaration order.
func AllOpcodes() []Opcode {
	ops := make([]Opcode, 0, opCount)
	for op := Opcode(0); op < opCount; op++ {
		ops = append(ops, op)
	}
	return ops
}

// ---------------------------------------------------------------------------
// Instruction
// ---------------------------------------------------------------------------

// Instruction is one step of a block. Value is only meaningful for OpPush.
type Instruction struct {
	Op    Opcode
	Value int32
}

// Push returns a literal instruction.
func Push(v int32) Instruction {
	return Instruction{Op: OpPush, Value: v}
}

// Op returns an operator instruction.
func Op(op Opcode) Instruction {
	return Instruction{Op: op}
}

// String renders the instruction the way it appears in source: the literal
// value for pushes, the symbol otherwise.
func (in Instruction) String() string {
	if in.Op == OpPush {
		return strconv.FormatInt(int64(in.Value), 10)
	}
	return in.Op.Symbol()
}
