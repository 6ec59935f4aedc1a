// Package irgen lowers a Hugo program to an SSA module.
//
// The lowering is written once against the Target interface and reused by
// every IR library behind it: the in-house ir package, and llir/llvm for
// callers who want to keep working with the module in Go. The module has a
// small runtime (an operand stack, a stack pointer, a memory array, and
// push, pop, save, load helpers) and a main function laid out as
//
//	entry: next = 0; br loop
//	exit:  ret 0
//	loop:  switch next, default exit, one case per label
//	caseN: evaluate block N; next = pop(); br loop
package irgen

import (
	"errors"
	"fmt"

	"github.com/tliron/commonlog"

	"github.com/chazu/hugo/vm"
)

var log = commonlog.GetLogger("hugo.irgen")

// Target is an SSA module under construction.
type Target interface {
	// Runtime emits the globals, external declarations, stack helpers and an
	// empty main function. It must be called before AppendBlock.
	Runtime(stackDepth, memCells int)

	// AppendBlock adds a basic block to main.
	AppendBlock(name string) Block

	// Verify checks the finished module.
	Verify() error

	// String renders the module as LLVM assembly.
	String() string
}

// Block is a basic block of main.
type Block interface {
	// Exec emits the code for one instruction.
	Exec(in vm.Instruction) error

	// InitLabel allocates the jump slot and stores v in it.
	InitLabel(v int32)

	// StoreLabel pops the top of the stack into the jump slot.
	StoreLabel()

	Jump(to Block)

	// Dispatch switches on the jump slot.
	Dispatch(def Block, cases []Case)

	Return(status int32)
}

// Case pairs a label with the block that evaluates it.
type Case struct {
	Label  int32
	Target Block
}

// Generate lowers p into t and verifies the result.
func Generate(p *vm.Program, t Target) error {
	if _, err := p.Entry(); err != nil {
		return err
	}

	t.Runtime(p.PeakStackDepth(), vm.MemorySize)

	entry := t.AppendBlock("entry")
	entry.InitLabel(0)

	exit := t.AppendBlock("exit")
	exit.Return(0)

	loop := t.AppendBlock("loop")
	entry.Jump(loop)

	cases := make([]Case, 0, p.Len())
	for _, b := range p.Blocks() {
		blk := t.AppendBlock(fmt.Sprintf("case%d", b.Label))
		for _, in := range b.Code {
			if err := blk.Exec(in); err != nil {
				return fmt.Errorf("label %d: %w", b.Label, err)
			}
		}
		blk.StoreLabel()
		blk.Jump(loop)
		cases = append(cases, Case{Label: b.Label, Target: blk})
	}
	loop.Dispatch(exit, cases)

	log.Debugf("lowered %d blocks, stack depth %d", p.Len(), p.PeakStackDepth())
	return t.Verify()
}

// unknownOpcode is returned by Exec for opcodes no target can lower.
func unknownOpcode(op vm.Opcode) error {
	return fmt.Errorf("%w: %v", vm.ErrUnknownOpcode, op)
}

// ErrInvalidModule is returned by LLVMTarget.Verify.
var ErrInvalidModule = errors.New("invalid module")

// ErrUnknownLibrary is returned by GenerateText for an unregistered library.
var ErrUnknownLibrary = errors.New("unknown IR library")

// Libraries maps the IR library names accepted by GenerateText to target
// constructors.
var Libraries = map[string]func(name string) Target{
	"hugo": func(name string) Target { return NewModuleTarget(name) },
	"llir": func(name string) Target { return NewLLVMTarget(name) },
}

// GenerateText lowers p with the named library and renders LLVM assembly.
// An empty library selects "hugo".
//
// The "hugo" output uses opaque pointers and needs LLVM 15 or later (LLVM 14
// with -opaque-pointers). The "llir" output uses typed pointers and also
// loads in older releases.
func GenerateText(p *vm.Program, name, library string) (string, error) {
	if library == "" {
		library = "hugo"
	}
	newTarget, ok := Libraries[library]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownLibrary, library)
	}
	t := newTarget(name)
	if err := Generate(p, t); err != nil {
		return "", err
	}
	return t.String(), nil
}
