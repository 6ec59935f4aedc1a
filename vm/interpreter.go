package vm

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("hugo.vm")

// ---------------------------------------------------------------------------
// Options
// ---------------------------------------------------------------------------

// Option configures an Interpreter.
type Option func(*Interpreter)

// WithInput sets the source of the read instruction. Defaults to stdin.
func WithInput(r io.Reader) Option {
	return func(in *Interpreter) { in.input = r }
}

// WithOutput sets the sink of the write instruction. Defaults to stdout.
func WithOutput(w io.Writer) Option {
	return func(in *Interpreter) { in.output = w }
}

// WithTrace enables verbose execution: each block, instruction and jump
// target is written to w.
func WithTrace(w io.Writer) Option {
	return func(in *Interpreter) { in.trace = w }
}

// WithMaxJumps stops a run with ErrJumpLimit once n jumps have been taken.
// Zero means no limit.
func WithMaxJumps(n int) Option {
	return func(in *Interpreter) { in.maxJumps = n }
}

// ---------------------------------------------------------------------------
// Interpreter
// ---------------------------------------------------------------------------

// Interpreter evaluates a Program block by block.
type Interpreter struct {
	program  *Program
	input    io.Reader
	output   io.Writer
	trace    io.Writer
	maxJumps int

	reader io.ByteReader
	writer *bufio.Writer
}

// Result summarizes a finished run.
type Result struct {
	Jumps   int      // transitions taken between blocks
	Halt    int32    // the value that was not a label
	Machine *Machine // final machine state
}

// NewInterpreter creates an interpreter for p.
func NewInterpreter(p *Program, opts ...Option) *Interpreter {
	in := &Interpreter{
		program: p,
		input:   os.Stdin,
		output:  os.Stdout,
	}
	for _, opt := range opts {
		opt(in)
	}
	return in
}

// Run executes the program from label 0 until a block produces a value that
// is not a label. A program that never does so runs forever unless a jump
// limit is set.
func (in *Interpreter) Run() (*Result, error) {
	block, err := in.program.Entry()
	if err != nil {
		return nil, err
	}

	in.reader = byteReader(in.input)
	in.writer = bufio.NewWriter(in.output)
	defer in.writer.Flush()

	m := NewMachine(in.program)
	res := &Result{Machine: m}

	for {
		next, err := in.eval(m, block)
		if err != nil {
			return res, err
		}
		target, ok := in.program.Block(next)
		if !ok {
			res.Halt = next
			log.Debugf("halt on %d after %d jumps", next, res.Jumps)
			return res, in.writer.Flush()
		}
		if in.maxJumps > 0 && res.Jumps >= in.maxJumps {
			return res, fmt.Errorf("%w: %d jumps, last label %d", ErrJumpLimit, res.Jumps, block.Label)
		}
		res.Jumps++
		block = target
	}
}

// eval runs one block on an empty stack and returns the value it leaves.
func (in *Interpreter) eval(m *Machine, b *Block) (int32, error) {
	m.reset()
	if in.trace != nil {
		fmt.Fprintf(in.trace, "goto %s\n", b.Expr())
	}

	for _, ins := range b.Code {
		if in.trace != nil {
			in.traceStep(m, ins)
		}
		if err := in.step(m, b.Label, ins); err != nil {
			return 0, err
		}
	}

	next := m.pop()
	if in.trace != nil {
		fmt.Fprintf(in.trace, "     | %d\n", next)
	}
	return next, nil
}

// step executes a single instruction.
func (in *Interpreter) step(m *Machine, label int32, ins Instruction) error {
	switch ins.Op {
	case OpPush:
		m.push(ins.Value)
	case OpRead:
		m.push(in.readByte())
	case OpWrite:
		in.writer.WriteByte(byte(m.pop()))
	case OpSave:
		addr := m.pop()
		v := m.pop()
		if !m.Store(addr, v) {
			return &AddressError{Op: OpSave, Address: addr, Label: label}
		}
	case OpLoad:
		addr := m.pop()
		v, ok := m.Load(addr)
		if !ok {
			return &AddressError{Op: OpLoad, Address: addr, Label: label}
		}
		m.push(v)
	case OpAdd:
		y, x := m.pop(), m.pop()
		m.push(x + y)
	case OpSub:
		y, x := m.pop(), m.pop()
		m.push(x - y)
	case OpEqual:
		y, x := m.pop(), m.pop()
		if x == y {
			m.push(1)
		} else {
			m.push(0)
		}
	default:
		return fmt.Errorf("%w: %v at label %d", ErrUnknownOpcode, ins.Op, label)
	}
	return nil
}

// byteReader reads r directly when it can hand out single bytes, so input
// left over by one run stays available to the next run sharing r.
func byteReader(r io.Reader) io.ByteReader {
	if br, ok := r.(io.ByteReader); ok {
		return br
	}
	return bufio.NewReader(r)
}

// readByte flushes pending output so prompts appear before blocking, then
// reads one byte. Any read failure counts as end of input.
func (in *Interpreter) readByte() int32 {
	in.writer.Flush()
	c, err := in.reader.ReadByte()
	if err != nil {
		return -1
	}
	return int32(c)
}

func (in *Interpreter) traceStep(m *Machine, ins Instruction) {
	fmt.Fprintf(in.trace, "%4s |", ins.String())
	for _, v := range m.stack[:m.sp] {
		fmt.Fprintf(in.trace, " %d", v)
	}
	fmt.Fprintln(in.trace)
}

// Run is a convenience wrapper that interprets p with the given options.
func Run(p *Program, opts ...Option) (*Result, error) {
	return NewInterpreter(p, opts...).Run()
}
