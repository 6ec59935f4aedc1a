package vm

// MemorySize is the number of integer cells in a machine's memory.
const MemorySize = 1 << 20

// Machine is the state of a single run: an operand stack sized to the
// program's peak depth and a zeroed memory region. A Machine belongs to one
// run and is discarded when the run halts.
type Machine struct {
	stack  []int32
	sp     int
	Memory []int32
}

// NewMachine allocates the state needed to run p.
func NewMachine(p *Program) *Machine {
	return &Machine{
		stack:  make([]int32, p.PeakStackDepth()),
		Memory: make([]int32, MemorySize),
	}
}

// push and pop rely on the depth analysis done at build time: a verified
// block can neither underflow nor exceed the stack.
func (m *Machine) push(v int32) {
	m.stack[m.sp] = v
	m.sp++
}

func (m *Machine) pop() int32 {
	m.sp--
	return m.stack[m.sp]
}

// reset empties the operand stack between blocks. Memory persists.
func (m *Machine) reset() {
	m.sp = 0
}

// Stack returns a copy of the live operand stack, bottom first.
func (m *Machine) Stack() []int32 {
	return append([]int32(nil), m.stack[:m.sp]...)
}

// Load returns the memory cell at addr.
func (m *Machine) Load(addr int32) (int32, bool) {
	if addr < 0 || int(addr) >= len(m.Memory) {
		return 0, false
	}
	return m.Memory[addr], true
}

// Store writes v to the memory cell at addr.
func (m *Machine) Store(addr, v int32) bool {
	if addr < 0 || int(addr) >= len(m.Memory) {
		return false
	}
	m.Memory[addr] = v
	return true
}
