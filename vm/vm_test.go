package vm

import "testing"

func TestMachineSizedToProgram(t *testing.T) {
	p := mustProgram(t, map[int32][]Instruction{
		0: {Push(1), Push(2), Push(3), Op(OpAdd), Op(OpAdd)},
	})
	m := NewMachine(p)
	if len(m.stack) != 3 {
		t.Errorf("stack size = %d, want 3", len(m.stack))
	}
	if len(m.Memory) != MemorySize {
		t.Errorf("memory size = %d, want %d", len(m.Memory), MemorySize)
	}
}

func TestMachineStackIsCopy(t *testing.T) {
	p := mustProgram(t, map[int32][]Instruction{0: {Push(1), Push(2), Op(OpAdd)}})
	m := NewMachine(p)
	m.push(7)
	m.push(8)

	s := m.Stack()
	if len(s) != 2 || s[0] != 7 || s[1] != 8 {
		t.Fatalf("Stack() = %v, want [7 8]", s)
	}
	s[0] = 0
	if m.stack[0] != 7 {
		t.Error("Stack() aliases the machine stack")
	}

	if v := m.pop(); v != 8 {
		t.Errorf("pop = %d, want 8", v)
	}
	m.reset()
	if len(m.Stack()) != 0 {
		t.Errorf("Stack() after reset = %v", m.Stack())
	}
}

func TestMachineLoadStore(t *testing.T) {
	p := mustProgram(t, map[int32][]Instruction{0: {Push(0)}})
	m := NewMachine(p)

	tests := []struct {
		addr int32
		ok   bool
	}{
		{0, true},
		{MemorySize - 1, true},
		{MemorySize, false},
		{-1, false},
	}
	for _, tt := range tests {
		if ok := m.Store(tt.addr, 42); ok != tt.ok {
			t.Errorf("Store(%d) = %v, want %v", tt.addr, ok, tt.ok)
		}
		v, ok := m.Load(tt.addr)
		if ok != tt.ok {
			t.Errorf("Load(%d) ok = %v, want %v", tt.addr, ok, tt.ok)
		}
		if ok && v != 42 {
			t.Errorf("Load(%d) = %d, want 42", tt.addr, v)
		}
	}
}
