package vm

import (
	"errors"
	"testing"
)

func TestBuildWellFormedBlock(t *testing.T) {
	p, err := NewProgram(map[int32][]Instruction{
		0: {Push(1)},
	})
	if err != nil {
		t.Fatalf("NewProgram: %v", err)
	}
	if p.PeakStackDepth() != 1 {
		t.Errorf("PeakStackDepth = %d, want 1", p.PeakStackDepth())
	}
	if p.Len() != 1 || !p.Has(0) {
		t.Errorf("program should contain exactly label 0")
	}
}

func TestBuildPeakDepth(t *testing.T) {
	// label 0: 0 3 4 + 1 = +
	code := []Instruction{Push(0), Push(3), Push(4), Op(OpAdd), Push(1), Op(OpEqual), Op(OpAdd)}
	p, err := NewProgram(map[int32][]Instruction{0: code})
	if err != nil {
		t.Fatalf("NewProgram: %v", err)
	}
	if p.PeakStackDepth() != 3 {
		t.Errorf("PeakStackDepth = %d, want 3", p.PeakStackDepth())
	}
}

func TestBuildPeakDepthAcrossBlocks(t *testing.T) {
	p, err := NewProgram(map[int32][]Instruction{
		0: {Push(1)},
		1: {Push(1), Push(2), Push(3), Push(4), Op(OpAdd), Op(OpAdd), Op(OpAdd)},
		2: {Push(9), Push(9), Op(OpEqual)},
	})
	if err != nil {
		t.Fatalf("NewProgram: %v", err)
	}
	if p.PeakStackDepth() != 4 {
		t.Errorf("PeakStackDepth = %d, want 4", p.PeakStackDepth())
	}
}

func TestBuildInsufficientOperands(t *testing.T) {
	b := NewProgramBuilder()
	err := b.AddBlock(0, []Instruction{Push(0), Op(OpAdd)}, WithLine(3), WithColumns([]int{1, 3}))
	if !errors.Is(err, ErrInsufficientOperands) {
		t.Fatalf("AddBlock error = %v, want ErrInsufficientOperands", err)
	}

	var be *BuildError
	if !errors.As(err, &be) {
		t.Fatalf("error %T is not a *BuildError", err)
	}
	if be.Label != 0 || be.Symbol != "+" || be.Line != 3 || be.Column != 3 || be.Depth != 1 {
		t.Errorf("BuildError = %+v", be)
	}

	if _, err := b.Build(); !errors.Is(err, ErrInsufficientOperands) {
		t.Errorf("Build error = %v, want ErrInsufficientOperands", err)
	}
}

func TestBuildRejectedBlockNotAdded(t *testing.T) {
	b := NewProgramBuilder()
	_ = b.AddBlock(5, []Instruction{Op(OpWrite), Push(1)})
	if _, ok := b.blocks[5]; ok {
		t.Error("rejected block should not be stored")
	}
}

func TestBuildMalformedBlock(t *testing.T) {
	tests := []struct {
		name  string
		code  []Instruction
		depth int
	}{
		{"three values", []Instruction{Push(0), Push(1), Push(2)}, 3},
		{"empty", nil, 0},
		{"consumes label", []Instruction{Push(0), Op(OpWrite)}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewProgram(map[int32][]Instruction{0: tt.code})
			if !errors.Is(err, ErrMalformedBlock) {
				t.Fatalf("error = %v, want ErrMalformedBlock", err)
			}
			var be *BuildError
			errors.As(err, &be)
			if be.Depth != tt.depth {
				t.Errorf("Depth = %d, want %d", be.Depth, tt.depth)
			}
		})
	}
}

func TestBuildDuplicateLabel(t *testing.T) {
	b := NewProgramBuilder()
	if err := b.AddBlock(1, []Instruction{Push(1)}); err != nil {
		t.Fatalf("AddBlock: %v", err)
	}
	if err := b.AddBlock(1, []Instruction{Push(2)}); !errors.Is(err, ErrDuplicateLabel) {
		t.Fatalf("error = %v, want ErrDuplicateLabel", err)
	}
}

func TestBuildFirstErrorSticks(t *testing.T) {
	b := NewProgramBuilder()
	first := b.AddBlock(0, []Instruction{Op(OpSub)})
	_ = b.AddBlock(1, []Instruction{Push(1), Push(1)})
	if b.Err() != first {
		t.Errorf("Err() = %v, want first error %v", b.Err(), first)
	}
	if p, err := b.Build(); p != nil || err == nil {
		t.Error("Build should fail without a partial program")
	}
}

func TestBuildUnknownOpcode(t *testing.T) {
	_, err := NewProgram(map[int32][]Instruction{0: {Push(0), {Op: Opcode(42)}}})
	if !errors.Is(err, ErrUnexpectedToken) {
		t.Fatalf("error = %v, want ErrUnexpectedToken", err)
	}
}

func TestProgramLabelsAscending(t *testing.T) {
	p, err := NewProgram(map[int32][]Instruction{
		7: {Push(1)},
		0: {Push(7)},
		3: {Push(0)},
	})
	if err != nil {
		t.Fatalf("NewProgram: %v", err)
	}
	want := []int32{0, 3, 7}
	got := p.Labels()
	if len(got) != len(want) {
		t.Fatalf("Labels = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Labels = %v, want %v", got, want)
		}
	}
	for i, b := range p.Blocks() {
		if b.Label != want[i] {
			t.Errorf("Blocks()[%d].Label = %d, want %d", i, b.Label, want[i])
		}
	}
}

func TestProgramEntry(t *testing.T) {
	p, err := NewProgram(map[int32][]Instruction{1: {Push(0)}})
	if err != nil {
		t.Fatalf("NewProgram: %v", err)
	}
	if _, err := p.Entry(); !errors.Is(err, ErrMissingEntry) {
		t.Errorf("Entry error = %v, want ErrMissingEntry", err)
	}
}

func TestBlockExpr(t *testing.T) {
	b := &Block{Label: 0, Code: []Instruction{Push(0), Push(72), Op(OpWrite), Push(2)}}
	if got := b.Expr(); got != "0 72 . 2" {
		t.Errorf("Expr() = %q, want %q", got, "0 72 . 2")
	}
}

func TestBuildErrorMessage(t *testing.T) {
	err := &BuildError{Err: ErrInsufficientOperands, Line: 4, Column: 3, Label: 2, Symbol: "+", Depth: 1}
	want := "4:3: too few arguments to + at label 2 (stack depth 1)"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}
