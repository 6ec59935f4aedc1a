package compiler

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/chazu/hugo/vm"
)

func TestParseBlocks(t *testing.T) {
	src := `this line has no label and is ignored
0 72 . 1 +

1 105 . 1 +
`
	p, err := Parse(src)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if p.Len() != 2 {
		t.Fatalf("Len = %d, want 2", p.Len())
	}

	b, ok := p.Block(0)
	if !ok {
		t.Fatal("label 0 missing")
	}
	if b.Expr() != "0 72 . 1 +" {
		t.Errorf("Expr = %q", b.Expr())
	}
	if b.Line != 2 {
		t.Errorf("Line = %d, want 2", b.Line)
	}
	if b.Code[0] != vm.Push(0) {
		t.Errorf("first instruction = %v, want the label literal", b.Code[0])
	}
	if p.PeakStackDepth() != 2 {
		t.Errorf("PeakStackDepth = %d, want 2", p.PeakStackDepth())
	}
}

func TestParseLabelIsFirstOperand(t *testing.T) {
	// 0 3 4 + 1 = +   -> 0 + (7 == 1) = 0, jumps back to itself
	p, err := Parse("0 3 4 + 1 = +\n")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if p.PeakStackDepth() != 3 {
		t.Errorf("PeakStackDepth = %d, want 3", p.PeakStackDepth())
	}

	_, err = vm.Run(p, vm.WithInput(strings.NewReader("")), vm.WithOutput(&strings.Builder{}), vm.WithMaxJumps(10))
	if !errors.Is(err, vm.ErrJumpLimit) {
		t.Errorf("Run error = %v, want ErrJumpLimit", err)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name   string
		src    string
		want   error
		line   int
		col    int
		label  int32
		symbol string
	}{
		{"arity", "0 +", vm.ErrInsufficientOperands, 1, 3, 0, "+"},
		{"arity later line", "0 1 +\n\n4 . . 1", vm.ErrInsufficientOperands, 3, 5, 4, "."},
		{"balance", "0 1 2", vm.ErrMalformedBlock, 1, 0, 0, ""},
		{"balance after operator", "3 3 3 =", vm.ErrMalformedBlock, 1, 0, 3, ""},
		{"lexical", "0 1 goto +", vm.ErrUnexpectedToken, 1, 5, 0, "goto"},
		{"negative literal", "0 -1 +", vm.ErrUnexpectedToken, 1, 3, 0, "-1"},
		{"literal overflow", "0 99999999999 +", vm.ErrUnexpectedToken, 1, 3, 0, "99999999999"},
		{"label overflow", "4294967296 1 +", vm.ErrUnexpectedToken, 1, 1, 0, "4294967296"},
		{"duplicate", "0 1 +\n0 2 +", vm.ErrDuplicateLabel, 2, 0, 0, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Parse(tt.src)
			if p != nil {
				t.Error("Parse returned a partial program")
			}
			if !errors.Is(err, tt.want) {
				t.Fatalf("error = %v, want %v", err, tt.want)
			}
			var be *vm.BuildError
			if !errors.As(err, &be) {
				t.Fatalf("error %T is not a *vm.BuildError", err)
			}
			if be.Line != tt.line || be.Column != tt.col || be.Label != tt.label || be.Symbol != tt.symbol {
				t.Errorf("BuildError = %+v", be)
			}
		})
	}
}

func TestParseStopsAtFirstError(t *testing.T) {
	_, err := Parse("0 +\n1 2 3\n")
	if !errors.Is(err, vm.ErrInsufficientOperands) {
		t.Fatalf("error = %v, want ErrInsufficientOperands", err)
	}
}

func TestCheckCollectsAllErrors(t *testing.T) {
	src := "0 +\n1 1 +\n2 2 2\n3 x\n"
	errs := Check(src)
	if len(errs) != 3 {
		t.Fatalf("len(Check) = %d, want 3: %v", len(errs), errs)
	}
	wantLines := []int{1, 3, 4}
	wantErrs := []error{vm.ErrInsufficientOperands, vm.ErrMalformedBlock, vm.ErrUnexpectedToken}
	for i, e := range errs {
		if e.Line != wantLines[i] {
			t.Errorf("errs[%d].Line = %d, want %d", i, e.Line, wantLines[i])
		}
		if !errors.Is(e, wantErrs[i]) {
			t.Errorf("errs[%d] = %v, want %v", i, e, wantErrs[i])
		}
	}
}

func TestCheckCleanSource(t *testing.T) {
	if errs := Check("0 1 +\n1 1 +\n"); len(errs) != 0 {
		t.Errorf("Check = %v, want no errors", errs)
	}
}

func TestParseEmptySource(t *testing.T) {
	p, err := Parse("")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if p.Len() != 0 {
		t.Errorf("Len = %d, want 0", p.Len())
	}
	if _, err := p.Entry(); !errors.Is(err, vm.ErrMissingEntry) {
		t.Errorf("Entry error = %v, want ErrMissingEntry", err)
	}
}

func TestParseFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "hello.hugo")
	if err := os.WriteFile(path, []byte("0 33 . 1 +\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	p, err := ParseFile(path)
	if err != nil {
		t.Fatalf("ParseFile: %v", err)
	}
	var out strings.Builder
	if _, err := vm.Run(p, vm.WithInput(strings.NewReader("")), vm.WithOutput(&out)); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out.String() != "!" {
		t.Errorf("output = %q, want %q", out.String(), "!")
	}

	if _, err := ParseFile(filepath.Join(dir, "missing.hugo")); err == nil {
		t.Error("ParseFile on a missing file should fail")
	}
}
