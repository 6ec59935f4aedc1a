package image

import (
	"bytes"
	"errors"
	"path/filepath"
	"testing"

	"github.com/chazu/hugo/compiler"
	"github.com/chazu/hugo/vm"
)

const source = `0 72 . 1 +
1 105 . 10 . 1 +
`

func mustParse(t *testing.T) *vm.Program {
	t.Helper()
	p, err := compiler.Parse(source)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return p
}

func TestRoundTrip(t *testing.T) {
	p := mustParse(t)
	data, err := Marshal(p)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	q, err := Unmarshal(data)
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	if q.Len() != p.Len() || q.PeakStackDepth() != p.PeakStackDepth() {
		t.Fatalf("got %d blocks depth %d, want %d blocks depth %d", q.Len(), q.PeakStackDepth(), p.Len(), p.PeakStackDepth())
	}
	for _, want := range p.Blocks() {
		got, ok := q.Block(want.Label)
		if !ok {
			t.Fatalf("label %d missing", want.Label)
		}
		if got.Expr() != want.Expr() || got.Line != want.Line {
			t.Errorf("label %d: got %q line %d, want %q line %d", want.Label, got.Expr(), got.Line, want.Expr(), want.Line)
		}
	}

	var a, b bytes.Buffer
	if _, err := vm.Run(p, vm.WithOutput(&a)); err != nil {
		t.Fatalf("Run source program: %v", err)
	}
	if _, err := vm.Run(q, vm.WithOutput(&b)); err != nil {
		t.Fatalf("Run decoded: %v", err)
	}
	if a.String() != "Hi\n" || b.String() != a.String() {
		t.Errorf("outputs %q and %q, want %q", a.String(), b.String(), "Hi\n")
	}
}

func TestEncodeDeterministic(t *testing.T) {
	p := mustParse(t)
	a, err := New(p, "hi.hugo").Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	b, _ := New(p, "hi.hugo").Encode()
	if !bytes.Equal(a, b) {
		t.Error("encodings differ")
	}
}

func TestDecodeRejects(t *testing.T) {
	encode := func(img *Image) []byte {
		data, err := img.Encode()
		if err != nil {
			t.Fatalf("Encode: %v", err)
		}
		return data
	}

	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"bad magic", encode(&Image{Magic: "NOPE", Version: Version}), ErrBadMagic},
		{"future version", encode(&Image{Magic: Magic, Version: Version + 1}), ErrUnsupportedVersion},
		{"zero version", encode(&Image{Magic: Magic}), ErrUnsupportedVersion},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Decode(tt.data); !errors.Is(err, tt.want) {
				t.Errorf("Decode error = %v, want %v", err, tt.want)
			}
		})
	}

	if _, err := Decode([]byte("not cbor at all")); err == nil {
		t.Error("Decode accepted garbage")
	}
}

func TestProgramReverifies(t *testing.T) {
	tests := []struct {
		name   string
		blocks []BlockImage
		want   error
	}{
		{
			name:   "malformed block",
			blocks: []BlockImage{{Label: 0, Code: []InstructionImage{{Op: uint8(vm.OpPush), Value: 1}, {Op: uint8(vm.OpPush), Value: 2}}}},
			want:   vm.ErrMalformedBlock,
		},
		{
			name:   "underflow",
			blocks: []BlockImage{{Label: 0, Code: []InstructionImage{{Op: uint8(vm.OpAdd)}}}},
			want:   vm.ErrInsufficientOperands,
		},
		{
			name: "duplicate label",
			blocks: []BlockImage{
				{Label: 0, Code: []InstructionImage{{Op: uint8(vm.OpPush), Value: 1}}},
				{Label: 0, Code: []InstructionImage{{Op: uint8(vm.OpPush), Value: 2}}},
			},
			want: vm.ErrDuplicateLabel,
		},
		{
			name:   "unknown opcode",
			blocks: []BlockImage{{Label: 0, Code: []InstructionImage{{Op: 200}}}},
			want:   vm.ErrUnexpectedToken,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img := &Image{Magic: Magic, Version: Version, Blocks: tt.blocks}
			data, err := img.Encode()
			if err != nil {
				t.Fatalf("Encode: %v", err)
			}
			if _, err := Unmarshal(data); !errors.Is(err, tt.want) {
				t.Errorf("Unmarshal error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestFiles(t *testing.T) {
	p := mustParse(t)
	path := filepath.Join(t.TempDir(), "hi.hgi")
	if err := WriteFile(path, p, "hi.hugo"); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	img, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if img.Source != "hi.hugo" {
		t.Errorf("Source = %q", img.Source)
	}
	if _, err := img.Program(); err != nil {
		t.Errorf("Program: %v", err)
	}

	if _, err := ReadFile(filepath.Join(t.TempDir(), "missing.hgi")); err == nil {
		t.Error("ReadFile of a missing file succeeded")
	}
}
