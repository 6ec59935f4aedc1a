// Package image stores built programs as CBOR so they can be run or
// compiled later without the source.
//
// Decoding always rebuilds the program through vm.ProgramBuilder, so an
// image that was edited by hand is held to the same rules as source.
package image

import (
	"errors"
	"fmt"
	"os"

	"github.com/fxamacker/cbor/v2"

	"github.com/chazu/hugo/vm"
)

// Magic identifies a Hugo program image.
const Magic = "HUGO"

// Version is the image format written by this package.
const Version = 1

// Ext is the conventional file extension for images.
const Ext = ".hgi"

var (
	ErrBadMagic           = errors.New("not a hugo image")
	ErrUnsupportedVersion = errors.New("unsupported image version")
)

// Image is the serialized form of a Program.
type Image struct {
	Magic   string       `cbor:"1,keyasint"`
	Version uint         `cbor:"2,keyasint"`
	Source  string       `cbor:"3,keyasint,omitempty"`
	Blocks  []BlockImage `cbor:"4,keyasint"`
}

// BlockImage is one labelled block.
type BlockImage struct {
	Label int32              `cbor:"1,keyasint"`
	Line  int                `cbor:"2,keyasint,omitempty"`
	Code  []InstructionImage `cbor:"3,keyasint"`
}

// InstructionImage encodes as a two-element array [op, value].
type InstructionImage struct {
	_     struct{} `cbor:",toarray"`
	Op    uint8
	Value int32
}

var encMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("image: failed to create CBOR enc mode: %v", err))
	}
	encMode = em
}

// New captures p. source names the file it was parsed from and may be empty.
func New(p *vm.Program, source string) *Image {
	img := &Image{Magic: Magic, Version: Version, Source: source}
	for _, b := range p.Blocks() {
		bi := BlockImage{Label: b.Label, Line: b.Line, Code: make([]InstructionImage, len(b.Code))}
		for i, in := range b.Code {
			bi.Code[i] = InstructionImage{Op: uint8(in.Op), Value: in.Value}
		}
		img.Blocks = append(img.Blocks, bi)
	}
	return img
}

// Program rebuilds and verifies the program held by the image.
func (img *Image) Program() (*vm.Program, error) {
	b := vm.NewProgramBuilder()
	for _, bi := range img.Blocks {
		code := make([]vm.Instruction, len(bi.Code))
		for i, in := range bi.Code {
			code[i] = vm.Instruction{Op: vm.Opcode(in.Op), Value: in.Value}
		}
		if err := b.AddBlock(bi.Label, code, vm.WithLine(bi.Line)); err != nil {
			return nil, fmt.Errorf("image: %w", err)
		}
	}
	return b.Build()
}

// Encode serializes the image. Equal images encode to equal bytes.
func (img *Image) Encode() ([]byte, error) {
	return encMode.Marshal(img)
}

// Decode parses data and checks the header.
func Decode(data []byte) (*Image, error) {
	var img Image
	if err := cbor.Unmarshal(data, &img); err != nil {
		return nil, fmt.Errorf("image: unmarshal: %w", err)
	}
	if img.Magic != Magic {
		return nil, ErrBadMagic
	}
	if img.Version == 0 || img.Version > Version {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, img.Version)
	}
	return &img, nil
}

// Marshal serializes p.
func Marshal(p *vm.Program) ([]byte, error) {
	return New(p, "").Encode()
}

// Unmarshal decodes and verifies a program.
func Unmarshal(data []byte) (*vm.Program, error) {
	img, err := Decode(data)
	if err != nil {
		return nil, err
	}
	return img.Program()
}

// WriteFile stores p at path, recording source in the header.
func WriteFile(path string, p *vm.Program, source string) error {
	data, err := New(p, source).Encode()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("cannot write %s: %w", path, err)
	}
	return nil
}

// ReadFile loads the image at path.
func ReadFile(path string) (*Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}
	return Decode(data)
}
