package ir

import "fmt"

// Type is an LLVM first-class type.
type Type interface {
	String() string
	Equal(Type) bool
}

// IntType is an integer of a fixed bit width.
type IntType struct{ Bits int }

func (t *IntType) String() string { return fmt.Sprintf("i%d", t.Bits) }

func (t *IntType) Equal(u Type) bool {
	v, ok := u.(*IntType)
	return ok && v.Bits == t.Bits
}

// PointerType is the opaque pointer.
type PointerType struct{}

func (*PointerType) String() string { return "ptr" }

func (*PointerType) Equal(u Type) bool {
	_, ok := u.(*PointerType)
	return ok
}

// VoidType is the return type of functions without a result.
type VoidType struct{}

func (*VoidType) String() string { return "void" }

func (*VoidType) Equal(u Type) bool {
	_, ok := u.(*VoidType)
	return ok
}

// ArrayType is a fixed-length array.
type ArrayType struct {
	Len  uint64
	Elem Type
}

// NewArray returns the type [n x elem].
func NewArray(n uint64, elem Type) *ArrayType {
	return &ArrayType{Len: n, Elem: elem}
}

func (t *ArrayType) String() string { return fmt.Sprintf("[%d x %s]", t.Len, t.Elem) }

func (t *ArrayType) Equal(u Type) bool {
	v, ok := u.(*ArrayType)
	return ok && v.Len == t.Len && v.Elem.Equal(t.Elem)
}

// Common types.
var (
	I1   = &IntType{Bits: 1}
	I8   = &IntType{Bits: 8}
	I32  = &IntType{Bits: 32}
	I64  = &IntType{Bits: 64}
	Ptr  = &PointerType{}
	Void = &VoidType{}
)
