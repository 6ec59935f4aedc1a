package ir

import (
	"fmt"
	"strconv"
	"strings"
)

// Value is anything usable as an instruction operand.
type Value interface {
	Type() Type
	// Ident is the operand spelling without its type, e.g. "%t3", "@sp", "42".
	Ident() string
}

// operand renders "type ident".
func operand(v Value) string {
	return v.Type().String() + " " + v.Ident()
}

// ---------------------------------------------------------------------------
// Constants
// ---------------------------------------------------------------------------

// Constant is a Value known at compile time.
type Constant interface {
	Value
	isConstant()
}

// ConstInt is an integer constant.
type ConstInt struct {
	Typ *IntType
	V   int64
}

// NewInt returns the constant v of type t.
func NewInt(t *IntType, v int64) *ConstInt {
	return &ConstInt{Typ: t, V: v}
}

func (c *ConstInt) Type() Type { return c.Typ }
func (c *ConstInt) Ident() string { return strconv.FormatInt(c.V, 10) }
func (*ConstInt) isConstant() {}

// ZeroInitializer is the all-zero value of any type.
type ZeroInitializer struct{ Typ Type }

// NewZeroInitializer returns zeroinitializer of type t.
func NewZeroInitializer(t Type) *ZeroInitializer {
	return &ZeroInitializer{Typ: t}
}

func (z *ZeroInitializer) Type() Type { return z.Typ }
func (*ZeroInitializer) Ident() string { return "zeroinitializer" }
func (*ZeroInitializer) isConstant() {}

// ---------------------------------------------------------------------------
// Globals and parameters
// ---------------------------------------------------------------------------

// Global is a module-level variable. As an operand it is a pointer.
type Global struct {
	Name        string
	ContentType Type
	Init        Constant
	Internal    bool
}

func (*Global) Type() Type { return Ptr }
func (g *Global) Ident() string { return "@" + quoteName(g.Name) }
func (g *Global) String() string {
	linkage := ""
	if g.Internal {
		linkage = "internal "
	}
	return fmt.Sprintf("%s = %sglobal %s %s", g.Ident(), linkage, g.ContentType, g.Init.Ident())
}

// Param is a function parameter.
type Param struct {
	Name string
	Typ  Type
}

// NewParam returns a parameter named name of type t.
func NewParam(name string, t Type) *Param {
	return &Param{Name: name, Typ: t}
}

func (p *Param) Type() Type { return p.Typ }
func (p *Param) Ident() string { return "%" + quoteName(p.Name) }
func (p *Param) String() string { return operand(p) }

// quoteName quotes identifiers LLVM would not accept bare.
func quoteName(name string) string {
	for i, r := range name {
		ok := r == '-' || r == '$' || r == '.' || r == '_' ||
			(r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') ||
			(i > 0 && r >= '0' && r <= '9')
		if !ok {
			return strconv.Quote(name)
		}
	}
	if name == "" {
		return `""`
	}
	return name
}

func joinOperands(vs []Value) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = operand(v)
	}
	return strings.Join(parts, ", ")
}
