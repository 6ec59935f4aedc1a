package ir

import (
	"fmt"
	"strings"
)

// ---------------------------------------------------------------------------
// Module
// ---------------------------------------------------------------------------

// Module is a translation unit: globals followed by functions.
type Module struct {
	Name    string
	Globals []*Global
	Funcs   []*Func
}

// NewModule creates an empty module.
func NewModule(name string) *Module {
	return &Module{Name: name}
}

// NewGlobalDef defines an internal global holding init.
func (m *Module) NewGlobalDef(name string, init Constant) *Global {
	g := &Global{Name: name, ContentType: init.Type(), Init: init, Internal: true}
	m.Globals = append(m.Globals, g)
	return g
}

// NewFunc adds a function. It stays a declaration until a block is added.
func (m *Module) NewFunc(name string, ret Type, params ...*Param) *Func {
	f := &Func{Name: name, Ret: ret, Params: params}
	m.Funcs = append(m.Funcs, f)
	return f
}

// String renders the module as LLVM assembly.
func (m *Module) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "; ModuleID = '%s'\n", m.Name)
	fmt.Fprintf(&sb, "source_filename = %q\n", m.Name)
	if len(m.Globals) > 0 {
		sb.WriteString("\n")
		for _, g := range m.Globals {
			sb.WriteString(g.String())
			sb.WriteString("\n")
		}
	}
	for _, f := range m.Funcs {
		sb.WriteString("\n")
		sb.WriteString(f.String())
		sb.WriteString("\n")
	}
	return sb.String()
}

// ---------------------------------------------------------------------------
// Func
// ---------------------------------------------------------------------------

// Func is a function declaration or definition. As an operand it is a
// pointer.
type Func struct {
	Name     string
	Ret      Type
	Params   []*Param
	Blocks   []*Block
	Internal bool

	temps int
}

func (*Func) Type() Type { return Ptr }

func (f *Func) Ident() string { return "@" + quoteName(f.Name) }

// IsDecl reports whether f has no body.
func (f *Func) IsDecl() bool { return len(f.Blocks) == 0 }

// NewBlock appends a basic block named name.
func (f *Func) NewBlock(name string) *Block {
	b := &Block{Name: name, Parent: f}
	f.Blocks = append(f.Blocks, b)
	return b
}

func (f *Func) nextTemp() string {
	f.temps++
	return fmt.Sprintf("t%d", f.temps)
}

func (f *Func) String() string {
	params := make([]string, len(f.Params))
	for i, p := range f.Params {
		if f.IsDecl() {
			params[i] = p.Typ.String()
		} else {
			params[i] = p.String()
		}
	}
	sig := fmt.Sprintf("%s %s(%s)", f.Ret, f.Ident(), strings.Join(params, ", "))
	if f.IsDecl() {
		return "declare " + sig
	}

	var sb strings.Builder
	if f.Internal {
		sb.WriteString("define internal ")
	} else {
		sb.WriteString("define ")
	}
	sb.WriteString(sig)
	sb.WriteString(" {\n")
	for i, b := range f.Blocks {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(b.String())
	}
	sb.WriteString("}")
	return sb.String()
}

// ---------------------------------------------------------------------------
// Block
// ---------------------------------------------------------------------------

// Block is a basic block: straight-line instructions and one terminator.
type Block struct {
	Name   string
	Insts  []Inst
	Term   Terminator
	Parent *Func

	extraTerms int
}

func (b *Block) Ident() string { return "%" + quoteName(b.Name) }

func (b *Block) String() string {
	var sb strings.Builder
	sb.WriteString(quoteName(b.Name))
	sb.WriteString(":\n")
	for _, in := range b.Insts {
		sb.WriteString("  ")
		sb.WriteString(in.String())
		sb.WriteString("\n")
	}
	if b.Term != nil {
		sb.WriteString("  ")
		sb.WriteString(b.Term.String())
		sb.WriteString("\n")
	}
	return sb.String()
}

func (b *Block) append(in Inst) {
	b.Insts = append(b.Insts, in)
}

func (b *Block) terminate(t Terminator) {
	if b.Term != nil {
		b.extraTerms++
		return
	}
	b.Term = t
}
