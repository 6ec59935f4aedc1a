package ir

import (
	"fmt"
	"strings"
)

// Inst is a non-terminating instruction.
type Inst interface {
	String() string
}

// Terminator ends a basic block.
type Terminator interface {
	String() string
	Succs() []*Block
}

// named is embedded by instructions that produce a value.
type named struct {
	name string
	typ  Type
}

func (n *named) Type() Type { return n.typ }

func (n *named) Ident() string { return "%" + quoteName(n.name) }

// Name returns the local name of the result.
func (n *named) Name() string { return n.name }

// SetName replaces the generated temporary name.
func (n *named) SetName(name string) { n.name = name }

func (b *Block) result(t Type) named {
	return named{name: b.Parent.nextTemp(), typ: t}
}

// ---------------------------------------------------------------------------
// Memory
// ---------------------------------------------------------------------------

// InstAlloca reserves a stack slot.
type InstAlloca struct {
	named
	Elem Type
}

func (b *Block) NewAlloca(elem Type) *InstAlloca {
	in := &InstAlloca{named: b.result(Ptr), Elem: elem}
	b.append(in)
	return in
}

func (in *InstAlloca) String() string {
	return fmt.Sprintf("%s = alloca %s", in.Ident(), in.Elem)
}

// InstLoad reads a value of type Elem through Src.
type InstLoad struct {
	named
	Src Value
}

func (b *Block) NewLoad(elem Type, src Value) *InstLoad {
	in := &InstLoad{named: b.result(elem), Src: src}
	b.append(in)
	return in
}

func (in *InstLoad) String() string {
	return fmt.Sprintf("%s = load %s, %s", in.Ident(), in.typ, operand(in.Src))
}

// InstStore writes Val through Dst.
type InstStore struct {
	Val, Dst Value
}

func (b *Block) NewStore(val, dst Value) *InstStore {
	in := &InstStore{Val: val, Dst: dst}
	b.append(in)
	return in
}

func (in *InstStore) String() string {
	return fmt.Sprintf("store %s, %s", operand(in.Val), operand(in.Dst))
}

// InstGetElementPtr computes an address inside an aggregate of type Elem.
type InstGetElementPtr struct {
	named
	Elem    Type
	Src     Value
	Indices []Value
}

func (b *Block) NewGetElementPtr(elem Type, src Value, indices ...Value) *InstGetElementPtr {
	in := &InstGetElementPtr{named: b.result(Ptr), Elem: elem, Src: src, Indices: indices}
	b.append(in)
	return in
}

func (in *InstGetElementPtr) String() string {
	return fmt.Sprintf("%s = getelementptr %s, %s, %s", in.Ident(), in.Elem, operand(in.Src), joinOperands(in.Indices))
}

// ---------------------------------------------------------------------------
// Arithmetic and conversion
// ---------------------------------------------------------------------------

// InstBinary is a two-operand integer operation.
type InstBinary struct {
	named
	Op   string
	X, Y Value
}

func (b *Block) binary(op string, x, y Value) *InstBinary {
	in := &InstBinary{named: b.result(x.Type()), Op: op, X: x, Y: y}
	b.append(in)
	return in
}

func (b *Block) NewAdd(x, y Value) *InstBinary { return b.binary("add", x, y) }

func (b *Block) NewSub(x, y Value) *InstBinary { return b.binary("sub", x, y) }

func (in *InstBinary) String() string {
	return fmt.Sprintf("%s = %s %s, %s", in.Ident(), in.Op, operand(in.X), in.Y.Ident())
}

// IPred is an integer comparison predicate.
type IPred string

const (
	IPredEQ IPred = "eq"
	IPredNE IPred = "ne"
)

// InstICmp compares two integers and yields an i1.
type InstICmp struct {
	named
	Pred IPred
	X, Y Value
}

func (b *Block) NewICmp(pred IPred, x, y Value) *InstICmp {
	in := &InstICmp{named: b.result(I1), Pred: pred, X: x, Y: y}
	b.append(in)
	return in
}

func (in *InstICmp) String() string {
	return fmt.Sprintf("%s = icmp %s %s, %s", in.Ident(), in.Pred, operand(in.X), in.Y.Ident())
}

// InstConv widens an integer.
type InstConv struct {
	named
	Op   string
	From Value
}

func (b *Block) NewZExt(from Value, to Type) *InstConv {
	in := &InstConv{named: b.result(to), Op: "zext", From: from}
	b.append(in)
	return in
}

func (b *Block) NewSExt(from Value, to Type) *InstConv {
	in := &InstConv{named: b.result(to), Op: "sext", From: from}
	b.append(in)
	return in
}

func (in *InstConv) String() string {
	return fmt.Sprintf("%s = %s %s to %s", in.Ident(), in.Op, operand(in.From), in.typ)
}

// ---------------------------------------------------------------------------
// Calls
// ---------------------------------------------------------------------------

// InstCall calls a function. Calls to void functions have no result.
type InstCall struct {
	named
	Callee *Func
	Args   []Value
}

func (b *Block) NewCall(callee *Func, args ...Value) *InstCall {
	in := &InstCall{Callee: callee, Args: args}
	if _, void := callee.Ret.(*VoidType); void {
		in.typ = Void
	} else {
		in.named = b.result(callee.Ret)
	}
	b.append(in)
	return in
}

func (in *InstCall) String() string {
	call := fmt.Sprintf("call %s %s(%s)", in.Callee.Ret, in.Callee.Ident(), joinOperands(in.Args))
	if in.name == "" {
		return call
	}
	return in.Ident() + " = " + call
}

// ---------------------------------------------------------------------------
// Terminators
// ---------------------------------------------------------------------------

// TermBr is an unconditional branch.
type TermBr struct {
	Target *Block
}

func (b *Block) NewBr(target *Block) *TermBr {
	t := &TermBr{Target: target}
	b.terminate(t)
	return t
}

func (t *TermBr) String() string { return "br label " + t.Target.Ident() }
func (t *TermBr) Succs() []*Block { return []*Block{t.Target} }

// Case is one arm of a switch.
type Case struct {
	X      *ConstInt
	Target *Block
}

// NewCase returns a switch arm jumping to target when the subject equals x.
func NewCase(x *ConstInt, target *Block) *Case {
	return &Case{X: x, Target: target}
}

// TermSwitch is a multi-way branch on an integer.
type TermSwitch struct {
	X       Value
	Default *Block
	Cases   []*Case
}

func (b *Block) NewSwitch(x Value, def *Block, cases ...*Case) *TermSwitch {
	t := &TermSwitch{X: x, Default: def, Cases: cases}
	b.terminate(t)
	return t
}

func (t *TermSwitch) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "switch %s, label %s [", operand(t.X), t.Default.Ident())
	for _, c := range t.Cases {
		fmt.Fprintf(&sb, "\n    %s, label %s", operand(c.X), c.Target.Ident())
	}
	sb.WriteString("\n  ]")
	return sb.String()
}

func (t *TermSwitch) Succs() []*Block {
	succs := []*Block{t.Default}
	for _, c := range t.Cases {
		succs = append(succs, c.Target)
	}
	return succs
}

// TermRet returns from the function. X is nil for void returns.
type TermRet struct {
	X Value
}

func (b *Block) NewRet(x Value) *TermRet {
	t := &TermRet{X: x}
	b.terminate(t)
	return t
}

func (t *TermRet) String() string {
	if t.X == nil {
		return "ret void"
	}
	return "ret " + operand(t.X)
}

func (*TermRet) Succs() []*Block { return nil }
