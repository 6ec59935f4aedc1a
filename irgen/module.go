package irgen

import (
	"github.com/chazu/hugo/ir"
	"github.com/chazu/hugo/vm"
)

// ModuleTarget builds an ir.Module.
type ModuleTarget struct {
	Module *ir.Module

	stack, memory               *ir.ArrayType
	getchar, putchar            *ir.Func
	push, pop, save, load, main *ir.Func
	next                        ir.Value
}

// NewModuleTarget returns a target producing a module called name.
func NewModuleTarget(name string) *ModuleTarget {
	return &ModuleTarget{Module: ir.NewModule(name)}
}

// GenerateModule lowers p to a verified ir.Module.
func GenerateModule(p *vm.Program, name string) (*ir.Module, error) {
	t := NewModuleTarget(name)
	if err := Generate(p, t); err != nil {
		return nil, err
	}
	return t.Module, nil
}

func (t *ModuleTarget) Runtime(stackDepth, memCells int) {
	m := t.Module
	zero64 := ir.NewInt(ir.I64, 0)
	one64 := ir.NewInt(ir.I64, 1)

	t.stack = ir.NewArray(uint64(stackDepth), ir.I32)
	t.memory = ir.NewArray(uint64(memCells), ir.I32)
	stack := m.NewGlobalDef("stack", ir.NewZeroInitializer(t.stack))
	sp := m.NewGlobalDef("sp", zero64)
	memory := m.NewGlobalDef("memory", ir.NewZeroInitializer(t.memory))

	t.getchar = m.NewFunc("getchar", ir.I32)
	t.putchar = m.NewFunc("putchar", ir.I32, ir.NewParam("c", ir.I32))

	value := ir.NewParam("value", ir.I32)
	t.push = m.NewFunc("push", ir.Void, value)
	t.push.Internal = true
	b := t.push.NewBlock("body")
	index := b.NewLoad(ir.I64, sp)
	index.SetName("index")
	ptr := b.NewGetElementPtr(t.stack, stack, zero64, index)
	ptr.SetName("ptr")
	b.NewStore(value, ptr)
	inc := b.NewAdd(index, one64)
	inc.SetName("new.sp")
	b.NewStore(inc, sp)
	b.NewRet(nil)

	t.pop = m.NewFunc("pop", ir.I32)
	t.pop.Internal = true
	b = t.pop.NewBlock("body")
	old := b.NewLoad(ir.I64, sp)
	old.SetName("old.sp")
	dec := b.NewSub(old, one64)
	dec.SetName("index")
	b.NewStore(dec, sp)
	ptr = b.NewGetElementPtr(t.stack, stack, zero64, dec)
	ptr.SetName("ptr")
	tos := b.NewLoad(ir.I32, ptr)
	tos.SetName("tos")
	b.NewRet(tos)

	value = ir.NewParam("value", ir.I32)
	addr := ir.NewParam("addr", ir.I32)
	t.save = m.NewFunc("save", ir.Void, value, addr)
	t.save.Internal = true
	b = t.save.NewBlock("body")
	addr64 := b.NewSExt(addr, ir.I64)
	addr64.SetName("addr64")
	mp := b.NewGetElementPtr(t.memory, memory, zero64, addr64)
	mp.SetName("mp")
	b.NewStore(value, mp)
	b.NewRet(nil)

	addr = ir.NewParam("addr", ir.I32)
	t.load = m.NewFunc("load", ir.I32, addr)
	t.load.Internal = true
	b = t.load.NewBlock("body")
	addr64 = b.NewSExt(addr, ir.I64)
	addr64.SetName("addr64")
	mp = b.NewGetElementPtr(t.memory, memory, zero64, addr64)
	mp.SetName("mp")
	deref := b.NewLoad(ir.I32, mp)
	deref.SetName("deref")
	b.NewRet(deref)

	t.main = m.NewFunc("main", ir.I32)
}

func (t *ModuleTarget) AppendBlock(name string) Block {
	return &moduleBlock{t: t, b: t.main.NewBlock(name)}
}

func (t *ModuleTarget) Verify() error { return t.Module.Verify() }

func (t *ModuleTarget) String() string { return t.Module.String() }

type moduleBlock struct {
	t *ModuleTarget
	b *ir.Block
}

func (mb *moduleBlock) Exec(in vm.Instruction) error {
	t, b := mb.t, mb.b
	switch in.Op {
	case vm.OpPush:
		b.NewCall(t.push, ir.NewInt(ir.I32, int64(in.Value)))
	case vm.OpRead:
		b.NewCall(t.push, b.NewCall(t.getchar))
	case vm.OpWrite:
		b.NewCall(t.putchar, b.NewCall(t.pop))
	case vm.OpSave:
		addr := b.NewCall(t.pop)
		value := b.NewCall(t.pop)
		b.NewCall(t.save, value, addr)
	case vm.OpLoad:
		addr := b.NewCall(t.pop)
		b.NewCall(t.push, b.NewCall(t.load, addr))
	case vm.OpAdd, vm.OpSub, vm.OpEqual:
		y := b.NewCall(t.pop)
		x := b.NewCall(t.pop)
		var r ir.Value
		switch in.Op {
		case vm.OpAdd:
			r = b.NewAdd(x, y)
		case vm.OpSub:
			r = b.NewSub(x, y)
		default:
			r = b.NewZExt(b.NewICmp(ir.IPredEQ, x, y), ir.I32)
		}
		b.NewCall(t.push, r)
	default:
		return unknownOpcode(in.Op)
	}
	return nil
}

func (mb *moduleBlock) InitLabel(v int32) {
	next := mb.b.NewAlloca(ir.I32)
	next.SetName("next")
	mb.t.next = next
	mb.b.NewStore(ir.NewInt(ir.I32, int64(v)), next)
}

func (mb *moduleBlock) StoreLabel() {
	mb.b.NewStore(mb.b.NewCall(mb.t.pop), mb.t.next)
}

func (mb *moduleBlock) Jump(to Block) {
	mb.b.NewBr(to.(*moduleBlock).b)
}

func (mb *moduleBlock) Dispatch(def Block, cases []Case) {
	jump := mb.b.NewLoad(ir.I32, mb.t.next)
	jump.SetName("jump")
	arms := make([]*ir.Case, len(cases))
	for i, c := range cases {
		arms[i] = ir.NewCase(ir.NewInt(ir.I32, int64(c.Label)), c.Target.(*moduleBlock).b)
	}
	mb.b.NewSwitch(jump, def.(*moduleBlock).b, arms...)
}

func (mb *moduleBlock) Return(status int32) {
	mb.b.NewRet(ir.NewInt(ir.I32, int64(status)))
}
