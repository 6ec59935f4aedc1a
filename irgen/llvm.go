package irgen

import (
	"errors"
	"fmt"

	llir "github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	"github.com/chazu/hugo/vm"
)

// LLVMTarget builds an llir/llvm module.
type LLVMTarget struct {
	Module *llir.Module

	stack, memory               *types.ArrayType
	getchar, putchar            *llir.Func
	push, pop, save, load, main *llir.Func
	next                        value.Value
}

// NewLLVMTarget returns a target producing an llir module called name.
func NewLLVMTarget(name string) *LLVMTarget {
	m := llir.NewModule()
	m.SourceFilename = name
	return &LLVMTarget{Module: m}
}

// GenerateLLVM lowers p to an llir module.
func GenerateLLVM(p *vm.Program, name string) (*llir.Module, error) {
	t := NewLLVMTarget(name)
	if err := Generate(p, t); err != nil {
		return nil, err
	}
	return t.Module, nil
}

func i32(v int32) *constant.Int { return constant.NewInt(types.I32, int64(v)) }

func (t *LLVMTarget) Runtime(stackDepth, memCells int) {
	m := t.Module
	zero64 := constant.NewInt(types.I64, 0)
	one64 := constant.NewInt(types.I64, 1)

	t.stack = types.NewArray(uint64(stackDepth), types.I32)
	t.memory = types.NewArray(uint64(memCells), types.I32)
	stack := m.NewGlobalDef("stack", constant.NewZeroInitializer(t.stack))
	stack.Linkage = enum.LinkageInternal
	sp := m.NewGlobalDef("sp", zero64)
	sp.Linkage = enum.LinkageInternal
	memory := m.NewGlobalDef("memory", constant.NewZeroInitializer(t.memory))
	memory.Linkage = enum.LinkageInternal

	t.getchar = m.NewFunc("getchar", types.I32)
	t.putchar = m.NewFunc("putchar", types.I32, llir.NewParam("c", types.I32))

	val := llir.NewParam("value", types.I32)
	t.push = m.NewFunc("push", types.Void, val)
	t.push.Linkage = enum.LinkageInternal
	b := t.push.NewBlock("body")
	index := b.NewLoad(types.I64, sp)
	index.SetName("index")
	ptr := b.NewGetElementPtr(t.stack, stack, zero64, index)
	ptr.SetName("ptr")
	b.NewStore(val, ptr)
	inc := b.NewAdd(index, one64)
	inc.SetName("new.sp")
	b.NewStore(inc, sp)
	b.NewRet(nil)

	t.pop = m.NewFunc("pop", types.I32)
	t.pop.Linkage = enum.LinkageInternal
	b = t.pop.NewBlock("body")
	old := b.NewLoad(types.I64, sp)
	old.SetName("old.sp")
	dec := b.NewSub(old, one64)
	dec.SetName("index")
	b.NewStore(dec, sp)
	ptr = b.NewGetElementPtr(t.stack, stack, zero64, dec)
	ptr.SetName("ptr")
	tos := b.NewLoad(types.I32, ptr)
	tos.SetName("tos")
	b.NewRet(tos)

	val = llir.NewParam("value", types.I32)
	addr := llir.NewParam("addr", types.I32)
	t.save = m.NewFunc("save", types.Void, val, addr)
	t.save.Linkage = enum.LinkageInternal
	b = t.save.NewBlock("body")
	addr64 := b.NewSExt(addr, types.I64)
	addr64.SetName("addr64")
	mp := b.NewGetElementPtr(t.memory, memory, zero64, addr64)
	mp.SetName("mp")
	b.NewStore(val, mp)
	b.NewRet(nil)

	addr = llir.NewParam("addr", types.I32)
	t.load = m.NewFunc("load", types.I32, addr)
	t.load.Linkage = enum.LinkageInternal
	b = t.load.NewBlock("body")
	addr64 = b.NewSExt(addr, types.I64)
	addr64.SetName("addr64")
	mp = b.NewGetElementPtr(t.memory, memory, zero64, addr64)
	mp.SetName("mp")
	deref := b.NewLoad(types.I32, mp)
	deref.SetName("deref")
	b.NewRet(deref)

	t.main = m.NewFunc("main", types.I32)
}

func (t *LLVMTarget) AppendBlock(name string) Block {
	return &llvmBlock{t: t, b: t.main.NewBlock(name)}
}

// Verify checks that every block of every defined function is terminated
// and that block names are unique. llir performs no further checking.
func (t *LLVMTarget) Verify() error {
	var errs []error
	for _, f := range t.Module.Funcs {
		seen := make(map[string]bool)
		for _, b := range f.Blocks {
			name := b.Name()
			if seen[name] {
				errs = append(errs, fmt.Errorf("%w: @%s: duplicate block %%%s", ErrInvalidModule, f.Name(), name))
			}
			seen[name] = true
			if b.Term == nil {
				errs = append(errs, fmt.Errorf("%w: @%s: %%%s is not terminated", ErrInvalidModule, f.Name(), name))
			}
		}
	}
	return errors.Join(errs...)
}

func (t *LLVMTarget) String() string { return t.Module.String() }

type llvmBlock struct {
	t *LLVMTarget
	b *llir.Block
}

func (lb *llvmBlock) Exec(in vm.Instruction) error {
	t, b := lb.t, lb.b
	switch in.Op {
	case vm.OpPush:
		b.NewCall(t.push, i32(in.Value))
	case vm.OpRead:
		b.NewCall(t.push, b.NewCall(t.getchar))
	case vm.OpWrite:
		b.NewCall(t.putchar, b.NewCall(t.pop))
	case vm.OpSave:
		addr := b.NewCall(t.pop)
		val := b.NewCall(t.pop)
		b.NewCall(t.save, val, addr)
	case vm.OpLoad:
		addr := b.NewCall(t.pop)
		b.NewCall(t.push, b.NewCall(t.load, addr))
	case vm.OpAdd, vm.OpSub, vm.OpEqual:
		y := b.NewCall(t.pop)
		x := b.NewCall(t.pop)
		var r value.Value
		switch in.Op {
		case vm.OpAdd:
			r = b.NewAdd(x, y)
		case vm.OpSub:
			r = b.NewSub(x, y)
		default:
			r = b.NewZExt(b.NewICmp(enum.IPredEQ, x, y), types.I32)
		}
		b.NewCall(t.push, r)
	default:
		return unknownOpcode(in.Op)
	}
	return nil
}

func (lb *llvmBlock) InitLabel(v int32) {
	next := lb.b.NewAlloca(types.I32)
	next.SetName("next")
	lb.t.next = next
	lb.b.NewStore(i32(v), next)
}

func (lb *llvmBlock) StoreLabel() {
	lb.b.NewStore(lb.b.NewCall(lb.t.pop), lb.t.next)
}

func (lb *llvmBlock) Jump(to Block) {
	lb.b.NewBr(to.(*llvmBlock).b)
}

func (lb *llvmBlock) Dispatch(def Block, cases []Case) {
	jump := lb.b.NewLoad(types.I32, lb.t.next)
	jump.SetName("jump")
	arms := make([]*llir.Case, len(cases))
	for i, c := range cases {
		arms[i] = llir.NewCase(i32(c.Label), c.Target.(*llvmBlock).b)
	}
	lb.b.NewSwitch(jump, def.(*llvmBlock).b, arms...)
}

func (lb *llvmBlock) Return(status int32) {
	lb.b.NewRet(i32(status))
}
