package ir

import (
	"errors"
	"fmt"
)

// ErrInvalid is wrapped by every VerifyError.
var ErrInvalid = errors.New("invalid module")

// VerifyError describes one structural problem found by Verify.
type VerifyError struct {
	Func  string
	Block string
	Msg   string
}

func (e *VerifyError) Error() string {
	switch {
	case e.Func == "":
		return "ir: " + e.Msg
	case e.Block == "":
		return fmt.Sprintf("ir: @%s: %s", e.Func, e.Msg)
	default:
		return fmt.Sprintf("ir: @%s: %%%s: %s", e.Func, e.Block, e.Msg)
	}
}

func (e *VerifyError) Unwrap() error { return ErrInvalid }

// Verify checks the structural rules LLVM enforces on a module: unique
// symbol names, one terminator per block, branches that stay inside their
// function, an entry block with no predecessors, unique switch cases, and
// operand types that agree. All problems are returned joined.
func (m *Module) Verify() error {
	var errs []error
	fail := func(f, b, format string, args ...any) {
		errs = append(errs, &VerifyError{Func: f, Block: b, Msg: fmt.Sprintf(format, args...)})
	}

	symbols := make(map[string]bool)
	for _, g := range m.Globals {
		if symbols[g.Name] {
			fail("", "", "duplicate symbol @%s", g.Name)
		}
		symbols[g.Name] = true
		if !g.ContentType.Equal(g.Init.Type()) {
			fail("", "", "global @%s initializer has type %s, want %s", g.Name, g.Init.Type(), g.ContentType)
		}
	}
	for _, f := range m.Funcs {
		if symbols[f.Name] {
			fail("", "", "duplicate symbol @%s", f.Name)
		}
		symbols[f.Name] = true
	}

	for _, f := range m.Funcs {
		if !f.IsDecl() {
			verifyFunc(f, fail)
		}
	}
	return errors.Join(errs...)
}

func verifyFunc(f *Func, fail func(f, b, format string, args ...any)) {
	locals := make(map[string]bool)
	define := func(block, name string) {
		if locals[name] {
			fail(f.Name, block, "duplicate local %%%s", name)
		}
		locals[name] = true
	}
	for _, p := range f.Params {
		define("", p.Name)
	}

	blocks := make(map[*Block]bool)
	for _, b := range f.Blocks {
		define("", b.Name)
		blocks[b] = true
	}

	entry := f.Blocks[0]
	for _, b := range f.Blocks {
		if b.Term == nil {
			fail(f.Name, b.Name, "block is not terminated")
			continue
		}
		if b.extraTerms > 0 {
			fail(f.Name, b.Name, "block has %d terminators", b.extraTerms+1)
		}

		for _, in := range b.Insts {
			if v, ok := in.(interface{ Name() string }); ok && v.Name() != "" {
				define(b.Name, v.Name())
			}
			verifyInst(f, b, in, fail)
		}

		for _, s := range b.Term.Succs() {
			if !blocks[s] {
				fail(f.Name, b.Name, "branch to %%%s outside the function", s.Name)
			}
			if s == entry {
				fail(f.Name, b.Name, "branch to the entry block")
			}
		}

		switch t := b.Term.(type) {
		case *TermSwitch:
			seen := make(map[int64]bool)
			for _, c := range t.Cases {
				if seen[c.X.V] {
					fail(f.Name, b.Name, "duplicate switch case %d", c.X.V)
				}
				seen[c.X.V] = true
				if !c.X.Type().Equal(t.X.Type()) {
					fail(f.Name, b.Name, "switch case %d has type %s, want %s", c.X.V, c.X.Type(), t.X.Type())
				}
			}
		case *TermRet:
			_, void := f.Ret.(*VoidType)
			switch {
			case void && t.X != nil:
				fail(f.Name, b.Name, "void function returns a value")
			case !void && t.X == nil:
				fail(f.Name, b.Name, "missing return value")
			case !void && !t.X.Type().Equal(f.Ret):
				fail(f.Name, b.Name, "returns %s, want %s", t.X.Type(), f.Ret)
			}
		}
	}
}

func verifyInst(f *Func, b *Block, in Inst, fail func(f, b, format string, args ...any)) {
	switch in := in.(type) {
	case *InstBinary:
		if !in.X.Type().Equal(in.Y.Type()) {
			fail(f.Name, b.Name, "%s operands %s and %s differ", in.Op, in.X.Type(), in.Y.Type())
		}
	case *InstICmp:
		if !in.X.Type().Equal(in.Y.Type()) {
			fail(f.Name, b.Name, "icmp operands %s and %s differ", in.X.Type(), in.Y.Type())
		}
	case *InstStore:
		if !in.Dst.Type().Equal(Ptr) {
			fail(f.Name, b.Name, "store through %s", in.Dst.Type())
		}
	case *InstCall:
		if len(in.Args) != len(in.Callee.Params) {
			fail(f.Name, b.Name, "call to @%s with %d arguments, want %d", in.Callee.Name, len(in.Args), len(in.Callee.Params))
			return
		}
		for i, a := range in.Args {
			if want := in.Callee.Params[i].Typ; !a.Type().Equal(want) {
				fail(f.Name, b.Name, "call to @%s: argument %d has type %s, want %s", in.Callee.Name, i, a.Type(), want)
			}
		}
	}
}
