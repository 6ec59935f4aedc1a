package codegen

import (
	"bytes"
	"fmt"

	"github.com/dave/jennifer/jen"

	"github.com/chazu/hugo/vm"
)

// GenerateGo returns a self-contained Go main package equivalent to p. The
// trace hooks are guarded by a constant, so the Go compiler drops them when
// Options.Verbose is false.
func GenerateGo(p *vm.Program, opts Options) (string, error) {
	if err := checkProgram(p); err != nil {
		return "", err
	}

	f := jen.NewFile("main")
	if opts.Source != "" {
		f.HeaderComment(fmt.Sprintf("Code generated by hugo from %s. DO NOT EDIT.", opts.Source))
	} else {
		f.HeaderComment("Code generated by hugo. DO NOT EDIT.")
	}

	f.Const().Defs(
		jen.Id("stackSize").Op("=").Lit(p.PeakStackDepth()),
		jen.Id("memorySize").Op("=").Lit(vm.MemorySize),
		jen.Id("traceEnabled").Op("=").Lit(opts.Verbose),
	)
	f.Var().Defs(
		jen.Id("memory").Index(jen.Id("memorySize")).Int32(),
		jen.Id("stack").Index(jen.Id("stackSize")).Int32(),
		jen.Id("sp").Int(),
		jen.Id("in").Op("=").Qual("bufio", "NewReader").Call(jen.Qual("os", "Stdin")),
		jen.Id("out").Op("=").Qual("bufio", "NewWriter").Call(jen.Qual("os", "Stdout")),
	)

	genRuntime(f)
	genTrace(f)
	genMain(f, p)

	var buf bytes.Buffer
	if err := f.Render(&buf); err != nil {
		return "", fmt.Errorf("codegen: %w", err)
	}
	return buf.String(), nil
}

// ---------------------------------------------------------------------------
// Runtime helpers
// ---------------------------------------------------------------------------

func genRuntime(f *jen.File) {
	pop := jen.Id("pop").Call()

	f.Func().Id("push").Params(jen.Id("v").Int32()).Block(
		jen.Id("stack").Index(jen.Id("sp")).Op("=").Id("v"),
		jen.Id("sp").Op("++"),
	)
	f.Func().Id("pop").Params().Int32().Block(
		jen.Id("sp").Op("--"),
		jen.Return(jen.Id("stack").Index(jen.Id("sp"))),
	)

	f.Comment("read flushes pending output so prompts appear before blocking.")
	f.Func().Id("read").Params().Block(
		jen.Id("out").Dot("Flush").Call(),
		jen.List(jen.Id("c"), jen.Err()).Op(":=").Id("in").Dot("ReadByte").Call(),
		jen.If(jen.Err().Op("!=").Nil()).Block(
			jen.Id("push").Call(jen.Lit(-1)),
			jen.Return(),
		),
		jen.Id("push").Call(jen.Int32().Call(jen.Id("c"))),
	)
	f.Func().Id("write").Params().Block(
		jen.Id("out").Dot("WriteByte").Call(jen.Byte().Call(pop.Clone())),
	)
	f.Func().Id("save").Params().Block(
		jen.Id("addr").Op(":=").Add(pop.Clone()),
		jen.Id("memory").Index(jen.Id("addr")).Op("=").Add(pop.Clone()),
	)
	f.Func().Id("load").Params().Block(
		jen.Id("addr").Op(":=").Add(pop.Clone()),
		jen.Id("push").Call(jen.Id("memory").Index(jen.Id("addr"))),
	)

	binary := func(name, op string) {
		f.Func().Id(name).Params().Block(
			jen.Id("y").Op(":=").Add(pop.Clone()),
			jen.Id("x").Op(":=").Add(pop.Clone()),
			jen.Id("push").Call(jen.Id("x").Op(op).Id("y")),
		)
	}
	binary("add", "+")
	binary("sub", "-")

	f.Func().Id("eql").Params().Block(
		jen.Id("y").Op(":=").Add(pop.Clone()),
		jen.Id("x").Op(":=").Add(pop.Clone()),
		jen.If(jen.Id("x").Op("==").Id("y")).Block(
			jen.Id("push").Call(jen.Lit(1)),
			jen.Return(),
		),
		jen.Id("push").Call(jen.Lit(0)),
	)
}

func genTrace(f *jen.File) {
	stderr := jen.Qual("os", "Stderr")

	f.Func().Id("traceExpr").Params(jen.Id("expr").String()).Block(
		jen.Qual("fmt", "Fprintf").Call(stderr.Clone(), jen.Lit("goto %s\n"), jen.Id("expr")),
	)
	f.Func().Id("traceStep").Params(jen.Id("word").String()).Block(
		jen.Qual("fmt", "Fprintf").Call(stderr.Clone(), jen.Lit("%4s |"), jen.Id("word")),
		jen.For(jen.List(jen.Id("_"), jen.Id("v")).Op(":=").Range().Id("stack").Index(jen.Empty(), jen.Id("sp"))).Block(
			jen.Qual("fmt", "Fprintf").Call(stderr.Clone(), jen.Lit(" %d"), jen.Id("v")),
		),
		jen.Qual("fmt", "Fprintln").Call(stderr.Clone()),
	)
	f.Func().Id("traceTOS").Params().Block(
		jen.Qual("fmt", "Fprintf").Call(stderr.Clone(), jen.Lit("     | %d\n"), jen.Id("stack").Index(jen.Id("sp").Op("-").Lit(1))),
	)
}

// ---------------------------------------------------------------------------
// Dispatch loop
// ---------------------------------------------------------------------------

var goHelpers = map[vm.Opcode]string{
	vm.OpRead:  "read",
	vm.OpWrite: "write",
	vm.OpSave:  "save",
	vm.OpLoad:  "load",
	vm.OpAdd:   "add",
	vm.OpSub:   "sub",
	vm.OpEqual: "eql",
}

func traced(call *jen.Statement) *jen.Statement {
	return jen.If(jen.Id("traceEnabled")).Block(call)
}

func genMain(f *jen.File, p *vm.Program) {
	var cases []jen.Code
	for _, b := range p.Blocks() {
		body := []jen.Code{traced(jen.Id("traceExpr").Call(jen.Lit(b.Expr())))}
		for _, in := range b.Code {
			body = append(body, traced(jen.Id("traceStep").Call(jen.Lit(in.String()))))
			if in.Op == vm.OpPush {
				body = append(body, jen.Id("push").Call(jen.Lit(int(in.Value))))
			} else {
				body = append(body, jen.Id(goHelpers[in.Op]).Call())
			}
		}
		cases = append(cases, jen.Case(jen.Lit(int(b.Label))).Block(body...))
	}
	cases = append(cases, jen.Default().Block(jen.Return()))

	f.Func().Id("main").Params().Block(
		jen.Defer().Id("out").Dot("Flush").Call(),
		jen.Id("label").Op(":=").Int32().Call(jen.Lit(0)),
		jen.For().Block(
			jen.Switch(jen.Id("label")).Block(cases...),
			traced(jen.Id("traceTOS").Call()),
			jen.Id("label").Op("=").Id("pop").Call(),
		),
	)
}
