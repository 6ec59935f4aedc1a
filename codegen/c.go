package codegen

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"github.com/chazu/hugo/vm"
)

var cTemplate = template.Must(template.New("c").Parse(`/* Code generated by hugo{{if .Source}} from {{.Source}}{{end}}. DO NOT EDIT. */
#include <stdio.h>
{{if .Verbose}}
#define VERBOSE_EXECUTION
{{end}}
static int memory[{{.MemorySize}}];
static int stack[{{.StackSize}}];
static size_t sp = 0;

#define PUSH(x) stack[sp++] = (x)
#define POP()   stack[--sp]
#define READ()  PUSH(getchar())
#define WRITE() putchar(POP())
#define SAVE()  x = POP(); memory[x] = POP()
#define LOAD()  x = POP(); PUSH(memory[x])
/* unsigned arithmetic wraps; signed overflow would be undefined */
#define ADD()   y = POP(); x = POP(); PUSH((int)((unsigned)x + (unsigned)y))
#define SUB()   y = POP(); x = POP(); PUSH((int)((unsigned)x - (unsigned)y))
#define EQL()   y = POP(); x = POP(); PUSH(x == y)

#ifdef VERBOSE_EXECUTION
static void PEXPR(const char *expr) {
    fprintf(stderr, "goto %s\n", expr);
}
static void PSTACK(void) {
    size_t i;
    for (i = 0; i < sp; ++i) {
        fprintf(stderr, " %d", stack[i]);
    }
    fprintf(stderr, "\n");
}
static void PNUM(int num) {
    fprintf(stderr, "%4d |", num);
    PSTACK();
}
static void PSYM(const char *sym) {
    fprintf(stderr, "%4s |", sym);
    PSTACK();
}
static void PTOS(void) {
    fprintf(stderr, "     | %d\n", stack[sp - 1]);
}
#else
#define PEXPR(e)
#define PNUM(n)
#define PSYM(s)
#define PTOS()
#endif

int main(void) {
  register int x = 0, y = 0, label = 0;
  (void)x;
  (void)y;
  while (1) {
    switch (label) {
{{- range .Cases}}
    case {{.Label}}:
      PEXPR("{{.Expr}}");
{{- range .Lines}}
      {{.}}
{{- end}}
      break;
{{- end}}
    default:
      goto halt;
    }
    PTOS();
    label = POP();
  }
halt:
  fflush(stdout);
  return 0;
}
`))

type cCase struct {
	Label string
	Expr  string
	Lines []string
}

type cUnit struct {
	Source     string
	Verbose    bool
	MemorySize int
	StackSize  int
	Cases      []cCase
}

// GenerateC returns a C translation unit equivalent to p. The output depends
// only on p and opts.
func GenerateC(p *vm.Program, opts Options) (string, error) {
	if err := checkProgram(p); err != nil {
		return "", err
	}

	unit := cUnit{
		Source:     opts.Source,
		Verbose:    opts.Verbose,
		MemorySize: vm.MemorySize,
		StackSize:  p.PeakStackDepth(),
	}
	for _, b := range p.Blocks() {
		c := cCase{Label: cInt(b.Label), Expr: cEscape(b.Expr())}
		for _, in := range b.Code {
			c.Lines = append(c.Lines, cInstruction(in))
		}
		unit.Cases = append(unit.Cases, c)
	}

	var buf bytes.Buffer
	if err := cTemplate.Execute(&buf, unit); err != nil {
		return "", fmt.Errorf("codegen: %w", err)
	}
	return buf.String(), nil
}

// cInstruction renders the trace hook and the macro for one instruction.
func cInstruction(in vm.Instruction) string {
	if in.Op == vm.OpPush {
		v := cInt(in.Value)
		return fmt.Sprintf("PNUM(%s); PUSH(%s);", v, v)
	}
	return fmt.Sprintf("PSYM(\"%s\"); %s();", cEscape(in.Op.Symbol()), cMacros[in.Op])
}

var cMacros = map[vm.Opcode]string{
	vm.OpRead:  "READ",
	vm.OpWrite: "WRITE",
	vm.OpSave:  "SAVE",
	vm.OpLoad:  "LOAD",
	vm.OpAdd:   "ADD",
	vm.OpSub:   "SUB",
	vm.OpEqual: "EQL",
}

var cEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

func cEscape(s string) string {
	return cEscaper.Replace(s)
}
