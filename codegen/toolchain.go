package codegen

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("hugo.codegen")

// ErrToolchain wraps failures of the external C compiler.
var ErrToolchain = errors.New("C compiler failed")

// Toolchain describes how generated C is turned into an executable.
type Toolchain struct {
	Compiler string // defaults to "gcc"
	Opt      string // optimization level passed as -O<Opt>; empty omits the flag
	Debug    bool   // -g
	Verbose  bool   // -DVERBOSE_EXECUTION
}

// Args returns the compiler argument list for translating cfile into out.
func (t Toolchain) Args(cfile, out string) []string {
	var args []string
	if t.Opt != "" {
		args = append(args, "-O"+t.Opt)
	}
	if t.Debug {
		args = append(args, "-g")
	}
	if t.Verbose {
		args = append(args, "-DVERBOSE_EXECUTION")
	}
	return append(args, "-o", out, cfile)
}

func (t Toolchain) compiler() string {
	if t.Compiler == "" {
		return "gcc"
	}
	return t.Compiler
}

// CompileC writes src to cfile and invokes the toolchain to produce out. The
// compiler's combined output is included in the error on failure.
func CompileC(ctx context.Context, t Toolchain, src, cfile, out string) error {
	if err := os.WriteFile(cfile, []byte(src), 0o644); err != nil {
		return fmt.Errorf("cannot write %s: %w", cfile, err)
	}

	args := t.Args(cfile, out)
	log.Infof("%s %s", t.compiler(), strings.Join(args, " "))

	cmd := exec.CommandContext(ctx, t.compiler(), args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		msg := strings.TrimSpace(string(output))
		if msg == "" {
			return fmt.Errorf("%w: %s: %v", ErrToolchain, t.compiler(), err)
		}
		return fmt.Errorf("%w: %s: %v\n%s", ErrToolchain, t.compiler(), err, msg)
	}
	return nil
}
