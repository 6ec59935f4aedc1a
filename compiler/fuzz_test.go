package compiler

import (
	"io"
	"strings"
	"testing"

	"github.com/chazu/hugo/vm"
)

// ---------------------------------------------------------------------------
// FuzzLexer: ensure the lexer never panics on arbitrary input.
// ---------------------------------------------------------------------------

var fuzzSeeds = []string{
	// Operators
	`, . $ & + - =`,
	// Integers
	`0`, `42`, `2147483647`, `2147483648`, `99999999999999999999`, `007`,
	// Blocks
	"0 1 +\n",
	"0 72 . 1 +\n1 105 . 10 . 1 +\n",
	"0 , 1 $ 1 1 & 0 1 - = + +\n1 1 & . 1 -\n",
	// Faulty blocks
	"0\n", "0 +\n", "0 1 2\n", "0 1 +\n0 2 +\n", "x\n", "-1\n",
	// Whitespace only
	``, `   `, "\t\n\r", "\n\n\n",
	// Binary soup
	"+-*/\\~<>=@%|&?!,\x00\xff",
}

func FuzzLexer(f *testing.F) {
	for _, s := range fuzzSeeds {
		f.Add(s)
	}

	f.Fuzz(func(t *testing.T, data string) {
		defer func() {
			if r := recover(); r != nil {
				t.Fatalf("lexer panicked on input %q: %v", data, r)
			}
		}()

		l := NewLexer(data)
		for i := 0; i < len(data)+100; i++ {
			if l.NextToken().Type == TokenEOF {
				break
			}
		}
	})
}

// ---------------------------------------------------------------------------
// FuzzParser: parse errors are acceptable, panics are not. Programs that
// build are run under a jump budget to check that verified blocks never
// underflow the stack.
// ---------------------------------------------------------------------------

func FuzzParser(f *testing.F) {
	for _, s := range fuzzSeeds {
		f.Add(s)
	}

	f.Fuzz(func(t *testing.T, data string) {
		defer func() {
			if r := recover(); r != nil {
				t.Fatalf("parser panicked on input %q: %v", data, r)
			}
		}()

		_ = Check(data)

		p, err := Parse(data)
		if err != nil {
			return
		}
		if p.Len() > 0 && p.PeakStackDepth() < 1 {
			t.Fatalf("built program reports peak depth %d", p.PeakStackDepth())
		}
		_, _ = vm.Run(p,
			vm.WithInput(strings.NewReader("fuzz")),
			vm.WithOutput(io.Discard),
			vm.WithMaxJumps(1000),
		)
	})
}
