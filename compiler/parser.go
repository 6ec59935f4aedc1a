package compiler

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/chazu/hugo/vm"
)

// ---------------------------------------------------------------------------
// Parser: one block per line
// ---------------------------------------------------------------------------

// Parser turns Hugo source into a Program. A line whose first word is an
// integer defines the block with that label; every other line is ignored.
// The label is also the block's first operand, so the instruction sequence
// of "7 1 +" is Push(7) Push(1) Add and the block jumps to 8.
type Parser struct {
	lexer   *Lexer
	cur     Token
	builder *vm.ProgramBuilder
	errors  []*vm.BuildError
	collect bool // keep going after an error
}

// NewParser creates a new parser for the given input.
func NewParser(input string) *Parser {
	p := &Parser{
		lexer:   NewLexer(input),
		builder: vm.NewProgramBuilder(),
	}
	p.nextToken()
	return p
}

func (p *Parser) nextToken() {
	p.cur = p.lexer.NextToken()
}

// skipLine advances to the first token of the next line.
func (p *Parser) skipLine() {
	for p.cur.Type != TokenEOL && p.cur.Type != TokenEOF {
		p.nextToken()
	}
	if p.cur.Type == TokenEOL {
		p.nextToken()
	}
}

// record stores err and reports whether parsing should continue.
func (p *Parser) record(err error) bool {
	var be *vm.BuildError
	if errors.As(err, &be) {
		p.errors = append(p.errors, be)
	}
	return p.collect
}

// Errors returns every error recorded so far.
func (p *Parser) Errors() []*vm.BuildError {
	return p.errors
}

// ParseProgram parses the whole input.
func (p *Parser) ParseProgram() (*vm.Program, error) {
	for p.cur.Type != TokenEOF {
		if err := p.parseLine(); err != nil && !p.record(err) {
			return nil, err
		}
	}
	if len(p.errors) > 0 {
		return nil, p.errors[0]
	}
	return p.builder.Build()
}

// parseLine parses the line starting at the current token.
func (p *Parser) parseLine() error {
	if p.cur.Type != TokenInteger {
		p.skipLine()
		return nil
	}

	first := p.cur
	line := first.Pos.Line
	label, err := parseLiteral(first, 0)
	if err != nil {
		p.skipLine()
		return err
	}

	code := []vm.Instruction{vm.Push(label)}
	cols := []int{first.Pos.Column}
	p.nextToken()

	for p.cur.Type != TokenEOL && p.cur.Type != TokenEOF {
		tok := p.cur
		switch tok.Type {
		case TokenInteger:
			v, err := parseLiteral(tok, label)
			if err != nil {
				p.skipLine()
				return err
			}
			code = append(code, vm.Push(v))
		case TokenOperator:
			code = append(code, vm.Op(tok.Op))
		default:
			p.skipLine()
			return unexpected(tok, label)
		}
		cols = append(cols, tok.Pos.Column)
		p.nextToken()
	}
	p.skipLine()

	return p.builder.AddBlock(label, code, vm.WithLine(line), vm.WithColumns(cols))
}

// parseLiteral converts an integer token, rejecting values outside int32.
func parseLiteral(tok Token, label int32) (int32, error) {
	v, err := strconv.ParseInt(tok.Literal, 10, 32)
	if err != nil {
		return 0, unexpected(tok, label)
	}
	return int32(v), nil
}

func unexpected(tok Token, label int32) *vm.BuildError {
	return &vm.BuildError{
		Err:    vm.ErrUnexpectedToken,
		Line:   tok.Pos.Line,
		Column: tok.Pos.Column,
		Label:  label,
		Symbol: tok.Literal,
	}
}

// ---------------------------------------------------------------------------
// Entry points
// ---------------------------------------------------------------------------

// Parse builds a Program from source text, stopping at the first error.
func Parse(src string) (*vm.Program, error) {
	return NewParser(src).ParseProgram()
}

// ParseReader reads all of r and parses it.
func ParseReader(r io.Reader) (*vm.Program, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return Parse(string(data))
}

// ParseFile reads and parses the file at path.
func ParseFile(path string) (*vm.Program, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}
	return Parse(string(data))
}

// Check parses src and returns one error per faulty line instead of
// stopping at the first one. It is meant for editors.
func Check(src string) []*vm.BuildError {
	p := NewParser(src)
	p.collect = true
	p.ParseProgram()
	return p.Errors()
}
