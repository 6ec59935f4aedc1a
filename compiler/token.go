package compiler

import (
	"fmt"

	"github.com/chazu/hugo/vm"
)

// ---------------------------------------------------------------------------
// Token types for the Hugo lexer
// ---------------------------------------------------------------------------

// TokenType represents the type of a token.
type TokenType int

const (
	TokenEOF      TokenType = iota
	TokenEOL                // end of line
	TokenInteger            // 42
	TokenOperator           // , . $ & + - =
	TokenOther              // any other word
)

var tokenNames = map[TokenType]string{
	TokenEOF:      "EOF",
	TokenEOL:      "EOL",
	TokenInteger:  "INTEGER",
	TokenOperator: "OPERATOR",
	TokenOther:    "OTHER",
}

func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	return fmt.Sprintf("Token(%d)", t)
}

// Position is a location in source text.
type Position struct {
	Offset int // byte offset
	Line   int // 1-based
	Column int // 1-based
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Token represents a lexical token.
type Token struct {
	Type    TokenType
	Literal string    // the raw word
	Op      vm.Opcode // set for TokenOperator
	Pos     Position  // start position
}

// End returns the position just past the token.
func (t Token) End() Position {
	return Position{
		Offset: t.Pos.Offset + len(t.Literal),
		Line:   t.Pos.Line,
		Column: t.Pos.Column + len(t.Literal),
	}
}

func (t Token) String() string {
	switch t.Type {
	case TokenEOF, TokenEOL:
		return t.Type.String()
	}
	if len(t.Literal) > 20 {
		return fmt.Sprintf("%s(%q...)", t.Type, t.Literal[:20])
	}
	return fmt.Sprintf("%s(%q)", t.Type, t.Literal)
}
