package compiler

import (
	"github.com/chazu/hugo/vm"
)

// ---------------------------------------------------------------------------
// Lexer: splits Hugo source into words
// ---------------------------------------------------------------------------

// Lexer tokenizes Hugo source code. Words are separated by whitespace and
// every newline produces a TokenEOL.
type Lexer struct {
	input     string
	pos       int // current offset
	line      int // current line (1-based)
	lineStart int // offset of current line start
}

// NewLexer creates a new lexer for the given input.
func NewLexer(input string) *Lexer {
	return &Lexer{input: input, line: 1}
}

func (l *Lexer) position() Position {
	return Position{
		Offset: l.pos,
		Line:   l.line,
		Column: l.pos - l.lineStart + 1,
	}
}

// NextToken returns the next token.
func (l *Lexer) NextToken() Token {
	for l.pos < len(l.input) && isSpace(l.input[l.pos]) {
		l.pos++
	}

	pos := l.position()
	if l.pos >= len(l.input) {
		return Token{Type: TokenEOF, Pos: pos}
	}

	if l.input[l.pos] == '\n' {
		l.pos++
		l.line++
		l.lineStart = l.pos
		return Token{Type: TokenEOL, Literal: "\n", Pos: pos}
	}

	start := l.pos
	for l.pos < len(l.input) && l.input[l.pos] != '\n' && !isSpace(l.input[l.pos]) {
		l.pos++
	}
	return classify(l.input[start:l.pos], pos)
}

// Tokens returns every token up to and including EOF.
func (l *Lexer) Tokens() []Token {
	var toks []Token
	for {
		tok := l.NextToken()
		toks = append(toks, tok)
		if tok.Type == TokenEOF {
			return toks
		}
	}
}

// classify tags a word as an operator, an integer or something else.
func classify(word string, pos Position) Token {
	if op, ok := vm.LookupSymbol(word); ok {
		return Token{Type: TokenOperator, Literal: word, Op: op, Pos: pos}
	}
	if isDigits(word) {
		return Token{Type: TokenInteger, Literal: word, Pos: pos}
	}
	return Token{Type: TokenOther, Literal: word, Pos: pos}
}

// isSpace reports horizontal whitespace; newlines are tokens.
func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\v' || c == '\f'
}

// isDigits reports whether word is a non-empty run of ASCII digits.
// Negative literals do not exist in Hugo source.
func isDigits(word string) bool {
	if word == "" {
		return false
	}
	for i := 0; i < len(word); i++ {
		if word[i] < '0' || word[i] > '9' {
			return false
		}
	}
	return true
}
