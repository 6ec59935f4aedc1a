package server

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"unicode/utf16"
	"unicode/utf8"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/chazu/hugo/compiler"
	"github.com/chazu/hugo/vm"
)

// document is an open source file indexed by token. It never fails to
// build: broken lines are still tokenized so editor features keep working.
type document struct {
	text   string
	lines  []string
	tokens []compiler.Token
	defs   map[int32]compiler.Token // first definition of each label
	exprs  map[int32]string         // source words of each defined block
}

func newDocument(text string) *document {
	d := &document{
		text:  text,
		lines: strings.Split(text, "\n"),
		defs:  make(map[int32]compiler.Token),
		exprs: make(map[int32]string),
	}

	var line []string
	var head compiler.Token
	flush := func() {
		if head.Type == compiler.TokenInteger {
			if label, ok := literalValue(head); ok {
				if _, dup := d.defs[label]; !dup {
					d.defs[label] = head
					d.exprs[label] = strings.Join(line, " ")
				}
			}
		}
		line, head = line[:0], compiler.Token{}
	}

	for _, tok := range compiler.NewLexer(text).Tokens() {
		switch tok.Type {
		case compiler.TokenEOL, compiler.TokenEOF:
			flush()
			continue
		}
		if len(line) == 0 {
			head = tok
		}
		line = append(line, tok.Literal)
		d.tokens = append(d.tokens, tok)
	}
	return d
}

func literalValue(tok compiler.Token) (int32, bool) {
	v, err := strconv.ParseInt(tok.Literal, 10, 32)
	if err != nil {
		return 0, false
	}
	return int32(v), true
}

// line returns source line n (1-based), or "" past the end.
func (d *document) line(n int) string {
	if n < 1 || n > len(d.lines) {
		return ""
	}
	return d.lines[n-1]
}

// tokenAt returns the word under an LSP position.
func (d *document) tokenAt(pos protocol.Position) (compiler.Token, bool) {
	line := int(pos.Line) + 1
	col := byteIndex(d.line(line), pos.Character) + 1
	for _, tok := range d.tokens {
		if tok.Pos.Line == line && tok.Pos.Column <= col && col <= tok.End().Column {
			return tok, true
		}
	}
	return compiler.Token{}, false
}

// span converts the byte columns [from, to) of a 1-based line to an LSP
// range.
func (d *document) span(line, from, to int) protocol.Range {
	text := d.line(line)
	return protocol.Range{
		Start: protocol.Position{Line: uint32(line - 1), Character: utf16Index(text, from-1)},
		End:   protocol.Position{Line: uint32(line - 1), Character: utf16Index(text, to-1)},
	}
}

func (d *document) tokenRange(tok compiler.Token) protocol.Range {
	return d.span(tok.Pos.Line, tok.Pos.Column, tok.End().Column)
}

func (d *document) lineRange(line int) protocol.Range {
	width := len(strings.TrimRight(d.line(line), "\r"))
	return d.span(line, 1, width+1)
}

// ---------------------------------------------------------------------------
// Diagnostics
// ---------------------------------------------------------------------------

func (d *document) diagnostics() []protocol.Diagnostic {
	diagnostics := []protocol.Diagnostic{}
	severity := protocol.DiagnosticSeverityError
	source := lspName

	for _, be := range compiler.Check(d.text) {
		rng := d.lineRange(be.Line)
		if be.Column > 0 {
			width := len(be.Symbol)
			if width == 0 {
				width = 1
			}
			rng = d.span(be.Line, be.Column, be.Column+width)
		}
		code := protocol.IntegerOrString{Value: diagnosticCode(be)}
		diagnostics = append(diagnostics, protocol.Diagnostic{
			Range:    rng,
			Severity: &severity,
			Code:     &code,
			Source:   &source,
			Message:  be.Error(),
		})
	}
	return diagnostics
}

func diagnosticCode(be *vm.BuildError) string {
	switch {
	case errors.Is(be, vm.ErrInsufficientOperands):
		return "insufficient-operands"
	case errors.Is(be, vm.ErrMalformedBlock):
		return "malformed-block"
	case errors.Is(be, vm.ErrDuplicateLabel):
		return "duplicate-label"
	default:
		return "unexpected-token"
	}
}

// ---------------------------------------------------------------------------
// Hover, definition, references, completion
// ---------------------------------------------------------------------------

var opcodeDocs = map[vm.Opcode]string{
	vm.OpRead:  "read one byte from standard input and push it, or -1 at end of input",
	vm.OpWrite: "pop a value and write its low byte to standard output",
	vm.OpSave:  "pop an address, pop a value, store the value at the address",
	vm.OpLoad:  "pop an address and push the value stored there",
	vm.OpAdd:   "pop y, pop x, push x + y",
	vm.OpSub:   "pop y, pop x, push x - y",
	vm.OpEqual: "pop y, pop x, push 1 if x = y, otherwise 0",
}

func opcodeMarkdown(op vm.Opcode) string {
	return fmt.Sprintf("**%s** `%s`\n\n%s\n\npops %d, pushes %d", op.Info().Name, op.Symbol(), opcodeDocs[op], op.Pop(), op.Push())
}

func (d *document) hover(pos protocol.Position) *protocol.Hover {
	tok, ok := d.tokenAt(pos)
	if !ok {
		return nil
	}

	var value string
	switch tok.Type {
	case compiler.TokenOperator:
		value = opcodeMarkdown(tok.Op)
	case compiler.TokenInteger:
		label, ok := literalValue(tok)
		if !ok {
			return nil
		}
		def, defined := d.defs[label]
		switch {
		case defined && def == tok:
			value = fmt.Sprintf("**label %d**\n\n`%s`", label, d.exprs[label])
		case defined:
			value = fmt.Sprintf("**%d** names label %d (line %d)\n\n`%s`", label, label, def.Pos.Line, d.exprs[label])
		default:
			value = fmt.Sprintf("**%d**\n\nno block has this label; jumping here halts", label)
		}
	default:
		return nil
	}

	rng := d.tokenRange(tok)
	return &protocol.Hover{
		Contents: protocol.MarkupContent{Kind: protocol.MarkupKindMarkdown, Value: value},
		Range:    &rng,
	}
}

func (d *document) definition(uri protocol.DocumentUri, pos protocol.Position) []protocol.Location {
	tok, ok := d.tokenAt(pos)
	if !ok || tok.Type != compiler.TokenInteger {
		return nil
	}
	label, ok := literalValue(tok)
	if !ok {
		return nil
	}
	def, ok := d.defs[label]
	if !ok {
		return nil
	}
	return []protocol.Location{{URI: uri, Range: d.tokenRange(def)}}
}

func (d *document) references(uri protocol.DocumentUri, pos protocol.Position, includeDecl bool) []protocol.Location {
	tok, ok := d.tokenAt(pos)
	if !ok || tok.Type != compiler.TokenInteger {
		return nil
	}
	label, ok := literalValue(tok)
	if !ok {
		return nil
	}
	def, defined := d.defs[label]

	var locations []protocol.Location
	for _, t := range d.tokens {
		if t.Type != compiler.TokenInteger {
			continue
		}
		if v, ok := literalValue(t); !ok || v != label {
			continue
		}
		if defined && t == def && !includeDecl {
			continue
		}
		locations = append(locations, protocol.Location{URI: uri, Range: d.tokenRange(t)})
	}
	return locations
}

func (d *document) complete(prefix string) []protocol.CompletionItem {
	var items []protocol.CompletionItem

	labels := make([]int32, 0, len(d.defs))
	for l := range d.defs {
		labels = append(labels, l)
	}
	sort.Slice(labels, func(i, j int) bool { return labels[i] < labels[j] })

	for _, l := range labels {
		name := strconv.FormatInt(int64(l), 10)
		if !strings.HasPrefix(name, prefix) {
			continue
		}
		kind := protocol.CompletionItemKindReference
		detail := d.exprs[l]
		items = append(items, protocol.CompletionItem{
			Label:      name,
			Kind:       &kind,
			Detail:     &detail,
			InsertText: &name,
		})
	}

	if prefix == "" {
		for _, op := range vm.AllOpcodes() {
			if op == vm.OpPush {
				continue
			}
			sym := op.Symbol()
			kind := protocol.CompletionItemKindOperator
			detail := opcodeDocs[op]
			items = append(items, protocol.CompletionItem{
				Label:      sym,
				Kind:       &kind,
				Detail:     &detail,
				InsertText: &sym,
			})
		}
	}
	return items
}

// byteIndex converts a column in UTF-16 code units, as LSP counts them, to
// a byte index into line. Columns past the end clamp to len(line), and a
// column inside a surrogate pair rounds up to the next rune.
func byteIndex(line string, char uint32) int {
	units := 0
	for i, r := range line {
		if units >= int(char) {
			return i
		}
		units += utf16.RuneLen(r)
	}
	return len(line)
}

// utf16Index converts a byte index into line to UTF-16 code units.
func utf16Index(line string, b int) uint32 {
	b = min(max(b, 0), len(line))
	units := 0
	for i := 0; i < b; {
		r, size := utf8.DecodeRuneInString(line[i:])
		units += utf16.RuneLen(r)
		i += size
	}
	return uint32(units)
}

// offsetOf converts an LSP position to a byte offset in text, clamped to
// the line and to the text.
func offsetOf(text string, pos protocol.Position) int {
	off := 0
	for line := uint32(0); line < pos.Line; line++ {
		nl := strings.IndexByte(text[off:], '\n')
		if nl < 0 {
			return len(text)
		}
		off += nl + 1
	}
	width := strings.IndexByte(text[off:], '\n')
	if width < 0 {
		width = len(text) - off
	}
	return off + byteIndex(text[off:off+width], pos.Character)
}

// extractPrefix returns the digits before the cursor for completion.
func extractPrefix(text string, pos protocol.Position) string {
	lines := strings.Split(text, "\n")
	if int(pos.Line) >= len(lines) {
		return ""
	}
	line := lines[pos.Line]
	col := byteIndex(line, pos.Character)

	start := col
	for start > 0 && line[start-1] >= '0' && line[start-1] <= '9' {
		start--
	}
	return line[start:col]
}
