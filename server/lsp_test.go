package server

import (
	"bytes"
	"strings"
	"testing"

	"github.com/tliron/commonlog"
	"github.com/tliron/commonlog/simple"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// testDoc has a comment line, a valid block, a malformed block and an
// operator without operands.
const testDoc = "say hi\n0 72 . 1 +\n1 105 . 10 . 2\n2 +\n"

const testURI = protocol.DocumentUri("file:///test.hugo")

func pos(line, char uint32) protocol.Position {
	return protocol.Position{Line: line, Character: char}
}

// ---------------------------------------------------------------------------
// LSP text extraction helpers
// ---------------------------------------------------------------------------

func TestExtractPrefix_Digits(t *testing.T) {
	prefix := extractPrefix("0 12", pos(0, 4))
	if prefix != "12" {
		t.Errorf("extractPrefix = %q, want %q", prefix, "12")
	}
}

func TestExtractPrefix_AfterOperator(t *testing.T) {
	prefix := extractPrefix("0 1 +", pos(0, 5))
	if prefix != "" {
		t.Errorf("extractPrefix = %q, want empty string", prefix)
	}
}

func TestExtractPrefix_CursorAtBeginning(t *testing.T) {
	prefix := extractPrefix("42", pos(0, 0))
	if prefix != "" {
		t.Errorf("extractPrefix at position 0 = %q, want empty string", prefix)
	}
}

func TestExtractPrefix_LineBeyondDocument(t *testing.T) {
	prefix := extractPrefix("single line", pos(5, 0))
	if prefix != "" {
		t.Errorf("extractPrefix beyond document = %q, want empty string", prefix)
	}
}

func TestTokenAt(t *testing.T) {
	d := newDocument(testDoc)
	tests := []struct {
		pos  protocol.Position
		want string
		ok   bool
	}{
		{pos(1, 0), "0", true},
		{pos(1, 3), "72", true},
		{pos(1, 9), "+", true},
		{pos(0, 1), "say", true},
		{pos(2, 30), "", false},
		{pos(9, 0), "", false},
	}
	for _, tt := range tests {
		tok, ok := d.tokenAt(tt.pos)
		if ok != tt.ok || tok.Literal != tt.want {
			t.Errorf("tokenAt(%d:%d) = %q, %v; want %q, %v", tt.pos.Line, tt.pos.Character, tok.Literal, ok, tt.want, tt.ok)
		}
	}
}

// ---------------------------------------------------------------------------
// Diagnostics
// ---------------------------------------------------------------------------

func TestLSP_Diagnostics(t *testing.T) {
	diags := newDocument(testDoc).diagnostics()
	if len(diags) != 2 {
		t.Fatalf("got %d diagnostics, want 2: %+v", len(diags), diags)
	}

	malformed := diags[0]
	if malformed.Code == nil || malformed.Code.Value != "malformed-block" {
		t.Errorf("first code = %v, want malformed-block", malformed.Code)
	}
	if malformed.Range.Start != pos(2, 0) || malformed.Range.End != pos(2, 14) {
		t.Errorf("malformed range = %+v, want the whole line", malformed.Range)
	}

	arity := diags[1]
	if arity.Code == nil || arity.Code.Value != "insufficient-operands" {
		t.Errorf("second code = %v, want insufficient-operands", arity.Code)
	}
	if arity.Range.Start != pos(3, 2) || arity.Range.End != pos(3, 3) {
		t.Errorf("arity range = %+v, want the + token", arity.Range)
	}
	if !strings.Contains(arity.Message, "too few arguments to +") {
		t.Errorf("message = %q", arity.Message)
	}
}

func TestLSP_DiagnosticsClean(t *testing.T) {
	diags := newDocument("0 1 +\n").diagnostics()
	if diags == nil || len(diags) != 0 {
		t.Errorf("diagnostics = %v, want an empty non-nil slice", diags)
	}
}

// ---------------------------------------------------------------------------
// Hover
// ---------------------------------------------------------------------------

func hoverText(t *testing.T, d *document, p protocol.Position) string {
	t.Helper()
	h := d.hover(p)
	if h == nil {
		return ""
	}
	return h.Contents.(protocol.MarkupContent).Value
}

func TestLSP_Hover_Operator(t *testing.T) {
	text := hoverText(t, newDocument(testDoc), pos(1, 9))
	if !strings.Contains(text, "**ADD**") || !strings.Contains(text, "pops 2, pushes 1") {
		t.Errorf("hover = %q", text)
	}
}

func TestLSP_Hover_LabelDefinition(t *testing.T) {
	text := hoverText(t, newDocument(testDoc), pos(1, 0))
	if !strings.Contains(text, "**label 0**") || !strings.Contains(text, "`0 72 . 1 +`") {
		t.Errorf("hover = %q", text)
	}
}

func TestLSP_Hover_LabelUse(t *testing.T) {
	text := hoverText(t, newDocument(testDoc), pos(1, 7))
	if !strings.Contains(text, "names label 1 (line 3)") {
		t.Errorf("hover = %q", text)
	}
}

func TestLSP_Hover_UndefinedLabel(t *testing.T) {
	text := hoverText(t, newDocument(testDoc), pos(1, 3))
	if !strings.Contains(text, "no block has this label") {
		t.Errorf("hover = %q", text)
	}
}

func TestLSP_Hover_Comment(t *testing.T) {
	if h := newDocument(testDoc).hover(pos(0, 1)); h != nil {
		t.Errorf("hover on comment = %+v, want nil", h)
	}
}

// ---------------------------------------------------------------------------
// Definition and references
// ---------------------------------------------------------------------------

func TestLSP_Definition(t *testing.T) {
	locs := newDocument(testDoc).definition(testURI, pos(1, 7))
	if len(locs) != 1 {
		t.Fatalf("got %d locations, want 1", len(locs))
	}
	if locs[0].URI != testURI || locs[0].Range.Start != pos(2, 0) || locs[0].Range.End != pos(2, 1) {
		t.Errorf("location = %+v", locs[0])
	}
}

func TestLSP_Definition_Undefined(t *testing.T) {
	if locs := newDocument(testDoc).definition(testURI, pos(1, 3)); locs != nil {
		t.Errorf("definition of 72 = %+v, want nil", locs)
	}
}

func TestLSP_References(t *testing.T) {
	d := newDocument(testDoc)
	if got := d.references(testURI, pos(1, 7), true); len(got) != 2 {
		t.Errorf("with declaration: %d locations, want 2", len(got))
	}
	if got := d.references(testURI, pos(1, 7), false); len(got) != 1 {
		t.Errorf("without declaration: %d locations, want 1", len(got))
	}
	if got := d.references(testURI, pos(1, 5), true); got != nil {
		t.Errorf("references of an operator = %+v, want nil", got)
	}
}

// ---------------------------------------------------------------------------
// Completion
// ---------------------------------------------------------------------------

func TestLSP_Complete(t *testing.T) {
	d := newDocument(testDoc)

	all := d.complete("")
	if len(all) != 3+7 {
		t.Errorf("complete(\"\") returned %d items, want 10", len(all))
	}
	if all[0].Label != "0" || *all[0].Detail != "0 72 . 1 +" {
		t.Errorf("first item = %q (%v)", all[0].Label, all[0].Detail)
	}

	one := d.complete("1")
	if len(one) != 1 || one[0].Label != "1" {
		t.Errorf("complete(\"1\") = %+v", one)
	}
}

// ---------------------------------------------------------------------------
// LSP document synchronization state
// ---------------------------------------------------------------------------

func TestLSP_DocumentStore(t *testing.T) {
	lsp := NewLSP()

	lsp.store(testURI, "0 1")
	d, ok := lsp.lookup(testURI)
	if !ok {
		t.Fatal("document should be stored after open")
	}
	if d.text != "0 1" {
		t.Errorf("document text = %q, want %q", d.text, "0 1")
	}

	lsp.store(testURI, "0 2")
	if d, _ := lsp.lookup(testURI); d.text != "0 2" {
		t.Errorf("document text after change = %q", d.text)
	}

	lsp.forget(testURI)
	if _, ok := lsp.lookup(testURI); ok {
		t.Error("document should be removed after close")
	}
}

func rng(l1, c1, l2, c2 uint32) *protocol.Range {
	return &protocol.Range{
		Start: protocol.Position{Line: l1, Character: c1},
		End:   protocol.Position{Line: l2, Character: c2},
	}
}

func TestApplyChanges(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		changes []any
		want    string
	}{
		{"whole", "0 1 +", []any{protocol.TextDocumentContentChangeEventWhole{Text: "1 0 +"}}, "1 0 +"},
		{"insert", "0 1 +\n", []any{protocol.TextDocumentContentChangeEvent{Range: rng(0, 3, 0, 3), Text: " 2 +"}}, "0 1 2 + +\n"},
		{"replace second line", "0 1 +\n1 2 +\n", []any{protocol.TextDocumentContentChangeEvent{Range: rng(1, 2, 1, 3), Text: "9"}}, "0 1 +\n1 9 +\n"},
		{"delete across lines", "0 1 +\n1 2 +\n", []any{protocol.TextDocumentContentChangeEvent{Range: rng(0, 5, 1, 5), Text: ""}}, "0 1 +\n"},
		{"sequence", "0", []any{
			protocol.TextDocumentContentChangeEvent{Range: rng(0, 1, 0, 1), Text: " 1"},
			protocol.TextDocumentContentChangeEvent{Range: rng(0, 3, 0, 3), Text: " +"},
		}, "0 1 +"},
		{"column past end clamps", "0 1", []any{protocol.TextDocumentContentChangeEvent{Range: rng(0, 40, 0, 40), Text: " +"}}, "0 1 +"},
		{"line past end appends", "0 1", []any{protocol.TextDocumentContentChangeEvent{Range: rng(5, 0, 5, 0), Text: " +"}}, "0 1 +"},
		{"no range replaces", "junk", []any{protocol.TextDocumentContentChangeEvent{Text: "0 1 +"}}, "0 1 +"},
		{"columns count utf-16 units", "é0 1", []any{protocol.TextDocumentContentChangeEvent{Range: rng(0, 1, 0, 1), Text: " "}}, "é 0 1"},
		{"surrogate pair is two units", "😀 0\n", []any{protocol.TextDocumentContentChangeEvent{Range: rng(0, 3, 0, 4), Text: "1"}}, "😀 1\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := applyChanges(tt.text, tt.changes); got != tt.want {
				t.Errorf("applyChanges = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBoolPtr(t *testing.T) {
	if p := boolPtr(true); p == nil || !*p {
		t.Error("boolPtr(true) should point to true")
	}
}

func TestInitializeLogs(t *testing.T) {
	var buf bytes.Buffer
	backend := simple.NewBackend()
	backend.Buffered = false
	backend.Configure(1, nil)
	backend.Writer = &buf
	backend.Format = func(m *commonlog.UnstructuredMessage, _ []string, _ commonlog.Level, _ bool) string {
		return m.Message
	}
	commonlog.SetBackend(backend)
	t.Cleanup(func() {
		quiet := simple.NewBackend()
		quiet.Configure(0, nil)
		commonlog.SetBackend(quiet)
	})

	if _, err := NewLSP().initialize(nil, &protocol.InitializeParams{}); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	if !strings.Contains(buf.String(), "LSP initializing") {
		t.Errorf("log output = %q, want the initializing message", buf.String())
	}
}

func TestUTF16Columns(t *testing.T) {
	const line = "a😀é 7"
	tests := []struct {
		char uint32
		byte int
	}{
		{0, 0},
		{1, 1},
		{2, 5}, // inside the surrogate pair
		{3, 5},
		{4, 7},
		{5, 8},
		{6, 9},
		{40, 9},
	}
	for _, tt := range tests {
		if got := byteIndex(line, tt.char); got != tt.byte {
			t.Errorf("byteIndex(%d) = %d, want %d", tt.char, got, tt.byte)
		}
	}
	for b, want := range map[int]uint32{0: 0, 1: 1, 5: 3, 7: 4, 8: 5, 9: 6, 20: 6} {
		if got := utf16Index(line, b); got != want {
			t.Errorf("utf16Index(%d) = %d, want %d", b, got, want)
		}
	}
	if got := extractPrefix("😀 12", pos(0, 5)); got != "12" {
		t.Errorf("extractPrefix after emoji = %q, want %q", got, "12")
	}
}
