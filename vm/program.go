package vm

import (
	"sort"
	"strings"
)

// ---------------------------------------------------------------------------
// Block and Program
// ---------------------------------------------------------------------------

// Block is the instruction sequence stored under one label. Evaluated
// against an empty stack it leaves exactly one value: the next label.
type Block struct {
	Label int32
	Code  []Instruction
	Line  int // source line, 0 if unknown
}

// Expr renders the block as space-separated source words.
func (b *Block) Expr() string {
	words := make([]string, len(b.Code))
	for i, in := range b.Code {
		words[i] = in.String()
	}
	return strings.Join(words, " ")
}

// Program maps labels to blocks. It is immutable once built and safe for
// concurrent use by any number of backends.
type Program struct {
	blocks    map[int32]*Block
	labels    []int32 // ascending
	peakDepth int
}

// Block returns the block stored under label.
func (p *Program) Block(label int32) (*Block, bool) {
	b, ok := p.blocks[label]
	return b, ok
}

// Has reports whether label names a block.
func (p *Program) Has(label int32) bool {
	_, ok := p.blocks[label]
	return ok
}

// Labels returns all labels in ascending order. The slice must not be
// modified.
func (p *Program) Labels() []int32 {
	return p.labels
}

// Blocks returns the blocks in ascending label order.
func (p *Program) Blocks() []*Block {
	out := make([]*Block, len(p.labels))
	for i, l := range p.labels {
		out[i] = p.blocks[l]
	}
	return out
}

// Len returns the number of blocks.
func (p *Program) Len() int {
	return len(p.labels)
}

// PeakStackDepth is the largest operand stack any block needs.
func (p *Program) PeakStackDepth() int {
	return p.peakDepth
}

// Entry returns the label-0 block, or ErrMissingEntry.
func (p *Program) Entry() (*Block, error) {
	b, ok := p.blocks[0]
	if !ok {
		return nil, ErrMissingEntry
	}
	return b, nil
}

// ---------------------------------------------------------------------------
// ProgramBuilder
// ---------------------------------------------------------------------------

// BlockOption annotates a block added to a ProgramBuilder.
type BlockOption func(*blockConfig)

type blockConfig struct {
	line    int
	columns []int
}

// WithLine records the source line of a block for diagnostics.
func WithLine(line int) BlockOption {
	return func(c *blockConfig) { c.line = line }
}

// WithColumns records the source column of each instruction, in order.
func WithColumns(cols []int) BlockOption {
	return func(c *blockConfig) { c.columns = cols }
}

// ProgramBuilder accumulates verified blocks. The first error sticks: once a
// block is rejected, Build fails and no partial Program escapes.
type ProgramBuilder struct {
	blocks    map[int32]*Block
	peakDepth int
	err       error
}

// NewProgramBuilder creates an empty builder.
func NewProgramBuilder() *ProgramBuilder {
	return &ProgramBuilder{blocks: make(map[int32]*Block)}
}

// AddBlock verifies code and stores it under label. Verification simulates
// the operand stack starting from empty: every operator must find its
// operands, and the block must end with exactly one value, the next label.
func (b *ProgramBuilder) AddBlock(label int32, code []Instruction, opts ...BlockOption) error {
	var cfg blockConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	if _, dup := b.blocks[label]; dup {
		return b.fail(&BuildError{Err: ErrDuplicateLabel, Line: cfg.line, Label: label})
	}

	peak, err := analyzeDepth(label, code, cfg)
	if err != nil {
		return b.fail(err)
	}

	b.blocks[label] = &Block{
		Label: label,
		Code:  append([]Instruction(nil), code...),
		Line:  cfg.line,
	}
	if peak > b.peakDepth {
		b.peakDepth = peak
	}
	return nil
}

func (b *ProgramBuilder) fail(err error) error {
	if b.err == nil {
		b.err = err
	}
	return err
}

// Err returns the first error recorded by AddBlock.
func (b *ProgramBuilder) Err() error {
	return b.err
}

// Build returns the finished Program. The builder must not be reused.
func (b *ProgramBuilder) Build() (*Program, error) {
	if b.err != nil {
		return nil, b.err
	}
	labels := make([]int32, 0, len(b.blocks))
	for l := range b.blocks {
		labels = append(labels, l)
	}
	sort.Slice(labels, func(i, j int) bool { return labels[i] < labels[j] })

	return &Program{
		blocks:    b.blocks,
		labels:    labels,
		peakDepth: b.peakDepth,
	}, nil
}

// analyzeDepth returns the peak stack depth of code or the BuildError that
// rejects it.
func analyzeDepth(label int32, code []Instruction, cfg blockConfig) (int, error) {
	column := func(i int) int {
		if i < len(cfg.columns) {
			return cfg.columns[i]
		}
		return 0
	}

	depth, peak := 0, 0
	for i, in := range code {
		if !in.Op.Valid() {
			return 0, &BuildError{Err: ErrUnexpectedToken, Line: cfg.line, Column: column(i), Label: label, Symbol: in.Op.String(), Depth: depth}
		}
		info := in.Op.Info()
		if depth < info.Pop {
			return 0, &BuildError{Err: ErrInsufficientOperands, Line: cfg.line, Column: column(i), Label: label, Symbol: in.String(), Depth: depth}
		}
		depth += info.Push - info.Pop
		if depth > peak {
			peak = depth
		}
	}
	if depth != 1 {
		return 0, &BuildError{Err: ErrMalformedBlock, Line: cfg.line, Label: label, Depth: depth}
	}
	return peak, nil
}

// NewProgram builds a Program from label → code pairs. Labels are added in
// ascending order so the reported error is deterministic.
func NewProgram(blocks map[int32][]Instruction) (*Program, error) {
	labels := make([]int32, 0, len(blocks))
	for l := range blocks {
		labels = append(labels, l)
	}
	sort.Slice(labels, func(i, j int) bool { return labels[i] < labels[j] })

	b := NewProgramBuilder()
	for _, l := range labels {
		if err := b.AddBlock(l, blocks[l]); err != nil {
			return nil, err
		}
	}
	return b.Build()
}
