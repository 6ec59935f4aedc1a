package server

// Request and response messages of the build service.

type CheckRequest struct {
	Source string `cbor:"1,keyasint"`
}

// Diagnostic is one rejected line.
type Diagnostic struct {
	Line    int    `cbor:"1,keyasint"`
	Column  int    `cbor:"2,keyasint,omitempty"`
	Label   int32  `cbor:"3,keyasint"`
	Kind    string `cbor:"4,keyasint"`
	Message string `cbor:"5,keyasint"`
}

type CheckResponse struct {
	Diagnostics    []Diagnostic `cbor:"1,keyasint"`
	Blocks         int          `cbor:"2,keyasint"`
	PeakStackDepth int          `cbor:"3,keyasint"`
}

// RunRequest runs Source with Input as standard input. MaxJumps can lower
// the server's jump budget for this run but never raise it.
type RunRequest struct {
	Source   string `cbor:"1,keyasint"`
	Input    []byte `cbor:"2,keyasint,omitempty"`
	Trace    bool   `cbor:"3,keyasint,omitempty"`
	MaxJumps int    `cbor:"4,keyasint,omitempty"`
}

type RunResponse struct {
	Output []byte `cbor:"1,keyasint"`
	Trace  string `cbor:"2,keyasint,omitempty"`
	Halt   int32  `cbor:"3,keyasint"`
	Jumps  int    `cbor:"4,keyasint"`
}

type GenerateRequest struct {
	Source  string `cbor:"1,keyasint"`
	Target  string `cbor:"2,keyasint"` // c, go or llvm
	Library string `cbor:"3,keyasint,omitempty"`
	Name    string `cbor:"4,keyasint,omitempty"`
	Verbose bool   `cbor:"5,keyasint,omitempty"`
}

type GenerateResponse struct {
	Code string `cbor:"1,keyasint"`
}
