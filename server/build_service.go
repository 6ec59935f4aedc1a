package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"connectrpc.com/connect"

	"github.com/chazu/hugo/codegen"
	"github.com/chazu/hugo/compiler"
	"github.com/chazu/hugo/irgen"
	"github.com/chazu/hugo/vm"
)

// Build service procedures.
const (
	BuildServiceName  = "hugo.v1.BuildService"
	CheckProcedure    = "/" + BuildServiceName + "/Check"
	RunProcedure      = "/" + BuildServiceName + "/Run"
	GenerateProcedure = "/" + BuildServiceName + "/Generate"
)

// BuildService checks, runs and translates Hugo source for remote callers.
type BuildService struct {
	worker   *Worker
	maxJumps int
}

// DefaultMaxJumps bounds remote runs when no budget is configured.
const DefaultMaxJumps = 1_000_000

// NewBuildService creates a BuildService that runs programs on worker with
// at most maxJumps jumps each. Remote runs are always bounded: a
// non-positive maxJumps selects DefaultMaxJumps.
func NewBuildService(worker *Worker, maxJumps int) *BuildService {
	if maxJumps <= 0 {
		maxJumps = DefaultMaxJumps
	}
	return &BuildService{worker: worker, maxJumps: maxJumps}
}

// Check reports every faulty line of the source.
func (s *BuildService) Check(
	ctx context.Context,
	req *connect.Request[CheckRequest],
) (*connect.Response[CheckResponse], error) {
	res := &CheckResponse{Diagnostics: []Diagnostic{}}
	for _, be := range compiler.Check(req.Msg.Source) {
		res.Diagnostics = append(res.Diagnostics, Diagnostic{
			Line:    be.Line,
			Column:  be.Column,
			Label:   be.Label,
			Kind:    diagnosticCode(be),
			Message: be.Error(),
		})
	}
	if len(res.Diagnostics) == 0 {
		if p, err := compiler.Parse(req.Msg.Source); err == nil {
			res.Blocks = p.Len()
			res.PeakStackDepth = p.PeakStackDepth()
		}
	}
	return connect.NewResponse(res), nil
}

// Run interprets the source against the request input.
func (s *BuildService) Run(
	ctx context.Context,
	req *connect.Request[RunRequest],
) (*connect.Response[RunResponse], error) {
	p, err := compiler.Parse(req.Msg.Source)
	if err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}

	budget := s.maxJumps
	if n := req.Msg.MaxJumps; n > 0 && n < budget {
		budget = n
	}

	result, err := s.worker.Do(ctx, func() (any, error) {
		var out, trace bytes.Buffer
		opts := []vm.Option{
			vm.WithInput(bytes.NewReader(req.Msg.Input)),
			vm.WithOutput(&out),
			vm.WithMaxJumps(budget),
		}
		if req.Msg.Trace {
			opts = append(opts, vm.WithTrace(&trace))
		}
		r, err := vm.Run(p, opts...)
		if err != nil {
			return nil, err
		}
		return &RunResponse{Output: out.Bytes(), Trace: trace.String(), Halt: r.Halt, Jumps: r.Jumps}, nil
	})
	if err != nil {
		return nil, runError(err)
	}
	log.Debugf("run: halt %d after %d jumps", result.(*RunResponse).Halt, result.(*RunResponse).Jumps)
	return connect.NewResponse(result.(*RunResponse)), nil
}

// Generate translates the source for one of the compiled targets.
func (s *BuildService) Generate(
	ctx context.Context,
	req *connect.Request[GenerateRequest],
) (*connect.Response[GenerateResponse], error) {
	p, err := compiler.Parse(req.Msg.Source)
	if err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}

	name := req.Msg.Name
	if name == "" {
		name = "main.hugo"
	}
	opts := codegen.Options{Verbose: req.Msg.Verbose, Source: name}

	var code string
	switch strings.ToLower(req.Msg.Target) {
	case "c":
		code, err = codegen.GenerateC(p, opts)
	case "go":
		code, err = codegen.GenerateGo(p, opts)
	case "llvm":
		code, err = irgen.GenerateText(p, name, req.Msg.Library)
		if errors.Is(err, irgen.ErrUnknownLibrary) {
			return nil, connect.NewError(connect.CodeInvalidArgument, err)
		}
	default:
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("unknown target %q", req.Msg.Target))
	}
	if err != nil {
		return nil, runError(err)
	}
	return connect.NewResponse(&GenerateResponse{Code: code}), nil
}

// runError maps interpreter and backend errors to connect codes.
func runError(err error) error {
	switch {
	case errors.Is(err, vm.ErrMissingEntry):
		return connect.NewError(connect.CodeFailedPrecondition, err)
	case errors.Is(err, vm.ErrJumpLimit):
		return connect.NewError(connect.CodeResourceExhausted, err)
	case errors.Is(err, vm.ErrAddressOutOfRange):
		return connect.NewError(connect.CodeOutOfRange, err)
	case errors.Is(err, context.Canceled):
		return connect.NewError(connect.CodeCanceled, err)
	case errors.Is(err, context.DeadlineExceeded):
		return connect.NewError(connect.CodeDeadlineExceeded, err)
	default:
		return connect.NewError(connect.CodeInternal, err)
	}
}
