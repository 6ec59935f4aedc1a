// Package server exposes Hugo tooling to editors and remote callers: a
// language server over stdio and a connect build service over HTTP.
package server

import (
	"fmt"
	"net/http"
	"runtime"

	"connectrpc.com/connect"
	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("hugo.server")

// HugoServer serves the build service over HTTP.
type HugoServer struct {
	worker *Worker
	mux    *http.ServeMux
}

// ServerOption configures a HugoServer.
type ServerOption func(*serverConfig)

type serverConfig struct {
	maxJumps int
	workers  int
}

// WithMaxJumps sets the jump budget of every remote run.
func WithMaxJumps(n int) ServerOption {
	return func(c *serverConfig) { c.maxJumps = n }
}

// WithWorkers sets how many programs may run at once.
func WithWorkers(n int) ServerOption {
	return func(c *serverConfig) { c.workers = n }
}

// New creates a HugoServer.
func New(opts ...ServerOption) *HugoServer {
	cfg := &serverConfig{workers: runtime.NumCPU()}
	for _, opt := range opts {
		opt(cfg)
	}

	s := &HugoServer{
		worker: NewWorker(cfg.workers),
		mux:    http.NewServeMux(),
	}

	svc := NewBuildService(s.worker, cfg.maxJumps)
	codec := connect.WithCodec(newCBORCodec())
	s.mux.Handle(CheckProcedure, connect.NewUnaryHandler(CheckProcedure, svc.Check, codec))
	s.mux.Handle(RunProcedure, connect.NewUnaryHandler(RunProcedure, svc.Run, codec))
	s.mux.Handle(GenerateProcedure, connect.NewUnaryHandler(GenerateProcedure, svc.Generate, codec))

	return s
}

// Handler returns the HTTP handler serving every procedure.
func (s *HugoServer) Handler() http.Handler {
	return s.mux
}

// ListenAndServe starts the HTTP server on the given address.
// The address should be in the form "host:port" or ":port".
func (s *HugoServer) ListenAndServe(addr string) error {
	fmt.Printf("Hugo build service listening on %s\n", addr)
	fmt.Printf("  Connect (HTTP/CBOR): http://%s%s\n", addr, RunProcedure)
	return http.ListenAndServe(addr, s.mux)
}

// Stop shuts down the server.
func (s *HugoServer) Stop() {
	s.worker.Stop()
}
