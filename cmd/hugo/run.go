package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/chazu/hugo/manifest"
	"github.com/chazu/hugo/server"
	"github.com/chazu/hugo/vm"
)

// runCommand interprets each file in turn. The files share stdin and stdout.
//
//	hugo run [-trace] [-max-jumps N] FILE...
func runCommand(args []string, m *manifest.Manifest) error {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	trace := fs.Bool("trace", false, "Write a step trace to stderr")
	verbose := fs.Bool("verbose", false, "Same as -trace")
	maxJumps := fs.Int("max-jumps", m.Run.MaxJumps, "Stop after N jumps (0 = unlimited)")
	fs.Parse(args)

	files, err := inputFiles(fs.Args(), m)
	if err != nil {
		return err
	}

	opts := []vm.Option{vm.WithMaxJumps(*maxJumps)}
	if *trace || *verbose {
		opts = append(opts, vm.WithTrace(os.Stderr))
	}
	return runFiles(files, os.Stdin, os.Stdout, opts...)
}

// runFiles interprets files in order. stdin is buffered once for all of
// them so bytes read ahead by one program reach the next.
func runFiles(files []string, stdin io.Reader, stdout io.Writer, opts ...vm.Option) error {
	opts = append([]vm.Option{
		vm.WithInput(bufio.NewReader(stdin)),
		vm.WithOutput(stdout),
	}, opts...)
	for _, path := range files {
		if err := runFile(path, opts); err != nil {
			return &fileError{path: path, err: err}
		}
	}
	return nil
}

func runFile(path string, opts []vm.Option) error {
	p, err := loadProgram(path)
	if err != nil {
		return err
	}
	_, err = vm.Run(p, opts...)
	return err
}

// lspCommand serves the language server on stdio until the client leaves.
func lspCommand(args []string, m *manifest.Manifest) error {
	fs := flag.NewFlagSet("lsp", flag.ExitOnError)
	fs.Parse(args)
	return server.NewLSP().Run()
}

// serveCommand starts the build service.
//
//	hugo serve [-port N] [-workers N] [-max-jumps N]
func serveCommand(args []string, m *manifest.Manifest) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	port := fs.Int("port", 4567, "Listen port")
	workers := fs.Int("workers", 0, "Concurrent requests (0 = number of CPUs)")
	maxJumps := fs.Int("max-jumps", m.Run.MaxJumps, "Jump budget per run (0 = service default)")
	fs.Parse(args)

	var opts []server.ServerOption
	if *maxJumps > 0 {
		opts = append(opts, server.WithMaxJumps(*maxJumps))
	}
	if *workers > 0 {
		opts = append(opts, server.WithWorkers(*workers))
	}

	addr := fmt.Sprintf(":%d", *port)
	srv := server.New(opts...)
	defer srv.Stop()
	return srv.ListenAndServe(addr)
}
