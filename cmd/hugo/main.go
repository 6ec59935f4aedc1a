// Hugo CLI - runs, compiles and serves goto-only Hugo programs
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tliron/commonlog"

	"github.com/chazu/hugo/compiler"
	"github.com/chazu/hugo/image"
	"github.com/chazu/hugo/manifest"
	"github.com/chazu/hugo/vm"
)

var commands = map[string]func(args []string, m *manifest.Manifest) error{
	"run":     runCommand,
	"compile": compileCommand,
	"emit":    emitCommand,
	"image":   imageCommand,
	"lsp":     lspCommand,
	"serve":   serveCommand,
}

func main() {
	verbose := flag.Bool("v", false, "Verbose logging (same as -log 1)")
	logLevel := flag.Int("log", 0, "Log verbosity: 0 errors only, 1 info, 2 debug")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: hugo [options] <command> [command options] [files...]\n\n")
		fmt.Fprintf(os.Stderr, "Commands:\n")
		fmt.Fprintf(os.Stderr, "  run FILE...        Interpret source files or %s images\n", image.Ext)
		fmt.Fprintf(os.Stderr, "  compile FILE...    Translate to C and build executables\n")
		fmt.Fprintf(os.Stderr, "  emit FILE          Print generated C, Go or LLVM IR\n")
		fmt.Fprintf(os.Stderr, "  image FILE         Write a CBOR program image\n")
		fmt.Fprintf(os.Stderr, "  lsp                Start the language server on stdio\n")
		fmt.Fprintf(os.Stderr, "  serve              Start the build service over HTTP\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  hugo run echo.hugo < input.txt       # Interpret\n")
		fmt.Fprintf(os.Stderr, "  hugo run -trace echo.hugo            # Interpret with a step trace on stderr\n")
		fmt.Fprintf(os.Stderr, "  hugo compile -O 2 echo.hugo          # Build ./echo with gcc\n")
		fmt.Fprintf(os.Stderr, "  hugo emit -target llvm -ir llir x.hugo\n")
		fmt.Fprintf(os.Stderr, "  hugo image -o echo.hgi echo.hugo\n")
		fmt.Fprintf(os.Stderr, "  hugo serve -port 8080                # Build service on :8080\n")
		fmt.Fprintf(os.Stderr, "\nSettings not given on the command line are read from %s.\n", manifest.FileName)
	}
	flag.Parse()

	level := *logLevel
	if *verbose && level == 0 {
		level = 1
	}
	commonlog.Configure(level, nil)

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(2)
	}
	cmd, ok := commands[args[0]]
	if !ok {
		fmt.Fprintf(os.Stderr, "Error: unknown command %q\n\n", args[0])
		flag.Usage()
		os.Exit(2)
	}

	m, err := loadManifest(".")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading manifest: %v\n", err)
		os.Exit(1)
	}

	if err := cmd(args[1:], m); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadManifest finds hugo.toml above dir, falling back to the defaults.
func loadManifest(dir string) (*manifest.Manifest, error) {
	m, err := manifest.FindAndLoad(dir)
	if err != nil {
		return nil, err
	}
	if m == nil {
		m = manifest.Default()
		m.Dir, _ = filepath.Abs(dir)
	}
	return m, nil
}

// fileError prefixes err with the file it concerns.
type fileError struct {
	path string
	err  error
}

func (e *fileError) Error() string { return e.path + ": " + e.err.Error() }

func (e *fileError) Unwrap() error { return e.err }

// inputFiles returns args, or the manifest entry when args is empty.
func inputFiles(args []string, m *manifest.Manifest) ([]string, error) {
	if len(args) > 0 {
		return args, nil
	}
	if entry := m.EntryPath(); entry != "" {
		return []string{entry}, nil
	}
	return nil, fmt.Errorf("no input files and no source.entry in %s", manifest.FileName)
}

// loadProgram builds the program stored at path. Images are decoded, every
// other file is parsed as source.
func loadProgram(path string) (*vm.Program, error) {
	if strings.EqualFold(filepath.Ext(path), image.Ext) {
		img, err := image.ReadFile(path)
		if err != nil {
			return nil, err
		}
		return img.Program()
	}
	return compiler.ParseFile(path)
}

// trimExt returns path without its extension.
func trimExt(path string) string {
	return strings.TrimSuffix(path, filepath.Ext(path))
}
