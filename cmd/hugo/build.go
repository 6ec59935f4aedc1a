package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/chazu/hugo/codegen"
	"github.com/chazu/hugo/image"
	"github.com/chazu/hugo/irgen"
	"github.com/chazu/hugo/manifest"
)

// compileCommand translates each file to C next to the source and builds an
// executable named after it. With no files it builds source.entry into
// build.output.
//
//	hugo compile [-O N] [-g] [-verbose] [-compiler CC] FILE...
func compileCommand(args []string, m *manifest.Manifest) error {
	fs := flag.NewFlagSet("compile", flag.ExitOnError)
	opt := fs.String("O", m.Build.Opt, "Optimization level 0..4")
	debug := fs.Bool("g", m.Build.Debug, "Emit debug information")
	verbose := fs.Bool("verbose", m.Build.Verbose, "Compile execution tracing in")
	cc := fs.String("compiler", m.Build.Compiler, "C compiler executable")
	out := fs.String("o", "", "Executable name (single input only)")
	fs.Parse(args)

	files, err := inputFiles(fs.Args(), m)
	if err != nil {
		return err
	}
	if *out != "" && len(files) > 1 {
		return errors.New("-o cannot be used with several input files")
	}

	tc := codegen.Toolchain{Compiler: *cc, Opt: *opt, Debug: *debug, Verbose: *verbose}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	for _, path := range files {
		if filepath.Ext(path) != manifest.SourceExt {
			return &fileError{path: path, err: fmt.Errorf("expected a %s file", manifest.SourceExt)}
		}
		exe := *out
		switch {
		case exe != "":
		case fs.NArg() == 0:
			// The entry from hugo.toml builds into build.output.
			exe = m.OutputPath(filepath.Base(trimExt(path)))
			if err := os.MkdirAll(filepath.Dir(exe), 0o755); err != nil {
				return err
			}
		default:
			exe = trimExt(path)
		}
		if err := compileFile(ctx, tc, path, exe); err != nil {
			return &fileError{path: path, err: err}
		}
	}
	return nil
}

func compileFile(ctx context.Context, tc codegen.Toolchain, path, exe string) error {
	p, err := loadProgram(path)
	if err != nil {
		return err
	}
	src, err := codegen.GenerateC(p, codegen.Options{Source: filepath.Base(path)})
	if err != nil {
		return err
	}
	return codegen.CompileC(ctx, tc, src, trimExt(path)+".c", exe)
}

// emitCommand prints generated code for one file.
//
//	hugo emit [-target c|go|llvm] [-ir hugo|llir] [-verbose] [-o OUT] FILE
func emitCommand(args []string, m *manifest.Manifest) error {
	fs := flag.NewFlagSet("emit", flag.ExitOnError)
	target := fs.String("target", m.Build.Target, "Output language: c, go or llvm")
	library := fs.String("ir", m.Build.IR, "IR library for -target llvm: hugo or llir")
	verbose := fs.Bool("verbose", m.Build.Verbose, "Compile execution tracing in")
	out := fs.String("o", "", "Write to file instead of stdout")
	fs.Parse(args)

	files, err := inputFiles(fs.Args(), m)
	if err != nil {
		return err
	}
	if len(files) != 1 {
		return errors.New("emit takes exactly one input file")
	}
	path := files[0]

	p, err := loadProgram(path)
	if err != nil {
		return &fileError{path: path, err: err}
	}

	opts := codegen.Options{Verbose: *verbose, Source: filepath.Base(path)}
	var text string
	switch *target {
	case "c":
		text, err = codegen.GenerateC(p, opts)
	case "go":
		text, err = codegen.GenerateGo(p, opts)
	case "llvm":
		text, err = irgen.GenerateText(p, filepath.Base(path), *library)
	case "image":
		return errors.New("use `hugo image` to write program images")
	default:
		return fmt.Errorf("unknown target %q", *target)
	}
	if err != nil {
		return &fileError{path: path, err: err}
	}

	if *out == "" {
		_, err = os.Stdout.WriteString(text)
		return err
	}
	return os.WriteFile(*out, []byte(text), 0o644)
}

// imageCommand stores one file as a CBOR program image.
//
//	hugo image [-o OUT] FILE
func imageCommand(args []string, m *manifest.Manifest) error {
	fs := flag.NewFlagSet("image", flag.ExitOnError)
	out := fs.String("o", "", "Image path (default: input name with "+image.Ext+")")
	fs.Parse(args)

	files, err := inputFiles(fs.Args(), m)
	if err != nil {
		return err
	}
	if len(files) != 1 {
		return errors.New("image takes exactly one input file")
	}
	path := files[0]

	p, err := loadProgram(path)
	if err != nil {
		return &fileError{path: path, err: err}
	}
	dest := *out
	if dest == "" {
		dest = trimExt(path) + image.Ext
	}
	if err := image.WriteFile(dest, p, filepath.Base(path)); err != nil {
		return &fileError{path: path, err: err}
	}
	return nil
}
