// Package manifest handles hugo.toml project configuration.
package manifest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
)

// FileName is the manifest file looked up in a project directory.
const FileName = "hugo.toml"

// SourceExt is the extension of Hugo source files.
const SourceExt = ".hugo"

// ErrInvalid is wrapped by every Validate failure.
var ErrInvalid = errors.New("invalid manifest")

// Manifest represents a hugo.toml project configuration.
type Manifest struct {
	Project Project     `toml:"project"`
	Source  Source      `toml:"source"`
	Build   BuildConfig `toml:"build"`
	Run     RunConfig   `toml:"run"`

	// Dir is the directory containing the hugo.toml file (set at load time).
	Dir string `toml:"-"`
}

// Project contains project metadata.
type Project struct {
	Name    string `toml:"name"`
	Version string `toml:"version"`
}

// Source configures source file locations.
type Source struct {
	Dirs  []string `toml:"dirs"`
	Entry string   `toml:"entry"`
}

// BuildConfig configures the compile and emit commands.
type BuildConfig struct {
	Target   string `toml:"target"`   // c, go, llvm or image
	IR       string `toml:"ir"`       // IR library for the llvm target: hugo or llir
	Compiler string `toml:"compiler"` // C compiler executable
	Opt      string `toml:"opt"`      // optimization level 0..4
	Debug    bool   `toml:"debug"`
	Verbose  bool   `toml:"verbose"`
	Output   string `toml:"output"` // output directory
}

// RunConfig configures the interpreter.
type RunConfig struct {
	MaxJumps int `toml:"max-jumps"` // 0 means unlimited
}

// Targets lists the accepted build targets.
var Targets = []string{"c", "go", "llvm", "image"}

// IRLibraries lists the accepted build.ir values.
var IRLibraries = []string{"hugo", "llir"}

// Default returns the configuration used when no hugo.toml exists.
func Default() *Manifest {
	m := &Manifest{}
	m.applyDefaults()
	return m
}

func (m *Manifest) applyDefaults() {
	if len(m.Source.Dirs) == 0 {
		m.Source.Dirs = []string{"src"}
	}
	if m.Build.Target == "" {
		m.Build.Target = "c"
	}
	if m.Build.IR == "" {
		m.Build.IR = "hugo"
	}
	if m.Build.Compiler == "" {
		m.Build.Compiler = "gcc"
	}
	if m.Build.Opt == "" {
		m.Build.Opt = "0"
	}
	if m.Build.Output == "" {
		m.Build.Output = "build"
	}
}

// Load parses a hugo.toml file from the given directory.
func Load(dir string) (*Manifest, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	var m Manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}

	m.Dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}

	m.applyDefaults()
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &m, nil
}

// FindAndLoad walks up from startDir to find a hugo.toml file,
// then loads and returns the manifest. Returns nil if no manifest is found.
func FindAndLoad(startDir string) (*Manifest, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err == nil {
			return Load(dir)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return nil, nil
		}
		dir = parent
	}
}

// Validate checks field values that toml decoding cannot.
func (m *Manifest) Validate() error {
	if !oneOf(m.Build.Target, Targets) {
		return fmt.Errorf("%w: build.target %q is not one of %s", ErrInvalid, m.Build.Target, strings.Join(Targets, ", "))
	}
	if !oneOf(m.Build.IR, IRLibraries) {
		return fmt.Errorf("%w: build.ir %q is not one of %s", ErrInvalid, m.Build.IR, strings.Join(IRLibraries, ", "))
	}
	if len(m.Build.Opt) != 1 || m.Build.Opt[0] < '0' || m.Build.Opt[0] > '4' {
		return fmt.Errorf("%w: build.opt %q must be 0 to 4", ErrInvalid, m.Build.Opt)
	}
	if m.Run.MaxJumps < 0 {
		return fmt.Errorf("%w: run.max-jumps %d is negative", ErrInvalid, m.Run.MaxJumps)
	}
	if m.Source.Entry != "" && filepath.Ext(m.Source.Entry) != SourceExt {
		return fmt.Errorf("%w: source.entry %q must end in %s", ErrInvalid, m.Source.Entry, SourceExt)
	}
	return nil
}

func oneOf(s string, allowed []string) bool {
	for _, v := range allowed {
		if s == v {
			return true
		}
	}
	return false
}

// SourceDirPaths returns absolute paths for the configured source directories.
func (m *Manifest) SourceDirPaths() []string {
	var paths []string
	for _, d := range m.Source.Dirs {
		paths = append(paths, filepath.Join(m.Dir, d))
	}
	return paths
}

// EntryPath returns the entry file, resolved against the first source
// directory that contains it. It is empty when no entry is configured.
func (m *Manifest) EntryPath() string {
	if m.Source.Entry == "" {
		return ""
	}
	for _, d := range m.SourceDirPaths() {
		path := filepath.Join(d, m.Source.Entry)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return filepath.Join(m.Dir, m.Source.Entry)
}

// SourceFiles lists every .hugo file in the source directories, sorted.
// Missing directories are skipped.
func (m *Manifest) SourceFiles() ([]string, error) {
	var files []string
	for _, d := range m.SourceDirPaths() {
		matches, err := filepath.Glob(filepath.Join(d, "*"+SourceExt))
		if err != nil {
			return nil, err
		}
		files = append(files, matches...)
	}
	sort.Strings(files)
	return files, nil
}

// OutputPath returns where a build artifact named name is written.
func (m *Manifest) OutputPath(name string) string {
	if filepath.IsAbs(m.Build.Output) {
		return filepath.Join(m.Build.Output, name)
	}
	return filepath.Join(m.Dir, m.Build.Output, name)
}
