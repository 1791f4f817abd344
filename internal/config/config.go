// Package config loads the project file, hsbuild.yaml.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/goplus/hsbuild/pkgs/compiler"
	"github.com/goplus/hsbuild/pkgs/fspath"
	"github.com/goplus/hsbuild/pkgs/pkgdb"
	"gopkg.in/yaml.v3"
)

// FileName is the name of the project file.
const FileName = "hsbuild.yaml"

// Scalar holds a YAML scalar as written, so that booleans and integers
// can be parsed by the level parsers rather than by the YAML decoder.
type Scalar string

func (s *Scalar) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: expected a scalar value", node.Line)
	}
	*s = Scalar(node.Value)
	return nil
}

// Config is the content of a project file.
type Config struct {
	Compiler        string   `yaml:"compiler"`
	HcPkg           string   `yaml:"hc-pkg"`
	PackageDBs      []string `yaml:"package-dbs"`
	Language        string   `yaml:"language"`
	Extensions      []string `yaml:"extensions"`
	Optimization    Scalar   `yaml:"optimization"`
	DebugInfo       Scalar   `yaml:"debug-info"`
	ProfilingDetail string   `yaml:"profiling-detail"`

	root string
}

// Levels are the code generation levels selected by a project.
type Levels struct {
	Optimisation compiler.Optimisation
	DebugInfo    compiler.DebugInfo
	ProfDetail   compiler.ProfDetail
}

// Flags returns the compiler flags selecting the optimisation and debug
// info levels of l.
func (l Levels) Flags(c *compiler.Compiler) []string {
	flags := []string{l.Optimisation.GHCFlag()}
	if f := l.DebugInfo.GHCFlag(); f != "" {
		flags = append(flags, f)
	}
	return flags
}

// ProfFlags returns the cost-centre flags for a profiled library build.
// They only make sense alongside -prof.
func (l Levels) ProfFlags(c *compiler.Compiler) []string {
	return l.ProfDetail.ForLibrary().GHCFlags(c)
}

// Default returns the configuration used when a project has no file.
func Default(root string) *Config {
	return &Config{root: root}
}

// Load reads the project file at path. A missing file yields the default
// configuration rooted at the file's directory.
func Load(path string) (*Config, error) {
	root := filepath.Dir(path)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Default(root), nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg := Default(root)
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && err != io.EOF {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, nil
}

// Find searches dir and its parents for a project file and returns its
// path, or fs.ErrNotExist if there is none.
func Find(dir string) (string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	for {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("%s: %w", FileName, fs.ErrNotExist)
		}
		dir = parent
	}
}

// Root returns the project root: the directory holding the project file.
func (c *Config) Root() string {
	return c.root
}

// CompilerPath returns the configured compiler. A path containing a
// separator is taken relative to the project root; a bare name is left for
// PATH lookup.
func (c *Config) CompilerPath() string {
	if c.Compiler == "" {
		return "ghc"
	}
	return c.projectPath(c.Compiler)
}

// HcPkgPath returns the package manager paired with the compiler at
// ghcPath: the configured one, or the ghc-pkg that sits next to it with
// the same version suffix.
func (c *Config) HcPkgPath(ghcPath string) string {
	if c.HcPkg != "" {
		return c.projectPath(c.HcPkg)
	}
	dir, base := filepath.Split(ghcPath)
	for _, prefix := range []string{"ghcjs", "ghc"} {
		if rest, ok := strings.CutPrefix(base, prefix); ok {
			return dir + prefix + "-pkg" + rest
		}
	}
	return dir + "ghc-pkg"
}

func (c *Config) projectPath(p string) string {
	if filepath.IsAbs(p) || !strings.ContainsRune(filepath.ToSlash(p), '/') {
		return p
	}
	return filepath.Join(c.root, p)
}

// Stack returns the package database stack. Relative paths are anchored
// at the project root. With no databases configured the stack is the
// global database under the user one.
func (c *Config) Stack() (pkgdb.Stack, error) {
	if len(c.PackageDBs) == 0 {
		return pkgdb.Stack{pkgdb.GlobalDB[fspath.SymbolicPath](), pkgdb.UserDB[fspath.SymbolicPath]()}, nil
	}
	return pkgdb.ParseStack(fspath.Pkg, c.PackageDBs)
}

// Lang returns the configured language standard.
func (c *Config) Lang() compiler.Language {
	if c.Language == "" {
		return compiler.DefaultLanguage
	}
	return compiler.Language(c.Language)
}

// Exts returns the configured extensions.
func (c *Config) Exts() []compiler.Extension {
	exts := make([]compiler.Extension, 0, len(c.Extensions))
	for _, e := range c.Extensions {
		exts = append(exts, compiler.ParseExtension(e))
	}
	return exts
}

// Levels parses the configured levels. Unset levels take their defaults:
// normal optimisation, no debug info, default profiling detail.
func (c *Config) Levels() (Levels, error) {
	l := Levels{
		Optimisation: compiler.NormalOptimisation,
		DebugInfo:    compiler.NoDebugInfo,
		ProfDetail:   compiler.ParseProfDetail(c.ProfilingDetail),
	}
	var err error
	if c.Optimization != "" {
		if l.Optimisation, err = compiler.ParseOptimisation(string(c.Optimization)); err != nil {
			return Levels{}, fmt.Errorf("optimization: %w", err)
		}
	}
	if c.DebugInfo != "" {
		if l.DebugInfo, err = compiler.ParseDebugInfo(string(c.DebugInfo)); err != nil {
			return Levels{}, fmt.Errorf("debug-info: %w", err)
		}
	}
	return l, nil
}
