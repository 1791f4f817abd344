package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/goplus/hsbuild/pkgs/compiler"
	"github.com/goplus/hsbuild/pkgs/fspath"
	"github.com/goplus/hsbuild/pkgs/pkgdb"
	"gopkg.in/yaml.v3"
)

// DefaultPackageDB is the database packages are registered into when a
// plan names none, relative to the plan file.
const DefaultPackageDB = "package.conf.d"

// Plan describes a set of local packages to build and register.
type Plan struct {
	PackageDBs []string  `yaml:"package-dbs"`
	Jobs       int       `yaml:"jobs"`
	Profiling  bool      `yaml:"profiling"`
	Dynamic    bool      `yaml:"dynamic"`
	Packages   []Package `yaml:"packages"`

	dir string
}

// Package is one library of a plan.
type Package struct {
	Name       string   `yaml:"name"`
	Version    string   `yaml:"version"`
	Dir        string   `yaml:"dir"`
	Modules    []string `yaml:"modules"`
	Language   string   `yaml:"language"`
	Extensions []string `yaml:"extensions"`
	Depends    []string `yaml:"depends"`
}

// ID returns the unit id the package is built and registered as.
func (p *Package) ID() string {
	return p.Name + "-" + p.Version
}

// Lang returns the package's language standard.
func (p *Package) Lang() compiler.Language {
	if p.Language == "" {
		return compiler.DefaultLanguage
	}
	return compiler.Language(p.Language)
}

// Exts returns the package's extensions.
func (p *Package) Exts() []compiler.Extension {
	exts := make([]compiler.Extension, 0, len(p.Extensions))
	for _, e := range p.Extensions {
		exts = append(exts, compiler.ParseExtension(e))
	}
	return exts
}

// LoadPlan reads and validates the plan file at path.
func LoadPlan(path string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading plan: %w", err)
	}
	var plan Plan
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&plan); err != nil {
		return nil, fmt.Errorf("parsing plan %s: %w", path, err)
	}
	if plan.dir, err = filepath.Abs(filepath.Dir(path)); err != nil {
		return nil, err
	}
	if err := plan.validate(); err != nil {
		return nil, fmt.Errorf("plan %s: %w", path, err)
	}
	return &plan, nil
}

// Dir returns the absolute directory holding the plan file. Relative
// paths in the plan are relative to it.
func (p *Plan) Dir() string {
	return p.dir
}

// Stack returns the package database stack the plan reads from and
// registers into.
func (p *Plan) Stack() (pkgdb.Stack, error) {
	toks := p.PackageDBs
	if len(toks) == 0 {
		toks = []string{"global", DefaultPackageDB}
	}
	return pkgdb.ParseStack(fspath.Pkg, toks)
}

// Package returns the package named name.
func (p *Plan) Package(name string) (*Package, bool) {
	for i := range p.Packages {
		if p.Packages[i].Name == name {
			return &p.Packages[i], true
		}
	}
	return nil, false
}

func (p *Plan) validate() error {
	if len(p.Packages) == 0 {
		return fmt.Errorf("no packages")
	}
	if p.Jobs < 0 {
		return fmt.Errorf("jobs must not be negative, got %d", p.Jobs)
	}
	seen := make(map[string]bool)
	for i := range p.Packages {
		pkg := &p.Packages[i]
		if pkg.Name == "" {
			return fmt.Errorf("packages[%d]: missing name", i)
		}
		if seen[pkg.Name] {
			return fmt.Errorf("duplicate package %s", pkg.Name)
		}
		seen[pkg.Name] = true
		if _, err := compiler.ParseVersion(pkg.Version); err != nil {
			return fmt.Errorf("package %s: %w", pkg.Name, err)
		}
		if len(pkg.Modules) == 0 {
			return fmt.Errorf("package %s: no modules", pkg.Name)
		}
	}
	for _, pkg := range p.Packages {
		for _, dep := range pkg.Depends {
			if !seen[dep] {
				return fmt.Errorf("package %s: unknown dependency %s", pkg.Name, dep)
			}
		}
	}
	if cycle := p.findCycle(); cycle != nil {
		return fmt.Errorf("dependency cycle: %s", strings.Join(cycle, " -> "))
	}
	return nil
}

// findCycle returns the packages on a dependency cycle, first package
// repeated at the end, or nil.
func (p *Plan) findCycle() []string {
	const (
		unvisited = iota
		visiting
		done
	)
	state := make(map[string]int)
	var stack []string
	var visit func(name string) []string
	visit = func(name string) []string {
		switch state[name] {
		case visiting:
			i := slices.Index(stack, name)
			return append(slices.Clone(stack[i:]), name)
		case done:
			return nil
		}
		state[name] = visiting
		stack = append(stack, name)
		pkg, _ := p.Package(name)
		for _, dep := range pkg.Depends {
			if cycle := visit(dep); cycle != nil {
				return cycle
			}
		}
		stack = stack[:len(stack)-1]
		state[name] = done
		return nil
	}
	for _, pkg := range p.Packages {
		if cycle := visit(pkg.Name); cycle != nil {
			return cycle
		}
	}
	return nil
}
