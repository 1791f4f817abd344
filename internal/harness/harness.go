// Package harness builds and registers the packages of a plan against a
// real compiler and package database stack, to exercise the whole flag
// and database pipeline end to end.
package harness

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"sync"

	"github.com/goplus/hsbuild/internal/config"
	"github.com/goplus/hsbuild/internal/lockedfile"
	"github.com/goplus/hsbuild/internal/par"
	"github.com/goplus/hsbuild/pkgs/compiler"
	"github.com/goplus/hsbuild/pkgs/pkgdb"
	"github.com/qiniu/x/log"
)

// BuildDirName is the directory, next to the plan, that holds build
// products and generated package descriptions.
const BuildDirName = "dist-hsbuild"

// UnsupportedError reports a package asking for a language or extensions
// the compiler does not support.
type UnsupportedError struct {
	Package    string
	Compiler   string
	Languages  []compiler.Language
	Extensions []compiler.Extension
}

func (e *UnsupportedError) Error() string {
	var parts []string
	for _, l := range e.Languages {
		parts = append(parts, "language "+l.String())
	}
	for _, x := range e.Extensions {
		parts = append(parts, "extension "+x.String())
	}
	return fmt.Sprintf("package %s: %s does not support %s", e.Package, e.Compiler, strings.Join(parts, ", "))
}

// Status is the outcome of one package.
type Status int

const (
	Skipped Status = iota
	Registered
	Failed
)

func (s Status) String() string {
	switch s {
	case Registered:
		return "registered"
	case Failed:
		return "failed"
	}
	return "skipped"
}

// Result is the outcome of one package of a run.
type Result struct {
	Package string
	Status  Status
	Err     error
}

// Harness drives a compiler and its package manager over a plan.
type Harness struct {
	Compiler *compiler.Compiler
	GHC      string
	HcPkg    string
	Levels   config.Levels
	Runner   Runner
	// PackageDBs replaces the plan's database stack when non-nil.
	PackageDBs pkgdb.Stack
}

func (h *Harness) runner() Runner {
	if h.Runner == nil {
		return ExecRunner{}
	}
	return h.Runner
}

// run is the state of one Harness.Run.
type run struct {
	h        *Harness
	plan     *Plan
	stack    pkgdb.StackCWD
	buildDir string
	lock     *lockedfile.Mutex

	mu         sync.Mutex
	waiting    map[string]int
	dependents map[string][]string
	results    map[string]*Result
}

// Run configures, builds and registers every package of plan, each after
// the packages it depends on. Independent packages run concurrently. The
// returned results follow plan order; packages whose dependencies failed
// are reported as skipped.
func (h *Harness) Run(ctx context.Context, plan *Plan) ([]Result, error) {
	if h.Compiler == nil {
		panic("harness: compiler is not set")
	}
	symbolic := h.PackageDBs
	if symbolic == nil {
		var err error
		if symbolic, err = plan.Stack(); err != nil {
			return nil, err
		}
	}
	if len(symbolic) == 0 {
		return nil, errors.New("harness: empty package db stack")
	}
	r := &run{
		h:          h,
		plan:       plan,
		stack:      pkgdb.InterpretStack(plan.Dir(), symbolic),
		buildDir:   filepath.Join(plan.Dir(), BuildDirName),
		waiting:    make(map[string]int),
		dependents: make(map[string][]string),
		results:    make(map[string]*Result),
	}
	if err := os.MkdirAll(r.buildDir, 0o755); err != nil {
		return nil, err
	}
	r.lock = lockedfile.MutexAt(filepath.Join(r.buildDir, ".register.lock"))
	if err := r.initDB(ctx); err != nil {
		return nil, err
	}

	var w par.Work[string]
	for _, pkg := range plan.Packages {
		r.results[pkg.Name] = &Result{Package: pkg.Name}
		r.waiting[pkg.Name] = len(pkg.Depends)
		for _, dep := range pkg.Depends {
			r.dependents[dep] = append(r.dependents[dep], pkg.Name)
		}
		if len(pkg.Depends) == 0 {
			w.Add(pkg.Name)
		}
	}

	jobs := plan.Jobs
	if jobs == 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	w.Do(jobs, func(name string) {
		err := r.do(ctx, name)

		r.mu.Lock()
		defer r.mu.Unlock()
		res := r.results[name]
		if err != nil {
			res.Status, res.Err = Failed, err
			log.Errorf("%s: %v", name, err)
			return
		}
		res.Status = Registered
		log.Infof("%s: registered", name)
		for _, d := range r.dependents[name] {
			if r.waiting[d]--; r.waiting[d] == 0 {
				w.Add(d)
			}
		}
	})

	results := make([]Result, 0, len(plan.Packages))
	var errs []error
	for _, pkg := range plan.Packages {
		res := *r.results[pkg.Name]
		if res.Err != nil {
			errs = append(errs, res.Err)
		}
		results = append(results, res)
	}
	return results, errors.Join(errs...)
}

// initDB creates the registration database if it is a directory that does
// not exist yet.
func (r *run) initDB(ctx context.Context) error {
	target := r.stack.RegistrationDB()
	path, ok := target.Path()
	if !ok {
		return nil
	}
	if _, err := os.Stat(path.String()); err == nil {
		return nil
	}
	log.Infof("creating package database %s", path)
	return r.h.runner().Run(ctx, r.plan.Dir(), r.h.HcPkg, "init", path.String())
}

func (r *run) do(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	pkg, _ := r.plan.Package(name)
	if err := r.configure(pkg); err != nil {
		return err
	}
	if err := r.build(ctx, pkg); err != nil {
		return fmt.Errorf("build %s: %w", pkg.ID(), err)
	}
	if err := r.register(ctx, pkg); err != nil {
		return fmt.Errorf("register %s: %w", pkg.ID(), err)
	}
	return nil
}

// configure fails if the compiler cannot honour the package's language or
// extensions.
func (r *run) configure(pkg *Package) error {
	c := r.h.Compiler
	langs := compiler.UnsupportedLanguages(c, []compiler.Language{pkg.Lang()})
	exts := compiler.UnsupportedExtensions(c, pkg.Exts())
	if len(langs) > 0 || len(exts) > 0 {
		return &UnsupportedError{
			Package:    pkg.Name,
			Compiler:   c.ShowID(),
			Languages:  langs,
			Extensions: exts,
		}
	}
	return nil
}

func (r *run) outDir(pkg *Package) string {
	return filepath.Join(r.buildDir, pkg.ID())
}

func (r *run) srcDir(pkg *Package) string {
	if filepath.IsAbs(pkg.Dir) {
		return pkg.Dir
	}
	return filepath.Join(r.plan.Dir(), pkg.Dir)
}

// wayFlags returns the flags for the ways requested by the plan that the
// compiler may support.
func (r *run) wayFlags() []string {
	c := r.h.Compiler
	prof := r.plan.Profiling
	if prof && !c.ProfilingVanillaSupportedOrUnknown() {
		log.Warnf("%s does not support profiling, building without it", c.ShowID())
		prof = false
	}
	dyn := r.plan.Dynamic
	if dyn && !c.DynamicSupportedOrUnknown() {
		log.Warnf("%s does not support dynamic linking, building statically", c.ShowID())
		dyn = false
	}
	if prof && dyn && !c.ProfilingDynamicSupportedOrUnknown() {
		log.Warnf("%s does not support profiled dynamic code, building statically", c.ShowID())
		dyn = false
	}
	var flags []string
	if prof {
		flags = append(flags, "-prof")
	}
	if dyn {
		flags = append(flags, "-dynamic")
	}
	return flags
}

// buildArgs returns the compiler arguments building pkg.
func (r *run) buildArgs(pkg *Package) ([]string, error) {
	c := r.h.Compiler
	dbArgs, err := pkgdb.GHCArgs(c, r.stack)
	if err != nil {
		return nil, err
	}
	out := r.outDir(pkg)
	args := []string{
		"--make", "-no-link",
		"-this-unit-id", pkg.ID(),
		"-outputdir", out,
		"-hidir", out,
		"-i" + r.srcDir(pkg),
	}
	args = append(args, compiler.LanguageToFlags(c, pkg.Lang())...)
	args = append(args, compiler.ExtensionsToFlags(c, pkg.Exts())...)
	args = append(args, r.h.Levels.Flags(c)...)
	ways := r.wayFlags()
	args = append(args, ways...)
	if slices.Contains(ways, "-prof") {
		args = append(args, r.h.Levels.ProfFlags(c)...)
	}
	args = append(args, dbArgs...)
	args = append(args, "-hide-all-packages", "-package", "base")
	for _, dep := range pkg.Depends {
		d, _ := r.plan.Package(dep)
		args = append(args, "-package-id", d.ID())
	}
	return append(args, pkg.Modules...), nil
}

func (r *run) build(ctx context.Context, pkg *Package) error {
	args, err := r.buildArgs(pkg)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(r.outDir(pkg), 0o755); err != nil {
		return err
	}
	log.Infof("%s: building %d modules with %s", pkg.Name, len(pkg.Modules), r.h.Compiler.ShowID())
	return r.h.runner().Run(ctx, r.srcDir(pkg), r.h.GHC, args...)
}

// packageDescription renders the installed package description for pkg.
func (r *run) packageDescription(pkg *Package) (string, error) {
	out, err := filepath.Abs(r.outDir(pkg))
	if err != nil {
		return "", err
	}
	var b strings.Builder
	fmt.Fprintf(&b, "name: %s\n", pkg.Name)
	fmt.Fprintf(&b, "version: %s\n", pkg.Version)
	fmt.Fprintf(&b, "id: %s\n", pkg.ID())
	fmt.Fprintf(&b, "key: %s\n", pkg.ID())
	fmt.Fprintf(&b, "exposed: True\n")
	fmt.Fprintf(&b, "exposed-modules: %s\n", strings.Join(pkg.Modules, " "))
	fmt.Fprintf(&b, "import-dirs: %s\n", out)
	depends := []string{}
	for _, dep := range pkg.Depends {
		d, _ := r.plan.Package(dep)
		depends = append(depends, d.ID())
	}
	if len(depends) > 0 {
		fmt.Fprintf(&b, "depends: %s\n", strings.Join(depends, " "))
	}
	return b.String(), nil
}

func (r *run) register(ctx context.Context, pkg *Package) error {
	desc, err := r.packageDescription(pkg)
	if err != nil {
		return err
	}
	conf := filepath.Join(r.buildDir, pkg.ID()+".conf")
	if err := os.WriteFile(conf, []byte(desc), 0o644); err != nil {
		return err
	}
	stackArgs, err := pkgdb.HcPkgStackArgs(r.h.Compiler, r.stack)
	if err != nil {
		return err
	}
	args := append([]string{"register", "--force"}, stackArgs...)
	args = append(args, conf)

	unlock, err := r.lock.Lock()
	if err != nil {
		return err
	}
	defer unlock()
	log.Debugf("%s: registering into %s", pkg.Name, r.stack.RegistrationDB())
	return r.h.runner().Run(ctx, r.plan.Dir(), r.h.HcPkg, args...)
}
