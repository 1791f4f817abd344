package harness

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"slices"
	"strings"
	"sync"
	"testing"

	"github.com/goplus/hsbuild/internal/config"
	"github.com/goplus/hsbuild/pkgs/compiler"
	"github.com/goplus/hsbuild/pkgs/fspath"
	"github.com/goplus/hsbuild/pkgs/pkgdb"
)

type call struct {
	dir  string
	name string
	args []string
}

// fakeRunner records invocations and fails the build of the unit ids in
// failBuild.
type fakeRunner struct {
	mu        sync.Mutex
	calls     []call
	failBuild map[string]bool
}

func (f *fakeRunner) Run(ctx context.Context, dir, name string, args ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call{dir: dir, name: name, args: args})
	if i := slices.Index(args, "-this-unit-id"); i >= 0 && f.failBuild[args[i+1]] {
		return errors.New("compile error")
	}
	return nil
}

// index returns the position of the first call made by program name whose
// arguments contain arg, or -1.
func (f *fakeRunner) index(name, arg string) int {
	for i, c := range f.calls {
		if c.name == name && slices.Contains(c.args, arg) {
			return i
		}
	}
	return -1
}

func testCompiler(version, ways string) *compiler.Compiler {
	return compiler.New(compiler.ID{Flavor: compiler.GHC, Version: compiler.MustParseVersion(version)}, compiler.Options{
		Languages: map[compiler.Language]string{
			compiler.Haskell98:   "-XHaskell98",
			compiler.Haskell2010: "-XHaskell2010",
		},
		Extensions: map[compiler.Extension]compiler.OptionalFlag{
			compiler.EnableExtension("OverloadedStrings"): compiler.FlagOf("-XOverloadedStrings"),
			compiler.EnableExtension("CPP"):               compiler.FlagOf("-XCPP"),
		},
		Properties: map[string]string{"RTS ways": ways},
	})
}

func writePlan(t *testing.T, content string) *Plan {
	t.Helper()
	path := filepath.Join(t.TempDir(), "plan.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write plan: %v", err)
	}
	plan, err := LoadPlan(path)
	if err != nil {
		t.Fatalf("LoadPlan: %v", err)
	}
	return plan
}

const chainPlan = `
jobs: 4
packages:
  - name: base-extra
    version: "1.0"
    dir: base-extra
    modules: [Data.Extra]
  - name: mid
    version: 0.2.1
    dir: mid
    modules: [Mid]
    language: Haskell2010
    extensions: [OverloadedStrings]
    depends: [base-extra]
  - name: top
    version: "3"
    dir: top
    modules: [Top.A, Top.B]
    depends: [mid, base-extra]
  - name: lone
    version: "1"
    dir: lone
    modules: [Lone]
`

func TestRunOrdersDependencies(t *testing.T) {
	plan := writePlan(t, chainPlan)
	runner := &fakeRunner{}
	h := &Harness{Compiler: testCompiler("9.10.1", "v"), GHC: "ghc", HcPkg: "ghc-pkg", Runner: runner}

	results, err := h.Run(context.Background(), plan)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	for _, res := range results {
		if res.Status != Registered {
			t.Errorf("%s: status %s, want registered", res.Package, res.Status)
		}
	}
	if got := []string{results[0].Package, results[3].Package}; !reflect.DeepEqual(got, []string{"base-extra", "lone"}) {
		t.Errorf("results not in plan order: %v", results)
	}

	if runner.index("ghc-pkg", "init") != 0 {
		t.Error("registration database not initialised first")
	}
	order := []struct{ dep, pkg string }{
		{"base-extra-1.0", "mid-0.2.1"},
		{"mid-0.2.1", "top-3"},
		{"base-extra-1.0", "top-3"},
	}
	for _, o := range order {
		reg := runner.index("ghc-pkg", filepath.Join(plan.Dir(), BuildDirName, o.dep+".conf"))
		build := runner.index("ghc", o.pkg)
		if reg < 0 || build < 0 || reg > build {
			t.Errorf("%s registered at %d, %s built at %d", o.dep, reg, o.pkg, build)
		}
	}

	conf, err := os.ReadFile(filepath.Join(plan.Dir(), BuildDirName, "top-3.conf"))
	if err != nil {
		t.Fatal(err)
	}
	for _, line := range []string{"name: top\n", "id: top-3\n", "exposed-modules: Top.A Top.B\n", "depends: mid-0.2.1 base-extra-1.0\n"} {
		if !strings.Contains(string(conf), line) {
			t.Errorf("package description missing %q:\n%s", line, conf)
		}
	}
}

func TestRunFailureSkipsDependents(t *testing.T) {
	plan := writePlan(t, chainPlan)
	runner := &fakeRunner{failBuild: map[string]bool{"mid-0.2.1": true}}
	h := &Harness{Compiler: testCompiler("9.10.1", "v"), GHC: "ghc", HcPkg: "ghc-pkg", Runner: runner}

	results, err := h.Run(context.Background(), plan)
	if err == nil {
		t.Fatal("Run succeeded with a failing build")
	}
	want := map[string]Status{"base-extra": Registered, "mid": Failed, "top": Skipped, "lone": Registered}
	for _, res := range results {
		if res.Status != want[res.Package] {
			t.Errorf("%s: status %s, want %s", res.Package, res.Status, want[res.Package])
		}
	}
	if runner.index("ghc", "top-3") >= 0 {
		t.Error("dependent of a failed package was built")
	}
}

func TestRunUnsupportedExtension(t *testing.T) {
	plan := writePlan(t, `
packages:
  - name: th
    version: "1"
    modules: [TH]
    extensions: [TemplateHaskell, CPP]
`)
	runner := &fakeRunner{}
	h := &Harness{Compiler: testCompiler("9.10.1", "v"), GHC: "ghc", HcPkg: "ghc-pkg", Runner: runner}

	_, err := h.Run(context.Background(), plan)
	var uerr *UnsupportedError
	if !errors.As(err, &uerr) {
		t.Fatalf("Run error = %v, want *UnsupportedError", err)
	}
	if want := []compiler.Extension{compiler.EnableExtension("TemplateHaskell")}; !reflect.DeepEqual(uerr.Extensions, want) {
		t.Errorf("unsupported extensions = %v, want %v", uerr.Extensions, want)
	}
	if runner.index("ghc", "th-1") >= 0 {
		t.Error("package with unsupported extensions was built")
	}
}

func TestRunCancelled(t *testing.T) {
	plan := writePlan(t, chainPlan)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	h := &Harness{Compiler: testCompiler("9.10.1", "v"), GHC: "ghc", HcPkg: "ghc-pkg", Runner: &fakeRunner{}}
	if _, err := h.Run(ctx, plan); !errors.Is(err, context.Canceled) {
		t.Fatalf("Run error = %v, want context.Canceled", err)
	}
}

func TestBuildArgs(t *testing.T) {
	plan := writePlan(t, `
package-dbs: [global, user, db]
packages:
  - name: a
    version: "1"
    dir: src
    modules: [A]
  - name: b
    version: "2.0"
    dir: /abs/b
    modules: [B]
    language: Haskell2010
    extensions: [CPP, OverloadedStrings, CPP]
    depends: [a]
`)
	levels := config.Levels{Optimisation: compiler.MaximumOptimisation, DebugInfo: compiler.NoDebugInfo, ProfDetail: compiler.ProfDetailDefault}
	h := &Harness{Compiler: testCompiler("9.10.1", "v"), Levels: levels}
	symbolic, _ := plan.Stack()
	r := &run{h: h, plan: plan, buildDir: filepath.Join(plan.Dir(), BuildDirName)}
	r.stack = pkgdb.InterpretStack(plan.Dir(), symbolic)

	pkg, _ := plan.Package("b")
	args, err := r.buildArgs(pkg)
	if err != nil {
		t.Fatal(err)
	}
	out := filepath.Join(plan.Dir(), BuildDirName, "b-2.0")
	want := []string{
		"--make", "-no-link",
		"-this-unit-id", "b-2.0",
		"-outputdir", out,
		"-hidir", out,
		"-i/abs/b",
		"-XHaskell2010",
		"-XCPP", "-XOverloadedStrings",
		"-O2",
		"-package-db=" + filepath.Join(plan.Dir(), "db"),
		"-hide-all-packages", "-package", "base",
		"-package-id", "a-1",
		"B",
	}
	if !reflect.DeepEqual(args, want) {
		t.Errorf("buildArgs =\n%q\nwant\n%q", args, want)
	}

	pkg, _ = plan.Package("a")
	args, _ = r.buildArgs(pkg)
	if !slices.Contains(args, "-i"+filepath.Join(plan.Dir(), "src")) || !slices.Contains(args, "-XHaskell98") {
		t.Errorf("buildArgs(a) = %q", args)
	}
}

func TestBuildArgsProfDetail(t *testing.T) {
	plan := writePlan(t, `
profiling: true
packages:
  - {name: a, version: "1", modules: [A]}
`)
	pkg, _ := plan.Package("a")
	symbolic, _ := plan.Stack()
	levels := config.Levels{Optimisation: compiler.NormalOptimisation, ProfDetail: compiler.ProfDetailDefault}

	tests := []struct {
		ways string
		want []string
	}{
		{"v p", []string{"-O", "-prof", "-fprof-auto-exported"}},
		{"v", []string{"-O"}},
	}
	for _, tt := range tests {
		r := &run{h: &Harness{Compiler: testCompiler("9.10.1", tt.ways), Levels: levels}, plan: plan}
		r.stack = pkgdb.InterpretStack(plan.Dir(), symbolic)
		args, err := r.buildArgs(pkg)
		if err != nil {
			t.Fatal(err)
		}
		i := slices.Index(args, tt.want[0])
		if i < 0 || !reflect.DeepEqual(args[i:i+len(tt.want)], tt.want) {
			t.Errorf("ways %q: buildArgs = %q, want %q in sequence", tt.ways, args, tt.want)
		}
		if tt.ways == "v" && slices.ContainsFunc(args, func(a string) bool { return strings.HasPrefix(a, "-fprof") }) {
			t.Errorf("ways %q: cost-centre flags without -prof: %q", tt.ways, args)
		}
	}
}

func TestBuildArgsBadStack(t *testing.T) {
	plan := writePlan(t, `
package-dbs: [db, global]
packages:
  - {name: a, version: "1", modules: [A]}
`)
	h := &Harness{Compiler: testCompiler("9.10.1", "v"), GHC: "ghc", HcPkg: "ghc-pkg", Runner: &fakeRunner{}}
	results, err := h.Run(context.Background(), plan)
	if err == nil || results[0].Status != Failed {
		t.Fatalf("Run = %v, %v; want failure from the stack shape", results, err)
	}
}

func TestRunPackageDBsOverride(t *testing.T) {
	plan := writePlan(t, `
packages:
  - {name: a, version: "1", modules: [A]}
`)
	db := filepath.Join(t.TempDir(), "override.d")
	runner := &fakeRunner{}
	h := &Harness{
		Compiler: testCompiler("9.10.1", "v"), GHC: "ghc", HcPkg: "ghc-pkg", Runner: runner,
		PackageDBs: pkgdb.Stack{pkgdb.GlobalDB[fspath.SymbolicPath](), pkgdb.SpecificDB(fspath.New(fspath.CWD, db))},
	}
	if _, err := h.Run(context.Background(), plan); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if i := runner.index("ghc-pkg", "init"); i < 0 || runner.calls[i].args[1] != db {
		t.Errorf("init calls = %v, want %s", runner.calls, db)
	}
	if runner.index("ghc-pkg", "--package-db="+db) < 0 {
		t.Errorf("register did not target %s: %v", db, runner.calls)
	}
	if runner.index("ghc-pkg", filepath.Join(plan.Dir(), DefaultPackageDB)) >= 0 {
		t.Error("plan database used despite override")
	}

	h.PackageDBs = pkgdb.Stack{}
	if _, err := h.Run(context.Background(), plan); err == nil {
		t.Error("Run accepted an empty package db stack")
	}
}

func TestWayFlags(t *testing.T) {
	tests := []struct {
		version, ways string
		prof, dyn     bool
		want          []string
	}{
		{"9.10.1", "v p dyn", true, true, []string{"-prof"}},
		{"9.12.1", "v p dyn p_dyn", true, true, []string{"-prof", "-dynamic"}},
		{"9.10.1", "v", true, false, nil},
		{"9.10.1", "v dyn", false, true, []string{"-dynamic"}},
		{"9.4.8", "", true, false, []string{"-prof"}},
		{"9.4.8", "", true, true, []string{"-prof"}},
	}
	for _, tt := range tests {
		r := &run{
			h:    &Harness{Compiler: testCompiler(tt.version, tt.ways)},
			plan: &Plan{Profiling: tt.prof, Dynamic: tt.dyn},
		}
		if got := r.wayFlags(); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("wayFlags(%s, %q, prof=%v, dyn=%v) = %q, want %q", tt.version, tt.ways, tt.prof, tt.dyn, got, tt.want)
		}
	}
}
