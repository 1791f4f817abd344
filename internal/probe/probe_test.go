package probe

import (
	"context"
	"errors"
	"os/exec"
	"reflect"
	"strings"
	"testing"

	"github.com/goplus/hsbuild/pkgs/compiler"
)

const sampleInfo = ` [("Project name","The Glorious Glasgow Haskell Compilation System")
 ,("Project version","9.10.1")
 ,("Project Unit Id","ghc-9.10.1-6ce0")
 ,("Support parallel --make","YES")
 ,("Uses unit IDs","YES")
 ,("RTS ways","v thr dyn p")
 ,("C compiler flags","-fno-stack-protector \"quoted\"\tx")
 ]
`

const sampleLanguages = `Haskell98
NoHaskell98
Haskell2010
GHC2021
GHC2024
OverloadedStrings
NoOverloadedStrings
CPP
`

func fakeRunner(t *testing.T, outputs map[string]string) func(context.Context, string, ...string) (string, error) {
	return func(ctx context.Context, name string, args ...string) (string, error) {
		key := strings.Join(args, " ")
		out, ok := outputs[key]
		if !ok {
			t.Fatalf("unexpected invocation %s %s", name, key)
		}
		return out, nil
	}
}

func TestProbe(t *testing.T) {
	p := New("ghc", WithRunner(fakeRunner(t, map[string]string{
		"--numeric-version":     "9.10.1\n",
		"--info":                sampleInfo,
		"--supported-languages": sampleLanguages,
	})))
	c, err := p.Probe(context.Background())
	if err != nil {
		t.Fatalf("Probe: %v", err)
	}

	if got := c.ShowIDWithABI(); got != "ghc-9.10.1-6ce0" {
		t.Errorf("ShowIDWithABI() = %q", got)
	}
	if !c.Has(compiler.ParallelMake) || !c.Has(compiler.UnitIDs) || c.Has(compiler.Backpack) {
		t.Error("capabilities not read from --info")
	}
	if c.ProfilingVanillaSupported() != compiler.Yes || c.ProfilingDynamicSupported() != compiler.No {
		t.Error("ways not read from --info")
	}
	if v, _ := c.Property("C compiler flags"); v != "-fno-stack-protector \"quoted\"\tx" {
		t.Errorf("escaped property = %q", v)
	}

	wantLangs := map[compiler.Language]string{
		compiler.Haskell98:   "-XHaskell98",
		compiler.Haskell2010: "-XHaskell2010",
		compiler.GHC2021:     "-XGHC2021",
		compiler.GHC2024:     "-XGHC2024",
	}
	if got := c.Languages(); !reflect.DeepEqual(got, wantLangs) {
		t.Errorf("Languages() = %v, want %v", got, wantLangs)
	}
	flags := compiler.ExtensionsToFlags(c, []compiler.Extension{
		compiler.ParseExtension("NoOverloadedStrings"),
		compiler.ParseExtension("CPP"),
	})
	if want := []string{"-XNoOverloadedStrings", "-XCPP"}; !reflect.DeepEqual(flags, want) {
		t.Errorf("ExtensionsToFlags = %q, want %q", flags, want)
	}
}

func TestProbeGHCJS(t *testing.T) {
	info := `[("Project name","The Glorious Glasgow Haskell Compilation System for JavaScript"),("GHC version","8.6.5")]`
	p := New("ghcjs", WithRunner(fakeRunner(t, map[string]string{
		"--numeric-version":     "8.6.0.1",
		"--info":                info,
		"--supported-languages": "",
	})))
	c, err := p.Probe(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if c.Flavor() != compiler.GHCJS {
		t.Fatalf("Flavor() = %s, want ghcjs", c.Flavor())
	}
	if v, ok := c.CompatVersion(compiler.GHC); !ok || v != "8.6.5" {
		t.Fatalf("CompatVersion(ghc) = %q, %v", v, ok)
	}
}

func TestProbeErrors(t *testing.T) {
	failing := errors.New("boom")
	p := New("ghc", WithRunner(func(ctx context.Context, name string, args ...string) (string, error) {
		return "", failing
	}))
	if _, err := p.Probe(context.Background()); !errors.Is(err, failing) {
		t.Fatalf("Probe error = %v, want %v", err, failing)
	}

	p = New("ghc", WithRunner(fakeRunner(t, map[string]string{
		"--numeric-version": "not a version",
	})))
	if _, err := p.Probe(context.Background()); err == nil {
		t.Fatal("Probe accepted a malformed version")
	}
}

func TestParseInfo(t *testing.T) {
	tests := []struct {
		in   string
		want map[string]string
	}{
		{"[]", map[string]string{}},
		{`[("a","b")]`, map[string]string{"a": "b"}},
		{`[("esc","\65\x42\o103\&1\^A\SOH\SO\\")]`, map[string]string{"esc": "ABC1\x01\x01\x0e\\"}},
		{"[(\"gap\",\"a\\   \n  \\b\")]", map[string]string{"gap": "ab"}},
	}
	for _, tt := range tests {
		got, err := parseInfo(tt.in)
		if err != nil {
			t.Errorf("parseInfo(%q): %v", tt.in, err)
			continue
		}
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("parseInfo(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}

	for _, bad := range []string{"", "[", `[("a")]`, `[("a","b"`, `[("a","b")] x`, `[("a","\q")]`} {
		if _, err := parseInfo(bad); err == nil {
			t.Errorf("parseInfo(%q) succeeded", bad)
		}
	}
}

func TestProbeRealCompiler(t *testing.T) {
	path, err := exec.LookPath("ghc")
	if err != nil {
		t.Skip("ghc not found in PATH")
	}
	c, err := New(path).Probe(context.Background())
	if err != nil {
		t.Fatalf("Probe: %v", err)
	}
	if c.Flavor() != compiler.GHC {
		t.Errorf("Flavor() = %s", c.Flavor())
	}
	if len(compiler.LanguageToFlags(c, compiler.Haskell2010)) != 1 {
		t.Error("Haskell2010 not supported by a real ghc")
	}
}
