// Package probe builds a compiler description by asking a compiler
// executable about itself.
package probe

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/goplus/hsbuild/pkgs/compiler"
	"github.com/qiniu/x/log"
)

// Error reports a failed compiler invocation.
type Error struct {
	Cmd    string
	Args   []string
	Stderr string
	Err    error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s %s: %v", e.Cmd, strings.Join(e.Args, " "), e.Err)
	if e.Stderr != "" {
		msg += ": " + e.Stderr
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Prober runs a compiler executable to discover its capabilities.
type Prober struct {
	path string
	run  func(ctx context.Context, name string, args ...string) (string, error)
}

// Option configures a Prober.
type Option func(*Prober)

// WithRunner replaces process execution, mainly for tests.
func WithRunner(run func(ctx context.Context, name string, args ...string) (string, error)) Option {
	return func(p *Prober) {
		p.run = run
	}
}

// New returns a Prober for the compiler at path.
func New(path string, opts ...Option) *Prober {
	p := &Prober{path: path, run: output}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Path returns the compiler executable being probed.
func (p *Prober) Path() string {
	return p.path
}

// Probe queries the compiler's version, info table and supported
// languages, and assembles them into a Compiler.
func (p *Prober) Probe(ctx context.Context) (*compiler.Compiler, error) {
	out, err := p.run(ctx, p.path, "--numeric-version")
	if err != nil {
		return nil, err
	}
	version, err := compiler.ParseVersion(strings.TrimSpace(out))
	if err != nil {
		return nil, fmt.Errorf("probe %s: %w", p.path, err)
	}

	out, err = p.run(ctx, p.path, "--info")
	if err != nil {
		return nil, err
	}
	props, err := parseInfo(out)
	if err != nil {
		return nil, fmt.Errorf("probe %s: %w", p.path, err)
	}

	out, err = p.run(ctx, p.path, "--supported-languages")
	if err != nil {
		return nil, err
	}
	langs, exts := parseSupported(out)

	id := compiler.ID{Flavor: compiler.GHC, Version: version}
	var compat []compiler.ID
	if strings.Contains(props["Project name"], "GHCJS") {
		id.Flavor = compiler.GHCJS
		if v, err := compiler.ParseVersion(props["GHC version"]); err == nil {
			compat = append(compat, compiler.ID{Flavor: compiler.GHC, Version: v})
		}
	}

	c := compiler.New(id, compiler.Options{
		AbiTag:     abiTag(props["Project Unit Id"], version),
		Compat:     compat,
		Languages:  langs,
		Extensions: exts,
		Properties: props,
	})
	log.Debugf("probed %s: %s (%d languages, %d extensions)", p.path, c.ShowIDWithABI(), len(langs), len(exts))
	return c, nil
}

// parseSupported splits "--supported-languages" output, one name per line,
// into language standards and extensions. Each maps to its -X flag.
func parseSupported(out string) (map[compiler.Language]string, map[compiler.Extension]compiler.OptionalFlag) {
	known := make(map[string]compiler.Language)
	for _, lang := range compiler.KnownLanguages() {
		known[lang.String()] = lang
	}
	langs := make(map[compiler.Language]string)
	exts := make(map[compiler.Extension]compiler.OptionalFlag)
	for _, line := range strings.Split(out, "\n") {
		name := strings.TrimSpace(line)
		if name == "" {
			continue
		}
		if lang, ok := known[name]; ok {
			langs[lang] = "-X" + name
			continue
		}
		if rest, ok := strings.CutPrefix(name, "No"); ok && known[rest] != "" {
			continue
		}
		exts[compiler.ParseExtension(name)] = compiler.FlagOf("-X" + name)
	}
	return langs, exts
}

// abiTag extracts the ABI tag from a unit id of the form
// "ghc-<version>-<tag>".
func abiTag(unitID string, version compiler.Version) string {
	rest, ok := strings.CutPrefix(unitID, "ghc-"+string(version))
	if !ok {
		return ""
	}
	return strings.TrimPrefix(rest, "-")
}

func output(ctx context.Context, name string, args ...string) (string, error) {
	log.Debugf("run %s %s", name, strings.Join(args, " "))
	cmd := exec.CommandContext(ctx, name, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", &Error{Cmd: name, Args: args, Stderr: strings.TrimSpace(stderr.String()), Err: err}
	}
	return stdout.String(), nil
}
