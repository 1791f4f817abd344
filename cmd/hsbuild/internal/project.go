package internal

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/goplus/hsbuild/internal/cache"
	"github.com/goplus/hsbuild/internal/config"
	"github.com/goplus/hsbuild/internal/probe"
	"github.com/goplus/hsbuild/pkgs/compiler"
	"github.com/goplus/hsbuild/pkgs/fspath"
	"github.com/goplus/hsbuild/pkgs/pkgdb"
	"github.com/qiniu/x/log"
	"github.com/spf13/cobra"
)

// packageDBs holds the --package-db values of the running command.
var packageDBs []string

func addPackageDBFlag(cmd *cobra.Command) {
	cmd.Flags().StringArrayVar(&packageDBs, "package-db", nil,
		`Database to stack on top of the global one: "global", "user", "clear" or a path (repeatable; replaces the project's package-dbs)`)
}

// flagStack returns the stack named by values, or nil when values is
// empty. Paths are relative to the working directory.
func flagStack(values []string) (pkgdb.Stack, error) {
	if len(values) == 0 {
		return nil, nil
	}
	toks := make([]string, len(values))
	for i, v := range values {
		switch v {
		case "":
			return nil, errors.New("--package-db: empty database")
		case "global", "user", "clear":
			toks[i] = v
			continue
		}
		abs, err := filepath.Abs(v)
		if err != nil {
			return nil, err
		}
		toks[i] = abs
	}
	s := pkgdb.FromFlags(false, fspath.CWD, toks)
	if len(s) == 0 {
		return nil, errors.New("--package-db: no databases left after clear")
	}
	return s, nil
}

// projectStack returns the stack given on the command line, falling back
// to the project's package-dbs.
func projectStack(cfg *config.Config) (pkgdb.Stack, error) {
	s, err := flagStack(packageDBs)
	if err != nil || s != nil {
		return s, err
	}
	return cfg.Stack()
}

// loadProject loads the project file named by --config, or the nearest
// hsbuild.yaml. Without one, the working directory is a project with
// default settings.
func loadProject() (*config.Config, error) {
	if rootConfig != "" {
		return config.Load(rootConfig)
	}
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	path, err := config.Find(wd)
	if errors.Is(err, fs.ErrNotExist) {
		log.Debugf("no %s found, using defaults", config.FileName)
		return config.Default(wd), nil
	}
	if err != nil {
		return nil, err
	}
	log.Debugf("using project file %s", path)
	return config.Load(path)
}

// lookCompiler returns the absolute path of the project's compiler.
func lookCompiler(cfg *config.Config) (string, error) {
	path, err := exec.LookPath(cfg.CompilerPath())
	if err != nil {
		return "", fmt.Errorf("failed to find compiler: %w", err)
	}
	return filepath.Abs(path)
}

// loadCompiler returns the description of the project's compiler, probing
// it unless a cached description matches the executable.
func loadCompiler(ctx context.Context, cfg *config.Config) (*compiler.Compiler, string, error) {
	path, err := lookCompiler(cfg)
	if err != nil {
		return nil, "", err
	}
	c, err := cache.Default()
	if err != nil {
		return nil, "", fmt.Errorf("failed to open compiler cache: %w", err)
	}
	comp, err := c.Get(ctx, path, probeCompiler)
	if err != nil {
		return nil, "", err
	}
	return comp, path, nil
}

func probeCompiler(ctx context.Context, path string) (*compiler.Compiler, error) {
	return probe.New(path).Probe(ctx)
}

// warnUnsupported logs the project's language and extensions that comp
// does not support. Flag computation silently drops them.
func warnUnsupported(cfg *config.Config, comp *compiler.Compiler) {
	if !comp.Flavor().Known() {
		log.Warnf("unrecognised compiler flavor %s", comp.Flavor())
	}
	if lang := cfg.Lang(); !lang.Known() {
		log.Warnf("unrecognised language %s", lang)
	}
	for _, l := range compiler.UnsupportedLanguages(comp, []compiler.Language{cfg.Lang()}) {
		log.Warnf("%s does not support language %s", comp.ShowID(), l)
	}
	for _, e := range compiler.UnsupportedExtensions(comp, cfg.Exts()) {
		log.Warnf("%s does not support extension %s", comp.ShowID(), e)
	}
}
