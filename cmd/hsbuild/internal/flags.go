package internal

import (
	"fmt"
	"strings"

	"github.com/goplus/hsbuild/internal/config"
	"github.com/goplus/hsbuild/pkgs/compiler"
	"github.com/goplus/hsbuild/pkgs/pkgdb"
	"github.com/qiniu/x/log"
	"github.com/spf13/cobra"
)

var (
	flagsNoPackageDBs bool
	flagsProfiling    bool
)

var flagsCmd = &cobra.Command{
	Use:   "flags",
	Short: "Print the compiler flags for the project",
	Long: `Flags prints the compiler arguments selecting the project's language,
extensions, optimisation, debug info and profiling levels, and package
databases. Unsupported languages and extensions are reported and left out.`,
	Args: cobra.NoArgs,
	RunE: runFlags,
}

func init() {
	flagsCmd.Flags().BoolVar(&flagsNoPackageDBs, "no-package-dbs", false, "Leave out package database arguments")
	flagsCmd.Flags().BoolVarP(&flagsProfiling, "profiling", "p", false, "Add -prof and the profiling detail flags")
	addPackageDBFlag(flagsCmd)
	rootCmd.AddCommand(flagsCmd)
}

func runFlags(cmd *cobra.Command, args []string) error {
	cfg, err := loadProject()
	if err != nil {
		return err
	}
	comp, _, err := loadCompiler(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	warnUnsupported(cfg, comp)
	flags, err := ghcFlags(cfg, comp, !flagsNoPackageDBs, flagsProfiling)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), strings.Join(flags, " "))
	return nil
}

// ghcFlags returns the compiler arguments for the project. Profiling is
// dropped with a warning when comp is known to lack profiled libraries.
func ghcFlags(cfg *config.Config, comp *compiler.Compiler, withDBs, profiling bool) ([]string, error) {
	levels, err := cfg.Levels()
	if err != nil {
		return nil, err
	}
	var flags []string
	flags = append(flags, compiler.LanguageToFlags(comp, cfg.Lang())...)
	flags = append(flags, compiler.ExtensionsToFlags(comp, cfg.Exts())...)
	flags = append(flags, levels.Flags(comp)...)
	if profiling && !comp.ProfilingVanillaSupportedOrUnknown() {
		log.Warnf("%s does not support profiling, leaving out -prof", comp.ShowID())
		profiling = false
	}
	if profiling {
		flags = append(flags, "-prof")
		flags = append(flags, levels.ProfFlags(comp)...)
	}
	if !withDBs {
		return flags, nil
	}
	stack, err := projectStack(cfg)
	if err != nil {
		return nil, err
	}
	dbArgs, err := pkgdb.GHCArgs(comp, pkgdb.InterpretStack(cfg.Root(), stack))
	if err != nil {
		return nil, err
	}
	return append(flags, dbArgs...), nil
}
