package internal

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/goplus/hsbuild/pkgs/compiler"
	"github.com/goplus/hsbuild/pkgs/pkgdb"
	"github.com/spf13/cobra"
)

var (
	pkgdbAbsolute bool
	pkgdbFormat   string
	pkgdbTarget   bool
)

var pkgdbCmd = &cobra.Command{
	Use:   "pkgdb",
	Short: "Show the project's package database stack",
	Long: `Pkgdb prints the package database stack of the project, bottom first,
in one of several forms:

  build   --package-db flags for the build tool (default)
  hc-pkg  database flags for the package manager
  ghc     package database arguments for the compiler
  json    the stack as JSON

With --target only the database packages are registered into is shown.`,
	Args: cobra.NoArgs,
	RunE: runPkgdb,
}

func init() {
	pkgdbCmd.Flags().BoolVarP(&pkgdbAbsolute, "absolute", "a", false, "Canonicalise database paths; they must exist")
	pkgdbCmd.Flags().StringVarP(&pkgdbFormat, "format", "f", "build", "Output form: build, hc-pkg, ghc or json")
	pkgdbCmd.Flags().BoolVar(&pkgdbTarget, "target", false, "Show only the registration database")
	addPackageDBFlag(pkgdbCmd)
	rootCmd.AddCommand(pkgdbCmd)
}

func runPkgdb(cmd *cobra.Command, args []string) error {
	cfg, err := loadProject()
	if err != nil {
		return err
	}
	stack, err := projectStack(cfg)
	if err != nil {
		return err
	}
	if pkgdbAbsolute {
		if stack, err = pkgdb.AbsolutePaths(cfg.Root(), stack); err != nil {
			return err
		}
	}
	if pkgdbTarget {
		fmt.Fprintln(cmd.OutOrStdout(), pkgdb.Interpret(cfg.Root(), stack.RegistrationDB()))
		return nil
	}

	var comp *compiler.Compiler
	if pkgdbFormat == "hc-pkg" || pkgdbFormat == "ghc" {
		if comp, _, err = loadCompiler(cmd.Context(), cfg); err != nil {
			return err
		}
	}
	return writeStack(cmd.OutOrStdout(), pkgdbFormat, comp, cfg.Root(), stack)
}

// writeStack prints stack in format, one argument per line. comp is only
// consulted by the compiler-specific formats.
func writeStack(w io.Writer, format string, comp *compiler.Compiler, root string, stack pkgdb.Stack) error {
	var lines []string
	switch format {
	case "build":
		lines = pkgdb.Flags(pkgdb.InterpretStack(root, stack))
	case "hc-pkg":
		var err error
		if lines, err = pkgdb.HcPkgStackArgs(comp, pkgdb.InterpretStack(root, stack)); err != nil {
			return err
		}
	case "ghc":
		var err error
		if lines, err = pkgdb.GHCArgs(comp, pkgdb.InterpretStack(root, stack)); err != nil {
			return err
		}
	case "json":
		data, err := json.MarshalIndent(stack, "", "  ")
		if err != nil {
			return err
		}
		lines = []string{string(data)}
	default:
		return fmt.Errorf("unknown format %q", format)
	}
	for _, l := range lines {
		fmt.Fprintln(w, l)
	}
	return nil
}
