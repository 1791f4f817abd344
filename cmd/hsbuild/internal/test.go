package internal

import (
	"fmt"
	"io"

	"github.com/goplus/hsbuild/internal/harness"
	"github.com/gookit/color"
	"github.com/spf13/cobra"
)

var testJobs int

var testCmd = &cobra.Command{
	Use:   "test [plan.yaml]",
	Short: "Build and register the packages of a plan",
	Long: `Test reads a plan of local packages and, in dependency order, checks
each against the compiler's supported languages and extensions, compiles
it and registers it into the plan's package database stack.`,
	Args: cobra.ExactArgs(1),
	RunE: runTest,
}

func init() {
	testCmd.Flags().IntVarP(&testJobs, "jobs", "j", 0, "Packages to build at once (default: the plan's setting, or the CPU count)")
	addPackageDBFlag(testCmd)
	rootCmd.AddCommand(testCmd)
}

func runTest(cmd *cobra.Command, args []string) error {
	plan, err := harness.LoadPlan(args[0])
	if err != nil {
		return err
	}
	if testJobs > 0 {
		plan.Jobs = testJobs
	}
	cfg, err := loadProject()
	if err != nil {
		return err
	}
	levels, err := cfg.Levels()
	if err != nil {
		return err
	}
	comp, ghc, err := loadCompiler(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	dbs, err := flagStack(packageDBs)
	if err != nil {
		return err
	}

	h := &harness.Harness{
		Compiler: comp,
		GHC:      ghc,
		HcPkg:    cfg.HcPkgPath(ghc),
		Levels:   levels,

		PackageDBs: dbs,
	}
	results, err := h.Run(cmd.Context(), plan)
	writeResults(cmd.OutOrStdout(), results)
	return err
}

// writeResults prints one line per package with its outcome.
func writeResults(w io.Writer, results []harness.Result) {
	var failed int
	for _, res := range results {
		style, label := color.Yellow, "skip"
		switch res.Status {
		case harness.Registered:
			style, label = color.Green, "ok"
		case harness.Failed:
			style, label = color.Red, "FAIL"
			failed++
		}
		fmt.Fprintf(w, "%s %s\n", style.Sprintf("%-4s", label), res.Package)
		if res.Err != nil {
			fmt.Fprintf(w, "     %v\n", res.Err)
		}
	}
	if failed > 0 {
		fmt.Fprintf(w, "%d of %d packages failed\n", failed, len(results))
	}
}
