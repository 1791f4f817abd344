package internal

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/goplus/hsbuild/pkgs/compiler"
	"github.com/gookit/color"
	"github.com/spf13/cobra"
)

var infoJSON bool

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show what the project's compiler supports",
	Long: `Info reports the compiler's identity, its capabilities, the features
gated on its version, and which runtime ways it ships.`,
	Args: cobra.NoArgs,
	RunE: runInfo,
}

func init() {
	infoCmd.Flags().BoolVar(&infoJSON, "json", false, "Print the compiler description as JSON")
	rootCmd.AddCommand(infoCmd)
}

func runInfo(cmd *cobra.Command, args []string) error {
	cfg, err := loadProject()
	if err != nil {
		return err
	}
	comp, _, err := loadCompiler(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	if infoJSON {
		data, err := json.MarshalIndent(comp, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	}
	writeInfo(cmd.OutOrStdout(), comp)
	return nil
}

func yesNo(ok bool) string {
	if ok {
		return color.Green.Sprint("yes")
	}
	return color.Red.Sprint("no")
}

func tristate(t compiler.Tristate) string {
	ok, known := t.Bool()
	if !known {
		return color.Yellow.Sprint("unknown")
	}
	return yesNo(ok)
}

// writeInfo prints a human-readable capability report for c.
func writeInfo(w io.Writer, c *compiler.Compiler) {
	fmt.Fprintf(w, "%s %s\n", color.Bold.Sprint("Compiler:"), c.ShowIDWithABI())
	if compat := c.Compat(); len(compat) > 0 {
		ids := make([]string, len(compat))
		for i, id := range compat {
			ids[i] = id.String()
		}
		fmt.Fprintf(w, "%s %s\n", color.Bold.Sprint("Compatible with:"), strings.Join(ids, ", "))
	}

	langs := make([]string, 0, len(c.Languages()))
	for l := range c.Languages() {
		langs = append(langs, l.String())
	}
	slices.Sort(langs)
	fmt.Fprintf(w, "%s %s\n", color.Bold.Sprint("Languages:"), strings.Join(langs, " "))
	fmt.Fprintf(w, "%s %d\n", color.Bold.Sprint("Extensions:"), len(c.Extensions()))

	fmt.Fprintln(w, color.Bold.Sprint("Capabilities:"))
	for _, capability := range compiler.Capabilities() {
		fmt.Fprintf(w, "  %-24s %s\n", capability, yesNo(c.Has(capability)))
	}
	fmt.Fprintf(w, "  %-24s %s\n", "coverage", yesNo(c.CoverageSupported()))
	fmt.Fprintf(w, "  %-24s %s\n", "profiling", yesNo(c.ProfilingSupported()))

	fmt.Fprintln(w, color.Bold.Sprint("Features:"))
	for _, f := range compiler.Features() {
		fmt.Fprintf(w, "  %-24s %s  %s\n", f, yesNo(c.SupportsFeature(f)), color.Gray.Sprint(compiler.GateNote(f)))
	}

	fmt.Fprintln(w, color.Bold.Sprint("Ways:"))
	fmt.Fprintf(w, "  %-24s %s\n", "profiling", tristate(c.ProfilingVanillaSupported()))
	fmt.Fprintf(w, "  %-24s %s\n", "dynamic", tristate(c.DynamicSupported()))
	fmt.Fprintf(w, "  %-24s %s\n", "profiling-dynamic", tristate(c.ProfilingDynamicSupported()))
}
