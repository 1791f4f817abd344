package internal

import (
	"fmt"

	"github.com/goplus/hsbuild/internal/cache"
	"github.com/spf13/cobra"
)

var configureForce bool

var configureCmd = &cobra.Command{
	Use:   "configure",
	Short: "Probe the project's compiler and cache its capabilities",
	Long: `Configure runs the project's compiler to discover its version, ABI tag,
supported languages and extensions, and capability properties, and caches
the result until the compiler executable changes.`,
	Args: cobra.NoArgs,
	RunE: runConfigure,
}

func init() {
	configureCmd.Flags().BoolVarP(&configureForce, "force", "f", false, "Probe again even if a cached description exists")
	rootCmd.AddCommand(configureCmd)
}

func runConfigure(cmd *cobra.Command, args []string) error {
	cfg, err := loadProject()
	if err != nil {
		return err
	}
	if configureForce {
		path, err := lookCompiler(cfg)
		if err != nil {
			return err
		}
		c, err := cache.Default()
		if err != nil {
			return err
		}
		if err := c.Remove(path); err != nil {
			return fmt.Errorf("failed to clear compiler cache: %w", err)
		}
	}

	comp, path, err := loadCompiler(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	warnUnsupported(cfg, comp)
	if _, err := cfg.Levels(); err != nil {
		return err
	}
	if _, err := cfg.Stack(); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Configured %s (%s)\n", comp.ShowIDWithABI(), path)
	return nil
}
