package internal

import (
	"github.com/gookit/color"
	"github.com/qiniu/x/log"
	"github.com/spf13/cobra"
)

var (
	rootVerbose bool
	rootConfig  string
	rootNoColor bool
)

var rootCmd = &cobra.Command{
	Use:   "hsbuild",
	Short: "hsbuild drives a Haskell compiler and its package databases",
	Long: `hsbuild probes a Haskell compiler for its capabilities, computes the
flags selecting languages, extensions and package databases, and builds and
registers local packages against a package database stack.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if rootVerbose {
			log.SetOutputLevel(log.Ldebug)
		} else {
			log.SetOutputLevel(log.Linfo)
		}
		if rootNoColor {
			color.Disable()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&rootVerbose, "verbose", "v", false, "Log every command run")
	rootCmd.PersistentFlags().StringVarP(&rootConfig, "config", "c", "", "Project file (default: hsbuild.yaml in this or a parent directory)")
	rootCmd.PersistentFlags().BoolVar(&rootNoColor, "no-color", false, "Disable colored output")
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		log.Fatal(err)
	}
}
