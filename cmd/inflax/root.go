package main

import (
	"github.com/spf13/cobra"
)

var rootPath string

var rootCmd = &cobra.Command{
	Use:           "inflax",
	Short:         "Inflax perpetual futures engine",
	Long:          "Inflax runs a perpetual futures market referencing an inflation index, with a virtual market maker for price discovery and a periodic funding rate pulling the mark price toward the index.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&rootPath, "root-path", "r", defaultRootPath(), "path to the configuration directory")
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(nodeCmd)
}
