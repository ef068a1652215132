package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/inflaxprotocol/inflax/config"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default configuration file",
	RunE:  runInit,
}

func init() {
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "overwrite an existing configuration file")
}

func defaultRootPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".inflax"
	}
	return filepath.Join(home, ".inflax")
}

func runInit(_ *cobra.Command, _ []string) error {
	if _, err := config.Read(rootPath); err == nil && !initForce {
		return fmt.Errorf("configuration already exists at %s, use --force to overwrite", rootPath)
	}
	if err := config.Write(rootPath, config.NewDefaultConfig()); err != nil {
		return err
	}
	fmt.Printf("configuration generated at %s\n", rootPath)
	return nil
}
