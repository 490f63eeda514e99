// Package main provides the ctxengine CLI: a thin binding over the
// engine package for indexing a workspace and running one-off queries
// against it from the command line.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "ctxengine",
	Short: "Context Engine - code-aware context retrieval",
	Long:  `ctxengine indexes a workspace and serves intent-aware, budget-packed context for a coding request.`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "ctxengine.yaml", "path to the engine's YAML configuration file")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
