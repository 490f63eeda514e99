package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nilreef/ctxengine/engine"
	"github.com/nilreef/ctxengine/internal/engineconfig"
)

var indexWatch bool

var indexCmd = &cobra.Command{
	Use:   "index [path]",
	Short: "Build or refresh the index for a workspace",
	Long: `Build or refresh the index for a workspace.

Examples:
  ctxengine index .
  ctxengine index --watch .`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIndex,
}

func init() {
	indexCmd.Flags().BoolVarP(&indexWatch, "watch", "w", false, "keep running and reindex files as they change")
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, args []string) error {
	root := "."
	if len(args) == 1 {
		root = args[0]
	}

	cfg, err := engineconfig.Load(configPath)
	if err != nil {
		return fmt.Errorf("ctxengine: load config: %w", err)
	}
	cfg.Workspace.RootPath = root

	logger, err := buildLogger(cfg)
	if err != nil {
		return fmt.Errorf("ctxengine: build logger: %w", err)
	}
	defer logger.Sync()

	e := engine.New(cfg, logger)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := e.Initialize(ctx); err != nil {
		return fmt.Errorf("ctxengine: initialize: %w", err)
	}

	diag := e.Diagnostics()
	fmt.Fprintf(cmd.OutOrStdout(), "indexed %d chunks from %s\n", diag.IndexedChunks, root)

	if !indexWatch {
		return e.Dispose()
	}

	fmt.Fprintln(cmd.OutOrStdout(), "watching for changes, press Ctrl+C to stop")
	<-ctx.Done()
	return e.Dispose()
}
