package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nilreef/ctxengine/engine"
	"github.com/nilreef/ctxengine/internal/engineconfig"
	"github.com/nilreef/ctxengine/internal/model"
)

var (
	queryRoot   string
	queryBudget uint32
	queryIntent string
	queryJSON   bool
)

var queryCmd = &cobra.Command{
	Use:   "query <request text>",
	Short: "Run one request through the context pipeline",
	Long: `Run one request through the context pipeline: classify, retrieve, fuse, rank, budget, and pack.

Examples:
  ctxengine query "why does test_login fail with AssertionError?"
  ctxengine query --intent refactor --budget 4000 "extract the retry logic in client.go"
  ctxengine query --json "explain NewWidget"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runQuery,
}

func init() {
	queryCmd.Flags().StringVar(&queryRoot, "root", ".", "workspace root to index before querying")
	queryCmd.Flags().Uint32Var(&queryBudget, "budget", 8000, "total token budget for the response")
	queryCmd.Flags().StringVar(&queryIntent, "intent", "", "override automatic intent classification (explain, bug_fix, refactor, generate, test)")
	queryCmd.Flags().BoolVar(&queryJSON, "json", false, "emit the result as JSON")
	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	cfg, err := engineconfig.Load(configPath)
	if err != nil {
		return fmt.Errorf("ctxengine: load config: %w", err)
	}
	cfg.Workspace.RootPath = queryRoot

	logger, err := buildLogger(cfg)
	if err != nil {
		return fmt.Errorf("ctxengine: build logger: %w", err)
	}
	defer logger.Sync()

	e := engine.New(cfg, logger)

	ctx := context.Background()
	if err := e.Initialize(ctx); err != nil {
		return fmt.Errorf("ctxengine: initialize: %w", err)
	}
	defer e.Dispose()

	req := engine.Request{
		Input:       strings.Join(args, " "),
		TokenBudget: queryBudget,
	}
	if queryIntent != "" {
		intent := model.Intent(queryIntent)
		if !intent.Valid() {
			return fmt.Errorf("ctxengine: unknown intent %q", queryIntent)
		}
		req.Intent = &intent
	}

	result, err := e.Query(ctx, req)
	if err != nil {
		return fmt.Errorf("ctxengine: query: %w", err)
	}

	if queryJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "intent: %s  tokens used: %d/%d\n\n", result.Intent, result.TokensUsed, queryBudget)
	for _, item := range result.Items {
		fmt.Fprintf(out, "--- %s (%s) ---\n%s\n\n", item.Name, item.Description, item.Content)
	}
	return nil
}
