package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/minquant/stocklens/internal/analysis"
	"github.com/minquant/stocklens/internal/external/llm"
	"github.com/minquant/stocklens/internal/external/market"
	"github.com/minquant/stocklens/internal/registry"
	"github.com/minquant/stocklens/internal/reports"
	"github.com/minquant/stocklens/pkg/config"
	"github.com/minquant/stocklens/pkg/database"
	"github.com/minquant/stocklens/pkg/httputil"
	"github.com/minquant/stocklens/pkg/logger"
)

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze [symbols...]",
	Short: "Run the committee analysis for one or more symbols",
	Long: `Run the committee analysis for one or more symbols.

Fetches the current quote, upserts the instrument, asks the analyst
committee for a draft and appends the versioned report. With no
arguments the configured watchlist is analyzed.

Example:
  go run ./cmd/stocklens analyze 600519
  go run ./cmd/stocklens analyze 600519 000858
  go run ./cmd/stocklens analyze`,
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logger.New(cfg)

	db, err := database.New(cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	symbols := args
	if len(symbols) == 0 {
		symbols = cfg.Watchlist
	}
	if len(symbols) == 0 {
		return fmt.Errorf("no symbols given and ANALYSIS_WATCHLIST is empty")
	}

	runner := newRunner(cfg, db, log)

	ctx := context.Background()

	if len(symbols) == 1 {
		report, err := runner.Run(ctx, symbols[0])
		if err != nil {
			return err
		}
		fmt.Printf("✓ %s %s: %s (%s confidence)\n",
			report.Symbol, report.Version, report.Verdict, report.ConfidenceLabel)
		return nil
	}

	results, err := runner.RunBatch(ctx, symbols)
	for _, report := range results {
		fmt.Printf("✓ %s %s: %s (%s confidence)\n",
			report.Symbol, report.Version, report.Verdict, report.ConfidenceLabel)
	}
	return err
}

// newRunner wires the external clients and repositories for an
// analysis pass. The LLM client is throttled in-process to the
// configured per-minute budget.
func newRunner(cfg *config.Config, db *database.DB, log *logger.Logger) *analysis.Runner {
	llmHTTP := httputil.NewWithTimeout(cfg, log, 120*time.Second).
		WithLocalLimiter(rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.LLM.RequestsPerMinute)), 1))
	marketHTTP := httputil.New(cfg, log)

	committee := llm.NewClient(cfg, llmHTTP, log)
	marketClient := market.NewClient(cfg, marketHTTP, log)

	instrumentRepo := registry.NewRepository(db.Pool)
	reportRepo := reports.NewRepository(db.Pool)

	return analysis.NewRunner(marketClient, committee, instrumentRepo, reportRepo, log)
}
