package jobs

import (
	"context"
	"fmt"

	"github.com/minquant/stocklens/internal/analysis"
	"github.com/minquant/stocklens/pkg/logger"
)

// CodeLister supplies the symbols to analyze when no explicit watchlist
// is configured
type CodeLister interface {
	ListCodes(ctx context.Context) ([]string, error)
}

// AnalysisJob runs the committee analysis over the watchlist on schedule
type AnalysisJob struct {
	runner    *analysis.Runner
	registry  CodeLister
	watchlist []string
	logger    *logger.Logger
}

// NewAnalysisJob creates a new analysis job. With an empty watchlist the
// job covers every registered instrument.
func NewAnalysisJob(runner *analysis.Runner, registry CodeLister, watchlist []string, log *logger.Logger) *AnalysisJob {
	return &AnalysisJob{
		runner:    runner,
		registry:  registry,
		watchlist: watchlist,
		logger:    log,
	}
}

// Name returns the job name
func (j *AnalysisJob) Name() string {
	return "committee_analysis"
}

// Schedule runs after the morning session open, weekdays
func (j *AnalysisJob) Schedule() string {
	return "0 30 9 * * 1-5"
}

// Run executes one analysis pass over the watchlist
func (j *AnalysisJob) Run(ctx context.Context) error {
	symbols := j.watchlist
	if len(symbols) == 0 {
		var err error
		symbols, err = j.registry.ListCodes(ctx)
		if err != nil {
			return fmt.Errorf("list instrument codes: %w", err)
		}
	}

	if len(symbols) == 0 {
		j.logger.Warn("No instruments to analyze")
		return nil
	}

	reports, err := j.runner.RunBatch(ctx, symbols)
	j.logger.WithFields(map[string]interface{}{
		"requested": len(symbols),
		"appended":  len(reports),
	}).Info("Scheduled analysis finished")

	return err
}
