package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/minquant/stocklens/internal/contracts"
	"github.com/minquant/stocklens/internal/external/llm"
	"github.com/minquant/stocklens/internal/external/market"
	"github.com/minquant/stocklens/pkg/logger"
)

// MarketClient is the slice of the market vendor the runner needs
type MarketClient interface {
	GetQuote(ctx context.Context, symbol string) (*market.Quote, error)
	GetFinancials(ctx context.Context, symbol string) (json.RawMessage, error)
}

// Committee is the slice of the LLM client the runner needs
type Committee interface {
	RunCommittee(ctx context.Context, req llm.CommitteeRequest) (*llm.CommitteeDraft, error)
}

// Runner orchestrates one analysis pass: quote → registry upsert →
// committee run → versioned report append.
type Runner struct {
	market      MarketClient
	committee   Committee
	instruments contracts.InstrumentRepository
	reports     contracts.ReportRepository
	logger      *logger.Logger

	// now is swappable so version labels are deterministic in tests
	now func() time.Time
}

// NewRunner creates a new analysis runner
func NewRunner(
	marketClient MarketClient,
	committee Committee,
	instruments contracts.InstrumentRepository,
	reports contracts.ReportRepository,
	log *logger.Logger,
) *Runner {
	return &Runner{
		market:      marketClient,
		committee:   committee,
		instruments: instruments,
		reports:     reports,
		logger:      log,
		now:         time.Now,
	}
}

// Run executes one analysis for a symbol and appends the resulting
// report. The instrument is upserted first so the append can never hit
// an orphan condition on a fresh symbol.
func (r *Runner) Run(ctx context.Context, symbol string) (*contracts.Report, error) {
	startedAt := r.now()

	quote, err := r.market.GetQuote(ctx, symbol)
	if err != nil {
		return nil, fmt.Errorf("fetch quote for %s: %w", symbol, err)
	}

	instrument := &contracts.Instrument{
		Code:     quote.Symbol,
		Name:     quote.Name,
		Market:   quote.Market,
		Industry: quote.Industry,
		Price:    quote.Price,
		Turnover: quote.Turnover,
	}
	if err := r.instruments.Upsert(ctx, instrument); err != nil {
		return nil, fmt.Errorf("upsert instrument %s: %w", symbol, err)
	}

	// Financial metrics enrich the committee input and become the report
	// snapshot; the analysis still runs without them.
	financials, err := r.market.GetFinancials(ctx, symbol)
	if err != nil {
		r.logger.WithError(err).WithField("symbol", symbol).Warn("Proceeding without financial metrics")
		financials = nil
	}

	draft, err := r.committee.RunCommittee(ctx, llm.CommitteeRequest{
		Symbol:   quote.Symbol,
		Name:     quote.Name,
		Industry: quote.Industry,
		Price:    quote.Price,
		Metrics:  financials,
	})
	if err != nil {
		return nil, fmt.Errorf("committee run for %s: %w", symbol, err)
	}

	report := &contracts.Report{
		Symbol:          quote.Symbol,
		Version:         contracts.MintVersionLabel(startedAt),
		Sections:        draft.Sections,
		ScoreGrowth:     draft.ScoreGrowth,
		ScoreValue:      draft.ScoreValue,
		ScoreTechnical:  draft.ScoreTechnical,
		Composite:       contracts.CompositeScore(draft.ScoreGrowth, draft.ScoreValue),
		Verdict:         contracts.Verdict(draft.Verdict),
		Confidence:      draft.Confidence,
		ConfidenceLabel: contracts.ConfidenceLabel(draft.Confidence),
		Snapshot:        financials,
	}

	if err := r.reports.Append(ctx, report); err != nil {
		return nil, fmt.Errorf("append report for %s: %w", symbol, err)
	}

	r.logger.WithFields(map[string]interface{}{
		"symbol":  report.Symbol,
		"version": report.Version,
		"verdict": report.Verdict,
	}).Info("Analysis report appended")

	return report, nil
}

// RunBatch analyzes each symbol in turn. One failing symbol does not
// abort the batch; failures are reported together at the end.
func (r *Runner) RunBatch(ctx context.Context, symbols []string) ([]*contracts.Report, error) {
	var result []*contracts.Report
	var failed []string

	for _, symbol := range symbols {
		report, err := r.Run(ctx, symbol)
		if err != nil {
			r.logger.WithError(err).WithField("symbol", symbol).Error("Analysis failed")
			failed = append(failed, symbol)
			continue
		}
		result = append(result, report)
	}

	if len(failed) > 0 {
		return result, fmt.Errorf("analysis failed for %d of %d symbols: %v", len(failed), len(symbols), failed)
	}

	return result, nil
}
