package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minquant/stocklens/internal/contracts"
	"github.com/minquant/stocklens/internal/external/llm"
	"github.com/minquant/stocklens/internal/external/market"
	"github.com/minquant/stocklens/pkg/config"
	"github.com/minquant/stocklens/pkg/logger"
)

type fakeMarket struct {
	quotes        map[string]*market.Quote
	financials    json.RawMessage
	financialsErr error
}

func (f *fakeMarket) GetQuote(ctx context.Context, symbol string) (*market.Quote, error) {
	q, ok := f.quotes[symbol]
	if !ok {
		return nil, errors.New("vendor has no quote")
	}
	return q, nil
}

func (f *fakeMarket) GetFinancials(ctx context.Context, symbol string) (json.RawMessage, error) {
	if f.financialsErr != nil {
		return nil, f.financialsErr
	}
	return f.financials, nil
}

type fakeCommittee struct {
	draft   *llm.CommitteeDraft
	err     error
	gotReqs []llm.CommitteeRequest
}

func (f *fakeCommittee) RunCommittee(ctx context.Context, req llm.CommitteeRequest) (*llm.CommitteeDraft, error) {
	f.gotReqs = append(f.gotReqs, req)
	if f.err != nil {
		return nil, f.err
	}
	return f.draft, nil
}

type fakeInstruments struct {
	upserted []*contracts.Instrument
	err      error
}

func (f *fakeInstruments) Upsert(ctx context.Context, inst *contracts.Instrument) error {
	if f.err != nil {
		return f.err
	}
	f.upserted = append(f.upserted, inst)
	return nil
}

func (f *fakeInstruments) Get(ctx context.Context, code string) (*contracts.Instrument, error) {
	return nil, contracts.ErrNotFound
}

func (f *fakeInstruments) Delete(ctx context.Context, code string) error {
	return contracts.ErrNotFound
}

type fakeReports struct {
	appended []*contracts.Report
	err      error
}

func (f *fakeReports) Append(ctx context.Context, report *contracts.Report) error {
	if f.err != nil {
		return f.err
	}
	f.appended = append(f.appended, report)
	return nil
}

func (f *fakeReports) ListBySymbol(ctx context.Context, symbol string, limit, offset int) ([]*contracts.Report, error) {
	return nil, nil
}

func (f *fakeReports) CountBySymbol(ctx context.Context, symbol string) (int, error) {
	return len(f.appended), nil
}

func floatPtr(f float64) *float64 { return &f }

func testLogger() *logger.Logger {
	return logger.New(&config.Config{Env: "development", LogLevel: "error", LogFormat: "json"})
}

func goodDraft() *llm.CommitteeDraft {
	return &llm.CommitteeDraft{
		Sections:    map[string]string{"growth": "expanding", "value": "fair"},
		ScoreGrowth: floatPtr(80),
		ScoreValue:  floatPtr(60),
		Verdict:     "BUY",
		Confidence:  4,
	}
}

func newTestRunner(m *fakeMarket, c *fakeCommittee, i *fakeInstruments, r *fakeReports) *Runner {
	runner := NewRunner(m, c, i, r, testLogger())
	runner.now = func() time.Time {
		return time.Date(2026, 8, 23, 9, 30, 0, 0, time.UTC)
	}
	return runner
}

func TestRunner_Run(t *testing.T) {
	marketClient := &fakeMarket{
		quotes: map[string]*market.Quote{
			"600519": {Symbol: "600519", Name: "贵州茅台", Market: "SH", Industry: "Beverages", Price: 1680.5},
		},
		financials: json.RawMessage(`{"pe": 28.4}`),
	}
	committee := &fakeCommittee{draft: goodDraft()}
	instruments := &fakeInstruments{}
	reportRepo := &fakeReports{}

	runner := newTestRunner(marketClient, committee, instruments, reportRepo)

	report, err := runner.Run(context.Background(), "600519")
	require.NoError(t, err)

	// Registry upserted from the quote before the committee ran
	require.Len(t, instruments.upserted, 1)
	assert.Equal(t, "贵州茅台", instruments.upserted[0].Name)
	assert.Equal(t, 1680.5, instruments.upserted[0].Price)

	// Committee saw the enriched request
	require.Len(t, committee.gotReqs, 1)
	assert.Equal(t, "600519", committee.gotReqs[0].Symbol)
	assert.JSONEq(t, `{"pe": 28.4}`, string(committee.gotReqs[0].Metrics))

	// Appended report carries the minted version and derived fields
	require.Len(t, reportRepo.appended, 1)
	assert.Equal(t, "v20260823_0930", report.Version)
	assert.Equal(t, contracts.VerdictBuy, report.Verdict)
	assert.Equal(t, 70.0, report.Composite)
	assert.Equal(t, "high", report.ConfidenceLabel)
	assert.JSONEq(t, `{"pe": 28.4}`, string(report.Snapshot))
}

func TestRunner_RunFinancialsOptional(t *testing.T) {
	marketClient := &fakeMarket{
		quotes: map[string]*market.Quote{
			"600519": {Symbol: "600519", Name: "贵州茅台"},
		},
		financialsErr: errors.New("vendor timeout"),
	}
	committee := &fakeCommittee{draft: goodDraft()}
	runner := newTestRunner(marketClient, committee, &fakeInstruments{}, &fakeReports{})

	report, err := runner.Run(context.Background(), "600519")
	require.NoError(t, err, "missing financials must not abort the analysis")
	assert.Nil(t, report.Snapshot)
	require.Len(t, committee.gotReqs, 1)
	assert.Nil(t, committee.gotReqs[0].Metrics)
}

func TestRunner_RunQuoteFailure(t *testing.T) {
	runner := newTestRunner(&fakeMarket{}, &fakeCommittee{draft: goodDraft()}, &fakeInstruments{}, &fakeReports{})

	_, err := runner.Run(context.Background(), "999999")
	assert.Error(t, err)
}

func TestRunner_RunCommitteeFailure(t *testing.T) {
	marketClient := &fakeMarket{
		quotes: map[string]*market.Quote{"600519": {Symbol: "600519"}},
	}
	committee := &fakeCommittee{err: errors.New("model overloaded")}
	reportRepo := &fakeReports{}
	runner := newTestRunner(marketClient, committee, &fakeInstruments{}, reportRepo)

	_, err := runner.Run(context.Background(), "600519")
	require.Error(t, err)
	assert.Empty(t, reportRepo.appended, "no report may land without a committee draft")
}

func TestRunner_RunBatch(t *testing.T) {
	marketClient := &fakeMarket{
		quotes: map[string]*market.Quote{
			"600519": {Symbol: "600519"},
			"000858": {Symbol: "000858"},
		},
	}
	committee := &fakeCommittee{draft: goodDraft()}
	reportRepo := &fakeReports{}
	runner := newTestRunner(marketClient, committee, &fakeInstruments{}, reportRepo)

	// One unknown symbol fails; the rest of the batch still lands
	results, err := runner.RunBatch(context.Background(), []string{"600519", "999999", "000858"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "999999")
	assert.Len(t, results, 2)
	assert.Len(t, reportRepo.appended, 2)
}
