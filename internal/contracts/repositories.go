package contracts

import (
	"context"
	"time"
)

// Repository interfaces are defined here; implementations live beside the
// tables they own (internal/registry, internal/reports, internal/signals,
// internal/views).

// InstrumentRepository manages the stock registry
type InstrumentRepository interface {
	// Upsert creates or updates descriptive fields only; latest-report
	// fields are owned by report propagation and are never written here.
	Upsert(ctx context.Context, instrument *Instrument) error
	Get(ctx context.Context, code string) (*Instrument, error)
	// Delete removes an instrument and, by cascade, its reports
	Delete(ctx context.Context, code string) error
}

// ReportRepository manages the append-only report archive
type ReportRepository interface {
	// Append inserts an immutable report and propagates its scores,
	// verdict and confidence label into the instrument's latest fields
	// in a single transaction.
	Append(ctx context.Context, report *Report) error
	ListBySymbol(ctx context.Context, symbol string, limit, offset int) ([]*Report, error)
	CountBySymbol(ctx context.Context, symbol string) (int, error)
}

// SignalRepository manages guru signals and their sentiment aggregates
type SignalRepository interface {
	Save(ctx context.Context, signal *GuruSignal) error
	SentimentBySymbol(ctx context.Context, symbol string) (*SymbolSentiment, error)
	SentimentAll(ctx context.Context) ([]*SymbolSentiment, error)
}

// HistoryEntry is one row of the report history view (report joined to
// its instrument)
type HistoryEntry struct {
	Symbol          string    `json:"symbol"`
	Name            string    `json:"name"`
	Market          string    `json:"market"`
	ReportID        int64     `json:"report_id"`
	Version         string    `json:"version"`
	ScoreGrowth     *float64  `json:"score_growth"`
	ScoreValue      *float64  `json:"score_value"`
	ScoreTechnical  *float64  `json:"score_technical"`
	Composite       float64   `json:"composite"`
	Verdict         Verdict   `json:"verdict"`
	ConfidenceLabel string    `json:"confidence_label"`
	CreatedAt       time.Time `json:"created_at"`
}

// DashboardRow is one row of the dashboard view: an instrument with at
// least one report, its latest scores and lazily-computed report stats
type DashboardRow struct {
	Code            string     `json:"code"`
	Name            string     `json:"name"`
	Market          string     `json:"market"`
	Industry        string     `json:"industry"`
	Price           float64    `json:"price"`
	ScoreGrowth     *float64   `json:"score_growth"`
	ScoreValue      *float64   `json:"score_value"`
	Composite       float64    `json:"composite"`
	Verdict         *Verdict   `json:"verdict"`
	Confidence      *string    `json:"confidence"`
	ReportCount     int        `json:"report_count"`
	LastReportAt    *time.Time `json:"last_report_at"`
}

// ViewRepository serves the derived read-only projections. Views are
// recomputed on demand; they are never materialized.
type ViewRepository interface {
	History(ctx context.Context, symbol string, limit, offset int) ([]*HistoryEntry, error)
	Dashboard(ctx context.Context) ([]*DashboardRow, error)
}
