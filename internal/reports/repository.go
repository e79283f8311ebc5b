package reports

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/minquant/stocklens/internal/contracts"
)

// Postgres error codes translated into domain errors
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// Repository implements contracts.ReportRepository over the reports
// table. Reports are append-only: there is no update path.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new report repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Append inserts an immutable report and forward-copies its scores,
// verdict and confidence label into the owning instrument's latest
// fields. Insert and propagation run in one transaction: no report
// exists without its registry update and no registry update without a
// backing report. The UNIQUE (symbol, version) constraint serializes
// concurrent appends for the same symbol.
func (r *Repository) Append(ctx context.Context, report *contracts.Report) error {
	if err := report.Validate(); err != nil {
		return err
	}
	if report.ConfidenceLabel == "" {
		report.ConfidenceLabel = contracts.ConfidenceLabel(report.Confidence)
	}

	sections, err := json.Marshal(report.Sections)
	if err != nil {
		return fmt.Errorf("marshal report sections: %w", err)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	insertQuery := `
		INSERT INTO reports (
			symbol, version, sections,
			score_growth, score_value, score_technical, composite,
			verdict, confidence, confidence_label, snapshot, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW())
		RETURNING id, created_at
	`

	err = tx.QueryRow(ctx, insertQuery,
		report.Symbol, report.Version, sections,
		report.ScoreGrowth, report.ScoreValue, report.ScoreTechnical, report.Composite,
		report.Verdict, report.Confidence, report.ConfidenceLabel, report.Snapshot,
	).Scan(&report.ID, &report.CreatedAt)
	if err != nil {
		return translateAppendError(report, err)
	}

	// Propagation: pure forward copy from the new report, never a read of
	// the old latest fields and never an aggregate across reports.
	propagateQuery := `
		UPDATE instruments SET
			latest_score_growth = $2,
			latest_score_value = $3,
			latest_score_technical = $4,
			latest_verdict = $5,
			latest_confidence = $6,
			updated_at = NOW()
		WHERE code = $1
	`

	tag, err := tx.Exec(ctx, propagateQuery,
		report.Symbol,
		report.ScoreGrowth, report.ScoreValue, report.ScoreTechnical,
		report.Verdict, report.ConfidenceLabel,
	)
	if err != nil {
		return fmt.Errorf("propagate report %s/%s: %w", report.Symbol, report.Version, err)
	}
	if tag.RowsAffected() == 0 {
		return contracts.ErrOrphanReport
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit append %s/%s: %w", report.Symbol, report.Version, err)
	}

	return nil
}

// translateAppendError maps constraint violations to domain errors
func translateAppendError(report *contracts.Report, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return fmt.Errorf("report %s/%s: %w", report.Symbol, report.Version, contracts.ErrDuplicateVersion)
		case pgForeignKeyViolation:
			return fmt.Errorf("report %s/%s: %w", report.Symbol, report.Version, contracts.ErrOrphanReport)
		}
	}
	return fmt.Errorf("insert report %s/%s: %w", report.Symbol, report.Version, err)
}

const reportColumns = `
	id, symbol, version, sections,
	score_growth, score_value, score_technical, composite,
	verdict, confidence, confidence_label, snapshot, created_at
`

// ListBySymbol returns reports for a symbol ordered by creation time
// descending. Limit/offset pagination keeps the sequence restartable.
func (r *Repository) ListBySymbol(ctx context.Context, symbol string, limit, offset int) ([]*contracts.Report, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	query := `
		SELECT ` + reportColumns + `
		FROM reports
		WHERE symbol = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.pool.Query(ctx, query, symbol, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("query reports for %s: %w", symbol, err)
	}
	defer rows.Close()

	var result []*contracts.Report
	for rows.Next() {
		report, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, report)
	}

	return result, rows.Err()
}

// CountBySymbol returns the number of archived reports for a symbol
func (r *Repository) CountBySymbol(ctx context.Context, symbol string) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM reports WHERE symbol = $1`, symbol,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count reports for %s: %w", symbol, err)
	}
	return count, nil
}

// rowScanner is satisfied by both pgx.Row and pgx.Rows
type rowScanner interface {
	Scan(dest ...any) error
}

func scanReport(row rowScanner) (*contracts.Report, error) {
	var report contracts.Report
	var sections []byte

	err := row.Scan(
		&report.ID, &report.Symbol, &report.Version, &sections,
		&report.ScoreGrowth, &report.ScoreValue, &report.ScoreTechnical, &report.Composite,
		&report.Verdict, &report.Confidence, &report.ConfidenceLabel, &report.Snapshot,
		&report.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("scan report: %w", err)
	}

	if len(sections) > 0 {
		if err := json.Unmarshal(sections, &report.Sections); err != nil {
			return nil, fmt.Errorf("unmarshal report sections: %w", err)
		}
	}

	return &report, nil
}
