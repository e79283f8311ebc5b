package views

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/minquant/stocklens/internal/contracts"
	"github.com/minquant/stocklens/pkg/logger"
	"github.com/minquant/stocklens/pkg/redis"
)

// Repository serves the derived read-only projections. Every call
// recomputes from the base tables; the dashboard additionally consults a
// short-TTL redis cache, which is an optimization only.
type Repository struct {
	pool   *pgxpool.Pool
	cache  *redis.Cache
	logger *logger.Logger
}

// NewRepository creates a new view repository. cache may be a disabled
// client's cache, in which case every lookup misses.
func NewRepository(pool *pgxpool.Pool, cache *redis.Cache, log *logger.Logger) *Repository {
	return &Repository{pool: pool, cache: cache, logger: log}
}

// History returns report rows joined to their instruments, newest first.
// With symbol == "" it spans all instruments ordered (symbol, created_at
// DESC) for the timeline UI.
func (r *Repository) History(ctx context.Context, symbol string, limit, offset int) ([]*contracts.HistoryEntry, error) {
	if limit <= 0 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	query := `
		SELECT
			rep.symbol, inst.name, inst.market,
			rep.id, rep.version,
			rep.score_growth, rep.score_value, rep.score_technical, rep.composite,
			rep.verdict, rep.confidence_label, rep.created_at
		FROM reports rep
		JOIN instruments inst ON inst.code = rep.symbol
		WHERE ($1 = '' OR rep.symbol = $1)
		ORDER BY rep.symbol, rep.created_at DESC, rep.id DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.pool.Query(ctx, query, symbol, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("query history view: %w", err)
	}
	defer rows.Close()

	var result []*contracts.HistoryEntry
	for rows.Next() {
		var e contracts.HistoryEntry
		if err := rows.Scan(
			&e.Symbol, &e.Name, &e.Market,
			&e.ReportID, &e.Version,
			&e.ScoreGrowth, &e.ScoreValue, &e.ScoreTechnical, &e.Composite,
			&e.Verdict, &e.ConfidenceLabel, &e.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan history entry: %w", err)
		}
		result = append(result, &e)
	}

	return result, rows.Err()
}

// Dashboard returns one row per instrument that has at least one report.
// Composite is the unweighted mean of the latest growth/value scores with
// absent scores defaulting to 50. Report count and last report time are
// correlated subqueries; the instrument universe is small enough that
// O(instruments) subquery evaluations are fine.
func (r *Repository) Dashboard(ctx context.Context) ([]*contracts.DashboardRow, error) {
	var cached []*contracts.DashboardRow
	if found, err := r.cache.Get(ctx, redis.DashboardKey(), &cached); err == nil && found {
		return cached, nil
	}

	query := `
		SELECT
			inst.code, inst.name, inst.market, inst.industry, inst.price,
			inst.latest_score_growth, inst.latest_score_value,
			(COALESCE(inst.latest_score_growth, 50) + COALESCE(inst.latest_score_value, 50)) / 2 AS composite,
			inst.latest_verdict, inst.latest_confidence,
			(SELECT COUNT(*) FROM reports rep WHERE rep.symbol = inst.code) AS report_count,
			(SELECT MAX(rep.created_at) FROM reports rep WHERE rep.symbol = inst.code) AS last_report_at
		FROM instruments inst
		WHERE EXISTS (SELECT 1 FROM reports rep WHERE rep.symbol = inst.code)
		ORDER BY composite DESC, inst.code
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query dashboard view: %w", err)
	}
	defer rows.Close()

	var result []*contracts.DashboardRow
	for rows.Next() {
		var row contracts.DashboardRow
		if err := rows.Scan(
			&row.Code, &row.Name, &row.Market, &row.Industry, &row.Price,
			&row.ScoreGrowth, &row.ScoreValue, &row.Composite,
			&row.Verdict, &row.Confidence,
			&row.ReportCount, &row.LastReportAt,
		); err != nil {
			return nil, fmt.Errorf("scan dashboard row: %w", err)
		}
		result = append(result, &row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := r.cache.Set(ctx, redis.DashboardKey(), result, redis.TTLShort); err != nil {
		r.logger.WithError(err).Warn("Failed to cache dashboard view")
	}

	return result, nil
}
