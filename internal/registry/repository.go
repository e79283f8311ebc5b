package registry

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/minquant/stocklens/internal/contracts"
)

// Repository implements contracts.InstrumentRepository over the
// instruments table.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new instrument repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Upsert creates or updates the descriptive fields of an instrument,
// keyed by code. The latest_* columns are deliberately absent from the
// update list: they belong to report propagation, and a concurrent
// descriptive-only upsert must never clobber them.
func (r *Repository) Upsert(ctx context.Context, instrument *contracts.Instrument) error {
	if err := instrument.ValidateDescriptive(); err != nil {
		return err
	}

	query := `
		INSERT INTO instruments (code, name, market, industry, price, turnover, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		ON CONFLICT (code) DO UPDATE SET
			name = EXCLUDED.name,
			market = EXCLUDED.market,
			industry = EXCLUDED.industry,
			price = EXCLUDED.price,
			turnover = EXCLUDED.turnover,
			updated_at = NOW()
	`

	_, err := r.pool.Exec(ctx, query,
		instrument.Code, instrument.Name, instrument.Market,
		instrument.Industry, instrument.Price, instrument.Turnover,
	)
	if err != nil {
		return fmt.Errorf("upsert instrument %s: %w", instrument.Code, err)
	}

	return nil
}

// Get retrieves an instrument by code
func (r *Repository) Get(ctx context.Context, code string) (*contracts.Instrument, error) {
	query := `
		SELECT code, name, market, industry, price, turnover,
		       latest_score_growth, latest_score_value, latest_score_technical,
		       latest_verdict, latest_confidence,
		       created_at, updated_at
		FROM instruments
		WHERE code = $1
	`

	var inst contracts.Instrument
	err := r.pool.QueryRow(ctx, query, code).Scan(
		&inst.Code, &inst.Name, &inst.Market, &inst.Industry, &inst.Price, &inst.Turnover,
		&inst.LatestScoreGrowth, &inst.LatestScoreValue, &inst.LatestScoreTechnical,
		&inst.LatestVerdict, &inst.LatestConfidence,
		&inst.CreatedAt, &inst.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, contracts.ErrNotFound
		}
		return nil, fmt.Errorf("query instrument %s: %w", code, err)
	}

	return &inst, nil
}

// ListCodes returns every registered symbol code, ordered
func (r *Repository) ListCodes(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT code FROM instruments ORDER BY code`)
	if err != nil {
		return nil, fmt.Errorf("query instrument codes: %w", err)
	}
	defer rows.Close()

	var codes []string
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, fmt.Errorf("scan instrument code: %w", err)
		}
		codes = append(codes, code)
	}

	return codes, rows.Err()
}

// Delete removes an instrument. Reports are removed by the FK cascade.
// Administrative action only.
func (r *Repository) Delete(ctx context.Context, code string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM instruments WHERE code = $1`, code)
	if err != nil {
		return fmt.Errorf("delete instrument %s: %w", code, err)
	}
	if tag.RowsAffected() == 0 {
		return contracts.ErrNotFound
	}
	return nil
}
