package signals

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/minquant/stocklens/internal/contracts"
)

// Repository implements contracts.SignalRepository over the guru_signals
// and signal_symbols tables.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new signal repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Save stores a guru signal and its mentioned symbols in one transaction.
// Re-ingesting the same post (same source, URL and post time) is a no-op.
func (r *Repository) Save(ctx context.Context, signal *contracts.GuruSignal) error {
	if err := signal.Validate(); err != nil {
		return err
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	insertQuery := `
		INSERT INTO guru_signals (source, post_url, content, stance, posted_at, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		ON CONFLICT (source, post_url, posted_at) DO NOTHING
		RETURNING id, created_at
	`

	err = tx.QueryRow(ctx, insertQuery,
		signal.Source, signal.PostURL, signal.Content, signal.Stance, signal.PostedAt,
	).Scan(&signal.ID, &signal.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Already ingested; nothing to do
			return nil
		}
		return fmt.Errorf("insert signal from %s: %w", signal.Source, err)
	}

	symbolQuery := `
		INSERT INTO signal_symbols (signal_id, symbol)
		VALUES ($1, $2)
		ON CONFLICT (signal_id, symbol) DO NOTHING
	`

	for _, symbol := range signal.Symbols {
		if _, err := tx.Exec(ctx, symbolQuery, signal.ID, symbol); err != nil {
			return fmt.Errorf("insert signal symbol %s: %w", symbol, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit signal from %s: %w", signal.Source, err)
	}

	return nil
}

const sentimentSelect = `
	SELECT
		ss.symbol,
		COUNT(*) FILTER (WHERE gs.stance = 'bullish') AS bullish,
		COUNT(*) FILTER (WHERE gs.stance = 'bearish') AS bearish,
		COUNT(*) FILTER (WHERE gs.stance = 'neutral') AS neutral,
		COUNT(DISTINCT gs.source) AS sources
	FROM signal_symbols ss
	JOIN guru_signals gs ON gs.id = ss.signal_id
`

// SentimentBySymbol aggregates crowd opinion for one symbol
func (r *Repository) SentimentBySymbol(ctx context.Context, symbol string) (*contracts.SymbolSentiment, error) {
	query := sentimentSelect + `
		WHERE ss.symbol = $1
		GROUP BY ss.symbol
	`

	var s contracts.SymbolSentiment
	err := r.pool.QueryRow(ctx, query, symbol).Scan(
		&s.Symbol, &s.Bullish, &s.Bearish, &s.Neutral, &s.Sources,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, contracts.ErrNotFound
		}
		return nil, fmt.Errorf("query sentiment for %s: %w", symbol, err)
	}

	return &s, nil
}

// SentimentAll aggregates crowd opinion for every mentioned symbol,
// most-discussed first
func (r *Repository) SentimentAll(ctx context.Context) ([]*contracts.SymbolSentiment, error) {
	query := sentimentSelect + `
		GROUP BY ss.symbol
		ORDER BY COUNT(*) DESC, ss.symbol
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query sentiment: %w", err)
	}
	defer rows.Close()

	var result []*contracts.SymbolSentiment
	for rows.Next() {
		var s contracts.SymbolSentiment
		if err := rows.Scan(&s.Symbol, &s.Bullish, &s.Bearish, &s.Neutral, &s.Sources); err != nil {
			return nil, fmt.Errorf("scan sentiment: %w", err)
		}
		result = append(result, &s)
	}

	return result, rows.Err()
}
