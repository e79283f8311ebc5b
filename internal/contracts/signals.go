package contracts

import (
	"fmt"
	"time"
)

// Stance classifies a guru signal's extracted trading opinion
type Stance string

const (
	StanceBullish Stance = "bullish"
	StanceBearish Stance = "bearish"
	StanceNeutral Stance = "neutral"
)

// Valid reports whether s is a known stance
func (s Stance) Valid() bool {
	switch s {
	case StanceBullish, StanceBearish, StanceNeutral:
		return true
	}
	return false
}

// GuruSignal is one trading opinion extracted from a social-media post.
// Mentioned symbols live in a join table (signal_symbols), so one post can
// count toward several instruments.
type GuruSignal struct {
	ID       int64     `json:"id"`
	Source   string    `json:"source"` // guru handle the post came from
	PostURL  string    `json:"post_url"`
	Content  string    `json:"content"`
	Stance   Stance    `json:"stance"`
	Symbols  []string  `json:"symbols"`
	PostedAt time.Time `json:"posted_at"`

	CreatedAt time.Time `json:"created_at"`
}

// Validate checks a signal before it is stored
func (g *GuruSignal) Validate() error {
	if g.Source == "" {
		return fmt.Errorf("signal source is required")
	}
	if !g.Stance.Valid() {
		return fmt.Errorf("invalid stance %q (valid: bullish, bearish, neutral)", g.Stance)
	}
	if len(g.Symbols) == 0 {
		return fmt.Errorf("signal must mention at least one symbol")
	}
	for _, sym := range g.Symbols {
		if sym == "" || len(sym) > MaxSymbolLen {
			return fmt.Errorf("invalid mentioned symbol %q", sym)
		}
	}
	return nil
}

// SymbolSentiment is the aggregated crowd opinion for one symbol
type SymbolSentiment struct {
	Symbol  string `json:"symbol"`
	Bullish int    `json:"bullish"`
	Bearish int    `json:"bearish"`
	Neutral int    `json:"neutral"`
	Sources int    `json:"sources"` // distinct gurus mentioning the symbol
}
