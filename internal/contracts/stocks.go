package contracts

import (
	"encoding/json"
	"fmt"
	"regexp"
	"time"
)

// Verdict is the categorical recommendation of a committee report
type Verdict string

const (
	VerdictBuy  Verdict = "BUY"
	VerdictHold Verdict = "HOLD"
	VerdictSell Verdict = "SELL"
)

// Valid reports whether v is a known verdict
func (v Verdict) Valid() bool {
	switch v {
	case VerdictBuy, VerdictHold, VerdictSell:
		return true
	}
	return false
}

// ParseVerdict converts a raw string into a Verdict
func ParseVerdict(s string) (Verdict, error) {
	v := Verdict(s)
	if !v.Valid() {
		return "", fmt.Errorf("invalid verdict %q (valid: BUY, HOLD, SELL)", s)
	}
	return v, nil
}

// confidenceLabels mirrors the ordinal confidence level as a display string
var confidenceLabels = map[int]string{
	1: "very low",
	2: "low",
	3: "medium",
	4: "high",
	5: "very high",
}

// ConfidenceLabel returns the display string for an ordinal confidence
// level. Levels outside 1-5 map to an empty string.
func ConfidenceLabel(level int) string {
	return confidenceLabels[level]
}

// DefaultScore is substituted for an absent sub-score when computing the
// dashboard composite.
const DefaultScore = 50.0

// CompositeScore computes the dashboard composite: the unweighted mean of
// the growth and value scores, each defaulting to 50 when absent.
func CompositeScore(growth, value *float64) float64 {
	g := DefaultScore
	if growth != nil {
		g = *growth
	}
	v := DefaultScore
	if value != nil {
		v = *value
	}
	return (g + v) / 2
}

// MaxSymbolLen is the schema bound on instrument symbol codes
const MaxSymbolLen = 10

// versionLabelRe matches timestamp-derived version labels, e.g. v20240101_0900
var versionLabelRe = regexp.MustCompile(`^v\d{8}_\d{4}$`)

// ValidateVersionLabel checks the caller-supplied version label format.
// Uniqueness per symbol is enforced by the archive, not here.
func ValidateVersionLabel(label string) error {
	if !versionLabelRe.MatchString(label) {
		return fmt.Errorf("invalid version label %q (expected vYYYYMMDD_HHMM)", label)
	}
	return nil
}

// MintVersionLabel derives a version label from a capture time
func MintVersionLabel(t time.Time) string {
	return "v" + t.Format("20060102_1504")
}

// Instrument is one tradable security, keyed by symbol code. The Latest*
// fields are a denormalized cache of its newest report; they are written
// only by report propagation and are nil until the first report lands.
type Instrument struct {
	Code     string  `json:"code"`
	Name     string  `json:"name"`
	Market   string  `json:"market"`
	Industry string  `json:"industry"`
	Price    float64 `json:"price"`
	Turnover float64 `json:"turnover"`

	LatestScoreGrowth    *float64 `json:"latest_score_growth"`
	LatestScoreValue     *float64 `json:"latest_score_value"`
	LatestScoreTechnical *float64 `json:"latest_score_technical"`
	LatestVerdict        *Verdict `json:"latest_verdict"`
	LatestConfidence     *string  `json:"latest_confidence"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ValidateDescriptive checks the fields a caller may upsert
func (i *Instrument) ValidateDescriptive() error {
	if i.Code == "" {
		return fmt.Errorf("instrument code is required")
	}
	if len(i.Code) > MaxSymbolLen {
		return fmt.Errorf("instrument code %q exceeds %d chars", i.Code, MaxSymbolLen)
	}
	return nil
}

// Report is one immutable, versioned committee analysis for an instrument.
// Reports are append-only: created once, never mutated, removed only when
// their instrument is deleted.
type Report struct {
	ID      int64  `json:"id"`
	Symbol  string `json:"symbol"`
	Version string `json:"version"`

	// Sections maps expert persona name to its narrative text
	Sections map[string]string `json:"sections"`

	ScoreGrowth    *float64 `json:"score_growth"`
	ScoreValue     *float64 `json:"score_value"`
	ScoreTechnical *float64 `json:"score_technical"`
	Composite      float64  `json:"composite"`

	Verdict         Verdict `json:"verdict"`
	Confidence      int     `json:"confidence"`
	ConfidenceLabel string  `json:"confidence_label"`

	// Snapshot is the point-in-time financial metrics payload, stored opaque
	Snapshot json.RawMessage `json:"snapshot,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// Validate checks a report before it enters the archive
func (r *Report) Validate() error {
	if r.Symbol == "" {
		return fmt.Errorf("report symbol is required")
	}
	if len(r.Symbol) > MaxSymbolLen {
		return fmt.Errorf("report symbol %q exceeds %d chars", r.Symbol, MaxSymbolLen)
	}
	if err := ValidateVersionLabel(r.Version); err != nil {
		return err
	}
	if !r.Verdict.Valid() {
		return fmt.Errorf("invalid verdict %q", r.Verdict)
	}
	if r.Confidence < 1 || r.Confidence > 5 {
		return fmt.Errorf("confidence %d out of range 1-5", r.Confidence)
	}
	for name, score := range map[string]*float64{
		"growth":    r.ScoreGrowth,
		"value":     r.ScoreValue,
		"technical": r.ScoreTechnical,
	} {
		if score != nil && (*score < 0 || *score > 100) {
			return fmt.Errorf("%s score %.2f out of range 0-100", name, *score)
		}
	}
	return nil
}
