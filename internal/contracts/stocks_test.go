package contracts

import (
	"testing"
	"time"
)

func floatPtr(f float64) *float64 { return &f }

func TestCompositeScore(t *testing.T) {
	tests := []struct {
		name   string
		growth *float64
		value  *float64
		want   float64
	}{
		{"both present", floatPtr(80), floatPtr(60), 70},
		{"growth missing defaults to 50", nil, floatPtr(60), 55},
		{"value missing defaults to 50", floatPtr(80), nil, 65},
		{"both missing", nil, nil, 50},
		{"zero is a real score, not missing", floatPtr(0), floatPtr(100), 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CompositeScore(tt.growth, tt.value)
			epsilon := 0.0001
			if diff := got - tt.want; diff > epsilon || diff < -epsilon {
				t.Errorf("CompositeScore() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestValidateVersionLabel(t *testing.T) {
	tests := []struct {
		label   string
		wantErr bool
	}{
		{"v20240101_0900", false},
		{"v20260823_1530", false},
		{"20240101_0900", true},  // missing prefix
		{"v2024_0900", true},     // short date
		{"v20240101-0900", true}, // wrong separator
		{"v20240101_090", true},  // short time
		{"v20240101_09000", true},
		{"", true},
		{"latest", true},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			err := ValidateVersionLabel(tt.label)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateVersionLabel(%q) error = %v, wantErr %v", tt.label, err, tt.wantErr)
			}
		})
	}
}

func TestMintVersionLabel(t *testing.T) {
	at := time.Date(2026, 8, 23, 9, 30, 45, 0, time.UTC)

	got := MintVersionLabel(at)
	want := "v20260823_0930"
	if got != want {
		t.Errorf("MintVersionLabel() = %q, want %q", got, want)
	}

	// Minted labels must pass their own validation
	if err := ValidateVersionLabel(got); err != nil {
		t.Errorf("minted label failed validation: %v", err)
	}
}

func TestParseVerdict(t *testing.T) {
	tests := []struct {
		input   string
		want    Verdict
		wantErr bool
	}{
		{"BUY", VerdictBuy, false},
		{"HOLD", VerdictHold, false},
		{"SELL", VerdictSell, false},
		{"buy", "", true}, // case-sensitive
		{"STRONG_BUY", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseVerdict(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseVerdict(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseVerdict(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestConfidenceLabel(t *testing.T) {
	tests := []struct {
		level int
		want  string
	}{
		{1, "very low"},
		{2, "low"},
		{3, "medium"},
		{4, "high"},
		{5, "very high"},
		{0, ""},
		{6, ""},
	}

	for _, tt := range tests {
		if got := ConfidenceLabel(tt.level); got != tt.want {
			t.Errorf("ConfidenceLabel(%d) = %q, want %q", tt.level, got, tt.want)
		}
	}
}

func TestInstrument_ValidateDescriptive(t *testing.T) {
	valid := &Instrument{Code: "600519", Name: "贵州茅台"}
	if err := valid.ValidateDescriptive(); err != nil {
		t.Errorf("expected valid instrument, got %v", err)
	}

	empty := &Instrument{}
	if err := empty.ValidateDescriptive(); err == nil {
		t.Error("expected error for empty code")
	}

	long := &Instrument{Code: "60051960051"}
	if err := long.ValidateDescriptive(); err == nil {
		t.Error("expected error for over-long code")
	}
}

func TestReport_Validate(t *testing.T) {
	base := func() *Report {
		return &Report{
			Symbol:     "600519",
			Version:    "v20260823_0930",
			Sections:   map[string]string{"growth": "strong brand moat"},
			Verdict:    VerdictBuy,
			Confidence: 4,
		}
	}

	if err := base().Validate(); err != nil {
		t.Fatalf("expected valid report, got %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Report)
	}{
		{"empty symbol", func(r *Report) { r.Symbol = "" }},
		{"over-long symbol", func(r *Report) { r.Symbol = "60051960051" }},
		{"bad version label", func(r *Report) { r.Version = "latest" }},
		{"bad verdict", func(r *Report) { r.Verdict = "MAYBE" }},
		{"confidence too low", func(r *Report) { r.Confidence = 0 }},
		{"confidence too high", func(r *Report) { r.Confidence = 6 }},
		{"growth score out of range", func(r *Report) { r.ScoreGrowth = floatPtr(101) }},
		{"negative value score", func(r *Report) { r.ScoreValue = floatPtr(-1) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := base()
			tt.mutate(r)
			if err := r.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}

	// Nil sub-scores are allowed; the composite falls back to defaults
	r := base()
	r.ScoreGrowth = nil
	r.ScoreValue = nil
	if err := r.Validate(); err != nil {
		t.Errorf("nil sub-scores should validate, got %v", err)
	}
}
