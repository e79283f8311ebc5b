package contracts

import (
	"testing"
	"time"
)

func TestStance_Valid(t *testing.T) {
	tests := []struct {
		stance Stance
		want   bool
	}{
		{StanceBullish, true},
		{StanceBearish, true},
		{StanceNeutral, true},
		{"BULLISH", false}, // case-sensitive
		{"long", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := tt.stance.Valid(); got != tt.want {
			t.Errorf("Stance(%q).Valid() = %v, want %v", tt.stance, got, tt.want)
		}
	}
}

func TestGuruSignal_Validate(t *testing.T) {
	base := func() *GuruSignal {
		return &GuruSignal{
			Source:   "value_hunter",
			PostURL:  "https://xueqiu.com/value_hunter/1234",
			Content:  "茅台依然被低估",
			Stance:   StanceBullish,
			Symbols:  []string{"600519"},
			PostedAt: time.Now(),
		}
	}

	if err := base().Validate(); err != nil {
		t.Fatalf("expected valid signal, got %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*GuruSignal)
	}{
		{"empty source", func(s *GuruSignal) { s.Source = "" }},
		{"bad stance", func(s *GuruSignal) { s.Stance = "moon" }},
		{"no symbols", func(s *GuruSignal) { s.Symbols = nil }},
		{"empty symbol", func(s *GuruSignal) { s.Symbols = []string{""} }},
		{"over-long symbol", func(s *GuruSignal) { s.Symbols = []string{"60051960051"} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := base()
			tt.mutate(s)
			if err := s.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}

	// One post mentioning several symbols is a single valid signal
	multi := base()
	multi.Symbols = []string{"600519", "000858"}
	if err := multi.Validate(); err != nil {
		t.Errorf("multi-symbol signal should validate, got %v", err)
	}
}
