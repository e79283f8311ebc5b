package social

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/minquant/stocklens/internal/contracts"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    contracts.Stance
	}{
		{"english bullish", "Accumulate on weakness, this is a long-term hold", contracts.StanceBullish},
		{"english bearish", "Trimming my position here, valuation is stretched", contracts.StanceBearish},
		{"chinese bullish", "今天继续加仓茅台", contracts.StanceBullish},
		{"chinese bearish", "已经清仓离场", contracts.StanceBearish},
		{"neutral", "年报数据已经公布，等待管理层说明会", contracts.StanceNeutral},
		{"case insensitive", "BULLISH on this one", contracts.StanceBullish},
		{"bearish wins mixed posts", "selling A to buy B", contracts.StanceBearish},
		{"empty", "", contracts.StanceNeutral},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.content))
		})
	}
}

func TestExtractSymbols(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    []string
	}{
		{
			name:    "cashtag with exchange",
			content: "$贵州茅台(SH600519)$ 依然被低估",
			want:    []string{"600519"},
		},
		{
			name:    "bare exchange prefix",
			content: "SH600519 looks cheap against SZ000858",
			want:    []string{"600519", "000858"},
		},
		{
			name:    "duplicates collapse in first-mention order",
			content: "$五粮液(SZ000858)$ vs $贵州茅台(SH600519)$, still prefer SZ000858",
			want:    []string{"000858", "600519"},
		},
		{
			name:    "plain numbers are not symbols",
			content: "Revenue grew 123456 yuan in 2026, price target 180000",
			want:    nil,
		},
		{
			name:    "no mention",
			content: "Great quarter for the industry overall",
			want:    nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractSymbols(tt.content))
		})
	}
}
