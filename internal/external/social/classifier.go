package social

import (
	"regexp"
	"strings"

	"github.com/minquant/stocklens/internal/contracts"
)

// Keyword tables for stance classification. Posts from the tracked gurus
// mix English and Chinese, so both are covered.
var (
	bullishKeywords = []string{
		"buy", "bullish", "long", "accumulate", "adding",
		"买入", "加仓", "建仓", "看多", "看涨", "满仓",
	}
	bearishKeywords = []string{
		"sell", "bearish", "short", "exit", "trimming",
		"卖出", "减仓", "清仓", "看空", "看跌", "离场",
	}
)

// Classify derives a stance from post text. Bearish keywords win ties:
// a post saying "selling X to buy Y" is an exit signal for the symbols
// it names most prominently, and mixed posts are rare enough that the
// conservative reading is preferred.
func Classify(content string) contracts.Stance {
	lower := strings.ToLower(content)

	for _, kw := range bearishKeywords {
		if strings.Contains(lower, kw) {
			return contracts.StanceBearish
		}
	}
	for _, kw := range bullishKeywords {
		if strings.Contains(lower, kw) {
			return contracts.StanceBullish
		}
	}
	return contracts.StanceNeutral
}

// cashtagRe matches explicit mentions — cashtags like $NAME(SH600519)$ or
// exchange-prefixed codes like SH600519 — so incidental numbers (dates,
// prices) are not read as symbols.
var cashtagRe = regexp.MustCompile(`\$[^$]{0,40}?\(?(?:SH|SZ|sh|sz)?(\d{6})\)?[^$]{0,10}?\$|(?:SH|SZ)(\d{6})`)

// ExtractSymbols pulls mentioned symbol codes out of post text,
// de-duplicated in first-mention order.
func ExtractSymbols(content string) []string {
	matches := cashtagRe.FindAllStringSubmatch(content, -1)

	seen := make(map[string]bool)
	var symbols []string
	for _, m := range matches {
		code := m[1]
		if code == "" {
			code = m[2]
		}
		if code == "" || seen[code] {
			continue
		}
		seen[code] = true
		symbols = append(symbols, code)
	}

	return symbols
}
