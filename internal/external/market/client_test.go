package market

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minquant/stocklens/pkg/config"
	"github.com/minquant/stocklens/pkg/httputil"
	"github.com/minquant/stocklens/pkg/logger"
)

func newTestClient(t *testing.T, serverURL string) *Client {
	t.Helper()

	cfg := &config.Config{
		Env:       "development",
		LogLevel:  "error",
		LogFormat: "json",
		Market: config.MarketConfig{
			BaseURL: serverURL,
			APIKey:  "test-token",
		},
	}
	log := logger.New(cfg)

	return NewClient(cfg, httputil.New(cfg, log).DisableRetry(), log)
}

func TestGetQuote(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/quote", r.URL.Path)
		assert.Equal(t, "600519", r.URL.Query().Get("symbol"))
		assert.Equal(t, "test-token", r.URL.Query().Get("token"))

		_, _ = w.Write([]byte(`{
			"code": 0,
			"data": {
				"symbol": "600519",
				"name": "贵州茅台",
				"market": "SH",
				"industry": "Beverages",
				"price": 1680.5,
				"turnover": 5200000000
			}
		}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)

	quote, err := client.GetQuote(context.Background(), "600519")
	require.NoError(t, err)
	assert.Equal(t, "600519", quote.Symbol)
	assert.Equal(t, "贵州茅台", quote.Name)
	assert.Equal(t, 1680.5, quote.Price)
}

func TestGetQuote_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"code": 42, "message": "symbol not covered"}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)

	_, err := client.GetQuote(context.Background(), "999999")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "symbol not covered")
}

func TestGetQuote_MissingData(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"code": 0, "data": null}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)

	_, err := client.GetQuote(context.Background(), "600519")
	assert.Error(t, err)
}

func TestGetFinancials(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/financials", r.URL.Path)
		_, _ = w.Write([]byte(`{"code": 0, "data": {"pe": 28.4, "roe": 0.31}}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)

	raw, err := client.GetFinancials(context.Background(), "600519")
	require.NoError(t, err)
	assert.JSONEq(t, `{"pe": 28.4, "roe": 0.31}`, string(raw))
}

func TestGetFinancials_BadStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)

	_, err := client.GetFinancials(context.Background(), "600519")
	assert.Error(t, err)
}
