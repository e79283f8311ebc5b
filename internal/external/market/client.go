package market

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/minquant/stocklens/pkg/config"
	"github.com/minquant/stocklens/pkg/httputil"
	"github.com/minquant/stocklens/pkg/logger"
)

// Client fetches descriptive and price data from the market data vendor.
// All vendor calls go through this client.
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
	apiKey     string
}

// NewClient creates a new market data client
func NewClient(cfg *config.Config, httpClient *httputil.Client, log *logger.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     log,
		baseURL:    cfg.Market.BaseURL,
		apiKey:     cfg.Market.APIKey,
	}
}

// Quote is the vendor's per-instrument snapshot: the descriptive and
// price fields fed into the registry upsert.
type Quote struct {
	Symbol   string  `json:"symbol"`
	Name     string  `json:"name"`
	Market   string  `json:"market"`
	Industry string  `json:"industry"`
	Price    float64 `json:"price"`
	Turnover float64 `json:"turnover"`
}

// quoteResponse wraps the vendor payload
type quoteResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    *Quote `json:"data"`
}

// GetQuote fetches the current quote for one symbol
func (c *Client) GetQuote(ctx context.Context, symbol string) (*Quote, error) {
	params := url.Values{}
	params.Set("symbol", symbol)
	if c.apiKey != "" {
		params.Set("token", c.apiKey)
	}

	fullURL := fmt.Sprintf("%s/v1/quote?%s", c.baseURL, params.Encode())

	resp, err := c.httpClient.Get(ctx, fullURL)
	if err != nil {
		return nil, fmt.Errorf("quote request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("quote request returned status %d", resp.StatusCode)
	}

	var qr quoteResponse
	if err := json.NewDecoder(resp.Body).Decode(&qr); err != nil {
		return nil, fmt.Errorf("decode quote response: %w", err)
	}
	if qr.Code != 0 {
		return nil, fmt.Errorf("quote API error %d: %s", qr.Code, qr.Message)
	}
	if qr.Data == nil || qr.Data.Symbol == "" {
		return nil, fmt.Errorf("quote response missing data for %s", symbol)
	}

	return qr.Data, nil
}

// GetFinancials fetches the vendor's financial metrics blob for a symbol.
// The payload is stored opaque on the report snapshot, so it is returned
// as raw JSON rather than a normalized struct.
func (c *Client) GetFinancials(ctx context.Context, symbol string) (json.RawMessage, error) {
	params := url.Values{}
	params.Set("symbol", symbol)
	if c.apiKey != "" {
		params.Set("token", c.apiKey)
	}

	fullURL := fmt.Sprintf("%s/v1/financials?%s", c.baseURL, params.Encode())

	resp, err := c.httpClient.Get(ctx, fullURL)
	if err != nil {
		return nil, fmt.Errorf("financials request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("financials request returned status %d", resp.StatusCode)
	}

	var wrapper struct {
		Code    int             `json:"code"`
		Message string          `json:"message"`
		Data    json.RawMessage `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&wrapper); err != nil {
		return nil, fmt.Errorf("decode financials response: %w", err)
	}
	if wrapper.Code != 0 {
		return nil, fmt.Errorf("financials API error %d: %s", wrapper.Code, wrapper.Message)
	}

	return wrapper.Data, nil
}
