package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/minquant/stocklens/pkg/config"
	"github.com/minquant/stocklens/pkg/httputil"
	"github.com/minquant/stocklens/pkg/logger"
)

// Client calls the committee-analysis model through an OpenAI-compatible
// chat completions endpoint. All model calls go through this client.
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	apiKey     string
	baseURL    string
	model      string
}

// NewClient creates a new LLM client
func NewClient(cfg *config.Config, httpClient *httputil.Client, log *logger.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     log,
		apiKey:     cfg.LLM.APIKey,
		baseURL:    cfg.LLM.BaseURL,
		model:      cfg.LLM.Model,
	}
}

// CommitteeRequest carries the inputs the committee is asked to judge
type CommitteeRequest struct {
	Symbol   string          `json:"symbol"`
	Name     string          `json:"name"`
	Industry string          `json:"industry"`
	Price    float64         `json:"price"`
	Metrics  json.RawMessage `json:"metrics,omitempty"`
}

// committeeSystemPrompt instructs the model to answer as a panel of
// analyst personas and emit strict JSON.
const committeeSystemPrompt = `You are an investment committee of three analysts:
"growth" (revenue and earnings trajectory), "value" (valuation and balance
sheet) and "technical" (price action). Each persona writes a short narrative
section and a 0-100 score. The committee then agrees on a verdict (BUY, HOLD
or SELL) and a confidence level from 1 to 5.
Respond with JSON only, no prose outside it:
{"sections":{"growth":"...","value":"...","technical":"..."},
 "score_growth":0,"score_value":0,"score_technical":0,
 "verdict":"HOLD","confidence":3}`

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string        `json:"model"`
	Messages       []chatMessage `json:"messages"`
	Temperature    float64       `json:"temperature"`
	ResponseFormat *respFormat   `json:"response_format,omitempty"`
}

type respFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// CommitteeDraft is the parsed, validated model output
type CommitteeDraft struct {
	Sections       map[string]string `json:"sections"`
	ScoreGrowth    *float64          `json:"score_growth"`
	ScoreValue     *float64          `json:"score_value"`
	ScoreTechnical *float64          `json:"score_technical"`
	Verdict        string            `json:"verdict"`
	Confidence     int               `json:"confidence"`
}

// RunCommittee asks the model for a committee report on one instrument
func (c *Client) RunCommittee(ctx context.Context, req CommitteeRequest) (*CommitteeDraft, error) {
	userPayload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal committee request: %w", err)
	}

	body := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: committeeSystemPrompt},
			{Role: "user", Content: string(userPayload)},
		},
		Temperature:    0.2,
		ResponseFormat: &respFormat{Type: "json_object"},
	}

	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal chat request: %w", err)
	}

	url := c.baseURL + "/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("create chat request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("chat request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read chat response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("chat request returned status %d: %s", resp.StatusCode, truncate(respBody, 200))
	}

	var chatResp chatResponse
	if err := json.Unmarshal(respBody, &chatResp); err != nil {
		return nil, fmt.Errorf("decode chat response: %w", err)
	}
	if chatResp.Error != nil {
		return nil, fmt.Errorf("chat API error: %s", chatResp.Error.Message)
	}
	if len(chatResp.Choices) == 0 {
		return nil, fmt.Errorf("chat response has no choices")
	}

	draft, err := ParseDraft([]byte(chatResp.Choices[0].Message.Content))
	if err != nil {
		return nil, fmt.Errorf("committee output for %s: %w", req.Symbol, err)
	}

	c.logger.WithFields(map[string]interface{}{
		"symbol":  req.Symbol,
		"verdict": draft.Verdict,
	}).Debug("Committee draft produced")

	return draft, nil
}

// ParseDraft parses and validates raw model output. Models occasionally
// wrap JSON in markdown fences even when told not to, so those are
// stripped first.
func ParseDraft(raw []byte) (*CommitteeDraft, error) {
	raw = stripFences(raw)

	var draft CommitteeDraft
	if err := json.Unmarshal(raw, &draft); err != nil {
		return nil, fmt.Errorf("model output is not valid JSON: %w", err)
	}

	if draft.Verdict != "BUY" && draft.Verdict != "HOLD" && draft.Verdict != "SELL" {
		return nil, fmt.Errorf("model verdict %q is not BUY/HOLD/SELL", draft.Verdict)
	}
	if draft.Confidence < 1 || draft.Confidence > 5 {
		return nil, fmt.Errorf("model confidence %d out of range 1-5", draft.Confidence)
	}
	for name, score := range map[string]*float64{
		"score_growth":    draft.ScoreGrowth,
		"score_value":     draft.ScoreValue,
		"score_technical": draft.ScoreTechnical,
	} {
		if score != nil && (*score < 0 || *score > 100) {
			return nil, fmt.Errorf("model %s %.2f out of range 0-100", name, *score)
		}
	}
	if len(draft.Sections) == 0 {
		return nil, fmt.Errorf("model output has no narrative sections")
	}

	return &draft, nil
}

func stripFences(raw []byte) []byte {
	s := strings.TrimSpace(string(raw))
	if strings.HasPrefix(s, "```") {
		// Drop the opening fence line and the closing fence
		if idx := strings.IndexByte(s, '\n'); idx >= 0 {
			s = s[idx+1:]
		}
		if end := strings.LastIndex(s, "```"); end >= 0 {
			s = s[:end]
		}
	}
	return []byte(s)
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
