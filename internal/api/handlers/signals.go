package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/minquant/stocklens/internal/contracts"
	"github.com/minquant/stocklens/pkg/logger"
)

// SignalHandler handles guru-signal ingestion and sentiment endpoints
type SignalHandler struct {
	signals contracts.SignalRepository
	logger  *logger.Logger
}

// NewSignalHandler creates a new signal handler
func NewSignalHandler(signals contracts.SignalRepository, log *logger.Logger) *SignalHandler {
	return &SignalHandler{
		signals: signals,
		logger:  log,
	}
}

// IngestRequest is the body of a manual signal ingestion call
type IngestRequest struct {
	Source   string    `json:"source"`
	PostURL  string    `json:"post_url"`
	Content  string    `json:"content"`
	Stance   string    `json:"stance"`
	Symbols  []string  `json:"symbols"`
	PostedAt time.Time `json:"posted_at"`
}

// IngestSignal stores one guru signal.
// POST /api/signals
func (h *SignalHandler) IngestSignal(w http.ResponseWriter, r *http.Request) {
	var req IngestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	signal := &contracts.GuruSignal{
		Source:   req.Source,
		PostURL:  req.PostURL,
		Content:  req.Content,
		Stance:   contracts.Stance(req.Stance),
		Symbols:  req.Symbols,
		PostedAt: req.PostedAt,
	}
	if signal.PostedAt.IsZero() {
		signal.PostedAt = time.Now()
	}

	if err := signal.Validate(); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.signals.Save(r.Context(), signal); err != nil {
		h.logger.WithError(err).WithField("source", req.Source).Error("Failed to save signal")
		respondError(w, http.StatusInternalServerError, "Failed to save signal")
		return
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"data":    signal,
	})
}

// GetSentiment returns the aggregated crowd opinion across all symbols.
// GET /api/signals/sentiment
func (h *SignalHandler) GetSentiment(w http.ResponseWriter, r *http.Request) {
	sentiments, err := h.signals.SentimentAll(r.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to query sentiment view")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve sentiment")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    sentiments,
	})
}

// GetSymbolSentiment returns the aggregated crowd opinion for one symbol.
// GET /api/signals/sentiment/{symbol}
func (h *SignalHandler) GetSymbolSentiment(w http.ResponseWriter, r *http.Request) {
	symbol := mux.Vars(r)["symbol"]
	if symbol == "" {
		respondError(w, http.StatusBadRequest, "symbol is required")
		return
	}

	sentiment, err := h.signals.SentimentBySymbol(r.Context(), symbol)
	if err != nil {
		respondDomainError(w, err, "Failed to retrieve sentiment")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    sentiment,
	})
}
