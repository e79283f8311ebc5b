package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/minquant/stocklens/internal/contracts"
	"github.com/minquant/stocklens/pkg/logger"
)

// StockHandler handles stock registry and dashboard endpoints
type StockHandler struct {
	instruments contracts.InstrumentRepository
	views       contracts.ViewRepository
	logger      *logger.Logger
}

// NewStockHandler creates a new stock handler
func NewStockHandler(instruments contracts.InstrumentRepository, views contracts.ViewRepository, log *logger.Logger) *StockHandler {
	return &StockHandler{
		instruments: instruments,
		views:       views,
		logger:      log,
	}
}

// GetDashboard returns the dashboard view: instruments with at least one
// report, their latest scores and report stats.
// GET /api/stocks
func (h *StockHandler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	rows, err := h.views.Dashboard(r.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to query dashboard view")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve dashboard")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    rows,
	})
}

// GetStock returns one instrument with its latest-report cache.
// GET /api/stocks/{code}
func (h *StockHandler) GetStock(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["code"]
	if code == "" {
		respondError(w, http.StatusBadRequest, "stock code is required")
		return
	}

	instrument, err := h.instruments.Get(r.Context(), code)
	if err != nil {
		respondDomainError(w, err, "Failed to retrieve instrument")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    instrument,
	})
}

// UpsertRequest carries the descriptive fields a caller may set.
// Latest-report fields are not accepted here; they are owned by report
// propagation.
type UpsertRequest struct {
	Name     string  `json:"name"`
	Market   string  `json:"market"`
	Industry string  `json:"industry"`
	Price    float64 `json:"price"`
	Turnover float64 `json:"turnover"`
}

// UpsertStock creates or updates an instrument's descriptive fields.
// PUT /api/stocks/{code}
func (h *StockHandler) UpsertStock(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["code"]
	if code == "" {
		respondError(w, http.StatusBadRequest, "stock code is required")
		return
	}

	var req UpsertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	instrument := &contracts.Instrument{
		Code:     code,
		Name:     req.Name,
		Market:   req.Market,
		Industry: req.Industry,
		Price:    req.Price,
		Turnover: req.Turnover,
	}

	if err := instrument.ValidateDescriptive(); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.instruments.Upsert(r.Context(), instrument); err != nil {
		h.logger.WithError(err).WithField("code", code).Error("Failed to upsert instrument")
		respondError(w, http.StatusInternalServerError, "Failed to upsert instrument")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"code":    code,
	})
}
