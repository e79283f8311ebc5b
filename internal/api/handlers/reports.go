package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/minquant/stocklens/internal/contracts"
	"github.com/minquant/stocklens/pkg/logger"
)

// Broadcaster pushes events to connected feed clients
type Broadcaster interface {
	Broadcast(eventType string, payload interface{})
}

// ReportHandler handles report archive and history endpoints
type ReportHandler struct {
	reports contracts.ReportRepository
	views   contracts.ViewRepository
	feed    Broadcaster
	logger  *logger.Logger
}

// NewReportHandler creates a new report handler. feed may be nil when no
// websocket feed is running.
func NewReportHandler(reports contracts.ReportRepository, views contracts.ViewRepository, feed Broadcaster, log *logger.Logger) *ReportHandler {
	return &ReportHandler{
		reports: reports,
		views:   views,
		feed:    feed,
		logger:  log,
	}
}

// AppendRequest is the body of a report append call
type AppendRequest struct {
	Version        string            `json:"version"`
	Sections       map[string]string `json:"sections"`
	ScoreGrowth    *float64          `json:"score_growth"`
	ScoreValue     *float64          `json:"score_value"`
	ScoreTechnical *float64          `json:"score_technical"`
	Verdict        string            `json:"verdict"`
	Confidence     int               `json:"confidence"`
	Snapshot       json.RawMessage   `json:"snapshot,omitempty"`
}

// AppendReport archives a new immutable report and propagates its scores
// into the instrument's latest fields.
// POST /api/stocks/{code}/reports
func (h *ReportHandler) AppendReport(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["code"]
	if code == "" {
		respondError(w, http.StatusBadRequest, "stock code is required")
		return
	}

	var req AppendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	verdict, err := contracts.ParseVerdict(req.Verdict)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	report := &contracts.Report{
		Symbol:          code,
		Version:         req.Version,
		Sections:        req.Sections,
		ScoreGrowth:     req.ScoreGrowth,
		ScoreValue:      req.ScoreValue,
		ScoreTechnical:  req.ScoreTechnical,
		Composite:       contracts.CompositeScore(req.ScoreGrowth, req.ScoreValue),
		Verdict:         verdict,
		Confidence:      req.Confidence,
		ConfidenceLabel: contracts.ConfidenceLabel(req.Confidence),
		Snapshot:        req.Snapshot,
	}

	if err := report.Validate(); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.reports.Append(r.Context(), report); err != nil {
		h.logger.WithError(err).WithFields(map[string]interface{}{
			"code":    code,
			"version": req.Version,
		}).Warn("Report append rejected")
		respondDomainError(w, err, "Failed to append report")
		return
	}

	if h.feed != nil {
		h.feed.Broadcast("report.appended", report)
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"data":    report,
	})
}

// ListReports returns the archived reports of one symbol, newest first.
// GET /api/stocks/{code}/reports?limit=50&offset=0
func (h *ReportHandler) ListReports(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["code"]
	if code == "" {
		respondError(w, http.StatusBadRequest, "stock code is required")
		return
	}

	limit, offset := parsePagination(r, 50)

	list, err := h.reports.ListBySymbol(r.Context(), code, limit, offset)
	if err != nil {
		h.logger.WithError(err).WithField("code", code).Error("Failed to list reports")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve reports")
		return
	}

	count, err := h.reports.CountBySymbol(r.Context(), code)
	if err != nil {
		h.logger.WithError(err).WithField("code", code).Error("Failed to count reports")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve reports")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    list,
		"total":   count,
	})
}

// GetHistory returns the cross-symbol report history view.
// GET /api/reports/history?symbol=600519&limit=100&offset=0
func (h *ReportHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	symbol := r.URL.Query().Get("symbol")
	limit, offset := parsePagination(r, 100)

	entries, err := h.views.History(r.Context(), symbol, limit, offset)
	if err != nil {
		h.logger.WithError(err).Error("Failed to query history view")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve history")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    entries,
	})
}

// parsePagination reads limit/offset query params with sane bounds
func parsePagination(r *http.Request, defaultLimit int) (limit, offset int) {
	limit = defaultLimit
	if s := r.URL.Query().Get("limit"); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v > 0 && v <= 500 {
			limit = v
		}
	}
	if s := r.URL.Query().Get("offset"); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v >= 0 {
			offset = v
		}
	}
	return limit, offset
}
