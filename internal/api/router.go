package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/minquant/stocklens/internal/api/handlers"
	"github.com/minquant/stocklens/pkg/logger"
)

// NewRouter creates and configures the HTTP router
func NewRouter(
	stockHandler *handlers.StockHandler,
	reportHandler *handlers.ReportHandler,
	signalHandler *handlers.SignalHandler,
	feed *ReportFeed,
	log *logger.Logger,
) http.Handler {
	r := mux.NewRouter()

	// Health check
	r.HandleFunc("/health", healthCheckHandler).Methods("GET")

	// API v1
	api := r.PathPrefix("/api").Subrouter()

	// Stock registry + dashboard
	api.HandleFunc("/stocks", stockHandler.GetDashboard).Methods("GET")
	api.HandleFunc("/stocks/{code}", stockHandler.GetStock).Methods("GET")
	api.HandleFunc("/stocks/{code}", stockHandler.UpsertStock).Methods("PUT")

	// Report archive + history
	api.HandleFunc("/stocks/{code}/reports", reportHandler.AppendReport).Methods("POST")
	api.HandleFunc("/stocks/{code}/reports", reportHandler.ListReports).Methods("GET")
	api.HandleFunc("/reports/history", reportHandler.GetHistory).Methods("GET")

	// Guru signals
	api.HandleFunc("/signals", signalHandler.IngestSignal).Methods("POST")
	api.HandleFunc("/signals/sentiment", signalHandler.GetSentiment).Methods("GET")
	api.HandleFunc("/signals/sentiment/{symbol}", signalHandler.GetSymbolSentiment).Methods("GET")

	// Live report feed
	if feed != nil {
		api.Handle("/ws/reports", feed).Methods("GET")
	}

	// Apply middleware
	r.Use(loggingMiddleware(log))
	r.Use(recoveryMiddleware(log))

	return r
}

// healthCheckHandler returns server health status
func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  "ok",
		"service": "stocklens-api",
	})
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			next.ServeHTTP(w, r)

			log.WithFields(map[string]interface{}{
				"method":   r.Method,
				"path":     r.URL.Path,
				"duration": time.Since(start),
			}).Debug("HTTP request")
		})
	}
}

// recoveryMiddleware recovers from panics
func recoveryMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					log.WithFields(map[string]interface{}{
						"error": err,
						"path":  r.URL.Path,
					}).Error("Panic recovered")

					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					json.NewEncoder(w).Encode(map[string]string{
						"error": "Internal server error",
					})
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
