package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/minquant/stocklens/internal/api"
	"github.com/minquant/stocklens/internal/api/handlers"
	"github.com/minquant/stocklens/internal/registry"
	"github.com/minquant/stocklens/internal/reports"
	"github.com/minquant/stocklens/internal/signals"
	"github.com/minquant/stocklens/internal/views"
	"github.com/minquant/stocklens/pkg/config"
	"github.com/minquant/stocklens/pkg/database"
	"github.com/minquant/stocklens/pkg/logger"
	"github.com/minquant/stocklens/pkg/redis"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Start the REST API server",
	Long: `Start the REST API server.

Endpoints:
  GET  /health                        - Health check
  GET  /api/stocks                    - Dashboard view
  GET  /api/stocks/{code}             - Instrument with latest-report cache
  PUT  /api/stocks/{code}             - Upsert descriptive fields
  POST /api/stocks/{code}/reports     - Append a versioned report
  GET  /api/stocks/{code}/reports     - Report archive for a symbol
  GET  /api/reports/history           - Cross-symbol report history
  POST /api/signals                   - Ingest a guru signal
  GET  /api/signals/sentiment         - Aggregated crowd sentiment
  GET  /api/signals/sentiment/{sym}   - Sentiment for one symbol
  GET  /api/ws/reports                - Live report feed (websocket)

Example:
  go run ./cmd/stocklens api
  go run ./cmd/stocklens api --port 8090`,
	RunE: runAPIServer,
}

var apiPort string

func init() {
	rootCmd.AddCommand(apiCmd)

	apiCmd.Flags().StringVar(&apiPort, "port", "", "API server port (overrides PORT)")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	fmt.Println("=== stocklens API Server ===")

	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if apiPort != "" {
		cfg.Port = apiPort
	}

	// 2. Initialize logger
	log := logger.New(cfg)

	log.WithFields(map[string]interface{}{
		"port": cfg.Port,
		"env":  cfg.Env,
	}).Info("Initializing API server")

	// 3. Connect to database
	db, err := database.New(cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	log.Info("Connected to database")

	// 4. Connect to Redis (optional; disabled client degrades to no cache)
	redisClient, err := redis.New(cfg)
	if err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}
	defer redisClient.Close()

	cache := redis.NewCache(redisClient, "stocklens")

	// 5. Create repositories
	instrumentRepo := registry.NewRepository(db.Pool)
	reportRepo := reports.NewRepository(db.Pool)
	signalRepo := signals.NewRepository(db.Pool)
	viewRepo := views.NewRepository(db.Pool, cache, log)

	// 6. Create websocket feed
	feed := api.NewReportFeed(log)

	// 7. Create handlers
	stockHandler := handlers.NewStockHandler(instrumentRepo, viewRepo, log)
	reportHandler := handlers.NewReportHandler(reportRepo, viewRepo, feed, log)
	signalHandler := handlers.NewSignalHandler(signalRepo, log)

	// 8. Create router and server
	router := api.NewRouter(stockHandler, reportHandler, signalHandler, feed, log)
	server := api.New(cfg, log, router)

	// 9. Start server with graceful shutdown
	go func() {
		if err := server.Start(); err != nil {
			log.WithError(err).Fatal("Failed to start server")
		}
	}()

	log.Info("API server started successfully")
	fmt.Printf("\nServer running on http://localhost:%s\n", cfg.Port)
	fmt.Println("Press Ctrl+C to stop")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Info("Server stopped")
	return nil
}
