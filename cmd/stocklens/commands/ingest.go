package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/minquant/stocklens/internal/external/social"
	"github.com/minquant/stocklens/internal/scheduler/jobs"
	"github.com/minquant/stocklens/internal/signals"
	"github.com/minquant/stocklens/pkg/config"
	"github.com/minquant/stocklens/pkg/database"
	"github.com/minquant/stocklens/pkg/httputil"
	"github.com/minquant/stocklens/pkg/logger"
	"github.com/minquant/stocklens/pkg/redis"
)

// ingestCmd represents the ingest command
var ingestCmd = &cobra.Command{
	Use:   "ingest [handles...]",
	Short: "Scrape guru timelines and store extracted signals",
	Long: `Scrape guru timelines and store extracted signals.

Fetches the recent posts of each handle, classifies stance, extracts
mentioned symbols and saves the resulting signals. Re-running is safe:
already ingested posts are skipped. With no arguments the configured
SOCIAL_HANDLES are used.

Example:
  go run ./cmd/stocklens ingest
  go run ./cmd/stocklens ingest renyuan_zhang value_hunter`,
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logger.New(cfg)

	db, err := database.New(cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	redisClient, err := redis.New(cfg)
	if err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}
	defer redisClient.Close()

	handles := args
	if len(handles) == 0 {
		handles = cfg.Social.Handles
	}
	if len(handles) == 0 {
		return fmt.Errorf("no handles given and SOCIAL_HANDLES is empty")
	}

	// Scraping shares one politeness budget across all processes
	socialHTTP := httputil.New(cfg, log).
		WithSharedLimiter(redis.NewRateLimiter(redisClient, "stocklens"), redis.SocialRateLimit)

	scraper := social.NewScraper(cfg, socialHTTP, log)
	signalRepo := signals.NewRepository(db.Pool)

	job := jobs.NewSignalIngestJob(scraper, signalRepo, handles, log)

	if err := job.Run(context.Background()); err != nil {
		return err
	}

	fmt.Println("✓ Ingestion finished")
	return nil
}
