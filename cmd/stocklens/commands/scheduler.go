package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/minquant/stocklens/internal/external/social"
	"github.com/minquant/stocklens/internal/registry"
	"github.com/minquant/stocklens/internal/scheduler"
	"github.com/minquant/stocklens/internal/scheduler/jobs"
	"github.com/minquant/stocklens/internal/signals"
	"github.com/minquant/stocklens/pkg/config"
	"github.com/minquant/stocklens/pkg/database"
	"github.com/minquant/stocklens/pkg/httputil"
	"github.com/minquant/stocklens/pkg/logger"
	"github.com/minquant/stocklens/pkg/redis"
)

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "Run the job scheduler",
	Long: `Run the job scheduler.

Registered jobs:
  committee_analysis  - weekday 09:30, committee run over the watchlist
  signal_ingest       - hourly, guru timeline scrape

Use --run-now to fire a job immediately on startup.

Example:
  go run ./cmd/stocklens scheduler
  go run ./cmd/stocklens scheduler --run-now committee_analysis`,
	RunE: runScheduler,
}

var runNowJob string

func init() {
	rootCmd.AddCommand(schedulerCmd)

	schedulerCmd.Flags().StringVar(&runNowJob, "run-now", "", "run the named job immediately on startup")
}

func runScheduler(cmd *cobra.Command, args []string) error {
	fmt.Println("=== stocklens Scheduler ===")

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

	instrumentRepo := registry.NewRepository(db.Pool)
	signalRepo := signals.NewRepository(db.Pool)

	runner := newRunner(cfg, db, log)

	socialHTTP := httputil.New(cfg, log).
		WithSharedLimiter(redis.NewRateLimiter(redisClient, "stocklens"), redis.SocialRateLimit)
	scraper := social.NewScraper(cfg, socialHTTP, log)

	sched := scheduler.New(log)

	analysisJob := jobs.NewAnalysisJob(runner, instrumentRepo, cfg.Watchlist, log)
	if err := sched.AddJob(analysisJob); err != nil {
		return fmt.Errorf("add analysis job: %w", err)
	}

	ingestJob := jobs.NewSignalIngestJob(scraper, signalRepo, cfg.Social.Handles, log)
	if err := sched.AddJob(ingestJob); err != nil {
		return fmt.Errorf("add ingest job: %w", err)
	}

	sched.Start()

	if runNowJob != "" {
		if err := sched.RunJob(runNowJob); err != nil {
			log.WithError(err).WithField("job", runNowJob).Error("Immediate run failed")
		}
	}

	fmt.Println("\nScheduler running. Press Ctrl+C to stop")
	for _, name := range sched.GetAllJobs() {
		fmt.Printf("  - %s\n", name)
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	sched.Stop()

	printJobSummary(sched)
	return nil
}

// printJobSummary dumps per-job run statistics on shutdown
func printJobSummary(sched *scheduler.Scheduler) {
	stats := sched.GetJobStats()
	if len(stats) == 0 {
		return
	}

	fmt.Println("\nJob summary:")
	for name, st := range stats {
		fmt.Printf("  %-20s runs=%d success=%.0f%%\n", name, st.TotalRuns, st.SuccessRate*100)

		history, err := sched.GetJobHistory(name)
		if err != nil {
			continue
		}
		if failed := history.GetFailedResults(); len(failed) > 0 {
			fmt.Printf("    last error: %s\n", failed[len(failed)-1].Error)
		}
	}
}
