package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/minquant/stocklens/pkg/config"
	"github.com/minquant/stocklens/pkg/database"
	"github.com/minquant/stocklens/pkg/logger"
	"github.com/minquant/stocklens/pkg/redis"
)

// statusCmd represents the status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show store health and row counts",
	Long: `Show store health and row counts.

Checks database and Redis connectivity and prints how many
instruments, reports and signals the store currently holds.

Example:
  go run ./cmd/stocklens status`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	fmt.Println("=== stocklens Status ===")

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logger.New(cfg)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := database.New(cfg)
	if err != nil {
		fmt.Println("✗ Database: unreachable")
		return err
	}
	defer db.Close()

	health, err := db.HealthCheck(ctx)
	if err != nil {
		fmt.Println("✗ Database: unhealthy")
		return err
	}
	fmt.Printf("✓ Database: healthy (%v)\n", health.ResponseTime)
	fmt.Printf("  pool: %d/%d connections in use\n", health.Stats.AcquiredConns, health.Stats.TotalConns)

	redisClient, err := redis.New(cfg)
	if err != nil {
		fmt.Println("✗ Redis: unreachable")
		log.WithError(err).Warn("Redis check failed")
	} else {
		defer redisClient.Close()
		if redisClient.Enabled() {
			fmt.Println("✓ Redis: healthy")
		} else {
			fmt.Println("- Redis: disabled")
		}
	}

	counts := map[string]string{
		"instruments": `SELECT COUNT(*) FROM instruments`,
		"reports":     `SELECT COUNT(*) FROM reports`,
		"signals":     `SELECT COUNT(*) FROM guru_signals`,
	}

	fmt.Println("\nRow counts:")
	for _, name := range []string{"instruments", "reports", "signals"} {
		var n int64
		if err := db.Pool.QueryRow(ctx, counts[name]).Scan(&n); err != nil {
			fmt.Printf("  %-12s ?  (%v)\n", name, err)
			continue
		}
		fmt.Printf("  %-12s %d\n", name, n)
	}

	return nil
}
