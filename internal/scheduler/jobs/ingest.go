package jobs

import (
	"context"
	"fmt"

	"github.com/minquant/stocklens/internal/contracts"
	"github.com/minquant/stocklens/internal/external/social"
	"github.com/minquant/stocklens/pkg/logger"
)

// SignalIngestJob scrapes the tracked guru timelines and stores the
// extracted signals
type SignalIngestJob struct {
	scraper *social.Scraper
	signals contracts.SignalRepository
	handles []string
	logger  *logger.Logger
}

// NewSignalIngestJob creates a new signal ingestion job
func NewSignalIngestJob(scraper *social.Scraper, signals contracts.SignalRepository, handles []string, log *logger.Logger) *SignalIngestJob {
	return &SignalIngestJob{
		scraper: scraper,
		signals: signals,
		handles: handles,
		logger:  log,
	}
}

// Name returns the job name
func (j *SignalIngestJob) Name() string {
	return "signal_ingest"
}

// Schedule runs hourly; guru posting cadence does not warrant more
func (j *SignalIngestJob) Schedule() string {
	return "0 0 * * * *"
}

// Run scrapes each tracked handle. A failing handle does not abort the
// pass; failures are reported together at the end.
func (j *SignalIngestJob) Run(ctx context.Context) error {
	if len(j.handles) == 0 {
		j.logger.Warn("No guru handles configured for ingestion")
		return nil
	}

	var failed []string
	saved := 0

	for _, handle := range j.handles {
		posts, err := j.scraper.FetchPosts(ctx, handle)
		if err != nil {
			j.logger.WithError(err).WithField("handle", handle).Error("Timeline fetch failed")
			failed = append(failed, handle)
			continue
		}

		for _, post := range posts {
			signal, ok := social.ToSignal(post)
			if !ok {
				continue
			}

			if err := j.signals.Save(ctx, signal); err != nil {
				j.logger.WithError(err).WithFields(map[string]interface{}{
					"handle": handle,
					"url":    post.URL,
				}).Error("Signal save failed")
				continue
			}
			saved++
		}
	}

	j.logger.WithFields(map[string]interface{}{
		"handles": len(j.handles),
		"saved":   saved,
	}).Info("Signal ingestion finished")

	if len(failed) > 0 {
		return fmt.Errorf("ingestion failed for %d of %d handles: %v", len(failed), len(j.handles), failed)
	}

	return nil
}
