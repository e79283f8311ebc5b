package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/minquant/stocklens/pkg/config"
	"github.com/minquant/stocklens/pkg/logger"
)

type stubJob struct {
	name string
	err  error
	runs int
}

func (j *stubJob) Name() string                  { return j.name }
func (j *stubJob) Schedule() string              { return "0 0 * * * *" }
func (j *stubJob) Run(ctx context.Context) error { j.runs++; return j.err }

func testScheduler() *Scheduler {
	log := logger.New(&config.Config{Env: "development", LogLevel: "error", LogFormat: "json"})
	s := New(log)
	// Keep failure-path tests fast
	s.maxRetries = 0
	s.retryDelay = time.Millisecond
	return s
}

func TestScheduler_AddJobDuplicate(t *testing.T) {
	s := testScheduler()

	if err := s.AddJob(&stubJob{name: "stub"}); err != nil {
		t.Fatalf("AddJob failed: %v", err)
	}
	if err := s.AddJob(&stubJob{name: "stub"}); err == nil {
		t.Error("Expected error when adding duplicate job name")
	}
}

func TestScheduler_GetJobStats(t *testing.T) {
	s := testScheduler()

	job := &stubJob{name: "stub"}
	if err := s.AddJob(job); err != nil {
		t.Fatalf("AddJob failed: %v", err)
	}

	s.runJob(job)
	s.runJob(job)
	job.err = errors.New("boom")
	s.runJob(job)

	stats := s.GetJobStats()
	st, ok := stats["stub"]
	if !ok {
		t.Fatal("Expected stats for job stub")
	}
	if st.TotalRuns != 3 {
		t.Errorf("Expected 3 runs, got %d", st.TotalRuns)
	}
	if st.SuccessCount != 2 || st.FailureCount != 1 {
		t.Errorf("Expected 2 successes and 1 failure, got %d/%d", st.SuccessCount, st.FailureCount)
	}
	if st.LastFailure == nil {
		t.Error("Expected last failure to be recorded")
	}
	if st.Schedule != job.Schedule() {
		t.Errorf("Expected schedule %q, got %q", job.Schedule(), st.Schedule)
	}
}

func TestScheduler_GetJobHistory(t *testing.T) {
	s := testScheduler()

	job := &stubJob{name: "stub", err: errors.New("boom")}
	if err := s.AddJob(job); err != nil {
		t.Fatalf("AddJob failed: %v", err)
	}
	s.runJob(job)

	history, err := s.GetJobHistory("stub")
	if err != nil {
		t.Fatalf("GetJobHistory failed: %v", err)
	}

	failed := history.GetFailedResults()
	if len(failed) != 1 {
		t.Fatalf("Expected 1 failed result, got %d", len(failed))
	}
	if failed[0].Error != "boom" {
		t.Errorf("Expected error boom, got %s", failed[0].Error)
	}

	if _, err := s.GetJobHistory("missing"); err == nil {
		t.Error("Expected error for unknown job name")
	}
}
