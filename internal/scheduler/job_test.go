package scheduler

import (
	"fmt"
	"testing"
	"time"
)

func TestJobHistory_AddResult(t *testing.T) {
	history := &JobHistory{}

	history.AddResult(JobResult{JobName: "test", Success: true})
	history.AddResult(JobResult{JobName: "test", Success: false, Error: "boom"})

	if len(history.Results) != 2 {
		t.Fatalf("Expected 2 results, got %d", len(history.Results))
	}
}

func TestJobHistory_Bounded(t *testing.T) {
	history := &JobHistory{}

	for i := 0; i < maxHistoryResults+50; i++ {
		history.AddResult(JobResult{
			JobName:   "test",
			StartTime: time.Now(),
			Success:   true,
			Error:     fmt.Sprintf("run-%d", i),
		})
	}

	if len(history.Results) != maxHistoryResults {
		t.Errorf("Expected history capped at %d, got %d", maxHistoryResults, len(history.Results))
	}

	// Oldest results are evicted first
	if history.Results[0].Error != "run-50" {
		t.Errorf("Expected oldest surviving result run-50, got %s", history.Results[0].Error)
	}
}

func TestJobHistory_GetLatestResults(t *testing.T) {
	history := &JobHistory{}
	for i := 0; i < 5; i++ {
		history.AddResult(JobResult{Error: fmt.Sprintf("run-%d", i)})
	}

	latest := history.GetLatestResults(2)
	if len(latest) != 2 {
		t.Fatalf("Expected 2 results, got %d", len(latest))
	}
	if latest[1].Error != "run-4" {
		t.Errorf("Expected newest result last, got %s", latest[1].Error)
	}

	// Asking for more than exists returns everything
	all := history.GetLatestResults(100)
	if len(all) != 5 {
		t.Errorf("Expected 5 results, got %d", len(all))
	}

	empty := (&JobHistory{}).GetLatestResults(3)
	if len(empty) != 0 {
		t.Errorf("Expected empty slice, got %v", empty)
	}
}

func TestJobHistory_GetFailedResults(t *testing.T) {
	history := &JobHistory{}
	history.AddResult(JobResult{Success: true})
	history.AddResult(JobResult{Success: false, Error: "first failure"})
	history.AddResult(JobResult{Success: true})
	history.AddResult(JobResult{Success: false, Error: "second failure"})

	failed := history.GetFailedResults()
	if len(failed) != 2 {
		t.Fatalf("Expected 2 failures, got %d", len(failed))
	}
	if failed[0].Error != "first failure" {
		t.Errorf("Unexpected failure order: %v", failed)
	}
}

func TestJobHistory_GetSuccessRate(t *testing.T) {
	history := &JobHistory{}

	if rate := history.GetSuccessRate(); rate != 0.0 {
		t.Errorf("Expected 0.0 for empty history, got %f", rate)
	}

	history.AddResult(JobResult{Success: true})
	history.AddResult(JobResult{Success: true})
	history.AddResult(JobResult{Success: true})
	history.AddResult(JobResult{Success: false})

	if rate := history.GetSuccessRate(); rate != 0.75 {
		t.Errorf("Expected 0.75, got %f", rate)
	}
}
