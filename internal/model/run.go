package model

import "time"

// RunStatus represents the current state of an enrichment run.
type RunStatus string

const (
	RunStatusQueued    RunStatus = "queued"
	RunStatusRunning   RunStatus = "running"
	RunStatusComplete  RunStatus = "complete"
	RunStatusCancelled RunStatus = "cancelled"
	RunStatusFailed    RunStatus = "failed"
)

// RunSource describes where the batch's domains came from.
type RunSource string

const (
	RunSourceCSV  RunSource = "csv"
	RunSourceFeed RunSource = "feed"
	RunSourceAPI  RunSource = "api"
)

// Run represents a single batch enrichment run.
type Run struct {
	ID           string     `json:"id"`
	Source       RunSource  `json:"source"`
	DomainsTotal int        `json:"domains_total"`
	Status       RunStatus  `json:"status"`
	Result       *RunResult `json:"result,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// StageCounts tallies per-stage outcomes across a run.
type StageCounts struct {
	Success int `json:"success"`
	Failed  int `json:"failed"`
	Skipped int `json:"skipped"`
}

// RunResult holds the final outcome of a run: how many domains were
// processed and how each stage fared, for operational visibility.
type RunResult struct {
	DomainsProcessed int                    `json:"domains_processed"`
	StageCounts      map[string]StageCounts `json:"stage_counts"`
	DurationMS       int64                  `json:"duration_ms"`
	Error            string                 `json:"error,omitempty"`
}

// Add folds a single stage result into the tally.
func (r *RunResult) Add(stage string, status StageStatus) {
	if r.StageCounts == nil {
		r.StageCounts = make(map[string]StageCounts)
	}
	c := r.StageCounts[stage]
	switch status {
	case StageSuccess:
		c.Success++
	case StageFailed:
		c.Failed++
	case StageSkipped:
		c.Skipped++
	}
	r.StageCounts[stage] = c
}
