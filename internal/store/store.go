package store

import (
	"context"

	"github.com/daydream-data/domainwatch/internal/model"
)

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	Status model.RunStatus `json:"status,omitempty"`
	Source model.RunSource `json:"source,omitempty"`
	Limit  int             `json:"limit,omitempty"`
	Offset int             `json:"offset,omitempty"`
}

// Store defines the persistence interface for enrichment runs and the
// domain records they produce.
type Store interface {
	// Runs
	CreateRun(ctx context.Context, source model.RunSource, domainsTotal int) (*model.Run, error)
	UpdateRunStatus(ctx context.Context, runID string, status model.RunStatus) error
	CompleteRun(ctx context.Context, runID string, status model.RunStatus, result *model.RunResult) error
	GetRun(ctx context.Context, runID string) (*model.Run, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error)

	// Records
	SaveRecords(ctx context.Context, runID string, records []*model.DomainRecord) error
	ListRecords(ctx context.Context, runID string) ([]*model.DomainRecord, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
