// Package pipeline orchestrates batch domain enrichment: a bounded worker
// pool fans out over domains while each domain walks the stage sequence in
// strict order. Stage failures are contained per stage; a cancelled run
// still yields partial records for the work already done.
package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/daydream-data/domainwatch/internal/model"
	"github.com/daydream-data/domainwatch/internal/resilience"
	"github.com/daydream-data/domainwatch/internal/stage"
	"github.com/daydream-data/domainwatch/internal/store"
)

// Orchestrator runs the enrichment stages over a batch of domains.
type Orchestrator struct {
	stages      []stage.Stage
	store       store.Store
	concurrency int
}

// New creates an Orchestrator. The store is optional; without one runs are
// not persisted. Concurrency below 1 is clamped to 1.
func New(stages []stage.Stage, st store.Store, concurrency int) *Orchestrator {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Orchestrator{
		stages:      stages,
		store:       st,
		concurrency: concurrency,
	}
}

// EnrichAll processes the batch and returns one record per input domain, in
// input order. Every record comes back regardless of how its stages fared;
// the error reports run-level problems (persistence), never stage failures.
func (o *Orchestrator) EnrichAll(ctx context.Context, source model.RunSource, domains []string) ([]*model.DomainRecord, *model.RunResult, error) {
	log := zap.L().With(zap.String("source", string(source)), zap.Int("domains", len(domains)))
	log.Info("pipeline: starting run")
	start := time.Now()

	var run *model.Run
	if o.store != nil {
		created, err := o.store.CreateRun(ctx, source, len(domains))
		if err != nil {
			return nil, nil, eris.Wrap(err, "pipeline: create run")
		}
		run = created
		o.setStatus(ctx, run.ID, model.RunStatusRunning)
	}

	records := make([]*model.DomainRecord, len(domains))
	result := &model.RunResult{}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.concurrency)
	for i, domain := range domains {
		i, domain := i, domain
		g.Go(func() error {
			rec := o.enrichDomain(gctx, domain)
			mu.Lock()
			records[i] = rec
			result.DomainsProcessed++
			for name, res := range rec.Stages {
				result.Add(name, res.Status)
			}
			mu.Unlock()
			// Per-domain outcomes never abort the batch.
			return nil
		})
	}
	g.Wait() //nolint:errcheck

	result.DurationMS = time.Since(start).Milliseconds()
	status := model.RunStatusComplete
	if ctx.Err() != nil {
		status = model.RunStatusCancelled
		result.Error = ctx.Err().Error()
	}

	if o.store != nil {
		// Persist with a fresh context so a cancelled run still lands.
		saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
		defer cancel()
		if err := o.store.SaveRecords(saveCtx, run.ID, records); err != nil {
			return records, result, eris.Wrap(err, "pipeline: save records")
		}
		if err := o.store.CompleteRun(saveCtx, run.ID, status, result); err != nil {
			return records, result, eris.Wrap(err, "pipeline: complete run")
		}
	}

	log.Info("pipeline: run finished",
		zap.String("status", string(status)),
		zap.Int64("duration_ms", result.DurationMS),
	)
	return records, result, nil
}

// enrichDomain walks the stage sequence for one domain. Once the context is
// cancelled the in-flight stage finishes its current attempt and every
// remaining stage is marked skipped.
func (o *Orchestrator) enrichDomain(ctx context.Context, domain string) *model.DomainRecord {
	rec := model.NewDomainRecord(domain)
	log := zap.L().With(zap.String("domain", rec.Domain))

	for _, st := range o.stages {
		if ctx.Err() != nil {
			rec.Apply(st.Name(), model.StageResult{Status: model.StageSkipped})
			continue
		}

		res := runStage(ctx, st, rec.Domain, rec)
		rec.Apply(st.Name(), res)

		switch res.Status {
		case model.StageFailed:
			log.Warn("pipeline: stage failed",
				zap.String("stage", st.Name()),
				zap.String("kind", res.Error),
				zap.Int("attempts", res.Attempts),
			)
		default:
			log.Debug("pipeline: stage complete",
				zap.String("stage", st.Name()),
				zap.Int("attempts", res.Attempts),
			)
		}
	}
	return rec
}

// runStage contains panics so one misbehaving stage cannot take down the
// whole batch.
func runStage(ctx context.Context, st stage.Stage, domain string, rec *model.DomainRecord) (res model.StageResult) {
	defer func() {
		if r := recover(); r != nil {
			zap.L().Error("pipeline: stage panicked",
				zap.String("stage", st.Name()),
				zap.String("domain", domain),
				zap.Any("panic", r),
			)
			res = model.StageResult{
				Status:   model.StageFailed,
				Error:    string(resilience.KindUnclassified),
				Attempts: 1,
			}
		}
	}()
	return st.Run(ctx, domain, rec)
}

func (o *Orchestrator) setStatus(ctx context.Context, runID string, status model.RunStatus) {
	if err := o.store.UpdateRunStatus(ctx, runID, status); err != nil {
		zap.L().Warn("pipeline: failed to update run status",
			zap.String("run_id", runID),
			zap.Error(err),
		)
	}
}
