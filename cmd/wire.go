package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/daydream-data/domainwatch/internal/extract"
	"github.com/daydream-data/domainwatch/internal/pipeline"
	"github.com/daydream-data/domainwatch/internal/ratelimit"
	"github.com/daydream-data/domainwatch/internal/resilience"
	"github.com/daydream-data/domainwatch/internal/stage"
	"github.com/daydream-data/domainwatch/internal/store"
	"github.com/daydream-data/domainwatch/pkg/abstract"
	"github.com/daydream-data/domainwatch/pkg/rdap"
)

// initStore opens and migrates the run database.
func initStore(ctx context.Context) (*store.SQLiteStore, error) {
	st, err := store.NewSQLite(cfg.Store.Path)
	if err != nil {
		return nil, eris.Wrap(err, "init store")
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close() //nolint:errcheck
		return nil, eris.Wrap(err, "migrate store")
	}
	return st, nil
}

// stagePolicy builds the retry policy for one stage's lookups.
func stagePolicy(source, operation string) resilience.Policy {
	p := resilience.DefaultPolicy()
	if cfg.Retry.MaxAttempts > 0 {
		p.MaxAttempts = cfg.Retry.MaxAttempts
	}
	if d := cfg.Retry.BaseDelay(); d > 0 {
		p.BaseDelay = d
	}
	if d := cfg.Retry.RateLimitWait(); d > 0 {
		p.RateLimitWait = d
	}
	p.OnRetry = resilience.RetryLogger(source, operation)
	return p
}

// buildOrchestrator assembles the full stage sequence with its shared rate
// limiters and circuit breakers.
func buildOrchestrator(st store.Store, concurrency int) *pipeline.Orchestrator {
	runner := &stage.Runner{
		Limits:   ratelimit.NewRegistry(cfg.Limits.DefaultInterval(), cfg.Limits.Intervals()),
		Breakers: resilience.NewSourceBreakers(resilience.DefaultBreakerConfig()),
	}

	rdapClient := rdap.NewClient(rdap.WithBaseURL(cfg.RDAP.BaseURL))
	abstractClient := abstract.NewClient(cfg.Abstract.Key, abstract.WithBaseURL(cfg.Abstract.BaseURL))
	extractor := extract.New(nil)

	stages := []stage.Stage{
		stage.NewRegistration(runner, rdapClient, stagePolicy("rdap", "domain lookup")),
		stage.NewDNSPosture(runner, nil, stagePolicy("dns", "posture lookup")),
		stage.NewLiveness(runner, nil, stagePolicy("site", "liveness probe")),
		stage.NewNameResolution(runner, extractor, stagePolicy("site", "name extraction")),
		stage.NewDeliverability(runner, abstractClient, stagePolicy("abstract", "email validation")),
		stage.NewRisk(),
	}

	if concurrency <= 0 {
		concurrency = cfg.Batch.Concurrency
	}
	return pipeline.New(stages, st, concurrency)
}
