// Package stage implements the enrichment stages. Each stage wraps one
// external lookup behind the retry executor, the per-source rate limiter,
// and the per-source circuit breaker, and returns a StageResult the
// orchestrator applies to the domain's record.
package stage

import (
	"context"

	"github.com/daydream-data/domainwatch/internal/model"
	"github.com/daydream-data/domainwatch/internal/ratelimit"
	"github.com/daydream-data/domainwatch/internal/resilience"
)

// Stage names, in pipeline execution order. Risk must run after
// Deliverability because it consumes the deliverability verdict.
const (
	NameRegistration   = "registration"
	NameDNSPosture     = "dns_posture"
	NameLiveness       = "liveness"
	NameNameResolution = "name_resolution"
	NameDeliverability = "deliverability"
	NameRisk           = "risk"
)

// Order is the fixed stage execution order within one domain.
var Order = []string{
	NameRegistration,
	NameDNSPosture,
	NameLiveness,
	NameNameResolution,
	NameDeliverability,
	NameRisk,
}

// Stage is one named enrichment lookup. Run never raises: every failure is
// contained in the returned StageResult. Stages must not mutate the record;
// prior is read-only input for derived stages.
type Stage interface {
	Name() string
	// Source is the rate-limiter and circuit-breaker key of the external
	// source this stage talks to. Derived stages return "".
	Source() string
	Run(ctx context.Context, domain string, prior *model.DomainRecord) model.StageResult
}

// Runner binds the shared per-source rate limiters and circuit breakers
// that gate every stage's lookup attempts.
type Runner struct {
	Limits   *ratelimit.Registry
	Breakers *resilience.SourceBreakers
}

// lookup drives op through the retry executor. Each attempt first consults
// the source's circuit breaker, then waits out the source's rate limiter.
// The spacing wait happens before the request with no lock held across I/O.
func (r *Runner) lookup(ctx context.Context, source string, policy resilience.Policy, op resilience.Operation[model.Fields]) (model.Fields, int, error) {
	gated := func(ctx context.Context) (model.Fields, error) {
		var breaker *resilience.Breaker
		if r.Breakers != nil && source != "" {
			breaker = r.Breakers.Get(source)
			if err := breaker.Allow(); err != nil {
				return nil, err
			}
		}
		if r.Limits != nil && source != "" {
			if err := r.Limits.Acquire(ctx, source); err != nil {
				return nil, err
			}
		}
		fields, err := op(ctx)
		if breaker != nil {
			breaker.Record(err)
		}
		return fields, err
	}
	return resilience.Execute(ctx, policy, gated)
}

// finish converts an executor outcome into a StageResult. Failed results
// never carry fields.
func finish(fields model.Fields, attempts int, err error) model.StageResult {
	if err != nil {
		return model.StageResult{
			Status:   model.StageFailed,
			Error:    string(resilience.KindOf(err)),
			Attempts: attempts,
		}
	}
	return model.StageResult{
		Status:   model.StageSuccess,
		Fields:   fields,
		Attempts: attempts,
	}
}
