package stage

import (
	"context"
	"errors"

	"github.com/daydream-data/domainwatch/internal/model"
	"github.com/daydream-data/domainwatch/internal/resilience"
	"github.com/daydream-data/domainwatch/pkg/abstract"
)

// Deliverability validates a probe mailbox at the domain through the
// Abstract email-validation API and records the verdict plus the
// supporting flags.
type Deliverability struct {
	runner *Runner
	client abstract.Client
	policy resilience.Policy
}

func NewDeliverability(runner *Runner, client abstract.Client, policy resilience.Policy) *Deliverability {
	return &Deliverability{runner: runner, client: client, policy: policy}
}

func (s *Deliverability) Name() string   { return NameDeliverability }
func (s *Deliverability) Source() string { return "abstract" }

func (s *Deliverability) Run(ctx context.Context, domain string, _ *model.DomainRecord) model.StageResult {
	fields, attempts, err := s.runner.lookup(ctx, s.Source(), s.policy, func(ctx context.Context) (model.Fields, error) {
		v, err := s.client.ValidateEmail(ctx, "test@"+domain)
		if err != nil {
			var httpErr *abstract.HTTPError
			if errors.As(err, &httpErr) {
				return nil, resilience.ClassifyHTTPStatus(httpErr.StatusCode, err, httpErr.RetryAfter)
			}
			if resilience.IsTransient(err) {
				return nil, err
			}
			return nil, resilience.NewTransientError(resilience.KindMalformed, err, 0)
		}

		return model.Fields{
			"deliverability":      v.Deliverability,
			"quality_score":       v.QualityScore,
			"is_valid_format":     v.IsValidFormat.Value,
			"is_free_email":       v.IsFreeEmail.Value,
			"is_disposable_email": v.IsDisposableEmail.Value,
			"is_role_email":       v.IsRoleEmail.Value,
			"is_catchall_email":   v.IsCatchallEmail.Value,
			"is_mx_found":         v.IsMXFound.Value,
			"is_smtp_valid":       v.IsSMTPValid.Value,
		}, nil
	})
	return finish(fields, attempts, err)
}
