package stage

import (
	"context"
	"strings"

	"github.com/daydream-data/domainwatch/internal/model"
	"github.com/daydream-data/domainwatch/internal/names"
	"github.com/daydream-data/domainwatch/internal/resilience"
)

// CandidateSource produces the name candidates for a domain's homepage.
// extract.Extractor is the production implementation.
type CandidateSource interface {
	Candidates(ctx context.Context, domain string) (names.Candidates, error)
}

// NameResolution fetches the homepage's name candidates and picks the best
// display name for the domain.
type NameResolution struct {
	runner *Runner
	source CandidateSource
	bounds names.Bounds
	policy resilience.Policy
}

func NewNameResolution(runner *Runner, source CandidateSource, policy resilience.Policy) *NameResolution {
	return &NameResolution{
		runner: runner,
		source: source,
		bounds: names.DefaultBounds(),
		policy: policy,
	}
}

func (s *NameResolution) Name() string   { return NameNameResolution }
func (s *NameResolution) Source() string { return "site" }

func (s *NameResolution) Run(ctx context.Context, domain string, _ *model.DomainRecord) model.StageResult {
	fields, attempts, err := s.runner.lookup(ctx, s.Source(), s.policy, func(ctx context.Context) (model.Fields, error) {
		cands, err := s.source.Candidates(ctx, domain)
		if err != nil {
			return nil, err
		}

		fields := model.Fields{}
		if name := names.Choose(domain, cands, s.bounds); name != "" {
			fields["best_site_name"] = name
		}
		if len(cands.TitleParts) > 0 {
			fields["website_title"] = strings.Join(cands.TitleParts, " | ")
		}
		if cands.OGSiteName != "" {
			fields["og_site_name"] = cands.OGSiteName
		}
		if cands.SchemaName != "" {
			fields["schema_name"] = cands.SchemaName
		}
		return fields, nil
	})
	return finish(fields, attempts, err)
}
