package stage

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/daydream-data/domainwatch/internal/model"
	"github.com/daydream-data/domainwatch/internal/resilience"
)

// Liveness probes whether anything answers on the domain's website. HTTPS
// is tried first, then plain HTTP; a 2xx/3xx response on either scheme is
// proof of life and short-circuits the remaining probe. Redirects are not
// followed: a redirecting site is a live site. The stage always succeeds
// with a boolean verdict.
type Liveness struct {
	runner *Runner
	http   *http.Client
	policy resilience.Policy
}

func NewLiveness(runner *Runner, client *http.Client, policy resilience.Policy) *Liveness {
	if client == nil {
		client = &http.Client{
			Timeout: 15 * time.Second,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		}
	}
	return &Liveness{runner: runner, http: client, policy: policy}
}

func (s *Liveness) Name() string   { return NameLiveness }
func (s *Liveness) Source() string { return "site" }

func (s *Liveness) Run(ctx context.Context, domain string, _ *model.DomainRecord) model.StageResult {
	fields, attempts, err := s.runner.lookup(ctx, s.Source(), s.policy, func(ctx context.Context) (model.Fields, error) {
		return model.Fields{"is_live_site": s.probe(ctx, domain)}, nil
	})
	return finish(fields, attempts, err)
}

func (s *Liveness) probe(ctx context.Context, domain string) bool {
	for _, scheme := range []string{"https", "http"} {
		if s.probeScheme(ctx, scheme+"://"+domain) {
			return true
		}
	}
	return false
}

func (s *Liveness) probeScheme(ctx context.Context, url string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false
	}
	resp, err := s.http.Do(req)
	if err != nil {
		// A redirect loop still means something answered.
		return strings.Contains(err.Error(), "stopped after")
	}
	io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<16)) //nolint:errcheck
	resp.Body.Close()                                     //nolint:errcheck
	return resp.StatusCode >= 200 && resp.StatusCode < 400
}
