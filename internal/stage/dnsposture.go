package stage

import (
	"context"
	"net"
	"strings"

	"github.com/daydream-data/domainwatch/internal/model"
	"github.com/daydream-data/domainwatch/internal/resilience"
)

// UnknownMX is the placeholder recorded when the MX lookup yields nothing.
const UnknownMX = "Unknown"

// Resolver is the subset of net.Resolver the posture checks need.
type Resolver interface {
	LookupMX(ctx context.Context, name string) ([]*net.MX, error)
	LookupTXT(ctx context.Context, name string) ([]string, error)
}

// DNSPosture inspects a domain's mail configuration: MX hosts, SPF
// strictness, and DMARC enforcement. The three lookups are independent and
// each one degrades to its default on failure, so the stage as a whole
// always succeeds.
type DNSPosture struct {
	runner   *Runner
	resolver Resolver
	policy   resilience.Policy
}

func NewDNSPosture(runner *Runner, resolver Resolver, policy resilience.Policy) *DNSPosture {
	if resolver == nil {
		resolver = net.DefaultResolver
	}
	return &DNSPosture{runner: runner, resolver: resolver, policy: policy}
}

func (s *DNSPosture) Name() string   { return NameDNSPosture }
func (s *DNSPosture) Source() string { return "dns" }

func (s *DNSPosture) Run(ctx context.Context, domain string, _ *model.DomainRecord) model.StageResult {
	fields, attempts, err := s.runner.lookup(ctx, s.Source(), s.policy, func(ctx context.Context) (model.Fields, error) {
		return model.Fields{
			"mx_records":        s.mxHosts(ctx, domain),
			"is_spf_strict":     s.spfStrict(ctx, domain),
			"is_dmarc_enforced": s.dmarcEnforced(ctx, domain),
		}, nil
	})
	return finish(fields, attempts, err)
}

func (s *DNSPosture) mxHosts(ctx context.Context, domain string) string {
	records, err := s.resolver.LookupMX(ctx, domain)
	if err != nil || len(records) == 0 {
		return UnknownMX
	}
	hosts := make([]string, 0, len(records))
	for _, r := range records {
		hosts = append(hosts, r.Host)
	}
	return strings.Join(hosts, ", ")
}

// spfStrict reports whether the domain's SPF policy hard- or soft-fails
// unauthorized senders. Only the first v=spf1 record counts.
func (s *DNSPosture) spfStrict(ctx context.Context, domain string) bool {
	records, err := s.resolver.LookupTXT(ctx, domain)
	if err != nil {
		return false
	}
	for _, txt := range records {
		if !strings.Contains(txt, "v=spf1") {
			continue
		}
		return strings.Contains(txt, "-all") || strings.Contains(txt, "~all")
	}
	return false
}

// dmarcEnforced reports whether _dmarc.<domain> publishes a reject or
// quarantine policy.
func (s *DNSPosture) dmarcEnforced(ctx context.Context, domain string) bool {
	records, err := s.resolver.LookupTXT(ctx, "_dmarc."+domain)
	if err != nil {
		return false
	}
	for _, txt := range records {
		if !strings.Contains(txt, "v=DMARC1") {
			continue
		}
		if strings.Contains(txt, "p=reject") || strings.Contains(txt, "p=quarantine") {
			return true
		}
		if strings.Contains(txt, "p=none") {
			return false
		}
	}
	return false
}
