package stage

import (
	"context"
	"errors"
	"net"
	"strings"
	"time"

	"github.com/daydream-data/domainwatch/internal/model"
	"github.com/daydream-data/domainwatch/internal/resilience"
	"github.com/daydream-data/domainwatch/pkg/rdap"
)

// Registration looks up a domain's RDAP registration data: lifecycle dates
// and the registrar's name and contact details.
type Registration struct {
	runner *Runner
	client rdap.Client
	policy resilience.Policy
}

func NewRegistration(runner *Runner, client rdap.Client, policy resilience.Policy) *Registration {
	return &Registration{runner: runner, client: client, policy: policy}
}

func (s *Registration) Name() string   { return NameRegistration }
func (s *Registration) Source() string { return "rdap" }

func (s *Registration) Run(ctx context.Context, domain string, _ *model.DomainRecord) model.StageResult {
	fields, attempts, err := s.runner.lookup(ctx, s.Source(), s.policy, func(ctx context.Context) (model.Fields, error) {
		resp, err := s.client.LookupDomain(ctx, domain)
		if err != nil {
			return nil, classifyRDAPError(err)
		}
		return registrationFields(resp), nil
	})
	return finish(fields, attempts, err)
}

// classifyRDAPError maps client errors onto the retry taxonomy. Unregistered
// domains (404) and unresolvable registries are permanent; everything else
// the lookup can hit is worth retrying.
func classifyRDAPError(err error) error {
	var httpErr *rdap.HTTPError
	if errors.As(err, &httpErr) {
		return resilience.ClassifyHTTPStatus(httpErr.StatusCode, err, httpErr.RetryAfter)
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) && dnsErr.IsNotFound {
		return resilience.NewPermanentError(resilience.KindDNSFailure, err)
	}
	if resilience.IsTransient(err) {
		return err
	}
	// Truncated or invalid RDAP bodies show up here.
	return resilience.NewTransientError(resilience.KindMalformed, err, 0)
}

func registrationFields(resp *rdap.DomainResponse) model.Fields {
	fields := model.Fields{}

	if dates := resp.EventDates(rdap.ActionRegistration); len(dates) > 0 {
		fields["registration_date"] = dates[0].UTC().Format(time.RFC3339)
	}
	if dates := resp.EventDates(rdap.ActionLastChanged); len(dates) > 0 {
		fields["last_updated"] = latest(dates).UTC().Format(time.RFC3339)
	}
	if dates := resp.EventDates(rdap.ActionExpiration); len(dates) > 0 {
		fields["expiration_date"] = dates[0].UTC().Format(time.RFC3339)
	}

	registrar := resp.Registrar()
	if registrar == nil {
		return fields
	}
	if name := registrar.VCardText("fn"); name != "" {
		fields["registrar_name"] = name
	}
	if email := registrarEmail(registrar); email != "" {
		fields["registrar_email"] = email
		if at := strings.LastIndex(email, "@"); at >= 0 && at < len(email)-1 {
			fields["registrar_url"] = "https://" + email[at+1:]
		}
	}
	return fields
}

// registrarEmail prefers the contact sub-entities (abuse, technical) and
// falls back to the registrar's own vcard.
func registrarEmail(registrar *rdap.Entity) string {
	for i := range registrar.Entities {
		if email := registrar.Entities[i].VCardText("email"); email != "" {
			return email
		}
	}
	return registrar.VCardText("email")
}

func latest(dates []time.Time) time.Time {
	max := dates[0]
	for _, d := range dates[1:] {
		if d.After(max) {
			max = d
		}
	}
	return max
}
