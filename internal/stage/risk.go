package stage

import (
	"context"
	"strings"
	"time"

	"github.com/daydream-data/domainwatch/internal/model"
	"github.com/daydream-data/domainwatch/pkg/abstract"
)

// Risk derives the final assessment fields from what earlier stages
// collected. It makes no network calls and always succeeds.
type Risk struct {
	now func() time.Time
}

func NewRisk() *Risk {
	return &Risk{now: time.Now}
}

func (s *Risk) Name() string   { return NameRisk }
func (s *Risk) Source() string { return "" }

func (s *Risk) Run(_ context.Context, _ string, prior *model.DomainRecord) model.StageResult {
	fields := model.Fields{
		"domain_risk_level":   "HIGH",
		"record_last_updated": s.now().UTC().Format("January, 2006"),
	}

	if provider := providerFor(prior.StringField("mx_records")); provider != "" {
		fields["provider_name"] = provider
	}

	// The score is a fixed mapping of the deliverability verdict; an
	// unavailable or unknown verdict leaves it unset.
	switch prior.StringField("deliverability") {
	case abstract.Deliverable:
		fields["domain_risk_score"] = 15
	case abstract.Undeliverable:
		fields["domain_risk_score"] = 5
	}

	return model.StageResult{
		Status:   model.StageSuccess,
		Fields:   fields,
		Attempts: 1,
	}
}

// providerRules maps MX host substrings to mail providers. Order matters:
// the first match wins.
var providerRules = []struct {
	substr   string
	provider string
}{
	{"google", "Google Workspace"},
	{"outlook", "Microsoft 365"},
	{"zoho", "Zoho Mail"},
	{"yandex", "Yandex Mail"},
	{"mail.ru", "Mail.ru"},
	{"proton", "Proton Mail"},
	{"secureserver", "GoDaddy"},
	{"registrar-servers", "Namecheap Private Email"},
	{"mailgun", "Mailgun"},
	{"sendgrid", "SendGrid"},
	{"amazonaws", "Amazon WorkMail"},
	{"ovh", "OVH"},
	{"yahoodns", "Yahoo"},
	{"icloud", "iCloud Mail"},
}

func providerFor(mx string) string {
	if mx == "" || mx == UnknownMX {
		return ""
	}
	lower := strings.ToLower(mx)
	for _, rule := range providerRules {
		if strings.Contains(lower, rule.substr) {
			return rule.provider
		}
	}
	return "Other"
}
