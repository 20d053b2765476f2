// Package output converts enriched domain records to their delivery
// formats. Booleans collected by the stages are canonical; the
// human-readable labels exist only at this boundary.
package output

import (
	"fmt"
	"io"

	"github.com/jszwec/csvutil"
	"github.com/rotisserie/eris"

	"github.com/daydream-data/domainwatch/internal/model"
)

// Labels applied to stage booleans on export.
const (
	labelSPFStrict   = "Strict"
	labelSPFLoose    = "No strict enforcement"
	labelDMARCOn     = "Enforced"
	labelDMARCOff    = "No enforcement"
	labelSiteLive    = "Live"
	labelSiteNotLive = "Not Live"
)

// Row is one exported CSV line for a domain.
type Row struct {
	Domain            string `csv:"domain"`
	RegistrationDate  string `csv:"registration_date"`
	LastUpdated       string `csv:"last_updated"`
	ExpirationDate    string `csv:"expiration_date"`
	RegistrarName     string `csv:"registrar_name"`
	RegistrarEmail    string `csv:"registrar_email"`
	RegistrarURL      string `csv:"registrar_url"`
	MXRecords         string `csv:"mx_records"`
	SPFPolicy         string `csv:"spf_policy"`
	DMARCPolicy       string `csv:"dmarc_policy"`
	LiveSite          string `csv:"live_site"`
	BestSiteName      string `csv:"best_site_name"`
	Deliverability    string `csv:"deliverability"`
	QualityScore      string `csv:"quality_score"`
	ProviderName      string `csv:"provider_name"`
	DomainRiskLevel   string `csv:"domain_risk_level"`
	DomainRiskScore   string `csv:"domain_risk_score"`
	RecordLastUpdated string `csv:"record_last_updated"`
}

// RowFor flattens a record into its CSV row. Fields from failed or skipped
// stages come out empty.
func RowFor(rec *model.DomainRecord) Row {
	row := Row{
		Domain:            rec.Domain,
		RegistrationDate:  rec.StringField("registration_date"),
		LastUpdated:       rec.StringField("last_updated"),
		ExpirationDate:    rec.StringField("expiration_date"),
		RegistrarName:     rec.StringField("registrar_name"),
		RegistrarEmail:    rec.StringField("registrar_email"),
		RegistrarURL:      rec.StringField("registrar_url"),
		MXRecords:         rec.StringField("mx_records"),
		SPFPolicy:         boolLabel(rec, "is_spf_strict", labelSPFStrict, labelSPFLoose),
		DMARCPolicy:       boolLabel(rec, "is_dmarc_enforced", labelDMARCOn, labelDMARCOff),
		LiveSite:          boolLabel(rec, "is_live_site", labelSiteLive, labelSiteNotLive),
		BestSiteName:      rec.StringField("best_site_name"),
		Deliverability:    rec.StringField("deliverability"),
		QualityScore:      rec.StringField("quality_score"),
		ProviderName:      rec.StringField("provider_name"),
		DomainRiskLevel:   rec.StringField("domain_risk_level"),
		RecordLastUpdated: rec.StringField("record_last_updated"),
	}
	if score, ok := rec.Field("domain_risk_score"); ok {
		row.DomainRiskScore = fmt.Sprintf("%v", score)
	}
	return row
}

// boolLabel maps a stage boolean to its export label, or "" when the field
// was never collected.
func boolLabel(rec *model.DomainRecord, field, yes, no string) string {
	v, ok := rec.Field(field)
	if !ok {
		return ""
	}
	if b, _ := v.(bool); b {
		return yes
	}
	return no
}

// WriteRecords writes the full batch as CSV, one row per record, in batch
// order.
func WriteRecords(w io.Writer, records []*model.DomainRecord) error {
	rows := make([]Row, 0, len(records))
	for _, rec := range records {
		rows = append(rows, RowFor(rec))
	}
	data, err := csvutil.Marshal(rows)
	if err != nil {
		return eris.Wrap(err, "output: marshal csv")
	}
	if _, err := w.Write(data); err != nil {
		return eris.Wrap(err, "output: write csv")
	}
	return nil
}

// inputRow matches the loader's required column; extra columns are ignored.
type inputRow struct {
	Domain string `csv:"domain"`
}

// ReadDomains loads the domain column from an input CSV, normalizing each
// entry and dropping blanks and duplicates. Order is preserved.
func ReadDomains(r io.Reader) ([]string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, eris.Wrap(err, "output: read input csv")
	}

	var rows []inputRow
	if err := csvutil.Unmarshal(data, &rows); err != nil {
		return nil, eris.Wrap(err, "output: parse input csv")
	}

	seen := make(map[string]bool, len(rows))
	var domains []string
	for _, row := range rows {
		d := model.NormalizeDomain(row.Domain)
		if d == "" || seen[d] {
			continue
		}
		seen[d] = true
		domains = append(domains, d)
	}
	return domains, nil
}
