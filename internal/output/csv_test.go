package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daydream-data/domainwatch/internal/model"
)

func enrichedRecord() *model.DomainRecord {
	rec := model.NewDomainRecord("example.com")
	rec.Apply("registration", model.StageResult{
		Status: model.StageSuccess,
		Fields: model.Fields{
			"registration_date": "2020-03-15T08:00:00Z",
			"registrar_name":    "Example Registrar LLC",
		},
		Attempts: 1,
	})
	rec.Apply("dns_posture", model.StageResult{
		Status: model.StageSuccess,
		Fields: model.Fields{
			"mx_records":        "aspmx.l.google.com.",
			"is_spf_strict":     true,
			"is_dmarc_enforced": false,
		},
		Attempts: 1,
	})
	rec.Apply("liveness", model.StageResult{
		Status:   model.StageSuccess,
		Fields:   model.Fields{"is_live_site": true},
		Attempts: 1,
	})
	rec.Apply("deliverability", model.StageResult{
		Status:   model.StageSuccess,
		Fields:   model.Fields{"deliverability": "DELIVERABLE", "quality_score": "0.95"},
		Attempts: 1,
	})
	rec.Apply("risk", model.StageResult{
		Status: model.StageSuccess,
		Fields: model.Fields{
			"domain_risk_level": "HIGH",
			"domain_risk_score": 15,
			"provider_name":     "Google Workspace",
		},
		Attempts: 1,
	})
	return rec
}

func TestRowFor_LabelsBooleans(t *testing.T) {
	row := RowFor(enrichedRecord())

	assert.Equal(t, "Strict", row.SPFPolicy)
	assert.Equal(t, "No enforcement", row.DMARCPolicy)
	assert.Equal(t, "Live", row.LiveSite)
	assert.Equal(t, "15", row.DomainRiskScore)
	assert.Equal(t, "Example Registrar LLC", row.RegistrarName)
}

func TestRowFor_FailedStagesLeaveBlanks(t *testing.T) {
	rec := model.NewDomainRecord("broken.example")
	rec.Apply("registration", model.StageResult{
		Status:   model.StageFailed,
		Error:    "timeout",
		Attempts: 3,
	})

	row := RowFor(rec)
	assert.Empty(t, row.RegistrationDate)
	assert.Empty(t, row.RegistrarName)
	assert.Empty(t, row.SPFPolicy, "uncollected booleans must not be labeled")
	assert.Empty(t, row.LiveSite)
	assert.Empty(t, row.DomainRiskScore)
}

func TestWriteRecords(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteRecords(&buf, []*model.DomainRecord{enrichedRecord()}))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "domain,registration_date"))
	assert.Contains(t, lines[1], "example.com")
	assert.Contains(t, lines[1], "Google Workspace")
}

func TestReadDomains_NormalizesAndDeduplicates(t *testing.T) {
	in := strings.NewReader("domain,notes\nExample.COM,first\nexample.com.,dup\n ,blank\nother.example,ok\n")

	domains, err := ReadDomains(in)
	require.NoError(t, err)
	assert.Equal(t, []string{"example.com", "other.example"}, domains)
}

func TestReadDomains_EmptyFile(t *testing.T) {
	domains, err := ReadDomains(strings.NewReader("domain\n"))
	require.NoError(t, err)
	assert.Empty(t, domains)
}
