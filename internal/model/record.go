// Package model defines the core data types shared across the enrichment
// pipeline: domain records, per-stage results, and run bookkeeping.
package model

import "strings"

// StageStatus represents the outcome of a single enrichment stage.
type StageStatus string

const (
	StageSuccess StageStatus = "success"
	StageFailed  StageStatus = "failed"
	StageSkipped StageStatus = "skipped"
)

// Fields is the set of values contributed by one stage. Values are opaque
// scalars (string, bool, number, time) keyed by output field name.
type Fields map[string]any

// Clone returns a shallow copy of the field set.
func (f Fields) Clone() Fields {
	if f == nil {
		return nil
	}
	out := make(Fields, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

// StageResult is the outcome of running one stage against one domain.
// A Failed or Skipped result never carries fields: a stage either fully
// succeeds or contributes nothing.
type StageResult struct {
	Status   StageStatus `json:"status"`
	Fields   Fields      `json:"fields,omitempty"`
	Error    string      `json:"error,omitempty"` // classified error kind, empty on success
	Attempts int         `json:"attempts"`
}

// DomainRecord accumulates stage results for a single domain. The domain is
// the unique key for the batch. Records are mutated only by the orchestrator
// applying completed StageResults, in stage order.
type DomainRecord struct {
	Domain string                 `json:"domain"`
	Stages map[string]StageResult `json:"stages"`
}

// NewDomainRecord creates an empty record for a case-normalized domain.
func NewDomainRecord(domain string) *DomainRecord {
	return &DomainRecord{
		Domain: NormalizeDomain(domain),
		Stages: make(map[string]StageResult),
	}
}

// NormalizeDomain lowercases and trims a raw domain string, dropping any
// trailing dot from fully-qualified forms.
func NormalizeDomain(domain string) string {
	d := strings.ToLower(strings.TrimSpace(domain))
	return strings.TrimSuffix(d, ".")
}

// Apply records a completed stage result. Non-success results are stripped
// of any fields so partial in-stage data never surfaces.
func (r *DomainRecord) Apply(stage string, res StageResult) {
	if res.Status != StageSuccess {
		res.Fields = nil
	}
	r.Stages[stage] = res
}

// Field looks up a field value across all successful stages.
func (r *DomainRecord) Field(name string) (any, bool) {
	for _, res := range r.Stages {
		if res.Status != StageSuccess {
			continue
		}
		if v, ok := res.Fields[name]; ok {
			return v, true
		}
	}
	return nil, false
}

// StringField returns a field value as a string, or "" if absent or not a string.
func (r *DomainRecord) StringField(name string) string {
	v, ok := r.Field(name)
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

// BoolField returns a field value as a bool, or false if absent or not a bool.
func (r *DomainRecord) BoolField(name string) bool {
	v, ok := r.Field(name)
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}

// StageStatusOf returns the status of the named stage, or "" if it has not run.
func (r *DomainRecord) StageStatusOf(stage string) StageStatus {
	res, ok := r.Stages[stage]
	if !ok {
		return ""
	}
	return res.Status
}
