package rdap

import (
	"encoding/json"
	"time"
)

// Event actions defined by the RDAP spec that the enrichment pipeline cares
// about.
const (
	ActionRegistration = "registration"
	ActionLastChanged  = "last changed"
	ActionExpiration   = "expiration"
)

// DomainResponse is the RDAP domain object, reduced to the fields the
// pipeline consumes.
type DomainResponse struct {
	LDHName  string   `json:"ldhName"`
	Handle   string   `json:"handle"`
	Status   []string `json:"status"`
	Events   []Event  `json:"events"`
	Entities []Entity `json:"entities"`
}

// Event is a dated lifecycle action on the domain.
type Event struct {
	Action string    `json:"eventAction"`
	Date   time.Time `json:"eventDate"`
}

// Entity is an RDAP entity (registrar, contact, ...) with its jCard and any
// nested sub-entities.
type Entity struct {
	Roles      []string        `json:"roles"`
	VCardArray json.RawMessage `json:"vcardArray"`
	Entities   []Entity        `json:"entities"`
}

// EventDates returns every date recorded for the given action, in response
// order. Registries occasionally report the same action more than once.
func (r *DomainResponse) EventDates(action string) []time.Time {
	var dates []time.Time
	for _, e := range r.Events {
		if e.Action == action && !e.Date.IsZero() {
			dates = append(dates, e.Date)
		}
	}
	return dates
}

// Registrar returns the first entity carrying the registrar role, or nil.
func (r *DomainResponse) Registrar() *Entity {
	for i := range r.Entities {
		for _, role := range r.Entities[i].Roles {
			if role == "registrar" {
				return &r.Entities[i]
			}
		}
	}
	return nil
}

// VCardText extracts the text value of the first jCard property with the
// given name. A jCard is ["vcard", [[name, params, type, value], ...]]; only
// string-valued properties are returned.
func (e *Entity) VCardText(property string) string {
	if len(e.VCardArray) == 0 {
		return ""
	}
	var card []json.RawMessage
	if err := json.Unmarshal(e.VCardArray, &card); err != nil || len(card) < 2 {
		return ""
	}
	var props [][]json.RawMessage
	if err := json.Unmarshal(card[1], &props); err != nil {
		return ""
	}
	for _, p := range props {
		if len(p) < 4 {
			continue
		}
		var name string
		if err := json.Unmarshal(p[0], &name); err != nil || name != property {
			continue
		}
		var value string
		if err := json.Unmarshal(p[3], &value); err != nil {
			continue
		}
		return value
	}
	return ""
}
