// Package names picks one canonical display name for an organization from
// several noisy text candidates scraped off its website.
package names

import "strings"

// Candidates holds the name strings proposed by the page extractor, in
// source-enumeration order: title parts first, then the Open Graph site
// name, then the JSON-LD schema name. Purely transient; consumed once.
type Candidates struct {
	TitleParts []string
	OGSiteName string
	SchemaName string
}

// Bounds constrains the accepted length of a chosen name.
type Bounds struct {
	Min int
	Max int
}

// DefaultBounds returns the standard 4–35 character acceptance range.
func DefaultBounds() Bounds {
	return Bounds{Min: 4, Max: 35}
}

func (b Bounds) ok(n int) bool {
	return n >= b.Min && n <= b.Max
}

type candidate struct {
	original   string
	normalized string
}

// Choose deterministically picks the best display name for domain from the
// candidate set, or "" when no candidate qualifies. No I/O.
//
// An exact match against the domain's own leading label wins outright when
// length-valid. Failing that, if no normalized value repeats, the shortest
// length-valid value is taken (sources disagree, prefer brevity); otherwise
// the most frequent value wins (consensus). Ties break by enumeration order.
func Choose(domain string, cands Candidates, bounds Bounds) string {
	anchor := anchorLabel(domain)
	flat := flatten(cands)
	if len(flat) == 0 {
		return ""
	}

	// Exact domain match beats any frequency logic.
	for _, c := range flat {
		if c.normalized == anchor {
			if bounds.ok(len(c.original)) {
				return c.original
			}
			return ""
		}
	}

	counts := make(map[string]int, len(flat))
	order := make([]string, 0, len(flat))
	for _, c := range flat {
		if counts[c.normalized] == 0 {
			order = append(order, c.normalized)
		}
		counts[c.normalized]++
	}

	allUnique := true
	for _, n := range counts {
		if n > 1 {
			allUnique = false
			break
		}
	}

	if allUnique {
		// No consensus: shortest length-valid value, earliest on equal length.
		best := ""
		for _, norm := range order {
			if !bounds.ok(len(norm)) {
				continue
			}
			if best == "" || len(norm) < len(best) {
				best = norm
			}
		}
		if best == "" {
			return ""
		}
		return originalFor(flat, best)
	}

	mostFrequent := ""
	top := 0
	for _, norm := range order {
		if counts[norm] > top {
			mostFrequent = norm
			top = counts[norm]
		}
	}
	return originalFor(flat, mostFrequent)
}

// anchorLabel extracts the domain's leading label: strip a leading "www.",
// take the segment before the first dot, lowercase.
func anchorLabel(domain string) string {
	d := strings.ToLower(strings.TrimSpace(domain))
	d = strings.TrimPrefix(d, "www.")
	if i := strings.IndexByte(d, '.'); i >= 0 {
		d = d[:i]
	}
	return d
}

// normalize lowercases a candidate and strips all internal whitespace.
func normalize(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), "")
}

func flatten(cands Candidates) []candidate {
	var flat []candidate
	add := func(original string) {
		norm := normalize(original)
		if norm == "" {
			return
		}
		flat = append(flat, candidate{original: original, normalized: norm})
	}
	for _, part := range cands.TitleParts {
		add(part)
	}
	add(cands.OGSiteName)
	add(cands.SchemaName)
	return flat
}

func originalFor(flat []candidate, normalized string) string {
	for _, c := range flat {
		if c.normalized == normalized {
			return c.original
		}
	}
	return ""
}
