package names

import "testing"

func choose(domain string, c Candidates) string {
	return Choose(domain, c, DefaultBounds())
}

func TestChoose_ExactDomainMatchWins(t *testing.T) {
	got := choose("acmewidgets.com", Candidates{
		TitleParts: []string{"Acme Widgets"},
		OGSiteName: "Acme Widgets",
		SchemaName: "Acme Widgets",
	})
	if got != "Acme Widgets" {
		t.Errorf("expected %q, got %q", "Acme Widgets", got)
	}
}

func TestChoose_AnchorStripsWWWAndTLD(t *testing.T) {
	got := choose("www.openphone.co.uk", Candidates{
		TitleParts: []string{"Pricing", "OpenPhone"},
		OGSiteName: "Completely Different",
	})
	if got != "OpenPhone" {
		t.Errorf("expected %q, got %q", "OpenPhone", got)
	}
}

func TestChoose_AnchorMatchOutsideBoundsReturnsNothing(t *testing.T) {
	// "HQ" matches the anchor but is under the 4-char minimum; the match
	// is checked before any frequency logic, so the whole choice fails.
	got := choose("hq.io", Candidates{
		TitleParts: []string{"HQ", "Welcome"},
		OGSiteName: "Welcome",
	})
	if got != "" {
		t.Errorf("expected no name, got %q", got)
	}
}

func TestChoose_ConsensusWins(t *testing.T) {
	got := choose("example.com", Candidates{
		TitleParts: []string{"Bluebird Coffee", "Our Menu"},
		OGSiteName: "Bluebird Coffee",
		SchemaName: "Bluebird Coffee Roasters Ltd",
	})
	if got != "Bluebird Coffee" {
		t.Errorf("expected %q, got %q", "Bluebird Coffee", got)
	}
}

func TestChoose_NoConsensusPrefersShortest(t *testing.T) {
	got := choose("example.com", Candidates{
		TitleParts: []string{"Northwind Traders International"},
		OGSiteName: "Northwind",
		SchemaName: "Northwind Traders",
	})
	if got != "Northwind" {
		t.Errorf("expected %q, got %q", "Northwind", got)
	}
}

func TestChoose_ShortestTieBreaksByEnumerationOrder(t *testing.T) {
	// "Apex" and "Borg" are both 4 chars; the title part enumerates first.
	got := choose("example.com", Candidates{
		TitleParts: []string{"Apex"},
		OGSiteName: "Borg",
	})
	if got != "Apex" {
		t.Errorf("expected %q, got %q", "Apex", got)
	}
}

func TestChoose_NoConsensusAllOutsideBounds(t *testing.T) {
	got := choose("example.com", Candidates{
		TitleParts: []string{"abc"},
		OGSiteName: "An Extremely Long Organization Name Nobody Would Display",
	})
	if got != "" {
		t.Errorf("expected no name, got %q", got)
	}
}

func TestChoose_FrequencyTieBreaksByFirstEncountered(t *testing.T) {
	got := choose("example.com", Candidates{
		TitleParts: []string{"Alpha Co", "Beta Co", "Alpha Co", "Beta Co"},
	})
	if got != "Alpha Co" {
		t.Errorf("expected %q, got %q", "Alpha Co", got)
	}
}

func TestChoose_NormalizationIgnoresCaseAndSpaces(t *testing.T) {
	// "ACME widgets" and "Acme  Widgets" normalize to the same value; the
	// first-encountered original is returned.
	got := choose("example.com", Candidates{
		TitleParts: []string{"ACME widgets", "Contact"},
		OGSiteName: "Acme  Widgets",
	})
	if got != "ACME widgets" {
		t.Errorf("expected %q, got %q", "ACME widgets", got)
	}
}

func TestChoose_EmptyCandidates(t *testing.T) {
	if got := choose("example.com", Candidates{}); got != "" {
		t.Errorf("expected no name, got %q", got)
	}
	if got := choose("example.com", Candidates{TitleParts: []string{"", "   "}}); got != "" {
		t.Errorf("expected no name for blank parts, got %q", got)
	}
}

func TestChoose_Deterministic(t *testing.T) {
	cands := Candidates{
		TitleParts: []string{"Acme Widgets", "Store"},
		OGSiteName: "Acme Widgets",
		SchemaName: "The Acme Widget Company",
	}
	first := choose("acmewidgets.com", cands)
	for i := 0; i < 50; i++ {
		if got := choose("acmewidgets.com", cands); got != first {
			t.Fatalf("iteration %d: got %q, want %q", i, got, first)
		}
	}
}

func TestAnchorLabel(t *testing.T) {
	tests := []struct {
		domain string
		want   string
	}{
		{"acmewidgets.com", "acmewidgets"},
		{"www.acmewidgets.com", "acmewidgets"},
		{"WWW.Acme.CO.UK", "acme"},
		{"nodots", "nodots"},
	}
	for _, tt := range tests {
		if got := anchorLabel(tt.domain); got != tt.want {
			t.Errorf("anchorLabel(%q) = %q, want %q", tt.domain, got, tt.want)
		}
	}
}
