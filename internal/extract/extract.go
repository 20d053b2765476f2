// Package extract fetches a domain's homepage and pulls out the signals
// the name-resolution stage chooses between: title segments, the
// og:site_name meta tag, and the JSON-LD organization name.
package extract

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/net/html"

	"github.com/daydream-data/domainwatch/internal/names"
	"github.com/daydream-data/domainwatch/internal/resilience"
)

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"

// titleSeparators splits page titles into candidate segments.
var titleSeparators = regexp.MustCompile(`[-—|:^]`)

// noiseSegments matches title segments that carry no name signal.
var noiseSegments = regexp.MustCompile(`(?i)404|not found|login`)

// Extractor fetches homepages and extracts name candidates.
type Extractor struct {
	http *http.Client
}

// New creates an Extractor. A nil client gets a 20s-timeout default.
func New(client *http.Client) *Extractor {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	return &Extractor{http: client}
}

// Candidates fetches https://<domain> and extracts the name candidates from
// the returned page. Errors come back classified for the retry executor.
func (e *Extractor) Candidates(ctx context.Context, domain string) (names.Candidates, error) {
	var cands names.Candidates

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "https://"+domain, nil)
	if err != nil {
		return cands, resilience.NewPermanentError(resilience.KindInvalidInput,
			eris.Wrapf(err, "extract: create request for %s", domain))
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := e.http.Do(req)
	if err != nil {
		return cands, eris.Wrapf(err, "extract: fetch %s", domain)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return cands, resilience.ClassifyHTTPStatus(resp.StatusCode,
			eris.Errorf("extract: %s returned status %d", domain, resp.StatusCode),
			retryAfter(resp.Header.Get("Retry-After")))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return cands, eris.Wrapf(err, "extract: read %s body", domain)
	}

	doc, err := html.Parse(strings.NewReader(string(body)))
	if err != nil {
		return cands, resilience.NewTransientError(resilience.KindMalformed,
			eris.Wrapf(err, "extract: parse %s page", domain), 0)
	}

	var title string
	walk(doc, func(n *html.Node) {
		switch n.Data {
		case "title":
			if title == "" {
				title = textContent(n)
			}
		case "meta":
			if attr(n, "property") == "og:site_name" && cands.OGSiteName == "" {
				cands.OGSiteName = strings.TrimSpace(attr(n, "content"))
			}
		case "script":
			if attr(n, "type") == "application/ld+json" && cands.SchemaName == "" {
				cands.SchemaName = schemaName(textContent(n))
			}
		}
	})

	cands.TitleParts = splitTitle(title)
	return cands, nil
}

// splitTitle breaks a page title on common separators and drops segments
// that are navigation noise rather than a site name.
func splitTitle(title string) []string {
	var parts []string
	for _, part := range titleSeparators.Split(title, -1) {
		part = strings.TrimSpace(part)
		if part == "" || strings.EqualFold(part, "home") || noiseSegments.MatchString(part) {
			continue
		}
		parts = append(parts, part)
	}
	return parts
}

// schemaName pulls the first "name" value out of a JSON-LD block. Blocks
// may hold either a single object or an array of them.
func schemaName(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}

	var single map[string]any
	if err := json.Unmarshal([]byte(raw), &single); err == nil {
		return stringValue(single["name"])
	}

	var many []map[string]any
	if err := json.Unmarshal([]byte(raw), &many); err == nil {
		for _, obj := range many {
			if name := stringValue(obj["name"]); name != "" {
				return name
			}
		}
	}
	return ""
}

func retryAfter(v string) time.Duration {
	secs, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || secs < 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

func stringValue(v any) string {
	s, _ := v.(string)
	return strings.TrimSpace(s)
}

func walk(n *html.Node, visit func(*html.Node)) {
	if n.Type == html.ElementNode {
		visit(n)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, visit)
	}
}

func textContent(n *html.Node) string {
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			sb.WriteString(c.Data)
		}
	}
	return strings.TrimSpace(sb.String())
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
