// Package fakefilter reads the fakefilter disposable-domain feed.
package fakefilter

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"sort"
	"time"

	"github.com/rotisserie/eris"
)

const defaultFeedURL = "https://raw.githubusercontent.com/7c/fakefilter/refs/heads/main/json/data_version2.json"

// Client fetches newly-listed disposable domains.
type Client interface {
	NewDomains(ctx context.Context, since time.Time) ([]Domain, error)
}

// Domain is a feed entry for one listed domain.
type Domain struct {
	Name      string
	FirstSeen time.Time
}

// Option configures the client.
type Option func(*httpClient)

// WithFeedURL overrides the default feed URL.
func WithFeedURL(u string) Option {
	return func(c *httpClient) {
		c.feedURL = u
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

type httpClient struct {
	feedURL string
	http    *http.Client
}

// NewClient creates a feed client.
func NewClient(opts ...Option) Client {
	c := &httpClient{
		feedURL: defaultFeedURL,
		http: &http.Client{
			Timeout: 120 * time.Second, // the feed file is large
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

type feedFile struct {
	Domains map[string]struct {
		Hosts map[string]struct {
			FirstSeen int64 `json:"firstseen"`
		} `json:"hosts"`
	} `json:"domains"`
}

// NewDomains returns the domains whose earliest host sighting is at or
// after since, sorted by domain name for stable batches.
func (c *httpClient) NewDomains(ctx context.Context, since time.Time) ([]Domain, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.feedURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "fakefilter: create request")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "fakefilter: fetch feed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("fakefilter: feed returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "fakefilter: read feed")
	}

	var feed feedFile
	if err := json.Unmarshal(body, &feed); err != nil {
		return nil, eris.Wrap(err, "fakefilter: unmarshal feed")
	}

	cutoff := since.Unix()
	var out []Domain
	for name, info := range feed.Domains {
		for _, host := range info.Hosts {
			if host.FirstSeen >= cutoff {
				out = append(out, Domain{
					Name:      name,
					FirstSeen: time.Unix(host.FirstSeen, 0).UTC(),
				})
				break
			}
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
