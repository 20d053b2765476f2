// Package abstract wraps the Abstract API email-validation endpoint.
package abstract

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
)

const defaultBaseURL = "https://emailvalidation.abstractapi.com/v1"

// Deliverability verdicts returned by the API.
const (
	Deliverable   = "DELIVERABLE"
	Undeliverable = "UNDELIVERABLE"
	Unknown       = "UNKNOWN"
)

// Client validates email addresses.
type Client interface {
	ValidateEmail(ctx context.Context, email string) (*Validation, error)
}

// BoolField is the API's {value, text} boolean wrapper.
type BoolField struct {
	Value bool   `json:"value"`
	Text  string `json:"text"`
}

// Validation is the response of GET /v1/?email=...
type Validation struct {
	Email             string    `json:"email"`
	Deliverability    string    `json:"deliverability"`
	QualityScore      string    `json:"quality_score"`
	IsValidFormat     BoolField `json:"is_valid_format"`
	IsFreeEmail       BoolField `json:"is_free_email"`
	IsDisposableEmail BoolField `json:"is_disposable_email"`
	IsRoleEmail       BoolField `json:"is_role_email"`
	IsCatchallEmail   BoolField `json:"is_catchall_email"`
	IsMXFound         BoolField `json:"is_mx_found"`
	IsSMTPValid       BoolField `json:"is_smtp_valid"`
}

// HTTPError is returned for non-2xx responses. The free tier rate-limits
// aggressively, so RetryAfter is surfaced when present.
type HTTPError struct {
	StatusCode int
	Body       string
	RetryAfter time.Duration
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("abstract: status %d: %s", e.StatusCode, e.Body)
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(u string) Option {
	return func(c *httpClient) {
		c.baseURL = u
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

// NewClient creates an Abstract API client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 20 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) ValidateEmail(ctx context.Context, email string) (*Validation, error) {
	q := url.Values{}
	q.Set("api_key", c.apiKey)
	q.Set("email", email)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/?"+q.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "abstract: create request")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "abstract: send request")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "abstract: read response")
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &HTTPError{
			StatusCode: resp.StatusCode,
			Body:       truncate(string(body), 200),
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
		}
	}

	var result Validation
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, eris.Wrap(err, "abstract: unmarshal response")
	}
	return &result, nil
}

func parseRetryAfter(v string) time.Duration {
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	return 0
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
