// Package slack implements the small slice of the Slack Web API the
// pipeline needs: the external file-upload flow and message posting.
package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
)

const defaultBaseURL = "https://slack.com/api"

// Client uploads files and posts messages to Slack.
type Client interface {
	// ShareFile runs the full external-upload flow (get upload URL, upload
	// the bytes, complete the upload) and returns the file's permalink.
	ShareFile(ctx context.Context, filename, title string, content []byte) (string, error)
	PostMessage(ctx context.Context, channel, text string) error
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
	token   string
	baseURL string
	http    *http.Client
}

// NewClient creates a Slack client authenticated with a bot or user token.
func NewClient(token string, opts ...Option) Client {
	c := &httpClient{
		token:   token,
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

type apiResponse struct {
	OK        bool   `json:"ok"`
	Error     string `json:"error"`
	UploadURL string `json:"upload_url"`
	FileID    string `json:"file_id"`
	File      struct {
		Permalink string `json:"permalink"`
	} `json:"file"`
}

func (c *httpClient) ShareFile(ctx context.Context, filename, title string, content []byte) (string, error) {
	// Step 1: reserve an upload URL.
	form := url.Values{}
	form.Set("filename", filename)
	form.Set("length", strconv.Itoa(len(content)))
	reserved, err := c.callForm(ctx, "files.getUploadURLExternal", form)
	if err != nil {
		return "", err
	}

	// Step 2: upload the raw bytes to the reserved URL.
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reserved.UploadURL, bytes.NewReader(content))
	if err != nil {
		return "", eris.Wrap(err, "slack: create upload request")
	}
	req.Header.Set("Content-Type", "application/octet-stream")
	resp, err := c.http.Do(req)
	if err != nil {
		return "", eris.Wrap(err, "slack: upload file")
	}
	io.Copy(io.Discard, resp.Body) //nolint:errcheck
	resp.Body.Close()              //nolint:errcheck
	if resp.StatusCode != http.StatusOK {
		return "", eris.Errorf("slack: upload returned status %d", resp.StatusCode)
	}

	// Step 3: finalize the upload.
	payload := map[string]any{
		"files": []map[string]string{{"id": reserved.FileID, "title": title}},
	}
	if _, err := c.callJSON(ctx, "files.completeUploadExternal", payload); err != nil {
		return "", err
	}

	// Step 4: resolve the shareable permalink.
	info, err := c.callForm(ctx, "files.info", url.Values{"file": {reserved.FileID}})
	if err != nil {
		return "", err
	}
	return info.File.Permalink, nil
}

func (c *httpClient) PostMessage(ctx context.Context, channel, text string) error {
	_, err := c.callJSON(ctx, "chat.postMessage", map[string]any{
		"channel": channel,
		"text":    text,
	})
	return err
}

func (c *httpClient) callForm(ctx context.Context, method string, form url.Values) (*apiResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+method,
		bytes.NewBufferString(form.Encode()))
	if err != nil {
		return nil, eris.Wrapf(err, "slack: create %s request", method)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(req, method)
}

func (c *httpClient) callJSON(ctx context.Context, method string, payload any) (*apiResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, eris.Wrapf(err, "slack: marshal %s payload", method)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+method, bytes.NewReader(body))
	if err != nil {
		return nil, eris.Wrapf(err, "slack: create %s request", method)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, method)
}

func (c *httpClient) do(req *http.Request, method string) (*apiResponse, error) {
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrapf(err, "slack: %s", method)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrapf(err, "slack: read %s response", method)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("slack: %s returned status %d", method, resp.StatusCode)
	}

	var result apiResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, eris.Wrapf(err, "slack: unmarshal %s response", method)
	}
	if !result.OK {
		return nil, eris.Errorf("slack: %s failed: %s", method, result.Error)
	}
	return &result, nil
}
