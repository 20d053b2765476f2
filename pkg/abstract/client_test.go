package abstract

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestValidateEmail_ParsesResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("email"); got != "test@example.com" {
			t.Errorf("email param = %q", got)
		}
		if got := r.URL.Query().Get("api_key"); got != "key123" {
			t.Errorf("api_key param = %q", got)
		}
		w.Write([]byte(`{
			"email": "test@example.com",
			"deliverability": "DELIVERABLE",
			"quality_score": "0.90",
			"is_valid_format": {"value": true, "text": "TRUE"},
			"is_free_email": {"value": false, "text": "FALSE"},
			"is_disposable_email": {"value": false, "text": "FALSE"},
			"is_role_email": {"value": false, "text": "FALSE"},
			"is_catchall_email": {"value": true, "text": "TRUE"},
			"is_mx_found": {"value": true, "text": "TRUE"},
			"is_smtp_valid": {"value": true, "text": "TRUE"}
		}`))
	}))
	defer srv.Close()

	c := NewClient("key123", WithBaseURL(srv.URL))
	v, err := c.ValidateEmail(context.Background(), "test@example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if v.Deliverability != Deliverable {
		t.Errorf("deliverability = %q", v.Deliverability)
	}
	if !v.IsValidFormat.Value || v.IsValidFormat.Text != "TRUE" {
		t.Errorf("is_valid_format = %+v", v.IsValidFormat)
	}
	if v.IsFreeEmail.Value {
		t.Error("is_free_email should be false")
	}
	if !v.IsCatchallEmail.Value {
		t.Error("is_catchall_email should be true")
	}
}

func TestValidateEmail_RateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "2")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewClient("key123", WithBaseURL(srv.URL))
	_, err := c.ValidateEmail(context.Background(), "test@example.com")

	var httpErr *HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("expected HTTPError, got %v", err)
	}
	if httpErr.StatusCode != http.StatusTooManyRequests {
		t.Errorf("status = %d", httpErr.StatusCode)
	}
	if httpErr.RetryAfter != 2*time.Second {
		t.Errorf("RetryAfter = %v", httpErr.RetryAfter)
	}
}

func TestValidateEmail_MalformedJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{not json`))
	}))
	defer srv.Close()

	c := NewClient("key123", WithBaseURL(srv.URL))
	if _, err := c.ValidateEmail(context.Background(), "test@example.com"); err == nil {
		t.Fatal("expected unmarshal error")
	}
}
