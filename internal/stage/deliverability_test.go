package stage

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/daydream-data/domainwatch/internal/model"
	"github.com/daydream-data/domainwatch/pkg/abstract"
)

const validationBody = `{
	"email": "test@example.com",
	"deliverability": "DELIVERABLE",
	"quality_score": "0.95",
	"is_valid_format": {"value": true, "text": "TRUE"},
	"is_free_email": {"value": false, "text": "FALSE"},
	"is_disposable_email": {"value": false, "text": "FALSE"},
	"is_role_email": {"value": true, "text": "TRUE"},
	"is_catchall_email": {"value": false, "text": "FALSE"},
	"is_mx_found": {"value": true, "text": "TRUE"},
	"is_smtp_valid": {"value": true, "text": "TRUE"}
}`

func TestDeliverability_ProbesTestMailbox(t *testing.T) {
	var gotEmail string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotEmail = r.URL.Query().Get("email")
		w.Write([]byte(validationBody))
	}))
	defer srv.Close()

	s := NewDeliverability(&Runner{}, abstract.NewClient("key", abstract.WithBaseURL(srv.URL)), fastPolicy(3))
	res := s.Run(context.Background(), "example.com", nil)

	if res.Status != model.StageSuccess {
		t.Fatalf("status = %v, error = %q", res.Status, res.Error)
	}
	if gotEmail != "test@example.com" {
		t.Errorf("probed email = %q", gotEmail)
	}
	if got := res.Fields["deliverability"]; got != "DELIVERABLE" {
		t.Errorf("deliverability = %v", got)
	}
	if got := res.Fields["is_smtp_valid"]; got != true {
		t.Errorf("is_smtp_valid = %v", got)
	}
	if got := res.Fields["is_free_email"]; got != false {
		t.Errorf("is_free_email = %v", got)
	}
}

func TestDeliverability_RateLimitDeferralsDoNotConsumeAttempts(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) <= 2 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(validationBody))
	}))
	defer srv.Close()

	s := NewDeliverability(&Runner{}, abstract.NewClient("key", abstract.WithBaseURL(srv.URL)), fastPolicy(1))
	res := s.Run(context.Background(), "example.com", nil)

	if res.Status != model.StageSuccess {
		t.Fatalf("status = %v, error = %q; rate-limit deferrals must not exhaust the attempt budget", res.Status, res.Error)
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("server calls = %d, want 3", got)
	}
}
