package resilience

import (
	"errors"
	"net"
	"strings"
	"syscall"
	"time"
)

// Kind classifies a lookup failure. Stages record the kind string on the
// StageResult so callers branch on classification, not on error types.
type Kind string

const (
	KindNotFound     Kind = "not_found"
	KindInvalidInput Kind = "invalid_input"
	KindHTTPClient   Kind = "http_client_error"
	KindTimeout      Kind = "timeout"
	KindConnection   Kind = "connection"
	KindDNSFailure   Kind = "dns_failure"
	KindHTTPServer   Kind = "http_server_error"
	KindMalformed    Kind = "malformed_response"
	KindRateLimited  Kind = "rate_limited"
	KindCircuitOpen  Kind = "circuit_open"
	KindUnclassified Kind = "unclassified"
)

// PermanentError wraps a failure known not to be resolved by retrying:
// the record does not exist, the input is invalid, or the upstream gave an
// unambiguous 4xx other than 429.
type PermanentError struct {
	Kind Kind
	Err  error
}

func (e *PermanentError) Error() string { return e.Err.Error() }
func (e *PermanentError) Unwrap() error { return e.Err }

// NewPermanentError wraps err as a permanent, non-retryable failure.
func NewPermanentError(kind Kind, err error) *PermanentError {
	return &PermanentError{Kind: kind, Err: err}
}

// TransientError wraps a failure that may succeed if retried (timeout,
// connection reset, DNS server failure, unexpected 5xx).
type TransientError struct {
	Kind       Kind
	Err        error
	StatusCode int
}

func (e *TransientError) Error() string { return e.Err.Error() }
func (e *TransientError) Unwrap() error { return e.Err }

// NewTransientError wraps err as transient with an optional HTTP status code.
func NewTransientError(kind Kind, err error, statusCode int) *TransientError {
	return &TransientError{Kind: kind, Err: err, StatusCode: statusCode}
}

// RateLimitError signals the provider asked us to slow down. RetryAfter is
// the provider-suggested wait, zero when the provider gave none.
type RateLimitError struct {
	Err        error
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string { return e.Err.Error() }
func (e *RateLimitError) Unwrap() error { return e.Err }

// NewRateLimitError wraps err as a rate-limit signal.
func NewRateLimitError(err error, retryAfter time.Duration) *RateLimitError {
	return &RateLimitError{Err: err, RetryAfter: retryAfter}
}

// AsRateLimit extracts a RateLimitError from the chain, if any.
func AsRateLimit(err error) (*RateLimitError, bool) {
	var rle *RateLimitError
	if errors.As(err, &rle) {
		return rle, true
	}
	return nil, false
}

// IsPermanent returns true if the error chain carries an explicit
// PermanentError.
func IsPermanent(err error) bool {
	var pe *PermanentError
	return errors.As(err, &pe)
}

// IsTransient returns true if the error (or any error in its chain) is an
// explicit TransientError, or matches common transient network patterns
// (timeouts, connection resets, DNS server failures). Explicitly classified
// permanent errors are never transient.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if IsPermanent(err) {
		return false
	}

	var te *TransientError
	if errors.As(err, &te) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		// NXDOMAIN is a definitive answer, not a resolver failure.
		return !dnsErr.IsNotFound
	}

	if errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNABORTED) {
		return true
	}

	// String-based heuristics for wrapped errors from HTTP clients.
	msg := strings.ToLower(err.Error())
	transientPatterns := []string{
		"connection reset by peer",
		"broken pipe",
		"temporary failure in name resolution",
		"tls handshake timeout",
		"i/o timeout",
		"server closed idle connection",
		"transport connection broken",
	}
	for _, p := range transientPatterns {
		if strings.Contains(msg, p) {
			return true
		}
	}

	return false
}

// KindOf extracts the classified kind from an error chain, falling back to
// network heuristics and finally to KindUnclassified.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}

	var pe *PermanentError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	var te *TransientError
	if errors.As(err, &te) {
		return te.Kind
	}
	if _, ok := AsRateLimit(err); ok {
		return KindRateLimited
	}
	if errors.Is(err, ErrCircuitOpen) {
		return KindCircuitOpen
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		if dnsErr.IsNotFound {
			return KindNotFound
		}
		return KindDNSFailure
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return KindTimeout
	}
	if IsTransient(err) {
		return KindConnection
	}
	return KindUnclassified
}

// ClassifyHTTPStatus converts a non-2xx HTTP status into a classified error.
// 429 becomes a rate-limit signal carrying retryAfter, 5xx are transient,
// 404 maps to not-found, and remaining 4xx are permanent client errors.
func ClassifyHTTPStatus(statusCode int, err error, retryAfter time.Duration) error {
	switch {
	case statusCode == 429:
		return NewRateLimitError(err, retryAfter)
	case statusCode >= 500:
		return NewTransientError(KindHTTPServer, err, statusCode)
	case statusCode == 404:
		return NewPermanentError(KindNotFound, err)
	case statusCode >= 400:
		return NewPermanentError(KindHTTPClient, err)
	default:
		return err
	}
}
