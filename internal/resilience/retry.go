package resilience

import (
	"context"
	"math/rand"
	"time"

	"go.uber.org/zap"
)

// Policy controls retry behavior for one stage's lookups. One policy per
// stage; stateless and shared read-only across all invocations.
type Policy struct {
	// MaxAttempts is the total number of lookup attempts (including the
	// first try). A value of 1 disables retrying. Default: 3.
	MaxAttempts int

	// BaseDelay is the backoff unit. The sleep before retrying attempt k
	// is BaseDelay * k * uniform(JitterMin, JitterMax). Default: 2s.
	BaseDelay time.Duration

	// JitterMin and JitterMax bound the uniform jitter multiplier.
	// Defaults: 1.0 and 1.5.
	JitterMin float64
	JitterMax float64

	// RateLimitWait is the cool-down applied when the provider signals a
	// rate limit without suggesting a wait duration. Default: 10s.
	RateLimitWait time.Duration

	// OnRetry is called before each backoff sleep with the attempt number
	// that just failed and its error.
	OnRetry func(attempt int, err error)
}

// DefaultPolicy returns a sensible retry policy for external lookups.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:   3,
		BaseDelay:     2 * time.Second,
		JitterMin:     1.0,
		JitterMax:     1.5,
		RateLimitWait: 10 * time.Second,
	}
}

func (p Policy) withDefaults() Policy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = 3
	}
	if p.BaseDelay <= 0 {
		p.BaseDelay = 2 * time.Second
	}
	if p.JitterMin <= 0 {
		p.JitterMin = 1.0
	}
	if p.JitterMax < p.JitterMin {
		p.JitterMax = p.JitterMin + 0.5
	}
	if p.RateLimitWait <= 0 {
		p.RateLimitWait = 10 * time.Second
	}
	return p
}

// Operation is a single idempotent lookup attempt. It returns the looked-up
// value or an error classified via this package's taxonomy.
type Operation[T any] func(ctx context.Context) (T, error)

// Execute runs op under the policy's retry rules and reports the value, the
// number of lookup invocations made, and the final error if all attempts
// were exhausted or a permanent failure was hit.
//
// Permanent errors return immediately. Rate-limit signals sleep for the
// provider-suggested duration (or the policy default) and re-run the same
// attempt without consuming the attempt budget. Transient errors back off
// and retry until MaxAttempts is reached. An operation that alternates
// between classifications is treated per-attempt.
func Execute[T any](ctx context.Context, policy Policy, op Operation[T]) (T, int, error) {
	policy = policy.withDefaults()

	var zero T
	var lastErr error
	calls := 0

	for attempt := 1; attempt <= policy.MaxAttempts; {
		val, err := op(ctx)
		calls++
		if err == nil {
			return val, calls, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return zero, calls, lastErr
		}

		if rle, ok := AsRateLimit(err); ok {
			wait := rle.RetryAfter
			if wait <= 0 {
				wait = policy.RateLimitWait
			}
			if sleepErr := sleep(ctx, wait); sleepErr != nil {
				return zero, calls, lastErr
			}
			// The deferral does not consume the attempt budget.
			continue
		}

		if !IsTransient(err) {
			return zero, calls, lastErr
		}

		if attempt == policy.MaxAttempts {
			break
		}

		if policy.OnRetry != nil {
			policy.OnRetry(attempt, err)
		}
		if sleepErr := sleep(ctx, backoffDelay(policy, attempt)); sleepErr != nil {
			return zero, calls, lastErr
		}
		attempt++
	}

	return zero, calls, lastErr
}

// backoffDelay computes the sleep before retrying after failed attempt k.
// Delay grows linearly in k and always lies within
// [BaseDelay*k*JitterMin, BaseDelay*k*JitterMax].
func backoffDelay(policy Policy, attempt int) time.Duration {
	jitter := policy.JitterMin + rand.Float64()*(policy.JitterMax-policy.JitterMin)
	return time.Duration(float64(policy.BaseDelay) * float64(attempt) * jitter)
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// RetryLogger returns an OnRetry callback that logs each retry attempt.
func RetryLogger(source, operation string) func(int, error) {
	return func(attempt int, err error) {
		zap.L().Warn("retrying lookup",
			zap.String("source", source),
			zap.String("operation", operation),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
	}
}
