// Package ratelimit enforces minimum spacing between requests to each
// external source, shared across all pipeline workers.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

// Registry hands out one limiter per external source. All workers issuing
// lookups against a source share its limiter, so the aggregate request rate
// stays bounded regardless of worker count. Waiting callers are not queued
// fairly; only the minimum spacing is guaranteed.
type Registry struct {
	mu              sync.Mutex
	limiters        map[string]*rate.Limiter
	intervals       map[string]time.Duration
	defaultInterval time.Duration
}

// NewRegistry creates a registry with per-source minimum intervals. Sources
// without an entry fall back to defaultInterval; a zero defaultInterval
// means unthrottled.
func NewRegistry(defaultInterval time.Duration, intervals map[string]time.Duration) *Registry {
	ivals := make(map[string]time.Duration, len(intervals))
	for k, v := range intervals {
		ivals[k] = v
	}
	return &Registry{
		limiters:        make(map[string]*rate.Limiter),
		intervals:       ivals,
		defaultInterval: defaultInterval,
	}
}

// Acquire blocks until at least the source's minimum interval has elapsed
// since the last granted acquisition for that source, then stamps the
// source's clock. Safe under concurrent callers. The wait respects ctx.
func (r *Registry) Acquire(ctx context.Context, source string) error {
	lim := r.limiterFor(source)
	if lim == nil {
		return nil
	}
	if err := lim.Wait(ctx); err != nil {
		return eris.Wrapf(err, "ratelimit: acquire %s", source)
	}
	return nil
}

// Interval returns the configured minimum interval for a source.
func (r *Registry) Interval(source string) time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	if iv, ok := r.intervals[source]; ok {
		return iv
	}
	return r.defaultInterval
}

func (r *Registry) limiterFor(source string) *rate.Limiter {
	r.mu.Lock()
	defer r.mu.Unlock()

	if lim, ok := r.limiters[source]; ok {
		return lim
	}
	interval, ok := r.intervals[source]
	if !ok {
		interval = r.defaultInterval
	}
	if interval <= 0 {
		return nil
	}
	// Burst of 1: the first acquisition is immediate, every subsequent one
	// waits out the interval.
	lim := rate.NewLimiter(rate.Every(interval), 1)
	r.limiters[source] = lim
	return lim
}
