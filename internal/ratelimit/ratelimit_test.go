package ratelimit

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"
)

func TestAcquire_MinimumSpacing(t *testing.T) {
	interval := 20 * time.Millisecond
	reg := NewRegistry(0, map[string]time.Duration{"rdap": interval})

	var stamps []time.Time
	for i := 0; i < 4; i++ {
		if err := reg.Acquire(context.Background(), "rdap"); err != nil {
			t.Fatalf("acquire %d: %v", i, err)
		}
		stamps = append(stamps, time.Now())
	}

	for i := 1; i < len(stamps); i++ {
		gap := stamps[i].Sub(stamps[i-1])
		// Allow a small scheduling tolerance below the nominal interval.
		if gap < interval-5*time.Millisecond {
			t.Errorf("gap %d too small: %v < %v", i, gap, interval)
		}
	}
}

func TestAcquire_ConcurrentCallersStaySpaced(t *testing.T) {
	interval := 15 * time.Millisecond
	reg := NewRegistry(0, map[string]time.Duration{"abstract": interval})

	var mu sync.Mutex
	var stamps []time.Time

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := reg.Acquire(context.Background(), "abstract"); err != nil {
				t.Errorf("acquire: %v", err)
				return
			}
			mu.Lock()
			stamps = append(stamps, time.Now())
			mu.Unlock()
		}()
	}
	wg.Wait()

	sort.Slice(stamps, func(i, j int) bool { return stamps[i].Before(stamps[j]) })
	for i := 1; i < len(stamps); i++ {
		gap := stamps[i].Sub(stamps[i-1])
		if gap < interval-5*time.Millisecond {
			t.Errorf("concurrent gap %d too small: %v", i, gap)
		}
	}
}

func TestAcquire_IndependentSources(t *testing.T) {
	reg := NewRegistry(0, map[string]time.Duration{
		"slow": time.Second,
		"fast": 0,
	})

	// Consume slow's burst token.
	if err := reg.Acquire(context.Background(), "slow"); err != nil {
		t.Fatal(err)
	}

	// fast (and unknown with zero default) must not be blocked by slow.
	start := time.Now()
	if err := reg.Acquire(context.Background(), "fast"); err != nil {
		t.Fatal(err)
	}
	if err := reg.Acquire(context.Background(), "unknown"); err != nil {
		t.Fatal(err)
	}
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Errorf("independent sources blocked for %v", elapsed)
	}
}

func TestAcquire_ContextCancelled(t *testing.T) {
	reg := NewRegistry(0, map[string]time.Duration{"slow": time.Hour})

	if err := reg.Acquire(context.Background(), "slow"); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := reg.Acquire(ctx, "slow"); err == nil {
		t.Fatal("expected error when context expires during wait")
	}
}

func TestInterval_FallsBackToDefault(t *testing.T) {
	reg := NewRegistry(250*time.Millisecond, map[string]time.Duration{"rdap": time.Second})
	if got := reg.Interval("rdap"); got != time.Second {
		t.Errorf("expected 1s, got %v", got)
	}
	if got := reg.Interval("other"); got != 250*time.Millisecond {
		t.Errorf("expected default 250ms, got %v", got)
	}
}
