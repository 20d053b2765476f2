package resilience

import (
	"errors"
	"testing"
	"time"
)

func transientErr() error {
	return NewTransientError(KindConnection, errors.New("connection refused"), 0)
}

func TestBreaker_OpensAfterThreshold(t *testing.T) {
	b := NewBreaker(BreakerConfig{FailureThreshold: 3, ResetTimeout: time.Hour})

	for i := 0; i < 3; i++ {
		if err := b.Allow(); err != nil {
			t.Fatalf("expected closed circuit on failure %d: %v", i, err)
		}
		b.Record(transientErr())
	}

	if err := b.Allow(); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected ErrCircuitOpen, got %v", err)
	}
	if b.State() != CircuitOpen {
		t.Errorf("expected open state, got %v", b.State())
	}
}

func TestBreaker_PermanentFailuresDoNotTrip(t *testing.T) {
	b := NewBreaker(BreakerConfig{FailureThreshold: 2, ResetTimeout: time.Hour})

	// A healthy upstream answering "not found" must not open the circuit.
	for i := 0; i < 10; i++ {
		b.Record(NewPermanentError(KindNotFound, errors.New("no such domain")))
	}
	if err := b.Allow(); err != nil {
		t.Fatalf("expected closed circuit, got %v", err)
	}
}

func TestBreaker_HalfOpenProbeRecovers(t *testing.T) {
	b := NewBreaker(BreakerConfig{FailureThreshold: 1, ResetTimeout: 10 * time.Millisecond})
	now := time.Now()
	b.nowFunc = func() time.Time { return now }

	b.Record(transientErr())
	if err := b.Allow(); !errors.Is(err, ErrCircuitOpen) {
		t.Fatal("expected open circuit")
	}

	// Advance past the reset timeout: one probe is allowed.
	now = now.Add(20 * time.Millisecond)
	if err := b.Allow(); err != nil {
		t.Fatalf("expected half-open probe allowed, got %v", err)
	}
	b.Record(nil)
	if b.State() != CircuitClosed {
		t.Errorf("expected closed after successful probe, got %v", b.State())
	}
}

func TestBreaker_FailedProbeReopens(t *testing.T) {
	b := NewBreaker(BreakerConfig{FailureThreshold: 1, ResetTimeout: 10 * time.Millisecond})
	now := time.Now()
	b.nowFunc = func() time.Time { return now }

	b.Record(transientErr())
	now = now.Add(20 * time.Millisecond)
	if err := b.Allow(); err != nil {
		t.Fatalf("expected probe allowed, got %v", err)
	}
	b.Record(transientErr())

	if err := b.Allow(); !errors.Is(err, ErrCircuitOpen) {
		t.Fatal("expected circuit reopened after failed probe")
	}
}

func TestBreaker_Reset(t *testing.T) {
	b := NewBreaker(BreakerConfig{FailureThreshold: 1, ResetTimeout: time.Hour})
	b.Record(transientErr())
	if err := b.Allow(); err == nil {
		t.Fatal("expected open circuit")
	}
	b.Reset()
	if err := b.Allow(); err != nil {
		t.Fatalf("expected closed circuit after reset, got %v", err)
	}
}

func TestSourceBreakers_PerSourceIsolation(t *testing.T) {
	sb := NewSourceBreakers(BreakerConfig{FailureThreshold: 1, ResetTimeout: time.Hour})

	sb.Get("rdap").Record(transientErr())

	if err := sb.Get("rdap").Allow(); !errors.Is(err, ErrCircuitOpen) {
		t.Error("rdap breaker should be open")
	}
	if err := sb.Get("abstract").Allow(); err != nil {
		t.Errorf("abstract breaker should be unaffected, got %v", err)
	}

	states := sb.States()
	if states["rdap"] != CircuitOpen {
		t.Errorf("expected rdap open, got %v", states["rdap"])
	}
	if states["abstract"] != CircuitClosed {
		t.Errorf("expected abstract closed, got %v", states["abstract"])
	}
}

func TestSourceBreakers_SameInstanceReturned(t *testing.T) {
	sb := NewSourceBreakers(DefaultBreakerConfig())
	if sb.Get("dns") != sb.Get("dns") {
		t.Error("expected the same breaker instance per source")
	}
}
