package resilience

import (
	stderrors "errors"
	"sync"
	"testing"
	"time"

	"github.com/CodyM0RGAN/berrys-resilience/logger"
)

func newTestBreaker(cfg BreakerConfig) *CircuitBreaker {
	return NewCircuitBreaker("test-dep", cfg, logger.Nop(), nil)
}

func TestCircuitBreaker_StartsClosed(t *testing.T) {
	cb := newTestBreaker(BreakerConfig{})

	if cb.State() != StateClosed {
		t.Errorf("expected StateClosed, got %s", cb.State())
	}
}

func TestCircuitBreaker_OpensExactlyAtThreshold(t *testing.T) {
	cb := newTestBreaker(BreakerConfig{FailureThreshold: 5, RecoveryTimeout: time.Hour})
	testErr := stderrors.New("down")

	for i := 0; i < 4; i++ {
		_ = cb.Execute(func() error { return testErr })
		if cb.State() != StateClosed {
			t.Fatalf("expected StateClosed after %d failures, got %s", i+1, cb.State())
		}
	}

	_ = cb.Execute(func() error { return testErr })
	if cb.State() != StateOpen {
		t.Errorf("expected StateOpen after 5th failure, got %s", cb.State())
	}
}

func TestCircuitBreaker_OpenRejectsWithoutInvoking(t *testing.T) {
	cb := newTestBreaker(BreakerConfig{FailureThreshold: 1, RecoveryTimeout: time.Hour})

	_ = cb.Execute(func() error { return stderrors.New("down") })

	err := cb.Execute(func() error {
		t.Error("operation should not have been invoked")
		return nil
	})

	var open *OpenError
	if !stderrors.As(err, &open) {
		t.Fatalf("expected OpenError, got %v", err)
	}
	if open.Name != "test-dep" {
		t.Errorf("expected dependency name in error, got %s", open.Name)
	}
}

func TestCircuitBreaker_ReturnsOperationErrorUnchanged(t *testing.T) {
	cb := newTestBreaker(BreakerConfig{FailureThreshold: 5})
	testErr := stderrors.New("domain failure")

	err := cb.Execute(func() error { return testErr })
	if err != testErr {
		t.Errorf("expected the operation's own error, got %v", err)
	}
}

func TestCircuitBreaker_RecoversViaHalfOpen(t *testing.T) {
	cb := newTestBreaker(BreakerConfig{FailureThreshold: 1, RecoveryTimeout: 20 * time.Millisecond})

	_ = cb.Execute(func() error { return stderrors.New("down") })
	if cb.State() != StateOpen {
		t.Fatalf("expected StateOpen, got %s", cb.State())
	}

	// Rejected while the recovery timeout has not elapsed, no matter how
	// many checks happen.
	for i := 0; i < 10; i++ {
		if cb.Allow() {
			t.Fatal("expected requests to be rejected while open")
		}
	}

	time.Sleep(30 * time.Millisecond)

	if !cb.Allow() {
		t.Fatal("expected the first check after the timeout to pass")
	}
	if cb.State() != StateHalfOpen {
		t.Errorf("expected StateHalfOpen, got %s", cb.State())
	}
}

func TestCircuitBreaker_HalfOpenSuccessCloses(t *testing.T) {
	cb := newTestBreaker(BreakerConfig{FailureThreshold: 1, RecoveryTimeout: 10 * time.Millisecond})

	_ = cb.Execute(func() error { return stderrors.New("down") })
	time.Sleep(15 * time.Millisecond)

	if err := cb.Execute(func() error { return nil }); err != nil {
		t.Fatalf("expected probe to run, got %v", err)
	}
	if cb.State() != StateClosed {
		t.Errorf("expected StateClosed, got %s", cb.State())
	}
	if cb.Failures() != 0 {
		t.Errorf("expected failure count reset on entry to closed, got %d", cb.Failures())
	}
}

func TestCircuitBreaker_HalfOpenFailureReopens(t *testing.T) {
	cb := newTestBreaker(BreakerConfig{FailureThreshold: 1, RecoveryTimeout: 10 * time.Millisecond})

	_ = cb.Execute(func() error { return stderrors.New("down") })
	time.Sleep(15 * time.Millisecond)

	_ = cb.Execute(func() error { return stderrors.New("still down") })
	if cb.State() != StateOpen {
		t.Errorf("expected StateOpen, got %s", cb.State())
	}
}

func TestCircuitBreaker_AllowNeverChangesFailureCount(t *testing.T) {
	cb := newTestBreaker(BreakerConfig{FailureThreshold: 5})

	_ = cb.Execute(func() error { return stderrors.New("down") })
	_ = cb.Execute(func() error { return stderrors.New("down") })

	before := cb.Failures()
	for i := 0; i < 20; i++ {
		_ = cb.Allow()
	}
	if cb.Failures() != before {
		t.Errorf("Allow changed failure count: %d -> %d", before, cb.Failures())
	}
}

func TestCircuitBreaker_ClosedSuccessResetsAfterQuietPeriod(t *testing.T) {
	cb := newTestBreaker(BreakerConfig{FailureThreshold: 5, ResetTimeout: 20 * time.Millisecond})

	_ = cb.Execute(func() error { return stderrors.New("down") })
	_ = cb.Execute(func() error { return nil })
	if cb.Failures() != 1 {
		t.Fatalf("expected failure count kept inside the quiet period, got %d", cb.Failures())
	}

	time.Sleep(30 * time.Millisecond)
	_ = cb.Execute(func() error { return nil })
	if cb.Failures() != 0 {
		t.Errorf("expected failure count reset after quiet period, got %d", cb.Failures())
	}
	if cb.State() != StateClosed {
		t.Errorf("expected no state change, got %s", cb.State())
	}
}

func TestCircuitBreaker_StateChangeCallback(t *testing.T) {
	var mu sync.Mutex
	var changes []struct{ from, to State }

	cfg := BreakerConfig{
		FailureThreshold: 1,
		RecoveryTimeout:  10 * time.Millisecond,
		OnStateChange: func(name string, from, to State) {
			mu.Lock()
			changes = append(changes, struct{ from, to State }{from, to})
			mu.Unlock()
		},
	}
	cb := newTestBreaker(cfg)

	_ = cb.Execute(func() error { return stderrors.New("down") })
	time.Sleep(15 * time.Millisecond)
	_ = cb.Execute(func() error { return nil })

	mu.Lock()
	defer mu.Unlock()
	want := []struct{ from, to State }{
		{StateClosed, StateOpen},
		{StateOpen, StateHalfOpen},
		{StateHalfOpen, StateClosed},
	}
	if len(changes) != len(want) {
		t.Fatalf("expected %d transitions, got %d", len(want), len(changes))
	}
	for i, w := range want {
		if changes[i] != w {
			t.Errorf("transition %d: expected %s->%s, got %s->%s",
				i, w.from, w.to, changes[i].from, changes[i].to)
		}
	}
}

func TestCircuitBreaker_ConcurrentAccess(t *testing.T) {
	cb := newTestBreaker(BreakerConfig{FailureThreshold: 1000})

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_ = cb.Execute(func() error {
				if n%2 == 0 {
					return stderrors.New("down")
				}
				return nil
			})
			_ = cb.Allow()
			_ = cb.State()
			_ = cb.Failures()
		}(i)
	}
	wg.Wait()

	if cb.State() != StateClosed {
		t.Errorf("expected StateClosed below threshold, got %s", cb.State())
	}
}

func TestExecuteBreaker_ReturnsResult(t *testing.T) {
	cb := newTestBreaker(BreakerConfig{})

	got, err := ExecuteBreaker(cb, func() (string, error) {
		return "payload", nil
	})
	if err != nil || got != "payload" {
		t.Errorf("expected payload, got %q err %v", got, err)
	}
}

func TestExecuteBreaker_OpenError(t *testing.T) {
	cb := newTestBreaker(BreakerConfig{FailureThreshold: 1, RecoveryTimeout: time.Hour})
	_ = cb.Execute(func() error { return stderrors.New("down") })

	_, err := ExecuteBreaker(cb, func() (string, error) {
		return "never", nil
	})
	var open *OpenError
	if !stderrors.As(err, &open) {
		t.Errorf("expected OpenError, got %v", err)
	}
}

func TestState_String(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StateClosed, "closed"},
		{StateOpen, "open"},
		{StateHalfOpen, "half-open"},
		{State(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("State(%d).String() = %q, want %q", tt.state, got, tt.want)
		}
	}
}
