package resilience

import (
	"context"
	stderrors "errors"
	"math"
	"testing"
	"time"

	"github.com/CodyM0RGAN/berrys-resilience/errors"
	"github.com/CodyM0RGAN/berrys-resilience/logger"
)

func newTestRetrier() *Retrier {
	return NewRetrier(logger.Nop(), nil)
}

func fastPolicy(maxRetries int) Policy {
	return Policy{
		MaxRetries: maxRetries,
		BaseDelay:  time.Millisecond,
		MaxDelay:   5 * time.Millisecond,
	}
}

func TestRetry_SucceedsFirstAttempt(t *testing.T) {
	r := newTestRetrier()

	calls := 0
	got, err := Retry(context.Background(), r, fastPolicy(3), "svc", func() (int, error) {
		calls++
		return 42, nil
	})

	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got != 42 {
		t.Errorf("expected 42, got %d", got)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestRetry_ExhaustsBudget(t *testing.T) {
	r := newTestRetrier()
	testErr := stderrors.New("down")

	calls := 0
	_, err := Retry(context.Background(), r, fastPolicy(3), "svc", func() (int, error) {
		calls++
		return 0, testErr
	})

	// max_retries retries after the first attempt.
	if calls != 4 {
		t.Errorf("expected 4 attempts, got %d", calls)
	}

	var exhausted *ExhaustedError
	if !stderrors.As(err, &exhausted) {
		t.Fatalf("expected ExhaustedError, got %v", err)
	}
	if exhausted.Attempts != 4 {
		t.Errorf("expected Attempts=4, got %d", exhausted.Attempts)
	}
	if !stderrors.Is(err, testErr) {
		t.Error("expected the last error in the chain")
	}
	if exhausted.Name != "svc" {
		t.Errorf("expected dependency name svc, got %s", exhausted.Name)
	}
}

func TestRetry_SucceedsMidway(t *testing.T) {
	r := newTestRetrier()

	calls := 0
	got, err := Retry(context.Background(), r, fastPolicy(5), "svc", func() (string, error) {
		calls++
		if calls < 3 {
			return "", errors.Unavailable("svc")
		}
		return "ok", nil
	})

	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got != "ok" || calls != 3 {
		t.Errorf("expected ok after 3 calls, got %q after %d", got, calls)
	}
}

func TestRetry_NonRetryableKindAbortsImmediately(t *testing.T) {
	r := newTestRetrier()
	policy := fastPolicy(5)
	policy.RetryOn = []errors.Kind{errors.KindTimeout, errors.KindConnection}

	calls := 0
	_, err := Retry(context.Background(), r, policy, "svc", func() (int, error) {
		calls++
		return 0, errors.Validation("bad request")
	})

	if calls != 1 {
		t.Errorf("expected 1 attempt, got %d", calls)
	}

	var exhausted *ExhaustedError
	if !stderrors.As(err, &exhausted) {
		t.Fatalf("expected ExhaustedError, got %v", err)
	}
	if exhausted.Attempts != 1 {
		t.Errorf("expected Attempts=1, got %d", exhausted.Attempts)
	}
	if kind, ok := errors.KindOf(err); !ok || kind != errors.KindValidation {
		t.Errorf("expected wrapped KindValidation, got %v/%v", kind, ok)
	}
}

func TestRetry_RetryableKindKeepsGoing(t *testing.T) {
	r := newTestRetrier()
	policy := fastPolicy(2)
	policy.RetryOn = []errors.Kind{errors.KindTimeout}

	calls := 0
	_, err := Retry(context.Background(), r, policy, "svc", func() (int, error) {
		calls++
		return 0, errors.Timeout("call")
	})

	if calls != 3 {
		t.Errorf("expected 3 attempts, got %d", calls)
	}
	var exhausted *ExhaustedError
	if !stderrors.As(err, &exhausted) {
		t.Fatalf("expected ExhaustedError, got %v", err)
	}
}

func TestRetry_UnclassifiedErrorWithFilterAborts(t *testing.T) {
	r := newTestRetrier()
	policy := fastPolicy(5)
	policy.RetryOn = []errors.Kind{errors.KindTimeout}

	calls := 0
	_, _ = Retry(context.Background(), r, policy, "svc", func() (int, error) {
		calls++
		return 0, stderrors.New("unclassified")
	})

	if calls != 1 {
		t.Errorf("expected 1 attempt for unclassified error with filter, got %d", calls)
	}
}

func TestRetry_ZeroRetriesMeansSingleAttempt(t *testing.T) {
	r := newTestRetrier()

	calls := 0
	_, err := Retry(context.Background(), r, fastPolicy(0), "svc", func() (int, error) {
		calls++
		return 0, stderrors.New("down")
	})

	if calls != 1 {
		t.Errorf("expected 1 attempt, got %d", calls)
	}
	var exhausted *ExhaustedError
	if !stderrors.As(err, &exhausted) || exhausted.Attempts != 1 {
		t.Errorf("expected ExhaustedError with Attempts=1, got %v", err)
	}
}

func TestRetry_ContextCancelledDuringBackoff(t *testing.T) {
	r := newTestRetrier()
	policy := Policy{MaxRetries: 3, BaseDelay: time.Hour, MaxDelay: time.Hour}

	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	done := make(chan error, 1)
	go func() {
		_, err := Retry(ctx, r, policy, "svc", func() (int, error) {
			calls++
			return 0, stderrors.New("down")
		})
		done <- err
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !stderrors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("retry did not return after cancellation")
	}
	if calls != 1 {
		t.Errorf("expected 1 attempt before cancellation, got %d", calls)
	}
}

func TestRetrySleep_SameDecisionLogic(t *testing.T) {
	r := newTestRetrier()

	calls := 0
	_, err := RetrySleep(r, fastPolicy(2), "svc", func() (int, error) {
		calls++
		return 0, stderrors.New("down")
	})

	if calls != 3 {
		t.Errorf("expected 3 attempts, got %d", calls)
	}
	var exhausted *ExhaustedError
	if !stderrors.As(err, &exhausted) || exhausted.Attempts != 3 {
		t.Errorf("expected ExhaustedError with Attempts=3, got %v", err)
	}
}

func TestBackoffDelay_Bounds(t *testing.T) {
	policy := Policy{
		BaseDelay:    100 * time.Millisecond,
		MaxDelay:     time.Second,
		JitterFactor: 0.25,
	}

	for k := 1; k <= 6; k++ {
		raw := float64(policy.BaseDelay) * math.Pow(2, float64(k-1))
		capped := math.Min(raw, float64(policy.MaxDelay))
		lo := time.Duration(capped * (1 - policy.JitterFactor))
		hi := time.Duration(capped * (1 + policy.JitterFactor))

		for i := 0; i < 50; i++ {
			d := backoffDelay(policy, k)
			if d < lo || d > hi {
				t.Fatalf("attempt %d: delay %v outside [%v, %v]", k, d, lo, hi)
			}
		}
	}
}

func TestBackoffDelay_NoJitterIsDeterministic(t *testing.T) {
	policy := Policy{BaseDelay: 10 * time.Millisecond, MaxDelay: time.Second}

	want := []time.Duration{
		10 * time.Millisecond,
		20 * time.Millisecond,
		40 * time.Millisecond,
		80 * time.Millisecond,
	}
	for k, w := range want {
		if d := backoffDelay(policy, k+1); d != w {
			t.Errorf("attempt %d: expected %v, got %v", k+1, w, d)
		}
	}
}
