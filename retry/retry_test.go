package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

var errTransient = errors.New("transient failure")
var errPermanent = errors.New("permanent failure")

func alwaysRetryable(error) bool { return true }

func TestDoSucceedsFirstAttempt(t *testing.T) {
	attempts := 0
	result, err := Do(context.Background(), DefaultPolicy, alwaysRetryable, func(context.Context) (string, error) {
		attempts++
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != "ok" {
		t.Errorf("expected ok, got %s", result)
	}
	if attempts != 1 {
		t.Errorf("expected 1 attempt, got %d", attempts)
	}
}

func TestDoRetriesTransientErrors(t *testing.T) {
	attempts := 0
	policy := Policy{MaxAttempts: 3, BaseDelay: time.Millisecond}
	result, err := Do(context.Background(), policy, alwaysRetryable, func(context.Context) (int, error) {
		attempts++
		if attempts < 3 {
			return 0, errTransient
		}
		return 42, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != 42 {
		t.Errorf("expected 42, got %d", result)
	}
	if attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts)
	}
}

func TestDoExhaustsAttempts(t *testing.T) {
	attempts := 0
	policy := Policy{MaxAttempts: 4, BaseDelay: time.Millisecond}
	_, err := Do(context.Background(), policy, alwaysRetryable, func(context.Context) (int, error) {
		attempts++
		return 0, errTransient
	})
	if attempts != 4 {
		t.Errorf("expected exactly MaxAttempts attempts, got %d", attempts)
	}
	if !errors.Is(err, errTransient) {
		t.Errorf("expected wrapped last error, got %v", err)
	}
}

func TestDoStopsOnNonRetryable(t *testing.T) {
	attempts := 0
	isRetryable := func(err error) bool { return errors.Is(err, errTransient) }
	policy := Policy{MaxAttempts: 5, BaseDelay: time.Millisecond}
	_, err := Do(context.Background(), policy, isRetryable, func(context.Context) (int, error) {
		attempts++
		return 0, errPermanent
	})
	if attempts != 1 {
		t.Errorf("expected 1 attempt for non-retryable error, got %d", attempts)
	}
	if !errors.Is(err, errPermanent) {
		t.Errorf("expected errPermanent, got %v", err)
	}
}

func TestDoDelayDoubles(t *testing.T) {
	policy := Policy{MaxAttempts: 3, BaseDelay: 20 * time.Millisecond}
	start := time.Now()
	_, _ = Do(context.Background(), policy, alwaysRetryable, func(context.Context) (int, error) {
		return 0, errTransient
	})
	elapsed := time.Since(start)

	// Two backoff sleeps: 20ms then 40ms.
	if elapsed < 60*time.Millisecond {
		t.Errorf("expected at least 60ms of backoff, got %v", elapsed)
	}
}

func TestDoContextCancelledBeforeAttempt(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	attempts := 0
	_, err := Do(ctx, DefaultPolicy, alwaysRetryable, func(context.Context) (int, error) {
		attempts++
		return 0, errTransient
	})
	if attempts != 0 {
		t.Errorf("expected no attempts after cancellation, got %d", attempts)
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestDoContextCancelledDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	attempts := 0
	policy := Policy{MaxAttempts: 3, BaseDelay: time.Minute}
	done := make(chan error, 1)
	go func() {
		_, err := Do(ctx, policy, alwaysRetryable, func(context.Context) (int, error) {
			attempts++
			return 0, errTransient
		})
		done <- err
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Do did not return after context cancellation during backoff")
	}
	if attempts != 1 {
		t.Errorf("expected 1 attempt before cancellation, got %d", attempts)
	}
}

func TestPolicyValidate(t *testing.T) {
	if err := DefaultPolicy.Validate(); err != nil {
		t.Errorf("default policy should be valid: %v", err)
	}
	if err := (Policy{MaxAttempts: 0}).Validate(); err == nil {
		t.Error("expected error for zero MaxAttempts")
	}
	if err := (Policy{MaxAttempts: 1, BaseDelay: -time.Second}).Validate(); err == nil {
		t.Error("expected error for negative BaseDelay")
	}
}
