package retrylimit

import (
	"context"
	"errors"
	"testing"
	"time"
)

type statusErr int

func (s statusErr) Error() string   { return "status error" }
func (s statusErr) StatusCode() int { return int(s) }

func fastPolicy(attempts int) Policy {
	return Policy{Attempts: attempts, Delay: time.Millisecond, MaxDelay: 2 * time.Millisecond, Multiplier: 2}
}

func TestDoRetriesUntilSuccess(t *testing.T) {
	calls := 0
	err := Do(context.Background(), nil, fastPolicy(5), func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("flaky")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	if calls != 3 {
		t.Fatalf("calls = %d, want 3", calls)
	}
}

func TestDoStopsOnPermanent(t *testing.T) {
	calls := 0
	cause := errors.New("video unavailable")
	err := Do(context.Background(), nil, fastPolicy(5), func(context.Context) error {
		calls++
		return Permanent(cause)
	})
	if !errors.Is(err, cause) || calls != 1 {
		t.Fatalf("Do() = %v after %d calls", err, calls)
	}
}

func TestDoGivesUp(t *testing.T) {
	cause := errors.New("down")
	err := Do(context.Background(), nil, fastPolicy(2), func(context.Context) error { return cause })
	if !errors.Is(err, cause) {
		t.Fatalf("Do() error = %v, want wrapped cause", err)
	}
}

func TestLimiterAdapts(t *testing.T) {
	l := New(Config{Rate: 4, Min: 1, Max: 8, StepUp: 1, StepDown: 0.5, Cooldown: time.Hour})
	l.Throttled()
	if got := l.Limit(); got != 2 {
		t.Fatalf("Limit() after throttle = %v, want 2", got)
	}
	l.Throttled()
	l.Throttled()
	if got := l.Limit(); got != 1 {
		t.Fatalf("Limit() floor = %v, want 1", got)
	}
	// Still inside the cooldown, so no step up.
	l.Succeeded()
	if got := l.Limit(); got != 1 {
		t.Fatalf("Limit() during cooldown = %v, want 1", got)
	}
}

func TestThrottlingLowersLimit(t *testing.T) {
	l := New(Config{Rate: 4, Min: 1, Max: 8, StepDown: 0.5})
	_ = Do(context.Background(), l, fastPolicy(1), func(context.Context) error { return statusErr(429) })
	if got := l.Limit(); got != 2 {
		t.Fatalf("Limit() = %v, want 2", got)
	}
	if !Throttling(statusErr(503)) || Throttling(statusErr(404)) {
		t.Fatal("Throttling() classification wrong")
	}
}
