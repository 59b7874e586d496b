package retry

import (
	"context"
	"testing"
	"time"

	"videoindex-service/pkg/errno"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func TestRunSucceedsFirstAttempt(t *testing.T) {
	calls := 0
	err := Run(context.Background(), Config{MaxAttempts: 3, BackoffBase: time.Second, JobTimeout: time.Minute},
		func(ctx context.Context, timeout time.Duration) error {
			calls++
			return nil
		},
		WithSleep(func(time.Duration) { t.Fatal("should not sleep on success") }),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected 1 attempt, got %d", calls)
	}
}

func TestRunRetriesWithDeterministicBackoff(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1000, 0)}
	var sleeps []time.Duration
	calls := 0

	err := Run(context.Background(),
		Config{MaxAttempts: 3, BackoffBase: 2 * time.Second, BackoffMax: time.Minute, JobTimeout: time.Hour},
		func(ctx context.Context, timeout time.Duration) error {
			calls++
			return errno.ErrTranscriptionFailed
		},
		WithClock(clock.Now),
		WithSleep(func(d time.Duration) { sleeps = append(sleeps, d) }),
	)
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls)
	}
	if len(sleeps) != 2 {
		t.Fatalf("expected 2 sleeps, got %d", len(sleeps))
	}
	if sleeps[0] != 2*time.Second || sleeps[1] != 4*time.Second {
		t.Fatalf("expected backoff 2s,4s got %v", sleeps)
	}
}

func TestRunBackoffCappedByMax(t *testing.T) {
	var sleeps []time.Duration
	_ = Run(context.Background(),
		Config{MaxAttempts: 5, BackoffBase: 10 * time.Second, BackoffMax: 15 * time.Second, JobTimeout: time.Hour},
		func(ctx context.Context, timeout time.Duration) error {
			return errno.ErrTranscriptionFailed
		},
		WithSleep(func(d time.Duration) { sleeps = append(sleeps, d) }),
	)
	for i, d := range sleeps {
		if d > 15*time.Second {
			t.Fatalf("sleep %d exceeds cap: %v", i, d)
		}
	}
	if len(sleeps) != 4 {
		t.Fatalf("expected 4 sleeps, got %d", len(sleeps))
	}
	if sleeps[0] != 10*time.Second || sleeps[1] != 15*time.Second {
		t.Fatalf("expected 10s then capped 15s, got %v", sleeps)
	}
}

func TestRunFatalErrorNotRetried(t *testing.T) {
	calls := 0
	err := Run(context.Background(),
		Config{MaxAttempts: 3, BackoffBase: time.Second, JobTimeout: time.Hour},
		func(ctx context.Context, timeout time.Duration) error {
			calls++
			return errno.ErrPayloadInvalid
		},
		WithSleep(func(time.Duration) { t.Fatal("fatal errors must not back off") }),
	)
	if !errno.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected 1 attempt, got %d", calls)
	}
}

func TestRunJobTimeoutBeforeAttempt(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1000, 0)}
	calls := 0

	err := Run(context.Background(),
		Config{MaxAttempts: 3, BackoffBase: time.Second, JobTimeout: 10 * time.Second},
		func(ctx context.Context, timeout time.Duration) error {
			calls++
			clock.Advance(20 * time.Second)
			return errno.ErrTranscriptionFailed
		},
		WithClock(clock.Now),
		WithSleep(func(time.Duration) {}),
	)
	if !errno.IsJobTimeout(err) {
		t.Fatalf("expected job timeout, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("deadline exhausted after first attempt, got %d attempts", calls)
	}
}

func TestRunAttemptTimeoutClampedToRemaining(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1000, 0)}
	var budgets []time.Duration

	_ = Run(context.Background(),
		Config{MaxAttempts: 3, BackoffBase: time.Second, JobTimeout: 10 * time.Second, AttemptTimeout: 8 * time.Second},
		func(ctx context.Context, timeout time.Duration) error {
			budgets = append(budgets, timeout)
			clock.Advance(5 * time.Second)
			return errno.ErrTranscriptionFailed
		},
		WithClock(clock.Now),
		WithSleep(func(d time.Duration) { clock.Advance(d) }),
	)
	if len(budgets) < 2 {
		t.Fatalf("expected at least 2 attempts, got %d", len(budgets))
	}
	if budgets[0] != 8*time.Second {
		t.Fatalf("first budget should be attempt timeout, got %v", budgets[0])
	}
	if budgets[1] >= 8*time.Second {
		t.Fatalf("second budget should be clamped below attempt timeout, got %v", budgets[1])
	}
}

func TestRunJobTimeoutErrorIsNotRetried(t *testing.T) {
	calls := 0
	err := Run(context.Background(),
		Config{MaxAttempts: 3, BackoffBase: time.Second, JobTimeout: time.Hour},
		func(ctx context.Context, timeout time.Duration) error {
			calls++
			return errno.ErrJobTimeout
		},
		WithSleep(func(time.Duration) { t.Fatal("job timeout must not back off") }),
	)
	if !errno.IsJobTimeout(err) {
		t.Fatalf("expected job timeout, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected 1 attempt, got %d", calls)
	}
}

func TestRunRetryableTimeoutIsRetried(t *testing.T) {
	calls := 0
	err := Run(context.Background(),
		Config{MaxAttempts: 2, BackoffBase: time.Second, JobTimeout: time.Hour},
		func(ctx context.Context, timeout time.Duration) error {
			calls++
			if calls == 1 {
				return errno.ErrAttemptTimeout
			}
			return nil
		},
		WithSleep(func(time.Duration) {}),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected attempt timeout to be retried, got %d attempts", calls)
	}
}
