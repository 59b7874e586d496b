package retry

import (
	"context"
	"time"

	"videoindex-service/pkg/errno"
)

// Config 重试引擎配置
//
// JobTimeout is the hard deadline measured from the start of Run;
// AttemptTimeout is the budget handed to a single attempt, clamped to
// whatever remains before the deadline.
type Config struct {
	MaxAttempts    int
	BackoffBase    time.Duration
	BackoffMax     time.Duration
	JobTimeout     time.Duration
	AttemptTimeout time.Duration
}

// Func 一次尝试的工作函数，超时预算通过参数传入
type Func func(ctx context.Context, attemptTimeout time.Duration) error

// Option 定制引擎行为（测试用）
type Option func(*engine)

type engine struct {
	now       func() time.Time
	sleep     func(d time.Duration)
	onAttempt func(attempt int, timeout time.Duration)
	onError   func(attempt int, err error)
}

// WithClock 替换时钟
func WithClock(now func() time.Time) Option {
	return func(e *engine) { e.now = now }
}

// WithSleep 替换退避休眠
func WithSleep(sleep func(d time.Duration)) Option {
	return func(e *engine) { e.sleep = sleep }
}

// WithOnAttempt 每次尝试前回调
func WithOnAttempt(fn func(attempt int, timeout time.Duration)) Option {
	return func(e *engine) { e.onAttempt = fn }
}

// WithOnError 每次失败后回调
func WithOnError(fn func(attempt int, err error)) Option {
	return func(e *engine) { e.onError = fn }
}

// Run 在硬性总超时内执行fn，可重试错误按确定性指数退避重试
//
// Backoff is deterministic (no jitter): min(base*2^(attempt-1), max,
// time-remaining-before-deadline). A non-retryable error, the last allowed
// attempt, or an exhausted deadline all propagate immediately. When the
// deadline is exhausted before an attempt starts the engine fails with
// errno.ErrJobTimeout without consuming the attempt.
func Run(ctx context.Context, cfg Config, fn Func, opts ...Option) error {
	e := &engine{
		now:   time.Now,
		sleep: time.Sleep,
	}
	for _, opt := range opts {
		opt(e)
	}

	maxAttempts := cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 1
	}

	start := e.now()
	deadline := start.Add(cfg.JobTimeout)

	var lastErr error

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		remaining := deadline.Sub(e.now())
		if remaining <= 0 {
			return errno.ErrJobTimeout.WithMessage("job_timeout=%s", cfg.JobTimeout)
		}

		attemptTimeout := cfg.AttemptTimeout
		if attemptTimeout <= 0 || attemptTimeout > remaining {
			attemptTimeout = remaining
		}

		if e.onAttempt != nil {
			e.onAttempt(attempt, attemptTimeout)
		}

		err := fn(ctx, attemptTimeout)
		if err == nil {
			return nil
		}
		lastErr = err

		if e.onError != nil {
			e.onError(attempt, err)
		}

		if attempt >= maxAttempts || !errno.IsRetryable(err) || errno.IsJobTimeout(err) {
			return err
		}
		if ctx.Err() != nil {
			return lastErr
		}

		// 确定性指数退避: base * 2^(attempt-1)
		backoff := cfg.BackoffBase << (attempt - 1)
		if cfg.BackoffMax > 0 && backoff > cfg.BackoffMax {
			backoff = cfg.BackoffMax
		}

		remaining = deadline.Sub(e.now())
		if remaining <= 0 {
			return errno.ErrJobTimeout.Wrap(lastErr).WithMessage("job_timeout=%s", cfg.JobTimeout)
		}
		if backoff > remaining {
			backoff = remaining
		}

		e.sleep(backoff)
	}

	return lastErr
}
