package fetch

import (
	"context"
	"crypto/rand"
	"errors"
	"math"
	"math/big"
	"time"

	"github.com/nao1215/seoaudit/internal/model"
)

// RetryPolicy retries retryable network errors with jittered exponential
// backoff. Parse errors, provider data errors and context cancellation are
// never retried.
type RetryPolicy struct {
	maxAttempts int
	baseDelay   time.Duration
	maxDelay    time.Duration
}

// RetryOption configures a RetryPolicy.
type RetryOption func(*RetryPolicy)

// WithMaxAttempts sets the total number of attempts, including the first.
// Values below 1 are treated as 1.
func WithMaxAttempts(n int) RetryOption {
	return func(p *RetryPolicy) {
		if n < 1 {
			n = 1
		}
		p.maxAttempts = n
	}
}

// WithBaseDelay sets the delay before the second attempt.
func WithBaseDelay(d time.Duration) RetryOption {
	return func(p *RetryPolicy) {
		p.baseDelay = d
	}
}

// WithMaxDelay caps the delay between attempts.
func WithMaxDelay(d time.Duration) RetryOption {
	return func(p *RetryPolicy) {
		p.maxDelay = d
	}
}

// NewRetryPolicy builds a policy with three attempts, 250ms base delay and
// a 5s cap.
func NewRetryPolicy(opts ...RetryOption) *RetryPolicy {
	p := &RetryPolicy{
		maxAttempts: 3,
		baseDelay:   250 * time.Millisecond,
		maxDelay:    5 * time.Second,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// NoRetry is a policy that makes a single attempt.
func NoRetry() *RetryPolicy {
	return NewRetryPolicy(WithMaxAttempts(1))
}

// MaxAttempts returns the configured number of attempts.
func (p *RetryPolicy) MaxAttempts() int {
	return p.maxAttempts
}

// ShouldRetry decides whether err warrants another attempt. attempt is the
// number of attempts already made.
func (p *RetryPolicy) ShouldRetry(err error, attempt int) bool {
	if err == nil || attempt >= p.maxAttempts {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var netErr *model.NetworkError
	if !errors.As(err, &netErr) {
		return false
	}
	return netErr.Retryable()
}

// Backoff returns the wait before the next attempt. attempt starts at 1.
func (p *RetryPolicy) Backoff(attempt int) time.Duration {
	delay := float64(p.baseDelay) * math.Pow(2, float64(attempt-1))
	if delay > float64(p.maxDelay) {
		delay = float64(p.maxDelay)
	}
	jitter := randomJitter(time.Duration(delay) / 2)
	return time.Duration(delay/2) + jitter
}

// Do calls fn until it succeeds, returns a non-retryable error, the
// attempts are exhausted or ctx is done. onRetry, if non-nil, is called
// before each wait.
func (p *RetryPolicy) Do(ctx context.Context, fn func(context.Context) error, onRetry func(attempt int, err error)) error {
	attempt := 0
	for {
		err := fn(ctx)
		attempt++
		if !p.ShouldRetry(err, attempt) {
			return err
		}
		if onRetry != nil {
			onRetry(attempt, err)
		}

		timer := time.NewTimer(p.Backoff(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return err
		case <-timer.C:
		}
	}
}

func randomJitter(limit time.Duration) time.Duration {
	if limit <= 0 {
		return 0
	}
	n, err := rand.Int(rand.Reader, big.NewInt(int64(limit)))
	if err != nil {
		return limit / 2
	}
	return time.Duration(n.Int64())
}
