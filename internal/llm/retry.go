package llm

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"

	"kbqa/internal/contextutil"
)

// RetryPolicy bounds retries of rate-limited or failed model server calls.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// DefaultRetryPolicy is used by clients created without WithRetry.
var DefaultRetryPolicy = RetryPolicy{MaxAttempts: 3, BaseDelay: 500 * time.Millisecond, MaxDelay: 8 * time.Second}

// retry runs op until it succeeds, returns a non-retryable error, the policy
// is exhausted or ctx is done.
func retry[T any](ctx context.Context, policy RetryPolicy, what string, op func() (T, error)) (T, error) {
	logger := contextutil.LoggerFromContext(ctx)

	attempts := policy.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	b := backoff.NewExponentialBackOff(
		backoff.WithInitialInterval(policy.BaseDelay),
		backoff.WithMaxInterval(policy.MaxDelay),
		backoff.WithMaxElapsedTime(0),
	)
	bo := backoff.WithContext(backoff.WithMaxRetries(b, uint64(attempts-1)), ctx)

	operation := func() (T, error) {
		v, err := op()
		if err == nil || IsRetryable(err) {
			return v, err
		}
		return v, backoff.Permanent(err)
	}
	notify := func(err error, wait time.Duration) {
		logger.WarnContext(ctx, what+" failed, retrying", "error", err, "wait_ms", wait.Milliseconds())
	}

	return backoff.RetryNotifyWithData(operation, bo, notify)
}
