package services

import (
	"context"
	"fmt"
	"time"
)

// RetryPolicy represents retry behavior as data: how many attempts,
// how long to wait between them, and which errors are worth retrying.
// Call sites share one generic executor instead of hand-rolled
// attempt-counter loops.
type RetryPolicy struct {
	MaxAttempts int
	Backoff     func(attempt int) time.Duration
	Retryable   func(error) bool
}

// DefaultRetryPolicy builds the save policy: linear backoff
// (attempt × base delay), retrying only transient failures.
func DefaultRetryPolicy(maxAttempts int, baseDelay time.Duration) RetryPolicy {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return RetryPolicy{
		MaxAttempts: maxAttempts,
		Backoff: func(attempt int) time.Duration {
			return time.Duration(attempt) * baseDelay
		},
		Retryable: IsRetryable,
	}
}

// TransientError is the terminal form of a retried failure: the policy
// budget is exhausted and the last error is preserved for logging.
type TransientError struct {
	Attempts int
	Err      error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("falha transitória após %d tentativas: %v", e.Attempts, e.Err)
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// Do executes op under the policy. Non-retryable errors are returned
// as-is on the first occurrence; retryable ones are reattempted with
// backoff and wrapped in TransientError once the budget runs out.
func (p RetryPolicy) Do(ctx context.Context, op func(ctx context.Context) error) error {
	var err error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		err = op(ctx)
		if err == nil {
			return nil
		}
		if p.Retryable == nil || !p.Retryable(err) {
			return err
		}
		if attempt == p.MaxAttempts {
			break
		}

		delay := time.Duration(0)
		if p.Backoff != nil {
			delay = p.Backoff(attempt)
		}
		select {
		case <-ctx.Done():
			return &TransientError{Attempts: attempt, Err: ctx.Err()}
		case <-time.After(delay):
		}
	}
	return &TransientError{Attempts: p.MaxAttempts, Err: err}
}
