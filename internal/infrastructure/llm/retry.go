package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/time/rate"
)

// retrier runs a provider call behind the outbound rate limiter and retries
// transient failures with exponential backoff.
type retrier struct {
	limiter     *rate.Limiter
	maxAttempts int
	backoff     func(attempt int) time.Duration
	retryable   func(err error) bool
	logger      *slog.Logger
}

func newRetrier(opts Options, retryable func(error) bool, logger *slog.Logger) *retrier {
	return &retrier{
		limiter:     rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), opts.Burst),
		maxAttempts: opts.MaxRetries,
		backoff:     exponentialBackoff,
		retryable:   retryable,
		logger:      logger,
	}
}

func (r *retrier) do(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	var lastErr error
	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		if err := r.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter: %w", err)
		}

		err := fn(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		if ctx.Err() != nil || !r.retryable(err) {
			return err
		}

		r.logger.Warn("llm.request.retry", "op", op, "attempt", attempt, "error", err)
		if attempt == r.maxAttempts {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(r.backoff(attempt)):
		}
	}
	return fmt.Errorf("%s failed after %d attempts: %w", op, r.maxAttempts, lastErr)
}

// exponentialBackoff returns 500ms, 1s, 2s, ...
func exponentialBackoff(attempt int) time.Duration {
	return time.Duration(1<<uint(attempt-1)) * 500 * time.Millisecond
}

func isContextError(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
