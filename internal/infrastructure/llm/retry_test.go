package llm

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExponentialBackoff(t *testing.T) {
	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{1, 500 * time.Millisecond},
		{2, 1000 * time.Millisecond},
		{3, 2000 * time.Millisecond},
	}

	for _, tt := range tests {
		t.Run("", func(t *testing.T) {
			assert.Equal(t, tt.expected, exponentialBackoff(tt.attempt))
		})
	}
}

func testRetrier(retryable func(error) bool) *retrier {
	r := newRetrier(Options{RequestsPerSecond: 1000, Burst: 10, MaxRetries: 3}, retryable, slog.Default())
	r.backoff = func(int) time.Duration { return time.Millisecond }
	return r
}

func TestRetrier(t *testing.T) {
	errTransient := errors.New("transient")
	errFinal := errors.New("final")
	retryable := func(err error) bool { return errors.Is(err, errTransient) }

	t.Run("succeeds after transient failures", func(t *testing.T) {
		calls := 0
		err := testRetrier(retryable).do(context.Background(), "op", func(ctx context.Context) error {
			calls++
			if calls < 3 {
				return errTransient
			}
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("stops on final error", func(t *testing.T) {
		calls := 0
		err := testRetrier(retryable).do(context.Background(), "op", func(ctx context.Context) error {
			calls++
			return errFinal
		})
		assert.ErrorIs(t, err, errFinal)
		assert.Equal(t, 1, calls)
	})

	t.Run("wraps last error after max attempts", func(t *testing.T) {
		calls := 0
		err := testRetrier(retryable).do(context.Background(), "op", func(ctx context.Context) error {
			calls++
			return errTransient
		})
		assert.ErrorIs(t, err, errTransient)
		assert.Equal(t, 3, calls)
	})

	t.Run("canceled context stops the limiter", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := testRetrier(retryable).do(ctx, "op", func(ctx context.Context) error {
			t.Fatal("call must not run")
			return nil
		})
		assert.Error(t, err)
	})
}
