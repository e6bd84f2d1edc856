package whisper

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"go.uber.org/zap"
)

// RetryPolicy retries an operation with randomized exponential backoff.
// Only errors the predicate classifies as retryable are attempted again;
// permanent failures return immediately.
type RetryPolicy struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	Retryable      func(error) bool
}

// DefaultRetryPolicy matches the remote API's rate-limit behavior: up to
// 6 attempts, 1s initial backoff doubling to a 60s cap.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:    6,
		InitialBackoff: time.Second,
		MaxBackoff:     60 * time.Second,
		Retryable:      IsTransient,
	}
}

// Do runs op until it succeeds, exhausts the attempt budget, fails
// permanently, or the context is canceled.
func (p RetryPolicy) Do(ctx context.Context, logger *zap.Logger, op func(ctx context.Context) error) error {
	if logger == nil {
		logger = zap.NewNop()
	}

	attempts := p.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			delay := p.backoff(attempt - 1)
			logger.Warn("retrying transcription call",
				zap.Int("attempt", attempt),
				zap.Int("max", attempts),
				zap.Duration("backoff", delay),
				zap.Error(lastErr),
			)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		lastErr = op(ctx)
		if lastErr == nil {
			return nil
		}
		if p.Retryable != nil && !p.Retryable(lastErr) {
			return lastErr
		}
		if ctx.Err() != nil {
			return lastErr
		}
	}

	return lastErr
}

// backoff returns the jittered delay before the given retry: half the
// exponential step plus a random share of the other half.
func (p RetryPolicy) backoff(retry int) time.Duration {
	base := p.InitialBackoff
	if base <= 0 {
		base = time.Second
	}

	delay := base
	for i := 1; i < retry; i++ {
		delay *= 2
		if p.MaxBackoff > 0 && delay >= p.MaxBackoff {
			delay = p.MaxBackoff
			break
		}
	}
	if p.MaxBackoff > 0 && delay > p.MaxBackoff {
		delay = p.MaxBackoff
	}

	half := delay / 2
	return half + time.Duration(rand.Int63n(int64(half)+1))
}

// IsTransient reports whether err is worth retrying: rate limiting,
// server-side failures, and transport errors qualify; invalid input never
// does.
func IsTransient(err error) bool {
	var transcriptionErr *TranscriptionError
	if errors.As(err, &transcriptionErr) {
		return transcriptionErr.Transient
	}
	return false
}
