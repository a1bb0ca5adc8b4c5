package retry

import (
	"context"
	"time"

	ai "github.com/spetersoncode/gatekeep"
)

// Do calls fn until it succeeds, fails with a non-transient error, or
// cfg.MaxAttempts is reached. A server-provided Retry-After longer than the
// computed backoff is honored. Cancelling ctx aborts the wait.
func Do[T any](ctx context.Context, cfg Config, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	attempts := max(cfg.MaxAttempts, 1)

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		result, err := fn(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err

		retryable := IsTransient(err)
		cfg.emit(Event{Type: EventAttemptFailed, Attempt: attempt + 1, Err: err, Retryable: retryable})
		if !retryable {
			return zero, err
		}
		if attempt == attempts-1 {
			break
		}

		delay := max(cfg.Delay(attempt), ai.RetryAfterOf(err))
		if cfg.MaxDelay > 0 {
			delay = min(delay, cfg.MaxDelay)
		}
		cfg.emit(Event{Type: EventRetrying, Attempt: attempt + 1, Err: err, Delay: delay, Retryable: true})

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, ctx.Err()
		case <-timer.C:
		}
	}

	cfg.emit(Event{Type: EventExhausted, Attempt: attempts, Err: lastErr, Retryable: true})
	return zero, lastErr
}
