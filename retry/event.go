package retry

import "time"

// EventType identifies what happened during a retried call.
type EventType string

const (
	// EventAttemptFailed fires after a failed attempt.
	EventAttemptFailed EventType = "attempt_failed"

	// EventRetrying fires before sleeping between attempts.
	EventRetrying EventType = "retrying"

	// EventExhausted fires when the last allowed attempt failed.
	EventExhausted EventType = "exhausted"
)

// Event describes a failed attempt or an upcoming retry.
type Event struct {
	Type EventType

	// Attempt is the attempt number (1-indexed).
	Attempt     int
	MaxAttempts int

	Err error

	// Delay is the wait before the next attempt (EventRetrying only).
	Delay time.Duration

	// Retryable reports whether Err was classified as transient.
	Retryable bool

	Timestamp time.Time
}

func (c Config) emit(e Event) {
	if c.OnEvent == nil {
		return
	}
	e.Timestamp = time.Now()
	e.MaxAttempts = c.MaxAttempts
	c.OnEvent(e)
}
