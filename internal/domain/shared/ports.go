package shared

import (
	"context"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// STORAGE PORT
// ══════════════════════════════════════════════════════════════════════════════

// KeyValueStore is the flat persisted key space. Every key is read and written
// independently; implementations give no cross-key atomicity.
type KeyValueStore interface {
	// Get returns the raw value for key, or an error matching ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key string, value []byte) error

	// Delete removes the given keys. Missing keys are not an error.
	Delete(ctx context.Context, keys ...string) error

	// Close releases backend resources.
	Close() error
}

// ══════════════════════════════════════════════════════════════════════════════
// SCHEDULING PORTS
// ══════════════════════════════════════════════════════════════════════════════

// Dispatcher runs closures on the serialized context that owns all state machines.
type Dispatcher interface {
	// Post enqueues fn. It returns false if the dispatcher no longer accepts work.
	Post(fn func()) bool
}

// Task is a handle to a scheduled callback.
type Task interface {
	// Cancel stops future runs. It reports whether the task was still active.
	Cancel() bool
}

// Scheduler creates cancellable timers whose callbacks run on the serialized context.
type Scheduler interface {
	// After runs fn once after d.
	After(d time.Duration, fn func()) Task

	// Every runs fn every d until cancelled.
	Every(d time.Duration, fn func()) Task
}

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to the Clock interface.
type ClockFunc func() time.Time

// Now implements Clock.
func (f ClockFunc) Now() time.Time { return f() }

// SystemClock returns wall-clock time.
var SystemClock Clock = ClockFunc(time.Now)
