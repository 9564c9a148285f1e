// Package circuitbreaker stops calling a failing dependency for a cooldown
// after repeated failures, then lets a single trial call decide whether to
// resume.
package circuitbreaker

import (
	"context"
	"errors"
	"sync"
	"time"
)

// State of the breaker.
type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

var (
	// ErrOpen is returned while the breaker rejects calls.
	ErrOpen = errors.New("circuit breaker is open")

	// ErrTrialInFlight is returned in half-open state while the trial call runs.
	ErrTrialInFlight = errors.New("circuit breaker trial in progress")
)

// Config holds breaker configuration.
type Config struct {
	// Name identifies the breaker in logs.
	Name string

	// FailureThreshold is the number of consecutive failures that opens the circuit.
	FailureThreshold int

	// Cooldown is how long the circuit stays open before a trial call.
	Cooldown time.Duration

	// IsFailure decides which errors count. Nil counts every error.
	IsFailure func(error) bool

	// OnStateChange is called after every transition, outside the lock.
	OnStateChange func(name string, from, to State)

	// Now defaults to time.Now.
	Now func() time.Time
}

// DefaultConfig returns defaults for a storage backend.
func DefaultConfig(name string) Config {
	return Config{
		Name:             name,
		FailureThreshold: 3,
		Cooldown:         30 * time.Second,
	}
}

// Counts are cumulative call outcomes.
type Counts struct {
	Requests            int
	Failures            int
	Rejected            int
	ConsecutiveFailures int
}

// Breaker implements the circuit breaker pattern. Safe for concurrent use.
type Breaker struct {
	config Config

	mu       sync.Mutex
	state    State
	counts   Counts
	openedAt time.Time
	trial    bool
}

// New creates a closed breaker.
func New(config Config) *Breaker {
	if config.FailureThreshold <= 0 {
		config.FailureThreshold = 1
	}
	if config.Now == nil {
		config.Now = time.Now
	}
	return &Breaker{config: config}
}

// Execute calls fn unless the circuit is open.
func (b *Breaker) Execute(ctx context.Context, fn func(context.Context) error) error {
	if err := b.before(); err != nil {
		return err
	}
	err := fn(ctx)
	b.after(err)
	return err
}

func (b *Breaker) before() error {
	b.mu.Lock()
	var change func()
	defer func() {
		b.mu.Unlock()
		if change != nil {
			change()
		}
	}()

	switch b.state {
	case StateOpen:
		if b.config.Now().Sub(b.openedAt) < b.config.Cooldown {
			b.counts.Rejected++
			return ErrOpen
		}
		change = b.setState(StateHalfOpen)
		b.trial = true
		return nil
	case StateHalfOpen:
		if b.trial {
			b.counts.Rejected++
			return ErrTrialInFlight
		}
		b.trial = true
		return nil
	}
	return nil
}

func (b *Breaker) after(err error) {
	b.mu.Lock()
	var change func()
	defer func() {
		b.mu.Unlock()
		if change != nil {
			change()
		}
	}()

	b.counts.Requests++
	failed := err != nil
	if failed && b.config.IsFailure != nil {
		failed = b.config.IsFailure(err)
	}

	if !failed {
		b.counts.ConsecutiveFailures = 0
		if b.state == StateHalfOpen {
			b.trial = false
			change = b.setState(StateClosed)
		}
		return
	}

	b.counts.Failures++
	b.counts.ConsecutiveFailures++
	if b.state == StateHalfOpen || b.counts.ConsecutiveFailures >= b.config.FailureThreshold {
		b.trial = false
		b.openedAt = b.config.Now()
		change = b.setState(StateOpen)
	}
}

// setState must be called with mu held; the returned func fires the callback.
func (b *Breaker) setState(to State) func() {
	from := b.state
	if from == to {
		return nil
	}
	b.state = to
	if to == StateClosed {
		b.counts.ConsecutiveFailures = 0
	}
	if b.config.OnStateChange == nil {
		return nil
	}
	name := b.config.Name
	return func() { b.config.OnStateChange(name, from, to) }
}

// State returns the current state.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Counts returns cumulative counts.
func (b *Breaker) Counts() Counts {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.counts
}

// Name returns the breaker name.
func (b *Breaker) Name() string { return b.config.Name }
