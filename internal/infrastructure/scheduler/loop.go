// Package scheduler provides the serialized execution context for the SkillPlay Life
// client: a Loop that runs posted closures one at a time, real timers whose callbacks
// are delivered onto a dispatcher, and a Manual virtual clock for tests.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"

	"github.com/skillplay/skillplay-life/internal/domain/shared"
	"github.com/skillplay/skillplay-life/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// LOOP
// ══════════════════════════════════════════════════════════════════════════════

// Loop is the single serialized context. All state machines are driven from
// closures executed by Run, never concurrently.
type Loop struct {
	mu      sync.RWMutex
	queue   chan func()
	stopCh  chan struct{}
	stopped bool
	running bool
	once    sync.Once
	logger  *logger.Logger
}

// LoopConfig contains configuration for the Loop.
type LoopConfig struct {
	// QueueSize bounds the number of pending closures.
	QueueSize int

	// Logger for structured logging.
	Logger *logger.Logger
}

// DefaultLoopConfig returns sensible defaults.
func DefaultLoopConfig() LoopConfig {
	return LoopConfig{QueueSize: 256}
}

// NewLoop creates a Loop. Call Run to start processing.
func NewLoop(config LoopConfig) *Loop {
	if config.QueueSize <= 0 {
		config.QueueSize = 256
	}
	if config.Logger == nil {
		config.Logger = logger.Discard()
	}

	return &Loop{
		queue:  make(chan func(), config.QueueSize),
		stopCh: make(chan struct{}),
		logger: config.Logger.With(logger.Component("loop")),
	}
}

var _ shared.Dispatcher = (*Loop)(nil)

// Post enqueues fn. It blocks while the queue is full and returns false once the
// loop has stopped.
func (l *Loop) Post(fn func()) bool {
	if fn == nil {
		return false
	}

	l.mu.RLock()
	stopped := l.stopped
	l.mu.RUnlock()
	if stopped {
		return false
	}

	select {
	case l.queue <- fn:
		return true
	case <-l.stopCh:
		return false
	}
}

// Do posts fn and waits until it has run on the loop.
func (l *Loop) Do(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	if !l.Post(func() {
		defer close(done)
		fn()
	}) {
		return ErrLoopStopped
	}

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-l.stopCh:
		// fn may have completed right before the stop.
		select {
		case <-done:
			return nil
		default:
			return ErrLoopStopped
		}
	}
}

// Run processes closures until ctx is cancelled or Stop is called. Closures still
// queued at that point are dropped.
func (l *Loop) Run(ctx context.Context) error {
	l.mu.Lock()
	if l.running {
		l.mu.Unlock()
		return ErrLoopAlreadyRunning
	}
	if l.stopped {
		l.mu.Unlock()
		return ErrLoopStopped
	}
	l.running = true
	l.mu.Unlock()

	l.logger.Debug("loop started")
	defer l.Stop()

	for {
		select {
		case <-ctx.Done():
			l.logger.Debug("loop cancelled")
			return ctx.Err()
		case <-l.stopCh:
			l.logger.Debug("loop stopped")
			return nil
		case fn := <-l.queue:
			l.execute(fn)
		}
	}
}

// Stop makes the loop exit after the closure currently running. Safe to call
// more than once and from any goroutine.
func (l *Loop) Stop() {
	l.once.Do(func() {
		l.mu.Lock()
		l.stopped = true
		l.mu.Unlock()
		close(l.stopCh)
	})
}

// Done is closed once the loop has been stopped.
func (l *Loop) Done() <-chan struct{} {
	return l.stopCh
}

func (l *Loop) execute(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("posted closure panicked",
				logger.Any("panic", fmt.Sprint(r)),
				logger.String("stack", string(debug.Stack())),
			)
		}
	}()
	fn()
}

// ══════════════════════════════════════════════════════════════════════════════
// ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrLoopStopped is returned when work is posted to a stopped loop.
	ErrLoopStopped = errors.New("loop is stopped")

	// ErrLoopAlreadyRunning is returned when Run is called twice.
	ErrLoopAlreadyRunning = errors.New("loop is already running")
)
