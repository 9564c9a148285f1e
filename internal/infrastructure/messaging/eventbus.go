// Package messaging implements the in-process event bus for the SkillPlay Life client.
// Domain components publish on the serialized loop; subscribers (metrics, CLI output,
// logging) run synchronously in subscription order.
package messaging

import (
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"

	"github.com/skillplay/skillplay-life/internal/domain/shared"
	"github.com/skillplay/skillplay-life/pkg/logger"
)

var (
	ErrEventBusClosed = errors.New("event bus is closed")
	ErrHandlerPanic   = errors.New("handler panicked")
	ErrNilHandler     = errors.New("handler cannot be nil")
	ErrNilEvent       = errors.New("event cannot be nil")
)

// subscription matches one event type, or every type when all is set.
type subscription struct {
	eventType shared.EventType
	all       bool
	handler   shared.EventHandler
}

func (s subscription) matches(t shared.EventType) bool { return s.all || s.eventType == t }

// InMemoryEventBus delivers events synchronously on the publisher's goroutine,
// so a handler sees the state as of publish time.
type InMemoryEventBus struct {
	mu     sync.RWMutex
	subs   []subscription
	closed bool

	logger  *logger.Logger
	metrics *EventBusMetrics
}

type InMemoryEventBusConfig struct {
	Logger        *logger.Logger
	EnableMetrics bool
}

func DefaultInMemoryEventBusConfig() InMemoryEventBusConfig {
	return InMemoryEventBusConfig{EnableMetrics: true}
}

func NewInMemoryEventBus(config InMemoryEventBusConfig) *InMemoryEventBus {
	if config.Logger == nil {
		config.Logger = logger.Discard()
	}
	bus := &InMemoryEventBus{logger: config.Logger.With(logger.Component("eventbus"))}
	if config.EnableMetrics {
		bus.metrics = NewEventBusMetrics()
	}
	return bus
}

// Subscribe registers handler for one event type.
func (b *InMemoryEventBus) Subscribe(eventType shared.EventType, handler shared.EventHandler) error {
	return b.add(subscription{eventType: eventType, handler: handler})
}

// SubscribeAll registers handler for every event.
func (b *InMemoryEventBus) SubscribeAll(handler shared.EventHandler) error {
	return b.add(subscription{all: true, handler: handler})
}

func (b *InMemoryEventBus) add(s subscription) error {
	if s.handler == nil {
		return ErrNilHandler
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrEventBusClosed
	}
	b.subs = append(b.subs, s)
	return nil
}

// Publish runs every matching handler. Handler errors and panics are logged
// and counted, never returned.
func (b *InMemoryEventBus) Publish(event shared.Event) error {
	if event == nil {
		return ErrNilEvent
	}
	t := event.EventType()

	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return ErrEventBusClosed
	}
	var matched []shared.EventHandler
	for _, s := range b.subs {
		if s.matches(t) {
			matched = append(matched, s.handler)
		}
	}
	b.mu.RUnlock()

	if b.metrics != nil {
		b.metrics.recordPublish(t)
	}
	for _, h := range matched {
		err := b.call(event, h)
		if b.metrics != nil {
			b.metrics.recordHandler(err == nil)
		}
		if err != nil {
			b.logger.Error("event handler failed", logger.String("event_type", string(t)), logger.Err(err))
		}
	}
	return nil
}

func (b *InMemoryEventBus) call(event shared.Event, h shared.EventHandler) (err error) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Debug("handler stack", logger.String("stack", string(debug.Stack())))
			err = fmt.Errorf("%w: %v", ErrHandlerPanic, r)
		}
	}()
	return h(event)
}

// Close drops all subscriptions. Later calls fail with ErrEventBusClosed.
func (b *InMemoryEventBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	b.subs = nil
	return nil
}

// Metrics returns the bus counters, or nil when disabled.
func (b *InMemoryEventBus) Metrics() *EventBusMetrics { return b.metrics }

// EventBusMetrics counts publishes and handler outcomes.
type EventBusMetrics struct {
	mu        sync.Mutex
	published map[shared.EventType]int64

	total    atomic.Int64
	execs    atomic.Int64
	failures atomic.Int64
}

func NewEventBusMetrics() *EventBusMetrics {
	return &EventBusMetrics{published: make(map[shared.EventType]int64)}
}

func (m *EventBusMetrics) recordPublish(t shared.EventType) {
	m.total.Add(1)
	m.mu.Lock()
	m.published[t]++
	m.mu.Unlock()
}

func (m *EventBusMetrics) recordHandler(ok bool) {
	m.execs.Add(1)
	if !ok {
		m.failures.Add(1)
	}
}

// Published returns the publish count for one event type.
func (m *EventBusMetrics) Published(t shared.EventType) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.published[t]
}

// EventBusMetricsSnapshot is a point-in-time copy of the counters.
type EventBusMetricsSnapshot struct {
	TotalPublished    int64
	TotalHandlerExecs int64
	HandlerFailures   int64
}

func (m *EventBusMetrics) Snapshot() EventBusMetricsSnapshot {
	return EventBusMetricsSnapshot{
		TotalPublished:    m.total.Load(),
		TotalHandlerExecs: m.execs.Load(),
		HandlerFailures:   m.failures.Load(),
	}
}
