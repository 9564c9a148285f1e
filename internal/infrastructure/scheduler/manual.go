package scheduler

import (
	"sync"
	"time"

	"github.com/skillplay/skillplay-life/internal/domain/shared"
)

// Manual is a virtual-time Dispatcher, Scheduler and Clock. Posted closures run
// inline; timers fire only when Advance moves the clock past their due time.
type Manual struct {
	mu    sync.Mutex
	now   time.Time
	seq   uint64
	tasks []*manualTask
}

// NewManual creates a Manual clock starting at start.
func NewManual(start time.Time) *Manual {
	return &Manual{now: start}
}

var (
	_ shared.Dispatcher = (*Manual)(nil)
	_ shared.Scheduler  = (*Manual)(nil)
	_ shared.Clock      = (*Manual)(nil)
)

// Now returns the virtual time.
func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Post runs fn immediately on the caller's goroutine.
func (m *Manual) Post(fn func()) bool {
	if fn == nil {
		return false
	}
	fn()
	return true
}

// After schedules fn once, d after the current virtual time.
func (m *Manual) After(d time.Duration, fn func()) shared.Task {
	return m.schedule(d, 0, fn)
}

// Every schedules fn every d starting d after the current virtual time.
func (m *Manual) Every(d time.Duration, fn func()) shared.Task {
	if d <= 0 {
		d = minInterval
	}
	return m.schedule(d, d, fn)
}

func (m *Manual) schedule(d, period time.Duration, fn func()) shared.Task {
	if d <= 0 {
		d = minInterval
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.seq++
	task := &manualTask{
		owner:  m,
		due:    m.now.Add(d),
		period: period,
		fn:     fn,
		seq:    m.seq,
		active: true,
	}
	m.tasks = append(m.tasks, task)
	return task
}

// Advance moves virtual time forward by d, firing due tasks in due-time order.
// Tasks scheduled by callbacks fire within the same Advance if they fall due.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	target := m.now.Add(d)

	for {
		next := m.nextDueLocked(target)
		if next == nil {
			break
		}

		m.now = next.due
		if next.period > 0 {
			next.due = next.due.Add(next.period)
		} else {
			next.active = false
		}
		fn := next.fn

		m.mu.Unlock()
		fn()
		m.mu.Lock()
	}

	m.now = target
	m.compactLocked()
	m.mu.Unlock()
}

// Pending returns the number of active tasks.
func (m *Manual) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for _, t := range m.tasks {
		if t.active {
			n++
		}
	}
	return n
}

func (m *Manual) nextDueLocked(limit time.Time) *manualTask {
	var best *manualTask
	for _, t := range m.tasks {
		if !t.active || t.due.After(limit) {
			continue
		}
		if best == nil || t.due.Before(best.due) || (t.due.Equal(best.due) && t.seq < best.seq) {
			best = t
		}
	}
	return best
}

func (m *Manual) compactLocked() {
	kept := m.tasks[:0]
	for _, t := range m.tasks {
		if t.active {
			kept = append(kept, t)
		}
	}
	m.tasks = kept
}

type manualTask struct {
	owner  *Manual
	due    time.Time
	period time.Duration
	fn     func()
	seq    uint64
	active bool
}

func (t *manualTask) Cancel() bool {
	t.owner.mu.Lock()
	defer t.owner.mu.Unlock()

	if !t.active {
		return false
	}
	t.active = false
	return true
}
