package scheduler

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/skillplay/skillplay-life/internal/domain/shared"
)

// minInterval keeps non-positive durations from panicking the runtime timers.
const minInterval = time.Millisecond

// Timers is a shared.Scheduler backed by runtime timers. Callbacks are posted
// onto the dispatcher and dropped there if the task was cancelled in between.
type Timers struct {
	dispatcher shared.Dispatcher
}

// NewTimers creates Timers delivering onto dispatcher.
func NewTimers(dispatcher shared.Dispatcher) *Timers {
	return &Timers{dispatcher: dispatcher}
}

var _ shared.Scheduler = (*Timers)(nil)

// After runs fn once after d on the dispatcher.
func (t *Timers) After(d time.Duration, fn func()) shared.Task {
	if d <= 0 {
		d = minInterval
	}

	task := &oneShot{}
	task.active.Store(true)
	task.timer = time.AfterFunc(d, func() {
		t.dispatcher.Post(func() {
			if task.active.CompareAndSwap(true, false) {
				fn()
			}
		})
	})
	return task
}

// Every runs fn every d on the dispatcher until the task is cancelled.
func (t *Timers) Every(d time.Duration, fn func()) shared.Task {
	if d <= 0 {
		d = minInterval
	}

	task := &periodic{stop: make(chan struct{})}
	task.active.Store(true)

	ticker := time.NewTicker(d)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-task.stop:
				return
			case <-ticker.C:
				t.dispatcher.Post(func() {
					if task.active.Load() {
						fn()
					}
				})
			}
		}
	}()
	return task
}

type oneShot struct {
	active atomic.Bool
	timer  *time.Timer
}

func (o *oneShot) Cancel() bool {
	if !o.active.CompareAndSwap(true, false) {
		return false
	}
	o.timer.Stop()
	return true
}

type periodic struct {
	active atomic.Bool
	stop   chan struct{}
	once   sync.Once
}

func (p *periodic) Cancel() bool {
	if !p.active.CompareAndSwap(true, false) {
		return false
	}
	p.once.Do(func() { close(p.stop) })
	return true
}
