package dashboard

import (
	"context"
	"sync"
	"time"

	"github.com/sourcegraph/conc"
)

// Clock schedules delayed work. Tests substitute a manual clock.
type Clock interface {
	After(d time.Duration) <-chan time.Time
}

type realClock struct{}

func (realClock) After(d time.Duration) <-chan time.Time {
	return time.After(d)
}

// RealClock is the wall clock.
var RealClock Clock = realClock{}

// TimedTask runs a reward grant after a fixed delay. At most one grant is
// outstanding at a time, and once Close returns no new grant begins. A grant
// that already began runs to completion on a context that is not cancelled
// by teardown.
type TimedTask struct {
	delay time.Duration
	clock Clock
	wg    *conc.WaitGroup

	mu      sync.Mutex
	current *taskRun
	closed  bool
}

type taskRun struct {
	cancel   context.CancelFunc
	granting bool
}

// NewTimedTask creates a task. Goroutines are tracked in wg so the owning
// session can wait for them on close.
func NewTimedTask(delay time.Duration, clock Clock, wg *conc.WaitGroup) *TimedTask {
	if clock == nil {
		clock = RealClock
	}
	return &TimedTask{delay: delay, clock: clock, wg: wg}
}

// Start schedules grant. announce, when non-nil, runs once the task is
// accepted and before grant can begin. It returns ErrTaskPending while a
// previous grant is outstanding and ErrSessionClosed after Close.
func (t *TimedTask) Start(ctx context.Context, announce func(), grant func(context.Context)) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return ErrSessionClosed
	}
	if t.current != nil {
		return ErrTaskPending
	}
	runCtx, cancel := context.WithCancel(ctx)
	run := &taskRun{cancel: cancel}
	t.current = run

	// The goroutine needs t.mu before it can grant, so announce always
	// precedes the grant. Registering with wg under t.mu keeps the Go call
	// ordered before Close.
	if announce != nil {
		announce()
	}
	fire := t.clock.After(t.delay)
	t.wg.Go(func() {
		defer cancel()

		select {
		case <-runCtx.Done():
			t.release(run)
			return
		case <-fire:
		}

		t.mu.Lock()
		if t.current != run || runCtx.Err() != nil {
			if t.current == run {
				t.current = nil
			}
			t.mu.Unlock()
			return
		}
		run.granting = true
		t.mu.Unlock()

		grant(context.WithoutCancel(runCtx))
		t.release(run)
	})
	return nil
}

// Pending reports whether a grant is scheduled or running.
func (t *TimedTask) Pending() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.current != nil
}

// Close cancels any scheduled grant and rejects future starts.
func (t *TimedTask) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	t.cancelLocked()
}

func (t *TimedTask) cancelLocked() {
	run := t.current
	if run == nil || run.granting {
		return
	}
	run.cancel()
	t.current = nil
}

func (t *TimedTask) release(run *taskRun) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.current == run {
		t.current = nil
	}
}
