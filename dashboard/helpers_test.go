package dashboard

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"adwin-rewards/logging"
	"adwin-rewards/models"
	"adwin-rewards/recommender"
)

// manualClock fires delays only when told to.
type manualClock struct {
	mu      sync.Mutex
	waiters []chan time.Time
}

func (c *manualClock) After(time.Duration) <-chan time.Time {
	ch := make(chan time.Time, 1)
	c.mu.Lock()
	c.waiters = append(c.waiters, ch)
	c.mu.Unlock()
	return ch
}

// Fire releases every registered delay.
func (c *manualClock) Fire() {
	c.mu.Lock()
	waiters := c.waiters
	c.waiters = nil
	c.mu.Unlock()
	for _, ch := range waiters {
		ch <- time.Now()
	}
}

type fakeLedger struct {
	mu      sync.Mutex
	balance int
	credits []int
	err     error
	// entered, when set, is signalled as Credit starts; block, when set,
	// holds Credit until it is closed.
	entered chan struct{}
	block   chan struct{}
}

func (l *fakeLedger) Credit(ctx context.Context, userID string, amount int) (int, error) {
	if l.entered != nil {
		l.entered <- struct{}{}
	}
	if l.block != nil {
		<-l.block
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return 0, l.err
	}
	l.credits = append(l.credits, amount)
	l.balance += amount
	return l.balance, nil
}

func (l *fakeLedger) Credits() []int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]int(nil), l.credits...)
}

type fakePublisher struct {
	mu     sync.Mutex
	events []models.Event
}

func (p *fakePublisher) Publish(ev models.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
}

func (p *fakePublisher) Notices() []models.Notice {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []models.Notice
	for _, ev := range p.events {
		if ev.Notice != nil {
			out = append(out, *ev.Notice)
		}
	}
	return out
}

func (p *fakePublisher) HasNotice(title string) bool {
	for _, n := range p.Notices() {
		if n.Title == title {
			return true
		}
	}
	return false
}

func (p *fakePublisher) Count(eventType string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, ev := range p.events {
		if ev.Type == eventType {
			n++
		}
	}
	return n
}

type fakeRecommender struct {
	mu    sync.Mutex
	calls []recommender.Request
	resp  recommender.Response
	err   error
	// started and release let a test hold a request in flight.
	started chan struct{}
	release chan struct{}
}

func (r *fakeRecommender) Recommend(ctx context.Context, req recommender.Request) (recommender.Response, error) {
	r.mu.Lock()
	r.calls = append(r.calls, req)
	r.mu.Unlock()
	if r.started != nil {
		r.started <- struct{}{}
	}
	if r.release != nil {
		select {
		case <-r.release:
		case <-ctx.Done():
			return recommender.Response{}, ctx.Err()
		}
	}
	return r.resp, r.err
}

func (r *fakeRecommender) Calls() []recommender.Request {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]recommender.Request(nil), r.calls...)
}

var errRemote = errors.New("permission denied")

type harness struct {
	clock   *manualClock
	ledger  *fakeLedger
	pub     *fakePublisher
	rec     *fakeRecommender
	session *Session
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	return newHarnessWith(t, nil)
}

// newHarnessWith lets a test adjust the options after the manual clock is
// installed.
func newHarnessWith(t *testing.T, configure func(*Options)) *harness {
	t.Helper()
	h := &harness{
		clock:  &manualClock{},
		ledger: &fakeLedger{balance: 100},
		pub:    &fakePublisher{},
		rec:    &fakeRecommender{},
	}
	opts := DefaultOptions()
	opts.Clock = h.clock
	if configure != nil {
		configure(&opts)
	}
	h.session = NewSession("user-1", Deps{
		Ledger:      h.ledger,
		Recommender: h.rec,
		Publisher:   h.pub,
		Logger:      logging.Discard(),
	}, opts)
	t.Cleanup(h.session.Close)
	return h
}

func (h *harness) rewarder() rewarder {
	return rewarder{userID: "user-1", ledger: h.ledger, pub: h.pub, log: logging.Discard()}
}

// eventually polls cond until it holds or the deadline passes.
func eventually(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("condition not met: %s", msg)
}

// claimedDays returns the claimed day numbers of s in order.
func claimedDays(s CheckInState) []int {
	var out []int
	for _, d := range s.Days {
		if d.Status == DayClaimed {
			out = append(out, d.Number)
		}
	}
	return out
}
