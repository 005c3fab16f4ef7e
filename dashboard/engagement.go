package dashboard

import "sync"

// Snapshot maps each widget to its interaction count.
type Snapshot map[WidgetID]int

// Strings returns the snapshot keyed by raw widget id.
func (s Snapshot) Strings() map[string]int {
	out := make(map[string]int, len(s))
	for w, n := range s {
		out[string(w)] = n
	}
	return out
}

// Tracker counts interactions per widget for one dashboard session.
// Counters only ever grow; a new Tracker starts every widget at zero.
type Tracker struct {
	mu     sync.Mutex
	counts map[WidgetID]int
}

// NewTracker creates a Tracker with all known widgets at zero.
func NewTracker() *Tracker {
	counts := make(map[WidgetID]int, len(KnownWidgets))
	for _, w := range KnownWidgets {
		counts[w] = 0
	}
	return &Tracker{counts: counts}
}

// Record increments the counter of w by one and returns the updated snapshot.
func (t *Tracker) Record(w WidgetID) (Snapshot, error) {
	if _, err := ParseWidget(string(w)); err != nil {
		return nil, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.counts[w]++
	return t.snapshotLocked(), nil
}

// Snapshot returns a copy of all counters.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snapshotLocked()
}

func (t *Tracker) snapshotLocked() Snapshot {
	snap := make(Snapshot, len(t.counts))
	for w, n := range t.counts {
		snap[w] = n
	}
	return snap
}
