package dashboard

import (
	"sync"

	"github.com/sourcegraph/conc"
)

// Registry holds the live session of every user. Opening a session replaces
// and tears down the previous one, the way a full page reload starts the
// dashboard from scratch.
type Registry struct {
	deps Deps
	opts Options

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewRegistry creates an empty registry.
func NewRegistry(deps Deps, opts Options) *Registry {
	return &Registry{
		deps:     deps,
		opts:     opts,
		sessions: make(map[string]*Session),
	}
}

// Open starts a fresh session for userID.
func (r *Registry) Open(userID string) *Session {
	s := NewSession(userID, r.deps, r.opts)

	r.mu.Lock()
	prev := r.sessions[userID]
	r.sessions[userID] = s
	r.mu.Unlock()

	if prev != nil {
		prev.Close()
	}
	return s
}

// Get returns the live session of userID.
func (r *Registry) Get(userID string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[userID]
	return s, ok
}

// Close tears down the session of userID. It reports whether one existed.
func (r *Registry) Close(userID string) bool {
	r.mu.Lock()
	s, ok := r.sessions[userID]
	delete(r.sessions, userID)
	r.mu.Unlock()

	if ok {
		s.Close()
	}
	return ok
}

// CloseAll tears down every session. Used on shutdown.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	sessions := r.sessions
	r.sessions = make(map[string]*Session)
	r.mu.Unlock()

	wg := conc.NewWaitGroup()
	for _, s := range sessions {
		wg.Go(s.Close)
	}
	wg.Wait()
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
