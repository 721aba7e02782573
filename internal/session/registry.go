package session

import "sync"

// Registry hands out one Session per user id, creating it on first use.
// Sessions must never be shared across users: a table code scanned by one
// customer must not resolve for another.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*Session)}
}

func (r *Registry) For(userID string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[userID]
	if !ok {
		s = New()
		r.sessions[userID] = s
	}
	return s
}
