package checkout

import (
	"sync"

	"github.com/vasiliy-maslov/restaurant-ordering/internal/catalog"
	"github.com/vasiliy-maslov/restaurant-ordering/internal/session"
)

// Registry hands out one Composer per user id, created on first use. Both the
// session state a composer reads and its in-flight submission latch are scoped
// to one user: a submission by one customer never blocks another's.
type Registry struct {
	catalog   catalog.Client
	sessions  *session.Registry
	mu        sync.Mutex
	composers map[string]*Composer
}

func NewRegistry(client catalog.Client, sessions *session.Registry) *Registry {
	return &Registry{
		catalog:   client,
		sessions:  sessions,
		composers: make(map[string]*Composer),
	}
}

func (r *Registry) For(userID string) *Composer {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.composers[userID]
	if !ok {
		c = NewComposer(r.catalog, r.sessions.For(userID))
		r.composers[userID] = c
	}
	return c
}
