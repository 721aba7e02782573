// Package session holds the in-process session state shared across screens:
// whether a user session is active, the table code captured from a scanned
// deep link, and the preferred fulfillment type. The launch/deep-link handler
// writes here; the ordering core only reads.
package session

import "sync"

type Session struct {
	mu          sync.RWMutex
	active      bool
	tableCode   string
	fulfillment int
}

func New() *Session {
	return &Session{}
}

func (s *Session) SetActive(active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = active
}

func (s *Session) Active() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

func (s *Session) SetTableCode(code string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tableCode = code
}

func (s *Session) TableCode() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tableCode
}

func (s *Session) SetFulfillment(t int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fulfillment = t
}

// Fulfillment returns the preferred fulfillment type, or 0 when none was set.
func (s *Session) Fulfillment() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fulfillment
}
