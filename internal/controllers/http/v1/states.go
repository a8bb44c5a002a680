package http

import (
	"sync"
	"time"
)

const (
	loginStateTTL  = 10 * time.Minute
	maxLoginStates = 1024
)

// loginStates holds the OAuth state values handed out by /auth/login. Each is
// accepted once and only within ttl; the oldest are dropped beyond limit.
type loginStates struct {
	mu     sync.Mutex
	ttl    time.Duration
	limit  int
	now    func() time.Time
	issued map[string]time.Time
}

func newLoginStates(ttl time.Duration, limit int, now func() time.Time) *loginStates {
	return &loginStates{
		ttl:    ttl,
		limit:  limit,
		now:    now,
		issued: make(map[string]time.Time),
	}
}

func (s *loginStates) Add(state string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.pruneLocked(now)

	for len(s.issued) >= s.limit {
		var oldest string
		var oldestAt time.Time
		for st, at := range s.issued {
			if oldest == "" || at.Before(oldestAt) {
				oldest, oldestAt = st, at
			}
		}
		delete(s.issued, oldest)
	}
	s.issued[state] = now
}

// Take reports whether state was issued and has not expired, and forgets it.
func (s *loginStates) Take(state string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	at, ok := s.issued[state]
	delete(s.issued, state)
	return ok && s.now().Sub(at) < s.ttl
}

func (s *loginStates) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.issued)
}

func (s *loginStates) pruneLocked(now time.Time) {
	for st, at := range s.issued {
		if now.Sub(at) >= s.ttl {
			delete(s.issued, st)
		}
	}
}
