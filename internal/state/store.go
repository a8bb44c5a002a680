package state

import (
	"context"
	"sync"

	"weather-dashboard/pkg/logger"
)

// Persister writes the durable records mirrored from the in-memory state.
type Persister interface {
	// SaveIdentity writes the identity record (name, email, profile).
	SaveIdentity(ctx context.Context, p UserPreferences) error
	// SaveLocation writes the location record.
	SaveLocation(ctx context.Context, p UserPreferences) error
	// SavePreferences writes the preferences record (favourites, unit).
	SavePreferences(ctx context.Context, p UserPreferences) error
}

// Store holds the current UserPreferences. Dispatches are applied one at a time
// in call order; the affected record is written before Dispatch returns.
type Store struct {
	mu        sync.Mutex
	state     UserPreferences
	persister Persister
	l         *logger.Logger

	subsMu sync.Mutex
	subs   map[int]func(UserPreferences)
	nextID int
}

func NewStore(initial UserPreferences, persister Persister, l *logger.Logger) *Store {
	if l == nil {
		l = logger.NewNop()
	}
	if !initial.TempUnit.Valid() {
		initial.TempUnit = Celsius
	}
	return &Store{
		state:     initial.Clone(),
		persister: persister,
		l:         l,
		subs:      make(map[int]func(UserPreferences)),
	}
}

func (s *Store) State() UserPreferences {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Dispatch reduces a into the state and persists the record it changed.
// A failed write is logged; the in-memory state is kept.
func (s *Store) Dispatch(ctx context.Context, a Action) UserPreferences {
	s.mu.Lock()
	prev := s.state
	next := Reduce(prev, a)
	s.state = next

	if s.persister != nil {
		if !next.sameIdentity(prev) {
			if err := s.persister.SaveIdentity(ctx, next); err != nil {
				s.l.Warning("failed to persist identity", map[string]any{
					"action": a.Type(),
					"err":    err,
				})
			}
		}
		if next.Location != prev.Location {
			if err := s.persister.SaveLocation(ctx, next); err != nil {
				s.l.Warning("failed to persist location", map[string]any{
					"action": a.Type(),
					"err":    err,
				})
			}
		}
		if !next.samePreferences(prev) {
			if err := s.persister.SavePreferences(ctx, next); err != nil {
				s.l.Warning("failed to persist preferences", map[string]any{
					"action": a.Type(),
					"err":    err,
				})
			}
		}
	}
	out := next.Clone()
	s.mu.Unlock()

	s.notify(out)
	return out
}

// Subscribe registers fn to receive the state after every dispatch.
func (s *Store) Subscribe(fn func(UserPreferences)) (unsubscribe func()) {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()

	id := s.nextID
	s.nextID++
	s.subs[id] = fn

	return func() {
		s.subsMu.Lock()
		defer s.subsMu.Unlock()
		delete(s.subs, id)
	}
}

func (s *Store) notify(p UserPreferences) {
	s.subsMu.Lock()
	subs := make([]func(UserPreferences), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.subsMu.Unlock()

	for _, fn := range subs {
		fn(p.Clone())
	}
}
