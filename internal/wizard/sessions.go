package wizard

import (
	"context"
	"sync"
	"time"

	"nominee-applications/internal/common/metrics"
)

// Factory builds the wizard for a session the first time it is seen.
type Factory func(ctx context.Context, sessionID string) *Wizard

type sessionEntry struct {
	wizard   *Wizard
	lastSeen time.Time
}

// Sessions maps visitor session ids to their wizards.
type Sessions struct {
	mu      sync.Mutex
	entries map[string]*sessionEntry
	factory Factory
	now     func() time.Time
}

func NewSessions(factory Factory) *Sessions {
	return &Sessions{
		entries: make(map[string]*sessionEntry),
		factory: factory,
		now:     time.Now,
	}
}

// Get returns the wizard for id, creating and hydrating it on first use. Hydration runs
// outside the registry lock; when two requests race on a new id the first insert wins.
func (s *Sessions) Get(ctx context.Context, id string) *Wizard {
	if w, ok := s.touch(id); ok {
		return w
	}

	w := s.factory(ctx, id)

	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[id]; ok {
		e.lastSeen = s.now()
		return e.wizard
	}
	s.entries[id] = &sessionEntry{wizard: w, lastSeen: s.now()}
	metrics.ActiveSessions.Set(float64(len(s.entries)))
	return w
}

func (s *Sessions) touch(id string) (*Wizard, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[id]
	if !ok {
		return nil, false
	}
	e.lastSeen = s.now()
	return e.wizard, true
}

// Release forgets id. The stored draft, if any, is left alone.
func (s *Sessions) Release(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, id)
	metrics.ActiveSessions.Set(float64(len(s.entries)))
}

// Sweep drops wizards idle for longer than maxIdle and returns how many were dropped.
// Wizards mid-submission are kept, as are memory-only wizards whose draft still cannot be
// saved. Dropped sessions are rehydrated from the store on return.
func (s *Sessions) Sweep(ctx context.Context, maxIdle time.Duration) int {
	cutoff := s.now().Add(-maxIdle)

	s.mu.Lock()
	idle := make(map[string]*sessionEntry)
	for id, e := range s.entries {
		if e.lastSeen.Before(cutoff) {
			idle[id] = e
		}
	}
	s.mu.Unlock()

	dropped := 0
	for id, e := range idle {
		if !e.wizard.releasable(ctx) {
			continue
		}
		s.mu.Lock()
		if cur, ok := s.entries[id]; ok && cur == e && e.lastSeen.Before(cutoff) {
			delete(s.entries, id)
			dropped++
		}
		s.mu.Unlock()
	}

	s.mu.Lock()
	metrics.ActiveSessions.Set(float64(len(s.entries)))
	s.mu.Unlock()
	return dropped
}

func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
