package interview

import (
	"context"
	"fmt"
	"sync"
	"time"

	"interviewer/logger"
)

// Handle is a live interview: either a single *Session or a *Composite.
// The unexported method keeps the set closed.
type Handle interface {
	AskQuestion(ctx context.Context) (string, bool)
	ProvideAnswer(answer string) error
	History() []QA
	Role() string
	State() State
	handle()
}

// ActiveSession returns the session currently asking questions.
func ActiveSession(h Handle) *Session {
	switch v := h.(type) {
	case *Session:
		return v
	case *Composite:
		return v.Active()
	}
	return nil
}

// PhaseSessions returns every session of h in phase order.
func PhaseSessions(h Handle) []*Session {
	switch v := h.(type) {
	case *Session:
		return []*Session{v}
	case *Composite:
		return v.Sessions()
	}
	return nil
}

// Entry is a stored handle with its public session id.
type Entry struct {
	SessionID string
	Handle    Handle
	CreatedAt time.Time
}

type storeEntry struct {
	Entry
	turn     sync.Mutex
	lastSeen time.Time
}

// Store keeps one live interview per candidate in memory.
type Store struct {
	mu      sync.Mutex
	entries map[string]*storeEntry
	idleTTL time.Duration
	now     func() time.Time
}

func NewStore(idleTTL time.Duration) *Store {
	return &Store{
		entries: make(map[string]*storeEntry),
		idleTTL: idleTTL,
		now:     time.Now,
	}
}

// Put replaces any interview the candidate already has.
func (s *Store) Put(candidateID, sessionID string, h Handle) Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	e := &storeEntry{
		Entry:    Entry{SessionID: sessionID, Handle: h, CreatedAt: now},
		lastSeen: now,
	}
	if _, ok := s.entries[candidateID]; ok {
		logger.Infof("Replacing live interview for candidate %s", candidateID)
	}
	s.entries[candidateID] = e
	return e.Entry
}

func (s *Store) Get(candidateID string) (Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[candidateID]
	if !ok {
		return Entry{}, fmt.Errorf("%w: candidate %s", ErrSessionNotFound, candidateID)
	}
	e.lastSeen = s.now()
	return e.Entry, nil
}

// Delete removes the candidate's interview if it is still sessionID. An empty
// sessionID removes whatever is stored.
func (s *Store) Delete(candidateID, sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[candidateID]
	if !ok {
		return
	}
	if sessionID != "" && e.SessionID != sessionID {
		return
	}
	delete(s.entries, candidateID)
}

// Lock serialises turns of one candidate. The returned entry is the one that
// was locked; callers must call unlock exactly once.
func (s *Store) Lock(candidateID string) (Entry, func(), error) {
	s.mu.Lock()
	e, ok := s.entries[candidateID]
	s.mu.Unlock()
	if !ok {
		return Entry{}, nil, fmt.Errorf("%w: candidate %s", ErrSessionNotFound, candidateID)
	}

	e.turn.Lock()

	s.mu.Lock()
	e.lastSeen = s.now()
	s.mu.Unlock()

	return e.Entry, e.turn.Unlock, nil
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// EvictIdle drops interviews not touched within the idle TTL and returns how
// many were removed.
func (s *Store) EvictIdle() int {
	if s.idleTTL <= 0 {
		return 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-s.idleTTL)
	evicted := 0
	for candidateID, e := range s.entries {
		if e.lastSeen.Before(cutoff) {
			delete(s.entries, candidateID)
			evicted++
		}
	}
	return evicted
}

// Run evicts idle interviews every interval until ctx is done.
func (s *Store) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.EvictIdle(); n > 0 {
				logger.Infof("Evicted %d idle interview sessions", n)
			}
		}
	}
}
