package memory

import (
	"context"
	"slices"
	"sync"
	"time"

	domain "github.com/Zhima-Mochi/courseshop/internal/domain/session"
)

type sessionEntry struct {
	record    domain.Record
	expiresAt time.Time
}

// SessionStore keeps session snapshots in process memory. Expired entries
// are dropped lazily on read.
type SessionStore struct {
	mu      sync.Mutex
	now     func() time.Time
	entries map[string]sessionEntry
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		now:     time.Now,
		entries: make(map[string]sessionEntry),
	}
}

func (s *SessionStore) Get(ctx context.Context, subjectID string) (*domain.Record, error) {
	_ = ctx

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.live(subjectID)
	if !ok {
		return nil, domain.ErrNotFound
	}
	r := e.record
	r.Courses = slices.Clone(e.record.Courses)
	return &r, nil
}

func (s *SessionStore) Put(ctx context.Context, r domain.Record, ttl time.Duration) error {
	_ = ctx

	s.mu.Lock()
	defer s.mu.Unlock()

	var exp time.Time
	if ttl > 0 {
		exp = s.now().Add(ttl)
	}
	r.Courses = slices.Clone(r.Courses)
	s.entries[r.ID] = sessionEntry{record: r, expiresAt: exp}
	return nil
}

func (s *SessionStore) Evict(ctx context.Context, subjectID string) error {
	_ = ctx

	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, subjectID)
	return nil
}

func (s *SessionStore) Refresh(ctx context.Context, r domain.Record) error {
	_ = ctx

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.live(r.ID)
	if !ok {
		return domain.ErrNotFound
	}
	r.Courses = slices.Clone(r.Courses)
	e.record = r
	s.entries[r.ID] = e
	return nil
}

// live must be called with mu held.
func (s *SessionStore) live(id string) (sessionEntry, bool) {
	e, ok := s.entries[id]
	if !ok {
		return sessionEntry{}, false
	}
	if !e.expiresAt.IsZero() && !s.now().Before(e.expiresAt) {
		delete(s.entries, id)
		return sessionEntry{}, false
	}
	return e, true
}
