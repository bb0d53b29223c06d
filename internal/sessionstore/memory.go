package sessionstore

import (
	"context"
	"fmt"
	"sync"

	"github.com/terraconstructs/authgate/internal/auth"
)

// MemoryStore keeps sessions in a process-local map.
//
// Expired entries are dropped lazily on lookup and by Prune.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]Session // idHash → session
	opts     options
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore(opts ...Option) *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]Session),
		opts:     buildOptions(opts),
	}
}

// Create implements Store.
func (s *MemoryStore) Create(ctx context.Context, principal auth.Principal) (*Session, error) {
	id, idHash, err := auth.GenerateSessionID()
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	now := s.opts.now()
	sess := Session{
		ID:        id,
		Principal: principal,
		CreatedAt: now,
		ExpiresAt: now.Add(s.opts.ttl),
	}

	s.mu.Lock()
	s.sessions[idHash] = sess
	s.mu.Unlock()

	return &sess, nil
}

// Get implements Store.
func (s *MemoryStore) Get(ctx context.Context, id string) (*Session, error) {
	if id == "" {
		return nil, ErrSessionNotFound
	}
	idHash := auth.HashSessionID(id)

	s.mu.RLock()
	sess, ok := s.sessions[idHash]
	s.mu.RUnlock()

	if !ok {
		return nil, ErrSessionNotFound
	}
	if auth.IsSessionExpired(sess.ExpiresAt, s.opts.now()) {
		s.mu.Lock()
		// Re-check under the write lock; a concurrent Create cannot reuse the hash.
		if cur, still := s.sessions[idHash]; still && cur.ExpiresAt.Equal(sess.ExpiresAt) {
			delete(s.sessions, idHash)
		}
		s.mu.Unlock()
		return nil, ErrSessionNotFound
	}

	sess.ID = id
	return &sess, nil
}

// Invalidate implements Store.
func (s *MemoryStore) Invalidate(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	s.mu.Lock()
	delete(s.sessions, auth.HashSessionID(id))
	s.mu.Unlock()
	return nil
}

// Prune removes expired sessions and returns how many were removed.
func (s *MemoryStore) Prune(ctx context.Context) (int64, error) {
	now := s.opts.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for idHash, sess := range s.sessions {
		if auth.IsSessionExpired(sess.ExpiresAt, now) {
			delete(s.sessions, idHash)
			n++
		}
	}
	return n, nil
}

// Len returns the number of stored sessions, expired ones included.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
