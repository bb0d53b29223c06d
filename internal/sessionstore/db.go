package sessionstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/terraconstructs/authgate/internal/auth"
	"github.com/terraconstructs/authgate/internal/db/models"
	"github.com/terraconstructs/authgate/internal/repository"
)

// DBStore keeps sessions in the sessions table through a SessionRepository.
// Invalidation marks the row revoked; `authgate sessions prune` deletes stale rows.
type DBStore struct {
	sessions repository.SessionRepository
	opts     options
}

// NewDBStore creates a store over sessions.
func NewDBStore(sessions repository.SessionRepository, opts ...Option) *DBStore {
	return &DBStore{
		sessions: sessions,
		opts:     buildOptions(opts),
	}
}

// Create implements Store.
func (s *DBStore) Create(ctx context.Context, principal auth.Principal) (*Session, error) {
	id, idHash, err := auth.GenerateSessionID()
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	now := s.opts.now().UTC()
	row := &models.Session{
		TokenHash:   idHash,
		Subject:     principal.Subject(),
		Authorities: models.Authorities(principal.Authorities()),
		CreatedAt:   now,
		ExpiresAt:   now.Add(s.opts.ttl),
	}
	if err := s.sessions.Create(ctx, row); err != nil {
		return nil, err
	}

	return &Session{
		ID:        id,
		Principal: principal,
		CreatedAt: row.CreatedAt,
		ExpiresAt: row.ExpiresAt,
	}, nil
}

// Get implements Store.
func (s *DBStore) Get(ctx context.Context, id string) (*Session, error) {
	if id == "" {
		return nil, ErrSessionNotFound
	}

	row, err := s.sessions.GetActiveByTokenHash(ctx, auth.HashSessionID(id), s.opts.now().UTC())
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}

	return &Session{
		ID:        id,
		Principal: auth.NewPrincipal(row.Subject, row.Authorities),
		CreatedAt: row.CreatedAt,
		ExpiresAt: row.ExpiresAt,
	}, nil
}

// Invalidate implements Store.
func (s *DBStore) Invalidate(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	return s.sessions.RevokeByTokenHash(ctx, auth.HashSessionID(id))
}

// Prune deletes revoked and expired session rows.
func (s *DBStore) Prune(ctx context.Context) (int64, error) {
	return s.sessions.DeleteStale(ctx, s.opts.now().UTC())
}
