// Package sessionstore keeps server-side sessions that bind an opaque handle
// to the Principal that logged in.
//
// Three interchangeable stores are provided:
//
//   - MemoryStore: process-local map, for single-instance deployments and tests
//   - RedisStore: go-redis backed, expiry enforced by Redis key TTL
//   - DBStore: bun backed sessions table, expiry and revocation as columns
//
// Every store keys sessions by the SHA256 hash of the handle; the handle
// itself only ever exists in the client's cookie and the login response.
package sessionstore

import (
	"context"
	"errors"
	"time"

	"github.com/terraconstructs/authgate/internal/auth"
)

// ErrSessionNotFound is returned by Get when the session is absent, expired or invalidated.
var ErrSessionNotFound = errors.New("session not found")

// Session binds a handle to the principal that created it.
type Session struct {
	ID        string
	Principal auth.Principal
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Store is the session store contract.
//
// Implementations must be safe for concurrent use. Once Invalidate returns,
// no later Get for the same ID may observe the session.
type Store interface {
	// Create starts a new session for principal and returns it with its handle.
	Create(ctx context.Context, principal auth.Principal) (*Session, error)
	// Get returns the live session for id, or ErrSessionNotFound.
	Get(ctx context.Context, id string) (*Session, error)
	// Invalidate ends the session. Invalidating an unknown session is not an error.
	Invalidate(ctx context.Context, id string) error
}

// Option customises a store.
type Option func(*options)

type options struct {
	ttl time.Duration
	now func() time.Time
}

// WithTTL sets the session lifetime. Non-positive values keep the default.
func WithTTL(ttl time.Duration) Option {
	return func(o *options) {
		if ttl > 0 {
			o.ttl = ttl
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{
		ttl: auth.DefaultSessionTTL,
		now: time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// record is the serialized session form shared by the Redis store.
type record struct {
	Subject     string    `json:"subject"`
	Authorities []string  `json:"authorities"`
	CreatedAt   time.Time `json:"created_at"`
	ExpiresAt   time.Time `json:"expires_at"`
}

func newRecord(s *Session) record {
	return record{
		Subject:     s.Principal.Subject(),
		Authorities: s.Principal.Authorities(),
		CreatedAt:   s.CreatedAt,
		ExpiresAt:   s.ExpiresAt,
	}
}

func (r record) session(id string) *Session {
	return &Session{
		ID:        id,
		Principal: auth.NewPrincipal(r.Subject, r.Authorities),
		CreatedAt: r.CreatedAt,
		ExpiresAt: r.ExpiresAt,
	}
}
