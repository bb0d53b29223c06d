package sessionstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/terraconstructs/authgate/internal/auth"
)

// DefaultRedisKeyPrefix namespaces session keys.
const DefaultRedisKeyPrefix = "authgate:session:"

// RedisStore keeps sessions in Redis. Expiry is enforced by the key TTL, so
// invalidated or expired sessions disappear for every instance at once.
type RedisStore struct {
	client redis.Cmdable
	prefix string
	opts   options
}

// NewRedisStore creates a store over client.
func NewRedisStore(client redis.Cmdable, opts ...Option) *RedisStore {
	return &RedisStore{
		client: client,
		prefix: DefaultRedisKeyPrefix,
		opts:   buildOptions(opts),
	}
}

// NewRedisClient parses url (redis://...) and verifies connectivity.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

func (s *RedisStore) key(id string) string {
	return s.prefix + auth.HashSessionID(id)
}

// Create implements Store.
func (s *RedisStore) Create(ctx context.Context, principal auth.Principal) (*Session, error) {
	id, _, err := auth.GenerateSessionID()
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	now := s.opts.now()
	sess := &Session{
		ID:        id,
		Principal: principal,
		CreatedAt: now,
		ExpiresAt: now.Add(s.opts.ttl),
	}

	payload, err := json.Marshal(newRecord(sess))
	if err != nil {
		return nil, fmt.Errorf("encode session: %w", err)
	}
	if err := s.client.Set(ctx, s.key(id), payload, s.opts.ttl).Err(); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}
	return sess, nil
}

// Get implements Store.
func (s *RedisStore) Get(ctx context.Context, id string) (*Session, error) {
	if id == "" {
		return nil, ErrSessionNotFound
	}

	payload, err := s.client.Get(ctx, s.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("load session: %w", err)
	}

	var rec record
	if err := json.Unmarshal(payload, &rec); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	if auth.IsSessionExpired(rec.ExpiresAt, s.opts.now()) {
		return nil, ErrSessionNotFound
	}
	return rec.session(id), nil
}

// Invalidate implements Store.
func (s *RedisStore) Invalidate(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	if err := s.client.Del(ctx, s.key(id)).Err(); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}
