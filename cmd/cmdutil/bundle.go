package cmdutil

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/uptrace/bun"

	"github.com/terraconstructs/authgate/internal/auth"
	"github.com/terraconstructs/authgate/internal/config"
	"github.com/terraconstructs/authgate/internal/db/bunx"
	"github.com/terraconstructs/authgate/internal/repository"
	"github.com/terraconstructs/authgate/internal/services/iam"
	"github.com/terraconstructs/authgate/internal/sessionstore"
	"github.com/terraconstructs/authgate/internal/telemetry"
)

type configContextKey struct{}

// WithConfig attaches the loaded configuration to ctx for subcommands.
func WithConfig(ctx context.Context, cfg *config.Config) context.Context {
	return context.WithValue(ctx, configContextKey{}, cfg)
}

// ConfigFrom returns the configuration loaded by the root command.
func ConfigFrom(ctx context.Context) (*config.Config, error) {
	cfg, ok := ctx.Value(configContextKey{}).(*config.Config)
	if !ok || cfg == nil {
		return nil, errors.New("configuration not loaded")
	}
	return cfg, nil
}

// Bundle holds the database connection and the repositories built on it so
// commands can share one construction path with the server.
type Bundle struct {
	DB        *bun.DB
	Users     *repository.BunUserRepository
	Roles     *repository.BunRoleRepository
	UserRoles *repository.BunUserRoleRepository
	Sessions  *repository.BunSessionRepository

	closers []io.Closer
}

// Close releases the session store client (if any) and the database connection.
func (b *Bundle) Close() {
	if b == nil {
		return
	}
	for _, c := range b.closers {
		if err := c.Close(); err != nil {
			log.Printf("warning: close: %v", err)
		}
	}
	if err := bunx.Close(b.DB); err != nil {
		log.Printf("warning: close database: %v", err)
	}
}

// OpenOptions tunes Open.
type OpenOptions struct {
	// DatabaseMetrics, when set, instruments every query.
	DatabaseMetrics *telemetry.DatabaseMetrics
}

// Open connects to the configured database and wires the repositories.
func Open(cfg *config.Config, opts OpenOptions) (*Bundle, error) {
	db, err := bunx.NewDB(cfg.DatabaseURL, cfg.MaxDBConnections)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if opts.DatabaseMetrics != nil {
		db.AddQueryHook(bunx.NewMetricsHook(opts.DatabaseMetrics))
	}

	return &Bundle{
		DB:        db,
		Users:     repository.NewBunUserRepository(db),
		Roles:     repository.NewBunRoleRepository(db),
		UserRoles: repository.NewBunUserRoleRepository(db),
		Sessions:  repository.NewBunSessionRepository(db),
	}, nil
}

// SessionStore builds the session backend selected by session.store.
func (b *Bundle) SessionStore(ctx context.Context, cfg *config.Config) (sessionstore.Store, error) {
	opts := []sessionstore.Option{sessionstore.WithTTL(cfg.Session.TTL)}

	switch cfg.Session.Store {
	case config.SessionStoreDatabase:
		return sessionstore.NewDBStore(b.Sessions, opts...), nil
	case config.SessionStoreRedis:
		client, err := sessionstore.NewRedisClient(ctx, cfg.Session.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("connect session redis: %w", err)
		}
		b.closers = append(b.closers, client)
		return sessionstore.NewRedisStore(client, opts...), nil
	case config.SessionStoreMemory:
		return sessionstore.NewMemoryStore(opts...), nil
	default:
		return nil, fmt.Errorf("unknown session store %q", cfg.Session.Store)
	}
}

// NewTokenCodec builds the bearer-token codec from the jwt settings.
func NewTokenCodec(cfg *config.Config) (*auth.TokenCodec, error) {
	var opts []auth.TokenCodecOption
	if cfg.JWT.Issuer != "" {
		opts = append(opts, auth.WithIssuer(cfg.JWT.Issuer))
	}
	codec, err := auth.NewTokenCodec([]byte(cfg.JWT.Secret), opts...)
	if err != nil {
		return nil, fmt.Errorf("create token codec: %w", err)
	}
	return codec, nil
}

// NewIAMService wires the IAM service over the bundle's repositories.
// metrics may be nil.
func (b *Bundle) NewIAMService(cfg *config.Config, sessions sessionstore.Store, metrics *telemetry.AuthMetrics) (iam.Service, error) {
	codec, err := NewTokenCodec(cfg)
	if err != nil {
		return nil, err
	}

	svc, err := iam.NewIAMService(
		iam.IAMServiceDependencies{
			Users:    b.Users,
			Roles:    b.Roles,
			Sessions: sessions,
			Codec:    codec,
			Metrics:  metrics,
		},
		iam.NewIAMServiceConfig(cfg),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create IAM service: %w", err)
	}
	return svc, nil
}
