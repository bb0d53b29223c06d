package iam

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/terraconstructs/authgate/internal/auth"
	"github.com/terraconstructs/authgate/internal/config"
	"github.com/terraconstructs/authgate/internal/repository"
	"github.com/terraconstructs/authgate/internal/sessionstore"
	"github.com/terraconstructs/authgate/internal/telemetry"
)

// iamService implements the Service interface.
type iamService struct {
	users     repository.UserRepository
	resolver  *Resolver
	sessions  sessionstore.Store
	codec     *auth.TokenCodec
	passwords auth.PasswordVerifier
	metrics   *telemetry.AuthMetrics

	// Tried in order; the first to return a result or an error ends the chain.
	authenticators []Authenticator

	tokenTTL time.Duration
	debug    bool
}

// IAMServiceDependencies contains all dependencies for IAM service construction.
type IAMServiceDependencies struct {
	Users    repository.UserRepository
	Roles    repository.RoleRepository
	Sessions sessionstore.Store
	Codec    *auth.TokenCodec

	// Passwords defaults to auth.BcryptVerifier.
	Passwords auth.PasswordVerifier
	// Metrics is optional.
	Metrics *telemetry.AuthMetrics
}

// IAMServiceConfig contains configuration for IAM service construction.
// Separated from dependencies to clearly distinguish config from runtime dependencies.
type IAMServiceConfig struct {
	BearerHeader      string
	BearerPrefix      string
	SessionCookieName string
	TokenTTL          time.Duration
	Debug             bool
}

// NewIAMServiceConfig derives the service config from application config.
func NewIAMServiceConfig(cfg *config.Config) IAMServiceConfig {
	return IAMServiceConfig{
		BearerHeader:      cfg.JWT.Header,
		BearerPrefix:      cfg.JWT.Prefix,
		SessionCookieName: cfg.Session.CookieName,
		TokenTTL:          cfg.JWT.Expiration,
		Debug:             cfg.Debug,
	}
}

// NewIAMService creates a new IAM service with all dependencies.
func NewIAMService(deps IAMServiceDependencies, cfg IAMServiceConfig) (Service, error) {
	if deps.Users == nil || deps.Roles == nil {
		return nil, errors.New("iam: user and role repositories are required")
	}
	if deps.Sessions == nil {
		return nil, errors.New("iam: session store is required")
	}
	if deps.Codec == nil {
		return nil, errors.New("iam: token codec is required")
	}

	passwords := deps.Passwords
	if passwords == nil {
		passwords = auth.BcryptVerifier{}
	}
	tokenTTL := cfg.TokenTTL
	if tokenTTL <= 0 {
		tokenTTL = DefaultTokenTTL
	}

	resolver := NewResolver(deps.Users, deps.Roles)

	return &iamService{
		users:     deps.Users,
		resolver:  resolver,
		sessions:  deps.Sessions,
		codec:     deps.Codec,
		passwords: passwords,
		metrics:   deps.Metrics,
		authenticators: []Authenticator{
			NewBearerAuthenticator(deps.Codec, resolver, cfg.BearerHeader, cfg.BearerPrefix),
			NewSessionAuthenticator(deps.Sessions, cfg.SessionCookieName),
		},
		tokenTTL: tokenTTL,
		debug:    cfg.Debug,
	}, nil
}

func (s *iamService) debugf(format string, args ...any) {
	if s.debug {
		log.Printf("debug: "+format, args...)
	}
}

// =========================================================================
// Authentication (Request Path)
// =========================================================================

// AuthenticateRequest tries the registered authenticators in order.
//
// Algorithm:
//   - If authenticator returns (nil, nil): no credentials, try next
//   - If authenticator returns (nil, error): credential rejected, stop and degrade to Anonymous
//   - If authenticator returns (authenticated, nil): success, stop
//   - If all authenticators return (nil, nil): Anonymous
func (s *iamService) AuthenticateRequest(ctx context.Context, req AuthRequest) auth.Authentication {
	ctx, span := telemetry.StartSpan(ctx, telemetry.TracerIAM, "iam.AuthenticateRequest",
		attribute.Int("authenticator_count", len(s.authenticators)),
	)
	defer span.End()

	for _, authenticator := range s.authenticators {
		authenticated, err := authenticator.Authenticate(ctx, req)
		if err != nil {
			method := authenticator.Method()
			if errors.Is(err, ErrStoreUnavailable) {
				log.Printf("warning: %s authentication degraded to anonymous: %v", method, err)
				telemetry.RecordError(span, err)
				s.metrics.RecordAuthn(ctx, string(method), telemetry.ResultDegraded)
			} else {
				s.debugf("%s credential rejected: %v", method, err)
				s.metrics.RecordAuthn(ctx, string(method), telemetry.ResultRejected)
			}
			telemetry.AddEvent(span, "authentication.rejected",
				attribute.String(telemetry.AttrAuthMethod, string(method)),
			)
			span.SetAttributes(attribute.String(telemetry.AttrAuthResult, telemetry.ResultAnonymous))
			return auth.Anonymous{}
		}
		if authenticated != nil {
			span.SetAttributes(
				attribute.String(telemetry.AttrPrincipalSubject, authenticated.Principal.Subject()),
				attribute.StringSlice(telemetry.AttrPrincipalRoles, authenticated.Principal.Authorities()),
				attribute.String(telemetry.AttrAuthMethod, string(authenticated.Method)),
				attribute.String(telemetry.AttrAuthResult, telemetry.ResultAuthenticated),
			)
			s.metrics.RecordAuthn(ctx, string(authenticated.Method), telemetry.ResultAuthenticated)
			return *authenticated
		}
	}

	span.SetAttributes(attribute.String(telemetry.AttrAuthResult, telemetry.ResultAnonymous))
	s.metrics.RecordAuthn(ctx, "", telemetry.ResultAnonymous)
	return auth.Anonymous{}
}

// Resolve implements Service.
func (s *iamService) Resolve(ctx context.Context, username string) (auth.Principal, error) {
	return s.resolver.Resolve(ctx, username)
}

// IssueToken implements Service.
func (s *iamService) IssueToken(ctx context.Context, username string, ttl time.Duration) (*IssuedToken, error) {
	if ttl <= 0 {
		ttl = s.tokenTTL
	}
	principal, err := s.resolver.Resolve(ctx, username)
	if err != nil {
		return nil, err
	}
	return s.issue(principal, ttl)
}

func (s *iamService) issue(principal auth.Principal, ttl time.Duration) (*IssuedToken, error) {
	token, err := s.codec.Issue(principal.Subject(), nil, ttl)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &IssuedToken{
		Token:     token,
		Type:      TokenType,
		Subject:   principal.Subject(),
		ExpiresIn: ttl,
	}, nil
}
