package iam

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"go.opentelemetry.io/otel/attribute"

	"github.com/terraconstructs/authgate/internal/auth"
	"github.com/terraconstructs/authgate/internal/db/models"
	"github.com/terraconstructs/authgate/internal/repository"
	"github.com/terraconstructs/authgate/internal/telemetry"
)

// dummyHash is compared against when the user does not exist so that an
// unknown username costs the same bcrypt work as a wrong password.
var dummyHash = sync.OnceValue(func() string {
	hash, err := auth.HashPassword("authgate-timing-equalizer", auth.PasswordCost)
	if err != nil {
		return ""
	}
	return hash
})

// =========================================================================
// Login / Logout (Control Plane)
// =========================================================================

// LoginBearer implements Service.
func (s *iamService) LoginBearer(ctx context.Context, creds Credentials) (*IssuedToken, error) {
	ctx, span := telemetry.StartSpan(ctx, telemetry.TracerIAM, "iam.LoginBearer",
		attribute.String(telemetry.AttrUsername, creds.Username),
	)
	defer span.End()

	principal, err := s.login(ctx, creds)
	if err != nil {
		s.recordLoginFailure(ctx, auth.MethodBearer, creds, err)
		telemetry.RecordError(span, err)
		return nil, err
	}

	issued, err := s.issue(principal, s.tokenTTL)
	if err != nil {
		s.metrics.RecordLogin(ctx, string(auth.MethodBearer), telemetry.ResultError)
		telemetry.RecordError(span, err)
		return nil, err
	}

	log.Printf("bearer login succeeded for %s", principal.Subject())
	s.metrics.RecordLogin(ctx, string(auth.MethodBearer), telemetry.ResultSuccess)
	return issued, nil
}

// LoginSession implements Service.
func (s *iamService) LoginSession(ctx context.Context, creds Credentials) (auth.Principal, string, error) {
	ctx, span := telemetry.StartSpan(ctx, telemetry.TracerIAM, "iam.LoginSession",
		attribute.String(telemetry.AttrUsername, creds.Username),
	)
	defer span.End()

	principal, err := s.login(ctx, creds)
	if err != nil {
		s.recordLoginFailure(ctx, auth.MethodSession, creds, err)
		telemetry.RecordError(span, err)
		return auth.Principal{}, "", err
	}

	session, err := s.sessions.Create(ctx, principal)
	if err != nil {
		err = fmt.Errorf("%w: create session: %w", ErrStoreUnavailable, err)
		s.recordLoginFailure(ctx, auth.MethodSession, creds, err)
		telemetry.RecordError(span, err)
		return auth.Principal{}, "", err
	}

	log.Printf("session login succeeded for %s", principal.Subject())
	s.metrics.RecordLogin(ctx, string(auth.MethodSession), telemetry.ResultSuccess)
	return principal, session.ID, nil
}

// Logout implements Service.
func (s *iamService) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	if err := s.sessions.Invalidate(ctx, sessionID); err != nil {
		return fmt.Errorf("%w: invalidate session: %w", ErrStoreUnavailable, err)
	}
	return nil
}

// login verifies creds and resolves the Principal of the user.
func (s *iamService) login(ctx context.Context, creds Credentials) (auth.Principal, error) {
	user, err := s.verifyCredentials(ctx, creds)
	if err != nil {
		return auth.Principal{}, err
	}
	return s.resolver.principalFor(ctx, user)
}

// verifyCredentials checks the password before looking at account status, so
// a disabled account only becomes distinguishable to a caller who already
// knows its password, and even then the caller sees ErrBadCredentials.
func (s *iamService) verifyCredentials(ctx context.Context, creds Credentials) (*models.User, error) {
	user, err := s.users.GetByUsername(ctx, creds.Username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.passwords.Verify(creds.Password, dummyHash())
			return nil, fmt.Errorf("%w: %w", ErrBadCredentials, ErrUserNotFound)
		}
		return nil, fmt.Errorf("%w: find user: %w", ErrStoreUnavailable, err)
	}

	if user.PasswordHash == "" {
		s.passwords.Verify(creds.Password, dummyHash())
		return nil, fmt.Errorf("%w: no password set", ErrBadCredentials)
	}
	if !s.passwords.Verify(creds.Password, user.PasswordHash) {
		return nil, fmt.Errorf("%w: password mismatch", ErrBadCredentials)
	}
	if !user.Enabled() {
		return nil, fmt.Errorf("%w: %w", ErrBadCredentials, ErrUserDisabled)
	}
	return user, nil
}

func (s *iamService) recordLoginFailure(ctx context.Context, method auth.Method, creds Credentials, err error) {
	if errors.Is(err, ErrStoreUnavailable) {
		log.Printf("warning: %s login for %s failed: %v", method, creds.Username, err)
		s.metrics.RecordLogin(ctx, string(method), telemetry.ResultError)
		return
	}
	log.Printf("%s login rejected for %s: %v", method, creds.Username, err)
	s.metrics.RecordLogin(ctx, string(method), telemetry.ResultFailure)
}
