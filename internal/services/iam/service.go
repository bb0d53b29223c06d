package iam

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/terraconstructs/authgate/internal/auth"
)

var (
	// ErrBadCredentials is the only login failure callers see. Unknown user,
	// wrong password, missing hash and disabled user all map to it.
	ErrBadCredentials = errors.New("bad credentials")

	// ErrUserDisabled marks the disabled-account login failure internally.
	// It always travels wrapped inside ErrBadCredentials.
	ErrUserDisabled = errors.New("user disabled")

	// ErrUserNotFound is returned by Resolve when the user is absent, disabled or deleted.
	ErrUserNotFound = errors.New("user not found")

	// ErrStoreUnavailable wraps identity or session store failures.
	ErrStoreUnavailable = errors.New("store unavailable")
)

const (
	// DefaultBearerHeader carries bearer tokens when no header is configured.
	DefaultBearerHeader = "Authorization"
	// DefaultBearerPrefix precedes the token in the bearer header.
	DefaultBearerPrefix = "Bearer "
	// DefaultTokenTTL is the bearer token lifetime when none is configured.
	DefaultTokenTTL = 24 * time.Hour

	// TokenType is reported to clients alongside issued tokens.
	TokenType = "Bearer"
)

// Credentials is a login attempt. It is never persisted and never logged.
type Credentials struct {
	Username string
	Password string
}

// String omits the password so credentials are safe in %v output.
func (c Credentials) String() string {
	return fmt.Sprintf("Credentials{Username:%q}", c.Username)
}

// IssuedToken is the result of a bearer login.
type IssuedToken struct {
	Token     string
	Type      string
	Subject   string
	ExpiresIn time.Duration
}

// Service provides authentication operations for the HTTP layer and CLI.
type Service interface {
	// =========================================================================
	// Authentication (Request Path)
	// =========================================================================

	// AuthenticateRequest classifies a request as auth.Authenticated or
	// auth.Anonymous. It never fails: rejected credentials and store outages
	// are logged and degrade to auth.Anonymous.
	//
	// A bearer credential (configured header plus prefix) takes precedence;
	// the session cookie is consulted only when there is none.
	AuthenticateRequest(ctx context.Context, req AuthRequest) auth.Authentication

	// Resolve maps username to its current Principal.
	// Returns ErrUserNotFound or an error matching ErrStoreUnavailable.
	Resolve(ctx context.Context, username string) (auth.Principal, error)

	// =========================================================================
	// Login / Logout (Control Plane)
	// =========================================================================

	// LoginBearer verifies creds and issues a signed token for the user.
	// Returns ErrBadCredentials or an error matching ErrStoreUnavailable.
	LoginBearer(ctx context.Context, creds Credentials) (*IssuedToken, error)

	// LoginSession verifies creds and starts a server-side session.
	// Returns the principal and the new session handle.
	LoginSession(ctx context.Context, creds Credentials) (auth.Principal, string, error)

	// Logout invalidates sessionID. It is idempotent: an empty, unknown or
	// already invalidated handle is not an error.
	Logout(ctx context.Context, sessionID string) error

	// IssueToken issues a token for an enabled user without a password check.
	// Used by operator tooling.
	IssueToken(ctx context.Context, username string, ttl time.Duration) (*IssuedToken, error)
}
