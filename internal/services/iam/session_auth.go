package iam

import (
	"context"
	"errors"
	"fmt"

	"github.com/terraconstructs/authgate/internal/auth"
	"github.com/terraconstructs/authgate/internal/sessionstore"
)

// SessionAuthenticator authenticates requests using session cookies.
//
//  1. Extract the session cookie
//  2. Return (nil, nil) if not present
//  3. Look the handle up in the session store
//  4. Adopt the stored Principal as-is
//
// Roles are not re-resolved: the authority set captured at login is
// authoritative for the life of the session.
type SessionAuthenticator struct {
	store      sessionstore.Store
	cookieName string
}

// NewSessionAuthenticator creates a new session authenticator.
func NewSessionAuthenticator(store sessionstore.Store, cookieName string) *SessionAuthenticator {
	if cookieName == "" {
		cookieName = auth.DefaultSessionCookieName
	}
	return &SessionAuthenticator{
		store:      store,
		cookieName: cookieName,
	}
}

// Method implements Authenticator.
func (a *SessionAuthenticator) Method() auth.Method { return auth.MethodSession }

// Authenticate implements Authenticator.
func (a *SessionAuthenticator) Authenticate(ctx context.Context, req AuthRequest) (*auth.Authenticated, error) {
	// Step 1-2: Extract session cookie
	sessionID := req.cookie(a.cookieName)
	if sessionID == "" {
		return nil, nil
	}

	// Step 3: Lookup (absent, expired and invalidated all yield ErrSessionNotFound)
	session, err := a.store.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, sessionstore.ErrSessionNotFound) {
			return nil, fmt.Errorf("lookup session: %w", err)
		}
		return nil, fmt.Errorf("%w: lookup session: %w", ErrStoreUnavailable, err)
	}

	// Step 4: Adopt stored principal
	return &auth.Authenticated{
		Principal: session.Principal,
		Method:    auth.MethodSession,
		SessionID: session.ID,
	}, nil
}
