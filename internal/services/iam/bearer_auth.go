package iam

import (
	"context"
	"fmt"
	"strings"

	"github.com/terraconstructs/authgate/internal/auth"
)

// BearerAuthenticator authenticates requests carrying a signed token in the
// configured header.
//
//  1. Read the configured header (default "Authorization")
//  2. Return (nil, nil) unless it starts with the configured prefix (default "Bearer ")
//  3. Strip the prefix and validate the token
//  4. Resolve the token's subject against the identity store
//  5. Require the resolved username to equal the token subject
//
// This authenticator is stateless and thread-safe.
type BearerAuthenticator struct {
	codec    *auth.TokenCodec
	resolver *Resolver
	header   string
	prefix   string
}

// NewBearerAuthenticator creates a new bearer authenticator.
func NewBearerAuthenticator(codec *auth.TokenCodec, resolver *Resolver, header, prefix string) *BearerAuthenticator {
	if header == "" {
		header = DefaultBearerHeader
	}
	return &BearerAuthenticator{
		codec:    codec,
		resolver: resolver,
		header:   header,
		prefix:   prefix,
	}
}

// Method implements Authenticator.
func (a *BearerAuthenticator) Method() auth.Method { return auth.MethodBearer }

func (a *BearerAuthenticator) extract(req AuthRequest) (string, bool) {
	value := req.Headers.Get(a.header)
	if value == "" || !strings.HasPrefix(value, a.prefix) {
		return "", false
	}
	return strings.TrimSpace(strings.TrimPrefix(value, a.prefix)), true
}

// Authenticate implements Authenticator.
func (a *BearerAuthenticator) Authenticate(ctx context.Context, req AuthRequest) (*auth.Authenticated, error) {
	// Step 1-2: Extract prefixed header
	token, ok := a.extract(req)
	if !ok {
		return nil, nil
	}

	// Step 3: Validate signature and expiry
	payload, err := a.codec.Validate(token)
	if err != nil {
		return nil, err
	}

	// Step 4: Resolve identity (re-checks enabled status on every request)
	principal, err := a.resolver.Resolve(ctx, payload.Subject)
	if err != nil {
		return nil, fmt.Errorf("resolve token subject: %w", err)
	}

	// Step 5: Freshly loaded identity must match the token
	if !a.codec.ValidateAgainstSubject(token, principal.Subject()) {
		return nil, fmt.Errorf("%w: subject mismatch", auth.ErrTokenInvalid)
	}

	return &auth.Authenticated{
		Principal: principal,
		Method:    auth.MethodBearer,
	}, nil
}
