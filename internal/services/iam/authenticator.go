package iam

import (
	"context"
	"net/http"

	"github.com/terraconstructs/authgate/internal/auth"
)

// Authenticator validates the credential of one protocol.
//
// Implementations:
//   - BearerAuthenticator: validates prefixed bearer tokens
//   - SessionAuthenticator: looks up session cookies
//
// Return values:
//   - (authenticated, nil): Authentication successful
//   - (nil, nil): Credentials not present (not an error, try next authenticator)
//   - (nil, error): Credentials present but rejected; no later authenticator runs
type Authenticator interface {
	// Method names the protocol, for logs and metrics.
	Method() auth.Method
	Authenticate(ctx context.Context, req AuthRequest) (*auth.Authenticated, error)
}

// AuthRequest wraps HTTP request data for authenticator implementations.
type AuthRequest struct {
	// Headers contains HTTP headers (including the bearer header)
	Headers http.Header

	// Cookies contains parsed cookies
	Cookies []*http.Cookie
}

// NewAuthRequest captures the parts of r that authenticators read.
func NewAuthRequest(r *http.Request) AuthRequest {
	return AuthRequest{
		Headers: r.Header,
		Cookies: r.Cookies(),
	}
}

func (r AuthRequest) cookie(name string) string {
	for _, c := range r.Cookies {
		if c.Name == name {
			return c.Value
		}
	}
	return ""
}
