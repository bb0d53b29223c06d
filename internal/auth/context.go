package auth

import "context"

// Method records which protocol established an Authenticated result.
// It is informational only; authorization decisions never branch on it.
type Method string

const (
	MethodBearer  Method = "bearer"
	MethodSession Method = "session"
)

// Authentication is the per-request authentication outcome. It is exactly one
// of Authenticated or Anonymous.
type Authentication interface {
	isAuthentication()
}

// Authenticated carries the Principal established for the request.
type Authenticated struct {
	Principal Principal
	Method    Method
	// SessionID is set when the principal was adopted from a server-side session.
	SessionID string
}

// Anonymous means no identity could be established for the request.
type Anonymous struct{}

func (Authenticated) isAuthentication() {}
func (Anonymous) isAuthentication()     {}

type authenticationContextKey struct{}

// WithAuthentication stores the authentication outcome on the context for downstream consumers.
func WithAuthentication(ctx context.Context, a Authentication) context.Context {
	if a == nil {
		a = Anonymous{}
	}
	return context.WithValue(ctx, authenticationContextKey{}, a)
}

// AuthenticationFrom returns the authentication outcome stored on ctx.
// A context that never passed through the authenticator is Anonymous.
func AuthenticationFrom(ctx context.Context) Authentication {
	a, ok := ctx.Value(authenticationContextKey{}).(Authentication)
	if !ok {
		return Anonymous{}
	}
	return a
}

// PrincipalFrom returns the authenticated principal on ctx, if any.
func PrincipalFrom(ctx context.Context) (Principal, bool) {
	if a, ok := AuthenticationFrom(ctx).(Authenticated); ok {
		return a.Principal, true
	}
	return Principal{}, false
}
