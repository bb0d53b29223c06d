package middleware

import (
	"errors"
	"log"
	"net/http"

	"github.com/terraconstructs/authgate/internal/auth"
	"github.com/terraconstructs/authgate/internal/envelope"
)

// AuthzDependencies provides the collaborators needed for authorization decisions.
type AuthzDependencies struct {
	Routes *RouteTable
}

// NewAuthzMiddleware constructs a Chi middleware that enforces the route table.
// It must run after the authentication middleware.
//
// Anonymous requests to protected routes get 401; authenticated requests
// lacking a required role get 403. Both responses use the envelope format.
func NewAuthzMiddleware(deps AuthzDependencies) (func(http.Handler) http.Handler, error) {
	if deps.Routes == nil {
		return nil, errors.New("authz middleware requires route table")
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authn := auth.AuthenticationFrom(r.Context())

			decision, err := deps.Routes.Authorize(r.URL.Path, authn)
			if err != nil {
				log.Printf("authorization error for %s %s: %v", r.Method, r.URL.Path, err)
				envelope.Error(w, envelope.SystemError)
				return
			}

			switch decision {
			case DenyUnauthenticated:
				envelope.Error(w, envelope.Unauthorized)
				return
			case DenyForbidden:
				if principal, ok := auth.PrincipalFrom(r.Context()); ok {
					log.Printf("access denied: principal %s lacks role for %s %s", principal.Subject(), r.Method, r.URL.Path)
				}
				envelope.Error(w, envelope.Forbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}, nil
}
