package middleware

import (
	"errors"
	"net/http"

	"github.com/terraconstructs/authgate/internal/auth"
	"github.com/terraconstructs/authgate/internal/services/iam"
)

// AuthnDependencies bundles collaborators required by the authentication middleware.
type AuthnDependencies struct {
	IAM iam.Service
}

// NewAuthnMiddleware classifies every request as Authenticated or Anonymous and
// stores the outcome on the request context.
//
// It never rejects a request. Invalid credentials, unknown users and store
// outages all yield Anonymous; the authorization middleware decides what an
// Anonymous request may reach.
func NewAuthnMiddleware(deps AuthnDependencies) (func(http.Handler) http.Handler, error) {
	if deps.IAM == nil {
		return nil, errors.New("authn middleware requires iam service")
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			authn := deps.IAM.AuthenticateRequest(ctx, iam.NewAuthRequest(r))
			next.ServeHTTP(w, r.WithContext(auth.WithAuthentication(ctx, authn)))
		})
	}, nil
}
