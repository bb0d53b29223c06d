package server

import (
	"net/http"

	"github.com/terraconstructs/authgate/internal/auth"
	"github.com/terraconstructs/authgate/internal/envelope"
)

// HelloResponse is returned by the sample protected endpoints.
type HelloResponse struct {
	Message     string   `json:"message"`
	User        string   `json:"user"`
	Authorities []string `json:"authorities"`
	// AuthenticationType is the protocol that established the principal.
	AuthenticationType string `json:"authenticationType"`
}

// HandleHello greets the authenticated principal with message.
func HandleHello(message string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authenticated, ok := auth.AuthenticationFrom(r.Context()).(auth.Authenticated)
		if !ok {
			envelope.Error(w, envelope.Unauthorized)
			return
		}
		envelope.OK(w, HelloResponse{
			Message:            message,
			User:               authenticated.Principal.Subject(),
			Authorities:        authenticated.Principal.Authorities(),
			AuthenticationType: string(authenticated.Method),
		})
	}
}
