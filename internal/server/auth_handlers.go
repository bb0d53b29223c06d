package server

import (
	"io"
	"log"
	"net/http"

	"github.com/terraconstructs/authgate/internal/auth"
	"github.com/terraconstructs/authgate/internal/envelope"
	"github.com/terraconstructs/authgate/internal/services/iam"
	"github.com/terraconstructs/authgate/internal/services/validation"
)

// maxLoginBodyBytes bounds login request bodies.
const maxLoginBodyBytes = 4 << 10

// LoginRequest is the body of both login endpoints.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// JWTLoginResponse is returned by POST /auth/jwt/login.
type JWTLoginResponse struct {
	Token    string `json:"token"`
	Type     string `json:"type"`
	Username string `json:"username"`
	// ExpiresIn is the token lifetime in seconds.
	ExpiresIn int64 `json:"expiresIn"`
}

// SessionLoginResponse is returned by POST /auth/session/login.
type SessionLoginResponse struct {
	Username  string `json:"username"`
	SessionID string `json:"sessionId"`
}

// CurrentUserResponse is returned by GET /auth/me.
type CurrentUserResponse struct {
	Username    string   `json:"username"`
	Authorities []string `json:"authorities"`
}

// HandleJWTLogin exchanges username and password for a bearer token.
func HandleJWTLogin(iamService iam.Service, validator *validation.RequestValidator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		creds, ok := decodeLogin(w, r, validator)
		if !ok {
			return
		}

		issued, err := iamService.LoginBearer(r.Context(), creds)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		envelope.OK(w, JWTLoginResponse{
			Token:     issued.Token,
			Type:      issued.Type,
			Username:  issued.Subject,
			ExpiresIn: int64(issued.ExpiresIn.Seconds()),
		})
	}
}

// HandleSessionLogin exchanges username and password for a server-side
// session and sets the session cookie.
func HandleSessionLogin(iamService iam.Service, validator *validation.RequestValidator, cookies sessionCookies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		creds, ok := decodeLogin(w, r, validator)
		if !ok {
			return
		}

		principal, sessionID, err := iamService.LoginSession(r.Context(), creds)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		http.SetCookie(w, cookies.issue(sessionID))
		envelope.OKWithMessage(w, "Login successful", SessionLoginResponse{
			Username:  principal.Subject(),
			SessionID: sessionID,
		})
	}
}

// HandleSessionLogout invalidates the session named by the cookie, if any,
// and clears the cookie. Logging out without a session succeeds.
func HandleSessionLogout(iamService iam.Service, cookies sessionCookies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var sessionID string
		if cookie, err := r.Cookie(cookies.name); err == nil {
			sessionID = cookie.Value
		}

		if err := iamService.Logout(r.Context(), sessionID); err != nil {
			writeServiceError(w, err)
			return
		}

		http.SetCookie(w, cookies.clear())
		envelope.OKWithMessage(w, "Logout successful", nil)
	}
}

// HandleMe reports the authenticated principal.
func HandleMe() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, ok := auth.PrincipalFrom(r.Context())
		if !ok {
			envelope.Error(w, envelope.Unauthorized)
			return
		}
		envelope.OK(w, CurrentUserResponse{
			Username:    principal.Subject(),
			Authorities: principal.Authorities(),
		})
	}
}

// decodeLogin reads and validates a login body. On failure it writes the
// error response and returns false.
func decodeLogin(w http.ResponseWriter, r *http.Request, validator *validation.RequestValidator) (iam.Credentials, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxLoginBodyBytes))
	if err != nil {
		log.Printf("read login body: %v", err)
		envelope.Error(w, envelope.ParameterError)
		return iam.Credentials{}, false
	}

	var req LoginRequest
	if err := validator.DecodeAndValidate(validation.SchemaLogin, body, &req); err != nil {
		writeServiceError(w, err)
		return iam.Credentials{}, false
	}
	return iam.Credentials{Username: req.Username, Password: req.Password}, true
}
