package envelope

import "net/http"

// Code is a stable, client-facing result code carried in every response body.
type Code int

const (
	Success Code = 0

	// 1xxx: generic request and system failures
	SystemError      Code = 1000
	ParameterError   Code = 1001
	ValidationError  Code = 1002
	ResourceNotFound Code = 1003

	// 2xxx: authentication and authorization
	Unauthorized         Code = 2001
	TokenInvalid         Code = 2002
	TokenExpired         Code = 2003
	Forbidden            Code = 2004
	AuthenticationFailed Code = 2005

	// 3xxx: account
	UserNotFound       Code = 3001
	UserAlreadyExists  Code = 3002
	InvalidCredentials Code = 3003

	DatabaseError        Code = 4000
	ExternalServiceError Code = 5000
)

type codeInfo struct {
	status  int
	message string
}

var codes = map[Code]codeInfo{
	Success:              {http.StatusOK, "Success"},
	SystemError:          {http.StatusInternalServerError, "System error"},
	ParameterError:       {http.StatusBadRequest, "Parameter error"},
	ValidationError:      {http.StatusBadRequest, "Validation error"},
	ResourceNotFound:     {http.StatusNotFound, "Resource not found"},
	Unauthorized:         {http.StatusUnauthorized, "Unauthorized"},
	TokenInvalid:         {http.StatusUnauthorized, "Invalid token"},
	TokenExpired:         {http.StatusUnauthorized, "Token expired"},
	Forbidden:            {http.StatusForbidden, "Forbidden"},
	AuthenticationFailed: {http.StatusUnauthorized, "Authentication failed"},
	UserNotFound:         {http.StatusNotFound, "User not found"},
	UserAlreadyExists:    {http.StatusConflict, "User already exists"},
	InvalidCredentials:   {http.StatusUnauthorized, "Invalid username or password"},
	DatabaseError:        {http.StatusInternalServerError, "Database error"},
	ExternalServiceError: {http.StatusBadGateway, "External service error"},
}

// HTTPStatus returns the HTTP status paired with c. Unknown codes map to 500.
func (c Code) HTTPStatus() int {
	if info, ok := codes[c]; ok {
		return info.status
	}
	return http.StatusInternalServerError
}

// Message returns the default message for c.
func (c Code) Message() string {
	if info, ok := codes[c]; ok {
		return info.message
	}
	return codes[SystemError].message
}
