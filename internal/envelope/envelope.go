// Package envelope defines the uniform JSON body every endpoint responds with:
//
//	{"code": 0, "message": "Success", "data": {...}}
//
// Failures use the same shape with a non-zero code from codes.go and no data.
package envelope

import (
	"encoding/json"
	"log"
	"net/http"
)

// Envelope is the response body.
type Envelope struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// OK writes a 200 success envelope with the default message.
func OK(w http.ResponseWriter, data any) {
	OKWithMessage(w, Success.Message(), data)
}

// OKWithMessage writes a 200 success envelope with a custom message.
func OKWithMessage(w http.ResponseWriter, message string, data any) {
	write(w, http.StatusOK, Envelope{Code: Success, Message: message, Data: data})
}

// Error writes a failure envelope for code with its default message and status.
func Error(w http.ResponseWriter, code Code) {
	ErrorWithMessage(w, code, code.Message())
}

// ErrorWithMessage writes a failure envelope for code with a custom message.
// The message is sent to the caller verbatim; never pass internal error text.
func ErrorWithMessage(w http.ResponseWriter, code Code, message string) {
	write(w, code.HTTPStatus(), Envelope{Code: code, Message: message})
}

func write(w http.ResponseWriter, status int, body Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("envelope: failed to encode response: %v", err)
	}
}
