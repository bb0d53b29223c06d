package server

import (
	"errors"
	"log"
	"net/http"

	"github.com/terraconstructs/authgate/internal/envelope"
	"github.com/terraconstructs/authgate/internal/services/iam"
	"github.com/terraconstructs/authgate/internal/services/validation"
)

// writeServiceError maps service errors to envelope responses. Internal error
// text is logged, never sent.
func writeServiceError(w http.ResponseWriter, err error) {
	var validationErr *validation.ValidationError
	switch {
	case errors.Is(err, iam.ErrBadCredentials), errors.Is(err, iam.ErrUserDisabled):
		envelope.Error(w, envelope.InvalidCredentials)
	case errors.As(err, &validationErr):
		envelope.ErrorWithMessage(w, envelope.ValidationError, validationErr.Message())
	case errors.Is(err, validation.ErrMalformedBody):
		envelope.Error(w, envelope.ParameterError)
	default:
		log.Printf("request failed: %v", err)
		envelope.Error(w, envelope.SystemError)
	}
}

func handleNotFound(w http.ResponseWriter, _ *http.Request) {
	envelope.Error(w, envelope.ResourceNotFound)
}

func handleMethodNotAllowed(w http.ResponseWriter, _ *http.Request) {
	envelope.ErrorWithMessage(w, envelope.ParameterError, http.StatusText(http.StatusMethodNotAllowed))
}
