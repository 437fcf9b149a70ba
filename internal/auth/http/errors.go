package http

import (
	"fmt"
	"net/http"

	"github.com/wattlesec/authd/pkg/httpx"
)

// APIError is the JSON error body every endpoint returns on rejection.
type APIError struct {
	// StatusCode is the HTTP status code for this error
	StatusCode int `json:"-"`

	// Code is the machine-readable error code (e.g. "invalid_credentials")
	Code string `json:"error"`

	// Description is a human-readable description of the error
	Description string `json:"error_description"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

// WriteError writes this APIError to an HTTP response writer.
func (e *APIError) WriteError(w http.ResponseWriter) {
	httpx.WriteJSON(w, e.StatusCode, map[string]string{
		"error":             e.Code,
		"error_description": e.Description,
	})
}

var (
	// ErrInvalidRequest is returned when the request body is malformed or
	// missing required fields.
	ErrInvalidRequest = &APIError{
		StatusCode:  http.StatusBadRequest,
		Code:        "invalid_request",
		Description: "the request is malformed or missing required parameters",
	}

	// ErrConflict is returned when registration hits a taken username or
	// email. Which of the two collided is deliberately not disclosed.
	ErrConflict = &APIError{
		StatusCode:  http.StatusConflict,
		Code:        "already_registered",
		Description: "username or email is already registered",
	}

	// ErrInvalidCredentials is returned for login failures. Unknown user and
	// wrong password share this response verbatim.
	ErrInvalidCredentials = &APIError{
		StatusCode:  http.StatusUnauthorized,
		Code:        "invalid_credentials",
		Description: "invalid username or password",
	}

	// ErrInvalidToken is returned when a refresh token is unknown, expired,
	// or already used.
	ErrInvalidToken = &APIError{
		StatusCode:  http.StatusUnauthorized,
		Code:        "invalid_token",
		Description: "invalid or expired refresh token",
	}

	// ErrServerError is returned for infrastructure failures. Never used for
	// expected rejections so a storage outage can't masquerade as bad
	// credentials.
	ErrServerError = &APIError{
		StatusCode:  http.StatusInternalServerError,
		Code:        "server_error",
		Description: "an unexpected error occurred",
	}
)
