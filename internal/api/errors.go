package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/synergysphere/sphere/internal/models"
)

// GenericFailure is shown when the server gives no message of its own.
const GenericFailure = "Something went wrong, please try again"

// NetworkError means the request could not be sent or no response arrived.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: network error: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// DecodeError means a success response body could not be parsed.
type DecodeError struct {
	Op  string
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%s: decode response: %v", e.Op, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// ServerError is any non-2xx response. Message is taken from the response
// body when present.
type ServerError struct {
	Op         string
	StatusCode int
	Message    string
}

func (e *ServerError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: API error (%d): %s", e.Op, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s: API error (%d)", e.Op, e.StatusCode)
}

// IsUnauthorized reports whether err is a 401 or 403 from the server.
func IsUnauthorized(err error) bool {
	var se *ServerError
	return errors.As(err, &se) && (se.StatusCode == http.StatusUnauthorized || se.StatusCode == http.StatusForbidden)
}

// UserMessage returns the text to show the user for a failed action: the
// server-provided message verbatim when there is one, otherwise a short
// description of what went wrong.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var (
		se *ServerError
		ne *NetworkError
		de *DecodeError
		ve *models.ValidationError
	)
	switch {
	case errors.As(err, &ve):
		return ve.Message
	case errors.As(err, &se):
		if se.Message != "" {
			return se.Message
		}
		return fmt.Sprintf("%s (status %d)", GenericFailure, se.StatusCode)
	case errors.As(err, &ne):
		return "Could not reach the server: " + ne.Err.Error()
	case errors.As(err, &de):
		return "The server sent an unexpected response"
	default:
		return err.Error()
	}
}
