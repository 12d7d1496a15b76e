package domain

import (
	"errors"
	"net/http"
)

// APIError is a user-facing failure: handlers render it as
// {status:"Failed", statusCode, message}. Anything else surfaces as a 500.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return e.Message
}

func BadRequest(message string) *APIError {
	return &APIError{Status: http.StatusBadRequest, Message: message}
}

func NotFound(message string) *APIError {
	return &APIError{Status: http.StatusNotFound, Message: message}
}

func Unauthorized(message string) *APIError {
	return &APIError{Status: http.StatusUnauthorized, Message: message}
}

func Forbidden(message string) *APIError {
	return &APIError{Status: http.StatusForbidden, Message: message}
}

// AsAPIError unwraps err into an APIError if one is in the chain.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}
