package errors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNotFound is returned when a user does not exist.
	ErrNotFound = errors.New("not found")
	// ErrDuplicateEntry is returned when an email or phone number is already taken.
	ErrDuplicateEntry = errors.New("duplicate entry")
	// ErrServiceFailure wraps unexpected failures while serving a request.
	ErrServiceFailure = errors.New("service failure")
	// ErrInvalidArgument is returned for arguments the service cannot act on.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrInvalidCredentials is returned when the user id or password is incorrect.
	ErrInvalidCredentials = errors.New("invalid user id or password")
	// ErrAuthUserNotFound is returned when a login names an unknown user id.
	// It also matches ErrInvalidCredentials.
	ErrAuthUserNotFound = fmt.Errorf("%w: user not found", ErrInvalidCredentials)
	// ErrInvalidRefreshToken is returned when a refresh token is invalid, expired or revoked.
	ErrInvalidRefreshToken = errors.New("invalid or expired refresh token")
)

// Error is a domain error carrying a user-facing message.
// errors.Is matches both its Kind and its Cause.
type Error struct {
	Kind    error
	Message string
	Cause   error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Cause}
}

// NotFound builds the error returned when no user has the given user id.
func NotFound(userID string) *Error {
	return &Error{Kind: ErrNotFound, Message: "User not found with ID: " + userID}
}

// DuplicateEntry builds a uniqueness conflict error with the given message.
func DuplicateEntry(message string, cause error) *Error {
	return &Error{Kind: ErrDuplicateEntry, Message: message, Cause: cause}
}

// ServiceFailure wraps an unexpected error. The cause's text is appended to message.
func ServiceFailure(message string, cause error) *Error {
	return &Error{Kind: ErrServiceFailure, Message: message + cause.Error(), Cause: cause}
}

// InvalidArgument builds a validation error with the given message.
func InvalidArgument(message string) *Error {
	return &Error{Kind: ErrInvalidArgument, Message: message}
}

// ErrorResponse represents a standardized error response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// HTTPError represents an HTTP error with status code.
type HTTPError struct {
	StatusCode int
	Message    string
	Code       string
}

func (e *HTTPError) Error() string {
	return e.Message
}

// NewHTTPError creates a new HTTP error.
func NewHTTPError(statusCode int, message, code string) *HTTPError {
	return &HTTPError{
		StatusCode: statusCode,
		Message:    message,
		Code:       code,
	}
}

// ToErrorResponse converts an HTTPError to ErrorResponse.
func (e *HTTPError) ToErrorResponse() ErrorResponse {
	return ErrorResponse{
		Error: e.Message,
		Code:  e.Code,
	}
}

// MapErrorToHTTP maps domain errors to HTTP errors.
func MapErrorToHTTP(err error) *HTTPError {
	switch {
	case errors.Is(err, ErrNotFound):
		return NewHTTPError(http.StatusNotFound, err.Error(), "USER_NOT_FOUND")
	case errors.Is(err, ErrDuplicateEntry):
		return NewHTTPError(http.StatusBadRequest, err.Error(), "DUPLICATE_ENTRY")
	case errors.Is(err, ErrInvalidArgument):
		return NewHTTPError(http.StatusBadRequest, err.Error(), "INVALID_ARGUMENT")
	case errors.Is(err, ErrInvalidCredentials):
		return NewHTTPError(http.StatusUnauthorized, ErrInvalidCredentials.Error(), "INVALID_CREDENTIALS")
	case errors.Is(err, ErrInvalidRefreshToken):
		return NewHTTPError(http.StatusUnauthorized, err.Error(), "INVALID_REFRESH_TOKEN")
	case errors.Is(err, ErrServiceFailure):
		return NewHTTPError(http.StatusInternalServerError, err.Error(), "SERVICE_FAILURE")
	default:
		return NewHTTPError(http.StatusInternalServerError, "internal server error", "INTERNAL_ERROR")
	}
}
