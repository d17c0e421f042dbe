package auth

import (
	"errors"
	"net/http"
)

// Domain errors for authentication operations. Messages are returned to clients verbatim.
var (
	ErrInvalidCredentials   = errors.New("Incorrect email or password")
	ErrInactiveUser         = errors.New("Inactive user")
	ErrDuplicateEmail       = errors.New("A user with this email already exists")
	ErrRegistrationDisabled = errors.New("Registration is currently disabled")
	ErrUnauthenticated      = errors.New("Could not validate credentials")
	ErrUserNotFound         = errors.New("User not found")
	ErrInvalidRequest       = errors.New("invalid request")
)

// MapHTTPStatus maps auth domain errors to appropriate HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrInvalidCredentials), errors.Is(err, ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, ErrInactiveUser), errors.Is(err, ErrDuplicateEmail), errors.Is(err, ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, ErrRegistrationDisabled):
		return http.StatusForbidden
	case errors.Is(err, ErrUserNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
