package documents

import (
	"errors"
	"net/http"
)

// Domain errors for document operations. Messages are returned to clients verbatim.
var (
	ErrNotFound         = errors.New("Document not found")
	ErrForbidden        = errors.New("Access denied to this document")
	ErrInvalidEntity    = errors.New("Invalid entity ID or entity does not belong to your organization")
	ErrStillProcessing  = errors.New("Document is still processing. Please wait or try again later.")
	ErrAlreadyProcessed = errors.New("Document has already been processed successfully")
	ErrInvalidFile      = errors.New("invalid file")
	ErrFileTooLarge     = errors.New("file exceeds maximum upload size")
	ErrInvalidFilter    = errors.New("invalid filter")
	ErrUnauthenticated  = errors.New("Not authenticated")
)

// MapHTTPStatus maps document domain errors to appropriate HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrInvalidEntity),
		errors.Is(err, ErrStillProcessing),
		errors.Is(err, ErrAlreadyProcessed),
		errors.Is(err, ErrInvalidFile),
		errors.Is(err, ErrInvalidFilter):
		return http.StatusBadRequest
	case errors.Is(err, ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, ErrUnauthenticated):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}
