package pagination

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
)

// ErrInvalidRequest is returned when page or limit is malformed or out of range.
var ErrInvalidRequest = errors.New("invalid pagination parameters")

// Request is a normalized page/limit window. Page is 1-based.
type Request struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

// Offset returns the number of rows to skip.
func (r Request) Offset() int {
	return (r.Page - 1) * r.Limit
}

// FromQuery reads page and limit from query values. Absent values take the
// first page and cfg.DefaultLimit. Present values must be integers with
// page >= 1 and 1 <= limit <= cfg.MaxLimit.
func FromQuery(values url.Values, cfg Config) (Request, error) {
	req := Request{Page: 1, Limit: cfg.DefaultLimit}

	if v := values.Get("page"); v != "" {
		page, err := strconv.Atoi(v)
		if err != nil || page < 1 {
			return Request{}, fmt.Errorf("%w: page must be an integer >= 1", ErrInvalidRequest)
		}
		req.Page = page
	}

	if v := values.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 1 || limit > cfg.MaxLimit {
			return Request{}, fmt.Errorf(
				"%w: limit must be an integer between 1 and %d",
				ErrInvalidRequest, cfg.MaxLimit,
			)
		}
		req.Limit = limit
	}

	return req, nil
}
