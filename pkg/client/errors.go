package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

var (
	// ErrUnauthorized is returned when the service rejects the session token.
	// The session has already been cleared when it is returned.
	ErrUnauthorized = errors.New("session expired, please log in again")
	// ErrNotAuthenticated is returned by authenticated calls when no session is stored.
	ErrNotAuthenticated = errors.New("not logged in")
)

// APIError is a non-2xx response from the service. Message carries the
// service's explanation when one was provided.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return e.Message
}

// errorBody covers the error shapes the service emits: a string detail, a
// list of field errors, or a message.
type errorBody struct {
	Detail  json.RawMessage `json:"detail"`
	Message string          `json:"message"`
}

type fieldError struct {
	Msg string `json:"msg"`
}

func decodeError(resp *http.Response) *APIError {
	apiErr := &APIError{
		StatusCode: resp.StatusCode,
		Message:    http.StatusText(resp.StatusCode),
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil || len(data) == 0 {
		return apiErr
	}

	var body errorBody
	if err := json.Unmarshal(data, &body); err != nil {
		return apiErr
	}

	if msg := detailMessage(body.Detail); msg != "" {
		apiErr.Message = msg
	} else if body.Message != "" {
		apiErr.Message = body.Message
	}
	return apiErr
}

func detailMessage(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}

	var fields []fieldError
	if err := json.Unmarshal(raw, &fields); err == nil {
		msgs := make([]string, 0, len(fields))
		for _, f := range fields {
			if f.Msg != "" {
				msgs = append(msgs, f.Msg)
			}
		}
		return strings.Join(msgs, "; ")
	}

	return ""
}

func unauthorized(apiErr *APIError) error {
	if apiErr.Message == "" || apiErr.Message == http.StatusText(http.StatusUnauthorized) {
		return ErrUnauthorized
	}
	return fmt.Errorf("%w: %s", ErrUnauthorized, apiErr.Message)
}
