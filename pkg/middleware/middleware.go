// Package middleware provides the HTTP middleware stack and the request
// logging, panic recovery, and CORS middleware mounted on it.
package middleware

import (
	"net/http"
	"slices"
)

// System manages an ordered stack of HTTP middleware.
type System interface {
	Use(mw func(http.Handler) http.Handler)
	Apply(handler http.Handler) http.Handler
}

type stack struct {
	mws []func(http.Handler) http.Handler
}

// New creates a middleware System seeded with mws, outermost first.
func New(mws ...func(http.Handler) http.Handler) System {
	return &stack{mws: slices.Clone(mws)}
}

func (s *stack) Use(fn func(http.Handler) http.Handler) {
	s.mws = append(s.mws, fn)
}

// Apply wraps handler so the first registered middleware runs first.
func (s *stack) Apply(handler http.Handler) http.Handler {
	for _, mw := range slices.Backward(s.mws) {
		handler = mw(handler)
	}
	return handler
}
