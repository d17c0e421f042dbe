package api

import (
	"github.com/JaimeStill/rhythmrisk/internal/auth"
	"github.com/JaimeStill/rhythmrisk/internal/documents"
)

// Domain holds all domain systems that comprise the API.
type Domain struct {
	Auth      auth.System
	Documents documents.System
}

// NewDomain creates all domain systems from the API runtime.
func NewDomain(runtime *Runtime) *Domain {
	return &Domain{
		Auth: auth.New(
			runtime.Database.Connection(),
			runtime.Auth,
			runtime.Logger,
		),
		Documents: documents.New(
			runtime.Database.Connection(),
			runtime.Storage,
			runtime.Documents,
			runtime.Logger,
		),
	}
}
