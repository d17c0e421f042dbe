// Package session persists the authenticated client state: a bearer token and
// the current user record. Stores are injected into whichever component needs
// authorization instead of being reached through process-wide state.
package session

import (
	"errors"
	"time"
)

// ErrNoSession is returned by Load when nothing has been saved.
var ErrNoSession = errors.New("no session")

// User is the authenticated user as reported by the document service.
type User struct {
	ID             string     `json:"id"`
	Email          string     `json:"email"`
	FullName       string     `json:"full_name"`
	OrganizationID string     `json:"organization_id"`
	IsActive       bool       `json:"is_active"`
	IsSuperuser    bool       `json:"is_superuser"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      *time.Time `json:"updated_at,omitempty"`
}

// State is the persisted session. User may be nil between login and the
// first profile fetch.
type State struct {
	Token string `json:"token"`
	User  *User  `json:"user,omitempty"`
}

// Store loads, saves, and clears the session. Implementations must be safe
// for concurrent use.
type Store interface {
	Load() (State, error)
	Save(State) error
	Clear() error
}
