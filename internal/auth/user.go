// Package auth implements registration, password login, bearer token
// issuance, and request authentication for organization users.
package auth

import (
	"time"

	"github.com/google/uuid"
)

// User is an organization member. HashedPassword never leaves the server.
type User struct {
	ID             uuid.UUID `json:"id"`
	Email          string    `json:"email"`
	FullName       string    `json:"full_name"`
	HashedPassword string    `json:"-"`
	OrganizationID uuid.UUID `json:"organization_id"`
	IsActive       bool      `json:"is_active"`
	IsSuperuser    bool      `json:"is_superuser"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// RegisterCommand creates a user together with a new organization.
type RegisterCommand struct {
	Email            string `json:"email"`
	Password         string `json:"password"`
	FullName         string `json:"full_name"`
	OrganizationName string `json:"organization_name"`
}

// Token is the login response.
type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}
