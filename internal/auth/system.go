package auth

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

// System defines the public contract for authentication operations.
type System interface {
	Handler() *Handler

	// Register creates an organization, its first user, and a default entity.
	Register(ctx context.Context, cmd RegisterCommand) (*User, error)
	// Login verifies a password and issues an access token.
	Login(ctx context.Context, email, password string) (*Token, error)
	Find(ctx context.Context, id uuid.UUID) (*User, error)
	// Authenticate resolves a bearer token to an active user.
	Authenticate(ctx context.Context, bearer string) (*User, error)
	// Middleware rejects requests without a valid bearer token and stores the
	// authenticated user in the request context.
	Middleware() func(http.Handler) http.Handler
}
