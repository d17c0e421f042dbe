package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/JaimeStill/rhythmrisk/pkg/session"
)

// Login exchanges credentials for a bearer token, stores it, then fetches and
// stores the current user. A rejected login returns an *APIError and leaves
// the session untouched.
func (c *Client) Login(ctx context.Context, email, password string) (*session.User, error) {
	form := url.Values{"username": {email}, "password": {password}}

	var tok Token
	err := c.doJSON(ctx, request{
		method:      http.MethodPost,
		path:        "/api/auth/login",
		body:        strings.NewReader(form.Encode()),
		contentType: "application/x-www-form-urlencoded",
		public:      true,
	}, &tok)
	if err != nil {
		return nil, err
	}
	if tok.AccessToken == "" {
		return nil, fmt.Errorf("login response missing access token")
	}

	if err := c.session.Save(session.State{Token: tok.AccessToken}); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	user, err := c.Me(ctx)
	if err != nil {
		return nil, err
	}

	if err := c.session.Save(session.State{Token: tok.AccessToken, User: user}); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	c.logger.Info("logged in", "email", user.Email, "organization_id", user.OrganizationID)
	return user, nil
}

// Register creates a user and organization. It does not log in.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*session.User, error) {
	body, err := jsonBody(req)
	if err != nil {
		return nil, err
	}

	var user session.User
	err = c.doJSON(ctx, request{
		method:      http.MethodPost,
		path:        "/api/auth/register",
		body:        body,
		contentType: "application/json",
		public:      true,
	}, &user)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Me returns the user that owns the current session.
func (c *Client) Me(ctx context.Context) (*session.User, error) {
	var user session.User
	if err := c.doJSON(ctx, request{method: http.MethodGet, path: "/api/auth/me"}, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Logout discards the stored session.
func (c *Client) Logout() error {
	return c.session.Clear()
}
