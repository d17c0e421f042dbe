package auth_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/JaimeStill/rhythmrisk/internal/auth"
	"github.com/JaimeStill/rhythmrisk/pkg/routes"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

type mockSystem struct {
	registerFn     func(ctx context.Context, cmd auth.RegisterCommand) (*auth.User, error)
	loginFn        func(ctx context.Context, email, password string) (*auth.Token, error)
	authenticateFn func(ctx context.Context, bearer string) (*auth.User, error)
}

func (m *mockSystem) Handler() *auth.Handler {
	return auth.NewHandler(m, discard)
}

func (m *mockSystem) Middleware() func(http.Handler) http.Handler {
	return auth.Middleware(m, discard)
}

func (m *mockSystem) Register(ctx context.Context, cmd auth.RegisterCommand) (*auth.User, error) {
	return m.registerFn(ctx, cmd)
}

func (m *mockSystem) Login(ctx context.Context, email, password string) (*auth.Token, error) {
	return m.loginFn(ctx, email, password)
}

func (m *mockSystem) Find(context.Context, uuid.UUID) (*auth.User, error) {
	return nil, auth.ErrUserNotFound
}

func (m *mockSystem) Authenticate(ctx context.Context, bearer string) (*auth.User, error) {
	return m.authenticateFn(ctx, bearer)
}

var activeUser = &auth.User{
	ID:             uuid.MustParse("8f14e45f-ceea-467f-a8f5-1f2a4b1b2c3d"),
	Email:          "agent@example.com",
	OrganizationID: uuid.MustParse("1c7d8f2a-5b6e-4d3c-9a8b-7e6f5d4c3b2a"),
	IsActive:       true,
}

func newMux(m *mockSystem) *http.ServeMux {
	mux := http.NewServeMux()
	routes.Register(mux, m.Handler().Routes())
	return mux
}

func detail(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Detail string `json:"detail"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return body.Detail
}

func TestLoginHandler(t *testing.T) {
	m := &mockSystem{
		loginFn: func(_ context.Context, email, password string) (*auth.Token, error) {
			switch {
			case email == "agent@example.com" && password == "s3cret":
				return &auth.Token{AccessToken: "tok", TokenType: "bearer"}, nil
			case email == "inactive@example.com":
				return nil, auth.ErrInactiveUser
			default:
				return nil, auth.ErrInvalidCredentials
			}
		},
	}
	mux := newMux(m)

	tests := []struct {
		name       string
		form       url.Values
		wantStatus int
		wantDetail string
	}{
		{"success", url.Values{"username": {"agent@example.com"}, "password": {"s3cret"}}, http.StatusOK, ""},
		{"bad password", url.Values{"username": {"agent@example.com"}, "password": {"nope"}}, http.StatusUnauthorized, "Incorrect email or password"},
		{"inactive", url.Values{"username": {"inactive@example.com"}, "password": {"x"}}, http.StatusBadRequest, "Inactive user"},
		{"missing password", url.Values{"username": {"agent@example.com"}}, http.StatusBadRequest, "invalid request"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/auth/login", strings.NewReader(tt.form.Encode()))
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			rec := httptest.NewRecorder()

			mux.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantStatus == http.StatusOK {
				var tok auth.Token
				json.NewDecoder(rec.Body).Decode(&tok)
				if tok.AccessToken != "tok" || tok.TokenType != "bearer" {
					t.Errorf("token = %+v", tok)
				}
				return
			}
			if got := detail(t, rec); got != tt.wantDetail {
				t.Errorf("detail = %q, want %q", got, tt.wantDetail)
			}
			if tt.wantStatus == http.StatusUnauthorized && rec.Header().Get("WWW-Authenticate") != "Bearer" {
				t.Error("missing WWW-Authenticate header")
			}
		})
	}
}

func TestRegisterHandler(t *testing.T) {
	m := &mockSystem{
		registerFn: func(_ context.Context, cmd auth.RegisterCommand) (*auth.User, error) {
			switch cmd.Email {
			case "taken@example.com":
				return nil, auth.ErrDuplicateEmail
			case "closed@example.com":
				return nil, auth.ErrRegistrationDisabled
			}
			if len(cmd.Password) > 72 {
				return nil, fmt.Errorf("%w: password must be at most 72 bytes", auth.ErrInvalidRequest)
			}
			u := *activeUser
			u.Email = cmd.Email
			u.FullName = cmd.FullName
			u.HashedPassword = "$2a$10$secret"
			return &u, nil
		},
	}
	mux := newMux(m)

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantDetail string
	}{
		{"created", `{"email":"new@example.com","password":"pw","full_name":"New Agent","organization_name":"Acme"}`, http.StatusOK, ""},
		{"duplicate", `{"email":"taken@example.com","password":"pw","full_name":"A","organization_name":"B"}`, http.StatusBadRequest, "A user with this email already exists"},
		{"disabled", `{"email":"closed@example.com","password":"pw","full_name":"A","organization_name":"B"}`, http.StatusForbidden, "Registration is currently disabled"},
		{"malformed", `{"email":`, http.StatusBadRequest, "invalid request"},
		{"long password", `{"email":"new@example.com","password":"` + strings.Repeat("p", 80) + `","full_name":"A","organization_name":"B"}`, http.StatusBadRequest, "invalid request: password must be at most 72 bytes"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/auth/register", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()

			mux.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tt.wantStatus, rec.Body)
			}
			if tt.wantStatus != http.StatusOK {
				if got := detail(t, rec); got != tt.wantDetail {
					t.Errorf("detail = %q, want %q", got, tt.wantDetail)
				}
				return
			}

			raw := rec.Body.String()
			if strings.Contains(raw, "secret") || strings.Contains(raw, "hashed_password") {
				t.Errorf("response leaks password hash: %s", raw)
			}
			if !strings.Contains(raw, `"full_name":"New Agent"`) {
				t.Errorf("body = %s", raw)
			}
		})
	}
}

func TestMeRequiresBearer(t *testing.T) {
	m := &mockSystem{
		authenticateFn: func(_ context.Context, bearer string) (*auth.User, error) {
			switch bearer {
			case "good":
				return activeUser, nil
			case "inactive":
				return nil, auth.ErrInactiveUser
			case "broken":
				return nil, errors.New("connection refused")
			}
			return nil, auth.ErrUnauthenticated
		},
	}
	mux := newMux(m)

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantDetail string
	}{
		{"valid", "Bearer good", http.StatusOK, ""},
		{"lowercase scheme", "bearer good", http.StatusOK, ""},
		{"missing", "", http.StatusUnauthorized, "Not authenticated"},
		{"basic scheme", "Basic Zm9vOmJhcg==", http.StatusUnauthorized, "Not authenticated"},
		{"rejected", "Bearer stale", http.StatusUnauthorized, "Could not validate credentials"},
		{"inactive", "Bearer inactive", http.StatusBadRequest, "Inactive user"},
		{"backend failure", "Bearer broken", http.StatusInternalServerError, "connection refused"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/auth/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			mux.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantStatus != http.StatusOK {
				if got := detail(t, rec); got != tt.wantDetail {
					t.Errorf("detail = %q, want %q", got, tt.wantDetail)
				}
				return
			}

			var u auth.User
			json.NewDecoder(rec.Body).Decode(&u)
			if u.ID != activeUser.ID || u.OrganizationID != activeUser.OrganizationID {
				t.Errorf("user = %+v", u)
			}
		})
	}
}

func TestUserFromContext(t *testing.T) {
	if _, ok := auth.UserFromContext(context.Background()); ok {
		t.Error("empty context should carry no user")
	}
	ctx := auth.WithUser(context.Background(), activeUser)
	if u, ok := auth.UserFromContext(ctx); !ok || u != activeUser {
		t.Errorf("UserFromContext() = %v, %v", u, ok)
	}
}
