package auth_test

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/JaimeStill/rhythmrisk/internal/auth"
)

// userStore is an in-memory database/sql driver that answers the statements
// the auth repository issues.
type userStore struct {
	mu       sync.Mutex
	users    []storedUser
	orgs     []string
	entities []storedEntity
	commits  int
}

type storedUser struct {
	id, email, fullName, hash, orgID string
	active                           bool
	created                          time.Time
}

type storedEntity struct {
	name, entityType, orgID string
}

var userCols = []string{
	"id", "email", "full_name", "hashed_password", "organization_id",
	"is_active", "is_superuser", "created_at", "updated_at",
}

func (s *userStore) Connect(context.Context) (driver.Conn, error) { return &storeConn{s}, nil }
func (s *userStore) Driver() driver.Driver                        { return s }
func (s *userStore) Open(string) (driver.Conn, error)             { return &storeConn{s}, nil }

func (s *userStore) seed(t *testing.T, email, password string, active bool) uuid.UUID {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	id := uuid.New()
	s.users = append(s.users, storedUser{
		id:       id.String(),
		email:    email,
		fullName: "Seeded",
		hash:     string(hash),
		orgID:    uuid.NewString(),
		active:   active,
		created:  time.Now(),
	})
	return id
}

func (s *userStore) find(email string) (storedUser, bool) {
	for _, u := range s.users {
		if strings.EqualFold(u.email, email) {
			return u, true
		}
	}
	return storedUser{}, false
}

type storeConn struct{ s *userStore }

func (c *storeConn) Prepare(string) (driver.Stmt, error) {
	return nil, errors.New("prepared statements not supported")
}

func (c *storeConn) Close() error              { return nil }
func (c *storeConn) Begin() (driver.Tx, error) { return storeTx{c.s}, nil }

func (c *storeConn) BeginTx(context.Context, driver.TxOptions) (driver.Tx, error) {
	return storeTx{c.s}, nil
}

func (c *storeConn) QueryContext(_ context.Context, q string, args []driver.NamedValue) (driver.Rows, error) {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()

	switch {
	case strings.Contains(q, "SELECT EXISTS"):
		_, ok := c.s.find(text(args[0]))
		return &storeRows{cols: []string{"exists"}, data: [][]driver.Value{{ok}}}, nil
	case strings.Contains(q, "INSERT INTO users"):
		u := storedUser{
			id:       text(args[0]),
			email:    text(args[1]),
			fullName: text(args[2]),
			hash:     text(args[3]),
			orgID:    text(args[4]),
			active:   true,
			created:  time.Now(),
		}
		c.s.users = append(c.s.users, u)
		return userRows(u), nil
	case strings.Contains(q, "FROM users"):
		if u, ok := c.s.find(text(args[0])); ok {
			return userRows(u), nil
		}
		return &storeRows{cols: userCols}, nil
	}
	return nil, fmt.Errorf("unexpected query: %s", q)
}

func (c *storeConn) ExecContext(_ context.Context, q string, args []driver.NamedValue) (driver.Result, error) {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()

	switch {
	case strings.Contains(q, "INSERT INTO organizations"):
		c.s.orgs = append(c.s.orgs, text(args[0]))
	case strings.Contains(q, "INSERT INTO entities"):
		c.s.entities = append(c.s.entities, storedEntity{
			name:       text(args[1]),
			entityType: text(args[4]),
			orgID:      text(args[3]),
		})
	default:
		return nil, fmt.Errorf("unexpected statement: %s", q)
	}
	return driver.RowsAffected(1), nil
}

type storeTx struct{ s *userStore }

func (tx storeTx) Commit() error {
	tx.s.mu.Lock()
	defer tx.s.mu.Unlock()
	tx.s.commits++
	return nil
}

func (tx storeTx) Rollback() error { return nil }

type storeRows struct {
	cols []string
	data [][]driver.Value
	next int
}

func (r *storeRows) Columns() []string { return r.cols }
func (r *storeRows) Close() error      { return nil }

func (r *storeRows) Next(dest []driver.Value) error {
	if r.next >= len(r.data) {
		return io.EOF
	}
	copy(dest, r.data[r.next])
	r.next++
	return nil
}

func userRows(u storedUser) *storeRows {
	return &storeRows{
		cols: userCols,
		data: [][]driver.Value{{
			u.id, u.email, u.fullName, u.hash, u.orgID,
			u.active, false, u.created, u.created,
		}},
	}
}

func text(v driver.NamedValue) string {
	s, _ := v.Value.(string)
	return s
}

var testTokens = auth.NewTokens("test-secret", time.Hour, "rhythmrisk")

func newRepo(store *userStore, allowRegistration bool) auth.System {
	db := sql.OpenDB(store)
	return auth.New(db, auth.Config{
		Tokens:            testTokens,
		AllowRegistration: allowRegistration,
	}, discard)
}

func TestRegister(t *testing.T) {
	valid := auth.RegisterCommand{
		Email:            "new@example.com",
		Password:         "correct horse",
		FullName:         "New Agent",
		OrganizationName: "Acme Brokerage",
	}

	t.Run("creates organization and default entity", func(t *testing.T) {
		store := &userStore{}
		u, err := newRepo(store, true).Register(context.Background(), valid)
		if err != nil {
			t.Fatalf("Register() error = %v", err)
		}

		if u.Email != "new@example.com" || u.FullName != "New Agent" || !u.IsActive {
			t.Errorf("user = %+v", u)
		}
		if err := bcrypt.CompareHashAndPassword([]byte(u.HashedPassword), []byte("correct horse")); err != nil {
			t.Errorf("stored hash does not match password: %v", err)
		}
		if len(store.orgs) != 1 || store.orgs[0] != u.OrganizationID.String() {
			t.Fatalf("orgs = %v, want [%s]", store.orgs, u.OrganizationID)
		}
		if len(store.entities) != 1 {
			t.Fatalf("entities = %+v, want one", store.entities)
		}
		e := store.entities[0]
		if e.name != "Default" || e.entityType != "custom" || e.orgID != u.OrganizationID.String() {
			t.Errorf("entity = %+v", e)
		}
		if store.commits != 1 {
			t.Errorf("commits = %d, want 1", store.commits)
		}
	})

	tests := []struct {
		name       string
		mutate     func(*auth.RegisterCommand)
		allow      bool
		wantErr    error
		wantStatus int
	}{
		{
			name:       "duplicate email ignores case",
			mutate:     func(c *auth.RegisterCommand) { c.Email = "Taken@Example.com" },
			allow:      true,
			wantErr:    auth.ErrDuplicateEmail,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "password over bcrypt limit",
			mutate:     func(c *auth.RegisterCommand) { c.Password = strings.Repeat("p", 80) },
			allow:      true,
			wantErr:    auth.ErrInvalidRequest,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "invalid email",
			mutate:     func(c *auth.RegisterCommand) { c.Email = "not-an-email" },
			allow:      true,
			wantErr:    auth.ErrInvalidRequest,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "missing organization",
			mutate:     func(c *auth.RegisterCommand) { c.OrganizationName = "  " },
			allow:      true,
			wantErr:    auth.ErrInvalidRequest,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "registration disabled",
			mutate:     func(*auth.RegisterCommand) {},
			wantErr:    auth.ErrRegistrationDisabled,
			wantStatus: http.StatusForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &userStore{}
			store.seed(t, "taken@example.com", "whatever", true)

			cmd := valid
			tt.mutate(&cmd)

			_, err := newRepo(store, tt.allow).Register(context.Background(), cmd)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Register() error = %v, want %v", err, tt.wantErr)
			}
			if got := auth.MapHTTPStatus(err); got != tt.wantStatus {
				t.Errorf("status = %d, want %d", got, tt.wantStatus)
			}
			if len(store.orgs) != 0 || len(store.entities) != 0 {
				t.Errorf("rejected registration wrote orgs=%v entities=%v", store.orgs, store.entities)
			}
			if len(store.users) != 1 {
				t.Errorf("users = %d, want only the seeded user", len(store.users))
			}
		})
	}
}

func TestRegisterPasswordAtLimit(t *testing.T) {
	store := &userStore{}
	_, err := newRepo(store, true).Register(context.Background(), auth.RegisterCommand{
		Email:            "max@example.com",
		Password:         strings.Repeat("p", 72),
		FullName:         "Max",
		OrganizationName: "Acme",
	})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
}

func TestLogin(t *testing.T) {
	store := &userStore{}
	activeID := store.seed(t, "agent@example.com", "correct horse", true)
	store.seed(t, "retired@example.com", "correct horse", false)
	repo := newRepo(store, true)

	tests := []struct {
		name     string
		email    string
		password string
		wantErr  error
	}{
		{"success", "agent@example.com", "correct horse", nil},
		{"email ignores case", "AGENT@example.com", "correct horse", nil},
		{"wrong password", "agent@example.com", "battery staple", auth.ErrInvalidCredentials},
		{"unknown email", "nobody@example.com", "correct horse", auth.ErrInvalidCredentials},
		{"inactive user", "retired@example.com", "correct horse", auth.ErrInactiveUser},
		{"inactive user wrong password", "retired@example.com", "battery staple", auth.ErrInvalidCredentials},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := repo.Login(context.Background(), tt.email, tt.password)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Login() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Login() error = %v", err)
			}

			if token.TokenType != "bearer" {
				t.Errorf("token type = %q, want bearer", token.TokenType)
			}
			id, err := testTokens.Verify(token.AccessToken)
			if err != nil {
				t.Fatalf("Verify() error = %v", err)
			}
			if id != activeID {
				t.Errorf("subject = %s, want %s", id, activeID)
			}
		})
	}
}
