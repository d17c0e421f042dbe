package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/mail"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/JaimeStill/rhythmrisk/pkg/query"
	"github.com/JaimeStill/rhythmrisk/pkg/repository"
)

const (
	defaultEntityName        = "Default"
	defaultEntityDescription = "Default entity for document organization"
	defaultEntityType        = "custom"

	// bcrypt rejects longer passwords.
	maxPasswordBytes = 72
)

// Config holds the collaborators and policy of the auth system.
type Config struct {
	Tokens            *Tokens
	Identity          IdentityVerifier
	AllowRegistration bool
}

type repo struct {
	db     *sql.DB
	cfg    Config
	logger *slog.Logger
}

// New creates an auth repository implementing the System interface.
func New(db *sql.DB, cfg Config, logger *slog.Logger) System {
	return &repo{
		db:     db,
		cfg:    cfg,
		logger: logger.With("system", "auth"),
	}
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger)
}

func (r *repo) Middleware() func(http.Handler) http.Handler {
	return Middleware(r, r.logger)
}

func (r *repo) Register(ctx context.Context, cmd RegisterCommand) (*User, error) {
	if !r.cfg.AllowRegistration {
		return nil, ErrRegistrationDisabled
	}
	if err := cmd.validate(); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cmd.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (User, error) {
		var exists bool
		if err := tx.QueryRowContext(ctx,
			"SELECT EXISTS(SELECT 1 FROM users WHERE LOWER(email) = LOWER($1))",
			cmd.Email,
		).Scan(&exists); err != nil {
			return User{}, err
		}
		if exists {
			return User{}, ErrDuplicateEmail
		}

		orgID := uuid.New()
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO organizations(id, name) VALUES ($1, $2)",
			orgID, cmd.OrganizationName,
		); err != nil {
			return User{}, fmt.Errorf("insert organization: %w", err)
		}

		user, err := repository.QueryOne(ctx, tx, `
			INSERT INTO users(id, email, full_name, hashed_password, organization_id)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING `+userColumns,
			[]any{uuid.New(), cmd.Email, cmd.FullName, string(hash), orgID},
			scanUser,
		)
		if err != nil {
			return User{}, fmt.Errorf("insert user: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO entities(id, name, description, organization_id, entity_type)
			VALUES ($1, $2, $3, $4, $5)`,
			uuid.New(), defaultEntityName, defaultEntityDescription, orgID, defaultEntityType,
		); err != nil {
			return User{}, fmt.Errorf("insert default entity: %w", err)
		}

		return user, nil
	})
	if err != nil {
		return nil, dbErrors.Map(err)
	}

	r.logger.Info("user registered", "id", u.ID, "organization_id", u.OrganizationID)
	return &u, nil
}

func (r *repo) Login(ctx context.Context, email, password string) (*Token, error) {
	u, err := r.findByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.HashedPassword), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if !u.IsActive {
		return nil, ErrInactiveUser
	}

	token, err := r.cfg.Tokens.Issue(u.ID)
	if err != nil {
		return nil, err
	}

	r.logger.Info("user logged in", "id", u.ID)
	return &Token{AccessToken: token, TokenType: "bearer"}, nil
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*User, error) {
	q, args := query.NewBuilder(projection).BuildSingle("ID", id)

	u, err := repository.QueryOne(ctx, r.db, q, args, scanUser)
	if err != nil {
		return nil, dbErrors.Map(err)
	}
	return &u, nil
}

func (r *repo) Authenticate(ctx context.Context, bearer string) (*User, error) {
	u, err := r.resolve(ctx, bearer)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrUnauthenticated
		}
		return nil, err
	}
	if !u.IsActive {
		return nil, ErrInactiveUser
	}
	return u, nil
}

func (r *repo) resolve(ctx context.Context, bearer string) (*User, error) {
	id, err := r.cfg.Tokens.Verify(bearer)
	if err == nil {
		return r.Find(ctx, id)
	}
	if r.cfg.Identity == nil {
		return nil, err
	}

	email, idErr := r.cfg.Identity.VerifyEmail(ctx, bearer)
	if idErr != nil {
		return nil, err
	}
	return r.findByEmail(ctx, email)
}

func (r *repo) findByEmail(ctx context.Context, email string) (*User, error) {
	u, err := repository.QueryOne(ctx, r.db,
		"SELECT "+userColumns+" FROM users WHERE LOWER(email) = LOWER($1)",
		[]any{email},
		scanUser,
	)
	if err != nil {
		return nil, dbErrors.Map(err)
	}
	return &u, nil
}

func (c *RegisterCommand) validate() error {
	c.Email = strings.TrimSpace(c.Email)
	c.FullName = strings.TrimSpace(c.FullName)
	c.OrganizationName = strings.TrimSpace(c.OrganizationName)

	if addr, err := mail.ParseAddress(c.Email); err != nil || addr.Address != c.Email {
		return fmt.Errorf("%w: value is not a valid email address", ErrInvalidRequest)
	}
	if c.Password == "" {
		return fmt.Errorf("%w: password required", ErrInvalidRequest)
	}
	if len(c.Password) > maxPasswordBytes {
		return fmt.Errorf("%w: password must be at most %d bytes", ErrInvalidRequest, maxPasswordBytes)
	}
	if c.FullName == "" {
		return fmt.Errorf("%w: full_name required", ErrInvalidRequest)
	}
	if c.OrganizationName == "" {
		return fmt.Errorf("%w: organization_name required", ErrInvalidRequest)
	}
	return nil
}
