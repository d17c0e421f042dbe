package repository

import (
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// Errors names the domain errors a package reports for common database
// failures. Nil fields leave the matching failure unmapped.
type Errors struct {
	NotFound  error
	Duplicate error
	Reference error
}

// Map translates database errors to domain errors: sql.ErrNoRows to NotFound,
// PostgreSQL unique violations (23505) to Duplicate, and foreign key violations
// (23503) to Reference. Other errors are returned unchanged.
func (m Errors) Map(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, sql.ErrNoRows) && m.NotFound != nil {
		return m.NotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == pgUniqueViolation && m.Duplicate != nil:
			return m.Duplicate
		case pgErr.Code == pgForeignKeyViolation && m.Reference != nil:
			return m.Reference
		}
	}

	return err
}
