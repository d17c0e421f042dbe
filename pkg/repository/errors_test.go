package repository_test

import (
	"database/sql"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/JaimeStill/rhythmrisk/pkg/repository"
)

var (
	errNotFound  = errors.New("not found")
	errDuplicate = errors.New("duplicate")
	errReference = errors.New("reference")
)

func TestErrorsMap(t *testing.T) {
	full := repository.Errors{NotFound: errNotFound, Duplicate: errDuplicate, Reference: errReference}
	other := errors.New("some other error")
	check := &pgconn.PgError{Code: "23514"}

	tests := []struct {
		name   string
		errors repository.Errors
		in     error
		want   error
	}{
		{"nil", full, nil, nil},
		{"no rows", full, sql.ErrNoRows, errNotFound},
		{"unique violation", full, &pgconn.PgError{Code: "23505"}, errDuplicate},
		{"foreign key violation", full, &pgconn.PgError{Code: "23503"}, errReference},
		{"other pg error", full, check, check},
		{"passthrough", full, other, other},
		{"unmapped duplicate", repository.Errors{NotFound: errNotFound}, sql.ErrNoRows, errNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.errors.Map(tt.in); got != tt.want {
				t.Errorf("Map(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestErrorsMapUnsetLeavesError(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23505"}
	got := repository.Errors{NotFound: errNotFound}.Map(pgErr)
	if got != pgErr {
		t.Errorf("Map() = %v, want passthrough", got)
	}
}
