package auth

import (
	"github.com/JaimeStill/rhythmrisk/pkg/query"
	"github.com/JaimeStill/rhythmrisk/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "users", "u").
	Project("id", "ID").
	Project("email", "Email").
	Project("full_name", "FullName").
	Project("hashed_password", "HashedPassword").
	Project("organization_id", "OrganizationID").
	Project("is_active", "IsActive").
	Project("is_superuser", "IsSuperuser").
	Project("created_at", "CreatedAt").
	Project("updated_at", "UpdatedAt")

const userColumns = `id, email, full_name, hashed_password, organization_id, is_active, is_superuser, created_at, updated_at`

var dbErrors = repository.Errors{
	NotFound:  ErrUserNotFound,
	Duplicate: ErrDuplicateEmail,
}

func scanUser(s repository.Scanner) (User, error) {
	var u User
	err := s.Scan(
		&u.ID,
		&u.Email,
		&u.FullName,
		&u.HashedPassword,
		&u.OrganizationID,
		&u.IsActive,
		&u.IsSuperuser,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	return u, err
}
