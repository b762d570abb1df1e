package ports

import (
	"context"

	"github.com/veriphone/verify-api/internal/core/domain"
)

// RoleRepository defines role persistence. Roles are seeded once and
// read-mostly afterwards.
type RoleRepository interface {
	FindAll(ctx context.Context) ([]domain.Role, error)
	FindByName(ctx context.Context, name string) (*domain.Role, error)

	// Seed inserts any missing roles, keyed by name. Existing documents,
	// including admin-edited permission sets, are never modified, so a
	// restart cannot revert an administrative change.
	Seed(ctx context.Context, roles []domain.Role) error

	// UpdatePermissions replaces a role's permission set and returns the
	// updated role. domain.ErrRoleNotFound when the name is unknown.
	UpdatePermissions(ctx context.Context, name string, permissions []string) (*domain.Role, error)
}
