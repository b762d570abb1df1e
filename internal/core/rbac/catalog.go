// Package rbac holds the in-memory permission catalog: role name → permission
// set, built from the roles collection. Reads go through an atomic snapshot
// pointer so an admin reload swaps the whole map at once and requests never
// observe a partially updated catalog.
package rbac

import (
	"context"
	"sync/atomic"

	"github.com/veriphone/verify-api/internal/core/domain"
	"github.com/veriphone/verify-api/internal/core/ports"
)

type snapshot map[string]map[string]struct{}

// Catalog resolves role names to permission sets. Zero value denies
// everything until Load or Replace installs a snapshot.
type Catalog struct {
	current atomic.Pointer[snapshot]
}

// New returns an empty catalog. Every lookup fails closed until Load runs.
func New() *Catalog {
	c := &Catalog{}
	empty := make(snapshot)
	c.current.Store(&empty)
	return c
}

// Load builds a fresh snapshot from the role repository and installs it
// atomically. Safe to call concurrently with lookups.
func (c *Catalog) Load(ctx context.Context, repo ports.RoleRepository) error {
	roles, err := repo.FindAll(ctx)
	if err != nil {
		return err
	}
	c.Replace(roles)
	return nil
}

// Replace swaps in a snapshot built from the given roles.
func (c *Catalog) Replace(roles []domain.Role) {
	next := make(snapshot, len(roles))
	for _, r := range roles {
		set := make(map[string]struct{}, len(r.Permissions))
		for _, p := range r.Permissions {
			set[p] = struct{}{}
		}
		next[r.Name] = set
	}
	c.current.Store(&next)
}

// HasPermission reports whether the role's permission set contains the
// permission. Unknown roles have no permissions.
func (c *Catalog) HasPermission(role, permission string) bool {
	set, ok := (*c.current.Load())[role]
	if !ok {
		return false
	}
	_, ok = set[permission]
	return ok
}

// Permissions returns the role's permission strings, nil for unknown roles.
func (c *Catalog) Permissions(role string) []string {
	set, ok := (*c.current.Load())[role]
	if !ok {
		return nil
	}
	out := make([]string, 0, len(set))
	for p := range set {
		out = append(out, p)
	}
	return out
}
