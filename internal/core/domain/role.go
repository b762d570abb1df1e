package domain

import "time"

// Role names form a closed enumeration. Anything outside it resolves to zero
// permissions.
const (
	RoleAnonymous      = "ANONYMOUS"
	RoleFreeUser       = "FREE_USER"
	RoleTrialUser      = "TRIAL_USER"
	RolePaidUser       = "PAID_USER"
	RoleEnterpriseUser = "ENTERPRISE_USER"
	RoleAdmin          = "ADMIN"
	RoleSuperAdmin     = "SUPER_ADMIN"
)

// Role categories.
const (
	CategoryUser         = "USER"
	CategoryOrganization = "ORGANIZATION"
	CategorySystem       = "SYSTEM"
)

// Permission strings, namespaced as resource:scope.
const (
	PermReadPublic      = "read:public"
	PermReadOwn         = "read:own"
	PermWriteOwn        = "write:own"
	PermReadPremium     = "read:premium"
	PermWritePremium    = "write:premium"
	PermReadEnterprise  = "read:enterprise"
	PermWriteEnterprise = "write:enterprise"
	PermReadAll         = "read:all"
	PermWriteAll        = "write:all"
	PermPhoneValidate   = "phonenumber:validate"
	PermManageUsers     = "manage:users"
	PermManageRoles     = "manage:roles"
	PermManageSystem    = "manage:system"
)

// Role maps a role name to its category and permission set.
type Role struct {
	Name        string    `json:"name"`
	Category    string    `json:"category"`
	Description string    `json:"description"`
	Permissions []string  `json:"permissions"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// KnownRole reports whether name belongs to the closed role enumeration.
func KnownRole(name string) bool {
	switch name {
	case RoleAnonymous, RoleFreeUser, RoleTrialUser, RolePaidUser,
		RoleEnterpriseUser, RoleAdmin, RoleSuperAdmin:
		return true
	}
	return false
}

// DefaultRoles is the seed set upserted at startup. Permission sets may later
// be edited through the admin role endpoints; names and categories may not.
func DefaultRoles() []Role {
	return []Role{
		{
			Name:        RoleAnonymous,
			Category:    CategoryUser,
			Description: "Unauthenticated caller with public read access",
			Permissions: []string{PermReadPublic},
		},
		{
			Name:        RoleFreeUser,
			Category:    CategoryUser,
			Description: "Registered user on the free plan",
			Permissions: []string{PermReadPublic, PermReadOwn, PermWriteOwn, PermPhoneValidate},
		},
		{
			Name:        RoleTrialUser,
			Category:    CategoryUser,
			Description: "Time-bound trial of premium features",
			Permissions: []string{PermReadPublic, PermReadOwn, PermWriteOwn, PermPhoneValidate, PermReadPremium},
		},
		{
			Name:        RolePaidUser,
			Category:    CategoryUser,
			Description: "Subscribed user with higher limits",
			Permissions: []string{PermReadPublic, PermReadOwn, PermWriteOwn, PermPhoneValidate, PermReadPremium, PermWritePremium},
		},
		{
			Name:        RoleEnterpriseUser,
			Category:    CategoryUser,
			Description: "Enterprise plan with SLAs and the highest limits",
			Permissions: []string{
				PermReadPublic, PermReadOwn, PermWriteOwn, PermPhoneValidate,
				PermReadPremium, PermWritePremium, PermReadEnterprise, PermWriteEnterprise,
			},
		},
		{
			Name:        RoleAdmin,
			Category:    CategoryOrganization,
			Description: "Manages users and configuration for a tenant",
			Permissions: []string{PermReadAll, PermWriteAll, PermPhoneValidate, PermManageUsers},
		},
		{
			Name:        RoleSuperAdmin,
			Category:    CategorySystem,
			Description: "Full backend access including role management",
			Permissions: []string{
				PermReadAll, PermWriteAll, PermPhoneValidate,
				PermManageUsers, PermManageRoles, PermManageSystem,
			},
		},
	}
}
