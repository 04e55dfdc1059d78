package domain

import "strings"

const (
	RoleAdmin    = "Admin"
	RoleLandlord = "Landlord"
	RoleTenant   = "Tenant"
)

const (
	PermissionRolesWrite  = "roles:write"
	PermissionActorsWrite = "actors:write"
)

// Role is a named permission set. Roles are created out of band and must
// exist before an account can be activated with them.
type Role struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Permissions []string `json:"permissions"`
}

// HasPermission reports whether the role grants the named permission.
func (r *Role) HasPermission(name string) bool {
	if r == nil {
		return false
	}
	for _, p := range r.Permissions {
		if p == name {
			return true
		}
	}
	return false
}

// CanonicalRoleName maps "landlord", "LANDLORD" etc. to the stored role name.
// Unknown names are returned trimmed but otherwise untouched.
func CanonicalRoleName(name string) string {
	name = strings.TrimSpace(name)
	for _, known := range []string{RoleAdmin, RoleLandlord, RoleTenant} {
		if strings.EqualFold(name, known) {
			return known
		}
	}
	return name
}

// DefaultRoles is the role set seeded by `rentald seed-roles`.
func DefaultRoles() []Role {
	return []Role{
		{Name: RoleAdmin, Permissions: []string{PermissionRolesWrite, PermissionActorsWrite}},
		{Name: RoleLandlord, Permissions: []string{"properties:write", "units:write", "leases:write", "invoices:write", "tickets:read"}},
		{Name: RoleTenant, Permissions: []string{"leases:read", "invoices:read", "tickets:write"}},
	}
}
