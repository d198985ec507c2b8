package services

import "PosTerminal/app/models"

// Permission names an operation a role may perform
type Permission string

const (
	PermViewTerminal   Permission = "terminal.view"
	PermCheckout       Permission = "terminal.checkout"
	PermManageCatalog  Permission = "catalog.manage"
	PermManageStaff    Permission = "staff.manage"
	PermViewKitchen    Permission = "kitchen.view"
	PermAdvanceKitchen Permission = "kitchen.advance"
	PermEditProfile    Permission = "profile.edit"
)

// PermissionSet is the set of operations granted to a session
type PermissionSet map[Permission]bool

// Can reports whether p is granted
func (ps PermissionSet) Can(p Permission) bool {
	return ps[p]
}

// List returns the granted permissions in a stable order
func (ps PermissionSet) List() []Permission {
	out := []Permission{}
	for _, p := range allPermissions {
		if ps[p] {
			out = append(out, p)
		}
	}
	return out
}

var allPermissions = []Permission{
	PermViewTerminal,
	PermCheckout,
	PermManageCatalog,
	PermManageStaff,
	PermViewKitchen,
	PermAdvanceKitchen,
	PermEditProfile,
}

var rolePermissions = map[models.UserRole][]Permission{
	models.RoleAdmin:   allPermissions,
	models.RoleCashier: {PermViewTerminal, PermCheckout, PermViewKitchen, PermEditProfile},
	models.RoleKitchen: {PermViewKitchen, PermAdvanceKitchen, PermEditProfile},
	models.RoleServer:  {PermViewTerminal, PermViewKitchen, PermEditProfile},
}

// PermissionsFor returns the operations role may perform. Unknown roles get nothing.
func PermissionsFor(role models.UserRole) PermissionSet {
	set := PermissionSet{}
	for _, p := range rolePermissions[role] {
		set[p] = true
	}
	return set
}
