package services

import (
	"testing"

	"PosTerminal/app/models"
)

func TestPermissionsFor(t *testing.T) {
	tests := []struct {
		role    models.UserRole
		allowed []Permission
		denied  []Permission
	}{
		{models.RoleAdmin, allPermissions, nil},
		{models.RoleCashier, []Permission{PermViewTerminal, PermCheckout}, []Permission{PermManageCatalog, PermManageStaff, PermAdvanceKitchen}},
		{models.RoleKitchen, []Permission{PermViewKitchen, PermAdvanceKitchen}, []Permission{PermViewTerminal, PermCheckout, PermManageStaff}},
		{models.RoleServer, []Permission{PermViewTerminal, PermViewKitchen}, []Permission{PermCheckout, PermAdvanceKitchen}},
		{"GUEST", nil, allPermissions},
	}
	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			set := PermissionsFor(tt.role)
			for _, p := range tt.allowed {
				if !set.Can(p) {
					t.Errorf("%s should be allowed %s", tt.role, p)
				}
			}
			for _, p := range tt.denied {
				if set.Can(p) {
					t.Errorf("%s should not be allowed %s", tt.role, p)
				}
			}
		})
	}
}

func TestPermissionSetListIsStable(t *testing.T) {
	list := PermissionsFor(models.RoleKitchen).List()
	want := []Permission{PermViewKitchen, PermAdvanceKitchen, PermEditProfile}
	if len(list) != len(want) {
		t.Fatalf("list = %v, want %v", list, want)
	}
	for i := range want {
		if list[i] != want[i] {
			t.Fatalf("list = %v, want %v", list, want)
		}
	}
}
