package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"PosTerminal/app/models"
)

func newStaffFixture(t *testing.T) (*StaffService, *fakeStore, *ToastService) {
	t.Helper()
	store := newFakeStore()
	ctx := context.Background()
	store.CreateUser(ctx, &models.User{Username: "admin", Name: "Admin User", Email: "admin@pos.com", Role: models.RoleAdmin}, "admin123")
	store.CreateUser(ctx, &models.User{Username: "cashier", Name: "Nguyễn Thu Ngân", Email: "cashier@pos.com", Role: models.RoleCashier}, "cashier123")

	toasts := NewToastService(time.Minute)
	t.Cleanup(toasts.Close)
	svc := NewStaffService(store, NewBaseService(nil, toasts))
	if _, err := svc.ListStaff(ctx); err != nil {
		t.Fatalf("ListStaff: %v", err)
	}
	return svc, store, toasts
}

func TestCreateStaffDefaultsAndDuplicates(t *testing.T) {
	svc, store, _ := newStaffFixture(t)
	ctx := context.Background()

	created, err := svc.CreateStaff(ctx, StaffInput{Name: "Phục vụ", Email: "server@pos.com", Role: models.RoleServer})
	if err != nil {
		t.Fatalf("CreateStaff: %v", err)
	}
	if created.Username != "server" || created.Status != models.UserActive {
		t.Fatalf("created = %+v", created)
	}
	stored, _ := store.GetUser(ctx, created.ID)
	if stored.PasswordHash == "" {
		t.Fatal("default password was not set")
	}
	if len(svc.Staff()) != 3 {
		t.Fatalf("local staff = %d, want 3", len(svc.Staff()))
	}

	_, err = svc.CreateStaff(ctx, StaffInput{Name: "Copy", Email: "CASHIER@pos.com", Role: models.RoleCashier})
	var v *models.ValidationError
	if !errors.As(err, &v) || v.Field != "email" {
		t.Fatalf("err = %v, want inline email error", err)
	}

	if _, err := svc.CreateStaff(ctx, StaffInput{Name: "X", Email: "x@pos.com", Role: "CHEF"}); !models.IsValidation(err) {
		t.Fatalf("err = %v, want role validation error", err)
	}
}

func TestSearchStaff(t *testing.T) {
	svc, _, _ := newStaffFixture(t)

	if got := svc.SearchStaff("thu ngân", ""); len(got) != 1 || got[0].Username != "cashier" {
		t.Fatalf("search by name = %+v", got)
	}
	if got := svc.SearchStaff("", models.RoleAdmin); len(got) != 1 || got[0].Username != "admin" {
		t.Fatalf("filter by role = %+v", got)
	}
	if got := svc.SearchStaff("pos.com", models.RoleKitchen); len(got) != 0 {
		t.Fatalf("expected no kitchen staff, got %+v", got)
	}
}

func TestSetStatusRollsBackOnFailure(t *testing.T) {
	svc, store, toasts := newStaffFixture(t)
	ctx := context.Background()
	cashier := svc.SearchStaff("cashier", "")[0]

	store.failUpdateUser = errors.New("offline")
	err := svc.SetStatus(ctx, cashier.ID, models.UserInactive)
	var persistErr *models.PersistenceError
	if !errors.As(err, &persistErr) {
		t.Fatalf("err = %v, want PersistenceError", err)
	}
	if got := svc.SearchStaff("cashier", "")[0].Status; got != models.UserActive {
		t.Fatalf("status after rollback = %q, want active", got)
	}
	if lastToast(t, toasts).Kind != models.ToastDanger {
		t.Fatal("expected a danger toast")
	}

	store.failUpdateUser = nil
	if err := svc.SetStatus(ctx, cashier.ID, models.UserInactive); err != nil {
		t.Fatalf("SetStatus: %v", err)
	}
	if got := svc.SearchStaff("cashier", "")[0].Status; got != models.UserInactive {
		t.Fatalf("status = %q, want inactive", got)
	}
}

func TestUpdateStaff(t *testing.T) {
	svc, _, _ := newStaffFixture(t)
	ctx := context.Background()
	cashier := svc.SearchStaff("cashier", "")[0]

	role := models.RoleServer
	updated, err := svc.UpdateStaff(ctx, cashier.ID, models.UserPatch{Role: &role})
	if err != nil {
		t.Fatalf("UpdateStaff: %v", err)
	}
	if updated.Role != models.RoleServer {
		t.Fatalf("role = %q", updated.Role)
	}
	if got := svc.SearchStaff("", models.RoleServer); len(got) != 1 {
		t.Fatalf("local list not updated: %+v", svc.Staff())
	}

	if _, err := svc.UpdateStaff(ctx, "missing", models.UserPatch{Role: &role}); !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}
