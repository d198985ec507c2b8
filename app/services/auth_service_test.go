package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"PosTerminal/app/models"
)

func newAuthFixture(t *testing.T) (*AuthService, *fakeStore) {
	t.Helper()
	store := newFakeStore()
	ctx := context.Background()
	if _, err := store.CreateUser(ctx, &models.User{Username: "admin", Name: "Admin User", Email: "admin@pos.com", Role: models.RoleAdmin}, "admin123"); err != nil {
		t.Fatal(err)
	}
	if _, err := store.CreateUser(ctx, &models.User{Username: "kitchen", Name: "Gordon Ramsay", Email: "kitchen@pos.com", Role: models.RoleKitchen, Status: models.UserInactive}, "kitchen123"); err != nil {
		t.Fatal(err)
	}
	return NewAuthService(store, NewBaseService(nil, nil), "test-secret", time.Hour), store
}

func TestLoginByUsernameOrEmail(t *testing.T) {
	auth, _ := newAuthFixture(t)

	for _, login := range []string{"admin", "  ADMIN ", "Admin@Pos.com"} {
		session, err := auth.Login(context.Background(), login, "admin123")
		if err != nil {
			t.Fatalf("Login(%q): %v", login, err)
		}
		if session.User.PasswordHash != "" {
			t.Fatal("session user leaked the password hash")
		}
		if !session.Can(PermManageStaff) {
			t.Fatal("admin session should manage staff")
		}

		claims, err := auth.ParseToken(session.Token)
		if err != nil {
			t.Fatalf("ParseToken: %v", err)
		}
		if claims.UserID != session.User.ID || claims.Role != models.RoleAdmin {
			t.Fatalf("claims = %+v", claims)
		}
	}
}

func TestLoginFailures(t *testing.T) {
	auth, _ := newAuthFixture(t)
	ctx := context.Background()

	if _, err := auth.Login(ctx, "admin", "wrong"); !errors.Is(err, models.ErrInvalidCredentials) {
		t.Errorf("wrong password err = %v", err)
	}
	if _, err := auth.Login(ctx, "ghost", "admin123"); !errors.Is(err, models.ErrInvalidCredentials) {
		t.Errorf("unknown user err = %v", err)
	}
	if _, err := auth.Login(ctx, "kitchen", "kitchen123"); !errors.Is(err, models.ErrAccountInactive) {
		t.Errorf("inactive user err = %v", err)
	}
}

func TestRegisterCreatesCashier(t *testing.T) {
	auth, _ := newAuthFixture(t)

	session, err := auth.Register(context.Background(), "Lan Anh", "lan.anh@cafe.vn", "secret1")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if session.User.Role != models.RoleCashier || session.User.Username != "lan.anh" {
		t.Fatalf("registered user = %+v", session.User)
	}
	if session.Can(PermManageCatalog) {
		t.Fatal("cashier must not manage the catalog")
	}
}

func TestRegisterValidation(t *testing.T) {
	auth, _ := newAuthFixture(t)
	ctx := context.Background()

	tests := []struct {
		name, email, password, field string
	}{
		{"", "a@b.vn", "secret1", "name"},
		{"A", "not-an-email", "secret1", "email"},
		{"A", "a@b.vn", "123", "password"},
		{"A", "ADMIN@pos.com", "secret1", "email"},
	}
	for _, tt := range tests {
		_, err := auth.Register(ctx, tt.name, tt.email, tt.password)
		var v *models.ValidationError
		if !errors.As(err, &v) || v.Field != tt.field {
			t.Errorf("Register(%q, %q) err = %v, want validation on %s", tt.name, tt.email, err, tt.field)
		}
	}
}

func TestChangePassword(t *testing.T) {
	auth, store := newAuthFixture(t)
	ctx := context.Background()
	admin, _ := store.GetUserByLogin(ctx, "admin")

	if err := auth.ChangePassword(ctx, admin.ID, "nope", "newpass1"); !models.IsValidation(err) {
		t.Fatalf("err = %v, want validation error for wrong current password", err)
	}
	if err := auth.ChangePassword(ctx, admin.ID, "admin123", "newpass1"); err != nil {
		t.Fatalf("ChangePassword: %v", err)
	}
	if _, err := auth.Login(ctx, "admin", "newpass1"); err != nil {
		t.Fatalf("login with new password: %v", err)
	}
}

func TestUpdateProfileDuplicateEmail(t *testing.T) {
	auth, store := newAuthFixture(t)
	ctx := context.Background()
	admin, _ := store.GetUserByLogin(ctx, "admin")

	_, err := auth.UpdateProfile(ctx, admin.ID, "Admin", "kitchen@pos.com")
	var v *models.ValidationError
	if !errors.As(err, &v) || v.Field != "email" {
		t.Fatalf("err = %v, want email validation error", err)
	}

	updated, err := auth.UpdateProfile(ctx, admin.ID, "Quản lý", "boss@pos.com")
	if err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}
	if updated.Name != "Quản lý" || updated.Email != "boss@pos.com" {
		t.Fatalf("updated = %+v", updated)
	}
}

func TestParseTokenRejectsExpiredAndForeign(t *testing.T) {
	auth, _ := newAuthFixture(t)
	session, err := auth.Login(context.Background(), "admin", "admin123")
	if err != nil {
		t.Fatal(err)
	}

	other := NewAuthService(newFakeStore(), NewBaseService(nil, nil), "other-secret", time.Hour)
	if _, err := other.ParseToken(session.Token); err == nil {
		t.Fatal("token signed with another secret must be rejected")
	}

	auth.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	if _, err := auth.ParseToken(session.Token); err == nil {
		t.Fatal("expired token must be rejected")
	}
}
