package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"PosTerminal/app/models"
)

// DefaultStaffPassword is assigned when an account is created without one
const DefaultStaffPassword = "password123"

// StaffInput is the form data for a new staff account
type StaffInput struct {
	Name     string          `json:"name"`
	Email    string          `json:"email"`
	Role     models.UserRole `json:"role"`
	Password string          `json:"password,omitempty"`
}

// StaffService manages staff accounts
type StaffService struct {
	*BaseService
	store UserStore

	mu    sync.Mutex
	staff []models.User
}

// NewStaffService creates a new staff service
func NewStaffService(store UserStore, base *BaseService) *StaffService {
	return &StaffService{BaseService: base, store: store}
}

// ListStaff refetches all accounts
func (s *StaffService) ListStaff(ctx context.Context) ([]models.User, error) {
	users, err := s.store.GetUsers(ctx)
	if err != nil {
		return nil, s.fetchFailure("staff", err)
	}
	s.mu.Lock()
	s.staff = users
	out := append([]models.User{}, users...)
	s.mu.Unlock()
	return out, nil
}

// Staff returns the local list
func (s *StaffService) Staff() []models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.User{}, s.staff...)
}

// SearchStaff filters the local list by name, e-mail or username and optionally by role
func (s *StaffService) SearchStaff(query string, role models.UserRole) []models.User {
	query = strings.ToLower(strings.TrimSpace(query))
	out := []models.User{}
	for _, u := range s.Staff() {
		if role != "" && u.Role != role {
			continue
		}
		if query != "" &&
			!strings.Contains(strings.ToLower(u.Name), query) &&
			!strings.Contains(u.Email, query) &&
			!strings.Contains(strings.ToLower(u.Username), query) {
			continue
		}
		out = append(out, u)
	}
	return out
}

// CreateStaff adds an account
func (s *StaffService) CreateStaff(ctx context.Context, input StaffInput) (*models.User, error) {
	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		return nil, models.NewValidationError("name", "name is required")
	}
	if err := validateEmail(input.Email); err != nil {
		return nil, err
	}
	if !input.Role.Valid() {
		return nil, models.NewValidationError("role", fmt.Sprintf("unknown role %q", input.Role))
	}
	password := input.Password
	if password == "" {
		password = DefaultStaffPassword
	}

	created, err := s.store.CreateUser(ctx, &models.User{
		Name:  input.Name,
		Email: input.Email,
		Role:  input.Role,
	}, password)
	if err != nil {
		if errors.Is(err, models.ErrDuplicateEmail) {
			return nil, models.NewValidationError("email", models.ErrDuplicateEmail.Error())
		}
		return nil, s.persistFailure("create staff", err)
	}

	s.mu.Lock()
	s.staff = append(s.staff, *created)
	s.mu.Unlock()

	s.logInfo("Staff account created", created.Username)
	s.notify(models.ToastSuccess, fmt.Sprintf("Account %s created", created.Username))
	return created, nil
}

// UpdateStaff applies patch to an account
func (s *StaffService) UpdateStaff(ctx context.Context, id string, patch models.UserPatch) (*models.User, error) {
	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		return nil, models.NewValidationError("name", "name is required")
	}
	if patch.Email != nil {
		if err := validateEmail(*patch.Email); err != nil {
			return nil, err
		}
	}
	if patch.Role != nil && !patch.Role.Valid() {
		return nil, models.NewValidationError("role", fmt.Sprintf("unknown role %q", *patch.Role))
	}
	if patch.Password != nil && *patch.Password != "" && len(*patch.Password) < minPasswordLength {
		return nil, models.NewValidationError("password", fmt.Sprintf("password must have at least %d characters", minPasswordLength))
	}

	updated, err := s.store.UpdateUser(ctx, id, patch)
	if err != nil {
		if errors.Is(err, models.ErrDuplicateEmail) {
			return nil, models.NewValidationError("email", models.ErrDuplicateEmail.Error())
		}
		return nil, s.persistFailure("update staff", err)
	}

	s.replace(*updated)
	s.notify(models.ToastSuccess, "Account updated")
	return updated, nil
}

// SetStatus activates or deactivates an account. The local list changes
// before the store confirms and is restored if the store fails.
func (s *StaffService) SetStatus(ctx context.Context, id string, status models.UserStatus) error {
	if status != models.UserActive && status != models.UserInactive {
		return models.NewValidationError("status", fmt.Sprintf("unknown status %q", status))
	}

	s.mu.Lock()
	var previous *models.User
	for i := range s.staff {
		if s.staff[i].ID == id {
			prev := s.staff[i]
			previous = &prev
			s.staff[i].Status = status
			break
		}
	}
	s.mu.Unlock()

	if _, err := s.store.UpdateUser(ctx, id, models.UserPatch{Status: &status}); err != nil {
		if previous != nil {
			s.replace(*previous)
		}
		return s.persistFailure("change account status", err)
	}

	s.notify(models.ToastSuccess, "Account status updated")
	return nil
}

// replace swaps the local copy of u
func (s *StaffService) replace(u models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.staff {
		if s.staff[i].ID == u.ID {
			s.staff[i] = u
			return
		}
	}
}
