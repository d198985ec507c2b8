package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"PosTerminal/app/models"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 6

// Claims are carried by session tokens
type Claims struct {
	UserID string          `json:"uid"`
	Role   models.UserRole `json:"role"`
	jwt.RegisteredClaims
}

// Session is the result of a successful login
type Session struct {
	User        models.User   `json:"user"`
	Token       string        `json:"token"`
	ExpiresAt   time.Time     `json:"expiresAt"`
	Permissions PermissionSet `json:"-"`
}

// Can reports whether the session may perform p
func (s *Session) Can(p Permission) bool {
	return s != nil && s.Permissions.Can(p)
}

// AuthService handles login, registration and profile changes
type AuthService struct {
	*BaseService
	store  UserStore
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewAuthService creates a new auth service signing tokens with secret
func NewAuthService(store UserStore, base *BaseService, secret string, ttl time.Duration) *AuthService {
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &AuthService{
		BaseService: base,
		store:       store,
		secret:      []byte(secret),
		ttl:         ttl,
		now:         time.Now,
	}
}

// Login authenticates by username or e-mail
func (s *AuthService) Login(ctx context.Context, identifier, password string) (*Session, error) {
	user, err := s.store.GetUserByLogin(ctx, identifier)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			s.logWarning("Login failed", fmt.Sprintf("unknown login %q", identifier))
			return nil, models.ErrInvalidCredentials
		}
		return nil, s.fetchFailure("users", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		s.logWarning("Login failed", fmt.Sprintf("wrong password for %s", user.Username))
		return nil, models.ErrInvalidCredentials
	}
	if !user.IsActive() {
		return nil, models.ErrAccountInactive
	}

	s.logInfo("User logged in", user.Username)
	return s.newSession(user.Sanitized())
}

// Register creates a cashier account and logs it in
func (s *AuthService) Register(ctx context.Context, name, email, password string) (*Session, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, models.NewValidationError("name", "name is required")
	}
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if len(password) < minPasswordLength {
		return nil, models.NewValidationError("password", fmt.Sprintf("password must have at least %d characters", minPasswordLength))
	}

	user, err := s.store.CreateUser(ctx, &models.User{
		Name:  name,
		Email: email,
		Role:  models.RoleCashier,
	}, password)
	if err != nil {
		if errors.Is(err, models.ErrDuplicateEmail) {
			return nil, models.NewValidationError("email", models.ErrDuplicateEmail.Error())
		}
		return nil, s.persistFailure("register", err)
	}

	s.logInfo("User registered", user.Username)
	return s.newSession(*user)
}

// UpdateProfile changes the caller's own name and e-mail
func (s *AuthService) UpdateProfile(ctx context.Context, userID, name, email string) (*models.User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, models.NewValidationError("name", "name is required")
	}
	if err := validateEmail(email); err != nil {
		return nil, err
	}

	user, err := s.store.UpdateUser(ctx, userID, models.UserPatch{Name: &name, Email: &email})
	if err != nil {
		if errors.Is(err, models.ErrDuplicateEmail) {
			return nil, models.NewValidationError("email", models.ErrDuplicateEmail.Error())
		}
		return nil, s.persistFailure("update profile", err)
	}
	s.notify(models.ToastSuccess, "Profile updated")
	return user, nil
}

// ChangePassword replaces the password after checking the current one
func (s *AuthService) ChangePassword(ctx context.Context, userID, current, next string) error {
	if len(next) < minPasswordLength {
		return models.NewValidationError("newPassword", fmt.Sprintf("password must have at least %d characters", minPasswordLength))
	}
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return s.persistFailure("change password", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(current)) != nil {
		return models.NewValidationError("currentPassword", "current password is incorrect")
	}
	if err := s.store.SetPassword(ctx, userID, next); err != nil {
		return s.persistFailure("change password", err)
	}
	s.notify(models.ToastSuccess, "Password changed")
	return nil
}

// ParseToken verifies a session token and returns its claims
func (s *AuthService) ParseToken(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("invalid token: %w", err)
	}
	return claims, nil
}

func (s *AuthService) newSession(user models.User) (*Session, error) {
	now := s.now()
	expires := now.Add(s.ttl)
	claims := &Claims{
		UserID: user.ID,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.Username,
			ExpiresAt: jwt.NewNumericDate(expires),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}
	return &Session{
		User:        user,
		Token:       token,
		ExpiresAt:   expires,
		Permissions: PermissionsFor(user.Role),
	}, nil
}

func validateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return models.NewValidationError("email", "email is required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return models.NewValidationError("email", "email is invalid")
	}
	return nil
}
