package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UserRole represents the job role of a staff account
type UserRole string

const (
	RoleAdmin   UserRole = "ADMIN"
	RoleCashier UserRole = "CASHIER"
	RoleKitchen UserRole = "KITCHEN"
	RoleServer  UserRole = "SERVER"
)

// Valid reports whether r is one of the known roles
func (r UserRole) Valid() bool {
	switch r {
	case RoleAdmin, RoleCashier, RoleKitchen, RoleServer:
		return true
	}
	return false
}

// UserStatus is either active or inactive; inactive accounts cannot log in
type UserStatus string

const (
	UserActive   UserStatus = "active"
	UserInactive UserStatus = "inactive"
)

// User represents a staff account of the system
type User struct {
	ID           string     `gorm:"primaryKey;size:36" json:"id"`
	Username     string     `gorm:"uniqueIndex;not null" json:"username"`
	Name         string     `gorm:"not null" json:"name"`
	Email        string     `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string     `json:"-"`
	Role         UserRole   `gorm:"not null" json:"role"`
	Avatar       string     `json:"avatar,omitempty"`
	Status       UserStatus `gorm:"default:active" json:"status"`
	JoinedDate   string     `json:"joinedDate,omitempty"` // YYYY-MM-DD
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// BeforeCreate assigns an id and normalises the e-mail address
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	u.Email = NormalizeEmail(u.Email)
	return nil
}

// Sanitized returns a copy of the user without credential material
func (u User) Sanitized() User {
	u.PasswordHash = ""
	return u
}

// IsActive reports whether the account may log in
func (u User) IsActive() bool {
	return u.Status != UserInactive
}

// UserPatch carries a partial user update; nil fields are left untouched
type UserPatch struct {
	Name     *string     `json:"name,omitempty"`
	Email    *string     `json:"email,omitempty"`
	Role     *UserRole   `json:"role,omitempty"`
	Status   *UserStatus `json:"status,omitempty"`
	Avatar   *string     `json:"avatar,omitempty"`
	Password *string     `json:"password,omitempty"`
}

// NormalizeEmail lower-cases and trims an e-mail address for comparisons
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// UsernameFromEmail derives the login name from the local part of an e-mail
func UsernameFromEmail(email string) string {
	email = NormalizeEmail(email)
	if i := strings.Index(email, "@"); i > 0 {
		return email[:i]
	}
	return email
}
