package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidRole          = errors.New("invalid role")
	ErrRoleNotRegistrable   = errors.New("role cannot be chosen at registration")
	ErrPasswordHashRequired = errors.New("password hash is required")
	ErrPasswordTooLong      = errors.New("password must be at most 72 bytes")
)

// MaxPasswordBytes is the longest password bcrypt accepts.
const MaxPasswordBytes = 72

// =============================================================================
// Role
// =============================================================================

// Role is what a user may do in the system.
type Role string

const (
	RoleOwner      Role = "OWNER"
	RoleResident   Role = "RESIDENT"
	RoleTechnician Role = "TECHNICIAN"
	RoleAdmin      Role = "ADMIN"
)

// IsValid checks if the role is known.
func (r Role) IsValid() bool {
	switch r {
	case RoleOwner, RoleResident, RoleTechnician, RoleAdmin:
		return true
	default:
		return false
	}
}

// IsRegistrable reports whether a user may pick this role when signing up.
// Admins are provisioned out of band.
func (r Role) IsRegistrable() bool {
	return r == RoleOwner || r == RoleResident || r == RoleTechnician
}

// CanManageTechnicians reports whether the role may create, assign and edit
// technicians and communities.
func (r Role) CanManageTechnicians() bool {
	return r == RoleOwner || r == RoleAdmin
}

// =============================================================================
// User
// =============================================================================

// User is an account that can sign in.
type User struct {
	ID           string    `json:"id" yaml:"id"`
	Name         string    `json:"name" yaml:"name"`
	PhoneNumber  string    `json:"phoneNumber" yaml:"phoneNumber"`
	Role         Role      `json:"role" yaml:"role"`
	PasswordHash string    `json:"-" yaml:"-"`
	CreatedAt    time.Time `json:"createdAt" yaml:"createdAt"`
}

// ValidatePassword checks that a password can be hashed. The limit is in
// bytes, so a password of 72 multi-byte characters is too long.
func ValidatePassword(password string) error {
	if len(password) > MaxPasswordBytes {
		return ErrPasswordTooLong
	}
	return nil
}

// NewUser creates a user from already validated registration data.
func NewUser(name, phoneNumber string, role Role, passwordHash string) (*User, error) {
	name = strings.TrimSpace(name)
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	if err := ValidatePhoneNumber(phoneNumber); err != nil {
		return nil, err
	}
	if !role.IsValid() {
		return nil, ErrInvalidRole
	}
	if !role.IsRegistrable() {
		return nil, ErrRoleNotRegistrable
	}
	if passwordHash == "" {
		return nil, ErrPasswordHashRequired
	}
	return &User{
		ID:           uuid.New().String(),
		Name:         name,
		PhoneNumber:  phoneNumber,
		Role:         role,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now(),
	}, nil
}

// =============================================================================
// Session
// =============================================================================

// Session is the client-side record of a signed-in user.
type Session struct {
	Token     string    `json:"token" yaml:"token"`
	User      User      `json:"user" yaml:"user"`
	ExpiresAt time.Time `json:"expiresAt" yaml:"expiresAt"`
}

// Expired reports whether the session token has expired at now.
func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// SessionPatch names the session fields to change.
type SessionPatch struct {
	Token     *string
	User      *User
	ExpiresAt *time.Time
}

// MergeSession returns s with every non-nil field of p applied.
func MergeSession(s Session, p SessionPatch) Session {
	if p.Token != nil {
		s.Token = *p.Token
	}
	if p.User != nil {
		s.User = *p.User
	}
	if p.ExpiresAt != nil {
		s.ExpiresAt = *p.ExpiresAt
	}
	return s
}
