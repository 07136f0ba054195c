package domain

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUser(t *testing.T) {
	u, err := NewUser("Asha", "9876543210", RoleOwner, "hash")
	require.NoError(t, err)
	assert.NotEmpty(t, u.ID)
	assert.Equal(t, RoleOwner, u.Role)
	assert.NotZero(t, u.CreatedAt)
}

func TestNewUser_RoleRules(t *testing.T) {
	_, err := NewUser("Asha", "9876543210", RoleAdmin, "hash")
	assert.ErrorIs(t, err, ErrRoleNotRegistrable)

	_, err = NewUser("Asha", "9876543210", "GUEST", "hash")
	assert.ErrorIs(t, err, ErrInvalidRole)

	_, err = NewUser("Asha", "9876543210", RoleResident, "")
	assert.ErrorIs(t, err, ErrPasswordHashRequired)
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  error
	}{
		{"short", "correct horse", nil},
		{"72 ascii bytes", strings.Repeat("a", 72), nil},
		{"73 ascii bytes", strings.Repeat("a", 73), ErrPasswordTooLong},
		{"36 two-byte runes", strings.Repeat("é", 36), nil},
		{"40 two-byte runes", strings.Repeat("é", 40), ErrPasswordTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePassword(tt.password)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestRole_CanManageTechnicians(t *testing.T) {
	tests := []struct {
		role Role
		want bool
	}{
		{RoleOwner, true},
		{RoleAdmin, true},
		{RoleResident, false},
		{RoleTechnician, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.role.CanManageTechnicians())
		})
	}
}

func TestMergeSession(t *testing.T) {
	expires := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	s := Session{
		Token:     "t1",
		User:      User{ID: "u1", Name: "Asha", Role: RoleOwner},
		ExpiresAt: expires,
	}

	renamed := User{ID: "u1", Name: "Asha R", Role: RoleOwner}
	got := MergeSession(s, SessionPatch{User: &renamed})

	assert.Equal(t, "t1", got.Token)
	assert.Equal(t, "Asha R", got.User.Name)
	assert.Equal(t, expires, got.ExpiresAt)
	assert.Equal(t, "Asha", s.User.Name)
}

func TestSession_Expired(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	assert.False(t, Session{}.Expired(now))
	assert.False(t, Session{ExpiresAt: now.Add(time.Minute)}.Expired(now))
	assert.True(t, Session{ExpiresAt: now}.Expired(now))
}
