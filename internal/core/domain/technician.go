// Package domain contains the core domain types and validation logic.
// This is part of the Functional Core - all functions are pure with no I/O.
package domain

import (
	"errors"
	"regexp"
	"strings"
	"time"
	"unicode/utf16"

	"github.com/google/uuid"
)

// =============================================================================
// Errors
// =============================================================================

var (
	// Name validation errors
	ErrNameRequired = errors.New("name is required")
	ErrNameTooShort = errors.New("name must be at least 2 characters")
	ErrNameTooLong  = errors.New("name must be at most 100 characters")

	// Phone validation errors
	ErrPhoneRequired = errors.New("phone number is required")
	ErrPhoneLength   = errors.New("phone number must be 10 to 15 characters")
	ErrPhoneInvalid  = errors.New("phone number may only contain digits, spaces, dashes, parentheses and a leading +")

	// Technician errors
	ErrInvalidSpeciality  = errors.New("invalid speciality")
	ErrCommunityRequired  = errors.New("at least one community is required")
	ErrInvalidCommunityID = errors.New("community id must be a UUID")
)

// =============================================================================
// Speciality
// =============================================================================

// Speciality is the trade a technician offers.
type Speciality string

const (
	SpecialityPlumbing    Speciality = "PLUMBING"
	SpecialityElectrical  Speciality = "ELECTRICAL"
	SpecialityCleaning    Speciality = "CLEANING"
	SpecialityMaintenance Speciality = "MAINTENANCE"
	SpecialitySecurity    Speciality = "SECURITY"
	SpecialityGardening   Speciality = "GARDENING"
	SpecialityPainting    Speciality = "PAINTING"
	SpecialityCarpentry   Speciality = "CARPENTRY"
	SpecialityGeneral     Speciality = "GENERAL"
)

// Specialities returns every speciality in display order.
func Specialities() []Speciality {
	return []Speciality{
		SpecialityPlumbing,
		SpecialityElectrical,
		SpecialityCleaning,
		SpecialityMaintenance,
		SpecialitySecurity,
		SpecialityGardening,
		SpecialityPainting,
		SpecialityCarpentry,
		SpecialityGeneral,
	}
}

// IsValid checks if the speciality is one of the known values. Matching is
// case sensitive.
func (s Speciality) IsValid() bool {
	for _, known := range Specialities() {
		if s == known {
			return true
		}
	}
	return false
}

// =============================================================================
// Technician
// =============================================================================

// Technician is a service worker attached to one or more PG communities.
type Technician struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	PhoneNumber  string     `json:"phoneNumber"`
	Speciality   Speciality `json:"speciality"`
	IsAvailable  bool       `json:"isAvailable"`
	CommunityIDs []string   `json:"pgCommunityIds"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// NewTechnician creates an available technician assigned to the given
// communities. The name is trimmed and duplicate community IDs are dropped.
func NewTechnician(name, phoneNumber string, speciality Speciality, communityIDs []string) (*Technician, error) {
	name = strings.TrimSpace(name)
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	if err := ValidatePhoneNumber(phoneNumber); err != nil {
		return nil, err
	}
	if !speciality.IsValid() {
		return nil, ErrInvalidSpeciality
	}
	ids, err := normalizeCommunityIDs(communityIDs)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	return &Technician{
		ID:           uuid.New().String(),
		Name:         name,
		PhoneNumber:  phoneNumber,
		Speciality:   speciality,
		IsAvailable:  true,
		CommunityIDs: ids,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// AssignCommunities adds the given communities to the technician. IDs the
// technician already has are ignored.
func (t *Technician) AssignCommunities(communityIDs []string) error {
	ids, err := normalizeCommunityIDs(communityIDs)
	if err != nil {
		return err
	}
	seen := make(map[string]bool, len(t.CommunityIDs))
	for _, id := range t.CommunityIDs {
		seen[id] = true
	}
	for _, id := range ids {
		if !seen[id] {
			t.CommunityIDs = append(t.CommunityIDs, id)
			seen[id] = true
		}
	}
	t.UpdatedAt = time.Now()
	return nil
}

// SetAvailability flips whether the technician accepts new work.
func (t *Technician) SetAvailability(available bool) {
	t.IsAvailable = available
	t.UpdatedAt = time.Now()
}

// TechnicianPatch names the technician fields to change. Nil fields are left
// untouched.
type TechnicianPatch struct {
	Name        *string     `json:"name,omitempty"`
	PhoneNumber *string     `json:"phoneNumber,omitempty"`
	Speciality  *Speciality `json:"speciality,omitempty"`
	IsAvailable *bool       `json:"isAvailable,omitempty"`
}

// IsEmpty reports whether the patch changes nothing.
func (p TechnicianPatch) IsEmpty() bool {
	return p.Name == nil && p.PhoneNumber == nil && p.Speciality == nil && p.IsAvailable == nil
}

// Apply returns a copy of t with the patch merged in.
func (p TechnicianPatch) Apply(t Technician) (Technician, error) {
	if p.Name != nil {
		name := strings.TrimSpace(*p.Name)
		if err := ValidateName(name); err != nil {
			return t, err
		}
		t.Name = name
	}
	if p.PhoneNumber != nil {
		if err := ValidatePhoneNumber(*p.PhoneNumber); err != nil {
			return t, err
		}
		t.PhoneNumber = *p.PhoneNumber
	}
	if p.Speciality != nil {
		if !p.Speciality.IsValid() {
			return t, ErrInvalidSpeciality
		}
		t.Speciality = *p.Speciality
	}
	if p.IsAvailable != nil {
		t.IsAvailable = *p.IsAvailable
	}
	t.CommunityIDs = append([]string(nil), t.CommunityIDs...)
	if !p.IsEmpty() {
		t.UpdatedAt = time.Now()
	}
	return t, nil
}

// =============================================================================
// Field Validation
// =============================================================================

var phonePattern = regexp.MustCompile(`^\+?[\d\s\-()]+$`)

// TextLength counts s in UTF-16 code units, the unit clients measure
// string length in. Characters outside the Basic Multilingual Plane count
// as two.
func TextLength(s string) int {
	n := 0
	for _, r := range s {
		if utf16.RuneLen(r) == 2 {
			n += 2
		} else {
			n++
		}
	}
	return n
}

// ValidateName validates a display name of 2 to 100 characters.
func ValidateName(name string) error {
	n := TextLength(name)
	switch {
	case n == 0:
		return ErrNameRequired
	case n < 2:
		return ErrNameTooShort
	case n > 100:
		return ErrNameTooLong
	}
	return nil
}

// ValidatePhoneNumber validates a 10 to 15 character phone number.
func ValidatePhoneNumber(phone string) error {
	if phone == "" {
		return ErrPhoneRequired
	}
	if n := TextLength(phone); n < 10 || n > 15 {
		return ErrPhoneLength
	}
	if !phonePattern.MatchString(phone) {
		return ErrPhoneInvalid
	}
	return nil
}

func normalizeCommunityIDs(ids []string) ([]string, error) {
	if len(ids) == 0 {
		return nil, ErrCommunityRequired
	}
	out := make([]string, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if _, err := uuid.Parse(id); err != nil || len(id) != 36 {
			return nil, ErrInvalidCommunityID
		}
		if !seen[id] {
			out = append(out, id)
			seen[id] = true
		}
	}
	return out, nil
}
