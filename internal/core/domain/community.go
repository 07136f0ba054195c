package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrAddressLength = errors.New("address must be 5 to 255 characters")
	ErrCityLength    = errors.New("city must be 2 to 100 characters")
	ErrOwnerRequired = errors.New("community owner is required")
)

// Community is a PG (paying guest) property managed by an owner.
type Community struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Address   string    `json:"address"`
	City      string    `json:"city"`
	OwnerID   string    `json:"ownerId"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewCommunity creates a community owned by ownerID. Text fields are trimmed.
func NewCommunity(name, address, city, ownerID string) (*Community, error) {
	c := Community{
		Name:    strings.TrimSpace(name),
		Address: strings.TrimSpace(address),
		City:    strings.TrimSpace(city),
		OwnerID: ownerID,
	}
	if err := validateCommunity(c); err != nil {
		return nil, err
	}
	now := time.Now()
	c.ID = uuid.New().String()
	c.CreatedAt = now
	c.UpdatedAt = now
	return &c, nil
}

// CommunityPatch names the community fields to change.
type CommunityPatch struct {
	Name    *string `json:"name,omitempty"`
	Address *string `json:"address,omitempty"`
	City    *string `json:"city,omitempty"`
}

// Apply returns a copy of c with the patch merged in.
func (p CommunityPatch) Apply(c Community) (Community, error) {
	updated := c
	if p.Name != nil {
		updated.Name = strings.TrimSpace(*p.Name)
	}
	if p.Address != nil {
		updated.Address = strings.TrimSpace(*p.Address)
	}
	if p.City != nil {
		updated.City = strings.TrimSpace(*p.City)
	}
	if err := validateCommunity(updated); err != nil {
		return c, err
	}
	if p.Name != nil || p.Address != nil || p.City != nil {
		updated.UpdatedAt = time.Now()
	}
	return updated, nil
}

func validateCommunity(c Community) error {
	if err := ValidateName(c.Name); err != nil {
		return err
	}
	if n := TextLength(c.Address); n < 5 || n > 255 {
		return ErrAddressLength
	}
	if n := TextLength(c.City); n < 2 || n > 100 {
		return ErrCityLength
	}
	if c.OwnerID == "" {
		return ErrOwnerRequired
	}
	return nil
}
