package store

import (
	"context"
	"time"

	"github.com/artpar/pgstay/internal/core/domain"
)

// =============================================================================
// Store Interface
// =============================================================================

// Store defines the persistence interface for pgstay entities.
type Store interface {
	// User operations
	CreateUser(ctx context.Context, user *domain.User) error
	GetUser(ctx context.Context, id string) (*domain.User, error)
	GetUserByPhone(ctx context.Context, phoneNumber string) (*domain.User, error)

	// Community operations
	CreateCommunity(ctx context.Context, community *domain.Community) error
	GetCommunity(ctx context.Context, id string) (*domain.Community, error)
	UpdateCommunity(ctx context.Context, community *domain.Community) error
	ListCommunities(ctx context.Context, opts ListOptions) ([]domain.Community, error)

	// Technician operations
	CreateTechnician(ctx context.Context, technician *domain.Technician) error
	GetTechnician(ctx context.Context, id string) (*domain.Technician, error)
	UpdateTechnician(ctx context.Context, technician *domain.Technician) error
	SetTechnicianAvailability(ctx context.Context, technician *domain.Technician) error
	AssignTechnician(ctx context.Context, id string, communityIDs []string) error
	ListTechniciansByCommunity(ctx context.Context, communityID string, opts ListOptions) ([]domain.Technician, error)
	ListAvailableTechnicians(ctx context.Context, communityID string, filter AvailabilityFilter) ([]domain.Technician, error)

	// Revoked session tokens
	RevokeToken(ctx context.Context, tokenID string, expiresAt time.Time) error
	IsTokenRevoked(ctx context.Context, tokenID string) (bool, error)
	PurgeExpiredTokens(ctx context.Context, now time.Time) (int64, error)

	// Transaction support
	WithTx(ctx context.Context, fn func(Store) error) error

	// Lifecycle
	Ping(ctx context.Context) error
	Close() error
}

// =============================================================================
// Options
// =============================================================================

// MaxListLimit is the largest page a listing returns.
const MaxListLimit = 1000

// ListOptions defines pagination and filtering options.
type ListOptions struct {
	Limit  int
	Offset int
}

// DefaultListOptions returns default list options.
func DefaultListOptions() ListOptions {
	return ListOptions{
		Limit:  100,
		Offset: 0,
	}
}

// Normalize ensures list options have valid values.
func (o ListOptions) Normalize() ListOptions {
	if o.Limit <= 0 {
		o.Limit = 100
	}
	if o.Limit > MaxListLimit {
		o.Limit = MaxListLimit
	}
	if o.Offset < 0 {
		o.Offset = 0
	}
	return o
}

// AvailabilityFilter narrows the available-technician listing.
type AvailabilityFilter struct {
	// Speciality, when set, keeps only technicians of that trade.
	Speciality *domain.Speciality
	ListOptions
}
