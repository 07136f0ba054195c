package api

import "github.com/artpar/pgstay/internal/core/domain"

// =============================================================================
// Request Types
// =============================================================================

// RegisterRequest is the request body for creating an account.
type RegisterRequest struct {
	Name        string      `json:"name"`
	PhoneNumber string      `json:"phoneNumber"`
	Password    string      `json:"password"`
	Role        domain.Role `json:"role"`
}

// LoginRequest is the request body for signing in.
type LoginRequest struct {
	PhoneNumber string `json:"phoneNumber"`
	Password    string `json:"password"`
}

// CreateCommunityRequest is the request body for registering a PG community.
type CreateCommunityRequest struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	City    string `json:"city"`
}

// CreateTechnicianRequest is the request body for creating a technician.
type CreateTechnicianRequest struct {
	Name         string            `json:"name"`
	PhoneNumber  string            `json:"phoneNumber"`
	Speciality   domain.Speciality `json:"speciality"`
	CommunityIDs []string          `json:"pgCommunityIds"`
}

// AssignTechnicianRequest is the request body for assigning communities.
type AssignTechnicianRequest struct {
	CommunityIDs []string `json:"pgCommunityIds"`
}

// AvailabilityRequest is the request body for toggling availability.
type AvailabilityRequest struct {
	IsAvailable bool `json:"isAvailable"`
}

// =============================================================================
// Response Types
// =============================================================================

// Response is the success envelope every API route writes.
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// HealthResponse is the response for health check.
type HealthResponse struct {
	Status string `json:"status"`
}

// ReadyResponse is the response for readiness check.
type ReadyResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}
