package auth

import "github.com/artpar/pgstay/internal/core/domain"

// =============================================================================
// Technician Authorization
// =============================================================================

// CanManageTechnicians checks if the user can create, edit and assign
// technicians.
func CanManageTechnicians(ctx Context) bool {
	return ctx.Authenticated && ctx.Role.CanManageTechnicians()
}

// CanViewTechnicians checks if the user can list and read technicians.
// Any signed-in user can.
func CanViewTechnicians(ctx Context) bool {
	return ctx.Authenticated
}

// =============================================================================
// Community Authorization
// =============================================================================

// CanCreateCommunity checks if the user can register a PG community.
func CanCreateCommunity(ctx Context) bool {
	return ctx.Authenticated && ctx.Role.CanManageTechnicians()
}

// CanModifyCommunity checks if the user can edit a community.
// Only its owner or an admin can.
func CanModifyCommunity(ctx Context, community domain.Community) bool {
	if HasRole(ctx, domain.RoleAdmin) {
		return true
	}
	return ctx.Authenticated && ctx.UserID == community.OwnerID
}

// HasRole checks if the user holds any of the given roles.
func HasRole(ctx Context, roles ...domain.Role) bool {
	if !ctx.Authenticated {
		return false
	}
	for _, r := range roles {
		if ctx.Role == r {
			return true
		}
	}
	return false
}
