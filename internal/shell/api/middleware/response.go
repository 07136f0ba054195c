// Package middleware provides HTTP middleware for the pgstay API.
package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/artpar/pgstay/internal/core/validation"
)

// =============================================================================
// Envelope Responses
// =============================================================================

// ErrorResponse is the envelope written when a request is refused.
type ErrorResponse struct {
	Success bool                    `json:"success"`
	Message string                  `json:"message"`
	Errors  []validation.FieldError `json:"errors,omitempty"`
}

// Messages shared with the API handlers.
const (
	MessageValidationFailed = "Validation failed"
	MessageInternalError    = "Internal server error"
	MessageUnauthorized     = "Authentication required"
	MessageForbidden        = "Insufficient permissions"
	MessageInvalidToken     = "Invalid or expired token"
	MessageTokenRevoked     = "Token has been revoked"
)

// WriteError writes a failed envelope with the given status.
func WriteError(w http.ResponseWriter, status int, message string, errs ...validation.FieldError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{
		Success: false,
		Message: message,
		Errors:  errs,
	})
}
