// Package store provides persistence for pgstay entities.
package store

import (
	"errors"
	"fmt"
)

// =============================================================================
// Lookup and Constraint Errors
// =============================================================================

var (
	// ErrNotFound means no user, community or technician has the requested
	// ID, or no user has the requested phone number.
	ErrNotFound = errors.New("entity not found")

	// ErrDuplicateID means a row with the generated UUID already exists.
	ErrDuplicateID = errors.New("entity with this ID already exists")

	// ErrDuplicatePhone means another user, or another technician, already
	// registered the phone number. Users and technicians are checked
	// separately.
	ErrDuplicatePhone = errors.New("phone number already registered")

	// ErrForeignKey means a technician was assigned to a PG community that
	// does not exist, or a community names an unknown owner.
	ErrForeignKey = errors.New("foreign key constraint violated")
)

// =============================================================================
// Infrastructure Errors
// =============================================================================

var (
	// ErrConnectionFailed means the SQLite database could not be opened or pinged.
	ErrConnectionFailed = errors.New("database connection failed")

	// ErrMigrationFailed means the embedded schema migrations did not apply.
	ErrMigrationFailed = errors.New("database migration failed")

	// ErrTxFailed means a transaction could not begin, commit or roll back.
	ErrTxFailed = errors.New("transaction failed")
)

// StoreError records which store operation failed and on which row.
// errors.Is sees through it to one of the sentinels above.
//
//	err := s.GetTechnician(ctx, id)
//	// GetTechnician technician 6f1c...: technician not found
//	errors.Is(err, ErrNotFound) // true
type StoreError struct {
	Op      string // Store method, e.g. "AssignTechnician"
	Entity  string // "user", "community", "technician" or "token"
	ID      string // Row ID or phone number, when one applies
	Message string
	Err     error
}

func (e *StoreError) Error() string {
	switch {
	case e.ID != "":
		return fmt.Sprintf("%s %s %s: %s", e.Op, e.Entity, e.ID, e.Message)
	case e.Entity != "":
		return fmt.Sprintf("%s %s: %s", e.Op, e.Entity, e.Message)
	default:
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// NewStoreError creates a StoreError wrapping err.
func NewStoreError(op, entity, id, message string, err error) *StoreError {
	return &StoreError{Op: op, Entity: entity, ID: id, Message: message, Err: err}
}
