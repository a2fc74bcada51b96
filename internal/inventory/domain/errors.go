package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors reported by the ledger and its stores.
var (
	ErrNotFound          = errors.New("inventory: not found")
	ErrInsufficientStock = errors.New("inventory: insufficient stock")
	ErrInvalidQuantity   = errors.New("inventory: invalid quantity")
	ErrInvalidType       = errors.New("inventory: invalid transaction type")
	ErrInvalidThreshold  = errors.New("inventory: invalid threshold")
	ErrInvalidInput      = errors.New("inventory: invalid input")
	ErrDuplicateRequest  = errors.New("inventory: duplicate request")

	// Store errors
	ErrPersistenceConflict = errors.New("inventory: concurrent write detected")
	ErrPersistenceFailure  = errors.New("inventory: store unavailable")
)

// InsufficientStockError carries the quantities of a rejected check-out.
type InsufficientStockError struct {
	Available int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("inventory: insufficient stock: available %d, requested %d", e.Available, e.Requested)
}

// Is matches ErrInsufficientStock.
func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}

// ValidationError represents a validation failure on a single field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("inventory: validation failed for %s: %s", e.Field, e.Message)
}

// Is matches ErrInvalidInput.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

type persistenceError struct {
	op  string
	err error
}

func (e *persistenceError) Error() string {
	return fmt.Sprintf("inventory: %s: %v", e.op, e.err)
}

func (e *persistenceError) Unwrap() []error {
	return []error{ErrPersistenceFailure, e.err}
}

// PersistenceFailure wraps a driver error raised by op.
// A nil err yields nil.
func PersistenceFailure(op string, err error) error {
	if err == nil {
		return nil
	}
	return &persistenceError{op: op, err: err}
}

// IsNotFound returns true if the error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsConflict returns true if the operation lost a race and can be resubmitted.
func IsConflict(err error) bool {
	return errors.Is(err, ErrPersistenceConflict) || errors.Is(err, ErrDuplicateRequest)
}

// IsValidation returns true if the caller supplied bad input.
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrInvalidQuantity) ||
		errors.Is(err, ErrInvalidType) ||
		errors.Is(err, ErrInvalidThreshold)
}
