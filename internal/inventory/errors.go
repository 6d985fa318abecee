package inventory

import (
	"errors"
	"fmt"

	"github.com/diewo77/stock-manager/validation"
)

// Sentinel errors. Every typed error below unwraps to one of them so callers
// can branch with errors.Is.
var (
	ErrValidation        = errors.New("validation failed")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrNotFound          = errors.New("not found")
	ErrPersistence       = errors.New("persistence failure")
	ErrConflict          = errors.New("concurrent modification")
)

// ValidationError reports missing or malformed input. Nothing was mutated.
type ValidationError struct {
	Violations validation.Violations
}

func (e *ValidationError) Error() string {
	return "validation failed: " + e.Violations.String()
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// Invalid builds a ValidationError from collected violations, or returns nil
// when there are none.
func Invalid(v validation.Violations) error {
	if v.Empty() {
		return nil
	}
	return &ValidationError{Violations: v}
}

// InsufficientStockError names a product whose net decrement exceeds its stock.
type InsufficientStockError struct {
	ProductID uint
	Product   string
	Available int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %q (product %d): requested %d, available %d",
		e.Product, e.ProductID, e.Requested, e.Available)
}

func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }

// NotFoundError reports a referenced entity that no longer exists.
type NotFoundError struct {
	Entity string
	ID     uint
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Entity, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// PersistenceError wraps a storage failure. The failed operation made no
// visible change.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() []error { return []error{ErrPersistence, e.Err} }

// Persistence wraps err as a PersistenceError unless it already carries a
// domain meaning (validation, stock, not found, conflict).
func Persistence(op string, err error) error {
	if err == nil {
		return nil
	}
	for _, known := range []error{ErrValidation, ErrInsufficientStock, ErrNotFound, ErrConflict, ErrPersistence} {
		if errors.Is(err, known) {
			return err
		}
	}
	return &PersistenceError{Op: op, Err: err}
}
