/*
errors.go - Centralized error types for the overtime engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  Domain packages wrap these errors with additional context.

ERROR CATEGORIES:
  1. NotFound        - referenced employee (or record) does not exist
  2. DataUnavailable - reference data (holidays for a year) is missing
  3. InvalidRange    - inverted or otherwise unusable date range
  4. Validation      - malformed correction/absence/time entry input
  5. Consistency     - cached monthly balance disagrees with live calculation

PROPAGATION:
  NotFound, InvalidRange and Validation go straight back to the caller.
  DataUnavailable and Consistency fail closed: no partial or guessed balance
  is ever returned alongside them.

USAGE:
  if errors.Is(err, generic.ErrDataUnavailable) {
      var due *generic.DataUnavailableError
      errors.As(err, &due) // due.Year is the missing holiday year
  }
*/
package generic

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrNotFound is returned when a referenced employee or record doesn't exist.
	ErrNotFound = errors.New("not found")

	// ErrDataUnavailable is returned when required reference data is missing.
	// Missing holidays are never treated as "no holidays".
	ErrDataUnavailable = errors.New("data unavailable")

	// ErrInvalidRange is returned when a date range is inverted or unusable.
	ErrInvalidRange = errors.New("invalid range")

	// ErrValidation is returned for malformed input.
	ErrValidation = errors.New("validation failed")

	// ErrConsistency is returned when the materialized balance diverges from
	// the live calculation. This is a programming error, not a user error.
	ErrConsistency = errors.New("materialized balance diverges from live calculation")

	// ErrDuplicateIdempotencyKey is returned when a transaction with the same
	// idempotency key already exists. This is expected behavior for retries.
	ErrDuplicateIdempotencyKey = errors.New("duplicate idempotency key")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// NotFoundError names the missing entity.
type NotFoundError struct {
	Kind string // "employee", "absence", ...
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// DataUnavailableError reports a holiday year that was never loaded.
type DataUnavailableError struct {
	Year int
}

func (e *DataUnavailableError) Error() string {
	return fmt.Sprintf("holidays for %d are not loaded", e.Year)
}

func (e *DataUnavailableError) Unwrap() error { return ErrDataUnavailable }

// InvalidRangeError describes an unusable date range.
type InvalidRangeError struct {
	Start  Date
	End    Date
	Reason string
}

func (e *InvalidRangeError) Error() string {
	return fmt.Sprintf("invalid range [%s, %s]: %s", e.Start, e.End, e.Reason)
}

func (e *InvalidRangeError) Unwrap() error { return ErrInvalidRange }

// ValidationError names the offending field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// ConsistencyError carries both sides of a cache divergence.
type ConsistencyError struct {
	EmployeeID string
	Month      MonthKey
	Cached     decimal.Decimal
	Live       decimal.Decimal
}

func (e *ConsistencyError) Error() string {
	return fmt.Sprintf("monthly balance %s/%s: cached overtime %s, live overtime %s",
		e.EmployeeID, e.Month, e.Cached.String(), e.Live.String())
}

func (e *ConsistencyError) Unwrap() error { return ErrConsistency }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidRange) ||
		errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrDuplicateIdempotencyKey)
}

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
