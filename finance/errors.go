/*
Package finance provides the shared error taxonomy for the relocation engine.

PURPOSE:
  All error types in one place for consistency and discoverability.
  Domain packages (tax, expense, forecast) return these errors so callers
  can branch on category with errors.Is/errors.As regardless of which
  component failed.

ERROR CATEGORIES:
  1. InvalidInput      - Bad caller input: negative income, unknown filing
                         status or state/city code, horizon out of range.
  2. InsufficientData  - A series too short to build features or fit a model.
                         Callers degrade gracefully (skip a sparse city).
  3. NotFound          - A referenced city or table is absent from the store.

  Undefined metrics (zero-baseline percent deltas, zero-variance r-squared)
  are NOT errors: they are explicit sentinel values on result types, because
  the rest of the result is still meaningful.

USAGE:
  if errors.Is(err, finance.ErrInsufficientData) {
      // skip forecasting for this city
  }

  var inv *finance.InvalidInputError
  if errors.As(err, &inv) {
      log.Printf("bad input on %s: %s", inv.Field, inv.Reason)
  }

SEE ALSO:
  - tax/calculator.go: Returns InvalidInput errors
  - forecast/forecaster.go: Returns InsufficientData errors
  - api/handlers.go: Maps categories to HTTP status codes
*/
package finance

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidInput is returned when caller input fails validation.
	// Never silently clamped; surfaced immediately.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInsufficientData is returned when a historical series is too short
	// for feature building or model fitting. A distinct result state, not a
	// crash: callers are expected to branch on it.
	ErrInsufficientData = errors.New("insufficient data")

	// ErrNotFound is returned when a referenced city, state, or table does
	// not exist in the reference data.
	ErrNotFound = errors.New("not found")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// InvalidInputError identifies which input failed and why.
type InvalidInputError struct {
	Field  string
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid input: %s: %s", e.Field, e.Reason)
}

func (e *InvalidInputError) Unwrap() error { return ErrInvalidInput }

// InsufficientDataError reports how much data was present versus required.
type InsufficientDataError struct {
	Have int
	Need int
	Unit string // "points" or "rows"
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient data: have %d %s, need %d", e.Have, e.Unit, e.Need)
}

func (e *InsufficientDataError) Unwrap() error { return ErrInsufficientData }

// NotFoundError identifies the missing reference.
type NotFoundError struct {
	Kind string // "city", "state", "category"
	Key  string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.Key)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsInsufficientData returns true for the sparse-series result state.
func IsInsufficientData(err error) bool {
	return errors.Is(err, ErrInsufficientData)
}

// IsNotFound returns true if the error indicates a missing reference.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
