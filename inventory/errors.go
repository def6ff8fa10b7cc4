/*
errors.go - Centralized error types for the inventory engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  Callers branch on sentinels with errors.Is and inspect structured
  errors with errors.As.

ERROR CATEGORIES:
  1. Not-found errors - Missing assets or users
  2. Validation errors - Per-row quantity/date rule violations
  3. Shortfall errors - Timeline dates where quantity would go negative
  4. Store errors - Persistence failures, surfaced untouched

PROPAGATION POLICY:
  Row validation failures are collected, never raised eagerly; the
  validator inspects every row so the caller can report everything in
  one round trip. Store failures abort the pass and propagate.

SEE ALSO:
  - validator.go: Produces RowErrors
  - timeline.go: Produces ShortfallErrors
*/
package inventory

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrAssetNotFound is returned when a referenced asset does not exist.
	ErrAssetNotFound = errors.New("asset not found")

	// ErrAssetTypeNotFound is returned when a referenced asset type does not exist.
	ErrAssetTypeNotFound = errors.New("asset type not found")

	// ErrUserNotFound is returned when a referenced user does not exist.
	ErrUserNotFound = errors.New("user not found")

	// ErrValidationFailed is the umbrella for row-level rule violations.
	ErrValidationFailed = errors.New("requisition validation failed")

	// ErrInsufficientInventory is returned when the commitment timeline would
	// drive an asset's available quantity negative.
	ErrInsufficientInventory = errors.New("insufficient inventory")

	// ErrPermissionDenied is returned when the acting user lacks the role an
	// operation requires.
	ErrPermissionDenied = errors.New("permission denied")
)

// =============================================================================
// ROW ERRORS - Per-row validation failures, itemized
// =============================================================================

type RowErrorKind string

const (
	KindAssetNotFound        RowErrorKind = "asset_not_found"
	KindNonPositiveQuantity  RowErrorKind = "non_positive_quantity"
	KindInsufficientQuantity RowErrorKind = "insufficient_quantity"
	KindStartAfterEnd        RowErrorKind = "start_after_end"
	KindStartTooOld          RowErrorKind = "start_too_old"
	KindStartTooFarInFuture  RowErrorKind = "start_too_far_in_future"
)

// RowError describes one rule violation on one requisition row. Label is the
// asset name when the asset was fetched, otherwise the raw asset id.
type RowError struct {
	Kind    RowErrorKind
	AssetID AssetID
	Label   string
	Message string
}

func (e *RowError) Error() string {
	return fmt.Sprintf("%s: %s", e.Label, e.Message)
}

func (e *RowError) Unwrap() error {
	if e.Kind == KindAssetNotFound {
		return ErrAssetNotFound
	}
	return ErrValidationFailed
}

// =============================================================================
// SHORTFALL ERRORS - Timeline dates where quantity goes negative
// =============================================================================

// ShortfallError pinpoints a date on which committing the proposed batch would
// leave the asset with a negative available quantity.
type ShortfallError struct {
	AssetID   AssetID
	Date      DateStamp
	Committed Quantity // quantity starting on this date
	Projected Quantity // available quantity after applying this date's deltas
}

func (e *ShortfallError) Error() string {
	return fmt.Sprintf("asset %s: %s units committed on %s would leave available quantity at %s",
		e.AssetID, e.Committed, e.Date, e.Projected)
}

func (e *ShortfallError) Unwrap() error { return ErrInsufficientInventory }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrAssetNotFound) ||
		errors.Is(err, ErrAssetTypeNotFound) ||
		errors.Is(err, ErrUserNotFound)
}

// IsClientError returns true if the error is due to invalid input rather than
// a store failure.
func IsClientError(err error) bool {
	return errors.Is(err, ErrValidationFailed) ||
		errors.Is(err, ErrInsufficientInventory) ||
		IsNotFound(err)
}
