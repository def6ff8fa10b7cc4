/*
validator.go - Row-level requisition validation

PURPOSE:
  Validates a batch of proposed requisitions row by row and classifies the
  whole batch: either every row passes and the batch becomes a set of
  Grants ready for execution, or the batch is rejected with itemized
  errors. There are no partial commits.

PER-ROW CHECKS, IN ORDER:
  1. Existence - the referenced asset must exist. A row that fails here is
     excluded from the remaining checks (they need the fetched asset).
  2. Quantity  - 0 < requested <= asset's available quantity.
  3. Dates     - start <= end, and start within the rolling approval
     window of [now - 30 days, now + 30 days].

  Quantity and date checks both run for rows that pass existence; both
  error sets can fire for the same row.

KNOWN ROW-LEVEL GAP:
  Duplicate asset ids across rows are validated independently against the
  STORED quantity; two overlapping rows can both pass here even when their
  sum exceeds availability. RequisitionService closes that gap by running
  the timeline totality check on every path, not just bulk upload.

DETERMINISM:
  The pass is a pure computation over store reads and the explicit "now"
  parameter. Calling it twice against unchanged state yields identical
  results.

SEE ALSO:
  - timeline.go: The batch-holistic check layered on top
  - service.go: Orchestrates validate, totality check, assign
*/
package inventory

import (
	"context"
	"fmt"
)

// =============================================================================
// VALIDATION OUTCOME - Tagged result, one shape for every call site
// =============================================================================

// ValidationOutcome is the result of a batch validation pass. Exactly one of
// the two variants is populated: Grants when Accepted, the three error lists
// otherwise.
type ValidationOutcome struct {
	Accepted bool

	// Accepted variant
	Grants []Grant

	// Rejected variant, itemized so callers can report everything at once
	NotFound       []RowError
	QuantityErrors []RowError
	DateErrors     []RowError
}

// Messages flattens the rejected variant into printable strings.
func (o ValidationOutcome) Messages() []string {
	var msgs []string
	for _, lists := range [][]RowError{o.NotFound, o.QuantityErrors, o.DateErrors} {
		for i := range lists {
			msgs = append(msgs, lists[i].Error())
		}
	}
	return msgs
}

// =============================================================================
// REQUISITION VALIDATOR
// =============================================================================

type RequisitionValidator struct {
	Assets AssetStore
}

func NewRequisitionValidator(assets AssetStore) *RequisitionValidator {
	return &RequisitionValidator{Assets: assets}
}

// ValidateRequisitions checks every row and returns the batch outcome.
// A store read failure aborts the pass; rule violations never do.
func (v *RequisitionValidator) ValidateRequisitions(
	ctx context.Context,
	now DateStamp,
	requests []RequisitionRequest,
) (ValidationOutcome, error) {
	var outcome ValidationOutcome

	for _, req := range requests {
		asset, err := v.Assets.GetAsset(ctx, req.AssetID)
		if err != nil {
			if IsNotFound(err) {
				outcome.NotFound = append(outcome.NotFound, RowError{
					Kind:    KindAssetNotFound,
					AssetID: req.AssetID,
					Label:   string(req.AssetID),
					Message: "asset with the provided id not found",
				})
				continue
			}
			return ValidationOutcome{}, fmt.Errorf("fetching asset %s: %w", req.AssetID, err)
		}

		rowOK := true
		if rowErr := checkQuantity(asset, req.Quantity); rowErr != nil {
			outcome.QuantityErrors = append(outcome.QuantityErrors, *rowErr)
			rowOK = false
		}
		for _, rowErr := range checkDates(asset, req, now) {
			outcome.DateErrors = append(outcome.DateErrors, rowErr)
			rowOK = false
		}

		if rowOK {
			start, end := req.Window(now)
			outcome.Grants = append(outcome.Grants, Grant{
				Asset:     asset,
				Quantity:  req.Quantity,
				StartDate: start,
				EndDate:   end,
			})
		}
	}

	outcome.Accepted = len(outcome.NotFound) == 0 &&
		len(outcome.QuantityErrors) == 0 &&
		len(outcome.DateErrors) == 0
	if !outcome.Accepted {
		outcome.Grants = nil
	}
	return outcome, nil
}

// checkQuantity enforces 0 < requested <= available against the stored quantity.
func checkQuantity(asset *Asset, requested Quantity) *RowError {
	if !requested.IsPositive() {
		return &RowError{
			Kind:    KindNonPositiveQuantity,
			AssetID: asset.ID,
			Label:   asset.Name,
			Message: fmt.Sprintf("requisition quantity must be greater than zero, got %s", requested),
		}
	}
	if requested.GreaterThan(asset.Quantity) {
		return &RowError{
			Kind:    KindInsufficientQuantity,
			AssetID: asset.ID,
			Label:   asset.Name,
			Message: fmt.Sprintf("requisition quantity %s exceeds available quantity %s", requested, asset.Quantity),
		}
	}
	return nil
}

// checkDates enforces start <= end plus the rolling approval window on the
// start date. Defaults are applied first, so a row with no dates at all
// always passes (start = now, end = sentinel).
func checkDates(asset *Asset, req RequisitionRequest, now DateStamp) []RowError {
	start, end := req.Window(now)

	var errs []RowError
	if start.After(end) {
		errs = append(errs, RowError{
			Kind:    KindStartAfterEnd,
			AssetID: asset.ID,
			Label:   asset.Name,
			Message: fmt.Sprintf("start date %s is after end date %s", start, end),
		})
	}

	windowOpen := now.AddDays(-ApprovalWindowDays)
	windowClose := now.AddDays(ApprovalWindowDays)
	switch {
	case start.Before(windowOpen):
		errs = append(errs, RowError{
			Kind:    KindStartTooOld,
			AssetID: asset.ID,
			Label:   asset.Name,
			Message: fmt.Sprintf("start date %s is more than %d days in the past", start, ApprovalWindowDays),
		})
	case start.After(windowClose):
		errs = append(errs, RowError{
			Kind:    KindStartTooFarInFuture,
			AssetID: asset.ID,
			Label:   asset.Name,
			Message: fmt.Sprintf("start date %s is more than %d days in the future", start, ApprovalWindowDays),
		})
	}
	return errs
}
