/*
executor.go - Applying confirmed requisitions

PURPOSE:
  Takes the Grants a successful validation pass produced and commits them:
  decrement the asset's stored quantity, hand ownership to the requesting
  user, and append one CommitmentRecord per grant.

ATOMICITY:
  The whole batch runs inside a single TxStore.WithTx scope. Grants are
  independent of each other, but partial application on failure is not an
  acceptable outcome, so any error rolls the entire batch back. The asset
  is re-read inside the transaction; the decrement never operates on a
  quantity fetched before the transaction began.

ERROR HANDLING:
  Persistence failures are not retried or swallowed here; they abort the
  transaction and propagate to the caller.

SEE ALSO:
  - validator.go: Produces the Grants
  - store.go: The WithTx contract
*/
package inventory

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// =============================================================================
// ASSIGNMENT EXECUTOR
// =============================================================================

type AssignmentExecutor struct {
	Store TxStore
}

func NewAssignmentExecutor(store TxStore) *AssignmentExecutor {
	return &AssignmentExecutor{Store: store}
}

// Assignment pairs a grant with the user receiving it. Bulk files mix users
// within one batch; the interactive path has a single user for all grants.
type Assignment struct {
	UserID UserID
	Grant  Grant
}

// Assign applies every grant to the given user, all or nothing.
func (e *AssignmentExecutor) Assign(ctx context.Context, userID UserID, now DateStamp, grants []Grant) error {
	assignments := make([]Assignment, len(grants))
	for i, g := range grants {
		assignments[i] = Assignment{UserID: userID, Grant: g}
	}
	return e.AssignBatch(ctx, now, assignments)
}

// AssignBatch applies a mixed-user batch, all or nothing. For each assignment
// the asset quantity drops by the granted amount, the user becomes the asset's
// current owner, and a commitment record is appended with the grant's window.
func (e *AssignmentExecutor) AssignBatch(ctx context.Context, now DateStamp, assignments []Assignment) error {
	if len(assignments) == 0 {
		return nil
	}

	return e.Store.WithTx(ctx, func(s Store) error {
		for _, a := range assignments {
			grant, userID := a.Grant, a.UserID
			// Re-read inside the transaction so concurrent assignments
			// against the same asset serialize on the store.
			asset, err := s.GetAsset(ctx, grant.Asset.ID)
			if err != nil {
				return fmt.Errorf("fetching asset %s: %w", grant.Asset.ID, err)
			}

			remaining := asset.Quantity.Sub(grant.Quantity)
			if remaining.IsNegative() {
				return &ShortfallError{
					AssetID:   asset.ID,
					Date:      grant.StartDate,
					Committed: grant.Quantity,
					Projected: remaining,
				}
			}

			asset.Quantity = remaining
			asset.CurrentOwner = userID
			if err := s.SaveAsset(ctx, asset); err != nil {
				return fmt.Errorf("saving asset %s: %w", asset.ID, err)
			}

			rec := CommitmentRecord{
				ID:        CommitmentID(uuid.NewString()),
				UserID:    userID,
				AssetID:   asset.ID,
				StartDate: grant.StartDate,
				EndDate:   grant.EndDate,
				Quantity:  grant.Quantity,
				CreatedAt: now.Time,
			}
			if err := s.CreateCommitment(ctx, rec); err != nil {
				return fmt.Errorf("recording commitment for asset %s: %w", asset.ID, err)
			}
		}
		return nil
	})
}
