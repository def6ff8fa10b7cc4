/*
ledger.go - Inventory ledger over commitment records

PURPOSE:
  Read-side view of an asset's outstanding commitments. The ledger answers
  "what is available at date D" by replaying the open commitment windows
  on top of the stored quantity, using the same timeline walk the
  totality check uses. Nothing here writes.

SEE ALSO:
  - timeline.go: The walk itself
  - store.go: CommitmentStore interface
*/
package inventory

import "context"

// =============================================================================
// INVENTORY LEDGER
// =============================================================================

type Ledger struct {
	Commitments CommitmentStore
}

func NewLedger(commitments CommitmentStore) *Ledger {
	return &Ledger{Commitments: commitments}
}

// OpenCommitments returns the asset's not-yet-returned commitments as of now.
func (l *Ledger) OpenCommitments(ctx context.Context, assetID AssetID, asOf DateStamp) ([]CommitmentRecord, error) {
	return l.Commitments.OpenCommitments(ctx, assetID, asOf)
}

// QuantityAt projects the asset's available quantity at a future date by
// replaying open commitment windows from now through "at". For at == now this
// is the stored quantity plus anything released today.
func (l *Ledger) QuantityAt(ctx context.Context, asset *Asset, at, now DateStamp) (Quantity, error) {
	records, err := l.Commitments.OpenCommitments(ctx, asset.ID, now)
	if err != nil {
		return Quantity{}, err
	}

	timeline := NewTimeline()
	for _, rec := range records {
		timeline.AddWindow(rec.StartDate, rec.EndDate, rec.Quantity)
	}

	quantity := asset.Quantity
	for _, u := range timeline.Units() {
		if u.Date.Before(now) || u.Date.After(at) {
			continue
		}
		quantity = quantity.Add(u.Released).Sub(u.Committed)
	}
	return quantity, nil
}
