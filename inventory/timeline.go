/*
timeline.go - Commitment timeline and the totality check

PURPOSE:
  Answers the one question row-level validation cannot: if every proposed
  requisition for an asset is committed on top of everything already
  outstanding, does available quantity stay non-negative on every future
  date?

HOW IT WORKS:
  1. Fold every proposed row and every open commitment into per-date
     buckets: quantity starting (committed) and quantity ending (released)
     on that date.
  2. Sort the distinct dates ascending.
  3. Walk dates >= today from the asset's current stored quantity:
     quantity += released - committed.
  4. Record a shortfall for every date the running quantity is negative.
     The walk never short-circuits so the caller gets all violation dates.

WHY PER-DATE BUCKETS:
  Requisitions overlap arbitrarily. Two rows of 5 units over the same
  window against a stock of 9 each pass row-level checks, but the merged
  timeline shows -1 on the first shared day. Only the folded view catches
  intra-batch and batch-vs-existing interference.

SEE ALSO:
  - validator.go: Row-level checks that run before this
  - ledger.go: Uses the same walk to project quantity at a date
*/
package inventory

import "sort"

// =============================================================================
// TIMELINE - Date-ordered quantity deltas, rebuilt fresh per validation call
// =============================================================================

// TimelineUnit aggregates the quantity committed and released on one date.
type TimelineUnit struct {
	Date      DateStamp
	Committed Quantity // reservations starting this date
	Released  Quantity // reservations ending this date
}

// Timeline is a derived structure with no lifecycle of its own: built, walked,
// discarded.
type Timeline struct {
	units map[string]*TimelineUnit
}

func NewTimeline() *Timeline {
	return &Timeline{units: make(map[string]*TimelineUnit)}
}

// AddWindow folds one reservation window into the timeline buckets.
func (t *Timeline) AddWindow(start, end DateStamp, qty Quantity) {
	t.bucket(start).Committed = t.bucket(start).Committed.Add(qty)
	t.bucket(end).Released = t.bucket(end).Released.Add(qty)
}

func (t *Timeline) bucket(d DateStamp) *TimelineUnit {
	u, ok := t.units[d.key()]
	if !ok {
		u = &TimelineUnit{Date: d}
		t.units[d.key()] = u
	}
	return u
}

// Units returns the timeline in ascending date order.
func (t *Timeline) Units() []TimelineUnit {
	out := make([]TimelineUnit, 0, len(t.units))
	for _, u := range t.units {
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

// Walk simulates the timeline forward from the given starting quantity,
// skipping dates before "from", and returns every date on which the running
// quantity goes negative. assetID only labels the resulting errors.
func (t *Timeline) Walk(assetID AssetID, initial Quantity, from DateStamp) []ShortfallError {
	var shortfalls []ShortfallError
	quantity := initial

	for _, u := range t.Units() {
		if u.Date.Before(from) {
			continue
		}
		quantity = quantity.Add(u.Released).Sub(u.Committed)
		if quantity.IsNegative() {
			shortfalls = append(shortfalls, ShortfallError{
				AssetID:   assetID,
				Date:      u.Date,
				Committed: u.Committed,
				Projected: quantity,
			})
		}
	}
	return shortfalls
}

// =============================================================================
// TOTALITY CHECK - One asset, proposed rows plus existing open commitments
// =============================================================================

// RunTotalityCheck merges the proposed requisitions for a single asset with
// its existing open commitments and verifies the merged timeline never drives
// available quantity negative. It returns every violation, not just the first.
//
// current must be the asset's stored quantity and now the caller's clock;
// every proposed requisition must reference assetID.
func RunTotalityCheck(
	assetID AssetID,
	current Quantity,
	now DateStamp,
	proposed []RequisitionRequest,
	existing []CommitmentRecord,
) (bool, []ShortfallError) {
	timeline := NewTimeline()

	for _, req := range proposed {
		start, end := req.Window(now)
		timeline.AddWindow(start, end, req.Quantity)
	}
	for _, rec := range existing {
		timeline.AddWindow(rec.StartDate, rec.EndDate, rec.Quantity)
	}

	shortfalls := timeline.Walk(assetID, current, now)
	return len(shortfalls) == 0, shortfalls
}
