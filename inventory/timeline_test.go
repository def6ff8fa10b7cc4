package inventory_test

import (
	"testing"
	"time"

	"github.com/warp/inventory-engine/inventory"
)

var checkDay = inventory.NewDate(2026, time.March, 10)

func openEnded(assetID string, qty int64) inventory.RequisitionRequest {
	return inventory.RequisitionRequest{
		AssetID:  inventory.AssetID(assetID),
		Quantity: inventory.NewQuantity(qty),
	}
}

// =============================================================================
// TOTALITY CHECK
// =============================================================================

func TestTotalityCheck_SingleRowExactStock(t *testing.T) {
	// GIVEN: Stock of 9
	// WHEN: One open-ended row of 9 is proposed
	// THEN: The timeline bottoms out at exactly zero and passes

	ok, shortfalls := inventory.RunTotalityCheck(
		"a1", inventory.NewQuantity(9), checkDay,
		[]inventory.RequisitionRequest{openEnded("a1", 9)},
		nil,
	)
	if !ok {
		t.Fatalf("expected pass, got %d shortfalls", len(shortfalls))
	}
}

func TestTotalityCheck_TwoRowsOversubscribe(t *testing.T) {
	// GIVEN: Stock of 9
	// WHEN: Two open-ended rows of 5 each are proposed
	// THEN: Each row passes in isolation, but the merged timeline goes to -1
	//       on the start date

	ok, shortfalls := inventory.RunTotalityCheck(
		"a1", inventory.NewQuantity(9), checkDay,
		[]inventory.RequisitionRequest{openEnded("a1", 5), openEnded("a1", 5)},
		nil,
	)
	if ok {
		t.Fatal("expected failure")
	}
	if len(shortfalls) != 1 {
		t.Fatalf("expected 1 shortfall, got %d", len(shortfalls))
	}
	sf := shortfalls[0]
	if !sf.Date.Equal(checkDay) {
		t.Errorf("expected shortfall on %s, got %s", checkDay, sf.Date)
	}
	if sf.Projected.Int() != -1 {
		t.Errorf("expected projected -1, got %s", sf.Projected)
	}
}

func TestTotalityCheck_ReleaseFreesStock(t *testing.T) {
	// GIVEN: Stock of 9 and a first window of 5 ending on day 5
	// WHEN: A second window of 5 starts the same day the first releases
	// THEN: The release covers the new commitment and the check passes

	day5 := checkDay.AddDays(5)
	proposed := []inventory.RequisitionRequest{
		{AssetID: "a1", Quantity: inventory.NewQuantity(5), StartDate: checkDay, EndDate: day5},
		{AssetID: "a1", Quantity: inventory.NewQuantity(5), StartDate: day5, EndDate: day5.AddDays(10)},
	}

	ok, shortfalls := inventory.RunTotalityCheck(
		"a1", inventory.NewQuantity(9), checkDay, proposed, nil)
	if !ok {
		t.Fatalf("expected pass, got shortfalls %v", shortfalls)
	}
}

func TestTotalityCheck_ExistingCommitmentsCount(t *testing.T) {
	// GIVEN: Stock of 4 and an existing open commitment of 3 starting tomorrow
	// WHEN: A row of 2 starting today is proposed
	// THEN: Tomorrow's projection is -1

	existing := []inventory.CommitmentRecord{{
		ID: "c1", UserID: "u1", AssetID: "a1",
		StartDate: checkDay.AddDays(1),
		EndDate:   inventory.NoEndDate(),
		Quantity:  inventory.NewQuantity(3),
	}}

	ok, shortfalls := inventory.RunTotalityCheck(
		"a1", inventory.NewQuantity(4), checkDay,
		[]inventory.RequisitionRequest{openEnded("a1", 2)},
		existing,
	)
	if ok {
		t.Fatal("expected failure")
	}
	if len(shortfalls) != 1 || !shortfalls[0].Date.Equal(checkDay.AddDays(1)) {
		t.Fatalf("expected single shortfall tomorrow, got %v", shortfalls)
	}
}

func TestTotalityCheck_ReportsEveryViolation(t *testing.T) {
	// The walk never short-circuits: every date that dips negative is
	// reported so the caller can surface them all at once.

	proposed := []inventory.RequisitionRequest{
		{AssetID: "a1", Quantity: inventory.NewQuantity(2), StartDate: checkDay, EndDate: inventory.NoEndDate()},
		{AssetID: "a1", Quantity: inventory.NewQuantity(2), StartDate: checkDay.AddDays(3), EndDate: inventory.NoEndDate()},
	}

	ok, shortfalls := inventory.RunTotalityCheck(
		"a1", inventory.NewQuantity(1), checkDay, proposed, nil)
	if ok {
		t.Fatal("expected failure")
	}
	if len(shortfalls) != 2 {
		t.Fatalf("expected 2 shortfalls, got %d", len(shortfalls))
	}
	if !shortfalls[0].Date.Equal(checkDay) || !shortfalls[1].Date.Equal(checkDay.AddDays(3)) {
		t.Errorf("unexpected shortfall dates: %v, %v", shortfalls[0].Date, shortfalls[1].Date)
	}
}

func TestTotalityCheck_PastStartsAreSkipped(t *testing.T) {
	// A commitment that started in the past is already reflected in the
	// stored quantity; only its future release shows up in the walk.

	existing := []inventory.CommitmentRecord{{
		ID: "c1", UserID: "u1", AssetID: "a1",
		StartDate: checkDay.AddDays(-10),
		EndDate:   checkDay.AddDays(10),
		Quantity:  inventory.NewQuantity(5),
	}}

	ok, shortfalls := inventory.RunTotalityCheck(
		"a1", inventory.NewQuantity(4), checkDay,
		[]inventory.RequisitionRequest{openEnded("a1", 2)},
		existing,
	)
	if !ok {
		t.Fatalf("expected pass, got shortfalls %v", shortfalls)
	}
}

// =============================================================================
// TIMELINE MECHANICS
// =============================================================================

func TestTimeline_UnitsSortedAndAggregated(t *testing.T) {
	tl := inventory.NewTimeline()
	tl.AddWindow(checkDay.AddDays(2), checkDay.AddDays(4), inventory.NewQuantity(1))
	tl.AddWindow(checkDay, checkDay.AddDays(2), inventory.NewQuantity(2))
	tl.AddWindow(checkDay, checkDay.AddDays(1), inventory.NewQuantity(3))

	units := tl.Units()
	if len(units) != 4 {
		t.Fatalf("expected 4 distinct dates, got %d", len(units))
	}
	if !units[0].Date.Equal(checkDay) || units[0].Committed.Int() != 5 {
		t.Errorf("day 0: expected committed 5, got %s on %s", units[0].Committed, units[0].Date)
	}
	// Day 2 both releases the 2-unit window and commits the 1-unit window.
	if !units[2].Date.Equal(checkDay.AddDays(2)) ||
		units[2].Released.Int() != 2 || units[2].Committed.Int() != 1 {
		t.Errorf("day 2: got committed %s released %s", units[2].Committed, units[2].Released)
	}
}
