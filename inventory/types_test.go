package inventory_test

import (
	"testing"
	"time"

	"github.com/warp/inventory-engine/inventory"
)

// =============================================================================
// ASSET TYPE CODE DERIVATION
// =============================================================================

func TestAssetTypeCode(t *testing.T) {
	// GIVEN: A type with embedded short codes in all three parts
	// WHEN: Deriving the code
	// THEN: The parenthesized codes join with dashes

	at := inventory.AssetType{
		Type:    "Laptop(HDW)",
		SubType: "Dell(DELL)",
		Group:   "IT(IT)",
	}
	if got := at.Code(); got != "HDW-DELL-IT" {
		t.Errorf("expected HDW-DELL-IT, got %q", got)
	}
}

func TestAssetTypeCode_NoParentheses(t *testing.T) {
	// A part without an embedded code falls back to the raw text.
	at := inventory.AssetType{
		Type:    "Furniture",
		SubType: "Chair(CHR)",
		Group:   "Office(OFF)",
	}
	if got := at.Code(); got != "Furniture-CHR-OFF" {
		t.Errorf("expected Furniture-CHR-OFF, got %q", got)
	}
}

func TestAssetTypeCode_NestedParentheses(t *testing.T) {
	// The last open paren wins, matching how the codes are entered.
	at := inventory.AssetType{
		Type:    "Laptop (13in)(HDW)",
		SubType: "Dell(DELL)",
		Group:   "IT(IT)",
	}
	if got := at.Code(); got != "HDW-DELL-IT" {
		t.Errorf("expected HDW-DELL-IT, got %q", got)
	}
}

// =============================================================================
// QUANTITY ARITHMETIC
// =============================================================================

func TestQuantityArithmetic(t *testing.T) {
	ten := inventory.NewQuantity(10)
	three := inventory.NewQuantity(3)

	if got := ten.Sub(three); got.Int() != 7 {
		t.Errorf("10 - 3: expected 7, got %s", got)
	}
	if got := three.Sub(ten); !got.IsNegative() {
		t.Errorf("3 - 10 should be negative, got %s", got)
	}
	if !three.LessThan(ten) || !ten.GreaterThan(three) {
		t.Error("comparison operators disagree")
	}
	if !inventory.NewQuantity(0).IsZero() {
		t.Error("zero quantity should report IsZero")
	}
}

// =============================================================================
// DATES AND WINDOW DEFAULTS
// =============================================================================

func TestRequisitionWindowDefaults(t *testing.T) {
	// GIVEN: A request with no dates
	// WHEN: Applying defaults
	// THEN: Start is today and end is the open-ended sentinel

	now := inventory.NewDate(2026, time.March, 10)
	req := inventory.RequisitionRequest{AssetID: "a1", Quantity: inventory.NewQuantity(1)}

	start, end := req.Window(now)
	if !start.Equal(now) {
		t.Errorf("expected start %s, got %s", now, start)
	}
	if !end.Equal(inventory.NoEndDate()) {
		t.Errorf("expected sentinel end, got %s", end)
	}
}

func TestParseDate(t *testing.T) {
	d, err := inventory.ParseDate("2026-03-10")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.String() != "2026-03-10" {
		t.Errorf("round trip mismatch: %s", d)
	}

	if _, err := inventory.ParseDate("10/03/2026"); err == nil {
		t.Error("expected error for non-ISO date")
	}
}

func TestCommitmentOpen(t *testing.T) {
	now := inventory.NewDate(2026, time.March, 10)
	rec := inventory.CommitmentRecord{
		StartDate: now.AddDays(-5),
		EndDate:   now,
	}
	if !rec.Open(now) {
		t.Error("commitment ending today should still be open")
	}
	if rec.Open(now.AddDays(1)) {
		t.Error("commitment ending yesterday should be closed")
	}
}
