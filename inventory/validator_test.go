package inventory_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/inventory-engine/inventory"
	"github.com/warp/inventory-engine/inventory/store"
)

var valDay = inventory.NewDate(2026, time.March, 10)

func seedAsset(t *testing.T, m *store.Memory, id string, qty int64) *inventory.Asset {
	t.Helper()
	a := &inventory.Asset{
		ID:           inventory.AssetID(id),
		Name:         "Asset " + id,
		Quantity:     inventory.NewQuantity(qty),
		CurrentOwner: "root",
		AssetTypeID:  "t1",
	}
	require.NoError(t, m.SaveAsset(context.Background(), a))
	return a
}

func TestValidate_AcceptsCleanBatch(t *testing.T) {
	m := store.NewMemory()
	seedAsset(t, m, "a1", 10)
	seedAsset(t, m, "a2", 4)

	v := inventory.NewRequisitionValidator(m)
	outcome, err := v.ValidateRequisitions(context.Background(), valDay, []inventory.RequisitionRequest{
		{AssetID: "a1", Quantity: inventory.NewQuantity(3)},
		{AssetID: "a2", Quantity: inventory.NewQuantity(4)},
	})
	require.NoError(t, err)

	assert.True(t, outcome.Accepted)
	require.Len(t, outcome.Grants, 2)
	assert.True(t, outcome.Grants[0].StartDate.Equal(valDay))
	assert.True(t, outcome.Grants[0].EndDate.Equal(inventory.NoEndDate()))
}

func TestValidate_NonPositiveQuantity(t *testing.T) {
	m := store.NewMemory()
	seedAsset(t, m, "a1", 10)

	v := inventory.NewRequisitionValidator(m)
	outcome, err := v.ValidateRequisitions(context.Background(), valDay, []inventory.RequisitionRequest{
		{AssetID: "a1", Quantity: inventory.NewQuantity(0)},
		{AssetID: "a1", Quantity: inventory.NewQuantity(-2)},
	})
	require.NoError(t, err)

	assert.False(t, outcome.Accepted)
	require.Len(t, outcome.QuantityErrors, 2)
	for _, re := range outcome.QuantityErrors {
		assert.Equal(t, inventory.KindNonPositiveQuantity, re.Kind)
	}
	assert.Nil(t, outcome.Grants, "rejected batches carry no grants")
}

func TestValidate_InsufficientQuantity(t *testing.T) {
	m := store.NewMemory()
	seedAsset(t, m, "a1", 4)

	v := inventory.NewRequisitionValidator(m)
	outcome, err := v.ValidateRequisitions(context.Background(), valDay, []inventory.RequisitionRequest{
		{AssetID: "a1", Quantity: inventory.NewQuantity(5)},
	})
	require.NoError(t, err)

	assert.False(t, outcome.Accepted)
	require.Len(t, outcome.QuantityErrors, 1)
	assert.Equal(t, inventory.KindInsufficientQuantity, outcome.QuantityErrors[0].Kind)
}

func TestValidate_StartAfterEnd(t *testing.T) {
	m := store.NewMemory()
	seedAsset(t, m, "a1", 10)

	v := inventory.NewRequisitionValidator(m)
	outcome, err := v.ValidateRequisitions(context.Background(), valDay, []inventory.RequisitionRequest{
		{
			AssetID:   "a1",
			Quantity:  inventory.NewQuantity(1),
			StartDate: valDay.AddDays(5),
			EndDate:   valDay.AddDays(2),
		},
	})
	require.NoError(t, err)

	assert.False(t, outcome.Accepted)
	require.Len(t, outcome.DateErrors, 1)
	assert.Equal(t, inventory.KindStartAfterEnd, outcome.DateErrors[0].Kind)
}

func TestValidate_ApprovalWindowEdges(t *testing.T) {
	m := store.NewMemory()
	seedAsset(t, m, "a1", 10)
	v := inventory.NewRequisitionValidator(m)

	cases := []struct {
		name     string
		offset   int
		wantKind inventory.RowErrorKind // empty means accepted
	}{
		{"exactly 30 days back", -inventory.ApprovalWindowDays, ""},
		{"31 days back", -(inventory.ApprovalWindowDays + 1), inventory.KindStartTooOld},
		{"exactly 30 days ahead", inventory.ApprovalWindowDays, ""},
		{"31 days ahead", inventory.ApprovalWindowDays + 1, inventory.KindStartTooFarInFuture},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			outcome, err := v.ValidateRequisitions(context.Background(), valDay, []inventory.RequisitionRequest{
				{
					AssetID:   "a1",
					Quantity:  inventory.NewQuantity(1),
					StartDate: valDay.AddDays(tc.offset),
					EndDate:   inventory.NoEndDate(),
				},
			})
			require.NoError(t, err)
			if tc.wantKind == "" {
				assert.True(t, outcome.Accepted)
				return
			}
			assert.False(t, outcome.Accepted)
			require.Len(t, outcome.DateErrors, 1)
			assert.Equal(t, tc.wantKind, outcome.DateErrors[0].Kind)
		})
	}
}

func TestValidate_UnknownAssetSkipsOtherChecks(t *testing.T) {
	// A row whose asset is missing lands only in NotFound; quantity and date
	// checks need the fetched asset and never run for it.
	m := store.NewMemory()

	v := inventory.NewRequisitionValidator(m)
	outcome, err := v.ValidateRequisitions(context.Background(), valDay, []inventory.RequisitionRequest{
		{AssetID: "ghost", Quantity: inventory.NewQuantity(-5), StartDate: valDay.AddDays(90)},
	})
	require.NoError(t, err)

	assert.False(t, outcome.Accepted)
	require.Len(t, outcome.NotFound, 1)
	assert.Equal(t, inventory.KindAssetNotFound, outcome.NotFound[0].Kind)
	assert.Empty(t, outcome.QuantityErrors)
	assert.Empty(t, outcome.DateErrors)
}

func TestValidate_AccumulatesAcrossRowsAndCategories(t *testing.T) {
	// One bad row must not stop the others from being inspected; quantity and
	// date violations on the same row both surface.
	m := store.NewMemory()
	seedAsset(t, m, "a1", 4)

	v := inventory.NewRequisitionValidator(m)
	outcome, err := v.ValidateRequisitions(context.Background(), valDay, []inventory.RequisitionRequest{
		{AssetID: "ghost", Quantity: inventory.NewQuantity(1)},
		{AssetID: "a1", Quantity: inventory.NewQuantity(9), StartDate: valDay.AddDays(40)},
	})
	require.NoError(t, err)

	assert.False(t, outcome.Accepted)
	assert.Len(t, outcome.NotFound, 1)
	assert.Len(t, outcome.QuantityErrors, 1)
	assert.Len(t, outcome.DateErrors, 1)
	assert.Len(t, outcome.Messages(), 3)
}

func TestValidate_Idempotent(t *testing.T) {
	// Validation is a pure read: same state and clock, same answer, and no
	// store mutation either way.
	m := store.NewMemory()
	seedAsset(t, m, "a1", 4)

	v := inventory.NewRequisitionValidator(m)
	reqs := []inventory.RequisitionRequest{
		{AssetID: "a1", Quantity: inventory.NewQuantity(9)},
	}

	first, err := v.ValidateRequisitions(context.Background(), valDay, reqs)
	require.NoError(t, err)
	second, err := v.ValidateRequisitions(context.Background(), valDay, reqs)
	require.NoError(t, err)

	assert.Equal(t, first.Messages(), second.Messages())

	a, err := m.GetAsset(context.Background(), "a1")
	require.NoError(t, err)
	assert.EqualValues(t, 4, a.Quantity.Int(), "validation must not touch stock")
}
