package bulk_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/inventory-engine/bulk"
	"github.com/warp/inventory-engine/inventory"
	"github.com/warp/inventory-engine/inventory/store"
)

var fileDay = inventory.NewDate(2026, time.March, 10)

func newValidator(t *testing.T) (*bulk.Validator, *store.Memory) {
	t.Helper()
	m := store.NewMemory()
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)

	ctx := context.Background()
	require.NoError(t, m.SaveUser(ctx, &inventory.User{ID: "u1", Email: "u1@example.com", Active: true}))
	require.NoError(t, m.SaveUser(ctx, &inventory.User{ID: "u2", Email: "u2@example.com", Active: true}))
	require.NoError(t, m.SaveAsset(ctx, &inventory.Asset{
		ID: "a1", Name: "Laptop", Quantity: inventory.NewQuantity(9),
		CurrentOwner: "root", AssetTypeID: "t1",
	}))
	return bulk.NewValidator(m, log), m
}

func csvFile(rows ...string) string {
	lines := append([]string{strings.Join(bulk.Header, ",")}, rows...)
	return strings.Join(lines, "\n") + "\n"
}

// =============================================================================
// PARSING
// =============================================================================

func TestValidateFilename(t *testing.T) {
	assert.NoError(t, bulk.ValidateFilename("batch.csv"))
	assert.NoError(t, bulk.ValidateFilename("Batch.CSV"))
	assert.Error(t, bulk.ValidateFilename("batch.xlsx"))
	assert.Error(t, bulk.ValidateFilename("batch"))
	assert.Error(t, bulk.ValidateFilename("batch.csv.exe"))
}

func TestParseRows_HeaderMismatch(t *testing.T) {
	_, err := bulk.ParseRows(strings.NewReader("User,Asset,Qty\nu1,a1,2\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected")
}

func TestParseRows_TrimsCells(t *testing.T) {
	rows, err := bulk.ParseRows(strings.NewReader(csvFile(" u1 , a1 , 2 , , ")))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "u1", rows[0].UserID)
	assert.Equal(t, "a1", rows[0].AssetID)
	assert.Equal(t, "2", rows[0].Quantity)
	assert.Equal(t, "", rows[0].StartDate)
	assert.Equal(t, 2, rows[0].Line)
}

func TestTemplate(t *testing.T) {
	rows, err := bulk.ParseRows(strings.NewReader(string(bulk.Template(fileDay))))
	require.NoError(t, err, "the template must parse against its own header check")
	require.Len(t, rows, 1)
	assert.Equal(t, fileDay.String(), rows[0].StartDate)
	assert.Equal(t, inventory.NoEndDate().String(), rows[0].EndDate)
}

// =============================================================================
// VALIDATION
// =============================================================================

func TestValidateFile_CleanFileApplies(t *testing.T) {
	ctx := context.Background()
	v, m := newValidator(t)

	report, err := v.ValidateFile(ctx, fileDay, "batch.csv",
		strings.NewReader(csvFile("u1,a1,3,,", "u2,a1,2,,")))
	require.NoError(t, err)

	assert.True(t, report.OK())
	for _, row := range report.Rows {
		assert.Equal(t, "OK", row.Status)
	}

	require.NoError(t, v.Apply(ctx, fileDay, report))

	a, err := m.GetAsset(ctx, "a1")
	require.NoError(t, err)
	assert.EqualValues(t, 4, a.Quantity.Int())
	assert.EqualValues(t, "u2", a.CurrentOwner, "last grant in the file holds the asset")

	recs, err := m.OpenCommitments(ctx, "a1", fileDay)
	require.NoError(t, err)
	assert.Len(t, recs, 2)
}

func TestValidateFile_AnnotatesBadRows(t *testing.T) {
	v, _ := newValidator(t)

	report, err := v.ValidateFile(context.Background(), fileDay, "batch.csv",
		strings.NewReader(csvFile(
			"ghost,a1,2,,",       // unknown user
			"u1,missing,2,,",     // unknown asset
			"u1,a1,0,,",          // non-positive quantity
			"u1,a1,2,03/10/26,",  // malformed date
			"u1,a1,2,,",          // clean
		)))
	require.NoError(t, err)

	assert.False(t, report.RowsOK)
	assert.Contains(t, report.Rows[0].Status, "user with the provided id not found")
	assert.Contains(t, report.Rows[1].Status, "not found")
	assert.Contains(t, report.Rows[2].Status, "greater than zero")
	assert.Contains(t, report.Rows[3].Status, "YYYY-MM-DD")
	assert.Equal(t, "OK", report.Rows[4].Status)
}

func TestValidateFile_RowCollectsEveryError(t *testing.T) {
	// A row can be wrong in more than one way; the Status column must name
	// all of them, not stop at the first.
	v, _ := newValidator(t)

	report, err := v.ValidateFile(context.Background(), fileDay, "batch.csv",
		strings.NewReader(csvFile(
			"ghost,missing,2,,",   // unknown user and unknown asset
			"ghost,missing,abc,,", // same, plus an unparseable quantity
		)))
	require.NoError(t, err)
	assert.False(t, report.RowsOK)

	assert.Contains(t, report.Rows[0].Status, "user with the provided id not found")
	assert.Contains(t, report.Rows[0].Status, "asset with the provided id not found")

	assert.Contains(t, report.Rows[1].Status, "user with the provided id not found")
	assert.Contains(t, report.Rows[1].Status, "invalid asset quantity")
	assert.Contains(t, report.Rows[1].Status, "asset with the provided id not found")
}

func TestValidateFile_TotalityAcrossRows(t *testing.T) {
	// Two rows of 5 against a stock of 9: every row passes on its own, the
	// merged timeline does not.
	v, _ := newValidator(t)

	report, err := v.ValidateFile(context.Background(), fileDay, "batch.csv",
		strings.NewReader(csvFile("u1,a1,5,,", "u2,a1,5,,")))
	require.NoError(t, err)

	assert.True(t, report.RowsOK)
	assert.False(t, report.TotalityOK)
	assert.False(t, report.OK())
	require.Len(t, report.Shortfalls, 1)
	assert.True(t, report.Shortfalls[0].Date.Equal(fileDay))
}

func TestValidateFile_RendersStatusColumn(t *testing.T) {
	v, _ := newValidator(t)

	report, err := v.ValidateFile(context.Background(), fileDay, "batch.csv",
		strings.NewReader(csvFile("u1,a1,3,,")))
	require.NoError(t, err)

	rendered := string(report.Render())
	lines := strings.Split(strings.TrimSpace(rendered), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasSuffix(lines[0], "Status"))
	assert.True(t, strings.HasSuffix(lines[1], "OK"))
}

func TestValidateFile_RejectsNonCSV(t *testing.T) {
	v, _ := newValidator(t)
	_, err := v.ValidateFile(context.Background(), fileDay, "batch.pdf", strings.NewReader(""))
	require.Error(t, err)
}

func TestApply_RefusesFailedReport(t *testing.T) {
	ctx := context.Background()
	v, m := newValidator(t)

	report, err := v.ValidateFile(ctx, fileDay, "batch.csv",
		strings.NewReader(csvFile("u1,a1,5,,", "u2,a1,5,,")))
	require.NoError(t, err)
	require.False(t, report.OK())

	err = v.Apply(ctx, fileDay, report)
	assert.ErrorIs(t, err, inventory.ErrValidationFailed)

	a, err := m.GetAsset(ctx, "a1")
	require.NoError(t, err)
	assert.EqualValues(t, 9, a.Quantity.Int(), "a rejected file applies nothing")
}
