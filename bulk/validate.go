package bulk

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/warp/inventory-engine/inventory"
)

// =============================================================================
// VALIDATOR - Row-wise checks plus per-asset totality over the whole file
// =============================================================================

type Validator struct {
	Store  inventory.TxStore
	Ledger *inventory.Ledger
	Log    logrus.FieldLogger
}

func NewValidator(store inventory.TxStore, log logrus.FieldLogger) *Validator {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Validator{
		Store:  store,
		Ledger: inventory.NewLedger(store),
		Log:    log,
	}
}

// Report is the outcome of validating one file.
type Report struct {
	Rows       []Row
	RowsOK     bool
	TotalityOK bool
	Shortfalls []inventory.ShortfallError

	// accepted carries the parsed assignments forward to Apply. Only
	// populated when RowsOK.
	accepted []inventory.Assignment
}

// OK reports whether the file may be applied.
func (r *Report) OK() bool { return r.RowsOK && r.TotalityOK }

// Messages flattens totality violations into printable strings.
func (r *Report) Messages() []string {
	msgs := make([]string, len(r.Shortfalls))
	for i := range r.Shortfalls {
		msgs[i] = r.Shortfalls[i].Error()
	}
	return msgs
}

// Render emits the annotated CSV: the original columns plus a Status column
// holding "OK" or the row's joined error messages.
func (r *Report) Render() []byte {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write(append(append([]string{}, Header...), statusColumn))
	for _, row := range r.Rows {
		_ = w.Write([]string{row.UserID, row.AssetID, row.Quantity, row.StartDate, row.EndDate, row.Status})
	}
	w.Flush()
	return buf.Bytes()
}

// ValidateFile parses and validates an uploaded file. Row rule violations and
// totality shortfalls land in the report; only store failures and unreadable
// files return an error.
func (v *Validator) ValidateFile(ctx context.Context, now inventory.DateStamp, filename string, f io.Reader) (*Report, error) {
	if err := ValidateFilename(filename); err != nil {
		return nil, err
	}
	rows, err := ParseRows(f)
	if err != nil {
		return nil, err
	}

	report := &Report{Rows: rows, RowsOK: true}
	requisitionsByAsset := make(map[inventory.AssetID][]inventory.RequisitionRequest)
	var assetOrder []inventory.AssetID

	for i := range report.Rows {
		row := &report.Rows[i]
		req, rowErrs, err := v.validateRow(ctx, now, row)
		if err != nil {
			return nil, err
		}
		if len(rowErrs) > 0 {
			report.RowsOK = false
			row.Status = strings.Join(rowErrs, "; ")
			continue
		}
		row.Status = "OK"

		if _, seen := requisitionsByAsset[req.AssetID]; !seen {
			assetOrder = append(assetOrder, req.AssetID)
		}
		requisitionsByAsset[req.AssetID] = append(requisitionsByAsset[req.AssetID], req)

		start, end := req.Window(now)
		asset, err := v.Store.GetAsset(ctx, req.AssetID)
		if err != nil {
			return nil, err
		}
		report.accepted = append(report.accepted, inventory.Assignment{
			UserID: inventory.UserID(row.UserID),
			Grant: inventory.Grant{
				Asset:     asset,
				Quantity:  req.Quantity,
				StartDate: start,
				EndDate:   end,
			},
		})
	}

	// The file is checked in totality per distinct asset even when some rows
	// failed, so the annotated report carries every findable problem at once.
	report.TotalityOK = true
	for _, id := range assetOrder {
		asset, err := v.Store.GetAsset(ctx, id)
		if err != nil {
			return nil, err
		}
		existing, err := v.Ledger.OpenCommitments(ctx, id, now)
		if err != nil {
			return nil, err
		}
		ok, shortfalls := inventory.RunTotalityCheck(id, asset.Quantity, now, requisitionsByAsset[id], existing)
		if !ok {
			report.TotalityOK = false
			report.Shortfalls = append(report.Shortfalls, shortfalls...)
		}
	}

	if !report.OK() {
		report.accepted = nil
	}
	v.Log.WithFields(logrus.Fields{
		"file":     filename,
		"rows":     len(rows),
		"rows_ok":  report.RowsOK,
		"totality": report.TotalityOK,
	}).Info("bulk file validated")
	return report, nil
}

// validateRow interprets one raw row and runs the row-level rules against it.
// Returned strings are user-facing messages for the Status column.
func (v *Validator) validateRow(ctx context.Context, now inventory.DateStamp, row *Row) (inventory.RequisitionRequest, []string, error) {
	var msgs []string
	var req inventory.RequisitionRequest

	if _, err := v.Store.GetUser(ctx, inventory.UserID(row.UserID)); err != nil {
		if !inventory.IsNotFound(err) {
			return req, nil, err
		}
		msgs = append(msgs, "user with the provided id not found")
	}

	req.AssetID = inventory.AssetID(row.AssetID)
	parseable := true
	qty, qtyErr := parseQuantity(row.Quantity)
	if qtyErr != nil {
		msgs = append(msgs, qtyErr.Error())
		parseable = false
	}
	req.Quantity = qty

	var dateErr error
	if row.StartDate != "" {
		req.StartDate, dateErr = inventory.ParseDate(row.StartDate)
		if dateErr != nil {
			msgs = append(msgs, fmt.Sprintf("invalid start date %q, expected YYYY-MM-DD", row.StartDate))
			parseable = false
		}
	}
	if row.EndDate != "" {
		req.EndDate, dateErr = inventory.ParseDate(row.EndDate)
		if dateErr != nil {
			msgs = append(msgs, fmt.Sprintf("invalid end date %q, expected YYYY-MM-DD", row.EndDate))
			parseable = false
		}
	}

	// Every check that still has usable inputs runs, so the Status column
	// names all of a row's problems at once. An unparseable quantity or date
	// cell only keeps the quantity/date rules from running; the asset check
	// does not depend on those cells.
	if !parseable {
		if _, err := v.Store.GetAsset(ctx, req.AssetID); err != nil {
			if !inventory.IsNotFound(err) {
				return req, nil, err
			}
			msgs = append(msgs, "asset with the provided id not found")
		}
		return req, msgs, nil
	}

	outcome, err := inventory.NewRequisitionValidator(v.Store).
		ValidateRequisitions(ctx, now, []inventory.RequisitionRequest{req})
	if err != nil {
		return req, nil, err
	}
	if !outcome.Accepted {
		msgs = append(msgs, outcome.Messages()...)
	}
	return req, msgs, nil
}

func parseQuantity(s string) (inventory.Quantity, error) {
	if s == "" {
		return inventory.Quantity{}, fmt.Errorf("asset quantity is required")
	}
	q := inventory.MustParseQuantity(s)
	if q.IsZero() && s != "0" {
		return inventory.Quantity{}, fmt.Errorf("invalid asset quantity %q", s)
	}
	return q, nil
}

// Apply commits a fully validated file: every row's grant goes to that row's
// user, atomically across the whole file.
func (v *Validator) Apply(ctx context.Context, now inventory.DateStamp, report *Report) error {
	if !report.OK() {
		return inventory.ErrValidationFailed
	}
	executor := inventory.NewAssignmentExecutor(v.Store)
	if err := executor.AssignBatch(ctx, now, report.accepted); err != nil {
		return err
	}
	v.Log.WithField("grants", len(report.accepted)).Info("bulk file applied")
	return nil
}
