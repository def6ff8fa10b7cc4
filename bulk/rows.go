/*
Package bulk implements bulk asset assignment from uploaded CSV files.

PURPOSE:
  Moderators hand out assets one batch at a time through the API; admins
  hand out hundreds at once through a spreadsheet. This package owns the
  file side of that flow: parsing the tabular input, validating it row by
  row and in totality, annotating every row with its outcome, and applying
  the batch when the whole file passes.

FILE FORMAT:
  CSV with exactly these columns:

    User Id, Asset ID, Asset Quantity, Start Date, End Date

  Dates are ISO YYYY-MM-DD. Start Date may be empty (defaults to today);
  End Date may be empty (defaults to the 2999-01-01 open-ended sentinel).

VALIDATION CONTRACT:
  The file is accepted only when every row passes the row-level checks AND
  every referenced asset passes the timeline totality check. Nothing is
  applied from a file that fails either gate.

SEE ALSO:
  - validate.go: The validation and apply passes
  - inventory/validator.go, inventory/timeline.go: The rules themselves
*/
package bulk

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/warp/inventory-engine/inventory"
)

// Header is the required column layout, in order.
var Header = []string{"User Id", "Asset ID", "Asset Quantity", "Start Date", "End Date"}

// statusColumn is appended to the annotated report.
const statusColumn = "Status"

// Row is one line of the uploaded file. Fields stay raw strings until
// validation so a malformed cell becomes a row error, not a parse abort.
type Row struct {
	Line      int
	UserID    string
	AssetID   string
	Quantity  string
	StartDate string
	EndDate   string

	// Status is filled during validation: "OK" or joined error messages.
	Status string
}

// ValidateFilename rejects anything that is not a .csv upload.
func ValidateFilename(name string) error {
	if !strings.Contains(name, ".") {
		return fmt.Errorf("not a valid file, upload .csv files only: %q", name)
	}
	if !strings.EqualFold(name[strings.LastIndex(name, ".")+1:], "csv") {
		return fmt.Errorf("not a valid file, upload .csv files only: %q", name)
	}
	return nil
}

// ParseRows reads the file and checks the header. Cell contents are not
// interpreted here.
func ParseRows(r io.Reader) ([]Row, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	if err := checkHeader(header); err != nil {
		return nil, err
	}

	var rows []Row
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading line %d: %w", line+1, err)
		}
		line++
		rows = append(rows, Row{
			Line:      line,
			UserID:    strings.TrimSpace(record[0]),
			AssetID:   strings.TrimSpace(record[1]),
			Quantity:  strings.TrimSpace(record[2]),
			StartDate: strings.TrimSpace(record[3]),
			EndDate:   strings.TrimSpace(record[4]),
		})
	}
	return rows, nil
}

func checkHeader(got []string) error {
	if len(got) != len(Header) {
		return fmt.Errorf("expected %d columns %v, got %d", len(Header), Header, len(got))
	}
	for i, want := range Header {
		if strings.TrimSpace(got[i]) != want {
			return fmt.Errorf("column %d: expected %q, got %q", i+1, want, got[i])
		}
	}
	return nil
}

// Template renders a downloadable starter file: the header plus one sample
// row dated today and open-ended.
func Template(now inventory.DateStamp) []byte {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write(Header)
	_ = w.Write([]string{"<user id>", "<asset id>", "9", now.String(), inventory.NoEndDate().String()})
	w.Flush()
	return buf.Bytes()
}
