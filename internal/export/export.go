// Package export serializes the transaction set to a delimited tabular
// format and replays imported rows back through the ledger, so imports obey
// the same validation and id-assignment rules as manual entry.
package export

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/storycreative/ledger/internal/currency"
	"github.com/storycreative/ledger/internal/encoding"
	"github.com/storycreative/ledger/internal/ledger"
	"github.com/storycreative/ledger/internal/transaction"
)

// Header is the fixed column order of the tabular format.
var Header = []string{
	"id", "invoiceNumber", "date", "type", "customerName",
	"description", "amount", "quantity", "currency", "isPaid",
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Write renders the transaction set as CSV, prefixed with a UTF-8 BOM so
// spreadsheet tools pick the right encoding for non-Latin text.
func Write(w io.Writer, txs []transaction.Transaction) error {
	if _, err := w.Write(utf8BOM); err != nil {
		return fmt.Errorf("writing BOM: %w", err)
	}

	cw := csv.NewWriter(w)

	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for _, t := range txs {
		paid := "FALSE"
		if t.IsPaid {
			paid = "TRUE"
		}

		record := []string{
			t.ID,
			t.InvoiceNumber,
			t.Date,
			string(t.Type),
			t.CustomerName,
			t.Description,
			strconv.FormatFloat(t.Amount, 'f', -1, 64),
			strconv.Itoa(t.Quantity),
			string(t.Currency),
			paid,
		}

		if err := cw.Write(record); err != nil {
			return fmt.Errorf("writing transaction %s: %w", t.ID, err)
		}
	}

	cw.Flush()

	return cw.Error()
}

// Row is one parsed line of an import file. ID is empty when the source row
// carried no identifier; such rows get a fresh id and invoice number.
type Row struct {
	ID     string
	Params ledger.TransactionParams
	IsPaid bool
}

// Parse reads an import file into rows. The input may be in any encoding
// the detection layer understands; a BOM is stripped. A leading header row
// matching the fixed column order is skipped. Malformed numeric cells
// coerce to 0 rather than failing the parse; the paid flag accepts
// TRUE/FALSE in any case as well as 1/0.
func Parse(r io.Reader) ([]Row, error) {
	ur, err := encoding.NewUTF8Reader(r)
	if err != nil {
		return nil, fmt.Errorf("detecting encoding: %w", err)
	}

	cr := csv.NewReader(ur)
	cr.FieldsPerRecord = -1

	records, err := cr.ReadAll()
	if err != nil {
		return nil, &ledger.ValidationError{Field: "file", Reason: fmt.Sprintf("not valid CSV: %v", err)}
	}

	var rows []Row

	for i, rec := range records {
		if i == 0 && len(rec) > 0 && strings.EqualFold(rec[0], "id") {
			continue
		}

		if len(rec) < len(Header) {
			return nil, &ledger.ValidationError{
				Field:  "file",
				Reason: fmt.Sprintf("row %d has %d columns, want %d", i+1, len(rec), len(Header)),
			}
		}

		rows = append(rows, Row{
			ID: strings.TrimSpace(rec[0]),
			Params: ledger.TransactionParams{
				Date:         strings.TrimSpace(rec[2]),
				Type:         transaction.Type(strings.ToLower(strings.TrimSpace(rec[3]))),
				CustomerName: rec[4],
				Description:  rec[5],
				Amount:       parseFloat(rec[6]),
				Quantity:     parseInt(rec[7]),
				Currency:     currency.Currency(strings.ToUpper(strings.TrimSpace(rec[8]))),
			},
			IsPaid: parseBool(rec[9]),
		})
	}

	return rows, nil
}

// Skipped reports one row the import rejected, by 1-based position.
type Skipped struct {
	Row int
	Err error
}

// Result summarizes an import run.
type Result struct {
	Created int
	Updated int
	Skipped []Skipped
}

// Apply replays rows through the ledger: rows whose id matches an existing
// transaction update it (id and invoice number preserved), the rest are
// created fresh with a new id and invoice number. Validation failures skip
// the row and are reported; any other error aborts the run.
func Apply(ctx context.Context, l *ledger.Ledger, rows []Row) (Result, error) {
	paidByID := make(map[string]bool)
	for _, t := range l.Transactions() {
		paidByID[t.ID] = t.IsPaid
	}

	var res Result

	for i, row := range rows {
		currentPaid, known := paidByID[row.ID]

		var (
			id  string
			err error
		)

		if known {
			id = row.ID
			_, err = l.UpdateTransaction(ctx, row.ID, row.Params)
		} else {
			var created transaction.Transaction

			created, err = l.CreateTransaction(ctx, row.Params)
			if err == nil {
				id = created.ID
				currentPaid = false
				paidByID[id] = false
			}
		}

		if err != nil {
			var verr *ledger.ValidationError
			if errors.As(err, &verr) {
				res.Skipped = append(res.Skipped, Skipped{Row: i + 1, Err: err})
				continue
			}

			return res, fmt.Errorf("importing row %d: %w", i+1, err)
		}

		if row.IsPaid != currentPaid {
			if err := l.TogglePaid(ctx, id); err != nil {
				return res, fmt.Errorf("importing row %d: %w", i+1, err)
			}

			paidByID[id] = row.IsPaid
		}

		if known {
			res.Updated++
		} else {
			res.Created++
		}
	}

	return res, nil
}

func parseFloat(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}

	return v
}

func parseInt(s string) int {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}

	return v
}

func parseBool(s string) bool {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "TRUE", "1":
		return true
	}

	return false
}
