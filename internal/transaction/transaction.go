package transaction

import (
	"time"

	"github.com/storycreative/ledger/internal/currency"
)

// Type represents the type of transaction (income or expense).
type Type string

const (
	TypeIncome  Type = "income"
	TypeExpense Type = "expense"
)

// Valid reports whether t is a known transaction type.
func (t Type) Valid() bool {
	return t == TypeIncome || t == TypeExpense
}

// Transaction represents one billable or payable event. Amount is the unit
// price in Currency; its reference-currency value is
// (Amount * Quantity) / ExchangeRate.
//
// ID and InvoiceNumber are assigned at creation and never change afterwards.
// ExchangeRate is the rate in force when the transaction was last saved, so
// later rate-table edits do not alter past reports.
type Transaction struct {
	ID            string            `json:"id"`
	Type          Type              `json:"type"`
	Description   string            `json:"description"`
	CustomerName  string            `json:"customerName,omitempty"`
	Amount        float64           `json:"amount"`
	Quantity      int               `json:"quantity"`
	Date          string            `json:"date"`
	Currency      currency.Currency `json:"currency"`
	ExchangeRate  float64           `json:"exchangeRate"`
	InvoiceNumber string            `json:"invoiceNumber"`
	IsPaid        bool              `json:"isPaid"`
}

// Today returns the default date for a new transaction.
func Today() string {
	return time.Now().Format(time.DateOnly)
}
