// Package stats computes dashboard statistics over the full transaction set.
package stats

import (
	"math"

	"github.com/storycreative/ledger/internal/transaction"
)

// FinancialStats is derived on demand and never persisted, so it is always
// consistent with the transaction set as of the last sync. All figures are
// in the reference currency.
type FinancialStats struct {
	TotalIncome   float64 `json:"totalIncome"`
	TotalExpense  float64 `json:"totalExpense"`
	NetProfit     float64 `json:"netProfit"`
	PaidIncome    float64 `json:"paidIncome"`
	PendingIncome float64 `json:"pendingIncome"`
}

// Compute aggregates the transaction set into FinancialStats. It is a pure
// function of its input: no side effects, deterministic, and insensitive to
// the ordering of transactions within floating-point tolerance.
//
// Malformed numeric fields contribute 0 instead of failing, so a partially
// corrupt data set still yields a dashboard.
func Compute(txs []transaction.Transaction) FinancialStats {
	var s FinancialStats

	for _, t := range txs {
		v := referenceValue(t)

		switch t.Type {
		case transaction.TypeIncome:
			s.TotalIncome += v

			if t.IsPaid {
				s.PaidIncome += v
			} else {
				s.PendingIncome += v
			}
		case transaction.TypeExpense:
			s.TotalExpense += v
		}
	}

	s.NetProfit = s.TotalIncome - s.TotalExpense

	return s
}

// referenceValue converts a transaction into reference-currency terms.
// ExchangeRate is defined as units of foreign currency per one unit of
// reference currency, so the foreign total is divided by it. A missing rate
// means the transaction was recorded in the reference currency: rate 1.
func referenceValue(t transaction.Transaction) float64 {
	amount := sanitize(t.Amount)
	qty := float64(t.Quantity)

	if qty <= 0 {
		qty = 0
	}

	rate := sanitize(t.ExchangeRate)
	if rate <= 0 {
		rate = 1
	}

	return amount * qty / rate
}

func sanitize(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}

	return v
}
