package stats_test

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/storycreative/ledger/internal/currency"
	"github.com/storycreative/ledger/internal/stats"
	"github.com/storycreative/ledger/internal/transaction"
)

func income(amount float64, qty int, rate float64, paid bool) transaction.Transaction {
	return transaction.Transaction{
		Type:         transaction.TypeIncome,
		Description:  "income",
		Amount:       amount,
		Quantity:     qty,
		Currency:     currency.TRY,
		ExchangeRate: rate,
		IsPaid:       paid,
	}
}

func expense(amount float64, qty int, rate float64) transaction.Transaction {
	return transaction.Transaction{
		Type:         transaction.TypeExpense,
		Description:  "expense",
		Amount:       amount,
		Quantity:     qty,
		Currency:     currency.TRY,
		ExchangeRate: rate,
	}
}

func TestCompute_ConvertsToReferenceCurrency(t *testing.T) {
	// 100 x 2 at rate 32 is 6.25 in reference-currency terms.
	s := stats.Compute([]transaction.Transaction{income(100, 2, 32, true)})

	assert.InEpsilon(t, 6.25, s.TotalIncome, 1e-9)
	assert.InEpsilon(t, 6.25, s.PaidIncome, 1e-9)
	assert.Zero(t, s.PendingIncome)
}

func TestCompute_NetProfitIdentity(t *testing.T) {
	txs := []transaction.Transaction{
		income(1500, 1, 1, true),
		income(20000, 3, 14000, false),
		expense(400, 2, 3.75),
		expense(99.99, 1, 1),
	}

	s := stats.Compute(txs)

	assert.InDelta(t, s.TotalIncome-s.TotalExpense, s.NetProfit, 1e-9)
	assert.InDelta(t, s.TotalIncome, s.PaidIncome+s.PendingIncome, 1e-9)
}

func TestCompute_OrderIndependent(t *testing.T) {
	txs := []transaction.Transaction{
		income(100, 2, 32, true),
		income(50, 1, 1, false),
		expense(700, 3, 14000),
		expense(12.5, 4, 3.75),
		income(9.99, 7, 32, true),
	}

	want := stats.Compute(txs)

	shuffled := make([]transaction.Transaction, len(txs))
	copy(shuffled, txs)
	rand.New(rand.NewSource(1)).Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	got := stats.Compute(shuffled)

	assert.InDelta(t, want.TotalIncome, got.TotalIncome, 1e-9)
	assert.InDelta(t, want.TotalExpense, got.TotalExpense, 1e-9)
	assert.InDelta(t, want.NetProfit, got.NetProfit, 1e-9)
}

func TestCompute_MissingRateDefaultsToOne(t *testing.T) {
	// A transaction saved without a rate is treated as reference currency.
	s := stats.Compute([]transaction.Transaction{income(40, 2, 0, false)})

	assert.InEpsilon(t, 80.0, s.TotalIncome, 1e-9)
	assert.InEpsilon(t, 80.0, s.PendingIncome, 1e-9)
}

func TestCompute_MalformedValuesCoerceToZero(t *testing.T) {
	txs := []transaction.Transaction{
		income(math.NaN(), 2, 32, true),
		income(math.Inf(1), 1, 32, false),
		expense(100, 1, math.NaN()),
		income(30, 1, 1, true),
	}

	s := stats.Compute(txs)

	// Corrupt rows contribute nothing; the NaN rate falls back to 1.
	assert.InEpsilon(t, 30.0, s.TotalIncome, 1e-9)
	assert.InEpsilon(t, 100.0, s.TotalExpense, 1e-9)
	assert.False(t, math.IsNaN(s.NetProfit))
}

func TestCompute_Empty(t *testing.T) {
	s := stats.Compute(nil)

	assert.Zero(t, s.TotalIncome)
	assert.Zero(t, s.TotalExpense)
	assert.Zero(t, s.NetProfit)
	assert.Zero(t, s.PaidIncome)
	assert.Zero(t, s.PendingIncome)
}
