package export_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/storycreative/ledger/internal/appconfig"
	"github.com/storycreative/ledger/internal/currency"
	"github.com/storycreative/ledger/internal/export"
	"github.com/storycreative/ledger/internal/ledger"
	"github.com/storycreative/ledger/internal/transaction"
	"github.com/storycreative/ledger/internal/user"
)

func sample() []transaction.Transaction {
	return []transaction.Transaction{
		{
			ID:            "tx-1",
			Type:          transaction.TypeIncome,
			Description:   "تصميم شعار",
			CustomerName:  "Acme",
			Amount:        1500.5,
			Quantity:      2,
			Date:          "2026-03-15",
			Currency:      currency.TRY,
			ExchangeRate:  32,
			InvoiceNumber: "ST-20260001",
			IsPaid:        true,
		},
		{
			ID:            "tx-2",
			Type:          transaction.TypeExpense,
			Description:   "stock footage",
			Amount:        49.99,
			Quantity:      1,
			Date:          "2026-03-16",
			Currency:      currency.USD,
			ExchangeRate:  1,
			InvoiceNumber: "ST-20260002",
		},
	}
}

func TestWrite(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, export.Write(&buf, sample()))

	out := buf.Bytes()

	// Spreadsheet tools need the BOM to pick UTF-8 for the Arabic text.
	assert.True(t, bytes.HasPrefix(out, []byte{0xEF, 0xBB, 0xBF}))

	lines := strings.Split(strings.TrimRight(string(out[3:]), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, strings.Join(export.Header, ","), lines[0])
	assert.Contains(t, lines[1], "TRUE")
	assert.Contains(t, lines[1], "1500.5")
	assert.Contains(t, lines[2], "FALSE")
}

func TestParse(t *testing.T) {
	input := strings.Join([]string{
		strings.Join(export.Header, ","),
		"tx-1,ST-20260001,2026-03-15,income,Acme,logo design,1500.5,2,TRY,TRUE",
		",,2026-03-16,EXPENSE,,stock footage,oops,notanint,usd,0",
	}, "\n")

	rows, err := export.Parse(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "tx-1", rows[0].ID)
	assert.Equal(t, transaction.TypeIncome, rows[0].Params.Type)
	assert.Equal(t, 1500.5, rows[0].Params.Amount)
	assert.True(t, rows[0].IsPaid)

	// Type and currency are case-insensitive; malformed numbers coerce to 0.
	assert.Empty(t, rows[1].ID)
	assert.Equal(t, transaction.TypeExpense, rows[1].Params.Type)
	assert.Equal(t, currency.USD, rows[1].Params.Currency)
	assert.Zero(t, rows[1].Params.Amount)
	assert.Zero(t, rows[1].Params.Quantity)
	assert.False(t, rows[1].IsPaid)
}

func TestParse_ShortRow(t *testing.T) {
	input := "tx-1,ST-20260001,2026-03-15,income\n"

	_, err := export.Parse(strings.NewReader(input))

	var ve *ledger.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "file", ve.Field)
}

func TestRoundTrip(t *testing.T) {
	txs := sample()

	var buf bytes.Buffer
	require.NoError(t, export.Write(&buf, txs))

	rows, err := export.Parse(&buf)
	require.NoError(t, err)
	require.Len(t, rows, len(txs))

	for i, row := range rows {
		assert.Equal(t, txs[i].ID, row.ID)
		assert.Equal(t, txs[i].Type, row.Params.Type)
		assert.Equal(t, txs[i].Description, row.Params.Description)
		assert.Equal(t, txs[i].CustomerName, row.Params.CustomerName)
		assert.Equal(t, txs[i].Amount, row.Params.Amount)
		assert.Equal(t, txs[i].Quantity, row.Params.Quantity)
		assert.Equal(t, txs[i].Currency, row.Params.Currency)
		assert.Equal(t, txs[i].Date, row.Params.Date)
		assert.Equal(t, txs[i].IsPaid, row.IsPaid)
	}
}

func TestApply(t *testing.T) {
	ctrl := gomock.NewController(t)
	backend := ledger.NewMockBackend(ctrl)

	backend.EXPECT().GetData(gomock.Any()).Return(ledger.Data{
		Transactions: []transaction.Transaction{
			{ID: "tx-1", Type: transaction.TypeIncome, Description: "existing", Amount: 100, Quantity: 1, Date: "2026-01-01", Currency: currency.USD, ExchangeRate: 1, InvoiceNumber: "ST-20260001"},
		},
		Config: appconfig.Default(),
	}, nil)
	backend.EXPECT().SaveTransaction(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	backend.EXPECT().TogglePaid(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	backend.EXPECT().Strategy().Return(ledger.StrategyOptimistic).AnyTimes()

	l := ledger.New(backend, user.User{ID: "u1", Role: user.RoleAdmin}, "")
	require.NoError(t, l.Load(context.Background()))

	rows := []export.Row{
		// Known id: updates in place and flips the paid flag.
		{
			ID:     "tx-1",
			Params: ledger.TransactionParams{Type: transaction.TypeIncome, Description: "edited", Amount: 120, Quantity: 1, Date: "2026-01-01", Currency: currency.USD},
			IsPaid: true,
		},
		// No id: created fresh.
		{
			Params: ledger.TransactionParams{Type: transaction.TypeExpense, Description: "new row", Amount: 30, Quantity: 2, Date: "2026-02-02", Currency: currency.SAR},
		},
		// Invalid: skipped, does not abort the run.
		{
			Params: ledger.TransactionParams{Type: transaction.TypeIncome, Description: "", Amount: 10, Quantity: 1, Currency: currency.USD},
		},
	}

	res, err := export.Apply(context.Background(), l, rows)
	require.NoError(t, err)

	assert.Equal(t, 1, res.Created)
	assert.Equal(t, 1, res.Updated)
	require.Len(t, res.Skipped, 1)
	assert.Equal(t, 3, res.Skipped[0].Row)

	txs := l.Transactions()
	require.Len(t, txs, 2)

	byID := make(map[string]transaction.Transaction, len(txs))
	for _, tx := range txs {
		byID[tx.ID] = tx
	}

	updated := byID["tx-1"]
	assert.Equal(t, "edited", updated.Description)
	assert.Equal(t, "ST-20260001", updated.InvoiceNumber)
	assert.True(t, updated.IsPaid)
}
