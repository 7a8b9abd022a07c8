package currency_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/storycreative/ledger/internal/currency"
)

func TestRates_Validate(t *testing.T) {
	tests := []struct {
		name    string
		rates   currency.Rates
		wantErr bool
	}{
		{
			name:  "Defaults",
			rates: currency.DefaultRates(),
		},
		{
			name:    "ReferenceNotIdentity",
			rates:   currency.Rates{USD: 2, TRY: 32, SYP: 14000, SAR: 3.75},
			wantErr: true,
		},
		{
			name:    "ZeroRate",
			rates:   currency.Rates{USD: 1, TRY: 0, SYP: 14000, SAR: 3.75},
			wantErr: true,
		},
		{
			name:    "NegativeRate",
			rates:   currency.Rates{USD: 1, TRY: 32, SYP: -1, SAR: 3.75},
			wantErr: true,
		},
		{
			name:    "NaNRate",
			rates:   currency.Rates{USD: 1, TRY: 32, SYP: 14000, SAR: math.NaN()},
			wantErr: true,
		},
		{
			name:    "InfiniteRate",
			rates:   currency.Rates{USD: 1, TRY: math.Inf(1), SYP: 14000, SAR: 3.75},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.rates.Validate()

			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			assert.NoError(t, err)
		})
	}
}

func TestRates_Rate(t *testing.T) {
	rates := currency.DefaultRates()

	assert.Equal(t, 1.0, rates.Rate(currency.USD))
	assert.Equal(t, 32.0, rates.Rate(currency.TRY))
	assert.Equal(t, 14000.0, rates.Rate(currency.SYP))
	assert.Equal(t, 3.75, rates.Rate(currency.SAR))

	// Unknown currencies fall back to the identity rate.
	assert.Equal(t, 1.0, rates.Rate(currency.Currency("EUR")))
}

func TestCurrency_Valid(t *testing.T) {
	for _, c := range currency.All {
		assert.True(t, c.Valid(), "expected %s to be valid", c)
	}

	assert.False(t, currency.Currency("EUR").Valid())
	assert.False(t, currency.Currency("").Valid())
}
