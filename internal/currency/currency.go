package currency

import (
	"fmt"
	"math"
)

// Currency identifies one of the supported currencies.
type Currency string

const (
	USD Currency = "USD"
	TRY Currency = "TRY"
	SYP Currency = "SYP"
	SAR Currency = "SAR"
)

// Reference is the currency all reporting figures are normalized to.
const Reference = USD

// All lists the supported currencies in display order.
var All = []Currency{USD, TRY, SYP, SAR}

// Valid reports whether c is one of the supported currencies.
func (c Currency) Valid() bool {
	switch c {
	case USD, TRY, SYP, SAR:
		return true
	}

	return false
}

// Rates maps each supported currency to its rate versus the reference
// currency, expressed as units of that currency per one unit of reference.
// The reference currency's own rate is always 1.
type Rates struct {
	USD float64 `json:"USD"`
	TRY float64 `json:"TRY"`
	SYP float64 `json:"SYP"`
	SAR float64 `json:"SAR"`
}

// DefaultRates returns the rate table a fresh deployment starts with.
func DefaultRates() Rates {
	return Rates{USD: 1, TRY: 32, SYP: 14000, SAR: 3.75}
}

// Rate returns the rate for the given currency, or 1 for unknown currencies
// so that callers fall back to reference-currency arithmetic.
func (r Rates) Rate(c Currency) float64 {
	switch c {
	case USD:
		return r.USD
	case TRY:
		return r.TRY
	case SYP:
		return r.SYP
	case SAR:
		return r.SAR
	}

	return 1
}

// Validate checks that every rate is a finite positive number and that the
// reference currency is pinned at the identity value. A rate table is
// replaced as a whole, so a single bad value rejects the entire update.
func (r Rates) Validate() error {
	if r.USD != 1 {
		return fmt.Errorf("rate for %s must be 1, got %v", Reference, r.USD)
	}

	for _, c := range All {
		v := r.Rate(c)
		if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
			return fmt.Errorf("rate for %s must be a finite positive number, got %v", c, v)
		}
	}

	return nil
}
