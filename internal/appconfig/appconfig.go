// Package appconfig holds the per-deployment application settings document.
package appconfig

import "github.com/storycreative/ledger/internal/currency"

// AppConfig wraps the exchange-rate table plus sync metadata. There is
// exactly one instance per deployment; it is read and replaced as a whole
// through the same backend contract as transactions.
type AppConfig struct {
	SheetURL      string         `json:"sheetUrl"`
	GoogleSheetID string         `json:"googleSheetId"`
	LastSync      string         `json:"lastSync"`
	Rates         currency.Rates `json:"rates"`
}

// Default returns the configuration a fresh deployment starts with.
func Default() AppConfig {
	return AppConfig{Rates: currency.DefaultRates()}
}
