package ledger

import (
	"context"

	"github.com/storycreative/ledger/internal/appconfig"
	"github.com/storycreative/ledger/internal/currency"
	"github.com/storycreative/ledger/internal/transaction"
	"github.com/storycreative/ledger/internal/user"
)

// Data is the full authoritative state of a deployment, as returned by a
// single fetch. Transactions are ordered newest-first.
type Data struct {
	Transactions []transaction.Transaction `json:"transactions"`
	Users        []user.User               `json:"users"`
	Config       appconfig.AppConfig       `json:"config"`
}

// Strategy tells the ledger what to do with local state after a successful
// write against a backend.
type Strategy int

const (
	// StrategyOptimistic applies the mutation to local state immediately;
	// reconciliation happens on the next authoritative signal (a watch
	// notification or an explicit reload).
	StrategyOptimistic Strategy = iota

	// StrategyRefetch discards local state after every write and refetches
	// everything, so server-assigned fields are never shadowed by drifted
	// local copies. Correctness favored over latency.
	StrategyRefetch
)

//go:generate mockgen -source=backend.go -destination=backend_mock.go -package=ledger
//
// Backend is the persistence boundary. Exactly one backend is authoritative
// per deployment; the ledger only ever mirrors it.
type Backend interface {
	// GetData fetches the full state: transactions, users, and config.
	GetData(ctx context.Context) (Data, error)

	// SaveTransaction upserts by id: creates if absent, replaces all fields
	// if present.
	SaveTransaction(ctx context.Context, tx transaction.Transaction) error

	// DeleteTransaction removes by id. Deleting an absent id is a no-op,
	// not an error.
	DeleteTransaction(ctx context.Context, id string) error

	// TogglePaid flips only the isPaid flag, leaving every other field
	// untouched so concurrent edits are not clobbered.
	TogglePaid(ctx context.Context, id string) error

	// UpdateRates replaces the whole rate mapping atomically.
	UpdateRates(ctx context.Context, rates currency.Rates) error

	// AddUser and DeleteUser mutate the user registry.
	AddUser(ctx context.Context, u user.User) error
	DeleteUser(ctx context.Context, id string) error

	// UpdateConfig replaces the singleton config, rates included.
	UpdateConfig(ctx context.Context, cfg appconfig.AppConfig) error

	// Strategy reports how the ledger should treat local state after writes.
	Strategy() Strategy
}

// Watcher is implemented by backends that can push authoritative updates.
// Each collection is watched independently; there is no ordering guarantee
// across collections. The returned stop function releases the subscription,
// after which no further snapshots are delivered.
type Watcher interface {
	WatchTransactions(ctx context.Context, fn func([]transaction.Transaction)) (func(), error)
	WatchUsers(ctx context.Context, fn func([]user.User)) (func(), error)
	WatchConfig(ctx context.Context, fn func(appconfig.AppConfig)) (func(), error)
}
