// Package ledger holds the client core: a local in-memory mirror of the
// authoritative backend plus the sync adapter that keeps the two consistent.
package ledger

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/storycreative/ledger/internal/appconfig"
	"github.com/storycreative/ledger/internal/currency"
	"github.com/storycreative/ledger/internal/stats"
	"github.com/storycreative/ledger/internal/transaction"
	"github.com/storycreative/ledger/internal/user"
)

// DefaultInvoicePrefix is used when no prefix is configured.
const DefaultInvoicePrefix = "ST"

// Ledger owns the local view of transactions, users, and config for one
// authenticated session. It is the only holder of that state: backends are
// mirrored from, never read around. All mutating methods check the session
// role against the policy table before touching the backend.
type Ledger struct {
	backend Backend
	session user.User
	prefix  string

	mu           sync.RWMutex
	transactions []transaction.Transaction
	users        []user.User
	config       appconfig.AppConfig

	stops []func()
}

// New creates a ledger for the given session user. Call Load before reading.
func New(b Backend, session user.User, invoicePrefix string) *Ledger {
	if invoicePrefix == "" {
		invoicePrefix = DefaultInvoicePrefix
	}

	return &Ledger{
		backend: b,
		session: session,
		prefix:  invoicePrefix,
		config:  appconfig.Default(),
	}
}

// Load fetches the full authoritative state and replaces the local mirror.
// On error the mirror is left unchanged.
func (l *Ledger) Load(ctx context.Context) error {
	d, err := l.backend.GetData(ctx)
	if err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.transactions = d.Transactions
	l.users = d.Users
	l.config = d.Config

	return nil
}

// TransactionParams carries the user-editable fields of a transaction.
type TransactionParams struct {
	Type         transaction.Type
	Description  string
	CustomerName string
	Amount       float64
	Quantity     int
	Date         string
	Currency     currency.Currency
}

func (p TransactionParams) validate() error {
	if !p.Type.Valid() {
		return &ValidationError{Field: "type", Reason: fmt.Sprintf("unknown type %q", p.Type)}
	}

	if strings.TrimSpace(p.Description) == "" {
		return &ValidationError{Field: "description", Reason: "must not be empty"}
	}

	if math.IsNaN(p.Amount) || math.IsInf(p.Amount, 0) || p.Amount < 0 {
		return &ValidationError{Field: "amount", Reason: "must be a non-negative number"}
	}

	if p.Quantity <= 0 {
		return &ValidationError{Field: "quantity", Reason: "must be a positive integer"}
	}

	if !p.Currency.Valid() {
		return &ValidationError{Field: "currency", Reason: fmt.Sprintf("unknown currency %q", p.Currency)}
	}

	if p.Date != "" {
		if _, err := time.Parse(time.DateOnly, p.Date); err != nil {
			return &ValidationError{Field: "date", Reason: "must be an ISO 8601 date"}
		}
	}

	return nil
}

// CreateTransaction assigns an id, an invoice number, and a rate snapshot,
// then pushes the new transaction to the backend.
//
// The invoice sequence is derived from the local transaction count, so it is
// only unique within a single non-concurrent client. Known gap, inherited
// from the system this one replaces; see DESIGN.md.
func (l *Ledger) CreateTransaction(ctx context.Context, p TransactionParams) (transaction.Transaction, error) {
	if err := l.allowed(user.OpSaveTransaction); err != nil {
		return transaction.Transaction{}, err
	}

	if err := p.validate(); err != nil {
		return transaction.Transaction{}, err
	}

	date := p.Date
	if date == "" {
		date = transaction.Today()
	}

	l.mu.RLock()
	seq := len(l.transactions) + 1
	rate := l.config.Rates.Rate(p.Currency)
	l.mu.RUnlock()

	tx := transaction.Transaction{
		ID:            uuid.NewString(),
		Type:          p.Type,
		Description:   p.Description,
		CustomerName:  p.CustomerName,
		Amount:        p.Amount,
		Quantity:      p.Quantity,
		Date:          date,
		Currency:      p.Currency,
		ExchangeRate:  rate,
		InvoiceNumber: fmt.Sprintf("%s-%d%04d", l.prefix, time.Now().Year(), seq),
	}

	if err := l.backend.SaveTransaction(ctx, tx); err != nil {
		return transaction.Transaction{}, err
	}

	if l.backend.Strategy() == StrategyRefetch {
		return tx, l.Load(ctx)
	}

	l.mu.Lock()
	l.transactions = append([]transaction.Transaction{tx}, l.transactions...)
	l.mu.Unlock()

	return tx, nil
}

// UpdateTransaction replaces the editable fields of an existing transaction.
// The id and invoice number are frozen; the exchange rate is re-captured
// from the current table because the record is being explicitly re-saved.
// The paid flag is left alone, it has its own operation.
func (l *Ledger) UpdateTransaction(ctx context.Context, id string, p TransactionParams) (transaction.Transaction, error) {
	if err := l.allowed(user.OpSaveTransaction); err != nil {
		return transaction.Transaction{}, err
	}

	if err := p.validate(); err != nil {
		return transaction.Transaction{}, err
	}

	l.mu.RLock()
	existing, idx := l.findTransaction(id)
	rate := l.config.Rates.Rate(p.Currency)
	l.mu.RUnlock()

	if idx < 0 {
		return transaction.Transaction{}, &ValidationError{Field: "id", Reason: "unknown transaction"}
	}

	date := p.Date
	if date == "" {
		date = existing.Date
	}

	tx := transaction.Transaction{
		ID:            existing.ID,
		Type:          p.Type,
		Description:   p.Description,
		CustomerName:  p.CustomerName,
		Amount:        p.Amount,
		Quantity:      p.Quantity,
		Date:          date,
		Currency:      p.Currency,
		ExchangeRate:  rate,
		InvoiceNumber: existing.InvoiceNumber,
		IsPaid:        existing.IsPaid,
	}

	if err := l.backend.SaveTransaction(ctx, tx); err != nil {
		return transaction.Transaction{}, err
	}

	if l.backend.Strategy() == StrategyRefetch {
		return tx, l.Load(ctx)
	}

	l.mu.Lock()
	if _, i := l.findTransaction(id); i >= 0 {
		l.transactions[i] = tx
	}
	l.mu.Unlock()

	return tx, nil
}

// DeleteTransaction removes a transaction. Deleting an id that is already
// gone is a no-op.
func (l *Ledger) DeleteTransaction(ctx context.Context, id string) error {
	if err := l.allowed(user.OpDeleteTransaction); err != nil {
		return err
	}

	if err := l.backend.DeleteTransaction(ctx, id); err != nil {
		return err
	}

	if l.backend.Strategy() == StrategyRefetch {
		return l.Load(ctx)
	}

	l.mu.Lock()
	if _, i := l.findTransaction(id); i >= 0 {
		l.transactions = append(l.transactions[:i], l.transactions[i+1:]...)
	}
	l.mu.Unlock()

	return nil
}

// TogglePaid flips the paid flag of a transaction as a minimal partial
// update, so concurrent edits to other fields are not clobbered.
func (l *Ledger) TogglePaid(ctx context.Context, id string) error {
	if err := l.allowed(user.OpTogglePaid); err != nil {
		return err
	}

	if err := l.backend.TogglePaid(ctx, id); err != nil {
		return err
	}

	if l.backend.Strategy() == StrategyRefetch {
		return l.Load(ctx)
	}

	l.mu.Lock()
	if _, i := l.findTransaction(id); i >= 0 {
		l.transactions[i].IsPaid = !l.transactions[i].IsPaid
	}
	l.mu.Unlock()

	return nil
}

// UpdateRates replaces the whole rate table atomically. Rate snapshots on
// already-saved transactions are not touched.
func (l *Ledger) UpdateRates(ctx context.Context, rates currency.Rates) error {
	if err := l.allowed(user.OpUpdateRates); err != nil {
		return err
	}

	if err := rates.Validate(); err != nil {
		return &ValidationError{Field: "rates", Reason: err.Error()}
	}

	if err := l.backend.UpdateRates(ctx, rates); err != nil {
		return err
	}

	if l.backend.Strategy() == StrategyRefetch {
		return l.Load(ctx)
	}

	l.mu.Lock()
	l.config.Rates = rates
	l.mu.Unlock()

	return nil
}

// UpdateConfig replaces the singleton config, rates included.
func (l *Ledger) UpdateConfig(ctx context.Context, cfg appconfig.AppConfig) error {
	if err := l.allowed(user.OpUpdateConfig); err != nil {
		return err
	}

	if err := cfg.Rates.Validate(); err != nil {
		return &ValidationError{Field: "rates", Reason: err.Error()}
	}

	if err := l.backend.UpdateConfig(ctx, cfg); err != nil {
		return err
	}

	if l.backend.Strategy() == StrategyRefetch {
		return l.Load(ctx)
	}

	l.mu.Lock()
	l.config = cfg
	l.mu.Unlock()

	return nil
}

// AddUser registers a new account. Gated to user-management roles.
func (l *Ledger) AddUser(ctx context.Context, u user.User) (user.User, error) {
	if err := l.allowed(user.OpManageUsers); err != nil {
		return user.User{}, err
	}

	if strings.TrimSpace(u.Name) == "" {
		return user.User{}, &ValidationError{Field: "name", Reason: "must not be empty"}
	}

	if strings.TrimSpace(u.Email) == "" {
		return user.User{}, &ValidationError{Field: "email", Reason: "must not be empty"}
	}

	if u.Password == "" {
		return user.User{}, &ValidationError{Field: "password", Reason: "must not be empty"}
	}

	if !u.Role.Valid() {
		return user.User{}, &ValidationError{Field: "role", Reason: fmt.Sprintf("unknown role %q", u.Role)}
	}

	if u.ID == "" {
		u.ID = uuid.NewString()
	}

	if err := l.backend.AddUser(ctx, u); err != nil {
		return user.User{}, err
	}

	if l.backend.Strategy() == StrategyRefetch {
		return u, l.Load(ctx)
	}

	l.mu.Lock()
	l.users = append(l.users, u)
	l.mu.Unlock()

	return u, nil
}

// DeleteUser removes an account by id. The bootstrap super-admin never
// appears in the registry, so it cannot be deleted here.
func (l *Ledger) DeleteUser(ctx context.Context, id string) error {
	if err := l.allowed(user.OpManageUsers); err != nil {
		return err
	}

	if err := l.backend.DeleteUser(ctx, id); err != nil {
		return err
	}

	if l.backend.Strategy() == StrategyRefetch {
		return l.Load(ctx)
	}

	l.mu.Lock()
	for i, u := range l.users {
		if u.ID == id {
			l.users = append(l.users[:i], l.users[i+1:]...)
			break
		}
	}
	l.mu.Unlock()

	return nil
}

// Watch subscribes to authoritative updates if the backend supports them.
// Each collection updates independently as notifications arrive. Call Close
// to release the subscriptions.
func (l *Ledger) Watch(ctx context.Context) error {
	w, ok := l.backend.(Watcher)
	if !ok {
		return nil
	}

	stopTx, err := w.WatchTransactions(ctx, func(txs []transaction.Transaction) {
		l.mu.Lock()
		l.transactions = txs
		l.mu.Unlock()
	})
	if err != nil {
		return fmt.Errorf("watching transactions: %w", err)
	}

	stopUsers, err := w.WatchUsers(ctx, func(users []user.User) {
		l.mu.Lock()
		l.users = users
		l.mu.Unlock()
	})
	if err != nil {
		stopTx()
		return fmt.Errorf("watching users: %w", err)
	}

	stopCfg, err := w.WatchConfig(ctx, func(cfg appconfig.AppConfig) {
		l.mu.Lock()
		l.config = cfg
		l.mu.Unlock()
	})
	if err != nil {
		stopTx()
		stopUsers()

		return fmt.Errorf("watching config: %w", err)
	}

	l.mu.Lock()
	l.stops = append(l.stops, stopTx, stopUsers, stopCfg)
	l.mu.Unlock()

	return nil
}

// Close releases any active subscriptions. After Close no further updates
// are applied to local state.
func (l *Ledger) Close() {
	l.mu.Lock()
	stops := l.stops
	l.stops = nil
	l.mu.Unlock()

	for _, stop := range stops {
		stop()
	}
}

// SessionUser returns the user this ledger was opened for.
func (l *Ledger) SessionUser() user.User { return l.session }

// Transactions returns a copy of the local mirror, newest first.
func (l *Ledger) Transactions() []transaction.Transaction {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]transaction.Transaction, len(l.transactions))
	copy(out, l.transactions)

	return out
}

// Users returns a copy of the user registry mirror.
func (l *Ledger) Users() []user.User {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]user.User, len(l.users))
	copy(out, l.users)

	return out
}

// Config returns the current application config.
func (l *Ledger) Config() appconfig.AppConfig {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.config
}

// Stats recomputes the dashboard statistics from the full transaction set.
func (l *Ledger) Stats() stats.FinancialStats {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return stats.Compute(l.transactions)
}

func (l *Ledger) allowed(op user.Operation) error {
	if !l.session.Role.Can(op) {
		return &PermissionError{Role: l.session.Role, Op: op}
	}

	return nil
}

// findTransaction must be called with at least a read lock held.
func (l *Ledger) findTransaction(id string) (transaction.Transaction, int) {
	for i, t := range l.transactions {
		if t.ID == id {
			return t, i
		}
	}

	return transaction.Transaction{}, -1
}
