// Package postgres is the authoritative store behind the API server and the
// live-subscription backend. Every write is followed by a pg_notify on the
// collection's channel so listening clients can refetch.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/storycreative/ledger/internal/appconfig"
	"github.com/storycreative/ledger/internal/currency"
	"github.com/storycreative/ledger/internal/ledger"
	"github.com/storycreative/ledger/internal/transaction"
	"github.com/storycreative/ledger/internal/user"
)

// Notification channels, one per collection. No cross-channel ordering is
// implied.
const (
	ChannelTransactions = "ledger_transactions"
	ChannelUsers        = "ledger_users"
	ChannelConfig       = "ledger_config"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Strategy is optimistic: the store is authoritative, so a successful write
// is the truth.
func (s *Store) Strategy() ledger.Strategy { return ledger.StrategyOptimistic }

const selectTransactionColumns = `
	id, invoice_number, date, type, customer_name, description,
	amount, quantity, currency, exchange_rate, is_paid
`

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanTransaction(sc scanner) (transaction.Transaction, error) {
	var (
		tx      transaction.Transaction
		typeStr string
		currStr string
	)

	if err := sc.Scan(
		&tx.ID, &tx.InvoiceNumber, &tx.Date, &typeStr, &tx.CustomerName,
		&tx.Description, &tx.Amount, &tx.Quantity, &currStr, &tx.ExchangeRate, &tx.IsPaid,
	); err != nil {
		return transaction.Transaction{}, err
	}

	tx.Type = transaction.Type(typeStr)
	tx.Currency = currency.Currency(currStr)

	return tx, nil
}

func (s *Store) GetData(ctx context.Context) (ledger.Data, error) {
	txs, err := s.ListTransactions(ctx)
	if err != nil {
		return ledger.Data{}, err
	}

	users, err := s.ListUsers(ctx)
	if err != nil {
		return ledger.Data{}, err
	}

	cfg, err := s.ReadConfig(ctx)
	if err != nil {
		return ledger.Data{}, err
	}

	return ledger.Data{Transactions: txs, Users: users, Config: cfg}, nil
}

func (s *Store) ListTransactions(ctx context.Context) ([]transaction.Transaction, error) {
	query := `SELECT ` + selectTransactionColumns + `
		FROM transactions
		ORDER BY date DESC, created_at DESC`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing transactions: %w", err)
	}
	defer rows.Close()

	var txs []transaction.Transaction

	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning transaction: %w", err)
		}

		txs = append(txs, tx)
	}

	return txs, rows.Err()
}

func (s *Store) ListUsers(ctx context.Context) ([]user.User, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, email, password, role FROM users ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	defer rows.Close()

	var users []user.User

	for rows.Next() {
		var u user.User
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.Password, &u.Role); err != nil {
			return nil, fmt.Errorf("scanning user: %w", err)
		}

		users = append(users, u)
	}

	return users, rows.Err()
}

func (s *Store) ReadConfig(ctx context.Context) (appconfig.AppConfig, error) {
	cfg := appconfig.Default()

	var raw string

	err := s.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key_name = 'config'`).Scan(&raw)

	switch {
	case err == sql.ErrNoRows:
	case err != nil:
		return cfg, fmt.Errorf("reading config: %w", err)
	default:
		if err := json.Unmarshal([]byte(raw), &cfg); err != nil {
			return cfg, fmt.Errorf("decoding config: %w", err)
		}
	}

	err = s.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key_name = 'rates'`).Scan(&raw)

	switch {
	case err == sql.ErrNoRows:
	case err != nil:
		return cfg, fmt.Errorf("reading rates: %w", err)
	default:
		if err := json.Unmarshal([]byte(raw), &cfg.Rates); err != nil {
			return cfg, fmt.Errorf("decoding rates: %w", err)
		}
	}

	return cfg, nil
}

func (s *Store) SaveTransaction(ctx context.Context, tx transaction.Transaction) error {
	query := `
		INSERT INTO transactions (id, invoice_number, date, type, customer_name, description,
			amount, quantity, currency, exchange_rate, is_paid)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO UPDATE SET
			invoice_number = EXCLUDED.invoice_number,
			date = EXCLUDED.date,
			type = EXCLUDED.type,
			customer_name = EXCLUDED.customer_name,
			description = EXCLUDED.description,
			amount = EXCLUDED.amount,
			quantity = EXCLUDED.quantity,
			currency = EXCLUDED.currency,
			exchange_rate = EXCLUDED.exchange_rate,
			is_paid = EXCLUDED.is_paid,
			updated_at = NOW()
	`

	_, err := s.db.ExecContext(ctx, query,
		tx.ID, tx.InvoiceNumber, tx.Date, string(tx.Type), tx.CustomerName,
		tx.Description, tx.Amount, tx.Quantity, string(tx.Currency), tx.ExchangeRate, tx.IsPaid,
	)
	if err != nil {
		return fmt.Errorf("saving transaction: %w", err)
	}

	return s.notify(ctx, ChannelTransactions)
}

func (s *Store) DeleteTransaction(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = $1`, id); err != nil {
		return fmt.Errorf("deleting transaction: %w", err)
	}

	return s.notify(ctx, ChannelTransactions)
}

func (s *Store) TogglePaid(ctx context.Context, id string) error {
	query := `UPDATE transactions SET is_paid = NOT is_paid, updated_at = NOW() WHERE id = $1`
	if _, err := s.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("toggling paid: %w", err)
	}

	return s.notify(ctx, ChannelTransactions)
}

func (s *Store) UpdateRates(ctx context.Context, rates currency.Rates) error {
	raw, err := json.Marshal(rates)
	if err != nil {
		return fmt.Errorf("encoding rates: %w", err)
	}

	if err := s.putSetting(ctx, "rates", string(raw)); err != nil {
		return fmt.Errorf("updating rates: %w", err)
	}

	return s.notify(ctx, ChannelConfig)
}

func (s *Store) UpdateConfig(ctx context.Context, cfg appconfig.AppConfig) error {
	rawCfg, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	rawRates, err := json.Marshal(cfg.Rates)
	if err != nil {
		return fmt.Errorf("encoding rates: %w", err)
	}

	if err := s.putSetting(ctx, "config", string(rawCfg)); err != nil {
		return fmt.Errorf("updating config: %w", err)
	}

	if err := s.putSetting(ctx, "rates", string(rawRates)); err != nil {
		return fmt.Errorf("updating config rates: %w", err)
	}

	return s.notify(ctx, ChannelConfig)
}

func (s *Store) putSetting(ctx context.Context, key, value string) error {
	query := `
		INSERT INTO settings (key_name, value) VALUES ($1, $2)
		ON CONFLICT (key_name) DO UPDATE SET value = EXCLUDED.value
	`

	_, err := s.db.ExecContext(ctx, query, key, value)

	return err
}

func (s *Store) AddUser(ctx context.Context, u user.User) error {
	query := `INSERT INTO users (id, name, email, password, role) VALUES ($1, $2, $3, $4, $5)`

	if _, err := s.db.ExecContext(ctx, query, u.ID, u.Name, u.Email, u.Password, string(u.Role)); err != nil {
		return fmt.Errorf("adding user: %w", err)
	}

	return s.notify(ctx, ChannelUsers)
}

func (s *Store) DeleteUser(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id); err != nil {
		return fmt.Errorf("deleting user: %w", err)
	}

	return s.notify(ctx, ChannelUsers)
}

// GetUserByEmail looks an account up for login. sql.ErrNoRows passes
// through so callers can distinguish "unknown user" from storage failure.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (user.User, error) {
	var u user.User

	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, email, password, role FROM users WHERE email = $1`, email,
	).Scan(&u.ID, &u.Name, &u.Email, &u.Password, &u.Role)
	if err != nil {
		return user.User{}, err
	}

	return u, nil
}

func (s *Store) notify(ctx context.Context, channel string) error {
	if _, err := s.db.ExecContext(ctx, `SELECT pg_notify($1, '')`, channel); err != nil {
		return fmt.Errorf("notifying %s: %w", channel, err)
	}

	return nil
}
