// Package localstore is the local-only backend: the SQLite database under a
// configurable path is itself authoritative, persisted on every mutation.
// Single-process, single-user consistency only.
package localstore

import (
	"context"
	"database/sql"
	"encoding/json"
	_ "embed"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/storycreative/ledger/internal/appconfig"
	"github.com/storycreative/ledger/internal/currency"
	"github.com/storycreative/ledger/internal/ledger"
	"github.com/storycreative/ledger/internal/transaction"
	"github.com/storycreative/ledger/internal/user"
)

//go:embed schema.sql
var schema string

type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and applies the schema.
func Open(path string) (*Store, error) {
	dsn := fmt.Sprintf("%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// SQLite allows a single writer; more connections just cause lock errors.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("applying schema: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Strategy reports optimistic writes: this store has no other writers to
// reconcile with.
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
		tx       transaction.Transaction
		currStr  string
		typeStr  string
		paidFlag int
	)

	if err := sc.Scan(
		&tx.ID, &tx.InvoiceNumber, &tx.Date, &typeStr, &tx.CustomerName,
		&tx.Description, &tx.Amount, &tx.Quantity, &currStr, &tx.ExchangeRate, &paidFlag,
	); err != nil {
		return transaction.Transaction{}, err
	}

	tx.Type = transaction.Type(typeStr)
	tx.Currency = currency.Currency(currStr)
	tx.IsPaid = paidFlag != 0

	return tx, nil
}

func (s *Store) GetData(ctx context.Context) (ledger.Data, error) {
	txs, err := s.listTransactions(ctx)
	if err != nil {
		return ledger.Data{}, &ledger.ConnectivityError{Op: "get data", Err: err}
	}

	users, err := s.listUsers(ctx)
	if err != nil {
		return ledger.Data{}, &ledger.ConnectivityError{Op: "get data", Err: err}
	}

	cfg, err := s.readConfig(ctx)
	if err != nil {
		return ledger.Data{}, &ledger.ConnectivityError{Op: "get data", Err: err}
	}

	return ledger.Data{Transactions: txs, Users: users, Config: cfg}, nil
}

func (s *Store) listTransactions(ctx context.Context) ([]transaction.Transaction, error) {
	query := `SELECT ` + selectTransactionColumns + `
		FROM transactions
		ORDER BY date DESC, rowid DESC`

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

func (s *Store) listUsers(ctx context.Context) ([]user.User, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, email, password, role FROM users ORDER BY rowid`)
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

func (s *Store) readConfig(ctx context.Context) (appconfig.AppConfig, error) {
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
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			invoice_number = excluded.invoice_number,
			date = excluded.date,
			type = excluded.type,
			customer_name = excluded.customer_name,
			description = excluded.description,
			amount = excluded.amount,
			quantity = excluded.quantity,
			currency = excluded.currency,
			exchange_rate = excluded.exchange_rate,
			is_paid = excluded.is_paid
	`

	_, err := s.db.ExecContext(ctx, query,
		tx.ID, tx.InvoiceNumber, tx.Date, string(tx.Type), tx.CustomerName,
		tx.Description, tx.Amount, tx.Quantity, string(tx.Currency), tx.ExchangeRate, boolToInt(tx.IsPaid),
	)
	if err != nil {
		return &ledger.ConnectivityError{Op: "save transaction", Err: err}
	}

	return nil
}

func (s *Store) DeleteTransaction(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id); err != nil {
		return &ledger.ConnectivityError{Op: "delete transaction", Err: err}
	}

	return nil
}

func (s *Store) TogglePaid(ctx context.Context, id string) error {
	query := `UPDATE transactions SET is_paid = 1 - is_paid WHERE id = ?`
	if _, err := s.db.ExecContext(ctx, query, id); err != nil {
		return &ledger.ConnectivityError{Op: "toggle paid", Err: err}
	}

	return nil
}

func (s *Store) UpdateRates(ctx context.Context, rates currency.Rates) error {
	raw, err := json.Marshal(rates)
	if err != nil {
		return fmt.Errorf("encoding rates: %w", err)
	}

	if err := s.putSetting(ctx, "rates", string(raw)); err != nil {
		return &ledger.ConnectivityError{Op: "update rates", Err: err}
	}

	return nil
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
		return &ledger.ConnectivityError{Op: "update config", Err: err}
	}

	if err := s.putSetting(ctx, "rates", string(rawRates)); err != nil {
		return &ledger.ConnectivityError{Op: "update config", Err: err}
	}

	return nil
}

func (s *Store) putSetting(ctx context.Context, key, value string) error {
	query := `
		INSERT INTO settings (key_name, value) VALUES (?, ?)
		ON CONFLICT(key_name) DO UPDATE SET value = excluded.value
	`

	_, err := s.db.ExecContext(ctx, query, key, value)

	return err
}

func (s *Store) AddUser(ctx context.Context, u user.User) error {
	query := `INSERT INTO users (id, name, email, password, role) VALUES (?, ?, ?, ?, ?)`

	_, err := s.db.ExecContext(ctx, query, u.ID, u.Name, u.Email, u.Password, string(u.Role))
	if err != nil {
		return &ledger.ConnectivityError{Op: "add user", Err: err}
	}

	return nil
}

func (s *Store) DeleteUser(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id); err != nil {
		return &ledger.ConnectivityError{Op: "delete user", Err: err}
	}

	return nil
}

// GetUserByEmail looks an account up for login. sql.ErrNoRows is passed
// through so callers can distinguish "unknown user" from storage failure.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (user.User, error) {
	var u user.User

	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, email, password, role FROM users WHERE email = ?`, email,
	).Scan(&u.ID, &u.Name, &u.Email, &u.Password, &u.Role)
	if err != nil {
		return user.User{}, err
	}

	return u, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}

	return 0
}
