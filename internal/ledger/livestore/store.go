// Package livestore is the live-subscription backend: writes go straight to
// Postgres and local state is reconciled from LISTEN/NOTIFY. The local cache
// is never the source of truth, only a mirror of the last notification.
package livestore

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/storycreative/ledger/internal/appconfig"
	"github.com/storycreative/ledger/internal/ledger"
	"github.com/storycreative/ledger/internal/postgres"
	"github.com/storycreative/ledger/internal/transaction"
	"github.com/storycreative/ledger/internal/user"
)

// refreshTimeout bounds the refetch triggered by a single notification.
const refreshTimeout = 15 * time.Second

type Store struct {
	*postgres.Store

	dsn string
}

// New wraps the shared Postgres store; dsn is used to open one dedicated
// listening connection per subscription.
func New(db *sql.DB, dsn string) *Store {
	return &Store{Store: postgres.New(db), dsn: dsn}
}

// Strategy is optimistic: mutations apply locally at once and the
// subscription delivers the authoritative result afterwards.
func (s *Store) Strategy() ledger.Strategy { return ledger.StrategyOptimistic }

// WatchTransactions delivers the full transaction list on every change
// notification. The returned stop function releases the listener; without
// it the connection leaks.
func (s *Store) WatchTransactions(ctx context.Context, fn func([]transaction.Transaction)) (func(), error) {
	return s.watch(ctx, postgres.ChannelTransactions, func(ctx context.Context) error {
		txs, err := s.ListTransactions(ctx)
		if err != nil {
			return err
		}

		fn(txs)

		return nil
	})
}

// WatchUsers delivers the full user registry on every change notification.
func (s *Store) WatchUsers(ctx context.Context, fn func([]user.User)) (func(), error) {
	return s.watch(ctx, postgres.ChannelUsers, func(ctx context.Context) error {
		users, err := s.ListUsers(ctx)
		if err != nil {
			return err
		}

		fn(users)

		return nil
	})
}

// WatchConfig delivers the config document on every change notification.
func (s *Store) WatchConfig(ctx context.Context, fn func(appconfig.AppConfig)) (func(), error) {
	return s.watch(ctx, postgres.ChannelConfig, func(ctx context.Context) error {
		cfg, err := s.ReadConfig(ctx)
		if err != nil {
			return err
		}

		fn(cfg)

		return nil
	})
}

// watch opens a dedicated connection, LISTENs on channel, and invokes
// refresh for every notification until the stop function is called. A
// failed refresh is logged and skipped; the next notification retries.
func (s *Store) watch(ctx context.Context, channel string, refresh func(context.Context) error) (func(), error) {
	conn, err := pgx.Connect(ctx, s.dsn)
	if err != nil {
		return nil, &ledger.ConnectivityError{Op: "listen " + channel, Err: err}
	}

	if _, err := conn.Exec(ctx, fmt.Sprintf("LISTEN %s", channel)); err != nil {
		conn.Close(ctx)
		return nil, &ledger.ConnectivityError{Op: "listen " + channel, Err: err}
	}

	watchCtx, cancel := context.WithCancel(context.Background())

	go func() {
		defer func() {
			closeCtx, closeCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer closeCancel()
			conn.Close(closeCtx)
		}()

		for {
			if _, err := conn.WaitForNotification(watchCtx); err != nil {
				if watchCtx.Err() != nil {
					return
				}

				slog.Error("notification wait failed", "channel", channel, "error", err)

				return
			}

			refreshCtx, refreshCancel := context.WithTimeout(watchCtx, refreshTimeout)
			if err := refresh(refreshCtx); err != nil && watchCtx.Err() == nil {
				slog.Warn("refresh after notification failed", "channel", channel, "error", err)
			}
			refreshCancel()
		}
	}()

	return cancel, nil
}
