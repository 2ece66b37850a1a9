// Package sqlite stores everything in a single SQLite file through sqlx.
package sqlite

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/production-orders/internal/catalog"
	"github.com/vasiliy-maslov/production-orders/internal/ledger"
	"github.com/vasiliy-maslov/production-orders/internal/order"
	"github.com/vasiliy-maslov/production-orders/internal/user"
)

type Store struct {
	db *sqlx.DB
}

// New wraps an open, migrated database. The Store owns db from now on.
func New(db *sqlx.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Orders() order.Repository     { return &orderRepository{q: s.db} }
func (s *Store) Products() catalog.Repository { return &productRepository{q: s.db} }
func (s *Store) Ledger() ledger.Repository    { return &ledgerRepository{q: s.db} }
func (s *Store) Users() user.Repository       { return &userRepository{q: s.db} }

// WithinTx runs fn in a transaction that took the database write lock at BEGIN.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx order.Tx) error) (err error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("repository: failed to begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			log.Error().Interface("panic_value", p).Msg("Panic recovered during transaction, rolling back")
			if rbErr := tx.Rollback(); rbErr != nil {
				log.Error().Err(rbErr).Msg("Failed to rollback transaction after panic")
			}
			panic(p)
		} else if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				log.Error().Err(rbErr).Msg("Failed to rollback transaction")
			}
		} else if commitErr := tx.Commit(); commitErr != nil {
			log.Error().Err(commitErr).Msg("Failed to commit transaction")
			err = fmt.Errorf("repository: failed to commit transaction: %w", commitErr)
		}
	}()

	err = fn(ctx, txRepos{q: tx})
	return err
}

func (s *Store) Close() error {
	return s.db.Close()
}

type txRepos struct {
	q sqlx.ExtContext
}

func (t txRepos) Orders() order.Repository     { return &orderRepository{q: t.q} }
func (t txRepos) Products() catalog.Repository { return &productRepository{q: t.q} }
func (t txRepos) Ledger() ledger.Repository    { return &ledgerRepository{q: t.q} }

var _ order.Store = (*Store)(nil)

func isConstraint(err error, code sqlite3.ErrNoExtended) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == code
}

// where collects AND-ed conditions with positional arguments.
type where struct {
	clauses []string
	args    []any
}

func (w *where) add(clause string, arg any) {
	w.clauses = append(w.clauses, clause)
	w.args = append(w.args, arg)
}

func (w *where) String() string {
	if len(w.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.clauses, " AND ")
}
