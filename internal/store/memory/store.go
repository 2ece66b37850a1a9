// Package memory keeps every repository in process memory. A unit of work runs
// against a copy of the state that replaces the live state only when the work
// succeeds, so failed work leaves nothing behind.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/production-orders/internal/catalog"
	"github.com/vasiliy-maslov/production-orders/internal/ledger"
	"github.com/vasiliy-maslov/production-orders/internal/order"
	"github.com/vasiliy-maslov/production-orders/internal/user"
)

type state struct {
	products      map[int64]catalog.Product
	nextProductID int64
	orders        map[uuid.UUID]order.Order
	entries       map[uuid.UUID]ledger.Entry
	users         map[int64]user.User
	nextUserID    int64
}

func newState() *state {
	return &state{
		products: make(map[int64]catalog.Product),
		orders:   make(map[uuid.UUID]order.Order),
		entries:  make(map[uuid.UUID]ledger.Entry),
		users:    make(map[int64]user.User),
	}
}

func (s *state) clone() *state {
	c := &state{
		products:      make(map[int64]catalog.Product, len(s.products)),
		nextProductID: s.nextProductID,
		orders:        make(map[uuid.UUID]order.Order, len(s.orders)),
		entries:       make(map[uuid.UUID]ledger.Entry, len(s.entries)),
		users:         make(map[int64]user.User, len(s.users)),
		nextUserID:    s.nextUserID,
	}
	for k, v := range s.products {
		c.products[k] = v
	}
	for k, v := range s.orders {
		c.orders[k] = cloneOrder(v)
	}
	for k, v := range s.entries {
		c.entries[k] = v
	}
	for k, v := range s.users {
		c.users[k] = v
	}
	return c
}

// Store implements order.Store and user.Repository access over one mutex.
type Store struct {
	mu sync.Mutex
	st *state
}

func New() *Store {
	return &Store{st: newState()}
}

func (s *Store) live() repos {
	return repos{
		st: func() *state { return s.st },
		lock: func() func() {
			s.mu.Lock()
			return s.mu.Unlock
		},
	}
}

func (s *Store) Orders() order.Repository     { return orderRepository{s.live()} }
func (s *Store) Products() catalog.Repository { return productRepository{s.live()} }
func (s *Store) Ledger() ledger.Repository    { return ledgerRepository{s.live()} }
func (s *Store) Users() user.Repository       { return userRepository{s.live()} }

// WithinTx holds the store lock for the whole of fn, which makes units of work
// strictly serial.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx order.Tx) error) (err error) {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("memory: transaction not started: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.st.clone()
	defer func() {
		if p := recover(); p != nil {
			log.Error().Interface("panic", p).Msg("memory: transaction discarded after panic")
			panic(p)
		}
	}()

	if err = fn(ctx, txRepos{repos{
		st:   func() *state { return snapshot },
		lock: func() func() { return func() {} },
	}}); err != nil {
		return err
	}
	s.st = snapshot
	return nil
}

// Close is a no-op kept for symmetry with the database stores.
func (s *Store) Close() error {
	return nil
}

type repos struct {
	st   func() *state
	lock func() (unlock func())
}

type txRepos struct {
	r repos
}

func (t txRepos) Orders() order.Repository     { return orderRepository{t.r} }
func (t txRepos) Products() catalog.Repository { return productRepository{t.r} }
func (t txRepos) Ledger() ledger.Repository    { return ledgerRepository{t.r} }

var (
	_ order.Store     = (*Store)(nil)
	_ user.Repository = userRepository{}
)
