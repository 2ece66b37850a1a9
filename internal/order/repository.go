package order

import (
	"context"

	"github.com/gofrs/uuid"
	"github.com/vasiliy-maslov/production-orders/internal/apperr"
	"github.com/vasiliy-maslov/production-orders/internal/catalog"
	"github.com/vasiliy-maslov/production-orders/internal/ledger"
)

var (
	ErrOrderNotFound = apperr.New(apperr.ErrNotFound, "order not found")
	// ErrDuplicateNumber means another creator committed the same number first.
	ErrDuplicateNumber = apperr.New(apperr.ErrConflict, "order number already taken, please retry")
)

type Repository interface {
	// NextNumber reserves the next number for year. Inside a transaction the
	// reservation is released on rollback.
	NextNumber(ctx context.Context, year int) (string, error)
	// Create inserts the order and its lines.
	Create(ctx context.Context, o *Order) error
	// GetByID returns the order with lines, each enriched with its product.
	GetByID(ctx context.Context, id uuid.UUID) (*Order, error)
	// GetForUpdate is GetByID holding a lock on the order until the enclosing
	// transaction ends.
	GetForUpdate(ctx context.Context, id uuid.UUID) (*Order, error)
	// List returns orders matching f, newest first.
	List(ctx context.Context, f Filter) ([]Order, error)
	// Update persists status, tracking code, shipping cost and updated_at.
	Update(ctx context.Context, o *Order) error
}

// Tx exposes the repositories bound to one unit of work.
type Tx interface {
	Orders() Repository
	Products() catalog.Repository
	Ledger() ledger.Repository
}

// Transactor runs fn atomically: either every write made through tx is
// committed or none is.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

// Store is what the order service needs from a backend. Outside WithinTx the
// repositories run single statements.
type Store interface {
	Tx
	Transactor
}
