package ledger

import (
	"context"

	"github.com/gofrs/uuid"
	"github.com/vasiliy-maslov/production-orders/internal/apperr"
)

// ErrOrderReferenceNotFound is returned when an entry references an order that does not exist.
var ErrOrderReferenceNotFound = apperr.New(apperr.ErrNotFound, "referenced order not found")

type Repository interface {
	// List returns entries matching f, newest date first.
	List(ctx context.Context, f Filter) ([]Entry, error)
	Create(ctx context.Context, e *Entry) error
	Totals(ctx context.Context, f Filter) (Summary, error)
	DeleteByOrderID(ctx context.Context, orderID uuid.UUID) (int64, error)
}
