package catalog

import (
	"context"

	"github.com/vasiliy-maslov/production-orders/internal/apperr"
)

var ErrProductNotFound = apperr.New(apperr.ErrNotFound, "product not found")

// Repository is implemented by every store backend.
type Repository interface {
	ListActive(ctx context.Context) ([]Product, error)
	GetByID(ctx context.Context, id int64) (*Product, error)
	// Create assigns the next integer id.
	Create(ctx context.Context, in Input) (*Product, error)
	Update(ctx context.Context, id int64, in Input) (*Product, error)
	Count(ctx context.Context) (int64, error)
}
