package user

import (
	"context"

	"github.com/vasiliy-maslov/production-orders/internal/apperr"
)

var (
	ErrUserNotFound = apperr.New(apperr.ErrNotFound, "user not found")
	ErrNameTaken    = apperr.New(apperr.ErrAlreadyExists, "user name already taken")
)

type Repository interface {
	// Create assigns the next integer id. Returns ErrNameTaken on a duplicate name.
	Create(ctx context.Context, in CreateInput) (*User, error)
	List(ctx context.Context) ([]User, error)
	GetByName(ctx context.Context, name string) (*User, error)
	Count(ctx context.Context) (int64, error)
}
