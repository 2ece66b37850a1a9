package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/mattn/go-sqlite3"
	"github.com/vasiliy-maslov/production-orders/internal/user"
)

type userRepository struct {
	q sqlx.ExtContext
}

func (r *userRepository) Create(ctx context.Context, in user.CreateInput) (*user.User, error) {
	res, err := r.q.ExecContext(ctx, `INSERT INTO users (name, role) VALUES (?, ?)`, in.Name, in.Role)
	if err != nil {
		if isConstraint(err, sqlite3.ErrConstraintUnique) {
			return nil, user.ErrNameTaken
		}
		return nil, fmt.Errorf("repository: failed to insert user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("repository: failed to read user id: %w", err)
	}
	return &user.User{ID: id, Name: in.Name, Role: in.Role}, nil
}

func (r *userRepository) List(ctx context.Context) ([]user.User, error) {
	users := make([]user.User, 0)
	if err := sqlx.SelectContext(ctx, r.q, &users, `SELECT id, name, role FROM users ORDER BY id`); err != nil {
		return nil, fmt.Errorf("repository: failed to list users: %w", err)
	}
	return users, nil
}

func (r *userRepository) GetByName(ctx context.Context, name string) (*user.User, error) {
	var u user.User
	err := sqlx.GetContext(ctx, r.q, &u, `SELECT id, name, role FROM users WHERE name = ?`, name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, user.ErrUserNotFound
		}
		return nil, fmt.Errorf("repository: failed to select user by name: %w", err)
	}
	return &u, nil
}

func (r *userRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := sqlx.GetContext(ctx, r.q, &n, `SELECT COUNT(*) FROM users`); err != nil {
		return 0, fmt.Errorf("repository: failed to count users: %w", err)
	}
	return n, nil
}
