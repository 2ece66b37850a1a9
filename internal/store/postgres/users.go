package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/vasiliy-maslov/production-orders/internal/user"
)

type userRepository struct {
	db querier
}

func (r *userRepository) Create(ctx context.Context, in user.CreateInput) (*user.User, error) {
	u := &user.User{Name: in.Name, Role: in.Role}
	err := r.db.QueryRow(ctx, `INSERT INTO users (name, role) VALUES ($1, $2) RETURNING id`, in.Name, string(in.Role)).Scan(&u.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, user.ErrNameTaken
		}
		return nil, fmt.Errorf("repository: failed to insert user: %w", err)
	}
	return u, nil
}

func (r *userRepository) List(ctx context.Context) ([]user.User, error) {
	rows, err := r.db.Query(ctx, `SELECT id, name, role FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query users: %w", err)
	}
	defer rows.Close()

	users := make([]user.User, 0)
	for rows.Next() {
		var u user.User
		if err := rows.Scan(&u.ID, &u.Name, &u.Role); err != nil {
			return nil, fmt.Errorf("repository: failed to scan user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: failed iterating users: %w", err)
	}
	return users, nil
}

func (r *userRepository) GetByName(ctx context.Context, name string) (*user.User, error) {
	var u user.User
	err := r.db.QueryRow(ctx, `SELECT id, name, role FROM users WHERE name = $1`, name).Scan(&u.ID, &u.Name, &u.Role)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, user.ErrUserNotFound
		}
		return nil, fmt.Errorf("repository: failed to select user by name: %w", err)
	}
	return &u, nil
}

func (r *userRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("repository: failed to count users: %w", err)
	}
	return n, nil
}
