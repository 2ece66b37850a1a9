package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/vasiliy-maslov/production-orders/internal/catalog"
)

type productRepository struct {
	q sqlx.ExtContext
}

const productColumns = `id, name, sale_price, unit_cost, active`

func (r *productRepository) ListActive(ctx context.Context) ([]catalog.Product, error) {
	products := make([]catalog.Product, 0)
	err := sqlx.SelectContext(ctx, r.q, &products, `SELECT `+productColumns+` FROM products WHERE active = 1 ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to list active products: %w", err)
	}
	return products, nil
}

func (r *productRepository) GetByID(ctx context.Context, id int64) (*catalog.Product, error) {
	var p catalog.Product
	err := sqlx.GetContext(ctx, r.q, &p, `SELECT `+productColumns+` FROM products WHERE id = ?`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, catalog.ErrProductNotFound
		}
		return nil, fmt.Errorf("repository: failed to select product %d: %w", id, err)
	}
	return &p, nil
}

func (r *productRepository) Create(ctx context.Context, in catalog.Input) (*catalog.Product, error) {
	res, err := r.q.ExecContext(ctx,
		`INSERT INTO products (name, sale_price, unit_cost, active) VALUES (?, ?, ?, ?)`,
		in.Name, in.SalePrice, in.UnitCost, in.Active,
	)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to insert product: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("repository: failed to read product id: %w", err)
	}
	return &catalog.Product{ID: id, Name: in.Name, SalePrice: in.SalePrice, UnitCost: in.UnitCost, Active: in.Active}, nil
}

func (r *productRepository) Update(ctx context.Context, id int64, in catalog.Input) (*catalog.Product, error) {
	res, err := r.q.ExecContext(ctx,
		`UPDATE products SET name = ?, sale_price = ?, unit_cost = ?, active = ? WHERE id = ?`,
		in.Name, in.SalePrice, in.UnitCost, in.Active, id,
	)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to update product %d: %w", id, err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return nil, fmt.Errorf("repository: failed to read affected rows: %w", err)
	} else if n == 0 {
		return nil, catalog.ErrProductNotFound
	}
	return &catalog.Product{ID: id, Name: in.Name, SalePrice: in.SalePrice, UnitCost: in.UnitCost, Active: in.Active}, nil
}

func (r *productRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := sqlx.GetContext(ctx, r.q, &n, `SELECT COUNT(*) FROM products`); err != nil {
		return 0, fmt.Errorf("repository: failed to count products: %w", err)
	}
	return n, nil
}
