package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/vasiliy-maslov/production-orders/internal/catalog"
)

type productRepository struct {
	db querier
}

const productColumns = `id, name, sale_price, unit_cost, active`

func scanProduct(row pgx.Row) (*catalog.Product, error) {
	var p catalog.Product
	if err := row.Scan(&p.ID, &p.Name, &p.SalePrice, &p.UnitCost, &p.Active); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *productRepository) ListActive(ctx context.Context) ([]catalog.Product, error) {
	rows, err := r.db.Query(ctx, `SELECT `+productColumns+` FROM products WHERE active ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query active products: %w", err)
	}
	defer rows.Close()

	products := make([]catalog.Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan product: %w", err)
		}
		products = append(products, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: failed iterating products: %w", err)
	}
	return products, nil
}

func (r *productRepository) GetByID(ctx context.Context, id int64) (*catalog.Product, error) {
	p, err := scanProduct(r.db.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, catalog.ErrProductNotFound
		}
		return nil, fmt.Errorf("repository: failed to select product %d: %w", id, err)
	}
	return p, nil
}

func (r *productRepository) Create(ctx context.Context, in catalog.Input) (*catalog.Product, error) {
	p, err := scanProduct(r.db.QueryRow(ctx, `
		INSERT INTO products (name, sale_price, unit_cost, active)
		VALUES ($1, $2, $3, $4)
		RETURNING `+productColumns,
		in.Name, in.SalePrice, in.UnitCost, in.Active,
	))
	if err != nil {
		return nil, fmt.Errorf("repository: failed to insert product: %w", err)
	}
	return p, nil
}

func (r *productRepository) Update(ctx context.Context, id int64, in catalog.Input) (*catalog.Product, error) {
	p, err := scanProduct(r.db.QueryRow(ctx, `
		UPDATE products SET name = $1, sale_price = $2, unit_cost = $3, active = $4
		WHERE id = $5
		RETURNING `+productColumns,
		in.Name, in.SalePrice, in.UnitCost, in.Active, id,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, catalog.ErrProductNotFound
		}
		return nil, fmt.Errorf("repository: failed to update product %d: %w", id, err)
	}
	return p, nil
}

func (r *productRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM products`).Scan(&n); err != nil {
		return 0, fmt.Errorf("repository: failed to count products: %w", err)
	}
	return n, nil
}
