package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/gofrs/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/vasiliy-maslov/production-orders/internal/catalog"
	"github.com/vasiliy-maslov/production-orders/internal/order"
)

type orderRepository struct {
	q sqlx.ExtContext
}

const orderColumns = `id, number, customer_name, status, tracking_code, shipping_cost, created_at, updated_at`

// lineRow is an order line joined with its product.
type lineRow struct {
	ID               uuid.UUID       `db:"id"`
	OrderID          uuid.UUID       `db:"order_id"`
	ProductID        int64           `db:"product_id"`
	Quantity         decimal.Decimal `db:"quantity"`
	UnitPrice        decimal.Decimal `db:"unit_price"`
	ProductName      string          `db:"product_name"`
	ProductSalePrice decimal.Decimal `db:"product_sale_price"`
	ProductUnitCost  decimal.Decimal `db:"product_unit_cost"`
	ProductActive    bool            `db:"product_active"`
}

func (l lineRow) toLine() order.Line {
	return order.Line{
		ID:        l.ID,
		OrderID:   l.OrderID,
		ProductID: l.ProductID,
		Quantity:  l.Quantity,
		UnitPrice: l.UnitPrice,
		Product: &catalog.Product{
			ID:        l.ProductID,
			Name:      l.ProductName,
			SalePrice: l.ProductSalePrice,
			UnitCost:  l.ProductUnitCost,
			Active:    l.ProductActive,
		},
	}
}

const nextNumberQuery = `
	INSERT INTO order_sequences (year, last_value)
	VALUES (?, COALESCE((SELECT MAX(CAST(substr(number, 6) AS INTEGER)) FROM orders WHERE number LIKE ?), 0) + 1)
	ON CONFLICT (year) DO UPDATE SET last_value = last_value + 1
	RETURNING last_value
`

// NextNumber bumps the per-year counter row, seeding it from existing orders
// the first time a year is seen.
func (r *orderRepository) NextNumber(ctx context.Context, year int) (string, error) {
	var seq int
	if err := r.q.QueryRowxContext(ctx, nextNumberQuery, year, fmt.Sprintf("%d-%%", year)).Scan(&seq); err != nil {
		return "", fmt.Errorf("repository: failed to allocate order number for %d: %w", year, err)
	}
	return order.FormatNumber(year, seq), nil
}

func (r *orderRepository) Create(ctx context.Context, o *order.Order) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO orders (`+orderColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		o.ID, o.Number, o.CustomerName, o.Status, o.TrackingCode, o.ShippingCost, o.CreatedAt.UTC(), o.UpdatedAt.UTC(),
	)
	if err != nil {
		if isConstraint(err, sqlite3.ErrConstraintUnique) {
			return order.ErrDuplicateNumber
		}
		return fmt.Errorf("repository: failed to insert order: %w", err)
	}

	for i, l := range o.Lines {
		_, err := r.q.ExecContext(ctx, `
			INSERT INTO order_lines (id, order_id, line_no, product_id, quantity, unit_price)
			VALUES (?, ?, ?, ?, ?, ?)`,
			l.ID, o.ID, i, l.ProductID, l.Quantity, l.UnitPrice,
		)
		if err != nil {
			if isConstraint(err, sqlite3.ErrConstraintForeignKey) {
				return catalog.ErrProductNotFound
			}
			return fmt.Errorf("repository: failed to insert order line for order %s: %w", o.ID, err)
		}
	}
	return nil
}

func (r *orderRepository) GetByID(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	var o order.Order
	err := sqlx.GetContext(ctx, r.q, &o, `SELECT `+orderColumns+` FROM orders WHERE id = ?`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, order.ErrOrderNotFound
		}
		return nil, fmt.Errorf("repository: failed to select order by id %s: %w", id, err)
	}

	orders := []order.Order{o}
	if err := r.attachLines(ctx, orders); err != nil {
		return nil, err
	}
	return &orders[0], nil
}

// GetForUpdate needs no row lock: the enclosing transaction already holds the
// database write lock.
func (r *orderRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	return r.GetByID(ctx, id)
}

func (r *orderRepository) List(ctx context.Context, f order.Filter) ([]order.Order, error) {
	w := &where{}
	if f.Status != nil {
		w.add("status = ?", *f.Status)
	}
	if f.Start != nil {
		w.add("created_at >= ?", f.Start.UTC())
	}
	if f.End != nil {
		w.add("created_at <= ?", f.End.UTC())
	}

	orders := make([]order.Order, 0)
	query := `SELECT ` + orderColumns + ` FROM orders` + w.String() + ` ORDER BY created_at DESC, number DESC`
	if err := sqlx.SelectContext(ctx, r.q, &orders, query, w.args...); err != nil {
		return nil, fmt.Errorf("repository: failed to list orders: %w", err)
	}

	if err := r.attachLines(ctx, orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *orderRepository) Update(ctx context.Context, o *order.Order) error {
	res, err := r.q.ExecContext(ctx, `
		UPDATE orders
		SET status = ?, tracking_code = ?, shipping_cost = ?, updated_at = ?
		WHERE id = ?`,
		o.Status, o.TrackingCode, o.ShippingCost, o.UpdatedAt.UTC(), o.ID,
	)
	if err != nil {
		return fmt.Errorf("repository: failed to update order %s: %w", o.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("repository: failed to read affected rows: %w", err)
	}
	if n == 0 {
		return order.ErrOrderNotFound
	}
	return nil
}

// attachLines loads the lines of every order in one query.
func (r *orderRepository) attachLines(ctx context.Context, orders []order.Order) error {
	if len(orders) == 0 {
		return nil
	}

	ids := make([]uuid.UUID, 0, len(orders))
	index := make(map[uuid.UUID]int, len(orders))
	for i := range orders {
		orders[i].Lines = make([]order.Line, 0)
		ids = append(ids, orders[i].ID)
		index[orders[i].ID] = i
	}

	query, args, err := sqlx.In(`
		SELECT l.id, l.order_id, l.product_id, l.quantity, l.unit_price,
		       p.name AS product_name, p.sale_price AS product_sale_price,
		       p.unit_cost AS product_unit_cost, p.active AS product_active
		FROM order_lines l
		JOIN products p ON p.id = l.product_id
		WHERE l.order_id IN (?)
		ORDER BY l.order_id, l.line_no`, ids)
	if err != nil {
		return fmt.Errorf("repository: failed to build order lines query: %w", err)
	}

	var rows []lineRow
	if err := sqlx.SelectContext(ctx, r.q, &rows, r.q.Rebind(query), args...); err != nil {
		return fmt.Errorf("repository: failed to query order lines: %w", err)
	}

	for _, row := range rows {
		if i, ok := index[row.OrderID]; ok {
			orders[i].Lines = append(orders[i].Lines, row.toLine())
		}
	}
	return nil
}
