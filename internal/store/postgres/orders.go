package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofrs/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/vasiliy-maslov/production-orders/internal/catalog"
	"github.com/vasiliy-maslov/production-orders/internal/order"
)

type orderRepository struct {
	db querier
}

const orderColumns = `id, number, customer_name, status, tracking_code, shipping_cost, created_at, updated_at`

func scanOrder(row pgx.Row) (*order.Order, error) {
	var o order.Order
	err := row.Scan(
		&o.ID,
		&o.Number,
		&o.CustomerName,
		&o.Status,
		&o.TrackingCode,
		&o.ShippingCost,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	o.CreatedAt = o.CreatedAt.UTC()
	o.UpdatedAt = o.UpdatedAt.UTC()
	o.Lines = make([]order.Line, 0)
	return &o, nil
}

const nextNumberQuery = `
	INSERT INTO order_sequences (year, last_value)
	VALUES ($1, COALESCE((SELECT MAX(CAST(SUBSTRING(number FROM 6) AS INTEGER)) FROM orders WHERE number LIKE $2), 0) + 1)
	ON CONFLICT (year) DO UPDATE SET last_value = order_sequences.last_value + 1
	RETURNING last_value
`

// NextNumber bumps the per-year counter row, seeding it from existing orders
// the first time a year is seen. The row stays locked until the enclosing
// transaction ends, which queues concurrent creators behind each other.
func (r *orderRepository) NextNumber(ctx context.Context, year int) (string, error) {
	var seq int
	if err := r.db.QueryRow(ctx, nextNumberQuery, year, fmt.Sprintf("%d-%%", year)).Scan(&seq); err != nil {
		return "", fmt.Errorf("repository: failed to allocate order number for %d: %w", year, err)
	}
	return order.FormatNumber(year, seq), nil
}

func (r *orderRepository) Create(ctx context.Context, o *order.Order) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO orders (`+orderColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		o.ID,
		o.Number,
		o.CustomerName,
		string(o.Status),
		o.TrackingCode,
		o.ShippingCost,
		o.CreatedAt,
		o.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return order.ErrDuplicateNumber
		}
		return fmt.Errorf("repository: failed to insert order: %w", err)
	}

	for i, l := range o.Lines {
		_, err = r.db.Exec(ctx, `
			INSERT INTO order_lines (id, order_id, line_no, product_id, quantity, unit_price)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			l.ID, o.ID, i, l.ProductID, l.Quantity, l.UnitPrice,
		)
		if err != nil {
			if isForeignKeyViolation(err) {
				return catalog.ErrProductNotFound
			}
			return fmt.Errorf("repository: failed to insert order line for order %s: %w", o.ID, err)
		}
	}
	return nil
}

func (r *orderRepository) GetByID(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	return r.get(ctx, id, "")
}

func (r *orderRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	return r.get(ctx, id, " FOR UPDATE")
}

func (r *orderRepository) get(ctx context.Context, id uuid.UUID, lock string) (*order.Order, error) {
	o, err := scanOrder(r.db.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`+lock, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrOrderNotFound
		}
		return nil, fmt.Errorf("repository: failed to select order by id %s: %w", id, err)
	}

	orders := []*order.Order{o}
	if err := r.attachLines(ctx, orders); err != nil {
		return nil, err
	}
	return o, nil
}

func (r *orderRepository) List(ctx context.Context, f order.Filter) ([]order.Order, error) {
	w := &where{}
	if f.Status != nil {
		w.add("status = $%d", string(*f.Status))
	}
	if f.Start != nil {
		w.add("created_at >= $%d", *f.Start)
	}
	if f.End != nil {
		w.add("created_at <= $%d", *f.End)
	}

	rows, err := r.db.Query(ctx, `SELECT `+orderColumns+` FROM orders`+w.String()+` ORDER BY created_at DESC, number DESC`, w.args...)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query orders: %w", err)
	}
	defer rows.Close()

	ptrs := make([]*order.Order, 0)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan order: %w", err)
		}
		ptrs = append(ptrs, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: failed iterating orders: %w", err)
	}
	rows.Close()

	if err := r.attachLines(ctx, ptrs); err != nil {
		return nil, err
	}

	orders := make([]order.Order, 0, len(ptrs))
	for _, o := range ptrs {
		orders = append(orders, *o)
	}
	return orders, nil
}

func (r *orderRepository) Update(ctx context.Context, o *order.Order) error {
	cmdTag, err := r.db.Exec(ctx, `
		UPDATE orders
		SET status = $1, tracking_code = $2, shipping_cost = $3, updated_at = $4
		WHERE id = $5`,
		string(o.Status),
		o.TrackingCode,
		o.ShippingCost,
		o.UpdatedAt,
		o.ID,
	)
	if err != nil {
		return fmt.Errorf("repository: failed to update order %s: %w", o.ID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return order.ErrOrderNotFound
	}
	return nil
}

// attachLines loads the lines of every order, joined with their products, in
// one query.
func (r *orderRepository) attachLines(ctx context.Context, orders []*order.Order) error {
	if len(orders) == 0 {
		return nil
	}

	byID := make(map[uuid.UUID]*order.Order, len(orders))
	ids := make([]string, 0, len(orders))
	for _, o := range orders {
		byID[o.ID] = o
		ids = append(ids, o.ID.String())
	}

	rows, err := r.db.Query(ctx, `
		SELECT l.id, l.order_id, l.product_id, l.quantity, l.unit_price,
		       p.name, p.sale_price, p.unit_cost, p.active
		FROM order_lines l
		JOIN products p ON p.id = l.product_id
		WHERE l.order_id = ANY($1::uuid[])
		ORDER BY l.order_id, l.line_no`, ids)
	if err != nil {
		return fmt.Errorf("repository: failed to query order lines: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			l order.Line
			p catalog.Product
		)
		err := rows.Scan(
			&l.ID,
			&l.OrderID,
			&l.ProductID,
			&l.Quantity,
			&l.UnitPrice,
			&p.Name,
			&p.SalePrice,
			&p.UnitCost,
			&p.Active,
		)
		if err != nil {
			return fmt.Errorf("repository: failed to scan order line: %w", err)
		}
		p.ID = l.ProductID
		l.Product = &p

		if o, ok := byID[l.OrderID]; ok {
			o.Lines = append(o.Lines, l)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("repository: failed iterating order lines: %w", err)
	}
	return nil
}
