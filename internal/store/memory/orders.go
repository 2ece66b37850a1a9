package memory

import (
	"context"
	"sort"

	"github.com/gofrs/uuid"
	"github.com/vasiliy-maslov/production-orders/internal/catalog"
	"github.com/vasiliy-maslov/production-orders/internal/order"
)

type orderRepository struct {
	repos
}

func cloneOrder(o order.Order) order.Order {
	lines := make([]order.Line, len(o.Lines))
	for i, l := range o.Lines {
		l.Product = nil
		lines[i] = l
	}
	o.Lines = lines
	if o.CustomerName != nil {
		name := *o.CustomerName
		o.CustomerName = &name
	}
	if o.TrackingCode != nil {
		code := *o.TrackingCode
		o.TrackingCode = &code
	}
	return o
}

// NextNumber scans the stored numbers. The store lock held by the unit of work
// serializes it with the Create that consumes the number.
func (r orderRepository) NextNumber(ctx context.Context, year int) (string, error) {
	defer r.lock()()

	existing := make([]string, 0, len(r.st().orders))
	for _, o := range r.st().orders {
		existing = append(existing, o.Number)
	}
	return order.NextNumber(existing, year), nil
}

func (r orderRepository) Create(ctx context.Context, o *order.Order) error {
	defer r.lock()()

	st := r.st()
	for _, existing := range st.orders {
		if existing.Number == o.Number {
			return order.ErrDuplicateNumber
		}
	}
	for _, l := range o.Lines {
		if _, ok := st.products[l.ProductID]; !ok {
			return catalog.ErrProductNotFound
		}
	}
	st.orders[o.ID] = cloneOrder(*o)
	return nil
}

func (r orderRepository) GetByID(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	defer r.lock()()

	o, ok := r.st().orders[id]
	if !ok {
		return nil, order.ErrOrderNotFound
	}
	return r.enrich(o), nil
}

func (r orderRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	return r.GetByID(ctx, id)
}

func (r orderRepository) List(ctx context.Context, f order.Filter) ([]order.Order, error) {
	defer r.lock()()

	orders := make([]order.Order, 0)
	for _, o := range r.st().orders {
		if f.Matches(&o) {
			orders = append(orders, *r.enrich(o))
		}
	}
	sort.Slice(orders, func(i, j int) bool {
		if !orders[i].CreatedAt.Equal(orders[j].CreatedAt) {
			return orders[i].CreatedAt.After(orders[j].CreatedAt)
		}
		return orders[i].Number > orders[j].Number
	})
	return orders, nil
}

func (r orderRepository) Update(ctx context.Context, o *order.Order) error {
	defer r.lock()()

	st := r.st()
	stored, ok := st.orders[o.ID]
	if !ok {
		return order.ErrOrderNotFound
	}
	stored.Status = o.Status
	stored.TrackingCode = o.TrackingCode
	stored.ShippingCost = o.ShippingCost
	stored.UpdatedAt = o.UpdatedAt
	st.orders[o.ID] = cloneOrder(stored)
	return nil
}

// enrich returns a copy of o with each line carrying its product. Callers hold the lock.
func (r orderRepository) enrich(o order.Order) *order.Order {
	c := cloneOrder(o)
	products := r.st().products
	for i := range c.Lines {
		if p, ok := products[c.Lines[i].ProductID]; ok {
			c.Lines[i].Product = &p
		}
	}
	return &c
}
