package memory

import (
	"context"
	"sort"

	"github.com/vasiliy-maslov/production-orders/internal/catalog"
)

type productRepository struct {
	repos
}

func (r productRepository) ListActive(ctx context.Context) ([]catalog.Product, error) {
	defer r.lock()()

	products := make([]catalog.Product, 0)
	for _, p := range r.st().products {
		if p.Active {
			products = append(products, p)
		}
	}
	sort.Slice(products, func(i, j int) bool { return products[i].ID < products[j].ID })
	return products, nil
}

func (r productRepository) GetByID(ctx context.Context, id int64) (*catalog.Product, error) {
	defer r.lock()()

	p, ok := r.st().products[id]
	if !ok {
		return nil, catalog.ErrProductNotFound
	}
	return &p, nil
}

func (r productRepository) Create(ctx context.Context, in catalog.Input) (*catalog.Product, error) {
	defer r.lock()()

	st := r.st()
	st.nextProductID++
	p := catalog.Product{
		ID:        st.nextProductID,
		Name:      in.Name,
		SalePrice: in.SalePrice,
		UnitCost:  in.UnitCost,
		Active:    in.Active,
	}
	st.products[p.ID] = p
	return &p, nil
}

func (r productRepository) Update(ctx context.Context, id int64, in catalog.Input) (*catalog.Product, error) {
	defer r.lock()()

	st := r.st()
	if _, ok := st.products[id]; !ok {
		return nil, catalog.ErrProductNotFound
	}
	p := catalog.Product{
		ID:        id,
		Name:      in.Name,
		SalePrice: in.SalePrice,
		UnitCost:  in.UnitCost,
		Active:    in.Active,
	}
	st.products[id] = p
	return &p, nil
}

func (r productRepository) Count(ctx context.Context) (int64, error) {
	defer r.lock()()
	return int64(len(r.st().products)), nil
}
