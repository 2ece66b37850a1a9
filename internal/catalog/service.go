package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// DefaultProducts are inserted by SeedDefaults into an empty catalog.
var DefaultProducts = []Input{
	{Name: "SUPORTE_PEQUENO", SalePrice: decimal.RequireFromString("20.00"), UnitCost: decimal.RequireFromString("8.00"), Active: true},
	{Name: "SUPORTE_GRANDE", SalePrice: decimal.RequireFromString("35.00"), UnitCost: decimal.RequireFromString("15.00"), Active: true},
}

type Service interface {
	ListActiveProducts(ctx context.Context) ([]Product, error)
	GetProduct(ctx context.Context, id int64) (*Product, error)
	CreateProduct(ctx context.Context, in Input) (*Product, error)
	UpdateProduct(ctx context.Context, id int64, in Input) (*Product, error)
	SeedDefaults(ctx context.Context) error
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) ListActiveProducts(ctx context.Context) ([]Product, error) {
	products, err := s.repo.ListActive(ctx)
	if err != nil {
		log.Error().Err(err).Msg("service: failed to list active products")
		return nil, fmt.Errorf("service: failed to list products: %w", err)
	}
	return products, nil
}

func (s *service) GetProduct(ctx context.Context, id int64) (*Product, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrProductNotFound) {
			return nil, ErrProductNotFound
		}
		log.Error().Err(err).Int64("product_id", id).Msg("service: failed to fetch product")
		return nil, fmt.Errorf("service: failed to fetch product %d: %w", id, err)
	}
	return p, nil
}

func (s *service) CreateProduct(ctx context.Context, in Input) (*Product, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	p, err := s.repo.Create(ctx, in)
	if err != nil {
		log.Error().Err(err).Str("name", in.Name).Msg("service: failed to create product")
		return nil, fmt.Errorf("service: failed to create product: %w", err)
	}

	log.Info().Int64("product_id", p.ID).Str("name", p.Name).Msg("service: product created")
	return p, nil
}

func (s *service) UpdateProduct(ctx context.Context, id int64, in Input) (*Product, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	p, err := s.repo.Update(ctx, id, in)
	if err != nil {
		if errors.Is(err, ErrProductNotFound) {
			return nil, ErrProductNotFound
		}
		log.Error().Err(err).Int64("product_id", id).Msg("service: failed to update product")
		return nil, fmt.Errorf("service: failed to update product %d: %w", id, err)
	}

	log.Info().Int64("product_id", p.ID).Bool("active", p.Active).Msg("service: product updated")
	return p, nil
}

// SeedDefaults inserts DefaultProducts when the catalog has no products at all,
// active or not.
func (s *service) SeedDefaults(ctx context.Context) error {
	n, err := s.repo.Count(ctx)
	if err != nil {
		return fmt.Errorf("service: failed to count products: %w", err)
	}
	if n > 0 {
		return nil
	}

	for _, in := range DefaultProducts {
		if _, err := s.repo.Create(ctx, in); err != nil {
			return fmt.Errorf("service: failed to seed product %s: %w", in.Name, err)
		}
	}
	log.Info().Int("count", len(DefaultProducts)).Msg("service: seeded default products")
	return nil
}
