package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/vasiliy-maslov/production-orders/internal/apperr"
	"github.com/vasiliy-maslov/production-orders/internal/catalog"
	"github.com/vasiliy-maslov/production-orders/internal/ledger"
)

const defaultNumberRetries = 3

var ErrNumberUnavailable = apperr.New(apperr.ErrConflict, "could not allocate an order number, please retry")

type Service interface {
	CreateOrder(ctx context.Context, in CreateInput) (*Order, error)
	GetOrder(ctx context.Context, id uuid.UUID) (*Order, error)
	ListOrders(ctx context.Context, f Filter) ([]Order, error)
	Transition(ctx context.Context, id uuid.UUID, target Status, in TransitionInput) (*Order, error)
	RegisterPayment(ctx context.Context, id uuid.UUID, in PaymentInput) (*PaymentResult, error)
	PaymentStatus(ctx context.Context, id uuid.UUID) (*PaymentStatus, error)
}

type Option func(*service)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *service) { s.now = now }
}

// WithNumberRetries bounds how many times creation is retried after losing an
// order number race. Values below 1 are ignored.
func WithNumberRetries(n int) Option {
	return func(s *service) {
		if n > 0 {
			s.numberRetries = n
		}
	}
}

type service struct {
	store         Store
	now           func() time.Time
	numberRetries int
}

func NewService(store Store, opts ...Option) Service {
	s := &service{
		store:         store,
		now:           time.Now,
		numberRetries: defaultNumberRetries,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *service) CreateOrder(ctx context.Context, in CreateInput) (*Order, error) {
	if err := in.Validate(); err != nil {
		log.Warn().Err(err).Msg("service: rejected order creation")
		return nil, err
	}

	var (
		created *Order
		err     error
	)
	for attempt := 1; attempt <= s.numberRetries; attempt++ {
		created, err = s.createOnce(ctx, in)
		if !errors.Is(err, ErrDuplicateNumber) {
			break
		}
		log.Warn().Int("attempt", attempt).Msg("service: order number taken by a concurrent creation, retrying")
	}
	if err != nil {
		if errors.Is(err, ErrDuplicateNumber) {
			log.Error().Int("attempts", s.numberRetries).Msg("service: giving up on order number allocation")
			return nil, ErrNumberUnavailable
		}
		if errors.Is(err, apperr.ErrNotFound) {
			log.Warn().Err(err).Msg("service: order references a missing product")
			return nil, err
		}
		log.Error().Err(err).Msg("service: failed to create order")
		return nil, fmt.Errorf("service: failed to create order: %w", err)
	}

	log.Info().
		Stringer("order_id", created.ID).
		Str("order_number", created.Number).
		Int("lines", len(created.Lines)).
		Msg("service: order created")

	return s.GetOrder(ctx, created.ID)
}

func (s *service) createOnce(ctx context.Context, in CreateInput) (*Order, error) {
	now := s.now().UTC()

	orderID, err := uuid.NewV4()
	if err != nil {
		return nil, fmt.Errorf("service: failed to generate order id: %w", err)
	}

	o := &Order{
		ID:           orderID,
		CustomerName: in.CustomerName,
		Status:       StatusInProduction,
		ShippingCost: decimal.Zero,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err = s.store.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		productionCost := decimal.Zero

		for _, li := range in.Lines {
			if !li.Quantity.IsPositive() {
				continue
			}

			p, err := tx.Products().GetByID(ctx, li.ProductID)
			if err != nil {
				if errors.Is(err, catalog.ErrProductNotFound) {
					return apperr.NotFound("product", li.ProductID)
				}
				return fmt.Errorf("failed to load product %d: %w", li.ProductID, err)
			}

			unitPrice := p.SalePrice
			if li.UnitPrice != nil && li.UnitPrice.IsPositive() {
				unitPrice = *li.UnitPrice
			}
			productionCost = productionCost.Add(li.Quantity.Mul(p.UnitCost))

			lineID, err := uuid.NewV4()
			if err != nil {
				return fmt.Errorf("failed to generate line id: %w", err)
			}
			o.Lines = append(o.Lines, Line{
				ID:        lineID,
				OrderID:   o.ID,
				ProductID: p.ID,
				Quantity:  li.Quantity,
				UnitPrice: unitPrice,
				Product:   p,
			})
		}

		number, err := tx.Orders().NextNumber(ctx, now.Year())
		if err != nil {
			return fmt.Errorf("failed to allocate order number: %w", err)
		}
		o.Number = number

		if err := tx.Orders().Create(ctx, o); err != nil {
			return err
		}

		if productionCost.IsPositive() {
			if err := s.recordEntry(ctx, tx, o.ID, ledger.KindOutflow, ledger.CategoryProductionCost, productionCost, now); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		o.Lines = nil
		return nil, err
	}
	return o, nil
}

func (s *service) GetOrder(ctx context.Context, id uuid.UUID) (*Order, error) {
	o, err := s.store.Orders().GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			log.Warn().Stringer("order_id", id).Msg("service: order not found by id")
			return nil, ErrOrderNotFound
		}
		log.Error().Err(err).Stringer("order_id", id).Msg("service: failed to fetch order by id in repository")
		return nil, fmt.Errorf("service: failed to fetch order by id: %w", err)
	}
	return o, nil
}

func (s *service) ListOrders(ctx context.Context, f Filter) ([]Order, error) {
	orders, err := s.store.Orders().List(ctx, f)
	if err != nil {
		log.Error().Err(err).Msg("service: failed to list orders in repository")
		return nil, fmt.Errorf("service: failed to list orders: %w", err)
	}
	return orders, nil
}

// Transition validates target against the current status and applies the
// status change together with its ledger side effects in one transaction.
func (s *service) Transition(ctx context.Context, id uuid.UUID, target Status, in TransitionInput) (*Order, error) {
	if _, err := ParseStatus(string(target)); err != nil {
		return nil, err
	}
	if err := validateTransitionInput(target, in); err != nil {
		return nil, err
	}

	var from Status
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		o, err := tx.Orders().GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		from = o.Status

		if !CanTransition(o.Status, target) {
			return invalidTransition(o.Status, target)
		}

		now := s.now().UTC()
		switch target {
		case StatusShipped:
			shippingCost := decimal.Zero
			if in.ShippingCost != nil {
				shippingCost = *in.ShippingCost
			}
			o.TrackingCode = in.TrackingCode
			o.ShippingCost = shippingCost
			if shippingCost.IsPositive() {
				if err := s.recordEntry(ctx, tx, o.ID, ledger.KindOutflow, ledger.CategoryFreight, shippingCost, now); err != nil {
					return err
				}
			}

		case StatusCompleted:
			if err := s.recordOutstandingRevenue(ctx, tx, o, now); err != nil {
				return err
			}

		case StatusCancelled:
			removed, err := tx.Ledger().DeleteByOrderID(ctx, o.ID)
			if err != nil {
				return fmt.Errorf("failed to remove ledger entries of cancelled order: %w", err)
			}
			log.Debug().Stringer("order_id", o.ID).Int64("entries_removed", removed).Msg("service: ledger entries removed for cancelled order")
		}

		o.Status = target
		o.UpdatedAt = now
		return tx.Orders().Update(ctx, o)
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrOrderNotFound):
			log.Warn().Stringer("order_id", id).Stringer("new_status", target).Msg("service: order not found, cannot update status")
			return nil, ErrOrderNotFound
		case errors.Is(err, apperr.ErrInvalidTransition):
			log.Warn().
				Stringer("order_id", id).
				Stringer("current_status", from).
				Stringer("new_status", target).
				Msg("service: invalid status transition attempt")
			return nil, err
		}
		log.Error().Err(err).Stringer("order_id", id).Stringer("new_status", target).Msg("service: failed to update order status")
		return nil, fmt.Errorf("service: failed to update order status: %w", err)
	}

	log.Info().Stringer("order_id", id).Stringer("old_status", from).Stringer("new_status", target).Msg("service: order status updated successfully")
	return s.GetOrder(ctx, id)
}

// recordOutstandingRevenue books the part of the order total not yet covered by
// registered payments.
func (s *service) recordOutstandingRevenue(ctx context.Context, tx Tx, o *Order, now time.Time) error {
	entries, err := tx.Ledger().List(ctx, ledger.Filter{OrderID: &o.ID})
	if err != nil {
		return fmt.Errorf("failed to load ledger entries of order: %w", err)
	}
	outstanding := o.Total().Sub(revenuePaid(entries))
	if !outstanding.IsPositive() {
		return nil
	}
	return s.recordEntry(ctx, tx, o.ID, ledger.KindInflow, ledger.CategorySaleRevenue, outstanding, now)
}

func (s *service) recordEntry(ctx context.Context, tx Tx, orderID uuid.UUID, kind ledger.Kind, category string, amount decimal.Decimal, now time.Time) error {
	e, err := ledger.NewEntry(ledger.EntryInput{
		Kind:     kind,
		Category: category,
		Amount:   amount,
		OrderID:  &orderID,
	}, func() time.Time { return now })
	if err != nil {
		return err
	}
	if err := tx.Ledger().Create(ctx, e); err != nil {
		return fmt.Errorf("failed to record %s entry: %w", category, err)
	}
	return nil
}
