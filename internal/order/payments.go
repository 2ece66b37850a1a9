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
	"github.com/vasiliy-maslov/production-orders/internal/ledger"
)

// PaymentInput registers part or all of an order's sale revenue.
type PaymentInput struct {
	Amount  decimal.Decimal
	Receipt *string
	Date    *time.Time
}

// PaymentStatus is the running paid total of one order.
type PaymentStatus struct {
	Total     decimal.Decimal `json:"total"`
	Paid      decimal.Decimal `json:"paid"`
	Remaining decimal.Decimal `json:"remaining"`
	Entries   []ledger.Entry  `json:"entries"`
}

type PaymentResult struct {
	Entry  *ledger.Entry `json:"entry"`
	Order  *Order        `json:"order"`
	Status PaymentStatus `json:"payments"`
}

func paymentStatus(o *Order, entries []ledger.Entry) PaymentStatus {
	payments := make([]ledger.Entry, 0, len(entries))
	for _, e := range entries {
		if e.Kind == ledger.KindInflow && e.Category == ledger.CategorySaleRevenue {
			payments = append(payments, e)
		}
	}
	total := o.Total()
	paid := revenuePaid(payments)
	remaining := total.Sub(paid)
	if remaining.IsNegative() {
		remaining = decimal.Zero
	}
	return PaymentStatus{Total: total, Paid: paid, Remaining: remaining, Entries: payments}
}

// RegisterPayment records a Sale Revenue inflow against an open order. A
// payment that settles a Shipped order completes it in the same transaction.
func (s *service) RegisterPayment(ctx context.Context, id uuid.UUID, in PaymentInput) (*PaymentResult, error) {
	if !in.Amount.IsPositive() {
		return nil, apperr.Validation("amount", "must be greater than zero")
	}

	var (
		entry     *ledger.Entry
		completed bool
	)
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		o, err := tx.Orders().GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if o.Status != StatusInProduction && o.Status != StatusShipped {
			return apperr.Newf(apperr.ErrInvalidTransition, "order is %s and no longer accepts payments", o.Status)
		}

		entries, err := tx.Ledger().List(ctx, ledger.Filter{OrderID: &o.ID})
		if err != nil {
			return fmt.Errorf("failed to load ledger entries of order: %w", err)
		}
		status := paymentStatus(o, entries)
		if in.Amount.GreaterThan(status.Remaining) {
			return apperr.Validation("amount", fmt.Sprintf("exceeds the remaining balance of %s", status.Remaining.StringFixed(2)))
		}

		now := s.now().UTC()
		entry, err = ledger.NewEntry(ledger.EntryInput{
			Kind:     ledger.KindInflow,
			Category: ledger.CategorySaleRevenue,
			Amount:   in.Amount,
			Date:     in.Date,
			OrderID:  &o.ID,
			Receipt:  in.Receipt,
		}, func() time.Time { return now })
		if err != nil {
			return err
		}
		if err := tx.Ledger().Create(ctx, entry); err != nil {
			return fmt.Errorf("failed to record payment: %w", err)
		}

		if o.Status == StatusShipped && in.Amount.Equal(status.Remaining) {
			o.Status = StatusCompleted
			o.UpdatedAt = now
			if err := tx.Orders().Update(ctx, o); err != nil {
				return err
			}
			completed = true
		}
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrOrderNotFound):
			return nil, ErrOrderNotFound
		case errors.Is(err, apperr.ErrInvalidTransition), errors.Is(err, apperr.ErrValidation):
			log.Warn().Err(err).Stringer("order_id", id).Msg("service: payment rejected")
			return nil, err
		}
		log.Error().Err(err).Stringer("order_id", id).Msg("service: failed to register payment")
		return nil, fmt.Errorf("service: failed to register payment: %w", err)
	}

	logEvent := log.Info().Stringer("order_id", id).Str("amount", in.Amount.StringFixed(2))
	if completed {
		logEvent = logEvent.Stringer("new_status", StatusCompleted)
	}
	logEvent.Msg("service: payment registered")

	o, err := s.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	status, err := s.PaymentStatus(ctx, id)
	if err != nil {
		return nil, err
	}
	return &PaymentResult{Entry: entry, Order: o, Status: *status}, nil
}

func (s *service) PaymentStatus(ctx context.Context, id uuid.UUID) (*PaymentStatus, error) {
	o, err := s.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	entries, err := s.store.Ledger().List(ctx, ledger.Filter{OrderID: &id})
	if err != nil {
		log.Error().Err(err).Stringer("order_id", id).Msg("service: failed to list order payments")
		return nil, fmt.Errorf("service: failed to list order payments: %w", err)
	}
	status := paymentStatus(o, entries)
	return &status, nil
}
