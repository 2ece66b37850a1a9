package order

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/vasiliy-maslov/production-orders/internal/apperr"
	"github.com/vasiliy-maslov/production-orders/internal/ledger"
)

var ErrInvalidTransition = apperr.ErrInvalidTransition

var allowedTransitions = map[Status]map[Status]bool{
	StatusInProduction: {
		StatusShipped:   true,
		StatusCancelled: true,
	},
	StatusShipped: {
		StatusCompleted: true,
		StatusCancelled: true,
	},
	StatusCompleted: {},
	StatusCancelled: {},
}

// CanTransition reports whether from -> to is in the lifecycle table.
// Staying in the same status is never a transition.
func CanTransition(from, to Status) bool {
	return allowedTransitions[from][to]
}

func invalidTransition(from, to Status) error {
	if from == StatusCompleted || from == StatusCancelled {
		return apperr.InvalidTransition(from, to, fmt.Sprintf("order is %s and can no longer change status", from))
	}
	return apperr.InvalidTransition(from, to, fmt.Sprintf("cannot change order status from %s to %s", from, to))
}

// validateTransitionInput checks the request payload for target before any
// store access.
func validateTransitionInput(target Status, in TransitionInput) error {
	if target != StatusShipped {
		return nil
	}
	ve := &apperr.ValidationError{}
	if in.TrackingCode == nil || *in.TrackingCode == "" {
		ve.Add("trackingCode", "is required to ship an order")
	}
	if in.ShippingCost != nil && in.ShippingCost.IsNegative() {
		ve.Add("shippingCost", "must be greater than or equal to zero")
	}
	return ve.OrNil()
}

// revenuePaid sums the sale revenue already recorded against the order.
func revenuePaid(entries []ledger.Entry) decimal.Decimal {
	paid := decimal.Zero
	for _, e := range entries {
		if e.Kind == ledger.KindInflow && e.Category == ledger.CategorySaleRevenue {
			paid = paid.Add(e.Amount)
		}
	}
	return paid
}
