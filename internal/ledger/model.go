package ledger

import (
	"time"

	"github.com/gofrs/uuid"
	"github.com/shopspring/decimal"
)

type Kind string

const (
	KindInflow  Kind = "Inflow"
	KindOutflow Kind = "Outflow"
)

func (k Kind) String() string {
	return string(k)
}

func (k Kind) Valid() bool {
	return k == KindInflow || k == KindOutflow
}

// Categories written by the order lifecycle.
const (
	CategoryProductionCost = "Production Cost"
	CategoryFreight        = "Freight"
	CategorySaleRevenue    = "Sale Revenue"
)

// Entry is one dated cash movement. Amount is always positive; Kind carries the sign.
// OrderID is a back-reference only: an order does not own its entries.
type Entry struct {
	ID       uuid.UUID       `json:"id" db:"id"`
	Kind     Kind            `json:"kind" db:"kind"`
	Category string          `json:"category" db:"category"`
	Amount   decimal.Decimal `json:"amount" db:"amount"`
	Date     time.Time       `json:"date" db:"entry_date"`
	OrderID  *uuid.UUID      `json:"orderId,omitempty" db:"order_id"`
	Receipt  *string         `json:"receipt,omitempty" db:"receipt"`
}

// Signed returns the amount with the sign implied by Kind.
func (e Entry) Signed() decimal.Decimal {
	if e.Kind == KindOutflow {
		return e.Amount.Neg()
	}
	return e.Amount
}

// Filter bounds are inclusive. Nil fields do not filter.
type Filter struct {
	Start   *time.Time
	End     *time.Time
	OrderID *uuid.UUID
}

// Matches reports whether e passes every filter set on f.
func (f Filter) Matches(e Entry) bool {
	if f.Start != nil && e.Date.Before(*f.Start) {
		return false
	}
	if f.End != nil && e.Date.After(*f.End) {
		return false
	}
	if f.OrderID != nil && (e.OrderID == nil || *e.OrderID != *f.OrderID) {
		return false
	}
	return true
}

type Summary struct {
	Inflows  decimal.Decimal `json:"inflows"`
	Outflows decimal.Decimal `json:"outflows"`
	Balance  decimal.Decimal `json:"balance"`
}

// Summarize sums entries by kind.
func Summarize(entries []Entry) Summary {
	var s Summary
	for _, e := range entries {
		switch e.Kind {
		case KindInflow:
			s.Inflows = s.Inflows.Add(e.Amount)
		case KindOutflow:
			s.Outflows = s.Outflows.Add(e.Amount)
		}
	}
	s.Balance = s.Inflows.Sub(s.Outflows)
	return s
}

// EntryInput is what callers provide when recording an entry. Date defaults to now.
type EntryInput struct {
	Kind     Kind
	Category string
	Amount   decimal.Decimal
	Date     *time.Time
	OrderID  *uuid.UUID
	Receipt  *string
}
