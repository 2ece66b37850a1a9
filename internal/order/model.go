package order

import (
	"time"

	"github.com/gofrs/uuid"
	"github.com/shopspring/decimal"
	"github.com/vasiliy-maslov/production-orders/internal/apperr"
	"github.com/vasiliy-maslov/production-orders/internal/catalog"
)

type Status string

const (
	StatusInProduction Status = "InProduction"
	StatusShipped      Status = "Shipped"
	StatusCompleted    Status = "Completed"
	StatusCancelled    Status = "Cancelled"
)

func (s Status) String() string {
	return string(s)
}

// ParseStatus accepts the wire names of the four statuses.
func ParseStatus(raw string) (Status, error) {
	switch s := Status(raw); s {
	case StatusInProduction, StatusShipped, StatusCompleted, StatusCancelled:
		return s, nil
	default:
		return "", apperr.Validation("status", "must be one of InProduction, Shipped, Completed, Cancelled")
	}
}

// Line is one product-quantity-price row. UnitPrice is a snapshot taken at
// order creation; it does not follow later catalog price changes.
type Line struct {
	ID        uuid.UUID        `json:"id" db:"id"`
	OrderID   uuid.UUID        `json:"orderId" db:"order_id"`
	ProductID int64            `json:"productId" db:"product_id"`
	Quantity  decimal.Decimal  `json:"quantity" db:"quantity"`
	UnitPrice decimal.Decimal  `json:"unitPrice" db:"unit_price"`
	Product   *catalog.Product `json:"product,omitempty" db:"-"`
}

func (l Line) Total() decimal.Decimal {
	return l.Quantity.Mul(l.UnitPrice)
}

type Order struct {
	ID           uuid.UUID       `json:"id" db:"id"`
	Number       string          `json:"number" db:"number"`
	CustomerName *string         `json:"customerName,omitempty" db:"customer_name"`
	Status       Status          `json:"status" db:"status"`
	TrackingCode *string         `json:"trackingCode,omitempty" db:"tracking_code"`
	ShippingCost decimal.Decimal `json:"shippingCost" db:"shipping_cost"`
	Lines        []Line          `json:"lines" db:"-"`
	CreatedAt    time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time       `json:"updatedAt" db:"updated_at"`
}

// Total is the sum of line totals. It is the amount recognised as revenue on completion.
func (o *Order) Total() decimal.Decimal {
	total := decimal.Zero
	for _, l := range o.Lines {
		total = total.Add(l.Total())
	}
	return total
}

type LineInput struct {
	ProductID int64
	Quantity  decimal.Decimal
	// UnitPrice falls back to the product sale price when nil or not positive.
	UnitPrice *decimal.Decimal
}

type CreateInput struct {
	CustomerName *string
	Lines        []LineInput
}

// Validate checks the request shape. Product existence is checked inside the
// creating transaction.
func (in CreateInput) Validate() error {
	ve := &apperr.ValidationError{}
	if len(in.Lines) == 0 {
		ve.Add("lines", "at least one line is required")
		return ve
	}

	hasPositive := false
	for _, l := range in.Lines {
		if l.Quantity.IsNegative() {
			ve.Add("lines.quantity", "must not be negative")
		}
		if l.Quantity.IsPositive() {
			hasPositive = true
		}
		if l.ProductID <= 0 {
			ve.Add("lines.productId", "is required")
		}
		if l.UnitPrice != nil && l.UnitPrice.IsNegative() {
			ve.Add("lines.unitPrice", "must not be negative")
		}
	}
	if !hasPositive {
		ve.Add("lines", "at least one line must have quantity greater than zero")
	}
	return ve.OrNil()
}

// TransitionInput carries the optional fields a transition may need.
type TransitionInput struct {
	TrackingCode *string
	ShippingCost *decimal.Decimal
}

// Filter bounds on CreatedAt are inclusive. Nil fields do not filter.
type Filter struct {
	Status *Status
	Start  *time.Time
	End    *time.Time
}

func (f Filter) Matches(o *Order) bool {
	if f.Status != nil && o.Status != *f.Status {
		return false
	}
	if f.Start != nil && o.CreatedAt.Before(*f.Start) {
		return false
	}
	if f.End != nil && o.CreatedAt.After(*f.End) {
		return false
	}
	return true
}
