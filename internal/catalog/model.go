package catalog

import (
	"strings"

	"github.com/shopspring/decimal"
	"github.com/vasiliy-maslov/production-orders/internal/apperr"
)

// Product is catalog reference data. Products are never deleted, only deactivated.
type Product struct {
	ID        int64           `json:"id" db:"id"`
	Name      string          `json:"name" db:"name"`
	SalePrice decimal.Decimal `json:"salePrice" db:"sale_price"`
	UnitCost  decimal.Decimal `json:"unitCost" db:"unit_cost"`
	Active    bool            `json:"active" db:"active"`
}

// Margin is the sale price minus the unit cost. It is never stored.
func (p Product) Margin() decimal.Decimal {
	return p.SalePrice.Sub(p.UnitCost)
}

// Input is the full set of editable product fields. Update replaces all of them.
type Input struct {
	Name      string
	SalePrice decimal.Decimal
	UnitCost  decimal.Decimal
	Active    bool
}

func (in Input) Validate() error {
	ve := &apperr.ValidationError{}
	if strings.TrimSpace(in.Name) == "" {
		ve.Add("name", "is required")
	}
	if in.SalePrice.IsNegative() {
		ve.Add("salePrice", "must be greater than or equal to zero")
	}
	if in.UnitCost.IsNegative() {
		ve.Add("unitCost", "must be greater than or equal to zero")
	}
	return ve.OrNil()
}
