package orders

import (
	"errors"

	"github.com/shopspring/decimal"

	"github.com/velvetcharms/storefront-backend/pkg/enums"
)

// ErrEmptyCart is returned (wrapped as a validation error) for a cart with no lines.
var ErrEmptyCart = errors.New("cart is empty")

// Line is a priced line of an order request.
type Line struct {
	ProductID string
	Name      string
	UnitPrice decimal.Decimal
	Quantity  int
	Options   map[string]string
	Total     decimal.Decimal
}

// Request is the provider-neutral order the builder produces. Every amount is
// already rounded to two places; GrandTotal == ItemTotal + Shipping.
type Request struct {
	Intent      enums.OrderIntent
	Currency    enums.Currency
	Lines       []Line
	ItemTotal   decimal.Decimal
	Shipping    decimal.Decimal
	GrandTotal  decimal.Decimal
	Application ApplicationContext
}

type ApplicationContext struct {
	BrandName   string
	ReturnURL   string
	CancelURL   string
	LandingPage string
	UserAction  string
}

// HasShipping reports whether the shipping breakdown entry is sent.
func (r Request) HasShipping() bool {
	return r.Shipping.IsPositive()
}
