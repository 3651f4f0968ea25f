package orders

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/velvetcharms/storefront-backend/internal/cart"
	"github.com/velvetcharms/storefront-backend/internal/catalogue"
	"github.com/velvetcharms/storefront-backend/pkg/config"
	"github.com/velvetcharms/storefront-backend/pkg/enums"
	pkgerrors "github.com/velvetcharms/storefront-backend/pkg/errors"
	"github.com/velvetcharms/storefront-backend/pkg/money"
)

// Builder turns a cart into an order request. It is pure: no I/O, no clock.
type Builder struct {
	currency enums.Currency
	app      ApplicationContext
}

// NewBuilder validates the currency and captures the PayPal application context.
func NewBuilder(cfg config.PayPalConfig) (*Builder, error) {
	currency, err := enums.ParseCurrency(cfg.Currency)
	if err != nil {
		return nil, err
	}
	return &Builder{
		currency: currency,
		app: ApplicationContext{
			BrandName:   cfg.BrandName,
			ReturnURL:   cfg.ReturnURL,
			CancelURL:   cfg.CancelURL,
			LandingPage: cfg.LandingPage,
			UserAction:  cfg.UserAction,
		},
	}, nil
}

// Currency reports the currency every request is built in.
func (b *Builder) Currency() enums.Currency {
	return b.currency
}

// Build prices every line and computes the totals. Catalogue name and price win
// over the cart snapshot when the product is still listed and priced; lookup
// may be nil when no catalogue is available.
func (b *Builder) Build(c cart.Cart, lookup catalogue.Lookup, shipping decimal.Decimal) (Request, error) {
	if c.IsEmpty() {
		return Request{}, pkgerrors.Wrap(pkgerrors.CodeValidation, ErrEmptyCart, "cart is empty")
	}
	if shipping.IsNegative() {
		return Request{}, pkgerrors.New(pkgerrors.CodeValidation, "shipping must not be negative").
			WithDetails(map[string]any{"shipping": money.Format(shipping)})
	}

	lines := make([]Line, 0, c.Len())
	totals := make([]decimal.Decimal, 0, c.Len())
	for _, item := range c.Items {
		line, err := b.priceLine(item, lookup)
		if err != nil {
			return Request{}, err
		}
		lines = append(lines, line)
		totals = append(totals, line.Total)
	}

	itemTotal := money.Sum(totals...)
	shipping = money.Round2(shipping)
	return Request{
		Intent:      enums.OrderIntentCapture,
		Currency:    b.currency,
		Lines:       lines,
		ItemTotal:   itemTotal,
		Shipping:    shipping,
		GrandTotal:  money.Sum(itemTotal, shipping),
		Application: b.app,
	}, nil
}

func (b *Builder) priceLine(item cart.Line, lookup catalogue.Lookup) (Line, error) {
	id := strings.TrimSpace(item.ProductID)
	if id == "" {
		return Line{}, pkgerrors.New(pkgerrors.CodeValidation, "line item is missing a product id")
	}
	if item.Quantity < 1 {
		return Line{}, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("quantity for %q must be at least 1", id)).
			WithDetails(map[string]any{"id": id, "qty": item.Quantity})
	}

	name := strings.TrimSpace(item.Name)
	price := item.UnitPrice
	if lookup != nil {
		if product, ok := lookup.Lookup(id); ok {
			if product.Name != "" {
				name = product.Name
			}
			if product.Priced {
				price = product.Price
			}
		}
	}
	if price.IsNegative() {
		return Line{}, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("price for %q must not be negative", id)).
			WithDetails(map[string]any{"id": id, "price": price.String()})
	}
	if name == "" {
		name = "Product " + id
	}

	unit := money.Round2(price)
	return Line{
		ProductID: id,
		Name:      name,
		UnitPrice: unit,
		Quantity:  item.Quantity,
		Options:   item.Options,
		Total:     money.LineTotal(unit, item.Quantity),
	}, nil
}
