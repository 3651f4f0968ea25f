package orders

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/velvetcharms/storefront-backend/internal/cart"
	pkgerrors "github.com/velvetcharms/storefront-backend/pkg/errors"
	"github.com/velvetcharms/storefront-backend/pkg/money"
)

// CartPayload is the create-order request body.
type CartPayload struct {
	Cart PayloadCart `json:"cart"`
}

type PayloadCart struct {
	Items    []PayloadItem    `json:"items"`
	Shipping *decimal.Decimal `json:"shipping,omitempty"`
}

type PayloadItem struct {
	ID      string            `json:"id"`
	Name    string            `json:"name"`
	Price   decimal.Decimal   `json:"price"`
	Qty     int               `json:"qty"`
	Options map[string]string `json:"options,omitempty"`
}

// CartPayload is the body the checkout client posts for this request.
func (r Request) CartPayload() CartPayload {
	items := make([]PayloadItem, 0, len(r.Lines))
	for _, line := range r.Lines {
		items = append(items, PayloadItem{
			ID:      line.ProductID,
			Name:    line.Name,
			Price:   line.UnitPrice,
			Qty:     line.Quantity,
			Options: line.Options,
		})
	}
	payload := CartPayload{Cart: PayloadCart{Items: items}}
	if r.HasShipping() {
		shipping := r.Shipping
		payload.Cart.Shipping = &shipping
	}
	return payload
}

// ToCart validates the payload and converts it into a cart plus shipping.
func (p CartPayload) ToCart() (cart.Cart, decimal.Decimal, error) {
	shipping := decimal.Zero
	if p.Cart.Shipping != nil {
		shipping = *p.Cart.Shipping
	}
	if len(p.Cart.Items) == 0 {
		return cart.Cart{}, shipping, pkgerrors.Wrap(pkgerrors.CodeValidation, ErrEmptyCart, "cart is empty")
	}

	c := cart.Cart{Items: make([]cart.Line, 0, len(p.Cart.Items))}
	var problems []string
	for i, item := range p.Cart.Items {
		id := strings.TrimSpace(item.ID)
		switch {
		case id == "":
			problems = append(problems, fmt.Sprintf("items[%d].id is required", i))
			continue
		case item.Qty < 1:
			problems = append(problems, fmt.Sprintf("items[%d].qty must be at least 1", i))
			continue
		case item.Price.IsNegative():
			problems = append(problems, fmt.Sprintf("items[%d].price must not be negative", i))
			continue
		}
		c.Items = append(c.Items, cart.Line{
			Key:       cart.LineKey(id, item.Options),
			ProductID: id,
			Name:      item.Name,
			UnitPrice: item.Price,
			Quantity:  item.Qty,
			Options:   item.Options,
		})
	}
	if shipping.IsNegative() {
		problems = append(problems, "shipping must not be negative")
	}
	if len(problems) > 0 {
		return cart.Cart{}, shipping, pkgerrors.New(pkgerrors.CodeValidation, "invalid cart").
			WithDetails(map[string]any{"problems": problems})
	}
	return c, money.Round2(shipping), nil
}
