package orders

import (
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/velvetcharms/storefront-backend/pkg/money"
	"github.com/velvetcharms/storefront-backend/pkg/paypal"
)

// maxItemText is PayPal's limit for item name, sku and description.
const maxItemText = 127

// ProviderRequest renders the request in the PayPal Orders v2 shape.
func (r Request) ProviderRequest() paypal.OrderRequest {
	currency := r.Currency.String()
	amount := func(v string) paypal.Money { return paypal.Money{CurrencyCode: currency, Value: v} }

	items := make([]paypal.Item, 0, len(r.Lines))
	for _, line := range r.Lines {
		items = append(items, paypal.Item{
			Name:        truncate(line.Name, maxItemText),
			UnitAmount:  amount(money.Format(line.UnitPrice)),
			Quantity:    strconv.Itoa(line.Quantity),
			SKU:         truncate(line.ProductID, maxItemText),
			Description: truncate(describeOptions(line.Options), maxItemText),
		})
	}

	breakdown := &paypal.Breakdown{ItemTotal: amount(money.Format(r.ItemTotal))}
	if r.HasShipping() {
		shipping := amount(money.Format(r.Shipping))
		breakdown.Shipping = &shipping
	}

	return paypal.OrderRequest{
		Intent: r.Intent.String(),
		PurchaseUnits: []paypal.PurchaseUnit{{
			Amount: paypal.Amount{
				CurrencyCode: currency,
				Value:        money.Format(r.GrandTotal),
				Breakdown:    breakdown,
			},
			Items: items,
		}},
		ApplicationContext: &paypal.ApplicationContext{
			BrandName:   r.Application.BrandName,
			LandingPage: r.Application.LandingPage,
			UserAction:  r.Application.UserAction,
			ReturnURL:   r.Application.ReturnURL,
			CancelURL:   r.Application.CancelURL,
		},
	}
}

func describeOptions(options map[string]string) string {
	if len(options) == 0 {
		return ""
	}
	keys := make([]string, 0, len(options))
	for k := range options {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+options[k])
	}
	return strings.Join(parts, ", ")
}

func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max])
}
