package cart

import (
	"net/url"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/velvetcharms/storefront-backend/pkg/money"
)

// Line is one product+options entry. Quantity is always at least 1.
type Line struct {
	Key       string            `json:"key"`
	ProductID string            `json:"productId"`
	Name      string            `json:"name"`
	UnitPrice decimal.Decimal   `json:"unitPrice"`
	Quantity  int               `json:"quantity"`
	Options   map[string]string `json:"options,omitempty"`
}

// Total is round2(unit) × quantity.
func (l Line) Total() decimal.Decimal {
	return money.LineTotal(l.UnitPrice, l.Quantity)
}

// Snapshot is the product data captured when a line is added.
type Snapshot struct {
	Name  string
	Price decimal.Decimal
}

// Cart is an ordered list of lines.
type Cart struct {
	Items []Line `json:"items"`
}

func (c Cart) Lines() []Line {
	return append([]Line(nil), c.Items...)
}

func (c Cart) Line(key string) (Line, bool) {
	if i := c.indexOf(key); i >= 0 {
		return c.Items[i], true
	}
	return Line{}, false
}

func (c Cart) Len() int {
	return len(c.Items)
}

func (c Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// Quantity is the number of units across all lines.
func (c Cart) Quantity() int {
	total := 0
	for _, l := range c.Items {
		total += l.Quantity
	}
	return total
}

// Subtotal sums the snapshot prices.
func (c Cart) Subtotal() decimal.Decimal {
	totals := make([]decimal.Decimal, 0, len(c.Items))
	for _, l := range c.Items {
		totals = append(totals, l.Total())
	}
	return money.Sum(totals...)
}

func (c Cart) indexOf(key string) int {
	for i, l := range c.Items {
		if l.Key == key {
			return i
		}
	}
	return -1
}

func emptyCart() Cart {
	return Cart{Items: []Line{}}
}

// LineKey identifies a line: the product id alone, or the product id followed
// by the sorted, url-encoded options.
func LineKey(productID string, options map[string]string) string {
	productID = strings.TrimSpace(productID)
	options = normalizeOptions(options)
	if len(options) == 0 {
		return productID
	}
	keys := make([]string, 0, len(options))
	for k := range options {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, url.QueryEscape(k)+"="+url.QueryEscape(options[k]))
	}
	return productID + "?" + strings.Join(parts, "&")
}

func normalizeOptions(options map[string]string) map[string]string {
	if len(options) == 0 {
		return nil
	}
	out := make(map[string]string, len(options))
	for k, v := range options {
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}
		out[k] = strings.TrimSpace(v)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
