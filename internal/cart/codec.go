package cart

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/velvetcharms/storefront-backend/pkg/storage"
)

// StorageKey is the local storage key the original storefront used.
const StorageKey = "velvetcharms_cart_v1"

const blobVersion = 2

var codec = storage.Codec[Cart]{
	Version: blobVersion,
	Legacy:  decodeLegacy,
	Empty:   emptyCart,
}

// legacyLine is the unversioned layout: an object keyed by product id.
// Per-item payment links are dropped.
type legacyLine struct {
	Name  string          `json:"name"`
	Price json.RawMessage `json:"price"`
	Qty   json.Number     `json:"qty"`
}

func decodeLegacy(raw []byte) (Cart, error) {
	var legacy map[string]legacyLine
	if err := json.Unmarshal(raw, &legacy); err != nil {
		return Cart{}, err
	}
	ids := make([]string, 0, len(legacy))
	for id := range legacy {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := emptyCart()
	for _, id := range ids {
		entry := legacy[id]
		qty, err := entry.Qty.Int64()
		if err != nil || qty < 1 {
			continue
		}
		price, err := legacyPrice(entry.Price)
		if err != nil {
			return Cart{}, fmt.Errorf("line %q: %w", id, err)
		}
		name := strings.TrimSpace(entry.Name)
		if name == "" {
			name = id
		}
		out.Items = append(out.Items, Line{
			Key:       LineKey(id, nil),
			ProductID: id,
			Name:      name,
			UnitPrice: price,
			Quantity:  int(qty),
		})
	}
	return out, nil
}

func legacyPrice(raw json.RawMessage) (decimal.Decimal, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) || bytes.Equal(raw, []byte(`""`)) {
		return decimal.Zero, nil
	}
	var d decimal.Decimal
	if err := d.UnmarshalJSON(raw); err != nil {
		return decimal.Zero, err
	}
	return d, nil
}

// sanitize drops lines that break the cart invariants.
func sanitize(c Cart) Cart {
	out := emptyCart()
	for _, l := range c.Items {
		if l.Quantity < 1 || strings.TrimSpace(l.ProductID) == "" || l.UnitPrice.IsNegative() {
			continue
		}
		l.Options = normalizeOptions(l.Options)
		l.Key = LineKey(l.ProductID, l.Options)
		if i := out.indexOf(l.Key); i >= 0 {
			out.Items[i].Quantity += l.Quantity
			continue
		}
		out.Items = append(out.Items, l)
	}
	return out
}
