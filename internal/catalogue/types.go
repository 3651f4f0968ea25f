package catalogue

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Product is one catalogue entry. Unpriced products ("contact us") have
// Priced == false and a zero Price.
type Product struct {
	ID       string              `json:"id"`
	Name     string              `json:"name"`
	Price    decimal.Decimal     `json:"price"`
	Priced   bool                `json:"priced"`
	Images   []string            `json:"images,omitempty"`
	Options  map[string][]string `json:"options,omitempty"`
	Category []string            `json:"category,omitempty"`
	Source   string              `json:"source,omitempty"`
}

// Document is the shape of one catalogue JSON file.
type Document struct {
	Categories []Category `json:"categories"`
}

type Category struct {
	Name          string       `json:"name"`
	Products      []rawProduct `json:"products,omitempty"`
	Subcategories []Category   `json:"subcategories,omitempty"`
}

type rawProduct struct {
	ID      flexString          `json:"id"`
	Name    string              `json:"name"`
	Price   json.RawMessage     `json:"price"`
	Images  []string            `json:"images,omitempty"`
	Options map[string][]string `json:"options,omitempty"`
}

// flexString accepts both "id":"abc" and "id":42.
type flexString string

func (f *flexString) UnmarshalJSON(raw []byte) error {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		*f = ""
		return nil
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return fmt.Errorf("id must be a string or number: %w", err)
	}
	*f = flexString(n.String())
	return nil
}

// parsePrice reads a number or numeric string. Absent, null and "" mean unpriced.
func parsePrice(raw json.RawMessage) (decimal.Decimal, bool, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return decimal.Zero, false, nil
	}
	text := string(raw)
	if raw[0] == '"' {
		if err := json.Unmarshal(raw, &text); err != nil {
			return decimal.Zero, false, err
		}
		text = strings.TrimSpace(text)
		if text == "" {
			return decimal.Zero, false, nil
		}
	}
	price, err := decimal.NewFromString(text)
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("invalid price %s", string(raw))
	}
	if price.IsNegative() {
		return decimal.Zero, false, fmt.Errorf("negative price %s", price.String())
	}
	return price, true, nil
}
