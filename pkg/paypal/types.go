package paypal

import (
	"encoding/json"
	"strings"
)

const (
	IntentCapture = "CAPTURE"

	relApprove = "approve"
)

// OrderRequest is the body of POST /v2/checkout/orders.
type OrderRequest struct {
	Intent             string              `json:"intent"`
	PurchaseUnits      []PurchaseUnit      `json:"purchase_units"`
	ApplicationContext *ApplicationContext `json:"application_context,omitempty"`
}

type PurchaseUnit struct {
	ReferenceID string `json:"reference_id,omitempty"`
	Amount      Amount `json:"amount"`
	Items       []Item `json:"items,omitempty"`
}

// Money is a currency amount with a fixed two-place decimal string value.
type Money struct {
	CurrencyCode string `json:"currency_code"`
	Value        string `json:"value"`
}

type Amount struct {
	CurrencyCode string     `json:"currency_code"`
	Value        string     `json:"value"`
	Breakdown    *Breakdown `json:"breakdown,omitempty"`
}

type Breakdown struct {
	ItemTotal Money  `json:"item_total"`
	Shipping  *Money `json:"shipping,omitempty"`
}

type Item struct {
	Name       string `json:"name"`
	UnitAmount Money  `json:"unit_amount"`
	Quantity   string `json:"quantity"`
	SKU        string `json:"sku,omitempty"`
	// Description carries the chosen options, if any.
	Description string `json:"description,omitempty"`
}

type ApplicationContext struct {
	BrandName   string `json:"brand_name,omitempty"`
	LandingPage string `json:"landing_page,omitempty"`
	UserAction  string `json:"user_action,omitempty"`
	ReturnURL   string `json:"return_url,omitempty"`
	CancelURL   string `json:"cancel_url,omitempty"`
}

// Order is the subset of the PayPal order resource the storefront reads.
type Order struct {
	ID            string               `json:"id"`
	Status        string               `json:"status"`
	Links         []Link               `json:"links,omitempty"`
	PurchaseUnits []PurchaseUnitResult `json:"purchase_units,omitempty"`

	// Raw is the response body exactly as PayPal sent it.
	Raw json.RawMessage `json:"-"`
}

type Link struct {
	Href   string `json:"href"`
	Rel    string `json:"rel"`
	Method string `json:"method,omitempty"`
}

type PurchaseUnitResult struct {
	ReferenceID string    `json:"reference_id,omitempty"`
	Payments    *Payments `json:"payments,omitempty"`
}

type Payments struct {
	Captures []Capture `json:"captures,omitempty"`
}

type Capture struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Amount *Money `json:"amount,omitempty"`
}

// Link returns the href of the first link with the given relation.
func (o *Order) Link(rel string) string {
	if o == nil {
		return ""
	}
	for _, link := range o.Links {
		if strings.EqualFold(link.Rel, rel) {
			return link.Href
		}
	}
	return ""
}

// ApproveURL is where the payer approves the order.
func (o *Order) ApproveURL() string {
	return o.Link(relApprove)
}

// CaptureID returns the first capture id, if the order has been captured.
func (o *Order) CaptureID() string {
	if o == nil {
		return ""
	}
	for _, unit := range o.PurchaseUnits {
		if unit.Payments == nil {
			continue
		}
		for _, capture := range unit.Payments.Captures {
			if capture.ID != "" {
				return capture.ID
			}
		}
	}
	return ""
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// errorEnvelope detects PayPal error payloads on otherwise successful responses.
type errorEnvelope struct {
	Error string `json:"error"`
	Name  string `json:"name"`
}

func (p errorEnvelope) present() bool {
	return p.Error != "" || p.Name != ""
}
