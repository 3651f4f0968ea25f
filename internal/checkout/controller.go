package checkout

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/velvetcharms/storefront-backend/internal/cart"
	"github.com/velvetcharms/storefront-backend/internal/catalogue"
	"github.com/velvetcharms/storefront-backend/internal/orders"
	pkgerrors "github.com/velvetcharms/storefront-backend/pkg/errors"
	"github.com/velvetcharms/storefront-backend/pkg/logger"
)

// CartReader is the read side of the cart store.
type CartReader interface {
	Get(ctx context.Context) (cart.Cart, error)
}

// OrderCreator creates provider orders. *orders.Service and *HTTPOrderService implement it.
type OrderCreator interface {
	CreateOrder(ctx context.Context, req orders.Request) (orders.Created, error)
}

// Navigator sends the shopper to the approval page.
type Navigator interface {
	Navigate(ctx context.Context, url string) error
}

// Notifier shows outcomes to the shopper.
type Notifier interface {
	Notify(ctx context.Context, notice Notice)
}

type Level string

const (
	LevelInfo  Level = "info"
	LevelError Level = "error"
)

// Notice is a user-visible message. Kind and Detail are set for failures.
type Notice struct {
	Level   Level
	Message string
	Kind    pkgerrors.Code
	Detail  any
}

// Outcome describes a successful checkout.
type Outcome struct {
	OrderID     string
	ApprovalURL string
	GrandTotal  decimal.Decimal
	Lines       int
}

type Params struct {
	Cart      CartReader
	Catalogue catalogue.Lookup
	Builder   *orders.Builder
	Orders    OrderCreator
	Navigator Navigator
	Notifier  Notifier
	Shipping  decimal.Decimal
	Logger    *logger.Logger
}

// Controller runs the whole-cart checkout. It never mutates the cart.
type Controller struct {
	cart      CartReader
	catalogue catalogue.Lookup
	builder   *orders.Builder
	orders    OrderCreator
	navigator Navigator
	notifier  Notifier
	shipping  decimal.Decimal
	logger    *logger.Logger
}

func NewController(params Params) (*Controller, error) {
	switch {
	case params.Cart == nil:
		return nil, errors.New("checkout: cart is required")
	case params.Builder == nil:
		return nil, errors.New("checkout: order builder is required")
	case params.Orders == nil:
		return nil, errors.New("checkout: order service is required")
	case params.Navigator == nil:
		return nil, errors.New("checkout: navigator is required")
	}
	notifier := params.Notifier
	if notifier == nil {
		notifier = NopNotifier{}
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &Controller{
		cart:      params.Cart,
		catalogue: params.Catalogue,
		builder:   params.Builder,
		orders:    params.Orders,
		navigator: params.Navigator,
		notifier:  notifier,
		shipping:  params.Shipping,
		logger:    logg,
	}, nil
}

// CheckoutAll builds an order for the whole cart, creates it and navigates to
// the approval URL. An empty cart fails with orders.ErrEmptyCart before any
// network call. On failure the cart is left as it was and the shopper is told
// what went wrong.
func (c *Controller) CheckoutAll(ctx context.Context) (Outcome, error) {
	current, err := c.cart.Get(ctx)
	if err != nil {
		return Outcome{}, c.fail(ctx, "Could not read your cart.", err)
	}
	if current.IsEmpty() {
		c.notifier.Notify(ctx, Notice{Level: LevelInfo, Message: "Your cart is empty.", Kind: pkgerrors.CodeValidation})
		return Outcome{}, pkgerrors.Wrap(pkgerrors.CodeValidation, orders.ErrEmptyCart, "cart is empty")
	}

	req, err := c.builder.Build(current, c.catalogue, c.shipping)
	if err != nil {
		return Outcome{}, c.fail(ctx, "Your cart could not be checked out.", err)
	}

	created, err := c.orders.CreateOrder(ctx, req)
	if err != nil {
		return Outcome{}, c.fail(ctx, "Payment could not be started.", err)
	}

	ctx = c.logger.WithOrderID(ctx, created.OrderID)
	if err := c.navigator.Navigate(ctx, created.ApprovalURL); err != nil {
		return Outcome{}, c.fail(ctx, fmt.Sprintf("Open %s to complete payment.", created.ApprovalURL), err)
	}
	c.logger.Info(ctx, "checkout redirected to approval")

	return Outcome{
		OrderID:     created.OrderID,
		ApprovalURL: created.ApprovalURL,
		GrandTotal:  req.GrandTotal,
		Lines:       len(req.Lines),
	}, nil
}

func (c *Controller) fail(ctx context.Context, message string, err error) error {
	notice := Notice{Level: LevelError, Message: message, Kind: pkgerrors.CodeOf(err)}
	if typed := pkgerrors.As(err); typed != nil {
		notice.Detail = typed.Details()
	}
	c.notifier.Notify(ctx, notice)
	c.logger.Warn(c.logger.WithFields(ctx, map[string]any{
		"kind":  string(notice.Kind),
		"error": err.Error(),
	}), "checkout failed")
	return err
}
