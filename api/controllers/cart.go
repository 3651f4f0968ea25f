package controllers

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/velvetcharms/storefront-backend/api/middleware"
	"github.com/velvetcharms/storefront-backend/api/responses"
	"github.com/velvetcharms/storefront-backend/api/validators"
	"github.com/velvetcharms/storefront-backend/internal/cart"
	"github.com/velvetcharms/storefront-backend/internal/catalogue"
	"github.com/velvetcharms/storefront-backend/internal/orders"
	pkgerrors "github.com/velvetcharms/storefront-backend/pkg/errors"
	"github.com/velvetcharms/storefront-backend/pkg/logger"
	"github.com/velvetcharms/storefront-backend/pkg/money"
)

type addCartItemPayload struct {
	ProductID string            `json:"productId" validate:"required"`
	Qty       int               `json:"qty" validate:"omitempty,min=1,max=999"`
	Options   map[string]string `json:"options,omitempty"`
}

type setCartItemPayload struct {
	Qty *int `json:"qty" validate:"required,min=0,max=999"`
}

type sessionCheckoutPayload struct {
	Shipping *decimal.Decimal `json:"shipping,omitempty"`
}

type cartView struct {
	Items    []cart.Line `json:"items"`
	Quantity int         `json:"quantity"`
	Subtotal string      `json:"subtotal"`
}

func newCartView(c cart.Cart) cartView {
	items := c.Lines()
	if items == nil {
		items = []cart.Line{}
	}
	return cartView{
		Items:    items,
		Quantity: c.Quantity(),
		Subtotal: money.Format(c.Subtotal()),
	}
}

// CartHandlers serves the session-scoped cart.
type CartHandlers struct {
	Sessions  SessionBackend
	Catalogue Catalogue
	Builder   *orders.Builder
	Orders    OrderService
	Locks     *SessionLocks
	Logger    *logger.Logger
}

func (h CartHandlers) store(ctx context.Context) (*cart.Store, error) {
	if h.Sessions == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "session storage is not configured")
	}
	sessionID := middleware.SessionIDFromContext(ctx)
	if sessionID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart session is required")
	}
	backend, err := h.Sessions(sessionID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "open session storage")
	}
	return cart.NewStore(backend, h.Logger)
}

func (h CartHandlers) index(ctx context.Context) *catalogue.Index {
	if h.Catalogue == nil {
		return nil
	}
	index, _ := h.Catalogue.Get(ctx)
	return index
}

// Get returns the session cart.
func (h CartHandlers) Get() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		store, err := h.store(ctx)
		if err != nil {
			responses.WriteError(ctx, h.Logger, w, err)
			return
		}
		c, err := store.Get(ctx)
		if err != nil {
			responses.WriteError(ctx, h.Logger, w, err)
			return
		}
		responses.WriteSuccess(w, newCartView(c))
	}
}

// AddItem adds a catalogue product, snapshotting its current name and price.
func (h CartHandlers) AddItem() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		var payload addCartItemPayload
		if err := validators.DecodeJSONBody(w, r, &payload); err != nil {
			responses.WriteError(ctx, h.Logger, w, err)
			return
		}
		if payload.Qty == 0 {
			payload.Qty = 1
		}

		product, ok := h.index(ctx).Lookup(payload.ProductID)
		if !ok {
			responses.WriteError(ctx, h.Logger, w, pkgerrors.New(pkgerrors.CodeNotFound, "product not found"))
			return
		}
		if !product.Priced {
			responses.WriteError(ctx, h.Logger, w, pkgerrors.New(pkgerrors.CodeValidation, "product is not available for purchase").
				WithDetails(map[string]any{"productId": product.ID}))
			return
		}

		unlock := h.Locks.Lock(middleware.SessionIDFromContext(ctx))
		defer unlock()
		store, err := h.store(ctx)
		if err != nil {
			responses.WriteError(ctx, h.Logger, w, err)
			return
		}
		c, err := store.Add(ctx, product.ID, cart.Snapshot{Name: product.Name, Price: product.Price}, payload.Qty, payload.Options)
		if err != nil {
			responses.WriteError(ctx, h.Logger, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, newCartView(c))
	}
}

// SetItem replaces a line quantity; zero removes the line.
func (h CartHandlers) SetItem() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		key, err := lineKeyParam(r)
		if err != nil {
			responses.WriteError(ctx, h.Logger, w, err)
			return
		}
		var payload setCartItemPayload
		if err := validators.DecodeJSONBody(w, r, &payload); err != nil {
			responses.WriteError(ctx, h.Logger, w, err)
			return
		}
		unlock := h.Locks.Lock(middleware.SessionIDFromContext(ctx))
		defer unlock()
		store, err := h.store(ctx)
		if err != nil {
			responses.WriteError(ctx, h.Logger, w, err)
			return
		}
		c, err := store.SetQuantity(ctx, key, *payload.Qty)
		if err != nil {
			responses.WriteError(ctx, h.Logger, w, err)
			return
		}
		responses.WriteSuccess(w, newCartView(c))
	}
}

// RemoveItem drops one line.
func (h CartHandlers) RemoveItem() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		key, err := lineKeyParam(r)
		if err != nil {
			responses.WriteError(ctx, h.Logger, w, err)
			return
		}
		unlock := h.Locks.Lock(middleware.SessionIDFromContext(ctx))
		defer unlock()
		store, err := h.store(ctx)
		if err != nil {
			responses.WriteError(ctx, h.Logger, w, err)
			return
		}
		c, err := store.Remove(ctx, key)
		if err != nil {
			responses.WriteError(ctx, h.Logger, w, err)
			return
		}
		responses.WriteSuccess(w, newCartView(c))
	}
}

// Clear empties the session cart.
func (h CartHandlers) Clear() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		unlock := h.Locks.Lock(middleware.SessionIDFromContext(ctx))
		defer unlock()
		store, err := h.store(ctx)
		if err != nil {
			responses.WriteError(ctx, h.Logger, w, err)
			return
		}
		if err := store.Clear(ctx); err != nil {
			responses.WriteError(ctx, h.Logger, w, err)
			return
		}
		responses.WriteSuccess(w, newCartView(cart.Cart{}))
	}
}

// Checkout opens a provider order for the whole session cart. The cart is
// left as is; the storefront clears it after capture.
func (h CartHandlers) Checkout() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if h.Orders == nil || h.Builder == nil {
			responses.WriteError(ctx, h.Logger, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}
		var payload sessionCheckoutPayload
		if r.ContentLength != 0 {
			if err := validators.DecodeJSONBody(w, r, &payload); err != nil {
				responses.WriteError(ctx, h.Logger, w, err)
				return
			}
		}
		shipping := decimal.Zero
		if payload.Shipping != nil {
			shipping = *payload.Shipping
		}

		store, err := h.store(ctx)
		if err != nil {
			responses.WriteError(ctx, h.Logger, w, err)
			return
		}
		c, err := store.Get(ctx)
		if err != nil {
			responses.WriteError(ctx, h.Logger, w, err)
			return
		}
		req, err := h.Builder.Build(c, h.index(ctx), shipping)
		if err != nil {
			responses.WriteError(ctx, h.Logger, w, err)
			return
		}
		created, err := h.Orders.CreateOrder(ctx, req)
		if err != nil {
			responses.WriteError(ctx, h.Logger, w, err)
			return
		}
		responses.WriteRaw(w, http.StatusOK, created)
	}
}

func lineKeyParam(r *http.Request) (string, error) {
	raw := chi.URLParam(r, "key")
	key, err := url.PathUnescape(raw)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid line key")
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "line key is required")
	}
	return key, nil
}
