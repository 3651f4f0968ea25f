package controllers

import (
	"net/http"

	"github.com/velvetcharms/storefront-backend/api/responses"
	"github.com/velvetcharms/storefront-backend/api/validators"
	"github.com/velvetcharms/storefront-backend/internal/catalogue"
	"github.com/velvetcharms/storefront-backend/internal/orders"
	pkgerrors "github.com/velvetcharms/storefront-backend/pkg/errors"
	"github.com/velvetcharms/storefront-backend/pkg/logger"
)

type captureOrderPayload struct {
	OrderID string `json:"orderID" validate:"required"`
}

// CreateOrder prices the posted cart against the catalogue and opens a
// provider order, answering {orderID, approveUrl}.
func CreateOrder(svc OrderService, builder *orders.Builder, cat Catalogue, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil || builder == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}

		var payload orders.CartPayload
		if err := validators.DecodeLooseJSONBody(w, r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		c, shipping, err := payload.ToCart()
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var index *catalogue.Index
		if cat != nil {
			index, _ = cat.Get(ctx)
		}
		req, err := builder.Build(c, index, shipping)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		created, err := svc.CreateOrder(ctx, req)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteRaw(w, http.StatusOK, created)
	}
}

// CaptureOrder captures an approved order, answering {status, id, captureId, details}.
func CaptureOrder(svc OrderService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}

		var payload captureOrderPayload
		if err := validators.DecodeLooseJSONBody(w, r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		captured, err := svc.CaptureOrder(ctx, payload.OrderID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteRaw(w, http.StatusOK, captured)
	}
}

// ReturnFromProvider is the approval landing route; the provider appends the
// order id as ?token=.
func ReturnFromProvider(svc OrderService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}
		orderID, err := validators.RequireQuery(r, "token")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		captured, err := svc.CaptureOrder(ctx, orderID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteRaw(w, http.StatusOK, captured)
	}
}

// CancelFromProvider acknowledges a buyer abandoning approval. Nothing is
// captured; the unapproved order expires on the provider side.
func CancelFromProvider(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID := validators.SanitizeString(r.URL.Query().Get("token"), 64)
		if logg != nil {
			logg.Info(logg.WithOrderID(r.Context(), orderID), "buyer cancelled approval")
		}
		responses.WriteRaw(w, http.StatusOK, map[string]string{
			"status":  "CANCELED",
			"orderID": orderID,
		})
	}
}
