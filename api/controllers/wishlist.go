package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/velvetcharms/storefront-backend/api/middleware"
	"github.com/velvetcharms/storefront-backend/api/responses"
	"github.com/velvetcharms/storefront-backend/api/validators"
	"github.com/velvetcharms/storefront-backend/internal/wishlist"
	pkgerrors "github.com/velvetcharms/storefront-backend/pkg/errors"
	"github.com/velvetcharms/storefront-backend/pkg/logger"
)

type toggleWishlistPayload struct {
	ProductID string `json:"productId" validate:"required,max=200"`
}

type wishlistView struct {
	IDs   []string `json:"ids"`
	Added *bool    `json:"added,omitempty"`
}

// WishlistHandlers serves the session-scoped wishlist.
type WishlistHandlers struct {
	Sessions SessionBackend
	Locks    *SessionLocks
	Logger   *logger.Logger
}

func (h WishlistHandlers) store(ctx context.Context) (*wishlist.Store, error) {
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
	return wishlist.NewStore(backend, h.Logger)
}

func (h WishlistHandlers) Get() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		store, err := h.store(ctx)
		if err != nil {
			responses.WriteError(ctx, h.Logger, w, err)
			return
		}
		list, err := store.Get(ctx)
		if err != nil {
			responses.WriteError(ctx, h.Logger, w, err)
			return
		}
		responses.WriteSuccess(w, wishlistView{IDs: list.IDs})
	}
}

// Toggle adds an absent id or removes a present one.
func (h WishlistHandlers) Toggle() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		var payload toggleWishlistPayload
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
		list, added, err := store.Toggle(ctx, payload.ProductID)
		if err != nil {
			responses.WriteError(ctx, h.Logger, w, err)
			return
		}
		responses.WriteSuccess(w, wishlistView{IDs: list.IDs, Added: &added})
	}
}

func (h WishlistHandlers) Remove() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		id := strings.TrimSpace(chi.URLParam(r, "id"))
		unlock := h.Locks.Lock(middleware.SessionIDFromContext(ctx))
		defer unlock()
		store, err := h.store(ctx)
		if err != nil {
			responses.WriteError(ctx, h.Logger, w, err)
			return
		}
		list, err := store.Remove(ctx, id)
		if err != nil {
			responses.WriteError(ctx, h.Logger, w, err)
			return
		}
		responses.WriteSuccess(w, wishlistView{IDs: list.IDs})
	}
}
