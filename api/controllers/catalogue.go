package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/velvetcharms/storefront-backend/api/responses"
	"github.com/velvetcharms/storefront-backend/api/validators"
	"github.com/velvetcharms/storefront-backend/internal/catalogue"
	pkgerrors "github.com/velvetcharms/storefront-backend/pkg/errors"
	"github.com/velvetcharms/storefront-backend/pkg/logger"
)

type catalogueListResponse struct {
	Products []catalogue.Product `json:"products"`
	Total    int                 `json:"total"`
	Failed   []string            `json:"failedSources,omitempty"`
}

// CatalogueList returns the merged catalogue, optionally filtered by
// ?category= (matched against any level of the category path) and capped by ?limit=.
func CatalogueList(cat Catalogue, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if cat == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalogue unavailable"))
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", 0, 0, 10000)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		category := validators.SanitizeString(r.URL.Query().Get("category"), 200)

		index, report := cat.Get(ctx)
		products := make([]catalogue.Product, 0, index.Len())
		for _, p := range index.Products() {
			if category != "" && !inCategory(p, category) {
				continue
			}
			products = append(products, p)
		}
		total := len(products)
		if limit > 0 && len(products) > limit {
			products = products[:limit]
		}

		responses.WriteSuccess(w, catalogueListResponse{
			Products: products,
			Total:    total,
			Failed:   report.Failed,
		})
	}
}

// CatalogueProduct returns one product by id.
func CatalogueProduct(cat Catalogue, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if cat == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalogue unavailable"))
			return
		}
		id := strings.TrimSpace(chi.URLParam(r, "id"))
		index, _ := cat.Get(ctx)
		product, ok := index.Lookup(id)
		if !ok {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "product not found").
				WithDetails(map[string]any{"id": id}))
			return
		}
		responses.WriteSuccess(w, product)
	}
}

func inCategory(p catalogue.Product, category string) bool {
	for _, name := range p.Category {
		if strings.EqualFold(name, category) {
			return true
		}
	}
	return false
}
