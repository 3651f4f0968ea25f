package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/velvetcharms/storefront-backend/api/controllers"
	"github.com/velvetcharms/storefront-backend/api/middleware"
	"github.com/velvetcharms/storefront-backend/api/responses"
	"github.com/velvetcharms/storefront-backend/internal/contact"
	"github.com/velvetcharms/storefront-backend/internal/orders"
	"github.com/velvetcharms/storefront-backend/internal/uploads"
	"github.com/velvetcharms/storefront-backend/pkg/config"
	"github.com/velvetcharms/storefront-backend/pkg/logger"
)

// Dependencies are the services the HTTP surface is built from. Sessions and
// Idempotency are nil when Redis is not configured.
type Dependencies struct {
	Config      *config.Config
	Logger      *logger.Logger
	Orders      controllers.OrderService
	Builder     *orders.Builder
	Catalogue   controllers.Catalogue
	Sessions    controllers.SessionBackend
	Idempotency middleware.IdempotencyStore
	Contact     contact.Service
	Uploads     uploads.Service
	Readiness   map[string]controllers.Pinger
	Gatherer    prometheus.Gatherer
}

func NewRouter(deps Dependencies) http.Handler {
	cfg, logg := deps.Config, deps.Logger
	if cfg == nil {
		cfg = &config.Config{}
	}

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.CORS),
	)
	r.MethodNotAllowed(responses.MethodNotAllowed(logg))
	r.NotFound(responses.NotFound(logg))

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, deps.Readiness, logg))
	})

	if deps.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			if deps.Idempotency != nil {
				r.Use(middleware.Idempotency(deps.Idempotency, logg))
			}
			r.Post("/create-order", controllers.CreateOrder(deps.Orders, deps.Builder, deps.Catalogue, logg))
			r.Post("/capture-order", controllers.CaptureOrder(deps.Orders, logg))
		})
		r.Get("/return", controllers.ReturnFromProvider(deps.Orders, logg))
		r.Get("/cancel", controllers.CancelFromProvider(logg))

		r.Get("/catalogue", controllers.CatalogueList(deps.Catalogue, logg))
		r.Get("/catalogue/products/{id}", controllers.CatalogueProduct(deps.Catalogue, logg))

		r.Post("/contact", controllers.ContactSubmit(deps.Contact, logg))
		r.Post("/upload", controllers.Upload(deps.Uploads, logg))

		r.Route("/v1", func(r chi.Router) {
			r.Use(middleware.Session(logg))

			locks := &controllers.SessionLocks{}
			carts := controllers.CartHandlers{
				Sessions:  deps.Sessions,
				Locks:     locks,
				Catalogue: deps.Catalogue,
				Builder:   deps.Builder,
				Orders:    deps.Orders,
				Logger:    logg,
			}
			r.Route("/cart", func(r chi.Router) {
				r.Get("/", carts.Get())
				r.Delete("/", carts.Clear())
				r.Post("/items", carts.AddItem())
				r.Put("/items/{key}", carts.SetItem())
				r.Delete("/items/{key}", carts.RemoveItem())
				r.Post("/checkout", carts.Checkout())
			})

			wishes := controllers.WishlistHandlers{Sessions: deps.Sessions, Locks: locks, Logger: logg}
			r.Route("/wishlist", func(r chi.Router) {
				r.Get("/", wishes.Get())
				r.Post("/toggle", wishes.Toggle())
				r.Delete("/{id}", wishes.Remove())
			})
		})
	})

	return r
}
