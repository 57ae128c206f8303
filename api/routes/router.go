package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/uchsash/medistore/api/controllers"
	cartcontrollers "github.com/uchsash/medistore/api/controllers/cart"
	listcontrollers "github.com/uchsash/medistore/api/controllers/lists"
	"github.com/uchsash/medistore/api/middleware"
	"github.com/uchsash/medistore/internal/query"
	"github.com/uchsash/medistore/pkg/config"
	"github.com/uchsash/medistore/pkg/logger"
	"github.com/uchsash/medistore/pkg/metrics"
)

// Catalog is everything the gateway asks of the upstream API.
type Catalog interface {
	listcontrollers.Catalog
	controllers.CatalogReader
	middleware.SessionResolver
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	gatherer prometheus.Gatherer,
	readiness map[string]controllers.Pinger,
	carts cartcontrollers.Carts,
	catalog Catalog,
	listMetrics *metrics.ListFetchMetrics,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, readiness))
	})

	if gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	listOpts := []query.Option{
		query.WithDebounce(cfg.Query.Debounce),
		query.WithMetrics(listMetrics),
	}

	r.Route("/api", func(r chi.Router) {
		r.Route("/cart", func(r chi.Router) {
			r.Use(middleware.Profile(logg, cfg.App.IsProd()))
			r.Get("/", cartcontrollers.CartFetch(carts, logg))
			r.Delete("/", cartcontrollers.CartClear(carts, logg))
			r.Get("/count", cartcontrollers.CartCount(carts, logg))
			r.Get("/events", cartcontrollers.CartEvents(carts, logg))
			r.Post("/items", cartcontrollers.CartAddItem(carts, logg))
			r.Patch("/items/{itemId}", cartcontrollers.CartSetQuantity(carts, logg))
			r.Delete("/items/{itemId}", cartcontrollers.CartRemoveItem(carts, logg))
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Role(catalog, logg))

			r.Route("/catalog", func(r chi.Router) {
				r.Get("/categories", controllers.CategoryList(catalog, logg))
				r.Get("/medicines/{medicineId}", controllers.MedicineDetail(catalog, logg))
			})

			r.Route("/lists", func(r chi.Router) {
				r.Get("/", listcontrollers.ListResources())
				r.Get("/{resource}", listcontrollers.ListFetch(catalog, logg, listOpts...))
				r.Delete("/my-medicines/{medicineId}", listcontrollers.MyMedicineDelete(catalog, logg, listOpts...))
			})
		})
	})

	return r
}
