package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/storefront-backend/api/controllers"
	"github.com/angelmondragon/storefront-backend/api/middleware"
	"github.com/angelmondragon/storefront-backend/internal/catalog"
	"github.com/angelmondragon/storefront-backend/internal/orders"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	gatherer prometheus.Gatherer,
	catalogService catalog.Service,
	cartSessions controllers.CartSessions,
	submitter controllers.OrderSubmitter,
	ordersService orders.Service,
) http.Handler {
	r := chi.NewRouter()

	// a nil *redis.Client must stay a nil interface for the optional consumers
	var (
		redisPinger      redis.Pinger
		idempotencyStore redis.IdempotencyStore
	)
	if redisClient != nil {
		redisPinger = redisClient
		idempotencyStore = redisClient
	}

	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.AllowedOrigins()),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisPinger))
	})
	if gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(
			middleware.Device(logg),
			middleware.Identity(cfg.JWT, logg),
		)

		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.ListProducts(catalogService, logg))
			r.Get("/{productId}", controllers.GetProduct(catalogService, logg))
		})

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.GetCart(cartSessions, logg))
			r.Delete("/", controllers.ClearCart(cartSessions, logg))
			r.Post("/items", controllers.AddCartItem(cartSessions, catalogService, logg))
			r.Patch("/items/{itemId}", controllers.UpdateCartItem(cartSessions, logg))
			r.Delete("/items/{itemId}", controllers.RemoveCartItem(cartSessions, logg))
		})

		r.Get("/checkout/totals", controllers.CheckoutTotals(cartSessions, submitter, logg))
		r.With(middleware.Idempotency(idempotencyStore, logg)).
			Post("/checkout", controllers.SubmitCheckout(cartSessions, catalogService, submitter, logg))

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.ListOrders(ordersService, logg))
			r.Get("/{orderId}", controllers.GetOrder(ordersService, logg))
		})
	})

	return r
}
