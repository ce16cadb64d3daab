package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/cakeshop-backend/api/controllers"
	"github.com/angelmondragon/cakeshop-backend/api/middleware"
	"github.com/angelmondragon/cakeshop-backend/internal/auth"
	"github.com/angelmondragon/cakeshop-backend/internal/cart"
	"github.com/angelmondragon/cakeshop-backend/internal/newsletter"
	product "github.com/angelmondragon/cakeshop-backend/internal/products"
	"github.com/angelmondragon/cakeshop-backend/pkg/auth/session"
	"github.com/angelmondragon/cakeshop-backend/pkg/config"
	"github.com/angelmondragon/cakeshop-backend/pkg/db"
	"github.com/angelmondragon/cakeshop-backend/pkg/logger"
	"github.com/angelmondragon/cakeshop-backend/pkg/metrics"
	"github.com/angelmondragon/cakeshop-backend/pkg/redis"
)

// redisStore is the Redis surface the HTTP layer depends on.
type redisStore interface {
	redis.Pinger
	redis.IdempotencyStore
	redis.RateLimiter
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient redisStore,
	sessionChecker session.AccessSessionChecker,
	httpMetrics *metrics.HTTPMetrics,
	gatherer prometheus.Gatherer,
	authService auth.Service,
	registerService auth.RegisterService,
	profileService auth.ProfileService,
	productService product.Service,
	cartService cart.Service,
	newsletterService newsletter.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.CORS.AllowedOrigins),
		middleware.Metrics(httpMetrics),
		chimw.StripSlashes,
	)

	limits := cfg.AuthRateLimit
	loginPolicy := middleware.NewAuthRateLimitPolicy("login", "username", limits.LoginWindow, limits.LoginIPLimit, limits.LoginIdentityLimit)
	registerPolicy := middleware.NewAuthRateLimitPolicy("register", "username", limits.RegisterWindow, limits.RegisterIPLimit, limits.RegisterIdentityLimit)
	subscribePolicy := middleware.NewAuthRateLimitPolicy("subscribe", "email", limits.SubscribeWindow, limits.SubscribeIPLimit, limits.SubscribeIdentityLimit)

	r.Get("/", controllers.Home())

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, map[string]controllers.Pinger{
			"db":    dbP,
			"redis": redisClient,
		}, logg))
	})

	if gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	r.With(middleware.AuthRateLimit(registerPolicy, redisClient, logg)).Post("/register", controllers.AuthRegister(registerService, logg))
	r.With(middleware.AuthRateLimit(loginPolicy, redisClient, logg)).Post("/login", controllers.AuthLogin(authService, logg))
	r.Post("/token/refresh", controllers.AuthRefresh(authService, logg))
	r.With(middleware.AuthRateLimit(subscribePolicy, redisClient, logg)).Post("/subscribe", controllers.NewsletterSubscribe(newsletterService, logg))

	r.Route("/products", func(r chi.Router) {
		r.Get("/", controllers.ProductsList(productService, logg))
		r.Get("/{productID}", controllers.ProductGet(productService, logg))
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, sessionChecker, logg))

		r.Post("/logout", controllers.AuthLogout(authService, logg))
		r.Get("/profile", controllers.Profile(profileService, logg))

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.CartList(cartService, logg))
			r.Delete("/", controllers.CartClear(cartService, logg))
			r.Get("/total", controllers.CartTotal(cartService, logg))
			r.With(middleware.Idempotency(redisClient, logg)).Post("/add", controllers.CartAdd(cartService, logg))
			r.Get("/{lineID}", controllers.CartGet(cartService, logg))
			r.Post("/{lineID}/update_quantity", controllers.CartUpdateQuantity(cartService, logg))
			r.Delete("/{lineID}/remove", controllers.CartRemove(cartService, logg))
		})
	})

	return r
}
