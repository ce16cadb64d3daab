package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"

	"github.com/angelmondragon/cakeshop-backend/api/routes"
	"github.com/angelmondragon/cakeshop-backend/internal/auth"
	"github.com/angelmondragon/cakeshop-backend/internal/cart"
	"github.com/angelmondragon/cakeshop-backend/internal/newsletter"
	product "github.com/angelmondragon/cakeshop-backend/internal/products"
	"github.com/angelmondragon/cakeshop-backend/internal/users"
	"github.com/angelmondragon/cakeshop-backend/pkg/auth/session"
	"github.com/angelmondragon/cakeshop-backend/pkg/config"
	"github.com/angelmondragon/cakeshop-backend/pkg/db"
	"github.com/angelmondragon/cakeshop-backend/pkg/logger"
	"github.com/angelmondragon/cakeshop-backend/pkg/metrics"
	"github.com/angelmondragon/cakeshop-backend/pkg/migrate"
	"github.com/angelmondragon/cakeshop-backend/pkg/notify"
	"github.com/angelmondragon/cakeshop-backend/pkg/pubsub"
	"github.com/angelmondragon/cakeshop-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Console:     cfg.App.ConsoleLogs(),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		logg.Error(ctx, "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap redis", err)
		os.Exit(1)
	}

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(ctx, "failed to create session manager", err)
		os.Exit(1)
	}

	var pubsubClient *pubsub.Client
	deps := notify.Dependencies{Logger: logg}
	if cfg.Notify.NormalizedDriver() == config.NotifyDriverPubSub {
		pubsubClient, err = pubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, logg)
		if err != nil {
			logg.Error(ctx, "failed to bootstrap pubsub", err)
			os.Exit(1)
		}
		deps.Publisher = pubsubClient
	}

	sink, err := notify.NewFromConfig(cfg, deps)
	if err != nil {
		logg.Error(ctx, "failed to create notification sink", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	httpMetrics := metrics.NewHTTPMetrics(registry)
	cartMetrics := metrics.NewCartMetrics(registry)
	newsletterMetrics := metrics.NewNewsletterMetrics(registry)

	userRepo := users.NewRepository(dbClient.DB())
	productRepo := product.NewRepository(dbClient.DB())

	productService, err := product.NewService(productRepo)
	if err != nil {
		logg.Error(ctx, "failed to create product service", err)
		os.Exit(1)
	}

	cartService, err := cart.NewService(cart.ServiceParams{
		Repo:            cart.NewRepository(dbClient.DB()),
		Tx:              dbClient,
		Products:        productRepo,
		Observer:        cartMetrics,
		ConflictRetries: cfg.Cart.ConflictRetries,
	})
	if err != nil {
		logg.Error(ctx, "failed to create cart service", err)
		os.Exit(1)
	}

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       userRepo,
		SessionManager: sessionManager,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
	})
	if err != nil {
		logg.Error(ctx, "failed to create auth service", err)
		os.Exit(1)
	}

	registerService, err := auth.NewRegisterService(auth.RegisterServiceParams{
		TxRunner:       dbClient,
		SessionManager: sessionManager,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
	})
	if err != nil {
		logg.Error(ctx, "failed to create register service", err)
		os.Exit(1)
	}

	profileService, err := auth.NewProfileService(userRepo, cartService)
	if err != nil {
		logg.Error(ctx, "failed to create profile service", err)
		os.Exit(1)
	}

	newsletterService, err := newsletter.NewService(newsletter.ServiceParams{
		Repo:     newsletter.NewRepository(dbClient.DB()),
		Sink:     sink,
		Observer: newsletterMetrics,
		Logger:   logg,
	})
	if err != nil {
		logg.Error(ctx, "failed to create newsletter service", err)
		os.Exit(1)
	}

	addr := ":" + cfg.App.Port
	serverCtx := logg.WithFields(ctx, map[string]any{
		"env":           cfg.App.Env,
		"addr":          addr,
		"notify_driver": cfg.Notify.NormalizedDriver(),
	})

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			sessionManager,
			httpMetrics,
			registry,
			authService,
			registerService,
			profileService,
			productService,
			cartService,
			newsletterService,
		),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logg.Info(serverCtx, "starting api server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	exitCode := 0
	select {
	case err := <-serveErr:
		if err != nil {
			logg.Error(serverCtx, "api server stopped unexpectedly", err)
			exitCode = 1
		}
	case <-ctx.Done():
		logg.Info(serverCtx, "shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()

	err = server.Shutdown(shutdownCtx)
	err = multierr.Append(err, redisClient.Close())
	err = multierr.Append(err, dbClient.Close())
	if pubsubClient != nil {
		err = multierr.Append(err, pubsubClient.Close())
	}
	if err != nil {
		logg.Error(serverCtx, "shutdown completed with errors", err)
		exitCode = 1
	} else {
		logg.Info(serverCtx, "api server stopped")
	}

	stop()
	os.Exit(exitCode)
}
