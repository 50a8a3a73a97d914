package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/kitarena/kitarena-backend/api/routes"
	"github.com/kitarena/kitarena-backend/internal/articles"
	checkoutsvc "github.com/kitarena/kitarena-backend/internal/checkout"
	"github.com/kitarena/kitarena-backend/internal/coupons"
	"github.com/kitarena/kitarena-backend/internal/discounts"
	"github.com/kitarena/kitarena-backend/internal/notifications"
	"github.com/kitarena/kitarena-backend/internal/orders"
	"github.com/kitarena/kitarena-backend/internal/payments"
	"github.com/kitarena/kitarena-backend/internal/products"
	"github.com/kitarena/kitarena-backend/internal/users"
	"github.com/kitarena/kitarena-backend/internal/webhooks"
	"github.com/kitarena/kitarena-backend/pkg/auth/session"
	"github.com/kitarena/kitarena-backend/pkg/cache"
	"github.com/kitarena/kitarena-backend/pkg/config"
	"github.com/kitarena/kitarena-backend/pkg/db"
	"github.com/kitarena/kitarena-backend/pkg/enums"
	"github.com/kitarena/kitarena-backend/pkg/logger"
	"github.com/kitarena/kitarena-backend/pkg/mail"
	"github.com/kitarena/kitarena-backend/pkg/metrics"
	"github.com/kitarena/kitarena-backend/pkg/migrate"
	"github.com/kitarena/kitarena-backend/pkg/redis"
	pkgstripe "github.com/kitarena/kitarena-backend/pkg/stripe"
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
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	sessions, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	usersRepo := users.NewRepository(dbClient.DB())
	productsRepo := products.NewRepository(dbClient.DB())
	checkoutRepo := checkoutsvc.NewRepository(dbClient.DB())
	ordersRepo := orders.NewRepository(dbClient.DB())

	userService, err := users.NewService(usersRepo, sessions, cfg.JWT, cfg.Password, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create user service", err)
		os.Exit(1)
	}

	productService, err := products.NewService(productsRepo, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create product service", err)
		os.Exit(1)
	}

	articleCache, err := cache.NewRedis(redisClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create article cache", err)
		os.Exit(1)
	}
	articleService, err := articles.NewService(articles.NewRepository(dbClient.DB()), articleCache, cfg.Cache, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create article service", err)
		os.Exit(1)
	}

	couponService, err := coupons.NewService(coupons.NewRepository(dbClient.DB()), logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create coupon service", err)
		os.Exit(1)
	}

	discountService, err := discounts.NewService(discounts.NewRepository(dbClient.DB()), logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create discount service", err)
		os.Exit(1)
	}

	stripeClient, err := pkgstripe.NewClient(context.Background(), cfg.Stripe, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create stripe client", err)
		os.Exit(1)
	}
	stripeProvider, err := payments.NewStripeProvider(payments.NewStripeAPI(stripeClient))
	if err != nil {
		logg.Error(context.Background(), "failed to create stripe provider", err)
		os.Exit(1)
	}

	paypalClient, err := payments.NewPayPalClient(context.Background(), cfg.PayPal)
	if err != nil {
		logg.Error(context.Background(), "failed to create paypal client", err)
		os.Exit(1)
	}
	paypalProvider, err := payments.NewPayPalProvider(paypalClient, enums.Currency(cfg.Checkout.Currency))
	if err != nil {
		logg.Error(context.Background(), "failed to create paypal provider", err)
		os.Exit(1)
	}

	mollieAPI, err := payments.NewMollieAPI(cfg.Mollie)
	if err != nil {
		logg.Error(context.Background(), "failed to create mollie client", err)
		os.Exit(1)
	}
	mollieProvider, err := payments.NewMollieProvider(mollieAPI, cfg.Mollie.WebhookURL)
	if err != nil {
		logg.Error(context.Background(), "failed to create mollie provider", err)
		os.Exit(1)
	}

	registry, err := payments.NewRegistry(stripeProvider, paypalProvider, mollieProvider)
	if err != nil {
		logg.Error(context.Background(), "failed to create payment registry", err)
		os.Exit(1)
	}
	executor, err := payments.NewExecutor(registry, cfg.Checkout, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create payment executor", err)
		os.Exit(1)
	}

	mailTransport, err := mail.NewSendgrid(cfg.Mail)
	if err != nil {
		logg.Error(context.Background(), "failed to create mail transport", err)
		os.Exit(1)
	}
	dispatcher, err := notifications.NewDispatcher(mailTransport, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create notification dispatcher", err)
		os.Exit(1)
	}

	orderService, err := orders.NewService(
		dbClient,
		ordersRepo,
		checkoutRepo,
		productsRepo,
		couponService,
		discountService,
		executor,
		usersRepo,
		dispatcher,
		logg,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create order service", err)
		os.Exit(1)
	}

	checkoutService, err := checkoutsvc.NewService(
		checkoutRepo,
		productsRepo,
		productService,
		discountService,
		couponService,
		executor,
		cfg.Checkout,
		logg,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout service", err)
		os.Exit(1)
	}

	webhookService, err := webhooks.NewService(orderService, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create webhook service", err)
		os.Exit(1)
	}
	webhookGuard, err := webhooks.NewIdempotencyGuard(redisClient, cfg.Checkout.WebhookGuardTTL, "webhooks")
	if err != nil {
		logg.Error(context.Background(), "failed to create webhook guard", err)
		os.Exit(1)
	}

	metricsRegistry := prometheus.NewRegistry()
	metricsRegistry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	httpMetrics := metrics.NewHTTPMetrics(metricsRegistry)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			sessions,
			httpMetrics,
			metricsRegistry,
			userService,
			productService,
			articleService,
			couponService,
			discountService,
			checkoutService,
			orderService,
			webhookService,
			webhookGuard,
			stripeClient,
		),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
