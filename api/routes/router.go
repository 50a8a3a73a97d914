package routes

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kitarena/kitarena-backend/api/controllers"
	webhookcontrollers "github.com/kitarena/kitarena-backend/api/controllers/webhooks"
	"github.com/kitarena/kitarena-backend/api/middleware"
	articlesvc "github.com/kitarena/kitarena-backend/internal/articles"
	checkoutsvc "github.com/kitarena/kitarena-backend/internal/checkout"
	couponsvc "github.com/kitarena/kitarena-backend/internal/coupons"
	discountsvc "github.com/kitarena/kitarena-backend/internal/discounts"
	ordersvc "github.com/kitarena/kitarena-backend/internal/orders"
	productsvc "github.com/kitarena/kitarena-backend/internal/products"
	usersvc "github.com/kitarena/kitarena-backend/internal/users"
	"github.com/kitarena/kitarena-backend/internal/webhooks"
	"github.com/kitarena/kitarena-backend/pkg/auth/session"
	"github.com/kitarena/kitarena-backend/pkg/config"
	"github.com/kitarena/kitarena-backend/pkg/db"
	"github.com/kitarena/kitarena-backend/pkg/enums"
	"github.com/kitarena/kitarena-backend/pkg/logger"
	"github.com/kitarena/kitarena-backend/pkg/metrics"
	"github.com/kitarena/kitarena-backend/pkg/redis"
	"github.com/kitarena/kitarena-backend/pkg/stripe"
)

type sessionManager interface {
	session.SessionChecker
	Generate(ctx context.Context, accessID string) (string, error)
	Rotate(ctx context.Context, oldAccessID, provided string) (string, string, error)
	Revoke(ctx context.Context, accessID string) error
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	sessions sessionManager,
	httpMetrics *metrics.HTTPMetrics,
	metricsRegistry *prometheus.Registry,
	userService usersvc.Service,
	productService productsvc.Service,
	articleService articlesvc.Service,
	couponService couponsvc.Service,
	discountService discountsvc.Service,
	checkoutService checkoutsvc.Service,
	orderService ordersvc.Service,
	webhookService *webhooks.Service,
	webhookGuard *webhooks.IdempotencyGuard,
	stripeClient *stripe.Client,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(httpMetrics),
		middleware.CORS(),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.RateLimit.LoginWindow,
		cfg.RateLimit.LoginIPLimit,
		cfg.RateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.RateLimit.RegisterWindow,
		cfg.RateLimit.RegisterIPLimit,
		cfg.RateLimit.RegisterEmailLimit,
	)

	adminRole := enums.UserRoleAdmin.String()
	journalistRole := enums.UserRoleJournalist.String()

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisClient))
	})

	if metricsRegistry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(metricsRegistry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Post("/stripe", webhookcontrollers.StripeWebhook(webhookService, stripeClient, webhookGuard, logg))
		r.Post("/paypal", webhookcontrollers.PayPalWebhook(webhookService, webhookGuard, logg))
		r.Post("/mollie", webhookcontrollers.MollieWebhook(webhookService, logg))
	})

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(
			middleware.AuthRateLimit(registerPolicy, redisClient, logg),
			middleware.Idempotency(redisClient, logg),
		).Post("/register", controllers.AuthRegister(userService, logg))
		r.With(middleware.AuthRateLimit(loginPolicy, redisClient, logg)).Post("/login", controllers.AuthLogin(userService, logg))
		r.Post("/refresh", controllers.AuthRefresh(userService, logg))
		r.With(middleware.Auth(cfg.JWT, sessions, logg)).Post("/logout", controllers.AuthLogout(userService, logg))
	})

	// Public catalog and content, no session required.
	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.ListProducts(productService, logg))
			r.Get("/{slug}", controllers.GetProduct(productService, logg))
		})
		r.Get("/teams", controllers.ListTeams(productService, logg))
		r.Route("/articles", func(r chi.Router) {
			r.Get("/", controllers.ListPublishedArticles(articleService, logg))
			r.Get("/{slug}", controllers.GetPublishedArticle(articleService, logg))
		})
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, sessions, logg))
		r.Use(middleware.RateLimit(cfg.RateLimit, redisClient, logg))
		r.Use(middleware.Idempotency(redisClient, logg))

		r.Group(func(r chi.Router) {
			r.Route("/v1/profile", func(r chi.Router) {
				r.Get("/", controllers.Profile(userService, logg))
				r.Patch("/", controllers.UpdateProfile(userService, logg))
			})

			r.Post("/v1/coupons/validate", controllers.ValidateCoupon(couponService, logg))

			r.Route("/v1/checkout", func(r chi.Router) {
				r.Post("/quote", controllers.CheckoutQuote(checkoutService, userService, logg))
				r.Post("/", controllers.CheckoutBegin(checkoutService, userService, logg))
			})

			r.Route("/v1/orders", func(r chi.Router) {
				r.Get("/", controllers.ListMyOrders(orderService, logg))
				r.Get("/{orderId}", controllers.OrderDetail(orderService, logg))
				r.Post("/{orderId}/cancel", controllers.CancelOrder(orderService, logg))
			})
		})

		r.Route("/editor/v1/articles", func(r chi.Router) {
			r.Use(middleware.RequireRole(logg, adminRole, journalistRole))
			r.Get("/", controllers.EditorListArticles(articleService, logg))
			r.Post("/", controllers.EditorCreateArticle(articleService, logg))
			r.Get("/{articleId}", controllers.EditorGetArticle(articleService, logg))
			r.Patch("/{articleId}", controllers.EditorUpdateArticle(articleService, logg))
			r.Post("/{articleId}/publish", controllers.EditorPublishArticle(articleService, logg))
			r.Post("/{articleId}/unpublish", controllers.EditorUnpublishArticle(articleService, logg))
			r.Delete("/{articleId}", controllers.EditorDeleteArticle(articleService, logg))
		})
	})

	r.Route("/api/admin", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, sessions, logg))
		r.Use(middleware.RequireRole(logg, adminRole))
		r.Use(middleware.RateLimit(cfg.RateLimit, redisClient, logg))
		r.Use(middleware.Idempotency(redisClient, logg))

		r.Route("/v1/users", func(r chi.Router) {
			r.Get("/", controllers.AdminListUsers(userService, logg))
			r.Put("/{userId}/role", controllers.AdminSetUserRole(userService, logg))
			r.Put("/{userId}/active", controllers.AdminSetUserActive(userService, logg))
		})

		r.Route("/v1/products", func(r chi.Router) {
			r.Post("/", controllers.AdminCreateProduct(productService, logg))
			r.Patch("/{productId}", controllers.AdminUpdateProduct(productService, logg))
			r.Delete("/{productId}", controllers.AdminDeleteProduct(productService, logg))
		})

		r.Route("/v1/coupons", func(r chi.Router) {
			r.Get("/", controllers.AdminListCoupons(couponService, logg))
			r.Post("/", controllers.AdminCreateCoupon(couponService, logg))
			r.Get("/{couponId}", controllers.AdminGetCoupon(couponService, logg))
			r.Patch("/{couponId}", controllers.AdminUpdateCoupon(couponService, logg))
			r.Delete("/{couponId}", controllers.AdminDeleteCoupon(couponService, logg))
		})

		r.Route("/v1/discount-rules", func(r chi.Router) {
			r.Get("/", controllers.AdminListDiscountRules(discountService, logg))
			r.Post("/", controllers.AdminCreateDiscountRule(discountService, logg))
			r.Get("/{ruleId}", controllers.AdminGetDiscountRule(discountService, logg))
			r.Patch("/{ruleId}", controllers.AdminUpdateDiscountRule(discountService, logg))
			r.Delete("/{ruleId}", controllers.AdminDeleteDiscountRule(discountService, logg))
		})

		r.Route("/v1/orders", func(r chi.Router) {
			r.Get("/", controllers.AdminListOrders(orderService, logg))
			r.Put("/{orderId}/status", controllers.AdminUpdateOrderStatus(orderService, logg))
			r.Put("/{orderId}/tracking", controllers.AdminSetTracking(orderService, logg))
			r.Post("/{orderId}/refund", controllers.AdminRefundOrder(orderService, logg))
		})
	})

	return r
}
