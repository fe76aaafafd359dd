package routes

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mateoherrera/threadline-backend/api/controllers"
	"github.com/mateoherrera/threadline-backend/api/middleware"
	adminsvc "github.com/mateoherrera/threadline-backend/internal/admin"
	"github.com/mateoherrera/threadline-backend/internal/auth"
	"github.com/mateoherrera/threadline-backend/internal/cart"
	"github.com/mateoherrera/threadline-backend/internal/catalog"
	"github.com/mateoherrera/threadline-backend/internal/designs"
	"github.com/mateoherrera/threadline-backend/internal/orders"
	"github.com/mateoherrera/threadline-backend/internal/products"
	"github.com/mateoherrera/threadline-backend/pkg/auth/session"
	"github.com/mateoherrera/threadline-backend/pkg/config"
	"github.com/mateoherrera/threadline-backend/pkg/enums"
	"github.com/mateoherrera/threadline-backend/pkg/logger"
	"github.com/mateoherrera/threadline-backend/pkg/redis"
)

type sessionManager interface {
	session.AccessSessionChecker
	Rotate(context.Context, string, string) (string, string, error)
	Revoke(context.Context, string) error
}

// Deps bundles everything the router needs wired in.
type Deps struct {
	Config         *config.Config
	Logger         *logger.Logger
	Health         map[string]controllers.Pinger
	Redis          *redis.Client
	SessionManager sessionManager

	Auth     auth.Service
	Catalog  catalog.Service
	Products products.Service
	Designs  designs.Service
	Cart     cart.Service
	Orders   orders.Service
	Admin    adminsvc.Service
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)
	otpPolicy := middleware.NewAuthRateLimitPolicy(
		"otp",
		cfg.AuthRateLimit.OTPWindow,
		cfg.AuthRateLimit.OTPIPLimit,
		cfg.AuthRateLimit.OTPEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.Health))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(
			middleware.AuthRateLimit(registerPolicy, deps.Redis, logg),
			middleware.Idempotency(deps.Redis, logg),
		).Post("/register", controllers.AuthRegister(deps.Auth, logg))
		r.With(middleware.AuthRateLimit(otpPolicy, deps.Redis, logg)).Post("/verify-otp", controllers.AuthVerifyOTP(deps.Auth, logg))
		r.With(middleware.AuthRateLimit(otpPolicy, deps.Redis, logg)).Post("/resend-otp", controllers.AuthResendOTP(deps.Auth, logg))
		r.With(middleware.AuthRateLimit(loginPolicy, deps.Redis, logg)).Post("/login", controllers.AuthLogin(deps.Auth, logg))
		r.Post("/refresh", controllers.AuthRefresh(deps.Auth, logg))
		r.With(middleware.AuthRateLimit(otpPolicy, deps.Redis, logg)).Post("/forgot-password", controllers.AuthForgotPassword(deps.Auth, logg))
		r.Post("/reset-password", controllers.AuthResetPassword(deps.Auth, logg))
	})

	r.Route("/api/v1/products", func(r chi.Router) {
		r.Get("/", controllers.ProductsList(deps.Products, logg))
		r.Get("/featured", controllers.ProductsFeatured(deps.Products, logg))
		r.Get("/slug/{slug}", controllers.ProductsGetBySlug(deps.Products, logg))
		r.Get("/{productID}", controllers.ProductsGet(deps.Products, logg))
	})
	r.Route("/api/v1/categories", func(r chi.Router) {
		r.Get("/", controllers.CategoriesList(deps.Catalog, logg))
		r.Get("/{categoryID}", controllers.CategoriesGet(deps.Catalog, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, deps.SessionManager, logg))
		r.Use(middleware.Idempotency(deps.Redis, logg))

		r.Post("/auth/logout", controllers.AuthLogout(deps.Auth, logg))
		r.Get("/auth/me", controllers.AuthMe(deps.Auth, logg))

		r.Route("/designs", func(r chi.Router) {
			r.Get("/", controllers.DesignsList(deps.Designs, logg))
			r.Post("/", controllers.DesignsCreate(deps.Designs, logg))
			r.Get("/{designID}", controllers.DesignsGet(deps.Designs, logg))
			r.Put("/{designID}", controllers.DesignsUpdate(deps.Designs, logg))
			r.Delete("/{designID}", controllers.DesignsDelete(deps.Designs, logg))
		})

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.CartGet(deps.Cart, logg))
			r.Post("/items", controllers.CartAddItem(deps.Cart, logg))
			r.Put("/items", controllers.CartUpdateItem(deps.Cart, logg))
			r.Delete("/items/{productID}", controllers.CartRemoveItem(deps.Cart, logg))
			r.Delete("/", controllers.CartClear(deps.Cart, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.OrdersListMine(deps.Orders, logg))
			r.Post("/", controllers.OrdersCreate(deps.Orders, logg))
			r.Get("/{orderID}", controllers.OrdersGet(deps.Orders, logg))
			r.Post("/{orderID}/pay", controllers.OrdersPay(deps.Orders, logg))
			r.Post("/{orderID}/cancel", controllers.OrdersCancel(deps.Orders, logg))
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, deps.SessionManager, logg))
		r.Use(middleware.RequireRole(enums.UserRoleAdmin.String(), logg))
		r.Use(middleware.Idempotency(deps.Redis, logg))

		r.Get("/dashboard", controllers.AdminDashboard(deps.Admin, logg))

		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.AdminProductsList(deps.Products, logg))
			r.Post("/", controllers.AdminProductsCreate(deps.Products, logg))
			r.Put("/{productID}", controllers.AdminProductsUpdate(deps.Products, logg))
			r.Delete("/{productID}", controllers.AdminProductsDelete(deps.Products, logg))
		})

		r.Route("/categories", func(r chi.Router) {
			r.Get("/", controllers.AdminCategoriesList(deps.Catalog, logg))
			r.Post("/", controllers.AdminCategoriesCreate(deps.Catalog, logg))
			r.Put("/{categoryID}", controllers.AdminCategoriesUpdate(deps.Catalog, logg))
			r.Delete("/{categoryID}", controllers.AdminCategoriesDelete(deps.Catalog, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.AdminOrdersList(deps.Orders, logg))
			r.Get("/{orderID}", controllers.OrdersGet(deps.Orders, logg))
			r.Put("/{orderID}/status", controllers.AdminOrdersUpdateStatus(deps.Orders, logg))
		})
	})

	return r
}
