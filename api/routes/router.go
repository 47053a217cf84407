package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/zaika-foods/zaika-backend/api/controllers"
	"github.com/zaika-foods/zaika-backend/api/middleware"
	"github.com/zaika-foods/zaika-backend/internal/addresses"
	"github.com/zaika-foods/zaika-backend/internal/cart"
	checkoutsvc "github.com/zaika-foods/zaika-backend/internal/checkout"
	"github.com/zaika-foods/zaika-backend/internal/coupons"
	"github.com/zaika-foods/zaika-backend/internal/customers"
	"github.com/zaika-foods/zaika-backend/internal/orders"
	"github.com/zaika-foods/zaika-backend/internal/products"
	"github.com/zaika-foods/zaika-backend/internal/serviceability"
	"github.com/zaika-foods/zaika-backend/internal/settings"
	"github.com/zaika-foods/zaika-backend/pkg/auth/session"
	"github.com/zaika-foods/zaika-backend/pkg/config"
	"github.com/zaika-foods/zaika-backend/pkg/db"
	"github.com/zaika-foods/zaika-backend/pkg/enums"
	"github.com/zaika-foods/zaika-backend/pkg/logger"
	"github.com/zaika-foods/zaika-backend/pkg/metrics"
	"github.com/zaika-foods/zaika-backend/pkg/payments"
	pkgredis "github.com/zaika-foods/zaika-backend/pkg/redis"
)

// Deps carries everything the HTTP surface needs. Grouping them in a struct
// keeps main readable as the service list grows.
type Deps struct {
	Config         *config.Config
	Logger         *logger.Logger
	DB             *db.Client
	Redis          *pkgredis.Client
	Sessions       session.AccessSessionChecker
	HTTPMetrics    *metrics.HTTPMetrics
	MetricsHandler http.Handler
	Gateway        payments.Gateway

	Customers      *customers.Service
	Products       *products.Service
	Cart           *cart.Service
	Checkout       *checkoutsvc.Service
	Orders         *orders.Service
	Addresses      *addresses.Service
	Serviceability *serviceability.Service
	Settings       *settings.Service
	CouponRepo     *coupons.Repository
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.CORS),
		middleware.Metrics(deps.HTTPMetrics),
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

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, deps.DB, deps.Redis, logg))
	})

	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Post("/razorpay", controllers.RazorpayWebhook(deps.Orders, deps.Gateway, logg))
	})

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(registerPolicy, deps.Redis, logg), middleware.Idempotency(deps.Redis, logg)).
			Post("/register", controllers.AuthRegister(deps.Customers, logg))
		r.With(middleware.AuthRateLimit(loginPolicy, deps.Redis, logg)).
			Post("/login", controllers.AuthLogin(deps.Customers, logg))
		r.Post("/refresh", controllers.AuthRefresh(deps.Customers, logg))
		r.Post("/guest", controllers.AuthGuestSession(deps.Customers, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, deps.Sessions, logg))
			r.Post("/logout", controllers.AuthLogout(deps.Customers, logg))
			r.Get("/me", controllers.AuthProfile(deps.Customers, logg))
		})
	})

	// Public catalog and storefront metadata.
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/products", controllers.ListProducts(deps.Products, logg))
		r.Get("/products/{productId}", controllers.GetProduct(deps.Products, logg))
		r.Get("/categories", controllers.ListCategories(deps.Products, logg))
		r.Get("/settings", controllers.StoreSettings(deps.Settings, logg))
		r.Get("/serviceability/{pincode}", controllers.CheckServiceability(deps.Serviceability, logg))
	})

	// Session surface: works for signed-in customers and guest tokens alike.
	r.Route("/api/v1/cart", func(r chi.Router) {
		r.Use(middleware.Session(cfg.JWT, deps.Sessions, deps.Customers, logg))
		r.Use(middleware.Idempotency(deps.Redis, logg))

		r.Get("/", controllers.GetCart(deps.Cart, logg))
		r.Delete("/", controllers.ClearCart(deps.Cart, logg))
		r.Post("/items", controllers.AddCartItem(deps.Cart, logg))
		r.Patch("/items/{productId}", controllers.UpdateCartItem(deps.Cart, logg))
		r.Delete("/items/{productId}", controllers.RemoveCartItem(deps.Cart, logg))
		r.Post("/coupon", controllers.ApplyCartCoupon(deps.Cart, logg))
		r.Delete("/coupon", controllers.RemoveCartCoupon(deps.Cart, logg))
	})

	r.Route("/api/v1/checkout", func(r chi.Router) {
		r.Use(middleware.Session(cfg.JWT, deps.Sessions, deps.Customers, logg))
		r.Use(middleware.Idempotency(deps.Redis, logg))

		r.Post("/", controllers.StartCheckout(deps.Checkout, logg))
		r.Get("/{sessionId}", controllers.GetCheckout(deps.Checkout, logg))
		r.Post("/{sessionId}/advance", controllers.AdvanceCheckout(deps.Checkout, logg))
		r.Post("/{sessionId}/back", controllers.BackCheckout(deps.Checkout, logg))
		r.Post("/{sessionId}/place", controllers.PlaceCheckoutOrder(deps.Orders, logg))
	})

	r.Route("/api/v1/orders", func(r chi.Router) {
		r.Use(middleware.Session(cfg.JWT, deps.Sessions, deps.Customers, logg))
		r.Use(middleware.Idempotency(deps.Redis, logg))

		r.Get("/", controllers.ListOrders(deps.Orders, logg))
		r.Get("/{orderId}", controllers.GetOrder(deps.Orders, logg))
		r.Post("/{orderId}/cancel", controllers.CancelOrder(deps.Orders, logg))
	})

	// Account-only surface: saved addresses need a real customer id.
	r.Route("/api/v1/addresses", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, deps.Sessions, logg))
		r.Use(middleware.Idempotency(deps.Redis, logg))

		r.Get("/", controllers.ListAddresses(deps.Addresses, logg))
		r.Post("/", controllers.CreateAddress(deps.Addresses, logg))
		r.Put("/{addressId}", controllers.UpdateAddress(deps.Addresses, logg))
		r.Delete("/{addressId}", controllers.DeleteAddress(deps.Addresses, logg))
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, deps.Sessions, logg))
		r.Use(middleware.RequireRole(string(enums.RoleAdmin), logg))
		r.Use(middleware.Idempotency(deps.Redis, logg))

		r.Put("/settings", controllers.AdminUpdateSettings(deps.Settings, logg))

		r.Get("/coupons", controllers.AdminListCoupons(deps.CouponRepo, logg))
		r.Post("/coupons", controllers.AdminCreateCoupon(deps.CouponRepo, logg))
		r.Put("/coupons/{couponId}", controllers.AdminUpdateCoupon(deps.CouponRepo, logg))
		r.Delete("/coupons/{couponId}", controllers.AdminDeactivateCoupon(deps.CouponRepo, logg))

		r.Get("/products", controllers.AdminListProducts(deps.Products, logg))
		r.Post("/products", controllers.AdminCreateProduct(deps.Products, logg))
		r.Put("/products/{productId}", controllers.AdminUpdateProduct(deps.Products, logg))
		r.Delete("/products/{productId}", controllers.AdminDeactivateProduct(deps.Products, logg))

		r.Post("/categories", controllers.AdminCreateCategory(deps.Products, logg))
		r.Put("/categories/{categoryId}", controllers.AdminUpdateCategory(deps.Products, logg))

		r.Get("/orders", controllers.AdminListOrders(deps.Orders, logg))
		r.Get("/orders/{orderId}", controllers.AdminGetOrder(deps.Orders, logg))
	})

	r.Route("/api/kitchen/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, deps.Sessions, logg))
		r.Use(middleware.RequireRole(string(enums.RoleKitchen), logg))

		r.Get("/orders", controllers.KitchenQueue(deps.Orders, logg))
		r.Get("/orders/{orderId}", controllers.KitchenGetOrder(deps.Orders, logg))
		r.Post("/orders/{orderId}/status", controllers.KitchenTransitionOrder(deps.Orders, logg))
	})

	return r
}
