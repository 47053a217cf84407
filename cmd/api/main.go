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

	"github.com/zaika-foods/zaika-backend/api/routes"
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
	"github.com/zaika-foods/zaika-backend/pkg/logger"
	"github.com/zaika-foods/zaika-backend/pkg/metrics"
	"github.com/zaika-foods/zaika-backend/pkg/migrate"
	"github.com/zaika-foods/zaika-backend/pkg/outbox"
	"github.com/zaika-foods/zaika-backend/pkg/payments"
	"github.com/zaika-foods/zaika-backend/pkg/redis"
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

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	reg := prometheus.NewRegistry()
	httpMetrics := metrics.NewHTTPMetrics(reg)

	emitter := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)

	settingsService, err := settings.NewService(
		settings.NewRepository(dbClient.DB()), dbClient, redisClient, emitter, cfg.Store.SettingsCacheTTL, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create settings service", err)
		os.Exit(1)
	}

	couponRepo := coupons.NewRepository(dbClient.DB())
	couponService, err := coupons.NewService(couponRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create coupon service", err)
		os.Exit(1)
	}

	productService, err := products.NewService(products.NewRepository(dbClient.DB()), dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create product service", err)
		os.Exit(1)
	}

	cartRepo := cart.NewRepository(dbClient.DB())
	cartService, err := cart.NewService(cartRepo, dbClient, settingsService, couponService, productService, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create cart service", err)
		os.Exit(1)
	}

	addressService, err := addresses.NewService(addresses.NewRepository(dbClient.DB()), dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create address service", err)
		os.Exit(1)
	}

	serviceabilityService, err := serviceability.NewService(serviceability.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create serviceability service", err)
		os.Exit(1)
	}

	customerService, err := customers.NewService(
		customers.NewRepository(dbClient.DB()), sessionManager, redisClient,
		cfg.JWT, cfg.Password, cfg.Store.GuestSessionTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create customer service", err)
		os.Exit(1)
	}

	checkoutService, err := checkoutsvc.NewService(
		redisClient, cartService, settingsService, addressService, cfg.Checkout.SessionTTL, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout service", err)
		os.Exit(1)
	}

	var gateway payments.Gateway
	if cfg.Razorpay.KeyID != "" {
		rzp, err := payments.NewRazorpayGateway(cfg.Razorpay, cfg.Gateway, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to create payment gateway", err)
			os.Exit(1)
		}
		gateway = rzp
	} else {
		logg.Warn(context.Background(), "razorpay credentials missing, online payments disabled")
	}

	orderService, err := orders.NewService(orders.Deps{
		Repo:        orders.NewRepository(dbClient.DB()),
		CartRepo:    cartRepo,
		CouponRepo:  couponRepo,
		DBClient:    dbClient,
		Sessions:    checkoutService,
		Locker:      redisClient,
		Settings:    settingsService,
		Coupons:     couponService,
		Zones:       serviceabilityService,
		Gateway:     gateway,
		Emitter:     emitter,
		LockTTL:     cfg.Checkout.PlacingLockTTL,
		HTTPMetrics: httpMetrics,
		Logger:      logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create order service", err)
		os.Exit(1)
	}

	router := routes.NewRouter(routes.Deps{
		Config:         cfg,
		Logger:         logg,
		DB:             dbClient,
		Redis:          redisClient,
		Sessions:       sessionManager,
		HTTPMetrics:    httpMetrics,
		MetricsHandler: metrics.Handler(reg),
		Gateway:        gateway,
		Customers:      customerService,
		Products:       productService,
		Cart:           cartService,
		Checkout:       checkoutService,
		Orders:         orderService,
		Addresses:      addressService,
		Serviceability: serviceabilityService,
		Settings:       settingsService,
		CouponRepo:     couponRepo,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "api server shutdown failed", err)
			os.Exit(1)
		}
	}

	logg.Info(ctx, "api server shut down gracefully")
}
