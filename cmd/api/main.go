package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/mateoherrera/threadline-backend/api/controllers"
	"github.com/mateoherrera/threadline-backend/api/routes"
	"github.com/mateoherrera/threadline-backend/internal/admin"
	"github.com/mateoherrera/threadline-backend/internal/auth"
	"github.com/mateoherrera/threadline-backend/internal/cart"
	"github.com/mateoherrera/threadline-backend/internal/catalog"
	"github.com/mateoherrera/threadline-backend/internal/designs"
	"github.com/mateoherrera/threadline-backend/internal/mailer"
	"github.com/mateoherrera/threadline-backend/internal/orders"
	"github.com/mateoherrera/threadline-backend/internal/products"
	"github.com/mateoherrera/threadline-backend/internal/users"
	"github.com/mateoherrera/threadline-backend/pkg/auth/session"
	"github.com/mateoherrera/threadline-backend/pkg/config"
	"github.com/mateoherrera/threadline-backend/pkg/db"
	"github.com/mateoherrera/threadline-backend/pkg/logger"
	"github.com/mateoherrera/threadline-backend/pkg/metrics"
	"github.com/mateoherrera/threadline-backend/pkg/migrate"
	"github.com/mateoherrera/threadline-backend/pkg/redis"
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

	mailSender, err := mailer.NewLogSender(logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create mailer", err)
		os.Exit(1)
	}

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       users.NewRepository(dbClient.DB()),
		SessionManager: sessionManager,
		Mailer:         mailSender,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
		OTPConfig:      cfg.OTP,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	categoryRepo := catalog.NewRepository(dbClient.DB())
	catalogService, err := catalog.NewService(categoryRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create catalog service", err)
		os.Exit(1)
	}

	productRepo := products.NewRepository(dbClient.DB())
	productService, err := products.NewService(productRepo, categoryRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create products service", err)
		os.Exit(1)
	}

	designsService, err := designs.NewService(designs.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create designs service", err)
		os.Exit(1)
	}

	cartService, err := cart.NewService(cart.NewRepository(dbClient.DB()), productRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create cart service", err)
		os.Exit(1)
	}

	gateway := orders.NewSimulatedGateway(cfg.Payments, metrics.NewPaymentMetrics(prometheus.DefaultRegisterer))
	ordersService, err := orders.NewService(orders.NewRepository(dbClient.DB()), dbClient, gateway)
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}

	adminService, err := admin.NewService(admin.NewRepository(dbClient.DB()), productRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create admin service", err)
		os.Exit(1)
	}

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
		Handler: routes.NewRouter(routes.Deps{
			Config: cfg,
			Logger: logg,
			Health: map[string]controllers.Pinger{
				"database": dbClient,
				"redis":    redisClient,
			},
			Redis:          redisClient,
			SessionManager: sessionManager,
			Auth:           authService,
			Catalog:        catalogService,
			Products:       productService,
			Designs:        designsService,
			Cart:           cartService,
			Orders:         ordersService,
			Admin:          adminService,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
