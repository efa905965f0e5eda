package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MoonSoon24/coffee-shop/docs"
	"github.com/MoonSoon24/coffee-shop/internal/cache"
	"github.com/MoonSoon24/coffee-shop/internal/queue"
	"github.com/MoonSoon24/coffee-shop/internal/ratelimiter"
	"github.com/MoonSoon24/coffee-shop/internal/service"
	"github.com/MoonSoon24/coffee-shop/internal/session"
	"github.com/MoonSoon24/coffee-shop/internal/store/mongo"
	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-redis/redis/v8"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.uber.org/zap"
)

type backgroundWorker interface {
	Start() error
	Stop()
}

type application struct {
	config      config
	logger      *zap.SugaredLogger
	rateLimiter ratelimiter.Limiter
	storage     *mongo.Storage
	redis       *redis.Client
	cache       *cache.Cache
	broker      queue.Broker

	catalogService *service.CatalogService
	orderService   *service.OrderService
	loyaltyService *service.LoyaltyService
	// importService is nil when no Google credentials are configured.
	importService *service.ImportService

	sessions *session.Manager
	workers  []backgroundWorker
}

type config struct {
	addr        string
	env         string
	apiURL      string
	rateLimiter ratelimiter.Config
	mongo       mongoConfig
	rabbitMQ    rabbitMQConfig
	redis       redisConfig
	loyalty     loyaltyConfig
	shopPhone   string
	sessionTTL  time.Duration
	googleCreds string
}

type mongoConfig struct {
	URI          string
	Database     string
	Timeout      time.Duration
	Transactions bool
}

type rabbitMQConfig struct {
	URL           string
	MaxRetries    int
	RetryDelay    time.Duration
	PrefetchCount int
}

type redisConfig struct {
	Enabled    bool
	Addr       string
	Password   string
	DB         int
	ProductTTL time.Duration
	BalanceTTL time.Duration
}

type loyaltyConfig struct {
	EarnRateBps int
}

func (app *application) mount() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(app.RateLimiterMiddleware)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", app.healthCheckHandler)

		r.Route("/products", func(r chi.Router) {
			r.Get("/", app.listProductsHandler)
			r.Get("/{product_id}", app.getProductHandler)
		})

		r.Post("/sessions", app.createSessionHandler)
		r.Route("/sessions/{session_id}", func(r chi.Router) {
			r.Use(app.sessionContextMiddleware)

			r.Delete("/", app.deleteSessionHandler)

			r.Get("/cart", app.getCartHandler)
			r.Delete("/cart", app.clearCartHandler)
			r.Post("/cart/lines", app.addCartLineHandler)
			r.Delete("/cart/lines/{line_key}", app.decrementCartLineHandler)
			r.Post("/reorder/{order_id}", app.reorderHandler)

			r.Post("/promotion", app.applyPromotionHandler)
			r.Delete("/promotion", app.removePromotionHandler)
			r.Post("/points", app.applyPointsHandler)
			r.Delete("/points", app.removePointsHandler)
			r.Get("/pricing", app.getPricingHandler)

			r.Post("/checkout", app.checkoutHandler)
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/reconciliation", app.listReconciliationHandler)
			r.Get("/{order_id}", app.getOrderHandler)
			r.Patch("/{order_id}/status", app.updateOrderStatusHandler)
		})

		r.Route("/users/{user_id}", func(r chi.Router) {
			r.Get("/orders", app.listUserOrdersHandler)
			r.Get("/points", app.getPointsHistoryHandler)
		})

		r.Post("/catalog/import", app.createImportTaskHandler)
		r.Get("/catalog/import/{task_id}", app.getImportTaskHandler)

		docsURL := fmt.Sprintf("%s/swagger/doc.json", app.config.addr)
		r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL(docsURL)))
	})

	return r
}

func (app *application) run(mux http.Handler) error {
	// docs
	docs.SwaggerInfo.Title = "Coffee Shop"
	docs.SwaggerInfo.Description = "Ordering API for the coffee shop storefront"
	docs.SwaggerInfo.Version = version
	docs.SwaggerInfo.Host = app.config.apiURL
	docs.SwaggerInfo.BasePath = "/api/v1"

	// workers
	for _, w := range app.workers {
		if err := w.Start(); err != nil {
			return fmt.Errorf("failed to start worker: %w", err)
		}
	}

	sweepCtx, stopSweep := context.WithCancel(context.Background())
	defer stopSweep()
	go app.sessions.Run(sweepCtx)

	srv := &http.Server{
		Addr:         app.config.addr,
		Handler:      mux,
		WriteTimeout: time.Second * 30,
		ReadTimeout:  time.Second * 10,
		IdleTimeout:  time.Minute,
	}

	shutdown := make(chan error)

	go func() {
		quit := make(chan os.Signal, 1)

		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		s := <-quit

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		app.logger.Infow("signal caught", "signal", s.String())

		stopSweep()
		for _, w := range app.workers {
			w.Stop()
		}

		if app.storage != nil {
			if err := app.storage.Close(ctx); err != nil {
				app.logger.Errorw("error closing MongoDB", "error", err)
			} else {
				app.logger.Info("MongoDB connection closed gracefully")
			}
		}

		if app.broker != nil {
			if err := app.broker.Close(); err != nil {
				app.logger.Errorw("error closing RabbitMQ", "error", err)
			} else {
				app.logger.Info("RabbitMQ connection closed gracefully")
			}
		}

		if app.redis != nil {
			if err := app.redis.Close(); err != nil {
				app.logger.Errorw("error closing Redis", "error", err)
			} else {
				app.logger.Info("Redis connection closed gracefully")
			}
		}

		shutdown <- srv.Shutdown(ctx)
	}()

	app.logger.Infow("server have started", "addr", app.config.addr, "env", app.config.env)

	err := srv.ListenAndServe()
	if !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	err = <-shutdown
	if err != nil {
		return err
	}

	app.logger.Infow("server has stopped", "addr", app.config.addr, "env", app.config.env)

	return nil
}
