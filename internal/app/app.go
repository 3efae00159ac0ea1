package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/leafmart/cartd/internal/domain/cart"
	"github.com/leafmart/cartd/internal/domain/promotion"
	"github.com/leafmart/cartd/internal/handler"
	"github.com/leafmart/cartd/internal/storage/postgres"
	"github.com/leafmart/cartd/internal/storage/redis"
	"github.com/leafmart/cartd/pkg/health"
	"github.com/leafmart/cartd/pkg/httpmiddleware"
)

const estimatedPrefilterFPR = 0.001

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, _ *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing", zap.String("addr", cfg.Addr))

	// PostgreSQL pool + migrations.
	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return errors.Wrap(err, "create db pool")
	}
	defer pool.Close()

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	// Health check service.
	healthSvc := health.New()
	healthSvc.AddReadinessCheck("postgres", 5*time.Second, func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	healthSvc.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))

	// Cart blobs live in Redis when configured, otherwise in PostgreSQL
	// alongside the catalog.
	var blobs cart.Storage
	if cfg.RedisURL != "" {
		rds, err := redis.New(ctx, cfg.RedisURL)
		if err != nil {
			return errors.Wrap(err, "connect cart storage")
		}
		defer rds.Close()
		healthSvc.AddReadinessCheck("redis", 5*time.Second, rds.Ping)
		blobs = rds
		lg.Info("Cart storage: redis")
	} else {
		blobs = postgres.NewBlobStore(pool)
		lg.Info("Cart storage: postgres")
	}

	healthSvc.Start(ctx, 10*time.Second)
	healthSvc.SetReady(true)

	// Repositories.
	productRepo := postgres.NewProductRepository(pool)
	promoCodeRepo := postgres.NewPromoCodeRepository(pool)

	// Promotion code prefilter. A failed seed is not fatal; the filter fails
	// open and every code goes through full validation.
	prefilter := promotion.NewPrefilter(cfg.Promotions.PrefilterCapacity, estimatedPrefilterFPR)
	if n, err := prefilter.Seed(ctx, promoCodeRepo); err != nil {
		lg.Warn("Prefilter seed failed, passing all codes through", zap.Error(err))
	} else {
		lg.Info("Prefilter seeded", zap.Int("codes", n))
	}

	validator := promotion.NewHTTPValidator(cfg.Promotions.ServiceURL, cfg.Promotions.Timeout)

	// Cart stores and HTTP handlers.
	carts := cart.NewManager(blobs, lg.Named("cart"))
	h := handler.New(productRepo, carts, validator, prefilter)

	mux := http.NewServeMux()
	mux.HandleFunc("/livez", healthSvc.LiveEndpoint)
	mux.HandleFunc("/readyz", healthSvc.ReadyEndpoint)
	mux.Handle("/api/", http.StripPrefix("/api", h.Routes()))

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler: httpmiddleware.Wrap(mux,
			httpmiddleware.Recovery(),
			httpmiddleware.CORS(httpmiddleware.CORSConfig{
				AllowOrigins:     cfg.CORS.Origins,
				AllowHeaders:     []string{"Content-Type", "Authorization"},
				AllowCredentials: cfg.CORS.AllowCredentials,
				MaxAge:           86400,
			}),
			httpmiddleware.RateLimitWithCleanup(ctx, httpmiddleware.RateLimitConfig{
				Max:    cfg.RateLimit.Max,
				Window: cfg.RateLimit.Window,
			}),
			httpmiddleware.RequestID(),
			httpmiddleware.InjectLogger(zctx.From(ctx)),
			httpmiddleware.LogRequests(),
		),
	}

	// Graceful shutdown: wait for context cancellation, drain, then stop.
	shutdownDone := make(chan struct{})
	go func() {
		<-ctx.Done()
		healthSvc.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}
		healthSvc.Stop()
		close(shutdownDone)
	}()

	lg.Info("Server listening", zap.String("addr", cfg.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "server")
	}
	<-shutdownDone
	return nil
}
