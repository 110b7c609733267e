package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"go.uber.org/zap"

	"github.com/xenking/zm-storefront/internal/domain/order"
	"github.com/xenking/zm-storefront/internal/handler"
	"github.com/xenking/zm-storefront/pkg/health"
	"github.com/xenking/zm-storefront/pkg/httpmiddleware"
)

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the API server.
func Run(ctx context.Context, lg *zap.Logger, m Telemetry, cfg *Config) error {
	lg.Info("Initializing", zap.String("addr", cfg.Addr), zap.String("catalog", cfg.Catalog.Source))

	products, err := NewCatalog(ctx, lg, cfg.Catalog, m)
	if err != nil {
		return errors.Wrap(err, "create catalog")
	}
	defer products.Close()

	if cfg.Catalog.Warm {
		// A cold cache only costs latency, so startup continues.
		if err := products.Warm(ctx); err != nil {
			lg.Warn("Catalog warm-up failed", zap.Error(err))
		}
	}

	// Health check service.
	healthSvc := health.New()
	healthSvc.AddReadinessCheck("catalog", products.Ping, health.CheckOptions{Timeout: 5 * time.Second})
	healthSvc.AddLivenessCheck("goroutines", health.GoroutineCountCheck(10000), health.CheckOptions{})
	healthSvc.AddLivenessCheck("gc", health.GCMaxPauseCheck(time.Second), health.CheckOptions{})
	healthSvc.Start(ctx, 10*time.Second)
	healthSvc.SetReady(true)

	// Domain services.
	links := order.NewLinkBuilder(order.LinkConfig{
		BaseURL:     cfg.Order.BaseURL,
		Destination: cfg.Order.Destination,
		SiteURL:     cfg.Order.SiteURL,
	})
	orderService, err := order.NewService(products, links, order.WithMeterProvider(m.MeterProvider()))
	if err != nil {
		return errors.Wrap(err, "create order service")
	}

	h := handler.NewHandler(handler.HandlerConfig{ImageBaseURL: cfg.ImageBaseURL}, products, orderService, links)

	// Mux: health endpoints + API routes on one server.
	mux := http.NewServeMux()
	mux.HandleFunc("GET /livez", healthSvc.LiveEndpoint)
	mux.HandleFunc("GET /readyz", healthSvc.ReadyEndpoint)
	h.Register(mux)
	routeFinder := func(r *http.Request) string { return handler.RouteName(mux, r) }

	limiter := httpmiddleware.NewRateLimiter(httpmiddleware.RateLimitConfig{
		Max:    cfg.RateLimit.Max,
		Window: cfg.RateLimit.Window,
	})
	go limiter.Run(ctx)

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler: httpmiddleware.Wrap(mux,
			httpmiddleware.RequestID(),
			httpmiddleware.InjectLogger(lg),
			httpmiddleware.Recovery(),
			httpmiddleware.CORS(httpmiddleware.CORSConfig{
				AllowOrigins:     cfg.CORS.Origins,
				AllowHeaders:     []string{"Content-Type", "Authorization"},
				ExposeHeaders:    []string{httpmiddleware.HeaderRequestID},
				AllowCredentials: cfg.CORS.AllowCredentials,
				MaxAge:           86400,
			}),
			limiter.Middleware(),
			httpmiddleware.Instrument("storefront-api", routeFinder, m.TracerProvider(), m.MeterProvider()),
			httpmiddleware.LogRequests(routeFinder),
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
