package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"flowpulse/internal/cache"
	"flowpulse/internal/config"
	apierrors "flowpulse/internal/errors"
	"flowpulse/internal/infrastructure"
	custommw "flowpulse/internal/middleware"
	"flowpulse/internal/pricing"
	"flowpulse/internal/services"
	handlers "flowpulse/internal/transport/http"
	ws "flowpulse/internal/websocket"
)

// Version is overridden at build time via -ldflags.
var Version = "dev"

// Application wires configuration, services, and the HTTP surface.
type Application struct {
	Config       *config.Config
	Router       *chi.Mux
	Server       *http.Server
	Logger       *slog.Logger
	DataService  *services.DataService
	WebSocketHub *ws.Hub

	errorHandler *apierrors.ErrorHandler
	httpMetrics  *custommw.Metrics
}

// New builds the application from configuration.
func New(cfg *config.Config) (*Application, error) {
	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("initialize logger: %w", err)
	}

	logger.Info("application starting",
		slog.String("version", Version),
		slog.String("snapshot_dir", cfg.SnapshotDir()))

	aggCache := cache.NewMemoryCache(cfg.Data.CacheTTL)
	priceClient := pricing.NewClient(cfg.Pricing.BaseURL, logger)

	dataService := services.NewDataService(cfg, aggCache, priceClient, logger)
	dataService.SetMetrics(services.NewMetrics(prometheus.DefaultRegisterer))

	hub := ws.NewHub(ws.Options{
		ReadBufferSize:  cfg.WebSocket.ReadBufferSize,
		WriteBufferSize: cfg.WebSocket.WriteBufferSize,
		PingPeriod:      cfg.WebSocket.PingPeriod,
		PongWait:        cfg.WebSocket.PongWait,
	}, logger)
	dataService.SetBroadcaster(hub)

	a := &Application{
		Config:       cfg,
		Logger:       logger,
		DataService:  dataService,
		WebSocketHub: hub,
		errorHandler: apierrors.NewErrorHandler(logger, cfg.Logging.Development),
		httpMetrics:  custommw.NewMetrics(prometheus.DefaultRegisterer),
	}

	a.setupRouter()

	a.Server = &http.Server{
		Addr:           fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:        a.Router,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
	}

	return a, nil
}

// setupRouter configures the HTTP router with all routes.
func (a *Application) setupRouter() {
	r := chi.NewRouter()

	r.Use(custommw.RequestID)
	r.Use(custommw.RealIP)
	r.Use(a.httpMetrics.Handler)
	r.Use(custommw.StructuredLogger(a.Logger))
	r.Use(custommw.Recoverer(a.Logger))
	r.Use(custommw.DefaultSecureHeaders().Handler)

	if a.Config.Security.EnableCORS {
		r.Use(custommw.CORS(custommw.CORSConfig{
			AllowedOrigins: a.Config.Security.AllowedOrigins,
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
			MaxAge:         300,
		}))
	}

	if a.Config.Security.RateLimit.Enabled {
		limiter := custommw.NewRateLimiter(
			a.Config.Security.RateLimit.RPS,
			a.Config.Security.RateLimit.Burst,
			a.Logger)
		r.Use(limiter.Handler)
	}

	dataHandler := handlers.NewDataHandler(a.DataService, a.Logger, a.errorHandler)
	healthHandler := handlers.NewHealthHandler(a.DataService, Version, a.Logger)

	validation := custommw.NewValidationMiddleware(a.Logger, a.errorHandler)

	r.Route("/api", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))
		r.Use(custommw.Timeout(a.Config.Server.ReadTimeout, a.Logger))
		r.Use(custommw.ContentTypeValidator("application/json"))
		r.Use(validation.ValidateRequest)

		r.Get("/health", healthHandler.HealthCheck)
		r.Get("/health/live", healthHandler.LivenessCheck)
		r.Get("/health/ready", healthHandler.ReadinessCheck)
		r.Get("/version", healthHandler.Version)

		r.Mount("/data", dataHandler.Routes())
	})

	r.Get("/ws", a.WebSocketHub.ServeWS)
	r.Handle("/metrics", promhttp.Handler())

	r.NotFound(a.errorHandler.NotFound)
	r.MethodNotAllowed(a.errorHandler.MethodNotAllowed)

	a.Router = r
}

// Run starts the hub and server, performs the initial data load, and
// blocks until the context is cancelled or a shutdown signal arrives.
func (a *Application) Run(ctx context.Context) error {
	go a.WebSocketHub.Run()
	defer a.WebSocketHub.Shutdown()

	// Load whatever snapshots exist; an empty data directory is not fatal
	// at startup, the first request will retry.
	loadCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ReadTimeout)
	if err := a.DataService.Reload(loadCtx, false); err != nil {
		a.Logger.Warn("initial data load failed",
			slog.String("error", err.Error()))
	}
	cancel()

	errCh := make(chan error, 1)
	go func() {
		a.Logger.Info("http server listening",
			slog.String("addr", a.Server.Addr))
		if err := a.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case sig := <-sigCh:
		a.Logger.Info("shutdown signal received", slog.String("signal", sig.String()))
	case <-ctx.Done():
		a.Logger.Info("context cancelled, shutting down")
	}

	return a.Shutdown()
}

// Shutdown drains in-flight requests within the configured timeout.
func (a *Application) Shutdown() error {
	timeout := a.Config.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := a.Server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	a.Logger.Info("server stopped")
	return nil
}
