package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humaecho"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/donaldgifford/smartsell/internal/api/handlers"
	"github.com/donaldgifford/smartsell/internal/api/middleware"
	"github.com/donaldgifford/smartsell/internal/catalog"
	"github.com/donaldgifford/smartsell/internal/config"
	"github.com/donaldgifford/smartsell/internal/engine"
	"github.com/donaldgifford/smartsell/internal/session"
	"github.com/donaldgifford/smartsell/internal/tracing"
	"github.com/donaldgifford/smartsell/pkg/logger"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the API server and scheduler",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Setup(ctx, cfg.Tracing, Version)
	if err != nil {
		return fmt.Errorf("setting up tracing: %w", err)
	}

	registry, err := loadCatalog(ctx, cfg, log)
	if err != nil {
		return err
	}

	eng, err := engine.NewEngine(registry,
		engine.WithLogger(log),
		engine.WithViewCacheSize(cfg.Cache.ViewCacheSize),
		engine.WithDefaultRatingMin(cfg.Filters.RatingMin()),
	)
	if err != nil {
		return fmt.Errorf("creating engine: %w", err)
	}

	store := session.NewStore(eng, session.WithLogger(log))

	sched, err := engine.NewScheduler(
		store,
		registry,
		cfg.Sessions.IdleTimeout,
		cfg.Sessions.SweepInterval,
		cfg.Sessions.RefreshInterval,
		log,
	)
	if err != nil {
		return fmt.Errorf("creating scheduler: %w", err)
	}

	e := newServer(cfg, log, registry, eng, store)

	sched.Start()

	addr := cfg.Server.Addr()
	log.Info("starting server", "addr", addr, "version", Version, "datasets", len(registry.List()))

	errCh := make(chan error, 1)
	go func() {
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutting down server")
	case err := <-errCh:
		if err != nil {
			log.Error("server error", "error", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	var errs []error
	if err := e.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("shutting down server: %w", err))
	}

	select {
	case <-sched.Stop().Done():
	case <-shutdownCtx.Done():
		log.Warn("scheduler did not stop before shutdown timeout")
	}

	if err := shutdownTracing(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("shutting down tracing: %w", err))
	}

	log.Info("server stopped")
	return errors.Join(errs...)
}

// loadCatalog builds the dataset registry and performs the initial load.
func loadCatalog(ctx context.Context, cfg *config.Config, log *slog.Logger) (*catalog.Registry, error) {
	sources, err := catalog.SourcesFromConfig(cfg.Datasets)
	if err != nil {
		return nil, fmt.Errorf("resolving datasets: %w", err)
	}

	registry := catalog.New(sources, catalog.WithLogger(log))
	if err := registry.LoadAll(ctx); err != nil {
		return nil, err
	}
	return registry, nil
}

func newServer(
	cfg *config.Config,
	log *slog.Logger,
	registry *catalog.Registry,
	eng *engine.Engine,
	store *session.Store,
) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Server.ReadTimeout = cfg.Server.ReadTimeout
	e.Server.WriteTimeout = cfg.Server.WriteTimeout

	e.Use(middleware.Recovery(log))
	e.Use(middleware.RequestLog(log))
	e.Use(middleware.Metrics())
	e.Use(middleware.RateLimit(middleware.NewRateLimiter(cfg.RateLimit.PerSecond, cfg.RateLimit.Burst)))

	health := handlers.NewHealthHandler(registry)
	e.GET("/healthz", health.Healthz)
	e.GET("/readyz", health.Readyz)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := humaecho.New(e, huma.DefaultConfig("smartsell API", Version))
	handlers.RegisterDatasetRoutes(api, handlers.NewDatasetsHandler(eng))
	handlers.RegisterAnalyticsRoutes(api, handlers.NewAnalyticsHandler(eng, cfg.Insights))
	handlers.RegisterSessionRoutes(api, handlers.NewSessionsHandler(store))

	return e
}

