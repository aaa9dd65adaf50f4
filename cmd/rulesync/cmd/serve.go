package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humaecho"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/donaldgifford/rulesync/internal/api/handlers"
	"github.com/donaldgifford/rulesync/internal/api/middleware"
	"github.com/donaldgifford/rulesync/internal/backend"
	"github.com/donaldgifford/rulesync/internal/config"
	"github.com/donaldgifford/rulesync/internal/engine"
	"github.com/donaldgifford/rulesync/internal/store"
	"github.com/donaldgifford/rulesync/internal/tracing"
	"github.com/donaldgifford/rulesync/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the API server and drift audit scheduler",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Setup(ctx, &cfg.Tracing, Version)
	if err != nil {
		return fmt.Errorf("setting up tracing: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			log.Error("flushing traces", "error", err)
		}
	}()

	router, err := buildRouter(cfg, log)
	if err != nil {
		return err
	}

	st, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	eng := engine.NewEngine(router, st, buildNotifier(cfg, log),
		engine.WithLogger(log),
		engine.WithPollInterval(cfg.Polling.Interval),
		engine.WithPollTimeout(cfg.Polling.Timeout),
		engine.WithAuditGroups(cfg.Audit.Groups),
		engine.WithDriftThreshold(cfg.Audit.DriftThreshold),
	)

	var sched *engine.Scheduler
	if cfg.Audit.Enabled {
		sched, err = engine.NewScheduler(eng, st, cfg.Audit.Interval, log)
		if err != nil {
			return fmt.Errorf("creating scheduler: %w", err)
		}
		sched.RecoverStaleAuditRuns(ctx)
		sched.Start()
	}

	e := newServer(cfg, eng, router, st, log)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	log.Info("starting server",
		"addr", addr,
		"version", Version,
		"sources", router.Sources(),
		"default_source", router.Default(),
		"audit", cfg.Audit.Enabled,
	)

	errCh := make(chan error, 1)
	go func() {
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	log.Info("shutting down server")

	if sched != nil {
		<-sched.Stop().Done()
	}

	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(sctx); err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}

	log.Info("server stopped")
	return nil
}

// newServer builds the Echo server with middleware, health probes, metrics
// and the Huma API routes.
func newServer(
	cfg *config.Config,
	eng *engine.Engine,
	router *backend.Router,
	st store.Store,
	log *slog.Logger,
) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Server.ReadTimeout = cfg.Server.ReadTimeout
	e.Server.WriteTimeout = writeTimeout(cfg)

	e.Use(
		middleware.Recovery(log),
		middleware.RequestLog(log),
		middleware.Tracing(),
		middleware.Metrics(),
	)

	health := handlers.NewHealthHandler(st)
	e.GET("/healthz", health.Healthz)
	e.GET("/readyz", health.Readyz)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := humaecho.New(e, huma.DefaultConfig("rulesync API", Version))
	handlers.RegisterGroupRoutes(api, handlers.NewGroupsHandler(eng, router))
	handlers.RegisterWaitRoutes(api, handlers.NewWaitsHandler(eng))
	handlers.RegisterAuditRoutes(api, handlers.NewAuditHandler(eng))

	return e
}

// writeTimeout leaves room for the longest wait a request may ask for.
func writeTimeout(cfg *config.Config) time.Duration {
	longest := max(cfg.Polling.Timeout, handlers.MaxWaitTimeoutSeconds*time.Second)
	return max(cfg.Server.WriteTimeout, longest+cfg.Polling.Interval+5*time.Second)
}
