package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/donaldgifford/rulesync/internal/backend"
	"github.com/donaldgifford/rulesync/internal/config"
	"github.com/donaldgifford/rulesync/internal/notify"
	"github.com/donaldgifford/rulesync/internal/store"
)

// buildRouter creates a client pair per configured backend.
func buildRouter(cfg *config.Config, log *slog.Logger) (*backend.Router, error) {
	backends := make([]backend.Backend, 0, len(cfg.Backends))
	for i := range cfg.Backends {
		b := &cfg.Backends[i]
		opts := backendOptions(b)

		rulerOpts := append([]backend.Option{backend.WithPathPrefix(b.RulerPathPrefix)}, opts...)
		promOpts := opts
		if b.PrometheusPathPrefix != "" {
			promOpts = append([]backend.Option{backend.WithPathPrefix(b.PrometheusPathPrefix)}, opts...)
		}

		backends = append(backends, backend.Backend{
			Name:       b.Name,
			Definition: backend.NewRulerClient(b.RulerURL, rulerOpts...),
			Runtime:    backend.NewPrometheusClient(b.PrometheusURL, promOpts...),
		})
		log.Info("backend configured",
			"name", b.Name,
			"ruler_url", b.RulerURL,
			"prometheus_url", b.PrometheusURL,
			"tenant", b.Tenant,
		)
	}

	r, err := backend.NewRouter(backends,
		backend.WithDefault(cfg.DefaultBackend()),
		backend.WithLogger(log),
	)
	if err != nil {
		return nil, fmt.Errorf("building backend router: %w", err)
	}
	return r, nil
}

// backendOptions returns the options shared by both clients of a backend.
// The two clients share one rate limiter.
func backendOptions(b *config.BackendConfig) []backend.Option {
	opts := []backend.Option{backend.WithTimeout(b.Timeout)}
	if b.Tenant != "" {
		opts = append(opts, backend.WithTenant(b.Tenant))
	}
	if b.RateLimit.PerSecond > 0 {
		opts = append(opts, backend.WithRateLimiter(
			backend.NewRateLimiter(b.RateLimit.PerSecond, b.RateLimit.Burst),
		))
	}

	auth := &b.Auth
	switch {
	case auth.OAuth.Enabled():
		opts = append(opts, backend.WithTokenProvider(backend.NewOAuthTokenProvider(
			auth.OAuth.TokenURL,
			auth.OAuth.ClientID,
			auth.OAuth.ClientSecret,
			backend.WithScopes(auth.OAuth.Scopes...),
		)))
	case auth.BearerToken != "":
		opts = append(opts, backend.WithTokenProvider(backend.StaticToken(auth.BearerToken)))
	case auth.Username != "":
		opts = append(opts, backend.WithBasicAuth(auth.Username, auth.Password))
	}
	return opts
}

// openStore connects to PostgreSQL when configured and falls back to the
// in-memory store otherwise. The returned func releases the store.
func openStore(ctx context.Context, cfg *config.Config, log *slog.Logger) (store.Store, func(), error) {
	if !cfg.Database.Enabled() {
		log.Warn("database not configured, wait history will not survive restarts")
		return store.NewMemoryStore(), func() {}, nil
	}

	pg, err := store.NewPostgresStore(ctx, cfg.Database.DSN(),
		store.WithPoolSize(int32(cfg.Database.PoolSize)), //nolint:gosec // pool size is small
	)
	if err != nil {
		return nil, nil, fmt.Errorf("connecting to database: %w", err)
	}
	if err := pg.Migrate(ctx); err != nil {
		pg.Close()
		return nil, nil, fmt.Errorf("running migrations: %w", err)
	}
	log.Info("database connected", "host", cfg.Database.Host, "database", cfg.Database.Name)
	return pg, pg.Close, nil
}

func buildNotifier(cfg *config.Config, log *slog.Logger) notify.Notifier {
	if cfg.Notifications.Discord.Enabled {
		log.Info("discord notifications enabled")
		return notify.NewDiscordNotifier(cfg.Notifications.Discord.WebhookURL)
	}
	return notify.NewNoOpNotifier(log)
}
