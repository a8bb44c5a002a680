package main

import (
	"context"
	"fmt"
	"os"

	"github.com/pkg/errors"

	"weather-dashboard/config"
	"weather-dashboard/internal/auth"
	"weather-dashboard/internal/query"
	"weather-dashboard/internal/repositories"
	"weather-dashboard/internal/services/weather"
	"weather-dashboard/internal/state"
	"weather-dashboard/internal/storage"
	"weather-dashboard/internal/view"
	"weather-dashboard/pkg/logger"
	"weather-dashboard/pkg/observe"
)

// application holds everything a command needs. The weather service and the
// sign-in provider are optional so preference commands work without them.
type application struct {
	cfg      *config.Config
	l        *logger.Logger
	sentry   *observe.SentryHook
	kv       storage.KV
	store    *state.Store
	queries  *query.Client
	renderer *view.Renderer

	service    *weather.WeatherService
	serviceErr error

	auth *auth.GoogleProvider
}

func newApplication(ctx context.Context, configPath string) (*application, error) {
	cfg, err := config.NewConfig(configPath)
	if err != nil {
		return nil, err
	}

	sentryHook := observe.NewSentryHook(cfg.App.Env, cfg.App.Name, 0, cfg.IsDevelopment(), cfg.Log.SentryDSN)

	l := logger.NewZapLogger(cfg.App.Name, os.Stderr)
	if sentryHook.Enabled() {
		l = logger.NewZapLogger(cfg.App.Name, os.Stderr, sentryHook)
	}
	l.SetEnv(cfg.App.Env)
	if err := l.SetLevel(cfg.Log.Level); err != nil {
		return nil, err
	}
	sentryHook.SetLogger(l)

	kv, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open preference storage")
	}

	prefs := storage.NewPreferenceStore(kv, l)
	initial, err := prefs.Load(ctx)
	if err != nil {
		l.Warning("failed to load preferences, using defaults", map[string]any{"err": err})
		initial = state.Default()
	}

	queries := query.New(
		query.WithRetryable(repositories.IsRetryable),
		query.WithBackoff(query.Backoff{Base: cfg.Cache.RetryBaseDelay, Max: cfg.Cache.RetryMaxDelay}),
		query.WithLogger(l),
	)

	a := &application{
		cfg:      cfg,
		l:        l,
		sentry:   sentryHook,
		kv:       kv,
		store:    state.NewStore(initial, prefs, l),
		queries:  queries,
		renderer: view.NewRenderer(),
	}

	repo, err := repositories.InitWeatherRepository(cfg, l)
	if err != nil {
		a.serviceErr = err
	} else {
		a.service = weather.NewWeatherService(repo, queries, weather.PoliciesFromConfig(cfg.Cache), l)
	}

	provider, err := auth.NewGoogleProvider(cfg.Auth, l)
	if err == nil {
		a.auth = provider
	} else if !errors.Is(err, auth.ErrNotConfigured) {
		l.Warning("google sign-in disabled", map[string]any{"err": err})
	}

	return a, nil
}

func (a *application) weather() (*weather.WeatherService, error) {
	if a.service == nil {
		return nil, fmt.Errorf("weather data unavailable: %w", a.serviceErr)
	}
	return a.service, nil
}

func (a *application) close() {
	a.queries.Wait()
	if err := a.kv.Close(); err != nil {
		a.l.Warning("failed to close preference storage", map[string]any{"err": err})
	}
	if a.sentry.Enabled() {
		a.sentry.Flush()
	}
	_ = a.l.Stop()
}
