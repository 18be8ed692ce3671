package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	persistence "github.com/goliatone/go-persistence-bun"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"

	innovate "github.com/innovatetogether/go-innovate"
	"github.com/innovatetogether/go-innovate/adapters/gocommand"
	"github.com/innovatetogether/go-innovate/adapters/gologger"
	"github.com/innovatetogether/go-innovate/adapters/prommetrics"
	"github.com/innovatetogether/go-innovate/core"
	"github.com/innovatetogether/go-innovate/session"
	sqlstore "github.com/innovatetogether/go-innovate/store/sql"
)

const (
	envDatabaseDSN  = "INNOVATE_DATABASE_DSN"
	envIDToken      = "INNOVATE_ID_TOKEN"
	defaultDSN      = "file:innovate.db?cache=shared"
	defaultCacheTTL = 30 * time.Second
)

type environment struct {
	lookup     func(key string) (string, bool)
	stdout     io.Writer
	stderr     io.Writer
	httpClient core.HTTPDoer
}

func (e environment) getenv(key string) string {
	if e.lookup == nil {
		return ""
	}
	value, _ := e.lookup(key)
	return strings.TrimSpace(value)
}

type rootFlags struct {
	dsn      string
	idToken  string
	verbose  bool
	json     bool
	metrics  bool
	cacheTTL time.Duration
}

// app is the per-invocation wiring: storage, session, service and the
// command bus subscriptions.
type app struct {
	service  *innovate.Service
	facade   *innovate.Facade
	sessions *session.Manager
	client   *persistence.Client
	bus      *gocommand.Bus
	logger   core.Logger
	registry *prometheus.Registry
	// metricsOut receives the gathered metrics on Close when set.
	metricsOut io.Writer
}

func openApp(ctx context.Context, env environment, flags rootFlags) (*app, error) {
	level := slog.LevelWarn
	if flags.verbose {
		level = slog.LevelDebug
	}
	logger := gologger.NewTextLogger(env.stderr, level)
	provider := gologger.NewSlogProvider(logger)

	dsn := strings.TrimSpace(flags.dsn)
	if dsn == "" {
		dsn = defaultDSN
	}
	client, err := sqlstore.Open(ctx, dsn, flags.verbose)
	if err != nil {
		return nil, fmt.Errorf("open preference store: %w", err)
	}
	a := &app{
		client:   client,
		logger:   provider.GetLogger("innovatectl"),
		registry: prometheus.NewRegistry(),
	}
	if flags.metrics {
		a.metricsOut = env.stderr
	}

	factory, err := sqlstore.NewRepositoryFactoryFromPersistence(client)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	ttl := flags.cacheTTL
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	cacheService, err := sqlstore.NewPreferenceCache(ttl)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	store, err := factory.CachedPreferenceStore(cacheService)
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	a.sessions = session.NewManager()
	if token := strings.TrimSpace(flags.idToken); token != "" {
		if err := a.sessions.SignInWithIDToken(token); err != nil {
			_ = a.Close()
			return nil, fmt.Errorf("sign in with id token: %w", err)
		}
	}

	loader := &core.EnvRawConfigLoader{Lookup: env.lookup}
	a.service, err = innovate.SetupWithHTTPClient(core.Config{}, env.httpClient,
		innovate.WithConfigProvider(core.NewCfgxConfigProvider(loader)),
		innovate.WithLoggerProvider(provider),
		innovate.WithMetricsRecorder(prommetrics.NewRecorder(prommetrics.Config{Registerer: a.registry})),
		innovate.WithPreferenceStore(store),
		innovate.WithSessionProvider(a.sessions),
	)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	a.facade, err = innovate.NewFacade(a.service)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	a.bus = gocommand.NewBus(nil)
	if err := a.bus.Mount(a.facade); err != nil {
		_ = a.Close()
		return nil, err
	}
	a.logger.Debug("innovatectl ready", "dsn_driver", sqlstore.DriverForDSN(dsn), "session", flags.idToken != "")
	return a, nil
}

func (a *app) Close() error {
	if a == nil {
		return nil
	}
	a.bus.Close()
	metricsErr := a.writeMetrics()
	if a.client == nil {
		return metricsErr
	}
	client := a.client
	a.client = nil
	return errors.Join(metricsErr, client.Close())
}

// writeMetrics dumps the registry in the text exposition format.
func (a *app) writeMetrics() error {
	if a.metricsOut == nil || a.registry == nil {
		return nil
	}
	out := a.metricsOut
	a.metricsOut = nil
	families, err := a.registry.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}
	for _, family := range families {
		if _, err := expfmt.MetricFamilyToText(out, family); err != nil {
			return fmt.Errorf("write metrics: %w", err)
		}
	}
	return nil
}
