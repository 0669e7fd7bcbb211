// Package app wires all Lexiscore subsystems into a running application.
//
// The App struct owns the full lifecycle: New creates and connects all
// subsystems, Run serves HTTP until the context is cancelled, and Shutdown
// tears everything down in order.
//
// For testing, inject fakes via functional options (WithStore, WithMetrics).
// When an option is not provided, New creates real implementations from the
// config.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lexiscore/lexiscore/internal/config"
	"github.com/lexiscore/lexiscore/internal/health"
	"github.com/lexiscore/lexiscore/internal/httpapi"
	"github.com/lexiscore/lexiscore/internal/observe"
	"github.com/lexiscore/lexiscore/internal/passage"
	"github.com/lexiscore/lexiscore/internal/practice"
	"github.com/lexiscore/lexiscore/pkg/textcompare"
)

// Version is the reported application version. Overridden at build time via
// -ldflags "-X github.com/lexiscore/lexiscore/internal/app.Version=v1.2.3".
var Version = "dev"

// shutdownGrace is how long Run waits for in-flight requests after the
// context is cancelled.
const shutdownGrace = 10 * time.Second

// App owns all subsystem lifetimes and serves the Lexiscore HTTP API.
type App struct {
	cfg *config.Config

	// Subsystems — initialised in New, torn down in Shutdown.
	store   passage.Store
	pool    *pgxpool.Pool
	metrics *observe.Metrics
	svc     *practice.Service
	server  *http.Server

	// closers are called in order during Shutdown.
	closers []func() error

	// stopOnce guards the Shutdown path.
	stopOnce sync.Once
}

// Option is a functional option for New. Use these to inject test doubles.
type Option func(*App)

// WithStore injects a passage store instead of connecting one from config.
func WithStore(s passage.Store) Option {
	return func(a *App) { a.store = s }
}

// WithMetrics injects a metrics bundle instead of using the default set.
func WithMetrics(m *observe.Metrics) Option {
	return func(a *App) { a.metrics = m }
}

// ─── New ─────────────────────────────────────────────────────────────────────

// New creates an App by wiring all subsystems together. Use Option functions
// to inject test doubles for any subsystem.
//
// New performs all initialisation synchronously: store connection and
// migration, seed passage import, comparer construction, and HTTP routing.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*App, error) {
	a := &App{cfg: cfg}
	for _, o := range opts {
		o(a)
	}

	if a.metrics == nil {
		a.metrics = observe.DefaultMetrics()
	}

	// ── 1. Passage store ─────────────────────────────────────────────────
	if err := a.initStore(ctx); err != nil {
		return nil, fmt.Errorf("app: init store: %w", err)
	}

	// ── 2. Seed passages ─────────────────────────────────────────────────
	if err := a.importSeeds(ctx); err != nil {
		return nil, fmt.Errorf("app: import seeds: %w", err)
	}

	// ── 3. Seed file watcher ─────────────────────────────────────────────
	if err := a.watchSeeds(); err != nil {
		return nil, fmt.Errorf("app: watch seeds: %w", err)
	}

	// ── 4. Practice service ──────────────────────────────────────────────
	a.svc = practice.NewService(a.store,
		practice.WithComparer(a.buildComparer()),
		practice.WithMetrics(a.metrics),
	)

	// ── 5. HTTP server ───────────────────────────────────────────────────
	a.server = &http.Server{
		Addr:              cfg.Server.ListenAddr,
		Handler:           a.buildHandler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	return a, nil
}

// ─── Init helpers ────────────────────────────────────────────────────────────

// initStore connects the PostgreSQL store, falling back to the in-memory
// store when no DSN is configured.
func (a *App) initStore(ctx context.Context) error {
	if a.store != nil {
		return nil // injected
	}

	dsn := a.cfg.Storage.PostgresDSN
	if dsn == "" {
		slog.Warn("no postgres_dsn configured, passages and attempts will not survive restarts")
		a.store = passage.NewMemStore()
		return nil
	}

	store, pool, err := passage.Connect(ctx, dsn)
	if err != nil {
		return err
	}
	a.store = store
	a.pool = pool
	a.closers = append(a.closers, func() error {
		pool.Close()
		return nil
	})
	slog.Info("connected to postgres store")
	return nil
}

// importSeeds loads every configured passage file into the store. Passages
// whose IDs already exist are skipped, so re-importing on restart is safe.
func (a *App) importSeeds(ctx context.Context) error {
	for _, path := range a.cfg.Passages.Files {
		seed, err := passage.LoadSeedFile(path)
		if err != nil {
			return fmt.Errorf("load passage file %q: %w", path, err)
		}
		n, err := passage.ImportSeed(ctx, a.store, seed)
		if err != nil {
			return fmt.Errorf("import passages %q: %w", path, err)
		}
		a.metrics.SeedImports.Add(ctx, int64(n))
		slog.Info("imported seed passages", "path", path, "count", n)
	}
	return nil
}

// watchSeeds starts a background watcher that re-imports seed files when
// they change on disk.
func (a *App) watchSeeds() error {
	if len(a.cfg.Passages.Files) == 0 {
		return nil
	}

	watcher, err := passage.NewSeedWatcher(a.store, a.cfg.Passages.Files,
		passage.WithImportCallback(func(path string, count int) {
			a.metrics.SeedImports.Add(context.Background(), int64(count))
		}),
	)
	if err != nil {
		return err
	}
	a.closers = append(a.closers, func() error {
		watcher.Stop()
		return nil
	})
	return nil
}

// buildComparer constructs the text comparer from the scoring config.
// Zero-value fields keep the package defaults.
func (a *App) buildComparer() *textcompare.Comparer {
	var opts []textcompare.Option
	if a.cfg.Scoring.SimilarityThreshold > 0 {
		opts = append(opts, textcompare.WithSimilarityThreshold(a.cfg.Scoring.SimilarityThreshold))
	}
	if a.cfg.Scoring.TypoWindow > 0 {
		opts = append(opts, textcompare.WithTypoWindow(a.cfg.Scoring.TypoWindow))
	}
	return textcompare.New(opts...)
}

// buildHandler assembles the full HTTP routing table: API routes, health
// endpoints, and the Prometheus scrape endpoint, all behind the tracing and
// metrics middleware.
func (a *App) buildHandler() http.Handler {
	mux := http.NewServeMux()

	httpapi.NewServer(a.svc).Register(mux)

	checkers := []health.Checker{
		{Name: "passages", Check: func(ctx context.Context) error {
			_, err := a.store.ListPassages(ctx, passage.ListOptions{})
			return err
		}},
	}
	if a.pool != nil {
		checkers = append(checkers, health.Checker{
			Name:  "database",
			Check: a.pool.Ping,
		})
	}
	health.New(Version, checkers...).Register(mux)

	mux.Handle("GET /metrics", promhttp.Handler())

	return observe.Middleware(a.metrics)(mux)
}

// ─── Run ─────────────────────────────────────────────────────────────────────

// Run starts the HTTP server and blocks until ctx is cancelled or the server
// fails. On cancellation it drains in-flight requests before returning
// ctx.Err().
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		var err error
		if tls := a.cfg.Server.TLS; tls != nil {
			err = a.server.ListenAndServeTLS(tls.CertFile, tls.KeyFile)
		} else {
			err = a.server.ListenAndServe()
		}
		errCh <- err
	}()

	slog.Info("http server listening", "addr", a.cfg.Server.ListenAddr, "tls", a.cfg.Server.TLS != nil)

	select {
	case <-ctx.Done():
		drainCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := a.server.Shutdown(drainCtx); err != nil {
			slog.Warn("http shutdown error", "err", err)
		}
		return ctx.Err()
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("app: http server: %w", err)
		}
		return nil
	}
}

// ─── Shutdown ────────────────────────────────────────────────────────────────

// Shutdown tears down all subsystems in reverse-init order. It respects the
// context deadline: if ctx expires before all closers finish, remaining
// closers are skipped and the context error is returned.
func (a *App) Shutdown(ctx context.Context) error {
	var shutdownErr error
	a.stopOnce.Do(func() {
		slog.Info("shutting down", "closers", len(a.closers))

		if a.server != nil {
			if err := a.server.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Warn("http shutdown error", "err", err)
			}
		}

		for i, closer := range a.closers {
			select {
			case <-ctx.Done():
				slog.Warn("shutdown deadline exceeded", "remaining", len(a.closers)-i)
				shutdownErr = ctx.Err()
				return
			default:
			}
			if err := closer(); err != nil {
				slog.Warn("closer error", "index", i, "err", err)
			}
		}

		slog.Info("shutdown complete")
	})
	return shutdownErr
}
