// Package app wires the pronunciation service together.
//
// New builds every subsystem from a [config.Config]: the ASR provider chain
// (registry factories, circuit-breaking fallback, transcript cache), the
// never-failing [asr.Service], the health probes and the gin router. Run
// serves HTTP until its context is cancelled, and Shutdown releases the
// provider resources.
//
// Tests inject doubles through functional options (WithCacheStore,
// WithListener, ...). When an option is not provided, New creates the real
// implementation from the config.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/MrWong99/linguaccess/internal/config"
	"github.com/MrWong99/linguaccess/internal/health"
	"github.com/MrWong99/linguaccess/internal/httpapi"
	"github.com/MrWong99/linguaccess/internal/observe"
	"github.com/MrWong99/linguaccess/internal/resilience"
	"github.com/MrWong99/linguaccess/pkg/pronounce"
	"github.com/MrWong99/linguaccess/pkg/provider/asr"
	"github.com/MrWong99/linguaccess/pkg/provider/asr/cache"
)

// ShutdownTimeout bounds the graceful HTTP shutdown once Run's context ends.
const ShutdownTimeout = 15 * time.Second

// App owns the lifetime of every subsystem.
type App struct {
	cfg     *config.Config
	version string

	metrics        *observe.Metrics
	metricsHandler http.Handler
	level          *slog.LevelVar
	registry       *config.Registry

	fallback *resilience.ASRFallback
	store    cache.Store
	asr      *asr.Service
	scorer   atomic.Pointer[pronounce.Scorer]
	health   *health.Handler
	handler  http.Handler

	configPath    string
	watchInterval time.Duration
	watcher       *config.Watcher

	listener net.Listener
	server   *http.Server

	// closers are called in order during Shutdown.
	closers  []func() error
	stopOnce sync.Once
}

// Option is a functional option for New.
type Option func(*App)

// WithVersion sets the version reported by GET /api/ml/health.
func WithVersion(v string) Option {
	return func(a *App) { a.version = v }
}

// WithMetrics injects the metrics instance instead of observe.DefaultMetrics.
func WithMetrics(m *observe.Metrics) Option {
	return func(a *App) { a.metrics = m }
}

// WithMetricsHandler sets the handler served on /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(a *App) { a.metricsHandler = h }
}

// WithLevelVar lets a config reload change the log level of the handler
// that owns lv.
func WithLevelVar(lv *slog.LevelVar) Option {
	return func(a *App) { a.level = lv }
}

// WithRegistry sets the registry used to create ASR providers. Without it
// only the unavailable backend can be built.
func WithRegistry(r *config.Registry) Option {
	return func(a *App) { a.registry = r }
}

// WithCacheStore injects the transcript cache store instead of creating one
// from asr.cache.
func WithCacheStore(s cache.Store) Option {
	return func(a *App) { a.store = s }
}

// WithConfigFile makes Run watch path and apply hot-reloadable changes.
// interval zero selects config.DefaultWatchInterval.
func WithConfigFile(path string, interval time.Duration) Option {
	return func(a *App) {
		a.configPath = path
		a.watchInterval = interval
	}
}

// WithListener makes Run serve on ln instead of listening on
// server.listen_addr.
func WithListener(ln net.Listener) Option {
	return func(a *App) { a.listener = ln }
}

// New creates an App by wiring all subsystems together.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*App, error) {
	a := &App{cfg: cfg}
	for _, o := range opts {
		o(a)
	}
	if a.metrics == nil {
		a.metrics = observe.DefaultMetrics()
	}
	if a.registry == nil {
		a.registry = config.NewRegistry()
	}

	scorer, err := cfg.Scoring.Scorer()
	if err != nil {
		return nil, fmt.Errorf("app: scorer: %w", err)
	}
	a.scorer.Store(scorer)

	if err := a.initASR(ctx); err != nil {
		a.runClosers()
		return nil, fmt.Errorf("app: init asr: %w", err)
	}
	a.initHealth()

	router, err := httpapi.NewRouter(httpapi.Options{
		Transcriber:    a.asr,
		Scorer:         a.Scorer,
		Health:         a.health,
		Metrics:        a.metrics,
		MetricsHandler: a.metricsHandler,
		CORSOrigins:    cfg.Server.CORSOrigins,
		MaxUploadBytes: cfg.Server.MaxUploadBytes,
		RequestTimeout: cfg.Server.RequestTimeout,
		Version:        a.version,
	})
	if err != nil {
		a.runClosers()
		return nil, fmt.Errorf("app: router: %w", err)
	}
	a.handler = observe.Middleware(a.metrics)(router)

	if a.configPath != "" {
		a.watcher, err = config.NewWatcher(a.configPath, a.Reload, config.WithInterval(a.watchInterval))
		if err != nil {
			a.runClosers()
			return nil, fmt.Errorf("app: %w", err)
		}
	}

	a.server = &http.Server{
		Addr:              cfg.Server.ListenAddr,
		Handler:           a.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return a, nil
}

// ─── Init helpers ────────────────────────────────────────────────────────────

// initASR builds the provider chain: primary and fallbacks behind circuit
// breakers, optionally behind the transcript cache, inside the
// placeholder-on-failure service.
func (a *App) initASR(ctx context.Context) error {
	backend, err := a.cfg.ASR.ParsedBackend()
	if err != nil {
		return err
	}
	if backend == asr.BackendUnavailable {
		slog.Warn("asr backend unavailable, every transcript will be the placeholder")
		a.asr, err = asr.NewService(backend, nil, asr.WithObserver(a.metrics))
		return err
	}

	primary, err := a.createProvider(a.cfg.ASR.Primary)
	if err != nil {
		return err
	}
	a.fallback = resilience.NewASRFallback(primary, a.cfg.ASR.Primary.Name, resilience.FallbackConfig{
		CircuitBreaker: resilience.CircuitBreakerConfig{
			MaxFailures:  a.cfg.ASR.CircuitBreaker.MaxFailures,
			ResetTimeout: a.cfg.ASR.CircuitBreaker.ResetTimeout,
			HalfOpenMax:  a.cfg.ASR.CircuitBreaker.HalfOpenMax,
			OnStateChange: func(name string, _, to resilience.State) {
				a.metrics.RecordCircuitTransition(context.Background(), name, to.String())
			},
		},
	})
	for _, entry := range a.cfg.ASR.Fallbacks {
		p, err := a.createProvider(entry)
		if err != nil {
			return err
		}
		a.fallback.AddFallback(entry.Name, p)
	}

	var provider asr.Provider = a.fallback
	if a.cfg.ASR.Cache.Enabled || a.store != nil {
		if err := a.initCache(ctx); err != nil {
			return err
		}
		provider = cache.New(a.fallback, a.store, cache.WithTTL(a.cfg.ASR.Cache.TTL))
	}

	a.asr, err = asr.NewService(backend, provider,
		asr.WithTimeout(a.cfg.ASR.Timeout),
		asr.WithProviderName(a.cfg.ASR.Primary.Name),
		asr.WithObserver(a.metrics),
	)
	if err != nil {
		return err
	}
	slog.Info("asr ready",
		"primary", a.cfg.ASR.Primary.Name,
		"fallbacks", len(a.cfg.ASR.Fallbacks),
		"cache", a.store != nil,
		"timeout", a.cfg.ASR.Timeout,
	)
	return nil
}

func (a *App) createProvider(entry config.ProviderEntry) (asr.Provider, error) {
	p, err := a.registry.CreateASR(entry)
	if err != nil {
		return nil, err
	}
	if c, ok := p.(io.Closer); ok {
		a.closers = append(a.closers, c.Close)
	}
	slog.Info("provider created", "kind", observe.KindASR, "name", entry.Name, "model", entry.Model)
	return p, nil
}

func (a *App) initCache(ctx context.Context) error {
	name := "memory"
	if a.store == nil {
		cc := a.cfg.ASR.Cache
		if cc.RedisAddr != "" {
			rs, err := cache.NewRedisStore(ctx, cache.RedisConfig{
				Addr:     cc.RedisAddr,
				Username: cc.RedisUsername,
				Password: cc.RedisPassword,
				DB:       cc.RedisDB,
			})
			if err != nil {
				return err
			}
			a.closers = append(a.closers, rs.Close)
			a.store = rs
			name = "redis"
		} else {
			a.store = cache.NewMemoryStore(cache.WithMaxEntries(cc.MaxEntries))
		}
	} else {
		name = "injected"
	}
	a.store = observe.InstrumentStore(a.store, name, a.metrics)
	slog.Info("transcript cache enabled", "store", name, "ttl", a.cfg.ASR.Cache.TTL)
	return nil
}

// initHealth registers the readiness checks. The cache is optional: a
// failing cache degrades readiness without failing it.
func (a *App) initHealth() {
	checkers := []health.Checker{{Name: "asr", Check: a.checkASR}}
	if a.store != nil {
		checkers = append(checkers, health.Checker{Name: "cache", Check: a.store.Ping, Optional: true})
	}
	a.health = health.New(checkers...)
}

func (a *App) checkASR(context.Context) error {
	if a.fallback == nil {
		return nil
	}
	for _, s := range a.fallback.Status() {
		if s.State != resilience.StateOpen.String() {
			return nil
		}
	}
	return errors.New("every recogniser has an open circuit")
}

// ─── Accessors ───────────────────────────────────────────────────────────────

// Handler returns the fully wrapped HTTP handler.
func (a *App) Handler() http.Handler { return a.handler }

// Scorer returns the scorer currently in use.
func (a *App) Scorer() *pronounce.Scorer { return a.scorer.Load() }

// Transcriber returns the ASR service.
func (a *App) Transcriber() *asr.Service { return a.asr }

// ASRStatus reports the breaker state of every configured recogniser. It is
// empty for the unavailable backend.
func (a *App) ASRStatus() []resilience.EntryStatus {
	if a.fallback == nil {
		return nil
	}
	return a.fallback.Status()
}

// ─── Reload ──────────────────────────────────────────────────────────────────

// Reload applies the hot-reloadable part of a config change: the log level
// and the scoring knobs. Other changes are logged and need a restart.
func (a *App) Reload(old, new *config.Config) {
	d := config.Diff(old, new)

	if d.LogLevelChanged && a.level != nil {
		a.level.Set(d.NewLogLevel.Level())
		slog.Info("log level changed", "level", d.NewLogLevel)
	}
	if d.ScoringChanged {
		scorer, err := new.Scoring.Scorer()
		if err != nil {
			slog.Warn("scoring config rejected, keeping previous scorer", "error", err)
		} else {
			a.scorer.Store(scorer)
			slog.Info("scoring config applied")
		}
	}
	if len(d.RestartRequired) > 0 {
		slog.Warn("config changes require a restart to take effect", "sections", d.RestartRequired)
	}
}

// ─── Run ─────────────────────────────────────────────────────────────────────

// Run serves HTTP, and watches the config file when configured, until ctx
// is cancelled. The server is then shut down gracefully within
// ShutdownTimeout. Returns nil after a clean shutdown.
func (a *App) Run(ctx context.Context) error {
	ln := a.listener
	if ln == nil {
		var err error
		ln, err = net.Listen("tcp", a.cfg.Server.ListenAddr)
		if err != nil {
			return fmt.Errorf("app: listen: %w", err)
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("http server listening", "addr", ln.Addr().String(), "tls", a.cfg.Server.TLS != nil)
		var err error
		if tls := a.cfg.Server.TLS; tls != nil {
			err = a.server.ServeTLS(ln, tls.CertFile, tls.KeyFile)
		} else {
			err = a.server.Serve(ln)
		}
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("app: serve: %w", err)
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("app: http shutdown: %w", err)
		}
		return nil
	})
	if a.watcher != nil {
		g.Go(func() error { return a.watcher.Run(gctx) })
	}
	return g.Wait()
}

// ─── Shutdown ────────────────────────────────────────────────────────────────

// Shutdown releases provider resources. It respects the context deadline:
// if ctx expires before all closers finish, remaining closers are skipped
// and the context error is returned.
func (a *App) Shutdown(ctx context.Context) error {
	var shutdownErr error
	a.stopOnce.Do(func() {
		slog.Info("shutting down", "closers", len(a.closers))
		for i, closer := range a.closers {
			select {
			case <-ctx.Done():
				slog.Warn("shutdown deadline exceeded", "remaining", len(a.closers)-i)
				shutdownErr = ctx.Err()
				return
			default:
			}
			if err := closer(); err != nil {
				slog.Warn("closer error", "index", i, "error", err)
			}
		}
		slog.Info("shutdown complete")
	})
	return shutdownErr
}

// runClosers releases whatever New had created before it failed.
func (a *App) runClosers() {
	_ = a.Shutdown(context.Background())
}
