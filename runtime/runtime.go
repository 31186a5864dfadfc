// Package runtime assembles a ready-to-use preset server from Settings.
package runtime

import (
	"context"
	stderrors "errors"
	"io"
	"reflect"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/leeforge/glideformat/config"
	"github.com/leeforge/glideformat/engine"
	"github.com/leeforge/glideformat/logging"
	"github.com/leeforge/glideformat/metrics"
	"github.com/leeforge/glideformat/server"
	"github.com/leeforge/glideformat/storage"
)

// Config holds what New needs besides the settings file.
type Config struct {
	Settings config.Settings
	// Logger defaults to one built from Settings.Logging, which Shutdown then closes.
	Logger logging.Logger
	// Registerer receives engine metrics when Settings.Metrics.Enabled.
	// Defaults to prometheus.DefaultRegisterer.
	Registerer prometheus.Registerer
}

// Runtime owns the stores, engine and preset server built from one Settings.
type Runtime struct {
	mu       sync.Mutex
	settings config.Settings
	logger   logging.Logger
	ownsLog  bool
	metrics  *metrics.Collector

	source storage.Filesystem
	cache  storage.Filesystem
	server *server.Server
}

// New builds the runtime. On failure anything already opened is released.
func New(ctx context.Context, cfg Config) (*Runtime, error) {
	startTime := time.Now()
	rt := &Runtime{
		settings: cfg.Settings,
		logger:   cfg.Logger,
	}
	if rt.logger == nil {
		rt.logger = logging.NewLogger(cfg.Settings.Logging)
		rt.ownsLog = true
	}

	if cfg.Settings.Metrics.Enabled {
		reg := cfg.Registerer
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		collector, err := metrics.NewCollector(reg)
		if err != nil {
			return nil, rt.abort(err)
		}
		rt.metrics = collector
	}

	var err error
	if rt.source, err = storage.FromConfig(ctx, cfg.Settings.Source, rt.logger); err != nil {
		return nil, rt.abort(err)
	}
	if rt.cache, err = storage.FromConfig(ctx, cfg.Settings.Cache, rt.logger); err != nil {
		return nil, rt.abort(err)
	}

	eng, err := rt.newEngine(cfg.Settings)
	if err != nil {
		return nil, rt.abort(err)
	}

	rt.server = server.New(eng)
	if err := rt.server.AddPresets(cfg.Settings.Presets, cfg.Settings.AllowOverride); err != nil {
		return nil, rt.abort(err)
	}

	rt.logger.Info("runtime started",
		zap.String("source", rt.source.Name()),
		zap.String("cache", rt.cache.Name()),
		zap.Int("presets", rt.server.Registry().Len()),
		zap.Bool("metrics", rt.metrics != nil),
		zap.Duration("duration", time.Since(startTime)),
	)
	return rt, nil
}

func (r *Runtime) newEngine(s config.Settings) (*engine.Server, error) {
	ec := s.EngineConfig(r.source, r.cache)
	ec.Logger = r.logger
	ec.Metrics = r.metrics
	return engine.New(ec)
}

func (r *Runtime) Server() *server.Server {
	return r.server
}

func (r *Runtime) Logger() logging.Logger {
	return r.logger
}

func (r *Runtime) Settings() config.Settings {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.settings
}

// Reload applies new settings. Presets are re-registered with override and a
// changed engine section swaps in a new engine. Storage and logging changes
// need a restart and are only reported.
func (r *Runtime) Reload(ctx context.Context, s config.Settings) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !reflect.DeepEqual(r.settings.Source, s.Source) || !reflect.DeepEqual(r.settings.Cache, s.Cache) {
		r.logger.Warn("storage settings changed, restart to apply")
	}
	if r.settings.Logging != s.Logging {
		r.logger.Warn("logging settings changed, restart to apply")
	}

	if !reflect.DeepEqual(r.settings.Engine, s.Engine) {
		eng, err := r.newEngine(s)
		if err != nil {
			return err
		}
		r.server.SetEngine(eng)
		r.logger.Info("engine reloaded")
	}

	if err := r.server.AddPresets(s.Presets, true); err != nil {
		return err
	}

	r.settings = s
	r.logger.Info("settings reloaded", zap.Int("presets", r.server.Registry().Len()))
	return nil
}

// ReloadFrom decodes the current settings of cfg and reloads them.
func (r *Runtime) ReloadFrom(ctx context.Context, cfg *config.Config) error {
	s, err := cfg.Settings()
	if err != nil {
		return err
	}
	return r.Reload(ctx, s)
}

// Shutdown releases stores holding connections and flushes the logger.
func (r *Runtime) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	err := r.closeStores()
	r.logger.Info("shutdown completed")
	return stderrors.Join(err, r.closeLogger())
}

func (r *Runtime) abort(err error) error {
	_ = r.closeStores()
	_ = r.closeLogger()
	return err
}

func (r *Runtime) closeStores() error {
	var errs []error
	for _, fs := range []storage.Filesystem{r.source, r.cache} {
		if closer, ok := fs.(io.Closer); ok {
			if err := closer.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return stderrors.Join(errs...)
}

func (r *Runtime) closeLogger() error {
	if !r.ownsLog {
		return nil
	}
	return logging.Close(r.logger)
}
