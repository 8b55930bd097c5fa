package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/specialistvlad/objgraph/internal/container"
	"github.com/specialistvlad/objgraph/internal/ctxlog"
	"github.com/specialistvlad/objgraph/internal/inmemorystore"
	"github.com/specialistvlad/objgraph/internal/loader"
	"github.com/specialistvlad/objgraph/internal/registry"
	"github.com/specialistvlad/objgraph/internal/rulecache"
	"github.com/specialistvlad/objgraph/internal/rules"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW      io.Writer
	ctx       context.Context
	logger    *slog.Logger
	config    *Config
	registry  *registry.Registry
	container *container.Container
	cache     rulecache.Cache
	source    *loader.Source
	fromCache bool

	httpServer *http.Server
}

// New is the constructor for the main application. It registers the type
// modules, loads the rule files named by cfg and builds the container. When
// no modules are given the compiled-in core modules are used.
func New(ctx context.Context, outW io.Writer, cfg *Config, modules ...registry.Module) (*App, error) {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, outW)
	ctx = ctxlog.WithLogger(ctx, logger)
	logger.Debug("Logger configured successfully.")

	reg := registry.New()
	if len(modules) == 0 {
		modules = coreModules
	}
	for _, mod := range modules {
		mod.Register(reg)
	}
	logger.Debug("All Go modules registered.", "count", len(modules), "types", len(reg.Names()))

	cache, err := openCache(ctx, cfg.CachePath)
	if err != nil {
		return nil, err
	}

	a := &App{
		outW:     outW,
		ctx:      ctx,
		logger:   logger,
		config:   cfg,
		registry: reg,
		cache:    cache,
	}
	if err := a.loadRules(ctx); err != nil {
		cache.Close()
		return nil, err
	}
	return a, nil
}

func openCache(ctx context.Context, path string) (rulecache.Cache, error) {
	if path == "" {
		ctxlog.FromContext(ctx).Debug("No cache path configured, using in-memory rule cache.")
		return inmemorystore.New(), nil
	}
	return rulecache.Open(ctx, path)
}

// loadRules reads the configured rule files. A table cached under the same
// source digest and inherit policy is loaded verbatim; otherwise the files are
// merged and the result is cached.
func (a *App) loadRules(ctx context.Context) error {
	src, err := loader.NewLoader().Load(ctx, a.config.RulePaths...)
	if err != nil {
		return fmt.Errorf("failed to load rules: %w", err)
	}
	a.source = src

	opts := []container.Option{
		container.WithInheritPolicy(a.config.Policy()),
		container.WithLogger(a.logger),
	}

	key := cacheKey(src.Digest, a.config.Policy())
	cached, ok, err := a.cache.Get(ctx, key)
	if err != nil {
		a.logger.Warn("Rule cache read failed, reloading from source.", "error", err)
		ok = false
	}
	if ok {
		a.fromCache = true
		a.container = container.New(a.registry, append(opts, container.WithTable(cached))...)
		a.logger.Info("Rule table loaded from cache.", "key", key, "rules", len(cached))
		return nil
	}

	a.container = container.New(a.registry, append(opts, container.WithRules(src.Table))...)
	if err := a.cache.Put(ctx, key, a.container.Rules()); err != nil {
		a.logger.Warn("Failed to cache rule table.", "error", err)
	}
	a.logger.Info("Rule table loaded.", "files", len(src.Files), "rules", len(src.Table))
	return nil
}

// cacheKey scopes a source digest to the policy the table was merged under.
// Alias merging depends on the policy, so the same files give different tables.
func cacheKey(digest string, policy rules.InheritPolicy) string {
	return digest + ":" + policy.String()
}

// Registry returns the application's registry.
func (a *App) Registry() *registry.Registry {
	return a.registry
}

// Container returns the application's container.
func (a *App) Container() *container.Container {
	return a.container
}

// Source returns what was loaded from the rule files.
func (a *App) Source() *loader.Source {
	return a.source
}

// FromCache reports whether the rule table came from the cache.
func (a *App) FromCache() bool {
	return a.fromCache
}

// Rules returns the merged rule table.
func (a *App) Rules() rules.Table {
	return a.container.Rules()
}

// Check validates the merged rule table against the registered types and
// returns one line per problem.
func (a *App) Check() []string {
	err := a.registry.Validate(a.ctx, a.container.Rules())
	if err == nil {
		a.logger.Debug("Rule validation passed.")
		return nil
	}
	var verr *registry.ValidationError
	if errors.As(err, &verr) {
		return verr.Problems
	}
	return []string{err.Error()}
}

// Resolve builds the instance for name.
func (a *App) Resolve(name string, args ...any) (any, error) {
	a.logger.Debug("Resolving name.", "name", name, "args", len(args))
	return a.container.Get(name, args...)
}

// Close releases the rule cache and stops the inspection server if running.
func (a *App) Close() error {
	return errors.Join(a.closeServer(), a.cache.Close())
}
