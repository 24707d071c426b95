package db

import (
	"fmt"
	"sync"

	"github.com/gobwas/glob"
	"github.com/rs/zerolog/log"

	"github.com/karstdb/karst/cfg"
	"github.com/karstdb/karst/query"
	"github.com/karstdb/karst/telemetry"
)

// Registry hands out exactly one connection handle per logical connection
// type for the process lifetime. Handles are created lazily on first lookup;
// racing first lookups are serialized so the singleton invariant holds.
// There is no eviction.
type Registry struct {
	mu      sync.RWMutex
	handles map[string]*Handle

	config   *cfg.Configuration
	cache    *query.Cache
	queryLog QueryLogger
	logGlobs []glob.Glob
}

// NewRegistry builds a registry from the loaded configuration and the
// external template compiler.
func NewRegistry(config *cfg.Configuration, compiler query.Compiler) (*Registry, error) {
	cache, err := query.NewCache(compiler, config.QueryCacheLen)
	if err != nil {
		return nil, err
	}

	if config.Prometheus.Enabled {
		telemetry.InitializeTelemetry()
	}

	globs := make([]glob.Glob, 0, len(config.Diagnostics.LogQueries))
	for _, pattern := range config.Diagnostics.LogQueries {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid log_queries pattern %q: %w", pattern, err)
		}
		globs = append(globs, g)
	}

	return &Registry{
		handles:  make(map[string]*Handle),
		config:   config,
		cache:    cache,
		queryLog: zerologQueryLog{},
		logGlobs: globs,
	}, nil
}

// SetQueryLogger replaces the diagnostic sink. Call before handing the
// registry to callers.
func (r *Registry) SetQueryLogger(sink QueryLogger) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.queryLog = sink
}

// Get returns the handle for a logical connection type, creating it on first
// use. Unknown types fail with ConfigurationError; driver failures with
// ConnectionError.
func (r *Registry) Get(connType string) (*Handle, error) {
	r.mu.RLock()
	handle, ok := r.handles[connType]
	r.mu.RUnlock()
	if ok {
		return handle, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if handle, ok := r.handles[connType]; ok {
		return handle, nil
	}

	conf, ok := r.config.Connection(connType)
	if !ok {
		return nil, ConfigurationError{Type: connType}
	}

	handle, err := openHandle(conf, r)
	if err != nil {
		return nil, err
	}

	r.handles[connType] = handle
	telemetry.OpenHandles.Inc()
	log.Info().
		Str("type", connType).
		Str("engine", conf.Engine).
		Str("database", conf.Database).
		Msg("Connection handle created")
	return handle, nil
}

// Close closes every handle the registry created. Intended for tests and
// controlled shutdown.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var firstErr error
	for connType, handle := range r.handles {
		if err := handle.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("failed to close %s: %w", connType, err)
		}
		telemetry.OpenHandles.Dec()
		delete(r.handles, connType)
	}
	return firstErr
}

// logEnabled reports whether diagnostic query logging applies to the given
// query identifier.
func (r *Registry) logEnabled(ident string) bool {
	if r.config.Logging.Verbose {
		return true
	}
	for _, g := range r.logGlobs {
		if g.Match(ident) {
			return true
		}
	}
	return false
}
