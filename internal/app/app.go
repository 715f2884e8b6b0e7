// Package app wires settings into the long-lived components shared by the
// command line tools: the eBird client, the persistent response cache, the
// metrics registry and the life list.
package app

import (
	"context"
	"strings"
	"sync"

	"github.com/tphakala/ebird-recommend/internal/conf"
	"github.com/tphakala/ebird-recommend/internal/ebird"
	"github.com/tphakala/ebird-recommend/internal/errors"
	"github.com/tphakala/ebird-recommend/internal/finder"
	"github.com/tphakala/ebird-recommend/internal/lifelist"
	"github.com/tphakala/ebird-recommend/internal/logger"
	"github.com/tphakala/ebird-recommend/internal/obscache"
	"github.com/tphakala/ebird-recommend/internal/observability"
)

// SkipSetupAnnotation marks commands that run without logging and
// telemetry setup. It applies to all subcommands of the annotated command.
const SkipSetupAnnotation = "skip-setup"

// Context holds the application state for one command invocation.
// Components are created on first use so commands that never talk to
// eBird do not need an API key.
type Context struct {
	Settings *conf.Settings

	mu          sync.Mutex
	log         logger.Logger
	metrics     *observability.Metrics
	store       *obscache.Cache
	client      *ebird.Client
	ebirdOpts   []ebird.Option
	inMemory    bool
	metricsInit func() (*observability.Metrics, error)
}

// Option configures a Context.
type Option func(*Context)

// WithLogger sets the logger used by created components.
func WithLogger(l logger.Logger) Option {
	return func(c *Context) {
		if l != nil {
			c.log = l
		}
	}
}

// WithEBirdOptions adds options applied when the eBird client is built.
func WithEBirdOptions(opts ...ebird.Option) Option {
	return func(c *Context) {
		c.ebirdOpts = append(c.ebirdOpts, opts...)
	}
}

// WithInMemoryCache keeps the persistent cache in memory.
func WithInMemoryCache() Option {
	return func(c *Context) {
		c.inMemory = true
	}
}

// WithMetricsFactory replaces the metrics constructor. The default
// registers on the Prometheus default registry.
func WithMetricsFactory(f func() (*observability.Metrics, error)) Option {
	return func(c *Context) {
		c.metricsInit = f
	}
}

// NewContext creates an application context for settings.
func NewContext(settings *conf.Settings, opts ...Option) *Context {
	c := &Context{
		Settings:    settings,
		metricsInit: observability.NewMetrics,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Logger returns the context logger. Without WithLogger it follows the
// global logger, which is configured after flags are parsed.
func (c *Context) Logger() logger.Logger {
	if c.log == nil {
		return logger.Global().Module("app")
	}
	return c.log
}

// Metrics returns the shared metrics, creating them on first call.
func (c *Context) Metrics() (*observability.Metrics, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.metrics != nil {
		return c.metrics, nil
	}
	m, err := c.metricsInit()
	if err != nil {
		return nil, err
	}
	c.metrics = m
	return m, nil
}

// Store returns the persistent response cache, or nil when caching is
// disabled in settings.
func (c *Context) Store() (*obscache.Cache, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.storeLocked()
}

func (c *Context) storeLocked() (*obscache.Cache, error) {
	if !c.Settings.Cache.Enabled {
		return nil, nil
	}
	if c.store != nil {
		return c.store, nil
	}

	store, err := obscache.Open(obscache.Config{Dir: c.Settings.Cache.Dir, InMemory: c.inMemory})
	if err != nil {
		return nil, err
	}
	c.store = store
	return store, nil
}

// OpenStore opens the persistent cache regardless of the enabled flag.
// It is used by cache maintenance commands.
func (c *Context) OpenStore() (*obscache.Cache, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.store != nil {
		return c.store, nil
	}
	store, err := obscache.Open(obscache.Config{Dir: c.Settings.Cache.Dir, InMemory: c.inMemory})
	if err != nil {
		return nil, err
	}
	c.store = store
	return store, nil
}

// Client returns the eBird client, building it on first call.
func (c *Context) Client() (*ebird.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.client != nil {
		return c.client, nil
	}
	if strings.TrimSpace(c.Settings.EBird.APIKey) == "" {
		return nil, errors.Newf("eBird API key required: pass --api-key or set EBIRD_API_KEY").
			Component("app").
			Category(errors.CategoryConfiguration).
			Build()
	}

	opts := []ebird.Option{ebird.WithLogger(c.Logger().Module("ebird"))}
	store, err := c.storeLocked()
	if err != nil {
		// The in-process cache still protects the quota
		c.Logger().Warn("persistent cache unavailable, continuing without it", logger.Error(err))
	} else if store != nil {
		opts = append(opts, ebird.WithStore(store))
	}
	if c.metrics != nil {
		opts = append(opts, ebird.WithMetrics(c.metrics.EBird))
	}
	opts = append(opts, c.ebirdOpts...)

	client, err := ebird.NewClient(ebird.ConfigFromSettings(c.Settings), opts...)
	if err != nil {
		return nil, err
	}
	c.client = client
	return client, nil
}

// Finder returns a finder backed by the eBird client.
func (c *Context) Finder() (*finder.Finder, error) {
	client, err := c.Client()
	if err != nil {
		return nil, err
	}

	opts := []finder.Option{finder.WithLogger(c.Logger().Module("finder"))}
	c.mu.Lock()
	if c.metrics != nil {
		opts = append(opts, finder.WithMetrics(c.metrics.Finder))
	}
	c.mu.Unlock()

	return finder.New(client, opts...), nil
}

// LifeList loads the life list named in settings. When resolve is set,
// missing species codes are filled from the eBird taxonomy; a taxonomy
// failure is logged and the list is returned without codes.
func (c *Context) LifeList(ctx context.Context, resolve bool) (*lifelist.List, error) {
	list, err := lifelist.Load(c.Settings.LifeList.Path)
	if err != nil {
		return nil, err
	}
	fields := []logger.Field{logger.Int("species", list.Len())}
	if species := list.Species(); len(species) > 0 && !species[0].LastSeen.IsZero() {
		fields = append(fields, logger.Time("latest", species[0].LastSeen))
	}
	c.Logger().Debug("life list loaded", fields...)

	if !resolve {
		return list, nil
	}

	client, err := c.Client()
	if err != nil {
		return nil, err
	}
	index, err := client.SpeciesCodeIndex(ctx)
	if err != nil {
		c.Logger().Warn("species code lookup failed", logger.Error(err))
		return list, nil
	}
	if missing := list.ResolveCodes(index); missing > 0 {
		c.Logger().Debug("life list species without eBird code", logger.Int("count", missing))
	}
	return list, nil
}

// Close releases the client and the persistent cache.
func (c *Context) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.client != nil {
		c.client.Close()
		c.client = nil
	}
	if c.store != nil {
		err := c.store.Close()
		c.store = nil
		return err
	}
	return nil
}
