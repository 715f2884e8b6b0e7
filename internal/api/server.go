package api

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	mw "github.com/tphakala/ebird-recommend/internal/api/middleware"
	"github.com/tphakala/ebird-recommend/internal/conf"
	"github.com/tphakala/ebird-recommend/internal/ebird"
	"github.com/tphakala/ebird-recommend/internal/errors"
	"github.com/tphakala/ebird-recommend/internal/finder"
	"github.com/tphakala/ebird-recommend/internal/logger"
	"github.com/tphakala/ebird-recommend/internal/observability"
	"github.com/tphakala/ebird-recommend/internal/observability/metrics"
)

// Server is the HTTP API server.
// It manages the Echo instance, middleware, routes and the provider client pool.
type Server struct {
	echo     *echo.Echo
	config   *Config
	settings *conf.Settings
	log      logger.Logger
	metrics  *observability.Metrics

	// Provider clients
	store      ebird.Store
	factory    ProviderFactory
	finderOpts []finder.Option
	pool       *clientPool

	startTime time.Time
}

// ServerOption is a functional option for configuring the Server.
type ServerOption func(*Server)

// WithLogger sets the server logger.
func WithLogger(l logger.Logger) ServerOption {
	return func(s *Server) {
		if l != nil {
			s.log = l
		}
	}
}

// WithMetrics sets the observability metrics for the server.
func WithMetrics(m *observability.Metrics) ServerOption {
	return func(s *Server) {
		s.metrics = m
	}
}

// WithStore sets the persistent response cache shared by pooled clients.
func WithStore(store ebird.Store) ServerOption {
	return func(s *Server) {
		s.store = store
	}
}

// WithProviderFactory replaces the eBird client constructor.
func WithProviderFactory(f ProviderFactory) ServerOption {
	return func(s *Server) {
		s.factory = f
	}
}

// WithFinderOptions adds options applied to every pooled finder.
func WithFinderOptions(opts ...finder.Option) ServerOption {
	return func(s *Server) {
		s.finderOpts = append(s.finderOpts, opts...)
	}
}

// WithConfig overrides the server config derived from settings.
func WithConfig(cfg *Config) ServerOption {
	return func(s *Server) {
		if cfg != nil {
			s.config = cfg
		}
	}
}

// New creates a new HTTP server with the given settings and options.
func New(settings *conf.Settings, opts ...ServerOption) (*Server, error) {
	s := &Server{
		config:    ConfigFromSettings(settings),
		settings:  settings,
		log:       GetLogger(),
		startTime: time.Now(),
	}

	for _, opt := range opts {
		opt(s)
	}

	if err := s.config.Validate(); err != nil {
		return nil, errors.New(fmt.Errorf("invalid server configuration: %w", err)).
			Component("api").
			Category(errors.CategoryConfiguration).
			Build()
	}

	if s.factory == nil {
		s.factory = s.newEBirdProvider
	}
	base := []finder.Option{finder.WithLogger(s.log.Module("finder"))}
	if s.metrics != nil {
		base = append(base, finder.WithMetrics(s.metrics.Finder))
	}
	s.finderOpts = append(base, s.finderOpts...)
	s.pool = newClientPool(s.config.ClientTTL, s.factory, s.log.Module("clients"), s.finderOpts...)

	s.echo = echo.New()
	s.echo.HideBanner = true
	s.echo.HidePort = true
	s.echo.Debug = s.config.Debug
	s.echo.JSONSerializer = jsonSerializer{}
	s.echo.Validator = newRequestValidator()
	s.echo.HTTPErrorHandler = s.handleError

	s.echo.Server.ReadTimeout = s.config.ReadTimeout
	s.echo.Server.WriteTimeout = s.config.WriteTimeout
	s.echo.Server.IdleTimeout = s.config.IdleTimeout

	s.setupMiddleware()
	s.setupRoutes()

	s.log.Info("HTTP server initialized",
		logger.String("address", s.config.Address()),
		logger.Bool("metrics", s.config.Metrics),
		logger.Bool("debug", s.config.Debug))

	return s, nil
}

// newEBirdProvider is the default ProviderFactory.
func (s *Server) newEBirdProvider(apiKey string) (finder.Provider, error) {
	cfg := ebird.ConfigFromSettings(s.settings)
	cfg.APIKey = apiKey

	opts := []ebird.Option{ebird.WithLogger(s.log.Module("ebird"))}
	if s.store != nil {
		opts = append(opts, ebird.WithStore(s.store))
	}
	if s.metrics != nil {
		opts = append(opts, ebird.WithMetrics(s.metrics.EBird))
	}

	client, err := ebird.NewClient(cfg, opts...)
	if err != nil {
		return nil, err
	}
	return client, nil
}

// setupMiddleware configures the Echo middleware stack.
// Metrics wraps the request logger, which commits error responses.
func (s *Server) setupMiddleware() {
	var httpMetrics *metrics.HTTPMetrics
	if s.metrics != nil {
		httpMetrics = s.metrics.HTTP
	}

	securityConfig := mw.DefaultSecurityConfig()
	securityConfig.AllowedOrigins = s.config.AllowedOrigins

	s.echo.Use(mw.NewRequestID())
	s.echo.Use(mw.NewMetrics(httpMetrics))
	s.echo.Use(mw.NewRequestLogger(s.log.Module("http")))
	s.echo.Use(echomw.Recover())
	s.echo.Use(mw.NewCORS(securityConfig))
	s.echo.Use(mw.NewBodyLimit(s.config.BodyLimit))
	s.echo.Use(mw.NewSecureHeaders(securityConfig))
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.echo.GET("/healthz", s.healthz)
	s.echo.GET("/hotspots", s.hotspots)
	s.echo.GET("/notable", s.notable)
	s.echo.POST("/recommend", s.recommend)
	s.echo.GET("/hotspot/:loc_id", s.hotspotDetail)

	if s.config.Metrics && s.metrics != nil {
		s.echo.GET("/metrics", echo.WrapHandler(s.metrics.Handler()))
	}
}

// Start begins serving HTTP requests in a background goroutine. Listen
// errors are delivered on the returned channel, which is closed when the
// server stops.
func (s *Server) Start() <-chan error {
	errCh := make(chan error, 1)
	go func() {
		defer close(errCh)
		if err := s.startBlocking(); err != nil {
			s.log.Error("server error", logger.Error(err))
			errCh <- err
		}
	}()
	s.log.Info("HTTP server starting", logger.String("address", s.config.Address()))
	return errCh
}

// startBlocking serves until the server is shut down.
func (s *Server) startBlocking() error {
	err := s.echo.Start(s.config.Address())
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.New(fmt.Errorf("server error: %w", err)).
			Component("api").
			Category(errors.CategoryNetwork).
			Context("address", s.config.Address()).
			Build()
	}
	return nil
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := s.Start()
	select {
	case err := <-errCh:
		s.pool.close()
		return err
	case <-ctx.Done():
		s.log.Info("shutdown requested, draining connections")
		return s.Shutdown()
	}
}

// StartWithGracefulShutdown serves until SIGINT or SIGTERM.
func (s *Server) StartWithGracefulShutdown() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return s.Run(ctx)
}

// Shutdown gracefully stops the server and closes pooled provider clients.
func (s *Server) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()

	err := s.echo.Shutdown(ctx)
	s.pool.close()
	if err != nil {
		s.log.Error("error during server shutdown", logger.Error(err))
		return fmt.Errorf("shutdown error: %w", err)
	}

	s.log.Info("server shutdown complete", logger.Duration("uptime", time.Since(s.startTime)))
	return nil
}

// Echo returns the underlying Echo instance.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}

// ServeHTTP lets the server be used directly as an http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}
