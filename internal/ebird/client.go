package ebird

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/patrickmn/go-cache"
	"github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/tphakala/ebird-recommend/internal/conf"
	"github.com/tphakala/ebird-recommend/internal/errors"
	"github.com/tphakala/ebird-recommend/internal/logger"
	"github.com/tphakala/ebird-recommend/internal/observability/metrics"
)

// Endpoint labels used in logs and metrics.
const (
	endpointHotspots         = "hotspots"
	endpointRecentObs        = "recent_obs"
	endpointNotableObs       = "notable_obs"
	endpointNearbyRecentObs  = "nearby_recent_obs"
	endpointNearbyNotableObs = "nearby_notable_obs"
	endpointChecklists       = "checklists"
	endpointTaxonomy         = "taxonomy"
)

// maxPreview bounds response bodies copied into logs and errors.
const maxPreview = 500

// Client provides methods for interacting with the eBird API
type Client struct {
	config      Config
	httpClient  *http.Client
	cache       *cache.Cache
	store       Store
	limiter     *rate.Limiter
	breaker     *gobreaker.CircuitBreaker[[]byte]
	metrics     *metrics.EBirdMetrics
	log         logger.Logger
	firstCallMu sync.Once
}

// Option configures optional client collaborators.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithStore adds a persistent cache tier behind the memory cache.
func WithStore(s Store) Option {
	return func(c *Client) { c.store = s }
}

// WithMetrics enables Prometheus instrumentation.
func WithMetrics(m *metrics.EBirdMetrics) Option {
	return func(c *Client) { c.metrics = m }
}

// WithLogger overrides the module logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// NewClient creates a new eBird API client
func NewClient(config Config, opts ...Option) (*Client, error) {
	if strings.TrimSpace(config.APIKey) == "" {
		return nil, errors.Newf("eBird API key is required").
			Category(errors.CategoryConfiguration).
			Component("ebird").
			Build()
	}

	config = config.withDefaults()

	client := &Client{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
		cache:      cache.New(config.CacheTTL, config.CacheTTL*2),
		limiter:    rate.NewLimiter(rate.Limit(config.RequestsPerSecond), 1),
		log:        logger.Global().Module("ebird"),
	}
	for _, opt := range opts {
		opt(client)
	}
	client.breaker = newBreaker(config, client.metrics, client.log)

	client.log.Debug("eBird client initialized",
		logger.String("base_url", config.BaseURL),
		logger.Duration("cache_ttl", config.CacheTTL),
		logger.Bool("cache_disabled", config.DisableCache),
		logger.Bool("persistent_cache", client.store != nil),
		logger.Float64("requests_per_second", config.RequestsPerSecond),
		logger.Int("max_retries", config.MaxRetries))

	return client, nil
}

// ConfigFromSettings maps application settings onto a client Config.
func ConfigFromSettings(settings *conf.Settings) Config {
	return Config{
		APIKey:             settings.EBird.APIKey,
		BaseURL:            settings.EBird.BaseURL,
		Timeout:            settings.EBird.Timeout,
		CacheTTL:           settings.Cache.TTL,
		DisableCache:       !settings.Cache.Enabled,
		RequestsPerSecond:  settings.EBird.RequestsPerSecond,
		MaxRetries:         settings.EBird.MaxRetries,
		Locale:             settings.EBird.Locale,
		BreakerMaxFailures: settings.EBird.Breaker.MaxFailures,
		BreakerOpenTimeout: settings.EBird.Breaker.OpenTimeout,
	}
}

// Close cleans up client resources
func (c *Client) Close() {
	c.cache.Flush()
	c.httpClient.CloseIdleConnections()
	c.log.Debug("eBird client closed")
}

// NearbyHotspots returns hotspots within distKm of the given point.
func (c *Client) NearbyHotspots(ctx context.Context, lat, lng float64, distKm int) ([]Hotspot, error) {
	query := geoQuery(lat, lng, distKm)
	query.Set("fmt", "json")

	hotspots, err := fetch[Hotspot](ctx, c, endpointHotspots, "/ref/hotspot/geo", query)
	if err != nil {
		return nil, err
	}

	kept := make([]Hotspot, 0, len(hotspots))
	for i := range hotspots {
		if hotspots[i].LocID != "" {
			kept = append(kept, hotspots[i])
		}
	}
	c.reportDropped(endpointHotspots, len(hotspots)-len(kept))
	return kept, nil
}

// RecentObservationsAtLocation returns recent observations at one hotspot.
func (c *Client) RecentObservationsAtLocation(ctx context.Context, locID string, backDays int) ([]Observation, error) {
	if err := requireLocID(locID); err != nil {
		return nil, err
	}
	query := url.Values{}
	query.Set("back", strconv.Itoa(backDays))
	query.Set("detail", "simple")
	return c.observations(ctx, endpointRecentObs, "/data/obs/"+url.PathEscape(locID)+"/recent", query)
}

// NotableObservationsAtLocation returns recent notable observations at one hotspot.
func (c *Client) NotableObservationsAtLocation(ctx context.Context, locID string, backDays int) ([]Observation, error) {
	if err := requireLocID(locID); err != nil {
		return nil, err
	}
	query := url.Values{}
	query.Set("back", strconv.Itoa(backDays))
	query.Set("detail", "simple")
	return c.observations(ctx, endpointNotableObs, "/data/obs/"+url.PathEscape(locID)+"/recent/notable", query)
}

// NearbyRecentObservations returns all recent observations around a point.
func (c *Client) NearbyRecentObservations(ctx context.Context, lat, lng float64, distKm, backDays int) ([]Observation, error) {
	query := geoQuery(lat, lng, distKm)
	query.Set("back", strconv.Itoa(backDays))
	query.Set("detail", "simple")
	return c.observations(ctx, endpointNearbyRecentObs, "/data/obs/geo/recent", query)
}

// NearbyNotableObservations returns recent notable observations around a point.
func (c *Client) NearbyNotableObservations(ctx context.Context, lat, lng float64, distKm, backDays int) ([]Observation, error) {
	query := geoQuery(lat, lng, distKm)
	query.Set("back", strconv.Itoa(backDays))
	query.Set("detail", "simple")
	return c.observations(ctx, endpointNearbyNotableObs, "/data/obs/geo/recent/notable", query)
}

// ChecklistsAtLocation returns up to maxResults recent checklists at a hotspot.
func (c *Client) ChecklistsAtLocation(ctx context.Context, locID string, maxResults int) ([]Checklist, error) {
	if err := requireLocID(locID); err != nil {
		return nil, err
	}
	query := url.Values{}
	query.Set("maxResults", strconv.Itoa(maxResults))
	return fetch[Checklist](ctx, c, endpointChecklists, "/product/lists/"+url.PathEscape(locID), query)
}

// observations fetches an observation list and drops records that cannot be
// keyed by species and location.
func (c *Client) observations(ctx context.Context, endpoint, path string, query url.Values) ([]Observation, error) {
	obs, err := fetch[Observation](ctx, c, endpoint, path, query)
	if err != nil {
		return nil, err
	}

	kept := make([]Observation, 0, len(obs))
	for i := range obs {
		if obs[i].SpeciesCode == "" || obs[i].LocID == "" {
			continue
		}
		kept = append(kept, obs[i])
	}
	c.reportDropped(endpoint, len(obs)-len(kept))
	return kept, nil
}

func (c *Client) reportDropped(endpoint string, n int) {
	if n == 0 {
		return
	}
	c.metrics.RecordDropped(endpoint, n)
	c.log.Debug("dropped incomplete eBird records",
		logger.String("endpoint", endpoint),
		logger.Int("count", n))
}

// fetch returns the decoded response for path, consulting the cache tiers
// first. Network access goes through the circuit breaker and retry loop.
func fetch[T any](ctx context.Context, c *Client, endpoint, path string, query url.Values) ([]T, error) {
	key := cacheKey(path, query)
	if items, ok := cacheLookup[T](c, key); ok {
		return items, nil
	}

	start := time.Now()
	body, err := c.breaker.Execute(func() ([]byte, error) {
		return c.doRequestWithRetry(ctx, endpoint, path, query)
	})
	if err != nil {
		if isBreakerRejection(err) {
			c.metrics.RecordRequest(endpoint, metrics.OutcomeRejected, 0)
			return nil, errors.Newf("eBird API temporarily unavailable: %w", err).
				Category(errors.CategoryNetwork).
				Context("endpoint", endpoint).
				Context("breaker_state", c.breaker.State().String()).
				Component("ebird").
				Build()
		}
		c.metrics.RecordRequest(endpoint, metrics.OutcomeError, time.Since(start).Seconds())
		return nil, err
	}
	c.metrics.RecordRequest(endpoint, metrics.OutcomeSuccess, time.Since(start).Seconds())

	var items []T
	if err := json.Unmarshal(body, &items); err != nil {
		c.log.Error("failed to parse eBird API response",
			logger.String("endpoint", endpoint),
			logger.Int("response_size", len(body)),
			logger.String("response_preview", preview(body)),
			logger.Error(err))
		return nil, errors.Newf("failed to parse eBird response: %w", err).
			Category(errors.CategoryValidation).
			Context("endpoint", endpoint).
			Context("response_size", len(body)).
			Component("ebird").
			Build()
	}
	if items == nil {
		items = []T{}
	}

	cacheStore(c, key, items)
	return items, nil
}

// doRequest performs one rate limited, authenticated GET and returns the body.
func (c *Client) doRequest(ctx context.Context, endpoint, path string, query url.Values) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, errors.Newf("rate limiter wait aborted: %w", err).
			Category(errors.CategoryCancellation).
			Context("endpoint", endpoint).
			Component("ebird").
			Build()
	}

	reqURL := c.config.BaseURL + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return nil, errors.Newf("failed to create HTTP request: %w", err).
			Category(errors.CategoryNetwork).
			Context("endpoint", endpoint).
			Component("ebird").
			Build()
	}

	req.Header.Set("X-eBirdApiToken", c.config.APIKey)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.config.UserAgent)

	c.log.Trace("eBird API request",
		logger.String("endpoint", endpoint),
		logger.String("path", path))

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		category := errors.CategoryNetwork
		if ctx.Err() != nil {
			category = errors.CategoryCancellation
		}
		return nil, errors.Newf("HTTP request failed: %w", err).
			Category(category).
			NetworkContext(path, c.config.Timeout).
			Timing("ebird-request", time.Since(start)).
			Context("endpoint", endpoint).
			Component("ebird").
			Build()
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Newf("failed to read response body: %w", err).
			Category(errors.CategoryNetwork).
			Context("endpoint", endpoint).
			Context("status_code", resp.StatusCode).
			Component("ebird").
			Build()
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, c.statusError(endpoint, resp.StatusCode, bodyBytes)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType != "" && !strings.Contains(strings.ToLower(contentType), "json") {
		c.log.Error("eBird API returned non-JSON response",
			logger.String("endpoint", endpoint),
			logger.Int("status_code", resp.StatusCode),
			logger.String("content_type", contentType),
			logger.String("response_preview", preview(bodyBytes)))
		return nil, errors.Newf("eBird API returned non-JSON response (Content-Type: %s)", contentType).
			Category(errors.CategoryNetwork).
			Context("status_code", resp.StatusCode).
			Context("content_type", contentType).
			Context("endpoint", endpoint).
			Component("ebird").
			Build()
	}

	c.firstCallMu.Do(func() {
		c.log.Info("eBird API authentication successful",
			logger.String("endpoint", endpoint))
	})

	return bodyBytes, nil
}

// statusError converts an error response into an enhanced error.
func (c *Client) statusError(endpoint string, status int, body []byte) error {
	detail := preview(body)
	var apiErr Error
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Detail != "" {
		detail = apiErr.Detail
	}

	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		c.log.Error("eBird API authentication failed",
			logger.String("endpoint", endpoint),
			logger.Int("status_code", status),
			logger.String("detail", detail),
			logger.String("message", "Check your eBird API key"))
	} else {
		c.log.Warn("eBird API error response",
			logger.String("endpoint", endpoint),
			logger.Int("status_code", status),
			logger.String("detail", detail))
	}

	return errors.Newf("eBird API error (status %d): %s", status, detail).
		Category(getErrorCategory(status)).
		Context("status_code", status).
		Context("endpoint", endpoint).
		Component("ebird").
		Build()
}

// doRequestWithRetry wraps doRequest with retry logic for transient failures
func (c *Client) doRequestWithRetry(ctx context.Context, endpoint, path string, query url.Values) ([]byte, error) {
	var lastErr error

	for attempt := range c.config.MaxRetries {
		body, err := c.doRequest(ctx, endpoint, path, query)
		if err == nil {
			return body, nil
		}
		lastErr = err

		if !isRetryable(err) || ctx.Err() != nil {
			return nil, err
		}
		if attempt == c.config.MaxRetries-1 {
			break
		}

		delay := time.Duration(attempt+1) * c.config.RetryBackoff
		c.metrics.RecordRetry(endpoint)
		c.log.Warn("eBird API request failed, retrying",
			logger.String("endpoint", endpoint),
			logger.Int("attempt", attempt+1),
			logger.Int("max_retries", c.config.MaxRetries),
			logger.Duration("delay", delay),
			logger.Error(err))

		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return nil, errors.Newf("eBird request cancelled during retry: %w", ctx.Err()).
				Category(errors.CategoryCancellation).
				Context("endpoint", endpoint).
				Component("ebird").
				Build()
		}
	}

	return nil, lastErr
}

// isRetryable reports whether another attempt could succeed.
func isRetryable(err error) bool {
	var enhancedErr *errors.EnhancedError
	if !errors.As(err, &enhancedErr) {
		return true
	}

	switch enhancedErr.Category {
	case errors.CategoryConfiguration, errors.CategoryNotFound,
		errors.CategoryValidation, errors.CategoryCancellation:
		return false
	}

	// Client errors other than 429 will fail the same way again
	if statusCode, ok := enhancedErr.GetContext()["status_code"].(int); ok {
		if statusCode >= 400 && statusCode < 500 && statusCode != http.StatusTooManyRequests {
			return false
		}
	}
	return true
}

// getErrorCategory determines the appropriate error category based on HTTP status code
func getErrorCategory(statusCode int) errors.ErrorCategory {
	switch statusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return errors.CategoryConfiguration
	case http.StatusTooManyRequests:
		return errors.CategoryLimit
	case http.StatusNotFound:
		return errors.CategoryNotFound
	default:
		return errors.CategoryNetwork
	}
}

func geoQuery(lat, lng float64, distKm int) url.Values {
	query := url.Values{}
	query.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	query.Set("lng", strconv.FormatFloat(lng, 'f', -1, 64))
	query.Set("dist", strconv.Itoa(distKm))
	return query
}

func requireLocID(locID string) error {
	if strings.TrimSpace(locID) == "" {
		return errors.Newf("location id is required").
			Category(errors.CategoryValidation).
			Component("ebird").
			Build()
	}
	return nil
}

func preview(body []byte) string {
	if len(body) > maxPreview {
		return string(body[:maxPreview]) + "..."
	}
	return string(body)
}
