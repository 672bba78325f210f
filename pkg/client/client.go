// Package client provides the caching request pipeline between dashboard
// presentation code and the dashboard API transport.
package client

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/coder/quartz"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	"github.com/Syed-afsha/crowd-dashboard-sdk/pkg/cache"
	"github.com/Syed-afsha/crowd-dashboard-sdk/pkg/credential"
	"github.com/Syed-afsha/crowd-dashboard-sdk/pkg/logging"
	"github.com/Syed-afsha/crowd-dashboard-sdk/pkg/tenant"
)

// Prometheus metrics for request pipeline operations.
var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dashboard_requests_total",
		Help: "Total dashboard API requests by endpoint and outcome",
	}, []string{"endpoint", "outcome"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "dashboard_request_duration_seconds",
		Help:    "Dashboard API request duration in seconds by endpoint",
		Buckets: []float64{0.05, 0.1, 0.5, 1, 2, 5, 10},
	}, []string{"endpoint"})

	transportErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dashboard_transport_errors_total",
		Help: "Total transport errors by class",
	}, []string{"class"})
)

// Request describes one outbound dashboard API request.
type Request struct {
	// Method is the HTTP method (e.g. "GET").
	Method string

	// Endpoint is the dashboard API path (e.g. "/api/venues/occupancy").
	Endpoint string

	// TenantID is the site the request is issued for.
	TenantID string

	// Params are the request parameters.
	Params map[string]string
}

// Response is the transport's answer to a request. The body is opaque to
// the cache layer.
type Response struct {
	StatusCode int
	Body       []byte
}

// Transport sends a request to the dashboard API. Implementations own
// their timeout policy; a timeout surfaces here as a returned error.
type Transport interface {
	Send(ctx context.Context, method, endpoint string, params map[string]string, token string) (*Response, error)
}

// Config holds the request pipeline configuration.
type Config struct {
	// Transport performs the actual network calls (required).
	Transport Transport

	// Credentials supplies the token attached to each request (optional).
	Credentials credential.Provider

	// CacheTTL is how long a cached response stays valid.
	CacheTTL time.Duration

	// MaxEntries is the hard cap on concurrently cached responses.
	MaxEntries int

	// CacheableEndpoints are the endpoint path prefixes that participate
	// in caching. Requests to any other endpoint always pass through.
	CacheableEndpoints []string

	// Clock is the cache time source (tests inject a mock).
	Clock quartz.Clock
}

// DefaultConfig returns a safe default configuration for the given
// transport, caching the read-mostly dashboard endpoint classes.
func DefaultConfig(transport Transport) Config {
	return Config{
		Transport:  transport,
		CacheTTL:   30 * time.Second,
		MaxEntries: 500,
		CacheableEndpoints: []string{
			"/api/venues",
			"/api/metrics",
			"/api/reports",
		},
	}
}

// Client is the caching request pipeline. It decides per request whether
// to serve from the cache store or delegate to the transport, and keeps
// the store coherent across tenant switches.
type Client struct {
	transport Transport
	creds     credential.Provider
	store     *cache.Store
	cacheable []string
	logger    zerolog.Logger
}

// New creates a request pipeline client.
func New(cfg Config) (*Client, error) {
	if cfg.Transport == nil {
		return nil, ErrNoTransport
	}
	if cfg.CacheTTL < 0 {
		return nil, fmt.Errorf("cache TTL must not be negative (got %v)", cfg.CacheTTL)
	}
	if cfg.MaxEntries < 0 {
		return nil, fmt.Errorf("max entries must not be negative (got %d)", cfg.MaxEntries)
	}

	store := cache.NewStore(cache.Config{
		TTL:        cfg.CacheTTL,
		MaxEntries: cfg.MaxEntries,
		Clock:      cfg.Clock,
	})

	return &Client{
		transport: cfg.Transport,
		creds:     cfg.Credentials,
		store:     store,
		cacheable: cfg.CacheableEndpoints,
		logger:    logging.NewLogger("client"),
	}, nil
}

// Execute runs one request through the pipeline:
//
//  1. Endpoints outside the cacheable allow-list delegate directly.
//  2. Otherwise the fingerprint is computed and the store consulted; a
//     hit returns the cached payload with no network call.
//  3. On a miss, the transport is called. Successful responses are stored
//     under the fingerprint; failures propagate unchanged and nothing is
//     cached.
//
// Concurrent Execute calls for the same uncached fingerprint each reach
// the transport; the later completion overwrites the earlier cache entry
// (no single-flight de-duplication).
func (c *Client) Execute(ctx context.Context, req Request) ([]byte, error) {
	startTime := time.Now()
	defer func() {
		requestDuration.WithLabelValues(req.Endpoint).Observe(time.Since(startTime).Seconds())
	}()

	if !c.Cacheable(req.Endpoint) {
		resp, err := c.send(ctx, req)
		if err != nil {
			return nil, err
		}
		requestsTotal.WithLabelValues(req.Endpoint, "passthrough").Inc()
		return resp.Body, nil
	}

	fingerprint := cache.Fingerprint{
		Method:   req.Method,
		Endpoint: req.Endpoint,
		TenantID: req.TenantID,
		Params:   req.Params,
	}.String()

	if payload, err := c.store.Get(fingerprint); err == nil {
		c.logger.Debug().
			Str("endpoint", req.Endpoint).
			Str("tenant", req.TenantID).
			Bool("cache_hit", true).
			Msg("Serving from cache")
		requestsTotal.WithLabelValues(req.Endpoint, "cache_hit").Inc()
		return payload, nil
	}

	resp, err := c.send(ctx, req)
	if err != nil {
		return nil, err
	}

	c.store.Put(fingerprint, resp.Body)
	c.logger.Debug().
		Str("endpoint", req.Endpoint).
		Str("tenant", req.TenantID).
		Bool("cache_hit", false).
		Msg("Cached transport response")
	requestsTotal.WithLabelValues(req.Endpoint, "cache_miss").Inc()

	return resp.Body, nil
}

// send delegates to the transport and folds error-status responses into
// a TransportError. Nothing returned from here is ever cached by callers
// unless err is nil.
func (c *Client) send(ctx context.Context, req Request) (*Response, error) {
	token := ""
	if c.creds != nil {
		token = c.creds.Token()
	}

	resp, err := c.transport.Send(ctx, req.Method, req.Endpoint, req.Params, token)
	if err != nil {
		transportErrorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
		requestsTotal.WithLabelValues(req.Endpoint, "network_error").Inc()
		c.logger.Warn().
			Err(err).
			Str("endpoint", req.Endpoint).
			Msg("Transport request failed")
		return nil, &TransportError{
			Class:    ErrorClassNetwork,
			Endpoint: req.Endpoint,
			Err:      err,
		}
	}

	if resp.StatusCode >= 400 {
		class := classifyStatus(resp.StatusCode)
		transportErrorsTotal.WithLabelValues(string(class)).Inc()
		requestsTotal.WithLabelValues(req.Endpoint, fmt.Sprintf("%d", resp.StatusCode)).Inc()
		c.logger.Warn().
			Str("endpoint", req.Endpoint).
			Int("status", resp.StatusCode).
			Str("error_class", string(class)).
			Msg("Transport request error")
		return nil, &TransportError{
			StatusCode: resp.StatusCode,
			Class:      class,
			Endpoint:   req.Endpoint,
		}
	}

	return resp, nil
}

// Cacheable reports whether the endpoint belongs to a cacheable class.
func (c *Client) Cacheable(endpoint string) bool {
	for _, prefix := range c.cacheable {
		if strings.HasPrefix(endpoint, prefix) {
			return true
		}
	}
	return false
}

// InvalidateForTenant removes every cached response for the given tenant.
// Called on tenant switches; fingerprinting alone already prevents
// cross-tenant hits, invalidation additionally bounds memory growth
// across many switches in one session.
func (c *Client) InvalidateForTenant(tenantID string) {
	c.store.Invalidate(cache.TenantPredicate(tenantID))
	c.logger.Info().
		Str("tenant", tenantID).
		Msg("Invalidated cached responses for tenant")
}

// InvalidateAll clears the entire cache store.
func (c *Client) InvalidateAll() {
	c.store.Invalidate(func(string) bool { return true })
}

// BindTenantSelector invalidates the outgoing tenant's entries whenever
// the active tenant changes.
func (c *Client) BindTenantSelector(selector *tenant.Selector) {
	selector.OnChange(func(previous, _ string) {
		c.InvalidateForTenant(previous)
	})
}

// Store returns the underlying cache store (for testing).
func (c *Client) Store() *cache.Store {
	return c.store
}
