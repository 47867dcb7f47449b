// Package client provides the HTTP client for the Narou novel search API.
//
// One call to FetchPage is one GET request. There are no retries: a page
// that fails is reported to the caller as an *APIError and left at that.
package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/Sternrassler/narou-export/pkg/cache"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// DefaultEndpoint is the Narou novel API.
const DefaultEndpoint = "https://api.syosetu.com/novelapi/api/"

// outputFormat is fixed: the decoder only understands YAML.
const outputFormat = "yaml"

// Prometheus metrics for API requests.
var (
	narouRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "narou_requests_total",
		Help: "Total Narou API page requests by status",
	}, []string{"status"})

	narouRequestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "narou_request_duration_seconds",
		Help:    "Narou API page request duration in seconds",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
	})

	narouErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "narou_errors_total",
		Help: "Total Narou API errors by class",
	}, []string{"class"})
)

// Query holds the search parameters sent with every page request.
type Query struct {
	Order     string // order: sort key, "hyoka" sorts by overall points
	Limit     int    // lim: records per page (max 500)
	MinLength int    // minlen: minimum character count
	MaxLength int    // maxlen: maximum character count
	Gzip      int    // gzip: compression level 1-5, 0 disables compression
	Fields    string // of: output fields, "t-n-l-gp-k" = title, ncode, length, global_point, keyword
}

// DefaultQuery returns the query used by the export.
func DefaultQuery() Query {
	return Query{
		Order:     "hyoka",
		Limit:     500,
		MinLength: 30000,
		MaxLength: 89500000,
		Gzip:      5,
		Fields:    "t-n-l-gp-k",
	}
}

// Values returns the URL parameters for the page starting at offset.
func (q Query) Values(offset int) url.Values {
	v := url.Values{}
	v.Set("order", q.Order)
	v.Set("lim", strconv.Itoa(q.Limit))
	v.Set("st", strconv.Itoa(offset))
	v.Set("minlen", strconv.Itoa(q.MinLength))
	v.Set("maxlen", strconv.Itoa(q.MaxLength))
	v.Set("out", outputFormat)
	if q.Gzip > 0 {
		v.Set("gzip", strconv.Itoa(q.Gzip))
	}
	v.Set("of", q.Fields)
	return v
}

// Compressed reports whether responses to q are gzip-compressed.
func (q Query) Compressed() bool {
	return q.Gzip > 0
}

// Config holds the client configuration.
type Config struct {
	// Endpoint is the API URL
	Endpoint string

	// User-Agent header
	UserAgent string

	// Timeout bounds a single page request
	Timeout time.Duration

	// Query is sent with every page
	Query Query

	// Cache is optional; nil disables page caching
	Cache *cache.Manager

	// CacheTTL is how long a cached page stays valid
	CacheTTL time.Duration
}

// DefaultConfig returns a configuration with the export's defaults.
func DefaultConfig(userAgent string) Config {
	return Config{
		Endpoint:  DefaultEndpoint,
		UserAgent: userAgent,
		Timeout:   30 * time.Second,
		Query:     DefaultQuery(),
		CacheTTL:  time.Hour,
	}
}

// Client fetches pages from the Narou API.
type Client struct {
	httpClient *http.Client
	endpoint   *url.URL
	cache      *cache.Manager
	config     Config
	logger     zerolog.Logger
}

// New creates a new API client.
func New(cfg Config) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("endpoint is required")
	}

	endpoint, err := url.Parse(cfg.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("parse endpoint: %w", err)
	}
	if endpoint.Scheme != "http" && endpoint.Scheme != "https" {
		return nil, fmt.Errorf("endpoint must be http(s), got %q", cfg.Endpoint)
	}

	if cfg.UserAgent == "" {
		return nil, fmt.Errorf("user-agent is required")
	}

	if cfg.Timeout <= 0 {
		return nil, fmt.Errorf("timeout must be > 0 (got %s)", cfg.Timeout)
	}

	if cfg.Cache != nil && cfg.CacheTTL <= 0 {
		return nil, fmt.Errorf("cache_ttl must be > 0 when caching (got %s)", cfg.CacheTTL)
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		endpoint: endpoint,
		cache:    cfg.Cache,
		config:   cfg,
		logger:   log.With().Str("component", "narou-client").Logger(),
	}, nil
}

// FetchPage requests the page starting at offset and returns the raw body.
// Anything but 200 OK is returned as an *APIError. A cached page is returned
// without a request; fetched pages are cached only through Remember.
func (c *Client) FetchPage(ctx context.Context, offset int) ([]byte, error) {
	params := c.config.Query.Values(offset)

	if c.cache != nil {
		entry, err := c.cache.Get(ctx, c.cacheKey(params))
		switch {
		case err == nil:
			c.logger.Debug().Int("offset", offset).Msg("Page served from cache")
			return entry.Data, nil
		case !errors.Is(err, cache.ErrCacheMiss):
			c.logger.Warn().Err(err).Int("offset", offset).Msg("Cache get error")
		}
	}

	return c.get(ctx, offset, params)
}

// Remember caches body as the page at offset. Callers invoke it once the
// body decoded successfully. An existing entry keeps its expiry.
func (c *Client) Remember(ctx context.Context, offset int, body []byte) {
	if c.cache == nil {
		return
	}

	key := c.cacheKey(c.config.Query.Values(offset))
	if err := c.cache.Add(ctx, key, cache.NewEntry(body, c.config.CacheTTL)); err != nil {
		c.logger.Warn().Err(err).Int("offset", offset).Msg("Failed to cache page")
	}
}

func (c *Client) cacheKey(params url.Values) cache.CacheKey {
	return cache.CacheKey{
		Endpoint:    c.endpoint.Host + c.endpoint.Path,
		QueryParams: params,
	}
}

func (c *Client) get(ctx context.Context, offset int, params url.Values) ([]byte, error) {
	u := *c.endpoint
	u.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	// Accept-Encoding is left to the transport so Content-Encoding: gzip is
	// removed for us. The gzip query parameter compresses the body itself.
	req.Header.Set("User-Agent", c.config.UserAgent)

	c.logger.Debug().
		Int("offset", offset).
		Str("url", u.String()).
		Msg("Requesting page")

	startTime := time.Now()
	defer func() {
		narouRequestDuration.Observe(time.Since(startTime).Seconds())
	}()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		narouErrorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
		narouRequestsTotal.WithLabelValues("network_error").Inc()
		return nil, &APIError{
			ErrorClass: ErrorClassNetwork,
			Message:    "request failed",
			Err:        err,
		}
	}
	defer resp.Body.Close()

	narouRequestsTotal.WithLabelValues(strconv.Itoa(resp.StatusCode)).Inc()

	if resp.StatusCode != http.StatusOK {
		class := classifyStatus(resp.StatusCode)
		narouErrorsTotal.WithLabelValues(string(class)).Inc()
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			ErrorClass: class,
			Message:    resp.Status,
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		narouErrorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			ErrorClass: ErrorClassNetwork,
			Message:    "read response body",
			Err:        err,
		}
	}

	return body, nil
}
