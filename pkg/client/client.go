// Package client provides the HTTP catalog client with rate limiting,
// caching, retries, and error classification. It implements the
// catalog.PageFetcher contract consumed by both page navigation and bulk
// selection.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/catalogkit/catalog-client/pkg/cache"
	"github.com/catalogkit/catalog-client/pkg/catalog"
	"github.com/catalogkit/catalog-client/pkg/ratelimit"
)

// Prometheus metrics for catalog client operations.
var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_requests_total",
		Help: "Total catalog requests by status",
	}, []string{"status"})

	requestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "catalog_request_duration_seconds",
		Help:    "Catalog request duration in seconds",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10},
	})

	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_errors_total",
		Help: "Total catalog fetch errors by class",
	}, []string{"class"})
)

// Client fetches catalog pages over HTTP.
type Client struct {
	httpClient  *http.Client
	rateLimiter *ratelimit.Tracker
	cache       *cache.Manager
	config      Config
	logger      zerolog.Logger
}

// Config holds the client configuration.
type Config struct {
	// BaseURL of the catalog service, e.g. "https://catalog.example.com".
	BaseURL string

	// UserAgent header sent with every request.
	// Format: "AppName/Version (contact@example.com)"
	UserAgent string

	// PageSize is the fixed page size for the lifetime of a session.
	PageSize int

	// Query scopes the collection; selection never crosses a query change.
	Query string

	// Redis client for caching and rate limit state. Optional: when nil
	// the client runs without cache or rate limiting.
	Redis *redis.Client

	// Timeout per HTTP request.
	Timeout time.Duration

	// Retry
	MaxRetries     int
	InitialBackoff time.Duration
}

// DefaultConfig returns a safe default configuration.
func DefaultConfig(baseURL, userAgent string, pageSize int) Config {
	return Config{
		BaseURL:        baseURL,
		UserAgent:      userAgent,
		PageSize:       pageSize,
		Timeout:        30 * time.Second,
		MaxRetries:     3,
		InitialBackoff: 1 * time.Second,
	}
}

// New creates a new catalog client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base url is required")
	}
	if cfg.UserAgent == "" {
		return nil, fmt.Errorf("user-agent is required")
	}
	if cfg.PageSize <= 0 {
		return nil, fmt.Errorf("page_size must be positive (got %d)", cfg.PageSize)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	logger := log.With().Str("component", "catalog-client").Logger()

	c := &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		config: cfg,
		logger: logger,
	}

	if cfg.Redis != nil {
		c.rateLimiter = ratelimit.NewTracker(cfg.Redis, logger)
		c.cache = cache.NewManager(cfg.Redis)
	}

	return c, nil
}

// pageResponse is the wire shape of a catalog page.
type pageResponse struct {
	Items []catalog.Item `json:"items"`
	Total int64          `json:"total"`
}

// FetchPage fetches a single 1-based page of the catalog. It implements
// catalog.PageFetcher. A fetch is all-or-nothing: on error no page is
// returned and nothing is cached.
func (c *Client) FetchPage(ctx context.Context, page int) (*catalog.Page, error) {
	if page < 1 {
		return nil, &catalog.Error{
			Class:   catalog.ErrorClassClient,
			Message: fmt.Sprintf("page must be >= 1 (got %d)", page),
		}
	}

	startTime := time.Now()
	defer func() {
		requestDuration.Observe(time.Since(startTime).Seconds())
	}()

	// Rate limit gate (only when Redis-backed state is configured).
	if c.rateLimiter != nil {
		allowed, err := c.rateLimiter.ShouldAllowRequest(ctx)
		if err != nil {
			c.logger.Error().Err(err).Msg("Rate limit check failed")
			return nil, &catalog.Error{Class: catalog.ErrorClassNetwork, Message: "rate limit check", Err: err}
		}
		if !allowed {
			c.logger.Warn().Int("page", page).Msg("Request blocked by rate limiter")
			requestsTotal.WithLabelValues("rate_limited").Inc()
			return nil, &catalog.Error{Class: catalog.ErrorClassRateLimit, Message: "request blocked: rate limit critical"}
		}
	}

	cacheKey := cache.Key{
		Query:   c.config.Query,
		Page:    page,
		PerPage: c.config.PageSize,
	}

	var cachedEntry *cache.Entry
	if c.cache != nil {
		entry, err := c.cache.Get(ctx, cacheKey)
		if err != nil && err != cache.ErrCacheMiss {
			c.logger.Warn().Err(err).Int("page", page).Msg("Cache get error")
		}
		cachedEntry = entry
	}

	body, resp, err := c.doRequest(ctx, page, cachedEntry)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusNotModified && cachedEntry != nil {
		c.logger.Debug().Int("page", page).Msg("304 Not Modified - using cache")
		requestsTotal.WithLabelValues("304").Inc()
		cache.NotModifiedResponses.Inc()

		// Refresh the cache TTL from the new expires header
		if expiresStr := resp.Header.Get("Expires"); expiresStr != "" {
			if newExpires, err := http.ParseTime(expiresStr); err == nil {
				if err := c.cache.UpdateTTL(ctx, cacheKey, newExpires); err != nil {
					c.logger.Warn().Err(err).Msg("Failed to update cache TTL")
				}
			}
		}

		body = cachedEntry.Data
	}

	result, err := c.decodePage(page, body, resp)
	if err != nil {
		return nil, err
	}

	// Cache the fresh body for conditional revalidation next time.
	if c.cache != nil && resp.StatusCode == http.StatusOK {
		entry := cache.ResponseEntry(resp, body)
		if entry.TTL() > 0 {
			if err := c.cache.Set(ctx, cacheKey, entry); err != nil {
				c.logger.Warn().Err(err).Msg("Failed to cache response")
			} else {
				c.logger.Debug().
					Int("page", page).
					Dur("ttl", entry.TTL()).
					Msg("Cached page response")
			}
		}
	}

	return result, nil
}

// doRequest executes the HTTP request with retry logic and returns the
// response body and metadata. The body is fully read and the response body
// closed before returning.
func (c *Client) doRequest(ctx context.Context, page int, cachedEntry *cache.Entry) ([]byte, *http.Response, error) {
	u, err := url.Parse(c.config.BaseURL + "/items")
	if err != nil {
		return nil, nil, &catalog.Error{Class: catalog.ErrorClassClient, Message: "invalid base url", Err: err}
	}
	q := u.Query()
	q.Set("page", strconv.Itoa(page))
	q.Set("per_page", strconv.Itoa(c.config.PageSize))
	if c.config.Query != "" {
		q.Set("q", c.config.Query)
	}
	u.RawQuery = q.Encode()

	var (
		body     []byte
		resp     *http.Response
		errClass catalog.ErrorClass
	)

	retryErr := retryWithBackoff(ctx, c.retryConfig(), func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
		if err != nil {
			errClass = catalog.ErrorClassClient
			return err
		}
		req.Header.Set("User-Agent", c.config.UserAgent)
		req.Header.Set("Accept", "application/json")
		if cachedEntry != nil && cachedEntry.ETag != "" {
			req.Header.Set("If-None-Match", cachedEntry.ETag)
			cache.ConditionalRequestsSent.Inc()
		}

		c.logger.Debug().Int("page", page).Str("url", u.String()).Msg("Executing catalog request")

		resp, err = c.httpClient.Do(req)
		if err != nil {
			errClass = catalog.ErrorClassNetwork
			errorsTotal.WithLabelValues(string(errClass)).Inc()
			requestsTotal.WithLabelValues("network_error").Inc()
			c.logger.Error().Err(err).Int("page", page).Msg("HTTP request failed")
			return &catalog.Error{Class: catalog.ErrorClassNetwork, Message: "request failed", Err: err}
		}

		if c.rateLimiter != nil {
			if err := c.rateLimiter.UpdateFromHeaders(ctx, resp.Header); err != nil {
				c.logger.Warn().Err(err).Msg("Failed to update rate limit from headers")
			}
		}

		if resp.StatusCode == http.StatusNotModified {
			resp.Body.Close()
			return nil
		}

		b, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			errClass = catalog.ErrorClassNetwork
			errorsTotal.WithLabelValues(string(errClass)).Inc()
			return &catalog.Error{Class: catalog.ErrorClassNetwork, Message: "read response body", Err: err}
		}
		body = b

		if resp.StatusCode >= 400 {
			errClass = classifyStatus(resp.StatusCode)
			errorsTotal.WithLabelValues(string(errClass)).Inc()
			requestsTotal.WithLabelValues(strconv.Itoa(resp.StatusCode)).Inc()

			c.logger.Warn().
				Int("page", page).
				Int("status", resp.StatusCode).
				Str("error_class", string(errClass)).
				Msg("Catalog request error")

			return &catalog.Error{
				Class:      errClass,
				StatusCode: resp.StatusCode,
				Message:    resp.Status,
			}
		}

		requestsTotal.WithLabelValues(strconv.Itoa(resp.StatusCode)).Inc()
		return nil
	}, func() catalog.ErrorClass {
		return errClass
	})

	if retryErr != nil {
		return nil, nil, retryErr
	}
	return body, resp, nil
}

// decodePage parses the wire body into a Page. A body not in the expected
// shape is a parse error, never a partial result.
func (c *Client) decodePage(page int, body []byte, resp *http.Response) (*catalog.Page, error) {
	var wire pageResponse
	if err := json.Unmarshal(body, &wire); err != nil {
		errorsTotal.WithLabelValues(string(catalog.ErrorClassParse)).Inc()
		return nil, &catalog.Error{
			Class:      catalog.ErrorClassParse,
			StatusCode: resp.StatusCode,
			Message:    "malformed page body",
			Err:        err,
		}
	}

	total := wire.Total
	if total == 0 {
		// Some deployments report the collection size in a header only.
		if v := resp.Header.Get("X-Total-Count"); v != "" {
			if n, err := strconv.ParseInt(v, 10, 64); err == nil {
				total = n
			}
		}
	}

	return &catalog.Page{
		Number:       page,
		Items:        wire.Items,
		TotalRecords: total,
	}, nil
}

// classifyStatus categorizes an HTTP status for handling and observability.
func classifyStatus(status int) catalog.ErrorClass {
	switch {
	case status == http.StatusTooManyRequests:
		return catalog.ErrorClassRateLimit
	case status >= 400 && status < 500:
		return catalog.ErrorClassClient
	case status >= 500:
		return catalog.ErrorClassServer
	default:
		return ""
	}
}

// retryConfig derives the retry knobs from the client configuration.
func (c *Client) retryConfig() RetryConfig {
	cfg := DefaultRetryConfig()
	if c.config.MaxRetries > 0 {
		cfg.MaxAttempts = c.config.MaxRetries
	}
	if c.config.InitialBackoff > 0 {
		cfg.InitialBackoff = c.config.InitialBackoff
	}
	return cfg
}

// PageSize returns the fixed page size shared by every fetch.
func (c *Client) PageSize() int {
	return c.config.PageSize
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}
