// Package httpfetch provides an HTTP implementation of the pagination
// fetch capability: it builds page or cursor query parameters from the
// controller's request params, performs the request and decodes the JSON
// response.
//
// Retrying is a transport concern and stays out of the controller, whose
// recovery contract is caller-initiated. The fetcher retries transient
// failures (network, 5xx, 429) with exponential backoff when Retry is
// configured; 4xx responses are never retried.
package httpfetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/scrollkit/scrollkit/pkg/paginate"
)

// Prometheus metrics for HTTP fetch operations.
var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scrollkit_http_requests_total",
		Help: "Total backend HTTP requests by status",
	}, []string{"status"})

	requestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "scrollkit_http_request_duration_seconds",
		Help:    "Backend HTTP request duration in seconds",
		Buckets: []float64{0.05, 0.1, 0.5, 1, 2, 5, 10},
	})

	retriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scrollkit_http_retries_total",
		Help: "Total retry attempts by error class",
	}, []string{"error_class"})

	retryBackoffSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "scrollkit_http_retry_backoff_seconds",
		Help:    "Backoff duration for retries by error class",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10},
	}, []string{"error_class"})

	retryExhaustedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scrollkit_http_retry_exhausted_total",
		Help: "Total number of times retry attempts were exhausted by error class",
	}, []string{"error_class"})
)

// Config holds the fetcher configuration.
type Config struct {
	// URL is the collection endpoint (REQUIRED).
	URL string

	// HTTPClient overrides the default client (30s timeout).
	HTTPClient *http.Client

	// UserAgent is sent with every request when set.
	UserAgent string

	// Query parameter names; defaults: "page", "cursor", "limit".
	PageParam   string
	CursorParam string
	LimitParam  string

	// Retry enables transient-failure retrying. Nil disables it.
	Retry *RetryConfig

	// Logger overrides the default component logger.
	Logger *zerolog.Logger
}

// Fetcher performs paginated HTTP GET requests and decodes JSON responses
// of type R.
type Fetcher[R any] struct {
	cfg        Config
	httpClient *http.Client
	logger     zerolog.Logger
}

// New creates an HTTP fetcher for responses of type R.
func New[R any](cfg Config) (*Fetcher[R], error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("url is required")
	}
	if _, err := url.Parse(cfg.URL); err != nil {
		return nil, fmt.Errorf("parse url: %w", err)
	}
	if cfg.PageParam == "" {
		cfg.PageParam = "page"
	}
	if cfg.CursorParam == "" {
		cfg.CursorParam = "cursor"
	}
	if cfg.LimitParam == "" {
		cfg.LimitParam = "limit"
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	var logger zerolog.Logger
	if cfg.Logger != nil {
		logger = *cfg.Logger
	} else {
		logger = log.With().Str("component", "httpfetch").Logger()
	}

	return &Fetcher[R]{cfg: cfg, httpClient: httpClient, logger: logger}, nil
}

// Fetch implements the pagination fetch capability. Pass it to
// paginate.Config.Fetch.
func (f *Fetcher[R]) Fetch(ctx context.Context, params paginate.Params) (R, error) {
	var result R

	reqURL, err := f.buildURL(params)
	if err != nil {
		return result, err
	}

	if f.cfg.Retry == nil {
		return f.doRequest(ctx, reqURL)
	}

	var lastClass ErrorClass
	err = retryWithBackoff(ctx, *f.cfg.Retry, func() error {
		var reqErr error
		result, reqErr = f.doRequest(ctx, reqURL)
		if reqErr != nil {
			lastClass = classify(reqErr)
		}
		return reqErr
	}, func(error) ErrorClass {
		return lastClass
	})
	return result, err
}

// buildURL merges the pagination params into the endpoint's query string.
func (f *Fetcher[R]) buildURL(params paginate.Params) (string, error) {
	u, err := url.Parse(f.cfg.URL)
	if err != nil {
		return "", fmt.Errorf("parse url: %w", err)
	}

	q := u.Query()
	q.Set(f.cfg.LimitParam, strconv.Itoa(params.Limit))
	if params.Page > 0 {
		q.Set(f.cfg.PageParam, strconv.Itoa(params.Page))
	} else if params.Cursor != nil {
		q.Set(f.cfg.CursorParam, *params.Cursor)
	}
	u.RawQuery = q.Encode()

	return u.String(), nil
}

// doRequest performs a single GET and decodes the response.
func (f *Fetcher[R]) doRequest(ctx context.Context, reqURL string) (R, error) {
	var result R

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return result, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if f.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", f.cfg.UserAgent)
	}

	start := time.Now()
	resp, err := f.httpClient.Do(req)
	requestDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		requestsTotal.WithLabelValues("network_error").Inc()
		f.logger.Warn().Err(err).Str("url", reqURL).Msg("Request failed")
		return result, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	requestsTotal.WithLabelValues(strconv.Itoa(resp.StatusCode)).Inc()

	if resp.StatusCode >= 400 {
		f.logger.Warn().
			Str("url", reqURL).
			Int("status", resp.StatusCode).
			Msg("Backend error response")
		return result, &StatusError{
			StatusCode: resp.StatusCode,
			Class:      classifyStatus(resp.StatusCode),
			Message:    resp.Status,
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return result, fmt.Errorf("read body: %w", err)
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return result, fmt.Errorf("decode response: %w", err)
	}
	return result, nil
}

// classify maps a fetch error to its class; plain transport errors are
// network failures.
func classify(err error) ErrorClass {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Class
	}
	return ErrorClassNetwork
}
