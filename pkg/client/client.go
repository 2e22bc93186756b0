// Package client provides the breeds HTTP page fetcher together with the
// error classification and retry policy used around it.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Sternrassler/breed-feed/pkg/breed"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Prometheus metrics for page requests.
var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "breeds_requests_total",
		Help: "Total page requests by status",
	}, []string{"status"})

	requestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "breeds_request_duration_seconds",
		Help:    "Page request duration in seconds",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 20},
	})

	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "breeds_errors_total",
		Help: "Total page request errors by class",
	}, []string{"class"})
)

// maxErrorBody caps how much of an error response is read.
const maxErrorBody = 64 << 10

// Client fetches pages of the breeds resource.
type Client struct {
	httpClient *http.Client
	baseURL    *url.URL
	config     Config
	logger     zerolog.Logger
}

// Config holds the client configuration.
type Config struct {
	// BaseURL is the resource URL, e.g. "http://localhost:3000/api/v2/breeds".
	BaseURL string

	// UserAgent sent with every request.
	UserAgent string

	// HTTPClient overrides the default client. Its Timeout should be zero or
	// larger than the retry policy's attempt timeout.
	HTTPClient *http.Client
}

// DefaultConfig returns a default configuration for the given resource URL.
func DefaultConfig(baseURL string) Config {
	return Config{
		BaseURL:   baseURL,
		UserAgent: "breed-feed/0.1.0",
	}
}

// New creates a new page client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base url is required")
	}
	if cfg.UserAgent == "" {
		return nil, fmt.Errorf("user-agent is required")
	}

	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("base url must be http or https (got %q)", base.Scheme)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	return &Client{
		httpClient: httpClient,
		baseURL:    base,
		config:     cfg,
		logger:     log.With().Str("component", "breeds-client").Logger(),
	}, nil
}

// listResponse is the wire shape of a successful page.
type listResponse struct {
	Data []breed.Breed `json:"data"`
	Meta struct {
		Pagination struct {
			Next breed.Cursor `json:"next"`
		} `json:"pagination"`
	} `json:"meta"`
}

// errorResponse is the wire shape of a failed request.
type errorResponse struct {
	Message string `json:"message"`
}

// FetchPage fetches the page the cursor points at. Failures are returned as
// *FetchError. The call does not retry.
func (c *Client) FetchPage(ctx context.Context, cursor breed.Cursor) (breed.Page, error) {
	if cursor.Done() {
		return breed.Page{}, fmt.Errorf("fetch page: cursor is terminal")
	}

	startTime := time.Now()
	defer func() {
		requestDuration.Observe(time.Since(startTime).Seconds())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.pageURL(cursor), nil)
	if err != nil {
		return breed.Page{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.config.UserAgent)
	req.Header.Set("Accept", "application/json")
	if id := RequestIDFromContext(ctx); id != "" {
		req.Header.Set("X-Request-ID", id)
	}

	c.logger.Debug().
		Int("page", cursor.Page()).
		Str("request_id", req.Header.Get("X-Request-ID")).
		Msg("Requesting page")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		fe := Classify(err)
		errorsTotal.WithLabelValues(string(fe.Class)).Inc()
		requestsTotal.WithLabelValues("transport_error").Inc()
		c.logger.Warn().Err(err).Int("page", cursor.Page()).Str("error_class", string(fe.Class)).Msg("Page request failed")
		return breed.Page{}, fe
	}
	defer resp.Body.Close()

	requestsTotal.WithLabelValues(strconv.Itoa(resp.StatusCode)).Inc()

	if resp.StatusCode >= 400 {
		fe := c.errorFromResponse(resp)
		errorsTotal.WithLabelValues(string(fe.Class)).Inc()
		c.logger.Warn().
			Int("page", cursor.Page()).
			Int("status", resp.StatusCode).
			Str("error_class", string(fe.Class)).
			Str("message", fe.Message).
			Msg("Page request error")
		return breed.Page{}, fe
	}

	var body listResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		// A body cut short by the attempt deadline is still a timeout.
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return breed.Page{}, Classify(err)
		}
		errorsTotal.WithLabelValues(string(ErrorClassUnknown)).Inc()
		return breed.Page{}, &FetchError{
			Class:      ErrorClassUnknown,
			StatusCode: resp.StatusCode,
			Message:    "invalid page response",
			Err:        err,
		}
	}

	return breed.Page{Items: body.Data, Next: body.Meta.Pagination.Next}, nil
}

// pageURL builds the request URL for cursor, keeping any query already on the base.
func (c *Client) pageURL(cursor breed.Cursor) string {
	u := *c.baseURL
	q := u.Query()
	q.Set("page", strconv.Itoa(cursor.Page()))
	u.RawQuery = q.Encode()
	return u.String()
}

// errorFromResponse builds a classified error from an HTTP error response.
func (c *Client) errorFromResponse(resp *http.Response) *FetchError {
	fe := &FetchError{
		Class:      ClassifyStatus(resp.StatusCode),
		StatusCode: resp.StatusCode,
		Message:    http.StatusText(resp.StatusCode),
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		return fe
	}

	var body errorResponse
	if err := json.Unmarshal(data, &body); err == nil && strings.TrimSpace(body.Message) != "" {
		fe.Message = body.Message
	}
	return fe
}

type requestIDKey struct{}

// WithRequestID attaches a request ID that FetchPage sends as X-Request-ID.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFromContext returns the request ID attached to ctx, if any.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
