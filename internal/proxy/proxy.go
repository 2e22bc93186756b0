// Package proxy is a slow, optionally failing passthrough in front of the
// public breeds API, used to exercise the feed client's resilience.
package proxy

import (
	"context"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	"github.com/Sternrassler/breed-feed/pkg/logging"
	"github.com/Sternrassler/breed-feed/pkg/metrics"
)

var responsesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "breeds_proxy_responses_total",
	Help: "Proxy responses by outcome",
}, []string{"outcome"}) // "passthrough", "simulated", "upstream_error"

// Simulation modes besides the sentinel names.
const (
	ModeNone   = "none"
	ModeRandom = "random"
)

// Sentinel names.
const (
	ErrTimeout            = "err_timeout"
	ErrServiceUnavailable = "err_service_unavailable"
	ErrInternalServer     = "err_internal_server"
)

// UpstreamFailureMessage is returned when the upstream cannot be reached or fails.
const UpstreamFailureMessage = "Failed to fetch breeds. Please try again later"

// Sentinel is a simulated failure response.
type Sentinel struct {
	StatusCode int
	Message    string
}

// Sentinels are the failures the proxy can simulate.
var Sentinels = map[string]Sentinel{
	ErrTimeout: {
		StatusCode: http.StatusRequestTimeout,
		Message:    "(Timeout) Server took a long time to respond. Please try again later",
	},
	ErrServiceUnavailable: {
		StatusCode: http.StatusServiceUnavailable,
		Message:    "Service Unavailable",
	},
	ErrInternalServer: {
		StatusCode: http.StatusInternalServerError,
		Message:    "Internal Server Error",
	},
}

// Config configures the proxy.
type Config struct {
	// Upstream is the breeds collection URL; pages are requested with page[number].
	Upstream string

	// Delay is applied before every response.
	Delay time.Duration

	// Hang is the extra wait before a simulated timeout responds.
	Hang time.Duration

	// Simulate is ModeNone, ModeRandom or a sentinel name.
	Simulate string

	// HTTPClient overrides the upstream client.
	HTTPClient *http.Client

	// Pick returns a value in [0, n); defaults to math/rand.
	Pick func(n int) int
}

// Server serves the proxied breeds endpoint.
type Server struct {
	config    Config
	upstream  *url.URL
	client    *http.Client
	sentinels []string
	logger    zerolog.Logger
}

// New validates cfg and creates a Server.
func New(cfg Config) (*Server, error) {
	upstream, err := url.Parse(cfg.Upstream)
	if err != nil || upstream.Scheme == "" || upstream.Host == "" {
		return nil, fmt.Errorf("invalid upstream url %q", cfg.Upstream)
	}

	if cfg.Simulate == "" {
		cfg.Simulate = ModeNone
	}
	if _, ok := Sentinels[cfg.Simulate]; !ok && cfg.Simulate != ModeNone && cfg.Simulate != ModeRandom {
		return nil, fmt.Errorf("unknown simulation mode %q", cfg.Simulate)
	}
	if cfg.Pick == nil {
		cfg.Pick = rand.IntN
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	names := make([]string, 0, len(Sentinels))
	for name := range Sentinels {
		names = append(names, name)
	}
	sort.Strings(names)

	return &Server{
		config:    cfg,
		upstream:  upstream,
		client:    httpClient,
		sentinels: names,
		logger:    logging.NewLogger("proxy"),
	}, nil
}

// Routes returns the HTTP handler.
func (s *Server) Routes() http.Handler {
	engine := gin.New()
	engine.Use(gin.Recovery(), s.requestLogger())
	engine.GET("/health", s.handleHealth)
	engine.GET("/metrics", gin.WrapH(metrics.Handler()))
	engine.GET("/api/v2/breeds", s.handleBreeds)
	return engine
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleBreeds(c *gin.Context) {
	ctx := c.Request.Context()
	page := parsePage(c.Query("page"))

	if !wait(ctx, s.config.Delay) {
		return
	}

	if name := s.pickOutcome(); name != "" {
		sentinel := Sentinels[name]
		if name == ErrTimeout && !wait(ctx, s.config.Hang) {
			return
		}
		responsesTotal.WithLabelValues("simulated").Inc()
		s.logger.Info().Str("simulated", name).Int(logging.FieldPage, page).Msg("Simulated failure")
		c.JSON(sentinel.StatusCode, gin.H{"message": sentinel.Message})
		return
	}

	body, err := s.fetchUpstream(ctx, page, c.GetHeader("X-Request-ID"))
	if err != nil {
		responsesTotal.WithLabelValues("upstream_error").Inc()
		s.logger.Warn().Err(err).Int(logging.FieldPage, page).Msg("Upstream request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"message": UpstreamFailureMessage})
		return
	}

	responsesTotal.WithLabelValues("passthrough").Inc()
	c.Data(http.StatusOK, "application/json; charset=utf-8", body)
}

// pickOutcome returns the sentinel to simulate, or "" for a real response.
func (s *Server) pickOutcome() string {
	switch s.config.Simulate {
	case ModeNone:
		return ""
	case ModeRandom:
		i := s.config.Pick(len(s.sentinels) + 1)
		if i < len(s.sentinels) {
			return s.sentinels[i]
		}
		return ""
	default:
		return s.config.Simulate
	}
}

func (s *Server) fetchUpstream(ctx context.Context, page int, requestID string) ([]byte, error) {
	u := *s.upstream
	q := u.Query()
	q.Set("page[number]", strconv.Itoa(page))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create upstream request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if requestID != "" {
		req.Header.Set("X-Request-ID", requestID)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upstream request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("upstream status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read upstream body: %w", err)
	}
	return body, nil
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug().
			Str("path", c.Request.URL.Path).
			Str("query", c.Request.URL.RawQuery).
			Int(logging.FieldStatus, c.Writer.Status()).
			Dur("duration", time.Since(start)).
			Str("request_id", c.GetHeader("X-Request-ID")).
			Msg("Request served")
	}
}

// parsePage reads the page query parameter, defaulting to 1.
func parsePage(raw string) int {
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// wait sleeps for d and reports false if the client went away first.
func wait(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
