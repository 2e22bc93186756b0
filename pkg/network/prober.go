package network

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// ProberConfig configures a Prober.
type ProberConfig struct {
	// URL is requested on every probe. Any response below 500 counts as online.
	URL string

	// Interval between probes.
	Interval time.Duration

	// Timeout bounds a single probe.
	Timeout time.Duration

	// HTTPClient overrides the default client.
	HTTPClient *http.Client
}

// DefaultProberConfig returns the default probe settings for url.
func DefaultProberConfig(url string) ProberConfig {
	return ProberConfig{
		URL:      url,
		Interval: 5 * time.Second,
		Timeout:  2 * time.Second,
	}
}

// Prober is a Source that derives connectivity from periodic HTTP requests.
// It starts out online.
type Prober struct {
	config     ProberConfig
	httpClient *http.Client
	logger     zerolog.Logger

	mu        sync.Mutex
	online    bool
	listeners listeners
}

// NewProber creates a Prober.
func NewProber(config ProberConfig) (*Prober, error) {
	if config.URL == "" {
		return nil, fmt.Errorf("probe url is required")
	}
	if config.Interval <= 0 {
		return nil, fmt.Errorf("probe interval must be positive")
	}
	if config.Timeout <= 0 {
		config.Timeout = config.Interval
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	return &Prober{
		config:     config,
		httpClient: httpClient,
		online:     true,
		logger:     log.With().Str("component", "network-prober").Logger(),
	}, nil
}

// Online implements Source.
func (p *Prober) Online() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.online
}

// Subscribe implements Source.
func (p *Prober) Subscribe(event Event, fn func()) func() {
	return p.listeners.subscribe(event, fn)
}

// Run probes immediately and then every Interval until ctx is done.
func (p *Prober) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.config.Interval)
	defer ticker.Stop()

	p.Probe(ctx)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			p.Probe(ctx)
		}
	}
}

// Probe performs a single check and emits an event if the state changed.
func (p *Prober) Probe(ctx context.Context) bool {
	online := p.check(ctx)
	if ctx.Err() != nil {
		return p.Online()
	}

	p.mu.Lock()
	changed := p.online != online
	p.online = online
	p.mu.Unlock()

	if changed {
		p.logger.Debug().Bool("online", online).Str("url", p.config.URL).Msg("Connectivity changed")
		if online {
			p.listeners.emit(EventOnline)
		} else {
			p.listeners.emit(EventOffline)
		}
	}
	return online
}

func (p *Prober) check(ctx context.Context) bool {
	probeCtx, cancel := context.WithTimeout(ctx, p.config.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(probeCtx, http.MethodGet, p.config.URL, nil)
	if err != nil {
		return false
	}
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode < http.StatusInternalServerError
}
