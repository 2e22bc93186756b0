package network

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// healthServer answers 200 while healthy is true and 503 otherwise.
func healthServer(t *testing.T, healthy *atomic.Bool) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if healthy.Load() {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestProber_EmitsOnlyOnTransitions(t *testing.T) {
	t.Parallel()

	var healthy atomic.Bool
	healthy.Store(true)
	srv := healthServer(t, &healthy)

	p, err := NewProber(ProberConfig{URL: srv.URL, Interval: time.Second, Timeout: time.Second})
	require.NoError(t, err)

	var online, offline int
	p.Subscribe(EventOnline, func() { online++ })
	p.Subscribe(EventOffline, func() { offline++ })

	ctx := context.Background()
	assert.True(t, p.Probe(ctx))
	assert.Equal(t, 0, online, "prober starts online, no transition")

	healthy.Store(false)
	assert.False(t, p.Probe(ctx))
	assert.False(t, p.Probe(ctx))
	assert.Equal(t, 1, offline)

	healthy.Store(true)
	assert.True(t, p.Probe(ctx))
	assert.True(t, p.Probe(ctx))
	assert.Equal(t, 1, online)
	assert.True(t, p.Online())
}

func TestProber_UnreachableIsOffline(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	p, err := NewProber(ProberConfig{URL: url, Interval: time.Second, Timeout: 200 * time.Millisecond})
	require.NoError(t, err)

	assert.False(t, p.Probe(context.Background()))
	assert.False(t, p.Online())
}

func TestProber_ClientErrorCountsAsOnline(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	t.Cleanup(srv.Close)

	p, err := NewProber(ProberConfig{URL: srv.URL, Interval: time.Second})
	require.NoError(t, err)

	assert.True(t, p.Probe(context.Background()))
}

func TestProber_RunStopsWithContext(t *testing.T) {
	t.Parallel()

	var healthy atomic.Bool
	srv := healthServer(t, &healthy)

	p, err := NewProber(ProberConfig{URL: srv.URL, Interval: 10 * time.Millisecond})
	require.NoError(t, err)

	offline := make(chan struct{}, 1)
	p.Subscribe(EventOffline, func() {
		select {
		case offline <- struct{}{}:
		default:
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	select {
	case <-offline:
	case <-time.After(2 * time.Second):
		t.Fatal("prober never reported offline")
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestNewProber_Validation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		config ProberConfig
	}{
		{"missing url", ProberConfig{Interval: time.Second}},
		{"zero interval", ProberConfig{URL: "http://localhost"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := NewProber(tt.config)
			assert.Error(t, err)
		})
	}
}
