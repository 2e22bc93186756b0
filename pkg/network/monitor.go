package network

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var transitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "breeds_network_transitions_total",
	Help: "Connectivity transitions observed by the monitor",
}, []string{"event"})

// Hooks are the monitor callbacks. Both are optional.
type Hooks struct {
	// OnOnline is the resume callback, normally a throttled controller start.
	OnOnline func()

	// OnOffline is for presentation only.
	OnOffline func()
}

// Monitor forwards connectivity transitions from a Source to Hooks.
type Monitor struct {
	source Source
	hooks  Hooks
	logger zerolog.Logger

	mu     sync.Mutex
	unsubs []func()
}

// NewMonitor creates a monitor. It does nothing until Start.
func NewMonitor(source Source, hooks Hooks) *Monitor {
	if source == nil {
		panic("network source cannot be nil")
	}
	return &Monitor{
		source: source,
		hooks:  hooks,
		logger: log.With().Str("component", "network-monitor").Logger(),
	}
}

// Start registers the online and offline listeners. Calling Start on a
// running monitor is a no-op.
func (m *Monitor) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.unsubs != nil {
		return
	}
	m.unsubs = []func(){
		m.source.Subscribe(EventOnline, m.handleOnline),
		m.source.Subscribe(EventOffline, m.handleOffline),
	}
	m.logger.Debug().Bool("online", m.source.Online()).Msg("Network monitor started")
}

// Stop deregisters both listeners. Safe to call more than once. A transition
// already being delivered when Stop runs is dropped, so no hook fires after
// Stop returns.
func (m *Monitor) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, unsub := range m.unsubs {
		unsub()
	}
	if m.unsubs != nil {
		m.logger.Debug().Msg("Network monitor stopped")
	}
	m.unsubs = nil
}

// Online reports the source's current state.
func (m *Monitor) Online() bool {
	return m.source.Online()
}

// running reports whether Start was called without a matching Stop.
func (m *Monitor) running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.unsubs != nil
}

func (m *Monitor) handleOnline() {
	if !m.running() {
		return
	}
	transitionsTotal.WithLabelValues(string(EventOnline)).Inc()
	m.logger.Info().Msg("Network back online")
	if m.hooks.OnOnline != nil {
		m.hooks.OnOnline()
	}
}

func (m *Monitor) handleOffline() {
	if !m.running() {
		return
	}
	transitionsTotal.WithLabelValues(string(EventOffline)).Inc()
	m.logger.Warn().Msg("Network offline")
	if m.hooks.OnOffline != nil {
		m.hooks.OnOffline()
	}
}
