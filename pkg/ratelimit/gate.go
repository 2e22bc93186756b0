package ratelimit

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// Prometheus metrics for throttled triggers.
var throttleCallsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "breeds_throttle_calls_total",
	Help: "Throttled trigger invocations by result",
}, []string{"result"}) // "executed", "dropped", "deferred"

// GateConfig configures a Gate.
type GateConfig struct {
	// Window is the minimum spacing between two executions.
	Window time.Duration

	// Trailing runs one dropped call once the window elapses.
	Trailing bool

	// Now overrides the clock, for tests.
	Now func() time.Time
}

// DefaultGateConfig returns the leading-edge-only configuration.
func DefaultGateConfig() GateConfig {
	return GateConfig{
		Window:   DefaultWindow,
		Trailing: false,
	}
}

// Gate is a leading-edge throttle around a zero-argument trigger.
type Gate struct {
	mu      sync.Mutex
	fn      func()
	limiter *rate.Limiter
	config  GateConfig
	state   ThrottleState
	timer   *time.Timer
	logger  zerolog.Logger
}

// NewGate wraps fn.
func NewGate(fn func(), config GateConfig) *Gate {
	if fn == nil {
		panic("throttled function cannot be nil")
	}
	if config.Window < 0 {
		config.Window = 0
	}
	if config.Now == nil {
		config.Now = time.Now
	}

	return &Gate{
		fn:      fn,
		limiter: newLimiter(config.Window),
		config:  config,
		logger:  log.With().Str("component", "throttle").Logger(),
	}
}

// newLimiter allows one event per window with no bursting.
func newLimiter(window time.Duration) *rate.Limiter {
	if window == 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(window), 1)
}

// Invoke runs the trigger if the window is open and reports whether it ran.
// Otherwise the call is dropped, or with Trailing deferred to the end of the
// window; repeated deferred calls collapse into one.
func (g *Gate) Invoke() bool {
	g.mu.Lock()
	now := g.config.Now()

	if g.limiter.AllowN(now, 1) {
		g.stopTimerLocked()
		g.state.LastInvokedAt = now
		g.mu.Unlock()

		throttleCallsTotal.WithLabelValues("executed").Inc()
		g.fn()
		return true
	}

	if !g.config.Trailing {
		g.mu.Unlock()
		throttleCallsTotal.WithLabelValues("dropped").Inc()
		g.logger.Debug().Msg("Trigger dropped by throttle")
		return false
	}

	if g.timer == nil {
		wait := g.state.Remaining(now, g.config.Window)
		g.state.Pending = true
		g.timer = time.AfterFunc(wait, g.fireTrailing)
		g.logger.Debug().Dur("wait", wait).Msg("Trigger deferred to trailing edge")
	}
	g.mu.Unlock()

	throttleCallsTotal.WithLabelValues("deferred").Inc()
	return false
}

// fireTrailing runs the deferred call and restarts the window from now.
func (g *Gate) fireTrailing() {
	g.mu.Lock()
	if !g.state.Pending {
		g.mu.Unlock()
		return
	}
	now := g.config.Now()
	g.limiter = newLimiter(g.config.Window)
	g.limiter.AllowN(now, 1)
	g.state.LastInvokedAt = now
	g.state.Pending = false
	g.timer = nil
	g.mu.Unlock()

	throttleCallsTotal.WithLabelValues("executed").Inc()
	g.fn()
}

func (g *Gate) stopTimerLocked() {
	if g.timer != nil {
		g.timer.Stop()
		g.timer = nil
	}
	g.state.Pending = false
}

// State returns a copy of the throttle state.
func (g *Gate) State() ThrottleState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Stop cancels a pending trailing call.
func (g *Gate) Stop() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.stopTimerLocked()
}
