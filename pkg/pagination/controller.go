package pagination

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Sternrassler/breed-feed/pkg/breed"
	"github.com/Sternrassler/breed-feed/pkg/cache"
	"github.com/Sternrassler/breed-feed/pkg/client"
	"github.com/Sternrassler/breed-feed/pkg/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// Prometheus metrics for fetch sessions.
var (
	sessionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "breeds_sessions_total",
		Help: "Fetch sessions by outcome",
	}, []string{"outcome"})

	staleSettlementsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "breeds_stale_settlements_total",
		Help: "Settlements discarded because their session was no longer current",
	})

	itemsLoaded = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "breeds_items_loaded",
		Help: "Number of items currently accumulated",
	})
)

// persistTimeout bounds a best-effort store write.
const persistTimeout = 5 * time.Second

// PageFetcher fetches the page a cursor points at.
type PageFetcher interface {
	FetchPage(ctx context.Context, cursor breed.Cursor) (breed.Page, error)
}

// Hooks are optional callbacks fired by the controller.
type Hooks struct {
	// OnSettled receives the state after a session's result was applied.
	OnSettled func(Snapshot)

	// OnRetry receives the retry number of the current session.
	OnRetry func(attempt int)
}

// ControllerOptions configures a Controller.
type ControllerOptions struct {
	Policy   *client.RetryPolicy
	Store    cache.Store
	CacheTTL time.Duration
	Hooks    Hooks
	Logger   *zerolog.Logger

	// Now overrides the clock, for tests.
	Now func() time.Time
}

// Controller runs at most one fetch session at a time and is the only
// writer of its State.
type Controller struct {
	mu      sync.Mutex
	state   *State
	current *Session
	nextID  uint64

	fetcher PageFetcher
	policy  *client.RetryPolicy
	store   cache.Store
	hooks   Hooks
	now     func() time.Time
	logger  zerolog.Logger

	// persistMu orders store writes; version stamps each captured write and
	// savedVersion is the newest one written.
	persistMu    sync.Mutex
	version      uint64
	savedVersion uint64

	wg sync.WaitGroup
}

// NewController creates a controller. A nil Policy uses the default retry
// configuration; a nil Store disables persistence.
func NewController(fetcher PageFetcher, opts ControllerOptions) *Controller {
	if fetcher == nil {
		panic("page fetcher cannot be nil")
	}
	if opts.Policy == nil {
		opts.Policy = client.NewRetryPolicy(client.DefaultRetryConfig())
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = DefaultCacheTTL
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	logger := logging.NewLogger("pagination")
	if opts.Logger != nil {
		logger = *opts.Logger
	}

	return &Controller{
		state:   NewState(opts.CacheTTL),
		fetcher: fetcher,
		policy:  opts.Policy,
		store:   opts.Store,
		hooks:   opts.Hooks,
		now:     opts.Now,
		logger:  logger,
	}
}

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Snapshot()
}

// Current returns the in-flight session, or nil.
func (c *Controller) Current() *Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Mount restores persisted fields and starts a fetch unless the restored
// items are still fresh. It reports whether a session was started.
func (c *Controller) Mount(ctx context.Context) bool {
	c.load(ctx)

	c.mu.Lock()
	fresh := c.state.IsFresh(c.now())
	age := c.now().Sub(c.state.LastFetchedAt)
	c.mu.Unlock()

	if fresh {
		c.logger.Info().
			Dur("age", age).
			Msg("Serving persisted items, skipping initial fetch")
		return false
	}
	return c.Start(ctx) != nil
}

// load restores persisted fields. Failures leave the state empty.
func (c *Controller) load(ctx context.Context) {
	if c.store == nil {
		return
	}

	fields, err := c.store.Load(ctx)
	if err != nil {
		if !errors.Is(err, cache.ErrNotFound) {
			c.logger.Warn().Err(err).Msg("Failed to load persisted state")
		}
		return
	}

	c.mu.Lock()
	c.state.Restore(fields)
	itemsLoaded.Set(float64(len(c.state.Items)))
	c.mu.Unlock()

	c.logger.Debug().
		Int("items", len(fields.Items)).
		Stringer("cursor", fields.Cursor).
		Msg("Restored persisted state")
}

// Start supersedes any in-flight session and fetches the page at the current
// cursor. It returns nil without fetching when the cursor is terminal.
func (c *Controller) Start(ctx context.Context) *Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.startLocked(ctx)
}

// FetchMore is the automatic trigger used by scroll-to-end and network
// resume. Unlike Start it does nothing while a session is loading or after a
// failed or aborted session; those need an explicit Start.
func (c *Controller) FetchMore(ctx context.Context) *Session {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state.Status {
	case StatusLoading, StatusError, StatusAborted:
		c.logger.Debug().Str("status", string(c.state.Status)).Msg("Automatic fetch skipped")
		return nil
	}
	return c.startLocked(ctx)
}

func (c *Controller) startLocked(ctx context.Context) *Session {
	if c.state.Cursor.Done() {
		c.logger.Debug().Msg("No further pages, fetch skipped")
		return nil
	}

	if prev := c.current; prev != nil {
		prev.raise()
		sessionsTotal.WithLabelValues("superseded").Inc()
		c.logger.Debug().Uint64("session", prev.ID).Msg("Session superseded")
	}

	c.nextID++
	s := newSession(ctx, c.nextID)
	c.current = s
	c.state.BeginLoading()

	cursor := c.state.Cursor
	sessionLogger := logging.WithSession(c.logger, s.ID, s.TraceID)
	sessionLogger.Info().
		Int(logging.FieldPage, cursor.Page()).
		Msg("Fetch session started")

	c.wg.Add(1)
	go c.run(s, cursor)
	return s
}

// run executes one session and settles it.
func (c *Controller) run(s *Session, cursor breed.Cursor) {
	defer c.wg.Done()
	defer s.finish()

	ctx := client.WithRequestID(s.Context(), s.TraceID)

	var page breed.Page
	err := c.policy.Execute(ctx, func(ctx context.Context) error {
		var err error
		page, err = c.fetcher.FetchPage(ctx, cursor)
		return err
	}, client.RetryHooks{
		OnRetry: func(attempt int, _ *client.FetchError) {
			s.retries.Store(int32(attempt))
			c.recordRetry(s, attempt)
		},
	})

	c.settle(s, page, err)
}

// recordRetry publishes retry progress if s is still current.
func (c *Controller) recordRetry(s *Session, attempt int) {
	c.mu.Lock()
	if c.current != s {
		c.mu.Unlock()
		return
	}
	c.state.SetRetries(attempt)
	c.mu.Unlock()

	if c.hooks.OnRetry != nil {
		c.hooks.OnRetry(attempt)
	}
}

// settle applies a session's outcome if the session is still current.
func (c *Controller) settle(s *Session, page breed.Page, err error) {
	c.mu.Lock()
	if c.current != s {
		c.mu.Unlock()
		staleSettlementsTotal.Inc()
		c.logger.Debug().
			Uint64("session", s.ID).
			Bool("success", err == nil).
			Msg("Discarding stale settlement")
		return
	}
	c.current = nil

	var persisted *cache.PersistedFields
	var version uint64
	if err == nil {
		c.state.CompleteSuccess(page.Items, page.Next, c.now())
		fields := c.state.Persisted()
		persisted = &fields
		c.version++
		version = c.version
		sessionsTotal.WithLabelValues("success").Inc()
		itemsLoaded.Set(float64(len(c.state.Items)))
		c.logger.Info().
			Uint64("session", s.ID).
			Int("items", len(page.Items)).
			Int("total_items", len(c.state.Items)).
			Stringer("next", page.Next).
			Msg("Page appended")
	} else {
		fe := client.Classify(err)
		aborted := fe.Class == client.ErrorClassAborted
		c.state.CompleteFailure(fe.Message, aborted)
		if aborted {
			sessionsTotal.WithLabelValues("aborted").Inc()
		} else {
			sessionsTotal.WithLabelValues("error").Inc()
		}
		c.logger.Warn().
			Uint64("session", s.ID).
			Str("error_class", string(fe.Class)).
			Bool("retries_exhausted", fe.Exhausted).
			Str("message", fe.Message).
			Msg("Fetch session failed")
	}
	snap := c.state.Snapshot()
	c.mu.Unlock()

	if persisted != nil {
		c.persist(*persisted, version)
	}
	if c.hooks.OnSettled != nil {
		c.hooks.OnSettled(snap)
	}
}

// persist saves fields best-effort; failures never touch in-memory state.
// Writes are serialized, and a write captured before the last saved one is
// skipped so the store never moves back to an older state.
func (c *Controller) persist(fields cache.PersistedFields, version uint64) {
	if c.store == nil {
		return
	}

	c.persistMu.Lock()
	defer c.persistMu.Unlock()

	if version <= c.savedVersion {
		c.logger.Debug().Uint64("version", version).Msg("Skipping superseded store write")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	if err := c.store.Save(ctx, fields); err != nil {
		c.logger.Warn().Err(err).Msg("Failed to persist state")
	}
	c.savedVersion = version
}

// Cancel raises the current session's cancellation token. If the session has
// not settled yet the state becomes aborted right away and the session's
// eventual result is discarded.
func (c *Controller) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.current
	if s == nil {
		return
	}
	s.raise()
	c.current = nil
	c.state.CompleteFailure(client.AbortedMessage, true)
	sessionsTotal.WithLabelValues("aborted").Inc()

	c.logger.Info().Uint64("session", s.ID).Msg("Fetch session cancelled")
}

// Reset retires any in-flight session without reporting it, clears the
// state and persists the cleared fields.
func (c *Controller) Reset() {
	c.mu.Lock()
	if s := c.current; s != nil {
		s.raise()
		c.current = nil
	}
	c.state.Reset()
	fields := c.state.Persisted()
	c.version++
	version := c.version
	itemsLoaded.Set(0)
	c.mu.Unlock()

	c.logger.Info().Msg("Pagination reset")
	c.persist(fields, version)
}

// Refetch clears everything and starts again from the first page.
func (c *Controller) Refetch(ctx context.Context) *Session {
	c.Reset()
	return c.Start(ctx)
}

// Wait blocks until every session goroutine has returned.
func (c *Controller) Wait() {
	c.wg.Wait()
}
