package pagination

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// Session is one logical fetch: the first attempt and all of its retries.
type Session struct {
	// ID increases monotonically per controller and decides which session is current.
	ID uint64

	// TraceID is sent as X-Request-ID on every attempt of the session.
	TraceID string

	ctx    context.Context
	cancel context.CancelFunc

	retries   atomic.Int32
	cancelled atomic.Bool

	done     chan struct{}
	doneOnce sync.Once
}

func newSession(parent context.Context, id uint64) *Session {
	ctx, cancel := context.WithCancel(parent)
	return &Session{
		ID:      id,
		TraceID: uuid.NewString(),
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
	}
}

// Context is the session's cancellation token.
func (s *Session) Context() context.Context {
	return s.ctx
}

// Retries returns how many retries the session has made so far. The first
// attempt is not counted.
func (s *Session) Retries() int {
	return int(s.retries.Load())
}

// Cancelled reports whether the session was cancelled or superseded.
func (s *Session) Cancelled() bool {
	return s.cancelled.Load()
}

// Done is closed once the session has settled, whether or not its result
// was applied.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// raise marks the session cancelled and stops its in-flight work.
func (s *Session) raise() {
	s.cancelled.Store(true)
	s.cancel()
}

func (s *Session) finish() {
	s.doneOnce.Do(func() {
		s.cancel()
		close(s.done)
	})
}
