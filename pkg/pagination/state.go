package pagination

import (
	"time"

	"github.com/Sternrassler/breed-feed/pkg/breed"
	"github.com/Sternrassler/breed-feed/pkg/cache"
)

// Status is the lifecycle state of the pagination.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusSuccess Status = "success"
	StatusError   Status = "error"
	StatusAborted Status = "aborted"
)

// DefaultCacheTTL is how long persisted items are served without refetching.
const DefaultCacheTTL = 80 * time.Second

// State is the single source of truth for the list. It is not safe for
// concurrent use; the Controller is its only writer.
type State struct {
	Items           []breed.Breed
	Cursor          breed.Cursor
	Status          Status
	ErrorMessage    string
	LastFetchedAt   time.Time
	CacheTTL        time.Duration
	RetriesInFlight int
}

// NewState returns an empty state positioned at the first page.
func NewState(cacheTTL time.Duration) *State {
	return &State{
		Cursor:   breed.FirstPage(),
		Status:   StatusIdle,
		CacheTTL: cacheTTL,
	}
}

// BeginLoading marks the start of a new session.
func (s *State) BeginLoading() {
	s.Status = StatusLoading
	s.ErrorMessage = ""
	s.RetriesInFlight = 0
}

// CompleteSuccess appends a page and advances the cursor.
func (s *State) CompleteSuccess(items []breed.Breed, next breed.Cursor, at time.Time) {
	s.Items = append(s.Items, items...)
	s.Cursor = next
	s.Status = StatusSuccess
	s.ErrorMessage = ""
	s.LastFetchedAt = at
	s.RetriesInFlight = 0
}

// CompleteFailure records a failed or aborted session. Items and cursor are
// left untouched.
func (s *State) CompleteFailure(message string, aborted bool) {
	if aborted {
		s.Status = StatusAborted
	} else {
		s.Status = StatusError
	}
	s.ErrorMessage = message
}

// SetRetries records the number of retries observed for the current session.
func (s *State) SetRetries(n int) {
	s.RetriesInFlight = n
}

// Reset clears the accumulated items and rewinds to the first page.
func (s *State) Reset() {
	s.Items = nil
	s.Cursor = breed.FirstPage()
	s.Status = StatusIdle
	s.ErrorMessage = ""
	s.LastFetchedAt = time.Time{}
	s.RetriesInFlight = 0
}

// IsFresh reports whether the last successful fetch is within CacheTTL.
func (s *State) IsFresh(now time.Time) bool {
	if s.LastFetchedAt.IsZero() {
		return false
	}
	return now.Sub(s.LastFetchedAt) < s.CacheTTL
}

// Restore replaces the persisted fields; transient fields are reinitialised.
func (s *State) Restore(fields cache.PersistedFields) {
	s.Items = append([]breed.Breed(nil), fields.Items...)
	s.Cursor = fields.Cursor
	s.LastFetchedAt = fields.LastFetchedAt
	s.Status = StatusIdle
	s.ErrorMessage = ""
	s.RetriesInFlight = 0
}

// Persisted returns the allow-listed fields to save.
func (s *State) Persisted() cache.PersistedFields {
	return cache.PersistedFields{
		Items:         append([]breed.Breed(nil), s.Items...),
		Cursor:        s.Cursor,
		LastFetchedAt: s.LastFetchedAt,
	}
}

// Snapshot is an immutable copy of State handed to readers.
type Snapshot struct {
	Items           []breed.Breed
	Cursor          breed.Cursor
	Status          Status
	ErrorMessage    string
	LastFetchedAt   time.Time
	CacheTTL        time.Duration
	RetriesInFlight int
}

// Snapshot copies the state.
func (s *State) Snapshot() Snapshot {
	return Snapshot{
		Items:           append([]breed.Breed(nil), s.Items...),
		Cursor:          s.Cursor,
		Status:          s.Status,
		ErrorMessage:    s.ErrorMessage,
		LastFetchedAt:   s.LastFetchedAt,
		CacheTTL:        s.CacheTTL,
		RetriesInFlight: s.RetriesInFlight,
	}
}

// EndOfList reports whether every page has been loaded.
func (s Snapshot) EndOfList() bool {
	return s.Cursor.Done() && len(s.Items) > 0
}
