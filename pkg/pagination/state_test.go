package pagination

import (
	"testing"
	"time"

	"github.com/Sternrassler/breed-feed/internal/testutil"
	"github.com/Sternrassler/breed-feed/pkg/breed"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestState_Lifecycle(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

	t.Run("new state starts idle at the first page", func(t *testing.T) {
		t.Parallel()

		s := NewState(DefaultCacheTTL)
		assert.Equal(t, StatusIdle, s.Status)
		assert.Equal(t, 1, s.Cursor.Page())
		assert.Empty(t, s.Items)
		assert.True(t, s.LastFetchedAt.IsZero())
	})

	t.Run("begin loading clears error and retries", func(t *testing.T) {
		t.Parallel()

		s := NewState(DefaultCacheTTL)
		s.CompleteFailure("boom", false)
		s.SetRetries(2)

		s.BeginLoading()
		assert.Equal(t, StatusLoading, s.Status)
		assert.Empty(t, s.ErrorMessage)
		assert.Zero(t, s.RetriesInFlight)
	})

	t.Run("success appends in order", func(t *testing.T) {
		t.Parallel()

		s := NewState(DefaultCacheTTL)
		first := testutil.MakeBreeds(1, 2)
		second := testutil.MakeBreeds(2, 2)

		s.CompleteSuccess(first, breed.PageCursor(2), now)
		s.SetRetries(1)
		s.CompleteSuccess(second, breed.End(), now.Add(time.Second))

		require.Len(t, s.Items, 4)
		assert.Equal(t, append(append([]breed.Breed{}, first...), second...), s.Items)
		assert.True(t, s.Cursor.Done())
		assert.Equal(t, StatusSuccess, s.Status)
		assert.Equal(t, now.Add(time.Second), s.LastFetchedAt)
		assert.Zero(t, s.RetriesInFlight)
	})

	t.Run("failure keeps items and cursor", func(t *testing.T) {
		t.Parallel()

		s := NewState(DefaultCacheTTL)
		s.CompleteSuccess(testutil.MakeBreeds(1, 2), breed.PageCursor(2), now)

		s.CompleteFailure("Service Unavailable", false)
		assert.Equal(t, StatusError, s.Status)
		assert.Equal(t, "Service Unavailable", s.ErrorMessage)
		assert.Len(t, s.Items, 2)
		assert.Equal(t, 2, s.Cursor.Page())

		s.CompleteFailure("Aborted request", true)
		assert.Equal(t, StatusAborted, s.Status)
	})

	t.Run("reset is the only way to shrink", func(t *testing.T) {
		t.Parallel()

		s := NewState(DefaultCacheTTL)
		s.CompleteSuccess(testutil.MakeBreeds(1, 2), breed.End(), now)
		s.CompleteFailure("boom", false)

		s.Reset()
		assert.Empty(t, s.Items)
		assert.Equal(t, 1, s.Cursor.Page())
		assert.True(t, s.LastFetchedAt.IsZero())
		assert.Empty(t, s.ErrorMessage)
		assert.Equal(t, DefaultCacheTTL, s.CacheTTL)
	})
}

func TestState_IsFresh(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	ttl := 80 * time.Second

	tests := []struct {
		name      string
		fetchedAt time.Time
		want      bool
	}{
		{name: "never fetched", fetchedAt: time.Time{}, want: false},
		{name: "50s ago", fetchedAt: now.Add(-50 * time.Second), want: true},
		{name: "90s ago", fetchedAt: now.Add(-90 * time.Second), want: false},
		{name: "exactly ttl ago", fetchedAt: now.Add(-ttl), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewState(ttl)
			s.LastFetchedAt = tt.fetchedAt
			assert.Equal(t, tt.want, s.IsFresh(now))
		})
	}
}

func TestState_PersistedRoundTrip(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

	s := NewState(DefaultCacheTTL)
	s.CompleteSuccess(testutil.MakeBreeds(1, 3), breed.PageCursor(2), now)
	s.CompleteFailure("boom", false)
	s.SetRetries(3)

	fields := s.Persisted()
	assert.Len(t, fields.Items, 3)
	assert.Equal(t, 2, fields.Cursor.Page())
	assert.Equal(t, now, fields.LastFetchedAt)

	restored := NewState(DefaultCacheTTL)
	restored.Restore(fields)
	assert.Equal(t, s.Items, restored.Items)
	assert.Equal(t, StatusIdle, restored.Status)
	assert.Empty(t, restored.ErrorMessage)
	assert.Zero(t, restored.RetriesInFlight)

	// The persisted copy does not alias live state.
	fields.Items[0].ID = "changed"
	assert.NotEqual(t, "changed", s.Items[0].ID)
}

func TestSnapshot_IsACopy(t *testing.T) {
	t.Parallel()

	s := NewState(DefaultCacheTTL)
	s.CompleteSuccess(testutil.MakeBreeds(1, 1), breed.End(), time.Now())

	snap := s.Snapshot()
	snap.Items[0].ID = "changed"
	assert.Equal(t, "p1-0", s.Items[0].ID)
	assert.True(t, snap.EndOfList())

	empty := NewState(DefaultCacheTTL).Snapshot()
	assert.False(t, empty.EndOfList())
}
