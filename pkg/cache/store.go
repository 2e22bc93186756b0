package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Sternrassler/breed-feed/pkg/breed"
)

// RootKey is the fixed key the persisted fields live under.
const RootKey = "persist:root"

var (
	// ErrNotFound indicates nothing has been persisted yet.
	ErrNotFound = errors.New("persisted state not found")

	// ErrInvalidEntry indicates the stored document is corrupted.
	ErrInvalidEntry = errors.New("invalid persisted entry")
)

// PersistedFields is the allow-listed subset of pagination state that
// survives restarts.
type PersistedFields struct {
	Items         []breed.Breed `json:"items"`
	Cursor        breed.Cursor  `json:"cursor"`
	LastFetchedAt time.Time     `json:"last_fetched_at"`
}

// Store loads and saves PersistedFields.
type Store interface {
	Load(ctx context.Context) (PersistedFields, error)
	Save(ctx context.Context, fields PersistedFields) error
	Close() error
}

// encode marshals fields for storage.
func encode(fields PersistedFields) ([]byte, error) {
	if fields.Items == nil {
		fields.Items = []breed.Breed{}
	}
	data, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("marshal persisted fields: %w", err)
	}
	return data, nil
}

// decode unmarshals a stored document.
func decode(data []byte) (PersistedFields, error) {
	var fields PersistedFields
	if err := json.Unmarshal(data, &fields); err != nil {
		return PersistedFields{}, fmt.Errorf("%w: %v", ErrInvalidEntry, err)
	}
	return fields, nil
}
