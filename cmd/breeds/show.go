package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/Sternrassler/breed-feed/pkg/cache"
)

// Run executes the show command.
func (c *ShowCmd) Run(deps *Dependencies) error {
	fields, err := deps.Store.Load(deps.Ctx)
	if errors.Is(err, cache.ErrNotFound) {
		fmt.Fprintln(deps.Stdout, "No persisted breeds. Use 'breeds fetch' to load some.")
		return nil
	}
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %v\n", err)
		return fmt.Errorf("load persisted breeds: %w", err)
	}

	printItems(deps.Stdout, fields.Items, 0)

	age := "never"
	if !fields.LastFetchedAt.IsZero() {
		age = time.Since(fields.LastFetchedAt).Truncate(time.Second).String() + " ago"
	}
	fresh := !fields.LastFetchedAt.IsZero() && time.Since(fields.LastFetchedAt) < deps.Config.Store.CacheTTL
	fmt.Fprintf(deps.Stdout, "%d breeds, next %s, fetched %s, fresh %t\n", len(fields.Items), fields.Cursor, age, fresh)
	return nil
}
