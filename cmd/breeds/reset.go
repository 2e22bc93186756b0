package main

import (
	"fmt"

	"github.com/Sternrassler/breed-feed/pkg/cache"
	"github.com/Sternrassler/breed-feed/pkg/pagination"
)

// Run executes the reset command.
func (c *ResetCmd) Run(deps *Dependencies) error {
	if d, ok := deps.Store.(cache.Deleter); ok {
		if err := d.Delete(deps.Ctx); err != nil {
			fmt.Fprintf(deps.Stderr, "error: %v\n", err)
			return fmt.Errorf("clear persisted breeds: %w", err)
		}
	} else {
		deps.NewController(pagination.Hooks{}).Reset()
	}

	fmt.Fprintln(deps.Stdout, "Persisted breeds cleared.")
	return nil
}
