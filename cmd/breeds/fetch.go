package main

import (
	"github.com/Sternrassler/breed-feed/pkg/pagination"
)

// Run executes the fetch command. Persisted items that are still fresh are
// shown without fetching.
func (c *FetchCmd) Run(deps *Dependencies) error {
	ctrl := deps.NewController(pagination.Hooks{})
	defer ctrl.Wait()

	ctrl.Mount(deps.Ctx)

	printed := 0
	fetched := 0
	for s := ctrl.Current(); s != nil; {
		select {
		case <-s.Done():
		case <-deps.Ctx.Done():
			ctrl.Cancel()
			<-s.Done()
		}

		snap := ctrl.Snapshot()
		printed = printItems(deps.Stdout, snap.Items, printed)
		if snap.Status != pagination.StatusSuccess {
			break
		}

		fetched++
		if !c.All && fetched >= c.Pages {
			break
		}
		s = ctrl.FetchMore(deps.Ctx)
	}

	snap := ctrl.Snapshot()
	printItems(deps.Stdout, snap.Items, printed)
	printFooter(deps.Stdout, snap)
	return nil
}
