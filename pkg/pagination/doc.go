// Package pagination drives incremental, forward-only fetching of the breeds
// resource for an infinite-scroll list.
//
// A Controller owns the pagination State and at most one in-flight Session.
// Every trigger (initial mount, scroll-to-end, refetch button, network resume)
// ends up in Controller.Start, which retires the previous session before
// starting a new one. Settlements are applied only if their session is still
// the current one, so a superseded or cancelled fetch can never append a page
// or resurrect a cancelled load.
//
// Example usage:
//
//	fetcher, _ := client.New(client.DefaultConfig("http://localhost:3000/api/v2/breeds"))
//	ctrl := pagination.NewController(fetcher, pagination.ControllerOptions{
//		Policy:   client.NewRetryPolicy(client.DefaultRetryConfig()),
//		Store:    store,
//		CacheTTL: 80 * time.Second,
//	})
//	ctrl.Mount(ctx)         // loads persisted items, fetches if stale
//	ctrl.FetchMore(ctx)     // scroll reached the end
//	ctrl.Cancel()           // user pressed abort
//	snap := ctrl.Snapshot() // what the list renders
//
// The controller never returns fetch failures to callers; they are observed
// through Snapshot().Status and Snapshot().ErrorMessage.
package pagination
