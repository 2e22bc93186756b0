package main

import (
	"fmt"
	"io"

	"github.com/Sternrassler/breed-feed/pkg/breed"
	"github.com/Sternrassler/breed-feed/pkg/pagination"
)

// printItems writes items[from:] and returns the new printed count.
func printItems(w io.Writer, items []breed.Breed, from int) int {
	for i := from; i < len(items); i++ {
		a := items[i].Attributes
		fmt.Fprintf(w, "%4d  %-32s  life %d-%dy  male %d-%dkg\n",
			i+1, a.Name, a.Life.Min, a.Life.Max, a.MaleWeight.Min, a.MaleWeight.Max)
	}
	return len(items)
}

// printFooter writes the list footer for snap.
func printFooter(w io.Writer, snap pagination.Snapshot) {
	footer := pagination.Footer(snap)
	switch footer.Kind {
	case pagination.FooterAlert:
		fmt.Fprintf(w, "[%s] %s (%s)\n", footer.Severity, footer.Text, footer.ActionText)
	case pagination.FooterSpinner:
		if snap.Status == pagination.StatusLoading {
			fmt.Fprintf(w, "... %s\n", footer.Text)
			return
		}
		fmt.Fprintf(w, "%d breeds, more from %s\n", len(snap.Items), snap.Cursor)
	default:
		if snap.EndOfList() {
			fmt.Fprintf(w, "End of list, %d breeds\n", len(snap.Items))
		}
	}
}
