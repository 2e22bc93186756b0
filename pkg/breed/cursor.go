package breed

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Cursor points at the next page to fetch. The zero value is the terminal
// cursor: there are no further pages. Cursors only move forward.
type Cursor struct {
	page int
}

// FirstPage returns the cursor a fresh resource starts from.
func FirstPage() Cursor {
	return Cursor{page: 1}
}

// End returns the terminal cursor.
func End() Cursor {
	return Cursor{}
}

// PageCursor returns a cursor for page n. Non-positive page numbers yield the
// terminal cursor.
func PageCursor(n int) Cursor {
	if n <= 0 {
		return End()
	}
	return Cursor{page: n}
}

// Page returns the page number, or 0 for the terminal cursor.
func (c Cursor) Page() int {
	return c.page
}

// Done reports whether the cursor is terminal.
func (c Cursor) Done() bool {
	return c.page <= 0
}

// String implements fmt.Stringer.
func (c Cursor) String() string {
	if c.Done() {
		return "end"
	}
	return "page=" + strconv.Itoa(c.page)
}

// MarshalJSON encodes the cursor as its page number, or null when terminal.
func (c Cursor) MarshalJSON() ([]byte, error) {
	if c.Done() {
		return []byte("null"), nil
	}
	return []byte(strconv.Itoa(c.page)), nil
}

// UnmarshalJSON accepts a page number or null.
func (c *Cursor) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*c = End()
		return nil
	}

	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("decode cursor: %w", err)
	}
	*c = PageCursor(n)
	return nil
}
