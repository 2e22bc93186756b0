// Package breed defines the items served by the remote breeds resource and the
// cursor used to walk its pages.
package breed

// Range is an inclusive min/max pair as reported by the remote resource.
type Range struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// Attributes holds the descriptive fields of a breed.
type Attributes struct {
	Name         string `json:"name"`
	Description  string `json:"description"`
	Life         Range  `json:"life"`
	MaleWeight   Range  `json:"male_weight"`
	FemaleWeight Range  `json:"female_weight"`
}

// Breed is a single item of the paginated resource.
type Breed struct {
	ID         string     `json:"id"`
	Type       string     `json:"type"`
	Attributes Attributes `json:"attributes"`
}

// Page is the result of fetching one page.
type Page struct {
	Items []Breed
	Next  Cursor
}
