// Package testutil provides testing utilities for the breeds client.
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"time"

	"github.com/Sternrassler/breed-feed/pkg/breed"
)

// MockResponse defines a scripted response for one request.
type MockResponse struct {
	StatusCode int
	Message    string
	Delay      time.Duration
}

// MockBreeds is a configurable mock of the paginated breeds resource.
type MockBreeds struct {
	server *httptest.Server
	mu     sync.Mutex

	pages    map[int][]breed.Breed
	last     int
	scripts  map[int][]MockResponse
	delay    time.Duration
	requests map[int]int

	// LastRequestHeader holds the headers of the most recent request.
	LastRequestHeader http.Header
}

// NewMockBreeds creates a mock serving totalPages pages of perPage items each.
func NewMockBreeds(totalPages, perPage int) *MockBreeds {
	mock := &MockBreeds{
		pages:    make(map[int][]breed.Breed),
		last:     totalPages,
		scripts:  make(map[int][]MockResponse),
		requests: make(map[int]int),
	}
	for p := 1; p <= totalPages; p++ {
		mock.pages[p] = MakeBreeds(p, perPage)
	}

	mock.server = httptest.NewServer(http.HandlerFunc(mock.handle))
	return mock
}

// URL returns the resource URL of the mock server.
func (m *MockBreeds) URL() string {
	return m.server.URL + "/api/v2/breeds"
}

// Close shuts down the mock server.
func (m *MockBreeds) Close() {
	m.server.Close()
}

// SetDelay delays every successful response.
func (m *MockBreeds) SetDelay(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delay = d
}

// Script queues responses for a page; each request consumes one entry and
// falls back to the normal page once the script is used up.
func (m *MockBreeds) Script(page int, responses ...MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scripts[page] = append(m.scripts[page], responses...)
}

// Requests returns how many requests hit the given page.
func (m *MockBreeds) Requests(page int) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.requests[page]
}

// TotalRequests returns the number of requests across all pages.
func (m *MockBreeds) TotalRequests() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := 0
	for _, n := range m.requests {
		total += n
	}
	return total
}

// Header returns the headers of the most recent request.
func (m *MockBreeds) Header() http.Header {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.LastRequestHeader
}

func (m *MockBreeds) handle(w http.ResponseWriter, r *http.Request) {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "invalid page"})
		return
	}

	m.mu.Lock()
	m.requests[page]++
	m.LastRequestHeader = r.Header.Clone()
	var scripted *MockResponse
	if queue := m.scripts[page]; len(queue) > 0 {
		scripted = &queue[0]
		m.scripts[page] = queue[1:]
	}
	delay := m.delay
	items := m.pages[page]
	last := m.last
	m.mu.Unlock()

	if scripted != nil {
		if !wait(r, scripted.Delay) {
			return
		}
		if scripted.StatusCode != 0 && scripted.StatusCode != http.StatusOK {
			writeJSON(w, scripted.StatusCode, map[string]string{"message": scripted.Message})
			return
		}
	} else if !wait(r, delay) {
		return
	}

	var next *int
	if page < last {
		n := page + 1
		next = &n
	}
	if items == nil {
		items = []breed.Breed{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"data": items,
		"meta": map[string]any{
			"pagination": map[string]any{"current": page, "next": next, "last": last},
		},
	})
}

// wait sleeps for d unless the client goes away first.
func wait(r *http.Request, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	select {
	case <-time.After(d):
		return true
	case <-r.Context().Done():
		return false
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// MakeBreeds builds n deterministic breeds for a page.
func MakeBreeds(page, n int) []breed.Breed {
	items := make([]breed.Breed, 0, n)
	for i := 0; i < n; i++ {
		items = append(items, breed.Breed{
			ID:   fmt.Sprintf("p%d-%d", page, i),
			Type: "breed",
			Attributes: breed.Attributes{
				Name:         fmt.Sprintf("Breed %d.%d", page, i),
				Description:  "A test breed",
				Life:         breed.Range{Min: 10, Max: 14},
				MaleWeight:   breed.Range{Min: 20, Max: 30},
				FemaleWeight: breed.Range{Min: 18, Max: 26},
			},
		})
	}
	return items
}

// NewServerErrorResponse returns a 503 like the upstream proxy's simulation.
func NewServerErrorResponse() MockResponse {
	return MockResponse{StatusCode: http.StatusServiceUnavailable, Message: "Service Unavailable"}
}

// NewClientErrorResponse returns a 404 with a message body.
func NewClientErrorResponse() MockResponse {
	return MockResponse{StatusCode: http.StatusNotFound, Message: "Not Found"}
}
