// Package testutil provides testing utilities for scrollkit.
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"time"
)

// Item is the test item shape served by the mock backend.
type Item struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// PageDocument is the JSON document returned for each page.
type PageDocument struct {
	Items      []Item  `json:"items"`
	Total      int     `json:"total"`
	NextCursor *string `json:"next_cursor"`
}

// MockBackend is a configurable paginated HTTP backend for testing. It
// serves a fixed collection of sequential items, understands both
// page/limit and cursor/limit query parameters, and can inject failures.
type MockBackend struct {
	server *httptest.Server

	mu           sync.Mutex
	total        int
	failuresLeft int
	failStatus   int
	delay        time.Duration
	requestCount int
	lastQuery    map[string]string
}

// NewMockBackend creates a mock backend serving total sequential items.
func NewMockBackend(total int) *MockBackend {
	b := &MockBackend{total: total}
	b.server = httptest.NewServer(http.HandlerFunc(b.handle))
	return b
}

// URL returns the backend's collection endpoint.
func (b *MockBackend) URL() string {
	return b.server.URL + "/items"
}

// Close shuts down the backend.
func (b *MockBackend) Close() {
	b.server.Close()
}

// FailNext makes the next n requests return the given status code.
func (b *MockBackend) FailNext(n, status int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failuresLeft = n
	b.failStatus = status
}

// SetDelay adds a fixed delay before every response.
func (b *MockBackend) SetDelay(d time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.delay = d
}

// SetTotal changes the collection size.
func (b *MockBackend) SetTotal(total int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.total = total
}

// RequestCount returns the number of requests served.
func (b *MockBackend) RequestCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.requestCount
}

// LastQuery returns the query parameters of the most recent request.
func (b *MockBackend) LastQuery() map[string]string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastQuery
}

func (b *MockBackend) handle(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	b.requestCount++
	b.lastQuery = map[string]string{}
	for k, v := range r.URL.Query() {
		if len(v) > 0 {
			b.lastQuery[k] = v[0]
		}
	}
	total := b.total
	delay := b.delay
	fail := b.failuresLeft > 0
	failStatus := b.failStatus
	if fail {
		b.failuresLeft--
	}
	b.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}

	if fail {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(failStatus)
		fmt.Fprintf(w, `{"error": %q}`, http.StatusText(failStatus))
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 {
		limit = 20
	}

	offset := 0
	if cursor := r.URL.Query().Get("cursor"); cursor != "" {
		fmt.Sscanf(cursor, "off-%d", &offset)
	} else if pageStr := r.URL.Query().Get("page"); pageStr != "" {
		if page, err := strconv.Atoi(pageStr); err == nil && page > 0 {
			offset = (page - 1) * limit
		}
	}

	end := offset + limit
	if end > total {
		end = total
	}

	doc := PageDocument{Items: make([]Item, 0, limit), Total: total}
	for i := offset; i < end; i++ {
		doc.Items = append(doc.Items, Item{ID: i, Name: fmt.Sprintf("item-%d", i)})
	}
	if end < total {
		next := fmt.Sprintf("off-%d", end)
		doc.NextCursor = &next
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(doc)
}
