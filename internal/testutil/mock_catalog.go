// Package testutil provides testing utilities for the catalog client.
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

// Item mirrors the catalog wire format for mock responses.
type Item struct {
	ID       int64  `json:"id"`
	Title    string `json:"title"`
	Category string `json:"category"`
}

// MockCatalog is a configurable mock catalog server for testing. By default
// it serves a synthetic collection of Total items where the item on global
// row r (1-based) has ID r, Title "item-r".
type MockCatalog struct {
	server *httptest.Server
	mu     sync.RWMutex

	// Total is the synthetic collection size.
	Total int64

	// FailPages maps page numbers to HTTP status codes to return instead
	// of data.
	FailPages map[int]int

	// Delay is applied to every request before responding.
	Delay time.Duration

	// ETag, when set, enables conditional request handling: requests with
	// a matching If-None-Match header get 304.
	ETag string

	// RateLimitRemaining, when >= 0, is sent as X-RateLimit-Remaining.
	RateLimitRemaining int

	// Tracking
	RequestCount     int
	ConditionalCount int
	inFlight         int
	MaxInFlight      int
	handlers         map[string]http.HandlerFunc
}

// NewMockCatalog creates a mock catalog server with the given collection size.
func NewMockCatalog(total int64) *MockCatalog {
	mock := &MockCatalog{
		Total:              total,
		FailPages:          make(map[int]int),
		RateLimitRemaining: 100,
		handlers:           make(map[string]http.HandlerFunc),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mock.mu.Lock()
		mock.RequestCount++
		mock.inFlight++
		if mock.inFlight > mock.MaxInFlight {
			mock.MaxInFlight = mock.inFlight
		}
		if r.Header.Get("If-None-Match") != "" {
			mock.ConditionalCount++
		}
		handler, custom := mock.handlers[r.URL.Path]
		delay := mock.Delay
		mock.mu.Unlock()

		defer func() {
			mock.mu.Lock()
			mock.inFlight--
			mock.mu.Unlock()
		}()

		if delay > 0 {
			time.Sleep(delay)
		}

		if custom {
			handler(w, r)
			return
		}

		mock.itemsHandler(w, r)
	}))

	return mock
}

// URL returns the mock server URL.
func (m *MockCatalog) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockCatalog) Close() {
	m.server.Close()
}

// Reset clears all tracking counters.
func (m *MockCatalog) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RequestCount = 0
	m.ConditionalCount = 0
	m.MaxInFlight = 0
}

// SetHandler sets a custom handler for a specific path.
func (m *MockCatalog) SetHandler(path string, handler http.HandlerFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[path] = handler
}

// FailPage makes the given page return the given status code.
func (m *MockCatalog) FailPage(page, status int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FailPages[page] = status
}

// GetRequestCount returns the number of requests made to the server.
func (m *MockCatalog) GetRequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.RequestCount
}

// GetConditionalCount returns the number of conditional requests received.
func (m *MockCatalog) GetConditionalCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.ConditionalCount
}

// GetMaxInFlight returns the concurrent-request high-water mark.
func (m *MockCatalog) GetMaxInFlight() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.MaxInFlight
}

// itemsHandler serves the synthetic paginated collection.
func (m *MockCatalog) itemsHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, err := strconv.Atoi(q.Get("page"))
	if err != nil || page < 1 {
		http.Error(w, `{"error": "invalid page"}`, http.StatusBadRequest)
		return
	}
	perPage, err := strconv.Atoi(q.Get("per_page"))
	if err != nil || perPage < 1 {
		http.Error(w, `{"error": "invalid per_page"}`, http.StatusBadRequest)
		return
	}

	m.mu.RLock()
	total := m.Total
	failStatus, failed := m.FailPages[page]
	etag := m.ETag
	remaining := m.RateLimitRemaining
	m.mu.RUnlock()

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("X-Total-Count", strconv.FormatInt(total, 10))
	if remaining >= 0 {
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
		w.Header().Set("X-RateLimit-Reset", "60")
	}

	if failed {
		w.WriteHeader(failStatus)
		fmt.Fprintf(w, `{"error": "injected failure for page %d"}`, page)
		return
	}

	if etag != "" {
		w.Header().Set("ETag", etag)
		w.Header().Set("Expires", time.Now().Add(5*time.Minute).Format(http.TimeFormat))
		if r.Header.Get("If-None-Match") == etag {
			w.WriteHeader(http.StatusNotModified)
			return
		}
	}

	first := int64(page-1)*int64(perPage) + 1
	last := int64(page) * int64(perPage)
	if last > total {
		last = total
	}

	items := []Item{}
	for row := first; row <= last; row++ {
		items = append(items, Item{
			ID:       row,
			Title:    fmt.Sprintf("item-%d", row),
			Category: "default",
		})
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]any{
		"items": items,
		"total": total,
	})
}
